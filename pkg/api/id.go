package api

import (
	"regexp"
	"strings"
)

type (
	// FlowID is a unique identifier for a flow
	FlowID string

	// StepID is a unique identifier for a step
	StepID string

	// Name is a string identifier for arguments and attributes
	Name string
)

var (
	camelCaseRegex = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	delimiterRegex = regexp.MustCompile(`[\s_]+`)
)

// KebabCase converts a name into its kebab-case wire identifier. A hyphen is
// inserted between a lowercase letter or digit and an uppercase letter, runs
// of whitespace and underscores collapse to a single hyphen, and the result
// is lowercased
func KebabCase[T ~string](s T) T {
	res := camelCaseRegex.ReplaceAllString(string(s), "$1-$2")
	res = delimiterRegex.ReplaceAllString(res, "-")
	return T(strings.ToLower(res))
}
