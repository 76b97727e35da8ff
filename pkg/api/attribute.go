package api

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

type (
	// AttributeSpec describes a single named input or output of a step. The
	// Default field carries a JSON-encoded value so the wire form stays
	// text-based; use DefaultValue to obtain the decoded Go value
	AttributeSpec struct {
		Role    AttributeRole `json:"role"`
		Type    AttributeType `json:"type"`
		Default string        `json:"default,omitempty"`
		ForEach bool          `json:"for_each,omitempty"`
	}

	AttributeSpecs map[Name]*AttributeSpec
	AttributeRole  string
	AttributeType  string
)

const (
	RoleRequired AttributeRole = "required"
	RoleOptional AttributeRole = "optional"
	RoleConst    AttributeRole = "const"
	RoleOutput   AttributeRole = "output"
)

const (
	TypeString  AttributeType = "string"
	TypeNumber  AttributeType = "number"
	TypeBoolean AttributeType = "boolean"
	TypeObject  AttributeType = "object"
	TypeArray   AttributeType = "array"
	TypeNull    AttributeType = "null"
	TypeAny     AttributeType = "any"
)

var (
	ErrInvalidAttributeRole = errors.New("invalid attribute role")
	ErrInvalidAttributeType = errors.New("invalid attribute type")
	ErrConstRequiresDefault = errors.New(
		"const attribute requires a default value",
	)
	ErrDefaultNotAllowed = errors.New(
		"default value requires an optional or const attribute",
	)
	ErrForEachRequiresArray = errors.New(
		"for_each processing requires an array attribute type",
	)
	ErrForEachNotAllowedOutput = errors.New(
		"for_each processing requires an input attribute type",
	)
	ErrInvalidDefaultValue = errors.New("invalid default value for type")
)

var (
	validAttributeRoles = map[AttributeRole]struct{}{
		RoleRequired: {},
		RoleOptional: {},
		RoleConst:    {},
		RoleOutput:   {},
	}

	validAttributeTypes = map[AttributeType]struct{}{
		TypeString:  {},
		TypeNumber:  {},
		TypeBoolean: {},
		TypeObject:  {},
		TypeArray:   {},
		TypeNull:    {},
		TypeAny:     {},
	}
)

// Validate checks the attribute specification against its structural rules,
// reporting the offending attribute by name
func (as *AttributeSpec) Validate(name Name) error {
	if _, ok := validAttributeRoles[as.Role]; !ok {
		return fmt.Errorf("%w: %s for attribute %q",
			ErrInvalidAttributeRole, as.Role, name)
	}

	if as.Role == RoleConst && as.Default == "" {
		return fmt.Errorf("%w: %q", ErrConstRequiresDefault, name)
	}

	if as.Default != "" &&
		as.Role != RoleOptional && as.Role != RoleConst {
		return fmt.Errorf("%w: %s for attribute %q",
			ErrDefaultNotAllowed, as.Role, name)
	}

	if as.Type != "" {
		if _, ok := validAttributeTypes[as.Type]; !ok {
			return fmt.Errorf("%w: %s for attribute %q",
				ErrInvalidAttributeType, as.Type, name)
		}
	}

	if as.Default != "" {
		if err := validateDefaultValue(as.Default, as.Type); err != nil {
			return fmt.Errorf("%w for attribute %q: %v",
				ErrInvalidDefaultValue, name, err)
		}
	}

	if as.ForEach {
		if as.Role == RoleOutput {
			return fmt.Errorf("%w: %q", ErrForEachNotAllowedOutput, name)
		}
		if as.Type != TypeArray && as.Type != TypeAny {
			return fmt.Errorf("%w: type %s for attribute %q",
				ErrForEachRequiresArray, as.Type, name)
		}
	}

	return nil
}

// DefaultValue decodes the JSON-encoded default into its Go representation.
// The second result is false when no default is declared
func (as *AttributeSpec) DefaultValue() (any, bool) {
	if as.Default == "" || !gjson.Valid(as.Default) {
		return nil, false
	}
	return gjson.Parse(as.Default).Value(), true
}

// IsInput returns true for attributes whose value is supplied to the step
func (as *AttributeSpec) IsInput() bool {
	return as.Role == RoleRequired ||
		as.Role == RoleOptional ||
		as.Role == RoleConst
}

// IsOutput returns true for attributes produced by the step
func (as *AttributeSpec) IsOutput() bool {
	return as.Role == RoleOutput
}

func (as *AttributeSpec) Equal(other *AttributeSpec) bool {
	if as == nil && other == nil {
		return true
	}
	if as == nil || other == nil {
		return false
	}
	return as.Role == other.Role &&
		as.Type == other.Type &&
		as.ForEach == other.ForEach &&
		as.Default == other.Default
}

func validateDefaultValue(value string, attrType AttributeType) error {
	if !gjson.Valid(value) {
		return errors.New("must be valid JSON")
	}

	if attrType == TypeAny || attrType == "" {
		return nil
	}

	result := gjson.Parse(value)

	switch attrType {
	case TypeString:
		if result.Type != gjson.String {
			return errors.New("must be a valid JSON string")
		}
		return nil

	case TypeNumber:
		if result.Type != gjson.Number {
			return errors.New("must be a valid number")
		}
		return nil

	case TypeBoolean:
		if result.Type != gjson.True && result.Type != gjson.False {
			return errors.New("must be \"true\" or \"false\"")
		}
		return nil

	case TypeObject:
		if !result.IsObject() {
			return errors.New("must be valid JSON object")
		}
		return nil

	case TypeArray:
		if !result.IsArray() {
			return errors.New("must be valid JSON array")
		}
		return nil

	case TypeNull:
		if result.Type != gjson.Null {
			return errors.New("must be \"null\"")
		}
		return nil

	default:
		return nil
	}
}
