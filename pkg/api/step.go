package api

import (
	"errors"
	"fmt"
	"slices"
)

type (
	StepType string

	// Step is the complete definition of a unit of work registered with the
	// engine. Exactly one of HTTP, Script, or Flow is populated, determined
	// by Type. A Step is assembled once by a builder and never mutated
	Step struct {
		Predicate  *ScriptConfig  `json:"predicate,omitempty"`
		HTTP       *HTTPConfig    `json:"http,omitempty"`
		Script     *ScriptConfig  `json:"script,omitempty"`
		WorkConfig *WorkConfig    `json:"work_config,omitempty"`
		Flow       *FlowConfig    `json:"flow,omitempty"`
		ID         StepID         `json:"id"`
		Name       Name           `json:"name"`
		Type       StepType       `json:"type"`
		Attributes AttributeSpecs `json:"attributes,omitempty"`
		Labels     Labels         `json:"labels,omitempty"`
		Memoizable bool           `json:"memoizable,omitempty"`
	}

	// HTTPConfig describes how the engine reaches an HTTP-executed step
	HTTPConfig struct {
		Endpoint    string `json:"endpoint"`
		HealthCheck string `json:"health_check,omitempty"`
		Timeout     int64  `json:"timeout,omitempty"`
	}

	// ScriptConfig carries an embedded script, used for both script steps
	// and predicates
	ScriptConfig struct {
		Language string `json:"language"`
		Script   string `json:"script"`
	}

	// WorkConfig controls engine-side retry and parallelism behavior.
	// Zero-valued fields are omitted from the wire form
	WorkConfig struct {
		MaxRetries  int    `json:"max_retries,omitempty"`
		BackoffType string `json:"backoff_type,omitempty"`
		Backoff     int64  `json:"backoff,omitempty"`
		MaxBackoff  int64  `json:"max_backoff,omitempty"`
		Parallelism int    `json:"parallelism,omitempty"`
	}

	// FlowConfig configures a step that executes as a sub-flow
	FlowConfig struct {
		Goals     []StepID          `json:"goals"`
		InputMap  map[string]string `json:"input_map,omitempty"`
		OutputMap map[string]string `json:"output_map,omitempty"`
	}

	// StepRequest is the body the engine posts to invoke a step
	StepRequest struct {
		Arguments Args     `json:"arguments"`
		Metadata  Metadata `json:"metadata"`
	}

	// StepResult reports the outcome of a single step invocation. Success or
	// failure travels in the body, not the HTTP status line
	StepResult struct {
		Outputs Args   `json:"outputs,omitempty"`
		Error   string `json:"error,omitempty"`
		Success bool   `json:"success"`
	}
)

const (
	StepTypeSync   StepType = "sync"
	StepTypeAsync  StepType = "async"
	StepTypeScript StepType = "script"
	StepTypeFlow   StepType = "flow"

	ScriptLangAle = "ale"
	ScriptLangLua = "lua"

	BackoffTypeFixed       = "fixed"
	BackoffTypeLinear      = "linear"
	BackoffTypeExponential = "exponential"
)

// Millisecond-based duration constants for HTTPConfig timeouts
const (
	Second int64 = 1000
	Minute       = Second * 60
	Hour         = Minute * 60
	Day          = Hour * 24
)

var (
	ErrStepIDEmpty         = errors.New("step ID empty")
	ErrStepNameEmpty       = errors.New("step name empty")
	ErrStepEndpointEmpty   = errors.New("step endpoint empty")
	ErrAttributeNameEmpty  = errors.New("attribute name empty")
	ErrAttributeNil        = errors.New("attribute has nil definition")
	ErrInvalidStepType     = errors.New("invalid step type")
	ErrHTTPRequired        = errors.New("http config required")
	ErrHTTPNotAllowed      = errors.New("http config not allowed")
	ErrScriptRequired      = errors.New("script config required")
	ErrScriptNotAllowed    = errors.New("script config not allowed")
	ErrFlowGoalsRequired   = errors.New("flow config with goals required")
	ErrFlowNotAllowed      = errors.New("flow config not allowed")
	ErrScriptLanguageEmpty = errors.New("script language empty")
	ErrInvalidScriptLang   = errors.New("invalid script language")
	ErrScriptEmpty         = errors.New("script empty")
	ErrInvalidRetryConfig  = errors.New("invalid retry config")
	ErrInvalidBackoffType  = errors.New("invalid backoff type")
	ErrNegativeBackoff     = errors.New("backoff cannot be negative")
	ErrMaxBackoffTooSmall  = errors.New("max_backoff must be >= backoff")
)

var (
	validStepTypes = map[StepType]struct{}{
		StepTypeSync:   {},
		StepTypeAsync:  {},
		StepTypeScript: {},
		StepTypeFlow:   {},
	}

	validScriptLangs = map[string]struct{}{
		ScriptLangAle: {},
		ScriptLangLua: {},
	}

	validBackoffTypes = map[string]struct{}{
		BackoffTypeFixed:       {},
		BackoffTypeLinear:      {},
		BackoffTypeExponential: {},
	}
)

// NewResult creates a successful StepResult with an empty output set
func NewResult() *StepResult {
	return &StepResult{
		Success: true,
		Outputs: Args{},
	}
}

// Validate checks the step definition against its structural and semantic
// rules. It never touches the network and fails fast on the first violation
func (s *Step) Validate() error {
	if s.ID == "" {
		return ErrStepIDEmpty
	}
	if s.Name == "" {
		return ErrStepNameEmpty
	}

	if _, ok := validStepTypes[s.Type]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidStepType, s.Type)
	}

	switch s.Type {
	case StepTypeSync, StepTypeAsync:
		if s.HTTP == nil {
			return ErrHTTPRequired
		}
		if s.HTTP.Endpoint == "" {
			return ErrStepEndpointEmpty
		}
		if s.Script != nil {
			return fmt.Errorf("%w for %s steps", ErrScriptNotAllowed, s.Type)
		}
		if s.Flow != nil {
			return fmt.Errorf("%w for %s steps", ErrFlowNotAllowed, s.Type)
		}

	case StepTypeScript:
		if s.Script == nil {
			return ErrScriptRequired
		}
		if err := s.Script.validate(); err != nil {
			return err
		}
		if s.HTTP != nil {
			return fmt.Errorf("%w for script steps", ErrHTTPNotAllowed)
		}
		if s.Flow != nil {
			return fmt.Errorf("%w for script steps", ErrFlowNotAllowed)
		}

	case StepTypeFlow:
		if s.Flow == nil || len(s.Flow.Goals) == 0 {
			return ErrFlowGoalsRequired
		}
		if s.HTTP != nil {
			return fmt.Errorf("%w for flow steps", ErrHTTPNotAllowed)
		}
		if s.Script != nil {
			return fmt.Errorf("%w for flow steps", ErrScriptNotAllowed)
		}
	}

	if s.Predicate != nil {
		if err := s.Predicate.validate(); err != nil {
			return err
		}
	}

	if err := s.validateAttributes(); err != nil {
		return err
	}
	return s.WorkConfig.validate()
}

func (s *Step) validateAttributes() error {
	for name, attr := range s.Attributes {
		if name == "" {
			return ErrAttributeNameEmpty
		}
		if attr == nil {
			return fmt.Errorf("%w: %q", ErrAttributeNil, name)
		}
		if err := attr.Validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (sc *ScriptConfig) validate() error {
	if sc.Language == "" {
		return ErrScriptLanguageEmpty
	}
	if _, ok := validScriptLangs[sc.Language]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidScriptLang, sc.Language)
	}
	if sc.Script == "" {
		return ErrScriptEmpty
	}
	return nil
}

func (wc *WorkConfig) validate() error {
	if wc == nil {
		return nil
	}

	if wc.Backoff < 0 {
		return ErrNegativeBackoff
	}

	if wc.MaxBackoff != 0 && wc.MaxBackoff < wc.Backoff {
		return ErrMaxBackoffTooSmall
	}

	hasRetry := wc.MaxRetries != 0 || wc.Backoff != 0 || wc.MaxBackoff != 0
	if hasRetry {
		if wc.BackoffType == "" {
			return ErrInvalidRetryConfig
		}
		if _, ok := validBackoffTypes[wc.BackoffType]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidBackoffType, wc.BackoffType)
		}
	}

	return nil
}

// InputArgs returns the names of all attributes supplied to the step
func (s *Step) InputArgs() []Name {
	var args []Name
	for name, attr := range s.Attributes {
		if attr.IsInput() {
			args = append(args, name)
		}
	}
	slices.Sort(args)
	return args
}

// RequiredArgs returns the names of all required attributes
func (s *Step) RequiredArgs() []Name {
	var args []Name
	for name, attr := range s.Attributes {
		if attr.Role == RoleRequired {
			args = append(args, name)
		}
	}
	slices.Sort(args)
	return args
}

// OutputArgs returns the names of all attributes produced by the step
func (s *Step) OutputArgs() []Name {
	var args []Name
	for name, attr := range s.Attributes {
		if attr.IsOutput() {
			args = append(args, name)
		}
	}
	slices.Sort(args)
	return args
}

// WithOutput adds an output value to the result
func (sr *StepResult) WithOutput(name Name, value any) *StepResult {
	if sr.Outputs == nil {
		sr.Outputs = Args{}
	}
	sr.Outputs[name] = value
	return sr
}

// WithError marks the result as failed with the provided error
func (sr *StepResult) WithError(err error) *StepResult {
	sr.Success = false
	sr.Error = err.Error()
	return sr
}

func (s *Step) Equal(other *Step) bool {
	if s.ID != other.ID || s.Name != other.Name || s.Type != other.Type {
		return false
	}
	if s.Memoizable != other.Memoizable {
		return false
	}
	if !attributeMapsEqual(s.Attributes, other.Attributes) {
		return false
	}
	if !labelsEqual(s.Labels, other.Labels) {
		return false
	}
	if !s.HTTP.Equal(other.HTTP) {
		return false
	}
	if !s.Script.Equal(other.Script) {
		return false
	}
	if !s.Predicate.Equal(other.Predicate) {
		return false
	}
	if !s.WorkConfig.Equal(other.WorkConfig) {
		return false
	}
	return s.Flow.Equal(other.Flow)
}

func (h *HTTPConfig) Equal(other *HTTPConfig) bool {
	if h == nil && other == nil {
		return true
	}
	if h == nil || other == nil {
		return false
	}
	return h.Endpoint == other.Endpoint &&
		h.HealthCheck == other.HealthCheck &&
		h.Timeout == other.Timeout
}

func (sc *ScriptConfig) Equal(other *ScriptConfig) bool {
	if sc == nil && other == nil {
		return true
	}
	if sc == nil || other == nil {
		return false
	}
	return sc.Language == other.Language && sc.Script == other.Script
}

func (wc *WorkConfig) Equal(other *WorkConfig) bool {
	if wc == nil && other == nil {
		return true
	}
	if wc == nil || other == nil {
		return false
	}
	return wc.MaxRetries == other.MaxRetries &&
		wc.BackoffType == other.BackoffType &&
		wc.Backoff == other.Backoff &&
		wc.MaxBackoff == other.MaxBackoff &&
		wc.Parallelism == other.Parallelism
}

func (fc *FlowConfig) Equal(other *FlowConfig) bool {
	if fc == nil && other == nil {
		return true
	}
	if fc == nil || other == nil {
		return false
	}
	if !slices.Equal(fc.Goals, other.Goals) {
		return false
	}
	return stringMapsEqual(fc.InputMap, other.InputMap) &&
		stringMapsEqual(fc.OutputMap, other.OutputMap)
}

func attributeMapsEqual(a, b AttributeSpecs) bool {
	if len(a) != len(b) {
		return false
	}
	for name, attrA := range a {
		attrB, ok := b[name]
		if !ok || !attrA.Equal(attrB) {
			return false
		}
	}
	return true
}

func labelsEqual(a, b Labels) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func stringMapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
