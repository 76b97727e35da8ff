package builder

import (
	"context"
	"fmt"
	"maps"

	"github.com/kode4food/argyll/worker/pkg/api"
)

// Step is a builder for creating and configuring flow steps. Every mutator
// returns a new builder value; the receiver is never modified, so partially
// configured builders can be shared and reused as templates
type Step struct {
	client     *Client
	err        error
	predicate  *api.ScriptConfig
	http       *api.HTTPConfig
	script     *api.ScriptConfig
	flow       *api.FlowConfig
	workConfig *api.WorkConfig
	id         api.StepID
	name       api.Name
	stepType   api.StepType
	labels     api.Labels
	attributes api.AttributeSpecs
	timeout    int64
	memoizable bool
	dirty      bool
}

// NewStep creates a new step builder with the specified name. The step ID
// defaults to the kebab-case form of the name until overridden by WithID
func (c *Client) NewStep(name api.Name) *Step {
	return &Step{
		client:     c,
		id:         api.StepID(api.KebabCase(name)),
		name:       name,
		stepType:   api.StepTypeSync,
		timeout:    30 * api.Second,
		labels:     api.Labels{},
		attributes: api.AttributeSpecs{},
	}
}

// WithID sets the step ID, overriding the auto-generated ID from the step
// name
func (s *Step) WithID(id api.StepID) *Step {
	res := *s
	res.id = id
	return &res
}

// WithName sets the step name. If no custom ID has been set, the ID is
// re-derived from the new name
func (s *Step) WithName(name api.Name) *Step {
	res := *s
	derived := api.StepID(api.KebabCase(s.name))
	res.name = name
	if res.id == "" || res.id == derived {
		res.id = api.StepID(api.KebabCase(name))
	}
	return &res
}

// Required declares a required input attribute for the step
func (s *Step) Required(name api.Name, argType api.AttributeType) *Step {
	return s.withAttribute(name, &api.AttributeSpec{
		Role: api.RoleRequired,
		Type: argType,
	})
}

// Optional declares an optional input attribute with a JSON-encoded default
func (s *Step) Optional(
	name api.Name, argType api.AttributeType, defaultValue string,
) *Step {
	return s.withAttribute(name, &api.AttributeSpec{
		Role:    api.RoleOptional,
		Type:    argType,
		Default: defaultValue,
	})
}

// Const declares an input attribute with a fixed JSON-encoded value
func (s *Step) Const(
	name api.Name, argType api.AttributeType, value string,
) *Step {
	return s.withAttribute(name, &api.AttributeSpec{
		Role:    api.RoleConst,
		Type:    argType,
		Default: value,
	})
}

// Output declares an output attribute produced by the step
func (s *Step) Output(name api.Name, argType api.AttributeType) *Step {
	return s.withAttribute(name, &api.AttributeSpec{
		Role: api.RoleOutput,
		Type: argType,
	})
}

// WithForEach marks a previously declared attribute as supporting multi
// work items (arrays). Referencing an undeclared attribute is a defect
// surfaced when the step is built
func (s *Step) WithForEach(name api.Name) *Step {
	res := *s
	attr, ok := s.attributes[name]
	if !ok {
		if res.err == nil {
			res.err = fmt.Errorf("%w: %q", ErrAttributeNotDefined, name)
		}
		return &res
	}
	res.attributes = maps.Clone(s.attributes)
	newAttr := *attr
	newAttr.ForEach = true
	res.attributes[name] = &newAttr
	return &res
}

// WithLabel adds a single label to the step
func (s *Step) WithLabel(key, value string) *Step {
	res := *s
	res.labels = maps.Clone(s.labels)
	res.labels[key] = value
	return &res
}

// WithLabels merges the provided labels into the step's label set
func (s *Step) WithLabels(labels api.Labels) *Step {
	res := *s
	res.labels = maps.Clone(s.labels)
	maps.Copy(res.labels, labels)
	return &res
}

// WithEndpoint sets the HTTP endpoint the engine invokes for this step
func (s *Step) WithEndpoint(endpoint string) *Step {
	res := *s
	res.http = s.cloneHTTP()
	res.http.Endpoint = endpoint
	return &res
}

// WithHealthCheck sets the HTTP health check endpoint for this step
func (s *Step) WithHealthCheck(endpoint string) *Step {
	res := *s
	res.http = s.cloneHTTP()
	res.http.HealthCheck = endpoint
	return &res
}

// WithTimeout sets the engine-enforced execution timeout in milliseconds
func (s *Step) WithTimeout(timeout int64) *Step {
	res := *s
	res.timeout = timeout
	return &res
}

// WithScript configures the step as an Ale script step
func (s *Step) WithScript(script string) *Step {
	return s.WithScriptLanguage(api.ScriptLangAle, script)
}

// WithScriptLanguage configures the step as a script step in the specified
// language
func (s *Step) WithScriptLanguage(lang, script string) *Step {
	res := *s
	res.script = &api.ScriptConfig{
		Language: lang,
		Script:   script,
	}
	res.stepType = api.StepTypeScript
	return &res
}

// WithPredicate attaches a conditional execution predicate to the step
func (s *Step) WithPredicate(language, script string) *Step {
	res := *s
	res.predicate = &api.ScriptConfig{
		Language: language,
		Script:   script,
	}
	return &res
}

// WithAlePredicate attaches an Ale predicate to the step
func (s *Step) WithAlePredicate(script string) *Step {
	return s.WithPredicate(api.ScriptLangAle, script)
}

// WithLuaPredicate attaches a Lua predicate to the step
func (s *Step) WithLuaPredicate(script string) *Step {
	return s.WithPredicate(api.ScriptLangLua, script)
}

// WithFlowGoals configures the step as a sub-flow with the given goal steps
func (s *Step) WithFlowGoals(goals ...api.StepID) *Step {
	res := *s
	res.flow = s.cloneFlow()
	res.flow.Goals = make([]api.StepID, len(goals))
	copy(res.flow.Goals, goals)
	res.stepType = api.StepTypeFlow
	return &res
}

// WithFlowInputMap configures how parent attributes map into the sub-flow
func (s *Step) WithFlowInputMap(mapping map[string]string) *Step {
	res := *s
	res.flow = s.cloneFlow()
	res.flow.InputMap = maps.Clone(mapping)
	res.stepType = api.StepTypeFlow
	return &res
}

// WithFlowOutputMap configures how sub-flow results map back to the parent
func (s *Step) WithFlowOutputMap(mapping map[string]string) *Step {
	res := *s
	res.flow = s.cloneFlow()
	res.flow.OutputMap = maps.Clone(mapping)
	res.stepType = api.StepTypeFlow
	return &res
}

// WithAsyncExecution configures the step to complete via webhook callback
func (s *Step) WithAsyncExecution() *Step {
	res := *s
	res.stepType = api.StepTypeAsync
	return &res
}

// WithSyncExecution configures the step to complete within the invocation
func (s *Step) WithSyncExecution() *Step {
	res := *s
	res.stepType = api.StepTypeSync
	return &res
}

// WithType sets the step execution type directly
func (s *Step) WithType(stepType api.StepType) *Step {
	res := *s
	res.stepType = stepType
	return &res
}

// WithMemoizable enables engine-side memoization of step results
func (s *Step) WithMemoizable() *Step {
	res := *s
	res.memoizable = true
	return &res
}

// WithWorkConfig attaches engine-side retry and parallelism settings
func (s *Step) WithWorkConfig(wc *api.WorkConfig) *Step {
	res := *s
	if wc != nil {
		wcCopy := *wc
		res.workConfig = &wcCopy
	} else {
		res.workConfig = nil
	}
	return &res
}

// MarkForUpdate causes registration to go straight to the engine's update
// endpoint instead of attempting a fresh registration first
func (s *Step) MarkForUpdate() *Step {
	res := *s
	res.dirty = true
	return &res
}

// Build assembles and validates the step definition. A failing validation
// surfaces the error rather than producing a partial step
func (s *Step) Build() (*api.Step, error) {
	if s.err != nil {
		return nil, s.err
	}

	var httpConfig *api.HTTPConfig
	if s.http != nil {
		httpCopy := *s.http
		httpCopy.Timeout = s.timeout
		httpConfig = &httpCopy
	}

	step := &api.Step{
		ID:         s.id,
		Name:       s.name,
		Type:       s.stepType,
		Attributes: s.attributes,
		Labels:     s.labels,
		HTTP:       httpConfig,
		Script:     s.script,
		Predicate:  s.predicate,
		WorkConfig: s.workConfig,
		Flow:       s.flow,
		Memoizable: s.memoizable,
	}

	if err := step.Validate(); err != nil {
		return nil, err
	}

	return step, nil
}

// Register builds the step and publishes it to the engine using the
// registration protocol. Failures after the retry budget is exhausted wrap
// ErrStepRegistration
func (s *Step) Register(ctx context.Context) error {
	step, err := s.Build()
	if err != nil {
		return err
	}
	return registerWithRetry(ctx, s.client, step, s.dirty)
}

// Start builds and registers the step, then serves its execution endpoint.
// The local endpoint and health check are filled in from the worker's
// serving configuration. Start blocks until the server stops
func (s *Step) Start(handle StepHandler) error {
	return setupStepServer(s, handle)
}

func (s *Step) withAttribute(name api.Name, attr *api.AttributeSpec) *Step {
	res := *s
	res.attributes = maps.Clone(s.attributes)
	res.attributes[name] = attr
	return &res
}

func (s *Step) cloneHTTP() *api.HTTPConfig {
	if s.http == nil {
		return &api.HTTPConfig{}
	}
	httpCopy := *s.http
	return &httpCopy
}

func (s *Step) cloneFlow() *api.FlowConfig {
	if s.flow == nil {
		return &api.FlowConfig{}
	}
	flowCopy := *s.flow
	return &flowCopy
}
