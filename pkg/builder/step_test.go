package builder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/worker/pkg/api"
	"github.com/kode4food/argyll/worker/pkg/builder"
)

func testClient() *builder.Client {
	return builder.NewClient("http://localhost:8080", time.Second)
}

func testStep() *builder.Step {
	return testClient().
		NewStep("My Awesome Step").
		WithEndpoint("http://localhost:8081/my-awesome-step")
}

func TestNewStepDefaults(t *testing.T) {
	step, err := testStep().Build()
	assert.NoError(t, err)

	assert.Equal(t, api.StepID("my-awesome-step"), step.ID)
	assert.Equal(t, api.Name("My Awesome Step"), step.Name)
	assert.Equal(t, api.StepTypeSync, step.Type)
	assert.Equal(t, 30*api.Second, step.HTTP.Timeout)
	assert.Empty(t, step.Attributes)
	assert.Empty(t, step.Labels)
}

func TestWithID(t *testing.T) {
	step, err := testStep().WithID("custom-id").Build()
	assert.NoError(t, err)
	assert.Equal(t, api.StepID("custom-id"), step.ID)
}

func TestWithName(t *testing.T) {
	step, err := testStep().WithName("Renamed Step").Build()
	assert.NoError(t, err)
	assert.Equal(t, api.StepID("renamed-step"), step.ID)
	assert.Equal(t, api.Name("Renamed Step"), step.Name)

	// a custom ID survives a rename
	step, err = testStep().
		WithID("pinned").
		WithName("Renamed Step").
		Build()
	assert.NoError(t, err)
	assert.Equal(t, api.StepID("pinned"), step.ID)
}

func TestBuilderImmutability(t *testing.T) {
	base := testStep()
	derived := base.
		Required("count", api.TypeNumber).
		WithLabel("team", "billing").
		WithMemoizable()

	orig, err := base.Build()
	assert.NoError(t, err)
	assert.Empty(t, orig.Attributes)
	assert.Empty(t, orig.Labels)
	assert.False(t, orig.Memoizable)

	next, err := derived.Build()
	assert.NoError(t, err)
	assert.Len(t, next.Attributes, 1)
	assert.Equal(t, "billing", next.Labels["team"])
	assert.True(t, next.Memoizable)
}

func TestAttributeDeclarations(t *testing.T) {
	step, err := testStep().
		Required("count", api.TypeNumber).
		Optional("limit", api.TypeNumber, "10").
		Const("mode", api.TypeString, `"fast"`).
		Output("result", api.TypeString).
		Build()
	assert.NoError(t, err)

	assert.Equal(t, api.RoleRequired, step.Attributes["count"].Role)
	assert.Equal(t, api.RoleOptional, step.Attributes["limit"].Role)
	assert.Equal(t, "10", step.Attributes["limit"].Default)
	assert.Equal(t, api.RoleConst, step.Attributes["mode"].Role)
	assert.Equal(t, api.RoleOutput, step.Attributes["result"].Role)

	assert.Equal(t, []api.Name{"count", "limit", "mode"}, step.InputArgs())
	assert.Equal(t, []api.Name{"result"}, step.OutputArgs())
}

func TestWithForEach(t *testing.T) {
	base := testStep().Required("items", api.TypeArray)

	step, err := base.WithForEach("items").Build()
	assert.NoError(t, err)
	assert.True(t, step.Attributes["items"].ForEach)

	// the source builder's attribute is untouched
	orig, err := base.Build()
	assert.NoError(t, err)
	assert.False(t, orig.Attributes["items"].ForEach)
}

func TestWithForEachUndeclared(t *testing.T) {
	_, err := testStep().WithForEach("missing").Build()
	assert.ErrorIs(t, err, builder.ErrAttributeNotDefined)
	assert.Contains(t, err.Error(), "missing")
}

func TestWithForEachInvalidType(t *testing.T) {
	_, err := testStep().
		Required("name", api.TypeString).
		WithForEach("name").
		Build()
	assert.ErrorIs(t, err, api.ErrForEachRequiresArray)
}

func TestScriptStep(t *testing.T) {
	step, err := testClient().
		NewStep("Script Step").
		WithScript("(+ 1 2)").
		Build()
	assert.NoError(t, err)

	assert.Equal(t, api.StepTypeScript, step.Type)
	assert.Equal(t, api.ScriptLangAle, step.Script.Language)
	assert.Equal(t, "(+ 1 2)", step.Script.Script)
	assert.Nil(t, step.HTTP)

	step, err = testClient().
		NewStep("Lua Step").
		WithScriptLanguage(api.ScriptLangLua, "return {}").
		Build()
	assert.NoError(t, err)
	assert.Equal(t, api.ScriptLangLua, step.Script.Language)
}

func TestPredicates(t *testing.T) {
	step, err := testStep().WithAlePredicate("(> count 0)").Build()
	assert.NoError(t, err)
	assert.Equal(t, api.ScriptLangAle, step.Predicate.Language)

	step, err = testStep().WithLuaPredicate("return count > 0").Build()
	assert.NoError(t, err)
	assert.Equal(t, api.ScriptLangLua, step.Predicate.Language)
}

func TestFlowStep(t *testing.T) {
	step, err := testClient().
		NewStep("Flow Step").
		WithFlowGoals("goal-one", "goal-two").
		WithFlowInputMap(map[string]string{"outer": "inner"}).
		WithFlowOutputMap(map[string]string{"inner": "outer"}).
		Build()
	assert.NoError(t, err)

	assert.Equal(t, api.StepTypeFlow, step.Type)
	assert.Equal(t, []api.StepID{"goal-one", "goal-two"}, step.Flow.Goals)
	assert.Equal(t, "inner", step.Flow.InputMap["outer"])
	assert.Equal(t, "outer", step.Flow.OutputMap["inner"])
}

func TestExecutionTypes(t *testing.T) {
	step, err := testStep().WithAsyncExecution().Build()
	assert.NoError(t, err)
	assert.Equal(t, api.StepTypeAsync, step.Type)

	step, err = testStep().WithAsyncExecution().WithSyncExecution().Build()
	assert.NoError(t, err)
	assert.Equal(t, api.StepTypeSync, step.Type)

	step, err = testStep().WithType(api.StepTypeAsync).Build()
	assert.NoError(t, err)
	assert.Equal(t, api.StepTypeAsync, step.Type)
}

func TestWithTimeout(t *testing.T) {
	step, err := testStep().WithTimeout(5 * api.Minute).Build()
	assert.NoError(t, err)
	assert.Equal(t, 5*api.Minute, step.HTTP.Timeout)
}

func TestWithWorkConfig(t *testing.T) {
	wc := &api.WorkConfig{
		MaxRetries:  3,
		BackoffType: api.BackoffTypeExponential,
		Backoff:     api.Second,
	}
	step, err := testStep().WithWorkConfig(wc).Build()
	assert.NoError(t, err)
	assert.True(t, step.WorkConfig.Equal(wc))

	// mutating the caller's config after the fact changes nothing
	wc.MaxRetries = 99
	assert.Equal(t, 3, step.WorkConfig.MaxRetries)
}

func TestWithLabels(t *testing.T) {
	step, err := testStep().
		WithLabel("team", "billing").
		WithLabels(api.Labels{"env": "prod", "team": "payments"}).
		Build()
	assert.NoError(t, err)
	assert.Equal(t, "payments", step.Labels["team"])
	assert.Equal(t, "prod", step.Labels["env"])
}

func TestBuildValidates(t *testing.T) {
	_, err := testClient().NewStep("No Endpoint").Build()
	assert.ErrorIs(t, err, api.ErrHTTPRequired)

	_, err = testClient().NewStep("Empty Endpoint").WithEndpoint("").Build()
	assert.ErrorIs(t, err, api.ErrStepEndpointEmpty)

	_, err = testClient().
		NewStep("Bad Script").
		WithScriptLanguage("python", "1 + 2").
		Build()
	assert.ErrorIs(t, err, api.ErrInvalidScriptLang)
}
