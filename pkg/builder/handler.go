package builder

import (
	"context"

	"github.com/kode4food/argyll/worker/pkg/api"
)

type (
	// StepHandler is the function signature for step implementations. It
	// receives a StepContext which includes both context and flow client
	StepHandler func(*StepContext, api.Args) (api.StepResult, error)

	// StepContext provides context and client capabilities to step handlers
	StepContext struct {
		// Context is the standard Go context for cancellation and deadlines
		context.Context

		// Client provides access to the current flow's state and operations
		Client *FlowClient

		// StepID is the ID of the current step being executed
		StepID api.StepID

		// Metadata contains additional context passed to step handlers
		Metadata api.Metadata

		tasks *taskPool
	}
)

// FlowID returns the flow identifier for this invocation, taken from the
// request metadata
func (sc *StepContext) FlowID() api.FlowID {
	if sc.Client == nil {
		return ""
	}
	return sc.Client.FlowID()
}

// Detach schedules background work that outlives the originating request.
// Tasks run on the worker's bounded pool; once the pool is full, Detach
// blocks until a slot frees up. Work detached this way is lost if the
// process exits before it completes
func (sc *StepContext) Detach(fn func()) {
	if sc.tasks == nil {
		go fn()
		return
	}
	sc.tasks.Go(fn)
}
