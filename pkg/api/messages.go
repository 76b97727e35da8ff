package api

type (
	// CreateFlowRequest contains parameters for starting a new flow
	CreateFlowRequest struct {
		Init  Args     `json:"init"`
		ID    FlowID   `json:"id"`
		Goals []StepID `json:"goals"`
	}

	// StepsListResponse contains a list of registered steps
	StepsListResponse struct {
		Steps []*Step `json:"steps"`
		Count int     `json:"count,omitempty"`
	}

	// FlowState is the engine's snapshot of a running or completed flow.
	// The worker treats it as an opaque mapping
	FlowState map[string]any

	// HealthResponse identifies a healthy step service
	HealthResponse struct {
		Status  string `json:"status"`
		Service StepID `json:"service"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error string `json:"error"`
	}
)
