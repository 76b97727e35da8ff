package builder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kode4food/argyll/worker/pkg/api"
)

// AsyncContext provides functionality for managing asynchronous step
// execution. It holds flow and step IDs along with the webhook URL through
// which the eventual result is delivered
type AsyncContext struct {
	flow       *FlowClient
	flowID     api.FlowID
	stepID     api.StepID
	webhookURL string
	httpClient *http.Client
}

var (
	ErrNoFlowID     = errors.New("flow_id not found in metadata")
	ErrNoStepID     = errors.New("step_id not found in metadata")
	ErrNoWebhookURL = errors.New("webhook_url not found in metadata")
)

// Async creates an async completion context from the invocation's metadata.
// A missing webhook_url is a caller error; handlers should report it
// synchronously as a failed StepResult
func (sc *StepContext) Async() (*AsyncContext, error) {
	flowID, ok := api.GetMetaString[api.FlowID](sc.Metadata, api.MetaFlowID)
	if !ok {
		return nil, ErrNoFlowID
	}

	stepID, ok := api.GetMetaString[api.StepID](sc.Metadata, api.MetaStepID)
	if !ok {
		stepID = sc.StepID
	}

	webhookURL, ok := api.GetMetaString[string](
		sc.Metadata, api.MetaWebhookURL,
	)
	if !ok {
		return nil, ErrNoWebhookURL
	}

	return &AsyncContext{
		flow:       sc.Client,
		flowID:     flowID,
		stepID:     stepID,
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Success marks the async step as successfully completed with the given
// outputs
func (ac *AsyncContext) Success(outputs api.Args) error {
	result := api.StepResult{
		Success: true,
		Outputs: outputs,
	}
	return ac.sendWebhook(result)
}

// Fail marks the async step as failed with the given error
func (ac *AsyncContext) Fail(err error) error {
	result := api.StepResult{
		Success: false,
		Error:   err.Error(),
	}
	return ac.sendWebhook(result)
}

// Complete sends the full step result to the orchestrator via webhook
func (ac *AsyncContext) Complete(result api.StepResult) error {
	return ac.sendWebhook(result)
}

// FlowID returns the flow ID for this async context
func (ac *AsyncContext) FlowID() api.FlowID {
	return ac.flowID
}

// StepID returns the step ID for this async context
func (ac *AsyncContext) StepID() api.StepID {
	return ac.stepID
}

// WebhookURL returns the webhook URL for delivering step results
func (ac *AsyncContext) WebhookURL() string {
	return ac.webhookURL
}

// Flow returns a flow client for interacting with this flow
func (ac *AsyncContext) Flow() *FlowClient {
	return ac.flow
}

// sendWebhook delivers exactly one completion result. Delivery is not
// retried; a transport failure or non-2xx response surfaces a
// *WebhookError to whichever code issued the completion
func (ac *AsyncContext) sendWebhook(result api.StepResult) error {
	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	resp, err := ac.httpClient.Post(
		ac.webhookURL, "application/json", bytes.NewReader(jsonData),
	)
	if err != nil {
		metricWebhooks.WithLabelValues(outcomeError).Inc()
		return &WebhookError{URL: ac.webhookURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		metricWebhooks.WithLabelValues(outcomeFailure).Inc()
		return &WebhookError{
			URL:        ac.webhookURL,
			StatusCode: resp.StatusCode,
		}
	}

	metricWebhooks.WithLabelValues(outcomeSuccess).Inc()
	return nil
}
