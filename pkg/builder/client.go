package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kode4food/argyll/worker/pkg/api"
)

type (
	// Client is an HTTP peer for the flow engine. The underlying transport
	// is safe for concurrent use; a single Client serves all of a worker's
	// engine calls
	Client struct {
		httpClient *http.Client
		baseURL    string
	}

	// FlowClient scopes engine operations to a single flow
	FlowClient struct {
		client *Client
		flowID api.FlowID
	}
)

const (
	routeSteps = "/engine/step"
	routeFlows = "/engine/flow"
)

// NewClient creates an engine client for the given base URL. A trailing
// "/engine" suffix is stripped so callers may pass either form
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: normalizeBaseURL(baseURL),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func normalizeBaseURL(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	return strings.TrimSuffix(trimmed, "/engine")
}

// BaseURL returns the normalized engine base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RegisterStep registers a new step definition with the engine
func (c *Client) RegisterStep(ctx context.Context, step *api.Step) error {
	op := fmt.Sprintf("failed to register step %s", step.ID)
	_, err := c.send(ctx, op, http.MethodPost, routeSteps, step)
	return err
}

// UpdateStep replaces an existing step definition
func (c *Client) UpdateStep(ctx context.Context, step *api.Step) error {
	op := fmt.Sprintf("failed to update step %s", step.ID)
	path := fmt.Sprintf("%s/%s", routeSteps, step.ID)
	_, err := c.send(ctx, op, http.MethodPut, path, step)
	return err
}

// ListSteps retrieves all steps registered with the engine. The engine may
// respond with either a wrapped object or a bare array
func (c *Client) ListSteps(ctx context.Context) ([]*api.Step, error) {
	data, err := c.send(
		ctx, "failed to list steps", http.MethodGet, routeSteps, nil,
	)
	if err != nil {
		return nil, err
	}

	if gjson.ParseBytes(data).IsArray() {
		var steps []*api.Step
		if err := json.Unmarshal(data, &steps); err != nil {
			return nil, err
		}
		return steps, nil
	}

	var result api.StepsListResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result.Steps, nil
}

// StartFlow creates and starts a flow execution
func (c *Client) StartFlow(
	ctx context.Context, req *api.CreateFlowRequest,
) error {
	op := fmt.Sprintf("start flow %s", req.ID)
	if _, err := c.send(
		ctx, op, http.MethodPost, routeFlows, req,
	); err != nil {
		return fmt.Errorf("%w: %w", ErrStartFlow, err)
	}
	return nil
}

// Flow returns a client scoped to the specified flow
func (c *Client) Flow(flowID api.FlowID) *FlowClient {
	return &FlowClient{
		client: c,
		flowID: flowID,
	}
}

// FlowID returns the flow this client is scoped to
func (fc *FlowClient) FlowID() api.FlowID {
	return fc.flowID
}

// GetState retrieves the engine's state snapshot for the flow. The snapshot
// is an opaque mapping owned by the engine
func (fc *FlowClient) GetState(ctx context.Context) (api.FlowState, error) {
	path := fmt.Sprintf("%s/%s", routeFlows, fc.flowID)
	data, err := fc.client.send(
		ctx, fmt.Sprintf("flow %s state", fc.flowID),
		http.MethodGet, path, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGetFlowState, err)
	}

	var state api.FlowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGetFlowState, err)
	}
	return state, nil
}

// send issues a single engine HTTP call, returning the response body on any
// 2xx status and a *ClientError otherwise
func (c *Client) send(
	ctx context.Context, op, method, path string, payload any,
) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Op: op, Err: err}
	}

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ClientError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	return data, nil
}
