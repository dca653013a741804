package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/telewarm/warmup-engine-go/internal/config"
	"github.com/telewarm/warmup-engine-go/internal/model"
)

// Client produces an ordered action plan for one account. The real
// implementation is an LLM-backed service; this process only consumes it.
type Client interface {
	GeneratePlan(ctx context.Context, req PlanRequest) ([]model.Action, error)
}

// PlanRequest describes the account the planner should generate for.
type PlanRequest struct {
	SessionID     string `json:"session_id"`
	Stage         int    `json:"stage"`
	DailyActivity int    `json:"daily_activity"`
}

type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: config.PlannerTimeout},
	}
}

func (c *HTTPClient) GeneratePlan(ctx context.Context, req PlanRequest) ([]model.Action, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal plan request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/plans", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("planner request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("planner returned status %d", resp.StatusCode)
	}

	var out struct {
		Actions []model.Action `json:"actions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode planner response: %w", err)
	}

	return out.Actions, nil
}
