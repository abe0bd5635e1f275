package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/leaseguard/leaseguard-api/internal/utils"
)

// RunStatus mirrors the remote service's job states.
type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCompleted      RunStatus = "completed"
	RunFailed         RunStatus = "failed"
	RunCancelled      RunStatus = "cancelled"
	RunExpired        RunStatus = "expired"
)

// Run is the remote job handle the orchestrator polls.
type Run struct {
	ID          string
	Status      RunStatus
	LastError   string
	ToolCallIDs []string
}

// Client is the conversation-oriented protocol surface of the remote
// generation service. The orchestrator treats it as an opaque dependency.
type Client interface {
	CreateThread(ctx context.Context) (string, error)
	AddMessage(ctx context.Context, threadID, content string) error
	StartRun(ctx context.Context, threadID string) (*Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, callIDs []string) error
	LatestMessageText(ctx context.Context, threadID string) (string, error)
}

type httpClient struct {
	apiKey      string
	assistantID string
	baseURL     string
	logger      *utils.Logger
	client      *http.Client
}

// NewHTTPClient builds a Client against an assistants-style REST API.
func NewHTTPClient(apiKey, assistantID, baseURL string, logger *utils.Logger) Client {
	return &httpClient{
		apiKey:      apiKey,
		assistantID: assistantID,
		baseURL:     baseURL,
		logger:      logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type threadResponse struct {
	ID string `json:"id"`
}

type runResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error,omitempty"`
	RequiredAction *struct {
		SubmitToolOutputs struct {
			ToolCalls []struct {
				ID string `json:"id"`
			} `json:"tool_calls"`
		} `json:"submit_tool_outputs"`
	} `json:"required_action,omitempty"`
}

type messageListResponse struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

func (c *httpClient) CreateThread(ctx context.Context) (string, error) {
	var resp threadResponse
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]any{}, &resp); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return resp.ID, nil
}

func (c *httpClient) AddMessage(ctx context.Context, threadID, content string) error {
	body := map[string]any{
		"role":    "user",
		"content": content,
	}
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, nil); err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

func (c *httpClient) StartRun(ctx context.Context, threadID string) (*Run, error) {
	body := map[string]any{
		"assistant_id": c.assistantID,
	}
	var resp runResponse
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", body, &resp); err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return toRun(&resp), nil
}

func (c *httpClient) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var resp runResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &resp); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return toRun(&resp), nil
}

func (c *httpClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, callIDs []string) error {
	outputs := make([]map[string]string, 0, len(callIDs))
	for _, id := range callIDs {
		outputs = append(outputs, map[string]string{
			"tool_call_id": id,
			"output":       "{}",
		})
	}
	body := map[string]any{
		"tool_outputs": outputs,
	}
	path := "/threads/" + threadID + "/runs/" + runID + "/submit_tool_outputs"
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("submit tool outputs: %w", err)
	}
	return nil
}

func (c *httpClient) LatestMessageText(ctx context.Context, threadID string) (string, error) {
	var resp messageListResponse
	path := "/threads/" + threadID + "/messages?order=desc&limit=1"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	if len(resp.Data) == 0 {
		return "", fmt.Errorf("thread %s has no messages", threadID)
	}
	for _, part := range resp.Data[0].Content {
		if part.Type == "text" {
			return part.Text.Value, nil
		}
	}
	return "", fmt.Errorf("latest message in thread %s has no text content", threadID)
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Assistant API error", "status", resp.StatusCode, "path", path, "body", string(data))
		return fmt.Errorf("assistant API returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func toRun(r *runResponse) *Run {
	run := &Run{
		ID:     r.ID,
		Status: RunStatus(r.Status),
	}
	if r.LastError != nil {
		run.LastError = r.LastError.Message
	}
	if r.RequiredAction != nil {
		for _, tc := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
			run.ToolCallIDs = append(run.ToolCallIDs, tc.ID)
		}
	}
	return run
}
