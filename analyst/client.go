package analyst

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"snowchat/applog"
	"snowchat/config"
)

const (
	messagePath     = "/api/v2/cortex/analyst/message"
	requestIDHeader = "X-Snowflake-Request-Id"
)

// TokenSource supplies a live Snowflake session token. The token is read
// per request, never cached here, so session-layer renewals are picked up.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RequestError describes a failed send: HTTP failure, transport failure,
// or an unparseable body. Status is 0 when no HTTP status was received.
type RequestError struct {
	Status int
	Body   string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("analyst request failed with status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("analyst request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client sends messages to the Cortex Analyst endpoint.
type Client struct {
	baseURL           string
	semanticModelFile string
	tokens            TokenSource
	httpClient        *http.Client
}

// NewClient builds a client from the loaded config and the session's
// token source.
func NewClient(cfg config.Config, tokens TokenSource) *Client {
	return &Client{
		baseURL:           cfg.BaseURL(),
		semanticModelFile: cfg.SemanticModelFile(),
		tokens:            tokens,
		httpClient:        &http.Client{Timeout: 2 * time.Minute},
	}
}

// request/response wire shapes.

type wireMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

type messageRequest struct {
	Messages          []wireMessage `json:"messages"`
	SemanticModelFile string        `json:"semantic_model_file"`
}

type messageResponse struct {
	Message struct {
		Content Content `json:"content"`
	} `json:"message"`
}

// Send posts one user prompt and returns the parsed reply. Exactly one
// attempt: any failure returns the zero Reply and a *RequestError for the
// UI to surface; the conversation is expected to continue.
func (c *Client) Send(ctx context.Context, prompt string) (Reply, error) {
	logRequest(prompt)

	reply, err := c.send(ctx, prompt)
	logResponse(reply, err)
	if err != nil {
		applog.Error("analyst send: %v", err)
		return Reply{}, err
	}

	applog.Event(applog.CategoryAnalyst, "reply %s: %d block(s)", reply.RequestID, len(reply.Content))
	return reply, nil
}

func (c *Client) send(ctx context.Context, prompt string) (Reply, error) {
	body := messageRequest{
		Messages: []wireMessage{
			{Role: "user", Content: Content{TextBlock{Text: prompt}}},
		},
		SemanticModelFile: c.semanticModelFile,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Reply{}, &RequestError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagePath, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, &RequestError{Err: err}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return Reply{}, &RequestError{Err: err}
	}
	req.Header.Set("Authorization", fmt.Sprintf("Snowflake Token=%q", token))
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, &RequestError{Err: err}
	}
	defer httpResp.Body.Close()

	requestID := httpResp.Header.Get(requestIDHeader)

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Reply{}, &RequestError{Err: err}
	}

	if httpResp.StatusCode >= 400 {
		return Reply{}, &RequestError{Status: httpResp.StatusCode, Body: string(respBody)}
	}

	var parsed messageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Reply{}, &RequestError{Err: fmt.Errorf("parse reply: %w", err)}
	}

	return Reply{Content: parsed.Message.Content, RequestID: requestID}, nil
}
