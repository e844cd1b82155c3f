package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultGatewayModel = "google/gemini-2.5-flash"

// GatewayClient talks to an OpenAI-compatible completion gateway over raw
// HTTP. Stream hands back the upstream body untouched so the relay
// handlers can pipe it to the caller byte for byte.
type GatewayClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

type gatewayRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type gatewayCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewGatewayClient builds a client from the environment. A missing API key
// is a construction error: the failure must surface before any request is
// accepted, not on the first upstream call.
func NewGatewayClient() (*GatewayClient, error) {
	apiKey := os.Getenv("GATEWAY_API_KEY")
	if apiKey == "" {
		slog.Error("GATEWAY_API_KEY environment variable not set")
		return nil, fmt.Errorf("GATEWAY_API_KEY environment variable not set")
	}
	baseURL := os.Getenv("GATEWAY_URL_BASE")
	if baseURL == "" {
		return nil, fmt.Errorf("GATEWAY_URL_BASE environment variable not set")
	}
	model := os.Getenv("GATEWAY_MODEL")
	if model == "" {
		model = defaultGatewayModel
		slog.Warn("GATEWAY_MODEL not set, using default", "model", defaultGatewayModel)
	}
	return &GatewayClient{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}, nil
}

// post sends a completion request and returns the raw response. The caller
// is responsible for the body.
func (g *GatewayClient) post(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(gatewayRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal the gateway payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build the gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the gateway: %w", err)
	}
	return resp, nil
}

// classify maps an upstream error status to a sentinel. The response body
// is logged server-side only; it never reaches the caller.
func classify(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	slog.Error("gateway returned an error status",
		"status", resp.StatusCode, "body", string(body))
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrPaymentRequired
	default:
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
}

// Stream implements the Client interface. On success the returned body is
// the upstream event stream, unread and unmodified.
func (g *GatewayClient) Stream(ctx context.Context, messages []Message) (io.ReadCloser, error) {
	slog.Debug("opening gateway stream", "model", g.model, "messages", len(messages))
	resp, err := g.post(ctx, messages, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp)
	}
	return resp.Body, nil
}

// Complete implements the Client interface.
func (g *GatewayClient) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := g.post(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", classify(resp)
	}

	var completion gatewayCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to parse the gateway response: %w", err)
	}
	// An empty choices array is an empty completion, not a failure;
	// callers substitute their own fallback copy.
	if len(completion.Choices) == 0 {
		slog.Warn("gateway returned no choices")
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}
