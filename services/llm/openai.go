package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient is a go-openai backed alternative to GatewayClient, used
// when the gateway speaks the stock OpenAI API (or when pointing at
// OpenAI itself). Streaming responses are re-encoded into the standard
// wire format, so handlers and consumers see the same shape either way.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client from the environment. As with the raw
// gateway client, a missing key fails construction.
func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		slog.Error("OPENAI_API_KEY environment variable not set")
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_URL_BASE"); baseURL != "" {
		config.BaseURL = baseURL
	}
	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// mapAPIError translates go-openai errors to the package sentinels.
func mapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return ErrRateLimited
		case http.StatusPaymentRequired:
			return ErrPaymentRequired
		}
	}
	return fmt.Errorf("OpenAI API call failed: %w", err)
}

// Complete implements the Client interface.
func (o *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return "", mapAPIError(err)
	}
	// Empty choices means an empty completion; callers decide on
	// fallback copy.
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream implements the Client interface. The decoded go-openai stream is
// re-serialized into "data: " records ending with the [DONE] sentinel so
// downstream consumers cannot tell the backends apart.
func (o *OpenAIClient) Stream(ctx context.Context, messages []Message) (io.ReadCloser, error) {
	upstream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(messages),
		Stream:   true,
	})
	if err != nil {
		slog.Error("OpenAI stream open failed", "error", err)
		return nil, mapAPIError(err)
	}

	pr, pw := io.Pipe()
	go func() {
		defer upstream.Close()
		for {
			chunk, err := upstream.Recv()
			if errors.Is(err, io.EOF) {
				fmt.Fprintf(pw, "data: %s\n\n", doneSentinel)
				pw.Close()
				return
			}
			if err != nil {
				pw.CloseWithError(fmt.Errorf("OpenAI stream read failed: %w", err))
				return
			}
			record, err := json.Marshal(chunk)
			if err != nil {
				pw.CloseWithError(fmt.Errorf("failed to re-encode stream chunk: %w", err))
				return
			}
			if _, err := fmt.Fprintf(pw, "data: %s\n\n", record); err != nil {
				// Reader gone; stop pulling from upstream.
				return
			}
		}
	}()
	return pr, nil
}

const doneSentinel = "[DONE]"
