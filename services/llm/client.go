package llm

import (
	"context"
	"errors"
	"io"
)

// Chat roles accepted by the completion gateway.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Upstream failure classes the handlers translate into client responses.
// Everything else is a generic upstream error.
var (
	ErrRateLimited     = errors.New("gateway rate limit exceeded")
	ErrPaymentRequired = errors.New("gateway credits exhausted")
)

// Client defines the standard interface for any completion gateway backend.
//
// Complete returns the full assistant reply in one call. Stream returns the
// raw event-stream body and the caller owns closing it. Both take the full
// message history including the system prompt.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Stream(ctx context.Context, messages []Message) (io.ReadCloser, error)
}
