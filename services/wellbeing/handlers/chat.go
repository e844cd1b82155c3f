// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/llm"
	"github.com/havenwell/havenwell/services/safety"
	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
)

// User-facing copy for upstream failure classes. Anything more specific
// from the gateway is logged server-side only.
const (
	msgRateLimited     = "Rate limits exceeded, please try again later."
	msgPaymentRequired = "Payment required, please add funds to your AI workspace."
	msgGatewayError    = "AI gateway error"
)

// SurveyStore fetches the stored personalization profile. A missing
// profile is reported through found; implementations return an error only
// for store failures.
type SurveyStore interface {
	Survey(ctx context.Context, userID string) (datastore.SurveyProfile, bool, error)
}

// ChatHandler defines the contract for the streaming chat relay
// endpoints.
//
// # Description
//
// Both endpoints validate the request, compose the appropriate system
// prompt, open the upstream stream, and pipe the body to the client
// unmodified. They persist nothing: logging a chat is the client's call
// to make after the stream settles.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; handlers are called
// concurrently by Gin.
type ChatHandler interface {
	// HandleMoodChat processes POST /v1/chat/mood: the personalized mood
	// companion relay. The system prompt is modulated by the caller's
	// stored survey profile when a user id is supplied.
	HandleMoodChat(c *gin.Context)

	// HandleTherapyChat processes POST /v1/chat/therapy: the plain
	// therapy relay. The fixed therapy persona is used for every caller.
	HandleTherapyChat(c *gin.Context)
}

type chatHandler struct {
	llmClient llm.Client
	surveys   SurveyStore
	scanner   *safety.Scanner
	tracer    trace.Tracer
}

// NewChatHandler creates a ChatHandler.
//
// llmClient must not be nil. surveys may be nil in lightweight mode; the
// mood endpoint then always uses the no-profile prompt variant. scanner
// may be nil to disable crisis-language metrics.
func NewChatHandler(llmClient llm.Client, surveys SurveyStore, scanner *safety.Scanner) ChatHandler {
	if llmClient == nil {
		panic("NewChatHandler: llmClient must not be nil")
	}
	return &chatHandler{
		llmClient: llmClient,
		surveys:   surveys,
		scanner:   scanner,
		tracer:    otel.Tracer("havenwell.wellbeing.handlers.chat"),
	}
}

func (h *chatHandler) HandleMoodChat(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleMoodChat")
	defer span.End()

	req, ok := h.bindChatRequest(c, span, observability.EndpointMoodChat)
	if !ok {
		return
	}
	span.SetAttributes(
		attribute.Int("request.message_count", len(req.Messages)),
		attribute.Bool("request.has_user_id", req.UserID != ""),
	)

	systemPrompt := h.moodPromptFor(ctx, span, req.UserID)
	h.relay(ctx, c, span, observability.EndpointMoodChat, systemPrompt, req)
}

func (h *chatHandler) HandleTherapyChat(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleTherapyChat")
	defer span.End()

	req, ok := h.bindChatRequest(c, span, observability.EndpointTherapyChat)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int("request.message_count", len(req.Messages)))

	h.relay(ctx, c, span, observability.EndpointTherapyChat, therapySystemPrompt, req)
}

// bindChatRequest parses and validates the shared chat request shape.
// Validation is strict and total: the 400 body enumerates every
// violation, and nothing reaches the gateway on failure.
func (h *chatHandler) bindChatRequest(c *gin.Context, span trace.Span, endpoint string) (datatypes.ChatRequest, bool) {
	var req datatypes.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		slog.Error("Failed to parse chat request", "endpoint", endpoint, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "Invalid input"})
		return req, false
	}
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		slog.Error("Chat request validation failed", "endpoint", endpoint, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
			Error:   "Invalid input",
			Details: datatypes.ValidationDetails(err),
		})
		return req, false
	}
	return req, true
}

// moodPromptFor resolves the personalized system prompt. Store failures
// degrade to the no-profile variant; personalization is never worth
// failing a support conversation over.
func (h *chatHandler) moodPromptFor(ctx context.Context, span trace.Span, userID string) string {
	if h.surveys == nil || userID == "" {
		return buildMoodPrompt(datastore.SurveyProfile{}, false)
	}
	profile, found, err := h.surveys.Survey(ctx, userID)
	if err != nil {
		span.RecordError(err)
		slog.Warn("survey lookup failed, using generic prompt", "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointMoodChat, observability.ErrorCodeStore)
		}
		return buildMoodPrompt(datastore.SurveyProfile{}, false)
	}
	if !found {
		slog.Debug("no survey profile for user", "user_id", userID)
	}
	span.SetAttributes(attribute.Bool("prompt.personalized", found))
	return buildMoodPrompt(profile, found)
}

// relay opens the upstream stream and pipes it to the client.
func (h *chatHandler) relay(ctx context.Context, c *gin.Context, span trace.Span, endpoint, systemPrompt string, req datatypes.ChatRequest) {
	startTime := time.Now()
	if m := observability.DefaultMetrics; m != nil {
		m.StreamStarted(endpoint)
		defer m.StreamEnded(endpoint)
	}
	success := false
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordRequest(endpoint, success)
			m.RecordStreamDuration(endpoint, time.Since(startTime).Seconds(), success)
		}
	}()

	// Crisis scan is advisory: count it, never block on it.
	if h.scanner != nil {
		if findings := h.scanner.Scan(req.LastUserMessage()); len(findings) > 0 {
			span.SetAttributes(attribute.Int("crisis.findings_count", len(findings)))
			if m := observability.DefaultMetrics; m != nil {
				m.RecordCrisisFinding(endpoint)
			}
		}
	}

	messages := make([]llm.Message, 0, len(req.Messages)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, m := range req.Messages {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	body, err := h.llmClient.Stream(ctx, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway stream failed")
		h.writeUpstreamError(c, endpoint, err)
		return
	}
	defer body.Close()

	SetSSEHeaders(c.Writer)
	if err := pipeStream(c.Writer, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "relay interrupted")
		slog.Error("Relay interrupted", "endpoint", endpoint, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			if errors.Is(err, context.Canceled) {
				m.RecordError(endpoint, observability.ErrorCodeClientDisconnect)
			} else {
				m.RecordError(endpoint, observability.ErrorCodeUpstream)
			}
		}
		// Headers are already sent; nothing more can be written.
		return
	}

	success = true
	span.SetStatus(codes.Ok, "stream relayed")
}

// writeUpstreamError maps gateway failures to the fixed user-facing copy.
func (h *chatHandler) writeUpstreamError(c *gin.Context, endpoint string, err error) {
	m := observability.DefaultMetrics
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		if m != nil {
			m.RecordError(endpoint, observability.ErrorCodeRateLimited)
		}
		c.JSON(http.StatusTooManyRequests, datatypes.ErrorResponse{Error: msgRateLimited})
	case errors.Is(err, llm.ErrPaymentRequired):
		if m != nil {
			m.RecordError(endpoint, observability.ErrorCodePaymentRequired)
		}
		c.JSON(http.StatusPaymentRequired, datatypes.ErrorResponse{Error: msgPaymentRequired})
	default:
		slog.Error("Gateway stream failed", "endpoint", endpoint, "error", err)
		if m != nil {
			m.RecordError(endpoint, observability.ErrorCodeUpstream)
		}
		c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: msgGatewayError})
	}
}
