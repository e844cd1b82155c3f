// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/havenwell/havenwell/services/llm"
	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
)

// Insight endpoint copy differs from the chat relays: the insight is a
// nicety attached to mood logging, so its failure modes are softer.
const (
	msgInsightRateLimited = "Rate limit exceeded. Please try again in a moment."
	msgInsightPayment     = "AI service requires payment. Please contact support."
)

// InsightHandler defines the contract for the single-shot mood insight
// endpoint.
type InsightHandler interface {
	// HandleMoodInsight processes POST /v1/insights/mood. The full
	// upstream reply is returned in one JSON response; an empty
	// generation yields the fixed fallback encouragement on a 200.
	HandleMoodInsight(c *gin.Context)
}

type insightHandler struct {
	llmClient llm.Client
	tracer    trace.Tracer
}

// NewInsightHandler creates an InsightHandler. llmClient must not be nil.
func NewInsightHandler(llmClient llm.Client) InsightHandler {
	if llmClient == nil {
		panic("NewInsightHandler: llmClient must not be nil")
	}
	return &insightHandler{
		llmClient: llmClient,
		tracer:    otel.Tracer("havenwell.wellbeing.handlers.insights"),
	}
}

func (h *insightHandler) HandleMoodInsight(c *gin.Context) {
	endpoint := observability.EndpointInsight
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleMoodInsight")
	defer span.End()

	success := false
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordRequest(endpoint, success)
		}
	}()

	var req datatypes.InsightRequest
	if err := c.BindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "Invalid input"})
		return
	}
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
			Error:   "Invalid input",
			Details: datatypes.ValidationDetails(err),
		})
		return
	}
	span.SetAttributes(
		attribute.Int("insight.mood_level", req.MoodLevel),
		attribute.Bool("insight.has_note", req.Note != ""),
	)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: insightSystemPrompt},
		{Role: llm.RoleUser, Content: buildInsightUserPrompt(req.MoodLevel, req.Note)},
	}

	insight, err := h.llmClient.Complete(ctx, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insight generation failed")
		m := observability.DefaultMetrics
		switch {
		case errors.Is(err, llm.ErrRateLimited):
			if m != nil {
				m.RecordError(endpoint, observability.ErrorCodeRateLimited)
			}
			c.JSON(http.StatusTooManyRequests, datatypes.ErrorResponse{Error: msgInsightRateLimited})
		case errors.Is(err, llm.ErrPaymentRequired):
			if m != nil {
				m.RecordError(endpoint, observability.ErrorCodePaymentRequired)
			}
			c.JSON(http.StatusPaymentRequired, datatypes.ErrorResponse{Error: msgInsightPayment})
		default:
			slog.Error("Insight generation failed", "error", err)
			if m != nil {
				m.RecordError(endpoint, observability.ErrorCodeUpstream)
			}
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: msgGatewayError})
		}
		return
	}

	if insight == "" {
		insight = insightFallback
	}
	success = true
	span.SetStatus(codes.Ok, "insight generated")
	c.JSON(http.StatusOK, datatypes.InsightResponse{Insight: insight})
}
