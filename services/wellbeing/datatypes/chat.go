// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides request and response types for the wellbeing
// service.
//
// This file contains the chat and insight types shared by the mood
// companion and therapy endpoints. CRUD surface types live in wellbeing.go.
package datatypes

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Bounds
// =============================================================================

const (
	// MaxMessageContentChars caps a single chat message. Oversized
	// messages are rejected, never truncated.
	MaxMessageContentChars = 5000

	// MaxMessagesPerRequest caps the conversation history per request.
	MaxMessagesPerRequest = 50

	// Mood levels span the five-point scale used across the app.
	MinMoodLevel = 1
	MaxMoodLevel = 5
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// wellbeingValidate is the validator instance for all wellbeing datatypes,
// initialized once in init().
var wellbeingValidate *validator.Validate

func init() {
	wellbeingValidate = validator.New()
}

// =============================================================================
// Chat Request Types
// =============================================================================

// Message is one turn of a chat conversation.
//
// # Description
//
// Clients send only user and assistant turns; the system prompt is
// composed server-side and cannot be supplied or overridden through the
// API. Content bounds are counted in characters, not bytes.
//
// # Validation
//
//   - Role: required, "user" or "assistant"
//   - Content: required, 1..5000 characters
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// ChatRequest is the body for the mood-chat and therapy-chat relays.
//
// # Description
//
// Carries the full visible conversation history in chronological order.
// UserID is optional: when present on the mood-chat endpoint it selects
// the stored survey profile used to personalize the system prompt; when
// absent or unknown the generic prompt variant is used. The therapy
// endpoint ignores it.
//
// # Validation
//
//   - Messages: required, 1..50 elements, each element validated
//   - UserID: optional, must be a UUID when present
//
// Validation is strict and total: a request failing any bound is rejected
// before any upstream call, and the 400 response enumerates every
// violation.
type ChatRequest struct {
	Messages []Message `json:"messages" validate:"required,min=1,max=50,dive"`
	UserID   string    `json:"user_id" validate:"omitempty,uuid"`
}

// Validate validates the ChatRequest fields.
func (r *ChatRequest) Validate() error {
	return wellbeingValidate.Struct(r)
}

// LastUserMessage returns the content of the most recent user turn, or ""
// when the history holds none.
func (r *ChatRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// =============================================================================
// Insight Types
// =============================================================================

// InsightRequest is the body for the single-shot mood insight endpoint.
//
// # Validation
//
//   - MoodLevel: required, 1..5
//   - Note: optional, at most 5000 characters
type InsightRequest struct {
	MoodLevel int    `json:"mood_level" validate:"required,gte=1,lte=5"`
	Note      string `json:"note" validate:"omitempty,max=5000"`
}

// Validate validates the InsightRequest fields.
func (r *InsightRequest) Validate() error {
	return wellbeingValidate.Struct(r)
}

// InsightResponse carries the generated encouragement. The handler
// substitutes a fixed fallback message when generation fails, so Insight
// is always populated on a 200.
type InsightResponse struct {
	Insight string `json:"insight"`
}

// =============================================================================
// Validation Error Shaping
// =============================================================================

// ErrorResponse is the uniform error body. Details is present only for
// validation failures, one entry per violated constraint.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// ValidationDetails flattens a validator error into one human-readable
// line per violation. Non-validator errors produce a single generic line
// so internals never leak into responses.
func ValidationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"invalid request"}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			details = append(details, fmt.Sprintf("%s must have at least %s", fe.Field(), fe.Param()))
		case "max":
			details = append(details, fmt.Sprintf("%s must have at most %s", fe.Field(), fe.Param()))
		case "gte":
			details = append(details, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "lte":
			details = append(details, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "oneof":
			details = append(details, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "uuid":
			details = append(details, fmt.Sprintf("%s must be a valid UUID", fe.Field()))
		default:
			details = append(details, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return details
}
