// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validChat builds a minimal passing request for mutation in tests.
func validChat() ChatRequest {
	return ChatRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	}
}

func TestChatRequest_Valid(t *testing.T) {
	req := validChat()
	assert.NoError(t, req.Validate())

	req.UserID = "550e8400-e29b-41d4-a716-446655440000"
	assert.NoError(t, req.Validate(), "a UUID user id is accepted")
}

func TestChatRequest_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ChatRequest)
	}{
		{"no messages", func(r *ChatRequest) { r.Messages = nil }},
		{"empty messages", func(r *ChatRequest) { r.Messages = []Message{} }},
		{"too many messages", func(r *ChatRequest) {
			r.Messages = make([]Message, MaxMessagesPerRequest+1)
			for i := range r.Messages {
				r.Messages[i] = Message{Role: "user", Content: "x"}
			}
		}},
		{"empty content", func(r *ChatRequest) { r.Messages[0].Content = "" }},
		{"oversized content", func(r *ChatRequest) {
			r.Messages[0].Content = strings.Repeat("a", MaxMessageContentChars+1)
		}},
		{"system role rejected", func(r *ChatRequest) { r.Messages[0].Role = "system" }},
		{"unknown role rejected", func(r *ChatRequest) { r.Messages[0].Role = "moderator" }},
		{"malformed user id", func(r *ChatRequest) { r.UserID = "not-a-uuid" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validChat()
			tt.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestChatRequest_ContentBoundaryExact(t *testing.T) {
	req := validChat()
	req.Messages[0].Content = strings.Repeat("a", MaxMessageContentChars)
	assert.NoError(t, req.Validate(), "content at exactly the cap is accepted")

	req.Messages = make([]Message, MaxMessagesPerRequest)
	for i := range req.Messages {
		req.Messages[i] = Message{Role: "assistant", Content: "x"}
	}
	assert.NoError(t, req.Validate(), "exactly the message cap is accepted")
}

func TestValidationDetails_EnumeratesEveryViolation(t *testing.T) {
	req := ChatRequest{
		Messages: []Message{
			{Role: "system", Content: ""},
		},
		UserID: "nope",
	}
	err := req.Validate()
	require.Error(t, err)

	details := ValidationDetails(err)
	assert.GreaterOrEqual(t, len(details), 3,
		"role, content, and user id violations must all be reported: %v", details)
}

func TestChatRequest_LastUserMessage(t *testing.T) {
	req := ChatRequest{Messages: []Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "second"},
		{Role: "assistant", Content: "another"},
	}}
	assert.Equal(t, "second", req.LastUserMessage())

	assert.Empty(t, (&ChatRequest{Messages: []Message{{Role: "assistant", Content: "x"}}}).LastUserMessage())
}

func TestInsightRequest_Bounds(t *testing.T) {
	assert.NoError(t, (&InsightRequest{MoodLevel: 3}).Validate())
	assert.NoError(t, (&InsightRequest{MoodLevel: 5, Note: "slept well"}).Validate())
	assert.Error(t, (&InsightRequest{MoodLevel: 0}).Validate())
	assert.Error(t, (&InsightRequest{MoodLevel: 6}).Validate())
	assert.Error(t, (&InsightRequest{MoodLevel: 3, Note: strings.Repeat("n", 5001)}).Validate())
}

func TestLogMoodRequest_Bounds(t *testing.T) {
	assert.NoError(t, (&LogMoodRequest{MoodLevel: 1}).Validate())
	assert.Error(t, (&LogMoodRequest{MoodLevel: 9}).Validate())
}

func TestSurveyRequest_EmptyAnswersAreValid(t *testing.T) {
	assert.NoError(t, (&SurveyRequest{}).Validate(),
		"declining to answer the survey is a valid answer")
	assert.NoError(t, (&SurveyRequest{
		Conditions: []string{"anxiety"},
		Interests:  []string{"hiking", "painting"},
	}).Validate())
}
