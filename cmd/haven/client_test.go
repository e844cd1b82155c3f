// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/havenwell/havenwell/pkg/stream"
)

func TestStreamChat_SendsBearerAndDropsPlaceholder(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		UserID string `json:"user_id"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	api := newAPIClient(srv.URL, "user-1")

	transcript := stream.NewTranscript()
	if err := transcript.Begin("hello"); err != nil {
		t.Fatal(err)
	}

	body, err := api.streamChat(context.Background(), "/v1/chat/mood", transcript.Messages())
	if err != nil {
		t.Fatalf("streamChat: %v", err)
	}
	body.Close()

	if gotAuth != "Bearer user-1" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotBody.UserID != "user-1" {
		t.Errorf("user_id = %q, want user-1", gotBody.UserID)
	}
	// The transcript's pending assistant placeholder must not be sent.
	if len(gotBody.Messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Role != "user" || gotBody.Messages[0].Content != "hello" {
		t.Errorf("unexpected message: %+v", gotBody.Messages[0])
	}
}

func TestStreamChat_SurfacesServerErrorCopy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":"Rate limits exceeded, please try again later."}`)
	}))
	defer srv.Close()

	api := newAPIClient(srv.URL, "")

	_, err := api.streamChat(context.Background(), "/v1/chat/mood", []stream.Message{
		{Role: stream.RoleUser, Content: "hi"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Rate limits exceeded, please try again later." {
		t.Errorf("error = %q, want the server's copy", err)
	}
}

func TestDoJSON_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"insight":"Rest is productive too."}`)
	}))
	defer srv.Close()

	api := newAPIClient(srv.URL, "")

	var resp struct {
		Insight string `json:"insight"`
	}
	if err := api.doJSON(context.Background(), http.MethodPost, "/v1/insights/mood", map[string]any{"mood_level": 3}, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Insight != "Rest is productive too." {
		t.Errorf("insight = %q", resp.Insight)
	}
}

func TestAchievementLabel(t *testing.T) {
	cases := map[string]string{
		"first_entry":   "First Entry",
		"7_day_streak":  "7-Day Streak",
		"custom_future": "custom future",
	}
	for slug, want := range cases {
		if got := achievementLabel(slug); got != want {
			t.Errorf("achievementLabel(%q) = %q, want %q", slug, got, want)
		}
	}
}

func TestCannedTipsCoverEveryLevel(t *testing.T) {
	for level := 1; level <= 5; level++ {
		if cannedTips[level-1] == "" {
			t.Errorf("no canned tip for level %d", level)
		}
	}
}
