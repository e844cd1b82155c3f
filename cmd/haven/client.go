// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/havenwell/havenwell/pkg/stream"
)

// apiClient talks to the wellbeing service. The user id doubles as the
// bearer token in local deployments.
type apiClient struct {
	httpClient *http.Client
	baseURL    string
	userID     string
}

func newAPIClient(baseURL, userID string) *apiClient {
	return &apiClient{
		// Streaming chats can run for minutes; the per-call context
		// carries the real deadline.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userID:     userID,
	}
}

func (c *apiClient) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set("Authorization", "Bearer "+c.userID)
	}
	return req, nil
}

// doJSON runs one request and decodes a JSON response into dest when
// dest is non-nil. Non-2xx responses surface the server's error copy.
func (c *apiClient) doJSON(ctx context.Context, method, path string, payload, dest any) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// streamChat opens a streaming chat and returns the response body for
// the stream consumer. Empty messages (the transcript's pending
// placeholder) are dropped before sending.
func (c *apiClient) streamChat(ctx context.Context, path string, messages []stream.Message) (io.ReadCloser, error) {
	type wireMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := struct {
		Messages []wireMessage `json:"messages"`
		UserID   string        `json:"user_id,omitempty"`
	}{UserID: c.userID}
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		payload.Messages = append(payload.Messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp.Body, nil
}

// apiError extracts the server's user-facing error copy.
func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Errorf("%s", body.Error)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
