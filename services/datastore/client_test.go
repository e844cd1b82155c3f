// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datastore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture records the last request the stub store received.
type capture struct {
	method string
	path   string
	query  string
	prefer string
	apikey string
	body   string
}

// newTestClient points a Client at a stub store returning respond.
func newTestClient(t *testing.T, status int, respond string, got *capture) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		*got = capture{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			prefer: r.Header.Get("Prefer"),
			apikey: r.Header.Get("apikey"),
			body:   string(raw),
		}
		w.WriteHeader(status)
		io.WriteString(w, respond)
	}))
	t.Cleanup(server.Close)

	t.Setenv("STORE_URL_BASE", server.URL)
	t.Setenv("STORE_SERVICE_KEY", "service-key")
	client, err := NewClient()
	require.NoError(t, err)
	return client
}

func TestNewClient_MissingConfig(t *testing.T) {
	t.Setenv("STORE_URL_BASE", "")
	t.Setenv("STORE_SERVICE_KEY", "k")
	_, err := NewClient()
	assert.Error(t, err)

	t.Setenv("STORE_URL_BASE", "http://localhost:1")
	t.Setenv("STORE_SERVICE_KEY", "")
	_, err = NewClient()
	assert.Error(t, err)
}

func TestQuery_GetEncodesFilters(t *testing.T) {
	var got capture
	client := newTestClient(t, http.StatusOK, `[]`, &got)

	var rows []MoodEntry
	err := client.From("mood_entries").
		Eq("user_id", "u1").
		Gte("created_at", "2026-01-01T00:00:00Z").
		Order("created_at", true).
		Limit(5).
		Get(context.Background(), &rows)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/rest/v1/mood_entries", got.path)
	assert.Contains(t, got.query, "user_id=eq.u1")
	assert.Contains(t, got.query, "order=created_at.desc")
	assert.Contains(t, got.query, "limit=5")
	assert.Equal(t, "service-key", got.apikey)
}

func TestQuery_InsertReturnsRepresentation(t *testing.T) {
	var got capture
	client := newTestClient(t, http.StatusCreated,
		`[{"id":"row-1","user_id":"u1","mood_level":4}]`, &got)

	entry, err := client.InsertMoodEntry(context.Background(),
		MoodEntry{UserID: "u1", MoodLevel: 4})
	require.NoError(t, err)

	assert.Equal(t, "row-1", entry.ID)
	assert.Equal(t, "return=representation", got.prefer)

	var payload []MoodEntry
	require.NoError(t, json.Unmarshal([]byte(got.body), &payload))
	require.Len(t, payload, 1)
	assert.Equal(t, 4, payload[0].MoodLevel)
}

func TestQuery_UpsertSetsConflictTarget(t *testing.T) {
	var got capture
	client := newTestClient(t, http.StatusCreated,
		`[{"id":"j1","user_id":"u1","content":"today","entry_date":"2026-03-04"}]`, &got)

	_, err := client.UpsertJournalEntry(context.Background(), JournalEntry{
		UserID:    "u1",
		Content:   "today",
		EntryDate: "2026-03-04",
	})
	require.NoError(t, err)

	assert.Contains(t, got.query, "on_conflict=user_id%2Centry_date")
	assert.Contains(t, got.prefer, "resolution=merge-duplicates")
	assert.Contains(t, got.prefer, "return=representation")
}

func TestSurvey_AbsenceIsNotAnError(t *testing.T) {
	var got capture
	client := newTestClient(t, http.StatusOK, `[]`, &got)

	_, found, err := client.Survey(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSurvey_Found(t *testing.T) {
	var got capture
	client := newTestClient(t, http.StatusOK,
		`[{"user_id":"u1","mental_health_conditions":["anxiety"],"hobbies_interests":["hiking"]}]`, &got)

	profile, found, err := client.Survey(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"anxiety"}, profile.Conditions)
	assert.Equal(t, []string{"hiking"}, profile.Interests)
}

func TestQuery_StoreErrorDoesNotLeakBody(t *testing.T) {
	var got capture
	client := newTestClient(t, http.StatusConflict,
		`{"message":"duplicate key value violates unique constraint"}`, &got)

	var rows []Achievement
	err := client.From("achievements").Get(context.Background(), &rows)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "duplicate key",
		"store detail must be logged, not returned")
}
