// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/safety"
	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
)

// sseBody builds an upstream stream carrying the given delta fragments.
func sseBody(fragments ...string) string {
	var b strings.Builder
	for _, f := range fragments {
		raw, _ := json.Marshal(f)
		b.WriteString(`data: {"choices":[{"delta":{"content":` + string(raw) + `}}]}` + "\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

type stubCatalog struct {
	resources []datastore.CrisisResource
}

func (s *stubCatalog) Resources() []datastore.CrisisResource { return s.resources }

// stubTherapyStore signals on persisted so tests can wait for the
// best-effort write that happens after the done frame.
type stubTherapyStore struct {
	got       []datastore.TherapyMessage
	persisted chan struct{}
}

func (s *stubTherapyStore) InsertTherapyMessages(_ context.Context, msgs []datastore.TherapyMessage) error {
	s.got = msgs
	close(s.persisted)
	return nil
}

func dialTherapyWS(t *testing.T, client *stubLLM, catalog CrisisCatalog, store TherapyStore, query string) *websocket.Conn {
	t.Helper()
	t.Setenv("HAVEN_INSECURE_MEMORY", "true")

	scanner, err := safety.NewScanner()
	require.NoError(t, err)

	router := gin.New()
	router.GET("/v1/therapy/ws", NewTherapyWSHandler(client, scanner, catalog, store).HandleTherapyWS)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/therapy/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrames(t *testing.T, conn *websocket.Conn) (reply string, done datatypes.WSResponse) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var frame datatypes.WSResponse
		require.NoError(t, conn.ReadJSON(&frame))
		switch frame.Type {
		case "fragment":
			reply += frame.Content
		case "done":
			return reply, frame
		default:
			t.Fatalf("unexpected frame: %+v", frame)
		}
	}
}

func TestTherapyWS_StreamsFragmentsThenDone(t *testing.T) {
	client := &stubLLM{streamBody: sseBody("I hear ", "you.")}
	conn := dialTherapyWS(t, client, nil, nil, "")

	require.NoError(t, conn.WriteJSON(datatypes.WSRequest{
		Messages: []datatypes.Message{{Role: "user", Content: "rough week"}},
	}))

	reply, done := readFrames(t, conn)
	assert.Equal(t, "I hear you.", reply)
	assert.True(t, done.Done)
	assert.Nil(t, done.Resources)

	// The turn goes upstream with the persona prepended.
	require.NotEmpty(t, client.gotMessages)
	assert.Equal(t, therapySystemPrompt, client.gotMessages[0].Content)
}

func TestTherapyWS_CrisisLanguageAttachesResources(t *testing.T) {
	catalog := &stubCatalog{resources: []datastore.CrisisResource{
		{Name: "Crisis Line", Phone: "988"},
	}}
	client := &stubLLM{streamBody: sseBody("Please reach out for support.")}
	conn := dialTherapyWS(t, client, catalog, nil, "")

	require.NoError(t, conn.WriteJSON(datatypes.WSRequest{
		Messages: []datatypes.Message{{Role: "user", Content: "I don't want to be here anymore"}},
	}))

	_, done := readFrames(t, conn)
	require.NotNil(t, done.Resources)
}

func TestTherapyWS_PersistsTurnAfterDone(t *testing.T) {
	store := &stubTherapyStore{persisted: make(chan struct{})}
	client := &stubLLM{streamBody: sseBody("Take it one day at a time.")}
	conn := dialTherapyWS(t, client, nil, store, "?user_id=9b7d5c1a-63a1-4a83-9f6e-2f3f6f1b2c3d")

	require.NoError(t, conn.WriteJSON(datatypes.WSRequest{
		Messages: []datatypes.Message{{Role: "user", Content: "struggling today"}},
	}))
	readFrames(t, conn)

	select {
	case <-store.persisted:
	case <-time.After(5 * time.Second):
		t.Fatal("turn was not persisted")
	}
	require.Len(t, store.got, 2)
	assert.Equal(t, "struggling today", store.got[0].Content)
	assert.Equal(t, "Take it one day at a time.", store.got[1].Content)
}

func TestTherapyWS_InvalidFrameKeepsConnectionOpen(t *testing.T) {
	client := &stubLLM{streamBody: sseBody("Still here.")}
	conn := dialTherapyWS(t, client, nil, nil, "")

	require.NoError(t, conn.WriteJSON(datatypes.WSRequest{Messages: nil}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var errFrame datatypes.WSResponse
	require.NoError(t, conn.ReadJSON(&errFrame))
	assert.Equal(t, "error", errFrame.Type)

	// The next valid frame still gets a reply.
	require.NoError(t, conn.WriteJSON(datatypes.WSRequest{
		Messages: []datatypes.Message{{Role: "user", Content: "hello"}},
	}))
	reply, done := readFrames(t, conn)
	assert.Equal(t, "Still here.", reply)
	assert.True(t, done.Done)
}
