// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/havenwell/havenwell/pkg/stream"
	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/llm"
	"github.com/havenwell/havenwell/services/safety"
	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
)

// CrisisCatalog is the source of crisis resources attached to replies
// when crisis language is detected.
type CrisisCatalog interface {
	Resources() []datastore.CrisisResource
}

// TherapyStore persists completed therapy turns.
type TherapyStore interface {
	InsertTherapyMessages(ctx context.Context, msgs []datastore.TherapyMessage) error
}

// TherapyWSHandler handles GET /v1/therapy/ws: a websocket transport for
// the therapy conversation.
//
// # Description
//
// Each inbound frame carries the full message history; the reply streams
// back as fragment frames followed by a done frame. Unlike the HTTP
// relay, this transport decodes the upstream stream server-side, which
// lets it assemble the reply in locked memory, attach crisis resources to
// the done frame when the user's message matched crisis language, and
// persist the turn best-effort after completion.
type TherapyWSHandler interface {
	HandleTherapyWS(c *gin.Context)
}

type therapyWSHandler struct {
	llmClient llm.Client
	scanner   *safety.Scanner
	catalog   CrisisCatalog
	store     TherapyStore
	upgrader  websocket.Upgrader
}

// NewTherapyWSHandler creates a TherapyWSHandler. llmClient must not be
// nil; scanner, catalog, and store may be nil to disable their features.
func NewTherapyWSHandler(llmClient llm.Client, scanner *safety.Scanner, catalog CrisisCatalog, store TherapyStore) TherapyWSHandler {
	if llmClient == nil {
		panic("NewTherapyWSHandler: llmClient must not be nil")
	}
	return &therapyWSHandler{
		llmClient: llmClient,
		scanner:   scanner,
		catalog:   catalog,
		store:     store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The HTTP surface is CORS-open; the websocket matches it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *therapyWSHandler) HandleTherapyWS(c *gin.Context) {
	endpoint := observability.EndpointTherapyWS

	userID := c.Query("user_id")
	if userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Error:   "Invalid input",
				Details: []string{"user_id must be a valid UUID"},
			})
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if m := observability.DefaultMetrics; m != nil {
		m.StreamStarted(endpoint)
		defer m.StreamEnded(endpoint)
	}

	for {
		var req datatypes.WSRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("therapy websocket closed unexpectedly", "error", err)
			}
			return
		}
		if err := req.Validate(); err != nil {
			h.writeFrame(conn, datatypes.WSResponse{
				Type:  "error",
				Error: "Invalid input",
				At:    time.Now().UTC(),
			})
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeValidation)
			}
			continue
		}
		h.handleTurn(c.Request.Context(), conn, endpoint, userID, req)
	}
}

// handleTurn streams one reply back as fragment frames.
func (h *therapyWSHandler) handleTurn(ctx context.Context, conn *websocket.Conn, endpoint, userID string, req datatypes.WSRequest) {
	startTime := time.Now()
	success := false
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordRequest(endpoint, success)
			m.RecordStreamDuration(endpoint, time.Since(startTime).Seconds(), success)
		}
	}()

	lastUser := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = req.Messages[i].Content
			break
		}
	}

	var findings []safety.Finding
	if h.scanner != nil {
		findings = h.scanner.Scan(lastUser)
		if len(findings) > 0 {
			if m := observability.DefaultMetrics; m != nil {
				m.RecordCrisisFinding(endpoint)
			}
		}
	}

	messages := make([]llm.Message, 0, len(req.Messages)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: therapySystemPrompt})
	for _, m := range req.Messages {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	body, err := h.llmClient.Stream(ctx, messages)
	if err != nil {
		slog.Error("gateway stream failed on websocket", "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeUpstream)
		}
		h.writeFrame(conn, datatypes.WSResponse{
			Type:  "error",
			Error: msgGatewayError,
			At:    time.Now().UTC(),
		})
		return
	}
	defer body.Close()

	buffer, err := NewReplyBuffer()
	if err != nil {
		slog.Warn("reply buffer unavailable, turn will not be persisted", "error", err)
	}
	defer func() {
		if buffer != nil {
			buffer.Destroy()
		}
	}()

	writeFailed := false
	sent := 0
	_, consumeErr := stream.Consume(body, func(cumulative string) {
		if writeFailed {
			return
		}
		fragment := cumulative[sent:]
		sent = len(cumulative)
		if buffer != nil {
			if err := buffer.Append(fragment); err != nil {
				slog.Warn("reply buffer append failed", "error", err)
				buffer.Destroy()
				buffer = nil
			}
		}
		if err := h.writeFrame(conn, datatypes.WSResponse{
			Type:    "fragment",
			Content: fragment,
			At:      time.Now().UTC(),
		}); err != nil {
			writeFailed = true
		}
	})
	if consumeErr != nil || writeFailed {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeUpstream)
		}
		h.writeFrame(conn, datatypes.WSResponse{
			Type:  "error",
			Error: msgGatewayError,
			At:    time.Now().UTC(),
		})
		return
	}

	done := datatypes.WSResponse{Type: "done", Done: true, At: time.Now().UTC()}
	if h.catalog != nil && safety.HasHighSeverity(findings) {
		done.Resources = h.catalog.Resources()
	}
	if err := h.writeFrame(conn, done); err != nil {
		return
	}
	success = true

	// Best-effort persistence: a failed write never fails the turn.
	if h.store != nil && userID != "" && buffer != nil {
		turn := []datastore.TherapyMessage{
			{UserID: userID, Role: "user", Content: lastUser},
			{UserID: userID, Role: "assistant", Content: buffer.String()},
		}
		persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.store.InsertTherapyMessages(persistCtx, turn); err != nil {
			slog.Warn("failed to persist therapy turn", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(endpoint, observability.ErrorCodeStore)
			}
		}
	}
}

func (h *therapyWSHandler) writeFrame(conn *websocket.Conn, frame datatypes.WSResponse) error {
	if err := conn.WriteJSON(frame); err != nil {
		slog.Warn("websocket write failed", "error", err)
		return err
	}
	return nil
}
