// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
	"github.com/havenwell/havenwell/services/wellbeing/middleware"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
)

// JournalStore is the slice of the data store the journal endpoints need.
type JournalStore interface {
	UpsertJournalEntry(ctx context.Context, entry datastore.JournalEntry) (datastore.JournalEntry, error)
	JournalEntries(ctx context.Context, userID string) ([]datastore.JournalEntry, error)
}

// JournalHandler defines the contract for the journal endpoints. One
// entry per user per calendar day: writing again the same day replaces
// the earlier text.
type JournalHandler interface {
	// HandleWriteJournal processes POST /v1/journal.
	HandleWriteJournal(c *gin.Context)

	// HandleListJournal processes GET /v1/journal.
	HandleListJournal(c *gin.Context)
}

type journalHandler struct {
	store  JournalStore
	tracer trace.Tracer
}

// NewJournalHandler creates a JournalHandler. store must not be nil.
func NewJournalHandler(store JournalStore) JournalHandler {
	if store == nil {
		panic("NewJournalHandler: store must not be nil")
	}
	return &journalHandler{
		store:  store,
		tracer: otel.Tracer("havenwell.wellbeing.handlers.journal"),
	}
}

func (h *journalHandler) HandleWriteJournal(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleWriteJournal")
	defer span.End()

	var req datatypes.JournalRequest
	if err := c.BindJSON(&req); err != nil {
		span.RecordError(err)
		recordValidationFailure(endpoint)
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "Invalid input"})
		return
	}
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		recordValidationFailure(endpoint)
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
			Error:   "Invalid input",
			Details: datatypes.ValidationDetails(err),
		})
		return
	}

	entry, err := h.store.UpsertJournalEntry(ctx, datastore.JournalEntry{
		UserID:    middleware.UserID(c),
		Content:   req.Content,
		EntryDate: time.Now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "journal upsert failed")
		storeFailure(c, endpoint, "Failed to store journal entry", err)
		return
	}

	recordSuccess(endpoint)
	span.SetStatus(codes.Ok, "journal entry written")
	c.JSON(http.StatusOK, entry)
}

func (h *journalHandler) HandleListJournal(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleListJournal")
	defer span.End()

	entries, err := h.store.JournalEntries(ctx, middleware.UserID(c))
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load journal entries", err)
		return
	}
	if entries == nil {
		entries = []datastore.JournalEntry{}
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusOK, entries)
}
