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

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
	"github.com/havenwell/havenwell/services/wellbeing/middleware"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
)

// MeditationStore is the slice of the data store the meditation endpoints
// need.
type MeditationStore interface {
	InsertMeditationSession(ctx context.Context, s datastore.MeditationSession) (datastore.MeditationSession, error)
	CompleteMeditationSession(ctx context.Context, sessionID string) error
	InsertMeditationReflection(ctx context.Context, r datastore.MeditationReflection) (datastore.MeditationReflection, error)
}

// MeditationHandler defines the contract for the guided meditation
// endpoints.
type MeditationHandler interface {
	// HandleStartSession processes POST /v1/meditation/sessions.
	HandleStartSession(c *gin.Context)

	// HandleCompleteSession processes
	// POST /v1/meditation/sessions/:id/complete.
	HandleCompleteSession(c *gin.Context)

	// HandleReflection processes POST /v1/meditation/reflections.
	HandleReflection(c *gin.Context)
}

type meditationHandler struct {
	store  MeditationStore
	tracer trace.Tracer
}

// NewMeditationHandler creates a MeditationHandler. store must not be
// nil.
func NewMeditationHandler(store MeditationStore) MeditationHandler {
	if store == nil {
		panic("NewMeditationHandler: store must not be nil")
	}
	return &meditationHandler{
		store:  store,
		tracer: otel.Tracer("havenwell.wellbeing.handlers.meditation"),
	}
}

func (h *meditationHandler) HandleStartSession(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleStartSession")
	defer span.End()

	var req datatypes.MeditationSessionRequest
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

	session, err := h.store.InsertMeditationSession(ctx, datastore.MeditationSession{
		UserID:          middleware.UserID(c),
		DurationMinutes: req.DurationMinutes,
		MeditationType:  req.MeditationType,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session insert failed")
		storeFailure(c, endpoint, "Failed to store meditation session", err)
		return
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusCreated, session)
}

func (h *meditationHandler) HandleCompleteSession(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleCompleteSession")
	defer span.End()

	sessionID := c.Param("id")
	if _, err := uuid.Parse(sessionID); err != nil {
		recordValidationFailure(endpoint)
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
			Error:   "Invalid input",
			Details: []string{"session id must be a valid UUID"},
		})
		return
	}

	if err := h.store.CompleteMeditationSession(ctx, sessionID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session completion failed")
		storeFailure(c, endpoint, "Failed to complete meditation session", err)
		return
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusOK, gin.H{"completed": true})
}

func (h *meditationHandler) HandleReflection(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleReflection")
	defer span.End()

	var req datatypes.ReflectionRequest
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

	reflection, err := h.store.InsertMeditationReflection(ctx, datastore.MeditationReflection{
		UserID:     middleware.UserID(c),
		SessionID:  req.SessionID,
		Reflection: req.Reflection,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reflection insert failed")
		storeFailure(c, endpoint, "Failed to store reflection", err)
		return
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusCreated, reflection)
}
