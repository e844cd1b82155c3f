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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
	"github.com/havenwell/havenwell/services/wellbeing/middleware"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
)

// SurveyWriteStore extends SurveyStore with the write side used by the
// survey endpoints.
type SurveyWriteStore interface {
	SurveyStore
	UpsertSurvey(ctx context.Context, profile datastore.SurveyProfile) (datastore.SurveyProfile, error)
}

// SurveyHandler defines the contract for the onboarding survey endpoints.
// The profile personalizes the mood companion's system prompt; both
// answer lists may be empty.
type SurveyHandler interface {
	// HandleSubmitSurvey processes POST /v1/survey, replacing any
	// previous answers.
	HandleSubmitSurvey(c *gin.Context)

	// HandleGetSurvey processes GET /v1/survey.
	HandleGetSurvey(c *gin.Context)
}

type surveyHandler struct {
	store  SurveyWriteStore
	tracer trace.Tracer
}

// NewSurveyHandler creates a SurveyHandler. store must not be nil.
func NewSurveyHandler(store SurveyWriteStore) SurveyHandler {
	if store == nil {
		panic("NewSurveyHandler: store must not be nil")
	}
	return &surveyHandler{
		store:  store,
		tracer: otel.Tracer("havenwell.wellbeing.handlers.survey"),
	}
}

func (h *surveyHandler) HandleSubmitSurvey(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleSubmitSurvey")
	defer span.End()

	var req datatypes.SurveyRequest
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

	profile, err := h.store.UpsertSurvey(ctx, datastore.SurveyProfile{
		UserID:     middleware.UserID(c),
		Conditions: req.Conditions,
		Interests:  req.Interests,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "survey upsert failed")
		storeFailure(c, endpoint, "Failed to store survey", err)
		return
	}

	recordSuccess(endpoint)
	span.SetStatus(codes.Ok, "survey stored")
	c.JSON(http.StatusOK, profile)
}

func (h *surveyHandler) HandleGetSurvey(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleGetSurvey")
	defer span.End()

	profile, found, err := h.store.Survey(ctx, middleware.UserID(c))
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load survey", err)
		return
	}
	if !found {
		recordSuccess(endpoint)
		c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: "No survey profile yet"})
		return
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusOK, profile)
}
