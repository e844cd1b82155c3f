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
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/havenwell/havenwell/pkg/stats"
	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
	"github.com/havenwell/havenwell/services/wellbeing/middleware"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
)

// statsWindowDays bounds the history fetched for the stats endpoint. The
// longest derived window is 30 days; the margin keeps long streaks
// countable without pulling the full table.
const statsWindowDays = 90

const (
	defaultMoodListLimit = 50
	maxMoodListLimit     = 200
)

// MoodStore is the slice of the data store the mood endpoints need.
type MoodStore interface {
	InsertMoodEntry(ctx context.Context, entry datastore.MoodEntry) (datastore.MoodEntry, error)
	MoodEntries(ctx context.Context, userID string, limit int) ([]datastore.MoodEntry, error)
	MoodEntriesSince(ctx context.Context, userID string, since time.Time) ([]datastore.MoodEntry, error)
}

// TrendSink receives logged moods for long-term trend storage. Recording
// is fire-and-forget; implementations buffer and flush on their own
// schedule.
type TrendSink interface {
	RecordMood(userID string, level int, at time.Time)
}

// MoodHandler defines the contract for the mood logging and statistics
// endpoints.
type MoodHandler interface {
	// HandleLogMood processes POST /v1/moods.
	HandleLogMood(c *gin.Context)

	// HandleListMoods processes GET /v1/moods.
	HandleListMoods(c *gin.Context)

	// HandleMoodStats processes GET /v1/moods/stats: the derived
	// dashboard summary.
	HandleMoodStats(c *gin.Context)

	// HandleMoodStreak processes GET /v1/moods/streak.
	HandleMoodStreak(c *gin.Context)

	// HandleMoodToday processes GET /v1/moods/today: whether the caller
	// has logged yet today.
	HandleMoodToday(c *gin.Context)
}

type moodHandler struct {
	store  MoodStore
	trends TrendSink
	tracer trace.Tracer
}

// NewMoodHandler creates a MoodHandler. store must not be nil; trends may
// be nil to disable trend recording.
func NewMoodHandler(store MoodStore, trends TrendSink) MoodHandler {
	if store == nil {
		panic("NewMoodHandler: store must not be nil")
	}
	return &moodHandler{
		store:  store,
		trends: trends,
		tracer: otel.Tracer("havenwell.wellbeing.handlers.moods"),
	}
}

func (h *moodHandler) HandleLogMood(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleLogMood")
	defer span.End()

	var req datatypes.LogMoodRequest
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
	span.SetAttributes(attribute.Int("mood.level", req.MoodLevel))

	entry, err := h.store.InsertMoodEntry(ctx, datastore.MoodEntry{
		UserID:    middleware.UserID(c),
		MoodLevel: req.MoodLevel,
		Note:      req.Note,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mood insert failed")
		storeFailure(c, endpoint, "Failed to store mood entry", err)
		return
	}

	if h.trends != nil {
		at := entry.CreatedAt
		if at.IsZero() {
			at = time.Now().UTC()
		}
		h.trends.RecordMood(entry.UserID, entry.MoodLevel, at)
	}

	recordSuccess(endpoint)
	span.SetStatus(codes.Ok, "mood logged")
	c.JSON(http.StatusCreated, entry)
}

func (h *moodHandler) HandleListMoods(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleListMoods")
	defer span.End()

	limit := defaultMoodListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			recordValidationFailure(endpoint)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Error:   "Invalid input",
				Details: []string{"limit must be a positive integer"},
			})
			return
		}
		limit = min(n, maxMoodListLimit)
	}

	entries, err := h.store.MoodEntries(ctx, middleware.UserID(c), limit)
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load mood entries", err)
		return
	}
	if entries == nil {
		entries = []datastore.MoodEntry{}
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusOK, entries)
}

func (h *moodHandler) HandleMoodStats(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleMoodStats")
	defer span.End()

	now := time.Now().UTC()
	rows, err := h.store.MoodEntriesSince(ctx, middleware.UserID(c), now.AddDate(0, 0, -statsWindowDays))
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load mood entries", err)
		return
	}

	entries := toStatsEntries(rows)
	span.SetAttributes(attribute.Int("stats.entry_count", len(entries)))

	recordSuccess(endpoint)
	c.JSON(http.StatusOK, datatypes.MoodStats{
		Streak:         stats.Streak(entries, now),
		WeeklyAverage:  stats.Average(entries, now, 7),
		MonthlyAverage: stats.Average(entries, now, 30),
		WeekOverWeek:   stats.WeekOverWeek(entries, now),
		BestDay:        stats.BestDay(entries, now),
		MoodCounts:     stats.MoodCounts(entries, now, 30),
	})
}

func (h *moodHandler) HandleMoodStreak(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleMoodStreak")
	defer span.End()

	now := time.Now().UTC()
	rows, err := h.store.MoodEntriesSince(ctx, middleware.UserID(c), now.AddDate(0, 0, -statsWindowDays))
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load mood entries", err)
		return
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusOK, gin.H{"streak": stats.Streak(toStatsEntries(rows), now)})
}

func (h *moodHandler) HandleMoodToday(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleMoodToday")
	defer span.End()

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := h.store.MoodEntriesSince(ctx, middleware.UserID(c), midnight)
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load mood entries", err)
		return
	}

	recordSuccess(endpoint)
	if len(rows) == 0 {
		c.JSON(http.StatusOK, gin.H{"logged": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged": true, "entry": rows[0]})
}

// toStatsEntries projects store rows onto the stats package's input type.
func toStatsEntries(rows []datastore.MoodEntry) []stats.Entry {
	entries := make([]stats.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, stats.Entry{Level: r.MoodLevel, CreatedAt: r.CreatedAt})
	}
	return entries
}

// =============================================================================
// Shared CRUD helpers
// =============================================================================

func recordSuccess(endpoint string) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(endpoint, true)
	}
}

func recordValidationFailure(endpoint string) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(endpoint, false)
		m.RecordError(endpoint, observability.ErrorCodeValidation)
	}
}

// storeFailure reports a data store error. The user-facing message is
// fixed copy; the underlying error is logged server-side only.
func storeFailure(c *gin.Context, endpoint, message string, err error) {
	slog.Error(message, "endpoint", endpoint, "error", err)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(endpoint, false)
		m.RecordError(endpoint, observability.ErrorCodeStore)
	}
	c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: message})
}
