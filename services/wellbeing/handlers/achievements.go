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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/havenwell/havenwell/pkg/stats"
	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
	"github.com/havenwell/havenwell/services/wellbeing/middleware"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
)

// Award thresholds, in mood entries logged.
const (
	firstEntryThreshold  = 1
	firstMonthThreshold  = 30
	moodWarriorThreshold = 50
	shortStreakDays      = 7
	longStreakDays       = 30
)

// AchievementStore is the slice of the data store achievement evaluation
// needs.
type AchievementStore interface {
	Achievements(ctx context.Context, userID string) ([]datastore.Achievement, error)
	AllMoodEntries(ctx context.Context, userID string) ([]datastore.MoodEntry, error)
	UpsertAchievement(ctx context.Context, a datastore.Achievement) error
}

// AchievementHandler defines the contract for the achievement endpoints.
//
// # Description
//
// Evaluation is pull-based: the client asks for a pass after logging, and
// the pass awards everything the history now supports. Awards are
// idempotent upserts, so concurrent passes cannot double-award.
type AchievementHandler interface {
	// HandleListAchievements processes GET /v1/achievements.
	HandleListAchievements(c *gin.Context)

	// HandleEvaluateAchievements processes POST /v1/achievements/evaluate
	// and responds with the achievements this pass newly unlocked.
	HandleEvaluateAchievements(c *gin.Context)
}

type achievementHandler struct {
	store  AchievementStore
	tracer trace.Tracer
}

// NewAchievementHandler creates an AchievementHandler. store must not be
// nil.
func NewAchievementHandler(store AchievementStore) AchievementHandler {
	if store == nil {
		panic("NewAchievementHandler: store must not be nil")
	}
	return &achievementHandler{
		store:  store,
		tracer: otel.Tracer("havenwell.wellbeing.handlers.achievements"),
	}
}

func (h *achievementHandler) HandleListAchievements(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleListAchievements")
	defer span.End()

	unlocked, err := h.store.Achievements(ctx, middleware.UserID(c))
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load achievements", err)
		return
	}
	if unlocked == nil {
		unlocked = []datastore.Achievement{}
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusOK, unlocked)
}

func (h *achievementHandler) HandleEvaluateAchievements(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleEvaluateAchievements")
	defer span.End()

	userID := middleware.UserID(c)
	entries, err := h.store.AllMoodEntries(ctx, userID)
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load mood entries", err)
		return
	}

	earned := earnedAchievements(entries, time.Now().UTC())
	span.SetAttributes(
		attribute.Int("achievements.entry_count", len(entries)),
		attribute.Int("achievements.earned_count", len(earned)),
	)

	held, err := h.store.Achievements(ctx, userID)
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load achievements", err)
		return
	}
	heldSet := make(map[string]struct{}, len(held))
	for _, a := range held {
		heldSet[a.AchievementType] = struct{}{}
	}

	unlocked := []string{}
	for _, achievementType := range earned {
		if _, ok := heldSet[achievementType]; ok {
			continue
		}
		err := h.store.UpsertAchievement(ctx, datastore.Achievement{
			UserID:          userID,
			AchievementType: achievementType,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "achievement award failed")
			storeFailure(c, endpoint, "Failed to award achievement", err)
			return
		}
		unlocked = append(unlocked, achievementType)
	}

	recordSuccess(endpoint)
	span.SetStatus(codes.Ok, "evaluation complete")
	c.JSON(http.StatusOK, datatypes.EvaluateAchievementsResponse{Unlocked: unlocked})
}

// earnedAchievements returns every achievement the history supports, in
// award order.
func earnedAchievements(entries []datastore.MoodEntry, now time.Time) []string {
	var earned []string
	if len(entries) >= firstEntryThreshold {
		earned = append(earned, datatypes.AchievementFirstEntry)
	}
	if len(entries) >= firstMonthThreshold {
		earned = append(earned, datatypes.AchievementFirstMonth)
	}
	if len(entries) >= moodWarriorThreshold {
		earned = append(earned, datatypes.AchievementMoodWarrior)
	}

	streak := stats.Streak(toStatsEntries(entries), now)
	if streak >= shortStreakDays {
		earned = append(earned, datatypes.AchievementSevenDayStreak)
	}
	if streak >= longStreakDays {
		earned = append(earned, datatypes.AchievementThirtyDayStreak)
	}
	return earned
}
