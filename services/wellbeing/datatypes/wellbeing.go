// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// CRUD surface types: mood logging, journal, achievements, meditation,
// survey. Chat and insight types live in chat.go.
package datatypes

import "time"

// =============================================================================
// Mood Logging
// =============================================================================

// LogMoodRequest records one mood observation.
type LogMoodRequest struct {
	MoodLevel int    `json:"mood_level" validate:"required,gte=1,lte=5"`
	Note      string `json:"note" validate:"omitempty,max=5000"`
}

func (r *LogMoodRequest) Validate() error {
	return wellbeingValidate.Struct(r)
}

// MoodStats is the derived-statistics summary for the dashboard.
type MoodStats struct {
	Streak         int         `json:"streak"`
	WeeklyAverage  float64     `json:"weekly_average"`
	MonthlyAverage float64     `json:"monthly_average"`
	WeekOverWeek   int         `json:"week_over_week_percent"`
	BestDay        string      `json:"best_day,omitempty"`
	MoodCounts     map[int]int `json:"mood_counts"`
}

// =============================================================================
// Journal
// =============================================================================

// JournalRequest writes the day's journal entry. One entry per user per
// calendar day; a second write the same day replaces the first.
type JournalRequest struct {
	Content string `json:"content" validate:"required,min=1,max=20000"`
}

func (r *JournalRequest) Validate() error {
	return wellbeingValidate.Struct(r)
}

// =============================================================================
// Achievements
// =============================================================================

// Achievement type slugs, matching the store's achievement_type column.
const (
	AchievementFirstEntry      = "first_entry"
	AchievementFirstMonth      = "first_month"
	AchievementMoodWarrior     = "mood_warrior"
	AchievementSevenDayStreak  = "7_day_streak"
	AchievementThirtyDayStreak = "30_day_streak"
)

// EvaluateAchievementsResponse lists what a single evaluation pass
// unlocked. Empty means nothing new.
type EvaluateAchievementsResponse struct {
	Unlocked []string `json:"unlocked"`
}

// =============================================================================
// Meditation
// =============================================================================

// MeditationSessionRequest starts a guided session record.
type MeditationSessionRequest struct {
	DurationMinutes int    `json:"duration_minutes" validate:"required,gte=1,lte=180"`
	MeditationType  string `json:"meditation_type" validate:"required,oneof=breathing body_scan loving_kindness sleep focus"`
}

func (r *MeditationSessionRequest) Validate() error {
	return wellbeingValidate.Struct(r)
}

// ReflectionRequest stores a post-session reflection.
type ReflectionRequest struct {
	SessionID  string `json:"session_id" validate:"omitempty,uuid"`
	Reflection string `json:"reflection_text" validate:"required,min=1,max=5000"`
}

func (r *ReflectionRequest) Validate() error {
	return wellbeingValidate.Struct(r)
}

// =============================================================================
// Survey
// =============================================================================

// SurveyRequest is the onboarding questionnaire. Both lists may be empty:
// declining to answer is a valid answer.
type SurveyRequest struct {
	Conditions []string `json:"mental_health_conditions" validate:"max=20,dive,max=100"`
	Interests  []string `json:"hobbies_interests" validate:"max=20,dive,max=100"`
}

func (r *SurveyRequest) Validate() error {
	return wellbeingValidate.Struct(r)
}

// =============================================================================
// Websocket Envelopes
// =============================================================================

// WSRequest is one inbound frame on the therapy websocket.
type WSRequest struct {
	Messages []Message `json:"messages" validate:"required,min=1,max=50,dive"`
}

func (r *WSRequest) Validate() error {
	return wellbeingValidate.Struct(r)
}

// WSResponse is one outbound frame. Fragment frames carry Content; the
// final frame sets Done and, when crisis language was detected in the
// user's message, attaches the crisis resource catalog.
type WSResponse struct {
	Type      string    `json:"type"` // "fragment", "done", "error"
	Content   string    `json:"content,omitempty"`
	Done      bool      `json:"done,omitempty"`
	Error     string    `json:"error,omitempty"`
	Resources any       `json:"crisis_resources,omitempty"`
	At        time.Time `json:"at"`
}
