// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datastore

import (
	"context"
	"fmt"
	"time"
)

// Row types mirror the store's tables. IDs are store-assigned UUIDs.

type MoodEntry struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	MoodLevel int       `json:"mood_level"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type JournalEntry struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	EntryDate string    `json:"entry_date"` // calendar day, YYYY-MM-DD
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Achievement struct {
	ID              string    `json:"id,omitempty"`
	UserID          string    `json:"user_id"`
	AchievementType string    `json:"achievement_type"`
	UnlockedAt      time.Time `json:"unlocked_at,omitempty"`
}

type MeditationSession struct {
	ID              string    `json:"id,omitempty"`
	UserID          string    `json:"user_id"`
	DurationMinutes int       `json:"duration_minutes"`
	MeditationType  string    `json:"meditation_type"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

type MeditationReflection struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id,omitempty"`
	Reflection string    `json:"reflection_text"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// SurveyProfile is the onboarding questionnaire result used to
// personalize the mood companion's system prompt.
type SurveyProfile struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	Conditions []string  `json:"mental_health_conditions"`
	Interests  []string  `json:"hobbies_interests"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

type Resource struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Category    string `json:"category"`
}

type CrisisResource struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Phone       string `json:"phone_number" yaml:"phone"`
	URL         string `json:"url" yaml:"url"`
	Available24 bool   `json:"available_24_7" yaml:"available_24_7"`
}

// TherapyMessage is one persisted therapy-chat turn. Persistence is
// best-effort after stream completion; a failed write never fails a chat.
type TherapyMessage struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ============================================================================
// Typed helpers
// ============================================================================

// InsertMoodEntry stores one mood observation and returns the created row.
func (c *Client) InsertMoodEntry(ctx context.Context, entry MoodEntry) (MoodEntry, error) {
	var rows []MoodEntry
	if err := c.From("mood_entries").Insert(ctx, []MoodEntry{entry}, &rows); err != nil {
		return MoodEntry{}, err
	}
	if len(rows) == 0 {
		return MoodEntry{}, fmt.Errorf("store returned no representation for mood_entries insert")
	}
	return rows[0], nil
}

// MoodEntriesSince returns the user's entries at or after since, newest
// first.
func (c *Client) MoodEntriesSince(ctx context.Context, userID string, since time.Time) ([]MoodEntry, error) {
	var rows []MoodEntry
	err := c.From("mood_entries").
		Eq("user_id", userID).
		Gte("created_at", since.UTC().Format(time.RFC3339)).
		Order("created_at", true).
		Get(ctx, &rows)
	return rows, err
}

// MoodEntries returns the user's most recent entries, newest first.
func (c *Client) MoodEntries(ctx context.Context, userID string, limit int) ([]MoodEntry, error) {
	var rows []MoodEntry
	err := c.From("mood_entries").
		Eq("user_id", userID).
		Order("created_at", true).
		Limit(limit).
		Get(ctx, &rows)
	return rows, err
}

// UpsertJournalEntry writes the day's journal entry, replacing any
// existing entry for the same user and calendar day.
func (c *Client) UpsertJournalEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	var rows []JournalEntry
	err := c.From("journal_entries").
		Upsert(ctx, []JournalEntry{entry}, &rows, "user_id,entry_date")
	if err != nil {
		return JournalEntry{}, err
	}
	if len(rows) == 0 {
		return JournalEntry{}, fmt.Errorf("store returned no representation for journal_entries upsert")
	}
	return rows[0], nil
}

// JournalEntries returns the user's journal, newest day first.
func (c *Client) JournalEntries(ctx context.Context, userID string) ([]JournalEntry, error) {
	var rows []JournalEntry
	err := c.From("journal_entries").
		Eq("user_id", userID).
		Order("entry_date", true).
		Get(ctx, &rows)
	return rows, err
}

// AllMoodEntries returns every entry for the user, newest first.
// Achievement evaluation needs the full history; everything else uses a
// bounded window.
func (c *Client) AllMoodEntries(ctx context.Context, userID string) ([]MoodEntry, error) {
	var rows []MoodEntry
	err := c.From("mood_entries").
		Eq("user_id", userID).
		Order("created_at", true).
		Get(ctx, &rows)
	return rows, err
}

// Achievements returns everything the user has unlocked.
func (c *Client) Achievements(ctx context.Context, userID string) ([]Achievement, error) {
	var rows []Achievement
	err := c.From("achievements").
		Eq("user_id", userID).
		Order("unlocked_at", true).
		Get(ctx, &rows)
	return rows, err
}

// UpsertAchievement records an unlocked achievement. Re-awarding the same
// achievement is a no-op merge, so evaluation passes are idempotent.
func (c *Client) UpsertAchievement(ctx context.Context, a Achievement) error {
	return c.From("achievements").
		Upsert(ctx, []Achievement{a}, nil, "user_id,achievement_type")
}

// InsertMeditationSession starts a session record.
func (c *Client) InsertMeditationSession(ctx context.Context, s MeditationSession) (MeditationSession, error) {
	var rows []MeditationSession
	if err := c.From("meditation_sessions").Insert(ctx, []MeditationSession{s}, &rows); err != nil {
		return MeditationSession{}, err
	}
	if len(rows) == 0 {
		return MeditationSession{}, fmt.Errorf("store returned no representation for meditation_sessions insert")
	}
	return rows[0], nil
}

// CompleteMeditationSession marks a session finished.
func (c *Client) CompleteMeditationSession(ctx context.Context, sessionID string) error {
	return c.From("meditation_sessions").
		Eq("id", sessionID).
		Update(ctx, map[string]any{"completed": true}, nil)
}

// InsertMeditationReflection stores a post-session reflection.
func (c *Client) InsertMeditationReflection(ctx context.Context, r MeditationReflection) (MeditationReflection, error) {
	var rows []MeditationReflection
	if err := c.From("meditation_reflections").Insert(ctx, []MeditationReflection{r}, &rows); err != nil {
		return MeditationReflection{}, err
	}
	if len(rows) == 0 {
		return MeditationReflection{}, fmt.Errorf("store returned no representation for meditation_reflections insert")
	}
	return rows[0], nil
}

// Survey returns the user's onboarding profile. A missing profile is a
// normal state, reported through found, not an error.
func (c *Client) Survey(ctx context.Context, userID string) (SurveyProfile, bool, error) {
	var rows []SurveyProfile
	err := c.From("user_survey").
		Eq("user_id", userID).
		Limit(1).
		Get(ctx, &rows)
	if err != nil {
		return SurveyProfile{}, false, err
	}
	if len(rows) == 0 {
		return SurveyProfile{}, false, nil
	}
	return rows[0], true, nil
}

// UpsertSurvey writes the user's onboarding profile, replacing any
// previous answers.
func (c *Client) UpsertSurvey(ctx context.Context, profile SurveyProfile) (SurveyProfile, error) {
	var rows []SurveyProfile
	err := c.From("user_survey").
		Upsert(ctx, []SurveyProfile{profile}, &rows, "user_id")
	if err != nil {
		return SurveyProfile{}, err
	}
	if len(rows) == 0 {
		return SurveyProfile{}, fmt.Errorf("store returned no representation for user_survey upsert")
	}
	return rows[0], nil
}

// Resources lists wellbeing resources, optionally filtered by category.
func (c *Client) Resources(ctx context.Context, category string) ([]Resource, error) {
	q := c.From("resources").Order("title", false)
	if category != "" {
		q.Eq("category", category)
	}
	var rows []Resource
	err := q.Get(ctx, &rows)
	return rows, err
}

// CrisisResources lists the crisis support catalog stored in the store.
func (c *Client) CrisisResources(ctx context.Context) ([]CrisisResource, error) {
	var rows []CrisisResource
	err := c.From("crisis_resources").Order("name", false).Get(ctx, &rows)
	return rows, err
}

// InsertTherapyMessages persists completed therapy turns in one batch.
func (c *Client) InsertTherapyMessages(ctx context.Context, msgs []TherapyMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	return c.From("therapy_messages").Insert(ctx, msgs, nil)
}
