// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// cannedTips are the offline fallback when insight generation fails,
// indexed by mood level 1-5.
var cannedTips = [5]string{
	"Heavy days deserve gentle handling. A glass of water and one small kindness to yourself counts.",
	"Low moods pass. A short walk or a message to someone you trust can loosen their grip.",
	"An okay day is a fine day. Notice one thing that went quietly right.",
	"Good days are worth marking. What made today work? It might work again tomorrow.",
	"Great to hear. Savor it for a moment before rushing on.",
}

func newLogCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "log <level 1-5>",
		Short: "Log a mood entry and print the AI insight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[0])
			if err != nil || level < 1 || level > 5 {
				return fmt.Errorf("mood level must be 1-5")
			}
			return runLog(level, note)
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "optional note attached to the entry")
	return cmd
}

func runLog(level int, note string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	api := client()

	err := api.doJSON(ctx, http.MethodPost, "/v1/moods", map[string]any{
		"mood_level": level,
		"note":       note,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to log mood: %w", err)
	}
	fmt.Println("Mood logged.")

	fmt.Println()
	fmt.Println(insightFor(ctx, api, level, note))

	// A fresh entry may complete a streak; evaluation is quiet unless
	// something unlocked.
	var evaluated struct {
		Unlocked []string `json:"unlocked"`
	}
	if err := api.doJSON(ctx, http.MethodPost, "/v1/achievements/evaluate", nil, &evaluated); err == nil {
		for _, slug := range evaluated.Unlocked {
			fmt.Println("🏅 Unlocked:", achievementLabel(slug))
		}
	}
	return nil
}

// insightFor asks the service for an insight, falling back to the canned
// per-level tip when generation is unavailable.
func insightFor(ctx context.Context, api *apiClient, level int, note string) string {
	var resp struct {
		Insight string `json:"insight"`
	}
	err := api.doJSON(ctx, http.MethodPost, "/v1/insights/mood", map[string]any{
		"mood_level": level,
		"note":       note,
	}, &resp)
	if err != nil || resp.Insight == "" {
		return cannedTips[level-1]
	}
	return resp.Insight
}

func achievementLabel(slug string) string {
	switch slug {
	case "first_entry":
		return "First Entry"
	case "first_month":
		return "First Month"
	case "mood_warrior":
		return "Mood Warrior"
	case "7_day_streak":
		return "7-Day Streak"
	case "30_day_streak":
		return "30-Day Streak"
	default:
		return strings.ReplaceAll(slug, "_", " ")
	}
}
