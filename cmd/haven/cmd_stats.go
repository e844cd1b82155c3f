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
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	statHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	statValueStyle  = lipgloss.NewStyle().Bold(true)
)

type moodStatsResponse struct {
	Streak         int            `json:"streak"`
	WeeklyAverage  float64        `json:"weekly_average"`
	MonthlyAverage float64        `json:"monthly_average"`
	WeekOverWeek   int            `json:"week_over_week_percent"`
	BestDay        string         `json:"best_day"`
	MoodCounts     map[string]int `json:"mood_counts"`
}

type achievementRow struct {
	AchievementType string    `json:"achievement_type"`
	UnlockedAt      time.Time `json:"unlocked_at"`
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your streak, averages, and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}

func runStats() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	api := client()

	var (
		moodStats    moodStatsResponse
		achievements []achievementRow
		today        struct {
			Logged bool `json:"logged"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.doJSON(gctx, http.MethodGet, "/v1/moods/stats", nil, &moodStats)
	})
	g.Go(func() error {
		return api.doJSON(gctx, http.MethodGet, "/v1/achievements", nil, &achievements)
	})
	g.Go(func() error {
		return api.doJSON(gctx, http.MethodGet, "/v1/moods/today", nil, &today)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	fmt.Println(statHeaderStyle.Render("Mood"))
	fmt.Printf("  Streak          %s\n", statValueStyle.Render(fmt.Sprintf("%d day(s)", moodStats.Streak)))
	fmt.Printf("  Weekly average  %s\n", statValueStyle.Render(fmt.Sprintf("%.1f / 5", moodStats.WeeklyAverage)))
	fmt.Printf("  Monthly average %s\n", statValueStyle.Render(fmt.Sprintf("%.1f / 5", moodStats.MonthlyAverage)))
	fmt.Printf("  Week over week  %s\n", statValueStyle.Render(fmt.Sprintf("%+d%%", moodStats.WeekOverWeek)))
	if moodStats.BestDay != "" {
		fmt.Printf("  Best day        %s\n", statValueStyle.Render(moodStats.BestDay))
	}
	if !today.Logged {
		fmt.Println("  " + lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("You haven't logged today yet."))
	}

	fmt.Println()
	fmt.Println(statHeaderStyle.Render("Achievements"))
	if len(achievements) == 0 {
		fmt.Println("  None yet. Start logging your mood to earn achievements!")
		return nil
	}
	for _, a := range achievements {
		line := fmt.Sprintf("  🏅 %s", achievementLabel(a.AchievementType))
		if !a.UnlockedAt.IsZero() {
			line += " " + strings.TrimSpace(dimStyle.Render("("+a.UnlockedAt.Format("Jan 2, 2006")+")"))
		}
		fmt.Println(line)
	}
	return nil
}
