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
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newSurveyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "survey",
		Short: "Fill in the onboarding survey that personalizes the companion",
		Long: `Runs the onboarding survey. Answers shape the mood companion's
tone; both questions can be skipped, and answers replace any previous
survey.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurvey()
		},
	}
}

func runSurvey() error {
	var conditions []string
	var interests []string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Have you experienced any of these?").
				Description("Optional. Helps the companion respond with more care.").
				Options(
					huh.NewOption("Anxiety", "anxiety"),
					huh.NewOption("Depression", "depression"),
					huh.NewOption("Stress or burnout", "stress"),
					huh.NewOption("Sleep difficulties", "sleep issues"),
					huh.NewOption("Grief or loss", "grief"),
					huh.NewOption("Prefer not to say", ""),
				).
				Value(&conditions),
			huh.NewMultiSelect[string]().
				Title("What do you enjoy?").
				Description("Optional. The companion may suggest these on hard days.").
				Options(
					huh.NewOption("Walking or hiking", "hiking"),
					huh.NewOption("Reading", "reading"),
					huh.NewOption("Music", "music"),
					huh.NewOption("Cooking", "cooking"),
					huh.NewOption("Art or crafts", "art"),
					huh.NewOption("Sports or exercise", "exercise"),
					huh.NewOption("Gaming", "gaming"),
					huh.NewOption("Time with friends", "socializing"),
				).
				Value(&interests),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	// "Prefer not to say" maps to the empty option value.
	conditions = dropEmpty(conditions)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := client().doJSON(ctx, http.MethodPost, "/v1/survey", map[string]any{
		"mental_health_conditions": conditions,
		"hobbies_interests":        interests,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to save survey: %w", err)
	}

	fmt.Println("Survey saved. The companion will use it from your next chat.")
	return nil
}

func dropEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
