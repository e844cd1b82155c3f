// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command haven is the terminal client for the HavenWell wellbeing
// service.
//
// # Commands
//
//   - haven chat     — interactive mood companion (or --therapy)
//   - haven log      — log a mood and print the AI insight
//   - haven survey   — onboarding personalization survey
//   - haven stats    — streak, averages, and achievements summary
//
// # Environment Variables
//
//   - HAVEN_SERVER: service base URL (default: http://localhost:12310)
//   - HAVEN_USER_ID: user id, sent as the bearer token
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagServer string
	flagUserID string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "haven",
		Short: "Terminal client for the HavenWell wellbeing service",
		Long: `haven talks to a running wellbeing service: chat with the mood
companion, log moods, keep your survey profile current, and check your
streaks without leaving the terminal.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagServer, "server",
		envOr("HAVEN_SERVER", "http://localhost:12310"), "wellbeing service base URL")
	rootCmd.PersistentFlags().StringVar(&flagUserID, "user",
		os.Getenv("HAVEN_USER_ID"), "user id, sent as the bearer token")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newSurveyCmd())
	rootCmd.AddCommand(newStatsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func client() *apiClient {
	return newAPIClient(flagServer, flagUserID)
}
