// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/havenwell/havenwell/pkg/stream"
)

var (
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newChatCmd() *cobra.Command {
	var therapy bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with the mood companion",
		Long: `Starts an interactive chat. Each turn streams back as it is
generated; input is read only after the previous reply settles or fails,
so a failed turn can simply be retried. Exit with Ctrl+D.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/chat/mood"
			if therapy {
				path = "/v1/chat/therapy"
			}
			return runChat(path)
		},
	}
	cmd.Flags().BoolVar(&therapy, "therapy", false, "use the therapy persona instead of the mood companion")
	return cmd
}

func runChat(path string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client()
	reader := newInputReader()
	transcript := stream.NewTranscript()

	fmt.Println(dimStyle.Render("Connected to " + flagServer + ". Ctrl+D to leave."))

	for {
		prompt, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			fmt.Println(dimStyle.Render("Take care."))
			return nil
		}
		if err != nil {
			return err
		}
		if prompt == "" {
			continue
		}

		if err := runTurn(ctx, api, path, transcript, prompt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Println(errorStyle.Render("✗ " + err.Error()))
		}
	}
}

// runTurn streams one reply, echoing fragments as they arrive. The
// transcript settles on success and rolls back on failure so the next
// attempt starts clean.
func runTurn(ctx context.Context, api *apiClient, path string, transcript *stream.Transcript, prompt string) error {
	if err := transcript.Begin(prompt); err != nil {
		return err
	}

	body, err := api.streamChat(ctx, path, transcript.Messages())
	if err != nil {
		transcript.Fail()
		return err
	}
	defer body.Close()

	fmt.Print(assistantLabelStyle.Render("haven › "))

	printed := 0
	_, err = stream.Consume(body, func(cumulative string) {
		transcript.Update(cumulative)
		fmt.Print(cumulative[printed:])
		printed = len(cumulative)
	})
	if err != nil {
		fmt.Println()
		transcript.Fail()
		return err
	}

	fmt.Println()
	return transcript.Settle()
}
