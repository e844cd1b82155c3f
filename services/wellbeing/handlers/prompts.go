// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"strings"

	"github.com/havenwell/havenwell/services/datastore"
)

// System prompts are fixed personas composed server-side. Clients cannot
// supply or override them; only the stored survey profile modulates the
// mood companion's prompt.

const moodSystemPrompt = `You are a compassionate AI mood support assistant. Your role is to:
- Listen actively and empathetically to the user's feelings and concerns
- Help them feel heard and validated
- Provide supportive, non-judgmental responses
- Suggest practical activities and coping strategies to improve their mood
- Maintain a warm, caring, and understanding tone

Keep responses conversational and concise (2-4 sentences typically).`

const therapySystemPrompt = `You are a compassionate, professional AI therapy assistant. Your role is to:
- Listen actively and empathetically to the user's concerns
- Ask thoughtful questions to help users explore their feelings
- Provide supportive, non-judgmental responses
- Help users identify patterns in their thoughts and emotions
- Suggest healthy coping strategies when appropriate
- Recognize signs of crisis and recommend professional help when needed
- Maintain appropriate boundaries as an AI assistant, not a replacement for human therapists

Keep responses conversational, warm, and concise (2-3 sentences typically). Ask one question at a time to encourage dialogue.`

const insightSystemPrompt = `You are a compassionate mental health companion. Based on the user's mood and their note, provide:
1. A brief, empathetic acknowledgment (1-2 sentences)
2. 2-3 specific, actionable suggestions to improve or maintain their mood
3. A motivational closing (1 sentence)

Keep your response warm, supportive, and under 150 words. Focus on practical actions they can take right now.`

// insightFallback is returned on a 200 whenever insight generation fails.
// A failed nicety must not surface as an error.
const insightFallback = "Keep going! You're doing great."

// moodDescriptions maps the five-point scale to the wording used in the
// insight prompt. Index is level-1.
var moodDescriptions = [5]string{"very sad", "sad", "okay", "good", "great"}

// buildMoodPrompt composes the mood companion's system prompt from the
// base persona and the user's survey profile.
//
// Personalization is additive: a profile with conditions appends a
// sensitivity clause, one with interests appends a suggestion clause, and
// a missing profile appends an invitation to share interests. A missing
// profile is a normal state, never an error.
func buildMoodPrompt(profile datastore.SurveyProfile, found bool) string {
	var b strings.Builder
	b.WriteString(moodSystemPrompt)

	if !found {
		b.WriteString("\n\nThe user hasn't shared their interests yet. If appropriate, gently ask what activities or hobbies they enjoy, as this can help you provide better personalized suggestions.")
		return b.String()
	}
	if len(profile.Conditions) > 0 {
		b.WriteString(fmt.Sprintf("\n\nThe user has shared these mental health experiences: %s. Be sensitive to these experiences when providing support.",
			strings.Join(profile.Conditions, ", ")))
	}
	if len(profile.Interests) > 0 {
		b.WriteString(fmt.Sprintf("\n\nThe user enjoys these activities: %s. When appropriate, suggest these or similar activities to help improve their mood.",
			strings.Join(profile.Interests, ", ")))
	}
	return b.String()
}

// buildInsightUserPrompt phrases the logged mood as the user turn of the
// insight request. The note is quoted only when present.
func buildInsightUserPrompt(moodLevel int, note string) string {
	description := moodDescriptions[moodLevel-1]
	prompt := fmt.Sprintf("The user is feeling %s (%d/5).", description, moodLevel)
	if note != "" {
		prompt += fmt.Sprintf("\nThey wrote: %q", note)
	}
	return prompt + "\n\nProvide supportive insights and suggestions."
}
