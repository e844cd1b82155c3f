// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import "fmt"

// Chat roles. The transcript carries exactly these two; system prompts are
// injected server-side and never appear in a client transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the lifecycle position of a Transcript.
//
// The legal transitions are:
//
//	idle      -> streaming   (Begin)
//	streaming -> settled     (Settle)
//	streaming -> failed      (Fail)
//	settled   -> streaming   (Begin, next turn)
//	failed    -> streaming   (Begin, retry)
//
// Anything else is a caller bug and is rejected.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateSettled
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// # Description
//
//	Transcript holds an ordered chat history and the explicit streaming
//	state driving it. Starting a turn appends the user message plus an
//	empty assistant placeholder; each arriving fragment overwrites the
//	placeholder in place (no per-fragment appends); settling freezes it;
//	failure rolls the placeholder back out so a retry does not leave a
//	half-written reply behind.
//
// # Limitations
//
//	Not safe for concurrent use. A transcript belongs to a single
//	conversation loop.
type Transcript struct {
	messages []Message
	state    State
}

// NewTranscript returns an empty transcript in the idle state.
func NewTranscript() *Transcript {
	return &Transcript{state: StateIdle}
}

// State returns the current lifecycle state.
func (t *Transcript) State() State {
	return t.state
}

// Streaming reports whether a turn is currently in flight. Callers use
// this to gate input: no new prompt is accepted while true.
func (t *Transcript) Streaming() bool {
	return t.state == StateStreaming
}

// Messages returns a copy of the transcript. During streaming the final
// entry is the in-progress assistant message.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Begin starts a turn: it appends the user prompt and an empty assistant
// placeholder, and moves to the streaming state.
func (t *Transcript) Begin(prompt string) error {
	if t.state == StateStreaming {
		return fmt.Errorf("begin turn: transcript already streaming")
	}
	t.messages = append(t.messages,
		Message{Role: RoleUser, Content: prompt},
		Message{Role: RoleAssistant, Content: ""},
	)
	t.state = StateStreaming
	return nil
}

// Update overwrites the assistant placeholder with the cumulative reply
// so far. It never appends: one turn produces exactly one assistant entry
// regardless of fragment count.
func (t *Transcript) Update(cumulative string) error {
	if t.state != StateStreaming {
		return fmt.Errorf("update transcript: not streaming (state %s)", t.state)
	}
	t.messages[len(t.messages)-1].Content = cumulative
	return nil
}

// Settle completes the turn, keeping the assistant entry as written.
func (t *Transcript) Settle() error {
	if t.state != StateStreaming {
		return fmt.Errorf("settle transcript: not streaming (state %s)", t.state)
	}
	t.state = StateSettled
	return nil
}

// Fail aborts the turn and rolls back the assistant placeholder, leaving
// the user's prompt in place so a retry can reference it.
func (t *Transcript) Fail() error {
	if t.state != StateStreaming {
		return fmt.Errorf("fail transcript: not streaming (state %s)", t.state)
	}
	t.messages = t.messages[:len(t.messages)-1]
	t.state = StateFailed
	return nil
}
