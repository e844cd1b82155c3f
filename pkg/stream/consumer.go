// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stream consumes the event-stream responses relayed by the chat
// endpoints and maintains the client-side transcript they update.
//
// The wire format is the OpenAI-compatible completion stream: lines
// separated by \n, comments prefixed with ":", data records prefixed with
// "data: " carrying a JSON delta envelope, and the literal payload [DONE]
// marking normal end of stream.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// dataPrefix tags an event-stream data record.
const dataPrefix = "data: "

// doneSentinel is the literal payload that ends a stream. It is not valid
// JSON and must be checked before parsing.
const doneSentinel = "[DONE]"

// deltaEnvelope is the incremental chunk shape emitted by the upstream
// completion gateway. Only the delta content is consumed; everything else
// in the envelope is ignored.
type deltaEnvelope struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Consumer incrementally decodes an event-stream body into a growing
// assistant message.
//
// Feed may be called with arbitrarily split chunks: a record split across
// two chunks is buffered and not parsed until the terminating newline
// arrives. Malformed data records are logged and skipped rather than
// aborting the stream - partial output is preferred over total failure.
//
// Consumer is not safe for concurrent use; a stream has one reader.
type Consumer struct {
	buf    bytes.Buffer
	answer strings.Builder
	done   bool
}

// NewConsumer returns a Consumer ready to receive chunks.
func NewConsumer() *Consumer {
	return &Consumer{}
}

// Feed appends a chunk of undecoded bytes and extracts every complete
// record now available. Extracted text fragments are returned in order.
//
// After the done sentinel has been seen, further chunks are ignored.
func (c *Consumer) Feed(chunk []byte) []string {
	if c.done {
		return nil
	}
	c.buf.Write(chunk)

	var fragments []string
	for {
		raw := c.buf.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			return fragments
		}
		line := string(raw[:idx])
		c.buf.Next(idx + 1)

		line = strings.TrimSuffix(line, "\r")
		if frag, ok := c.consumeLine(line); ok {
			fragments = append(fragments, frag)
		}
		if c.done {
			return fragments
		}
	}
}

// consumeLine classifies a single record line. It returns the extracted
// fragment and whether one was present.
func (c *Consumer) consumeLine(line string) (string, bool) {
	// Blank lines separate events; comment lines are keep-alives.
	if line == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := strings.TrimPrefix(line, dataPrefix)
	if payload == doneSentinel {
		c.done = true
		return "", false
	}

	var envelope deltaEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		// Best effort: a garbled record must not kill the stream.
		slog.Debug("skipping malformed stream record", "error", err)
		return "", false
	}
	if len(envelope.Choices) == 0 {
		return "", false
	}
	content := envelope.Choices[0].Delta.Content
	if content == "" {
		return "", false
	}
	c.answer.WriteString(content)
	return content, true
}

// Done reports whether the done sentinel has been seen.
func (c *Consumer) Done() bool {
	return c.done
}

// Answer returns the assistant message accumulated so far: the ordered
// concatenation of every fragment up to the sentinel or end of input.
func (c *Consumer) Answer() string {
	return c.answer.String()
}

// Consume reads body to completion, invoking onFragment with the running
// cumulative message after each extracted fragment, and returns the final
// assistant message.
//
// End of input and the done sentinel are both normal completion. A read
// error mid-stream is returned alongside whatever was accumulated.
func Consume(body io.Reader, onFragment func(cumulative string)) (string, error) {
	c := NewConsumer()
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			for range c.Feed(buf[:n]) {
				if onFragment != nil {
					onFragment(c.Answer())
				}
			}
		}
		if c.Done() {
			return c.Answer(), nil
		}
		if err == io.EOF {
			return c.Answer(), nil
		}
		if err != nil {
			return c.Answer(), fmt.Errorf("read stream: %w", err)
		}
	}
}
