// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"reflect"
	"strings"
	"testing"
)

// record builds a wire-format data record carrying one content fragment.
func record(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n\n"
}

func TestConsumer_AccumulatesFragmentsInOrder(t *testing.T) {
	c := NewConsumer()
	body := record("A") + record("B") + "data: [DONE]\n\n"

	frags := c.Feed([]byte(body))

	if want := []string{"A", "B"}; !reflect.DeepEqual(frags, want) {
		t.Errorf("fragments = %v, want %v", frags, want)
	}
	if c.Answer() != "AB" {
		t.Errorf("Answer() = %q, want %q", c.Answer(), "AB")
	}
	if !c.Done() {
		t.Error("Done() = false after sentinel")
	}
}

func TestConsumer_RecordSplitAcrossChunks(t *testing.T) {
	c := NewConsumer()
	full := record("hello world")

	// Split mid-JSON: nothing may be parsed until the newline arrives.
	if frags := c.Feed([]byte(full[:20])); frags != nil {
		t.Errorf("premature fragments %v from incomplete record", frags)
	}
	frags := c.Feed([]byte(full[20:]))
	if want := []string{"hello world"}; !reflect.DeepEqual(frags, want) {
		t.Errorf("fragments = %v, want %v", frags, want)
	}
}

func TestConsumer_SkipsMalformedRecord(t *testing.T) {
	c := NewConsumer()
	body := record("A") + "data: {not json\n\n" + record("B")

	frags := c.Feed([]byte(body))

	if want := []string{"A", "B"}; !reflect.DeepEqual(frags, want) {
		t.Errorf("fragments = %v, want %v", frags, want)
	}
	if c.Answer() != "AB" {
		t.Errorf("Answer() = %q, want %q", c.Answer(), "AB")
	}
}

func TestConsumer_IgnoresCommentsAndBlankLines(t *testing.T) {
	c := NewConsumer()
	body := ": keep-alive\n\n" + record("A") + "\n: ping\n" + record("B")

	c.Feed([]byte(body))
	if c.Answer() != "AB" {
		t.Errorf("Answer() = %q, want %q", c.Answer(), "AB")
	}
}

func TestConsumer_StripsCarriageReturns(t *testing.T) {
	c := NewConsumer()
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"A\"}}]}\r\n\r\ndata: [DONE]\r\n"

	c.Feed([]byte(body))
	if c.Answer() != "A" {
		t.Errorf("Answer() = %q, want %q", c.Answer(), "A")
	}
	if !c.Done() {
		t.Error("Done() = false after CRLF sentinel")
	}
}

func TestConsumer_IgnoresInputAfterSentinel(t *testing.T) {
	c := NewConsumer()
	c.Feed([]byte("data: [DONE]\n\n"))

	if frags := c.Feed([]byte(record("late"))); frags != nil {
		t.Errorf("fragments %v accepted after sentinel", frags)
	}
	if c.Answer() != "" {
		t.Errorf("Answer() = %q, want empty", c.Answer())
	}
}

func TestConsumer_EmptyDeltaProducesNoFragment(t *testing.T) {
	c := NewConsumer()
	body := `data: {"choices":[{"delta":{}}]}` + "\n\n" + record("A")

	frags := c.Feed([]byte(body))
	if want := []string{"A"}; !reflect.DeepEqual(frags, want) {
		t.Errorf("fragments = %v, want %v", frags, want)
	}
}

func TestConsume_ReaderEndsWithoutSentinel(t *testing.T) {
	// EOF before [DONE] is normal completion, not an error.
	body := strings.NewReader(record("partial ") + record("answer"))

	var updates []string
	got, err := Consume(body, func(cumulative string) {
		updates = append(updates, cumulative)
	})
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if got != "partial answer" {
		t.Errorf("Consume() = %q, want %q", got, "partial answer")
	}
	if want := []string{"partial ", "partial answer"}; !reflect.DeepEqual(updates, want) {
		t.Errorf("updates = %v, want %v", updates, want)
	}
}

func TestConsume_NilCallbackAllowed(t *testing.T) {
	got, err := Consume(strings.NewReader(record("ok")+"data: [DONE]\n"), nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Consume() = %q, want %q", got, "ok")
	}
}
