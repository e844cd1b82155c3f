// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	scanner, err := NewScanner()
	require.NoError(t, err, "embedded patterns must always load")
	return scanner
}

func TestScanner_DetectsCrisisLanguage(t *testing.T) {
	scanner := newTestScanner(t)

	tests := []struct {
		name         string
		message      string
		wantCategory string
		wantHigh     bool
	}{
		{
			"suicidal intent",
			"sometimes I think about killing myself",
			"self_harm", true,
		},
		{
			"not wanting to exist",
			"I just don't want to be here anymore",
			"self_harm", true,
		},
		{
			"case insensitive",
			"I CAN'T TAKE THIS ANYMORE",
			"acute_distress", false,
		},
		{
			"self harm behavior",
			"I have been hurting myself lately",
			"self_harm", true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := scanner.Scan(tt.message)
			require.NotEmpty(t, findings)
			assert.Equal(t, tt.wantCategory, findings[0].CategoryName)
			assert.Equal(t, tt.wantHigh, HasHighSeverity(findings))
		})
	}
}

func TestScanner_OrdinaryMessagesProduceNoFindings(t *testing.T) {
	scanner := newTestScanner(t)

	for _, message := range []string{
		"I had a rough day at school today",
		"feeling a bit down but my walk helped",
		"my cat knocked over my coffee again",
	} {
		assert.Empty(t, scanner.Scan(message), "message %q", message)
	}
}

func TestScanner_FindingsOmitMatchedText(t *testing.T) {
	scanner := newTestScanner(t)
	findings := scanner.Scan("I want to end my life")
	require.NotEmpty(t, findings)

	// The finding carries pattern metadata only, never the user's words.
	f := findings[0]
	assert.NotEmpty(t, f.PatternID)
	assert.NotEmpty(t, f.Description)
	assert.NotContains(t, f.Description, "end my life")
}

func TestScanner_PriorityOrdersCategories(t *testing.T) {
	raw := []byte(`categories:
  - name: minor
    priority: 1
    patterns:
      - id: M-1
        description: low priority pattern
        regex: 'overlap'
        severity: low
  - name: major
    priority: 10
    patterns:
      - id: X-1
        description: high priority pattern
        regex: 'overlap'
        severity: high
`)
	scanner, err := newScannerFromYAML(raw)
	require.NoError(t, err)

	findings := scanner.Scan("this text has overlap in it")
	require.Len(t, findings, 2)
	assert.Equal(t, "major", findings[0].CategoryName)
}

func TestScanner_BadRegexRejected(t *testing.T) {
	raw := []byte(`categories:
  - name: broken
    priority: 1
    patterns:
      - id: B-1
        description: unclosed group
        regex: '(unclosed'
        severity: low
`)
	_, err := newScannerFromYAML(raw)
	assert.Error(t, err)
}

func TestSeverity_RejectsUnknownValues(t *testing.T) {
	raw := []byte(`categories:
  - name: odd
    priority: 1
    patterns:
      - id: O-1
        description: bad severity
        regex: 'x'
        severity: catastrophic
`)
	_, err := newScannerFromYAML(raw)
	assert.Error(t, err)
}
