// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package safety scans inbound chat messages for crisis language.
//
// The scanner is advisory: a finding increments metrics and lets the
// caller attach crisis resources to the reply, but a person reaching out
// in crisis is never blocked from the conversation. Findings deliberately
// omit the matched text so a user's words in crisis do not end up in logs.
package safety

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed crisis_patterns.yaml
var defaultPatterns []byte

// Scanner matches messages against the loaded crisis categories, highest
// priority first.
type Scanner struct {
	categories []Category
}

// NewScanner builds a Scanner from the pattern definitions embedded in
// the binary. It unmarshals the YAML, compiles every regex, and sorts
// categories by priority. Errors here mean a broken build, not bad input.
func NewScanner() (*Scanner, error) {
	return newScannerFromYAML(defaultPatterns)
}

func newScannerFromYAML(raw []byte) (*Scanner, error) {
	var file categoryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the crisis patterns: %w", err)
	}
	if err := file.compileRegexes(); err != nil {
		return nil, fmt.Errorf("failed to compile a crisis pattern: %w", err)
	}
	file.sortByPriority()
	return &Scanner{categories: file.Categories}, nil
}

// Scan checks one message against every pattern and returns all findings,
// ordered by category priority. An empty slice means no crisis language
// was detected.
func (s *Scanner) Scan(message string) []Finding {
	var findings []Finding
	for _, category := range s.categories {
		for _, pattern := range category.Patterns {
			if pattern.compiled.MatchString(message) {
				findings = append(findings, Finding{
					CategoryName: category.Name,
					PatternID:    pattern.ID,
					Description:  pattern.Description,
					Severity:     pattern.Severity,
				})
			}
		}
	}
	return findings
}

// HasHighSeverity reports whether any finding is severity high. The
// websocket transport uses this to decide when to attach the crisis
// resource catalog to the reply envelope.
func HasHighSeverity(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
