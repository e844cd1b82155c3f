// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package safety

import (
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	incoming := Severity(raw)
	switch incoming {
	case SeverityHigh, SeverityMedium, SeverityLow:
		*s = incoming
		return nil
	default:
		return fmt.Errorf("invalid value for Severity: %q", incoming)
	}
}

// categoryFile is the on-disk shape of the crisis pattern definitions.
type categoryFile struct {
	Categories []Category `yaml:"categories"`
}

// Category groups patterns describing one kind of crisis language.
type Category struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Priority    int       `yaml:"priority"`
	Patterns    []Pattern `yaml:"patterns"`
}

type Pattern struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Regex       string   `yaml:"regex"`
	Severity    Severity `yaml:"severity"`
	compiled    *regexp.Regexp
}

func (f *categoryFile) compileRegexes() error {
	for i := range f.Categories {
		for j := range f.Categories[i].Patterns {
			pattern := &f.Categories[i].Patterns[j]
			re, err := regexp.Compile("(?i)" + pattern.Regex)
			if err != nil {
				return fmt.Errorf("failed to compile the pattern %s: %w", pattern.ID, err)
			}
			pattern.compiled = re
		}
	}
	return nil
}

func (f *categoryFile) sortByPriority() {
	sort.Slice(f.Categories, func(i, j int) bool {
		return f.Categories[i].Priority > f.Categories[j].Priority
	})
}

// Finding is one crisis-language match in a scanned message. Findings are
// counted and may attach resources to a reply; they never block.
type Finding struct {
	CategoryName string   `json:"category_name"`
	PatternID    string   `json:"pattern_id"`
	Description  string   `json:"pattern_description"`
	Severity     Severity `json:"severity"`
}
