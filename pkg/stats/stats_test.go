// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stats

import (
	"testing"
	"time"
)

// fixedNow is a stable reference point for all window math.
// Mid-afternoon on a Wednesday, away from DST transitions.
var fixedNow = time.Date(2026, time.March, 4, 15, 0, 0, 0, time.UTC)

// at builds an entry offset whole days back from fixedNow.
func at(level, daysAgo int) Entry {
	return Entry{Level: level, CreatedAt: fixedNow.AddDate(0, 0, -daysAgo)}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    int
	}{
		{"empty", nil, 0},
		{"today only", []Entry{at(3, 0)}, 1},
		{"three consecutive days", []Entry{at(3, 0), at(4, 1), at(2, 2)}, 3},
		{"gap at offset three", []Entry{at(3, 0), at(4, 1), at(2, 2), at(5, 4)}, 3},
		{"missing today", []Entry{at(3, 1), at(4, 2)}, 0},
		{"two entries same day count once", []Entry{at(3, 0), at(5, 0), at(4, 1)}, 2},
		{"unordered input", []Entry{at(2, 2), at(3, 0), at(4, 1)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.entries, fixedNow); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreak_EntryLateInDayStillCounts(t *testing.T) {
	// An entry logged at 23:59 yesterday is still yesterday.
	lateYesterday := time.Date(2026, time.March, 3, 23, 59, 0, 0, time.UTC)
	entries := []Entry{
		{Level: 3, CreatedAt: fixedNow},
		{Level: 4, CreatedAt: lateYesterday},
	}
	if got := Streak(entries, fixedNow); got != 2 {
		t.Errorf("Streak() = %d, want 2", got)
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		window  int
		want    float64
	}{
		{"three entries average to four", []Entry{at(3, 1), at(4, 2), at(5, 3)}, 7, 4.0},
		{"empty window yields zero", nil, 7, 0},
		{"entries outside window ignored", []Entry{at(5, 10), at(1, 20)}, 7, 0},
		{"rounds to one decimal", []Entry{at(3, 1), at(4, 2), at(4, 3)}, 7, 3.7},
		{"monthly window includes older entries", []Entry{at(5, 10), at(3, 20)}, 30, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Average(tt.entries, fixedNow, tt.window); got != tt.want {
				t.Errorf("Average() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeekOverWeek(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    int
	}{
		{"empty previous window yields zero not infinity", []Entry{at(4, 1), at(4, 2)}, 0},
		{"doubled average", []Entry{at(4, 1), at(2, 10)}, 100},
		{"halved average", []Entry{at(2, 1), at(4, 10)}, -50},
		{"flat", []Entry{at(3, 1), at(3, 10)}, 0},
		{"no entries at all", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekOverWeek(tt.entries, fixedNow); got != tt.want {
				t.Errorf("WeekOverWeek() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBestDay(t *testing.T) {
	// fixedNow is a Wednesday. Offsets: 1=Tuesday, 2=Monday, 3=Sunday.
	t.Run("highest average wins", func(t *testing.T) {
		entries := []Entry{at(2, 1), at(5, 2), at(3, 3)}
		if got := BestDay(entries, fixedNow); got != "Monday" {
			t.Errorf("BestDay() = %q, want Monday", got)
		}
	})

	t.Run("tie resolves to first encountered", func(t *testing.T) {
		entries := []Entry{at(4, 1), at(4, 2)}
		if got := BestDay(entries, fixedNow); got != "Tuesday" {
			t.Errorf("BestDay() = %q, want Tuesday", got)
		}
	})

	t.Run("same weekday averages across entries", func(t *testing.T) {
		// Tuesday has 2 and 4 (avg 3), Monday has 5.
		entries := []Entry{at(2, 1), at(4, 1), at(5, 2)}
		if got := BestDay(entries, fixedNow); got != "Monday" {
			t.Errorf("BestDay() = %q, want Monday", got)
		}
	})

	t.Run("empty window", func(t *testing.T) {
		if got := BestDay(nil, fixedNow); got != "" {
			t.Errorf("BestDay() = %q, want empty", got)
		}
	})

	t.Run("entries older than a week ignored", func(t *testing.T) {
		entries := []Entry{at(5, 9)}
		if got := BestDay(entries, fixedNow); got != "" {
			t.Errorf("BestDay() = %q, want empty", got)
		}
	})
}

func TestMoodCounts(t *testing.T) {
	entries := []Entry{at(1, 1), at(3, 2), at(3, 5), at(5, 40)}
	counts := MoodCounts(entries, fixedNow, 30)

	want := map[int]int{1: 1, 2: 0, 3: 2, 4: 0, 5: 0}
	for level, n := range want {
		if counts[level] != n {
			t.Errorf("MoodCounts()[%d] = %d, want %d", level, counts[level], n)
		}
	}
}
