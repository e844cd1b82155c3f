// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stats computes derived mood statistics from logged entries.
//
// All functions are pure and synchronous: they take a slice of timestamped
// mood entries plus an explicit "now" and return a value. No I/O, no shared
// state. Callers fetch entries from the data store and pass them in.
package stats

import (
	"math"
	"time"
)

// Entry is a single logged mood observation.
//
// Level is the 1-5 mood scale used throughout the app. CreatedAt is the
// time the entry was recorded; only its calendar day matters for streaks.
type Entry struct {
	Level     int
	CreatedAt time.Time
}

// dayKey normalizes a time to its calendar day in now's location.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// Streak counts consecutive calendar days, ending today, with at least one
// entry each day.
//
// Day offset 0 (today) must be present for the streak to be nonzero; the
// count stops at the first missing offset. Multiple entries on the same
// calendar day count once.
func Streak(entries []Entry, now time.Time) int {
	if len(entries) == 0 {
		return 0
	}

	loc := now.Location()
	days := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		days[dayKey(e.CreatedAt, loc)] = struct{}{}
	}

	streak := 0
	for {
		if _, ok := days[dayKey(now.AddDate(0, 0, -streak), loc)]; !ok {
			return streak
		}
		streak++
	}
}

// mean returns the unrounded arithmetic mean of mood levels for entries
// whose timestamp falls in the half-open window (from, to].
func mean(entries []Entry, from, to time.Time) float64 {
	sum := 0
	count := 0
	for _, e := range entries {
		if e.CreatedAt.After(from) && !e.CreatedAt.After(to) {
			sum += e.Level
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// Average returns the mean mood level over the trailing windowDays,
// rounded to one decimal per the display convention. An empty window
// yields 0, not NaN.
func Average(entries []Entry, now time.Time, windowDays int) float64 {
	from := now.AddDate(0, 0, -windowDays)
	return math.Round(mean(entries, from, now)*10) / 10
}

// WeekOverWeek returns the percentage change between the trailing-7-day
// average and the preceding 7-day average, rounded to the nearest whole
// percent.
//
// When the preceding window's average is zero the change is defined as 0.
// This is a policy choice to avoid division by zero, not a mathematical
// identity.
func WeekOverWeek(entries []Entry, now time.Time) int {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	current := mean(entries, weekAgo, now)
	previous := mean(entries, twoWeeksAgo, weekAgo)
	if previous == 0 {
		return 0
	}
	return int(math.Round((current - previous) / previous * 100))
}

// BestDay returns the weekday name with the highest average mood over the
// trailing 7 days, or "" when the window is empty.
//
// Ties resolve to whichever weekday was encountered first while grouping,
// so the result depends on entry order for tied averages.
func BestDay(entries []Entry, now time.Time) string {
	weekAgo := now.AddDate(0, 0, -7)
	loc := now.Location()

	type group struct {
		sum   int
		count int
	}
	groups := make(map[string]*group)
	var order []string

	for _, e := range entries {
		if !e.CreatedAt.After(weekAgo) || e.CreatedAt.After(now) {
			continue
		}
		day := e.CreatedAt.In(loc).Weekday().String()
		g, ok := groups[day]
		if !ok {
			g = &group{}
			groups[day] = g
			order = append(order, day)
		}
		g.sum += e.Level
		g.count++
	}

	best := ""
	bestAvg := 0.0
	for _, day := range order {
		g := groups[day]
		avg := float64(g.sum) / float64(g.count)
		if avg > bestAvg {
			bestAvg = avg
			best = day
		}
	}
	return best
}

// MoodCounts tallies entries by mood level over the trailing windowDays.
// All five levels are present in the result, zero-valued when unobserved.
func MoodCounts(entries []Entry, now time.Time, windowDays int) map[int]int {
	from := now.AddDate(0, 0, -windowDays)
	counts := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, e := range entries {
		if e.CreatedAt.After(from) && !e.CreatedAt.After(now) {
			counts[e.Level]++
		}
	}
	return counts
}
