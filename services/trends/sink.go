// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package trends streams logged moods into InfluxDB for long-term trend
// analysis.
//
// The sink is strictly best-effort: the mood endpoints never wait on it,
// and a full queue drops points rather than slowing a request. User ids
// are hashed before leaving the service; the time-series store sees
// stable anonymous identifiers, never account ids.
package trends

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	defaultOrg    = "havenwell"
	defaultBucket = "mood-trends"

	queueSize     = 1024
	batchSize     = 50
	flushInterval = 5 * time.Second
	writeTimeout  = 10 * time.Second
)

type moodPoint struct {
	userHash string
	level    int
	at       time.Time
}

// Sink buffers mood observations and writes them to InfluxDB in batches.
//
// # Thread Safety
//
// RecordMood is safe for concurrent use. Close waits for the writer
// goroutine to drain the queue.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queue    chan moodPoint
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewSink builds a sink from the environment. TRENDS_INFLUX_URL and
// TRENDS_INFLUX_TOKEN are required; org and bucket have defaults. The
// wellbeing service treats a missing URL as trend storage disabled and
// never constructs a sink.
func NewSink() (*Sink, error) {
	url := os.Getenv("TRENDS_INFLUX_URL")
	if url == "" {
		return nil, fmt.Errorf("TRENDS_INFLUX_URL environment variable not set")
	}
	token := os.Getenv("TRENDS_INFLUX_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TRENDS_INFLUX_TOKEN environment variable not set")
	}
	org := os.Getenv("TRENDS_INFLUX_ORG")
	if org == "" {
		org = defaultOrg
	}
	bucket := os.Getenv("TRENDS_INFLUX_BUCKET")
	if bucket == "" {
		bucket = defaultBucket
	}

	client := influxdb2.NewClient(url, token)
	s := newSinkWithWriter(client.WriteAPIBlocking(org, bucket))
	s.client = client
	slog.Info("mood trend sink enabled", "influx_url", url, "org", org, "bucket", bucket)
	return s, nil
}

// newSinkWithWriter wires a sink onto an existing write API. Tests use
// this to substitute a recording writer.
func newSinkWithWriter(writeAPI api.WriteAPIBlocking) *Sink {
	s := &Sink{
		writeAPI: writeAPI,
		queue:    make(chan moodPoint, queueSize),
		done:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writer()
	return s
}

// RecordMood enqueues one observation. Never blocks; a full queue drops
// the point with a logged warning.
func (s *Sink) RecordMood(userID string, level int, at time.Time) {
	p := moodPoint{userHash: hashUserID(userID), level: level, at: at}
	select {
	case s.queue <- p:
	default:
		slog.Warn("trend queue full, dropping mood point")
	}
}

// Close drains the queue, flushes the final batch, and releases the
// client. Idempotent.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		if s.client != nil {
			s.client.Close()
		}
	})
}

// writer batches queued points and writes them on size or interval.
func (s *Sink) writer() {
	defer s.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*write.Point, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := s.writeAPI.WritePoint(ctx, batch...); err != nil {
			slog.Warn("trend batch write failed", "points", len(batch), "error", err)
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case p := <-s.queue:
			batch = append(batch, toPoint(p))
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			// Drain whatever arrived before Close.
			for {
				select {
				case p := <-s.queue:
					batch = append(batch, toPoint(p))
				default:
					flush()
					return
				}
			}
		}
	}
}

func toPoint(p moodPoint) *write.Point {
	return influxdb2.NewPoint(
		"mood_level",
		map[string]string{"user": p.userHash},
		map[string]interface{}{"level": p.level},
		p.at,
	)
}

// hashUserID derives the stable anonymous identifier stored with each
// point.
func hashUserID(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:6])
}
