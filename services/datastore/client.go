// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datastore is a typed facade over the hosted relational store's
// REST interface. The store owns the schema; this package only shapes
// requests and decodes rows.
package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// # Description
//
//	Client issues row-level operations against the store's REST endpoint
//	using the service-role key. All access is server-side; the key never
//	reaches a client device.
//
// # Limitations
//
//	The client trusts the store to enforce constraints. It reports
//	constraint violations as errors but does not retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
}

// NewClient builds a store client from the environment. Both the base URL
// and the service key are required; the wellbeing service treats their
// absence as lightweight mode and never constructs a client.
func NewClient() (*Client, error) {
	baseURL := os.Getenv("STORE_URL_BASE")
	if baseURL == "" {
		return nil, fmt.Errorf("STORE_URL_BASE environment variable not set")
	}
	serviceKey := os.Getenv("STORE_SERVICE_KEY")
	if serviceKey == "" {
		return nil, fmt.Errorf("STORE_SERVICE_KEY environment variable not set")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
	}, nil
}

// From starts a query against one table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, params: url.Values{}}
}

// Query accumulates filters for a single-table operation. Filters follow
// the store's column=op.value convention.
type Query struct {
	client *Client
	table  string
	params url.Values
}

// Select restricts the returned columns. Defaults to all columns.
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

// Eq filters rows where column equals value.
func (q *Query) Eq(column string, value any) *Query {
	q.params.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

// Gte filters rows where column is at or after value.
func (q *Query) Gte(column string, value any) *Query {
	q.params.Add(column, fmt.Sprintf("gte.%v", value))
	return q
}

// Lt filters rows where column is before value.
func (q *Query) Lt(column string, value any) *Query {
	q.params.Add(column, fmt.Sprintf("lt.%v", value))
	return q
}

// Order sorts the result by column.
func (q *Query) Order(column string, descending bool) *Query {
	direction := "asc"
	if descending {
		direction = "desc"
	}
	q.params.Set("order", column+"."+direction)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", fmt.Sprintf("%d", n))
	return q
}

// do executes one REST call and decodes the response into dest when dest
// is non-nil. prefer sets the Prefer header controlling write behavior.
func (q *Query) do(ctx context.Context, method string, payload, dest any, prefer string) error {
	endpoint := q.client.baseURL + "/rest/v1/" + q.table
	if len(q.params) > 0 {
		endpoint += "?" + q.params.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal the %s payload: %w", q.table, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build the store request: %w", err)
	}
	req.Header.Set("apikey", q.client.serviceKey)
	req.Header.Set("Authorization", "Bearer "+q.client.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := q.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach the store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("store returned an error status",
			"table", q.table, "status", resp.StatusCode, "body", string(detail))
		return fmt.Errorf("store returned status %d for %s", resp.StatusCode, q.table)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode the %s response: %w", q.table, err)
	}
	return nil
}

// Get fetches matching rows into dest (a pointer to a slice of row types).
func (q *Query) Get(ctx context.Context, dest any) error {
	return q.do(ctx, http.MethodGet, nil, dest, "")
}

// Insert adds rows. When dest is non-nil the created representation is
// decoded into it.
func (q *Query) Insert(ctx context.Context, payload, dest any) error {
	prefer := ""
	if dest != nil {
		prefer = "return=representation"
	}
	return q.do(ctx, http.MethodPost, payload, dest, prefer)
}

// Upsert inserts or merges on conflict with the named columns.
func (q *Query) Upsert(ctx context.Context, payload, dest any, onConflict string) error {
	q.params.Set("on_conflict", onConflict)
	prefer := "resolution=merge-duplicates"
	if dest != nil {
		prefer += ",return=representation"
	}
	return q.do(ctx, http.MethodPost, payload, dest, prefer)
}

// Update patches matching rows.
func (q *Query) Update(ctx context.Context, payload, dest any) error {
	prefer := ""
	if dest != nil {
		prefer = "return=representation"
	}
	return q.do(ctx, http.MethodPatch, payload, dest, prefer)
}

// Delete removes matching rows.
func (q *Query) Delete(ctx context.Context) error {
	return q.do(ctx, http.MethodDelete, nil, nil, "")
}
