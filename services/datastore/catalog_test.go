// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `crisis_resources:
  - name: National Crisis Line
    description: Free, confidential support around the clock
    phone: "988"
    url: https://988lifeline.org
    available_24_7: true
  - name: Crisis Text Line
    description: Text HOME to connect with a counselor
    phone: "741741"
    url: https://www.crisistextline.org
    available_24_7: true
`

// writeCatalog writes content to a catalog file in a temp dir.
func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crisis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog(writeCatalog(t, testCatalog))
	require.NoError(t, err)
	defer catalog.Close()

	resources := catalog.Resources()
	require.Len(t, resources, 2)
	assert.Equal(t, "National Crisis Line", resources[0].Name)
	assert.Equal(t, "988", resources[0].Phone)
	assert.True(t, resources[0].Available24)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadCatalog_EmptyCatalogRejected(t *testing.T) {
	_, err := LoadCatalog(writeCatalog(t, "crisis_resources: []\n"))
	assert.Error(t, err, "an empty crisis catalog must fail the initial load")
}

func TestCatalog_WatchReloadsOnChange(t *testing.T) {
	path := writeCatalog(t, testCatalog)
	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	defer catalog.Close()
	require.NoError(t, catalog.Watch())

	updated := testCatalog + `  - name: Veterans Line
    description: Support for veterans and their families
    phone: "988 then 1"
    url: https://www.veteranscrisisline.net
    available_24_7: true
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		return len(catalog.Resources()) == 3
	}, 3*time.Second, 50*time.Millisecond, "catalog should pick up the new resource")
}

func TestCatalog_BadReloadKeepsPreviousCatalog(t *testing.T) {
	path := writeCatalog(t, testCatalog)
	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	defer catalog.Close()
	require.NoError(t, catalog.Watch())

	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	// Give the watcher a moment to see the write, then confirm the old
	// catalog still serves.
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, catalog.Resources(), 2)
}
