// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datastore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of the crisis resource catalog.
type catalogFile struct {
	CrisisResources []CrisisResource `yaml:"crisis_resources"`
}

// # Description
//
//	Catalog serves crisis resources from a YAML file. It is the resource
//	source in lightweight mode, when no store is configured, and it hot
//	reloads on file change so the catalog can be corrected without a
//	restart.
//
// # Assumptions
//
//	A reload that fails to parse keeps the previous catalog. Serving a
//	stale crisis line beats serving none.
type Catalog struct {
	mu        sync.RWMutex
	path      string
	resources []CrisisResource
	watcher   *fsnotify.Watcher
}

// LoadCatalog reads the catalog file and returns a Catalog serving it.
// The initial load must succeed; only reloads are forgiving.
func LoadCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read the crisis catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse the crisis catalog: %w", err)
	}
	if len(file.CrisisResources) == 0 {
		return fmt.Errorf("crisis catalog %s contains no resources", c.path)
	}

	c.mu.Lock()
	c.resources = file.CrisisResources
	c.mu.Unlock()
	slog.Info("crisis catalog loaded", "path", c.path, "resources", len(file.CrisisResources))
	return nil
}

// Resources returns a copy of the current catalog.
func (c *Catalog) Resources() []CrisisResource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CrisisResource, len(c.resources))
	copy(out, c.resources)
	return out
}

// Watch starts reloading the catalog on file change. It watches the
// parent directory because editors replace files rather than writing them
// in place. Stop with Close.
func (c *Catalog) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create the catalog watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch the catalog directory: %w", err)
	}
	c.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(c.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := c.reload(); err != nil {
					slog.Error("crisis catalog reload failed, keeping previous catalog", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("catalog watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher if one was started.
func (c *Catalog) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}
