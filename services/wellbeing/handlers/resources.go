// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
)

// ResourceStore is the slice of the data store the resource endpoints
// need.
type ResourceStore interface {
	Resources(ctx context.Context, category string) ([]datastore.Resource, error)
	CrisisResources(ctx context.Context) ([]datastore.CrisisResource, error)
}

// ResourceHandler defines the contract for the resource catalog
// endpoints.
//
// # Description
//
// Crisis resources must stay reachable even when the data store is down
// or not configured: the handler falls back to the file-backed catalog
// for that endpoint. General resources have no fallback; they are a
// convenience, not a safety surface.
type ResourceHandler interface {
	// HandleListResources processes GET /v1/resources.
	HandleListResources(c *gin.Context)

	// HandleCrisisResources processes GET /v1/resources/crisis.
	HandleCrisisResources(c *gin.Context)
}

type resourceHandler struct {
	store   ResourceStore
	catalog CrisisCatalog
	tracer  trace.Tracer
}

// NewResourceHandler creates a ResourceHandler. Either store or catalog
// must be non-nil; lightweight deployments pass a nil store and serve
// crisis resources from the catalog alone.
func NewResourceHandler(store ResourceStore, catalog CrisisCatalog) ResourceHandler {
	if store == nil && catalog == nil {
		panic("NewResourceHandler: store and catalog must not both be nil")
	}
	return &resourceHandler{
		store:   store,
		catalog: catalog,
		tracer:  otel.Tracer("havenwell.wellbeing.handlers.resources"),
	}
}

func (h *resourceHandler) HandleListResources(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleListResources")
	defer span.End()

	if h.store == nil {
		recordSuccess(endpoint)
		c.JSON(http.StatusOK, []datastore.Resource{})
		return
	}

	resources, err := h.store.Resources(ctx, c.Query("category"))
	if err != nil {
		span.RecordError(err)
		storeFailure(c, endpoint, "Failed to load resources", err)
		return
	}
	if resources == nil {
		resources = []datastore.Resource{}
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusOK, resources)
}

func (h *resourceHandler) HandleCrisisResources(c *gin.Context) {
	endpoint := observability.EndpointCRUD
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleCrisisResources")
	defer span.End()

	if h.store != nil {
		resources, err := h.store.CrisisResources(ctx)
		if err == nil {
			recordSuccess(endpoint)
			c.JSON(http.StatusOK, resources)
			return
		}
		span.RecordError(err)
		slog.Warn("store crisis resource lookup failed, serving catalog", "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeStore)
		}
	}

	if h.catalog == nil {
		storeFailure(c, endpoint, "Failed to load crisis resources", nil)
		return
	}

	recordSuccess(endpoint)
	c.JSON(http.StatusOK, h.catalog.Resources())
}
