// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the wellbeing service.
//
// # Identity Flow
//
// The identity middleware extracts a bearer token from the Authorization
// header and treats it as the caller's user id. Tokens are opaque UUIDs
// issued by the deployment's auth layer; this service does not verify
// signatures, it only attributes rows in the data store.
//
//	Request
//	   │
//	   ▼
//	Identity
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► Reject non-UUID tokens (401)
//	   │
//	   └─► Store user id in context
//	           │
//	           ▼
//	       Handler (retrieves via UserID)
//
// Routes that persist per-user rows wrap themselves in RequireUser; the
// chat relays stay open so the companion works before sign-in.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/havenwell/havenwell/services/wellbeing/datatypes"
)

// userIDKey is the context key for the authenticated user id. Typed key
// string prevents collisions with other context values.
const userIDKey = "havenwell_user_id"

// UserID returns the caller's user id, or "" when the request carried no
// identity.
func UserID(c *gin.Context) string {
	if v, exists := c.Get(userIDKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// Identity extracts the bearer token and stores it as the caller's user
// id.
//
// # Description
//
// A missing Authorization header leaves the request anonymous and passes
// it through; downstream handlers that need identity use RequireUser. A
// present but malformed token is rejected outright, since it signals a
// misconfigured client rather than an anonymous one.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		if _, err := uuid.Parse(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, datatypes.ErrorResponse{
				Error: "unauthorized",
			})
			return
		}
		c.Set(userIDKey, token)
		c.Next()
	}
}

// RequireUser rejects anonymous requests with 401. Apply after Identity
// on routes that read or write per-user rows.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, datatypes.ErrorResponse{
				Error: "unauthorized",
			})
			return
		}
		c.Next()
	}
}

// extractBearerToken parses the Authorization header expecting
// "Bearer <token>". The scheme is case-insensitive per RFC 7235; returns
// "" when the header is missing or malformed.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
