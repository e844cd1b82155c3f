// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/llm"
	"github.com/havenwell/havenwell/services/safety"
	"github.com/havenwell/havenwell/services/wellbeing/handlers"
	"github.com/havenwell/havenwell/services/wellbeing/middleware"
)

// Deps carries the wired components route registration needs. LLMClient
// is required; everything else may be nil, which narrows the surface
// (lightweight mode skips the store-backed routes).
type Deps struct {
	LLMClient llm.Client
	Store     *datastore.Client
	Catalog   *datastore.Catalog
	Scanner   *safety.Scanner
	Trends    handlers.TrendSink
	Limiter   *middleware.RateLimiter
}

// SetupRoutes registers every route on the router.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.Use(middleware.CORS(), middleware.Identity())

	router.GET("/health", handlers.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var surveys handlers.SurveyStore
	if deps.Store != nil {
		surveys = deps.Store
	}

	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if deps.Limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{deps.Limiter.Middleware(), h}
	}

	v1 := router.Group("/v1")
	{
		chat := handlers.NewChatHandler(deps.LLMClient, surveys, deps.Scanner)
		v1.POST("/chat/mood", limited(chat.HandleMoodChat)...)
		v1.POST("/chat/therapy", limited(chat.HandleTherapyChat)...)

		insight := handlers.NewInsightHandler(deps.LLMClient)
		v1.POST("/insights/mood", limited(insight.HandleMoodInsight)...)

		var therapyStore handlers.TherapyStore
		if deps.Store != nil {
			therapyStore = deps.Store
		}
		var catalog handlers.CrisisCatalog
		if deps.Catalog != nil {
			catalog = deps.Catalog
		}
		ws := handlers.NewTherapyWSHandler(deps.LLMClient, deps.Scanner, catalog, therapyStore)
		v1.GET("/therapy/ws", ws.HandleTherapyWS)

		if deps.Store != nil || deps.Catalog != nil {
			var resourceStore handlers.ResourceStore
			if deps.Store != nil {
				resourceStore = deps.Store
			}
			resources := handlers.NewResourceHandler(resourceStore, catalog)
			v1.GET("/resources", resources.HandleListResources)
			v1.GET("/resources/crisis", resources.HandleCrisisResources)
		}

		// Per-user rows need both a store and an identity.
		if deps.Store != nil {
			authed := v1.Group("", middleware.RequireUser())

			moods := handlers.NewMoodHandler(deps.Store, deps.Trends)
			authed.POST("/moods", moods.HandleLogMood)
			authed.GET("/moods", moods.HandleListMoods)
			authed.GET("/moods/stats", moods.HandleMoodStats)
			authed.GET("/moods/streak", moods.HandleMoodStreak)
			authed.GET("/moods/today", moods.HandleMoodToday)

			journal := handlers.NewJournalHandler(deps.Store)
			authed.POST("/journal", journal.HandleWriteJournal)
			authed.GET("/journal", journal.HandleListJournal)

			achievements := handlers.NewAchievementHandler(deps.Store)
			authed.GET("/achievements", achievements.HandleListAchievements)
			authed.POST("/achievements/evaluate", achievements.HandleEvaluateAchievements)

			meditation := handlers.NewMeditationHandler(deps.Store)
			authed.POST("/meditation/sessions", meditation.HandleStartSession)
			authed.POST("/meditation/sessions/:id/complete", meditation.HandleCompleteSession)
			authed.POST("/meditation/reflections", meditation.HandleReflection)

			survey := handlers.NewSurveyHandler(deps.Store)
			authed.POST("/survey", survey.HandleSubmitSurvey)
			authed.GET("/survey", survey.HandleGetSurvey)
		}
	}
}
