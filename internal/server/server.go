// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the place resolver, reverse geocoder, and history
// generators over HTTP and serves the globe frontend.
package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/time-globe/internal/history"
	"github.com/pdiddy/time-globe/internal/revgeo"
	"github.com/pdiddy/time-globe/pkg/types"
)

// PlaceResolver resolves a free-text place query to an encyclopedia record.
type PlaceResolver interface {
	ResolvePlace(ctx context.Context, q types.PlaceQuery) types.PlaceResult
}

// GeoLookup maps a coordinate pair to an administrative hierarchy.
type GeoLookup interface {
	Lookup(ctx context.Context, lat, lon float64) revgeo.Result
}

// HistoryGenerator produces LLM historical summaries.
type HistoryGenerator interface {
	Overview(ctx context.Context, place, language string) (string, error)
	Advanced(ctx context.Context, place, language string) (string, error)
}

// EventSearcher finds encyclopedia articles about a place.
type EventSearcher interface {
	Search(ctx context.Context, place string, onlyTextual bool) (history.EventsResult, error)
}

// Server wires the domain components into a gin engine.
type Server struct {
	Resolver PlaceResolver
	RevGeo   GeoLookup
	History  HistoryGenerator
	Events   EventSearcher
	Cfg      types.ServerConfig
}

// New builds a Server from already constructed components.
func New(cfg types.ServerConfig, resolver PlaceResolver, geo GeoLookup, hist HistoryGenerator, events EventSearcher) *Server {
	return &Server{
		Resolver: resolver,
		RevGeo:   geo,
		History:  hist,
		Events:   events,
		Cfg:      cfg,
	}
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware())

	api := engine.Group("/api")
	{
		api.GET("/placeinfo", s.handlePlaceInfo)
		api.GET("/revgeo", s.handleRevGeo)
		api.POST("/history/overview", s.handleHistoryOverview)
		api.POST("/history/advanced", s.handleHistoryAdvanced)
		api.GET("/history/events", s.handleHistoryEventsGet)
		api.POST("/history/events", s.handleHistoryEventsPost)
	}

	if s.Cfg.FrontendDir != "" {
		engine.Static("/static", s.Cfg.FrontendDir)
		index := filepath.Join(s.Cfg.FrontendDir, "index.html")
		engine.GET("/", func(c *gin.Context) {
			if _, err := os.Stat(index); err != nil {
				c.String(http.StatusNotFound, "frontend not installed")
				return
			}
			c.File(index)
		})
	}
	return engine
}

// corsMiddleware allows any origin: the frontend may be served from a file://
// page or another dev server during development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
