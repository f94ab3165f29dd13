// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/time-globe/internal/revgeo"
	"github.com/pdiddy/time-globe/pkg/types"
)

// handlePlaceInfo resolves a place name to an encyclopedia record. The place
// is read from "name", with "place" accepted as an alias. Optional hints:
// lang, country, admin1, city, lat, lon.
func (s *Server) handlePlaceInfo(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		name = c.Query("place")
	}
	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing name"})
		return
	}

	q := types.PlaceQuery{
		Text:    name,
		Lang:    c.Query("lang"),
		Country: c.Query("country"),
		Admin1:  c.Query("admin1"),
		City:    c.Query("city"),
	}
	if lat, ok := parseFloat(c.Query("lat")); ok {
		q.Lat = &lat
	}
	if lon, ok := parseFloat(c.Query("lon")); ok {
		q.Lon = &lon
	}

	c.JSON(http.StatusOK, s.Resolver.ResolvePlace(c.Request.Context(), q))
}

type revGeoResponse struct {
	OK bool `json:"ok"`
	revgeo.Result
}

// handleRevGeo maps a coordinate pair to its administrative hierarchy.
// Both lat and lon are required.
func (s *Server) handleRevGeo(c *gin.Context) {
	lat, latOK := parseFloat(c.Query("lat"))
	lon, lonOK := parseFloat(c.Query("lon"))
	if !latOK || !lonOK {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "lat and lon must be numbers"})
		return
	}

	res := s.RevGeo.Lookup(c.Request.Context(), lat, lon)
	c.JSON(http.StatusOK, revGeoResponse{OK: res.Usable(), Result: res})
}

type historyRequest struct {
	Place    string `json:"place"`
	Language string `json:"language"`
}

func (s *Server) handleHistoryOverview(c *gin.Context) {
	s.handleHistory(c, s.History.Overview)
}

func (s *Server) handleHistoryAdvanced(c *gin.Context) {
	s.handleHistory(c, s.History.Advanced)
}

// handleHistory is the shared body of the two summary endpoints. A generator
// failure surfaces as HTTP 500 with the error text, matching the fail-hard
// contract of the generators.
func (s *Server) handleHistory(c *gin.Context, generate func(ctx context.Context, place, language string) (string, error)) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Place) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing place"})
		return
	}

	text, err := generate(c.Request.Context(), req.Place, req.Language)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "text": text})
}

type eventsRequest struct {
	Place       string `json:"place"`
	OnlyTextual *bool  `json:"only_textual"`
}

func (s *Server) handleHistoryEventsGet(c *gin.Context) {
	onlyTextual := true
	if v, ok := parseBool(c.Query("only_textual")); ok {
		onlyTextual = v
	}
	s.handleEvents(c, c.Query("place"), onlyTextual)
}

func (s *Server) handleHistoryEventsPost(c *gin.Context) {
	var req eventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	onlyTextual := true
	if req.OnlyTextual != nil {
		onlyTextual = *req.OnlyTextual
	}
	s.handleEvents(c, req.Place, onlyTextual)
}

// handleEvents runs the encyclopedia search. An upstream failure is the
// encyclopedia's fault, not the caller's: it maps to 502.
func (s *Server) handleEvents(c *gin.Context, place string, onlyTextual bool) {
	if strings.TrimSpace(place) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing place"})
		return
	}

	res, err := s.Events.Search(c.Request.Context(), place, onlyTextual)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !res.OK {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": res.Error})
		return
	}
	c.JSON(http.StatusOK, res)
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseBool(s string) (bool, bool) {
	if s == "" {
		return false, false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return v, true
}
