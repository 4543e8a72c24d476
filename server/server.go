// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the resolver and the placements store over HTTP
// for the questionnaire and the facilitator map.
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/teamicebreaker/locator/geocoder"
	"github.com/teamicebreaker/locator/resolver"
	"github.com/teamicebreaker/locator/spatial"
	"github.com/teamicebreaker/locator/store"
)

const (
	defaultPerPage         = 50
	maxPerPage             = 500
	defaultClusterDistance = 25.0 // km
)

// Server serves the location API.
type Server struct {
	resolver *resolver.Resolver
	geocoder geocoder.Geocoder
	repo     store.Repository
}

// New creates a server. When g is nil, placements are geocoded with the
// gazetteer only. When repo is nil, the placement routes are not served.
func New(r *resolver.Resolver, g geocoder.Geocoder, repo store.Repository) *Server {
	if g == nil {
		g = geocoder.NewStatic(r)
	}

	return &Server{resolver: r, geocoder: g, repo: repo}
}

// Router returns a gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.health)
	r.GET("/api/countries", s.listCountries)
	r.GET("/api/locations/suggest", s.suggest)
	r.GET("/api/locations/resolve", s.resolve)
	r.GET("/api/locations/reverse", s.reverse)

	if s.repo != nil {
		r.GET("/api/placements", s.listPlacements)
		r.POST("/api/placements", s.createPlacement)
		r.DELETE("/api/placements/:participant", s.deletePlacements)
		r.GET("/api/placements/clusters", s.clusters)
	}

	return r
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("🌍 Serving location API on http://%s", addr)

	return s.Router().Run(addr)
}

// MatchResponse is the JSON form of a resolver match.
type MatchResponse struct {
	DisplayName     string              `json:"display_name"`
	Lat             float64             `json:"lat"`
	Lon             float64             `json:"lon"`
	Confidence      resolver.Confidence `json:"confidence"`
	MatchType       resolver.MatchType  `json:"match_type"`
	SimilarityScore *float64            `json:"similarity_score,omitempty"`
	IsPostalCode    bool                `json:"is_postal_code,omitempty"`
	IsGeneric       bool                `json:"is_generic,omitempty"`
	DistanceMeters  *float64            `json:"distance_meters,omitempty"`
}

// NewMatchResponse flattens m.
func NewMatchResponse(m resolver.Match) MatchResponse {
	loc := m.Location()
	resp := MatchResponse{
		DisplayName: loc.DisplayName,
		Lat:         loc.Point.Lat,
		Lon:         loc.Point.Lng,
		Confidence:  m.Confidence(),
		MatchType:   m.Type(),
	}

	switch v := m.(type) {
	case resolver.FuzzyMatch:
		resp.SimilarityScore = &v.Score
	case resolver.PostalCodeMatch:
		resp.IsPostalCode = true
	case resolver.DefaultFallbackMatch:
		resp.IsGeneric = true
	case resolver.ReverseMatch:
		resp.DistanceMeters = &v.Distance
	}

	return resp
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"gazetteer_entries": s.resolver.Gazetteer().Len(),
	})
}

func (s *Server) listCountries(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.resolver.ListCountries())
}

// lookupParams returns the q and country parameters, answering 400 when
// either is longer than store.MaxQueryLength runes.
func lookupParams(ctx *gin.Context) (string, string, bool) {
	q, country := ctx.Query("q"), ctx.Query("country")

	for name, v := range map[string]string{"q": q, "country": country} {
		if utf8.RuneCountInString(v) > store.MaxQueryLength {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is too long (max %d characters)", name, store.MaxQueryLength)})

			return "", "", false
		}
	}

	return q, country, true
}

func (s *Server) suggest(ctx *gin.Context) {
	q, country, ok := lookupParams(ctx)
	if !ok {
		return
	}

	matches := s.resolver.Suggest(q, country)

	resp := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		resp = append(resp, NewMatchResponse(m))
	}

	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) resolve(ctx *gin.Context) {
	q, country, ok := lookupParams(ctx)
	if !ok {
		return
	}

	m, ok := s.resolver.Resolve(q, country)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})

		return
	}

	ctx.JSON(http.StatusOK, NewMatchResponse(m))
}

func parseFloatParam(ctx *gin.Context, name string, def float64) (float64, bool) {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return def, true
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})

		return 0, false
	}

	return v, true
}

func (s *Server) reverse(ctx *gin.Context) {
	if ctx.Query("lat") == "" || ctx.Query("lng") == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})

		return
	}

	lat, ok := parseFloatParam(ctx, "lat", 0)
	if !ok {
		return
	}

	lng, ok := parseFloatParam(ctx, "lng", 0)
	if !ok {
		return
	}

	maxKm, ok := parseFloatParam(ctx, "max_km", 0)
	if !ok {
		return
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	m, found := s.resolver.Reverse(p, maxKm*1000)
	if !found {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no known place nearby"})

		return
	}

	ctx.JSON(http.StatusOK, NewMatchResponse(m))
}

func parseIntParam(ctx *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return def, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})

		return 0, false
	}

	return v, true
}

func (s *Server) listPlacements(ctx *gin.Context) {
	page, ok := parseIntParam(ctx, "page", 1)
	if !ok {
		return
	}

	perPage, ok := parseIntParam(ctx, "per_page", defaultPerPage)
	if !ok {
		return
	}

	perPage = min(perPage, maxPerPage)

	placements, err := s.repo.List(perPage, (page-1)*perPage)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	total, err := s.repo.Count()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if placements == nil {
		placements = []*store.Placement{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"placements": placements,
		"total":      total,
		"page":       page,
		"per_page":   perPage,
	})
}

// PlacementRequest is the body of POST /api/placements.
type PlacementRequest struct {
	Participant string `json:"participant" binding:"required"`
	Location    string `json:"location" binding:"required"`
	Country     string `json:"country"`
}

func (s *Server) createPlacement(ctx *gin.Context) {
	var req PlacementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	res, err := s.geocoder.Geocode(ctx.Request.Context(), req.Location, req.Country)
	if err != nil {
		status := http.StatusBadGateway
		if geocoder.IsInvalidRequestError(err) {
			status = http.StatusBadRequest
		}

		ctx.JSON(status, gin.H{"error": errorMessage(err)})

		return
	}

	p := &store.Placement{
		Participant: req.Participant,
		Query:       req.Location,
		Country:     req.Country,
		Point:       res.Point,
		DisplayName: res.DisplayName,
		Confidence:  res.Confidence,
		MatchType:   res.MatchType,
		Provider:    res.Provider,
	}

	if err := store.Validate(p); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := s.repo.Save(p); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusCreated, p)
}

func (s *Server) deletePlacements(ctx *gin.Context) {
	participant := strings.TrimSpace(ctx.Param("participant"))

	n, err := s.repo.Delete(participant)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if n == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": store.ErrNotFound.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (s *Server) clusters(ctx *gin.Context) {
	km, ok := parseFloatParam(ctx, "distance_km", defaultClusterDistance)
	if !ok {
		return
	}

	if km < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "distance_km must not be negative"})

		return
	}

	clusters, err := s.repo.Clusters(km * 1000)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, clusters)
}

// errorMessage returns a user facing message for err.
func errorMessage(err error) string {
	var geoErr *geocoder.GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Message
	}

	return err.Error()
}
