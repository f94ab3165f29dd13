// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score ranks encyclopedia candidates against a place query. Scoring
// is pure and deterministic: a coarse pass over text and geography signals,
// then a refinement pass that adjusts the coarse value using Wikidata
// "instance of" classifications. The refinement is additive — it never
// recomputes the coarse value.
package score

import (
	"math"
	"strings"

	"github.com/pdiddy/time-globe/pkg/types"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// DistanceBand awards Bonus when the candidate lies within WithinKm of the
// query coordinates. Bands are checked in order; the first match wins.
type DistanceBand struct {
	WithinKm float64
	Bonus    float64
}

// Weights holds every scoring constant as a named, tunable field. The
// defaults are empirically chosen; nothing in the algorithm depends on the
// specific values.
type Weights struct {
	// RankBase and RankStep form the rank term max(0, RankBase - RankStep*rank),
	// rewarding earlier search results.
	RankBase float64
	RankStep float64

	// Text-match bonuses against the query context.
	CityBonus    float64 // city name in title or description
	Admin1Bonus  float64 // region name in title, description, or extract
	CountryBonus float64 // country name in title, description, or extract
	QueryInTitle float64 // original query text in the title

	// DisambiguationPenalty is subtracted from disambiguation pages. Large
	// but not absolute, so strong geographic signals can still recover.
	DisambiguationPenalty float64

	// DistanceBands award proximity bonuses; FarKm/FarPenalty penalize
	// candidates beyond FarKm. Missing coordinates on either side mean the
	// distance term contributes nothing.
	DistanceBands []DistanceBand
	FarKm         float64
	FarPenalty    float64

	// HasCoordsBonus is a flat bonus for any geolocatable candidate.
	HasCoordsBonus float64

	// Refinement adjustments from entity-type classifications.
	BannedPenalty float64
	AllowedBonus  float64
}

// DefaultWeights returns the reference scoring constants.
func DefaultWeights() Weights {
	return Weights{
		RankBase:              24,
		RankStep:              4,
		CityBonus:             20,
		Admin1Bonus:           12,
		CountryBonus:          8,
		QueryInTitle:          4,
		DisambiguationPenalty: 60,
		DistanceBands: []DistanceBand{
			{WithinKm: 10, Bonus: 30},
			{WithinKm: 40, Bonus: 18},
			{WithinKm: 150, Bonus: 9},
			{WithinKm: 500, Bonus: 3},
		},
		FarKm:          2000,
		FarPenalty:     4,
		HasCoordsBonus: 4,
		BannedPenalty:  100,
		AllowedBonus:   28,
	}
}

// TypeSets holds the Wikidata QIDs used to detect non-place entities
// (banned) and strengthen confirmed place types (allowed). The lists are
// injectable configuration; the defaults cover the common false-positive
// classes (people, ships, taxa, bands, creative works).
type TypeSets struct {
	Banned  map[string]struct{}
	Allowed map[string]struct{}
}

// DefaultTypeSets returns the reference banned and allowed QID lists.
func DefaultTypeSets() TypeSets {
	return TypeSets{
		Banned: set(
			"Q5",        // human
			"Q101352",   // family name
			"Q95074",    // fictional character
			"Q11446",    // ship
			"Q16521",    // taxon
			"Q215380",   // musical group
			"Q482994",   // album
			"Q134556",   // single
			"Q11424",    // film
			"Q7725634",  // literary work
			"Q4167410",  // Wikimedia disambiguation page
		),
		Allowed: set(
			"Q6256",     // country
			"Q515",      // city
			"Q1549591",  // big city
			"Q3957",     // town
			"Q532",      // village
			"Q15284",    // municipality
			"Q486972",   // human settlement
			"Q56061",    // administrative territorial entity
			"Q10864048", // first-level administrative division
		),
	}
}

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// Coarse scores a candidate summary from text and geography signals alone.
// rank is the candidate's first-discovery index in search order.
func Coarse(rank int, s types.Summary, q types.PlaceQuery, w Weights) float64 {
	score := math.Max(0, w.RankBase-w.RankStep*float64(rank))

	title := strings.ToLower(s.Title)
	desc := strings.ToLower(s.Description)
	extract := strings.ToLower(s.Extract)

	if contains(q.City, title, desc) {
		score += w.CityBonus
	}
	if contains(q.Admin1, title, desc, extract) {
		score += w.Admin1Bonus
	}
	if contains(q.Country, title, desc, extract) {
		score += w.CountryBonus
	}
	if contains(q.Text, title) {
		score += w.QueryInTitle
	}

	if s.PageType == types.PageDisambiguation {
		score -= w.DisambiguationPenalty
	}

	if q.HasCoords() && s.HasCoords() {
		d := Haversine(*q.Lat, *q.Lon, *s.Lat, *s.Lon)
		score += distanceBonus(d, w)
	}
	if s.HasCoords() {
		score += w.HasCoordsBonus
	}

	return score
}

// Refine adjusts a coarse score using the candidate's entity-type
// classifications. Any banned classification subtracts BannedPenalty; any
// allowed classification adds AllowedBonus; both can apply. With no
// matching classification the coarse value passes through unchanged.
func Refine(coarse float64, classifications []string, ts TypeSets, w Weights) float64 {
	score := coarse
	if anyIn(classifications, ts.Banned) {
		score -= w.BannedPenalty
	}
	if anyIn(classifications, ts.Allowed) {
		score += w.AllowedBonus
	}
	return score
}

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func distanceBonus(km float64, w Weights) float64 {
	for _, band := range w.DistanceBands {
		if km < band.WithinKm {
			return band.Bonus
		}
	}
	if km > w.FarKm {
		return -w.FarPenalty
	}
	return 0
}

// contains reports whether needle (case-insensitively) appears in any of the
// already-lowercased haystacks. An empty needle never matches.
func contains(needle string, haystacks ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}

func anyIn(ids []string, s map[string]struct{}) bool {
	for _, id := range ids {
		if _, ok := s[id]; ok {
			return true
		}
	}
	return false
}
