// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the time-globe backend:
// place queries, encyclopedia summaries, resolution results, and the
// configuration tree.
package types

import "strings"

// PlaceQuery holds a place-resolution request: the free-text place name plus
// optional geographic context. It is immutable for the duration of one
// resolution call.
type PlaceQuery struct {
	// Text is the free-text place name (e.g. "信義", "Kyoto").
	Text string `json:"text"`

	// Lang is the preferred Wikipedia language edition (default "zh").
	Lang string `json:"lang"`

	// Country, Admin1, and City are optional context names used both to build
	// search variants and as text-match scoring signals.
	Country string `json:"country,omitempty"`
	Admin1  string `json:"admin1,omitempty"`
	City    string `json:"city,omitempty"`

	// Lat and Lon are optional context coordinates for proximity scoring.
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// IsEmpty reports whether the query has no usable place text.
func (q PlaceQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// HasCoords reports whether both context coordinates are present.
func (q PlaceQuery) HasCoords() bool {
	return q.Lat != nil && q.Lon != nil
}

// Page types reported by the Wikipedia REST summary endpoint. Anything other
// than these two is treated as "other".
const (
	PageStandard       = "standard"
	PageDisambiguation = "disambiguation"
)

// Summary is a normalized Wikipedia page summary for one (language, title)
// pair. A failed fetch produces the zero value; an empty Extract marks the
// record as unusable for resolution.
type Summary struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Extract       string   `json:"extract"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	OriginalImage string   `json:"original_image,omitempty"`
	URL           string   `json:"url,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`

	// PageType is the page classification from the summary endpoint:
	// "standard", "disambiguation", or anything else the API reports.
	PageType string `json:"page_type,omitempty"`
}

// IsEmpty reports whether the summary is unusable as a resolution answer.
func (s Summary) IsEmpty() bool {
	return s.Extract == ""
}

// HasCoords reports whether the page carries coordinates.
func (s Summary) HasCoords() bool {
	return s.Lat != nil && s.Lon != nil
}

// PlaceResult is the normalized record returned by the public resolution API
// and serialized on the /api/placeinfo endpoint.
type PlaceResult struct {
	OK            bool     `json:"ok"`
	Source        string   `json:"source,omitempty"`
	Query         string   `json:"query"`
	Lang          string   `json:"lang"`
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	URL           string   `json:"url,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	OriginalImage string   `json:"original_image,omitempty"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	WikidataQID   string   `json:"wikidata_qid,omitempty"`
	Error         string   `json:"error,omitempty"`
}
