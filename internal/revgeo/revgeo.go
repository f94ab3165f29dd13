// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package revgeo reverse-geocodes coordinates to an administrative
// hierarchy by trying independent providers in fixed priority order and
// returning the first usable normalized response.
package revgeo

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdiddy/time-globe/pkg/types"
)

// Result is the normalized reverse-geocoding record. Pointer fields
// serialize as JSON null when a provider did not supply them; the all-null
// value with a null Source means every provider failed.
type Result struct {
	Source      *string  `json:"source"`
	Confidence  *float64 `json:"confidence"`
	Country     *string  `json:"country"`
	CountryCode *string  `json:"country_code"`
	Admin1      *string  `json:"admin1"`
	Admin2      *string  `json:"admin2"`
	City        *string  `json:"city"`
}

// Usable reports whether the result carries at least a region or a city —
// the acceptance criterion for stopping the provider chain.
func (r Result) Usable() bool {
	return deref(r.Admin1) != "" || deref(r.City) != ""
}

// Provider looks up the administrative hierarchy for a coordinate pair.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, lat, lon float64) (Result, error)
}

// Chain tries providers in order: a provider error or an unusable result
// falls through to the next. All providers exhausted returns the all-null
// Result.
type Chain struct {
	Providers []Provider
}

// NewChain builds the reference chain: BigDataCloud, then Nominatim, then
// Open-Meteo.
func NewChain(cfg types.RevGeoConfig) *Chain {
	client := &http.Client{Timeout: cfg.Timeout}
	return &Chain{Providers: []Provider{
		&BigDataCloud{Client: client, UA: cfg.UserAgent},
		&Nominatim{Client: client, UA: cfg.UserAgent},
		&OpenMeteo{Client: client, UA: cfg.UserAgent},
	}}
}

// Lookup runs the fallback chain.
func (c *Chain) Lookup(ctx context.Context, lat, lon float64) Result {
	for _, p := range c.Providers {
		res, err := p.Lookup(ctx, lat, lon)
		if err != nil {
			slog.Warn("revgeo provider failed", "provider", p.Name(), "err", err)
			continue
		}
		if res.Usable() {
			return res
		}
		slog.Debug("revgeo provider returned nothing usable", "provider", p.Name())
	}
	return Result{}
}

// --- normalization helpers shared by providers ---

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func upperCodeOrNil(code string) *string {
	return strOrNil(strings.ToUpper(code))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
