// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package revgeo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/time-globe/internal/httputil"
)

// Provider endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	bigDataCloudBase = "https://api.bigdatacloud.net/data/reverse-geocode-client"
	nominatimBase    = "https://nominatim.openstreetmap.org/reverse"
	openMeteoBase    = "https://geocoding-api.open-meteo.com/v1/reverse"
)

// BigDataCloud queries the bigdatacloud.net client-side reverse geocoder.
type BigDataCloud struct {
	Client *http.Client
	UA     string
}

func (b *BigDataCloud) Name() string { return "bigdatacloud" }

func (b *BigDataCloud) Lookup(ctx context.Context, lat, lon float64) (Result, error) {
	params := url.Values{
		"latitude":         {formatCoord(lat)},
		"longitude":        {formatCoord(lon)},
		"localityLanguage": {"en"},
	}

	var resp struct {
		Confidence   *float64 `json:"confidence"`
		CountryName  string   `json:"countryName"`
		CountryCode  string   `json:"countryCode"`
		Subdivision  string   `json:"principalSubdivision"`
		City         string   `json:"city"`
		Locality     string   `json:"locality"`
		LocalityInfo struct {
			Administrative []struct {
				Name string `json:"name"`
			} `json:"administrative"`
		} `json:"localityInfo"`
	}
	if err := httputil.GetJSON(ctx, b.Client, bigDataCloudBase+"?"+params.Encode(), b.UA, &resp); err != nil {
		return Result{}, fmt.Errorf("bigdatacloud: %w", err)
	}

	// The second administrative level, when reported, is the county-like unit.
	var admin2 string
	if admins := resp.LocalityInfo.Administrative; len(admins) > 1 {
		admin2 = admins[1].Name
	}

	return Result{
		Source:      strOrNil(b.Name()),
		Confidence:  resp.Confidence,
		Country:     strOrNil(resp.CountryName),
		CountryCode: upperCodeOrNil(resp.CountryCode),
		Admin1:      strOrNil(resp.Subdivision),
		Admin2:      strOrNil(admin2),
		City:        strOrNil(firstNonEmpty(resp.City, resp.Locality)),
	}, nil
}

// Nominatim queries the OpenStreetMap reverse geocoder. Nominatim requires
// an identifying User-Agent.
type Nominatim struct {
	Client *http.Client
	UA     string
}

func (n *Nominatim) Name() string { return "nominatim" }

func (n *Nominatim) Lookup(ctx context.Context, lat, lon float64) (Result, error) {
	params := url.Values{
		"lat":            {formatCoord(lat)},
		"lon":            {formatCoord(lon)},
		"format":         {"jsonv2"},
		"addressdetails": {"1"},
		"zoom":           {"14"},
	}

	var resp struct {
		Address struct {
			Country     string `json:"country"`
			CountryCode string `json:"country_code"`
			State       string `json:"state"`
			County      string `json:"county"`
			Region      string `json:"region"`
			City        string `json:"city"`
			Town        string `json:"town"`
			Village     string `json:"village"`
			Hamlet      string `json:"hamlet"`
		} `json:"address"`
	}
	if err := httputil.GetJSON(ctx, n.Client, nominatimBase+"?"+params.Encode(), n.UA, &resp); err != nil {
		return Result{}, fmt.Errorf("nominatim: %w", err)
	}

	addr := resp.Address
	return Result{
		Source:      strOrNil(n.Name()),
		Country:     strOrNil(addr.Country),
		CountryCode: upperCodeOrNil(addr.CountryCode),
		Admin1:      strOrNil(addr.State),
		Admin2:      strOrNil(firstNonEmpty(addr.County, addr.Region)),
		City:        strOrNil(firstNonEmpty(addr.City, addr.Town, addr.Village, addr.Hamlet)),
	}, nil
}

// OpenMeteo queries the Open-Meteo geocoding API. It reports no confidence
// figure; elevation fills the slot as a rough locality hint.
type OpenMeteo struct {
	Client *http.Client
	UA     string
}

func (o *OpenMeteo) Name() string { return "openmeteo" }

func (o *OpenMeteo) Lookup(ctx context.Context, lat, lon float64) (Result, error) {
	params := url.Values{
		"latitude":  {formatCoord(lat)},
		"longitude": {formatCoord(lon)},
		"language":  {"en"},
	}

	var resp struct {
		Results []struct {
			Name        string   `json:"name"`
			Country     string   `json:"country"`
			CountryCode string   `json:"country_code"`
			Admin1      string   `json:"admin1"`
			Admin2      string   `json:"admin2"`
			Elevation   *float64 `json:"elevation"`
		} `json:"results"`
	}
	if err := httputil.GetJSON(ctx, o.Client, openMeteoBase+"?"+params.Encode(), o.UA, &resp); err != nil {
		return Result{}, fmt.Errorf("openmeteo: %w", err)
	}
	if len(resp.Results) == 0 {
		return Result{Source: strOrNil(o.Name())}, nil
	}

	item := resp.Results[0]
	return Result{
		Source:      strOrNil(o.Name()),
		Confidence:  item.Elevation,
		Country:     strOrNil(item.Country),
		CountryCode: upperCodeOrNil(item.CountryCode),
		Admin1:      strOrNil(item.Admin1),
		Admin2:      strOrNil(item.Admin2),
		City:        strOrNil(item.Name),
	}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
