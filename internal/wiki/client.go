// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wiki queries the Wikipedia action API, the REST summary API, and
// Wikidata. Every lookup is cached with a TTL and fails soft: transport
// errors, bad statuses, and malformed payloads all degrade to an empty
// result so a single failed sub-call never aborts a resolution.
package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/time-globe/internal/cache"
	"github.com/pdiddy/time-globe/internal/httputil"
	"github.com/pdiddy/time-globe/pkg/types"
)

// maxSearchLimit bounds the per-search result count to keep downstream
// summary fan-out sane.
const maxSearchLimit = 20

// API base templates. Declared as vars so tests can substitute an httptest
// server; %s slots receive the language edition (and page title for the
// summary endpoint).
var (
	actionAPIBase   = "https://%s.wikipedia.org/w/api.php"
	summaryAPIBase  = "https://%s.wikipedia.org/api/rest_v1/page/summary/%s"
	wikidataAPIBase = "https://www.wikidata.org/w/api.php"
)

// SetAPIBases overrides the API base templates and returns a function
// restoring the previous values. For tests outside this package that stand
// in one local server for the whole lookup stack.
func SetAPIBases(action, summary, wikidata string) (restore func()) {
	oldAction, oldSummary, oldWikidata := actionAPIBase, summaryAPIBase, wikidataAPIBase
	actionAPIBase, summaryAPIBase, wikidataAPIBase = action, summary, wikidata
	return func() {
		actionAPIBase, summaryAPIBase, wikidataAPIBase = oldAction, oldSummary, oldWikidata
	}
}

// Client performs Wikipedia and Wikidata lookups through a shared TTL cache.
type Client struct {
	HTTP  *http.Client
	UA    string
	Cache *cache.Cache
}

// New builds a Client from configuration with a fresh cache.
func New(cfg types.WikiConfig) *Client {
	return &Client{
		HTTP:  &http.Client{Timeout: cfg.Timeout},
		UA:    cfg.UserAgent,
		Cache: cache.New(cfg.CacheTTL),
	}
}

// SearchTitles returns up to limit page titles matching query in the given
// language edition, in search relevance order. On any failure it returns an
// empty slice; the empty result is cached like a hit.
func (c *Client) SearchTitles(ctx context.Context, query, lang string, limit int) []string {
	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	key := cache.Key("search", lang, query, strconv.Itoa(limit))
	if v, ok := c.Cache.Get(key); ok {
		return v.([]string)
	}

	params := url.Values{
		"action":   {"query"},
		"format":   {"json"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(limit)},
		"srprop":   {""},
	}
	reqURL := actionURL(lang) + "?" + params.Encode()

	var sr struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	var titles []string
	if err := httputil.GetJSON(ctx, c.HTTP, reqURL, c.UA, &sr); err != nil {
		slog.Debug("wiki search failed", "lang", lang, "query", query, "err", err)
	} else {
		for _, item := range sr.Query.Search {
			if item.Title != "" {
				titles = append(titles, item.Title)
			}
		}
	}

	c.Cache.Set(key, titles)
	return titles
}

// Summary fetches the normalized page summary for (lang, title). A failed
// fetch returns the zero Summary; URL fields are forced to https.
func (c *Client) Summary(ctx context.Context, lang, title string) types.Summary {
	key := cache.Key("summary", lang, title)
	if v, ok := c.Cache.Get(key); ok {
		return v.(types.Summary)
	}

	path := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	reqURL := summaryURL(lang, path)

	var js summaryResponse
	var s types.Summary
	if err := httputil.GetJSON(ctx, c.HTTP, reqURL, c.UA, &js); err != nil {
		slog.Debug("wiki summary failed", "lang", lang, "title", title, "err", err)
	} else {
		s = js.normalize(title)
	}

	c.Cache.Set(key, s)
	return s
}

// WikidataID resolves the Wikidata QID linked to (lang, title) via the
// pageprops wikibase_item. Returns "" when the page has no linked item or
// the lookup fails.
func (c *Client) WikidataID(ctx context.Context, lang, title string) string {
	key := cache.Key("wikidata_id", lang, title)
	if v, ok := c.Cache.Get(key); ok {
		return v.(string)
	}

	params := url.Values{
		"action": {"query"},
		"format": {"json"},
		"prop":   {"pageprops"},
		"titles": {title},
		"ppprop": {"wikibase_item"},
	}
	reqURL := actionURL(lang) + "?" + params.Encode()

	var pr struct {
		Query struct {
			Pages map[string]struct {
				Pageprops struct {
					WikibaseItem string `json:"wikibase_item"`
				} `json:"pageprops"`
			} `json:"pages"`
		} `json:"query"`
	}
	var qid string
	if err := httputil.GetJSON(ctx, c.HTTP, reqURL, c.UA, &pr); err != nil {
		slog.Debug("wikidata id lookup failed", "lang", lang, "title", title, "err", err)
	} else {
		for _, pg := range pr.Query.Pages {
			if pg.Pageprops.WikibaseItem != "" {
				qid = pg.Pageprops.WikibaseItem
				break
			}
		}
	}

	c.Cache.Set(key, qid)
	return qid
}

// InstanceOf returns the QIDs of the entity's "instance of" (P31) claims.
// Nil for an empty qid, a failed lookup, or an entity with no P31 claims.
func (c *Client) InstanceOf(ctx context.Context, qid string) []string {
	if qid == "" {
		return nil
	}

	key := cache.Key("instance_of", qid)
	if v, ok := c.Cache.Get(key); ok {
		return v.([]string)
	}

	params := url.Values{
		"action":   {"wbgetclaims"},
		"format":   {"json"},
		"entity":   {qid},
		"property": {"P31"},
	}
	reqURL := wikidataAPIBase + "?" + params.Encode()

	var cr struct {
		Claims map[string][]struct {
			Mainsnak struct {
				Datavalue struct {
					Value struct {
						ID string `json:"id"`
					} `json:"value"`
				} `json:"datavalue"`
			} `json:"mainsnak"`
		} `json:"claims"`
	}
	var ids []string
	if err := httputil.GetJSON(ctx, c.HTTP, reqURL, c.UA, &cr); err != nil {
		slog.Debug("wikidata claims lookup failed", "qid", qid, "err", err)
	} else {
		for _, claim := range cr.Claims["P31"] {
			if id := claim.Mainsnak.Datavalue.Value.ID; id != "" {
				ids = append(ids, id)
			}
		}
	}

	c.Cache.Set(key, ids)
	return ids
}

func actionURL(lang string) string {
	return fmt.Sprintf(actionAPIBase, lang)
}

func summaryURL(lang, titlePath string) string {
	return fmt.Sprintf(summaryAPIBase, lang, titlePath)
}

// summaryResponse mirrors the REST page summary payload.
type summaryResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	Type        string `json:"type"`
	Thumbnail   struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	OriginalImage struct {
		Source string `json:"source"`
	} `json:"originalimage"`
	Coordinates *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coordinates"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (js summaryResponse) normalize(fallbackTitle string) types.Summary {
	s := types.Summary{
		Title:         js.Title,
		Description:   js.Description,
		Extract:       strings.TrimSpace(js.Extract),
		Thumbnail:     cleanURL(js.Thumbnail.Source),
		OriginalImage: cleanURL(js.OriginalImage.Source),
		URL:           cleanURL(js.ContentURLs.Desktop.Page),
		PageType:      js.Type,
	}
	if s.Title == "" {
		s.Title = fallbackTitle
	}
	if js.Coordinates != nil {
		lat, lon := js.Coordinates.Lat, js.Coordinates.Lon
		s.Lat, s.Lon = &lat, &lon
	}
	return s
}

// cleanURL normalizes provider URLs to https.
func cleanURL(u string) string {
	if u == "" {
		return ""
	}
	return strings.Replace(u, "http://", "https://", 1)
}
