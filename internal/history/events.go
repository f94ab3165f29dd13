// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/time-globe/pkg/types"
)

// worldHistoryBase is the encyclopedia origin, swappable in tests.
var worldHistoryBase = "https://www.worldhistory.org"

// SetEventsBase substitutes the encyclopedia origin and returns a restore
// function. Test-only hook.
func SetEventsBase(base string) (restore func()) {
	old := worldHistoryBase
	worldHistoryBase = base
	return func() { worldHistoryBase = old }
}

// eventsUserAgent is browser-like: the encyclopedia serves a reduced page to
// obvious bots.
const eventsUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// EventItem is one search hit from the encyclopedia.
type EventItem struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	Author   string `json:"author"`
	Type     string `json:"type"`
	CITypeID int    `json:"ci_type_id"`
}

// EventsResult is the structured outcome of an events search.
type EventsResult struct {
	OK       bool        `json:"ok"`
	Query    string      `json:"query,omitempty"`
	Count    int         `json:"count"`
	NextPage string      `json:"next_page,omitempty"`
	Items    []EventItem `json:"items"`
	Error    string      `json:"error,omitempty"`
}

// Content type ids used by the encyclopedia's search results:
// 1=Definition, 2=Article, 3=Image.
const (
	typeDefinition = 1
	typeArticle    = 2
)

// EventSearcher scrapes historical articles about a place from the
// encyclopedia's search page.
type EventSearcher struct {
	HTTP *http.Client
}

// NewEventSearcher builds an EventSearcher from config.
func NewEventSearcher(cfg types.HistoryConfig) *EventSearcher {
	return &EventSearcher{HTTP: &http.Client{Timeout: cfg.Timeout}}
}

// Search fetches and parses the encyclopedia search results for place. With
// onlyTextual set, image and video hits are filtered out and only definitions
// and articles remain.
func (s *EventSearcher) Search(ctx context.Context, place string, onlyTextual bool) (EventsResult, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return EventsResult{Error: "empty place"}, nil
	}

	searchURL := fmt.Sprintf("%s/search/?%s", worldHistoryBase, url.Values{"q": {place}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return EventsResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", eventsUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Referer", worldHistoryBase+"/search/")
	req.Header.Set("Connection", "close")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return EventsResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return EventsResult{Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return EventsResult{}, fmt.Errorf("parsing search page: %w", err)
	}
	return parseSearchPage(doc, onlyTextual, worldHistoryBase), nil
}

// ParseSearchPage parses an already fetched search results document. Exposed
// for offline use against saved HTML.
func ParseSearchPage(doc *goquery.Document, onlyTextual bool) EventsResult {
	return parseSearchPage(doc, onlyTextual, worldHistoryBase)
}

func parseSearchPage(doc *goquery.Document, onlyTextual bool, base string) EventsResult {
	result := EventsResult{OK: true, Items: []EventItem{}}
	result.Query = doc.Find(`#content_main form input[name="q"]`).AttrOr("value", "")

	doc.Find("#ci_search_results .ci_list .content_item").Each(func(_ int, a *goquery.Selection) {
		item := EventItem{
			URL:   resolveHref(base, a.AttrOr("href", "")),
			Title: cleanText(a.Find(".ci_header h3").Text()),
		}
		if item.Title == "" || item.URL == "" {
			return
		}

		item.Type, item.Author = typeAndAuthor(a.Find(".ci_type_name").First())
		item.CITypeID, _ = strconv.Atoi(a.AttrOr("data-ci-type-id", ""))
		if onlyTextual && item.CITypeID != typeDefinition && item.CITypeID != typeArticle {
			return
		}

		item.Summary = cleanText(a.Find(".ci_preview").Text())
		if src, ok := a.Find("img.ci_image").Attr("src"); ok {
			item.Image = resolveHref(base, src)
		}
		result.Items = append(result.Items, item)
	})

	result.Count = len(result.Items)
	if href, ok := doc.Find(`nav.pagination a[rel*="next"]`).Attr("href"); ok {
		result.NextPage = resolveHref(base, href)
	}
	return result
}

// typeAndAuthor splits a result's type label from its author credit. The node
// looks like:
//
//	<div class="ci_type_name">Image <span class="ci_author">by Someone</span></div>
func typeAndAuthor(sel *goquery.Selection) (typeName, author string) {
	if sel.Length() == 0 {
		return "", ""
	}
	author = cleanText(sel.Find(".ci_author").Text())
	author = byPrefixRE.ReplaceAllString(author, "")

	clone := sel.Clone()
	clone.Find(".ci_author").Remove()
	return cleanText(clone.Text()), author
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	byPrefixRE   = regexp.MustCompile(`(?i)^\s*by\s+`)
)

// cleanText collapses runs of whitespace to single spaces.
func cleanText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// resolveHref makes href absolute against base. A malformed href comes back
// unchanged.
func resolveHref(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
