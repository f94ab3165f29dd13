// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"strings"

	"github.com/pdiddy/time-globe/pkg/types"
)

// DefaultLang is used when neither the query nor the resolver configuration
// names a language edition.
const DefaultLang = "zh"

// ResolvePlace is the public resolution entry point. It runs the multi-
// candidate resolver, falls back to a cheap single-title lookup when the
// resolver finds nothing usable, and on success backfills the Wikidata QID
// and assembles the normalized result record.
//
// An empty or whitespace-only place returns a failure immediately, without
// any network call.
func (r *Resolver) ResolvePlace(ctx context.Context, q types.PlaceQuery) types.PlaceResult {
	if q.Lang == "" {
		q.Lang = r.DefaultLang
	}
	if q.Lang == "" {
		q.Lang = DefaultLang
	}
	place := strings.TrimSpace(q.Text)
	if place == "" {
		return types.PlaceResult{OK: false, Query: q.Text, Lang: q.Lang, Error: "no_result"}
	}
	q.Text = place

	summary, lang, ok := r.Resolve(ctx, q)
	if !ok {
		summary, lang, ok = r.lastResort(ctx, place, q.Lang)
	}
	if !ok {
		return types.PlaceResult{OK: false, Query: place, Lang: lang, Error: "no_result"}
	}

	qid := r.Wiki.WikidataID(ctx, lang, summary.Title)
	if qid == "" && lang != fallbackLang {
		qid = r.Wiki.WikidataID(ctx, fallbackLang, summary.Title)
	}

	return types.PlaceResult{
		OK:            true,
		Source:        "wikipedia",
		Query:         place,
		Lang:          lang,
		Title:         summary.Title,
		Description:   summary.Description,
		Summary:       summary.Extract,
		URL:           summary.URL,
		Thumbnail:     summary.Thumbnail,
		OriginalImage: summary.OriginalImage,
		Lat:           summary.Lat,
		Lon:           summary.Lon,
		WikidataQID:   qid,
	}
}

// lastResort bypasses multi-candidate scoring: a single-title search in the
// preferred language, then English, then one direct summary fetch with the
// same per-title English fallback the resolver applies.
func (r *Resolver) lastResort(ctx context.Context, place, lang string) (types.Summary, string, bool) {
	titles := r.Wiki.SearchTitles(ctx, place, lang, 1)
	if len(titles) == 0 && lang != fallbackLang {
		lang = fallbackLang
		titles = r.Wiki.SearchTitles(ctx, place, lang, 1)
	}
	if len(titles) == 0 {
		return types.Summary{}, lang, false
	}

	s := r.Wiki.Summary(ctx, lang, titles[0])
	if s.IsEmpty() && lang != fallbackLang {
		if en := r.Wiki.Summary(ctx, fallbackLang, titles[0]); !en.IsEmpty() {
			return en, fallbackLang, true
		}
	}
	if s.IsEmpty() {
		return types.Summary{}, lang, false
	}
	return s, lang, true
}
