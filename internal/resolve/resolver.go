// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve picks the single encyclopedia article best matching a
// place query. It builds a deduplicated candidate set from query-variant
// searches, fetches summaries concurrently, scores every candidate with the
// cheap coarse pass, refines only the top-K with entity-type lookups, and
// selects the winner, falling back to English when the preferred language
// edition has nothing usable.
package resolve

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/time-globe/internal/score"
	"github.com/pdiddy/time-globe/internal/wiki"
	"github.com/pdiddy/time-globe/pkg/types"
)

const fallbackLang = "en"

// Resolver orchestrates candidate building, scoring, and selection.
type Resolver struct {
	Wiki    *wiki.Client
	Weights score.Weights
	Types   score.TypeSets

	// DefaultLang is the language edition used when a query does not name
	// one; empty falls back to the package default ("zh").
	DefaultLang string

	// VariantLimit is the per-variant search limit; MaxCandidates caps the
	// merged candidate set; TopK bounds the refinement pass.
	VariantLimit  int
	MaxCandidates int
	TopK          int
}

// New builds a Resolver with the reference scoring configuration.
func New(client *wiki.Client, cfg types.WikiConfig) *Resolver {
	return &Resolver{
		Wiki:          client,
		Weights:       score.DefaultWeights(),
		Types:         score.DefaultTypeSets(),
		DefaultLang:   cfg.DefaultLang,
		VariantLimit:  cfg.VariantLimit,
		MaxCandidates: cfg.MaxCandidates,
		TopK:          cfg.TopK,
	}
}

// candidate tracks one title through the resolution stages. rank is the
// first-discovery index across the merged variant searches; the coarse
// rank term and tie-breaking both depend on it.
type candidate struct {
	title   string
	rank    int
	summary types.Summary
	// lang is the edition the summary actually came from; it differs from
	// the active language when the per-candidate English fallback fired.
	lang   string
	coarse float64
	final  float64
}

// Resolve runs the full pipeline and returns the winning summary and the
// language edition it came from. ok is false when no candidate with a
// non-empty extract exists in either language.
func (r *Resolver) Resolve(ctx context.Context, q types.PlaceQuery) (types.Summary, string, bool) {
	lang := q.Lang

	titles := r.buildCandidates(ctx, q, lang)
	if len(titles) == 0 && lang != fallbackLang {
		lang = fallbackLang
		titles = r.buildCandidates(ctx, q, lang)
	}
	if len(titles) == 0 {
		return types.Summary{}, lang, false
	}

	cands := make([]candidate, len(titles))
	for i, title := range titles {
		cands[i] = candidate{title: title, rank: i, lang: lang}
	}

	r.fetchSummaries(ctx, cands, lang)

	for i := range cands {
		cands[i].coarse = score.Coarse(cands[i].rank, cands[i].summary, q, r.Weights)
		cands[i].final = cands[i].coarse
	}

	r.refineTopK(ctx, cands, lang)

	return r.selectWinner(cands, lang)
}

// buildCandidates merges the variant searches into a deduplicated title
// list capped at MaxCandidates. The variants run concurrently but merge in
// fixed variant order, so first-discovery rank is deterministic.
func (r *Resolver) buildCandidates(ctx context.Context, q types.PlaceQuery, lang string) []string {
	place := strings.TrimSpace(q.Text)
	variants := []string{place}
	if a := strings.TrimSpace(q.Admin1); a != "" {
		variants = append(variants, place+" "+a)
	}
	if c := strings.TrimSpace(q.Country); c != "" {
		variants = append(variants, place+" "+c)
	}

	results := make([][]string, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			results[i] = r.Wiki.SearchTitles(gctx, v, lang, r.VariantLimit)
			return nil
		})
	}
	g.Wait()

	seen := make(map[string]struct{})
	var titles []string
	for _, batch := range results {
		for _, title := range batch {
			if _, dup := seen[title]; dup {
				continue
			}
			seen[title] = struct{}{}
			titles = append(titles, title)
			if len(titles) >= r.MaxCandidates {
				return titles
			}
		}
	}
	return titles
}

// fetchSummaries fills every candidate's summary concurrently, then
// re-fetches English summaries for candidates whose active-language extract
// came back empty.
func (r *Resolver) fetchSummaries(ctx context.Context, cands []candidate, lang string) {
	g, gctx := errgroup.WithContext(ctx)
	for i := range cands {
		g.Go(func() error {
			cands[i].summary = r.Wiki.Summary(gctx, lang, cands[i].title)
			return nil
		})
	}
	g.Wait()

	if lang == fallbackLang {
		return
	}

	g, gctx = errgroup.WithContext(ctx)
	for i := range cands {
		if !cands[i].summary.IsEmpty() {
			continue
		}
		g.Go(func() error {
			if s := r.Wiki.Summary(gctx, fallbackLang, cands[i].title); !s.IsEmpty() {
				cands[i].summary = s
				cands[i].lang = fallbackLang
			}
			return nil
		})
	}
	g.Wait()
}

// refineTopK applies the entity-type refinement to the TopK highest
// coarse-scoring candidates only; everyone else keeps their coarse score as
// final. Entity lookups for the slice run concurrently.
func (r *Resolver) refineTopK(ctx context.Context, cands []candidate, lang string) {
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	// Stable on rank order, so coarse ties keep the earlier candidate first.
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].coarse > cands[order[b]].coarse
	})

	k := r.TopK
	if k > len(order) {
		k = len(order)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, idx := range order[:k] {
		g.Go(func() error {
			qid := r.Wiki.WikidataID(gctx, lang, cands[idx].title)
			claims := r.Wiki.InstanceOf(gctx, qid)
			cands[idx].final = score.Refine(cands[idx].coarse, claims, r.Types, r.Weights)
			return nil
		})
	}
	g.Wait()
}

// selectWinner returns the usable candidate with the highest final score,
// breaking ties toward the earlier first-discovery rank. Candidates with an
// empty extract are never selected.
func (r *Resolver) selectWinner(cands []candidate, lang string) (types.Summary, string, bool) {
	best := -1
	for i := range cands {
		if cands[i].summary.IsEmpty() {
			continue
		}
		if best < 0 || cands[i].final > cands[best].final {
			best = i
		}
	}
	if best < 0 {
		return types.Summary{}, lang, false
	}
	return cands[best].summary, cands[best].lang, true
}
