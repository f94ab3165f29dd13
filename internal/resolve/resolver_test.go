// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/time-globe/internal/cache"
	"github.com/pdiddy/time-globe/internal/score"
	"github.com/pdiddy/time-globe/internal/wiki"
	"github.com/pdiddy/time-globe/pkg/types"
)

// fakeWiki serves canned Wikipedia and Wikidata responses and counts calls
// per operation so tests can assert on fan-out and short-circuit behavior.
type fakeWiki struct {
	mu sync.Mutex

	// searches maps "lang|query|limit" to result titles.
	searches map[string][]string
	// summaries maps "lang|title" to a summary payload.
	summaries map[string]summaryPayload
	// qids maps "lang|title" to a Wikidata QID.
	qids map[string]string
	// claims maps a QID to its P31 classification IDs.
	claims map[string][]string

	searchCalls  int
	summaryCalls int
	propsCalls   map[string]int // per title
	claimCalls   map[string]int // per qid
}

type summaryPayload struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Extract     string      `json:"extract"`
	Type        string      `json:"type,omitempty"`
	Coordinates *coordinate `json:"coordinates,omitempty"`
}

type coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{
		searches:   map[string][]string{},
		summaries:  map[string]summaryPayload{},
		qids:       map[string]string{},
		claims:     map[string][]string{},
		propsCalls: map[string]int{},
		claimCalls: map[string]int{},
	}
}

func (f *fakeWiki) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		q := r.URL.Query()
		path := r.URL.Path

		switch {
		case strings.HasSuffix(path, "/wikidata"):
			qid := q.Get("entity")
			f.claimCalls[qid]++
			var claims []map[string]any
			for _, id := range f.claims[qid] {
				claims = append(claims, map[string]any{
					"mainsnak": map[string]any{
						"datavalue": map[string]any{"value": map[string]any{"id": id}},
					},
				})
			}
			json.NewEncoder(w).Encode(map[string]any{"claims": map[string]any{"P31": claims}})

		case strings.Contains(path, "/w/api.php") && q.Get("list") == "search":
			f.searchCalls++
			lang := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]
			key := lang + "|" + q.Get("srsearch") + "|" + q.Get("srlimit")
			var items []map[string]string
			for _, title := range f.searches[key] {
				items = append(items, map[string]string{"title": title})
			}
			json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"search": items}})

		case strings.Contains(path, "/w/api.php") && q.Get("prop") == "pageprops":
			lang := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]
			title := q.Get("titles")
			f.propsCalls[title]++
			page := map[string]any{}
			if qid, ok := f.qids[lang+"|"+title]; ok {
				page["pageprops"] = map[string]string{"wikibase_item": qid}
			}
			json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"pages": map[string]any{"1": page}}})

		case strings.Contains(path, "/page/summary/"):
			f.summaryCalls++
			parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)
			lang := parts[0]
			title := strings.ReplaceAll(path[strings.LastIndex(path, "/")+1:], "_", " ")
			payload, ok := f.summaries[lang+"|"+title]
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(payload)

		default:
			t.Errorf("unexpected request: %s?%s", path, r.URL.RawQuery)
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	})
}

// install points the wiki package at the fake and returns a Resolver plus
// cleanup. Tests share the production limits unless they override them.
func (f *fakeWiki) install(t *testing.T) *Resolver {
	ts := httptest.NewServer(f.handler(t))

	restore := wiki.SetAPIBases(
		ts.URL+"/%s/w/api.php",
		ts.URL+"/%s/page/summary/%s",
		ts.URL+"/wikidata",
	)
	t.Cleanup(func() {
		restore()
		ts.Close()
	})

	client := &wiki.Client{HTTP: ts.Client(), UA: "test/0.1", Cache: cache.New(time.Hour)}
	return &Resolver{
		Wiki:          client,
		Weights:       score.DefaultWeights(),
		Types:         score.DefaultTypeSets(),
		VariantLimit:  5,
		MaxCandidates: 8,
		TopK:          2,
	}
}

func (f *fakeWiki) counts() (searches, summaries int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls, f.summaryCalls
}

func ptr(v float64) *float64 { return &v }

func standard(title, extract string) summaryPayload {
	return summaryPayload{Title: title, Extract: extract, Type: "standard"}
}

// --- candidate building ---

func TestBuildCandidatesDedupAtFirstRank(t *testing.T) {
	f := newFakeWiki()
	f.searches["en|Paris|5"] = []string{"Paris", "Paris, Texas"}
	f.searches["en|Paris France|5"] = []string{"Paris", "Paris Commune"}
	r := f.install(t)

	titles := r.buildCandidates(context.Background(), types.PlaceQuery{Text: "Paris", Country: "France"}, "en")

	want := []string{"Paris", "Paris, Texas", "Paris Commune"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestBuildCandidatesCap(t *testing.T) {
	f := newFakeWiki()
	many := make([]string, 12)
	for i := range many {
		many[i] = fmt.Sprintf("Springfield %d", i)
	}
	f.searches["en|Springfield|5"] = many[:5]
	f.searches["en|Springfield USA|5"] = many[5:10]
	r := f.install(t)

	titles := r.buildCandidates(context.Background(), types.PlaceQuery{Text: "Springfield", Country: "USA"}, "en")
	if len(titles) != 8 {
		t.Errorf("len(titles) = %d, want capped 8", len(titles))
	}
}

func TestBuildCandidatesSkipsEmptyVariants(t *testing.T) {
	f := newFakeWiki()
	f.searches["en|Kyoto|5"] = []string{"Kyoto"}
	r := f.install(t)

	// No admin1/country: only the bare variant may be searched.
	r.buildCandidates(context.Background(), types.PlaceQuery{Text: "Kyoto"}, "en")
	searches, _ := f.counts()
	if searches != 1 {
		t.Errorf("search calls = %d, want 1", searches)
	}
}

// --- language fallback ---

func TestResolveLanguageFallbackToEnglish(t *testing.T) {
	f := newFakeWiki()
	// Nothing in zh; the whole candidate step repeats in en.
	f.searches["en|Quahog|5"] = []string{"Quahog"}
	f.summaries["en|Quahog"] = standard("Quahog", "A fictional town.")
	r := f.install(t)

	_, lang, ok := r.Resolve(context.Background(), types.PlaceQuery{Text: "Quahog", Lang: "zh"})
	if !ok {
		t.Fatal("Resolve not ok")
	}
	if lang != "en" {
		t.Errorf("lang = %q, want en", lang)
	}
}

func TestResolvePerCandidateEnglishFallback(t *testing.T) {
	f := newFakeWiki()
	f.searches["zh|Foo|5"] = []string{"Foo"}
	f.summaries["zh|Foo"] = standard("Foo", "") // empty extract in zh
	f.summaries["en|Foo"] = standard("Foo", "An actual article.")
	r := f.install(t)

	s, lang, ok := r.Resolve(context.Background(), types.PlaceQuery{Text: "Foo", Lang: "zh"})
	if !ok {
		t.Fatal("Resolve not ok")
	}
	if s.Extract != "An actual article." {
		t.Errorf("Extract = %q", s.Extract)
	}
	if lang != "en" {
		t.Errorf("lang = %q, want en (summary came from the en edition)", lang)
	}
}

func TestResolveNoCandidatesAnywhere(t *testing.T) {
	f := newFakeWiki()
	r := f.install(t)

	_, _, ok := r.Resolve(context.Background(), types.PlaceQuery{Text: "zzzz", Lang: "zh"})
	if ok {
		t.Error("Resolve ok, want failure with no candidates")
	}
}

// --- scoring integration ---

func TestResolvePrefersNearbyOverDistantAndDisambiguation(t *testing.T) {
	f := newFakeWiki()
	f.searches["zh|信義|5"] = []string{"信義", "信義區 (臺北市)", "信義鄉"}
	f.searches["zh|信義 台北市|5"] = []string{"信義區 (臺北市)"}
	f.searches["zh|信義 台灣|5"] = []string{"信義"}

	f.summaries["zh|信義"] = summaryPayload{
		Title: "信義", Extract: "消歧義頁面。", Type: "disambiguation",
	}
	f.summaries["zh|信義區 (臺北市)"] = summaryPayload{
		Title: "信義區 (臺北市)", Description: "台北市的行政區",
		Extract: "信義區是臺北市的市中心。", Type: "standard",
		Coordinates: &coordinate{Lat: 25.033, Lon: 121.565},
	}
	// Same-named township roughly 165 km away.
	f.summaries["zh|信義鄉"] = summaryPayload{
		Title: "信義鄉", Extract: "南投縣的鄉。", Type: "standard",
		Coordinates: &coordinate{Lat: 23.7, Lon: 120.85},
	}
	r := f.install(t)

	s, lang, ok := r.Resolve(context.Background(), types.PlaceQuery{
		Text: "信義", Lang: "zh",
		Country: "台灣", Admin1: "台北市", City: "信義區",
		Lat: ptr(25.033), Lon: ptr(121.565),
	})
	if !ok {
		t.Fatal("Resolve not ok")
	}
	if lang != "zh" {
		t.Errorf("lang = %q, want zh", lang)
	}
	if s.Title != "信義區 (臺北市)" {
		t.Errorf("winner = %q, want the nearby district", s.Title)
	}
	if s.PageType == types.PageDisambiguation {
		t.Error("selected a disambiguation page")
	}
}

func TestResolveRefinementDemotesPerson(t *testing.T) {
	f := newFakeWiki()
	f.searches["en|Lincoln|5"] = []string{"Abraham Lincoln", "Lincoln, Nebraska"}
	f.summaries["en|Abraham Lincoln"] = standard("Abraham Lincoln", "16th president of the United States.")
	f.summaries["en|Lincoln, Nebraska"] = summaryPayload{
		Title: "Lincoln, Nebraska", Extract: "Capital city of Nebraska.", Type: "standard",
		Coordinates: &coordinate{Lat: 40.81, Lon: -96.68},
	}
	f.qids["en|Abraham Lincoln"] = "Q91"
	f.qids["en|Lincoln, Nebraska"] = "Q28260"
	f.claims["Q91"] = []string{"Q5"}        // human
	f.claims["Q28260"] = []string{"Q515"}   // city
	r := f.install(t)

	s, _, ok := r.Resolve(context.Background(), types.PlaceQuery{Text: "Lincoln", Lang: "en"})
	if !ok {
		t.Fatal("Resolve not ok")
	}
	if s.Title != "Lincoln, Nebraska" {
		t.Errorf("winner = %q, want the city after type refinement", s.Title)
	}
}

func TestRefinementNeverTouchesBeyondTopK(t *testing.T) {
	f := newFakeWiki()
	f.searches["en|Alpha|5"] = []string{"Alpha One", "Alpha Two", "Alpha Three", "Alpha Four"}
	for _, title := range []string{"Alpha One", "Alpha Two", "Alpha Three", "Alpha Four"} {
		f.summaries["en|"+title] = standard(title, "Something about "+title+".")
		f.qids["en|"+title] = "Q" + title[len(title)-3:]
	}
	r := f.install(t)

	r.Resolve(context.Background(), types.PlaceQuery{Text: "Alpha", Lang: "en"})

	f.mu.Lock()
	defer f.mu.Unlock()
	// Ranks 0 and 1 have the highest coarse scores; only they may be refined.
	for _, title := range []string{"Alpha Three", "Alpha Four"} {
		if n := f.propsCalls[title]; n != 0 {
			t.Errorf("entity lookup for non-top-K candidate %q: %d calls", title, n)
		}
	}
	refined := f.propsCalls["Alpha One"] + f.propsCalls["Alpha Two"]
	if refined != 2 {
		t.Errorf("top-K entity lookups = %d, want 2", refined)
	}
}

func TestResolveEmptyExtractNeverSelected(t *testing.T) {
	f := newFakeWiki()
	f.searches["en|Ghost|5"] = []string{"Ghost Town"}
	f.summaries["en|Ghost Town"] = standard("Ghost Town", "")
	r := f.install(t)

	_, _, ok := r.Resolve(context.Background(), types.PlaceQuery{Text: "Ghost", Lang: "en"})
	if ok {
		t.Error("Resolve ok with only empty-extract candidates")
	}
}

// --- public API ---

func TestResolvePlaceEmptyQueryNoNetwork(t *testing.T) {
	f := newFakeWiki()
	r := f.install(t)

	res := r.ResolvePlace(context.Background(), types.PlaceQuery{Text: "   ", Lang: "zh"})
	if res.OK {
		t.Error("OK = true for whitespace query")
	}
	if res.Error != "no_result" {
		t.Errorf("Error = %q, want no_result", res.Error)
	}
	searches, summaries := f.counts()
	if searches != 0 || summaries != 0 {
		t.Errorf("network calls = %d searches, %d summaries; want none", searches, summaries)
	}
}

func TestResolvePlaceLastResortPath(t *testing.T) {
	f := newFakeWiki()
	// The resolver's limit-5 variant searches find nothing, but the cheap
	// limit-1 lookup does.
	f.searches["zh|Obscure|1"] = []string{"Obscure"}
	f.summaries["zh|Obscure"] = standard("Obscure", "A little-known place.")
	r := f.install(t)

	res := r.ResolvePlace(context.Background(), types.PlaceQuery{Text: "Obscure", Lang: "zh"})
	if !res.OK {
		t.Fatalf("res = %+v, want ok via last-resort path", res)
	}
	if res.Title != "Obscure" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Source != "wikipedia" {
		t.Errorf("Source = %q", res.Source)
	}
}

func TestResolvePlaceNoResult(t *testing.T) {
	f := newFakeWiki()
	r := f.install(t)

	res := r.ResolvePlace(context.Background(), types.PlaceQuery{Text: "zzzz", Lang: "zh"})
	if res.OK {
		t.Error("OK = true, want failure")
	}
	if res.Error != "no_result" {
		t.Errorf("Error = %q, want no_result", res.Error)
	}
	if res.Query != "zzzz" {
		t.Errorf("Query = %q", res.Query)
	}
}

func TestResolvePlaceQIDBackfillFallsBackToEnglish(t *testing.T) {
	f := newFakeWiki()
	f.searches["zh|Kyoto|5"] = []string{"Kyoto"}
	f.summaries["zh|Kyoto"] = standard("Kyoto", "京都市。")
	// No zh pageprops entry; the en edition has the item.
	f.qids["en|Kyoto"] = "Q34600"
	r := f.install(t)

	res := r.ResolvePlace(context.Background(), types.PlaceQuery{Text: "Kyoto", Lang: "zh"})
	if !res.OK {
		t.Fatalf("res = %+v", res)
	}
	if res.WikidataQID != "Q34600" {
		t.Errorf("WikidataQID = %q, want Q34600", res.WikidataQID)
	}
}

func TestResolvePlaceDefaultsLanguage(t *testing.T) {
	f := newFakeWiki()
	f.searches["zh|北京|5"] = []string{"北京市"}
	f.summaries["zh|北京市"] = standard("北京市", "中國首都。")
	r := f.install(t)

	res := r.ResolvePlace(context.Background(), types.PlaceQuery{Text: "北京"})
	if !res.OK {
		t.Fatalf("res = %+v", res)
	}
	if res.Lang != "zh" {
		t.Errorf("Lang = %q, want default zh", res.Lang)
	}
}

func TestResolvePlaceHonorsConfiguredDefaultLanguage(t *testing.T) {
	f := newFakeWiki()
	f.searches["en|Paris|5"] = []string{"Paris"}
	f.summaries["en|Paris"] = standard("Paris", "Capital of France.")
	r := f.install(t)
	r.DefaultLang = "en"

	res := r.ResolvePlace(context.Background(), types.PlaceQuery{Text: "Paris"})
	if !res.OK {
		t.Fatalf("res = %+v", res)
	}
	if res.Lang != "en" {
		t.Errorf("Lang = %q, want configured default en", res.Lang)
	}
	if res.Title != "Paris" {
		t.Errorf("Title = %q, want Paris", res.Title)
	}
}

func TestNewCarriesConfiguredDefaultLang(t *testing.T) {
	cfg := types.DefaultConfig().Wiki
	cfg.DefaultLang = "en"
	r := New(&wiki.Client{}, cfg)
	if r.DefaultLang != "en" {
		t.Errorf("DefaultLang = %q, want en", r.DefaultLang)
	}
}
