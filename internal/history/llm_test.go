// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/time-globe/pkg/types"
)

func historyConfig() types.HistoryConfig {
	cfg := types.DefaultConfig().History
	cfg.GeminiToken = "gem-token"
	cfg.OpenAIKey = "oa-key"
	return cfg
}

func TestOverviewRequestAndExtraction(t *testing.T) {
	var mu sync.Mutex
	var gotPath, gotKey string
	var gotBody geminiRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		mu.Unlock()
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [
			{"text": "- Founded in 794 as Heian-kyo."},
			{"text": "- Imperial capital until 1868."}
		]}}]}`)
	}))
	defer ts.Close()
	defer SetAPIBases(ts.URL+"/models/%s:generateContent", ts.URL+"/responses")()

	g := NewGenerator(historyConfig())
	text, err := g.Overview(context.Background(), "Kyoto", "English")
	require.NoError(t, err)

	assert.Equal(t, "- Founded in 794 as Heian-kyo.\n- Imperial capital until 1868.", text)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "gem-token", gotKey)
	require.Len(t, gotBody.Contents, 1)
	prompt := gotBody.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "Place: Kyoto")
	assert.Contains(t, prompt, "Respond in English.")
	assert.Contains(t, prompt, "WITHOUT browsing the web")
	require.NotNil(t, gotBody.GenerationConfig)
	assert.Equal(t, 0.2, gotBody.GenerationConfig.Temperature)
}

func TestOverviewDefaultsLanguage(t *testing.T) {
	var gotBody geminiRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"candidates": []}`)
	}))
	defer ts.Close()
	defer SetAPIBases(ts.URL+"/models/%s:generateContent", ts.URL+"/responses")()

	g := NewGenerator(historyConfig())
	_, err := g.Overview(context.Background(), "京都", "")
	require.NoError(t, err)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "Respond in 中文.")
}

func TestOverviewMissingTokenIsHardError(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer ts.Close()
	defer SetAPIBases(ts.URL+"/models/%s:generateContent", ts.URL+"/responses")()

	cfg := historyConfig()
	cfg.GeminiToken = ""
	g := NewGenerator(cfg)
	_, err := g.Overview(context.Background(), "Kyoto", "English")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gemini token")
	assert.Equal(t, 0, calls)
}

func TestOverviewUpstreamErrorPropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota"}}`, http.StatusTooManyRequests)
	}))
	defer ts.Close()
	defer SetAPIBases(ts.URL+"/models/%s:generateContent", ts.URL+"/responses")()

	g := NewGenerator(historyConfig())
	_, err := g.Overview(context.Background(), "Kyoto", "English")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAdvancedRequestAndExtraction(t *testing.T) {
	var gotAuth string
	var gotBody openaiRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		// A web_search_call item precedes the message; only the message text
		// should be extracted.
		fmt.Fprint(w, `{"output": [
			{"type": "web_search_call"},
			{"type": "message", "content": [
				{"type": "output_text", "text": "- Settled since the Neolithic."}
			]}
		]}`)
	}))
	defer ts.Close()
	defer SetAPIBases(ts.URL+"/models/%s:generateContent", ts.URL+"/responses")()

	g := NewGenerator(historyConfig())
	text, err := g.Advanced(context.Background(), "Taipei", "English")
	require.NoError(t, err)
	assert.Equal(t, "- Settled since the Neolithic.", text)

	assert.Equal(t, "Bearer oa-key", gotAuth)
	assert.Equal(t, "gpt-5", gotBody.Model)
	require.Len(t, gotBody.Input, 2)
	assert.Equal(t, "developer", gotBody.Input[0].Role)
	assert.Contains(t, gotBody.Input[0].Content[0].Text, "Respond in English within 700 words.")
	assert.Equal(t, "user", gotBody.Input[1].Role)
	assert.Equal(t, "Provide a complete historical summary of Taipei", gotBody.Input[1].Content[0].Text)
	require.Len(t, gotBody.Tools, 1)
	assert.Equal(t, "web_search_preview", gotBody.Tools[0].Type)
	assert.True(t, gotBody.Store)
}

func TestAdvancedMissingKeyIsHardError(t *testing.T) {
	cfg := historyConfig()
	cfg.OpenAIKey = ""
	g := NewGenerator(cfg)
	_, err := g.Advanced(context.Background(), "Taipei", "English")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI")
}

func TestOpenAIResponseTextJoinsSegments(t *testing.T) {
	var r openaiResponse
	require.NoError(t, json.Unmarshal([]byte(`{"output": [
		{"type": "message", "content": [
			{"type": "output_text", "text": "first"},
			{"type": "refusal", "text": "ignored"},
			{"type": "output_text", "text": "second"}
		]}
	]}`), &r))
	assert.Equal(t, "first\nsecond", r.text())
}

func TestGeminiResponseTextTrims(t *testing.T) {
	var r geminiResponse
	require.NoError(t, json.Unmarshal([]byte(`{"candidates": [
		{"content": {"parts": [{"text": "  body text \n"}]}}
	]}`), &r))
	assert.Equal(t, "body text", r.text())
	assert.False(t, strings.HasSuffix(r.text(), "\n"))
}
