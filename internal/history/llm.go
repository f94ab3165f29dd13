// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history produces historical background for a place: two LLM-backed
// summary generators and an encyclopedia events search.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/time-globe/internal/httputil"
	"github.com/pdiddy/time-globe/pkg/types"
)

// API endpoints, swappable in tests.
var (
	geminiAPIBase       = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	openaiResponsesBase = "https://api.openai.com/v1/responses"
)

// SetAPIBases substitutes the LLM endpoints and returns a restore function.
// Test-only hook.
func SetAPIBases(gemini, openai string) (restore func()) {
	oldGemini, oldOpenAI := geminiAPIBase, openaiResponsesBase
	geminiAPIBase = gemini
	openaiResponsesBase = openai
	return func() {
		geminiAPIBase = oldGemini
		openaiResponsesBase = oldOpenAI
	}
}

// Generator produces historical summaries for a place. Overview uses Gemini
// without web access; Advanced uses the OpenAI Responses API with web search.
// Unlike the lookup clients, generators are not fail-soft: a missing key or a
// failed call is a hard error the server reports to the caller.
type Generator struct {
	HTTP *http.Client
	Cfg  types.HistoryConfig
}

// NewGenerator builds a Generator from config.
func NewGenerator(cfg types.HistoryConfig) *Generator {
	return &Generator{
		HTTP: &http.Client{Timeout: cfg.Timeout},
		Cfg:  cfg,
	}
}

// Overview generates a bullet-style historical summary of place from the
// model's own knowledge, in the requested language. Language defaults to
// Traditional Chinese when empty.
func (g *Generator) Overview(ctx context.Context, place, language string) (string, error) {
	if g.Cfg.GeminiToken == "" {
		return "", fmt.Errorf("missing Gemini token: create one in Google AI Studio and place it in the secrets directory")
	}
	if language == "" {
		language = "中文"
	}

	prompt := "Task: Given a place name, summarize its historical background WITHOUT browsing the web.\n" +
		"Rules:\n" +
		fmt.Sprintf("- Respond in %s.\n", language) +
		"- Highlight important civilizations, dynasties, or empires.\n" +
		"- Mention major historical events, battles, or treaties.\n" +
		"- Provide timeline context (centuries / years) when reasonably certain.\n" +
		"- Include cultural or architectural heritage if well-known.\n" +
		"- Use concise bullet points; keep within ~700 words.\n" +
		"- Avoid fabrication; if uncertain, state the uncertainty explicitly.\n" +
		fmt.Sprintf("\nPlace: %s\n", place) +
		"Output style:\n" +
		"- Bullet points, one to two sentences per bullet; add Gregorian years where helpful.\n" +
		"- Optionally end with 2–3 keywords as tags.\n"

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{Temperature: g.Cfg.Temperature},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding Gemini request: %w", err)
	}

	var resp geminiResponse
	url := fmt.Sprintf(geminiAPIBase, g.Cfg.GeminiModel)
	headers := map[string]string{"x-goog-api-key": g.Cfg.GeminiToken}
	if err := httputil.PostJSON(ctx, g.HTTP, url, g.Cfg.UserAgent, bytes.NewReader(payload), headers, &resp); err != nil {
		return "", fmt.Errorf("Gemini call failed: %w", err)
	}
	return resp.text(), nil
}

// Advanced generates a historical summary of place with the OpenAI Responses
// API, letting the model consult web search before answering.
func (g *Generator) Advanced(ctx context.Context, place, language string) (string, error) {
	if g.Cfg.OpenAIKey == "" {
		return "", fmt.Errorf("missing OpenAI API key: place it in the secrets directory")
	}
	if language == "" {
		language = "中文"
	}

	instructions := "Given a place name, search and summarize its historical background.\n" +
		"- Highlight important civilizations, dynasties, or empires.\n" +
		"- Mention major historical events, battles, or treaties.\n" +
		"- Provide timeline context (centuries / years).\n" +
		"- If available, include cultural or architectural heritage.\n" +
		"- Use bullet points, concise style.\n" +
		fmt.Sprintf("- Respond in %s within 700 words.", language)

	reqBody := openaiRequest{
		Model: g.Cfg.OpenAIModel,
		Input: []openaiMessage{
			{Role: "developer", Content: []openaiContent{{Type: "input_text", Text: instructions}}},
			{Role: "user", Content: []openaiContent{{Type: "input_text", Text: fmt.Sprintf("Provide a complete historical summary of %s", place)}}},
		},
		Text:    openaiTextOptions{Format: openaiTextFormat{Type: "text"}, Verbosity: "medium"},
		Tools:   []openaiTool{{Type: "web_search_preview"}},
		Store:   true,
		Include: []string{"web_search_call.action.sources"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding OpenAI request: %w", err)
	}

	var resp openaiResponse
	headers := map[string]string{"Authorization": "Bearer " + g.Cfg.OpenAIKey}
	if err := httputil.PostJSON(ctx, g.HTTP, openaiResponsesBase, g.Cfg.UserAgent, bytes.NewReader(payload), headers, &resp); err != nil {
		return "", fmt.Errorf("OpenAI call failed: %w", err)
	}
	return resp.text(), nil
}

// --- Gemini wire types ---

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// text joins the parts of every candidate, newline separated.
func (r geminiResponse) text() string {
	var parts []string
	for _, cand := range r.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				parts = append(parts, p.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// --- OpenAI Responses wire types ---

type openaiRequest struct {
	Model   string            `json:"model"`
	Input   []openaiMessage   `json:"input"`
	Text    openaiTextOptions `json:"text"`
	Tools   []openaiTool      `json:"tools"`
	Store   bool              `json:"store"`
	Include []string          `json:"include"`
}

type openaiMessage struct {
	Role    string          `json:"role"`
	Content []openaiContent `json:"content"`
}

type openaiContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openaiTextOptions struct {
	Format    openaiTextFormat `json:"format"`
	Verbosity string           `json:"verbosity"`
}

type openaiTextFormat struct {
	Type string `json:"type"`
}

type openaiTool struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Output []struct {
		Type    string          `json:"type"`
		Content []openaiContent `json:"content"`
	} `json:"output"`
}

// text extracts assistant output_text segments, skipping tool-call items.
func (r openaiResponse) text() string {
	var parts []string
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" && c.Text != "" {
				parts = append(parts, c.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
