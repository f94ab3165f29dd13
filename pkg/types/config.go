package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network
// requests. Each external call is a single attempt: a timeout or bad status
// degrades to an empty result at the caller, it is never retried.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "time-globe/0.5").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// WikiConfig holds settings for the Wikipedia/Wikidata lookup stack and the
// place resolver built on it.
type WikiConfig struct {
	HTTPConfig `yaml:",inline"`

	// DefaultLang is the language edition used when a query does not name one.
	DefaultLang string `json:"default_lang" yaml:"default_lang"`

	// VariantLimit is the per-variant search result limit (clamped to 20).
	VariantLimit int `json:"variant_limit" yaml:"variant_limit"`

	// MaxCandidates caps the number of distinct titles considered per resolution.
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// TopK is the number of top coarse-scored candidates that receive the
	// entity-type-aware refinement pass.
	TopK int `json:"top_k" yaml:"top_k"`

	// CacheTTL is the lifetime of cached lookup results.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// RevGeoConfig holds settings for the reverse-geocoding provider chain.
type RevGeoConfig struct {
	HTTPConfig `yaml:",inline"`
}

// HistoryConfig holds settings for the LLM historical-summary generators and
// the encyclopedia events search.
type HistoryConfig struct {
	HTTPConfig `yaml:",inline"`

	// GeminiModel is the Gemini model for the offline-knowledge overview
	// (default "gemini-2.5-flash").
	GeminiModel string `json:"gemini_model" yaml:"gemini_model"`

	// GeminiToken authenticates Gemini calls. Loaded from the secrets
	// directory (key "gemini-token"), not from the config file.
	GeminiToken string `json:"-" yaml:"-"`

	// OpenAIModel is the OpenAI model for the web-search-augmented summary.
	OpenAIModel string `json:"openai_model" yaml:"openai_model"`

	// OpenAIKey authenticates OpenAI calls. Loaded from the secrets
	// directory (key "openai-api-key"), not from the config file.
	OpenAIKey string `json:"-" yaml:"-"`

	// Temperature is the sampling temperature for the Gemini overview.
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default "127.0.0.1:8000").
	Addr string `json:"addr" yaml:"addr"`

	// FrontendDir is the directory served at /static and holding index.html.
	FrontendDir string `json:"frontend_dir" yaml:"frontend_dir"`

	// AssetsManifest is an optional YAML manifest overriding the built-in
	// asset mirror lists.
	AssetsManifest string `json:"assets_manifest,omitempty" yaml:"assets_manifest,omitempty"`
}

// AppConfig groups all component configurations.
type AppConfig struct {
	Wiki    WikiConfig    `json:"wiki" yaml:"wiki"`
	RevGeo  RevGeoConfig  `json:"revgeo" yaml:"revgeo"`
	History HistoryConfig `json:"history" yaml:"history"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() AppConfig {
	return AppConfig{
		Wiki: WikiConfig{
			HTTPConfig:    HTTPConfig{Timeout: 12 * time.Second, UserAgent: "time-globe/0.5 (wiki-place module)"},
			DefaultLang:   "zh",
			VariantLimit:  5,
			MaxCandidates: 8,
			TopK:          2,
			CacheTTL:      24 * time.Hour,
		},
		RevGeo: RevGeoConfig{
			HTTPConfig: HTTPConfig{Timeout: 8 * time.Second, UserAgent: "time-globe/0.5 (revgeo module)"},
		},
		History: HistoryConfig{
			HTTPConfig:  HTTPConfig{Timeout: 120 * time.Second, UserAgent: "time-globe/0.5 (history module)"},
			GeminiModel: "gemini-2.5-flash",
			OpenAIModel: "gpt-5",
			Temperature: 0.2,
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8000",
			FrontendDir: "frontend",
		},
	}
}
