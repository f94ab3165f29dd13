// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: gemini-token, openai-api-key.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/time-globe/pkg/types"
)

// Key names recognized by Apply.
const (
	KeyGeminiToken = "gemini-token"
	KeyOpenAI      = "openai-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "err", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies recognized keys into the history configuration. An environment
// variable wins over a secrets file so deployments can inject keys without a
// mounted directory: GEMINI_TOKEN and OPENAI_API_KEY.
func Apply(cfg *types.HistoryConfig, secrets map[string]string) {
	cfg.GeminiToken = firstOf(os.Getenv("GEMINI_TOKEN"), secrets[KeyGeminiToken], cfg.GeminiToken)
	cfg.OpenAIKey = firstOf(os.Getenv("OPENAI_API_KEY"), secrets[KeyOpenAI], cfg.OpenAIKey)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
