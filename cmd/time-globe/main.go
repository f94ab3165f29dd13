// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the time-globe CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/time-globe/internal/secrets"
	"github.com/pdiddy/time-globe/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the time-globe CLI.
var rootCmd = &cobra.Command{
	Use:   "time-globe",
	Short: "Place resolution and historical context for the globe frontend",
	Long: `time-globe resolves clicked globe coordinates and typed place names to
encyclopedia records, reverse-geocodes coordinates to administrative regions,
and generates historical summaries through LLM providers.

Each capability is a subcommand: serve runs the HTTP API and frontend, while
resolve, revgeo, history, and assets exercise the components directly.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./time-globe.yaml or ~/.config/time-globe/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("time-globe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "time-globe"))
		}
	}

	viper.SetEnvPrefix("TIME_GLOBE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// appConfig assembles the effective configuration: built-in defaults, then
// config file and environment overrides, then API keys from the secrets
// directory.
func appConfig() types.AppConfig {
	cfg := types.DefaultConfig()

	if v := viper.GetString("wiki.default_lang"); v != "" {
		cfg.Wiki.DefaultLang = v
	}
	if v := viper.GetDuration("wiki.cache_ttl"); v > 0 {
		cfg.Wiki.CacheTTL = v
	}
	if v := viper.GetString("history.gemini_model"); v != "" {
		cfg.History.GeminiModel = v
	}
	if v := viper.GetString("history.openai_model"); v != "" {
		cfg.History.OpenAIModel = v
	}
	if v := viper.GetString("server.addr"); v != "" {
		cfg.Server.Addr = v
	}
	if v := viper.GetString("server.frontend_dir"); v != "" {
		cfg.Server.FrontendDir = v
	}
	if v := viper.GetString("server.assets_manifest"); v != "" {
		cfg.Server.AssetsManifest = v
	}

	secrets.Apply(&cfg.History, loadedSecrets)
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
