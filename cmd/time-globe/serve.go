// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/time-globe/internal/assets"
	"github.com/pdiddy/time-globe/internal/history"
	"github.com/pdiddy/time-globe/internal/resolve"
	"github.com/pdiddy/time-globe/internal/revgeo"
	"github.com/pdiddy/time-globe/internal/server"
	"github.com/pdiddy/time-globe/internal/wiki"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and serve the globe frontend",
	Long: `Serve starts the HTTP server: the /api endpoints for place resolution,
reverse geocoding, and historical summaries, plus the static globe frontend.
Missing frontend assets (textures, three.js, country outlines) are mirrored
on startup unless --no-assets is given.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8000)")
	serveCmd.Flags().String("frontend", "", "frontend directory (default ./frontend)")
	serveCmd.Flags().Bool("no-assets", false, "skip the startup asset mirror check")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if dir, _ := cmd.Flags().GetString("frontend"); dir != "" {
		cfg.Server.FrontendDir = dir
	}

	if noAssets, _ := cmd.Flags().GetBool("no-assets"); !noAssets {
		ensureAssets(cfg.Server.AssetsManifest, cfg.Server.FrontendDir)
	}

	wikiClient := wiki.New(cfg.Wiki)
	resolver := resolve.New(wikiClient, cfg.Wiki)
	chain := revgeo.NewChain(cfg.RevGeo)
	generator := history.NewGenerator(cfg.History)
	events := history.NewEventSearcher(cfg.History)

	srv := server.New(cfg.Server, resolver, chain, generator, events)

	fmt.Fprintf(os.Stderr, "Listening on %s\n", cfg.Server.Addr)
	return srv.Router().Run(cfg.Server.Addr)
}

// ensureAssets mirrors missing frontend assets. Failures are reported but do
// not stop the server: the API works without the globe textures.
func ensureAssets(manifestPath, frontendDir string) {
	manifest := assets.DefaultManifest()
	if manifestPath != "" {
		m, err := assets.LoadManifest(manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v (using built-in asset list)\n", err)
		} else {
			manifest = m
		}
	}
	result := assets.Ensure(http.DefaultClient, manifest, frontendDir, os.Stderr)
	if result.HasFailures() {
		fmt.Fprintf(os.Stderr, "warning: %d asset(s) could not be mirrored\n", result.Failed)
	}
}
