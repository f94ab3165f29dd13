// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/time-globe/internal/assets"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Mirror frontend assets from their CDNs",
	Long: `Assets downloads the frontend's third-party files (globe texture, three.js,
OrbitControls, country outlines) into the frontend directory, trying each
mirror in order. Files already present are skipped.`,
	RunE: runAssets,
}

func init() {
	assetsCmd.Flags().String("frontend", "", "frontend directory (default ./frontend)")
	assetsCmd.Flags().String("manifest", "", "YAML manifest overriding the built-in asset list")

	rootCmd.AddCommand(assetsCmd)
}

func runAssets(cmd *cobra.Command, args []string) error {
	cfg := appConfig()
	if dir, _ := cmd.Flags().GetString("frontend"); dir != "" {
		cfg.Server.FrontendDir = dir
	}
	if path, _ := cmd.Flags().GetString("manifest"); path != "" {
		cfg.Server.AssetsManifest = path
	}

	manifest := assets.DefaultManifest()
	if cfg.Server.AssetsManifest != "" {
		m, err := assets.LoadManifest(cfg.Server.AssetsManifest)
		if err != nil {
			return err
		}
		manifest = m
	}

	result := assets.Ensure(http.DefaultClient, manifest, cfg.Server.FrontendDir, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d asset(s) could not be mirrored", result.Failed)
	}
	return nil
}
