// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/time-globe/internal/revgeo"
)

var revgeoCmd = &cobra.Command{
	Use:   "revgeo <lat> <lon>",
	Short: "Reverse-geocode a coordinate pair",
	Long: `Revgeo maps a latitude/longitude pair to its administrative hierarchy using
the provider fallback chain (BigDataCloud, Nominatim, Open-Meteo) and prints
the normalized result as JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: runRevGeo,
}

func init() {
	rootCmd.AddCommand(revgeoCmd)
}

func runRevGeo(cmd *cobra.Command, args []string) error {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q", args[0])
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q", args[1])
	}

	cfg := appConfig()
	chain := revgeo.NewChain(cfg.RevGeo)
	result := chain.Lookup(cmd.Context(), lat, lon)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))

	if result.Source == nil {
		return fmt.Errorf("all reverse-geocoding providers failed")
	}
	return nil
}
