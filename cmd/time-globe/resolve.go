// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/time-globe/internal/resolve"
	"github.com/pdiddy/time-globe/internal/wiki"
	"github.com/pdiddy/time-globe/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [place]",
	Short: "Resolve a place name to an encyclopedia record",
	Long: `Resolve runs the full place resolution pipeline for one query: candidate
search across name variants, summary scoring, entity-type refinement, and
English fallback. The result record is printed as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("lang", "", "preferred language edition (default zh)")
	resolveCmd.Flags().String("country", "", "country hint")
	resolveCmd.Flags().String("admin1", "", "first-level administrative region hint")
	resolveCmd.Flags().String("city", "", "city hint")
	resolveCmd.Flags().Float64("lat", 0, "latitude hint")
	resolveCmd.Flags().Float64("lon", 0, "longitude hint")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg := appConfig()

	q := types.PlaceQuery{Text: strings.Join(args, " ")}
	q.Lang, _ = cmd.Flags().GetString("lang")
	q.Country, _ = cmd.Flags().GetString("country")
	q.Admin1, _ = cmd.Flags().GetString("admin1")
	q.City, _ = cmd.Flags().GetString("city")
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		q.Lat, q.Lon = &lat, &lon
	}

	resolver := resolve.New(wiki.New(cfg.Wiki), cfg.Wiki)
	result := resolver.ResolvePlace(cmd.Context(), q)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))

	if !result.OK {
		return fmt.Errorf("no result for %q", q.Text)
	}
	return nil
}
