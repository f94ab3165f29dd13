// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/time-globe/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Generate historical context for a place",
}

var historyOverviewCmd = &cobra.Command{
	Use:   "overview [place]",
	Short: "Gemini summary from model knowledge (no web access)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistorySummary(cmd, args, func(g *history.Generator) summaryFunc {
			return g.Overview
		})
	},
}

var historyAdvancedCmd = &cobra.Command{
	Use:   "advanced [place]",
	Short: "OpenAI summary augmented with web search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistorySummary(cmd, args, func(g *history.Generator) summaryFunc {
			return g.Advanced
		})
	},
}

var historyEventsCmd = &cobra.Command{
	Use:   "events [place]",
	Short: "Search encyclopedia articles about a place",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistoryEvents,
}

func init() {
	for _, c := range []*cobra.Command{historyOverviewCmd, historyAdvancedCmd} {
		c.Flags().String("language", "", "response language (default 中文)")
	}
	historyEventsCmd.Flags().Bool("all-types", false, "include image and video results")

	historyCmd.AddCommand(historyOverviewCmd, historyAdvancedCmd, historyEventsCmd)
	rootCmd.AddCommand(historyCmd)
}

type summaryFunc = func(ctx context.Context, place, language string) (string, error)

func runHistorySummary(cmd *cobra.Command, args []string, pick func(*history.Generator) summaryFunc) error {
	cfg := appConfig()
	language, _ := cmd.Flags().GetString("language")

	generator := history.NewGenerator(cfg.History)
	text, err := pick(generator)(cmd.Context(), strings.Join(args, " "), language)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, text)
	return nil
}

func runHistoryEvents(cmd *cobra.Command, args []string) error {
	cfg := appConfig()
	allTypes, _ := cmd.Flags().GetBool("all-types")

	searcher := history.NewEventSearcher(cfg.History)
	result, err := searcher.Search(cmd.Context(), strings.Join(args, " "), !allTypes)
	if err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("events search failed: %s", result.Error)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
