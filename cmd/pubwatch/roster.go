// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubwatch/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Parse the roster file and print the expanded query keys",
	Long: `Roster loads the roster CSV, reports rows skipped at the boundary, and
prints every entry with the search queries that a run would issue for it.
Useful for validating the roster before a real run.`,
	RunE: runRoster,
}

func init() {
	rosterCmd.Flags().String("roster", "", "roster CSV file (default from config)")

	rootCmd.AddCommand(rosterCmd)
}

func runRoster(cmd *cobra.Command, args []string) error {
	rosterPath := stringSetting(cmd, "roster", "roster", "")
	if rosterPath == "" {
		return fmt.Errorf("missing roster: pass --roster or set roster in the config file")
	}

	entries, err := roster.LoadFile(rosterPath, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Printf("%-24s  %-12s  %-16s  %s\n", "Name", "Mention", "Affiliation", "Queries")
	fmt.Println(strings.Repeat("-", 80))

	for _, e := range entries {
		keys := roster.QueryKeys(e)
		names := make([]string, 0, len(keys))
		for _, k := range keys {
			names = append(names, k.Name)
		}
		mention := e.MentionID
		if mention == "" {
			mention = "-"
		}
		affil := e.Affiliation
		if affil == "" {
			affil = "-"
		}
		fmt.Printf("%-24s  %-12s  %-16s  %s\n", e.CanonicalName, mention, affil, strings.Join(names, "; "))
	}

	fmt.Printf("\n%d entr(ies)\n", len(entries))
	return nil
}
