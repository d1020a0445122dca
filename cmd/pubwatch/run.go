// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubwatch/internal/ledger"
	"github.com/pdiddy/pubwatch/internal/pacer"
	"github.com/pdiddy/pubwatch/internal/pipeline"
	"github.com/pdiddy/pubwatch/internal/pubmed"
	"github.com/pdiddy/pubwatch/internal/roster"
	"github.com/pdiddy/pubwatch/internal/slack"
	"github.com/pdiddy/pubwatch/pkg/types"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultLookbackDays = 7
	defaultMaxFailures  = 3
	defaultMessageDelay = 1 * time.Second
	defaultStateDir     = "state"
	defaultUserAgent    = "pubwatch/0.1"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search PubMed and announce new publications to Slack",
	Long: `Run executes one discovery-and-announcement pass: expand every roster
entry into search queries, search PubMed over the lookback window, drop
publications already in the ledger, fetch metadata for the rest, and post
one Slack message per new publication.

With --authors the roster file is bypassed and the given names are tracked
for this run only (no Slack mentions, shared --affiliation).`,
	RunE: runRun,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the announcements a run would post, without posting",
	Long: `Preview is run with --dry-run forced on: messages are computed and
printed but nothing is sent and the ledger is not updated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Set("dry-run", "true"); err != nil {
			return err
		}
		return runRun(cmd, args)
	},
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("days", 0, fmt.Sprintf("lookback window in days (default %d)", defaultLookbackDays))
	cmd.Flags().Bool("dry-run", false, "print messages without posting or updating the ledger")
	cmd.Flags().String("authors", "", "comma-separated author names to track, bypassing the roster file")
	cmd.Flags().String("affiliation", "", "affiliation filter overriding per-entry affiliations")
	cmd.Flags().String("roster", "", "roster CSV file (default from config)")
	cmd.Flags().String("state-dir", "", fmt.Sprintf("state directory for ledger and archive (default %q)", defaultStateDir))
	cmd.Flags().Bool("fail-fast", false, "abort the run on the first search failure")
	cmd.Flags().Int("max-failures", 0, fmt.Sprintf("abort after this many failed messages (default %d)", defaultMaxFailures))
	cmd.Flags().Duration("timeout", 0, fmt.Sprintf("HTTP request timeout (default %v)", defaultTimeout))
	cmd.Flags().Duration("pubmed-delay", 0, "minimum delay between PubMed requests (default per credential tier)")
	cmd.Flags().Duration("message-delay", 0, fmt.Sprintf("minimum delay between Slack messages (default %v)", defaultMessageDelay))
}

func init() {
	addRunFlags(runCmd)
	addRunFlags(previewCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)
}

// stringSetting resolves a string flag with a viper config fallback.
func stringSetting(cmd *cobra.Command, flag, configKey, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v := viper.GetString(configKey); v != "" {
		return v
	}
	return fallback
}

func runRun(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		if days = viper.GetInt("lookback_days"); days <= 0 {
			days = defaultLookbackDays
		}
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	authorsFlag, _ := cmd.Flags().GetString("authors")
	affiliation, _ := cmd.Flags().GetString("affiliation")
	failFast, _ := cmd.Flags().GetBool("fail-fast")
	maxFailures, _ := cmd.Flags().GetInt("max-failures")
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pubmedDelay, _ := cmd.Flags().GetDuration("pubmed-delay")
	messageDelay, _ := cmd.Flags().GetDuration("message-delay")
	if messageDelay <= 0 {
		messageDelay = defaultMessageDelay
	}

	rosterPath := stringSetting(cmd, "roster", "roster", "")
	stateDir := stringSetting(cmd, "state-dir", "state_dir", defaultStateDir)

	apiKey := credential("NCBI_API_KEY", "ncbi-api-key")
	token := credential("SLACK_BOT_TOKEN", "slack-bot-token")
	channel := credential("SLACK_CHANNEL_ID", "slack-channel-id")
	if channel == "" {
		channel = viper.GetString("slack.channel")
	}

	// Validate configuration before any network call.
	if !dryRun {
		if token == "" {
			return fmt.Errorf("missing Slack bot token: set SLACK_BOT_TOKEN or .secrets/slack-bot-token (or use --dry-run)")
		}
		if channel == "" {
			return fmt.Errorf("missing Slack channel: set SLACK_CHANNEL_ID, .secrets/slack-channel-id, or slack.channel in the config file")
		}
	}

	// Load the roster, or build an ad-hoc one in bypass mode.
	var entries []types.RosterEntry
	if authorsFlag != "" {
		entries = roster.AdHoc(strings.Split(authorsFlag, ","), affiliation)
		fmt.Printf("Tracking %d ad-hoc author(s), bypassing the roster\n", len(entries))
	} else {
		if rosterPath == "" {
			return fmt.Errorf("missing roster: pass --roster, set roster in the config file, or use --authors")
		}
		var err error
		entries, err = roster.LoadFile(rosterPath, os.Stderr)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d roster entr(ies) from %s\n", len(entries), rosterPath)

		// A global affiliation overrides per-entry affiliations.
		if affiliation != "" {
			for i := range entries {
				entries[i].Affiliation = affiliation
			}
		}
	}
	if len(entries) == 0 {
		return fmt.Errorf("no authors to track")
	}

	led, err := ledger.Open(stateDir)
	if err != nil {
		return err
	}
	defer led.Close()
	fmt.Printf("Ledger holds %d announced publication(s)\n", led.Len())

	client := pubmed.NewClient(types.PubMedConfig{
		HTTPConfig:   types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
		APIKey:       apiKey,
		RequestDelay: pubmedDelay,
	})
	notifier := slack.NewClient(types.SlackConfig{
		HTTPConfig:   types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
		Token:        token,
		Channel:      channel,
		MessageDelay: messageDelay,
	})

	if dryRun {
		fmt.Println("DRY RUN - no messages will be posted")
	}

	res, err := pipeline.Run(context.Background(), entries, pipeline.Deps{
		Searcher:      client,
		Fetcher:       client,
		Notifier:      notifier,
		Ledger:        led,
		DispatchPacer: pacer.New(messageDelay),
	}, types.RunConfig{
		LookbackDays:        days,
		DryRun:              dryRun,
		FailFast:            failFast,
		MaxDispatchFailures: maxFailures,
		StateDir:            stateDir,
		RosterPath:          rosterPath,
	}, os.Stdout)
	if err != nil {
		return err
	}

	if res.SearchesFailed > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d search(es) failed and were skipped\n", res.SearchesFailed)
	}
	return nil
}
