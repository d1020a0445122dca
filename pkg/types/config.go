// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubwatch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PubMedConfig holds settings for the PubMed E-utilities client.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional NCBI API key. With a key NCBI permits 10
	// requests per second; without one the cap is 3 per second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestDelay is the minimum interval between consecutive requests.
	// Zero selects the cap that matches the credential tier.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxIDsPerSearch bounds the identifiers returned by one search (default 100).
	MaxIDsPerSearch int `json:"max_ids_per_search" yaml:"max_ids_per_search"`
}

// SlackConfig holds settings for the Slack notification client.
type SlackConfig struct {
	HTTPConfig `yaml:",inline"`

	// Token is the bot token used for chat.postMessage.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Channel is the channel ID announcements are posted to.
	Channel string `json:"channel" yaml:"channel"`

	// MessageDelay is the minimum interval between consecutive messages
	// (default 1s, the Slack per-channel cap).
	MessageDelay time.Duration `json:"message_delay" yaml:"message_delay"`
}

// RunConfig holds settings for one discovery-and-announcement run.
type RunConfig struct {
	// LookbackDays is the trailing window searched for new publications
	// (default 7).
	LookbackDays int `json:"lookback_days" yaml:"lookback_days"`

	// DryRun computes and prints announcements without dispatching them or
	// updating the ledger.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// FailFast aborts the run on the first search failure instead of
	// skipping the failing query.
	FailFast bool `json:"fail_fast" yaml:"fail_fast"`

	// MaxDispatchFailures aborts the run once this many messages have
	// failed to send (default 3). Zero disables the threshold.
	MaxDispatchFailures int `json:"max_dispatch_failures" yaml:"max_dispatch_failures"`

	// StateDir is the directory holding the ledger database, the run lock,
	// and the announcement archive (default "state").
	StateDir string `json:"state_dir" yaml:"state_dir"`

	// RosterPath is the CSV roster file (ignored in bypass mode).
	RosterPath string `json:"roster_path" yaml:"roster_path"`
}
