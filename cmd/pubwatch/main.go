// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubwatch CLI: a bot that watches
// PubMed for new publications by tracked group members and announces each
// one exactly once to a Slack channel.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubwatch/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// credential resolves a credential: the environment variable wins, then the
// key file under .secrets/, then empty.
func credential(envName, secretKey string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	if v, ok := loadedSecrets[secretKey]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the pubwatch CLI.
var rootCmd = &cobra.Command{
	Use:   "pubwatch",
	Short: "Announce new PubMed publications by tracked authors to Slack",
	Long: `pubwatch searches PubMed for recent publications by a roster of tracked
authors, filters out publications it has already announced, and posts one
Slack message per new publication with the credited members mentioned.

The announced-publication ledger lives in the state directory and guarantees
each publication is announced at most once across runs.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pubwatch.yaml or ~/.config/pubwatch/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubwatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubwatch"))
		}
	}

	viper.SetEnvPrefix("PUBWATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
