// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubwatch/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or import the announcement ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every announced PubMed ID in the ledger",
	RunE:  runLedgerList,
}

var ledgerImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Merge announced IDs from a legacy JSON state file",
	Long: `Import reads a JSON file of the shape {"pmids": ["123", ...]} and marks
every listed ID as announced. IDs already in the ledger are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runLedgerImport,
}

func init() {
	ledgerCmd.PersistentFlags().String("state-dir", defaultStateDir, "state directory holding the ledger")

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerImportCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func openLedger(cmd *cobra.Command) (*ledger.Store, error) {
	stateDir, err := cmd.Flags().GetString("state-dir")
	if err != nil {
		return nil, err
	}
	return ledger.Open(stateDir)
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	store, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, id := range store.IDs() {
		fmt.Println(id)
	}
	fmt.Fprintf(os.Stderr, "%d announced\n", store.Len())
	return nil
}

func runLedgerImport(cmd *cobra.Command, args []string) error {
	store, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	added, err := store.ImportJSON(cmd.Context(), f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d new ID(s), ledger now holds %d\n", added, store.Len())
	return nil
}
