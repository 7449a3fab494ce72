package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync bookmarks from the external source",
	Long: `Fetch the current bookmark list from the external source, diff it
against the local store by external ID, and ingest anything missing.
Already-stored bookmarks are never touched; re-running is always safe.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.newSyncer()
	if err != nil {
		return err
	}

	result, err := engine.Sync(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Added %d bookmark(s)\n", result.Added)
	if len(result.Failures) > 0 {
		fmt.Printf("%d item(s) failed and will be retried on the next sync:\n", len(result.Failures))
		for _, f := range result.Failures {
			fmt.Printf("  %s: %v\n", f.ExternalID, f.Err)
		}
	}
	return nil
}
