package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var addExternalID string

var addCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Add a bookmark",
	Long: `Embed and store a bookmark. Content is taken from the arguments, or
from stdin when called with "-".

Examples:

  markd add "interesting article about B-trees"
  cat notes.txt | markd add -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addExternalID, "external-id", "", "external ID for deduplication against synced bookmarks")
}

func runAdd(cmd *cobra.Command, args []string) error {
	content := strings.Join(args, " ")
	if content == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		content = strings.TrimSpace(string(data))
	}

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.ingester.Ingest(cmd.Context(), content, addExternalID)
	if err != nil {
		return err
	}

	fmt.Printf("Added bookmark %s\n", rec.ID)
	return nil
}
