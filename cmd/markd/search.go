package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchThreshold float32
	searchLimit     int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search bookmarks by meaning",
	Long: `Embed the query and return the stored bookmarks most similar to it,
ordered by descending similarity.

Examples:

  markd search "go concurrency patterns"
  markd search --threshold 0.5 --limit 3 "database migrations"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Float32Var(&searchThreshold, "threshold", 0, "minimum similarity (default from config)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default from config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	threshold := float32(a.cfg.Search.Threshold)
	if cmd.Flags().Changed("threshold") {
		threshold = searchThreshold
	}
	limit := a.cfg.Search.Limit
	if searchLimit > 0 {
		limit = searchLimit
	}

	query := strings.Join(args, " ")
	results, err := a.searcher.Search(cmd.Context(), query, threshold, limit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No matches")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%2d. [%.3f] %s\n", i+1, r.Similarity, r.Content)
	}
	return nil
}
