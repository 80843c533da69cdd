package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deidaraiorek/sitesearch/internal/service"
)

var (
	searchSite   string
	searchOffset int
	searchLimit  int
	searchJSON   bool
	statsJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed pages",
	Long: `Finds pages containing every lemma of the query. Lemmas that occur too
often on a site are ignored. Results are ranked by the summed occurrences of
the query lemmas relative to the best page.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	searchCmd.Flags().StringVarP(&searchSite, "site", "s", "", "restrict results to one site URL")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of results to skip")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default search.default_limit)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.svc.Search(context.Background(), args[0], searchSite, searchOffset, searchLimit)
	if !resp.Result {
		return fmt.Errorf("search failed: %s", resp.Error)
	}

	if searchJSON {
		return outputJSON(cmd, resp)
	}
	return outputSearchTable(cmd, resp)
}

func outputSearchTable(cmd *cobra.Command, resp service.SearchResponse) error {
	if len(resp.Data) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results %d-%d of %d:\n\n", searchOffset+1, searchOffset+len(resp.Data), resp.Count)
	for i, item := range resp.Data {
		title := item.Title
		if title == "" {
			title = item.URI
		}
		cmd.Printf("  [%d] %s (%.4f)\n", searchOffset+i+1, title, item.Relevance)
		cmd.Printf("      %s%s\n", item.Site, item.URI)
		if item.Snippet != "" {
			cmd.Printf("      %s\n", item.Snippet)
		}
		cmd.Println()
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.svc.Statistics(context.Background())
	if statsJSON {
		if !resp.Result {
			return errors.New(resp.Error)
		}
		return outputJSON(cmd, resp)
	}
	return printStatistics(cmd, resp)
}

func printStatistics(cmd *cobra.Command, resp service.StatisticsResponse) error {
	if !resp.Result {
		return errors.New(resp.Error)
	}

	total := resp.Statistics.Total
	cmd.Printf("Sites: %d  Pages: %d  Lemmas: %d  Indexing: %t\n", total.Sites, total.Pages, total.Lemmas, total.Indexing)
	for _, s := range resp.Statistics.Detailed {
		cmd.Printf("  %s (%s) %s at %s, %d pages, %d lemmas\n",
			s.URL, s.Name, s.Status, time.UnixMilli(s.StatusTime).Format(time.RFC3339), s.Pages, s.Lemmas)
		if s.Error != "" {
			cmd.Printf("      error: %s\n", s.Error)
		}
	}
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
