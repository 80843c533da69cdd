package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Crawl and index every configured site",
	Long: `Deletes the stored data of every configured site, crawls each one from
its root URL and indexes the fetched pages. Interrupting the command stops
the crawl and marks unfinished sites as failed.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var indexPageCmd = &cobra.Command{
	Use:   "index-page [url]",
	Short: "Fetch and re-index a single page",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexPage,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(indexPageCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(cfg.Sites) == 0 {
		return errors.New("no sites configured")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if resp := a.svc.StartCrawl(); !resp.Result {
		return errors.New(resp.Error)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for a.svc.IsRunning() {
		select {
		case <-ctx.Done():
			a.svc.Stop()
		case <-ticker.C:
		}
	}

	return printStatistics(cmd, a.svc.Statistics(context.Background()))
}

func runIndexPage(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if resp := a.svc.StartCrawlForURL(args[0]); !resp.Result {
		return errors.New(resp.Error)
	}
	cmd.Printf("Indexed %s\n", args[0])
	return nil
}
