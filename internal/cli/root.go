// Package cli implements the sitesearch command line.
package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/deidaraiorek/sitesearch/internal/config"
	"github.com/deidaraiorek/sitesearch/internal/fetcher"
	"github.com/deidaraiorek/sitesearch/internal/logging"
	"github.com/deidaraiorek/sitesearch/internal/service"
	"github.com/deidaraiorek/sitesearch/internal/storage"
)

var (
	configPath string

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "sitesearch",
	Short: "Crawl, index and search a set of web sites",
	Long: `sitesearch crawls the configured sites, builds a per-site index of
Russian word lemmas and answers ranked keyword queries against it.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML or TOML config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	closer, err := logging.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

// app holds everything a command needs to talk to the index.
type app struct {
	db  *storage.Database
	svc *service.Service
}

func openApp() (*app, error) {
	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	f, err := fetcher.New(fetcher.Options{
		UserAgent:       cfg.Crawler.UserAgent,
		Timeout:         cfg.HTTPTimeout(),
		HonorRobots:     cfg.Crawler.HonorRobots,
		RobotsCacheSize: cfg.Crawler.RobotsCacheSize,
		MaxContentBytes: cfg.Crawler.MaxContentBytes,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	var svc *service.Service
	if cfg.Crawler.RenderJS {
		svc = service.New(cfg, db, f, fetcher.NewBrowserFetcher(cfg.Crawler.UserAgent, cfg.HTTPTimeout()))
	} else {
		svc = service.New(cfg, db, f, nil)
	}

	log.Debug().Str("db", cfg.Storage.Path).Int("sites", len(cfg.Sites)).Msg("opened index")
	return &app{db: db, svc: svc}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
