// Package service coordinates crawling, indexing and search for the
// configured sites. Every exported operation returns a Response value.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/deidaraiorek/sitesearch/internal/config"
	"github.com/deidaraiorek/sitesearch/internal/crawler"
	"github.com/deidaraiorek/sitesearch/internal/indexer"
	"github.com/deidaraiorek/sitesearch/internal/lemmatizer"
	"github.com/deidaraiorek/sitesearch/internal/morphology"
	"github.com/deidaraiorek/sitesearch/internal/parser"
	"github.com/deidaraiorek/sitesearch/internal/search"
	"github.com/deidaraiorek/sitesearch/internal/storage"
)

var (
	ErrAlreadyRunning = errors.New("indexing is already running")
	ErrNotRunning     = errors.New("indexing is not running")
	ErrOutsideSites   = errors.New("page is outside the configured sites")
)

type Service struct {
	cfg     *config.Config
	db      *storage.Database
	fetcher crawler.PageFetcher
	crawler *crawler.Crawler
	indexer *indexer.Indexer
	engine  *search.Engine

	// mu guards cancel and done, which are non-nil exactly while a crawl or
	// single-page indexing is in progress.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New wires the service. renderer may be nil.
func New(cfg *config.Config, db *storage.Database, f crawler.PageFetcher, renderer crawler.Renderer) *Service {
	lem := lemmatizer.New(morphology.NewRussian())
	return &Service{
		cfg:     cfg,
		db:      db,
		fetcher: f,
		crawler: crawler.New(crawler.Config{
			Workers:      cfg.Workers(),
			RequestDelay: cfg.RequestDelay(),
			MaxPages:     cfg.Crawler.MaxPages,
		}, f, renderer, db),
		indexer: indexer.New(db, lem),
		engine:  search.NewEngine(db, lem, cfg.Search.MaxLemmaFrequency),
	}
}

// begin claims the single in-flight slot. The returned context is cancelled
// by Stop; release must be called when the work is finished.
func (s *Service) begin() (ctx context.Context, release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil, nil, ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	release = func() {
		s.mu.Lock()
		s.cancel = nil
		s.done = nil
		s.mu.Unlock()
		cancel()
		close(done)
	}
	return ctx, release, nil
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// StartCrawl recreates every configured site and crawls and indexes them in
// the background, one goroutine per site.
func (s *Service) StartCrawl() Response {
	ctx, release, err := s.begin()
	if err != nil {
		return fail(err.Error())
	}

	sites := make([]storage.Site, 0, len(s.cfg.Sites))
	for _, cs := range s.cfg.Sites {
		site, err := s.db.ReplaceSite(ctx, cs.URL, cs.Name)
		if err != nil {
			release()
			log.Error().Str("site", cs.URL).Err(err).Msg("failed to reset site")
			return fail(fmt.Sprintf("failed to reset site %s: %v", cs.URL, err))
		}
		sites = append(sites, *site)
	}

	go s.run(ctx, release, sites)
	return ok()
}

func (s *Service) run(ctx context.Context, release func(), sites []storage.Site) {
	defer release()

	log.Info().Int("sites", len(sites)).Msg("indexing started")
	var wg sync.WaitGroup
	for _, site := range sites {
		wg.Add(1)
		go func(site storage.Site) {
			defer wg.Done()
			s.crawlSite(ctx, site)
		}(site)
	}
	wg.Wait()
	log.Info().Msg("indexing finished")
}

func (s *Service) crawlSite(ctx context.Context, site storage.Site) {
	result := s.crawler.Crawl(ctx, site)
	if result.Status == storage.StatusFailed {
		return
	}

	logger := log.With().Str("run", result.RunID).Str("site", site.URL).Logger()

	if _, err := s.db.SavePages(ctx, result.Pages); err != nil {
		s.markFailed(ctx, site, err)
		return
	}
	indexed, err := s.indexer.IndexSite(ctx, site.ID)
	if err != nil {
		s.markFailed(ctx, site, err)
		return
	}

	if err := s.db.UpdateSiteStatus(context.WithoutCancel(ctx), site.ID, storage.StatusIndexed, ""); err != nil {
		logger.Error().Err(err).Msg("failed to mark site indexed")
		return
	}
	logger.Info().Int("pages", len(result.Pages)).Int("indexed", indexed).Msg("site indexed")
}

func (s *Service) markFailed(ctx context.Context, site storage.Site, err error) {
	reason := err.Error()
	if ctx.Err() != nil {
		reason = crawler.ReasonStopped
	}
	log.Error().Str("site", site.URL).Err(err).Msg("site indexing failed")
	if err := s.db.MarkSiteFailed(context.WithoutCancel(ctx), site.ID, reason); err != nil {
		log.Error().Str("site", site.URL).Err(err).Msg("failed to record site failure")
	}
}

// Stop cancels the running crawl and waits until every site has reached a
// final status.
func (s *Service) Stop() Response {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return fail(ErrNotRunning.Error())
	}
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	log.Info().Msg("indexing stopped by user")
	return ok()
}

// StartCrawlForURL fetches and indexes a single page of a configured site,
// replacing any previously stored version of it.
func (s *Service) StartCrawlForURL(rawURL string) Response {
	cs, found := s.cfg.FindSite(rawURL)
	if !found {
		return fail(ErrOutsideSites.Error())
	}

	ctx, release, err := s.begin()
	if err != nil {
		return fail(err.Error())
	}
	defer release()

	if err := s.indexURL(ctx, cs, parser.NormalizeURLString(rawURL)); err != nil {
		log.Error().Str("url", rawURL).Err(err).Msg("page indexing failed")
		return fail(err.Error())
	}
	return ok()
}

func (s *Service) indexURL(ctx context.Context, cs config.Site, pageURL string) error {
	resp, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return fmt.Errorf("page unavailable: %w", err)
	}

	site, err := s.db.FindSiteByURL(ctx, cs.URL)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		site, err = s.db.CreateSite(ctx, cs.URL, cs.Name)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := s.db.UpdateSiteStatus(ctx, site.ID, storage.StatusIndexing, ""); err != nil {
			return err
		}
	}

	page := &storage.Page{
		SiteID: site.ID,
		Path:   parser.PathOf(pageURL),
		Code:   resp.StatusCode,
	}
	if resp.IsHTML() {
		page.Content = resp.Body
	}

	if err := s.indexer.ReplacePage(ctx, page); err != nil {
		s.markFailed(ctx, *site, err)
		return err
	}
	if err := s.db.UpdateSiteStatus(context.WithoutCancel(ctx), site.ID, storage.StatusIndexed, ""); err != nil {
		return err
	}
	if page.Code != http.StatusOK {
		log.Warn().Str("url", pageURL).Int("status", page.Code).Msg("page stored without index")
	}
	return nil
}

// Search runs a query. A zero limit falls back to the configured default.
func (s *Service) Search(ctx context.Context, query, site string, offset, limit int) SearchResponse {
	if limit == 0 {
		limit = s.cfg.Search.DefaultLimit
	}
	if site != "" {
		canonical, err := config.CanonicalSiteURL(site)
		if err != nil {
			return SearchResponse{Response: fail(err.Error())}
		}
		site = canonical
	}

	res, err := s.engine.Search(ctx, search.Query{Text: query, Site: site, Offset: offset, Limit: limit})
	if err != nil {
		if !errors.Is(err, search.ErrEmptyQuery) && !errors.Is(err, search.ErrIndexNotReady) {
			log.Error().Str("query", query).Err(err).Msg("search failed")
		}
		return SearchResponse{Response: fail(err.Error())}
	}
	items := res.Items
	if items == nil {
		items = []search.Item{}
	}
	return SearchResponse{Response: ok(), Count: res.Total, Data: items}
}

// Statistics reports totals and per-site details of the stored index.
func (s *Service) Statistics(ctx context.Context) StatisticsResponse {
	sites, err := s.db.ListSites(ctx)
	if err != nil {
		return StatisticsResponse{Response: fail(err.Error())}
	}

	stats := Statistics{
		Total:    TotalStatistics{Sites: len(sites), Indexing: s.IsRunning()},
		Detailed: make([]SiteStatistics, 0, len(sites)),
	}
	for _, site := range sites {
		pages, err := s.db.CountPages(ctx, site.ID)
		if err != nil {
			return StatisticsResponse{Response: fail(err.Error())}
		}
		lemmas, err := s.db.CountLemmas(ctx, site.ID)
		if err != nil {
			return StatisticsResponse{Response: fail(err.Error())}
		}
		stats.Total.Pages += pages
		stats.Total.Lemmas += lemmas
		stats.Detailed = append(stats.Detailed, SiteStatistics{
			URL:        site.URL,
			Name:       site.Name,
			Status:     string(site.Status),
			StatusTime: site.StatusTime.UnixMilli(),
			Error:      site.LastError,
			Pages:      pages,
			Lemmas:     lemmas,
		})
	}
	return StatisticsResponse{Response: ok(), Statistics: stats}
}
