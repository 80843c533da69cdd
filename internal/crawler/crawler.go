// Package crawler walks a single site from its root URL with a fixed pool of
// workers and returns the page records it fetched.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/deidaraiorek/sitesearch/internal/fetcher"
	"github.com/deidaraiorek/sitesearch/internal/frontier"
	"github.com/deidaraiorek/sitesearch/internal/parser"
	"github.com/deidaraiorek/sitesearch/internal/storage"
)

const (
	ReasonMainPageUnavailable = "main page unavailable"
	ReasonStopped             = "indexing stopped by user"
)

var (
	ErrMainPageUnavailable = errors.New(ReasonMainPageUnavailable)
	ErrStopped             = errors.New(ReasonStopped)
)

// PageFetcher is satisfied by *fetcher.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Response, error)
}

// Renderer is satisfied by *fetcher.BrowserFetcher.
type Renderer interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// StatusRecorder receives progress and failure updates for the crawled site.
type StatusRecorder interface {
	TouchSite(ctx context.Context, siteID int64) error
	MarkSiteFailed(ctx context.Context, siteID int64, reason string) error
}

type Config struct {
	Workers      int
	RequestDelay time.Duration
	MaxPages     int
}

type Result struct {
	RunID  string
	Pages  []storage.Page
	Status storage.Status
	Err    error
}

type Crawler struct {
	config   Config
	fetcher  PageFetcher
	renderer Renderer
	parser   *parser.Parser
	status   StatusRecorder
}

// New builds a crawler. renderer may be nil, in which case pages are never
// re-rendered in a browser.
func New(config Config, f PageFetcher, renderer Renderer, status StatusRecorder) *Crawler {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Crawler{
		config:   config,
		fetcher:  f,
		renderer: renderer,
		parser:   parser.New(),
		status:   status,
	}
}

// run is the state of one crawl of one site.
type run struct {
	id       string
	site     storage.Site
	frontier *frontier.Frontier
	limiter  *rate.Limiter
	cancel   context.CancelFunc

	mu      sync.Mutex
	pages   []storage.Page
	failure error
}

func (r *run) addPage(p storage.Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, p)
}

// fail records the first unrecoverable error and aborts the remaining work.
func (r *run) fail(err error) {
	r.mu.Lock()
	if r.failure == nil {
		r.failure = err
	}
	r.mu.Unlock()
	r.cancel()
}

// Crawl fetches site starting from its root URL. A site whose root cannot be
// fetched, a crawl that hits an unrecoverable error and a crawl cancelled
// through ctx all end FAILED, with the reason written through the
// StatusRecorder. A completed crawl reports INDEXED and leaves the site
// status untouched so the caller can index the pages first.
func (c *Crawler) Crawl(ctx context.Context, site storage.Site) *Result {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := rate.Inf
	if c.config.RequestDelay > 0 {
		limit = rate.Every(c.config.RequestDelay)
	}
	r := &run{
		id:       uuid.NewString(),
		site:     site,
		frontier: frontier.New(c.config.MaxPages),
		limiter:  rate.NewLimiter(limit, 1),
		cancel:   cancel,
	}
	logger := log.With().Str("run", r.id).Str("site", site.URL).Logger()
	logger.Info().Int("workers", c.config.Workers).Msg("crawl started")

	if err := c.preflight(runCtx, r); err != nil {
		return c.finish(ctx, r, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < c.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.worker(runCtx, r, workerID)
		}(i)
	}
	wg.Wait()

	r.mu.Lock()
	failure := r.failure
	r.mu.Unlock()
	if failure == nil && ctx.Err() != nil {
		failure = ErrStopped
	}
	return c.finish(ctx, r, failure)
}

func (c *Crawler) finish(ctx context.Context, r *run, failure error) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := &Result{RunID: r.id, Pages: r.pages, Status: storage.StatusIndexed}
	logger := log.With().Str("run", r.id).Str("site", r.site.URL).Logger()

	if failure == nil {
		logger.Info().Int("pages", len(r.pages)).Int("seen", r.frontier.SeenCount()).Msg("crawl completed")
		return result
	}

	result.Status = storage.StatusFailed
	result.Err = failure
	logger.Error().Err(failure).Int("pages", len(r.pages)).Msg("crawl failed")

	// The crawl context may already be cancelled; the status must still land.
	if err := c.status.MarkSiteFailed(context.WithoutCancel(ctx), r.site.ID, failure.Error()); err != nil {
		logger.Error().Err(err).Msg("failed to record site failure")
	}
	return result
}

// preflight fetches the root page. Anything but a 200 response makes the
// whole site unavailable. The root page itself becomes the first record.
func (c *Crawler) preflight(ctx context.Context, r *run) error {
	root := r.site.URL
	r.frontier.MarkSeen(root)

	if err := r.limiter.Wait(ctx); err != nil {
		return ErrStopped
	}
	resp, err := c.fetcher.Fetch(ctx, root)
	if err != nil {
		if ctx.Err() != nil {
			return ErrStopped
		}
		log.Warn().Str("run", r.id).Str("url", root).Err(err).Msg("root fetch failed")
		return fmt.Errorf("%w: %v", ErrMainPageUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrMainPageUnavailable, resp.StatusCode)
	}

	return c.record(ctx, r, root, resp)
}

func (c *Crawler) worker(ctx context.Context, r *run, workerID int) {
	for {
		if ctx.Err() != nil {
			return
		}

		url, ok := r.frontier.GetNext()
		if !ok {
			if r.frontier.Idle() {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		c.visit(ctx, r, workerID, url)
		r.frontier.Done()
	}
}

func (c *Crawler) visit(ctx context.Context, r *run, workerID int, url string) {
	if err := r.limiter.Wait(ctx); err != nil {
		return
	}

	resp, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Str("run", r.id).Int("worker", workerID).Str("url", url).Err(err).Msg("fetch failed")
		}
		return
	}

	if err := c.record(ctx, r, url, resp); err != nil {
		r.fail(err)
	}
}

// record turns a response into a page record, queues the links it carries
// and refreshes the site's status time. Only storage errors are returned.
func (c *Crawler) record(ctx context.Context, r *run, url string, resp *fetcher.Response) error {
	page := storage.Page{
		SiteID: r.site.ID,
		Path:   parser.PathOf(url),
		Code:   resp.StatusCode,
	}

	if resp.IsHTML() {
		body := resp.Body
		if resp.StatusCode == http.StatusOK {
			body = c.maybeRender(ctx, r, url, body)
		}
		page.Content = body

		_, links, err := c.parser.Parse(body, url)
		if err != nil {
			log.Warn().Str("run", r.id).Str("url", url).Err(err).Msg("parse failed")
		} else {
			var accepted []string
			for _, l := range links {
				if parser.IsCrawlable(r.site.URL, l.URL) {
					accepted = append(accepted, l.URL)
				}
			}
			if n := r.frontier.AddURLs(accepted); n > 0 {
				log.Debug().Str("run", r.id).Str("url", url).Int("links", n).Int("queued", r.frontier.Size()).Msg("queued links")
			}
		}
	}

	r.addPage(page)

	if err := c.status.TouchSite(ctx, r.site.ID); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("update status time: %w", err)
	}
	return nil
}

// maybeRender re-fetches a page through the browser when the plain HTTP
// response carried too little text.
func (c *Crawler) maybeRender(ctx context.Context, r *run, url, body string) string {
	if c.renderer == nil {
		return body
	}
	if page, _, err := c.parser.Parse(body, url); err == nil && page.HasSufficientContent() {
		return body
	}

	rendered, err := c.renderer.FetchHTML(ctx, url)
	if err != nil {
		log.Warn().Str("run", r.id).Str("url", url).Err(err).Msg("browser fetch failed")
		return body
	}
	log.Debug().Str("run", r.id).Str("url", url).Msg("using browser-rendered content")
	return rendered
}
