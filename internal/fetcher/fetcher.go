// Package fetcher retrieves pages over HTTP while honouring robots.txt.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

var ErrDisallowed = errors.New("disallowed by robots.txt")

type Options struct {
	UserAgent       string
	Timeout         time.Duration
	HonorRobots     bool
	RobotsCacheSize int
	MaxContentBytes int64
}

// Response is a fully read HTTP response. Non-2xx statuses are not errors.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
}

func (r *Response) IsHTML() bool {
	ct := strings.ToLower(r.ContentType)
	return ct == "" || strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

type Fetcher struct {
	client      *http.Client
	robotsCache *lru.Cache
	opts        Options
}

// robotsEntry wraps cached robots data; a nil data means "allow everything".
type robotsEntry struct {
	data *robotstxt.RobotsData
}

func New(opts Options) (*Fetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RobotsCacheSize <= 0 {
		opts.RobotsCacheSize = 1024
	}
	cache, err := lru.New(opts.RobotsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create robots cache: %w", err)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		robotsCache: cache,
		opts:        opts,
	}, nil
}

func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Response, error) {
	if !f.IsAllowed(ctx, urlStr) {
		return nil, ErrDisallowed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if f.opts.MaxContentBytes > 0 {
		body = io.LimitReader(resp.Body, f.opts.MaxContentBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &Response{
		URL:         urlStr,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(data),
	}, nil
}

func (f *Fetcher) IsAllowed(ctx context.Context, urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if !f.opts.HonorRobots {
		return true
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	var entry robotsEntry
	if cached, ok := f.robotsCache.Get(robotsURL); ok {
		entry = cached.(robotsEntry)
	} else {
		entry = robotsEntry{data: f.fetchRobotsTxt(ctx, robotsURL)}
		f.robotsCache.Add(robotsURL, entry)
	}

	if entry.data == nil {
		return true
	}
	return entry.data.TestAgent(u.Path, f.opts.UserAgent)
}

func (f *Fetcher) fetchRobotsTxt(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		log.Debug().Str("url", robotsURL).Err(err).Msg("robots.txt unavailable")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		log.Debug().Str("url", robotsURL).Err(err).Msg("robots.txt unparseable")
		return nil
	}
	return robots
}
