package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/sitesearch/internal/fetcher"
	"github.com/deidaraiorek/sitesearch/internal/storage"
)

type fakeRecorder struct {
	mu       sync.Mutex
	touches  int
	failures []string
	touchErr error
}

func (f *fakeRecorder) TouchSite(ctx context.Context, siteID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches++
	return f.touchErr
}

func (f *fakeRecorder) MarkSiteFailed(ctx context.Context, siteID int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, reason)
	return nil
}

func html(body string) string {
	return "<html><head><title>t</title></head><body>" + body + "</body></html>"
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, html(`
			<a href="/a">a</a>
			<a href="/b">b</a>
			<a href="/a">a again</a>
			<a href="/a#section">anchor</a>
			<a href="/photo.jpg">photo</a>
			<a href="/doc.pdf">pdf</a>
			<a href="https://elsewhere.example/">external</a>
			<a href="/missing">missing</a>`))
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, html(`<a href="/">home</a><a href="/b">b</a><a href="/c?x=1">c</a>`))
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, html(`<a href="/a">a</a>`))
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, html(`рыба`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestCrawler(t *testing.T, rec StatusRecorder, cfg Config) *Crawler {
	t.Helper()
	f, err := fetcher.New(fetcher.Options{UserAgent: "TestBot/1.0", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return New(cfg, f, nil, rec)
}

func paths(pages []storage.Page) []string {
	var out []string
	for _, p := range pages {
		out = append(out, p.Path)
	}
	sort.Strings(out)
	return out
}

func TestCrawlDiscoversSite(t *testing.T) {
	srv := newSite(t)
	rec := &fakeRecorder{}
	c := newTestCrawler(t, rec, Config{Workers: 4})

	result := c.Crawl(context.Background(), storage.Site{ID: 7, URL: srv.URL + "/"})

	require.NoError(t, result.Err)
	assert.Equal(t, storage.StatusIndexed, result.Status)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"/", "/a", "/b", "/c?x=1", "/missing"}, paths(result.Pages))
	assert.Empty(t, rec.failures)
	assert.Equal(t, len(result.Pages), rec.touches)

	for _, p := range result.Pages {
		assert.Equal(t, int64(7), p.SiteID)
		switch p.Path {
		case "/missing":
			assert.Equal(t, http.StatusNotFound, p.Code)
		case "/c?x=1":
			assert.Equal(t, http.StatusOK, p.Code)
			assert.Contains(t, p.Content, "рыба")
		default:
			assert.Equal(t, http.StatusOK, p.Code)
		}
	}
}

func TestCrawlMaxPages(t *testing.T) {
	srv := newSite(t)
	c := newTestCrawler(t, &fakeRecorder{}, Config{Workers: 2, MaxPages: 2})

	result := c.Crawl(context.Background(), storage.Site{ID: 1, URL: srv.URL + "/"})

	require.NoError(t, result.Err)
	assert.Len(t, result.Pages, 2)
}

func TestCrawlMainPageUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	c := newTestCrawler(t, rec, Config{Workers: 2})

	result := c.Crawl(context.Background(), storage.Site{ID: 1, URL: srv.URL + "/"})

	assert.Equal(t, storage.StatusFailed, result.Status)
	assert.True(t, errors.Is(result.Err, ErrMainPageUnavailable))
	require.Len(t, rec.failures, 1)
	assert.True(t, strings.HasPrefix(rec.failures[0], ReasonMainPageUnavailable))
	assert.Empty(t, result.Pages)
}

func TestCrawlUnreachableRoot(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/"
	srv.Close()

	rec := &fakeRecorder{}
	c := newTestCrawler(t, rec, Config{Workers: 1})

	result := c.Crawl(context.Background(), storage.Site{ID: 1, URL: url})

	assert.Equal(t, storage.StatusFailed, result.Status)
	assert.True(t, errors.Is(result.Err, ErrMainPageUnavailable))
}

func TestCrawlStoppedByCancel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var links strings.Builder
		for i := 0; i < 200; i++ {
			fmt.Fprintf(&links, `<a href="/p%d">p</a>`, i)
		}
		fmt.Fprint(w, html(links.String()))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rec := &fakeRecorder{}
	c := newTestCrawler(t, rec, Config{Workers: 4, RequestDelay: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(150*time.Millisecond, cancel)

	done := make(chan *Result, 1)
	go func() { done <- c.Crawl(ctx, storage.Site{ID: 1, URL: srv.URL + "/"}) }()

	select {
	case result := <-done:
		assert.Equal(t, storage.StatusFailed, result.Status)
		assert.True(t, errors.Is(result.Err, ErrStopped))
		assert.Less(t, len(result.Pages), 201)
		require.Len(t, rec.failures, 1)
		assert.Equal(t, ReasonStopped, rec.failures[0])
	case <-time.After(5 * time.Second):
		t.Fatal("crawl did not stop after cancel")
	}
}

func TestCrawlStorageErrorFails(t *testing.T) {
	srv := newSite(t)
	rec := &fakeRecorder{touchErr: errors.New("database is locked")}
	c := newTestCrawler(t, rec, Config{Workers: 2})

	result := c.Crawl(context.Background(), storage.Site{ID: 1, URL: srv.URL + "/"})

	assert.Equal(t, storage.StatusFailed, result.Status)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "database is locked")
	require.Len(t, rec.failures, 1)
}

type fakeRenderer struct {
	calls int
	mu    sync.Mutex
}

func (f *fakeRenderer) FetchHTML(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return html("<p>" + strings.Repeat("рыба плавает в реке ", 10) + "</p>"), nil
}

func TestCrawlRendersThinPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, html(`<div id="app"></div>`))
	}))
	defer srv.Close()

	f, err := fetcher.New(fetcher.Options{UserAgent: "TestBot/1.0", Timeout: 5 * time.Second})
	require.NoError(t, err)
	renderer := &fakeRenderer{}
	c := New(Config{Workers: 1}, f, renderer, &fakeRecorder{})

	result := c.Crawl(context.Background(), storage.Site{ID: 1, URL: srv.URL + "/"})

	require.NoError(t, result.Err)
	require.Len(t, result.Pages, 1)
	assert.Contains(t, result.Pages[0].Content, "рыба плавает")
	assert.Equal(t, 1, renderer.calls)
}
