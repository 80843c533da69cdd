package search

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/sitesearch/internal/indexer"
	"github.com/deidaraiorek/sitesearch/internal/lemmatizer"
	"github.com/deidaraiorek/sitesearch/internal/morphology"
	"github.com/deidaraiorek/sitesearch/internal/storage"
)

type fixture struct {
	db      *storage.Database
	lem     *lemmatizer.Lemmatizer
	indexer *indexer.Indexer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "search.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	lem := lemmatizer.New(morphology.NewRussian())
	return &fixture{db: db, lem: lem, indexer: indexer.New(db, lem)}
}

func (f *fixture) site(t *testing.T, url, name string, status storage.Status, pages map[string]string) *storage.Site {
	t.Helper()
	ctx := context.Background()
	site, err := f.db.CreateSite(ctx, url, name)
	require.NoError(t, err)
	for path, body := range pages {
		content := "<html><head><title>" + path + "</title></head><body>" + body + "</body></html>"
		require.NoError(t, f.indexer.ReplacePage(ctx, &storage.Page{SiteID: site.ID, Path: path, Code: 200, Content: content}))
	}
	require.NoError(t, f.db.UpdateSiteStatus(ctx, site.ID, status, ""))
	return site
}

func (f *fixture) engine(maxFreq int) *Engine {
	return NewEngine(f.db, f.lem, maxFreq)
}

func uris(r *Results) []string {
	var out []string
	for _, it := range r.Items {
		out = append(out, it.URI)
	}
	return out
}

func TestSearchFishScenario(t *testing.T) {
	f := newFixture(t)
	f.site(t, "https://fish.example/", "Fish", storage.StatusIndexed, map[string]string{
		"/river": "<p>Рыба плавает в реке</p>",
		"/pond":  "<p>Рыба в пруду</p>",
	})
	e := f.engine(1000)
	ctx := context.Background()

	res, err := e.Search(ctx, Query{Text: "рыба", Site: "https://fish.example/", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.ElementsMatch(t, []string{"/river", "/pond"}, uris(res))
	for _, it := range res.Items {
		assert.Equal(t, 1.0, it.Relevance, it.URI)
	}

	res, err = e.Search(ctx, Query{Text: "пруд", Site: "https://fish.example/", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "/pond", res.Items[0].URI)
	assert.Equal(t, 1.0, res.Items[0].Relevance)

	res, err = e.Search(ctx, Query{Text: "рыба пруд", Site: "https://fish.example/", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	item := res.Items[0]
	assert.Equal(t, "/pond", item.URI)
	assert.Equal(t, "/pond", item.Title)
	assert.Equal(t, 1.0, item.Relevance)
	assert.Equal(t, "https://fish.example", item.Site)
	assert.Equal(t, "Fish", item.SiteName)
	assert.Equal(t, "<b>Рыба</b> в <b>пруду</b>", item.Snippet)
}

func TestSearchRequiresEveryLemma(t *testing.T) {
	f := newFixture(t)
	f.site(t, "https://fish.example/", "Fish", storage.StatusIndexed, map[string]string{
		"/river": "<p>Рыба плавает в реке</p>",
		"/pond":  "<p>Рыба в пруду</p>",
	})
	f.site(t, "https://sea.example/", "Sea", storage.StatusIndexed, map[string]string{
		"/": "<p>Акула и рыба</p>",
	})
	e := f.engine(1000)
	ctx := context.Background()

	res, err := e.Search(ctx, Query{Text: "рыба акула", Site: "https://fish.example/", Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Items)

	res, err = e.Search(ctx, Query{Text: "рыба акула", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "Sea", res.Items[0].SiteName)
}

func TestSearchEmptyQuery(t *testing.T) {
	e := newFixture(t).engine(1000)

	for _, q := range []string{"", "   "} {
		_, err := e.Search(context.Background(), Query{Text: q, Limit: 10})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
}

func TestSearchIndexNotReady(t *testing.T) {
	f := newFixture(t)
	f.site(t, "https://busy.example/", "Busy", storage.StatusIndexing, map[string]string{"/": "рыба"})
	f.site(t, "https://broken.example/", "Broken", storage.StatusFailed, nil)
	e := f.engine(1000)

	for _, site := range []string{"https://busy.example/", "https://broken.example/", "https://unknown.example/"} {
		_, err := e.Search(context.Background(), Query{Text: "рыба", Site: site, Limit: 10})
		assert.ErrorIs(t, err, ErrIndexNotReady, site)
	}
}

func TestSearchOnlyFunctionWords(t *testing.T) {
	f := newFixture(t)
	f.site(t, "https://fish.example/", "Fish", storage.StatusIndexed, map[string]string{"/": "рыба"})

	res, err := f.engine(1000).Search(context.Background(), Query{Text: "в на через", Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Items)
}

func TestSearchRelevanceAndPagination(t *testing.T) {
	f := newFixture(t)
	pages := map[string]string{}
	for i := 1; i <= 5; i++ {
		pages[fmt.Sprintf("/p%d", i)] = strings.Repeat("рыба ", i)
	}
	f.site(t, "https://fish.example/", "Fish", storage.StatusIndexed, pages)
	e := f.engine(1000)
	ctx := context.Background()

	all, err := e.Search(ctx, Query{Text: "рыба", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 5, all.Total)
	assert.Equal(t, []string{"/p5", "/p4", "/p3", "/p2", "/p1"}, uris(all))
	assert.Equal(t, 1.0, all.Items[0].Relevance)
	for i, it := range all.Items {
		assert.GreaterOrEqual(t, it.Relevance, 0.0)
		assert.LessOrEqual(t, it.Relevance, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, it.Relevance, all.Items[i-1].Relevance)
		}
	}
	assert.Equal(t, 0.2, all.Items[4].Relevance)

	var paged []string
	for offset := 0; offset < 5; offset += 2 {
		res, err := e.Search(ctx, Query{Text: "рыба", Offset: offset, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, res.Total)
		paged = append(paged, uris(res)...)
	}
	assert.Equal(t, uris(all), paged)

	res, err := e.Search(ctx, Query{Text: "рыба", Offset: 10, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Empty(t, res.Items)

	res, err = e.Search(ctx, Query{Text: "рыба", Offset: -3, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"/p5"}, uris(res))
}

func TestSearchDropsFrequentLemmas(t *testing.T) {
	f := newFixture(t)
	f.site(t, "https://fish.example/", "Fish", storage.StatusIndexed, map[string]string{
		"/a": strings.Repeat("рыба ", 10),
		"/b": "рыба пруд",
		"/c": "пруд",
	})

	res, err := f.engine(5).Search(context.Background(), Query{Text: "рыба пруд", Limit: 10})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/b", "/c"}, uris(res))
}

func TestSearchAcrossSites(t *testing.T) {
	f := newFixture(t)
	f.site(t, "https://one.example/", "One", storage.StatusIndexed, map[string]string{"/": "рыба рыба"})
	f.site(t, "https://two.example/", "Two", storage.StatusIndexed, map[string]string{"/": "рыба"})
	ctx := context.Background()

	res, err := f.engine(1000).Search(ctx, Query{Text: "рыба", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, "One", res.Items[0].SiteName)
	assert.Equal(t, 1.0, res.Items[0].Relevance)
	assert.Equal(t, "Two", res.Items[1].SiteName)
	assert.Equal(t, 0.5, res.Items[1].Relevance)

	res, err = f.engine(1000).Search(ctx, Query{Text: "рыба", Site: "https://two.example/", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "Two", res.Items[0].SiteName)
	assert.Equal(t, 1.0, res.Items[0].Relevance)
}
