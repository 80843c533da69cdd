// Package search answers ranked keyword queries against the lemma index.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/deidaraiorek/sitesearch/internal/lemmatizer"
	"github.com/deidaraiorek/sitesearch/internal/parser"
	"github.com/deidaraiorek/sitesearch/internal/storage"
)

var (
	ErrEmptyQuery    = errors.New("empty query")
	ErrIndexNotReady = errors.New("index not ready")
)

// Store is the read side of *storage.Database used by the engine.
type Store interface {
	FindSiteByURL(ctx context.Context, url string) (*storage.Site, error)
	ListSites(ctx context.Context) ([]storage.Site, error)
	FindLemmas(ctx context.Context, siteID int64, texts []string, maxFrequency int) ([]storage.Lemma, error)
	PageIDsByLemma(ctx context.Context, lemmaID int64) ([]int64, error)
	RankSums(ctx context.Context, pageIDs, lemmaIDs []int64) (map[int64]int, error)
	PagesByIDs(ctx context.Context, ids []int64) (map[int64]storage.Page, error)
}

type Query struct {
	Text   string
	Site   string
	Offset int
	Limit  int
}

type Item struct {
	Site      string  `json:"site"`
	SiteName  string  `json:"siteName"`
	URI       string  `json:"uri"`
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance"`
}

type Results struct {
	Total int    `json:"count"`
	Items []Item `json:"data"`
}

type Engine struct {
	store             Store
	lemmatizer        *lemmatizer.Lemmatizer
	maxLemmaFrequency int
}

// NewEngine returns an engine that ignores lemmas occurring more than
// maxLemmaFrequency times on a site. Zero disables the cut.
func NewEngine(store Store, lem *lemmatizer.Lemmatizer, maxLemmaFrequency int) *Engine {
	return &Engine{
		store:             store,
		lemmatizer:        lem,
		maxLemmaFrequency: maxLemmaFrequency,
	}
}

type candidate struct {
	pageID   int64
	siteID   int64
	absolute int
}

func (e *Engine) Search(ctx context.Context, q Query) (*Results, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}

	var siteFilter int64
	sites := make(map[int64]storage.Site)
	if q.Site != "" {
		site, err := e.store.FindSiteByURL(ctx, q.Site)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrIndexNotReady
		}
		if err != nil {
			return nil, err
		}
		if site.Status != storage.StatusIndexed {
			return nil, ErrIndexNotReady
		}
		siteFilter = site.ID
		sites[site.ID] = *site
	}

	queryLemmas := e.lemmatizer.Lemmas(q.Text)
	if len(queryLemmas) == 0 {
		return &Results{}, nil
	}

	// A site must hold every query lemma; the frequency cut comes after.
	lemmas, err := e.store.FindLemmas(ctx, siteFilter, queryLemmas, 0)
	if err != nil {
		return nil, fmt.Errorf("find lemmas: %w", err)
	}

	// Lemmas arrive rarest first; grouping keeps that order per site.
	bySite := make(map[int64][]storage.Lemma)
	var siteOrder []int64
	for _, l := range lemmas {
		if _, ok := bySite[l.SiteID]; !ok {
			siteOrder = append(siteOrder, l.SiteID)
		}
		bySite[l.SiteID] = append(bySite[l.SiteID], l)
	}

	var candidates []candidate
	for _, siteID := range siteOrder {
		known := bySite[siteID]
		if len(known) < len(queryLemmas) {
			continue
		}
		retained := e.retain(known)
		if len(retained) == 0 {
			continue
		}
		found, err := e.siteCandidates(ctx, siteID, retained)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}

	results := &Results{Total: len(candidates)}
	if len(candidates) == 0 {
		return results, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].absolute != candidates[j].absolute {
			return candidates[i].absolute > candidates[j].absolute
		}
		return candidates[i].pageID < candidates[j].pageID
	})
	maxAbsolute := candidates[0].absolute

	window := paginate(candidates, q.Offset, q.Limit)
	if len(window) == 0 {
		return results, nil
	}

	if len(sites) == 0 {
		all, err := e.store.ListSites(ctx)
		if err != nil {
			return nil, fmt.Errorf("list sites: %w", err)
		}
		for _, s := range all {
			sites[s.ID] = s
		}
	}

	ids := make([]int64, len(window))
	for i, c := range window {
		ids[i] = c.pageID
	}
	pages, err := e.store.PagesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}

	m := newMatcher(e.lemmatizer, q.Text, queryLemmas)
	for _, c := range window {
		page, ok := pages[c.pageID]
		if !ok {
			log.Debug().Int64("page_id", c.pageID).Msg("page vanished during search")
			continue
		}
		site := sites[c.siteID]
		results.Items = append(results.Items, Item{
			Site:      strings.TrimSuffix(site.URL, "/"),
			SiteName:  site.Name,
			URI:       page.Path,
			Title:     parser.Title(page.Content),
			Snippet:   m.snippet(parser.PlainText(page.Content)),
			Relevance: relative(c.absolute, maxAbsolute),
		})
	}

	return results, nil
}

// retain drops the lemmas that occur more often than the engine's threshold.
func (e *Engine) retain(lemmas []storage.Lemma) []storage.Lemma {
	if e.maxLemmaFrequency <= 0 {
		return lemmas
	}
	out := make([]storage.Lemma, 0, len(lemmas))
	for _, l := range lemmas {
		if l.Frequency <= e.maxLemmaFrequency {
			out = append(out, l)
		}
	}
	return out
}

// siteCandidates intersects the page sets of a site's lemmas, rarest first,
// and scores the surviving pages.
func (e *Engine) siteCandidates(ctx context.Context, siteID int64, lemmas []storage.Lemma) ([]candidate, error) {
	var pageSet map[int64]struct{}
	lemmaIDs := make([]int64, 0, len(lemmas))

	for _, l := range lemmas {
		lemmaIDs = append(lemmaIDs, l.ID)
		ids, err := e.store.PageIDsByLemma(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("pages of lemma %q: %w", l.Lemma, err)
		}

		next := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if pageSet == nil {
				next[id] = struct{}{}
				continue
			}
			if _, ok := pageSet[id]; ok {
				next[id] = struct{}{}
			}
		}
		pageSet = next
		if len(pageSet) == 0 {
			return nil, nil
		}
	}

	pageIDs := make([]int64, 0, len(pageSet))
	for id := range pageSet {
		pageIDs = append(pageIDs, id)
	}
	sums, err := e.store.RankSums(ctx, pageIDs, lemmaIDs)
	if err != nil {
		return nil, fmt.Errorf("score pages: %w", err)
	}

	out := make([]candidate, 0, len(pageIDs))
	for _, id := range pageIDs {
		out = append(out, candidate{pageID: id, siteID: siteID, absolute: sums[id]})
	}
	return out, nil
}

func paginate(candidates []candidate, offset, limit int) []candidate {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 1
	}
	if offset >= len(candidates) {
		return nil
	}
	end := min(offset+limit, len(candidates))
	return candidates[offset:end]
}

// relative scales an absolute relevance into [0, 1] with four decimals.
func relative(absolute, maxAbsolute int) float64 {
	if maxAbsolute == 0 {
		return 0
	}
	return math.Round(float64(absolute)/float64(maxAbsolute)*10000) / 10000
}
