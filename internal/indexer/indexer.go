// Package indexer turns stored pages into per-site lemma frequencies and
// index entries.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/deidaraiorek/sitesearch/internal/lemmatizer"
	"github.com/deidaraiorek/sitesearch/internal/parser"
	"github.com/deidaraiorek/sitesearch/internal/storage"
)

const defaultBatchSize = 100

// Store is the part of *storage.Database the indexer writes through.
type Store interface {
	PagesAfterID(ctx context.Context, siteID, afterID int64, limit int) ([]storage.Page, error)
	ReplacePageIndex(ctx context.Context, siteID, pageID int64, lemmas map[string]int) error
	FindPageByPath(ctx context.Context, siteID int64, path string) (*storage.Page, error)
	SavePage(ctx context.Context, page *storage.Page) (int64, error)
	DeletePage(ctx context.Context, pageID int64) error
}

type Indexer struct {
	store      Store
	lemmatizer *lemmatizer.Lemmatizer
	batchSize  int
}

func New(store Store, lem *lemmatizer.Lemmatizer) *Indexer {
	return &Indexer{
		store:      store,
		lemmatizer: lem,
		batchSize:  defaultBatchSize,
	}
}

// PageLemmas returns the lemma counts of a stored page: its title and
// visible text.
func (idx *Indexer) PageLemmas(page storage.Page) map[string]int {
	text := parser.Title(page.Content) + " " + parser.PlainText(page.Content)
	return idx.lemmatizer.CollectLemmas(text)
}

// IndexPage replaces the index entries of one stored page with those of its
// current content.
func (idx *Indexer) IndexPage(ctx context.Context, page storage.Page) error {
	if err := idx.store.ReplacePageIndex(ctx, page.SiteID, page.ID, idx.PageLemmas(page)); err != nil {
		return fmt.Errorf("index page %s: %w", page.Path, err)
	}
	return nil
}

// IndexSite indexes every stored page of a site that was fetched with status
// 200. A page that fails to index is logged and skipped. It returns the
// number of pages indexed.
func (idx *Indexer) IndexSite(ctx context.Context, siteID int64) (int, error) {
	var lastID int64
	indexed := 0

	for {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}

		pages, err := idx.store.PagesAfterID(ctx, siteID, lastID, idx.batchSize)
		if err != nil {
			return indexed, fmt.Errorf("load pages of site %d: %w", siteID, err)
		}
		if len(pages) == 0 {
			break
		}

		for _, page := range pages {
			lastID = page.ID
			if page.Code != http.StatusOK {
				continue
			}
			if err := idx.IndexPage(ctx, page); err != nil {
				if ctx.Err() != nil {
					return indexed, ctx.Err()
				}
				log.Warn().Int64("site_id", siteID).Str("path", page.Path).Err(err).Msg("page indexing failed")
				continue
			}
			indexed++
		}

		log.Debug().Int64("site_id", siteID).Int("indexed", indexed).Int64("last_id", lastID).Msg("indexed batch")
	}

	return indexed, nil
}

// ReplacePage stores a freshly fetched page in place of any earlier version
// with the same path. The old version's contribution to lemma frequencies is
// removed before the new content is indexed. The page's ID is set on return.
func (idx *Indexer) ReplacePage(ctx context.Context, page *storage.Page) error {
	old, err := idx.store.FindPageByPath(ctx, page.SiteID, page.Path)
	switch {
	case err == nil:
		if err := idx.store.DeletePage(ctx, old.ID); err != nil {
			return fmt.Errorf("remove previous version of %s: %w", page.Path, err)
		}
	case !errors.Is(err, storage.ErrNotFound):
		return err
	}

	if _, err := idx.store.SavePage(ctx, page); err != nil {
		return fmt.Errorf("save page %s: %w", page.Path, err)
	}
	if page.Code != http.StatusOK {
		return nil
	}
	return idx.IndexPage(ctx, *page)
}
