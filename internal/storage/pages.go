package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const pageColumns = "id, site_id, path, code, content"

func scanPage(row interface{ Scan(...any) error }) (*Page, error) {
	var p Page
	if err := row.Scan(&p.ID, &p.SiteID, &p.Path, &p.Code, &p.Content); err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePage inserts a page and returns its id. If a page with the same path
// already exists for the site, the existing id is returned unchanged.
func (d *Database) SavePage(ctx context.Context, page *Page) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		"INSERT INTO pages (site_id, path, code, content) VALUES (?, ?, ?, ?) ON CONFLICT(site_id, path) DO NOTHING",
		page.SiteID, page.Path, page.Code, page.Content,
	)
	if err != nil {
		return 0, fmt.Errorf("insert page %s: %w", page.Path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		existing, err := d.FindPageByPath(ctx, page.SiteID, page.Path)
		if err != nil {
			return 0, err
		}
		page.ID = existing.ID
		return existing.ID, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	page.ID = id
	return id, nil
}

// SavePages inserts pages in one transaction, skipping paths already stored
// for the site. It returns the number of rows actually inserted.
func (d *Database) SavePages(ctx context.Context, pages []Page) (int, error) {
	if len(pages) == 0 {
		return 0, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO pages (site_id, path, code, content) VALUES (?, ?, ?, ?) ON CONFLICT(site_id, path) DO NOTHING",
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range pages {
		res, err := stmt.ExecContext(ctx, p.SiteID, p.Path, p.Code, p.Content)
		if err != nil {
			return 0, fmt.Errorf("insert page %s: %w", p.Path, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit pages: %w", err)
	}
	return inserted, nil
}

func (d *Database) FindPageByPath(ctx context.Context, siteID int64, path string) (*Page, error) {
	p, err := scanPage(d.db.QueryRowContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE site_id = ? AND path = ?", siteID, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find page %s: %w", path, err)
	}
	return p, nil
}

// PagesAfterID returns up to limit pages of a site with id greater than
// afterID, in id order. Callers page through a site by passing the last id
// they saw.
func (d *Database) PagesAfterID(ctx context.Context, siteID, afterID int64, limit int) ([]Page, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE site_id = ? AND id > ? ORDER BY id LIMIT ?",
		siteID, afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// PagesByIDs loads the given pages keyed by id. Missing ids are skipped.
func (d *Database) PagesByIDs(ctx context.Context, ids []int64) (map[int64]Page, error) {
	out := make(map[int64]Page, len(ids))
	for _, chunk := range chunks(ids) {
		rows, err := d.db.QueryContext(ctx,
			"SELECT "+pageColumns+" FROM pages WHERE id IN ("+placeholders(len(chunk))+")",
			int64Args(chunk)...,
		)
		if err != nil {
			return nil, fmt.Errorf("load pages: %w", err)
		}
		for rows.Next() {
			p, err := scanPage(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out[p.ID] = *p
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CountPages counts the pages of one site, or of all sites when siteID is 0.
func (d *Database) CountPages(ctx context.Context, siteID int64) (int, error) {
	var count int
	var err error
	if siteID == 0 {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&count)
	} else {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages WHERE site_id = ?", siteID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return count, nil
}

// DeletePage removes a page after subtracting its index entries from the
// site's lemma frequencies.
func (d *Database) DeletePage(ctx context.Context, pageID int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearPageIndex(ctx, tx, pageID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE id = ?", pageID); err != nil {
		return fmt.Errorf("delete page %d: %w", pageID, err)
	}
	return tx.Commit()
}
