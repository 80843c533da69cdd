package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const siteColumns = "id, url, name, status, status_time, last_error"

func scanSite(row interface{ Scan(...any) error }) (*Site, error) {
	var s Site
	var status string
	if err := row.Scan(&s.ID, &s.URL, &s.Name, &status, &s.StatusTime, &s.LastError); err != nil {
		return nil, err
	}
	s.Status = Status(status)
	return &s, nil
}

// CreateSite inserts a site in the INDEXING state.
func (d *Database) CreateSite(ctx context.Context, url, name string) (*Site, error) {
	now := time.Now().UTC()
	res, err := d.db.ExecContext(ctx,
		"INSERT INTO sites (url, name, status, status_time, last_error) VALUES (?, ?, ?, ?, '')",
		url, name, string(StatusIndexing), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert site %s: %w", url, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Site{ID: id, URL: url, Name: name, Status: StatusIndexing, StatusTime: now}, nil
}

func (d *Database) FindSiteByURL(ctx context.Context, url string) (*Site, error) {
	site, err := scanSite(d.db.QueryRowContext(ctx, "SELECT "+siteColumns+" FROM sites WHERE url = ?", url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find site %s: %w", url, err)
	}
	return site, nil
}

func (d *Database) ListSites(ctx context.Context) ([]Site, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT "+siteColumns+" FROM sites ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *s)
	}
	return sites, rows.Err()
}

// UpdateSiteStatus sets status and error text and refreshes the status time.
func (d *Database) UpdateSiteStatus(ctx context.Context, siteID int64, status Status, lastError string) error {
	_, err := d.db.ExecContext(ctx,
		"UPDATE sites SET status = ?, last_error = ?, status_time = ? WHERE id = ?",
		string(status), lastError, time.Now().UTC(), siteID,
	)
	if err != nil {
		return fmt.Errorf("update site %d status: %w", siteID, err)
	}
	return nil
}

func (d *Database) MarkSiteFailed(ctx context.Context, siteID int64, reason string) error {
	return d.UpdateSiteStatus(ctx, siteID, StatusFailed, reason)
}

// TouchSite refreshes the status time of a site without changing its status.
func (d *Database) TouchSite(ctx context.Context, siteID int64) error {
	_, err := d.db.ExecContext(ctx, "UPDATE sites SET status_time = ? WHERE id = ?", time.Now().UTC(), siteID)
	if err != nil {
		return fmt.Errorf("touch site %d: %w", siteID, err)
	}
	return nil
}

// DeleteSiteByURL removes a site with all its pages, lemmas and index
// entries. Deleting a missing site is not an error.
func (d *Database) DeleteSiteByURL(ctx context.Context, url string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM sites WHERE url = ?", url); err != nil {
		return fmt.Errorf("delete site %s: %w", url, err)
	}
	return nil
}

// ReplaceSite deletes any existing data for url and creates it afresh in the
// INDEXING state.
func (d *Database) ReplaceSite(ctx context.Context, url, name string) (*Site, error) {
	if err := d.DeleteSiteByURL(ctx, url); err != nil {
		return nil, err
	}
	return d.CreateSite(ctx, url, name)
}
