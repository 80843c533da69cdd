package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const lemmaColumns = "id, site_id, lemma, frequency"

func scanLemma(row interface{ Scan(...any) error }) (*Lemma, error) {
	var l Lemma
	if err := row.Scan(&l.ID, &l.SiteID, &l.Lemma, &l.Frequency); err != nil {
		return nil, err
	}
	return &l, nil
}

func (d *Database) FindLemma(ctx context.Context, siteID int64, text string) (*Lemma, error) {
	l, err := scanLemma(d.db.QueryRowContext(ctx,
		"SELECT "+lemmaColumns+" FROM lemmas WHERE site_id = ? AND lemma = ?", siteID, text))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lemma %q: %w", text, err)
	}
	return l, nil
}

// FindLemmas returns the stored lemmas matching texts whose frequency does
// not exceed maxFrequency, rarest first. siteID 0 searches every site and
// maxFrequency <= 0 disables the frequency cut.
func (d *Database) FindLemmas(ctx context.Context, siteID int64, texts []string, maxFrequency int) ([]Lemma, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	query := "SELECT " + lemmaColumns + " FROM lemmas WHERE lemma IN (" + placeholders(len(texts)) + ")"
	args := make([]any, 0, len(texts)+2)
	for _, t := range texts {
		args = append(args, t)
	}
	if siteID != 0 {
		query += " AND site_id = ?"
		args = append(args, siteID)
	}
	if maxFrequency > 0 {
		query += " AND frequency <= ?"
		args = append(args, maxFrequency)
	}
	query += " ORDER BY frequency ASC, id ASC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find lemmas: %w", err)
	}
	defer rows.Close()

	var lemmas []Lemma
	for rows.Next() {
		l, err := scanLemma(rows)
		if err != nil {
			return nil, err
		}
		lemmas = append(lemmas, *l)
	}
	return lemmas, rows.Err()
}

// CountLemmas counts the lemmas of one site, or of all sites when siteID is 0.
func (d *Database) CountLemmas(ctx context.Context, siteID int64) (int, error) {
	var count int
	var err error
	if siteID == 0 {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lemmas").Scan(&count)
	} else {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lemmas WHERE site_id = ?", siteID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count lemmas: %w", err)
	}
	return count, nil
}

// ReplacePageIndex makes lemmas the complete index of a page: previous
// entries are subtracted from the site's lemma frequencies and removed, then
// every lemma is merged into the site totals and recorded with its count as
// rank. The whole operation is one transaction.
func (d *Database) ReplacePageIndex(ctx context.Context, siteID, pageID int64, lemmas map[string]int) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearPageIndex(ctx, tx, pageID); err != nil {
		return err
	}

	upsertLemma, err := tx.PrepareContext(ctx, `
		INSERT INTO lemmas (site_id, lemma, frequency) VALUES (?, ?, ?)
		ON CONFLICT(site_id, lemma) DO UPDATE SET frequency = frequency + excluded.frequency
		RETURNING id`)
	if err != nil {
		return err
	}
	defer upsertLemma.Close()

	insertEntry, err := tx.PrepareContext(ctx,
		"INSERT INTO index_entries (page_id, lemma_id, rank) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer insertEntry.Close()

	for lemma, count := range lemmas {
		if count <= 0 {
			continue
		}
		var lemmaID int64
		if err := upsertLemma.QueryRowContext(ctx, siteID, lemma, count).Scan(&lemmaID); err != nil {
			return fmt.Errorf("upsert lemma %q: %w", lemma, err)
		}
		if _, err := insertEntry.ExecContext(ctx, pageID, lemmaID, count); err != nil {
			return fmt.Errorf("insert index entry for %q: %w", lemma, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit page index: %w", err)
	}
	return nil
}

// clearPageIndex removes a page's index entries and subtracts them from the
// lemma frequencies, leaving the page row in place.
func clearPageIndex(ctx context.Context, tx *sql.Tx, pageID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE lemmas
		SET frequency = frequency - (
			SELECT rank FROM index_entries WHERE page_id = ? AND lemma_id = lemmas.id
		)
		WHERE id IN (SELECT lemma_id FROM index_entries WHERE page_id = ?)`,
		pageID, pageID,
	)
	if err != nil {
		return fmt.Errorf("decrement lemmas of page %d: %w", pageID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_entries WHERE page_id = ?", pageID); err != nil {
		return fmt.Errorf("delete index of page %d: %w", pageID, err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM lemmas WHERE frequency <= 0 AND site_id = (SELECT site_id FROM pages WHERE id = ?)",
		pageID,
	)
	if err != nil {
		return fmt.Errorf("delete exhausted lemmas: %w", err)
	}
	return nil
}

// PageIDsByLemma lists the pages that contain a lemma.
func (d *Database) PageIDsByLemma(ctx context.Context, lemmaID int64) ([]int64, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT page_id FROM index_entries WHERE lemma_id = ? ORDER BY page_id", lemmaID)
	if err != nil {
		return nil, fmt.Errorf("pages of lemma %d: %w", lemmaID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RankSums returns, for every page in pageIDs, the sum of ranks of the given
// lemmas on that page.
func (d *Database) RankSums(ctx context.Context, pageIDs, lemmaIDs []int64) (map[int64]int, error) {
	sums := make(map[int64]int, len(pageIDs))
	if len(pageIDs) == 0 || len(lemmaIDs) == 0 {
		return sums, nil
	}

	lemmaArgs := int64Args(lemmaIDs)
	for _, chunk := range chunks(pageIDs) {
		query := "SELECT page_id, SUM(rank) FROM index_entries WHERE page_id IN (" + placeholders(len(chunk)) +
			") AND lemma_id IN (" + placeholders(len(lemmaIDs)) + ") GROUP BY page_id"
		args := append(int64Args(chunk), lemmaArgs...)

		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("rank sums: %w", err)
		}
		for rows.Next() {
			var pageID int64
			var sum int
			if err := rows.Scan(&pageID, &sum); err != nil {
				rows.Close()
				return nil, err
			}
			sums[pageID] = sum
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return sums, nil
}
