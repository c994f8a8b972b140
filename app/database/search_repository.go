package database

import (
	"database/sql"
	"fmt"
	"time"
)

type SearchRepo struct {
	db *DB
}

var _ SearchRepository = (*SearchRepo)(nil)

func NewSearchRepository(db *DB) *SearchRepo {
	return &SearchRepo{db: db}
}

const searchColumns = `id, name, kind, source, query, url, country_code, refresh_interval,
	max_items, enabled, last_fetched_at, next_fetch_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearch(row rowScanner) (*Search, error) {
	var s Search
	var lastFetched, nextFetch sql.NullTime

	err := row.Scan(&s.ID, &s.Name, &s.Kind, &s.Source, &s.Query, &s.URL, &s.CountryCode,
		&s.RefreshInterval, &s.MaxItems, &s.Enabled, &lastFetched, &nextFetch,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastFetched.Valid {
		s.LastFetchedAt = &lastFetched.Time
	}
	if nextFetch.Valid {
		s.NextFetchAt = &nextFetch.Time
	}
	return &s, nil
}

func (r *SearchRepo) querySearches(query string, args ...any) ([]Search, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []Search
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		searches = append(searches, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search rows: %w", err)
	}

	return searches, nil
}

func (r *SearchRepo) ListSearches() ([]Search, error) {
	searches, err := r.querySearches(`SELECT ` + searchColumns + ` FROM searches ORDER BY kind, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	return searches, nil
}

func (r *SearchRepo) GetSearch(id int64) (*Search, error) {
	s, err := scanSearch(r.db.QueryRow(`SELECT `+searchColumns+` FROM searches WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search: %w", err)
	}
	return s, nil
}

func (r *SearchRepo) GetSearchByName(name string) (*Search, error) {
	s, err := scanSearch(r.db.QueryRow(`SELECT `+searchColumns+` FROM searches WHERE name = $1`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search by name: %w", err)
	}
	return s, nil
}

func (r *SearchRepo) GetSearchCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM searches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}
	return count, nil
}

func (r *SearchRepo) GetSearchesDueForRefresh(now time.Time) ([]Search, error) {
	searches, err := r.querySearches(`
		SELECT `+searchColumns+`
		FROM searches
		WHERE enabled = true
		  AND (next_fetch_at IS NULL OR next_fetch_at <= $1)
		ORDER BY COALESCE(next_fetch_at, '1970-01-01'::timestamptz)
		LIMIT 50
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get searches due for refresh: %w", err)
	}
	return searches, nil
}

func (r *SearchRepo) CreateSearch(s Search) (int64, error) {
	var id int64
	err := r.db.QueryRow(`
		INSERT INTO searches (name, kind, source, query, url, country_code, refresh_interval, max_items, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, s.Name, s.Kind, s.Source, s.Query, s.URL, s.CountryCode, s.RefreshInterval, s.MaxItems, s.Enabled).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create search: %w", err)
	}
	return id, nil
}

// UpsertSearch inserts or updates a search by name. A changed query or URL
// clears the next fetch time so the search is refreshed on the next tick.
func (r *SearchRepo) UpsertSearch(s Search) (int64, error) {
	var id int64
	err := r.db.QueryRow(`
		INSERT INTO searches (name, kind, source, query, url, country_code, refresh_interval, max_items, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET
			kind = EXCLUDED.kind,
			source = EXCLUDED.source,
			query = EXCLUDED.query,
			url = EXCLUDED.url,
			country_code = EXCLUDED.country_code,
			refresh_interval = EXCLUDED.refresh_interval,
			max_items = EXCLUDED.max_items,
			enabled = EXCLUDED.enabled,
			next_fetch_at = CASE
				WHEN searches.query <> EXCLUDED.query OR searches.url <> EXCLUDED.url THEN NULL
				ELSE searches.next_fetch_at
			END,
			updated_at = NOW()
		RETURNING id
	`, s.Name, s.Kind, s.Source, s.Query, s.URL, s.CountryCode, s.RefreshInterval, s.MaxItems, s.Enabled).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert search: %w", err)
	}
	return id, nil
}

func (r *SearchRepo) UpdateSearch(s Search) error {
	res, err := r.db.Exec(`
		UPDATE searches
		SET name = $2, kind = $3, source = $4, query = $5, url = $6, country_code = $7,
		    refresh_interval = $8, max_items = $9, enabled = $10, updated_at = NOW()
		WHERE id = $1
	`, s.ID, s.Name, s.Kind, s.Source, s.Query, s.URL, s.CountryCode, s.RefreshInterval, s.MaxItems, s.Enabled)
	if err != nil {
		return fmt.Errorf("failed to update search: %w", err)
	}
	return expectRow(res)
}

func (r *SearchRepo) DeleteSearch(id int64) error {
	res, err := r.db.Exec(`DELETE FROM searches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete search: %w", err)
	}
	return expectRow(res)
}

func (r *SearchRepo) UpdateFetchTimes(id int64, fetchedAt time.Time, nextFetchAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE searches
		SET last_fetched_at = $2, next_fetch_at = $3, updated_at = NOW()
		WHERE id = $1
	`, id, fetchedAt, nextFetchAt)
	if err != nil {
		return fmt.Errorf("failed to update fetch times: %w", err)
	}
	return nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
