package wiki

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const pagesSchema = `
CREATE TABLE IF NOT EXISTS pages (
	page_id    TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	html       TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);`

// Store is a sqlite-backed page cache so repeat navigations within and
// across sessions skip the network.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("empty store path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening page store: %w", err)
	}
	if _, err := db.Exec(pagesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing page store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, pageID string) (Page, bool, error) {
	var page Page
	row := s.db.QueryRowContext(ctx, `SELECT title, html FROM pages WHERE page_id = ?`, pageID)
	switch err := row.Scan(&page.Title, &page.HTML); {
	case errors.Is(err, sql.ErrNoRows):
		return Page{}, false, nil
	case err != nil:
		return Page{}, false, fmt.Errorf("reading page %q: %w", pageID, err)
	}
	return page, true, nil
}

func (s *Store) Put(ctx context.Context, pageID string, page Page) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (page_id, title, html, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(page_id) DO UPDATE SET title = excluded.title, html = excluded.html, fetched_at = excluded.fetched_at`,
		pageID, page.Title, page.HTML, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storing page %q: %w", pageID, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
