// Package store persists parsed FAQ entries in SQLite so they can be
// looked up by title or searched by keyword without re-reading the
// source document.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"relayfaq/internal/document"
)

// Store is a SQLite-backed index of FAQ entries. It is safe for
// concurrent use; writes are serialized through a single connection.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
}

// EntryRecord is a stored FAQ entry with its snippets and links.
type EntryRecord struct {
	Title    string
	Body     string
	Position int
	Line     int
	Hash     string
	Snippets []document.Snippet
	Links    []document.Link
}

// SyncStats summarizes one Sync run.
type SyncStats struct {
	RunID    string
	Entries  int
	Updated  int
	Pruned   int
	Snippets int
	Links    int
}

// Stats reports row counts for the kb-dump and stats commands.
type Stats struct {
	Entries  int
	Snippets int
	Links    int
	SyncRuns int
	LastSync time.Time
}

// Open initializes the SQLite database at path, creating the schema if
// needed. The returned store holds a single connection in WAL mode.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("store opened", zap.String("path", path))
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS faq_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		position INTEGER NOT NULL,
		title TEXT NOT NULL UNIQUE,
		body TEXT NOT NULL,
		line INTEGER NOT NULL,
		content_hash TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_faq_entries_position ON faq_entries(position);

	CREATE TABLE IF NOT EXISTS faq_snippets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id INTEGER NOT NULL REFERENCES faq_entries(id) ON DELETE CASCADE,
		language TEXT,
		start_line INTEGER,
		end_line INTEGER,
		content TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_faq_snippets_entry ON faq_snippets(entry_id);
	CREATE INDEX IF NOT EXISTS idx_faq_snippets_language ON faq_snippets(language);

	CREATE TABLE IF NOT EXISTS faq_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id INTEGER NOT NULL REFERENCES faq_entries(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		url TEXT NOT NULL,
		line INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_faq_links_entry ON faq_links(entry_id);

	CREATE TABLE IF NOT EXISTS sync_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		entries INTEGER NOT NULL,
		snippets INTEGER NOT NULL,
		links INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Sync mirrors the document into the database: entries are upserted by
// title, entries whose title no longer appears are pruned, and snippets
// and links are rewritten for every entry that changed. Each run is
// recorded in sync_runs.
func (s *Store) Sync(doc *document.Document, source string) (SyncStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := SyncStats{RunID: uuid.NewString()}

	tx, err := s.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("failed to begin sync: %w", err)
	}
	defer tx.Rollback()

	current := make(map[string]bool, len(doc.Entries))
	for pos, e := range doc.Entries {
		current[e.Title] = true
		hash := contentHash(doc.Raw(&e))

		var id int64
		var oldHash string
		err := tx.QueryRow(`SELECT id, content_hash FROM faq_entries WHERE title = ?`, e.Title).
			Scan(&id, &oldHash)
		switch {
		case err == sql.ErrNoRows:
			res, err := tx.Exec(
				`INSERT INTO faq_entries (position, title, body, line, content_hash) VALUES (?, ?, ?, ?, ?)`,
				pos, e.Title, e.Body, e.Line, hash)
			if err != nil {
				return stats, fmt.Errorf("failed to insert entry %q: %w", e.Title, err)
			}
			id, _ = res.LastInsertId()
			stats.Updated++
		case err != nil:
			return stats, fmt.Errorf("failed to look up entry %q: %w", e.Title, err)
		case oldHash != hash:
			if _, err := tx.Exec(
				`UPDATE faq_entries SET position = ?, body = ?, line = ?, content_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				pos, e.Body, e.Line, hash, id); err != nil {
				return stats, fmt.Errorf("failed to update entry %q: %w", e.Title, err)
			}
			stats.Updated++
		default:
			// Unchanged content; still track position changes.
			if _, err := tx.Exec(`UPDATE faq_entries SET position = ? WHERE id = ?`, pos, id); err != nil {
				return stats, fmt.Errorf("failed to reposition entry %q: %w", e.Title, err)
			}
		}

		if _, err := tx.Exec(`DELETE FROM faq_snippets WHERE entry_id = ?`, id); err != nil {
			return stats, fmt.Errorf("failed to clear snippets for %q: %w", e.Title, err)
		}
		if _, err := tx.Exec(`DELETE FROM faq_links WHERE entry_id = ?`, id); err != nil {
			return stats, fmt.Errorf("failed to clear links for %q: %w", e.Title, err)
		}
		for _, snip := range e.Snippets {
			if _, err := tx.Exec(
				`INSERT INTO faq_snippets (entry_id, language, start_line, end_line, content) VALUES (?, ?, ?, ?, ?)`,
				id, snip.Language, snip.StartLine, snip.EndLine, snip.Content); err != nil {
				return stats, fmt.Errorf("failed to insert snippet for %q: %w", e.Title, err)
			}
			stats.Snippets++
		}
		for _, link := range e.Links {
			if _, err := tx.Exec(
				`INSERT INTO faq_links (entry_id, label, url, line) VALUES (?, ?, ?, ?)`,
				id, link.Label, link.URL, link.Line); err != nil {
				return stats, fmt.Errorf("failed to insert link for %q: %w", e.Title, err)
			}
			stats.Links++
		}
		stats.Entries++
	}

	// Prune entries whose titles disappeared from the document.
	rows, err := tx.Query(`SELECT title FROM faq_entries`)
	if err != nil {
		return stats, fmt.Errorf("failed to list stored titles: %w", err)
	}
	var stale []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			rows.Close()
			return stats, err
		}
		if !current[title] {
			stale = append(stale, title)
		}
	}
	rows.Close()
	for _, title := range stale {
		if _, err := tx.Exec(`DELETE FROM faq_entries WHERE title = ?`, title); err != nil {
			return stats, fmt.Errorf("failed to prune entry %q: %w", title, err)
		}
		stats.Pruned++
	}

	if _, err := tx.Exec(
		`INSERT INTO sync_runs (id, source, entries, snippets, links) VALUES (?, ?, ?, ?, ?)`,
		stats.RunID, source, stats.Entries, stats.Snippets, stats.Links); err != nil {
		return stats, fmt.Errorf("failed to record sync run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit sync: %w", err)
	}

	s.logger.Info("document synced",
		zap.String("run_id", stats.RunID),
		zap.String("source", source),
		zap.Int("entries", stats.Entries),
		zap.Int("updated", stats.Updated),
		zap.Int("pruned", stats.Pruned))
	return stats, nil
}

// LookupTitle returns the stored entry with the exact title.
func (s *Store) LookupTitle(title string) (*EntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := &EntryRecord{Title: title}
	var id int64
	err := s.db.QueryRow(
		`SELECT id, body, position, line, content_hash FROM faq_entries WHERE title = ?`, title).
		Scan(&id, &rec.Body, &rec.Position, &rec.Line, &rec.Hash)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no entry titled %q", title)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", title, err)
	}

	snipRows, err := s.db.Query(
		`SELECT language, start_line, end_line, content FROM faq_snippets WHERE entry_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer snipRows.Close()
	for snipRows.Next() {
		var snip document.Snippet
		if err := snipRows.Scan(&snip.Language, &snip.StartLine, &snip.EndLine, &snip.Content); err != nil {
			return nil, err
		}
		rec.Snippets = append(rec.Snippets, snip)
	}

	linkRows, err := s.db.Query(
		`SELECT label, url, line FROM faq_links WHERE entry_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var link document.Link
		if err := linkRows.Scan(&link.Label, &link.URL, &link.Line); err != nil {
			return nil, err
		}
		rec.Links = append(rec.Links, link)
	}

	return rec, nil
}

// Titles returns all stored titles in document order.
func (s *Store) Titles() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT title FROM faq_entries ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// Search finds entries whose title or body contains the term, in
// document order. Keyword matching is intentionally simple; the corpus
// is a single FAQ, not a search index.
func (s *Store) Search(term string) ([]EntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + term + "%"
	rows, err := s.db.Query(
		`SELECT title, body, position, line, content_hash FROM faq_entries
		 WHERE title LIKE ? OR body LIKE ? ORDER BY position`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var hits []EntryRecord
	for rows.Next() {
		var rec EntryRecord
		if err := rows.Scan(&rec.Title, &rec.Body, &rec.Position, &rec.Line, &rec.Hash); err != nil {
			return nil, err
		}
		hits = append(hits, rec)
	}
	return hits, rows.Err()
}

// ReadStats returns row counts and the most recent sync time.
func (s *Store) ReadStats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM faq_entries`, &st.Entries},
		{`SELECT COUNT(*) FROM faq_snippets`, &st.Snippets},
		{`SELECT COUNT(*) FROM faq_links`, &st.Links},
		{`SELECT COUNT(*) FROM sync_runs`, &st.SyncRuns},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return st, err
		}
	}

	var last sql.NullString
	if err := s.db.QueryRow(`SELECT MAX(created_at) FROM sync_runs`).Scan(&last); err != nil {
		return st, err
	}
	if last.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", last.String); err == nil {
			st.LastSync = t
		}
	}
	return st, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func contentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
