// Package sqlite is the SQLite revision store, built on the pure-Go
// modernc.org/sqlite driver.
//
// The schema mirrors the MediaWiki tables the author list reads from:
// page, user, user_groups and revision (rev_timestamp stored as
// YYYYMMDDHHMMSS), plus a diagram table holding pathway JSON.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/viewer"
)

// TimestampLayout is the revision timestamp format.
const TimestampLayout = "20060102150405"

// Store is a SQLite-backed revision and diagram store.
type Store struct {
	db *sql.DB
}

var (
	_ authors.Store       = (*Store)(nil)
	_ viewer.DiagramStore = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies
// pending migrations. path ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA foreign_keys=ON;", "PRAGMA busy_timeout=5000;"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	if err := NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tooling and tests.
func (s *Store) DB() *sql.DB { return s.db }

// PageExists reports whether pageID has a page row.
func (s *Store) PageExists(ctx context.Context, pageID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM page WHERE page_id = ?", pageID).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// contributionsQuery groups a page's revisions by editor. Counts, first edit
// and group membership come from the same pass; the LIMIT bounds the
// number of distinct editors (-1 means no bound).
const contributionsQuery = `
SELECT
	r.rev_user,
	COALESCE(u.user_name, MIN(r.rev_user_text)),
	COALESCE(u.user_real_name, ''),
	COUNT(*),
	MIN(r.rev_timestamp),
	COALESCE((SELECT group_concat(g.ug_group, ',') FROM user_groups g WHERE g.ug_user = r.rev_user), '')
FROM revision r
LEFT JOIN user u ON u.user_id = r.rev_user
WHERE r.rev_page = ?
GROUP BY r.rev_user
LIMIT ?`

// Contributions returns one row per distinct editor of pageID, in rev_user order.
func (s *Store) Contributions(ctx context.Context, pageID int64, maxEditors int) ([]authors.Contribution, error) {
	limit := -1
	if maxEditors > 0 {
		limit = maxEditors
	}
	rows, err := s.db.QueryContext(ctx, contributionsQuery, pageID, limit)
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", err)
	}
	defer rows.Close()

	var out []authors.Contribution
	for rows.Next() {
		var (
			c      authors.Contribution
			first  string
			groups string
		)
		if err := rows.Scan(&c.UserID, &c.Login, &c.RealName, &c.EditCount, &first, &groups); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		if c.FirstEdit, err = time.ParseInLocation(TimestampLayout, first, time.UTC); err != nil {
			return nil, fmt.Errorf("parse rev_timestamp %q: %w", first, err)
		}
		if groups != "" {
			c.Groups = strings.Split(groups, ",")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Diagram returns the stored pathway of pageID.
func (s *Store) Diagram(ctx context.Context, pageID int64) (viewer.Diagram, error) {
	var pathway, entities string
	err := s.db.QueryRowContext(ctx, "SELECT pathway, entities FROM diagram WHERE page_id = ?", pageID).Scan(&pathway, &entities)
	if stderrors.Is(err, sql.ErrNoRows) {
		return viewer.Diagram{}, errors.New(errors.ErrCodeDiagramNotFound, "no diagram stored for page %d", pageID)
	}
	if err != nil {
		return viewer.Diagram{}, errors.Wrap(errors.ErrCodeStorage, err, "read diagram of page %d", pageID)
	}

	d := viewer.Diagram{PageID: pageID, Pathway: json.RawMessage(pathway)}
	if err := json.Unmarshal([]byte(entities), &d.EntitiesByID); err != nil {
		return viewer.Diagram{}, errors.Wrap(errors.ErrCodeStorage, err, "decode entities of page %d", pageID)
	}
	return d, nil
}
