package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.up.sql
var migrationFS embed.FS

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	Checksum    string
	AppliedAt   time.Time

	sql string
}

// Migrator applies the embedded migrations in version order and records
// them in schema_migrations. A recorded migration whose checksum no longer
// matches the embedded file is an error.
type Migrator struct {
	db *sql.DB
	fs fs.FS
}

// NewMigrator creates a Migrator for the embedded migrations.
func NewMigrator(db *sql.DB) *Migrator {
	sub, _ := fs.Sub(migrationFS, "migrations")
	return &Migrator{db: db, fs: sub}
}

func (m *Migrator) initialize(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at  INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum    TEXT NOT NULL CHECK(length(checksum) = 64)
	);`)
	return err
}

// CurrentVersion returns the highest applied version, 0 for a fresh database.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.initialize(ctx); err != nil {
		return 0, err
	}
	var version int
	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Applied returns the recorded migrations in version order.
func (m *Migrator) Applied(ctx context.Context) ([]Migration, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, "SELECT version, applied_at, description, checksum FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Migration
	for rows.Next() {
		var mig Migration
		var appliedAt int64
		if err := rows.Scan(&mig.Version, &appliedAt, &mig.Description, &mig.Checksum); err != nil {
			return nil, err
		}
		mig.AppliedAt = time.Unix(appliedAt, 0)
		out = append(out, mig)
	}
	return out, rows.Err()
}

// Pending returns the embedded migrations, parsed from V<n>__<desc>.up.sql names.
func (m *Migrator) Pending() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		version, desc, ok := parseMigrationName(name)
		if !ok {
			continue
		}
		content, err := fs.ReadFile(m.fs, name)
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(content)
		out = append(out, Migration{
			Version:     version,
			Description: desc,
			Checksum:    hex.EncodeToString(sum[:]),
			sql:         string(content),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseMigrationName(name string) (int, string, bool) {
	base := strings.TrimSuffix(name, ".up.sql")
	ver, desc, found := strings.Cut(base, "__")
	if !found || desc == "" {
		return 0, "", false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(ver, "V"))
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, desc, true
}

// Up applies every migration that has not been recorded yet.
func (m *Migrator) Up(ctx context.Context) error {
	applied, err := m.Applied(ctx)
	if err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}
	done := make(map[int]string, len(applied))
	for _, a := range applied {
		done[a.Version] = a.Checksum
	}

	migrations, err := m.Pending()
	if err != nil {
		return err
	}
	for _, mig := range migrations {
		if sum, ok := done[mig.Version]; ok {
			if sum != mig.Checksum {
				return fmt.Errorf("migration V%d (%s) was modified after being applied", mig.Version, mig.Description)
			}
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("apply migration V%d: %w", mig.Version, err)
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.sql); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, description, checksum) VALUES (?, ?, ?, ?)`,
		mig.Version, time.Now().Unix(), mig.Description, mig.Checksum); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit()
}
