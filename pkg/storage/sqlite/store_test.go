package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/storage"
)

func ts(day, hour int) time.Time {
	return time.Date(2008, 3, day, hour, 0, 0, 0, time.UTC)
}

func testFixture() storage.Fixture {
	return storage.Fixture{
		Pages: []storage.Page{{ID: 554, Title: "WP554"}, {ID: 555, Title: "Empty"}},
		Users: []storage.User{
			{ID: 1, Login: "Kdahlquist", RealName: "Kam Dahlquist"},
			{ID: 2, Login: "AlexanderPico", RealName: "alex@example.org"},
			{ID: 3, Login: "MaintBot", RealName: "Maintenance bot", Groups: []string{"bot", "sysop"}},
		},
		Revisions: []storage.Revision{
			{PageID: 554, UserID: 2, Timestamp: ts(2, 9)},
			{PageID: 554, UserID: 1, Timestamp: ts(1, 8)},
			{PageID: 554, UserID: 2, Timestamp: ts(3, 9)},
			{PageID: 554, UserID: 0, UserText: "10.0.0.1", Timestamp: ts(4, 9)},
			{PageID: 554, UserID: 3, Timestamp: ts(5, 9)},
			{PageID: 554, UserID: 2, Timestamp: ts(6, 9)},
		},
		Diagrams: []storage.Diagram{
			{PageID: 554, Pathway: json.RawMessage(`{"id":"WP554"}`), EntitiesByID: map[string]json.RawMessage{"d1": json.RawMessage(`{"kind":"DataNode"}`)}},
		},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "wiki.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Import(context.Background(), testFixture()); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return s
}

func TestPageExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for id, want := range map[int64]bool{554: true, 555: true, 1: false} {
		got, err := s.PageExists(ctx, id)
		if err != nil {
			t.Fatalf("PageExists(%d): %v", id, err)
		}
		if got != want {
			t.Errorf("PageExists(%d) = %v, want %v", id, got, want)
		}
	}
}

func TestContributions(t *testing.T) {
	s := openTestStore(t)
	rows, err := s.Contributions(context.Background(), 554, 0)
	if err != nil {
		t.Fatalf("Contributions: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4 (incl. anonymous): %+v", len(rows), rows)
	}

	byID := map[int64]authors.Contribution{}
	for _, r := range rows {
		byID[r.UserID] = r
	}
	alex := byID[2]
	if alex.EditCount != 3 || !alex.FirstEdit.Equal(ts(2, 9)) || alex.Login != "AlexanderPico" {
		t.Errorf("alex = %+v", alex)
	}
	if anon := byID[0]; anon.Login != "10.0.0.1" || anon.EditCount != 1 {
		t.Errorf("anonymous = %+v", anon)
	}
	if bot := byID[3]; !bot.HasGroup("bot") || len(bot.Groups) != 2 {
		t.Errorf("bot groups = %v", bot.Groups)
	}

	bounded, err := s.Contributions(context.Background(), 554, 2)
	if err != nil {
		t.Fatalf("Contributions bounded: %v", err)
	}
	if len(bounded) != 2 {
		t.Errorf("bounded rows = %d, want 2", len(bounded))
	}

	empty, err := s.Contributions(context.Background(), 555, 0)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty page = %v, %v", empty, err)
	}
}

func TestAggregatorOverSQLite(t *testing.T) {
	s := openTestStore(t)
	agg := authors.NewAggregator(s, authors.Options{BaseURL: "https://wiki.example.org"})
	ctx := context.Background()

	list, err := agg.Compute(ctx, 554, 0, false)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(list) != 2 || list[0].DisplayName != "Kam Dahlquist" || list[1].DisplayName != "AlexanderPico" {
		t.Errorf("list = %+v", list)
	}

	withBots, err := agg.Compute(ctx, 554, 0, true)
	if err != nil {
		t.Fatalf("Compute with bots: %v", err)
	}
	if len(withBots) != 3 {
		t.Errorf("with bots = %d editors, want 3", len(withBots))
	}

	if _, err := agg.Compute(ctx, 9999, 0, false); !errors.Is(err, errors.ErrCodePageNotFound) {
		t.Errorf("unknown page err = %v", err)
	}
}

func TestDiagram(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d, err := s.Diagram(ctx, 554)
	if err != nil {
		t.Fatalf("Diagram: %v", err)
	}
	if string(d.Pathway) != `{"id":"WP554"}` || len(d.EntitiesByID) != 1 {
		t.Errorf("diagram = %+v", d)
	}

	if _, err := s.Diagram(ctx, 555); !errors.Is(err, errors.ErrCodeDiagramNotFound) {
		t.Errorf("missing diagram err = %v", err)
	}
}

func TestImportIsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f := storage.Fixture{
		Pages: []storage.Page{{ID: 554, Title: "Renamed"}},
		Users: []storage.User{{ID: 1, Login: "Kdahlquist", RealName: "K. Dahlquist", Groups: []string{"sysop"}}},
	}
	if err := s.Import(ctx, f); err != nil {
		t.Fatalf("second Import: %v", err)
	}
	var title, real string
	if err := s.DB().QueryRow("SELECT page_title FROM page WHERE page_id = 554").Scan(&title); err != nil {
		t.Fatal(err)
	}
	if err := s.DB().QueryRow("SELECT user_real_name FROM user WHERE user_id = 1").Scan(&real); err != nil {
		t.Fatal(err)
	}
	if title != "Renamed" || real != "K. Dahlquist" {
		t.Errorf("after upsert: title %q, real name %q", title, real)
	}
}

func TestMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiki.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	m := NewMigrator(s.DB())
	v, err := m.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	pending, err := m.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if v != pending[len(pending)-1].Version {
		t.Errorf("version = %d, want %d", v, pending[len(pending)-1].Version)
	}
	s.Close()

	// Reopening applies nothing and keeps the recorded history.
	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	applied, err := NewMigrator(s.DB()).Applied(ctx)
	if err != nil {
		t.Fatalf("Applied: %v", err)
	}
	if len(applied) != len(pending) {
		t.Errorf("applied %d migrations, want %d", len(applied), len(pending))
	}

	if _, err := s.DB().Exec("UPDATE schema_migrations SET checksum = ? WHERE version = 1", strings.Repeat("0", 64)); err != nil {
		t.Fatal(err)
	}
	if err := NewMigrator(s.DB()).Up(ctx); err == nil {
		t.Error("Up should reject a modified migration")
	}
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		name    string
		version int
		ok      bool
	}{
		{"V1__initial_schema.up.sql", 1, true},
		{"V12__add_index.up.sql", 12, true},
		{"V0__zero.up.sql", 0, false},
		{"initial.up.sql", 0, false},
		{"Vx__bad.up.sql", 0, false},
	}
	for _, tt := range tests {
		v, _, ok := parseMigrationName(tt.name)
		if ok != tt.ok || v != tt.version {
			t.Errorf("parseMigrationName(%q) = %d, %v", tt.name, v, ok)
		}
	}
}
