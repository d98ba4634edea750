//go:build integration

package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/pathwiki/pkg/authors"
	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/storage"
)

func TestMongoStoreIntegration(t *testing.T) {
	uri := os.Getenv("PATHWIKI_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PATHWIKI_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, uri, fmt.Sprintf("pathwiki_test_%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	defer s.Drop(ctx)

	day := func(d int) time.Time { return time.Date(2008, 3, d, 0, 0, 0, 0, time.UTC) }
	f := storage.Fixture{
		Pages: []storage.Page{{ID: 554, Title: "WP554"}},
		Users: []storage.User{
			{ID: 1, Login: "Kdahlquist", RealName: "Kam Dahlquist"},
			{ID: 2, Login: "MaintBot", RealName: "Maintenance bot", Groups: []string{"bot"}},
			{ID: 3, Login: "AlexanderPico"},
		},
		Revisions: []storage.Revision{
			{PageID: 554, UserID: 3, Timestamp: day(2)},
			{PageID: 554, UserID: 3, Timestamp: day(3)},
			{PageID: 554, UserID: 1, Timestamp: day(1)},
			{PageID: 554, UserID: 0, UserText: "10.0.0.1", Timestamp: day(4)},
			{PageID: 554, UserID: 2, Timestamp: day(5)},
		},
		Diagrams: []storage.Diagram{{PageID: 554, Pathway: json.RawMessage(`{"id":"WP554"}`)}},
	}
	if err := s.Import(ctx, f); err != nil {
		t.Fatalf("Import: %v", err)
	}

	rows, err := s.Contributions(ctx, 554, 0)
	if err != nil {
		t.Fatalf("Contributions: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("rows = %d, want 4", len(rows))
	}

	list, err := authors.NewAggregator(s, authors.Options{}).Compute(ctx, 554, 0, false)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(list) != 2 || list[0].Login != "Kdahlquist" || list[1].Login != "AlexanderPico" {
		t.Errorf("list = %+v", list)
	}

	d, err := s.Diagram(ctx, 554)
	if err != nil || string(d.Pathway) != `{"id":"WP554"}` {
		t.Errorf("Diagram = %+v, %v", d, err)
	}
	if _, err := s.Diagram(ctx, 1); !errors.Is(err, errors.ErrCodeDiagramNotFound) {
		t.Errorf("missing diagram err = %v", err)
	}
}
