package mongo

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/pathwiki/pkg/storage"
)

// Import writes f. Pages, users and diagrams are upserted by id; revisions
// are appended.
func (s *Store) Import(ctx context.Context, f storage.Fixture) error {
	if err := f.Validate(); err != nil {
		return err
	}
	upsert := options.Replace().SetUpsert(true)

	for _, p := range f.Pages {
		doc := pageDoc{ID: p.ID, Title: p.Title}
		if _, err := s.db.Collection(PagesCollection).ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, upsert); err != nil {
			return fmt.Errorf("upsert page %d: %w", p.ID, err)
		}
	}

	for _, u := range f.Users {
		doc := userDoc{ID: u.ID, Login: u.Login, RealName: u.RealName, Groups: u.Groups}
		if _, err := s.db.Collection(UsersCollection).ReplaceOne(ctx, bson.M{"_id": u.ID}, doc, upsert); err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Login, err)
		}
	}

	if len(f.Revisions) > 0 {
		users := f.UserByID()
		docs := make([]any, len(f.Revisions))
		for i, r := range f.Revisions {
			docs[i] = revisionDoc{
				PageID:    r.PageID,
				UserID:    r.UserID,
				UserText:  f.RevisionUserText(r, users),
				Timestamp: r.Timestamp.UTC(),
			}
		}
		if _, err := s.db.Collection(RevisionsCollection).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert revisions: %w", err)
		}
	}

	for _, d := range f.Diagrams {
		entities := d.EntitiesByID
		if entities == nil {
			entities = map[string]json.RawMessage{}
		}
		raw, err := json.Marshal(entities)
		if err != nil {
			return fmt.Errorf("encode entities of page %d: %w", d.PageID, err)
		}
		doc := diagramDoc{PageID: d.PageID, Pathway: string(d.Pathway), Entities: string(raw)}
		if _, err := s.db.Collection(DiagramsCollection).ReplaceOne(ctx, bson.M{"_id": d.PageID}, doc, upsert); err != nil {
			return fmt.Errorf("upsert diagram of page %d: %w", d.PageID, err)
		}
	}
	return nil
}
