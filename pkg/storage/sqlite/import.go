package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/pathwiki/pkg/storage"
)

// Import writes f into the database in one transaction. Pages, users and
// diagrams are upserted; revisions are appended.
func (s *Store) Import(ctx context.Context, f storage.Fixture) error {
	if err := f.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range f.Pages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO page (page_id, page_title) VALUES (?, ?)
			 ON CONFLICT(page_id) DO UPDATE SET page_title = excluded.page_title`,
			p.ID, p.Title); err != nil {
			return fmt.Errorf("insert page %d: %w", p.ID, err)
		}
	}

	for _, u := range f.Users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user (user_id, user_name, user_real_name) VALUES (?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET user_name = excluded.user_name, user_real_name = excluded.user_real_name`,
			u.ID, u.Login, u.RealName); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Login, err)
		}
		for _, g := range u.Groups {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO user_groups (ug_user, ug_group) VALUES (?, ?)`, u.ID, g); err != nil {
				return fmt.Errorf("insert group %s of %s: %w", g, u.Login, err)
			}
		}
	}

	users := f.UserByID()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO revision (rev_page, rev_user, rev_user_text, rev_timestamp) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range f.Revisions {
		ts := r.Timestamp.UTC().Format(TimestampLayout)
		if _, err := stmt.ExecContext(ctx, r.PageID, r.UserID, f.RevisionUserText(r, users), ts); err != nil {
			return fmt.Errorf("insert revision %d: %w", i, err)
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
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO diagram (page_id, pathway, entities) VALUES (?, ?, ?)
			 ON CONFLICT(page_id) DO UPDATE SET pathway = excluded.pathway, entities = excluded.entities`,
			d.PageID, string(d.Pathway), string(raw)); err != nil {
			return fmt.Errorf("insert diagram of page %d: %w", d.PageID, err)
		}
	}

	return tx.Commit()
}
