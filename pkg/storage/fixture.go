// Package storage holds what the SQLite and MongoDB backends share: the
// JSON fixture format used to seed a wiki, and its validation.
//
// The backends themselves live in the sqlite and mongo subpackages. Both
// implement authors.Store and viewer.DiagramStore.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Fixture describes a small wiki: pages, users, revision history and
// stored pathway diagrams.
type Fixture struct {
	Pages     []Page     `json:"pages"`
	Users     []User     `json:"users"`
	Revisions []Revision `json:"revisions"`
	Diagrams  []Diagram  `json:"diagrams,omitempty"`
}

// Page is a wiki page.
type Page struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// User is a registered wiki account.
type User struct {
	ID       int64    `json:"id"`
	Login    string   `json:"login"`
	RealName string   `json:"realName,omitempty"`
	Groups   []string `json:"groups,omitempty"`
}

// Revision is one edit of a page. UserID 0 is an anonymous edit, in which
// case UserText carries the editor's address.
type Revision struct {
	PageID    int64     `json:"pageId"`
	UserID    int64     `json:"userId"`
	UserText  string    `json:"userText,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Diagram is the stored pathway model of a page.
type Diagram struct {
	PageID       int64                      `json:"pageId"`
	Pathway      json.RawMessage            `json:"pathway"`
	EntitiesByID map[string]json.RawMessage `json:"entitiesById,omitempty"`
}

// LoadFixture decodes and validates a fixture.
func LoadFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Fixture{}, err
	}
	return f, nil
}

// LoadFixtureFile reads a fixture from path.
func LoadFixtureFile(path string) (Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Fixture{}, err
	}
	defer fh.Close()
	return LoadFixture(fh)
}

// Validate checks referential integrity: revisions and diagrams point at
// known pages, named revisions at known users, and ids are unique.
func (f Fixture) Validate() error {
	pages := make(map[int64]bool, len(f.Pages))
	for _, p := range f.Pages {
		if p.ID <= 0 {
			return fmt.Errorf("page %q: id must be positive", p.Title)
		}
		if pages[p.ID] {
			return fmt.Errorf("duplicate page id %d", p.ID)
		}
		pages[p.ID] = true
	}

	users := make(map[int64]bool, len(f.Users))
	logins := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		if u.ID <= 0 {
			return fmt.Errorf("user %q: id must be positive", u.Login)
		}
		if u.Login == "" {
			return fmt.Errorf("user %d: login is required", u.ID)
		}
		if users[u.ID] || logins[u.Login] {
			return fmt.Errorf("duplicate user %d (%s)", u.ID, u.Login)
		}
		users[u.ID] = true
		logins[u.Login] = true
	}

	for i, r := range f.Revisions {
		if !pages[r.PageID] {
			return fmt.Errorf("revision %d: unknown page %d", i, r.PageID)
		}
		if r.UserID != 0 && !users[r.UserID] {
			return fmt.Errorf("revision %d: unknown user %d", i, r.UserID)
		}
		if r.Timestamp.IsZero() {
			return fmt.Errorf("revision %d: timestamp is required", i)
		}
	}

	for _, d := range f.Diagrams {
		if !pages[d.PageID] {
			return fmt.Errorf("diagram: unknown page %d", d.PageID)
		}
		if !json.Valid(d.Pathway) {
			return fmt.Errorf("diagram of page %d: pathway is not valid JSON", d.PageID)
		}
	}
	return nil
}

// UserByID indexes f.Users by id.
func (f Fixture) UserByID() map[int64]User {
	out := make(map[int64]User, len(f.Users))
	for _, u := range f.Users {
		out[u.ID] = u
	}
	return out
}

// AnonymousText is the user text recorded for anonymous revisions without one.
const AnonymousText = "127.0.0.1"

// RevisionUserText returns the user text to store for r: the login of a
// named editor, or the recorded address of an anonymous one.
func (f Fixture) RevisionUserText(r Revision, users map[int64]User) string {
	if r.UserID != 0 {
		return users[r.UserID].Login
	}
	if r.UserText != "" {
		return r.UserText
	}
	return AnonymousText
}
