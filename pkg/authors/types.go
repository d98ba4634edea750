package authors

import (
	"context"
	"time"
)

// Editor is one distinct contributor of a page.
type Editor struct {
	UserID      int64
	DisplayName string
	Login       string
	EditCount   int
	FirstEdit   time.Time
	ProfileURL  string
	IsBot       bool
}

// List is a ranked sequence of editors. Position 0 is the original author.
type List []Editor

// Entries returns the wire triples of l, in order.
func (l List) Entries() []Entry {
	out := make([]Entry, len(l))
	for i, e := range l {
		out[i] = Entry{Name: e.DisplayName, EditCount: e.EditCount, URL: e.ProfileURL}
	}
	return out
}

// Entry is the part of an Editor that is transmitted to clients.
type Entry struct {
	Name      string `json:"name"`
	EditCount int    `json:"editCount"`
	URL       string `json:"url"`
}

// Contribution is one row of the grouped revision aggregation for a page.
type Contribution struct {
	UserID    int64
	Login     string
	RealName  string
	Groups    []string
	EditCount int
	FirstEdit time.Time
}

// HasGroup reports whether c is a member of any of groups.
func (c Contribution) HasGroup(groups ...string) bool {
	for _, g := range c.Groups {
		for _, want := range groups {
			if g == want {
				return true
			}
		}
	}
	return false
}

// Store is the revision storage the Aggregator reads from.
type Store interface {
	// PageExists reports whether pageID names an existing page.
	PageExists(ctx context.Context, pageID int64) (bool, error)

	// Contributions returns one row per distinct editor of pageID, anonymous
	// editors included, in storage order. maxEditors <= 0 returns all editors;
	// otherwise at most maxEditors rows are returned.
	Contributions(ctx context.Context, pageID int64, maxEditors int) ([]Contribution, error)
}
