package storage

import (
	"strings"
	"testing"
)

const validFixture = `{
  "pages": [{"id": 554, "title": "WP554"}],
  "users": [
    {"id": 1, "login": "Kdahlquist", "realName": "Kam Dahlquist"},
    {"id": 2, "login": "MaintBot", "realName": "Maintenance bot", "groups": ["bot"]}
  ],
  "revisions": [
    {"pageId": 554, "userId": 1, "timestamp": "2008-03-01T10:00:00Z"},
    {"pageId": 554, "userId": 0, "userText": "10.1.1.1", "timestamp": "2008-03-02T10:00:00Z"},
    {"pageId": 554, "userId": 2, "timestamp": "2008-03-03T10:00:00Z"}
  ],
  "diagrams": [{"pageId": 554, "pathway": {"id": "WP554"}}]
}`

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture(strings.NewReader(validFixture))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Pages) != 1 || len(f.Users) != 2 || len(f.Revisions) != 3 || len(f.Diagrams) != 1 {
		t.Errorf("unexpected fixture sizes: %+v", f)
	}

	users := f.UserByID()
	if got := f.RevisionUserText(f.Revisions[0], users); got != "Kdahlquist" {
		t.Errorf("named user text = %q", got)
	}
	if got := f.RevisionUserText(f.Revisions[1], users); got != "10.1.1.1" {
		t.Errorf("anonymous user text = %q", got)
	}
	if got := f.RevisionUserText(Revision{}, users); got != AnonymousText {
		t.Errorf("default anonymous text = %q", got)
	}
}

func TestFixtureValidate(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown page", `{"pages":[],"users":[],"revisions":[{"pageId":1,"userId":0,"timestamp":"2008-01-01T00:00:00Z"}]}`},
		{"unknown user", `{"pages":[{"id":1}],"users":[],"revisions":[{"pageId":1,"userId":9,"timestamp":"2008-01-01T00:00:00Z"}]}`},
		{"missing timestamp", `{"pages":[{"id":1}],"users":[],"revisions":[{"pageId":1,"userId":0}]}`},
		{"duplicate page", `{"pages":[{"id":1},{"id":1}],"users":[],"revisions":[]}`},
		{"duplicate login", `{"pages":[],"users":[{"id":1,"login":"a"},{"id":2,"login":"a"}],"revisions":[]}`},
		{"zero page id", `{"pages":[{"id":0}],"users":[],"revisions":[]}`},
		{"unknown field", `{"pages":[],"users":[],"revisions":[],"extra":1}`},
		{"diagram for unknown page", `{"pages":[],"users":[],"revisions":[],"diagrams":[{"pageId":3,"pathway":{}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFixture(strings.NewReader(tt.json)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
