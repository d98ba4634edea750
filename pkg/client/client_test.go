package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pathwiki/pkg/observability"
)

const twoAuthors = `<?xml version="1.0"?>
<AuthorList><Author Name="Kam" EditCount="3" Url="https://w/User:Kam"/><Author Name="Alex" EditCount="7" Url="https://w/User:Alex"/></AuthorList>`

func TestFetchAuthors(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/authors" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(twoAuthors))
	}))
	defer srv.Close()

	entries, err := New(srv.URL).FetchAuthors(context.Background(), 554, 6, false)
	if err != nil {
		t.Fatalf("FetchAuthors: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "Kam" || entries[1].EditCount != 7 {
		t.Errorf("entries = %+v", entries)
	}
	for _, want := range []string{"pageId=554", "limit=6", "includeBots=false", "format=xml"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if !strings.HasPrefix(gotUA, "pathwiki/") {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestFetchAuthorsLegacyEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/index.php" || q.Get("action") != "ajax" || q.Get("rs") != LegacyFunction {
			t.Errorf("unexpected legacy request %s", r.URL)
		}
		args := q["rsargs[]"]
		if len(args) != 3 || args[0] != "554" || args[1] != "0" || args[2] != "true" {
			t.Errorf("rsargs = %v", args)
		}
		w.Write([]byte(twoAuthors))
	}))
	defer srv.Close()

	if _, err := New(srv.URL, WithLegacyEndpoint()).FetchAuthors(context.Background(), 554, 0, true); err != nil {
		t.Fatalf("FetchAuthors: %v", err)
	}
}

func TestFetchAuthorsStatusError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchAuthors(context.Background(), 1, 5, false)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != 500 || se.StatusText != "Internal Server Error" {
		t.Errorf("StatusError = %+v", se)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1 (no retries)", calls)
	}
}

func TestFetchAuthorsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<AuthorList><Author Name="Kam"`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchAuthors(context.Background(), 1, 5, false)
	if !errors.Is(err, ErrIncomplete) {
		t.Errorf("err = %v, want ErrIncomplete", err)
	}
}

func TestFetchAuthorsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(20*time.Millisecond)).FetchAuthors(context.Background(), 1, 5, false)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

type httpRecorder struct {
	observability.NoopHTTPHooks
	requests, responses int
	lastStatus          int
}

func (h *httpRecorder) OnRequest(context.Context, string, string, string) { h.requests++ }
func (h *httpRecorder) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.responses++
	h.lastStatus = status
}

func TestFetchAuthorsEmitsHTTPHooks(t *testing.T) {
	rec := &httpRecorder{}
	observability.SetHTTPHooks(rec)
	defer observability.Reset()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<AuthorList/>`))
	}))
	defer srv.Close()

	entries, err := New(srv.URL).FetchAuthors(context.Background(), 1, 0, false)
	if err != nil {
		t.Fatalf("FetchAuthors: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v, want none", entries)
	}
	if rec.requests != 1 || rec.responses != 1 || rec.lastStatus != 200 {
		t.Errorf("hooks = %+v", rec)
	}
}

func TestAuthorsURL(t *testing.T) {
	c := New("https://wiki.example.org/")
	got := c.AuthorsURL(554, 6, true)
	want := "https://wiki.example.org/api/authors?format=xml&includeBots=true&limit=6&pageId=554"
	if got != want {
		t.Errorf("AuthorsURL = %q, want %q", got, want)
	}
}
