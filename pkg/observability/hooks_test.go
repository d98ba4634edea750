package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Authors hooks
	a := NoopAuthorsHooks{}
	a.OnComputeStart(ctx, 554, 5, false)
	a.OnComputeComplete(ctx, 554, 6, time.Millisecond, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "diagram")
	c.OnCacheMiss(ctx, "diagram")
	c.OnCacheSet(ctx, "diagram", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "wiki.example.org", "/api/authors")
	h.OnResponse(ctx, "GET", "wiki.example.org", "/api/authors", 200, time.Second)
	h.OnError(ctx, "GET", "wiki.example.org", "/api/authors", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Authors().(NoopAuthorsHooks); !ok {
		t.Error("Authors() should return NoopAuthorsHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customAuthors := &testAuthorsHooks{}
	SetAuthorsHooks(customAuthors)
	if Authors() != customAuthors {
		t.Error("SetAuthorsHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Authors().(NoopAuthorsHooks); !ok {
		t.Error("Reset() should restore NoopAuthorsHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testAuthorsHooks{}
	SetAuthorsHooks(custom)
	SetAuthorsHooks(nil)

	if Authors() != custom {
		t.Error("SetAuthorsHooks(nil) should be ignored")
	}
}

func TestAuthorsHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	rec := &testAuthorsHooks{}
	SetAuthorsHooks(rec)

	ctx := context.Background()
	Authors().OnComputeStart(ctx, 42, 5, true)
	Authors().OnComputeComplete(ctx, 42, 3, time.Millisecond, errors.New("boom"))

	if rec.started != 42 {
		t.Errorf("started = %d, want 42", rec.started)
	}
	if rec.editors != 3 {
		t.Errorf("editors = %d, want 3", rec.editors)
	}
	if rec.err == nil {
		t.Error("expected error to be forwarded")
	}
}

type testAuthorsHooks struct {
	started int64
	editors int
	err     error
}

func (h *testAuthorsHooks) OnComputeStart(_ context.Context, pageID int64, _ int, _ bool) {
	h.started = pageID
}

func (h *testAuthorsHooks) OnComputeComplete(_ context.Context, _ int64, editors int, _ time.Duration, err error) {
	h.editors = editors
	h.err = err
}

type testCacheHooks struct {
	NoopCacheHooks
	hits int
}

type testHTTPHooks struct {
	NoopHTTPHooks
	requests int
}
