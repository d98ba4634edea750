package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pathwiki/pkg/observability"
)

// logHooks forwards observability events to the CLI logger at debug level.
type logHooks struct {
	logger *log.Logger
}

// registerLogHooks installs logHooks for every hook family.
func registerLogHooks(l *log.Logger) {
	h := logHooks{logger: l.WithPrefix("obs")}
	observability.SetAuthorsHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h logHooks) OnComputeStart(_ context.Context, pageID int64, limit int, includeBots bool) {
	h.logger.Debug("compute authors", "page", pageID, "limit", limit, "bots", includeBots)
}

func (h logHooks) OnComputeComplete(_ context.Context, pageID int64, editors int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("compute authors failed", "page", pageID, "duration", d, "err", err)
		return
	}
	h.logger.Debug("computed authors", "page", pageID, "editors", editors, "duration", d)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
