package viewer

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pathwiki/pkg/cache"
)

// Loader reads diagrams through a cache and assembles viewer configs.
type Loader struct {
	store  DiagramStore
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewLoader creates a Loader. A nil cache disables caching, a nil keyer
// uses cache.NewDefaultKeyer and a nil logger uses log.Default.
func NewLoader(store DiagramStore, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Loader {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{store: store, cache: cache.Instrumented(c), keyer: keyer, logger: logger}
}

// Diagram returns the diagram of pageID, from cache when possible.
// Cache failures are logged and fall through to the store.
func (l *Loader) Diagram(ctx context.Context, pageID int64) (Diagram, error) {
	key := l.keyer.DiagramKey(pageID)

	if data, hit, err := l.cache.Get(ctx, key); err != nil {
		l.logger.Warn("diagram cache read failed", "page", pageID, "err", err)
	} else if hit {
		var d Diagram
		if err := json.Unmarshal(data, &d); err == nil {
			return d, nil
		}
		_ = l.cache.Delete(ctx, key)
	}

	d, err := l.store.Diagram(ctx, pageID)
	if err != nil {
		return Diagram{}, err
	}
	if data, err := json.Marshal(d); err == nil {
		if err := l.cache.Set(ctx, key, data, cache.DiagramTTL); err != nil {
			l.logger.Warn("diagram cache write failed", "page", pageID, "err", err)
		}
	}
	return d, nil
}

// Config assembles the viewer config of pageID for theme and highlights.
func (l *Loader) Config(ctx context.Context, pageID int64, theme string, highlights []Highlight) (Config, error) {
	key := l.keyer.ConfigKey(pageID, cache.ConfigKeyOpts{Theme: theme, Highlights: highlightKeys(highlights)})
	if data, hit, err := l.cache.Get(ctx, key); err == nil && hit {
		var cfg Config
		if err := json.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
	}

	d, err := l.Diagram(ctx, pageID)
	if err != nil {
		return Config{}, err
	}
	if highlights == nil {
		highlights = []Highlight{}
	}
	cfg := Config{
		Pathway:      d.Pathway,
		EntitiesByID: d.EntitiesByID,
		Theme:        theme,
		Highlights:   highlights,
	}
	if data, err := json.Marshal(cfg); err == nil {
		_ = l.cache.Set(ctx, key, data, cache.ConfigTTL)
	}
	return cfg, nil
}
