package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwiki/pkg/cache"
	"github.com/matzehuels/pathwiki/pkg/server"
	"github.com/matzehuels/pathwiki/pkg/viewer"
)

type serveOpts struct {
	addr    string
	baseURL string
	noCache bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve author lists, pathway pages and contributor graphs over HTTP",
		Long: `Serve the author fetch endpoint (/api/authors and the legacy
/index.php?action=ajax form), server-rendered pathway pages and contributor
graphs from the configured store. Stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "wiki root used for profile links (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the diagram cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.baseURL != "" {
		cfg.Server.BaseURL = opts.baseURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := loggerFromContext(ctx)
	registerLogHooks(logger)

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	dc, err := newCache(ctx, cfg.Cache, opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer dc.Close()

	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), storeScope(cfg.Storage))
	srv, err := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		Aggregator:     newAggregator(store, cfg, logger.WithPrefix("authors")),
		Diagrams:       viewer.NewLoader(store, dc, keyer, logger.WithPrefix("viewer")),
		PageLimit:      &cfg.Server.PageLimit,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger.WithPrefix("http"),
	})
	if err != nil {
		return err
	}

	printInfo("Listening on %s", StyleLink.Render("http://"+srv.Addr()))
	printDetail("store: %s  cache: %s", cfg.Storage.Driver, cacheLabel(cfg.Cache, opts.noCache))
	return srv.ListenAndServe(ctx)
}

func cacheLabel(cfg CacheConfig, noCache bool) string {
	if noCache {
		return CacheNone
	}
	return cfg.Backend
}

// storeScope prefixes cache keys so stores sharing one cache do not collide.
func storeScope(cfg StorageConfig) string {
	src := cfg.Path
	if cfg.Driver == DriverMongo {
		src = cfg.MongoURI + "/" + cfg.MongoDatabase
	}
	return cfg.Driver + ":" + cache.Hash([]byte(src))[:12] + ":"
}
