package cli

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwiki/pkg/errors"
	"github.com/matzehuels/pathwiki/pkg/server"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Environment overrides, applied after the config file.
const (
	envAddr     = "PATHWIKI_ADDR"
	envDB       = "PATHWIKI_DB"
	envRedis    = "PATHWIKI_REDIS"
	envMongoURI = "PATHWIKI_MONGO_URI"
)

// Config is the pathwiki configuration file.
//
//	[server]
//	addr = "127.0.0.1:8080"
//	base_url = "https://wikipathways.org"
//
//	[storage]
//	driver = "sqlite"
//	path = "/var/lib/pathwiki/wiki.db"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Cache   CacheConfig   `toml:"cache"`
	Authors AuthorsConfig `toml:"authors"`
}

// ServerConfig configures `pathwiki serve`.
type ServerConfig struct {
	Addr           string        `toml:"addr"`
	BaseURL        string        `toml:"base_url"`
	PageLimit      int           `toml:"page_limit"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// StorageConfig selects the revision store.
type StorageConfig struct {
	Driver        string `toml:"driver"`
	Path          string `toml:"path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig selects the diagram cache.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

// AuthorsConfig tunes author aggregation.
type AuthorsConfig struct {
	BotGroups []string `toml:"bot_groups"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	dbPath := "pathwiki.db"
	if dir, err := dataDir(); err == nil {
		dbPath = filepath.Join(dir, "wiki.db")
	}
	return Config{
		Server: ServerConfig{
			Addr:           server.DefaultAddr,
			BaseURL:        "http://" + server.DefaultAddr,
			PageLimit:      server.DefaultPageLimit,
			RequestTimeout: server.DefaultRequestTimeout,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   dbPath,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
		},
		Authors: AuthorsConfig{
			BotGroups: []string{"bot"},
		},
	}
}

// LoadConfig reads path on top of DefaultConfig, then applies environment
// overrides and validates the result. A missing file is an error only when
// required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
			if undecoded := meta.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
			}
		case stderrors.Is(err, fs.ErrNotExist) && !required:
		default:
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from the PATHWIKI_* variables.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(envAddr); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(envDB); v != "" {
		c.Storage.Driver = DriverSQLite
		c.Storage.Path = v
	}
	if v := getenv(envMongoURI); v != "" {
		c.Storage.Driver = DriverMongo
		c.Storage.MongoURI = v
	}
	if v := getenv(envRedis); v != "" {
		c.Cache.Backend = CacheRedis
		c.Cache.RedisAddr = v
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr is empty")
	}
	if c.Server.BaseURL != "" {
		if err := errors.ValidateURL(c.Server.BaseURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "server.base_url")
		}
	}
	if c.Server.PageLimit < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.page_limit is negative (0 shows every author)")
	}
	if c.Server.RequestTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.request_timeout is negative")
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "storage.path is required for the sqlite driver")
		}
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "storage.mongo_uri is required for the mongo driver")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "storage.driver must be %q or %q, got %q", DriverSQLite, DriverMongo, c.Storage.Driver)
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be %q, %q or %q, got %q", CacheFile, CacheRedis, CacheNone, c.Cache.Backend)
	}
	return nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// configCommand prints the effective configuration.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration pathwiki would run with: built-in defaults,
overridden by the config file, overridden by PATHWIKI_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return cfg.Write(cmd.OutOrStdout())
		},
	}
}
