package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	vikasyatra "github.com/chaitanyakanade2405/VikasYatra-AI-for-Personalized-Career-Guidance"
)

// session bundles what most commands need: config, logger, client and the
// local store.
type session struct {
	cfg    *Config
	log    *vikasyatra.Logger
	client *vikasyatra.Client
	store  *vikasyatra.KeyedStore
}

// openSession loads config and opens the configured store backend.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := vikasyatra.NopLogger()
	if cfg.Log.Mode != "" {
		if log, err = vikasyatra.NewLogger(cfg.Log.Mode); err != nil {
			return nil, err
		}
	}

	var opts []vikasyatra.ClientOption
	if cfg.Default.BaseURL != "" {
		opts = append(opts, vikasyatra.WithBaseURL(cfg.Default.BaseURL))
	} else if cfg.Default.Environment != "" {
		opts = append(opts, vikasyatra.WithEnvironment(vikasyatra.Environment(cfg.Default.Environment)))
	}
	if cfg.Default.Token != "" {
		opts = append(opts, vikasyatra.WithToken(cfg.Default.Token))
	}
	opts = append(opts, vikasyatra.WithLogger(log))

	backend, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		log:    log,
		client: vikasyatra.NewClient(opts...),
		store:  vikasyatra.NewKeyedStore(backend, vikasyatra.WithStoreLogger(log)),
	}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Warn("closing store failed", "error", err)
	}
	s.log.Sync()
}

// user returns the configured learner. An email is required.
func (s *session) user() (vikasyatra.User, error) {
	d := s.cfg.Default
	if d.UserEmail == "" {
		return vikasyatra.User{}, fmt.Errorf("no learner email. Run 'vikasyatra init <base-url> <email>' first")
	}
	return vikasyatra.User{UID: d.UserUID, Email: d.UserEmail, DisplayName: d.DisplayName}, nil
}

// history opens the configured history store, defaulting to a SQLite file
// in the data dir.
func (s *session) history() (*vikasyatra.GormHistoryStore, error) {
	dsn := s.cfg.History.DSN
	if dsn == "" {
		path, err := dataPath("history.db")
		if err != nil {
			return nil, err
		}
		dsn = path
	}
	return vikasyatra.OpenHistoryStore(dsn)
}

// uploader builds the configured media uploader. It returns nil when no
// provider is set. The returned func releases provider resources.
func (s *session) uploader(ctx context.Context) (vikasyatra.MediaUploader, func(), error) {
	u := s.cfg.Upload
	switch u.Provider {
	case "":
		return nil, func() {}, nil
	case "cloudinary":
		return vikasyatra.NewCloudinaryUploader(u.CloudinaryCloud, u.CloudinaryPreset), func() {}, nil
	case "gcs":
		g, err := vikasyatra.NewGCSUploader(ctx, u.GCSBucket, "visual")
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown upload provider %q", u.Provider)
	}
}

// openBackend maps the [store] section to a Backend.
func openBackend(ctx context.Context, c ConfigStore) (vikasyatra.Backend, error) {
	switch c.Backend {
	case "memory":
		return vikasyatra.NewMemoryBackend(vikasyatra.DefaultQuotaBytes), nil
	case "file":
		dir := c.Path
		if dir == "" {
			p, err := dataPath("cache/.keep")
			if err != nil {
				return nil, err
			}
			dir = filepath.Dir(p)
		}
		return vikasyatra.NewFileBackend(dir)
	case "redis":
		return vikasyatra.NewRedisBackend(ctx, c.RedisAddr, c.RedisPrefix)
	case "", "sqlite":
		path := c.Path
		if path == "" {
			p, err := dataPath("cache.db")
			if err != nil {
				return nil, err
			}
			path = p
		}
		return vikasyatra.NewSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

// commandContext is cancelled on Ctrl-C.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func valueOrDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

// maskKey shows the first 4 and last 4 characters of a secret.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
