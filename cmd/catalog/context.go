package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"catalog/internal/config"
	"catalog/internal/embeddings"
	"catalog/internal/index"
	"catalog/internal/logging"
	"catalog/internal/services/nomic"
	"catalog/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Writer: os.Stderr,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withStore opens the catalog for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *slog.Logger, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, logger, st)
}

// queryEnv is everything a read path needs: the index built from the
// current snapshot plus the embeddings cache and backend.
type queryEnv struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	index    *index.Index
	cache    *embeddings.Cache
	embedder embeddings.Embedder
}

// withQueryEnv opens the store, builds the index, and opens the
// embeddings cache backed by the configured Ollama endpoint.
func (c *commandContext) withQueryEnv(fn func(*queryEnv) error) error {
	return c.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
		embedder := nomic.NewClient(cfg.Embeddings)
		cache, err := embeddings.Open(cfg, embedder, logger)
		if err != nil {
			return err
		}
		defer cache.Close()

		ix := index.New()
		ix.Rebuild(st.Snapshot())

		return fn(&queryEnv{
			cfg:      cfg,
			logger:   logger,
			store:    st,
			index:    ix,
			cache:    cache,
			embedder: embedder,
		})
	})
}
