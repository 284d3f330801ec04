// Package embeddings caches entry vectors keyed by entry ID and content
// hash so unchanged text is never re-embedded.
package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/gofrs/flock"

	"catalog/internal/config"
	"catalog/internal/fileutil"
	"catalog/internal/logging"
	"catalog/internal/media"
	"catalog/internal/services"
)

// Embedder produces a vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type record struct {
	ContentHash string    `json:"content_hash"`
	Vector      []float32 `json:"vector"`
}

type cacheDocument struct {
	Model   string            `json:"model"`
	Records map[string]record `json:"records"`
}

// Cache persists entry vectors in a flat JSON document alongside the
// catalog. A vector is served from cache only while its content hash
// still matches the entry; anything else is recomputed.
type Cache struct {
	mu       sync.Mutex
	doc      cacheDocument
	path     string
	dims     int
	model    string
	embedder Embedder
	lock     *flock.Flock
	logger   *slog.Logger
}

// Open loads the embeddings cache, taking its own exclusive lock. A
// cache written for a different model is discarded rather than served.
func Open(cfg *config.Config, embedder Embedder, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	path := cfg.EmbeddingsPath()
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "embeddings", "open", "acquire cache lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrUnavailable, "embeddings", "open",
			fmt.Sprintf("embeddings cache %s is locked by another process", path), nil)
	}

	cache := &Cache{
		doc:      cacheDocument{Model: cfg.Embeddings.Model, Records: make(map[string]record)},
		path:     path,
		dims:     cfg.Embeddings.Dimensions,
		model:    cfg.Embeddings.Model,
		embedder: embedder,
		lock:     lock,
		logger:   logging.NewComponentLogger(logger, "embeddings"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cache, nil
		}
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrUnavailable, "embeddings", "open", "read cache document", err)
	}

	var doc cacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrCorrupt, "embeddings", "open",
			fmt.Sprintf("embeddings cache %s is corrupt", path), err)
	}
	if doc.Model == cache.model && doc.Records != nil {
		cache.doc = doc
	} else if doc.Model != cache.model {
		cache.logger.Warn("discarding cache built with different model",
			logging.String("cached_model", doc.Model),
			logging.String("configured_model", cache.model))
	}
	return cache, nil
}

// Close releases the cache lock.
func (c *Cache) Close() error {
	if c == nil || c.lock == nil {
		return nil
	}
	return c.lock.Unlock()
}

// Vector returns the embedding for an entry, computing and caching it
// when the cached copy is missing, stale, or of the wrong width.
func (c *Cache) Vector(ctx context.Context, entry media.Entry) ([]float32, error) {
	c.mu.Lock()
	if rec, ok := c.doc.Records[entry.ID]; ok && rec.ContentHash == entry.ContentHash && len(rec.Vector) == c.dims {
		vector := append([]float32(nil), rec.Vector...)
		c.mu.Unlock()
		return vector, nil
	}
	c.mu.Unlock()

	if c.embedder == nil {
		return nil, services.Wrap(services.ErrUnavailable, "embeddings", "vector", "no embedding backend configured", nil)
	}

	vector, err := c.embedder.Embed(ctx, entry.Text)
	if err != nil {
		return nil, err
	}
	if len(vector) != c.dims {
		return nil, services.Wrap(services.ErrPermanent, "embeddings", "vector",
			fmt.Sprintf("backend returned %d dimensions, expected %d", len(vector), c.dims), nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc.Records[entry.ID] = record{ContentHash: entry.ContentHash, Vector: vector}
	if err := c.save(); err != nil {
		delete(c.doc.Records, entry.ID)
		return nil, err
	}
	return append([]float32(nil), vector...), nil
}

// Cached returns the vector for an entry only if it is present and
// fresh. It never calls the backend.
func (c *Cache) Cached(entry media.Entry) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.doc.Records[entry.ID]
	if !ok || rec.ContentHash != entry.ContentHash || len(rec.Vector) != c.dims {
		return nil, false
	}
	return append([]float32(nil), rec.Vector...), true
}

// Invalidate drops the cached vector for an entry.
func (c *Cache) Invalidate(entryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.doc.Records[entryID]; !ok {
		return nil
	}
	prev := c.doc.Records[entryID]
	delete(c.doc.Records, entryID)
	if err := c.save(); err != nil {
		c.doc.Records[entryID] = prev
		return err
	}
	return nil
}

// Report summarizes a reconcile pass over the cache.
type Report struct {
	Fresh    int
	Computed int
	Dropped  int
	Failed   int
}

// Reconcile brings the cache in line with the given entries: orphaned
// records are dropped and missing or stale vectors are recomputed. A
// backend failure for one entry is counted and does not stop the pass.
func (c *Cache) Reconcile(ctx context.Context, entries []media.Entry) (Report, error) {
	var report Report

	live := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		live[entry.ID] = struct{}{}
	}

	c.mu.Lock()
	for id := range c.doc.Records {
		if _, ok := live[id]; !ok {
			delete(c.doc.Records, id)
			report.Dropped++
		}
	}
	if report.Dropped > 0 {
		if err := c.save(); err != nil {
			c.mu.Unlock()
			return report, err
		}
	}
	c.mu.Unlock()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := c.Cached(entry); ok {
			report.Fresh++
			continue
		}
		if _, err := c.Vector(ctx, entry); err != nil {
			report.Failed++
			c.logger.Warn("failed to embed entry",
				logging.String(logging.FieldEntryID, entry.ID),
				logging.Error(err))
			continue
		}
		report.Computed++
	}

	c.logger.Info("reconciled embeddings",
		logging.Int("fresh", report.Fresh),
		logging.Int("computed", report.Computed),
		logging.Int("dropped", report.Dropped),
		logging.Int("failed", report.Failed))
	return report, nil
}

// Len reports the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.doc.Records)
}

func (c *Cache) save() error {
	data, err := json.MarshalIndent(&c.doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPermanent, "embeddings", "save", "encode cache document", err)
	}
	if err := fileutil.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return services.Wrap(services.ErrUnavailable, "embeddings", "save", "write cache document", err)
	}
	return nil
}
