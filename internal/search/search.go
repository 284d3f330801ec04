// Package search answers queries by merging keyword, fuzzy, and vector
// signals over the catalog index into one deterministic ranking.
package search

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"slices"
	"strings"

	"catalog/internal/config"
	"catalog/internal/embeddings"
	"catalog/internal/index"
	"catalog/internal/logging"
	"catalog/internal/media"
	"catalog/internal/services"
	"catalog/internal/textutil"
)

// Mode identifies one query path.
type Mode string

const (
	ModeKeyword Mode = "keyword"
	ModeFuzzy   Mode = "fuzzy"
	ModeVector  Mode = "vector"
)

// AllModes lists every mode in canonical order.
var AllModes = []Mode{ModeKeyword, ModeFuzzy, ModeVector}

// ParseMode maps a user-supplied string to a Mode.
func ParseMode(value string) (Mode, bool) {
	mode := Mode(strings.ToLower(strings.TrimSpace(value)))
	switch mode {
	case ModeKeyword, ModeFuzzy, ModeVector:
		return mode, true
	}
	return "", false
}

// ErrModeUnavailable is returned when a requested mode has no backend.
// The whole call fails rather than silently dropping the mode.
var ErrModeUnavailable = errors.New("search mode unavailable")

// Request describes one search call. An empty Modes slice requests every
// mode the engine can serve.
type Request struct {
	Query   string
	Modes   []Mode
	Tags    []string
	GroupID string
	// Weights overrides the default equal weighting. Modes absent from
	// the map keep weight zero when the map is non-nil.
	Weights map[Mode]float64
	// Limit caps the number of results; zero means the configured
	// default, negative means unlimited.
	Limit int
}

// Result is one ranked hit.
type Result struct {
	Entry      media.Entry
	Object     media.Object
	Score      float64
	ModeScores map[Mode]float64
}

// Engine composes the query paths over the index and embeddings cache.
type Engine struct {
	index           *index.Index
	cache           *embeddings.Cache
	embedder        embeddings.Embedder
	fuzzyThreshold  float64
	vectorThreshold float64
	defaultLimit    int
	logger          *slog.Logger
}

// NewEngine builds a search engine. A nil embedder leaves vector mode
// unavailable.
func NewEngine(ix *index.Index, cache *embeddings.Cache, embedder embeddings.Embedder, cfg config.Search, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		index:           ix,
		cache:           cache,
		embedder:        embedder,
		fuzzyThreshold:  cfg.FuzzyThreshold,
		vectorThreshold: cfg.VectorThreshold,
		defaultLimit:    cfg.DefaultLimit,
		logger:          logging.NewComponentLogger(logger, "search"),
	}
}

// AvailableModes lists the modes this engine can serve.
func (e *Engine) AvailableModes() []Mode {
	modes := []Mode{ModeKeyword, ModeFuzzy}
	if e.embedder != nil && e.cache != nil {
		modes = append(modes, ModeVector)
	}
	return modes
}

// Search ranks the candidate set and returns a restartable sequence over
// the ranking. The full candidate set is always scored so truncation
// never changes relative order. An empty candidate set yields an empty
// sequence, not an error.
func (e *Engine) Search(ctx context.Context, req Request) (iter.Seq[Result], error) {
	ranked, err := e.rank(ctx, req)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit == 0 {
		limit = e.defaultLimit
	}
	return func(yield func(Result) bool) {
		for i, result := range ranked {
			if limit > 0 && i >= limit {
				return
			}
			if !yield(result) {
				return
			}
		}
	}, nil
}

// TopK materializes the ranked results.
func (e *Engine) TopK(ctx context.Context, req Request) ([]Result, error) {
	seq, err := e.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	var results []Result
	for result := range seq {
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) rank(ctx context.Context, req Request) ([]Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "search", "rank", "query is empty", nil)
	}

	modes := req.Modes
	if len(modes) == 0 {
		modes = e.AvailableModes()
	}
	modes = dedupeModes(modes)
	for _, mode := range modes {
		if mode == ModeVector && (e.embedder == nil || e.cache == nil) {
			return nil, fmt.Errorf("%w: no embedding backend configured for %s mode", ErrModeUnavailable, mode)
		}
	}

	weights, err := resolveWeights(modes, req.Weights)
	if err != nil {
		return nil, err
	}

	candidates := e.index.Candidates(index.Filter{Tags: req.Tags, GroupID: req.GroupID})
	if len(candidates) == 0 {
		return nil, nil
	}

	perMode := make(map[Mode]map[string]float64, len(modes))
	for _, mode := range modes {
		var scores map[string]float64
		switch mode {
		case ModeKeyword:
			scores = e.keywordScores(query, candidates)
		case ModeFuzzy:
			scores = e.fuzzyScores(query, candidates)
		case ModeVector:
			scores, err = e.vectorScores(ctx, query, candidates)
			if err != nil {
				return nil, err
			}
		}
		perMode[mode] = normalize(scores)
	}

	var results []Result
	for _, candidate := range candidates {
		modeScores := make(map[Mode]float64, len(modes))
		var combined float64
		var matched bool
		for _, mode := range modes {
			score, ok := perMode[mode][candidate.Entry.ID]
			if !ok {
				continue
			}
			matched = true
			modeScores[mode] = score
			combined += weights[mode] * score
		}
		if !matched {
			continue
		}
		results = append(results, Result{
			Entry:      candidate.Entry,
			Object:     candidate.Object,
			Score:      combined,
			ModeScores: modeScores,
		})
	}

	slices.SortFunc(results, func(a, b Result) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if !a.Object.UpdatedAt.Equal(b.Object.UpdatedAt) {
			if a.Object.UpdatedAt.After(b.Object.UpdatedAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Entry.ID, b.Entry.ID)
	})

	e.logger.Debug("ranked results",
		logging.String("query", query),
		logging.Int("candidates", len(candidates)),
		logging.Int("results", len(results)))
	return results, nil
}

// keywordScores is a term-frequency score: matching token occurrences
// normalized by entry length. Entries matching no token are excluded;
// the inverted index narrows the candidates before any text is scored.
func (e *Engine) keywordScores(query string, candidates []*index.Candidate) map[string]float64 {
	tokens := textutil.Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	matchedIDs := e.index.EntriesWithAnyToken(tokens)
	scores := make(map[string]float64)
	for _, candidate := range candidates {
		if _, ok := matchedIDs[candidate.Entry.ID]; !ok {
			continue
		}
		fp := candidate.Fingerprint()
		total := fp.TotalTokens()
		if total == 0 {
			continue
		}
		var matched float64
		for _, token := range tokens {
			matched += fp.Count(token)
		}
		if matched == 0 {
			continue
		}
		scores[candidate.Entry.ID] = matched / total
	}
	return scores
}

// fuzzyScores uses token-set similarity against the entry text, falling
// back on the object title when that scores higher. Entries below the
// threshold are excluded.
func (e *Engine) fuzzyScores(query string, candidates []*index.Candidate) map[string]float64 {
	scores := make(map[string]float64)
	for _, candidate := range candidates {
		score := textutil.TokenSetRatio(query, candidate.Entry.Text)
		if titleScore := textutil.TokenSetRatio(query, candidate.Object.Title); titleScore > score {
			score = titleScore
		}
		if score < e.fuzzyThreshold {
			continue
		}
		scores[candidate.Entry.ID] = score
	}
	return scores
}

// vectorScores embeds the query once and scores candidates by cosine
// similarity. An entry whose embedding cannot be computed degrades to
// the other modes; it is logged, never fatal.
func (e *Engine) vectorScores(ctx context.Context, query string, candidates []*index.Candidate) (map[string]float64, error) {
	queryVector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query failed: %w", ErrModeUnavailable, err)
	}

	scores := make(map[string]float64)
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vector, err := e.cache.Vector(ctx, candidate.Entry)
		if err != nil {
			e.logger.Warn("vector mode degraded for entry",
				logging.String(logging.FieldEntryID, candidate.Entry.ID),
				logging.Error(err))
			continue
		}
		score := cosine(queryVector, vector)
		if score < e.vectorThreshold {
			continue
		}
		scores[candidate.Entry.ID] = score
	}
	return scores, nil
}

// normalize rescales one mode's scores to [0,1] with min-max over that
// mode's result set. A single result, or a set with no spread, maps
// to 1.0.
func normalize(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}

	first := true
	var lo, hi float64
	for _, score := range scores {
		if first {
			lo, hi = score, score
			first = false
			continue
		}
		if score < lo {
			lo = score
		}
		if score > hi {
			hi = score
		}
	}

	normalized := make(map[string]float64, len(scores))
	for id, score := range scores {
		if hi == lo {
			normalized[id] = 1.0
			continue
		}
		normalized[id] = (score - lo) / (hi - lo)
	}
	return normalized
}

func resolveWeights(modes []Mode, overrides map[Mode]float64) (map[Mode]float64, error) {
	weights := make(map[Mode]float64, len(modes))
	if overrides == nil {
		for _, mode := range modes {
			weights[mode] = 1.0 / float64(len(modes))
		}
		return weights, nil
	}

	var total float64
	for _, mode := range modes {
		weight := overrides[mode]
		if weight < 0 {
			return nil, services.Wrap(services.ErrValidation, "search", "rank",
				fmt.Sprintf("weight for %s mode is negative", mode), nil)
		}
		weights[mode] = weight
		total += weight
	}
	if total == 0 {
		return nil, services.Wrap(services.ErrValidation, "search", "rank", "all mode weights are zero", nil)
	}
	for mode := range weights {
		weights[mode] /= total
	}
	return weights, nil
}

func dedupeModes(modes []Mode) []Mode {
	seen := make(map[Mode]struct{}, len(modes))
	var out []Mode
	for _, mode := range AllModes {
		for _, requested := range modes {
			if requested != mode {
				continue
			}
			if _, ok := seen[mode]; ok {
				continue
			}
			seen[mode] = struct{}{}
			out = append(out, mode)
		}
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
