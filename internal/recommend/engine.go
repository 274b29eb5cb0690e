// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/cache"
)

// Engine serves recommendations from an atomically swapped snapshot of the
// collaborative index and the content model. It is safe for concurrent use.
type Engine struct {
	// Configuration
	config *Config
	logger zerolog.Logger

	// Collaborators
	dataProvider   DataProvider
	contentFactory ContentFactory

	// current is replaced wholesale on every successful rebuild
	current atomic.Pointer[snapshot]

	// Rebuild state
	rebuildMu    sync.Mutex
	rebuilding   atomic.Bool
	statusMu     sync.RWMutex
	lastError    string
	lastDuration time.Duration

	// Metrics
	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64
	rebuildCount atomic.Int64

	results *cache.LRUCache[*Response]
}

// snapshot is one immutable generation of precomputed state.
type snapshot struct {
	index        *CollaborativeIndex
	content      ContentRecommender
	titles       *cache.Trie
	version      int64
	builtAt      time.Time
	degenerate   bool
	catalogItems int
}

// NewEngine creates a new recommendation engine. contentFactory may be nil,
// in which case content requests fail with ErrContentModelUnavailable.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, provider DataProvider, contentFactory ContentFactory, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("data provider not set")
	}

	e := &Engine{
		config:         cfg,
		logger:         logger.With().Str("component", "recommend").Logger(),
		dataProvider:   provider,
		contentFactory: contentFactory,
	}
	if cfg.Cache.Enabled {
		e.results = cache.NewLRUCache[*Response](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	return e, nil
}

// Rebuild loads the dataset and builds a new snapshot off to the side, then
// swaps it in. On failure the previous snapshot keeps serving.
// Returns ErrRebuildInProgress immediately if another rebuild is running.
func (e *Engine) Rebuild(ctx context.Context) (IndexStatus, error) {
	if !e.rebuildMu.TryLock() {
		return e.Status(), ErrRebuildInProgress
	}
	defer e.rebuildMu.Unlock()

	e.rebuilding.Store(true)
	defer e.rebuilding.Store(false)
	e.rebuildCount.Add(1)

	start := time.Now()
	e.logger.Info().Msg("starting index rebuild")

	snap, err := e.buildSnapshot(ctx)
	e.finishRebuild(start, err)
	if err != nil {
		e.logger.Error().Err(err).Msg("index rebuild failed")
		return e.Status(), err
	}

	prev := e.current.Load()
	if prev != nil {
		snap.version = prev.version + 1
	} else {
		snap.version = 1
	}
	e.current.Store(snap)
	e.clearCache()

	e.logger.Info().
		Int64("version", snap.version).
		Int("titles", snap.index.Len()).
		Int("users", snap.index.Stats().Users).
		Int("joined_rows", snap.index.Stats().JoinedRows).
		Bool("content_model", snap.content != nil).
		Dur("duration", time.Since(start)).
		Msg("index rebuild complete")

	return e.Status(), nil
}

// buildSnapshot runs the whole load and build chain.
func (e *Engine) buildSnapshot(ctx context.Context) (*snapshot, error) {
	buildCtx, cancel := context.WithTimeout(ctx, e.config.Rebuild.Timeout)
	defer cancel()

	dataset, err := e.dataProvider.LoadDataset(buildCtx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	e.logger.Info().
		Int("records", len(dataset.Records)).
		Int("items", len(dataset.Items)).
		Msg("loaded dataset")

	idx, degenerate, err := e.buildIndex(dataset)
	if err != nil {
		return nil, err
	}
	if err := buildCtx.Err(); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	snap := &snapshot{
		index:        idx,
		titles:       buildTitleTrie(idx),
		builtAt:      time.Now(),
		degenerate:   degenerate,
		catalogItems: len(dataset.Items),
	}
	snap.content = e.trainContent(buildCtx, dataset.Items)

	return snap, nil
}

// buildIndex builds the collaborative index and applies the degenerate policy.
func (e *Engine) buildIndex(dataset *Dataset) (*CollaborativeIndex, bool, error) {
	idx, err := BuildCollaborativeIndex(dataset.Records, dataset.Catalog(), e.config.Index)
	if err == nil {
		return idx, false, nil
	}

	var degenerate *DegenerateIndexError
	if !errors.As(err, &degenerate) {
		return nil, false, fmt.Errorf("build index: %w", err)
	}
	if !e.config.Rebuild.AcceptDegenerate {
		return nil, false, fmt.Errorf("build index: %w", err)
	}

	e.logger.Warn().Err(err).Msg("accepting degenerate index")
	return idx, true, nil
}

// trainContent trains the content model. A failure is logged and leaves the
// snapshot without a content model; collaborative requests are unaffected.
func (e *Engine) trainContent(ctx context.Context, items []Item) ContentRecommender {
	if e.contentFactory == nil || !e.config.ContentBased.Enabled {
		return nil
	}

	model, err := e.contentFactory(ctx, items)
	if err != nil {
		e.logger.Warn().Err(err).Msg("content model training failed")
		return nil
	}
	return model
}

// finishRebuild records the outcome of a rebuild attempt.
func (e *Engine) finishRebuild(start time.Time, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.lastDuration = time.Since(start)
	if err != nil {
		e.lastError = err.Error()
	} else {
		e.lastError = ""
	}
}

// buildTitleTrie indexes exactly the index columns for autocomplete,
// weighted by rater count so well-known titles come first.
func buildTitleTrie(idx *CollaborativeIndex) *cache.Trie {
	trie := cache.NewTrie()
	for _, title := range idx.Titles() {
		trie.Insert(title, idx.Raters(title))
	}
	return trie
}

// Recommend answers a recommendation request against the current snapshot.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	snap := e.current.Load()
	if snap == nil {
		e.errorCount.Add(1)
		return nil, ErrIndexNotReady
	}

	req = e.prepareRequest(req)
	logger := e.createRequestLogger(req)
	logger.Debug().Msg("processing recommendation request")

	if len(req.Seeds) > e.config.Limits.MaxSeeds {
		e.errorCount.Add(1)
		return nil, &InvalidRequestError{
			Field:  "seeds",
			Reason: fmt.Sprintf("must contain at most %d entries, got %d", e.config.Limits.MaxSeeds, len(req.Seeds)),
		}
	}

	key := e.cacheKey(snap, req)
	if resp := e.tryGetCachedResponse(key, start, req.RequestID, logger); resp != nil {
		return resp, nil
	}

	titles, scored, err := e.rank(ctx, snap, req)
	if err != nil {
		e.errorCount.Add(1)
		logger.Debug().Err(err).Msg("recommendation failed")
		return nil, err
	}

	resp := &Response{
		Titles:   titles,
		Scores:   scored,
		Metadata: e.buildResponseMetadata(snap, req, start, false),
	}
	if e.results != nil {
		e.results.Add(key, resp)
	}

	logger.Debug().
		Int("returned", len(resp.Titles)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return copyResponse(resp), nil
}

// rank dispatches to the requested strategy. Scores are only reported by
// the collaborative strategy; the content model is opaque.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) rank(ctx context.Context, snap *snapshot, req Request) ([]string, []ScoredTitle, error) {
	switch req.Strategy {
	case StrategyCollaborative:
		scored, err := RecommendScored(snap.index, req.Seeds, req.TopN)
		if err != nil {
			return nil, nil, err
		}
		return TitlesOf(scored), scored, nil
	case StrategyContent:
		if snap.content == nil {
			return nil, nil, ErrContentModelUnavailable
		}
		if len(req.Seeds) == 0 {
			return nil, nil, &InvalidRequestError{Field: "seeds", Reason: "must not be empty"}
		}
		titles, err := snap.content.Recommend(ctx, seedTitles(req.Seeds), req.TopN)
		if err != nil {
			return nil, nil, err
		}
		return titles, nil, nil
	default:
		return nil, nil, &InvalidRequestError{Field: "strategy", Reason: "unknown strategy " + req.Strategy.String()}
	}
}

// prepareRequest applies defaults and clamps TopN.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.TopN == 0 {
		req.TopN = e.config.Limits.DefaultTopN
	}
	if req.TopN > e.config.Limits.MaxTopN {
		req.TopN = e.config.Limits.MaxTopN
	}
	return req
}

// createRequestLogger creates a logger with request context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("strategy", req.Strategy.String()).
		Int("seeds", len(req.Seeds)).
		Int("top_n", req.TopN).
		Logger()
}

// tryGetCachedResponse returns a copy of a cached response, or nil.
func (e *Engine) tryGetCachedResponse(key string, start time.Time, requestID string, logger zerolog.Logger) *Response {
	if e.results == nil {
		return nil
	}

	cached, ok := e.results.Get(key)
	if !ok {
		e.cacheMisses.Add(1)
		return nil
	}

	e.cacheHits.Add(1)
	resp := copyResponse(cached)
	resp.Metadata.CacheHit = true
	resp.Metadata.RequestID = requestID
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	resp.Metadata.Timestamp = time.Now()
	logger.Debug().Msg("cache hit")
	return resp
}

// buildResponseMetadata constructs response metadata.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponseMetadata(snap *snapshot, req Request, start time.Time, cacheHit bool) ResponseMetadata {
	return ResponseMetadata{
		RequestID:    req.RequestID,
		Strategy:     req.Strategy.String(),
		TopN:         req.TopN,
		IndexVersion: snap.version,
		BuiltAt:      snap.builtAt,
		LatencyMS:    time.Since(start).Milliseconds(),
		CacheHit:     cacheHit,
		Timestamp:    time.Now(),
	}
}

// cacheKey scopes the key to the snapshot version so a swap can never serve
// results computed against an older index.
//
//nolint:gocritic // hugeParam: req passed by value for simplicity
func (e *Engine) cacheKey(snap *snapshot, req Request) string {
	return cache.GenerateKey(fmt.Sprintf("rec:v%d", snap.version), struct {
		Strategy string `json:"s"`
		Seeds    []Seed `json:"q"`
		TopN     int    `json:"n"`
	}{req.Strategy.String(), req.Seeds, req.TopN})
}

// clearCache removes all cached responses.
func (e *Engine) clearCache() {
	if e.results == nil {
		return
	}
	e.results.Clear()
	e.logger.Debug().Msg("cache cleared")
}

// copyResponse copies the slices so callers cannot mutate cached state.
func copyResponse(resp *Response) *Response {
	out := &Response{
		Titles:   append([]string{}, resp.Titles...),
		Metadata: resp.Metadata,
	}
	if resp.Scores != nil {
		out.Scores = append([]ScoredTitle{}, resp.Scores...)
	}
	return out
}

// Ready reports whether a snapshot is available.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Index returns the current collaborative index, or nil before the first rebuild.
func (e *Engine) Index() *CollaborativeIndex {
	if snap := e.current.Load(); snap != nil {
		return snap.index
	}
	return nil
}

// Titles returns the titles that may be offered as seeds.
func (e *Engine) Titles() []string {
	if snap := e.current.Load(); snap != nil {
		return snap.index.Titles()
	}
	return nil
}

// SuggestTitles returns up to limit indexed titles starting with prefix,
// case-insensitively, most-rated first.
func (e *Engine) SuggestTitles(prefix string, limit int) []string {
	snap := e.current.Load()
	if snap == nil {
		return nil
	}

	return snap.titles.Complete(prefix, limit)
}

// Status returns the current index status.
func (e *Engine) Status() IndexStatus {
	e.statusMu.RLock()
	status := IndexStatus{
		Rebuilding:      e.rebuilding.Load(),
		LastDurationMS:  e.lastDuration.Milliseconds(),
		LastError:       e.lastError,
		RebuildAttempts: e.rebuildCount.Load(),
	}
	e.statusMu.RUnlock()

	if snap := e.current.Load(); snap != nil {
		status.Ready = true
		status.Version = snap.version
		status.BuiltAt = snap.builtAt
		status.Degenerate = snap.degenerate
		status.ContentModel = snap.content != nil
		status.CatalogItems = snap.catalogItems
		status.Stats = snap.index.Stats()
	}
	return status
}

// GetMetrics returns the current engine metrics.
func (e *Engine) GetMetrics() Metrics {
	return Metrics{
		RequestCount: e.requestCount.Load(),
		CacheHits:    e.cacheHits.Load(),
		CacheMisses:  e.cacheMisses.Load(),
		ErrorCount:   e.errorCount.Load(),
		RebuildCount: e.rebuildCount.Load(),
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}
