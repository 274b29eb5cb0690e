// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package services wraps the application's long-running components as
// suture services.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
)

// IndexEngine is the part of *recommend.Engine the service drives.
type IndexEngine interface {
	Rebuild(ctx context.Context) (recommend.IndexStatus, error)
	Status() recommend.IndexStatus
}

// Fingerprinter identifies the current dataset content. A different value
// means the files changed. *database.MovieLensSource implements it.
type Fingerprinter interface {
	Fingerprint() (string, error)
}

// RebuildNotifier is told the outcome of every rebuild the service runs.
// *websocket.Hub implements it.
type RebuildNotifier interface {
	NotifyRebuild(reason string, status recommend.IndexStatus, duration time.Duration, err error)
}

// IndexServiceConfig controls when the index is rebuilt.
type IndexServiceConfig struct {
	// BuildOnStartup builds the index as soon as the service starts.
	BuildOnStartup bool

	// PollInterval is how often the dataset fingerprint is checked.
	// Zero disables polling.
	PollInterval time.Duration

	// RebuildTimeout bounds a single rebuild.
	RebuildTimeout time.Duration

	// MinRebuildInterval is the minimum spacing between requested rebuilds.
	// Zero disables throttling.
	MinRebuildInterval time.Duration
}

// ThrottledError refuses a rebuild requested too soon after the last one.
// It unwraps to recommend.ErrRebuildThrottled.
type ThrottledError struct {
	Wait time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%v: retry in %s", recommend.ErrRebuildThrottled, e.Wait.Round(time.Second))
}

func (e *ThrottledError) Unwrap() error {
	return recommend.ErrRebuildThrottled
}

// RetryAfter reports how long the caller should wait.
func (e *ThrottledError) RetryAfter() time.Duration {
	return e.Wait
}

// IndexService owns the rebuild lifecycle: the startup build, dataset
// change polling and rebuilds requested through TriggerRebuild.
type IndexService struct {
	engine  IndexEngine
	source  Fingerprinter
	config  IndexServiceConfig
	logger  zerolog.Logger
	limiter *rate.Limiter
	trigger chan string
	name    string

	notifier RebuildNotifier

	mu                 sync.Mutex
	lastFingerprint    string // dataset the serving index was built from
	pendingFingerprint string // last fingerprint seen by the poller
}

// NewIndexService creates the service. source may be nil, which disables
// polling regardless of PollInterval.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIndexService(engine IndexEngine, source Fingerprinter, cfg IndexServiceConfig, logger zerolog.Logger) *IndexService {
	limit := rate.Inf
	if cfg.MinRebuildInterval > 0 {
		limit = rate.Every(cfg.MinRebuildInterval)
	}
	if cfg.RebuildTimeout <= 0 {
		cfg.RebuildTimeout = 10 * time.Minute
	}

	return &IndexService{
		engine:  engine,
		source:  source,
		config:  cfg,
		logger:  logger.With().Str("service", "index").Logger(),
		limiter: rate.NewLimiter(limit, 1),
		trigger: make(chan string, 1),
		name:    "index-service",
	}
}

// SetNotifier registers n to hear about finished rebuilds. Call it before
// the service starts.
func (s *IndexService) SetNotifier(n RebuildNotifier) {
	s.notifier = n
}

// TriggerRebuild schedules a rebuild on the service goroutine and returns
// immediately. At most one request is queued.
func (s *IndexService) TriggerRebuild(reason string) error {
	if s.engine.Status().Rebuilding {
		metrics.RecordIndexBuildSkipped()
		return recommend.ErrRebuildInProgress
	}

	r := s.limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		metrics.RecordIndexBuildSkipped()
		return &ThrottledError{Wait: delay}
	}

	select {
	case s.trigger <- reason:
		return nil
	default:
		r.Cancel()
		metrics.RecordIndexBuildSkipped()
		return recommend.ErrRebuildInProgress
	}
}

// Serve implements suture.Service. If the startup build fails and no
// index is serving, Serve returns the error so the supervisor retries
// with backoff.
func (s *IndexService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("build_on_startup", s.config.BuildOnStartup).
		Dur("poll_interval", s.config.PollInterval).
		Dur("min_rebuild_interval", s.config.MinRebuildInterval).
		Msg("index service starting")

	if s.config.BuildOnStartup && !s.engine.Status().Ready {
		s.limiter.Allow()
		if err := s.rebuildAt(ctx, "startup", s.fingerprint()); err != nil && !s.engine.Status().Ready {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("initial index build failed: %w", err)
		}
	}

	var poll <-chan time.Time
	if s.source != nil && s.config.PollInterval > 0 {
		if !s.config.BuildOnStartup {
			s.commitFingerprint(s.fingerprint())
		}
		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("index service shutting down")
			return ctx.Err()

		case reason := <-s.trigger:
			_ = s.rebuildAt(ctx, reason, s.fingerprint())

		case <-poll:
			s.checkForChanges(ctx)
		}
	}
}

// checkForChanges rebuilds when the dataset fingerprint moved. The new
// fingerprint is committed only once a rebuild succeeds, so a throttled or
// failed attempt is retried on a later tick.
func (s *IndexService) checkForChanges(ctx context.Context) {
	current, err := s.source.Fingerprint()
	if err != nil {
		s.logger.Warn().Err(err).Msg("dataset fingerprint failed")
		return
	}

	s.mu.Lock()
	changed := current != s.lastFingerprint
	first := current != s.pendingFingerprint
	s.pendingFingerprint = current
	s.mu.Unlock()
	if !changed {
		return
	}
	if first {
		metrics.DatasetChangesDetected.Inc()
	}
	if !s.limiter.Allow() {
		s.logger.Debug().Msg("dataset changed, rebuild deferred by throttle")
		return
	}

	if err := s.rebuildAt(ctx, "dataset_changed", current); err != nil {
		s.logger.Warn().Str("fingerprint", current).Msg("changed dataset not loaded, retrying on next poll")
	}
}

// fingerprint reads the dataset fingerprint before a load starts, so a
// change made during the load is still seen afterwards. Empty when there is
// no source or it failed.
func (s *IndexService) fingerprint() string {
	if s.source == nil {
		return ""
	}
	fp, err := s.source.Fingerprint()
	if err != nil {
		s.logger.Warn().Err(err).Msg("dataset fingerprint failed")
		return ""
	}
	return fp
}

func (s *IndexService) commitFingerprint(fp string) {
	if fp == "" {
		return
	}
	s.mu.Lock()
	s.lastFingerprint = fp
	s.mu.Unlock()
}

// rebuildAt rebuilds and, on success, records fp as the loaded dataset.
func (s *IndexService) rebuildAt(ctx context.Context, reason, fp string) error {
	if err := s.rebuild(ctx, reason); err != nil {
		return err
	}
	s.commitFingerprint(fp)
	return nil
}

func (s *IndexService) rebuild(ctx context.Context, reason string) error {
	rebuildCtx, cancel := context.WithTimeout(ctx, s.config.RebuildTimeout)
	defer cancel()

	start := time.Now()
	status, err := s.engine.Rebuild(rebuildCtx)
	if errors.Is(err, recommend.ErrRebuildInProgress) {
		metrics.RecordIndexBuildSkipped()
		return err
	}

	elapsed := time.Since(start)
	metrics.RecordIndexBuild(metrics.IndexBuild{
		Duration:  elapsed,
		Titles:    status.Stats.Titles,
		Users:     status.Stats.Users,
		Undefined: status.Stats.UndefinedTitles,
		Version:   status.Version,
		Err:       err,
	})
	if s.notifier != nil {
		s.notifier.NotifyRebuild(reason, status, elapsed, err)
	}

	if err != nil {
		s.logger.Error().Err(err).Str("reason", reason).
			Bool("serving_previous", status.Ready).
			Msg("index rebuild failed")
		return err
	}

	s.logger.Info().Str("reason", reason).
		Int64("version", status.Version).
		Int("titles", status.Stats.Titles).
		Dur("duration", elapsed).
		Msg("index rebuilt")
	return nil
}

// String returns the service name for logging.
func (s *IndexService) String() string {
	return s.name
}
