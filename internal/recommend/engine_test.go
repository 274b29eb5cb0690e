// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockDataProvider implements DataProvider for testing.
type mockDataProvider struct {
	mu        sync.Mutex
	dataset   *Dataset
	err       error
	delay     time.Duration
	loadCalls int32
}

func (m *mockDataProvider) LoadDataset(ctx context.Context) (*Dataset, error) {
	atomic.AddInt32(&m.loadCalls, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.dataset, nil
}

func (m *mockDataProvider) set(ds *Dataset, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataset = ds
	m.err = err
}

// mockContent implements ContentRecommender for testing.
type mockContent struct {
	titles []string
	err    error
	calls  int32
}

func (m *mockContent) Recommend(ctx context.Context, titles []string, topN int) ([]string, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return nil, m.err
	}
	out := m.titles
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

func fixtureDataset() *Dataset {
	records, catalog := tableFixture(fixtureColumns())
	items := make([]Item, 0, len(catalog))
	for id, title := range catalog {
		items = append(items, Item{ID: id, Title: title})
	}
	return &Dataset{Records: records, Items: items}
}

func newTestEngine(t *testing.T, provider DataProvider, content ContentRecommender) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Index = smallIndexConfig()

	var factory ContentFactory
	if content != nil {
		factory = func(ctx context.Context, items []Item) (ContentRecommender, error) {
			return content, nil
		}
	}

	engine, err := NewEngine(cfg, provider, factory, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		provider DataProvider
		wantErr  bool
	}{
		{"nil config uses defaults", nil, &mockDataProvider{}, false},
		{"invalid config", &Config{}, &mockDataProvider{}, true},
		{"missing provider", DefaultConfig(), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.cfg, tt.provider, nil, zerolog.Nop())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewEngine() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_NotReady(t *testing.T) {
	engine := newTestEngine(t, &mockDataProvider{dataset: fixtureDataset()}, nil)

	if engine.Ready() {
		t.Error("Ready() = true before rebuild")
	}
	if engine.Titles() != nil {
		t.Errorf("Titles() = %v, want nil", engine.Titles())
	}
	if engine.SuggestTitles("a", 5) != nil {
		t.Error("SuggestTitles() should be nil before rebuild")
	}

	_, err := engine.Recommend(context.Background(), Request{Seeds: []Seed{{Title: "A", Rating: 5}}})
	if !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("Recommend() error = %v, want ErrIndexNotReady", err)
	}
}

func TestEngine_RebuildAndRecommend(t *testing.T) {
	content := &mockContent{titles: []string{"C", "B"}}
	engine := newTestEngine(t, &mockDataProvider{dataset: fixtureDataset()}, content)
	ctx := context.Background()

	status, err := engine.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !status.Ready || status.Version != 1 || !status.ContentModel {
		t.Errorf("Rebuild() status = %+v", status)
	}
	if status.Stats.Titles != 4 {
		t.Errorf("Stats.Titles = %d, want 4", status.Stats.Titles)
	}

	t.Run("collaborative", func(t *testing.T) {
		resp, err := engine.Recommend(ctx, Request{
			Seeds:     []Seed{{Title: "A", Rating: 5}},
			RequestID: "req-1",
		})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if !equalStrings(resp.Titles, []string{"B", "C"}) {
			t.Errorf("Titles = %v, want [B C]", resp.Titles)
		}
		if len(resp.Scores) != 2 {
			t.Errorf("Scores = %v, want 2 entries", resp.Scores)
		}
		if resp.Metadata.TopN != 10 {
			t.Errorf("Metadata.TopN = %d, want default 10", resp.Metadata.TopN)
		}
		if resp.Metadata.IndexVersion != 1 || resp.Metadata.RequestID != "req-1" {
			t.Errorf("Metadata = %+v", resp.Metadata)
		}
	})

	t.Run("content", func(t *testing.T) {
		resp, err := engine.Recommend(ctx, Request{
			Strategy: StrategyContent,
			Seeds:    []Seed{{Title: "A"}},
			TopN:     1,
		})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if !equalStrings(resp.Titles, []string{"C"}) {
			t.Errorf("Titles = %v, want [C]", resp.Titles)
		}
		if resp.Scores != nil {
			t.Errorf("Scores = %v, want nil for content strategy", resp.Scores)
		}
	})

	t.Run("titles and suggestions follow index columns", func(t *testing.T) {
		if !equalStrings(engine.Titles(), []string{"A", "B", "C", "D"}) {
			t.Errorf("Titles() = %v", engine.Titles())
		}
		if got := engine.SuggestTitles("e", 5); len(got) != 0 {
			t.Errorf("SuggestTitles(e) = %v, want none for filtered title", got)
		}
		if got := engine.SuggestTitles("a", 5); !equalStrings(got, []string{"A"}) {
			t.Errorf("SuggestTitles(a) = %v, want [A]", got)
		}
	})
}

func TestEngine_RequestLimits(t *testing.T) {
	engine := newTestEngine(t, &mockDataProvider{dataset: fixtureDataset()}, nil)
	ctx := context.Background()
	if _, err := engine.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	t.Run("top n clamped", func(t *testing.T) {
		resp, err := engine.Recommend(ctx, Request{Seeds: []Seed{{Title: "A", Rating: 5}}, TopN: 5000})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if resp.Metadata.TopN != engine.config.Limits.MaxTopN {
			t.Errorf("Metadata.TopN = %d, want %d", resp.Metadata.TopN, engine.config.Limits.MaxTopN)
		}
	})

	t.Run("negative top n rejected", func(t *testing.T) {
		_, err := engine.Recommend(ctx, Request{Seeds: []Seed{{Title: "A", Rating: 5}}, TopN: -1})
		var invalid *InvalidRequestError
		if !errors.As(err, &invalid) {
			t.Errorf("Recommend() error = %v, want *InvalidRequestError", err)
		}
	})

	t.Run("too many seeds rejected", func(t *testing.T) {
		seeds := make([]Seed, engine.config.Limits.MaxSeeds+1)
		for i := range seeds {
			seeds[i] = Seed{Title: "A", Rating: 5}
		}
		_, err := engine.Recommend(ctx, Request{Seeds: seeds})
		var invalid *InvalidRequestError
		if !errors.As(err, &invalid) {
			t.Errorf("Recommend() error = %v, want *InvalidRequestError", err)
		}
	})

	t.Run("content unavailable", func(t *testing.T) {
		_, err := engine.Recommend(ctx, Request{Strategy: StrategyContent, Seeds: []Seed{{Title: "A"}}})
		if !errors.Is(err, ErrContentModelUnavailable) {
			t.Errorf("Recommend() error = %v, want ErrContentModelUnavailable", err)
		}
	})

	if m := engine.GetMetrics(); m.ErrorCount != 3 {
		t.Errorf("GetMetrics().ErrorCount = %d, want 3", m.ErrorCount)
	}
}

func TestEngine_Cache(t *testing.T) {
	engine := newTestEngine(t, &mockDataProvider{dataset: fixtureDataset()}, nil)
	ctx := context.Background()
	if _, err := engine.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	req := Request{Seeds: []Seed{{Title: "A", Rating: 5}}, TopN: 3}

	first, err := engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if first.Metadata.CacheHit {
		t.Error("first response should not be a cache hit")
	}

	// Mutating a returned response must not leak into the cache
	first.Titles[0] = "mutated"

	second, err := engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second response should be a cache hit")
	}
	if second.Titles[0] != "B" {
		t.Errorf("cached Titles[0] = %q, want B", second.Titles[0])
	}

	// A rebuild bumps the version and invalidates the cache
	if _, err := engine.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	third, err := engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if third.Metadata.CacheHit {
		t.Error("response after rebuild should not be a cache hit")
	}
	if third.Metadata.IndexVersion != 2 {
		t.Errorf("IndexVersion = %d, want 2", third.Metadata.IndexVersion)
	}

	m := engine.GetMetrics()
	if m.CacheHits != 1 || m.CacheMisses != 2 || m.RequestCount != 3 {
		t.Errorf("GetMetrics() = %+v", m)
	}
}

func TestEngine_RebuildFailureKeepsSnapshot(t *testing.T) {
	provider := &mockDataProvider{dataset: fixtureDataset()}
	engine := newTestEngine(t, provider, nil)
	ctx := context.Background()

	if _, err := engine.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	tests := []struct {
		name    string
		dataset *Dataset
		err     error
	}{
		{"load error", nil, errors.New("disk on fire")},
		{"degenerate dataset", &Dataset{Records: []RatingRecord{{UserID: 1, ItemID: 1, Rating: 4}}, Items: []Item{{ID: 1, Title: "A"}}}, nil},
		{"duplicate titles", &Dataset{Items: []Item{{ID: 1, Title: "A"}, {ID: 2, Title: "A"}}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider.set(tt.dataset, tt.err)

			status, err := engine.Rebuild(ctx)
			if err == nil {
				t.Fatal("Rebuild() error = nil, want error")
			}
			if !status.Ready || status.Version != 1 {
				t.Errorf("status = %+v, want previous snapshot still serving", status)
			}
			if status.LastError == "" {
				t.Error("LastError is empty")
			}

			if _, err := engine.Recommend(ctx, Request{Seeds: []Seed{{Title: "A", Rating: 5}}}); err != nil {
				t.Errorf("Recommend() error = %v after failed rebuild", err)
			}
		})
	}
}

func TestEngine_AcceptDegenerate(t *testing.T) {
	provider := &mockDataProvider{dataset: &Dataset{
		Records: []RatingRecord{{UserID: 1, ItemID: 1, Rating: 4}},
		Items:   []Item{{ID: 1, Title: "A"}},
	}}

	cfg := DefaultConfig()
	cfg.Rebuild.AcceptDegenerate = true
	engine, err := NewEngine(cfg, provider, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	status, err := engine.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !status.Ready || !status.Degenerate {
		t.Errorf("status = %+v, want ready and degenerate", status)
	}

	_, err = engine.Recommend(context.Background(), Request{Seeds: []Seed{{Title: "A", Rating: 5}}})
	var unknown *UnknownItemError
	if !errors.As(err, &unknown) {
		t.Errorf("Recommend() error = %v, want *UnknownItemError", err)
	}
}

func TestEngine_ContentFactoryFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index = smallIndexConfig()
	factory := func(ctx context.Context, items []Item) (ContentRecommender, error) {
		return nil, errors.New("no genres")
	}

	engine, err := NewEngine(cfg, &mockDataProvider{dataset: fixtureDataset()}, factory, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	status, err := engine.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if status.ContentModel {
		t.Error("ContentModel = true, want false after factory failure")
	}
}

func TestEngine_ConcurrentRebuildRejected(t *testing.T) {
	provider := &mockDataProvider{dataset: fixtureDataset(), delay: 200 * time.Millisecond}
	engine := newTestEngine(t, provider, nil)

	done := make(chan error, 1)
	go func() {
		_, err := engine.Rebuild(context.Background())
		done <- err
	}()

	// Wait until the first rebuild holds the lock
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&provider.loadCalls) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := engine.Rebuild(context.Background()); !errors.Is(err, ErrRebuildInProgress) {
		t.Errorf("second Rebuild() error = %v, want ErrRebuildInProgress", err)
	}

	if err := <-done; err != nil {
		t.Errorf("first Rebuild() error = %v", err)
	}
}

func TestEngine_ConcurrentReadsDuringRebuild(t *testing.T) {
	engine := newTestEngine(t, &mockDataProvider{dataset: fixtureDataset()}, nil)
	ctx := context.Background()
	if _, err := engine.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				resp, err := engine.Recommend(ctx, Request{Seeds: []Seed{{Title: "A", Rating: 5}}})
				if err != nil || !equalStrings(resp.Titles, []string{"B", "C"}) {
					failures.Add(1)
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		if _, err := engine.Rebuild(ctx); err != nil && !errors.Is(err, ErrRebuildInProgress) {
			t.Errorf("Rebuild() error = %v", err)
		}
	}
	wg.Wait()

	if n := failures.Load(); n != 0 {
		t.Errorf("%d concurrent requests failed or saw a partial index", n)
	}
}
