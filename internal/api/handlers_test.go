// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/recommend"
)

// fakeRecommender is a scripted Recommender.
type fakeRecommender struct {
	mu        sync.Mutex
	ready     bool
	titles    []string
	recommend func(req recommend.Request) (*recommend.Response, error)
	lastReq   recommend.Request
	lastLimit int
}

func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if !f.ready {
		return nil, recommend.ErrIndexNotReady
	}
	return f.recommend(req)
}

func (f *fakeRecommender) Titles() []string { return f.titles }

func (f *fakeRecommender) SuggestTitles(prefix string, limit int) []string {
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
	var out []string
	for _, t := range f.titles {
		if strings.HasPrefix(strings.ToLower(t), strings.ToLower(prefix)) && len(out) < limit {
			out = append(out, t)
		}
	}
	return out
}

func (f *fakeRecommender) Status() recommend.IndexStatus {
	return recommend.IndexStatus{Ready: f.ready, Version: 3}
}

func (f *fakeRecommender) Ready() bool { return f.ready }

type fakeRebuilder struct {
	err    error
	reason string
}

func (f *fakeRebuilder) TriggerRebuild(reason string) error {
	f.reason = reason
	return f.err
}

type throttled struct{ wait time.Duration }

func (t throttled) Error() string             { return "throttled" }
func (t throttled) Unwrap() error             { return recommend.ErrRebuildThrottled }
func (t throttled) RetryAfter() time.Duration { return t.wait }

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func newReadyRecommender() *fakeRecommender {
	return &fakeRecommender{
		ready:  true,
		titles: []string{"Alien (1979)", "Aliens (1986)", "Heat (1995)", "Toy Story (1995)"},
		recommend: func(req recommend.Request) (*recommend.Response, error) {
			return &recommend.Response{
				Titles: []string{"Aliens (1986)", "Heat (1995)"},
				Scores: []recommend.ScoredTitle{{Title: "Aliens (1986)", Score: 2.1}, {Title: "Heat (1995)", Score: 0.4}},
				Metadata: recommend.ResponseMetadata{
					RequestID:    req.RequestID,
					Strategy:     req.Strategy.String(),
					TopN:         10,
					IndexVersion: 3,
				},
			}, nil
		},
	}
}

func newTestServer(engine Recommender, rebuilder RebuildTrigger, admin *auth.Middleware, mw *ChiMiddlewareConfig) http.Handler {
	if mw == nil {
		mw = DefaultChiMiddlewareConfig()
		mw.RateLimitDisabled = true
	}
	return NewRouter(NewHandler(engine, rebuilder), NewChiMiddleware(mw), admin).SetupChi()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	t.Parallel()

	notReady := &fakeRecommender{}
	h := newTestServer(notReady, nil, nil, nil)

	rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/health/ready", "", nil)
	if rec.Code != http.StatusServiceUnavailable || env.Status != "not_ready" {
		t.Errorf("ready before build = %d/%s, want 503/not_ready", rec.Code, env.Status)
	}

	h = newTestServer(newReadyRecommender(), nil, nil, nil)
	rec, env = doRequest(t, h, http.MethodGet, "/api/v1/health/ready", "", nil)
	if rec.Code != http.StatusOK || env.Status != "ready" {
		t.Errorf("ready after build = %d/%s, want 200/ready", rec.Code, env.Status)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestTitles(t *testing.T) {
	t.Parallel()

	engine := newReadyRecommender()
	h := newTestServer(engine, nil, nil, nil)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTitles []string
	}{
		{"all titles", "", http.StatusOK, engine.titles},
		{"truncated", "?limit=2", http.StatusOK, engine.titles[:2]},
		{"prefix", "?prefix=ali", http.StatusOK, []string{"Alien (1979)", "Aliens (1986)"}},
		{"prefix with limit", "?prefix=ali&limit=1", http.StatusOK, []string{"Alien (1979)"}},
		{"prefix no match", "?prefix=zz", http.StatusOK, []string{}},
		{"limit too large", "?prefix=a&limit=1000", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, h, http.MethodGet, "/api/v1/titles"+tt.query, "", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantTitles == nil {
				return
			}
			var data struct {
				Titles []string `json:"titles"`
				Total  int      `json:"total"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatal(err)
			}
			if fmt.Sprint(data.Titles) != fmt.Sprint(tt.wantTitles) || data.Total != len(tt.wantTitles) {
				t.Errorf("titles = %v (%d), want %v", data.Titles, data.Total, tt.wantTitles)
			}
		})
	}
}

func TestTitles_NotReady(t *testing.T) {
	t.Parallel()
	h := newTestServer(&fakeRecommender{}, nil, nil, nil)
	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/titles", "", nil)
	if rec.Code != http.StatusServiceUnavailable || env.Error.Code != CodeIndexNotReady {
		t.Errorf("got %d/%v, want 503/%s", rec.Code, env.Error, CodeIndexNotReady)
	}
}

func TestRecommend_Success(t *testing.T) {
	t.Parallel()

	engine := newReadyRecommender()
	h := newTestServer(engine, nil, nil, nil)

	body := `{"seeds":[{"title":"Alien (1979)"},{"title":"Toy Story (1995)","rating":1.5}],"top_n":5}`
	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/recommendations", body,
		map[string]string{"X-Request-ID": "client-7"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	engine.mu.Lock()
	got := engine.lastReq
	engine.mu.Unlock()
	if got.Strategy != recommend.StrategyCollaborative || got.TopN != 5 || got.RequestID != "client-7" {
		t.Errorf("engine request = %+v", got)
	}
	if got.Seeds[0].Rating != 5 || got.Seeds[1].Rating != 1.5 {
		t.Errorf("seed ratings = %v, %v, want 5 and 1.5", got.Seeds[0].Rating, got.Seeds[1].Rating)
	}

	var data struct {
		Titles    []string `json:"titles"`
		Strategy  string   `json:"strategy"`
		RequestID string   `json:"request_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(data.Titles) != "[Aliens (1986) Heat (1995)]" || data.Strategy != "collaborative" || data.RequestID != "client-7" {
		t.Errorf("data = %+v", data)
	}
}

func TestRecommend_DefaultStrategy(t *testing.T) {
	t.Parallel()

	engine := newReadyRecommender()
	handler := NewHandler(engine, nil)
	handler.SetDefaultStrategy("content")
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	h := NewRouter(handler, NewChiMiddleware(mw), nil).SetupChi()

	for _, tc := range []struct {
		body string
		want recommend.Strategy
	}{
		{`{"seeds":[{"title":"Alien (1979)"}]}`, recommend.StrategyContent},
		{`{"strategy":"collaborative","seeds":[{"title":"Alien (1979)"}]}`, recommend.StrategyCollaborative},
	} {
		rec, _ := doRequest(t, h, http.MethodPost, "/api/v1/recommendations", tc.body, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
		}
		engine.mu.Lock()
		got := engine.lastReq.Strategy
		engine.mu.Unlock()
		if got != tc.want {
			t.Errorf("body %s: strategy = %v, want %v", tc.body, got, tc.want)
		}
	}
}

func TestRecommend_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		engineErr  error
		notReady   bool
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"seeds":`, nil, false, http.StatusBadRequest, CodeInvalidJSON},
		{"empty body", ` `, nil, false, http.StatusBadRequest, CodeInvalidJSON},
		{"unknown field", `{"seeds":[{"title":"a"}],"limit":3}`, nil, false, http.StatusBadRequest, CodeInvalidJSON},
		{"trailing data", `{"seeds":[{"title":"a"}]} {}`, nil, false, http.StatusBadRequest, CodeInvalidJSON},
		{"no seeds", `{"seeds":[]}`, nil, false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"rating out of range", `{"seeds":[{"title":"a","rating":9}]}`, nil, false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad strategy", `{"strategy":"hybrid","seeds":[{"title":"a"}]}`, nil, false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{
			"engine invalid request", `{"seeds":[{"title":"a"}]}`,
			&recommend.InvalidRequestError{Field: "seeds", Reason: "must contain at most 20 entries"},
			false, http.StatusBadRequest, CodeInvalidRequest,
		},
		{"not ready", `{"seeds":[{"title":"a"}]}`, nil, true, http.StatusServiceUnavailable, CodeIndexNotReady},
		{
			"content model unavailable", `{"strategy":"content","seeds":[{"title":"a"}]}`,
			recommend.ErrContentModelUnavailable, false, http.StatusServiceUnavailable, CodeContentUnavailable,
		},
		{"internal", `{"seeds":[{"title":"a"}]}`, errors.New("boom"), false, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine := newReadyRecommender()
			engine.ready = !tt.notReady
			if tt.engineErr != nil {
				err := tt.engineErr
				engine.recommend = func(recommend.Request) (*recommend.Response, error) { return nil, err }
			}
			h := newTestServer(engine, nil, nil, nil)

			rec, env := doRequest(t, h, http.MethodPost, "/api/v1/recommendations", tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.Status != "error" || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestRecommend_UnknownItems(t *testing.T) {
	t.Parallel()

	engine := newReadyRecommender()
	engine.recommend = func(recommend.Request) (*recommend.Response, error) {
		return nil, &recommend.UnknownItemError{Titles: []string{"Nope (2001)", "Gone (1999)"}}
	}
	h := newTestServer(engine, nil, nil, nil)

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/recommendations",
		`{"seeds":[{"title":"Nope (2001)"},{"title":"Gone (1999)"}]}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	titles, ok := env.Error.Details["titles"].([]interface{})
	if !ok || len(titles) != 2 || titles[0] != "Nope (2001)" || titles[1] != "Gone (1999)" {
		t.Errorf("details.titles = %v", env.Error.Details["titles"])
	}
}

func TestRecommend_UnsupportedMediaType(t *testing.T) {
	t.Parallel()
	h := newTestServer(newReadyRecommender(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", strings.NewReader(`seeds=a`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestIndexStatus(t *testing.T) {
	t.Parallel()
	h := newTestServer(newReadyRecommender(), nil, nil, nil)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/index/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status recommend.IndexStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatal(err)
	}
	if !status.Ready || status.Version != 3 {
		t.Errorf("status = %+v", status)
	}
}

func TestRebuildIndex(t *testing.T) {
	t.Parallel()

	manager, err := auth.NewJWTManager(strings.Repeat("s", auth.MinSecretLength))
	if err != nil {
		t.Fatal(err)
	}
	adminToken, _ := manager.GenerateToken("ops", auth.RoleAdmin, time.Hour)
	viewerToken, _ := manager.GenerateToken("bob", "viewer", time.Hour)
	secured := auth.NewMiddleware(manager, AdminErrorWriter)

	tests := []struct {
		name       string
		admin      *auth.Middleware
		token      string
		triggerErr error
		nilTrigger bool
		wantStatus int
		wantCode   string
		wantReason string
	}{
		{name: "open endpoint", wantStatus: http.StatusAccepted, wantReason: "api"},
		{name: "admin token", admin: secured, token: adminToken, wantStatus: http.StatusAccepted, wantReason: "api:ops"},
		{name: "missing token", admin: secured, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "viewer token", admin: secured, token: viewerToken, wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
		{name: "in progress", triggerErr: recommend.ErrRebuildInProgress, wantStatus: http.StatusConflict, wantCode: CodeRebuildInProgress},
		{name: "throttled", triggerErr: throttled{wait: 1500 * time.Millisecond}, wantStatus: http.StatusTooManyRequests, wantCode: CodeRebuildThrottled},
		{name: "no trigger", nilTrigger: true, wantStatus: http.StatusServiceUnavailable, wantCode: CodeRebuildUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			trigger := &fakeRebuilder{err: tt.triggerErr}
			var rb RebuildTrigger = trigger
			if tt.nilTrigger {
				rb = nil
			}
			h := newTestServer(newReadyRecommender(), rb, tt.admin, nil)

			header := map[string]string{}
			if tt.token != "" {
				header["Authorization"] = "Bearer " + tt.token
			}
			rec, env := doRequest(t, h, http.MethodPost, "/api/v1/index/rebuild", "", header)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" && (env.Error == nil || env.Error.Code != tt.wantCode) {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantCode)
			}
			if tt.wantReason != "" && trigger.reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", trigger.reason, tt.wantReason)
			}
			if tt.name == "throttled" && rec.Header().Get("Retry-After") != "2" {
				t.Errorf("Retry-After = %q, want 2", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	h := newTestServer(newReadyRecommender(), nil, nil, cfg)

	codes := make([]int, 3)
	for i := range codes {
		rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/index/status", "", nil)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// Health probes get their own, larger budget.
	rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestRouter_NotFoundAndMetrics(t *testing.T) {
	t.Parallel()
	h := newTestServer(newReadyRecommender(), nil, nil, nil)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/nope", "", nil)
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("not found = %d/%+v", rec.Code, env.Error)
	}

	rec, _ = doRequest(t, h, http.MethodGet, "/api/v1/recommendations", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET recommendations = %d, want 405", rec.Code)
	}

	rec, _ = doRequest(t, h, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Errorf("metrics = %d", rec.Code)
	}
}
