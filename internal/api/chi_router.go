// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/middleware"
)

// healthRateFactor lets probes poll far more often than clients.
const healthRateFactor = 10

// Router wires the handlers into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	admin         *auth.Middleware
}

// NewRouter creates a router. admin guards the rebuild endpoint; pass
// auth.NewMiddleware(nil, ...) to leave it open.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, admin *auth.Middleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	if admin == nil {
		admin = auth.NewMiddleware(nil, nil)
	}
	return &Router{handler: handler, chiMiddleware: chiMW, admin: admin}
}

// AdminErrorWriter renders auth failures in the API error envelope.
func AdminErrorWriter(w http.ResponseWriter, status int, code, message string) {
	respondError(w, status, code, message, nil)
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("health", healthRateFactor))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Outside the compressed group: the upgrade hijacks the connection.
	r.With(router.chiMiddleware.RateLimit("events", 1), APISecurityHeaders()).
		Get("/api/v1/events", router.handler.Events)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("api", 1))
		r.Use(APISecurityHeaders())
		r.Use(middleware.Compression)

		r.Get("/titles", router.handler.Titles)
		r.Post("/recommendations", router.handler.Recommend)

		r.Route("/index", func(r chi.Router) {
			r.Get("/status", router.handler.IndexStatus)
			r.With(router.admin.RequireRole(auth.RoleAdmin)).Post("/rebuild", router.handler.RebuildIndex)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
