// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/marquee/internal/logging"
)

type contextKey string

// ClaimsContextKey holds the validated *Claims on the request context.
const ClaimsContextKey contextKey = "claims"

var (
	errMissingToken = errors.New("missing bearer token")
	errBadHeader    = errors.New("invalid authorization header")
)

// ErrorWriter renders an authentication failure. The API package supplies
// one that produces its JSON error envelope.
type ErrorWriter func(w http.ResponseWriter, status int, code, message string)

// Middleware guards handlers behind a role check.
type Middleware struct {
	jwt      *JWTManager
	onError  ErrorWriter
	disabled bool
}

// NewMiddleware returns a middleware validating tokens with manager. A nil
// manager disables the check, so every request passes.
func NewMiddleware(manager *JWTManager, onError ErrorWriter) *Middleware {
	if onError == nil {
		onError = func(w http.ResponseWriter, status int, _, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{jwt: manager, onError: onError, disabled: manager == nil}
}

// Enabled reports whether tokens are checked.
func (m *Middleware) Enabled() bool {
	return !m.disabled
}

// RequireRole returns chi-compatible middleware admitting only tokens
// carrying role. The admin role satisfies every check.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			token, err := extractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="marquee"`)
				m.onError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized: "+err.Error())
				return
			}

			claims, err := m.jwt.ValidateToken(token)
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
				w.Header().Set("WWW-Authenticate", `Bearer realm="marquee", error="invalid_token"`)
				m.onError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized: invalid token")
				return
			}

			if claims.Role != role && claims.Role != RoleAdmin {
				m.onError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden: insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by RequireRole, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errBadHeader
	}
	return strings.TrimSpace(parts[1]), nil
}
