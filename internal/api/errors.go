// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/recommend"
)

// Error codes returned in APIError.Code.
const (
	CodeInvalidJSON          = "INVALID_JSON"
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeUnknownItem          = "UNKNOWN_ITEM"
	CodeIndexNotReady        = "INDEX_NOT_READY"
	CodeContentUnavailable   = "CONTENT_MODEL_UNAVAILABLE"
	CodeRebuildInProgress    = "REBUILD_IN_PROGRESS"
	CodeRebuildThrottled     = "REBUILD_THROTTLED"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeRequestTimeout       = "REQUEST_TIMEOUT"
	CodeInternalError        = "INTERNAL_ERROR"
	CodeRequestBodyTooLarge  = "REQUEST_TOO_LARGE"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeEventsUnavailable    = "EVENTS_UNAVAILABLE"
	CodeRebuildUnavailable   = "REBUILD_UNAVAILABLE"
)

// Recommendation outcome labels for metrics.RecordRecommendation.
const (
	outcomeSuccess     = "success"
	outcomeInvalid     = "invalid"
	outcomeUnknownItem = "unknown_item"
	outcomeNotReady    = "not_ready"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// errorResponse maps an engine error to an HTTP status, an API error body
// and a metrics outcome label.
func errorResponse(err error) (int, *models.APIError, string) {
	var invalid *recommend.InvalidRequestError
	var unknown *recommend.UnknownItemError

	switch {
	case errors.As(err, &unknown):
		return http.StatusUnprocessableEntity, &models.APIError{
			Code:    CodeUnknownItem,
			Message: "One or more seed titles are not in the index",
			Details: map[string]interface{}{"titles": unknown.Titles},
		}, outcomeUnknownItem
	case errors.As(err, &invalid):
		return http.StatusBadRequest, &models.APIError{
			Code:    CodeInvalidRequest,
			Message: invalid.Error(),
			Details: map[string]interface{}{"field": invalid.Field},
		}, outcomeInvalid
	case errors.Is(err, recommend.ErrIndexNotReady):
		return http.StatusServiceUnavailable, &models.APIError{
			Code:    CodeIndexNotReady,
			Message: "The recommendation index is still being built",
		}, outcomeNotReady
	case errors.Is(err, recommend.ErrContentModelUnavailable):
		return http.StatusServiceUnavailable, &models.APIError{
			Code:    CodeContentUnavailable,
			Message: "Content-based recommendations are not available",
		}, outcomeUnavailable
	case errors.Is(err, recommend.ErrRebuildInProgress):
		return http.StatusConflict, &models.APIError{
			Code:    CodeRebuildInProgress,
			Message: "An index rebuild is already running",
		}, outcomeError
	case errors.Is(err, recommend.ErrRebuildThrottled):
		return http.StatusTooManyRequests, &models.APIError{
			Code:    CodeRebuildThrottled,
			Message: "An index rebuild was requested too recently",
		}, outcomeError
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, &models.APIError{
			Code:    CodeRequestTimeout,
			Message: "The request did not complete in time",
		}, outcomeError
	default:
		return http.StatusInternalServerError, &models.APIError{
			Code:    CodeInternalError,
			Message: "Internal server error",
		}, outcomeError
	}
}
