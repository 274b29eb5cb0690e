// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package api exposes the recommendation engine over HTTP using the chi router.

Routes:

	GET  /api/v1/health/live         liveness probe, always 200
	GET  /api/v1/health/ready        200 once an index is serving, else 503
	GET  /api/v1/titles              titles accepted as seeds (?prefix=&limit=)
	POST /api/v1/recommendations     rank titles for a set of seeds
	GET  /api/v1/index/status        state of the serving index
	POST /api/v1/index/rebuild       schedule a rebuild (admin JWT when configured)
	GET  /api/v1/events              websocket stream of index rebuild events
	GET  /metrics                    Prometheus exposition

Every JSON body uses the models.APIResponse envelope. Engine errors map to
HTTP statuses in one place, see errorResponse.

Middleware order, outermost first: request ID, real IP, panic recovery,
CORS, then per-group rate limiting, security headers, Prometheus metrics
and gzip compression. The events route skips compression so the
connection can be hijacked.
*/
package api
