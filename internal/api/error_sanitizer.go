package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/clube/associados/internal/pkg/httputil"
	"github.com/clube/associados/internal/pkg/logger"
)

// =============================================================================
// ERROR SANITIZER
// Internal errors (driver messages, connection strings, stack traces) never
// reach API consumers. 5xx responses carry a fixed public message and an
// incident ID; the full error is logged server-side under the same ID.
// =============================================================================

// IncidentHeader carries the incident ID of a sanitized failure.
const IncidentHeader = "X-Incident-ID"

// respondSafeError logs internalErr under a fresh incident ID and sends
// publicMsg to the client.
func respondSafeError(w http.ResponseWriter, r *http.Request, code int, internalErr error, publicMsg string) {
	incident := uuid.NewString()
	logger.Error("request failed",
		"incident_id", incident,
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", code,
		"error", internalErr,
	)
	w.Header().Set(IncidentHeader, incident)
	httputil.Error(w, code, publicMsg)
}
