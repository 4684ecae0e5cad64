package api

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/clube/associados/internal/metrics"
)

// msgServerPanic is sent when a handler panics.
const msgServerPanic = "Algo deu errado no servidor!"

// RouteOptions carries the settings SetupRoutes needs beyond the handlers.
type RouteOptions struct {
	AllowedOrigins []string
}

// SetupRoutes configures all API routes. hc may be nil, in which case the
// health endpoints are not mounted.
func SetupRoutes(h *Handlers, hc *HealthChecker, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(recoverJSON)
	r.Use(metrics.InstrumentHandler)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{IncidentHeader},
		MaxAge:         300,
	}))

	r.Get("/", h.Welcome)

	if hc != nil {
		r.Get("/health", hc.HandleHealth)
		r.Get("/health/live", hc.HandleLiveness)
		r.Get("/health/ready", hc.HandleReadiness)
		r.Get("/health/db", hc.HandleDBStats)
	}
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/associados", func(r chi.Router) {
		r.Post("/", h.CreateAssociado)
		r.Get("/", h.ListAssociados)

		// Lookup by CPF, also reachable without the "cpf" segment.
		r.Get("/cpf/{cpf}", h.GetAssociado)

		r.Get("/{cpf}", h.GetAssociado)
		r.Put("/{cpf}", h.UpdateAssociado)
		r.Delete("/{cpf}", h.DeleteAssociado)
	})

	return r
}

// recoverJSON turns a handler panic into a sanitized 500 JSON response.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			respondSafeError(w, r, http.StatusInternalServerError,
				fmt.Errorf("panic: %v\n%s", rec, debug.Stack()), msgServerPanic)
		}()
		next.ServeHTTP(w, r)
	})
}
