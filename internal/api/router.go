// Package api exposes content sessions over a JSON HTTP API.
package api

import (
	"io"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/unalkalkan/ReelPilot/internal/health"
)

// RouterOptions wires the HTTP surface
type RouterOptions struct {
	Sessions       *SessionHandler
	Health         *health.Handler
	Info           http.HandlerFunc
	AllowedOrigins []string
	AccessLog      io.Writer
}

// NewRouter builds the routed handler with CORS, access logging and
// panic recovery applied
func NewRouter(opts RouterOptions) http.Handler {
	r := mux.NewRouter()

	if opts.Health != nil {
		r.HandleFunc("/health", opts.Health.HealthHandler()).Methods(http.MethodGet)
		r.HandleFunc("/health/live", opts.Health.LivenessHandler()).Methods(http.MethodGet)
		r.HandleFunc("/health/ready", opts.Health.ReadinessHandler()).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()
	if opts.Info != nil {
		v1.HandleFunc("/info", opts.Info).Methods(http.MethodGet)
	}
	opts.Sessions.Register(v1)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	var h http.Handler = r
	h = cors(h)
	if opts.AccessLog != nil {
		h = handlers.LoggingHandler(opts.AccessLog, h)
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(log.Default()),
		handlers.PrintRecoveryStack(true),
	)(h)
}
