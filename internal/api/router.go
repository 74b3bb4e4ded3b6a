package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openmahjong/parlor/internal/api/handler"
	apimiddleware "github.com/openmahjong/parlor/internal/api/middleware"
	"github.com/openmahjong/parlor/internal/middleware"
	"github.com/openmahjong/parlor/internal/services/registry"
	"github.com/openmahjong/parlor/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Registry *registry.Registry
	Storage  storage.Storage

	// WSEndpoint is mounted at /ws; all live play flows over it
	WSEndpoint http.Handler
}

// NewRouter creates the HTTP surface: the websocket endpoint for live
// play plus a small read-only REST API for records and status
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	recordsHandler := handler.NewRecordsHandler(cfg.Storage)
	statusHandler := handler.NewStatusHandler(cfg.Registry)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/status", statusHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/records", recordsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}", recordsHandler.Get).Methods(http.MethodGet)

	// The websocket endpoint skips the logging middleware: a connection
	// is long-lived and would only log at close
	r.Handle("/ws", cfg.WSEndpoint)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
