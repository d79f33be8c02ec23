package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler serves the liveness banner and the health check.
type StatusHandler struct {
	store  Pinger
	logger *slog.Logger
}

func NewStatusHandler(store Pinger, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{store: store, logger: logger}
}

// HandleRoot answers GET / with a static banner.
func (h *StatusHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, "<h1>Server is running...</h1>")
}

// HandleHealth answers GET /healthz: 200 when the store answers a ping,
// 503 otherwise.
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
