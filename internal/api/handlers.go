package api

import (
	"context"
	"dbprobe/internal/models"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Prober runs one database probe. Implementations never fail; every
// outcome is carried in the result's Status.
type Prober interface {
	Run(ctx context.Context) models.ProbeResult
}

// Handlers contains the HTTP handlers for the probe service
type Handlers struct {
	prober Prober
}

// NewHandlers creates a new handlers instance
func NewHandlers(prober Prober) *Handlers {
	return &Handlers{
		prober: prober,
	}
}

// ServeProbe runs the probe and reports the result.
// GET /
// The status code is always 200; failures are described in the body.
func (h *Handlers) ServeProbe(w http.ResponseWriter, r *http.Request) {
	result := h.prober.Run(r.Context())
	h.writeJSONResponse(w, http.StatusOK, result)
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, data)
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing left to tell the client.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	writeJSON(w, statusCode, models.NewErrorResponse(message, errorCode))
}
