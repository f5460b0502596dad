package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storeops/isbnscan/internal/camera"
	"github.com/storeops/isbnscan/internal/save"
	"github.com/storeops/isbnscan/internal/station"
	"github.com/storeops/isbnscan/internal/storage"
	"github.com/storeops/isbnscan/internal/workflow"
)

// maxFrameSize caps uploaded frames at 10MB
const maxFrameSize = 10 * 1024 * 1024

type Handler struct {
	stationStore *storage.StationStore
	factory      *station.Factory
}

func New(factory *station.Factory, store *storage.StationStore) *Handler {
	if store == nil {
		store = storage.New()
	}
	return &Handler{
		stationStore: store,
		factory:      factory,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Debug(message, "status", code)
	}
	http.Error(w, message, code)
}

// writeWorkflowError maps engine and save errors to HTTP statuses
func (h *Handler) writeWorkflowError(w http.ResponseWriter, err error) {
	var verr *save.ValidationError
	if errors.As(err, &verr) {
		h.writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   verr.Error(),
			"missing": verr.Missing,
			"invalid": verr.Invalid,
		})
		return
	}

	var ferr *save.FailureError
	switch {
	case errors.As(err, &ferr):
		h.writeJSONStatus(w, http.StatusBadGateway, map[string]any{
			"error":   err.Error(),
			"message": save.MessageFailed,
		})
	case errors.Is(err, workflow.ErrUnknownField):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, workflow.ErrClosed):
		h.writeError(w, err.Error(), http.StatusGone)
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrWrongScreen),
		errors.Is(err, workflow.ErrLoading),
		errors.Is(err, workflow.ErrFieldLocked),
		errors.Is(err, workflow.ErrAlreadySaved),
		errors.Is(err, workflow.ErrNoCapability),
		errors.Is(err, save.ErrInFlight),
		errors.Is(err, camera.ErrNotStreaming):
		h.writeError(w, err.Error(), http.StatusConflict)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Station helpers
func (h *Handler) getStationOrError(w http.ResponseWriter, stationID string) (*station.Station, bool) {
	st, exists := h.stationStore.Get(stationID)
	if !exists {
		h.writeError(w, "Station not found", http.StatusNotFound)
		return nil, false
	}
	return st, true
}
