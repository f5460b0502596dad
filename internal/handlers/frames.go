package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/storeops/isbnscan/internal/camera"
	"github.com/storeops/isbnscan/internal/station"
)

// HandleDetection accepts text a client decoded itself and pushes it into
// the station's live scan.
func (h *Handler) HandleDetection(w http.ResponseWriter, r *http.Request) {
	st, ok := h.feedStationOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var request struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := st.Feed.Push(request.Text); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, st.Engine.View())
}

// HandleFrame decodes an uploaded camera frame server-side and pushes the
// decoded barcode, if any, into the station's live scan.
func (h *Handler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	st, ok := h.feedStationOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if !st.Feed.Streaming() {
		h.writeWorkflowError(w, camera.ErrNotStreaming)
		return
	}

	file, _, err := r.FormFile("frame")
	if err != nil {
		file, _, err = r.FormFile("file")
		if err != nil {
			h.writeError(w, "Failed to read frame: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	frameData, err := io.ReadAll(io.LimitReader(file, maxFrameSize))
	if err != nil {
		h.writeError(w, "Failed to read frame contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(frameData) >= maxFrameSize {
		h.writeError(w, "Frame too large (max 10MB)", http.StatusBadRequest)
		return
	}

	text, err := camera.DecodeReader(bytes.NewReader(frameData))
	if err != nil {
		// most frames carry no barcode
		st.Feed.PushFrameError(err)
		slog.Debug("No barcode in frame", "station", st.ID, "error", err)
		h.writeJSON(w, map[string]any{"detected": false, "view": st.Engine.View()})
		return
	}

	if err := st.Feed.Push(text); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"detected": true, "text": text, "view": st.Engine.View()})
}

func (h *Handler) feedStationOrError(w http.ResponseWriter, stationID string) (*station.Station, bool) {
	st, ok := h.getStationOrError(w, stationID)
	if !ok {
		return nil, false
	}
	if st.Feed == nil {
		h.writeError(w, "Station does not accept pushed scans", http.StatusConflict)
		return nil, false
	}
	return st, true
}
