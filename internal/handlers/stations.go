package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/storeops/isbnscan/internal/station"
	"github.com/storeops/isbnscan/internal/workflow"
)

func (h *Handler) HandleListStations(w http.ResponseWriter, r *http.Request) {
	stations := h.stationStore.List()
	summaries := make([]station.Summary, 0, len(stations))
	for _, st := range stations {
		summaries = append(summaries, st.Summary())
	}
	h.writeJSON(w, summaries)
}

func (h *Handler) HandleCreateStation(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Label   string `json:"label"`
		Initial string `json:"initial_screen"`
	}
	if err := decodeOptional(r, &request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	initial := workflow.ScreenName(request.Initial)
	if initial != "" && initial != workflow.ScreenMainMenu && initial != workflow.ScreenManualEntry {
		h.writeError(w, "Invalid initial_screen. Must be 'main_menu' or 'manual_entry'", http.StatusBadRequest)
		return
	}

	st := h.factory.New(uuid.New().String(), request.Label, nil, initial, nil)
	h.stationStore.Set(st)

	h.writeJSONStatus(w, http.StatusCreated, st.Summary())
}

func (h *Handler) HandleGetStation(w http.ResponseWriter, r *http.Request) {
	st, ok := h.getStationOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	h.writeJSON(w, st.Summary())
}

func (h *Handler) HandleDeleteStation(w http.ResponseWriter, r *http.Request) {
	if !h.stationStore.Delete(mux.Vars(r)["id"]) {
		h.writeError(w, "Station not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	st, ok := h.getStationOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var request struct {
		Screen string `json:"screen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	switch workflow.ScreenName(request.Screen) {
	case workflow.ScreenMainMenu:
		err = st.Engine.ShowMainMenu()
	case workflow.ScreenManualEntry:
		err = st.Engine.StartManualEntry()
	case workflow.ScreenLiveScan:
		err = st.Engine.StartLiveScan()
	default:
		h.writeError(w, "Invalid screen. Must be 'main_menu', 'manual_entry', or 'live_scan'", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, st.Engine.View())
}

func (h *Handler) HandleManualInput(w http.ResponseWriter, r *http.Request) {
	st, ok := h.getStationOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var request struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := st.Engine.SetManualInput(request.Input); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, st.Engine.View())
}

func (h *Handler) HandleField(w http.ResponseWriter, r *http.Request) {
	st, ok := h.getStationOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var request struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := st.Engine.SetField(workflow.Field(request.Field), request.Value); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, st.Engine.View())
}

// HandleSave blocks until the catalog service answers. The save is not
// tied to the request, so a client that disconnects does not abort it.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	st, ok := h.getStationOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if err := st.Engine.Save(context.WithoutCancel(r.Context())); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, st.Engine.View())
}

func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	cfg := h.factory.Config()
	h.writeJSON(w, map[string]any{
		"variant":        cfg.Variant,
		"locations":      cfg.Vocabulary.Locations,
		"categories":     cfg.Vocabulary.Categories,
		"sub_categories": cfg.Vocabulary.SubCategories,
	})
}

// decodeOptional decodes a JSON body if one was sent
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
