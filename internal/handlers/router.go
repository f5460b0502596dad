package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers the station API, the health check and any extra
// handlers such as /metrics.
func (h *Handler) NewRouter(extra map[string]http.Handler) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/options", h.HandleOptions).Methods("GET")
	api.HandleFunc("/stations", h.HandleListStations).Methods("GET")
	api.HandleFunc("/stations", h.HandleCreateStation).Methods("POST")
	api.HandleFunc("/stations/{id}", h.HandleGetStation).Methods("GET")
	api.HandleFunc("/stations/{id}", h.HandleDeleteStation).Methods("DELETE")
	api.HandleFunc("/stations/{id}/screen", h.HandleScreen).Methods("POST")
	api.HandleFunc("/stations/{id}/manual", h.HandleManualInput).Methods("PUT")
	api.HandleFunc("/stations/{id}/fields", h.HandleField).Methods("PUT")
	api.HandleFunc("/stations/{id}/save", h.HandleSave).Methods("POST")
	api.HandleFunc("/stations/{id}/detections", h.HandleDetection).Methods("POST")
	api.HandleFunc("/stations/{id}/frames", h.HandleFrame).Methods("POST")

	r.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	}).Methods("GET")

	for path, handler := range extra {
		r.Handle(path, handler)
	}
	return r
}
