// Package storage keeps the stations served by one process in memory.
package storage

import (
	"slices"
	"strings"
	"sync"

	"github.com/storeops/isbnscan/internal/station"
)

type StationStore struct {
	stations map[string]*station.Station
	mu       sync.RWMutex
}

func New() *StationStore {
	return &StationStore{
		stations: make(map[string]*station.Station),
	}
}

func (s *StationStore) Get(stationID string) (*station.Station, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, exists := s.stations[stationID]
	return st, exists
}

func (s *StationStore) Set(st *station.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations[st.ID] = st
}

// List returns the stations oldest first
func (s *StationStore) List() []*station.Station {
	s.mu.RLock()
	result := make([]*station.Station, 0, len(s.stations))
	for _, st := range s.stations {
		result = append(result, st)
	}
	s.mu.RUnlock()

	slices.SortFunc(result, func(a, b *station.Station) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result
}

// Delete removes a station and closes its engine
func (s *StationStore) Delete(stationID string) bool {
	s.mu.Lock()
	st, exists := s.stations[stationID]
	delete(s.stations, stationID)
	s.mu.Unlock()

	if exists {
		st.Engine.Close()
	}
	return exists
}

// CloseAll closes and removes every station
func (s *StationStore) CloseAll() {
	s.mu.Lock()
	stations := s.stations
	s.stations = make(map[string]*station.Station)
	s.mu.Unlock()

	for _, st := range stations {
		st.Engine.Close()
	}
}
