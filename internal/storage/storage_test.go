package storage

import (
	"testing"
	"time"

	"github.com/storeops/isbnscan/internal/config"
	"github.com/storeops/isbnscan/internal/station"
	"github.com/storeops/isbnscan/internal/workflow"
)

func newStation(f *station.Factory, id string) *station.Station {
	return f.New(id, "", nil, workflow.ScreenMainMenu, nil)
}

func TestStationStore(t *testing.T) {
	f := station.NewFactory(config.Default(), nil, nil, nil, nil)
	store := New()

	first := newStation(f, "b")
	second := newStation(f, "a")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	store.Set(first)
	store.Set(second)

	if got, ok := store.Get("b"); !ok || got != first {
		t.Errorf("Expected station b, got %v (found=%v)", got, ok)
	}
	if _, ok := store.Get("missing"); ok {
		t.Error("Expected missing station not to be found")
	}

	list := store.List()
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Errorf("Expected stations ordered by creation, got %v", list)
	}

	if !store.Delete("b") {
		t.Error("Expected delete to report an existing station")
	}
	if store.Delete("b") {
		t.Error("Expected second delete to report nothing removed")
	}
	if err := first.Engine.ShowMainMenu(); err != workflow.ErrClosed {
		t.Errorf("Expected deleted station's engine to be closed, got %v", err)
	}

	store.CloseAll()
	if len(store.List()) != 0 {
		t.Error("Expected CloseAll to empty the store")
	}
	if err := second.Engine.StartManualEntry(); err != workflow.ErrClosed {
		t.Errorf("Expected engine to be closed, got %v", err)
	}
}
