package workflow

import (
	"github.com/storeops/isbnscan/internal/camera"
	"github.com/storeops/isbnscan/internal/models"
)

// ScreenName identifies the active screen
type ScreenName string

const (
	ScreenMainMenu      ScreenName = "main_menu"
	ScreenManualEntry   ScreenName = "manual_entry"
	ScreenLiveScan      ScreenName = "live_scan"
	ScreenMetadataEntry ScreenName = "metadata_entry"
)

// Screen is the active screen and its payload. Exactly one variant is
// active at a time, so per-screen state cannot leak into another screen.
type Screen interface {
	Name() ScreenName
}

// MainMenu offers scanning or manual entry
type MainMenu struct{}

// ManualEntry holds the operator's typed ISBN
type ManualEntry struct {
	Input string `json:"input"`
}

// LiveScan mirrors the capture session
type LiveScan struct {
	CameraState string `json:"camera_state"`
	Status      string `json:"status"`
	Device      string `json:"device,omitempty"`

	session *camera.Session
}

// MetadataEntry holds the in-flight record and the form state around it
type MetadataEntry struct {
	Record       models.BookRecord `json:"record"`
	Loading      bool              `json:"loading"`
	TitleManual  bool              `json:"title_manual"`
	AuthorManual bool              `json:"author_manual"`
	Saving       bool              `json:"saving"`
	Saved        bool              `json:"saved"`
	Message      string            `json:"message,omitempty"`
}

func (*MainMenu) Name() ScreenName      { return ScreenMainMenu }
func (*ManualEntry) Name() ScreenName   { return ScreenManualEntry }
func (*LiveScan) Name() ScreenName      { return ScreenLiveScan }
func (*MetadataEntry) Name() ScreenName { return ScreenMetadataEntry }

// CanSave reports whether the save affordance is active
func (m *MetadataEntry) CanSave() bool {
	return !m.Loading && !m.Saving && !m.Saved
}

// View is an immutable snapshot of the engine for rendering
type View struct {
	Screen   ScreenName     `json:"screen"`
	Variant  models.Variant `json:"variant"`
	Manual   *ManualEntry   `json:"manual,omitempty"`
	Scan     *LiveScan      `json:"scan,omitempty"`
	Metadata *MetadataView  `json:"metadata,omitempty"`
}

// MetadataView adds the derived save affordance to MetadataEntry
type MetadataView struct {
	MetadataEntry
	CanSave bool `json:"can_save"`
}

func snapshot(s Screen, variant models.Variant) View {
	v := View{Screen: s.Name(), Variant: variant}
	switch s := s.(type) {
	case *ManualEntry:
		c := *s
		v.Manual = &c
	case *LiveScan:
		c := LiveScan{CameraState: camera.StateIdle.String()}
		if s.session != nil {
			c.CameraState = s.session.State().String()
			c.Status = s.session.Status()
			c.Device = s.session.Device().Label
		}
		v.Scan = &c
	case *MetadataEntry:
		v.Metadata = &MetadataView{MetadataEntry: *s, CanSave: s.CanSave()}
	}
	return v
}
