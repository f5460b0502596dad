package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/storeops/isbnscan/internal/isbn"
	"github.com/storeops/isbnscan/internal/metrics"
)

// State of a capture session. Sessions move forward only:
// Idle -> Initializing -> (Error | Scanning) -> Stopped.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateScanning
	StateError
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateScanning:
		return "scanning"
	case StateError:
		return "error"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Operator-facing status lines
const (
	StatusInitializing = "Initializing camera..."
	StatusScanning     = "Position the barcode within the frame"
	StatusEnumerate    = "Could not access camera."
	StatusNoCamera     = "No camera found. Please grant camera permissions."
	StatusStart        = "Failed to start the camera. Please check permissions."
)

// Session is one camera acquisition. It delivers at most one accepted ISBN
// and is never restarted; scanning again needs a fresh Session.
type Session struct {
	capability Capability
	config     Config
	onAccepted func(isbn string)
	onChange   func(State, string)
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// armed is cleared by the first accepted detection so that frames
	// decoded before the stream has stopped are ignored.
	armed atomic.Bool

	// done is closed when Start returns
	done chan struct{}

	mu        sync.Mutex
	started   bool
	state     State
	status    string
	device    Device
	streaming bool
	disposed  bool
}

// Option configures a Session
type Option func(*Session)

func WithConfig(cfg Config) Option                { return func(s *Session) { s.config = cfg } }
func WithLogger(l *slog.Logger) Option            { return func(s *Session) { s.logger = l } }
func WithMetrics(m *metrics.Metrics) Option       { return func(s *Session) { s.metrics = m } }
func OnStateChange(fn func(State, string)) Option { return func(s *Session) { s.onChange = fn } }

// NewSession creates an idle session. onAccepted runs once, after the
// stream has been stopped.
func NewSession(capability Capability, onAccepted func(isbn string), opts ...Option) *Session {
	s := &Session{
		capability: capability,
		config:     DefaultConfig(),
		onAccepted: onAccepted,
		logger:     slog.Default(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the operator-facing status line
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Device returns the selected device, if any
func (s *Session) Device() Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Done is closed once Start has returned. A session disposed while starting
// may still hold the device until then.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start enumerates devices, picks one and starts the stream. Failures leave
// the session in StateError with a distinct status and are also returned.
// If the session is disposed before or while starting, Start stops
// whatever it acquired and returns nil.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrReused
	}
	s.started = true
	defer close(s.done)
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.setLocked(StateInitializing, StatusInitializing)
	s.mu.Unlock()
	s.notify(StateInitializing, StatusInitializing)

	devices, err := s.capability.ListDevices(ctx)
	if err != nil {
		return s.fail("enumerate", StatusEnumerate, fmt.Errorf("%w: %w", ErrEnumerate, err))
	}
	if s.isDisposed() {
		return nil
	}

	device, err := SelectDevice(devices)
	if err != nil {
		return s.fail("no_camera", StatusNoCamera, err)
	}

	s.mu.Lock()
	s.device = device
	s.mu.Unlock()

	s.logger.Debug("Starting camera", "device", device.ID, "label", device.Label, "fps", s.config.FPS)
	if err := s.capability.Start(ctx, device.ID, s.config, s.handleDetected, s.handleFrameError); err != nil {
		return s.fail("start", StatusStart, fmt.Errorf("%w: %w", ErrStart, err))
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		s.stopQuietly()
		return nil
	}
	s.streaming = true
	s.setLocked(StateScanning, StatusScanning)
	s.armed.Store(true)
	s.mu.Unlock()
	s.notify(StateScanning, StatusScanning)

	s.logger.Info("Camera scanning", "device", device.ID)
	return nil
}

// Dispose tears the session down. It stops an active stream, logs and
// swallows stop errors, and is safe to call more than once.
func (s *Session) Dispose() {
	s.armed.Store(false)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	wasStreaming := s.streaming
	changed := s.state != StateStopped
	s.streaming = false
	s.setLocked(StateStopped, "")
	s.mu.Unlock()

	if wasStreaming {
		s.stopQuietly()
	}
	if changed {
		s.notify(StateStopped, "")
	}
}

func (s *Session) handleDetected(text string) {
	candidate, ok := isbn.FromScan(text)
	if !ok {
		return
	}
	if !s.armed.CompareAndSwap(true, false) {
		return
	}

	s.mu.Lock()
	if !s.streaming {
		// disposed between arming and this frame
		s.mu.Unlock()
		return
	}
	s.streaming = false
	s.setLocked(StateStopped, "")
	s.mu.Unlock()

	s.stopQuietly()
	s.notify(StateStopped, "")

	s.logger.Info("Barcode accepted", "isbn", candidate)
	s.metrics.ScanAccepted()
	s.onAccepted(candidate)
}

// handleFrameError swallows per-frame decode failures; most frames simply
// contain no barcode.
func (s *Session) handleFrameError(err error) {}

func (s *Session) stopQuietly() {
	if err := s.capability.Stop(context.Background()); err != nil {
		s.logger.Warn("Error stopping the scanner", "error", err)
		s.metrics.CameraError("stop")
	}
}

func (s *Session) fail(stage, status string, err error) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.setLocked(StateError, status)
	s.mu.Unlock()
	s.notify(StateError, status)

	s.logger.Error("Camera initialization error", "stage", stage, "error", err)
	s.metrics.CameraError(stage)
	return err
}

func (s *Session) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *Session) setLocked(state State, status string) {
	s.state = state
	s.status = status
}

func (s *Session) notify(state State, status string) {
	if s.onChange != nil {
		s.onChange(state, status)
	}
}
