package camera

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrNotStreaming is returned by Push when no stream is active
var ErrNotStreaming = errors.New("feed is not streaming")

// Feed is a single-device capability whose decoded text is pushed in from
// outside: a keyboard-wedge barcode reader, or a client that decodes
// frames itself and posts the text.
type Feed struct {
	device Device

	mu           sync.Mutex
	running      bool
	onDetected   func(string)
	onFrameError func(error)
}

// NewFeed creates a feed exposing one device with the given label
func NewFeed(label string) *Feed {
	if label == "" {
		label = "back scanner"
	}
	return &Feed{device: Device{ID: "feed", Label: label}}
}

func (f *Feed) ListDevices(ctx context.Context) ([]Device, error) {
	return []Device{f.device}, nil
}

func (f *Feed) Start(ctx context.Context, deviceID string, cfg Config, onDetected func(string), onFrameError func(error)) error {
	if deviceID != f.device.ID {
		return fmt.Errorf("unknown device %q", deviceID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return fmt.Errorf("device %q already streaming", deviceID)
	}
	f.running = true
	f.onDetected = onDetected
	f.onFrameError = onFrameError
	return nil
}

func (f *Feed) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	f.onDetected = nil
	f.onFrameError = nil
	return nil
}

// Streaming reports whether a session is consuming the feed
func (f *Feed) Streaming() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Push delivers one decoded text candidate to the active stream
func (f *Feed) Push(text string) error {
	f.mu.Lock()
	cb := f.onDetected
	running := f.running
	f.mu.Unlock()

	if !running || cb == nil {
		return ErrNotStreaming
	}
	cb(text)
	return nil
}

// PushFrameError reports a client-side decode failure to the active stream
func (f *Feed) PushFrameError(err error) {
	f.mu.Lock()
	cb := f.onFrameError
	f.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// PumpLines reads newline-terminated scans from r, as a keyboard-wedge
// reader emits them, and pushes each one while a stream is active. Lines
// read while no stream is active are dropped. It returns when r is
// exhausted or ctx is done.
func (f *Feed) PumpLines(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		_ = f.Push(line)
	}
	return scanner.Err()
}
