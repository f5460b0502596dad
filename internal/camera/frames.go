package camera

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FrameDevice is a capability backed by directories of still frames. Each
// subdirectory of Root is one device, labelled by its name; a started
// stream decodes the directory's images in name order at the configured
// rate, cycling until stopped.
type FrameDevice struct {
	Root string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewFrameDevice creates a frame-directory capability rooted at root
func NewFrameDevice(root string) *FrameDevice {
	return &FrameDevice{Root: root}
}

func (d *FrameDevice) ListDevices(ctx context.Context) ([]Device, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame root: %w", err)
	}

	var devices []Device
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		devices = append(devices, Device{
			ID:    filepath.Join(d.Root, entry.Name()),
			Label: entry.Name(),
		})
	}
	return devices, nil
}

func (d *FrameDevice) Start(ctx context.Context, deviceID string, cfg Config, onDetected func(string), onFrameError func(error)) error {
	frames, err := listFrames(deviceID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames in %s", deviceID)
	}

	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultConfig().FPS
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return fmt.Errorf("frame device already streaming")
	}

	// the stream outlives Start's context; only Stop ends it
	streamCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	go d.loop(streamCtx, frames, time.Second/time.Duration(fps), onDetected, onFrameError)
	return nil
}

func (d *FrameDevice) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	d.cancel = nil
	return nil
}

func (d *FrameDevice) loop(ctx context.Context, frames []string, interval time.Duration, onDetected func(string), onFrameError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i = (i + 1) % len(frames) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		text, err := DecodeFile(frames[i])
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Debug("Frame decode failed", "frame", frames[i], "error", err)
			onFrameError(err)
			continue
		}
		onDetected(text)
	}
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames: %w", err)
	}

	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif":
			frames = append(frames, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}
