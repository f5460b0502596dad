// Package camera manages barcode capture: device selection, the stream
// lifecycle, and single-shot delivery of the first valid ISBN.
//
// A Capability is anything that can enumerate devices and stream decoded
// text candidates: a real camera behind a decoding engine, a directory of
// frames, or a keyboard-wedge barcode reader.
package camera

import (
	"context"
	"errors"
	"strings"
)

// Device is one selectable capture device
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Box is the scan window. Decoders may treat it as aspect guidance only.
type Box struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Config configures the decode loop
type Config struct {
	FPS int `json:"fps"`
	Box Box `json:"box"`
}

// DefaultConfig returns a 10 frames/second loop with a 250x150 window
func DefaultConfig() Config {
	return Config{FPS: 10, Box: Box{Width: 250, Height: 150}}
}

// Capability is the capture surface a Session drives.
// onDetected receives raw decoded text; onFrameError receives per-frame
// decode failures. Stop must not wait for an in-progress callback to return,
// since the acceptance path calls Stop from inside onDetected.
type Capability interface {
	ListDevices(ctx context.Context) ([]Device, error)
	Start(ctx context.Context, deviceID string, cfg Config, onDetected func(text string), onFrameError func(err error)) error
	Stop(ctx context.Context) error
}

var (
	ErrEnumerate = errors.New("camera enumeration failed")
	ErrNoCamera  = errors.New("no camera found")
	ErrStart     = errors.New("camera start failed")
	ErrReused    = errors.New("capture session already started")
)

// SelectDevice prefers a device labelled "back" (case-insensitive) and
// otherwise takes the first one.
func SelectDevice(devices []Device) (Device, error) {
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Label), "back") {
			return d, nil
		}
	}
	if len(devices) == 0 {
		return Device{}, ErrNoCamera
	}
	return devices[0], nil
}
