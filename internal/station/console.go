package station

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/storeops/isbnscan/internal/camera"
	"github.com/storeops/isbnscan/internal/workflow"
)

// ErrUnknownCommand is returned for input the current screen cannot use
var ErrUnknownCommand = errors.New("unknown command")

// Console drives a station from line-oriented terminal input. On the live
// scan screen every line is treated as a scan, which is what a
// keyboard-wedge barcode reader produces.
type Console struct {
	Station *Station

	mu   sync.Mutex
	out  io.Writer
	last string
}

// NewConsole builds a station that renders every change to out
func NewConsole(f *Factory, id, label string, capability camera.Capability, initial workflow.ScreenName, out io.Writer) *Console {
	c := &Console{out: out}
	c.Station = f.New(id, label, capability, initial, c.render)
	return c
}

// Run reads commands from in until it is exhausted, ctx is done or the
// operator quits. Command errors are printed and do not stop the loop.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	defer c.Station.Engine.Close()
	c.render(c.Station.Engine.View())

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			quit, err := c.Handle(ctx, line)
			if err != nil {
				c.printf("! %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Handle applies one line of input to the station
func (c *Console) Handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	engine := c.Station.Engine

	switch line {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "menu":
		return false, engine.ShowMainMenu()
	}

	switch engine.View().Screen {
	case workflow.ScreenMainMenu:
		switch line {
		case "scan":
			return false, engine.StartLiveScan()
		case "manual":
			return false, engine.StartManualEntry()
		}
	case workflow.ScreenManualEntry:
		return false, engine.SetManualInput(line)
	case workflow.ScreenLiveScan:
		if c.Station.Feed != nil {
			return false, c.Station.Feed.Push(line)
		}
	case workflow.ScreenMetadataEntry:
		if line == "save" {
			return false, engine.Save(ctx)
		}
		if field, value, ok := strings.Cut(line, "="); ok {
			return false, engine.SetField(workflow.Field(strings.TrimSpace(field)), strings.TrimSpace(value))
		}
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
}

func (c *Console) render(v workflow.View) {
	text := formatView(v)

	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.last {
		return
	}
	c.last = text
	fmt.Fprintln(c.out, text)
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func formatView(v workflow.View) string {
	switch v.Screen {
	case workflow.ScreenManualEntry:
		return fmt.Sprintf("[manual] ISBN: %s", v.Manual.Input)
	case workflow.ScreenLiveScan:
		if v.Scan.Status == "" {
			return fmt.Sprintf("[scan] %s", v.Scan.CameraState)
		}
		return fmt.Sprintf("[scan] %s: %s", v.Scan.CameraState, v.Scan.Status)
	case workflow.ScreenMetadataEntry:
		return formatMetadata(v)
	default:
		return "[menu] scan | manual | quit"
	}
}

func formatMetadata(v workflow.View) string {
	md := v.Metadata
	rec := md.Record
	if md.Loading {
		return fmt.Sprintf("[metadata] %s loading...", rec.ISBN)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[metadata] %s", rec.ISBN)
	fmt.Fprintf(&b, " title=%q", rec.Title)
	if md.TitleManual {
		b.WriteString("(manual)")
	}
	if v.Variant.TracksAuthor() {
		fmt.Fprintf(&b, " author=%q", rec.Author)
		if md.AuthorManual {
			b.WriteString("(manual)")
		}
	}
	fmt.Fprintf(&b, " price=%q quantity=%q location=%s", rec.Price, rec.Quantity, rec.Location)
	if v.Variant.TracksAuthor() {
		fmt.Fprintf(&b, " category=%s sub_category=%s", rec.Category, rec.SubCategory)
	}
	switch {
	case md.Saving:
		b.WriteString(" saving...")
	case md.Message != "":
		b.WriteString(" | " + md.Message)
	}
	return b.String()
}
