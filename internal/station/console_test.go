package station

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/isbnscan/internal/catalog"
	"github.com/storeops/isbnscan/internal/config"
	"github.com/storeops/isbnscan/internal/models"
	"github.com/storeops/isbnscan/internal/workflow"
)

type stubCatalog struct {
	mu    sync.Mutex
	saved []catalog.SaveRequest
}

func (s *stubCatalog) LookupISBN(ctx context.Context, isbn string) (catalog.Metadata, error) {
	return catalog.Metadata{Title: "Clean Code", Author: "Robert C. Martin"}, nil
}

func (s *stubCatalog) SaveTitle(ctx context.Context, req catalog.SaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, req)
	return nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newConsole(t *testing.T) (*Console, *stubCatalog, *syncBuffer) {
	t.Helper()
	cfg := config.Default()
	cfg.LoadingFloor = 0
	cfg.ResetDelay = time.Minute

	stub := &stubCatalog{}
	out := &syncBuffer{}
	c := NewConsole(NewFactory(cfg, stub, stub, nil, nil), "console", "", nil, workflow.ScreenMainMenu, out)
	t.Cleanup(c.Station.Engine.Close)
	return c, stub, out
}

func handle(t *testing.T, c *Console, line string) {
	t.Helper()
	quit, err := c.Handle(context.Background(), line)
	require.NoError(t, err, line)
	require.False(t, quit)
}

func TestConsoleScanAndSave(t *testing.T) {
	c, stub, out := newConsole(t)
	engine := c.Station.Engine

	handle(t, c, "scan")
	require.Eventually(t, func() bool {
		return engine.View().Scan.CameraState == "scanning"
	}, 2*time.Second, 5*time.Millisecond)

	handle(t, c, "978-0-13-235088-4")
	require.Eventually(t, func() bool {
		v := engine.View()
		return v.Metadata != nil && !v.Metadata.Loading
	}, 2*time.Second, 5*time.Millisecond)

	for _, line := range []string{"price=9.99", "category=FICTION", "sub_category=GENERAL"} {
		handle(t, c, line)
	}
	handle(t, c, "save")

	stub.mu.Lock()
	require.Len(t, stub.saved, 1)
	assert.Equal(t, "Robert C. Martin", stub.saved[0].Author)
	stub.mu.Unlock()

	assert.Contains(t, out.String(), "[scan] scanning")
	assert.Contains(t, out.String(), `title="Clean Code"`)
	assert.Contains(t, out.String(), "Saved successfully")
}

func TestConsoleRejectsUnknownInput(t *testing.T) {
	c, _, _ := newConsole(t)

	_, err := c.Handle(context.Background(), "frobnicate")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	quit, err := c.Handle(context.Background(), "quit")
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestConsoleRun(t *testing.T) {
	c, _, out := newConsole(t)

	in := strings.NewReader("manual\n978\nmenu\nquit\n")
	require.NoError(t, c.Run(context.Background(), in))

	text := out.String()
	assert.Contains(t, text, "[menu] scan | manual | quit")
	assert.Contains(t, text, "[manual] ISBN: 978")
	assert.Equal(t, workflow.ScreenMainMenu, c.Station.Engine.View().Screen)
}

func TestFormatMetadataBasic(t *testing.T) {
	v := workflow.View{
		Screen:  workflow.ScreenMetadataEntry,
		Variant: models.VariantBasic,
		Metadata: &workflow.MetadataView{MetadataEntry: workflow.MetadataEntry{
			Record:      *models.NewBookRecord("9780132350884", models.EntryManual),
			TitleManual: true,
			Message:     "Error while saving",
		}},
	}

	got := formatView(v)
	assert.Equal(t, `[metadata] 9780132350884 title=""(manual) price="" quantity="1" location=GRANDMALL | Error while saving`, got)
}
