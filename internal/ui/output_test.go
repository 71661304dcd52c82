package ui_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/agcli/internal/event"
	"github.com/bamsammich/agcli/internal/ui"
)

func TestPrinter_PlainBadges(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(&buf)

	p.Notice("Fetching integrity files...")
	p.Warn("No files found to verify")
	p.Error("Failed to repair a.pck: Network")

	assert.Equal(t,
		"  &  Fetching integrity files...\n"+
			"  !  No files found to verify\n"+
			"  !  Failed to repair a.pck: Network\n",
		buf.String(),
	)
}

func TestPrinter_MultiLineIndent(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(&buf)

	p.Warn("Found 2 broken files\n- a.pck\n- b.pck")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  !  Found 2 broken files", lines[0])
	assert.Equal(t, "     - a.pck", lines[1])
	assert.Equal(t, "     - b.pck", lines[2])
}

func TestPrinter_NoColorOnBuffer(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(&buf)
	assert.False(t, ui.ShouldColorize(&buf))
	assert.Equal(t, "2.8.0", p.Green("2.8.0"))
	p.Notice("x")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestRenderTable(t *testing.T) {
	out := ui.RenderTable(
		[]string{" I", "Name", "Size", "Version"},
		[][]string{
			{"[X]", "English(US)", "10.5 GB", "2.8.0"},
			{"[ ]", "Japanese", "11 GB"},
		},
		[]ui.Align{ui.AlignLeft, ui.AlignLeft, ui.AlignRight},
	)

	assert.Contains(t, out, "English(US)")
	assert.Contains(t, out, "Japanese")
	assert.Contains(t, out, "╭")
	assert.Empty(t, ui.RenderTable(nil, nil, nil))
}

func TestLogEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	events := make(chan event.Event, 3)
	events <- event.Event{Type: event.FileDamaged, Path: "a.pck", Size: 10, WorkerID: 2, Timestamp: time.Now()}
	events <- event.Event{Type: event.VerifyComplete, Total: 1}
	close(events)

	ui.LogEvents(events, logger)

	out := buf.String()
	assert.Contains(t, out, "msg=agcli.event")
	assert.Contains(t, out, "type=FileDamaged")
	assert.Contains(t, out, "path=a.pck")
	assert.Contains(t, out, "worker=2")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "type=VerifyComplete")
}
