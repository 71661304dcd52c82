// Package progress provides a shared multi-bar drawing surface. Workers
// register one bar each and advance it from their own goroutines; the Mux
// serializes drawing so a redraw is never interleaved with another.
package progress

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

const (
	redrawInterval = 50 * time.Millisecond
	minBarWidth    = 10
	maxBarWidth    = 40
)

// Options configures a Mux.
type Options struct {
	Writer io.Writer
	// TTY enables in-place redraws with cursor movement. Without it, a bar
	// prints a single line when it completes.
	TTY bool
	// Width is the terminal width in columns; 0 means 80.
	Width int
}

// Mux owns every active bar. All mutation and drawing happens under mu.
type Mux struct {
	w        io.Writer
	bars     []*Bar
	lastDraw time.Time
	width    int
	lines    int // lines emitted by the previous in-place draw
	mu       sync.Mutex
	tty      bool
}

// New creates a Mux writing to w, detecting terminal capabilities when w is
// an *os.File.
func New(w io.Writer) *Mux {
	opts := Options{Writer: w}
	if f, ok := w.(*os.File); ok {
		fd := int(f.Fd()) //nolint:gosec // G115: fd values are small non-negative integers
		opts.TTY = term.IsTerminal(fd)
		if cols, _, err := term.GetSize(fd); err == nil {
			opts.Width = cols
		}
	}
	return NewWithOptions(opts)
}

// NewWithOptions creates a Mux from explicit options.
func NewWithOptions(opts Options) *Mux {
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	w := opts.Writer
	if w == nil {
		w = io.Discard
	}
	return &Mux{w: w, tty: opts.TTY, width: width}
}

// RegisterBar adds a bar with the given capacity and label. The returned
// handle may be used from any goroutine.
func (m *Mux) RegisterBar(capacity int64, label string) *Bar {
	if capacity < 0 {
		capacity = 0
	}
	b := &Bar{mux: m, capacity: capacity, label: label}
	b.pb = progressbar.NewOptions64(
		max(capacity, 1),
		progressbar.OptionSetWriter(io.Discard),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(m.barWidth(label)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionThrottle(0),
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars = append(m.bars, b)
	m.draw(true)
	return b
}

// Bars returns the number of registered bars.
func (m *Mux) Bars() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bars)
}

// Finish forces a final redraw so every bar shows its last value.
func (m *Mux) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draw(true)
}

func (m *Mux) barWidth(label string) int {
	// label, percentage, count and brackets share the line with the bar.
	w := m.width - len(label) - 30
	return min(max(w, minBarWidth), maxBarWidth)
}

// draw renders the surface. Callers hold mu.
func (m *Mux) draw(force bool) {
	if !m.tty {
		return
	}
	now := time.Now()
	if !force && now.Sub(m.lastDraw) < redrawInterval {
		return
	}

	var buf bytes.Buffer
	if m.lines > 0 {
		fmt.Fprintf(&buf, "\033[%dA", m.lines)
	}
	for _, b := range m.bars {
		buf.WriteString("\033[2K")
		buf.WriteString(b.pb.String())
		buf.WriteByte('\n')
	}
	_, _ = m.w.Write(buf.Bytes()) //nolint:errcheck // progress output is best-effort
	m.lines = len(m.bars)
	m.lastDraw = now
}

// Bar is a handle to one line of the surface.
type Bar struct {
	mux      *Mux
	pb       *progressbar.ProgressBar
	label    string
	capacity int64
	value    int64
	reported bool
}

// Advance moves the bar forward by delta. Negative deltas are ignored.
func (b *Bar) Advance(delta int64) {
	if delta <= 0 {
		return
	}
	b.mux.mu.Lock()
	defer b.mux.mu.Unlock()
	b.update(b.value + delta)
}

// Set moves the bar to value. The bar never moves backwards and never
// exceeds its capacity.
func (b *Bar) Set(value int64) {
	b.mux.mu.Lock()
	defer b.mux.mu.Unlock()
	b.update(value)
}

// Value returns the completed counter.
func (b *Bar) Value() int64 {
	b.mux.mu.Lock()
	defer b.mux.mu.Unlock()
	return b.value
}

// Capacity returns the bar's capacity.
func (b *Bar) Capacity() int64 { return b.capacity }

// Label returns the bar's label.
func (b *Bar) Label() string { return b.label }

// update applies a clamped, non-decreasing value. Callers hold mux.mu.
func (b *Bar) update(value int64) {
	value = min(max(value, 0), b.capacity)
	if value <= b.value {
		return
	}
	b.value = value
	_ = b.pb.Set64(value) //nolint:errcheck // rendering to io.Discard

	complete := b.value == b.capacity
	if !b.mux.tty {
		if complete && !b.reported {
			b.reported = true
			fmt.Fprintf(b.mux.w, "%s  %d/%d\n", b.label, b.value, b.capacity)
		}
		return
	}
	b.mux.draw(complete)
}
