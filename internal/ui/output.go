package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// continuationIndent lines up wrapped lines with the text after a badge.
const continuationIndent = "     "

// Printer renders the three user-facing tiers: notice, warn and error.
// It is safe for concurrent use.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	color  bool
	notice lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	hl     lipgloss.Style
}

// NewPrinter creates a Printer on w. Colour is used only when w is a
// terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer) *Printer {
	return NewPrinterColor(w, ShouldColorize(w))
}

// NewPrinterColor creates a Printer with colour explicitly on or off.
func NewPrinterColor(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	badge := r.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	return &Printer{
		w:      w,
		color:  color,
		notice: badge.Background(lipgloss.Color("4")),
		warn:   badge.Background(lipgloss.Color("3")),
		err:    badge.Background(lipgloss.Color("9")),
		hl:     r.NewStyle(),
	}
}

// ShouldColorize reports whether w is an interactive terminal.
func ShouldColorize(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Notice prints progress and success messages.
func (p *Printer) Notice(msg string) { p.print(p.notice, " & ", msg) }

// Warn prints recoverable oddities.
func (p *Printer) Warn(msg string) { p.print(p.warn, " ! ", msg) }

// Error prints fatal and per-file failures.
func (p *Printer) Error(msg string) { p.print(p.err, " ! ", msg) }

// Noticef is Notice with formatting.
func (p *Printer) Noticef(format string, args ...any) { p.Notice(fmt.Sprintf(format, args...)) }

// Warnf is Warn with formatting.
func (p *Printer) Warnf(format string, args ...any) { p.Warn(fmt.Sprintf(format, args...)) }

// Errorf is Error with formatting.
func (p *Printer) Errorf(format string, args ...any) { p.Error(fmt.Sprintf(format, args...)) }

// Println writes a raw line.
func (p *Printer) Println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *Printer) print(style lipgloss.Style, badge, msg string) {
	if p.color {
		badge = style.Render(badge)
	}
	msg = strings.ReplaceAll(msg, "\n", "\n"+continuationIndent)

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, " %s %s\n", badge, msg)
}

// Green highlights good values such as the latest version.
func (p *Printer) Green(s string) string { return p.paint("10", s) }

// Red highlights bad values such as an outdated version.
func (p *Printer) Red(s string) string { return p.paint("9", s) }

// Yellow highlights pending values.
func (p *Printer) Yellow(s string) string { return p.paint("11", s) }

// Cyan highlights sizes.
func (p *Printer) Cyan(s string) string { return p.paint("14", s) }

func (p *Printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return p.hl.Foreground(lipgloss.Color(color)).Render(s)
}
