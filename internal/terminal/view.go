// Package terminal renders application state on a text terminal: the OCR
// output on one stream, the status line and error banner on another.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/lehigh-university-libraries/ocrstream/internal/prefs"
	"github.com/lehigh-university-libraries/ocrstream/pkg/status"
)

var glyphs = map[string]string{
	status.IconUpload:   "⇪",
	status.IconReady:    "→",
	status.IconThinking: "…",
	status.IconWriting:  "✎",
	status.IconDone:     "✔",
	status.IconEmpty:    "∅",
	status.IconError:    "✖",
	status.IconCopied:   "✓",
	"image":             "▣",
	"picture_as_pdf":    "▤",
}

// View writes to an output stream and a status stream.
type View struct {
	out    io.Writer
	status io.Writer
	// shared is set when both streams reach the same file or terminal.
	shared bool
	// tty enables cursor control on the status stream.
	tty bool

	// FrameDelay paces animated statuses character by character. Zero prints
	// the whole line at once.
	FrameDelay time.Duration

	mu       sync.Mutex
	renderer *lipgloss.Renderer
	palette  Palette
	enabled  bool
	wrote    bool
	endsNL   bool
}

// New creates a view. Animation and cursor control are enabled when the
// status stream is a terminal; colours follow its detected profile.
func New(out, statusOut *os.File, theme prefs.Theme) *View {
	v := newView(out, statusOut, theme)
	v.shared = sameFile(out, statusOut)
	if isTerminal(statusOut) {
		v.tty = true
		v.FrameDelay = 12 * time.Millisecond
	}
	return v
}

// NewWriters creates a view over arbitrary writers. Output is unstyled
// unless statusOut is a colour terminal.
func NewWriters(out, statusOut io.Writer, theme prefs.Theme) *View {
	v := newView(out, statusOut, theme)
	v.shared = out == statusOut
	return v
}

func newView(out, statusOut io.Writer, theme prefs.Theme) *View {
	r := lipgloss.NewRenderer(statusOut)
	return &View{
		out:      out,
		status:   statusOut,
		renderer: r,
		palette:  PaletteFor(r, theme),
		enabled:  true,
		endsNL:   true,
	}
}

// SetTheme switches the palette used for later renders.
func (v *View) SetTheme(theme prefs.Theme) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.palette = PaletteFor(v.renderer, theme)
}

// RenderStatus prints one status line.
func (v *View) RenderStatus(r status.Rendered) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.breakOutputLine()
	glyph := glyphs[r.Icon]
	if glyph == "" {
		glyph = "•"
	}
	text := v.palette.Status
	if r.Icon == status.IconError {
		text = v.palette.Error
	}

	prefix := v.palette.Icon.Render(glyph) + " "
	if !r.Animated || v.FrameDelay == 0 {
		fmt.Fprintln(v.status, prefix+text.Render(r.Text))
		return
	}

	fmt.Fprint(v.status, prefix)
	for _, frame := range r.Frames {
		fmt.Fprint(v.status, text.Render(frame))
		time.Sleep(v.FrameDelay)
	}
	fmt.Fprintln(v.status)
}

// AppendOutput writes streamed text as it arrives.
func (v *View) AppendOutput(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if text == "" {
		return
	}
	io.WriteString(v.out, text)
	v.wrote = true
	v.endsNL = strings.HasSuffix(text, "\n")
}

// ClearOutput starts a new result. A terminal cannot take back printed
// text, so it only resets line tracking.
func (v *View) ClearOutput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.breakOutputLine()
	v.wrote = false
	v.endsNL = true
}

// ShowError prints the error banner.
func (v *View) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.breakOutputLine()
	fmt.Fprintln(v.status, v.palette.Error.Render(glyphs[status.IconError]+" "+message))
}

// HideError is a no-op; the banner scrolls away with the terminal.
func (v *View) HideError() {}

// ShowPreview prints the selected file summary.
func (v *View) ShowPreview(icon string, lines []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	glyph := glyphs[icon]
	for i, line := range lines {
		if i == 0 && glyph != "" {
			line = glyph + " " + line
		} else {
			line = "  " + line
		}
		fmt.Fprintln(v.status, v.palette.Muted.Render(line))
	}
}

// Notify prints a transient message, such as a copy confirmation.
func (v *View) Notify(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.breakOutputLine()
	fmt.Fprintln(v.status, v.palette.Muted.Render(glyphs[status.IconCopied]+" "+message))
}

// ClearPreview is a no-op on a terminal.
func (v *View) ClearPreview() {}

// SetControlsEnabled hides the cursor while a submission runs.
func (v *View) SetControlsEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = enabled
	if !v.tty {
		return
	}
	if enabled {
		v.renderer.Output().ShowCursor()
	} else {
		v.renderer.Output().HideCursor()
	}
}

// ControlsEnabled reports the last value passed to SetControlsEnabled.
func (v *View) ControlsEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled
}

// breakOutputLine keeps status lines from being glued to partial output
// when both streams share a terminal.
func (v *View) breakOutputLine() {
	if v.wrote && !v.endsNL && v.shared {
		fmt.Fprintln(v.out)
		v.endsNL = true
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// sameFile reports whether a and b are the same open file, such as stdout
// and stderr both attached to one terminal.
func sameFile(a, b *os.File) bool {
	if a == b {
		return true
	}
	ai, err := a.Stat()
	if err != nil {
		return false
	}
	bi, err := b.Stat()
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
