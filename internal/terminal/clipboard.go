package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"
)

// ErrNotTerminal is returned when there is no terminal to receive the copy.
var ErrNotTerminal = errors.New("clipboard requires a terminal")

// maxOSC52 bounds the copied text so the encoded sequence stays under the
// 100000 bytes many terminals accept.
const maxOSC52 = 75000

// OSC52 copies text through the terminal's clipboard escape sequence.
type OSC52 struct {
	W io.Writer
	// Force skips the terminal check.
	Force bool
	// Tmux and Screen wrap the sequence so the multiplexer passes it on.
	Tmux   bool
	Screen bool
}

// NewOSC52 targets f, usually stderr.
func NewOSC52(f *os.File) *OSC52 {
	return &OSC52{
		W:      f,
		Force:  isatty.IsTerminal(f.Fd()),
		Tmux:   os.Getenv("TMUX") != "",
		Screen: strings.HasPrefix(os.Getenv("TERM"), "screen"),
	}
}

func (c *OSC52) Copy(text string) error {
	if !c.Force {
		return ErrNotTerminal
	}
	if len(text) > maxOSC52 {
		return fmt.Errorf("text too long for terminal clipboard (%d bytes)", len(text))
	}

	seq := osc52.New(text)
	switch {
	case c.Tmux:
		seq = seq.Tmux()
	case c.Screen:
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(c.W)
	return err
}
