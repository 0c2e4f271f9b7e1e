package terminal

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/lehigh-university-libraries/ocrstream/internal/prefs"
)

// Palette holds the style of each element.
type Palette struct {
	Icon   lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
	Muted  lipgloss.Style
}

type themeColors struct {
	icon, status, err, muted lipgloss.Color
}

var colors = map[prefs.Theme]themeColors{
	prefs.ThemeLight: {icon: "4", status: "0", err: "1", muted: "8"},
	prefs.ThemeDark:  {icon: "14", status: "15", err: "9", muted: "7"},
}

// PaletteFor builds the palette for theme on r, light when unset.
func PaletteFor(r *lipgloss.Renderer, theme prefs.Theme) Palette {
	c, ok := colors[theme]
	if !ok {
		c = colors[prefs.ThemeLight]
	}
	return Palette{
		Icon:   r.NewStyle().Foreground(c.icon),
		Status: r.NewStyle().Foreground(c.status),
		Error:  r.NewStyle().Foreground(c.err).Bold(true),
		Muted:  r.NewStyle().Foreground(c.muted),
	}
}

// DetectTheme asks the terminal behind w for its background colour. It
// reports false when w is not a terminal.
func DetectTheme(w io.Writer) (prefs.Theme, bool) {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(f) {
		return "", false
	}
	if lipgloss.NewRenderer(f).HasDarkBackground() {
		return prefs.ThemeDark, true
	}
	return prefs.ThemeLight, true
}

// InitialTheme picks the saved theme, else the detected one, else light.
func InitialTheme(saved prefs.Theme, detect func() (prefs.Theme, bool)) prefs.Theme {
	if saved.Valid() {
		return saved
	}
	if detect != nil {
		if t, ok := detect(); ok {
			return t
		}
	}
	return prefs.ThemeLight
}
