package status

import (
	"maps"
	"sync"
)

// Icon tokens. The terminal view maps them onto glyphs.
const (
	IconUpload   = "upload_file"
	IconReady    = "arrow_forward"
	IconThinking = "neurology"
	IconWriting  = "edit"
	IconDone     = "done_all"
	IconEmpty    = "block"
	IconError    = "error"
	IconCopied   = "check"
)

// Status message keys.
const (
	KeyInitial  = "statusInitial"
	KeyReady    = "statusReady"
	KeyThinking = "statusThinking"
	KeyWriting  = "statusWriting"
	KeyDone     = "statusDone"
	KeyEmpty    = "statusEmpty"
	KeyError    = "statusError"
)

// State is the complete description of the current status. It is replaced
// as a whole and never edited in place.
type State struct {
	Icon          string
	Key           string
	Animated      bool
	Substitutions map[string]string
}

// Initial is the status shown before a file is selected.
func Initial() State {
	return State{Icon: IconUpload, Key: KeyInitial}
}

// Rendered is a State resolved through the translation table.
type Rendered struct {
	Icon     string
	Text     string
	Animated bool
	// Frames holds one element per character when Animated is set, with
	// spaces replaced by non-breaking spaces.
	Frames []string
}

// Translator resolves message keys for the active language.
type Translator interface {
	Translate(key string, data map[string]string) string
}

// Renderer displays a rendered status.
type Renderer interface {
	RenderStatus(Rendered)
}

// Presenter owns the current State and renders it.
type Presenter struct {
	tr  Translator
	out Renderer

	mu    sync.Mutex
	state State
}

// NewPresenter starts in the Initial state without rendering.
func NewPresenter(tr Translator, out Renderer) *Presenter {
	return &Presenter{tr: tr, out: out, state: Initial()}
}

// Set stores s and renders it.
func (p *Presenter) Set(s State) Rendered {
	s.Substitutions = maps.Clone(s.Substitutions)

	p.mu.Lock()
	p.state = s
	p.mu.Unlock()

	return p.render(s)
}

// Update is shorthand for Set with positional fields.
func (p *Presenter) Update(icon, key string, animated bool, subs map[string]string) Rendered {
	return p.Set(State{Icon: icon, Key: key, Animated: animated, Substitutions: subs})
}

// Refresh renders the stored state again, e.g. after a language change.
func (p *Presenter) Refresh() Rendered {
	return p.render(p.State())
}

// State returns a copy of the stored state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Substitutions = maps.Clone(s.Substitutions)
	return s
}

func (p *Presenter) render(s State) Rendered {
	r := Render(p.tr, s)
	if p.out != nil {
		p.out.RenderStatus(r)
	}
	return r
}

// Render resolves s without storing it.
func Render(tr Translator, s State) Rendered {
	text := tr.Translate(s.Key, s.Substitutions)
	r := Rendered{
		Icon:     s.Icon,
		Text:     text,
		Animated: s.Animated,
	}
	if s.Animated {
		r.Frames = Frames(text)
	}
	return r
}

// Frames splits text into one element per character.
func Frames(text string) []string {
	frames := make([]string, 0, len(text))
	for _, r := range text {
		if r == ' ' {
			r = '\u00a0'
		}
		frames = append(frames, string(r))
	}
	return frames
}
