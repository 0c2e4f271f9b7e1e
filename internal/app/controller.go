// Package app holds the client's state and the controller that applies user
// commands to it. The controller owns one State; a View only ever receives
// rendered results.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/ocrstream/internal/prefs"
	"github.com/lehigh-university-libraries/ocrstream/pkg/client"
	"github.com/lehigh-university-libraries/ocrstream/pkg/failure"
	"github.com/lehigh-university-libraries/ocrstream/pkg/i18n"
	"github.com/lehigh-university-libraries/ocrstream/pkg/models"
	"github.com/lehigh-university-libraries/ocrstream/pkg/status"
	"github.com/lehigh-university-libraries/ocrstream/pkg/stream"
	"github.com/lehigh-university-libraries/ocrstream/pkg/upload"
)

var (
	// ErrBusy rejects a mutating command while another one, usually a
	// submission, is still running.
	ErrBusy = errors.New("a submission is already in progress")
	// ErrNoTranslations means not even the fallback language could be loaded.
	ErrNoTranslations = errors.New("unable to load core language files")
)

// View displays what the controller renders.
type View interface {
	RenderStatus(status.Rendered)
	AppendOutput(text string)
	ClearOutput()
	ShowError(message string)
	HideError()
	ShowPreview(icon string, lines []string)
	ClearPreview()
	SetControlsEnabled(enabled bool)
	SetTheme(prefs.Theme)
}

// Notifier is implemented by views that can show a transient message.
type Notifier interface {
	Notify(message string)
}

// Submitter sends one request and returns the streamed body.
type Submitter interface {
	Submit(ctx context.Context, r client.Request) (io.ReadCloser, error)
}

// Clipboard receives copied text.
type Clipboard interface {
	Copy(text string) error
}

// State is a snapshot of everything the user can see or change.
type State struct {
	Candidate    *upload.Candidate
	Preview      *upload.Preview
	Instructions string
	Model        string
	Language     string
	Theme        prefs.Theme
	Output       string
	Busy         bool
	Phase        stream.Phase
	Status       status.State
	Banner       *failure.Error
	Outcome      *stream.Outcome
	RequestID    string
}

// Options wires the controller's collaborators.
type Options struct {
	Table     *i18n.Table
	View      View
	Submitter Submitter
	Clipboard Clipboard
	Store     prefs.Store
	Models    *models.Registry
	// NewRequestID defaults to random UUIDs.
	NewRequestID func() string
}

// Controller applies commands to the application state.
type Controller struct {
	table     *i18n.Table
	view      View
	submitter Submitter
	clipboard Clipboard
	store     prefs.Store
	models    *models.Registry
	newID     func() string
	presenter *status.Presenter

	// op is held for the whole of every mutating command.
	op   sync.Mutex
	busy atomic.Bool

	langMu sync.RWMutex
	lang   string

	mu     sync.Mutex
	state  State
	output strings.Builder
}

// New creates a controller. Call Init before dispatching commands.
func New(opts Options) *Controller {
	c := &Controller{
		table:     opts.Table,
		view:      opts.View,
		submitter: opts.Submitter,
		clipboard: opts.Clipboard,
		store:     opts.Store,
		models:    opts.Models,
		newID:     opts.NewRequestID,
		lang:      i18n.DefaultLanguage,
	}
	if c.models == nil {
		c.models = models.Builtin()
	}
	if c.store == nil {
		c.store = &prefs.MemoryStore{}
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.NewString() }
	}
	c.presenter = status.NewPresenter(c, c.view)
	c.state.Model = c.models.Default()
	c.state.Status = status.Initial()
	return c
}

// Init loads the fallback language and lang, applies theme and renders the
// initial state. It fails only when no translations at all are available.
func (c *Controller) Init(lang string, theme prefs.Theme) error {
	errFallback := c.table.Load(i18n.FallbackLanguage)
	errLang := c.table.Load(lang)
	if errFallback != nil && errLang != nil {
		return fmt.Errorf("%w: %v", ErrNoTranslations, errors.Join(errFallback, errLang))
	}
	if errLang != nil {
		slog.Warn("Failed to load translations, using fallback", "lang", lang, "err", errLang)
	}

	c.setLanguage(lang)

	if !theme.Valid() {
		theme = prefs.ThemeLight
	}
	c.mu.Lock()
	c.state.Theme = theme
	c.mu.Unlock()
	c.view.SetTheme(theme)

	return c.Dispatch(context.Background(), Reset{})
}

// Translate resolves key in the active language.
func (c *Controller) Translate(key string, data map[string]string) string {
	return c.table.Translate(c.Language(), key, data)
}

// Language returns the active UI language.
func (c *Controller) Language() string {
	c.langMu.RLock()
	defer c.langMu.RUnlock()
	return c.lang
}

func (c *Controller) setLanguage(lang string) {
	c.langMu.Lock()
	c.lang = lang
	c.langMu.Unlock()
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Output = c.output.String()
	s.Language = c.Language()
	s.Status = c.presenter.State()
	s.Busy = c.busy.Load()
	return s
}

// Dispatch applies cmd. User-facing failures are returned as *failure.Error
// after they have been shown.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) error {
	if cmd.mutating() {
		if !c.op.TryLock() {
			c.view.ShowError(c.Translate("errorBusy", nil))
			return ErrBusy
		}
		defer c.op.Unlock()
	}

	switch cmd := cmd.(type) {
	case SelectFile:
		return c.selectFile(cmd.Candidate)
	case RemoveFile:
		c.removeFile()
		return nil
	case SetInstructions:
		c.mu.Lock()
		c.state.Instructions = cmd.Text
		c.mu.Unlock()
		return nil
	case SelectModel:
		c.mu.Lock()
		c.state.Model = c.models.Resolve(cmd.Name)
		c.mu.Unlock()
		return nil
	case Submit:
		return c.submit(ctx)
	case ChangeLanguage:
		return c.changeLanguage(cmd.Language)
	case ToggleTheme:
		c.mu.Lock()
		theme := c.state.Theme.Toggle()
		c.mu.Unlock()
		return c.setTheme(theme)
	case SetTheme:
		return c.setTheme(cmd.Theme)
	case CopyResult:
		return c.copyResult()
	case DismissError:
		c.hideError()
		return nil
	case Reset:
		c.removeFile()
		c.mu.Lock()
		c.state.Instructions = ""
		c.state.Model = c.models.Default()
		c.mu.Unlock()
		return nil
	}
	return fmt.Errorf("unknown command %T", cmd)
}

func (c *Controller) selectFile(cand *upload.Candidate) error {
	c.hideError()

	if err := upload.Validate(cand); err != nil {
		return c.showError(failure.As(err))
	}

	preview, err := upload.Describe(cand)
	if err != nil {
		c.removeFile()
		return c.showError(failure.As(err))
	}

	c.mu.Lock()
	c.state.Candidate = cand
	c.state.Preview = &preview
	c.mu.Unlock()

	c.view.ShowPreview(preview.Icon, c.previewLines(preview))
	c.presenter.Update(status.IconReady, status.KeyReady, false, nil)
	return nil
}

func (c *Controller) previewLines(p upload.Preview) []string {
	lines := []string{c.Translate("previewFile", map[string]string{"name": p.Name, "size": p.Size})}
	if d := p.Dimensions(); d != "" {
		lines = append(lines, c.Translate("previewDimensions", map[string]string{"dimensions": d}))
	} else if p.Icon == "picture_as_pdf" {
		lines = append(lines, c.Translate("previewDocument", nil))
	}
	return lines
}

func (c *Controller) removeFile() {
	c.mu.Lock()
	c.state.Candidate = nil
	c.state.Preview = nil
	c.state.Outcome = nil
	c.state.Phase = stream.Idle
	c.output.Reset()
	c.mu.Unlock()

	c.view.ClearPreview()
	c.view.ClearOutput()
	c.presenter.Set(status.Initial())
	c.hideError()
}

func (c *Controller) showError(fe *failure.Error) *failure.Error {
	c.mu.Lock()
	c.state.Banner = fe
	c.mu.Unlock()

	c.view.ShowError(c.Translate(fe.MessageKey(), fe.Data))
	c.presenter.Update(status.IconError, status.KeyError, false, nil)
	return fe
}

func (c *Controller) hideError() {
	c.mu.Lock()
	shown := c.state.Banner != nil
	c.state.Banner = nil
	c.mu.Unlock()
	if shown {
		c.view.HideError()
	}
}

func (c *Controller) changeLanguage(lang string) error {
	if !i18n.IsSupported(lang) {
		return fmt.Errorf("unsupported language %q (supported: %s)", lang, strings.Join(i18n.Supported, ", "))
	}
	if err := c.table.Load(lang); err != nil {
		return fmt.Errorf("failed to load %s translations: %w", lang, err)
	}

	c.setLanguage(lang)
	c.savePrefs(func(p *prefs.Preferences) { p.Language = lang })

	c.presenter.Refresh()

	c.mu.Lock()
	banner := c.state.Banner
	c.mu.Unlock()
	if banner != nil {
		c.view.ShowError(c.Translate(banner.MessageKey(), banner.Data))
	}
	return nil
}

func (c *Controller) setTheme(theme prefs.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("unknown theme %q", theme)
	}
	c.mu.Lock()
	c.state.Theme = theme
	c.mu.Unlock()

	c.view.SetTheme(theme)
	c.savePrefs(func(p *prefs.Preferences) { p.Theme = theme })
	return nil
}

func (c *Controller) savePrefs(update func(*prefs.Preferences)) {
	p, err := c.store.Load()
	if err != nil {
		slog.Warn("Unable to read preferences", "err", err)
		p = prefs.Preferences{}
	}
	update(&p)
	if err := c.store.Save(p); err != nil {
		slog.Warn("Unable to save preferences", "err", err)
	}
}

func (c *Controller) copyResult() error {
	c.mu.Lock()
	text := c.output.String()
	c.mu.Unlock()

	if text == "" {
		return nil
	}
	if c.clipboard == nil {
		return c.notifyCopyFailure(errors.New("no clipboard available"))
	}
	if err := c.clipboard.Copy(text); err != nil {
		return c.notifyCopyFailure(err)
	}
	if n, ok := c.view.(Notifier); ok {
		n.Notify(c.Translate("copiedSuccess", nil))
	}
	return nil
}

// notifyCopyFailure reports the failure without touching the status, which
// still describes the last submission.
func (c *Controller) notifyCopyFailure(err error) error {
	slog.Error("Copy failed", "err", err)
	fe := failure.Wrap(failure.CopyFailed, err)
	c.view.ShowError(c.Translate(fe.MessageKey(), nil))
	return fe
}

func (c *Controller) submit(ctx context.Context) error {
	c.mu.Lock()
	cand := c.state.Candidate
	req := client.Request{
		Candidate:    cand,
		Instructions: c.state.Instructions,
		Model:        c.state.Model,
	}
	c.mu.Unlock()

	if cand == nil {
		return c.showError(failure.New(failure.NoFileSelected, nil))
	}
	c.busy.Store(true)
	defer func() {
		c.busy.Store(false)
		c.view.SetControlsEnabled(true)
	}()
	c.view.SetControlsEnabled(false)

	req.RequestID = c.newID()
	c.hideError()
	c.mu.Lock()
	c.output.Reset()
	c.state.Outcome = nil
	c.state.RequestID = req.RequestID
	c.state.Phase = stream.Submitting
	c.mu.Unlock()
	c.view.ClearOutput()
	c.presenter.Update(status.IconThinking, status.KeyThinking, true, nil)

	body, err := c.submitter.Submit(ctx, req)
	if err != nil {
		fe := c.classifySubmitError(err)
		c.finish(stream.Fail(fe, ""))
		return c.showError(fe)
	}
	defer body.Close()

	consumer := &stream.Consumer{
		Observer:     (*observer)(c),
		DecodeMarker: "\n[" + c.Translate(failure.DecodeError.MessageKey(), nil) + "]\n",
	}
	outcome := consumer.Consume(body)
	c.finish(outcome)

	switch outcome.Phase() {
	case stream.Done:
		slog.Info("Stream finished", "request_id", req.RequestID, "chars", len(outcome.Text))
		c.presenter.Update(status.IconDone, status.KeyDone, false, nil)
	case stream.Empty:
		slog.Info("Stream finished without text", "request_id", req.RequestID)
		c.presenter.Update(status.IconEmpty, status.KeyEmpty, false, nil)
	default:
		return c.showError(outcome.Err)
	}
	return nil
}

func (c *Controller) finish(o stream.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Outcome = &o
	c.state.Phase = o.Phase()
}

// classifySubmitError maps errors raised before the body is read.
func (c *Controller) classifySubmitError(err error) *failure.Error {
	var he *client.HTTPError
	switch {
	case errors.As(err, &he):
		if he.Message != "" && c.table.Has(c.Language(), he.Message) {
			return &failure.Error{Kind: failure.FetchFailed, Key: he.Message, Err: err}
		}
		if he.Message != "" {
			slog.Warn("Backend error is not a known message key", "error", he.Message, "status", he.StatusCode)
		}
		return &failure.Error{
			Kind: failure.FetchFailed,
			Data: map[string]string{"status": strconv.Itoa(he.StatusCode), "details": he.Message},
			Err:  err,
		}
	case errors.Is(err, client.ErrNoStream):
		return failure.Wrap(failure.NoStreamBody, err)
	}
	slog.Error("Error during fetch", "err", err)
	return failure.As(err)
}

// observer receives stream progress on behalf of the controller.
type observer Controller

func (o *observer) PhaseChanged(p stream.Phase) {
	c := (*Controller)(o)
	c.mu.Lock()
	c.state.Phase = p
	c.mu.Unlock()
	if p == stream.StreamingBody {
		c.presenter.Update(status.IconWriting, status.KeyWriting, true, nil)
	}
}

func (o *observer) Append(text string) {
	c := (*Controller)(o)
	c.mu.Lock()
	c.output.WriteString(text)
	c.mu.Unlock()
	c.view.AppendOutput(text)
}
