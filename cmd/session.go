package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/ocrstream/internal/app"
	"github.com/lehigh-university-libraries/ocrstream/internal/config"
	"github.com/lehigh-university-libraries/ocrstream/internal/prefs"
	"github.com/lehigh-university-libraries/ocrstream/internal/terminal"
	"github.com/lehigh-university-libraries/ocrstream/internal/utils"
	"github.com/lehigh-university-libraries/ocrstream/pkg/client"
	"github.com/lehigh-university-libraries/ocrstream/pkg/i18n"
	"github.com/lehigh-university-libraries/ocrstream/pkg/models"
)

// apology is shown when no translation file can be loaded at all.
const apology = "Sorry, the application could not start because its language files are missing. / " +
	"Die Anwendung konnte nicht gestartet werden, da die Sprachdateien fehlen."

// session is one command invocation's wired controller.
type session struct {
	cfg   config.Config
	store prefs.Store
	view  *terminal.View
	ctrl  *app.Controller
}

type sessionOptions struct {
	Endpoint string
	Language string
	Out      io.Writer
	Err      io.Writer
}

func newSession(opts sessionOptions) (*session, error) {
	cfg := config.Load()
	if opts.Endpoint != "" {
		cfg.Endpoint = opts.Endpoint
	}

	store := prefs.NewFileStore(cfg.PrefsPath)
	saved, err := store.Load()
	if err != nil {
		slog.Warn("Ignoring unreadable preferences", "path", store.Path(), "err", err)
	}

	lang := i18n.Resolve(opts.Language, saved.Language, cfg.Language)
	theme := terminal.InitialTheme(saved.Theme, func() (prefs.Theme, bool) {
		return terminal.DetectTheme(opts.Err)
	})
	view := newView(opts.Out, opts.Err, theme)

	registry := models.Builtin()
	registry.SetDefault(cfg.Model)

	var clip app.Clipboard
	if f, ok := opts.Err.(*os.File); ok {
		clip = terminal.NewOSC52(f)
	}

	ctrl := app.New(app.Options{
		Table:     i18n.NewTable(translationLoader(cfg), i18n.FallbackLanguage),
		View:      view,
		Submitter: client.New(cfg.Endpoint, cfg.ModelField),
		Clipboard: clip,
		Store:     store,
		Models:    registry,
	})
	if err := ctrl.Init(lang, theme); err != nil {
		return nil, err
	}

	slog.Debug("Session ready", "endpoint", utils.MaskSensitiveData(cfg.Endpoint), "lang", lang, "theme", theme)
	return &session{cfg: cfg, store: store, view: view, ctrl: ctrl}, nil
}

// mustSession aborts with a static bilingual message when translations are
// unavailable, since nothing can be rendered without them.
func mustSession(opts sessionOptions) *session {
	s, err := newSession(opts)
	if err != nil {
		utils.Abort(apology, err)
	}
	return s
}

func translationLoader(cfg config.Config) i18n.Loader {
	if cfg.LocalesDir != "" {
		return i18n.FSLoader{FS: os.DirFS(cfg.LocalesDir)}
	}
	return i18n.Embedded()
}

func newView(out, errOut io.Writer, theme prefs.Theme) *terminal.View {
	outFile, ok1 := out.(*os.File)
	errFile, ok2 := errOut.(*os.File)
	if ok1 && ok2 {
		return terminal.New(outFile, errFile, theme)
	}
	return terminal.NewWriters(out, errOut, theme)
}
