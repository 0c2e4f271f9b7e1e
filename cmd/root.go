package cmd

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/ocrstream/pkg/failure"
)

var RootCmd = &cobra.Command{
	Use:   "ocrstream",
	Short: "Stream text recognition results from the OCR assistant",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		ll, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}

		switch strings.ToUpper(ll) {
		case "DEBUG":
			level = slog.LevelDebug
		case "WARN":
			level = slog.LevelWarn
		case "ERROR":
			level = slog.LevelError
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		// stdout carries recognized text
		handler := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(handler)

		return nil
	},
}

var (
	endpoint string
	uiLang   string
)

func init() {
	ll := os.Getenv("LOG_LEVEL")
	if ll == "" {
		ll = "INFO"
	}
	RootCmd.PersistentFlags().String("log-level", ll, "The logging level for the command")
	RootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "OCR endpoint URL (default $OCR_ENDPOINT)")
	RootCmd.PersistentFlags().StringVar(&uiLang, "lang", "", "Interface language for this run: de or en")
}

func sessionFor(cmd *cobra.Command) *session {
	return mustSession(sessionOptions{
		Endpoint: endpoint,
		Language: uiLang,
		Out:      cmd.OutOrStdout(),
		Err:      cmd.ErrOrStderr(),
	})
}

// exitCode records a failure that was already shown as a banner.
var exitCode int

// ExitCode is the status to exit with once RootCmd returned without error.
func ExitCode() int {
	return exitCode
}

// shown swallows errors the controller has rendered already, so they are
// not printed a second time on the way out.
func shown(err error) error {
	var fe *failure.Error
	if !errors.As(err, &fe) {
		return err
	}
	slog.Debug("Command failed", "err", err)
	exitCode = 1
	return nil
}
