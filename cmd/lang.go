package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/ocrstream/internal/app"
	"github.com/lehigh-university-libraries/ocrstream/pkg/i18n"
)

var langCmd = &cobra.Command{
	Use:       "lang [LANG]",
	Short:     "Show or set the interface language",
	Long:      "Without an argument, print the active language. With one, switch to it and remember the choice.",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: i18n.Supported,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := sessionFor(cmd)
		if len(args) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (supported: %s)\n", s.ctrl.Language(), strings.Join(i18n.Supported, ", "))
			return nil
		}
		return runSetLanguage(cmd, s, args[0])
	},
}

func init() {
	RootCmd.AddCommand(langCmd)
}

func runSetLanguage(cmd *cobra.Command, s *session, lang string) error {
	if err := s.ctrl.Dispatch(cmd.Context(), app.ChangeLanguage{Language: strings.ToLower(lang)}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.ctrl.Translate("languageChanged", nil))
	return nil
}
