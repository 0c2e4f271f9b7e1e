package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/ocrstream/internal/app"
	"github.com/lehigh-university-libraries/ocrstream/internal/prefs"
)

var themeKeys = map[prefs.Theme]string{
	prefs.ThemeLight: "themeLight",
	prefs.ThemeDark:  "themeDark",
}

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "Show or change the colour theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(prefs.ThemeLight), string(prefs.ThemeDark), "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		s := sessionFor(cmd)
		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), s.ctrl.State().Theme)
			return nil
		}
		if err := applyTheme(cmd, s, args[0]); err != nil {
			return err
		}
		name := s.ctrl.Translate(themeKeys[s.ctrl.State().Theme], nil)
		fmt.Fprintln(cmd.OutOrStdout(), s.ctrl.Translate("themeChanged", map[string]string{"theme": name}))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(themeCmd)
}

func applyTheme(cmd *cobra.Command, s *session, arg string) error {
	if arg == "toggle" {
		return s.ctrl.Dispatch(cmd.Context(), app.ToggleTheme{})
	}
	return s.ctrl.Dispatch(cmd.Context(), app.SetTheme{Theme: prefs.Theme(arg)})
}
