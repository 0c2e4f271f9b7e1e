package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/ocrstream/internal/app"
	"github.com/lehigh-university-libraries/ocrstream/pkg/upload"
)

var previewCmd = &cobra.Command{
	Use:          "preview FILE",
	Short:        "Validate a file and show what would be uploaded",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return shown(runPreview(cmd, sessionFor(cmd), args[0]))
	},
}

func init() {
	RootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, s *session, path string) error {
	cand, err := upload.FromFile(path)
	if err != nil {
		return err
	}
	if err := s.ctrl.Dispatch(cmd.Context(), app.SelectFile{Candidate: cand}); err != nil {
		return fmt.Errorf("%s was not accepted: %w", cand.Name, err)
	}
	return nil
}
