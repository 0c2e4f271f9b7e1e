package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/ocrstream/internal/config"
	"github.com/lehigh-university-libraries/ocrstream/pkg/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the endpoint is known to accept",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		registry := models.Builtin()
		registry.SetDefault(cfg.Model)
		printModels(cmd.OutOrStdout(), registry)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(modelsCmd)
}

func printModels(w io.Writer, registry *models.Registry) {
	for _, m := range registry.List() {
		marker := " "
		if m.Name == registry.Default() {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-28s %s\n", marker, m.Name, m.Label)
	}
}
