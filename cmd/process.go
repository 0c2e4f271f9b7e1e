package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v3"

	"github.com/lehigh-university-libraries/ocrstream/internal/app"
	"github.com/lehigh-university-libraries/ocrstream/internal/utils"
	"github.com/lehigh-university-libraries/ocrstream/pkg/upload"
)

// RunRecord summarises one submission.
type RunRecord struct {
	RequestID    string `yaml:"request_id"`
	Timestamp    string `yaml:"timestamp"`
	File         string `yaml:"file"`
	MimeType     string `yaml:"mime_type"`
	Size         int64  `yaml:"size"`
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	Instructions string `yaml:"instructions,omitempty"`
	Language     string `yaml:"language"`
	Outcome      string `yaml:"outcome"`
	Phase        string `yaml:"phase"`
	StatusKey    string `yaml:"status_key"`
	ErrorKey     string `yaml:"error_key,omitempty"`
	Detail       string `yaml:"detail,omitempty"`
	OutputChars  int    `yaml:"output_chars"`
	Duration     string `yaml:"duration"`
}

type processOptions struct {
	Instructions string
	Model        string
	OutputPath   string
	RecordDir    string
	Copy         bool
}

var processOpts processOptions

var processCmd = &cobra.Command{
	Use:   "process FILE",
	Short: "Upload an image or PDF and stream the recognized text",
	Long: `Upload a PNG, JPEG, WEBP or PDF file to the OCR endpoint and print the
text as it is generated. Status and errors are written to stderr.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if processOpts.OutputPath != "" {
			f, err := os.Create(processOpts.OutputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		s := mustSession(sessionOptions{
			Endpoint: endpoint,
			Language: uiLang,
			Out:      out,
			Err:      cmd.ErrOrStderr(),
		})
		return shown(runProcess(cmd.Context(), s, args[0], processOpts))
	},
}

func init() {
	processCmd.Flags().StringVarP(&processOpts.Instructions, "instructions", "i", "", "Additional instructions for the model")
	processCmd.Flags().StringVarP(&processOpts.Model, "model", "m", "", "Model to use (default $OCR_MODEL)")
	processCmd.Flags().StringVarP(&processOpts.OutputPath, "output", "o", "", "Write recognized text to this file instead of stdout")
	processCmd.Flags().StringVar(&processOpts.RecordDir, "record", "", "Save a YAML run record into this directory")
	processCmd.Flags().BoolVar(&processOpts.Copy, "copy", false, "Copy the result to the terminal clipboard")
	RootCmd.AddCommand(processCmd)
}

func runProcess(ctx context.Context, s *session, path string, opts processOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cand, err := upload.FromFile(path)
	if err != nil {
		return err
	}

	if err := s.ctrl.Dispatch(ctx, app.SelectFile{Candidate: cand}); err != nil {
		return fmt.Errorf("%s was not accepted: %w", cand.Name, err)
	}
	if err := s.ctrl.Dispatch(ctx, app.SetInstructions{Text: opts.Instructions}); err != nil {
		return err
	}
	if opts.Model != "" {
		if err := s.ctrl.Dispatch(ctx, app.SelectModel{Name: opts.Model}); err != nil {
			return err
		}
	}

	start := time.Now()
	submitErr := s.ctrl.Dispatch(ctx, app.Submit{})
	elapsed := time.Since(start)

	if opts.RecordDir != "" {
		record := newRunRecord(s, start, elapsed)
		outputPath := filepath.Join(opts.RecordDir, fmt.Sprintf("run_%s_%s.yaml", start.Format("2006-01-02_15-04-05"), record.RequestID))
		if err := saveRunRecord(record, outputPath); err != nil {
			slog.Error("Failed to save run record", "path", outputPath, "err", err)
		} else {
			slog.Info("Run record saved", "path", outputPath)
		}
	}

	if submitErr != nil {
		return fmt.Errorf("processing %s failed: %w", cand.Name, submitErr)
	}

	if opts.Copy {
		if err := s.ctrl.Dispatch(ctx, app.CopyResult{}); err != nil {
			return err
		}
	}
	return nil
}

func newRunRecord(s *session, start time.Time, elapsed time.Duration) RunRecord {
	st := s.ctrl.State()
	r := RunRecord{
		RequestID:    st.RequestID,
		Timestamp:    start.Format(time.RFC3339),
		Endpoint:     utils.MaskSensitiveData(s.cfg.Endpoint),
		Model:        st.Model,
		Instructions: st.Instructions,
		Language:     st.Language,
		Phase:        st.Phase.String(),
		StatusKey:    st.Status.Key,
		OutputChars:  len([]rune(st.Output)),
		Duration:     elapsed.Round(time.Millisecond).String(),
	}
	if st.Candidate != nil {
		r.File = st.Candidate.Name
		r.MimeType = st.Candidate.MimeType
		r.Size = st.Candidate.Size
	}
	if st.Outcome != nil {
		r.Outcome = st.Outcome.Kind.String()
		r.Detail = st.Outcome.Detail
		if st.Outcome.Err != nil {
			r.ErrorKey = st.Outcome.Err.MessageKey()
		}
	}
	return r
}

func saveRunRecord(record RunRecord, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(record)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}
