package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/ocrstream/pkg/client"
	"github.com/lehigh-university-libraries/ocrstream/pkg/models"
)

// DefaultEndpoint is the backend's upload route on a local install.
const DefaultEndpoint = "http://localhost:5000/process_image"

// Config holds the settings resolved from the environment.
type Config struct {
	Endpoint   string
	Model      string
	ModelField string
	LocalesDir string
	PrefsPath  string
	Language   string
}

// Load resolves configuration from environment variables and defaults.
func Load() Config {
	return Config{
		Endpoint:   envOrDefault("OCR_ENDPOINT", DefaultEndpoint),
		Model:      envOrDefault("OCR_MODEL", models.DefaultModel),
		ModelField: modelField(os.Getenv("OCR_MODEL_FIELD")),
		LocalesDir: strings.TrimSpace(os.Getenv("OCR_LOCALES_DIR")),
		PrefsPath:  envOrDefault("OCR_PREFS_PATH", defaultPrefsPath()),
		Language: firstNonEmpty(
			os.Getenv("OCR_LANGUAGE"),
			os.Getenv("LC_ALL"),
			os.Getenv("LC_MESSAGES"),
			os.Getenv("LANG"),
		),
	}
}

// modelField maps OCR_MODEL_FIELD onto a form field name. "none" omits the
// field for backends that fix the model server-side.
func modelField(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return client.FieldSelectedModel
	case "none", "-":
		return ""
	default:
		return strings.TrimSpace(v)
	}
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "ocrstream", "preferences.yaml")
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
