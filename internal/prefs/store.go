package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	yaml "go.yaml.in/yaml/v3"
)

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences are the choices restored on the next start. Empty fields mean
// nothing was saved.
type Preferences struct {
	Language string `yaml:"language,omitempty"`
	Theme    Theme  `yaml:"theme,omitempty"`
}

// Store persists preferences.
type Store interface {
	Load() (Preferences, error)
	Save(Preferences) error
}

// FileStore keeps preferences in a single YAML file.
type FileStore struct {
	path string
}

// NewFileStore creates a YAML-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads preferences, returning empty ones when the file does not exist.
func (s *FileStore) Load() (Preferences, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Preferences{}, nil
		}
		return Preferences{}, err
	}

	var p Preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("unable to parse %s: %w", s.path, err)
	}
	if !p.Theme.Valid() {
		p.Theme = ""
	}
	return p, nil
}

// Save writes preferences and creates parent directories.
func (s *FileStore) Save(p Preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

// MemoryStore keeps preferences in memory.
type MemoryStore struct {
	Prefs Preferences
	Err   error
}

func (m *MemoryStore) Load() (Preferences, error) {
	return m.Prefs, m.Err
}

func (m *MemoryStore) Save(p Preferences) error {
	if m.Err != nil {
		return m.Err
	}
	m.Prefs = p
	return nil
}
