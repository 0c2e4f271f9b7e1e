package models

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultModel is sent when the user does not pick one.
const DefaultModel = "gemini-2.5-pro-exp-03-25"

// Model is one selectable backend model.
type Model struct {
	Name  string
	Label string
}

// Registry manages the models offered to the user
type Registry struct {
	models   map[string]Model
	order    []string
	fallback string
}

// NewRegistry creates a registry whose default is fallback
func NewRegistry(fallback string) *Registry {
	return &Registry{
		models:   make(map[string]Model),
		fallback: fallback,
	}
}

// Builtin returns the models the backend is known to accept
func Builtin() *Registry {
	r := NewRegistry(DefaultModel)
	r.Register(Model{Name: "gemini-2.5-pro-exp-03-25", Label: "Gemini 2.5 Pro (experimental)"})
	r.Register(Model{Name: "gemini-2.0-flash", Label: "Gemini 2.0 Flash"})
	r.Register(Model{Name: "gemini-2.0-flash-lite", Label: "Gemini 2.0 Flash-Lite"})
	r.Register(Model{Name: "gemini-1.5-pro", Label: "Gemini 1.5 Pro"})
	return r
}

// Register adds a model to the registry
func (r *Registry) Register(m Model) {
	key := strings.ToLower(m.Name)
	if _, exists := r.models[key]; !exists {
		r.order = append(r.order, key)
	}
	r.models[key] = m
}

// Get retrieves a model by name
func (r *Registry) Get(name string) (Model, error) {
	m, exists := r.models[strings.ToLower(name)]
	if !exists {
		return Model{}, fmt.Errorf("model %s not found", name)
	}
	return m, nil
}

// Resolve returns name if given, the default otherwise. Unknown names are
// passed through: the backend decides whether it can serve them.
func (r *Registry) Resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return r.Default()
	}
	if m, err := r.Get(name); err == nil {
		return m.Name
	}
	return name
}

// Default returns the default model name
func (r *Registry) Default() string {
	return r.fallback
}

// SetDefault makes name the default, registering it if it is unknown
func (r *Registry) SetDefault(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if !r.Has(name) {
		r.Register(Model{Name: name, Label: name})
	}
	r.fallback = r.Resolve(name)
}

// List returns the registered models in registration order
func (r *Registry) List() []Model {
	out := make([]Model, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.models[key])
	}
	return out
}

// Has checks if a model is registered
func (r *Registry) Has(name string) bool {
	return slices.Contains(r.order, strings.ToLower(name))
}
