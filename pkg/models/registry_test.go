package models

import "testing"

func TestBuiltin(t *testing.T) {
	r := Builtin()
	if r.Default() != DefaultModel {
		t.Errorf("Expected default %q, got %q", DefaultModel, r.Default())
	}
	if !r.Has(DefaultModel) {
		t.Error("Expected default model to be registered")
	}
	list := r.List()
	if len(list) == 0 || list[0].Name != DefaultModel {
		t.Errorf("Expected default model first, got %+v", list)
	}
}

func TestResolve(t *testing.T) {
	r := Builtin()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty uses default", input: "", want: DefaultModel},
		{name: "whitespace uses default", input: "  ", want: DefaultModel},
		{name: "case insensitive match", input: "GEMINI-2.0-FLASH", want: "gemini-2.0-flash"},
		{name: "unknown passes through", input: "custom-model", want: "custom-model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.input); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRegisterReplaces(t *testing.T) {
	r := NewRegistry("a")
	r.Register(Model{Name: "a", Label: "first"})
	r.Register(Model{Name: "A", Label: "second"})

	if len(r.List()) != 1 {
		t.Fatalf("Expected 1 model, got %d", len(r.List()))
	}
	m, err := r.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if m.Label != "second" {
		t.Errorf("Expected replaced label, got %q", m.Label)
	}
	if _, err := r.Get("missing"); err == nil {
		t.Error("Expected error for missing model")
	}
}

func TestSetDefault(t *testing.T) {
	r := Builtin()
	r.SetDefault("GEMINI-2.0-FLASH")
	if r.Default() != "gemini-2.0-flash" {
		t.Errorf("Expected canonical name, got %q", r.Default())
	}

	r.SetDefault("custom-ocr")
	if r.Default() != "custom-ocr" || !r.Has("custom-ocr") {
		t.Errorf("Unknown default should be registered, got %q", r.Default())
	}

	r.SetDefault("  ")
	if r.Default() != "custom-ocr" {
		t.Errorf("Blank name must not change the default, got %q", r.Default())
	}
}
