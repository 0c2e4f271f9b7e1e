package i18n

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		locale string
		want   string
		ok     bool
	}{
		{locale: "de_DE.UTF-8", want: "de", ok: true},
		{locale: "de-AT", want: "de", ok: true},
		{locale: "en_GB", want: "en", ok: true},
		{locale: "en", want: "en", ok: true},
		{locale: "C", ok: false},
		{locale: "", ok: false},
		{locale: "!!", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			got, ok := Match(tt.locale)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Match(%q) = %q, %v; want %q, %v", tt.locale, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("", "en_US.UTF-8"); got != "en" {
		t.Errorf("Resolve() = %q, want en", got)
	}
	if got := Resolve("de", "en"); got != "de" {
		t.Errorf("Resolve() = %q, want de", got)
	}
	if got := Resolve(); got != DefaultLanguage {
		t.Errorf("Resolve() = %q, want default", got)
	}
}
