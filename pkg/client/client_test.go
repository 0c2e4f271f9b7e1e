package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/ocrstream/pkg/upload"
)

func TestSubmit_FormFields(t *testing.T) {
	tests := []struct {
		name       string
		modelField string
		model      string
		wantField  string
	}{
		{name: "selected_model field", modelField: FieldSelectedModel, model: "gemini-x", wantField: FieldSelectedModel},
		{name: "model_name field", modelField: FieldModelName, model: "gemini-y", wantField: FieldModelName},
		{name: "model omitted", modelField: "", model: "gemini-z", wantField: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("Expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/process_image" {
					t.Errorf("Expected /process_image, got %s", r.URL.Path)
				}
				if r.Header.Get("X-Request-ID") != "req-1" {
					t.Errorf("Expected request id header, got %q", r.Header.Get("X-Request-ID"))
				}

				file, header, err := r.FormFile("image")
				if err != nil {
					t.Errorf("Expected image part: %v", err)
					http.Error(w, "missing image", http.StatusBadRequest)
					return
				}
				defer file.Close()
				data, _ := io.ReadAll(file)
				if string(data) != "PNGDATA" {
					t.Errorf("Unexpected image bytes %q", data)
				}
				if header.Filename != "scan.png" {
					t.Errorf("Expected filename scan.png, got %q", header.Filename)
				}
				if ct := header.Header.Get("Content-Type"); ct != "image/png" {
					t.Errorf("Expected part content type image/png, got %q", ct)
				}
				if got := r.FormValue("instructions"); got != "keep line breaks" {
					t.Errorf("Unexpected instructions %q", got)
				}
				for _, field := range []string{FieldSelectedModel, FieldModelName} {
					got := r.FormValue(field)
					if field == tt.wantField && got != tt.model {
						t.Errorf("Expected %s=%q, got %q", field, tt.model, got)
					}
					if field != tt.wantField && got != "" {
						t.Errorf("Expected %s to be absent, got %q", field, got)
					}
				}

				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Write([]byte("extracted"))
			}))
			defer server.Close()

			c := New(server.URL+"/process_image", tt.modelField)
			body, err := c.Submit(context.Background(), Request{
				Candidate:    upload.FromBytes("scan.png", "image/png", []byte("PNGDATA")),
				Instructions: "keep line breaks",
				Model:        tt.model,
				RequestID:    "req-1",
			})
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			defer body.Close()
			text, _ := io.ReadAll(body)
			if string(text) != "extracted" {
				t.Errorf("Expected body 'extracted', got %q", text)
			}
		})
	}
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        string
		wantStatus  int
		wantMessage string
		wantNoBody  bool
	}{
		{
			name:        "json error",
			statusCode:  http.StatusBadRequest,
			body:        `{"error": "Keine Datei ausgewählt"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Keine Datei ausgewählt",
		},
		{
			name:       "non json error",
			statusCode: http.StatusBadGateway,
			body:       "<html>bad gateway</html>",
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "no content",
			statusCode: http.StatusNoContent,
			wantNoBody: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL, FieldSelectedModel).Submit(context.Background(), Request{
				Candidate: upload.FromBytes("a.pdf", "application/pdf", []byte("%PDF")),
			})
			if err == nil {
				t.Fatal("Expected error")
			}

			if tt.wantNoBody {
				if !errors.Is(err, ErrNoStream) {
					t.Errorf("Expected ErrNoStream, got %v", err)
				}
				return
			}

			var he *HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("Expected *HTTPError, got %T", err)
			}
			if he.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, he.StatusCode)
			}
			if he.Message != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, he.Message)
			}
		})
	}
}

func TestSubmit_NoCandidate(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	if _, err := New(server.URL, "").Submit(context.Background(), Request{}); err == nil {
		t.Error("Expected error without candidate")
	}
	if called {
		t.Error("No request may be sent without a candidate")
	}
}

func TestSubmit_MasksKeyInTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1/process_image?key=secret123", "")
	_, err := c.Submit(context.Background(), Request{
		Candidate: upload.FromBytes("a.png", "image/png", []byte("x")),
	})
	if err == nil {
		t.Fatal("Expected connection error")
	}
	if strings.Contains(err.Error(), "secret123") {
		t.Errorf("Expected key to be masked, got %v", err)
	}
}

func TestTruncateBody(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := TruncateBody([]byte(long))
	if !strings.HasSuffix(got, "... (truncated)") || len(got) != 500+len("... (truncated)") {
		t.Errorf("Unexpected truncation %q", got)
	}
	if TruncateBody([]byte("short"), 10) != "short" {
		t.Error("Expected short body unchanged")
	}
}
