package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/ocrstream/pkg/failure"
)

// chunkReader returns one chunk per Read call.
type chunkReader struct {
	chunks [][]byte
	reads  int
	err    error
}

func newChunkReader(chunks ...string) *chunkReader {
	r := &chunkReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.reads >= len(r.chunks) {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.reads])
	r.reads++
	return n, nil
}

type recorder struct {
	phases  []Phase
	appends []string
}

func (r *recorder) PhaseChanged(p Phase) { r.phases = append(r.phases, p) }
func (r *recorder) Append(text string)   { r.appends = append(r.appends, text) }

func (r *recorder) output() string { return strings.Join(r.appends, "") }

func TestConsume(t *testing.T) {
	tests := []struct {
		name       string
		chunks     []string
		wantKind   OutcomeKind
		wantPhase  Phase
		wantText   string
		wantFail   failure.Kind
		wantDetail string
	}{
		{
			name:      "two chunks",
			chunks:    []string{"Hel", "lo "},
			wantKind:  Success,
			wantPhase: Done,
			wantText:  "Hello ",
		},
		{
			name:      "no chunks",
			chunks:    nil,
			wantKind:  EmptyStream,
			wantPhase: Empty,
		},
		{
			name:      "only an empty chunk",
			chunks:    []string{""},
			wantKind:  EmptyStream,
			wantPhase: Empty,
		},
		{
			name:      "error after partial text",
			chunks:    []string{"partial text", "<<ERROR:Safety filter triggered>>"},
			wantKind:  RecognizedError,
			wantPhase: Failed,
			wantText:  "partial text",
			wantFail:  failure.BlockedSafety,
		},
		{
			name:      "german safety marker",
			chunks:    []string{"<<ERROR: Anfrage blockiert (Sicherheit)>>"},
			wantKind:  RecognizedError,
			wantPhase: Failed,
			wantFail:  failure.BlockedSafety,
		},
		{
			name:      "recitation",
			chunks:    []string{"<<ERROR: Anfrage gestoppt (RECITATION)>>"},
			wantKind:  RecognizedError,
			wantPhase: Failed,
			wantFail:  failure.BlockedRecitation,
		},
		{
			name:      "stopped",
			chunks:    []string{"<<ERROR: Anfrage gestoppt (MAX_TOKENS)>>"},
			wantKind:  RecognizedError,
			wantPhase: Failed,
			wantFail:  failure.Stopped,
		},
		{
			name:       "unrecognized detail",
			chunks:     []string{"<<ERROR: Serverfehler während der Verarbeitung>>"},
			wantKind:   UnrecognizedError,
			wantPhase:  Failed,
			wantFail:   failure.UnrecognizedInternal,
			wantDetail: "Serverfehler während der Verarbeitung",
		},
		{
			name:      "text before marker in same chunk stays visible",
			chunks:    []string{"abc<<ERROR:stopped>>ignored"},
			wantKind:  RecognizedError,
			wantPhase: Failed,
			wantText:  "abc",
			wantFail:  failure.Stopped,
		},
		{
			name:      "marker split across chunks",
			chunks:    []string{"abc<<ERR", "OR:safety>>"},
			wantKind:  RecognizedError,
			wantPhase: Failed,
			wantText:  "abc",
			wantFail:  failure.BlockedSafety,
		},
		{
			name:      "held back prefix released at end",
			chunks:    []string{"a <", "< b <<"},
			wantKind:  Success,
			wantPhase: Done,
			wantText:  "a << b <<",
		},
		{
			name:      "multi-byte character split across chunks",
			chunks:    []string{"Gr\xc3", "\xbc\xc3", "\x9fe"},
			wantKind:  Success,
			wantPhase: Done,
			wantText:  "Grüße",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			c := &Consumer{Observer: rec}
			o := c.Consume(newChunkReader(tt.chunks...))

			if o.Kind != tt.wantKind {
				t.Errorf("Expected outcome %s, got %s", tt.wantKind, o.Kind)
			}
			if o.Phase() != tt.wantPhase {
				t.Errorf("Expected phase %s, got %s", tt.wantPhase, o.Phase())
			}
			if o.Text != tt.wantText {
				t.Errorf("Expected text %q, got %q", tt.wantText, o.Text)
			}
			if rec.output() != tt.wantText {
				t.Errorf("Expected visible output %q, got %q", tt.wantText, rec.output())
			}
			if strings.Contains(rec.output(), Marker) {
				t.Errorf("Marker leaked into output: %q", rec.output())
			}
			if tt.wantPhase == Failed {
				if o.Err == nil {
					t.Fatal("Expected failure")
				}
				if o.Err.Kind != tt.wantFail {
					t.Errorf("Expected failure %s, got %s", tt.wantFail, o.Err.Kind)
				}
			}
			if o.Detail != tt.wantDetail {
				t.Errorf("Expected detail %q, got %q", tt.wantDetail, o.Detail)
			}
			if last := rec.phases[len(rec.phases)-1]; last != tt.wantPhase {
				t.Errorf("Expected final phase %s, got %s", tt.wantPhase, last)
			}
		})
	}
}

func TestConsumePhaseSequence(t *testing.T) {
	rec := &recorder{}
	(&Consumer{Observer: rec}).Consume(newChunkReader("a", "b", "c"))

	want := []Phase{AwaitingFirstByte, StreamingBody, Done}
	if len(rec.phases) != len(want) {
		t.Fatalf("Expected phases %v, got %v", want, rec.phases)
	}
	for i := range want {
		if rec.phases[i] != want[i] {
			t.Errorf("phase %d: expected %s, got %s", i, want[i], rec.phases[i])
		}
	}
}

func TestConsumeStopsAtMarker(t *testing.T) {
	r := newChunkReader("one", "<<ERROR:safety>>", "never read")
	(&Consumer{}).Consume(r)
	if r.reads != 2 {
		t.Errorf("Expected reading to stop after the marker chunk, got %d reads", r.reads)
	}
}

func TestConsumeDecodeFailureHalts(t *testing.T) {
	r := newChunkReader("ok ", "\xff\xfe", "more text")
	rec := &recorder{}
	o := (&Consumer{Observer: rec, DecodeMarker: "\n[decode error]\n"}).Consume(r)

	if o.Phase() != Failed || o.Err.Kind != failure.DecodeError {
		t.Fatalf("Expected DecodeError, got %+v", o)
	}
	if r.reads != 2 {
		t.Errorf("Expected no reads after the bad chunk, got %d", r.reads)
	}
	if o.Text != "ok \n[decode error]\n" {
		t.Errorf("Unexpected output %q", o.Text)
	}
	if !errors.Is(o.Err, ErrDecode) {
		t.Errorf("Expected ErrDecode in chain, got %v", o.Err)
	}
}

func TestConsumeTruncatedCharacterAtEnd(t *testing.T) {
	o := (&Consumer{}).Consume(newChunkReader("abc\xe2\x82"))
	if o.Phase() != Failed || o.Err.Kind != failure.DecodeError {
		t.Errorf("Expected DecodeError for truncated character, got %+v", o)
	}
}

func TestConsumeReadError(t *testing.T) {
	r := newChunkReader("partial")
	r.err = errors.New("connection reset")
	o := (&Consumer{}).Consume(r)

	if o.Phase() != Failed || o.Err.Kind != failure.UnknownError {
		t.Fatalf("Expected UnknownError, got %+v", o)
	}
	if o.Text != "partial" {
		t.Errorf("Expected partial text kept, got %q", o.Text)
	}
}

func TestDecoder(t *testing.T) {
	d := NewDecoder()
	euro := []byte("€") // e2 82 ac

	got, err := d.Decode(euro[:1])
	if err != nil || got != "" {
		t.Fatalf("Decode(first byte) = %q, %v", got, err)
	}
	got, err = d.Decode(euro[1:2])
	if err != nil || got != "" {
		t.Fatalf("Decode(second byte) = %q, %v", got, err)
	}
	got, err = d.Decode(append(euro[2:], 'x'))
	if err != nil || got != "€x" {
		t.Fatalf("Decode(last byte) = %q, %v", got, err)
	}
	if tail, err := d.Flush(); err != nil || tail != "" {
		t.Errorf("Flush() = %q, %v", tail, err)
	}
}

func TestDecoderInvalid(t *testing.T) {
	d := NewDecoder()
	if _, err := d.Decode([]byte("a\xc3(")); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}

	d = NewDecoder()
	if _, err := d.Decode([]byte{0xe2}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Flush(); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode on flush of partial character, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]failure.Kind{
		"Safety filter triggered":              failure.BlockedSafety,
		"Anfrage blockiert (Sicherheit)":       failure.BlockedSafety,
		"Anfrage gestoppt (SAFETY)":            failure.BlockedSafety,
		"Blocked: Recitation":                  failure.BlockedRecitation,
		"Zitierung erkannt":                    failure.BlockedRecitation,
		"generation stopped":                   failure.Stopped,
		"Anfrage gestoppt (Unbekannt)":         failure.Stopped,
		"Serverfehler während der Verarbeitung": failure.UnrecognizedInternal,
		"":                                     failure.UnrecognizedInternal,
	}
	for detail, want := range tests {
		if got := Classify(detail); got != want {
			t.Errorf("Classify(%q) = %s, want %s", detail, got, want)
		}
	}
}

func TestParseDetail(t *testing.T) {
	tests := map[string]string{
		"<<ERROR: Anfrage blockiert (Sicherheit)>>": "Anfrage blockiert (Sicherheit)",
		"<<ERROR:x>>trailing":                       "x",
		"<<ERROR: no close":                         "no close",
	}
	for in, want := range tests {
		if got := ParseDetail(in); got != want {
			t.Errorf("ParseDetail(%q) = %q, want %q", in, got, want)
		}
	}
}
