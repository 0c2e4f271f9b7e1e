package stream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/ocrstream/pkg/failure"
)

// Phase is the position of a submission in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Submitting
	AwaitingFirstByte
	StreamingBody
	Done
	Empty
	Failed
)

var phaseNames = [...]string{"idle", "submitting", "awaiting_first_byte", "streaming_body", "done", "empty", "failed"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	EmptyStream
	RecognizedError
	UnrecognizedError
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case EmptyStream:
		return "empty_stream"
	case RecognizedError:
		return "recognized_error"
	case UnrecognizedError:
		return "unrecognized_error"
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome is produced once per submission.
type Outcome struct {
	Kind OutcomeKind
	// Text is everything appended to the visible output, in stream order.
	Text string
	// Err is set for RecognizedError and UnrecognizedError.
	Err *failure.Error
	// Detail is the raw backend detail of an UnrecognizedError.
	Detail string
}

// Phase returns the terminal phase for the outcome.
func (o Outcome) Phase() Phase {
	switch o.Kind {
	case Success:
		return Done
	case EmptyStream:
		return Empty
	}
	return Failed
}

// Fail builds the outcome for err, which is mapped onto a failure kind.
func Fail(err error, text string) Outcome {
	fe := failure.As(err)
	o := Outcome{Kind: RecognizedError, Text: text, Err: fe}
	if fe.Kind == failure.UnrecognizedInternal {
		o.Kind = UnrecognizedError
		o.Detail = fe.Data["internalError"]
	}
	return o
}

// Observer follows a consumption as it happens.
type Observer interface {
	PhaseChanged(Phase)
	Append(text string)
}

// DefaultChunkSize is the read buffer size.
const DefaultChunkSize = 32 * 1024

// Consumer reads a text response to completion or to its first fatal
// condition. Chunks are handled strictly in arrival order.
type Consumer struct {
	Observer  Observer
	ChunkSize int
	// DecodeMarker is appended to the output when decoding fails.
	DecodeMarker string
}

type run struct {
	c      *Consumer
	out    strings.Builder
	phase  Phase
	dec    *Decoder
	marker markerScanner
}

// Consume reads r until EOF, an in-band error, a decode failure or a read error.
func (c *Consumer) Consume(r io.Reader) Outcome {
	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	s := &run{c: c, dec: NewDecoder()}
	s.enter(AwaitingFirstByte)

	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			slog.Debug("Stream chunk received", "bytes", n)
			text, derr := s.dec.Decode(buf[:n])
			if derr != nil {
				return s.decodeFailed(derr)
			}
			if o, stop := s.handle(text); stop {
				return o
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Error("Stream read failed", "err", err)
			return s.finish(Fail(failure.Wrap(failure.UnknownError, err), s.out.String()))
		}
	}

	tail, err := s.dec.Flush()
	if err != nil {
		return s.decodeFailed(err)
	}
	if o, stop := s.handle(tail); stop {
		return o
	}
	s.emit(s.marker.flush())

	if s.phase == AwaitingFirstByte {
		return s.finish(Outcome{Kind: EmptyStream})
	}
	return s.finish(Outcome{Kind: Success, Text: s.out.String()})
}

func (s *run) handle(text string) (Outcome, bool) {
	if text == "" {
		return Outcome{}, false
	}
	visible, detail, found := s.marker.feed(text)
	s.emit(visible)
	if !found {
		return Outcome{}, false
	}

	slog.Error("Backend stream error", "detail", detail)
	kind := Classify(detail)
	fe := failure.New(kind, nil)
	if kind == failure.UnrecognizedInternal {
		fe.Data = map[string]string{"internalError": detail}
	}
	return s.finish(Fail(fe, s.out.String())), true
}

func (s *run) emit(text string) {
	if text == "" {
		return
	}
	if s.phase == AwaitingFirstByte {
		s.enter(StreamingBody)
	}
	s.out.WriteString(text)
	if s.c.Observer != nil {
		s.c.Observer.Append(text)
	}
}

func (s *run) decodeFailed(err error) Outcome {
	slog.Error("Decoding error", "err", err)
	if s.c.DecodeMarker != "" {
		s.out.WriteString(s.c.DecodeMarker)
		if s.c.Observer != nil {
			s.c.Observer.Append(s.c.DecodeMarker)
		}
	}
	return s.finish(Fail(failure.Wrap(failure.DecodeError, err), s.out.String()))
}

func (s *run) enter(p Phase) {
	s.phase = p
	if s.c.Observer != nil {
		s.c.Observer.PhaseChanged(p)
	}
}

func (s *run) finish(o Outcome) Outcome {
	s.enter(o.Phase())
	return o
}
