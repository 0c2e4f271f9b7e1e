package stream

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrDecode reports bytes that are not valid UTF-8.
var ErrDecode = errors.New("invalid UTF-8 in response stream")

// Decoder turns a sequence of byte chunks into text. A multi-byte character
// split across chunks is held back until its remaining bytes arrive.
type Decoder struct {
	t       transform.Transformer
	pending []byte
}

// NewDecoder returns a strict UTF-8 decoder.
func NewDecoder() *Decoder {
	return &Decoder{t: encoding.UTF8Validator}
}

// Decode returns the text completed by chunk.
func (d *Decoder) Decode(chunk []byte) (string, error) {
	return d.decode(chunk, false)
}

// Flush ends the stream. Bytes still pending form an incomplete character
// and are reported as a decode error.
func (d *Decoder) Flush() (string, error) {
	return d.decode(nil, true)
}

func (d *Decoder) decode(chunk []byte, atEOF bool) (string, error) {
	src := make([]byte, 0, len(d.pending)+len(chunk))
	src = append(src, d.pending...)
	src = append(src, chunk...)
	d.pending = nil
	if len(src) == 0 {
		return "", nil
	}

	dst := make([]byte, len(src))
	nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
	switch {
	case err == nil:
	case errors.Is(err, transform.ErrShortSrc) && !atEOF:
		d.pending = append(d.pending, src[nSrc:]...)
	default:
		d.t.Reset()
		return "", fmt.Errorf("%w at byte %d: %v", ErrDecode, nSrc, err)
	}
	return string(dst[:nDst]), nil
}
