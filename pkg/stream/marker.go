package stream

import (
	"strings"

	"github.com/lehigh-university-libraries/ocrstream/pkg/failure"
)

// Marker opens an in-band error inside the text stream: <<ERROR:detail>>.
const Marker = "<<ERROR:"

const markerEnd = ">>"

// markerScanner splits decoded text into visible output and an optional
// in-band error. A chunk ending in a prefix of Marker is held back so a
// marker split across chunks is still found.
type markerScanner struct {
	held string
}

// feed returns the text safe to show. found is set once a marker is seen;
// everything from the marker on is dropped.
func (s *markerScanner) feed(text string) (visible, detail string, found bool) {
	text = s.held + text
	s.held = ""

	if i := strings.Index(text, Marker); i >= 0 {
		return text[:i], ParseDetail(text[i:]), true
	}

	for k := min(len(Marker)-1, len(text)); k > 0; k-- {
		if strings.HasSuffix(text, Marker[:k]) {
			s.held = text[len(text)-k:]
			return text[:len(text)-k], "", false
		}
	}
	return text, "", false
}

// flush releases held text at stream end; it was not a marker after all.
func (s *markerScanner) flush() string {
	h := s.held
	s.held = ""
	return h
}

// ParseDetail extracts the detail from text starting with Marker. A missing
// closing ">>" takes the rest of the text.
func ParseDetail(text string) string {
	rest := strings.TrimPrefix(text, Marker)
	if j := strings.Index(rest, markerEnd); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

var classes = []struct {
	kind      failure.Kind
	fragments []string
}{
	{failure.BlockedSafety, []string{"safety", "sicherheit"}},
	{failure.BlockedRecitation, []string{"recitation", "zitierung"}},
	{failure.Stopped, []string{"stopped", "gestoppt"}},
}

// Classify maps a backend error detail onto a failure kind by
// case-insensitive fragment match. Unknown details are UnrecognizedInternal.
func Classify(detail string) failure.Kind {
	lower := strings.ToLower(detail)
	for _, c := range classes {
		for _, f := range c.fragments {
			if strings.Contains(lower, f) {
				return c.kind
			}
		}
	}
	return failure.UnrecognizedInternal
}
