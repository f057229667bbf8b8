package provider

import "strings"

// eosScanner detects end-of-turn conditions while text streams in: either a
// configured literal end-of-turn string, or (for providers that expose it)
// a native model EOS signal handled upstream of this scanner. Grounded on
// pkg/llm/stream.go's incremental-accumulation technique, applied to plain
// text instead of structured chunks.
type eosScanner struct {
	endStrings []string
	buf        strings.Builder
}

func newEOSScanner(endStrings []string) *eosScanner {
	return &eosScanner{endStrings: endStrings}
}

// Feed appends chunk to the accumulated text and reports whether an
// end-of-turn string has now been seen, along with the text truncated at
// the first end-of-turn marker (exclusive).
func (s *eosScanner) Feed(chunk string) (truncated string, done bool) {
	s.buf.WriteString(chunk)
	full := s.buf.String()
	cut := -1
	for _, end := range s.endStrings {
		if end == "" {
			continue
		}
		if idx := strings.Index(full, end); idx >= 0 && (cut < 0 || idx < cut) {
			cut = idx
		}
	}
	if cut < 0 {
		return full, false
	}
	return full[:cut], true
}

// Text returns everything accumulated so far, unmodified.
func (s *eosScanner) Text() string { return s.buf.String() }
