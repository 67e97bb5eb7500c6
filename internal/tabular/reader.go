package tabular

// reader.go cleans CSV input before it reaches encoding/csv.
//
// Spreadsheet exports from Windows tools often start with a UTF-8 byte order
// mark and occasionally carry bytes in a legacy code page. The BOM is dropped
// and every invalid byte becomes '?' so the CSV reader never sees broken
// UTF-8. Both steps stream; the file is never held in memory twice.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// sanitizer replaces invalid UTF-8 bytes with '?'.
// A multi-byte rune split across two reads of the underlying reader is
// held back and completed by the next fill.
type sanitizer struct {
	r    io.Reader
	raw  []byte
	tail int // start of the held-back partial rune in raw
	keep int // length of the held-back partial rune
	out  []byte
	err  error
}

func newSanitizer(r io.Reader) *sanitizer {
	return &sanitizer{r: r, raw: make([]byte, 4096+utf8.UTFMax)}
}

func (s *sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *sanitizer) fill() {
	copy(s.raw, s.raw[s.tail:s.tail+s.keep])
	n, err := s.r.Read(s.raw[s.keep:])
	n += s.keep
	s.err = err

	buf := s.raw[:n]
	final := err != nil
	w := 0
	i := 0
	for i < len(buf) {
		if !final && !utf8.FullRune(buf[i:]) {
			break
		}
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size == 1 {
			buf[w] = '?'
			w++
			i++
			continue
		}
		w += copy(buf[w:], buf[i:i+size])
		i += size
	}

	s.tail, s.keep = i, len(buf)-i
	s.out = buf[:w]
}

// cleanReader applies BOM removal and UTF-8 sanitizing, in that order.
func cleanReader(r io.Reader) io.Reader {
	return newSanitizer(skipBOM(r))
}
