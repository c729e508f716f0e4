// Package bitcodec converts a text payload to a self-terminating bit stream and
// back. It knows nothing about carriers.
//
// Wire format: every character is one ISO-8859-1 byte written most significant
// bit first, and the stream ends with the bytes of Terminator.
package bitcodec

import (
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/xob0t/GoHide/pkg/stegerr"
)

// Terminator is appended to every payload before encoding and marks the end of
// the payload when decoding. A payload containing it is truncated on decode.
const Terminator = "#####END#####"

// Bits is an ordered bit stream, one 0 or 1 per element.
type Bits []byte

var latin1 = charmap.ISO8859_1

// ToBits returns the bit stream of text followed by Terminator.
// Every code point must fit in one byte (0–255).
func ToBits(text string) (Bits, error) {
	raw := make([]byte, 0, len(text)+len(Terminator))
	pos := 0
	for _, r := range text {
		b, ok := latin1.EncodeRune(r)
		if !ok {
			return nil, stegerr.New(stegerr.KindEncoding, "encode payload", stegerr.Buffer,
				"character %q at index %d is outside the single-byte range", r, pos)
		}
		raw = append(raw, b)
		pos++
	}
	raw = append(raw, Terminator...)
	return BytesToBits(raw), nil
}

// BytesToBits expands raw bytes into bits, MSB first.
func BytesToBits(raw []byte) Bits {
	bits := make(Bits, 0, len(raw)*8)
	for _, b := range raw {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, (b>>shift)&1)
		}
	}
	return bits
}

// FromBits reads bits 8 at a time until the accumulated text ends with
// Terminator. On a match it returns the text before the terminator and true.
// Otherwise it returns everything accumulated and false; a trailing fragment
// shorter than a byte is dropped.
func FromBits(bits Bits) (string, bool) {
	var s Scanner
	for _, bit := range bits {
		if s.WriteBit(bit) {
			return s.Text(), true
		}
	}
	return s.Text(), false
}

// BitLen returns the length of the stream ToBits would produce for text.
// It does not validate the characters.
func BitLen(text string) int {
	return 8 * (len([]rune(text)) + len(Terminator))
}

// MaxTextLen returns the longest payload, in characters, a carrier with the
// given capacity can hold.
func MaxTextLen(capacityBits int) int {
	return max(capacityBits/8-len(Terminator), 0)
}

// Scanner is the incremental form of FromBits. The zero value is ready to use.
type Scanner struct {
	cur   byte
	n     int
	buf   []byte
	found bool
}

// WriteBit appends one bit. It reports true when the terminator has just been
// completed; further bits are ignored after that.
func (s *Scanner) WriteBit(bit byte) bool {
	if s.found {
		return false
	}
	s.cur = s.cur<<1 | bit&1
	s.n++
	if s.n < 8 {
		return false
	}
	s.buf = append(s.buf, s.cur)
	s.cur, s.n = 0, 0
	if len(s.buf) >= len(Terminator) && string(s.buf[len(s.buf)-len(Terminator):]) == Terminator {
		s.found = true
		s.buf = s.buf[:len(s.buf)-len(Terminator)]
		return true
	}
	return false
}

// Found reports whether the terminator has been seen.
func (s *Scanner) Found() bool { return s.found }

// Bytes returns the number of complete bytes accumulated, excluding the
// terminator once found.
func (s *Scanner) Bytes() int { return len(s.buf) }

// Text returns the accumulated payload decoded as ISO-8859-1.
func (s *Scanner) Text() string {
	var sb strings.Builder
	sb.Grow(len(s.buf))
	for _, b := range s.buf {
		sb.WriteRune(latin1.DecodeByte(b))
	}
	return sb.String()
}
