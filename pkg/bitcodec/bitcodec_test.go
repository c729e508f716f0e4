package bitcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoHide/pkg/stegerr"
)

func TestToBitsLayout(t *testing.T) {
	bits, err := ToBits("hi")
	require.NoError(t, err)
	require.Len(t, bits, (2+len(Terminator))*8)

	// 'h' = 0x68 = 0110 1000, 'i' = 0x69 = 0110 1001
	assert.Equal(t, Bits{0, 1, 1, 0, 1, 0, 0, 0}, bits[:8])
	assert.Equal(t, Bits{0, 1, 1, 0, 1, 0, 0, 1}, bits[8:16])
	// '#' = 0x23 = 0010 0011
	assert.Equal(t, Bits{0, 0, 1, 0, 0, 0, 1, 1}, bits[16:24])
}

func TestToBitsEmptyPayloadIsTerminatorOnly(t *testing.T) {
	bits, err := ToBits("")
	require.NoError(t, err)
	assert.Equal(t, BytesToBits([]byte(Terminator)), bits)
}

func TestToBitsRejectsWideCharacters(t *testing.T) {
	_, err := ToBits("price: 5€")
	require.Error(t, err)
	assert.True(t, stegerr.IsKind(err, stegerr.KindEncoding))
	assert.Contains(t, err.Error(), "index 8")
}

func TestToBitsRejectsInvalidUTF8(t *testing.T) {
	_, err := ToBits("ok\xff")
	assert.True(t, stegerr.IsKind(err, stegerr.KindEncoding))
}

func TestRoundTrip(t *testing.T) {
	for _, text := range []string{"", "a", "hello world", "Grüße, café", "tab\tnew\nline\x00nul", strings.Repeat("z", 300)} {
		bits, err := ToBits(text)
		require.NoError(t, err, text)
		got, found := FromBits(bits)
		assert.True(t, found, text)
		assert.Equal(t, text, got)
	}
}

func TestFromBitsIgnoresTrailingNoise(t *testing.T) {
	bits, err := ToBits("secret")
	require.NoError(t, err)
	bits = append(bits, 1, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1)

	got, found := FromBits(bits)
	assert.True(t, found)
	assert.Equal(t, "secret", got)
}

func TestFromBitsWithoutTerminator(t *testing.T) {
	raw := BytesToBits([]byte("plain"))
	raw = append(raw, 1, 0, 1) // fragment is dropped

	got, found := FromBits(raw)
	assert.False(t, found)
	assert.Equal(t, "plain", got)

	got, found = FromBits(nil)
	assert.False(t, found)
	assert.Empty(t, got)
}

func TestFromBitsPartialTerminatorIsKept(t *testing.T) {
	got, found := FromBits(BytesToBits([]byte("abc#####EN")))
	assert.False(t, found)
	assert.Equal(t, "abc#####EN", got)
}

func TestTerminatorInsidePayloadTruncates(t *testing.T) {
	bits, err := ToBits("left" + Terminator + "right")
	require.NoError(t, err)
	got, found := FromBits(bits)
	assert.True(t, found)
	assert.Equal(t, "left", got)
}

func TestScannerStopsAtTerminator(t *testing.T) {
	bits, err := ToBits("xy")
	require.NoError(t, err)

	var s Scanner
	done := -1
	for i, b := range bits {
		if s.WriteBit(b) {
			done = i
			break
		}
	}
	assert.Equal(t, len(bits)-1, done)
	assert.True(t, s.Found())
	assert.Equal(t, 2, s.Bytes())
	assert.False(t, s.WriteBit(1))
	assert.Equal(t, "xy", s.Text())
}

func TestCapacityHelpers(t *testing.T) {
	assert.Equal(t, 120, BitLen("hi"))
	assert.Equal(t, 192, BitLen("hello world"))
	assert.Equal(t, 24, MaxTextLen(300))
	assert.Equal(t, 0, MaxTextLen(50))
}

func TestLSBHelpers(t *testing.T) {
	assert.Equal(t, byte(0xFE), SetLSB(0xFF, 0))
	assert.Equal(t, byte(0x01), SetLSB(0x00, 1))
	assert.Equal(t, byte(0x81), SetLSB(0x81, 1))
	assert.Equal(t, byte(1), LSB(0x81))
	assert.Equal(t, byte(0), LSB(0x80))

	units := []byte{0x10, 0x11, 0x12, 0x13, 0x14}
	n := Embed(units, Bits{1, 0, 1})
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0x11, 0x10, 0x13, 0x13, 0x14}, units)
	assert.Equal(t, Bits{1, 0, 1, 1, 0}, Extract(units))

	short := []byte{0xAA}
	assert.Equal(t, 1, Embed(short, Bits{1, 1, 1}))
	assert.Equal(t, []byte{0xAB}, short)
}
