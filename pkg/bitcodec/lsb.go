package bitcodec

// SetLSB replaces the least significant bit of unit with bit.
func SetLSB(unit, bit byte) byte {
	return unit&0xFE | bit&1
}

// LSB returns the least significant bit of unit.
func LSB(unit byte) byte {
	return unit & 1
}

// Embed writes bits into the LSBs of units in order and returns how many bits
// were written: min(len(units), len(bits)). Units past that are not touched.
func Embed(units []byte, bits Bits) int {
	n := min(len(units), len(bits))
	for i := 0; i < n; i++ {
		units[i] = SetLSB(units[i], bits[i])
	}
	return n
}

// Extract returns the LSB of every unit in order.
func Extract(units []byte) Bits {
	bits := make(Bits, len(units))
	for i, u := range units {
		bits[i] = LSB(u)
	}
	return bits
}
