// Package stego hides text payloads in the least significant bits of images,
// PCM audio and AVI video, and recovers them.
//
// Every adapter turns the payload into a bit stream with package bitcodec,
// checks it fits before touching the carrier, and writes one bit per carrier
// unit in a fixed order. Decoding reads the same units in the same order.
package stego

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xob0t/GoHide/pkg/bitcodec"
	"github.com/xob0t/GoHide/pkg/stegerr"
)

// ScanOrder is the pixel traversal used by the image and video adapters.
// It is part of the wire format: encoder and decoder must agree.
type ScanOrder int

const (
	// RowMajor visits rows top to bottom, pixels left to right.
	RowMajor ScanOrder = iota
	// ColumnMajor visits columns left to right, pixels top to bottom. Images
	// produced by the original Python tool use this order.
	ColumnMajor
)

func (o ScanOrder) String() string {
	switch o {
	case RowMajor:
		return "row"
	case ColumnMajor:
		return "column"
	}
	return fmt.Sprintf("ScanOrder(%d)", int(o))
}

// ParseScanOrder accepts "row", "column" and their "-major" forms.
// The empty string selects RowMajor.
func ParseScanOrder(s string) (ScanOrder, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "-major") {
	case "", "row":
		return RowMajor, nil
	case "column", "col":
		return ColumnMajor, nil
	}
	return 0, fmt.Errorf("invalid scan order %q: use row or column", s)
}

// offset maps the k-th carrier unit to its index in a row-major buffer of
// w×h pixels with 3 channels each.
func (o ScanOrder) offset(k, w, h int) int {
	if o != ColumnMajor {
		return k
	}
	p, ch := k/3, k%3
	x, y := p/h, p%h
	return (y*w+x)*3 + ch
}

// Options tune the adapters. The zero value is valid.
type Options struct {
	Order  ScanOrder
	Logger *zap.Logger
}

func (o Options) log() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// embedUnits writes bits into a w×h×3 buffer following order.
func embedUnits(pix []byte, w, h int, order ScanOrder, bits bitcodec.Bits) int {
	if order == RowMajor {
		return bitcodec.Embed(pix, bits)
	}
	n := min(len(pix), len(bits))
	for k := 0; k < n; k++ {
		i := order.offset(k, w, h)
		pix[i] = bitcodec.SetLSB(pix[i], bits[k])
	}
	return n
}

// extractUnits reads every unit of a w×h×3 buffer following order.
func extractUnits(pix []byte, w, h int, order ScanOrder) bitcodec.Bits {
	if order == RowMajor {
		return bitcodec.Extract(pix)
	}
	bits := make(bitcodec.Bits, len(pix))
	for k := range bits {
		bits[k] = bitcodec.LSB(pix[order.offset(k, w, h)])
	}
	return bits
}

// payloadBits encodes text and checks it against capacity.
func payloadBits(op, target, text string, capacity int) (bitcodec.Bits, error) {
	bits, err := bitcodec.ToBits(text)
	if err != nil {
		return nil, stegerr.WithTarget(err, op, target)
	}
	if len(bits) > capacity {
		return nil, stegerr.New(stegerr.KindCapacityExceeded, op, target,
			"payload needs %d bits, carrier holds %d (at most %d characters)",
			len(bits), capacity, bitcodec.MaxTextLen(capacity))
	}
	return bits, nil
}
