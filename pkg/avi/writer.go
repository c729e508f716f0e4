// writer.go - Streaming AVI writer.
// Writes the RIFF/hdrl headers up front with placeholder counts, streams frame
// chunks into the movi list, then appends idx1 and patches sizes on Close.
package avi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/jpeg"
	"io"
	"math"
)

// Byte offsets of the header fields patched on Close, relative to the start
// of the file. They follow from the fixed header layout written by NewWriter.
const (
	offRIFFSize       = 4
	offAvihMaxBytes   = 32 + 4
	offAvihFrames     = 32 + 16
	offAvihBufferSize = 32 + 28
	offStrhLength     = 108 + 32
	offStrhBufferSize = 108 + 36
	offMoviSize       = 216
	offMoviFourCC     = 220
	headerSize        = 224
)

// JPEGQuality is used for CodecMJPEG frames.
const JPEGQuality = 95

type indexEntry struct {
	offset uint32
	size   uint32
}

// Writer writes a single video stream. Call Close to finish the file.
type Writer struct {
	w       io.WriteSeeker
	base    int64
	info    Info
	stride  int
	chunkID []byte
	pos     int64 // bytes written since base
	index   []indexEntry
	maxSize uint32
	buf     []byte
	jpg     bytes.Buffer
	closed  bool
	limit   int64 // largest file the 32-bit RIFF sizes can describe
}

// NewWriter writes the AVI headers for info to w, starting at w's current
// offset. Rate and Scale default to 15/1 and Codec to CodecRaw.
func NewWriter(w io.WriteSeeker, info Info) (*Writer, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", info.Width, info.Height)
	}
	if info.Rate == 0 || info.Scale == 0 {
		info.Rate, info.Scale = 15, 1
	}
	if info.Codec == "" {
		info.Codec = CodecRaw
	}
	if info.Codec != CodecRaw && info.Codec != CodecMJPEG {
		return nil, fmt.Errorf("unsupported codec %q", info.Codec)
	}

	base, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("seek output: %w", err)
	}

	aw := &Writer{w: w, base: base, info: info, stride: dibStride(info.Width), limit: math.MaxUint32}
	aw.chunkID = []byte("00db")
	if info.Codec == CodecMJPEG {
		aw.chunkID = []byte("00dc")
	}

	hdr := aw.header()
	if _, err := w.Write(hdr); err != nil {
		return nil, fmt.Errorf("write AVI header: %w", err)
	}
	aw.pos = int64(len(hdr))
	return aw, nil
}

// header builds everything up to and including the movi list type. Counts and
// sizes that depend on the frames are left at zero and patched by Close.
func (aw *Writer) header() []byte {
	info := aw.info
	width := uint32(info.Width)
	height := uint32(info.Height)
	imageSize := uint32(aw.stride * info.Height)

	buf := new(bytes.Buffer)
	buf.Grow(headerSize)

	// Helper to write FourCC
	writeFourCC := func(s string) {
		buf.WriteString(s)
	}
	// Helper to write uint32 little-endian
	writeUint32 := func(v uint32) {
		binary.Write(buf, binary.LittleEndian, v)
	}
	// Helper to write uint16 little-endian
	writeUint16 := func(v uint16) {
		binary.Write(buf, binary.LittleEndian, v)
	}

	handler, compression := "DIB ", uint32(biRGB)
	if info.Codec == CodecMJPEG {
		handler = "MJPG"
		compression = binary.LittleEndian.Uint32(fourCCMJPG[:])
	}

	// === RIFF Header ===
	writeFourCC("RIFF")
	writeUint32(0) // patched
	writeFourCC("AVI ")

	// === hdrl LIST ===
	hdrlSize := uint32(4 + 64 + 124) // "hdrl" + avih + strl
	writeFourCC("LIST")
	writeUint32(hdrlSize)
	writeFourCC("hdrl")

	// === avih (Main AVI Header) - 56 bytes + 8 header ===
	writeFourCC("avih")
	writeUint32(56)
	writeUint32(info.microSecPerFrame())
	writeUint32(0)    // max bytes per sec, patched
	writeUint32(0)    // padding granularity
	writeUint32(0x10) // flags: AVIF_HASINDEX
	writeUint32(0)    // total frames, patched
	writeUint32(0)    // initial frames
	writeUint32(1)    // number of streams
	writeUint32(0)    // suggested buffer size, patched
	writeUint32(width)
	writeUint32(height)
	writeUint32(0) // reserved
	writeUint32(0)
	writeUint32(0)
	writeUint32(0)

	// === strl LIST (Stream List) ===
	writeFourCC("LIST")
	writeUint32(116) // "strl" + strh(64) + strf(48)
	writeFourCC("strl")

	// === strh (Stream Header) - 56 bytes + 8 header ===
	writeFourCC("strh")
	writeUint32(56)
	writeFourCC("vids")
	writeFourCC(handler)
	writeUint32(0) // flags
	writeUint16(0) // priority
	writeUint16(0) // language
	writeUint32(0) // initial frames
	writeUint32(info.Scale)
	writeUint32(info.Rate)
	writeUint32(0) // start
	writeUint32(0) // length, patched
	writeUint32(0) // suggested buffer size, patched
	writeUint32(0) // quality
	writeUint32(0) // sample size
	writeUint16(0) // left
	writeUint16(0) // top
	writeUint16(uint16(width))
	writeUint16(uint16(height))

	// === strf (Stream Format - BITMAPINFOHEADER) - 40 bytes + 8 header ===
	writeFourCC("strf")
	writeUint32(40)
	writeUint32(40) // biSize
	writeUint32(width)
	writeUint32(height) // positive: bottom-up rows
	writeUint16(1)      // biPlanes
	writeUint16(24)     // biBitCount
	writeUint32(compression)
	writeUint32(imageSize)
	writeUint32(0) // biXPelsPerMeter
	writeUint32(0) // biYPelsPerMeter
	writeUint32(0) // biClrUsed
	writeUint32(0) // biClrImportant

	// === movi LIST ===
	writeFourCC("LIST")
	writeUint32(0) // patched
	writeFourCC("movi")

	return buf.Bytes()
}

// Info returns the stream parameters, with Frames counting frames written so far.
func (aw *Writer) Info() Info {
	info := aw.info
	info.Frames = len(aw.index)
	return info
}

// WriteFrame appends one frame. Its size must match the stream.
func (aw *Writer) WriteFrame(f *Frame) error {
	if aw.closed {
		return fmt.Errorf("write frame: writer closed")
	}
	if f.Width != aw.info.Width || f.Height != aw.info.Height {
		return fmt.Errorf("frame is %dx%d, stream is %dx%d", f.Width, f.Height, aw.info.Width, aw.info.Height)
	}

	var data []byte
	switch aw.info.Codec {
	case CodecRaw:
		data = aw.packDIB(f)
	case CodecMJPEG:
		aw.jpg.Reset()
		if err := jpeg.Encode(&aw.jpg, f.Image(), &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return fmt.Errorf("encode JPEG: %w", err)
		}
		data = aw.jpg.Bytes()
	}

	written := int64(8 + len(data) + len(data)%2)
	indexSize := int64(8 + 16*(len(aw.index)+1))
	if aw.pos+written+indexSize > aw.limit {
		return fmt.Errorf("%w: frame %d would grow the file past %d bytes", ErrTooLarge, len(aw.index), aw.limit)
	}

	size := uint32(len(data))
	var hdr [8]byte
	copy(hdr[:4], aw.chunkID)
	binary.LittleEndian.PutUint32(hdr[4:], size)
	if _, err := aw.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := aw.w.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	// Pad to even boundary
	if size%2 != 0 {
		if _, err := aw.w.Write([]byte{0}); err != nil {
			return fmt.Errorf("write frame padding: %w", err)
		}
	}

	aw.index = append(aw.index, indexEntry{offset: uint32(aw.pos - offMoviFourCC), size: size})
	aw.pos += written
	aw.maxSize = max(aw.maxSize, size)
	return nil
}

// packDIB converts a top-down frame into bottom-up padded rows.
func (aw *Writer) packDIB(f *Frame) []byte {
	h := f.Height
	n := aw.stride * h
	if cap(aw.buf) < n {
		aw.buf = make([]byte, n)
	}
	buf := aw.buf[:n]
	row := f.Width * 3
	for y := 0; y < h; y++ {
		dst := (h - 1 - y) * aw.stride
		copy(buf[dst:dst+row], f.Pix[y*row:(y+1)*row])
		clear(buf[dst+row : dst+aw.stride])
	}
	return buf
}

// Close writes the idx1 index and patches the header. It does not close the
// underlying writer and leaves its offset at the end of the file.
func (aw *Writer) Close() error {
	if aw.closed {
		return nil
	}
	aw.closed = true

	moviEnd := aw.pos

	// === idx1 (Index) ===
	idx := make([]byte, 8+16*len(aw.index))
	copy(idx[0:4], fourCCIdx1[:])
	binary.LittleEndian.PutUint32(idx[4:8], uint32(16*len(aw.index)))
	for i, e := range aw.index {
		entry := idx[8+16*i:]
		copy(entry[0:4], aw.chunkID)
		binary.LittleEndian.PutUint32(entry[4:8], 0x10) // flags: AVIIF_KEYFRAME
		binary.LittleEndian.PutUint32(entry[8:12], e.offset)
		binary.LittleEndian.PutUint32(entry[12:16], e.size)
	}
	if _, err := aw.w.Write(idx); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	end := aw.pos + int64(len(idx))

	frames := uint32(len(aw.index))
	fps := aw.info.FPS()
	patches := []struct {
		off int64
		v   uint32
	}{
		{offRIFFSize, uint32(end - 8)},
		{offAvihMaxBytes, uint32(float64(aw.maxSize) * fps)},
		{offAvihFrames, frames},
		{offAvihBufferSize, aw.maxSize},
		{offStrhLength, frames},
		{offStrhBufferSize, aw.maxSize},
		{offMoviSize, uint32(moviEnd - offMoviFourCC)},
	}
	var word [4]byte
	for _, p := range patches {
		if _, err := aw.w.Seek(aw.base+p.off, io.SeekStart); err != nil {
			return fmt.Errorf("seek header: %w", err)
		}
		binary.LittleEndian.PutUint32(word[:], p.v)
		if _, err := aw.w.Write(word[:]); err != nil {
			return fmt.Errorf("patch header: %w", err)
		}
	}
	if _, err := aw.w.Seek(aw.base+end, io.SeekStart); err != nil {
		return fmt.Errorf("seek end: %w", err)
	}
	return nil
}
