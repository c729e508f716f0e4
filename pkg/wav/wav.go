// Package wav reads and writes uncompressed PCM RIFF/WAVE files.
//
// A File keeps every chunk of the source in order so that rewriting it only
// changes what the caller changed. Parsing uses golang.org/x/image/riff.
package wav

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/image/riff"
)

// maxPrealloc bounds the buffer allocated up front from a declared chunk size.
const maxPrealloc = 64 << 20

// ErrFormat is wrapped by every error caused by malformed or unsupported input.
var ErrFormat = errors.New("wav: invalid format")

// Audio format tags.
const (
	FormatPCM        uint16 = 0x0001
	FormatExtensible uint16 = 0xFFFE
)

var (
	fourCCWAVE = riff.FourCC{'W', 'A', 'V', 'E'}
	fourCCFmt  = riff.FourCC{'f', 'm', 't', ' '}
	fourCCData = riff.FourCC{'d', 'a', 't', 'a'}
)

// Format is the content of the fmt chunk common to all PCM files.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// PCM returns a plain PCM format with derived byte rate and block align.
func PCM(channels, sampleRate, bitsPerSample int) Format {
	align := channels * ((bitsPerSample + 7) / 8)
	return Format{
		AudioFormat:   FormatPCM,
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * align),
		BlockAlign:    uint16(align),
		BitsPerSample: uint16(bitsPerSample),
	}
}

// Chunk is one top-level chunk of the WAVE form, stored without padding.
type Chunk struct {
	ID   riff.FourCC
	Data []byte
}

// File is a decoded WAVE file.
type File struct {
	Format Format
	Chunks []Chunk
	data   int
}

// New builds a file holding a fmt chunk and a data chunk.
func New(format Format, frames []byte) *File {
	fmtData := make([]byte, 16)
	putFormat(fmtData, format)
	return &File{
		Format: format,
		Chunks: []Chunk{
			{ID: fourCCFmt, Data: fmtData},
			{ID: fourCCData, Data: frames},
		},
		data: 1,
	}
}

// Frames returns the sample bytes of the data chunk. The slice aliases the file.
func (f *File) Frames() []byte {
	return f.Chunks[f.data].Data
}

// SetFrames replaces the content of the data chunk.
func (f *File) SetFrames(frames []byte) {
	f.Chunks[f.data].Data = frames
}

// Clone returns a deep copy.
func (f *File) Clone() *File {
	cp := &File{Format: f.Format, data: f.data, Chunks: make([]Chunk, len(f.Chunks))}
	for i, c := range f.Chunks {
		cp.Chunks[i] = Chunk{ID: c.ID, Data: bytes.Clone(c.Data)}
	}
	return cp
}

// Duration returns the playing time of the data chunk.
func (f *File) Duration() time.Duration {
	if f.Format.ByteRate == 0 {
		return 0
	}
	return time.Duration(len(f.Frames())) * time.Second / time.Duration(f.Format.ByteRate)
}

// Decode parses a WAVE stream. Only PCM (plain or extensible) is accepted.
func Decode(r io.Reader) (*File, error) {
	formType, z, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if formType != fourCCWAVE {
		return nil, fmt.Errorf("%w: RIFF form %q is not WAVE", ErrFormat, formType[:])
	}

	f := &File{data: -1}
	haveFmt := false
	for {
		id, size, chunk, err := z.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Writers that skip the pad byte after an odd final chunk leave
			// the RIFF size one short. Everything needed is already read.
			if haveFmt && f.data >= 0 {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		data, err := readChunk(chunk, size)
		if err != nil {
			return nil, fmt.Errorf("%w: read %q chunk: %v", ErrFormat, id[:], err)
		}
		truncated := uint32(len(data)) < size
		if truncated && id != fourCCData {
			return nil, fmt.Errorf("%w: read %q chunk: %v", ErrFormat, id[:], io.ErrUnexpectedEOF)
		}

		switch id {
		case fourCCFmt:
			if haveFmt {
				return nil, fmt.Errorf("%w: duplicate fmt chunk", ErrFormat)
			}
			format, err := parseFormat(data)
			if err != nil {
				return nil, err
			}
			f.Format = format
			haveFmt = true
		case fourCCData:
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrFormat)
			}
			if f.data >= 0 {
				return nil, fmt.Errorf("%w: duplicate data chunk", ErrFormat)
			}
			f.data = len(f.Chunks)
		}
		f.Chunks = append(f.Chunks, Chunk{ID: id, Data: data})
		// Streaming writers leave placeholder sizes; the data runs to EOF.
		if truncated {
			break
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrFormat)
	}
	if f.data < 0 {
		return nil, fmt.Errorf("%w: missing data chunk", ErrFormat)
	}
	return f, nil
}

// readChunk reads up to size bytes. A short result means the stream ended.
func readChunk(r io.Reader, size uint32) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(min(size, maxPrealloc)))
	if _, err := buf.ReadFrom(io.LimitReader(r, int64(size))); err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the file as a RIFF/WAVE stream. The fmt chunk is rewritten
// from Format; all other chunks are written as stored.
func (f *File) Encode(w io.Writer) error {
	size := uint32(4)
	for _, c := range f.Chunks {
		size += 8 + uint32(len(c.Data)) + uint32(len(c.Data)&1)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("RIFF")
	binary.Write(bw, binary.LittleEndian, size)
	bw.Write(fourCCWAVE[:])

	for _, c := range f.Chunks {
		data := c.Data
		if c.ID == fourCCFmt {
			data = bytes.Clone(data)
			putFormat(data, f.Format)
		}
		bw.Write(c.ID[:])
		binary.Write(bw, binary.LittleEndian, uint32(len(data)))
		bw.Write(data)
		// Chunks are word aligned.
		if len(data)&1 == 1 {
			bw.WriteByte(0)
		}
	}
	return bw.Flush()
}

// ReadFile decodes the WAVE file at path. Errors from opening the file are
// returned unwrapped so callers can test them with errors.Is(err, fs.ErrNotExist).
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Decode(bufio.NewReader(fh))
}

// WriteFile encodes f to path.
func WriteFile(path string, f *File) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Encode(out); err != nil {
		out.Close()
		return fmt.Errorf("encode WAV: %w", err)
	}
	return out.Close()
}

func parseFormat(data []byte) (Format, error) {
	if len(data) < 16 {
		return Format{}, fmt.Errorf("%w: fmt chunk is %d bytes", ErrFormat, len(data))
	}
	le := binary.LittleEndian
	format := Format{
		AudioFormat:   le.Uint16(data[0:2]),
		Channels:      le.Uint16(data[2:4]),
		SampleRate:    le.Uint32(data[4:8]),
		ByteRate:      le.Uint32(data[8:12]),
		BlockAlign:    le.Uint16(data[12:14]),
		BitsPerSample: le.Uint16(data[14:16]),
	}

	switch format.AudioFormat {
	case FormatPCM:
	case FormatExtensible:
		// cbSize(2) validBits(2) channelMask(4) then the sub-format GUID whose
		// first two bytes carry the real format tag.
		if len(data) < 40 {
			return Format{}, fmt.Errorf("%w: extensible fmt chunk is %d bytes", ErrFormat, len(data))
		}
		if sub := le.Uint16(data[24:26]); sub != FormatPCM {
			return Format{}, fmt.Errorf("%w: unsupported sub-format 0x%04x, only PCM", ErrFormat, sub)
		}
	default:
		return Format{}, fmt.Errorf("%w: unsupported audio format 0x%04x, only PCM", ErrFormat, format.AudioFormat)
	}

	if format.Channels == 0 {
		return Format{}, fmt.Errorf("%w: zero channels", ErrFormat)
	}
	switch format.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return Format{}, fmt.Errorf("%w: unsupported bit depth %d", ErrFormat, format.BitsPerSample)
	}
	return format, nil
}

func putFormat(dst []byte, format Format) {
	le := binary.LittleEndian
	le.PutUint16(dst[0:2], format.AudioFormat)
	le.PutUint16(dst[2:4], format.Channels)
	le.PutUint32(dst[4:8], format.SampleRate)
	le.PutUint32(dst[8:12], format.ByteRate)
	le.PutUint16(dst[12:14], format.BlockAlign)
	le.PutUint16(dst[14:16], format.BitsPerSample)
}
