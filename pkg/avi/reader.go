// reader.go - Streaming AVI frame reader built on golang.org/x/image/riff.
// Parses the hdrl list up front, then walks the movi list one chunk per call.
package avi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/jpeg"
	"io"

	"golang.org/x/image/riff"
)

var (
	fourCCAVI  = riff.FourCC{'A', 'V', 'I', ' '}
	fourCCHdrl = riff.FourCC{'h', 'd', 'r', 'l'}
	fourCCAvih = riff.FourCC{'a', 'v', 'i', 'h'}
	fourCCStrl = riff.FourCC{'s', 't', 'r', 'l'}
	fourCCStrh = riff.FourCC{'s', 't', 'r', 'h'}
	fourCCStrf = riff.FourCC{'s', 't', 'r', 'f'}
	fourCCMovi = riff.FourCC{'m', 'o', 'v', 'i'}
	fourCCRec  = riff.FourCC{'r', 'e', 'c', ' '}
	fourCCVids = riff.FourCC{'v', 'i', 'd', 's'}
	fourCCMJPG = riff.FourCC{'M', 'J', 'P', 'G'}
	fourCCIdx1 = riff.FourCC{'i', 'd', 'x', '1'}
)

const biRGB = 0

// Reader yields the frames of the first video stream in container order.
type Reader struct {
	info     Info
	lists    []*riff.Reader // movi, then any open rec lists
	stream   [2]byte // two-digit stream number prefixing frame chunk IDs
	bottomUp bool
	buf      []byte
}

// NewReader parses the AVI headers from r and positions the reader at the
// first frame. r is consumed sequentially and never seeked.
func NewReader(r io.Reader) (*Reader, error) {
	formType, top, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if formType != fourCCAVI {
		return nil, fmt.Errorf("%w: RIFF form %q is not AVI", ErrFormat, formType[:])
	}

	rd := &Reader{}
	haveHeader := false
	for {
		id, size, data, err := top.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: missing movi list", ErrFormat)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if id != riff.LIST {
			continue
		}
		listType, list, err := riff.NewListReader(size, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		switch listType {
		case fourCCHdrl:
			if err := rd.parseHeaderList(list); err != nil {
				return nil, err
			}
			haveHeader = true
		case fourCCMovi:
			if !haveHeader {
				return nil, fmt.Errorf("%w: movi list before hdrl", ErrFormat)
			}
			rd.lists = []*riff.Reader{list}
			return rd, nil
		}
	}
}

// Info returns the stream description parsed from the headers.
func (r *Reader) Info() Info { return r.info }

// Next returns the next frame, or io.EOF after the last one.
// The returned frame is owned by the caller.
func (r *Reader) Next() (*Frame, error) {
	for {
		list := r.lists[len(r.lists)-1]
		id, size, data, err := list.Next()
		if err == io.EOF {
			if len(r.lists) == 1 {
				return nil, io.EOF
			}
			r.lists = r.lists[:len(r.lists)-1]
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if id == riff.LIST {
			listType, rec, err := riff.NewListReader(size, data)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrFormat, err)
			}
			if listType == fourCCRec {
				r.lists = append(r.lists, rec)
			}
			continue
		}
		if id[0] != r.stream[0] || id[1] != r.stream[1] || id[2] != 'd' || (id[3] != 'b' && id[3] != 'c') {
			// Other streams and JUNK.
			continue
		}
		if size == 0 {
			// Dropped frame marker.
			continue
		}
		if cap(r.buf) < int(size) {
			r.buf = make([]byte, size)
		}
		buf := r.buf[:size]
		if _, err := io.ReadFull(data, buf); err != nil {
			return nil, fmt.Errorf("%w: read frame: %v", ErrFormat, err)
		}
		return r.decodeFrame(buf)
	}
}

func (r *Reader) decodeFrame(data []byte) (*Frame, error) {
	w, h := r.info.Width, r.info.Height
	switch r.info.Codec {
	case CodecRaw:
		stride := dibStride(w)
		if len(data) < stride*h {
			return nil, fmt.Errorf("%w: frame is %d bytes, want %d", ErrFormat, len(data), stride*h)
		}
		f := NewFrame(w, h)
		row := w * 3
		for y := 0; y < h; y++ {
			src := y
			if r.bottomUp {
				src = h - 1 - y
			}
			copy(f.Pix[y*row:(y+1)*row], data[src*stride:src*stride+row])
		}
		return f, nil
	case CodecMJPEG:
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: decode MJPEG frame: %v", ErrFormat, err)
		}
		if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
			return nil, fmt.Errorf("%w: MJPEG frame is %dx%d, stream is %dx%d", ErrFormat, b.Dx(), b.Dy(), w, h)
		}
		return FrameFromImage(img), nil
	}
	return nil, fmt.Errorf("%w: unsupported codec %q", ErrFormat, r.info.Codec)
}

// ── Header parsing ──

func (r *Reader) parseHeaderList(list *riff.Reader) error {
	var avihFrames uint32
	stream := 0
	found := false

	for {
		id, size, data, err := list.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFormat, err)
		}
		switch id {
		case fourCCAvih:
			buf, err := readChunk(data, size, 56)
			if err != nil {
				return err
			}
			avihFrames = binary.LittleEndian.Uint32(buf[16:20])
		case riff.LIST:
			listType, strl, err := riff.NewListReader(size, data)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrFormat, err)
			}
			if listType != fourCCStrl {
				continue
			}
			if !found {
				ok, err := r.parseStream(strl)
				if err != nil {
					return err
				}
				if ok {
					found = true
					r.stream = [2]byte{'0' + byte(stream/10), '0' + byte(stream%10)}
				}
			}
			stream++
		}
	}

	if !found {
		return fmt.Errorf("%w: no video stream", ErrFormat)
	}
	if avihFrames > 0 {
		r.info.Frames = int(avihFrames)
	}
	return nil
}

// parseStream reads one strl list. It reports false for non-video streams.
func (r *Reader) parseStream(strl *riff.Reader) (bool, error) {
	var info Info
	video := false
	for {
		id, size, data, err := strl.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		switch id {
		case fourCCStrh:
			buf, err := readChunk(data, size, 48)
			if err != nil {
				return false, err
			}
			if riff.FourCC(buf[0:4]) != fourCCVids {
				return false, nil
			}
			video = true
			info.Scale = binary.LittleEndian.Uint32(buf[20:24])
			info.Rate = binary.LittleEndian.Uint32(buf[24:28])
			info.Frames = int(binary.LittleEndian.Uint32(buf[32:36]))
		case fourCCStrf:
			if !video {
				return false, nil
			}
			buf, err := readChunk(data, size, 40)
			if err != nil {
				return false, err
			}
			le := binary.LittleEndian
			width := int32(le.Uint32(buf[4:8]))
			height := int32(le.Uint32(buf[8:12]))
			bitCount := le.Uint16(buf[14:16])
			compression := riff.FourCC(buf[16:20])

			if width <= 0 || height == 0 {
				return false, fmt.Errorf("%w: bad frame size %dx%d", ErrFormat, width, height)
			}
			info.Width = int(width)
			info.Height = int(height)
			r.bottomUp = height > 0
			if height < 0 {
				info.Height = int(-height)
			}

			switch {
			case le.Uint32(buf[16:20]) == biRGB && bitCount == 24:
				info.Codec = CodecRaw
			case compression == fourCCMJPG:
				info.Codec = CodecMJPEG
			default:
				return false, fmt.Errorf("%w: unsupported codec %q at %d bits", ErrFormat, compression[:], bitCount)
			}
		}
	}
	if !video || info.Width == 0 {
		return false, nil
	}
	r.info = info
	return true, nil
}

// readChunk reads a whole chunk and checks it holds at least want bytes.
func readChunk(data io.Reader, size uint32, want int) ([]byte, error) {
	if int(size) < want {
		return nil, fmt.Errorf("%w: chunk is %d bytes, want %d", ErrFormat, size, want)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(data, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return buf, nil
}
