// video.go - LSB embedding across the frames of an AVI video.
// Frames are visited in stream order and the payload runs on from one frame
// into the next. Output is always uncompressed so the embedded bits survive.
package stego

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/xob0t/GoHide/pkg/avi"
	"github.com/xob0t/GoHide/pkg/bitcodec"
	"github.com/xob0t/GoHide/pkg/stegerr"
)

// FrameSource yields decoded frames in display order and io.EOF at the end.
// *avi.Reader implements it.
type FrameSource interface {
	Info() avi.Info
	Next() (*avi.Frame, error)
}

// FrameSink accepts frames in display order. *avi.Writer implements it.
type FrameSink interface {
	WriteFrame(*avi.Frame) error
}

var (
	_ FrameSource = (*avi.Reader)(nil)
	_ FrameSink   = (*avi.Writer)(nil)
)

// VideoStats describes a finished embedding pass.
type VideoStats struct {
	Frames         int // frames copied to the sink
	EmbeddedFrames int // frames that received payload bits
	Bits           int
}

// VideoCapacity returns the number of bits a stream described by info can
// carry, based on its declared frame count.
func VideoCapacity(info avi.Info) int {
	return info.Frames * info.Width * info.Height * 3
}

// EncodeVideo copies every frame of src to dst with text hidden in the first
// frames. The capacity check uses src's declared frame count; if src ends
// before the payload is written the result is a CapacityExceeded error.
func EncodeVideo(ctx context.Context, src FrameSource, dst FrameSink, text string, opts Options) (VideoStats, error) {
	return encodeVideo(ctx, "hide video", stegerr.Buffer, src, dst, text, opts)
}

func encodeVideo(ctx context.Context, op, target string, src FrameSource, dst FrameSink, text string, opts Options) (VideoStats, error) {
	info := src.Info()
	bits, err := payloadBits(op, target, text, VideoCapacity(info))
	if err != nil {
		return VideoStats{}, err
	}
	log := opts.log().With(zap.String("target", target))

	var stats VideoStats
	for {
		if err := ctx.Err(); err != nil {
			return stats, stegerr.Wrap(stegerr.KindCanceled, op, target, err, "stopped after %d frames", stats.Frames)
		}
		f, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, frameErr(op, target, err)
		}
		if stats.Bits < len(bits) {
			n := embedUnits(f.Pix, f.Width, f.Height, opts.Order, bits[stats.Bits:])
			stats.Bits += n
			stats.EmbeddedFrames++
			log.Debug("frame embedded", zap.Int("frame", stats.Frames), zap.Int("bits", n))
		}
		if err := dst.WriteFrame(f); err != nil {
			return stats, stegerr.Wrap(stegerr.KindIO, op, target, err, "write frame %d", stats.Frames)
		}
		stats.Frames++
	}

	if stats.Bits < len(bits) {
		return stats, stegerr.New(stegerr.KindCapacityExceeded, op, target,
			"stream ended after %d of %d declared frames with %d payload bits left",
			stats.Frames, info.Frames, len(bits)-stats.Bits)
	}
	log.Debug("payload embedded in video",
		zap.Int("frames", stats.Frames),
		zap.Int("embedded_frames", stats.EmbeddedFrames),
		zap.Int("bits", stats.Bits))
	return stats, nil
}

// DecodeVideo reads frames from src until the terminator is found or the
// stream ends. Frames after the terminator are never requested.
func DecodeVideo(ctx context.Context, src FrameSource, opts Options) (string, bool, error) {
	return decodeVideo(ctx, "reveal video", stegerr.Buffer, src, opts)
}

func decodeVideo(ctx context.Context, op, target string, src FrameSource, opts Options) (string, bool, error) {
	var s bitcodec.Scanner
	for frame := 0; ; frame++ {
		if err := ctx.Err(); err != nil {
			return "", false, stegerr.Wrap(stegerr.KindCanceled, op, target, err, "stopped after %d frames", frame)
		}
		f, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false, frameErr(op, target, err)
		}
		for k := range f.Pix {
			if s.WriteBit(bitcodec.LSB(f.Pix[opts.Order.offset(k, f.Width, f.Height)])) {
				opts.log().Debug("terminator found", zap.String("target", target), zap.Int("frame", frame))
				return s.Text(), true, nil
			}
		}
	}
	return s.Text(), false, nil
}

func frameErr(op, target string, err error) error {
	if errors.Is(err, avi.ErrFormat) {
		return stegerr.Wrap(stegerr.KindInvalidFormat, op, target, err, "decode frame")
	}
	return stegerr.Wrap(stegerr.KindIO, op, target, err, "read frame")
}

// ── Files ──

// EncodeVideoFile hides text in the AVI at in and writes an uncompressed AVI
// to out. out is removed if anything fails after it was created.
func EncodeVideoFile(ctx context.Context, in, out, text string, opts Options) (VideoStats, error) {
	const op = "hide video"
	fh, src, err := openVideo(op, in)
	if err != nil {
		return VideoStats{}, err
	}
	defer fh.Close()

	info := src.Info()
	// Fail before creating anything when the payload cannot fit.
	if _, err := payloadBits(op, in, text, VideoCapacity(info)); err != nil {
		return VideoStats{}, err
	}

	dst, err := os.Create(out)
	if err != nil {
		return VideoStats{}, stegerr.Wrap(stegerr.KindIO, op, out, err, "create output")
	}
	fail := func(err error) (VideoStats, error) {
		dst.Close()
		os.Remove(out)
		return VideoStats{}, err
	}

	aw, err := avi.NewWriter(dst, avi.Info{
		Width:  info.Width,
		Height: info.Height,
		Rate:   info.Rate,
		Scale:  info.Scale,
		Codec:  avi.CodecRaw,
	})
	if err != nil {
		return fail(stegerr.Wrap(stegerr.KindIO, op, out, err, "start output"))
	}
	stats, err := encodeVideo(ctx, op, in, src, aw, text, opts)
	if err != nil {
		return fail(err)
	}
	if err := aw.Close(); err != nil {
		return fail(stegerr.Wrap(stegerr.KindIO, op, out, err, "finish output"))
	}
	if err := dst.Close(); err != nil {
		os.Remove(out)
		return VideoStats{}, stegerr.Wrap(stegerr.KindIO, op, out, err, "close output")
	}

	opts.log().Debug("payload hidden",
		zap.String("media", string(MediaVideo)),
		zap.String("in", in),
		zap.String("out", out),
		zap.Int("frames", stats.Frames),
		zap.Int("embedded_frames", stats.EmbeddedFrames))
	return stats, nil
}

// DecodeVideoFile reveals the text hidden in the AVI at in.
func DecodeVideoFile(ctx context.Context, in string, opts Options) (string, bool, error) {
	const op = "reveal video"
	fh, src, err := openVideo(op, in)
	if err != nil {
		return "", false, err
	}
	defer fh.Close()
	return decodeVideo(ctx, op, in, src, opts)
}

func openVideo(op, path string) (*os.File, *avi.Reader, error) {
	fh, err := openInput(op, path)
	if err != nil {
		return nil, nil, err
	}
	src, err := avi.NewReader(bufio.NewReaderSize(fh, 1<<20))
	if err != nil {
		fh.Close()
		return nil, nil, containerErr(op, path, err, avi.ErrFormat)
	}
	return fh, src, nil
}

func videoCapacityFile(path string) (int, error) {
	fh, src, err := openVideo("video capacity", path)
	if err != nil {
		return 0, err
	}
	defer fh.Close()
	return VideoCapacity(src.Info()), nil
}
