// video.go - AVI cover writer.
// Repeats the cover image for Duration seconds at FPS. Noise covers get a
// fresh frame each time so the clip is not a still.
package generator

import (
	"fmt"
	"image"
	"io"

	"github.com/xob0t/GoHide/pkg/avi"
)

func writeAVI(w io.WriteSeeker, img image.Image, cfg Config) error {
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	totalFrames := max(cfg.Duration, 1) * fps

	b := img.Bounds()
	aw, err := avi.NewWriter(w, avi.Info{
		Width:  b.Dx(),
		Height: b.Dy(),
		Rate:   uint32(fps),
		Scale:  1,
		Codec:  cfg.Codec,
	})
	if err != nil {
		return fmt.Errorf("start AVI: %w", err)
	}

	frame := avi.FrameFromImage(img)
	noise := cfg.Image == nil && cfg.Color == "noise"
	for i := 0; i < totalFrames; i++ {
		if noise && i > 0 {
			next, err := resolveImage(cfg, b.Dx(), b.Dy())
			if err != nil {
				return err
			}
			frame = avi.FrameFromImage(next)
		}
		if err := aw.WriteFrame(frame); err != nil {
			return fmt.Errorf("write frame %d: %w", i, err)
		}
	}
	return aw.Close()
}
