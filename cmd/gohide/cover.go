package main

import (
	"fmt"
	"image"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xob0t/GoHide/pkg/avi"
	"github.com/xob0t/GoHide/pkg/generator"
)

func newCoverCmd(a *app) *cobra.Command {
	var (
		out   string
		from  string
		codec string
		cfg   generator.Config
	)
	cmd := &cobra.Command{
		Use:   "cover",
		Short: "Generate a cover file to hide messages in",
		Long: `Generate a carrier. The format follows the output extension:
  .png .bmp .tif .tiff  still image
  .avi                  video (raw frames unless --codec mjpg)
  .wav                  PCM sine tone`,
		Example: `  gohide cover -o cover.png --color noise
  gohide cover -o clip.avi --duration 3 --text "hello"
  gohide cover -o tone.wav --duration 2 --bit-depth 24`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch avi.Codec(codec) {
			case avi.CodecRaw, avi.CodecMJPEG:
				cfg.Codec = avi.Codec(codec)
			default:
				return fmt.Errorf("unknown codec %q (want raw or mjpg)", codec)
			}
			if from != "" {
				img, err := loadImage(from)
				if err != nil {
					return err
				}
				cfg.Image = img
			}

			if err := generator.Generate(out, cfg); err != nil {
				return err
			}
			a.log.Info("cover generated", zap.String("out", out))
			pterm.Success.Printfln("Cover written to %s", out)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&out, "out", "o", "", "Output file")
	fl.StringVar(&from, "from", "", "Use this image instead of a generated background")
	fl.IntVar(&cfg.Width, "width", 0, "Width in pixels (default 1280, 320 for video)")
	fl.IntVar(&cfg.Height, "height", 0, "Height in pixels (default 720, 240 for video)")
	fl.IntVar(&cfg.Duration, "duration", 1, "Duration in seconds (video and audio)")
	fl.StringVar(&cfg.Color, "color", "random", "Background: hex, 'random' or 'noise'")
	fl.StringVar(&cfg.Text, "text", "", "Caption drawn near the bottom edge")
	fl.StringVar(&cfg.TextColor, "text-color", "", "Caption colour, hex (default white)")
	fl.IntVar(&cfg.FPS, "fps", generator.DefaultFPS, "Video frame rate")
	fl.StringVar(&codec, "codec", string(avi.CodecRaw), "Video codec: raw or mjpg")
	fl.IntVar(&cfg.SampleRate, "sample-rate", generator.DefaultSampleRate, "Audio sample rate in Hz")
	fl.IntVar(&cfg.Channels, "channels", 1, "Audio channels")
	fl.IntVar(&cfg.BitDepth, "bit-depth", 16, "Audio bits per sample: 8, 16, 24 or 32")
	fl.Float64Var(&cfg.Tone, "tone", generator.DefaultTone, "Audio tone frequency in Hz")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
