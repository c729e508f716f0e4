package main

import (
	"errors"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xob0t/GoHide/pkg/stego"
)

type hideFlags struct {
	In          string
	Out         string
	Message     string
	MessageFile string
	Type        string
}

func newHideCmd(a *app) *cobra.Command {
	var f hideFlags
	cmd := &cobra.Command{
		Use:   "hide",
		Short: "Hide a message in a carrier file",
		Example: `  gohide hide -i cover.png -o secret.png -m "meet at dawn"
  gohide hide -i tone.wav -o secret.wav --message-file note.txt
  gohide hide -i clip.avi -o secret.avi -m hi --order column`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := f.message(cmd)
			if err != nil {
				return err
			}
			media, err := mediaFor(f.Type, f.In)
			if err != nil {
				return err
			}
			opts := a.stegoOptions()

			if media == stego.MediaVideo {
				stats, err := stego.EncodeVideoFile(cmd.Context(), f.In, f.Out, message, opts)
				if err != nil {
					return err
				}
				a.log.Info("message hidden",
					zap.String("in", f.In), zap.String("out", f.Out),
					zap.Int("frames", stats.Frames), zap.Int("bits", stats.Bits))
				pterm.Success.Printfln("Message hidden in %s (%d bits across %d of %d frames)",
					f.Out, stats.Bits, stats.EmbeddedFrames, stats.Frames)
				return nil
			}

			if err := stego.HideFile(cmd.Context(), media, f.In, f.Out, message, opts); err != nil {
				return err
			}
			a.log.Info("message hidden",
				zap.String("in", f.In), zap.String("out", f.Out), zap.String("media", string(media)))
			pterm.Success.Printfln("Message hidden in %s", f.Out)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.In, "in", "i", "", "Carrier file")
	fl.StringVarP(&f.Out, "out", "o", "", "Output file")
	fl.StringVarP(&f.Message, "message", "m", "", "Text to hide")
	fl.StringVar(&f.MessageFile, "message-file", "", "Read the text to hide from a file")
	fl.StringVarP(&f.Type, "type", "t", "", "Carrier type: image, audio or video (default from extension)")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	cmd.MarkFlagsMutuallyExclusive("message", "message-file")
	return cmd
}

// message returns the payload from --message or --message-file. One
// trailing line break is dropped from file input.
func (f hideFlags) message(cmd *cobra.Command) (string, error) {
	if f.MessageFile != "" {
		data, err := os.ReadFile(f.MessageFile)
		if err != nil {
			return "", err
		}
		s := strings.TrimSuffix(string(data), "\n")
		return strings.TrimSuffix(s, "\r"), nil
	}
	if !cmd.Flags().Changed("message") {
		return "", errors.New("one of --message or --message-file is required")
	}
	return f.Message, nil
}
