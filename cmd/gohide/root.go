package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xob0t/GoHide/internal/config"
	"github.com/xob0t/GoHide/internal/logging"
	"github.com/xob0t/GoHide/pkg/stego"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	ConfigPath string
	LogLevel   string
	Order      string
	Quiet      bool
}

// app is the state built once the root command has parsed its flags.
type app struct {
	flags globalFlags
	cfg   config.Config
	log   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "gohide",
		Short: "Hide text in images, audio and video",
		Long: `GoHide embeds a text message in the least significant bits of a carrier
file and recovers it again.

Carriers:
  image  .png .bmp .tif .tiff (input may also be .jpg .gif .webp)
  audio  .wav (PCM)
  video  .avi (raw or MJPEG input, raw output)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.ConfigPath, "config", "", "Path to a JSON config file")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.flags.Order, "order", "", "Scan order: row or column (default from config)")
	pf.BoolVarP(&a.flags.Quiet, "quiet", "q", false, "Only print results")

	root.AddCommand(
		newHideCmd(a),
		newRevealCmd(a),
		newCapacityCmd(a),
		newCoverCmd(a),
		newServeCmd(a),
	)
	return root
}

// execute runs cmd and puts pterm's output switch back the way it was, so
// --quiet does not outlive the command and errors are always printed.
func execute(ctx context.Context, cmd *cobra.Command) error {
	enabled := pterm.Output
	defer func() {
		if enabled {
			pterm.EnableOutput()
		} else {
			pterm.DisableOutput()
		}
	}()
	return cmd.ExecuteContext(ctx)
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup() error {
	if a.flags.Quiet {
		pterm.DisableOutput()
	}

	cfg, err := config.Load(a.flags.ConfigPath)
	if err != nil {
		return err
	}
	if a.flags.LogLevel != "" {
		cfg.Log.Level = a.flags.LogLevel
	}
	if a.flags.Order != "" {
		cfg.Stego.ScanOrder = a.flags.Order
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.cfg = cfg
	a.log = logger
	return nil
}

func (a *app) stegoOptions() stego.Options {
	return stego.Options{Order: a.cfg.ScanOrder(), Logger: a.log}
}

// mediaFor resolves --type, falling back to the file extension.
func mediaFor(typ, path string) (stego.Media, error) {
	if typ != "" {
		return stego.ParseMedia(typ)
	}
	return stego.DetectMedia(path)
}

func banner() {
	pterm.DefaultHeader.WithFullWidth().
		WithBackgroundStyle(pterm.NewStyle(pterm.BgDarkGray)).
		Println("GoHide - LSB steganography")
}
