package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xob0t/GoHide/clients/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr      string
		maxUpload int
		tempDir   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP upload API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("max-upload-mb") {
				cfg.Server.MaxUploadMB = maxUpload
			}
			if cmd.Flags().Changed("temp-dir") {
				cfg.Server.TempDir = tempDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			srv, err := server.New(server.Options{
				Logger:         a.log,
				MaxUploadBytes: cfg.MaxUploadBytes(),
				TempDir:        cfg.Server.TempDir,
				Order:          cfg.ScanOrder(),
			})
			if err != nil {
				return err
			}
			defer srv.Close()

			banner()
			pterm.Info.Printfln("Listening on %s (scan order %s)", cfg.Server.Addr, cfg.ScanOrder())
			if err := srv.Run(cmd.Context(), cfg.Server.Addr); err != nil {
				return err
			}
			pterm.Success.Println("Server stopped")
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	fl.IntVar(&maxUpload, "max-upload-mb", 0, "Upload size limit in megabytes")
	fl.StringVar(&tempDir, "temp-dir", "", "Directory for temporary uploads")
	return cmd
}
