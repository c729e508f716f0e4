// Package config loads the optional JSON configuration shared by the CLI and
// the server. Values in the file are merged over Default; command-line flags
// are applied on top by the caller.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/xob0t/GoHide/internal/logging"
	"github.com/xob0t/GoHide/pkg/stego"
)

// Config is the root of the configuration file.
type Config struct {
	Log    logging.Options `json:"log"`
	Server Server          `json:"server"`
	Stego  Stego           `json:"stego"`
}

// Server configures the HTTP upload API.
type Server struct {
	Addr        string `json:"addr"`
	MaxUploadMB int    `json:"max_upload_mb"`
	TempDir     string `json:"temp_dir"` // empty: os.TempDir()
}

// Stego configures the carrier adapters.
type Stego struct {
	ScanOrder string `json:"scan_order"` // "row" or "column"
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: logging.Defaults(),
		Server: Server{
			Addr:        ":8080",
			MaxUploadMB: 200,
		},
		Stego: Stego{ScanOrder: "row"},
	}
}

// Load reads the file at path over Default and validates the result. An empty
// path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB))
	}
	if c.Server.TempDir != "" {
		if fi, err := os.Stat(c.Server.TempDir); err != nil || !fi.IsDir() {
			errs = append(errs, fmt.Errorf("server.temp_dir %q is not a directory", c.Server.TempDir))
		}
	}
	if _, err := stego.ParseScanOrder(c.Stego.ScanOrder); err != nil {
		errs = append(errs, fmt.Errorf("stego.scan_order: %w", err))
	}
	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		errs = append(errs, errors.New("log rotation values must not be negative"))
	}
	return errors.Join(errs...)
}

// ScanOrder returns the parsed stego.scan_order.
func (c Config) ScanOrder() stego.ScanOrder {
	order, err := stego.ParseScanOrder(c.Stego.ScanOrder)
	if err != nil {
		return stego.RowMajor
	}
	return order
}

// MaxUploadBytes returns the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}
