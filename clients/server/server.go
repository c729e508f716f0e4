// Package server provides the GoHide HTTP upload API.
//
// Clients post a carrier as multipart form data and get back either the
// stego file as an attachment or the revealed text as JSON. Uploads live in a
// private temp directory and are removed when the request ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xob0t/GoHide/pkg/stego"
)

// DefaultMaxUpload bounds request bodies when Options.MaxUploadBytes is zero.
const DefaultMaxUpload = 200 << 20

// Options configures a Server.
type Options struct {
	Logger         *zap.Logger
	MaxUploadBytes int64
	TempDir        string // parent of the per-server upload directory
	Order          stego.ScanOrder
	// Registry receives the server metrics. A private registry is used when nil.
	Registry *prometheus.Registry
}

// Server handles stego requests. It is safe for concurrent use.
type Server struct {
	opts    Options
	log     *zap.Logger
	tmpDir  string
	router  *gin.Engine
	metrics *metrics
}

// New creates a server and its upload directory. Call Close to remove it.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUpload
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
		opts.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	tmpDir, err := os.MkdirTemp(opts.TempDir, "gohide-serve-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	s := &Server{
		opts:    opts,
		log:     opts.Logger.With(zap.String("module", "api")),
		tmpDir:  tmpDir,
		metrics: newMetrics(opts.Registry),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.metrics.middleware(), s.limitBody())

	api := r.Group("/api")
	api.POST("/stego", s.handleStego)
	api.POST("/stego-process", s.handleStego)
	api.POST("/capacity", s.handleCapacity)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})))
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Close removes the upload directory.
func (s *Server) Close() error {
	return os.RemoveAll(s.tmpDir)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}
