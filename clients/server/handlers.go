// handlers.go - Upload handlers and request middleware.
package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xob0t/GoHide/pkg/stegerr"
	"github.com/xob0t/GoHide/pkg/stego"
)

// defaultExt is used when output_name has no extension.
var defaultExt = map[stego.Media]string{
	stego.MediaImage: ".png",
	stego.MediaAudio: ".wav",
	stego.MediaVideo: ".avi",
}

// handleStego runs encode or decode on an uploaded carrier.
//
// Form fields: file, type (image|audio|video, inferred from the file name
// when empty), action (encode|decode), message and output_name (encode only).
func (s *Server) handleStego(c *gin.Context) {
	header, media, ok := s.upload(c)
	if !ok {
		return
	}

	action := c.PostForm("action")
	// An empty message is a valid payload; only a missing field is rejected.
	message, hasMessage := c.GetPostForm("message")
	if action == "encode" && !hasMessage {
		badRequest(c, "message is required for encode")
		return
	}
	if action != "encode" && action != "decode" {
		badRequest(c, "Invalid action")
		return
	}

	in, cleanup, err := s.saveUpload(c, header)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer cleanup()

	opts := stego.Options{Order: s.opts.Order, Logger: s.log}
	ctx := c.Request.Context()
	start := time.Now()

	if action == "decode" {
		text, found, err := stego.RevealFile(ctx, media, in, opts)
		s.metrics.observe(string(media), action, result(err), start)
		if err != nil {
			s.fail(c, err)
			return
		}
		msg := "Message revealed."
		if !found {
			msg = "No hidden message found."
			text = ""
		}
		c.JSON(http.StatusOK, gin.H{
			"status":       "success",
			"message":      msg,
			"found":        found,
			"decoded_text": text,
		})
		return
	}

	name := outputName(c.PostForm("output_name"), media, header.Filename)
	out := filepath.Join(s.tmpDir, uuid.NewString()+filepath.Ext(name))
	defer s.remove(out)

	err = stego.HideFile(ctx, media, in, out, message, opts)
	s.metrics.observe(string(media), action, result(err), start)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.payload.Observe(float64(len([]rune(message))))
	c.FileAttachment(out, name)
}

// handleCapacity reports how many characters an uploaded carrier can hold.
func (s *Server) handleCapacity(c *gin.Context) {
	header, media, ok := s.upload(c)
	if !ok {
		return
	}
	in, cleanup, err := s.saveUpload(c, header)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer cleanup()

	start := time.Now()
	capacity, err := stego.CapacityFile(media, in)
	s.metrics.observe(string(media), "capacity", result(err), start)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"media":     capacity.Media,
		"bits":      capacity.Bits,
		"max_chars": capacity.MaxChars,
	})
}

// upload validates the file and type fields. It writes the error response
// itself and reports false on failure.
func (s *Server) upload(c *gin.Context) (*multipart.FileHeader, stego.Media, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"status":  "error",
				"message": fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes),
			})
			return nil, "", false
		}
		badRequest(c, "No file part")
		return nil, "", false
	}
	if header.Filename == "" {
		badRequest(c, "No selected file")
		return nil, "", false
	}

	var media stego.Media
	if t := c.PostForm("type"); t != "" {
		media, err = stego.ParseMedia(t)
	} else {
		media, err = stego.DetectMedia(header.Filename)
	}
	if err != nil {
		s.fail(c, err)
		return nil, "", false
	}
	return header, media, true
}

// saveUpload stores the uploaded file under a random name that keeps the
// original extension.
func (s *Server) saveUpload(c *gin.Context, header *multipart.FileHeader) (string, func(), error) {
	path := filepath.Join(s.tmpDir, uuid.NewString()+strings.ToLower(filepath.Ext(header.Filename)))
	if err := c.SaveUploadedFile(header, path); err != nil {
		return "", nil, stegerr.Wrap(stegerr.KindIO, "save upload", header.Filename, err, "store upload")
	}
	return path, func() { s.remove(path) }, nil
}

// outputName picks the attachment name for an encode result.
func outputName(requested string, media stego.Media, uploaded string) string {
	name := filepath.Base(strings.ReplaceAll(requested, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		base := strings.TrimSuffix(filepath.Base(uploaded), filepath.Ext(uploaded))
		name = base + "_stego"
	}
	if filepath.Ext(name) == "" {
		name += defaultExt[media]
	}
	return name
}

// fail writes a JSON error whose status follows the error kind.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{
		"status":  "error",
		"kind":    string(stegerr.KindOf(err)),
		"message": err.Error(),
	})
}

func statusFor(err error) int {
	switch stegerr.KindOf(err) {
	case stegerr.KindInvalidFormat, stegerr.KindEncoding:
		return http.StatusBadRequest
	case stegerr.KindCapacityExceeded:
		return http.StatusUnprocessableEntity
	case stegerr.KindNotFound:
		return http.StatusNotFound
	case stegerr.KindCanceled:
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := stegerr.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func (s *Server) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("remove temp file", zap.String("path", path), zap.Error(err))
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msg})
}

// ── Middleware ──

// requestLogger tags each request with an ID and logs it when done.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)

		c.Next()

		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.Int("response_size", c.Writer.Size()),
		)
	}
}

// limitBody caps request bodies at MaxUploadBytes.
func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
		c.Next()
	}
}
