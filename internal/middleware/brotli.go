package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig configures response compression.
type BrotliConfig struct {
	Quality   int
	Skipper   func(c *gin.Context) bool
	MinLength int
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
	Skipper:   nil,
}

// Already-compressed payloads gain nothing from brotli.
var incompressibleTypes = []string{
	"image/",
	"application/zip",
	"application/vnd.openxmlformats-officedocument",
}

type brotliMode int

const (
	modeUndecided brotliMode = iota
	modeCompress
	modePassthrough
)

// brotliWriter buffers the first MinLength bytes to decide whether the body
// is worth compressing. Once decided, the mode is fixed for the response.
type brotliWriter struct {
	gin.ResponseWriter
	writer    *brotli.Writer
	quality   int
	buf       []byte
	minLength int
	mode      brotliMode
}

func (bw *brotliWriter) decide(compress bool) error {
	if compress && !isIncompressible(bw.ResponseWriter.Header().Get("Content-Type")) {
		bw.mode = modeCompress
		bw.ResponseWriter.Header().Set("Content-Encoding", "br")
		bw.ResponseWriter.Header().Del("Content-Length")
		bw.writer = brotli.NewWriterLevel(bw.ResponseWriter, bw.quality)
		_, err := bw.writer.Write(bw.buf)
		bw.buf = nil
		return err
	}
	bw.mode = modePassthrough
	_, err := bw.ResponseWriter.Write(bw.buf)
	bw.buf = nil
	return err
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	switch bw.mode {
	case modeCompress:
		return bw.writer.Write(data)
	case modePassthrough:
		return bw.ResponseWriter.Write(data)
	}

	bw.buf = append(bw.buf, data...)
	if len(bw.buf) >= bw.minLength {
		if err := bw.decide(true); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Flush is called by streaming endpoints. An undecided body is sent uncompressed.
func (bw *brotliWriter) Flush() {
	switch bw.mode {
	case modeUndecided:
		_ = bw.decide(false)
	case modeCompress:
		_ = bw.writer.Flush()
	}
	bw.ResponseWriter.Flush()
}

func (bw *brotliWriter) finish() error {
	switch bw.mode {
	case modeUndecided:
		return bw.decide(false)
	case modeCompress:
		return bw.writer.Close()
	}
	return nil
}

// Brotli compresses responses for clients that accept br.
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if shouldSkip(c) || (cfg.Skipper != nil && cfg.Skipper(c)) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			quality:        cfg.Quality,
			minLength:      cfg.MinLength,
		}

		defer func() {
			if err := bw.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Writer = bw
		c.Next()
	}
}

// shouldSkip returns true for protocols that are incompatible with
// buffered compression and must be passed through untouched.
func shouldSkip(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	return false
}

func isIncompressible(contentType string) bool {
	for _, prefix := range incompressibleTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

func acceptsBrotli(r *http.Request) bool {
	ae := r.Header.Get("Accept-Encoding")
	for _, enc := range strings.Split(ae, ",") {
		enc = strings.TrimSpace(strings.ToLower(enc))
		if i := strings.IndexByte(enc, ';'); i >= 0 {
			enc = strings.TrimSpace(enc[:i])
		}
		if enc == "br" {
			return true
		}
	}
	return false
}
