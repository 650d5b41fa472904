package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"github.com/riocapital/blog-api/internal/config"
	"github.com/riocapital/blog-api/internal/metrics"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	defaultMaxDimension = 2048
	defaultWebPQuality  = 80
	defaultMaxUpload    = 10 << 20

	// decoded pixel budget, checked from the header before decoding
	maxImagePixels = 40_000_000
)

// uploadService is the concrete implementation of UploadService
type uploadService struct {
	cfg config.UploadConfig
	log zerolog.Logger
}

// newUploadService creates a new UploadService
func newUploadService(cfg config.UploadConfig, log zerolog.Logger) *uploadService {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUpload
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = defaultMaxDimension
	}
	if cfg.WebPQuality <= 0 || cfg.WebPQuality > 100 {
		cfg.WebPQuality = defaultWebPQuality
	}
	return &uploadService{
		cfg: cfg,
		log: log.With().Str("service", "uploads").Logger(),
	}
}

// MaxUploadSize returns the largest accepted upload in bytes
func (s *uploadService) MaxUploadSize() int64 {
	return s.cfg.MaxUploadSize
}

// SaveImage decodes an uploaded image, shrinks it to fit the configured
// bounds, re-encodes it as WebP and stores it under a random name
func (s *uploadService) SaveImage(ctx context.Context, r io.Reader) (*models.UploadResult, error) {
	content, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadSize+1))
	if err != nil {
		return nil, models.NewValidationError("failed to read upload")
	}
	if len(content) == 0 {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("no file uploaded")
	}
	if int64(len(content)) > s.cfg.MaxUploadSize {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError(fmt.Sprintf("file too large (max %dMB)", s.cfg.MaxUploadSize/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("invalid image type, allowed: jpeg, png, gif, webp")
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("invalid image file")
	}
	if header.Width <= 0 || header.Height <= 0 || int64(header.Width)*int64(header.Height) > maxImagePixels {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError(fmt.Sprintf("image dimensions too large (%dx%d)", header.Width, header.Height))
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("invalid image file")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resized := resizeToFit(decoded, s.cfg.MaxDimension, s.cfg.MaxDimension)
	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: float32(s.cfg.WebPQuality)}); err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(fmt.Errorf("encode webp: %w", err))
	}

	filename := uuid.New().String() + ".webp"
	if err := os.MkdirAll(s.cfg.Dir, 0o750); err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}
	if err := os.WriteFile(filepath.Join(s.cfg.Dir, filename), buf.Bytes(), 0o644); err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}
	metrics.Uploads.WithLabelValues("stored").Inc()

	b := resized.Bounds()
	s.log.Info().
		Str("filename", filename).
		Str("source_format", format).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("size", buf.Len()).
		Msg("Image stored")

	return &models.UploadResult{
		URL:      path.Join(s.cfg.PublicPrefix, filename),
		Filename: filename,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Size:     int64(buf.Len()),
	}, nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// resizeToFit scales src down to fit within maxWidth x maxHeight, keeping
// the aspect ratio. Smaller images are returned unchanged.
func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if sh := float64(maxHeight) / float64(h); sh < scale {
		scale = sh
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
