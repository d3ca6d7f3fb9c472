package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/config"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Photos are stored as portrait JPEGs sized for the ID card.
const (
	photoWidth   = 300
	photoHeight  = 400
	photoQuality = 85
)

// Allowed image MIME types, detected from content rather than the client header.
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

type avatarUpdater interface {
	UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error
}

// MediaService handles photo uploads.
type MediaService struct {
	cfg   *config.Config
	users avatarUpdater
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, users avatarUpdater) *MediaService {
	return &MediaService{cfg: cfg, users: users}
}

// NormalizePhoto decodes a JPEG or PNG, applies EXIF orientation and crops it
// to the card photo size. The result is JPEG encoded.
func NormalizePhoto(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFileType, err)
	}
	photo := imaging.Fill(img, photoWidth, photoHeight, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, photo, imaging.JPEG, imaging.JPEGQuality(photoQuality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

// SavePhoto normalises an uploaded photo, stores it under a UUID filename and
// sets it as the user's avatar. Returns the relative URL path.
func (s *MediaService) SavePhoto(ctx context.Context, userID uuid.UUID, file io.Reader, size int64) (string, error) {
	if size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, size, s.cfg.MaxUploadBytes)
	}

	raw, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}

	contentType := http.DetectContentType(raw)
	if !allowedMIMETypes[contentType] {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(), ", "))
	}

	photo, err := NormalizePhoto(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	filename := uuid.New().String() + ".jpg"
	if err := os.WriteFile(filepath.Join(s.cfg.UploadDir, filename), photo, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	url := "/uploads/" + filename
	if err := s.users.UpdateAvatar(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	return types
}
