package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageBytes caps a decoded image payload.
	MaxImageBytes = 10 << 20
	// MaxImagePixels caps width*height so a small compressed payload cannot
	// expand into a huge bitmap.
	MaxImagePixels = 40_000_000
)

var ErrInvalidImage = errors.New("invalid image payload")

// ImagePayload is a decoded base64 image ready for upload.
type ImagePayload struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Ext returns the file extension for the detected format, including the dot.
func (p *ImagePayload) Ext() string {
	switch p.Format {
	case "jpeg":
		return ".jpg"
	case "":
		return ""
	default:
		return "." + p.Format
	}
}

// NewObjectKey returns a fresh key under prefix with the payload's extension.
func (p *ImagePayload) NewObjectKey(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return uuid.NewString() + p.Ext()
	}
	return prefix + "/" + uuid.NewString() + p.Ext()
}

// DecodeImagePayload accepts a data URI ("data:image/png;base64,...") or a bare
// base64 string and checks that the bytes decode as a supported image.
func DecodeImagePayload(raw string) (*ImagePayload, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	if strings.HasPrefix(s, "data:") {
		comma := strings.Index(s, ",")
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data uri", ErrInvalidImage)
		}
		meta := s[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("%w: data uri is not base64", ErrInvalidImage)
		}
		s = s[comma+1:]
	}
	if base64.StdEncoding.DecodedLen(len(s)) > MaxImageBytes+3 {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	cfg, format, err := checkImageConfig(data)
	if err != nil {
		return nil, err
	}
	return &ImagePayload{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// checkImageConfig reads only the image header and rejects empty or
// oversized dimensions before anything decodes the pixels.
func checkImageConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return cfg, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, "", fmt.Errorf("%w: empty dimensions", ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return cfg, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, MaxImagePixels)
	}
	return cfg, format, nil
}
