package objectstorage

import (
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type Category string

const (
	CategoryAvatar Category = "avatar"
	CategoryRecipe Category = "recipe"
)

type Store interface {
	UploadFile(dbc dbctx.Context, category Category, key string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category Category, key string) error
	GetPublicURL(category Category, key string) string
}

type bucketConfig struct {
	name      string
	cdnDomain string
}

// New builds the Store selected by cfg.Mode.
func New(log *logger.Logger, cfg Config) (Store, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	switch cfg.Mode {
	case ModeGCS, ModeGCSEmulator:
		return newGCSStore(log, cfg)
	case ModeS3:
		return newS3Store(log, cfg)
	default:
		return NewLocalStore(log, cfg.MediaDir, cfg.MediaBaseURL)
	}
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	default:
		return ""
	}
}

func cleanKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}
