package objectstorage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

// LocalStore writes objects under a directory that the HTTP server exposes
// at /media/.
type LocalStore struct {
	log     *logger.Logger
	root    string
	baseURL string
}

func NewLocalStore(log *logger.Logger, root, baseURL string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local object storage requires a media directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{
		log:     log.With("service", "LocalStore"),
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (ls *LocalStore) Root() string { return ls.root }

func (ls *LocalStore) path(category Category, key string) (string, error) {
	rel := filepath.Clean(filepath.Join(string(category), filepath.FromSlash(cleanKey(key))))
	if !strings.HasPrefix(rel, string(category)+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(ls.root, rel), nil
}

func (ls *LocalStore) UploadFile(dbc dbctx.Context, category Category, key string, file io.Reader) error {
	p, err := ls.path(category, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp := p + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}
	if _, err := io.Copy(f, file); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write object file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close object file: %w", err)
	}
	return os.Rename(tmp, p)
}

func (ls *LocalStore) DeleteFile(dbc dbctx.Context, category Category, key string) error {
	p, err := ls.path(category, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object file: %w", err)
	}
	return nil
}

func (ls *LocalStore) GetPublicURL(category Category, key string) string {
	return fmt.Sprintf("%s/media/%s/%s", ls.baseURL, category, cleanKey(key))
}
