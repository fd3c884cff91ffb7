package objectstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type gcsStore struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   Mode
	emulatorHost  string
	avatarBucket  bucketConfig
	recipeBucket  bucketConfig
	publicBaseURL string
}

func newGCSStore(log *logger.Logger, cfg Config) (Store, error) {
	serviceLog := log.With("service", "GCSStore")

	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg)
	if err != nil {
		return nil, err
	}

	stClient, err := newStorageClientForMode(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"emulator_host", cfg.EmulatorHost,
		"public_base_source", publicBaseSource,
		"public_base_url", publicBaseURL,
		"avatar_bucket", cfg.AvatarBucket,
		"recipe_bucket", cfg.RecipeBucket,
	)

	return &gcsStore{
		log:           serviceLog,
		storageClient: stClient,
		storageMode:   cfg.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"),
		avatarBucket:  bucketConfig{name: cfg.AvatarBucket, cdnDomain: cfg.AvatarCDN},
		recipeBucket:  bucketConfig{name: cfg.RecipeBucket, cdnDomain: cfg.RecipeCDN},
		publicBaseURL: publicBaseURL,
	}, nil
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func newStorageClientForMode(ctx context.Context, cfg Config) (*storage.Client, error) {
	switch cfg.Mode {
	case ModeGCS:
		opts := clientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (gs *gcsStore) getBucketConfig(category Category) (bucketConfig, error) {
	switch category {
	case CategoryAvatar:
		return gs.avatarBucket, nil
	case CategoryRecipe:
		return gs.recipeBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (gs *gcsStore) UploadFile(dbc dbctx.Context, category Category, key string, file io.Reader) error {
	cfg, err := gs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctxOrBackground(dbc.Ctx), 2*time.Minute)
	defer cancel()

	w := gs.storageClient.Bucket(cfg.name).Object(cleanKey(key)).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// DeleteFile treats a missing object as already deleted.
func (gs *gcsStore) DeleteFile(dbc dbctx.Context, category Category, key string) error {
	cfg, err := gs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctxOrBackground(dbc.Ctx), 30*time.Second)
	defer cancel()
	err = gs.storageClient.Bucket(cfg.name).Object(cleanKey(key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, cfg.name, err)
	}
	return nil
}

func (gs *gcsStore) GetPublicURL(category Category, key string) string {
	cfg, err := gs.getBucketConfig(category)
	if err != nil {
		return key
	}
	key = cleanKey(key)
	if cfg.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	}
	if gs.storageMode == ModeGCSEmulator {
		if u := gs.publicEmulatorObjectMediaURL(cfg.name, key); u != "" {
			return u
		}
	}
	if gs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", gs.publicBaseURL, cfg.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
}

func (gs *gcsStore) publicEmulatorObjectMediaURL(bucket, key string) string {
	base := strings.TrimRight(strings.TrimSpace(gs.publicBaseURL), "/")
	if base == "" {
		base = strings.TrimRight(strings.TrimSpace(gs.emulatorHost), "/")
	}
	if base == "" {
		return ""
	}
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		base,
		url.PathEscape(bucket),
		url.PathEscape(key),
	)
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
