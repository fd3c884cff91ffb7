package objectstorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

// s3Store talks to AWS S3 or any S3-compatible endpoint (MinIO, Spaces).
type s3Store struct {
	log           *logger.Logger
	client        *s3.Client
	region        string
	endpoint      string
	avatarBucket  bucketConfig
	recipeBucket  bucketConfig
	publicBaseURL string
}

func newS3Store(log *logger.Logger, cfg Config) (Store, error) {
	serviceLog := log.With("service", "S3Store")

	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		config.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	endpoint := strings.TrimRight(cfg.S3Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"endpoint", endpoint,
		"region", cfg.S3Region,
		"public_base_source", publicBaseSource,
		"avatar_bucket", cfg.AvatarBucket,
		"recipe_bucket", cfg.RecipeBucket,
	)

	return &s3Store{
		log:           serviceLog,
		client:        client,
		region:        cfg.S3Region,
		endpoint:      endpoint,
		avatarBucket:  bucketConfig{name: cfg.AvatarBucket, cdnDomain: cfg.AvatarCDN},
		recipeBucket:  bucketConfig{name: cfg.RecipeBucket, cdnDomain: cfg.RecipeCDN},
		publicBaseURL: publicBaseURL,
	}, nil
}

func (s *s3Store) getBucketConfig(category Category) (bucketConfig, error) {
	switch category {
	case CategoryAvatar:
		return s.avatarBucket, nil
	case CategoryRecipe:
		return s.recipeBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (s *s3Store) UploadFile(dbc dbctx.Context, category Category, key string, file io.Reader) error {
	cfg, err := s.getBucketConfig(category)
	if err != nil {
		return err
	}
	// PutObject needs a seekable body to sign the payload.
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctxOrBackground(dbc.Ctx), 2*time.Minute)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:       aws.String(cfg.name),
		Key:          aws.String(cleanKey(key)),
		Body:         bytes.NewReader(data),
		CacheControl: aws.String("public, max-age=31536000"),
		ACL:          s3types.ObjectCannedACLPublicRead,
	}
	if ct := contentTypeForKey(key); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload S3 object %q: %w", key, err)
	}
	return nil
}

func (s *s3Store) DeleteFile(dbc dbctx.Context, category Category, key string) error {
	cfg, err := s.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctxOrBackground(dbc.Ctx), 30*time.Second)
	defer cancel()
	k := cleanKey(key)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &cfg.name,
		Key:    &k,
	}); err != nil {
		return fmt.Errorf("failed to delete S3 object %q in bucket %q: %w", key, cfg.name, err)
	}
	return nil
}

func (s *s3Store) GetPublicURL(category Category, key string) string {
	cfg, err := s.getBucketConfig(category)
	if err != nil {
		return key
	}
	key = cleanKey(key)
	switch {
	case cfg.cdnDomain != "":
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	case s.publicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, cfg.name, key)
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", s.endpoint, cfg.name, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.name, s.region, key)
	}
}
