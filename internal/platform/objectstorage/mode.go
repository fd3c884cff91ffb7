package objectstorage

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/foodgram-backend/internal/platform/envutil"
)

type Mode string

const (
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeS3          Mode = "s3"
	ModeLocal       Mode = "local"
)

type Config struct {
	Mode                  Mode
	EmulatorHost          string
	CompatibilityFallback bool

	AvatarBucket string
	RecipeBucket string
	AvatarCDN    string
	RecipeCDN    string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	// MediaDir and MediaBaseURL serve ModeLocal.
	MediaDir     string
	MediaBaseURL string
}

func IsSupportedMode(mode Mode) bool {
	switch mode {
	case ModeGCS, ModeGCSEmulator, ModeS3, ModeLocal:
		return true
	default:
		return false
	}
}

func (cfg Config) IsEmulatorMode() bool {
	return cfg.Mode == ModeGCSEmulator
}

func (cfg Config) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorMissingS3Settings   ConfigErrorCode = "missing_s3_settings"
)

type ConfigError struct {
	Code         ConfigErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf(
			"invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q, %q)",
			e.Mode, ModeGCS, ModeGCSEmulator, ModeS3, ModeLocal,
		)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ModeGCSEmulator)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf(
			"invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443",
			e.EmulatorHost,
		)
	case ConfigErrorMissingBucket:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires AVATAR_BUCKET_NAME and RECIPE_BUCKET_NAME", e.Mode)
	case ConfigErrorMissingS3Settings:
		return "OBJECT_STORAGE_MODE=s3 requires S3_REGION, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY"
	default:
		return "invalid object storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveConfigFromEnv reads OBJECT_STORAGE_MODE and the per-backend settings.
// Without an explicit mode, STORAGE_EMULATOR_HOST selects the GCS emulator and
// otherwise files go to the local media directory.
func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		EmulatorHost: envutil.String("STORAGE_EMULATOR_HOST"),
		AvatarBucket: envutil.String("AVATAR_BUCKET_NAME"),
		RecipeBucket: envutil.String("RECIPE_BUCKET_NAME"),
		AvatarCDN:    envutil.String("AVATAR_CDN_DOMAIN"),
		RecipeCDN:    envutil.String("RECIPE_CDN_DOMAIN"),
		S3Endpoint:   envutil.String("S3_ENDPOINT"),
		S3Region:     envutil.String("S3_REGION"),
		S3AccessKey:  envutil.String("S3_ACCESS_KEY_ID"),
		S3SecretKey:  envutil.String("S3_SECRET_ACCESS_KEY"),
	}

	rawMode := envutil.String("OBJECT_STORAGE_MODE")
	mode := Mode(strings.ToLower(rawMode))
	switch {
	case mode == "" && cfg.EmulatorHost != "":
		cfg.Mode = ModeGCSEmulator
		cfg.CompatibilityFallback = true
	case mode == "":
		cfg.Mode = ModeLocal
	case IsSupportedMode(mode):
		cfg.Mode = mode
	default:
		return cfg, &ConfigError{Code: ConfigErrorInvalidMode, Mode: rawMode}
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if !IsSupportedMode(cfg.Mode) {
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	if cfg.Mode == ModeLocal {
		return nil
	}
	if cfg.AvatarBucket == "" || cfg.RecipeBucket == "" {
		return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode)}
	}
	switch cfg.Mode {
	case ModeS3:
		if cfg.S3Region == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return &ConfigError{Code: ConfigErrorMissingS3Settings, Mode: string(cfg.Mode)}
		}
	case ModeGCSEmulator:
		if cfg.EmulatorHost == "" {
			return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
		}
		u, err := url.Parse(cfg.EmulatorHost)
		if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
			return &ConfigError{
				Code:         ConfigErrorInvalidEmulatorHost,
				Mode:         string(cfg.Mode),
				EmulatorHost: cfg.EmulatorHost,
				Cause:        err,
			}
		}
	}
	return nil
}

// resolvePublicBaseURL honors OBJECT_STORAGE_PUBLIC_BASE_URL, then the
// emulator host, then the backend default (empty).
func resolvePublicBaseURL(cfg Config) (baseURL string, source string, err error) {
	raw := envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL")
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf(
				"invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443",
				raw,
			)
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if cfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"), "storage_emulator_host", nil
	}
	return "", "backend_default", nil
}
