package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/platform/objectstorage"
)

var newObjectStore = objectstorage.New

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorMisconfigured       StorageProviderBootstrapErrorCode = "misconfigured"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveObjectStore reads OBJECT_STORAGE_MODE and friends; local mode writes
// under the configured media directory and is served at /media.
func resolveObjectStore(log *logger.Logger, cfg *Config) (objectstorage.Store, error) {
	storageCfg, err := objectstorage.ResolveConfigFromEnv()
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error("Object storage provider selection failed", "error", classified)
		return nil, classified
	}
	storageCfg.MediaDir = strings.TrimSpace(cfg.Server.MediaDir)
	storageCfg.MediaBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Server.PublicBaseURL), "/")

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
	)

	store, err := newObjectStore(log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return store, nil
}

func classifyStorageProviderBootstrapError(storageCfg objectstorage.Config, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *objectstorage.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case objectstorage.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case objectstorage.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case objectstorage.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		case objectstorage.ConfigErrorMissingBucket, objectstorage.ConfigErrorMissingS3Settings:
			code = StorageProviderBootstrapErrorMisconfigured
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
