package db

import (
	"fmt"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureSearchIndexes adds indexes gorm tags cannot express.
func EnsureSearchIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ingredient_name_lower
		ON ingredient (lower(name) text_pattern_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_ingredient_name_lower: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_recipe_created_id
		ON recipe (created_at DESC, id DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_recipe_created_id: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_claim
		ON job_run (status, created_at)
		WHERE status IN ('queued', 'failed', 'running');
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_claim: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureSearchIndexes(s.db); err != nil {
		s.log.Error("Search index migration failed", "error", err)
		return err
	}
	return nil
}
