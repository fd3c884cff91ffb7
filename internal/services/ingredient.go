package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

// LoadReport summarizes one bulk ingredient load.
type LoadReport struct {
	Created int
	Updated int
	Errors  int
}

type IngredientService interface {
	// Search returns ingredients whose name starts with prefix, case-insensitively.
	Search(dbc dbctx.Context, prefix string) ([]*types.Ingredient, error)
	Get(dbc dbctx.Context, id uint) (*types.Ingredient, error)
	// Load creates unknown names and updates the unit of known ones.
	Load(dbc dbctx.Context, rows []IngredientRow) (LoadReport, error)
}

type ingredientService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.IngredientRepo
}

func NewIngredientService(db *gorm.DB, baseLog *logger.Logger, repo repos.IngredientRepo) IngredientService {
	return &ingredientService{
		db:   db,
		log:  baseLog.With("service", "IngredientService"),
		repo: repo,
	}
}

func (s *ingredientService) Search(dbc dbctx.Context, prefix string) ([]*types.Ingredient, error) {
	out, err := s.repo.SearchByPrefix(dbc, strings.TrimSpace(prefix))
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	return out, nil
}

func (s *ingredientService) Get(dbc dbctx.Context, id uint) (*types.Ingredient, error) {
	ing, err := s.repo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load ingredient: %w", err)
	}
	if ing == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return ing, nil
}

func (s *ingredientService) Load(dbc dbctx.Context, rows []IngredientRow) (LoadReport, error) {
	var report LoadReport
	valid := make([]IngredientRow, 0, len(rows))
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Err != "" {
			s.log.Warn("Ingredient row skipped", "row", r.Line, "reason", r.Err)
			report.Errors++
			continue
		}
		valid = append(valid, r)
		names = append(names, r.Name)
	}

	err := s.db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		existing, err := s.repo.GetByNames(txc, names)
		if err != nil {
			return fmt.Errorf("load existing ingredients: %w", err)
		}
		known := make(map[string]*types.Ingredient, len(existing))
		for _, ing := range existing {
			known[ing.Name] = ing
		}

		var toCreate []*types.Ingredient
		for _, r := range valid {
			ing, ok := known[r.Name]
			if !ok {
				ing = &types.Ingredient{Name: r.Name, MeasurementUnit: r.Unit}
				known[r.Name] = ing
				toCreate = append(toCreate, ing)
				report.Created++
				continue
			}
			if ing.MeasurementUnit == r.Unit {
				continue
			}
			ing.MeasurementUnit = r.Unit
			if ing.ID != 0 {
				if err := s.repo.UpdateMeasurementUnit(txc, ing.ID, r.Unit); err != nil {
					return fmt.Errorf("update ingredient %q: %w", r.Name, err)
				}
			}
			report.Updated++
		}
		for start := 0; start < len(toCreate); start += 500 {
			end := start + 500
			if end > len(toCreate) {
				end = len(toCreate)
			}
			if _, err := s.repo.Create(txc, toCreate[start:end]); err != nil {
				return fmt.Errorf("create ingredients: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return LoadReport{}, err
	}
	s.log.Info("Ingredients loaded", "created", report.Created, "updated", report.Updated, "errors", report.Errors)
	return report, nil
}
