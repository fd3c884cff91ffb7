package catalog

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type IngredientRepo interface {
	Create(dbc dbctx.Context, ingredients []*types.Ingredient) ([]*types.Ingredient, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Ingredient, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Ingredient, error)
	GetByNames(dbc dbctx.Context, names []string) ([]*types.Ingredient, error)
	SearchByPrefix(dbc dbctx.Context, prefix string) ([]*types.Ingredient, error)
	UpdateMeasurementUnit(dbc dbctx.Context, id uint, unit string) error
}

type ingredientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngredientRepo(db *gorm.DB, baseLog *logger.Logger) IngredientRepo {
	repoLog := baseLog.With("repo", "IngredientRepo")
	return &ingredientRepo{db: db, log: repoLog}
}

func (r *ingredientRepo) Create(dbc dbctx.Context, ingredients []*types.Ingredient) ([]*types.Ingredient, error) {
	if len(ingredients) == 0 {
		return []*types.Ingredient{}, nil
	}
	if err := dbc.Conn(r.db).Create(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepo) GetByID(dbc dbctx.Context, id uint) (*types.Ingredient, error) {
	var ing types.Ingredient
	err := dbc.Conn(r.db).Where("id = ?", id).First(&ing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func (r *ingredientRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Ingredient, error) {
	var out []*types.Ingredient
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingredientRepo) GetByNames(dbc dbctx.Context, names []string) ([]*types.Ingredient, error) {
	var out []*types.Ingredient
	if len(names) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("name IN ?", names).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SearchByPrefix matches names case-insensitively; an empty prefix lists everything.
func (r *ingredientRepo) SearchByPrefix(dbc dbctx.Context, prefix string) ([]*types.Ingredient, error) {
	q := dbc.Conn(r.db).Order("name ASC")
	if p := strings.TrimSpace(prefix); p != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(p))+"%")
	}
	var out []*types.Ingredient
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingredientRepo) UpdateMeasurementUnit(dbc dbctx.Context, id uint, unit string) error {
	return dbc.Conn(r.db).
		Model(&types.Ingredient{}).
		Where("id = ?", id).
		Update("measurement_unit", unit).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
