package recipes

import (
	"gorm.io/gorm"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

// CartLine is one ingredient association reached through a user's cart.
type CartLine struct {
	Name   string
	Unit   string
	Amount int
}

type RecipeIngredientRepo interface {
	Create(dbc dbctx.Context, rows []*types.RecipeIngredient) ([]*types.RecipeIngredient, error)
	FullDeleteByRecipeIDs(dbc dbctx.Context, recipeIDs []uint) error
	CartLines(dbc dbctx.Context, userID uint) ([]CartLine, error)
}

type recipeIngredientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeIngredientRepo(db *gorm.DB, baseLog *logger.Logger) RecipeIngredientRepo {
	return &recipeIngredientRepo{
		db:  db,
		log: baseLog.With("repo", "RecipeIngredientRepo"),
	}
}

func (r *recipeIngredientRepo) Create(dbc dbctx.Context, rows []*types.RecipeIngredient) ([]*types.RecipeIngredient, error) {
	if len(rows) == 0 {
		return []*types.RecipeIngredient{}, nil
	}
	if err := dbc.Conn(r.db).Omit("Recipe", "Ingredient").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *recipeIngredientRepo) FullDeleteByRecipeIDs(dbc dbctx.Context, recipeIDs []uint) error {
	if len(recipeIDs) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Where("recipe_id IN ?", recipeIDs).
		Delete(&types.RecipeIngredient{}).Error
}

// CartLines joins shopping_cart -> recipe_ingredient -> ingredient for one user.
// Rows are unaggregated; the caller sums them.
func (r *recipeIngredientRepo) CartLines(dbc dbctx.Context, userID uint) ([]CartLine, error) {
	var out []CartLine
	if userID == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Table("shopping_cart").
		Select("ingredient.name AS name, ingredient.measurement_unit AS unit, recipe_ingredient.amount AS amount").
		Joins("JOIN recipe_ingredient ON recipe_ingredient.recipe_id = shopping_cart.recipe_id").
		Joins("JOIN ingredient ON ingredient.id = recipe_ingredient.ingredient_id").
		Where("shopping_cart.user_id = ?", userID).
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
