package relations

import (
	"gorm.io/gorm"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

// RecipeRelationRepo stores unique (user, recipe) pairs. Favorites and the
// shopping cart share it.
type RecipeRelationRepo interface {
	Add(dbc dbctx.Context, userID, recipeID uint) error
	Remove(dbc dbctx.Context, userID, recipeID uint) (bool, error)
	Exists(dbc dbctx.Context, userID, recipeID uint) (bool, error)
	MemberRecipeIDs(dbc dbctx.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
	FullDeleteByRecipeIDs(dbc dbctx.Context, recipeIDs []uint) error
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uint) error
}

type recipeRelationRepo[T any] struct {
	db     *gorm.DB
	log    *logger.Logger
	newRow func(userID, recipeID uint) *T
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRelationRepo {
	return &recipeRelationRepo[types.Favorite]{
		db:  db,
		log: baseLog.With("repo", "FavoriteRepo"),
		newRow: func(userID, recipeID uint) *types.Favorite {
			return &types.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

func NewShoppingCartRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRelationRepo {
	return &recipeRelationRepo[types.ShoppingCart]{
		db:  db,
		log: baseLog.With("repo", "ShoppingCartRepo"),
		newRow: func(userID, recipeID uint) *types.ShoppingCart {
			return &types.ShoppingCart{UserID: userID, RecipeID: recipeID}
		},
	}
}

// Add surfaces a duplicate pair as gorm.ErrDuplicatedKey.
func (r *recipeRelationRepo[T]) Add(dbc dbctx.Context, userID, recipeID uint) error {
	return dbc.Conn(r.db).Omit("User", "Recipe").Create(r.newRow(userID, recipeID)).Error
}

func (r *recipeRelationRepo[T]) Remove(dbc dbctx.Context, userID, recipeID uint) (bool, error) {
	var model T
	res := dbc.Conn(r.db).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *recipeRelationRepo[T]) Exists(dbc dbctx.Context, userID, recipeID uint) (bool, error) {
	var model T
	var count int64
	if err := dbc.Conn(r.db).
		Model(&model).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MemberRecipeIDs reports which of recipeIDs are paired with userID.
func (r *recipeRelationRepo[T]) MemberRecipeIDs(dbc dbctx.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	out := map[uint]bool{}
	if userID == 0 || len(recipeIDs) == 0 {
		return out, nil
	}
	var model T
	var found []uint
	if err := dbc.Conn(r.db).
		Model(&model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (r *recipeRelationRepo[T]) FullDeleteByRecipeIDs(dbc dbctx.Context, recipeIDs []uint) error {
	if len(recipeIDs) == 0 {
		return nil
	}
	var model T
	return dbc.Conn(r.db).Where("recipe_id IN ?", recipeIDs).Delete(&model).Error
}

func (r *recipeRelationRepo[T]) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	var model T
	return dbc.Conn(r.db).Where("user_id IN ?", userIDs).Delete(&model).Error
}
