package recipes

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

// ListFilter narrows a recipe listing. Membership filters apply only when
// ViewerID is set; nil means "do not filter".
type ListFilter struct {
	AuthorID         *uint
	ViewerID         uint
	IsFavorited      *bool
	IsInShoppingCart *bool
}

type RecipeRepo interface {
	Create(dbc dbctx.Context, recipe *types.Recipe) error
	GetByID(dbc dbctx.Context, id uint) (*types.Recipe, error)
	Exists(dbc dbctx.Context, id uint) (bool, error)
	List(dbc dbctx.Context, filter ListFilter, offset, limit int) ([]*types.Recipe, int64, error)
	ListByAuthors(dbc dbctx.Context, authorIDs []uint) ([]*types.Recipe, error)
	CountByAuthors(dbc dbctx.Context, authorIDs []uint) (map[uint]int64, error)
	IDsByAuthors(dbc dbctx.Context, authorIDs []uint) ([]uint, error)
	UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uint) error
}

type recipeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	return &recipeRepo{
		db:  db,
		log: baseLog.With("repo", "RecipeRepo"),
	}
}

// Create inserts the recipe row only; associations go through RecipeIngredientRepo.
func (r *recipeRepo) Create(dbc dbctx.Context, recipe *types.Recipe) error {
	return dbc.Conn(r.db).Omit("Author", "Ingredients").Create(recipe).Error
}

func preloadDetail(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredient.id ASC") }).
		Preload("Ingredients.Ingredient")
}

// GetByID returns nil, nil when the recipe does not exist.
func (r *recipeRepo) GetByID(dbc dbctx.Context, id uint) (*types.Recipe, error) {
	var rec types.Recipe
	err := preloadDetail(dbc.Conn(r.db)).Where("recipe.id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recipeRepo) Exists(dbc dbctx.Context, id uint) (bool, error) {
	var count int64
	if err := dbc.Conn(r.db).Model(&types.Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepo) filtered(dbc dbctx.Context, f ListFilter) *gorm.DB {
	conn := dbc.Conn(r.db)
	q := conn.Model(&types.Recipe{})
	if f.AuthorID != nil {
		q = q.Where("recipe.author_id = ?", *f.AuthorID)
	}
	if f.ViewerID == 0 {
		return q
	}
	if f.IsFavorited != nil {
		sub := conn.Model(&types.Favorite{}).Select("recipe_id").Where("user_id = ?", f.ViewerID)
		if *f.IsFavorited {
			q = q.Where("recipe.id IN (?)", sub)
		} else {
			q = q.Where("recipe.id NOT IN (?)", sub)
		}
	}
	if f.IsInShoppingCart != nil {
		sub := conn.Model(&types.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", f.ViewerID)
		if *f.IsInShoppingCart {
			q = q.Where("recipe.id IN (?)", sub)
		} else {
			q = q.Where("recipe.id NOT IN (?)", sub)
		}
	}
	return q
}

// List returns one page ordered newest first plus the total matching count.
func (r *recipeRepo) List(dbc dbctx.Context, f ListFilter, offset, limit int) ([]*types.Recipe, int64, error) {
	var total int64
	if err := r.filtered(dbc, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.Recipe
	if err := preloadDetail(r.filtered(dbc, f)).
		Order("recipe.created_at DESC").
		Order("recipe.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByAuthors returns recipes without associations, newest first.
func (r *recipeRepo) ListByAuthors(dbc dbctx.Context, authorIDs []uint) ([]*types.Recipe, error) {
	var out []*types.Recipe
	if len(authorIDs) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recipeRepo) CountByAuthors(dbc dbctx.Context, authorIDs []uint) (map[uint]int64, error) {
	out := map[uint]int64{}
	if len(authorIDs) == 0 {
		return out, nil
	}
	type row struct {
		AuthorID uint
		N        int64
	}
	var rows []row
	if err := dbc.Conn(r.db).
		Model(&types.Recipe{}).
		Select("author_id, COUNT(*) AS n").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.AuthorID] = rw.N
	}
	return out, nil
}

func (r *recipeRepo) IDsByAuthors(dbc dbctx.Context, authorIDs []uint) ([]uint, error) {
	var ids []uint
	if len(authorIDs) == 0 {
		return ids, nil
	}
	if err := dbc.Conn(r.db).
		Model(&types.Recipe{}).
		Where("author_id IN ?", authorIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *recipeRepo) UpdateFields(dbc dbctx.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Model(&types.Recipe{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *recipeRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Where("id IN ?", ids).
		Delete(&types.Recipe{}).Error
}
