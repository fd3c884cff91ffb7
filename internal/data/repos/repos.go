package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos/auth"
	"github.com/yungbote/foodgram-backend/internal/data/repos/catalog"
	"github.com/yungbote/foodgram-backend/internal/data/repos/jobs"
	"github.com/yungbote/foodgram-backend/internal/data/repos/recipes"
	"github.com/yungbote/foodgram-backend/internal/data/repos/relations"
	"github.com/yungbote/foodgram-backend/internal/data/repos/social"
	"github.com/yungbote/foodgram-backend/internal/data/repos/user"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type IngredientRepo = catalog.IngredientRepo

type RecipeRepo = recipes.RecipeRepo
type RecipeIngredientRepo = recipes.RecipeIngredientRepo
type RecipeListFilter = recipes.ListFilter
type CartLine = recipes.CartLine

type RecipeRelationRepo = relations.RecipeRelationRepo

type SubscriptionRepo = social.SubscriptionRepo

type JobRunRepo = jobs.JobRunRepo
type JobRunEventRepo = jobs.JobRunEventRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewIngredientRepo(db *gorm.DB, baseLog *logger.Logger) IngredientRepo {
	return catalog.NewIngredientRepo(db, baseLog)
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	return recipes.NewRecipeRepo(db, baseLog)
}
func NewRecipeIngredientRepo(db *gorm.DB, baseLog *logger.Logger) RecipeIngredientRepo {
	return recipes.NewRecipeIngredientRepo(db, baseLog)
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRelationRepo {
	return relations.NewFavoriteRepo(db, baseLog)
}
func NewShoppingCartRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRelationRepo {
	return relations.NewShoppingCartRepo(db, baseLog)
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return social.NewSubscriptionRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
func NewJobRunEventRepo(db *gorm.DB, baseLog *logger.Logger) JobRunEventRepo {
	return jobs.NewJobRunEventRepo(db, baseLog)
}
