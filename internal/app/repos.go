package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo

	Ingredient       repos.IngredientRepo
	Recipe           repos.RecipeRepo
	RecipeIngredient repos.RecipeIngredientRepo
	Favorite         repos.RecipeRelationRepo
	ShoppingCart     repos.RecipeRelationRepo
	Subscription     repos.SubscriptionRepo

	JobRun      repos.JobRunRepo
	JobRunEvent repos.JobRunEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		UserToken:        repos.NewUserTokenRepo(db, log),
		Ingredient:       repos.NewIngredientRepo(db, log),
		Recipe:           repos.NewRecipeRepo(db, log),
		RecipeIngredient: repos.NewRecipeIngredientRepo(db, log),
		Favorite:         repos.NewFavoriteRepo(db, log),
		ShoppingCart:     repos.NewShoppingCartRepo(db, log),
		Subscription:     repos.NewSubscriptionRepo(db, log),
		JobRun:           repos.NewJobRunRepo(db, log),
		JobRunEvent:      repos.NewJobRunEventRepo(db, log),
	}
}
