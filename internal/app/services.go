package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/jobs/fetch"
	jobruntime "github.com/yungbote/foodgram-backend/internal/jobs/runtime"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
	"github.com/yungbote/foodgram-backend/internal/services/shoppinglist"
	"github.com/yungbote/foodgram-backend/internal/temporalx"
)

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Avatar       services.AvatarService
	Ingredient   services.IngredientService
	Recipe       services.RecipeService
	Relation     services.RelationService
	Subscription services.SubscriptionService
	ShoppingList shoppinglist.Service

	// Jobs
	JobNotifier services.JobNotifier
	JobService  services.JobService
	JobRegistry *jobruntime.Registry
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg *Config, tcfg temporalx.Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	authService := services.NewAuthService(db, log, repos.User, repos.UserToken, cfg.Auth.JWTSecretKey, cfg.Auth.AccessTokenTTL)

	avatarService, err := services.NewAvatarService(log, repos.User, clients.Store)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	recipeService := services.NewRecipeService(
		db,
		log,
		repos.Recipe,
		repos.RecipeIngredient,
		repos.Ingredient,
		repos.Favorite,
		repos.ShoppingCart,
		clients.Store,
		cfg.Server.PublicBaseURL,
	)

	userService := services.NewUserService(
		db,
		log,
		repos.User,
		repos.UserToken,
		repos.Subscription,
		repos.Favorite,
		repos.ShoppingCart,
		repos.JobRun,
		repos.JobRunEvent,
		recipeService,
		clients.Store,
	)

	// Job registry
	jobRegistry := jobruntime.NewRegistry()
	for _, h := range []jobruntime.Handler{
		fetch.NewRandomMeal(log, clients.MealDB),
		fetch.NewRandomCocktail(log, clients.CocktailDB),
		fetch.NewHello(log),
	} {
		if err := jobRegistry.Register(h); err != nil {
			return Services{}, err
		}
	}

	jobNotifier := services.NewJobNotifier(log, repos.JobRunEvent, clients.JobBus)
	jobService := services.NewJobService(
		db,
		log,
		repos.JobRun,
		repos.JobRunEvent,
		jobNotifier,
		jobRegistry.Types(),
		clients.Temporal,
		tcfg.TaskQueue,
	)

	return Services{
		Auth:         authService,
		User:         userService,
		Avatar:       avatarService,
		Ingredient:   services.NewIngredientService(db, log, repos.Ingredient),
		Recipe:       recipeService,
		Relation:     services.NewRelationService(log, repos.Recipe, repos.Favorite, repos.ShoppingCart),
		Subscription: services.NewSubscriptionService(log, repos.User, repos.Subscription, repos.Recipe),
		ShoppingList: shoppinglist.NewService(log, repos.RecipeIngredient),
		JobNotifier:  jobNotifier,
		JobService:   jobService,
		JobRegistry:  jobRegistry,
	}, nil
}
