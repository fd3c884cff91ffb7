package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/http"
	httpH "github.com/yungbote/foodgram-backend/internal/http/handlers"
	httpMW "github.com/yungbote/foodgram-backend/internal/http/middleware"
	"github.com/yungbote/foodgram-backend/internal/observability"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/platform/objectstorage"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	User       *httpH.UserHandler
	Recipe     *httpH.RecipeHandler
	Ingredient *httpH.IngredientHandler
	Job        *httpH.JobHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	ser := httpH.NewSerializer(services.User, services.Recipe, services.Avatar)
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Auth:       httpH.NewAuthHandler(log, services.Auth),
		User:       httpH.NewUserHandler(log, services.User, services.Avatar, services.Subscription, ser),
		Recipe:     httpH.NewRecipeHandler(log, services.Recipe, services.Relation, services.ShoppingList, ser),
		Ingredient: httpH.NewIngredientHandler(log, services.Ingredient),
		Job:        httpH.NewJobHandler(log, services.JobService),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg *Config, handlers Handlers, middleware Middleware, store objectstorage.Store, metrics *observability.Metrics) *http.Server {
	// Only the local store needs the API to serve its files.
	mediaDir := ""
	if ls, ok := store.(*objectstorage.LocalStore); ok {
		mediaDir = ls.Root()
	}
	return http.NewServer(http.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MediaDir:       mediaDir,
		Metrics:        metrics,
		AuthMiddleware: middleware.Auth,
		HealthHandler:  handlers.Health,
		Handlers: http.Handlers{
			Auth:       handlers.Auth,
			Users:      handlers.User,
			Recipes:    handlers.Recipe,
			Ingredient: handlers.Ingredient,
			Jobs:       handlers.Job,
		},
	})
}
