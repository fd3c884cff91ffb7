package app

import (
	"context"
	"fmt"
	"strings"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/foodgram-backend/internal/observability"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/platform/objectstorage"
	"github.com/yungbote/foodgram-backend/internal/platform/recipeapi"
	"github.com/yungbote/foodgram-backend/internal/services"
	"github.com/yungbote/foodgram-backend/internal/temporalx"
)

type Clients struct {
	Store      objectstorage.Store
	JobBus     services.JobEventBus
	Temporal   temporalsdkclient.Client
	MealDB     *recipeapi.Client
	CocktailDB *recipeapi.Client
}

// wireClients connects the optional backends. Redis and Temporal are only
// dialed when configured.
func wireClients(ctx context.Context, log *logger.Logger, cfg *Config, tcfg temporalx.Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	store, err := resolveObjectStore(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	var bus services.JobEventBus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := services.NewRedisJobEventBus(log, cfg.Redis.Addr, cfg.Redis.Channel)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis job event bus: %w", err)
		}
		bus = b
	}

	var tc temporalsdkclient.Client
	if cfg.Jobs.Backend == JobsBackendTemporal {
		tc, err = temporalx.NewClient(ctx, log, tcfg)
		if err != nil {
			if bus != nil {
				_ = bus.Close()
			}
			return Clients{}, fmt.Errorf("init temporal client: %w", err)
		}
		if tc == nil {
			log.Warn("JOBS_BACKEND=temporal without TEMPORAL_ADDRESS; falling back to the polling worker")
		}
	}

	api := cfg.RecipeAPI
	meal := recipeapi.New(log, recipeapi.SourceMealDB, recipeapi.Config{
		BaseURL:       api.MealDBBaseURL,
		APIKey:        api.MealDBAPIKey,
		Timeout:       api.Timeout,
		RatePerSecond: api.RatePerSecond,
		Burst:         api.Burst,
	}, metrics)
	cocktail := recipeapi.New(log, recipeapi.SourceCocktailDB, recipeapi.Config{
		BaseURL:       api.CocktailDBBaseURL,
		APIKey:        api.CocktailDBAPIKey,
		Timeout:       api.Timeout,
		RatePerSecond: api.RatePerSecond,
		Burst:         api.Burst,
	}, metrics)

	return Clients{
		Store:      store,
		JobBus:     bus,
		Temporal:   tc,
		MealDB:     meal,
		CocktailDB: cocktail,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.JobBus != nil {
		_ = c.JobBus.Close()
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
}
