package fetch

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

const (
	TypeRandomMeal     = "fetch_random_meal"
	TypeRandomCocktail = "fetch_random_cocktail"
	TypeHello          = "hello"
)

// RandomSource is satisfied by *recipeapi.Client.
type RandomSource interface {
	Source() string
	Random(ctx context.Context) (json.RawMessage, error)
}

// Pipeline fetches one random document from src and stores it as the job result.
type Pipeline struct {
	log     *logger.Logger
	jobType string
	src     RandomSource
}

func New(baseLog *logger.Logger, jobType string, src RandomSource) *Pipeline {
	return &Pipeline{
		log:     baseLog.With("job", jobType),
		jobType: jobType,
		src:     src,
	}
}

func NewRandomMeal(baseLog *logger.Logger, src RandomSource) *Pipeline {
	return New(baseLog, TypeRandomMeal, src)
}

func NewRandomCocktail(baseLog *logger.Logger, src RandomSource) *Pipeline {
	return New(baseLog, TypeRandomCocktail, src)
}

func (p *Pipeline) Type() string { return p.jobType }

type Hello struct {
	log *logger.Logger
}

func NewHello(baseLog *logger.Logger) *Hello {
	return &Hello{log: baseLog.With("job", TypeHello)}
}

func (h *Hello) Type() string { return TypeHello }
