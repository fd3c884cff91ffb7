package shoppinglist

import (
	"fmt"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

const (
	ContentType = "text/plain; charset=utf-8"
	Filename    = "shopping_list.txt"
)

type Service interface {
	// Download renders the shopping list of the authenticated caller.
	Download(dbc dbctx.Context) (string, error)
	Build(dbc dbctx.Context, userID uint) ([]Item, error)
}

type service struct {
	log  *logger.Logger
	repo repos.RecipeIngredientRepo
}

func NewService(baseLog *logger.Logger, repo repos.RecipeIngredientRepo) Service {
	return &service{
		log:  baseLog.With("service", "ShoppingListService"),
		repo: repo,
	}
}

func (s *service) Download(dbc dbctx.Context) (string, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == 0 {
		return "", pkgerrors.ErrUnauthorized
	}
	items, err := s.Build(dbc, userID)
	if err != nil {
		return "", err
	}
	s.log.Debug("Shopping list rendered", "user_id", userID, "items", len(items))
	return Render(items), nil
}

func (s *service) Build(dbc dbctx.Context, userID uint) ([]Item, error) {
	rows, err := s.repo.CartLines(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, Line{Name: r.Name, Unit: r.Unit, Amount: r.Amount})
	}
	return Aggregate(lines), nil
}
