package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/apierr"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

// RelationKind names a (user, recipe) toggle table.
type RelationKind string

const (
	RelationFavorite     RelationKind = "favorite"
	RelationShoppingCart RelationKind = "shopping_cart"
)

const (
	CodeAlreadyExists = "already_exists"
	CodeNotInRelation = "not_in_relation"
)

var relationMessages = map[RelationKind][2]string{
	RelationFavorite:     {"Recipe is already in favorites.", "Recipe is not in favorites."},
	RelationShoppingCart: {"Recipe is already in the shopping cart.", "Recipe is not in the shopping cart."},
}

func conflict(code, msg string) error {
	return apierr.BadRequest(code, pkgerrors.WithMessage(pkgerrors.ErrConflict, msg))
}

type RelationService interface {
	// Add pairs the caller with the recipe and returns the recipe.
	Add(dbc dbctx.Context, kind RelationKind, recipeID uint) (*types.Recipe, error)
	Remove(dbc dbctx.Context, kind RelationKind, recipeID uint) error
}

type relationService struct {
	log        *logger.Logger
	recipeRepo repos.RecipeRepo
	relations  map[RelationKind]repos.RecipeRelationRepo
}

func NewRelationService(baseLog *logger.Logger, recipeRepo repos.RecipeRepo, favorites, cart repos.RecipeRelationRepo) RelationService {
	return &relationService{
		log:        baseLog.With("service", "RelationService"),
		recipeRepo: recipeRepo,
		relations: map[RelationKind]repos.RecipeRelationRepo{
			RelationFavorite:     favorites,
			RelationShoppingCart: cart,
		},
	}
}

func (s *relationService) resolve(dbc dbctx.Context, kind RelationKind, recipeID uint) (uint, repos.RecipeRelationRepo, *types.Recipe, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == 0 {
		return 0, nil, nil, pkgerrors.ErrUnauthorized
	}
	repo, ok := s.relations[kind]
	if !ok {
		return 0, nil, nil, fmt.Errorf("%w: unknown relation %q", pkgerrors.ErrInvalidArgument, kind)
	}
	rec, err := s.recipeRepo.GetByID(dbc, recipeID)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("load recipe: %w", err)
	}
	if rec == nil {
		return 0, nil, nil, pkgerrors.ErrNotFound
	}
	return userID, repo, rec, nil
}

func (s *relationService) Add(dbc dbctx.Context, kind RelationKind, recipeID uint) (*types.Recipe, error) {
	userID, repo, rec, err := s.resolve(dbc, kind, recipeID)
	if err != nil {
		return nil, err
	}
	exists, err := repo.Exists(dbc, userID, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", kind, err)
	}
	if exists {
		return nil, conflict(CodeAlreadyExists, relationMessages[kind][0])
	}
	if err := repo.Add(dbc, userID, rec.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict(CodeAlreadyExists, relationMessages[kind][0])
		}
		return nil, fmt.Errorf("add %s: %w", kind, err)
	}
	s.log.Debug("Relation added", "kind", kind, "user_id", userID, "recipe_id", rec.ID)
	return rec, nil
}

func (s *relationService) Remove(dbc dbctx.Context, kind RelationKind, recipeID uint) error {
	userID, repo, rec, err := s.resolve(dbc, kind, recipeID)
	if err != nil {
		return err
	}
	removed, err := repo.Remove(dbc, userID, rec.ID)
	if err != nil {
		return fmt.Errorf("remove %s: %w", kind, err)
	}
	if !removed {
		return conflict(CodeNotInRelation, relationMessages[kind][1])
	}
	s.log.Debug("Relation removed", "kind", kind, "user_id", userID, "recipe_id", rec.ID)
	return nil
}
