package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

const CodeSelfSubscription = "self_subscription"

// AuthorWithRecipes is a followed author with a preview of their recipes.
type AuthorWithRecipes struct {
	Author       *types.User
	Recipes      []*types.Recipe
	RecipesCount int64
}

type SubscriptionService interface {
	// Subscribe follows authorID. recipesLimit < 0 returns every recipe.
	Subscribe(dbc dbctx.Context, authorID uint, recipesLimit int) (*AuthorWithRecipes, error)
	Unsubscribe(dbc dbctx.Context, authorID uint) error
	List(dbc dbctx.Context, offset, limit, recipesLimit int) ([]*AuthorWithRecipes, int64, error)
}

type subscriptionService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	subRepo    repos.SubscriptionRepo
	recipeRepo repos.RecipeRepo
}

func NewSubscriptionService(baseLog *logger.Logger, userRepo repos.UserRepo, subRepo repos.SubscriptionRepo, recipeRepo repos.RecipeRepo) SubscriptionService {
	return &subscriptionService{
		log:        baseLog.With("service", "SubscriptionService"),
		userRepo:   userRepo,
		subRepo:    subRepo,
		recipeRepo: recipeRepo,
	}
}

func (s *subscriptionService) resolve(dbc dbctx.Context, authorID uint) (uint, *types.User, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == 0 {
		return 0, nil, pkgerrors.ErrUnauthorized
	}
	author, err := s.userRepo.GetByID(dbc, authorID)
	if err != nil {
		return 0, nil, fmt.Errorf("load author: %w", err)
	}
	if author == nil {
		return 0, nil, pkgerrors.ErrNotFound
	}
	return userID, author, nil
}

func (s *subscriptionService) Subscribe(dbc dbctx.Context, authorID uint, recipesLimit int) (*AuthorWithRecipes, error) {
	userID, author, err := s.resolve(dbc, authorID)
	if err != nil {
		return nil, err
	}
	if userID == author.ID {
		return nil, conflict(CodeSelfSubscription, "You cannot subscribe to yourself.")
	}
	exists, err := s.subRepo.Exists(dbc, userID, author.ID)
	if err != nil {
		return nil, fmt.Errorf("check subscription: %w", err)
	}
	if exists {
		return nil, conflict(CodeAlreadyExists, "You are already subscribed to this author.")
	}
	if err := s.subRepo.Create(dbc, userID, author.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict(CodeAlreadyExists, "You are already subscribed to this author.")
		}
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	s.log.Debug("Subscribed", "user_id", userID, "author_id", author.ID)

	out, err := s.withRecipes(dbc, []*types.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *subscriptionService) Unsubscribe(dbc dbctx.Context, authorID uint) error {
	userID, author, err := s.resolve(dbc, authorID)
	if err != nil {
		return err
	}
	removed, err := s.subRepo.Delete(dbc, userID, author.ID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if !removed {
		return conflict(CodeNotInRelation, "You are not subscribed to this author.")
	}
	s.log.Debug("Unsubscribed", "user_id", userID, "author_id", author.ID)
	return nil
}

func (s *subscriptionService) List(dbc dbctx.Context, offset, limit, recipesLimit int) ([]*AuthorWithRecipes, int64, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == 0 {
		return nil, 0, pkgerrors.ErrUnauthorized
	}
	authors, total, err := s.subRepo.ListAuthors(dbc, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	out, err := s.withRecipes(dbc, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *subscriptionService) withRecipes(dbc dbctx.Context, authors []*types.User, recipesLimit int) ([]*AuthorWithRecipes, error) {
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.recipeRepo.CountByAuthors(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("count recipes: %w", err)
	}
	recs, err := s.recipeRepo.ListByAuthors(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	byAuthor := make(map[uint][]*types.Recipe, len(authors))
	for _, r := range recs {
		if recipesLimit >= 0 && len(byAuthor[r.AuthorID]) >= recipesLimit {
			continue
		}
		byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], r)
	}
	out := make([]*AuthorWithRecipes, 0, len(authors))
	for _, a := range authors {
		rs := byAuthor[a.ID]
		if rs == nil {
			rs = []*types.Recipe{}
		}
		out = append(out, &AuthorWithRecipes{Author: a, Recipes: rs, RecipesCount: counts[a.ID]})
	}
	return out, nil
}
