package services

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	"github.com/yungbote/foodgram-backend/internal/data/repos/testutil"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
)

// lostRaceRelations sees no row on the pre-check, then hits the unique index
// on insert, as when two requests add the same pair concurrently.
type lostRaceRelations struct {
	repos.RecipeRelationRepo
}

func (lostRaceRelations) Exists(dbctx.Context, uint, uint) (bool, error) { return false, nil }

func (lostRaceRelations) Add(dbctx.Context, uint, uint) error {
	return fmt.Errorf("insert relation: %w", gorm.ErrDuplicatedKey)
}

type lostRaceSubscriptions struct {
	repos.SubscriptionRepo
}

func (lostRaceSubscriptions) Exists(dbctx.Context, uint, uint) (bool, error) { return false, nil }

func (lostRaceSubscriptions) Create(dbctx.Context, uint, uint) error {
	return fmt.Errorf("insert subscription: %w", gorm.ErrDuplicatedKey)
}

func TestRelationAddDuplicateKeyIsAlreadyExists(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "chef")
	fan := env.register(t, "fan")
	salt := env.ingredient(t, "salt", "g")
	rec := env.recipe(t, author.ID, "Soup", RecipeIngredientInput{ID: salt.ID, Amount: 2})

	log := testutil.Logger(t)
	svc := NewRelationService(log, repos.NewRecipeRepo(env.db, log), lostRaceRelations{}, lostRaceRelations{})
	for _, kind := range []RelationKind{RelationFavorite, RelationShoppingCart} {
		_, err := svc.Add(asUser(fan.ID), kind, rec.ID)
		if apiCode(err) != CodeAlreadyExists || !errors.Is(err, pkgerrors.ErrConflict) {
			t.Fatalf("%s: expected %s, got %v", kind, CodeAlreadyExists, err)
		}
	}
}

func TestSubscribeDuplicateKeyIsAlreadyExists(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "chef")
	fan := env.register(t, "fan")

	log := testutil.Logger(t)
	svc := NewSubscriptionService(log, env.userRepo, lostRaceSubscriptions{}, repos.NewRecipeRepo(env.db, log))
	_, err := svc.Subscribe(asUser(fan.ID), author.ID, -1)
	if apiCode(err) != CodeAlreadyExists || !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("expected %s, got %v", CodeAlreadyExists, err)
	}
}
