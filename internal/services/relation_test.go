package services

import (
	"errors"
	"testing"

	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/apierr"
)

func apiCode(err error) string {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func TestRelationToggle(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "chef")
	fan := env.register(t, "fan")
	salt := env.ingredient(t, "salt", "g")
	rec := env.recipe(t, author.ID, "Soup", RecipeIngredientInput{ID: salt.ID, Amount: 2})

	for _, kind := range []RelationKind{RelationFavorite, RelationShoppingCart} {
		t.Run(string(kind), func(t *testing.T) {
			got, err := env.relations.Add(asUser(fan.ID), kind, rec.ID)
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			if got.ID != rec.ID {
				t.Fatalf("Add returned recipe %d", got.ID)
			}
			_, err = env.relations.Add(asUser(fan.ID), kind, rec.ID)
			if apiCode(err) != CodeAlreadyExists || !errors.Is(err, pkgerrors.ErrConflict) {
				t.Fatalf("second Add: expected %s, got %v", CodeAlreadyExists, err)
			}
			if err := env.relations.Remove(asUser(fan.ID), kind, rec.ID); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if err := env.relations.Remove(asUser(fan.ID), kind, rec.ID); apiCode(err) != CodeNotInRelation {
				t.Fatalf("second Remove: expected %s, got %v", CodeNotInRelation, err)
			}
		})
	}
}

func TestRelationErrors(t *testing.T) {
	env := newTestEnv(t)
	fan := env.register(t, "fan")

	if _, err := env.relations.Add(asUser(fan.ID), RelationFavorite, 9999); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("missing recipe: expected ErrNotFound, got %v", err)
	}
	if _, err := env.relations.Add(anon(), RelationFavorite, 1); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("anonymous: expected ErrUnauthorized, got %v", err)
	}
	if _, err := env.relations.Add(asUser(fan.ID), RelationKind("wishlist"), 1); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("unknown kind: expected ErrInvalidArgument, got %v", err)
	}
}
