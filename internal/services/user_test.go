package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
)

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "taken")

	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{
			name:  "duplicate email",
			in:    RegisterInput{Email: "taken@example.com", Username: "other", FirstName: "A", LastName: "B", Password: "s3cret-pass"},
			field: "email",
		},
		{
			name:  "duplicate username",
			in:    RegisterInput{Email: "new@example.com", Username: "taken", FirstName: "A", LastName: "B", Password: "s3cret-pass"},
			field: "username",
		},
		{
			name:  "bad username",
			in:    RegisterInput{Email: "new@example.com", Username: "bad name!", FirstName: "A", LastName: "B", Password: "s3cret-pass"},
			field: "username",
		},
		{
			name:  "numeric password",
			in:    RegisterInput{Email: "new@example.com", Username: "fresh", FirstName: "A", LastName: "B", Password: "1234567890"},
			field: "password",
		},
		{
			name:  "missing first name",
			in:    RegisterInput{Email: "new@example.com", Username: "fresh", LastName: "B", Password: "s3cret-pass"},
			field: "first_name",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.users.Register(anon(), tc.in)
			verr, ok := pkgerrors.AsValidation(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(verr.Fields[tc.field]) == 0 {
				t.Fatalf("expected %s error, got %v", tc.field, verr.Fields)
			}
		})
	}
}

func TestSetPassword(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "dave")

	err := env.users.SetPassword(asUser(u.ID), SetPasswordInput{NewPassword: "another-pass", CurrentPassword: "wrong"})
	verr, ok := pkgerrors.AsValidation(err)
	if !ok || len(verr.Fields["current_password"]) == 0 {
		t.Fatalf("expected current_password error, got %v", err)
	}

	if err := env.users.SetPassword(asUser(u.ID), SetPasswordInput{NewPassword: "another-pass", CurrentPassword: "s3cret-pass"}); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if _, err := env.auth.Login(anon(), LoginInput{Email: "dave@example.com", Password: "another-pass"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	if err := env.users.SetPassword(anon(), SetPasswordInput{NewPassword: "x-another", CurrentPassword: "another-pass"}); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("anonymous SetPassword: expected ErrUnauthorized, got %v", err)
	}
}

func TestGetMeRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.users.GetMe(anon()); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := env.users.GetByID(anon(), 999); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserListPaginates(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"u1", "u2", "u3"} {
		env.register(t, name)
	}
	page, total, err := env.users.List(anon(), 1, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(page) != 1 {
		t.Fatalf("want total=3 len=1, got total=%d len=%d", total, len(page))
	}
	if page[0].Username != "u2" {
		t.Fatalf("users are ordered by username; got %s", page[0].Username)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "author")
	fan := env.register(t, "fan")
	salt := env.ingredient(t, "salt", "g")

	rec := env.recipe(t, author.ID, "Soup", RecipeIngredientInput{ID: salt.ID, Amount: 5})
	if _, err := env.relations.Add(asUser(fan.ID), RelationFavorite, rec.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if _, err := env.subs.Subscribe(asUser(fan.ID), author.ID, -1); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	imagePath := filepath.Join(env.store.Root(), "recipe", rec.ImageKey)
	if _, err := os.Stat(imagePath); err != nil {
		t.Fatalf("image not stored: %v", err)
	}

	if err := env.users.Delete(anon(), author.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := env.recipes.Get(anon(), rec.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("recipe survived author deletion: %v", err)
	}
	if _, err := os.Stat(imagePath); !os.IsNotExist(err) {
		t.Fatalf("image survived author deletion: %v", err)
	}
	subs, total, err := env.subs.List(asUser(fan.ID), 0, 10, -1)
	if err != nil {
		t.Fatalf("subscriptions: %v", err)
	}
	if total != 0 || len(subs) != 0 {
		t.Fatalf("subscription survived author deletion: %d", total)
	}
	if err := env.users.Delete(anon(), author.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}
