package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	"github.com/yungbote/foodgram-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/pkg/pointers"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/objectstorage"
)

type testEnv struct {
	db    *gorm.DB
	store *objectstorage.LocalStore

	userRepo   repos.UserRepo
	tokenRepo  repos.UserTokenRepo
	ingredRepo repos.IngredientRepo
	jobRepo    repos.JobRunRepo
	eventRepo  repos.JobRunEventRepo

	auth        AuthService
	users       UserService
	recipes     RecipeService
	relations   RelationService
	subs        SubscriptionService
	ingredients IngredientService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	store, err := objectstorage.NewLocalStore(log, t.TempDir(), "http://testserver")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewUserTokenRepo(db, log)
	ingredRepo := repos.NewIngredientRepo(db, log)
	recipeRepo := repos.NewRecipeRepo(db, log)
	riRepo := repos.NewRecipeIngredientRepo(db, log)
	favorites := repos.NewFavoriteRepo(db, log)
	cart := repos.NewShoppingCartRepo(db, log)
	subRepo := repos.NewSubscriptionRepo(db, log)
	jobRepo := repos.NewJobRunRepo(db, log)
	eventRepo := repos.NewJobRunEventRepo(db, log)

	recipes := NewRecipeService(db, log, recipeRepo, riRepo, ingredRepo, favorites, cart, store, "http://testserver/")
	return &testEnv{
		db:          db,
		store:       store,
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		ingredRepo:  ingredRepo,
		jobRepo:     jobRepo,
		eventRepo:   eventRepo,
		auth:        NewAuthService(db, log, userRepo, tokenRepo, "test-secret-key", time.Hour),
		users:       NewUserService(db, log, userRepo, tokenRepo, subRepo, favorites, cart, jobRepo, eventRepo, recipes, store),
		recipes:     recipes,
		relations:   NewRelationService(log, recipeRepo, favorites, cart),
		subs:        NewSubscriptionService(log, userRepo, subRepo, recipeRepo),
		ingredients: NewIngredientService(db, log, ingredRepo),
	}
}

func anon() dbctx.Context { return dbctx.Context{Ctx: context.Background()} }

func asUser(id uint) dbctx.Context {
	return dbctx.Context{Ctx: ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: id})}
}

func (e *testEnv) register(t *testing.T, username string) *types.User {
	t.Helper()
	u, err := e.users.Register(anon(), RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (e *testEnv) ingredient(t *testing.T, name, unit string) *types.Ingredient {
	t.Helper()
	out, err := e.ingredRepo.Create(anon(), []*types.Ingredient{{Name: name, MeasurementUnit: unit}})
	if err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	return out[0]
}

func (e *testEnv) recipe(t *testing.T, authorID uint, name string, items ...RecipeIngredientInput) *types.Recipe {
	t.Helper()
	rec, err := e.recipes.Create(asUser(authorID), recipeInput(t, name, items...))
	if err != nil {
		t.Fatalf("create recipe %s: %v", name, err)
	}
	return rec
}

func recipeInput(t *testing.T, name string, items ...RecipeIngredientInput) RecipeInput {
	t.Helper()
	return RecipeInput{
		Ingredients: items,
		Image:       pointers.String(pngDataURI(t)),
		Name:        pointers.String(name),
		Text:        pointers.String("Mix and bake."),
		CookingTime: pointers.Int(15),
	}
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
