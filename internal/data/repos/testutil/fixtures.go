package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		Email:     username + "@example.com",
		Username:  username,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedIngredient(tb testing.TB, ctx context.Context, tx *gorm.DB, name, unit string) *types.Ingredient {
	tb.Helper()
	ing := &types.Ingredient{Name: name, MeasurementUnit: unit}
	if err := tx.WithContext(ctx).Create(ing).Error; err != nil {
		tb.Fatalf("seed ingredient: %v", err)
	}
	return ing
}

// SeedRecipe creates a recipe with one association per (ingredient, amount) pair.
func SeedRecipe(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID uint, name string, items map[uint]int) *types.Recipe {
	tb.Helper()
	r := &types.Recipe{
		AuthorID:    authorID,
		Name:        name,
		Text:        "text",
		CookingTime: 10,
		ImageKey:    fmt.Sprintf("recipes/%s.png", uuid.NewString()),
	}
	if err := tx.WithContext(ctx).Omit("Ingredients").Create(r).Error; err != nil {
		tb.Fatalf("seed recipe: %v", err)
	}
	for ingID, amount := range items {
		ri := &types.RecipeIngredient{RecipeID: r.ID, IngredientID: ingID, Amount: amount}
		if err := tx.WithContext(ctx).Create(ri).Error; err != nil {
			tb.Fatalf("seed recipe ingredient: %v", err)
		}
	}
	return r
}

func SeedCartItem(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, recipeID uint) {
	tb.Helper()
	if err := tx.WithContext(ctx).Create(&types.ShoppingCart{UserID: userID, RecipeID: recipeID}).Error; err != nil {
		tb.Fatalf("seed cart item: %v", err)
	}
}

func SeedFavorite(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, recipeID uint) {
	tb.Helper()
	if err := tx.WithContext(ctx).Create(&types.Favorite{UserID: userID, RecipeID: recipeID}).Error; err != nil {
		tb.Fatalf("seed favorite: %v", err)
	}
}

func SeedJobRun(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uint, jobType, status string) *types.JobRun {
	tb.Helper()
	job := &types.JobRun{
		OwnerUserID: ownerID,
		JobType:     jobType,
		Status:      status,
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(job).Error; err != nil {
		tb.Fatalf("seed job run: %v", err)
	}
	return job
}

func PtrTime(v time.Time) *time.Time { return &v }
