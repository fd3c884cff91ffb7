package domain

import (
	"github.com/yungbote/foodgram-backend/internal/domain/auth"
	"github.com/yungbote/foodgram-backend/internal/domain/jobs"
	"github.com/yungbote/foodgram-backend/internal/domain/recipe"
	"github.com/yungbote/foodgram-backend/internal/domain/social"
	"github.com/yungbote/foodgram-backend/internal/domain/user"
)

type (
	User = user.User

	UserToken = auth.UserToken

	Ingredient       = recipe.Ingredient
	Recipe           = recipe.Recipe
	RecipeIngredient = recipe.RecipeIngredient
	Favorite         = recipe.Favorite
	ShoppingCart     = recipe.ShoppingCart

	Subscription = social.Subscription

	JobRun       = jobs.JobRun
	JobRunEvent  = jobs.JobRunEvent
	JobEventKind = jobs.JobEventKind
)

const (
	StatusQueued    = jobs.StatusQueued
	StatusRunning   = jobs.StatusRunning
	StatusSucceeded = jobs.StatusSucceeded
	StatusFailed    = jobs.StatusFailed
	StatusCanceled  = jobs.StatusCanceled

	JobEventCreated   = jobs.JobEventCreated
	JobEventProgress  = jobs.JobEventProgress
	JobEventFailed    = jobs.JobEventFailed
	JobEventSucceeded = jobs.JobEventSucceeded
)

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&User{},
		&UserToken{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCart{},
		&Subscription{},
		&JobRun{},
		&JobRunEvent{},
	}
}
