package handlers

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/services"
)

type UserOut struct {
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

type RegisteredUserOut struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RecipeIngredientOut struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeOut struct {
	ID               uint                  `json:"id"`
	Author           UserOut               `json:"author"`
	Ingredients      []RecipeIngredientOut `json:"ingredients"`
	IsFavorited      bool                  `json:"is_favorited"`
	IsInShoppingCart bool                  `json:"is_in_shopping_cart"`
	Name             string                `json:"name"`
	Image            string                `json:"image"`
	Text             string                `json:"text"`
	CookingTime      int                   `json:"cooking_time"`
}

type ShortRecipeOut struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type AuthorWithRecipesOut struct {
	UserOut
	Recipes      []ShortRecipeOut `json:"recipes"`
	RecipesCount int64            `json:"recipes_count"`
}

type JobOut struct {
	ID        uuid.UUID       `json:"id"`
	JobType   string          `json:"job_type"`
	Status    string          `json:"status"`
	Stage     string          `json:"stage"`
	Progress  int             `json:"progress"`
	Attempts  int             `json:"attempts"`
	Message   string          `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type JobEventOut struct {
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Stage     string          `json:"stage"`
	Progress  int             `json:"progress"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Serializer turns domain rows into API representations. Viewer-dependent
// flags are loaded in one query per batch.
type Serializer struct {
	users   services.UserService
	recipes services.RecipeService
	avatars services.AvatarService
}

func NewSerializer(users services.UserService, recipes services.RecipeService, avatars services.AvatarService) *Serializer {
	return &Serializer{users: users, recipes: recipes, avatars: avatars}
}

func (s *Serializer) user(u *types.User, subscribed bool) UserOut {
	out := UserOut{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		IsSubscribed: subscribed,
	}
	if s.avatars != nil {
		if url := s.avatars.AvatarURL(u); url != "" {
			out.Avatar = &url
		}
	}
	return out
}

func (s *Serializer) Users(dbc dbctx.Context, users []*types.User) ([]UserOut, error) {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	flags, err := s.users.SubscribedFlags(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make([]UserOut, 0, len(users))
	for _, u := range users {
		out = append(out, s.user(u, flags[u.ID]))
	}
	return out, nil
}

func (s *Serializer) User(dbc dbctx.Context, u *types.User) (UserOut, error) {
	out, err := s.Users(dbc, []*types.User{u})
	if err != nil {
		return UserOut{}, err
	}
	return out[0], nil
}

func (s *Serializer) Registered(u *types.User) RegisteredUserOut {
	return RegisteredUserOut{
		Email:     u.Email,
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (s *Serializer) Recipes(dbc dbctx.Context, recs []*types.Recipe) ([]RecipeOut, error) {
	recipeIDs := make([]uint, 0, len(recs))
	authorIDs := make([]uint, 0, len(recs))
	for _, r := range recs {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}
	flags, err := s.recipes.Flags(dbc, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.users.SubscribedFlags(dbc, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]RecipeOut, 0, len(recs))
	for _, r := range recs {
		ro := RecipeOut{
			ID:               r.ID,
			Ingredients:      make([]RecipeIngredientOut, 0, len(r.Ingredients)),
			IsFavorited:      flags.Favorited[r.ID],
			IsInShoppingCart: flags.InCart[r.ID],
			Name:             r.Name,
			Image:            s.recipes.ImageURL(r),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		if r.Author != nil {
			ro.Author = s.user(r.Author, subscribed[r.AuthorID])
		} else {
			ro.Author = UserOut{ID: r.AuthorID, IsSubscribed: subscribed[r.AuthorID]}
		}
		for _, ri := range r.Ingredients {
			item := RecipeIngredientOut{ID: ri.IngredientID, Amount: ri.Amount}
			if ri.Ingredient != nil {
				item.Name = ri.Ingredient.Name
				item.MeasurementUnit = ri.Ingredient.MeasurementUnit
			}
			ro.Ingredients = append(ro.Ingredients, item)
		}
		out = append(out, ro)
	}
	return out, nil
}

func (s *Serializer) Recipe(dbc dbctx.Context, r *types.Recipe) (RecipeOut, error) {
	out, err := s.Recipes(dbc, []*types.Recipe{r})
	if err != nil {
		return RecipeOut{}, err
	}
	return out[0], nil
}

func (s *Serializer) ShortRecipe(r *types.Recipe) ShortRecipeOut {
	return ShortRecipeOut{
		ID:          r.ID,
		Name:        r.Name,
		Image:       s.recipes.ImageURL(r),
		CookingTime: r.CookingTime,
	}
}

func (s *Serializer) Authors(dbc dbctx.Context, in []*services.AuthorWithRecipes) ([]AuthorWithRecipesOut, error) {
	authors := make([]*types.User, 0, len(in))
	for _, a := range in {
		authors = append(authors, a.Author)
	}
	users, err := s.Users(dbc, authors)
	if err != nil {
		return nil, err
	}
	out := make([]AuthorWithRecipesOut, 0, len(in))
	for i, a := range in {
		item := AuthorWithRecipesOut{
			UserOut:      users[i],
			Recipes:      make([]ShortRecipeOut, 0, len(a.Recipes)),
			RecipesCount: a.RecipesCount,
		}
		for _, r := range a.Recipes {
			item.Recipes = append(item.Recipes, s.ShortRecipe(r))
		}
		out = append(out, item)
	}
	return out, nil
}

func Job(j *types.JobRun) JobOut {
	out := JobOut{
		ID:        j.ID,
		JobType:   j.JobType,
		Status:    j.Status,
		Stage:     j.Stage,
		Progress:  j.Progress,
		Attempts:  j.Attempts,
		Message:   j.Message,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if len(j.Result) > 0 {
		out.Result = json.RawMessage(j.Result)
	}
	return out
}

func JobEvent(e *types.JobRunEvent) JobEventOut {
	out := JobEventOut{
		Kind:      e.Kind,
		Status:    e.Status,
		Stage:     e.Stage,
		Progress:  e.Progress,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
	if len(e.Data) > 0 {
		out.Data = json.RawMessage(e.Data)
	}
	return out
}
