package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/foodgram-backend/internal/http/handlers"
)

// Role is the access level a route requires.
type Role string

const (
	// RoleAnonymous serves everyone; a valid token still identifies the caller.
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	// RoleOwner requires a user; services check that the caller authored the
	// target recipe.
	RoleOwner Role = "owner"
)

type Route struct {
	Name    string
	Method  string
	Path    string
	Role    Role
	Handler gin.HandlerFunc
}

type Handlers struct {
	Auth       *httpH.AuthHandler
	Users      *httpH.UserHandler
	Recipes    *httpH.RecipeHandler
	Ingredient *httpH.IngredientHandler
	Jobs       *httpH.JobHandler
}

// Routes is the dispatch table of the /api surface. Paths are relative to /api.
func Routes(h Handlers) []Route {
	var out []Route
	add := func(name, method, path string, role Role, fn gin.HandlerFunc) {
		out = append(out, Route{Name: name, Method: method, Path: path, Role: role, Handler: fn})
	}

	if h.Auth != nil {
		add("auth.login", http.MethodPost, "/auth/token/login/", RoleAnonymous, h.Auth.Login)
		add("auth.logout", http.MethodPost, "/auth/token/logout/", RoleUser, h.Auth.Logout)
	}

	if h.Users != nil {
		add("users.list", http.MethodGet, "/users/", RoleAnonymous, h.Users.List)
		add("users.register", http.MethodPost, "/users/", RoleAnonymous, h.Users.Register)
		add("users.me", http.MethodGet, "/users/me/", RoleUser, h.Users.GetMe)
		add("users.set_password", http.MethodPost, "/users/set_password/", RoleUser, h.Users.SetPassword)
		add("users.avatar.set", http.MethodPut, "/users/me/avatar/", RoleUser, h.Users.SetAvatar)
		add("users.avatar.delete", http.MethodDelete, "/users/me/avatar/", RoleUser, h.Users.DeleteAvatar)
		add("users.subscriptions", http.MethodGet, "/users/subscriptions/", RoleUser, h.Users.Subscriptions)
		add("users.get", http.MethodGet, "/users/:id/", RoleAnonymous, h.Users.Get)
		add("users.avatar.placeholder", http.MethodGet, "/users/:id/avatar/placeholder/", RoleAnonymous, h.Users.AvatarPlaceholder)
		add("users.subscribe", http.MethodPost, "/users/:id/subscribe/", RoleUser, h.Users.Subscribe)
		add("users.unsubscribe", http.MethodDelete, "/users/:id/subscribe/", RoleUser, h.Users.Unsubscribe)
	}

	if h.Ingredient != nil {
		add("ingredients.list", http.MethodGet, "/ingredients/", RoleAnonymous, h.Ingredient.List)
		add("ingredients.get", http.MethodGet, "/ingredients/:id/", RoleAnonymous, h.Ingredient.Get)
	}

	if h.Recipes != nil {
		add("recipes.list", http.MethodGet, "/recipes/", RoleAnonymous, h.Recipes.List)
		add("recipes.create", http.MethodPost, "/recipes/", RoleUser, h.Recipes.Create)
		add("recipes.download_shopping_cart", http.MethodGet, "/recipes/download_shopping_cart/", RoleUser, h.Recipes.DownloadShoppingCart)
		add("recipes.get", http.MethodGet, "/recipes/:id/", RoleAnonymous, h.Recipes.Get)
		add("recipes.update", http.MethodPatch, "/recipes/:id/", RoleOwner, h.Recipes.Update)
		add("recipes.delete", http.MethodDelete, "/recipes/:id/", RoleOwner, h.Recipes.Delete)
		add("recipes.get_link", http.MethodGet, "/recipes/:id/get-link/", RoleAnonymous, h.Recipes.GetLink)
		add("recipes.favorite.add", http.MethodPost, "/recipes/:id/favorite/", RoleUser, h.Recipes.AddFavorite)
		add("recipes.favorite.remove", http.MethodDelete, "/recipes/:id/favorite/", RoleUser, h.Recipes.RemoveFavorite)
		add("recipes.cart.add", http.MethodPost, "/recipes/:id/shopping_cart/", RoleUser, h.Recipes.AddToCart)
		add("recipes.cart.remove", http.MethodDelete, "/recipes/:id/shopping_cart/", RoleUser, h.Recipes.RemoveFromCart)
	}

	if h.Jobs != nil {
		add("jobs.create", http.MethodPost, "/jobs/", RoleUser, h.Jobs.Create)
		add("jobs.list", http.MethodGet, "/jobs/", RoleUser, h.Jobs.List)
		add("jobs.get", http.MethodGet, "/jobs/:id/", RoleUser, h.Jobs.Get)
		add("jobs.events", http.MethodGet, "/jobs/:id/events/", RoleUser, h.Jobs.Events)
	}

	return out
}
