package http

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	"github.com/yungbote/foodgram-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	httpH "github.com/yungbote/foodgram-backend/internal/http/handlers"
	httpMW "github.com/yungbote/foodgram-backend/internal/http/middleware"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/objectstorage"
	"github.com/yungbote/foodgram-backend/internal/services"
	"github.com/yungbote/foodgram-backend/internal/services/shoppinglist"
)

type apiEnv struct {
	engine  *gin.Engine
	ingreds repos.IngredientRepo
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	mediaDir := t.TempDir()
	store, err := objectstorage.NewLocalStore(log, mediaDir, "http://testserver")
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

	auth := services.NewAuthService(db, log, userRepo, tokenRepo, "router-test-secret", time.Hour)
	recipes := services.NewRecipeService(db, log, recipeRepo, riRepo, ingredRepo, favorites, cart, store, "http://testserver")
	users := services.NewUserService(db, log, userRepo, tokenRepo, subRepo, favorites, cart, jobRepo, eventRepo, recipes, store)
	avatars, err := services.NewAvatarService(log, userRepo, store)
	if err != nil {
		t.Fatalf("avatar service: %v", err)
	}
	notifier := services.NewJobNotifier(log, eventRepo, nil)
	jobs := services.NewJobService(db, log, jobRepo, eventRepo, notifier, []string{"hello"}, nil, "")

	ser := httpH.NewSerializer(users, recipes, avatars)
	engine := NewRouter(RouterConfig{
		Log:            log,
		MediaDir:       mediaDir,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:  httpH.NewHealthHandler(db),
		Handlers: Handlers{
			Auth:       httpH.NewAuthHandler(log, auth),
			Users:      httpH.NewUserHandler(log, users, avatars, services.NewSubscriptionService(log, userRepo, subRepo, recipeRepo), ser),
			Recipes:    httpH.NewRecipeHandler(log, recipes, services.NewRelationService(log, recipeRepo, favorites, cart), shoppinglist.NewService(log, riRepo), ser),
			Ingredient: httpH.NewIngredientHandler(log, services.NewIngredientService(db, log, ingredRepo)),
			Jobs:       httpH.NewJobHandler(log, jobs),
		},
	})
	return &apiEnv{engine: engine, ingreds: ingredRepo}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Host = "testserver"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got=%d want=%d body=%s", rec.Code, want, rec.Body.String())
	}
}

type errorBody struct {
	Error struct {
		Message string              `json:"message"`
		Code    string              `json:"code"`
		Fields  map[string][]string `json:"fields"`
	} `json:"error"`
}

// signUp registers username and returns its id and a fresh token.
func (e *apiEnv) signUp(t *testing.T, username string) (uint, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/users/", "", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "First",
		"last_name":  "Last",
		"password":   "s3cret-pass",
	})
	expectStatus(t, rec, http.StatusCreated)
	var reg httpH.RegisteredUserOut
	decode(t, rec, &reg)

	rec = e.do(t, http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    username + "@example.com",
		"password": "s3cret-pass",
	})
	expectStatus(t, rec, http.StatusOK)
	var login struct {
		AuthToken string `json:"auth_token"`
	}
	decode(t, rec, &login)
	if login.AuthToken == "" {
		t.Fatalf("empty auth_token")
	}
	return reg.ID, login.AuthToken
}

func (e *apiEnv) ingredient(t *testing.T, name, unit string) uint {
	t.Helper()
	out, err := e.ingreds.Create(dbctx.Context{}, []*types.Ingredient{{Name: name, MeasurementUnit: unit}})
	if err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	return out[0].ID
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func (e *apiEnv) createRecipe(t *testing.T, token, name string, ingredientID uint, amount int) httpH.RecipeOut {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/recipes/", token, map[string]any{
		"ingredients":  []map[string]any{{"id": ingredientID, "amount": amount}},
		"image":        pngDataURI(t),
		"name":         name,
		"text":         "Mix and bake.",
		"cooking_time": 20,
	})
	expectStatus(t, rec, http.StatusCreated)
	var out httpH.RecipeOut
	decode(t, rec, &out)
	return out
}

func TestRoutesAreUnique(t *testing.T) {
	h := Handlers{
		Auth:       &httpH.AuthHandler{},
		Users:      &httpH.UserHandler{},
		Recipes:    &httpH.RecipeHandler{},
		Ingredient: &httpH.IngredientHandler{},
		Jobs:       &httpH.JobHandler{},
	}
	seenName := map[string]bool{}
	seenPath := map[string]bool{}
	for _, rt := range Routes(h) {
		if seenName[rt.Name] {
			t.Fatalf("duplicate route name %s", rt.Name)
		}
		seenName[rt.Name] = true
		k := rt.Method + " " + rt.Path
		if seenPath[k] {
			t.Fatalf("duplicate route %s", k)
		}
		seenPath[k] = true
		if !strings.HasSuffix(rt.Path, "/") {
			t.Fatalf("route %s must end with a slash", k)
		}
	}
	if !seenPath["GET /recipes/download_shopping_cart/"] {
		t.Fatalf("download route missing")
	}
}

func TestRecipeFlow(t *testing.T) {
	env := newAPIEnv(t)
	authorID, author := env.signUp(t, "chef")
	_, reader := env.signUp(t, "reader")
	flour := env.ingredient(t, "flour", "g")

	rec := env.do(t, http.MethodGet, "/api/users/me/", author, nil)
	expectStatus(t, rec, http.StatusOK)
	var me httpH.UserOut
	decode(t, rec, &me)
	if me.ID != authorID || me.Username != "chef" || me.IsSubscribed {
		t.Fatalf("me: %+v", me)
	}

	created := env.createRecipe(t, author, "Bread", flour, 300)
	if created.Author.ID != authorID || len(created.Ingredients) != 1 || created.Ingredients[0].Amount != 300 {
		t.Fatalf("created: %+v", created)
	}
	if !strings.HasPrefix(created.Image, "http://testserver/media/recipe/") {
		t.Fatalf("image url: %q", created.Image)
	}
	env.createRecipe(t, author, "Pie", flour, 200)

	path := fmt.Sprintf("/api/recipes/%d/", created.ID)
	rec = env.do(t, http.MethodPost, path+"favorite/", reader, nil)
	expectStatus(t, rec, http.StatusCreated)
	var short httpH.ShortRecipeOut
	decode(t, rec, &short)
	if short.ID != created.ID || short.Name != "Bread" {
		t.Fatalf("short recipe: %+v", short)
	}

	rec = env.do(t, http.MethodPost, path+"favorite/", reader, nil)
	expectStatus(t, rec, http.StatusBadRequest)
	var dup errorBody
	decode(t, rec, &dup)
	if dup.Error.Code != services.CodeAlreadyExists || strings.HasPrefix(dup.Error.Message, "conflict") {
		t.Fatalf("duplicate favorite: %+v", dup.Error)
	}

	rec = env.do(t, http.MethodGet, path, reader, nil)
	expectStatus(t, rec, http.StatusOK)
	var got httpH.RecipeOut
	decode(t, rec, &got)
	if !got.IsFavorited || got.IsInShoppingCart {
		t.Fatalf("flags for reader: %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/recipes/?is_favorited=1", reader, nil)
	expectStatus(t, rec, http.StatusOK)
	var favs struct {
		Count   int64              `json:"count"`
		Results []httpH.RecipeOut `json:"results"`
	}
	decode(t, rec, &favs)
	if favs.Count != 1 || len(favs.Results) != 1 || favs.Results[0].ID != created.ID {
		t.Fatalf("favorites: %+v", favs)
	}

	rec = env.do(t, http.MethodPost, path+"shopping_cart/", reader, nil)
	expectStatus(t, rec, http.StatusCreated)
	rec = env.do(t, http.MethodGet, "/api/recipes/download_shopping_cart/", reader, nil)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != shoppinglist.ContentType {
		t.Fatalf("content type: %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, shoppinglist.Filename) {
		t.Fatalf("content disposition: %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "flour (g) - 300") {
		t.Fatalf("shopping list: %q", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, path+"get-link/", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var link map[string]string
	decode(t, rec, &link)
	if link["short-link"] != fmt.Sprintf("http://testserver/recipes/%d/", created.ID) {
		t.Fatalf("short link: %+v", link)
	}

	rec = env.do(t, http.MethodDelete, path, reader, nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = env.do(t, http.MethodDelete, path, author, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = env.do(t, http.MethodGet, path, "", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestRecipeListPagination(t *testing.T) {
	env := newAPIEnv(t)
	_, author := env.signUp(t, "chef")
	salt := env.ingredient(t, "salt", "g")
	for i := 0; i < 3; i++ {
		env.createRecipe(t, author, fmt.Sprintf("Dish %d", i), salt, 1)
	}

	rec := env.do(t, http.MethodGet, "/api/recipes/?limit=2", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var page struct {
		Count    int64             `json:"count"`
		Next     *string           `json:"next"`
		Previous *string           `json:"previous"`
		Results  []httpH.RecipeOut `json:"results"`
	}
	decode(t, rec, &page)
	if page.Count != 3 || len(page.Results) != 2 {
		t.Fatalf("first page: count=%d results=%d", page.Count, len(page.Results))
	}
	if page.Results[0].Name != "Dish 2" {
		t.Fatalf("newest first: got=%q", page.Results[0].Name)
	}
	if page.Previous != nil {
		t.Fatalf("previous on first page: %q", *page.Previous)
	}
	if page.Next == nil || !strings.Contains(*page.Next, "page=2") || !strings.Contains(*page.Next, "limit=2") {
		t.Fatalf("next link: %v", page.Next)
	}

	rec = env.do(t, http.MethodGet, "/api/recipes/?limit=2&page=2", "", nil)
	expectStatus(t, rec, http.StatusOK)
	page.Next, page.Previous, page.Results = nil, nil, nil
	decode(t, rec, &page)
	if len(page.Results) != 1 || page.Next != nil || page.Previous == nil {
		t.Fatalf("second page: %+v", page)
	}
	if strings.Contains(*page.Previous, "page=") {
		t.Fatalf("link back to page 1 keeps page param: %q", *page.Previous)
	}

	for _, q := range []string{"?limit=2&page=3", "?page=9223372036854775807"} {
		rec = env.do(t, http.MethodGet, "/api/recipes/"+q, "", nil)
		expectStatus(t, rec, http.StatusNotFound)
	}
	rec = env.do(t, http.MethodGet, "/api/users/?page=2", "", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestErrorEnvelopes(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.signUp(t, "chef")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"create without token", http.MethodPost, "/api/recipes/", "", map[string]any{}, http.StatusUnauthorized, "unauthorized"},
		{"invalid token on public route", http.MethodGet, "/api/recipes/", "not-a-jwt", nil, http.StatusUnauthorized, "unauthorized"},
		{"non numeric id", http.MethodGet, "/api/recipes/abc/", "", nil, http.StatusNotFound, "not_found"},
		{"missing recipe", http.MethodGet, "/api/recipes/999/", "", nil, http.StatusNotFound, "not_found"},
		{"bad author filter", http.MethodGet, "/api/recipes/?author=x", "", nil, http.StatusBadRequest, "validation_error"},
		{"empty recipe", http.MethodPost, "/api/recipes/", token, map[string]any{}, http.StatusBadRequest, "validation_error"},
		{"unknown route", http.MethodGet, "/api/nowhere/", "", nil, http.StatusNotFound, "not_found"},
		{"unknown job type", http.MethodPost, "/api/jobs/", token, map[string]any{"job_type": "nope"}, http.StatusBadRequest, "validation_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, tc.method, tc.path, tc.token, tc.body)
			expectStatus(t, rec, tc.status)
			var body errorBody
			decode(t, rec, &body)
			if body.Error.Code != tc.code || body.Error.Message == "" {
				t.Fatalf("envelope: %+v", body.Error)
			}
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.signUp(t, "chef")

	rec := env.do(t, http.MethodPost, "/api/auth/token/logout/", token, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = env.do(t, http.MethodGet, "/api/users/me/", token, nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestHealthAndMedia(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.signUp(t, "chef")
	salt := env.ingredient(t, "salt", "g")
	out := env.createRecipe(t, token, "Soup", salt, 5)

	rec := env.do(t, http.MethodGet, "/healthcheck", "", nil)
	expectStatus(t, rec, http.StatusOK)
	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodGet, strings.TrimPrefix(out.Image, "http://testserver"), "", nil)
	expectStatus(t, rec, http.StatusOK)
	if _, err := png.Decode(rec.Body); err != nil {
		t.Fatalf("served image is not a png: %v", err)
	}
}
