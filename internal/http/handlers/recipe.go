package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	"github.com/yungbote/foodgram-backend/internal/http/response"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
	"github.com/yungbote/foodgram-backend/internal/services/shoppinglist"
)

type RecipeHandler struct {
	log       *logger.Logger
	recipes   services.RecipeService
	relations services.RelationService
	shopping  shoppinglist.Service
	ser       *Serializer
}

func NewRecipeHandler(
	log *logger.Logger,
	recipes services.RecipeService,
	relations services.RelationService,
	shopping shoppinglist.Service,
	ser *Serializer,
) *RecipeHandler {
	return &RecipeHandler{
		log:       log.With("handler", "RecipeHandler"),
		recipes:   recipes,
		relations: relations,
		shopping:  shopping,
		ser:       ser,
	}
}

type recipeIngredientRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// recipeRequest is shared by create and update; nil means absent.
type recipeRequest struct {
	Ingredients []recipeIngredientRequest `json:"ingredients"`
	Image       *string                   `json:"image"`
	Name        *string                   `json:"name"`
	Text        *string                   `json:"text"`
	CookingTime *int                      `json:"cooking_time"`
}

func (r recipeRequest) input() services.RecipeInput {
	in := services.RecipeInput{
		Image:       r.Image,
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
	}
	if r.Ingredients != nil {
		in.Ingredients = make([]services.RecipeIngredientInput, 0, len(r.Ingredients))
		for _, it := range r.Ingredients {
			in.Ingredients = append(in.Ingredients, services.RecipeIngredientInput{ID: it.ID, Amount: it.Amount})
		}
	}
	return in
}

// GET /api/recipes/
func (h *RecipeHandler) List(c *gin.Context) {
	dbc := requestDBC(c)
	page := response.ParsePage(c)
	filter := repos.RecipeListFilter{
		IsFavorited:      queryBool(c, "is_favorited"),
		IsInShoppingCart: queryBool(c, "is_in_shopping_cart"),
	}
	if raw := strings.TrimSpace(c.Query("author")); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.RespondErr(c, h.log, fieldError("author", "Select a valid author id."))
			return
		}
		author := uint(n)
		filter.AuthorID = &author
	}

	recs, total, err := h.recipes.List(dbc, filter, page.Offset(), page.Size)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	if err := page.Check(total); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.ser.Recipes(dbc, recs)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, response.NewPaginated(c, page, total, out))
}

// GET /api/recipes/:id/
func (h *RecipeHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	dbc := requestDBC(c)
	rec, err := h.recipes.Get(dbc, id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.ser.Recipe(dbc, rec)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/recipes/
func (h *RecipeHandler) Create(c *gin.Context) {
	var req recipeRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	dbc := requestDBC(c)
	rec, err := h.recipes.Create(dbc, req.input())
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.ser.Recipe(dbc, rec)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, out)
}

// PATCH /api/recipes/:id/
func (h *RecipeHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req recipeRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	dbc := requestDBC(c)
	rec, err := h.recipes.Update(dbc, id, req.input())
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.ser.Recipe(dbc, rec)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// DELETE /api/recipes/:id/
func (h *RecipeHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	if err := h.recipes.Delete(requestDBC(c), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondNoContent(c)
}

type shortLinkResponse struct {
	ShortLink string `json:"short-link"`
}

// GET /api/recipes/:id/get-link/
func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	link, err := h.recipes.ShortLink(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, shortLinkResponse{ShortLink: link})
}

func (h *RecipeHandler) addRelation(kind services.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			response.RespondErr(c, h.log, err)
			return
		}
		rec, err := h.relations.Add(requestDBC(c), kind, id)
		if err != nil {
			response.RespondErr(c, h.log, err)
			return
		}
		response.RespondCreated(c, h.ser.ShortRecipe(rec))
	}
}

func (h *RecipeHandler) removeRelation(kind services.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			response.RespondErr(c, h.log, err)
			return
		}
		if err := h.relations.Remove(requestDBC(c), kind, id); err != nil {
			response.RespondErr(c, h.log, err)
			return
		}
		response.RespondNoContent(c)
	}
}

// POST /api/recipes/:id/favorite/
func (h *RecipeHandler) AddFavorite(c *gin.Context) { h.addRelation(services.RelationFavorite)(c) }

// DELETE /api/recipes/:id/favorite/
func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeRelation(services.RelationFavorite)(c)
}

// POST /api/recipes/:id/shopping_cart/
func (h *RecipeHandler) AddToCart(c *gin.Context) { h.addRelation(services.RelationShoppingCart)(c) }

// DELETE /api/recipes/:id/shopping_cart/
func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(services.RelationShoppingCart)(c)
}

// GET /api/recipes/download_shopping_cart/
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	text, err := h.shopping.Download(requestDBC(c))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", shoppinglist.Filename))
	c.Data(http.StatusOK, shoppinglist.ContentType, []byte(text))
}
