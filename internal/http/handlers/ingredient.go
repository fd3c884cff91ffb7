package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/http/response"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
)

type IngredientHandler struct {
	log         *logger.Logger
	ingredients services.IngredientService
}

func NewIngredientHandler(log *logger.Logger, ingredients services.IngredientService) *IngredientHandler {
	return &IngredientHandler{log: log.With("handler", "IngredientHandler"), ingredients: ingredients}
}

// GET /api/ingredients/?name=<prefix>
func (h *IngredientHandler) List(c *gin.Context) {
	items, err := h.ingredients.Search(requestDBC(c), c.Query("name"))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	if items == nil {
		items = []*types.Ingredient{}
	}
	response.RespondOK(c, items)
}

// GET /api/ingredients/:id/
func (h *IngredientHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	item, err := h.ingredients.Get(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, item)
}
