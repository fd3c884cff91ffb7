package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/foodgram-backend/internal/http/response"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
)

type UserHandler struct {
	log           *logger.Logger
	userService   services.UserService
	avatarService services.AvatarService
	subscriptions services.SubscriptionService
	ser           *Serializer
}

func NewUserHandler(
	log *logger.Logger,
	userService services.UserService,
	avatarService services.AvatarService,
	subscriptions services.SubscriptionService,
	ser *Serializer,
) *UserHandler {
	return &UserHandler{
		log:           log.With("handler", "UserHandler"),
		userService:   userService,
		avatarService: avatarService,
		subscriptions: subscriptions,
		ser:           ser,
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// POST /api/users/
func (uh *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	u, err := uh.userService.Register(requestDBC(c), services.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondCreated(c, uh.ser.Registered(u))
}

// GET /api/users/
func (uh *UserHandler) List(c *gin.Context) {
	dbc := requestDBC(c)
	page := response.ParsePage(c)
	users, total, err := uh.userService.List(dbc, page.Offset(), page.Size)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	if err := page.Check(total); err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	out, err := uh.ser.Users(dbc, users)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondOK(c, response.NewPaginated(c, page, total, out))
}

// GET /api/users/:id/
func (uh *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	dbc := requestDBC(c)
	u, err := uh.userService.GetByID(dbc, id)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	out, err := uh.ser.User(dbc, u)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/users/me/
func (uh *UserHandler) GetMe(c *gin.Context) {
	dbc := requestDBC(c)
	me, err := uh.userService.GetMe(dbc)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	out, err := uh.ser.User(dbc, me)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondOK(c, out)
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

// POST /api/users/set_password/
func (uh *UserHandler) SetPassword(c *gin.Context) {
	var req setPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	err := uh.userService.SetPassword(requestDBC(c), services.SetPasswordInput{
		NewPassword:     req.NewPassword,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondNoContent(c)
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

type avatarResponse struct {
	Avatar string `json:"avatar"`
}

// PUT /api/users/me/avatar/
func (uh *UserHandler) SetAvatar(c *gin.Context) {
	var req avatarRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	dbc := requestDBC(c)
	url, err := uh.avatarService.SetAvatar(dbc, ctxutil.UserID(dbc.Ctx), req.Avatar)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondOK(c, avatarResponse{Avatar: url})
}

// DELETE /api/users/me/avatar/
func (uh *UserHandler) DeleteAvatar(c *gin.Context) {
	dbc := requestDBC(c)
	if err := uh.avatarService.DeleteAvatar(dbc, ctxutil.UserID(dbc.Ctx)); err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/users/:id/avatar/placeholder/
func (uh *UserHandler) AvatarPlaceholder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	png, err := uh.avatarService.RenderPlaceholder(requestDBC(c), id)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

// POST /api/users/:id/subscribe/
func (uh *UserHandler) Subscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	dbc := requestDBC(c)
	author, err := uh.subscriptions.Subscribe(dbc, id, recipesLimit(c))
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	out, err := uh.ser.Authors(dbc, []*services.AuthorWithRecipes{author})
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondCreated(c, out[0])
}

// DELETE /api/users/:id/subscribe/
func (uh *UserHandler) Unsubscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	if err := uh.subscriptions.Unsubscribe(requestDBC(c), id); err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/users/subscriptions/
func (uh *UserHandler) Subscriptions(c *gin.Context) {
	dbc := requestDBC(c)
	page := response.ParsePage(c)
	authors, total, err := uh.subscriptions.List(dbc, page.Offset(), page.Size, recipesLimit(c))
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	if err := page.Check(total); err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	out, err := uh.ser.Authors(dbc, authors)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondOK(c, response.NewPaginated(c, page, total, out))
}
