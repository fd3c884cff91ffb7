package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/foodgram-backend/internal/http/response"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AuthToken string `json:"auth_token"`
}

// POST /api/auth/token/login/
func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	token, err := ah.authService.Login(requestDBC(c), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	response.RespondOK(c, loginResponse{AuthToken: token})
}

// POST /api/auth/token/logout/
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(requestDBC(c)); err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	response.RespondNoContent(c)
}
