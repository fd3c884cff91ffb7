package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/foodgram-backend/internal/http/response"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// RequireAuth rejects requests without a valid token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, response.CodeUnauthorized,
				errMissingCredentials)
			return
		}
		if !am.attach(c, tokenString) {
			return
		}
		if ctxutil.UserID(c.Request.Context()) == 0 {
			response.RespondError(c, http.StatusUnauthorized, response.CodeUnauthorized,
				errMissingCredentials)
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A token that is present but
// invalid is still rejected.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}
		if !am.attach(c, tokenString) {
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) attach(c *gin.Context, tokenString string) bool {
	ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
	if err != nil {
		am.log.Debug("Token rejected", "path", c.Request.URL.Path, "error", err)
		response.RespondError(c, http.StatusUnauthorized, response.CodeUnauthorized, errInvalidToken)
		return false
	}
	c.Request = c.Request.WithContext(ctx)
	return true
}

// extractToken accepts "Token <jwt>" and "Bearer <jwt>".
func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
