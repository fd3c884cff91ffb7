package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/foodgram-backend/internal/http/handlers"
	httpMW "github.com/yungbote/foodgram-backend/internal/http/middleware"
	"github.com/yungbote/foodgram-backend/internal/observability"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	MediaDir       string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware
	HealthHandler  *httpH.HealthHandler
	Handlers       Handlers
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if dir := strings.TrimSpace(cfg.MediaDir); dir != "" {
		r.StaticFS("/media", gin.Dir(dir, false))
	}

	api := r.Group("/api")
	for _, rt := range Routes(cfg.Handlers) {
		api.Handle(rt.Method, rt.Path, chain(cfg.AuthMiddleware, rt)...)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Not found.", "code": "not_found"}})
	})
	return r
}

func chain(am *httpMW.AuthMiddleware, rt Route) []gin.HandlerFunc {
	if am == nil {
		return []gin.HandlerFunc{rt.Handler}
	}
	switch rt.Role {
	case RoleUser, RoleOwner:
		return []gin.HandlerFunc{am.RequireAuth(), rt.Handler}
	default:
		return []gin.HandlerFunc{am.OptionalAuth(), rt.Handler}
	}
}
