package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/service"
)

type RouterConfig struct {
	Cookie         CookieConfig
	AllowedOrigins []string
}

// NewRouter assembles the HTTP surface. Every protected route goes through
// the same pipeline: rate limit, then authentication, then the handler.
func NewRouter(
	auth *service.AuthService,
	users *service.UserService,
	issues *service.IssueService,
	limiter *service.RateLimiter,
	cfg RouterConfig,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	mw := NewMiddleware(auth, limiter, logger)
	authHandler := NewAuthHandler(auth, cfg.Cookie, logger)
	userHandler := NewUserHandler(users, logger)
	issueHandler := NewIssueHandler(issues, logger)

	public := PipelineOptions{RateLimit: true}
	protected := DefaultPipeline()

	router.GET("/health", Health)
	router.GET("/openapi.json", OpenAPIDoc)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", mw.Pipeline(public), authHandler.Register)
		authGroup.POST("/login", mw.Pipeline(public), authHandler.Login)
		authGroup.POST("/refresh", mw.Pipeline(public), authHandler.Refresh)
		authGroup.POST("/logout", mw.Pipeline(protected), authHandler.Logout)
	}

	issueGroup := router.Group("/issues", mw.Pipeline(protected))
	{
		issueGroup.GET("", issueHandler.List)
		issueGroup.POST("", issueHandler.Create)
		issueGroup.GET("/:id", issueHandler.Get)
		issueGroup.PUT("/:id", issueHandler.Update)
		issueGroup.DELETE("/:id", issueHandler.Delete)
	}

	userGroup := router.Group("/users", mw.Pipeline(protected))
	{
		userGroup.GET("/profile", userHandler.GetProfile)
		userGroup.PUT("/profile", userHandler.UpdateProfile)
		userGroup.PUT("/profile/password", userHandler.ChangePassword)
	}

	return router
}
