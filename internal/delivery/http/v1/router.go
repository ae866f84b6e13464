package v1

import (
	"time"

	"beta-signup/config"
	"beta-signup/internal/delivery/http/middleware"
	"beta-signup/internal/domain"
	"beta-signup/internal/usecase"
	"beta-signup/pkg/i18n"
	"beta-signup/pkg/session"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	SignupUC domain.SignupUsecase
	HealthUC usecase.HealthUsecase
	Sessions *session.Manager
	// Redis is optional; nil keeps rate limit counters in memory.
	Redis  *goredis.Client
	Config *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()
	r.SetHTMLTemplate(LoadTemplates())

	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	globalLimit := middleware.DefaultRateLimitConfig(cfg.RateLimitGlobalThreshold, window)
	globalLimit.Client = deps.Redis
	submitLimit := middleware.SubmitRateLimitConfig(cfg.RateLimitSubmitThreshold, window)
	submitLimit.Client = deps.Redis

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.SessionCookieSecure))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware(globalLimit))

	submit := middleware.RateLimitMiddleware(submitLimit)

	v1 := r.Group("/v1")

	// Probes and docs need no session
	NewHealthHandler(v1, deps.HealthUC)
	NewTranslationHandler(v1)
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	sessioned := r.Group("")
	sessioned.Use(middleware.SessionMiddleware(middleware.SessionConfig{
		Manager:         deps.Sessions,
		Secure:          cfg.SessionCookieSecure,
		DefaultLanguage: defaultLanguage(cfg),
	}))
	sessioned.Use(middleware.CSRFMiddleware(cfg.SessionCookieSecure))
	{
		NewPageHandler(sessioned, submit, deps.SignupUC)
		NewFormHandler(sessioned.Group("/v1"), submit, deps.SignupUC)
	}

	return r
}

func defaultLanguage(cfg *config.Config) i18n.Language {
	if lang, ok := i18n.Parse(cfg.DefaultLanguage); ok {
		return lang
	}
	return i18n.Chinese
}
