package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beta-signup/config"
	_ "beta-signup/docs" // Important for Swagger
	v1 "beta-signup/internal/delivery/http/v1"
	"beta-signup/internal/domain"
	"beta-signup/internal/repository/httpapi"
	"beta-signup/internal/repository/memory"
	"beta-signup/internal/repository/redisstore"
	"beta-signup/internal/usecase"
	"beta-signup/pkg/email"
	"beta-signup/pkg/i18n"
	"beta-signup/pkg/logger"
	"beta-signup/pkg/redis"
	"beta-signup/pkg/session"
	"beta-signup/pkg/validation"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// @title           Beta Tester Signup API
// @version         1.0
// @description     Session-backed beta tester signup form. Forwards valid signups to the beta tester backend.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	defer logger.Sync()
	logger.Log.Infow("Starting beta signup", "port", cfg.Port, "backend", cfg.BackendURL)

	// 3. Setup Redis (optional)
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
			logger.Log.Warnw("Redis unavailable, falling back to memory", "error", err)
		} else {
			redisClient = redis.Client()
			defer redis.Close()
		}
	}

	// 4. Setup Repositories
	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	betaRepo := httpapi.NewBetaTesterRepository(cfg.BackendURL, time.Duration(cfg.BackendTimeoutSeconds)*time.Second)

	bg, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	var sessionRepo domain.FormSessionRepository
	var storeCheck func(ctx context.Context) error
	if redisClient != nil {
		sessionRepo = redisstore.NewFormSessionRepository(redisClient, sessionTTL)
		storeCheck = redis.HealthCheck
	} else {
		memRepo := memory.NewFormSessionRepository(sessionTTL)
		memRepo.StartCleanup(bg, time.Minute)
		sessionRepo = memRepo
	}

	// 5. Setup Email Service
	var notifier domain.SignupNotifier
	emailService := email.NewEmailService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		To:       cfg.SignupNotifyTo,
	})
	if emailService.IsConfigured() {
		notifier = usecase.NewSignupNotifier(emailService)
	} else {
		logger.Log.Infow("Email service not configured - signup notifications disabled")
	}

	// 6. Setup UseCases
	defaultLang, ok := i18n.Parse(cfg.DefaultLanguage)
	if !ok {
		defaultLang = i18n.Chinese
	}
	signupUC := usecase.NewSignupUsecase(sessionRepo, betaRepo, validation.New(), usecase.SignupOptions{
		DefaultLanguage: defaultLang,
		Celebration:     time.Duration(cfg.CelebrationSeconds) * time.Second,
		Policy:          usecase.NewSubmissionErrorPolicy(cfg.SubmitErrorPolicy, cfg.SubmitDuplicateStatuses),
		Notifier:        notifier,
	})
	healthUC := usecase.NewHealthUsecase(betaRepo, storeCheck)

	// 7. Setup Sessions
	sessions, err := session.NewManager(cfg.SessionSecret, sessionTTL)
	if err != nil {
		logger.Log.Errorw("Failed to set up sessions", "error", err)
		os.Exit(1)
	}

	// 8. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		SignupUC: signupUC,
		HealthUC: healthUC,
		Sessions: sessions,
		Redis:    redisClient,
		Config:   cfg,
	})

	// 9. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorw("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Infow("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Errorw("Server forced to shutdown", "error", err)
	}

	logger.Log.Infow("Server exiting")
}
