package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"circdesk/database"
	"circdesk/internal/config"
	"circdesk/internal/http-api/handler"
	"circdesk/internal/http-api/middleware"
	"circdesk/internal/http-api/repository"
	"circdesk/internal/http-api/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	}

	userRepo := repository.NewUserRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	copyRepo := repository.NewCopyRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	holdRepo := repository.NewHoldRepository(db)
	fineRepo := repository.NewFineRepository(db)
	tx := repository.NewTxRunner(db)

	clock := service.NewClock()
	policy := service.NewAccessPolicy(userRepo)

	authService := service.NewAuthService(userRepo, cfg, clock)
	loanService := service.NewLoanService(loanRepo, copyRepo, fineRepo, policy, tx, clock)
	holdService := service.NewHoldService(holdRepo, titleRepo, copyRepo, policy, tx, clock, logger)
	fineService := service.NewFineService(fineRepo, userRepo, policy, clock)
	catalogService := service.NewCatalogService(titleRepo, copyRepo, policy, cache, cfg.CacheTTL, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.NewRateLimiter(20, 40).Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	handler.NewAuthHandler(authService).RegisterRoutes(api.Group("/auth"))

	authed := api.Group("/")
	authed.Use(middleware.AuthMiddleware(authService))
	handler.NewLoanHandler(loanService).RegisterRoutes(authed.Group("/loans"))
	handler.NewHoldHandler(holdService).RegisterRoutes(authed.Group("/holds"))
	handler.NewFineHandler(fineService).RegisterRoutes(authed.Group("/fines"))
	handler.NewCatalogHandler(catalogService).RegisterRoutes(authed.Group("/catalog"))

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("api server listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
