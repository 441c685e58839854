package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/loveaihub/loveaihub/internal/a4f"
	"github.com/loveaihub/loveaihub/internal/auth"
	"github.com/loveaihub/loveaihub/internal/billing"
	"github.com/loveaihub/loveaihub/internal/cache"
	"github.com/loveaihub/loveaihub/internal/config"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/internal/email"
	"github.com/loveaihub/loveaihub/internal/imagestore"
	"github.com/loveaihub/loveaihub/internal/logging"
	"github.com/loveaihub/loveaihub/internal/markdown"
	"github.com/loveaihub/loveaihub/internal/middleware"
	"github.com/loveaihub/loveaihub/internal/queue"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewDefaultLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	middleware.SetJWTSecret(cfg.Auth.JWTSecret)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	repo := database.NewRepository(db)

	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisCache.Close()

	mq, err := queue.New(cfg.Queue)
	if err != nil {
		log.Fatalf("failed to connect to queue: %v", err)
	}
	defer mq.Close()

	images, err := imagestore.New(cfg.Images.Dir)
	if err != nil {
		log.Fatalf("failed to create image store: %v", err)
	}

	api := &API{
		cfg:      cfg,
		log:      log,
		repo:     repo,
		cache:    redisCache,
		provider: a4f.NewClient(cfg.A4F.BaseURL, cfg.A4F.APIKey, cfg.A4F.Timeout),
		queue:    mq,
		billing:  billing.New(cfg.Billing.KeyID, cfg.Billing.KeySecret, cfg.Billing.WebhookSecret),
		mailer:   email.NewMailer(cfg.Email, cfg.Server.BaseURL),
		images:   images,
		renderer: markdown.NewRenderer(),
	}

	if cfg.Auth.GoogleClientID != "" {
		api.google = auth.NewGoogleOAuthClient(auth.GoogleOAuthConfig{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			RedirectURL:  cfg.Server.BaseURL + "/auth/callback",
		})
	} else {
		log.Warn("google sign-in disabled: no client id configured")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.setupRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("API server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr("graceful shutdown failed", err)
	}
	log.Info("server stopped")
}
