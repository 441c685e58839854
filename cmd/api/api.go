package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loveaihub/loveaihub/internal/auth"
	"github.com/loveaihub/loveaihub/internal/billing"
	"github.com/loveaihub/loveaihub/internal/config"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/internal/logging"
	"github.com/loveaihub/loveaihub/internal/markdown"
	"github.com/loveaihub/loveaihub/internal/middleware"
	"github.com/loveaihub/loveaihub/internal/queue"
	"github.com/loveaihub/loveaihub/pkg/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the persistence surface the handlers depend on,
// implemented by database.Repository.
type Store interface {
	Health(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	UpsertUserByEmail(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ConsumeQuota(ctx context.Context, userID string) (*models.User, error)
	RefundQuota(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetSubscriptionTier(ctx context.Context, userID, tier string, generationsLimit int) error
	UpdateUserFlags(ctx context.Context, userID string, isActive, isAdmin bool, generationsLimit int) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	CreateGeneration(ctx context.Context, gen *models.Generation) error
	GetGeneration(ctx context.Context, id string) (*models.Generation, error)
	CompleteGeneration(ctx context.Context, id, status string, result models.Document) (*models.Generation, error)
	ListGenerationsByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Generation, error)
	GetGenerationStats(ctx context.Context) (*database.GenerationStats, error)

	CreateBlogPost(ctx context.Context, post *models.BlogPost) error
	UpdateBlogPost(ctx context.Context, post *models.BlogPost) error
	DeleteBlogPost(ctx context.Context, id string) error
	GetBlogPost(ctx context.Context, id string) (*models.BlogPost, error)
	GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	IncrementBlogViewCount(ctx context.Context, id string) error
	ListBlogPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.BlogPost, error)
	CountBlogPosts(ctx context.Context) (int64, error)

	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscriptionByRazorpayID(ctx context.Context, razorpayID string) (*models.Subscription, error)
	GetActiveSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, razorpayID, status string, currentEnd *time.Time) (*models.Subscription, error)
}

// Cache is the Redis surface the handlers depend on
type Cache interface {
	Ping(ctx context.Context) error

	SetBlogPost(ctx context.Context, post *models.BlogPost, ttl time.Duration) error
	GetBlogPost(ctx context.Context, slug string) (*models.BlogPost, error)
	DeleteBlogPost(ctx context.Context, slug string) error

	SetAdminStats(ctx context.Context, stats interface{}, ttl time.Duration) error
	GetAdminStats(ctx context.Context, dest interface{}) (bool, error)

	SetRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, token string) (string, error)
	DeleteRefreshToken(ctx context.Context, token string) error

	SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)

	SetOAuthState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeOAuthState(ctx context.Context, state string) (bool, error)
}

// Provider is the upstream AI API surface
type Provider interface {
	GenerateImage(ctx context.Context, body map[string]interface{}) (json.RawMessage, error)
	GenerateVideo(ctx context.Context, body map[string]interface{}) (json.RawMessage, error)
	ChatCompletions(ctx context.Context, body map[string]interface{}) (json.RawMessage, error)
	GenerateSpeech(ctx context.Context, body map[string]interface{}) (json.RawMessage, error)
	Embeddings(ctx context.Context, body map[string]interface{}) (json.RawMessage, error)
	Transcribe(ctx context.Context, model, filename string, file io.Reader) (json.RawMessage, error)
	EditImage(ctx context.Context, model, prompt, filename string, file io.Reader) (json.RawMessage, error)
}

// Publisher queues archive tasks for the worker
type Publisher interface {
	PublishArchiveTask(ctx context.Context, task *queue.ArchiveTask) error
}

// Biller is the payment gateway surface
type Biller interface {
	CreateSubscription(razorpayPlanID string, totalCount int, notes map[string]interface{}) (*billing.CreatedSubscription, error)
	CancelSubscription(razorpaySubscriptionID string) error
	VerifyWebhookSignature(body []byte, signature string) bool
}

// Mailer sends transactional email
type Mailer interface {
	SendPasswordResetEmail(to, token string) error
}

// OAuthProvider drives the Google sign-in flow
type OAuthProvider interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	GetUserInfo(ctx context.Context, accessToken string) (*auth.OAuthUserInfo, error)
}

// ImageArchive serves archived generation images
type ImageArchive interface {
	Open(filename string) (io.ReadCloser, string, error)
}

// API holds the handler dependencies
type API struct {
	cfg      *config.Config
	log      *logging.Logger
	repo     Store
	cache    Cache
	provider Provider
	queue    Publisher
	billing  Biller
	mailer   Mailer
	google   OAuthProvider
	images   ImageArchive
	renderer *markdown.Renderer
}

// setupRouter wires all routes and middleware
func (api *API) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(api.log))

	router.GET("/health", api.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimiter := middleware.NewRateLimiter(api.cfg.Server.RateLimitRPS, api.cfg.Server.RateLimitBurst)

	// Auth
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/signup", api.signUp)
		authGroup.POST("/signin", api.signIn)
		authGroup.POST("/signout", api.signOut)
		authGroup.POST("/refresh", api.refreshSession)
		authGroup.POST("/reset-password", api.requestPasswordReset)
		authGroup.POST("/update-password", api.updatePassword)
		authGroup.GET("/user", middleware.Auth(), api.currentUser)
		authGroup.GET("/google", api.googleSignIn)
	}
	router.GET("/auth/callback", api.googleCallback)

	// Public content
	router.GET("/api/models", api.listModels)
	router.GET("/api/blog", api.listBlogPosts)
	router.GET("/api/blog/:slug", api.getBlogPostBySlug)
	router.GET("/api/plans", api.listPlans)
	router.GET("/api/images/:filename", api.serveImage)
	router.POST("/api/billing/webhook", api.billingWebhook)

	// Generation endpoints
	limited := []gin.HandlerFunc{middleware.Auth(), middleware.RateLimit(rateLimiter)}
	generate := router.Group("/api/generate", limited...)
	{
		generate.POST("/image", api.generateImage)
		generate.POST("/video", api.generateVideo)
		generate.POST("/audio", api.generateAudio)
	}
	router.POST("/api/chat/completions", append(limited, api.chatCompletion)...)
	router.POST("/api/embeddings", append(limited, api.generateEmbeddings)...)
	router.POST("/api/transcribe", append(limited, api.transcribeAudio)...)
	router.POST("/api/edit/image", append(limited, api.editImage)...)

	authed := router.Group("/api")
	authed.Use(middleware.Auth())
	{
		authed.GET("/generations", api.listGenerations)
		authed.GET("/generations/:id", api.getGeneration)
		authed.POST("/subscribe", api.subscribe)
		authed.GET("/subscription", api.getSubscription)
		authed.POST("/subscription/cancel", api.cancelSubscription)
	}

	// Admin endpoints
	admin := router.Group("/api/admin")
	admin.Use(middleware.Auth(), middleware.RequireAdmin(api.repo))
	{
		admin.GET("/stats", api.adminStats)
		admin.GET("/users", api.adminListUsers)
		admin.PATCH("/users/:id", api.adminUpdateUser)
		admin.GET("/blog", api.adminListBlogPosts)
		admin.POST("/blog", api.adminCreateBlogPost)
		admin.PUT("/blog/:id", api.adminUpdateBlogPost)
		admin.DELETE("/blog/:id", api.adminDeleteBlogPost)
	}

	return router
}
