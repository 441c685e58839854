package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/loveaihub/loveaihub/internal/auth"
	"github.com/loveaihub/loveaihub/internal/billing"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/internal/queue"
	"github.com/loveaihub/loveaihub/pkg/models"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockStore) UpsertUserByEmail(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ConsumeQuota(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) RefundQuota(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *mockStore) SetSubscriptionTier(ctx context.Context, userID, tier string, generationsLimit int) error {
	return m.Called(ctx, userID, tier, generationsLimit).Error(0)
}

func (m *mockStore) UpdateUserFlags(ctx context.Context, userID string, isActive, isAdmin bool, generationsLimit int) error {
	return m.Called(ctx, userID, isActive, isAdmin, generationsLimit).Error(0)
}

func (m *mockStore) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if users := args.Get(0); users != nil {
		return users.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) CreateGeneration(ctx context.Context, gen *models.Generation) error {
	return m.Called(ctx, gen).Error(0)
}

func (m *mockStore) GetGeneration(ctx context.Context, id string) (*models.Generation, error) {
	args := m.Called(ctx, id)
	if gen := args.Get(0); gen != nil {
		return gen.(*models.Generation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) CompleteGeneration(ctx context.Context, id, status string, result models.Document) (*models.Generation, error) {
	args := m.Called(ctx, id, status, result)
	if gen := args.Get(0); gen != nil {
		return gen.(*models.Generation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListGenerationsByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Generation, error) {
	args := m.Called(ctx, userID, limit, offset)
	if gens := args.Get(0); gens != nil {
		return gens.([]*models.Generation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetGenerationStats(ctx context.Context) (*database.GenerationStats, error) {
	args := m.Called(ctx)
	if stats := args.Get(0); stats != nil {
		return stats.(*database.GenerationStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) CreateBlogPost(ctx context.Context, post *models.BlogPost) error {
	return m.Called(ctx, post).Error(0)
}

func (m *mockStore) UpdateBlogPost(ctx context.Context, post *models.BlogPost) error {
	return m.Called(ctx, post).Error(0)
}

func (m *mockStore) DeleteBlogPost(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) GetBlogPost(ctx context.Context, id string) (*models.BlogPost, error) {
	args := m.Called(ctx, id)
	if post := args.Get(0); post != nil {
		return post.(*models.BlogPost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	args := m.Called(ctx, slug)
	if post := args.Get(0); post != nil {
		return post.(*models.BlogPost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) IncrementBlogViewCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) ListBlogPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.BlogPost, error) {
	args := m.Called(ctx, publishedOnly, limit, offset)
	if posts := args.Get(0); posts != nil {
		return posts.([]*models.BlogPost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) CountBlogPosts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockStore) GetSubscriptionByRazorpayID(ctx context.Context, razorpayID string) (*models.Subscription, error) {
	args := m.Called(ctx, razorpayID)
	if sub := args.Get(0); sub != nil {
		return sub.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetActiveSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if sub := args.Get(0); sub != nil {
		return sub.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) UpdateSubscriptionStatus(ctx context.Context, razorpayID, status string, currentEnd *time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, razorpayID, status, currentEnd)
	if sub := args.Get(0); sub != nil {
		return sub.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockCache) SetBlogPost(ctx context.Context, post *models.BlogPost, ttl time.Duration) error {
	return m.Called(ctx, post, ttl).Error(0)
}

func (m *mockCache) GetBlogPost(ctx context.Context, slug string) (*models.BlogPost, error) {
	args := m.Called(ctx, slug)
	if post := args.Get(0); post != nil {
		return post.(*models.BlogPost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCache) DeleteBlogPost(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *mockCache) SetAdminStats(ctx context.Context, stats interface{}, ttl time.Duration) error {
	return m.Called(ctx, stats, ttl).Error(0)
}

func (m *mockCache) GetAdminStats(ctx context.Context, dest interface{}) (bool, error) {
	args := m.Called(ctx, dest)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) SetRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return m.Called(ctx, token, userID, ttl).Error(0)
}

func (m *mockCache) GetRefreshToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockCache) DeleteRefreshToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockCache) SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return m.Called(ctx, token, userID, ttl).Error(0)
}

func (m *mockCache) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockCache) SetOAuthState(ctx context.Context, state string, ttl time.Duration) error {
	return m.Called(ctx, state, ttl).Error(0)
}

func (m *mockCache) ConsumeOAuthState(ctx context.Context, state string) (bool, error) {
	args := m.Called(ctx, state)
	return args.Bool(0), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) rawResult(args mock.Arguments) (json.RawMessage, error) {
	if result := args.Get(0); result != nil {
		return result.(json.RawMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) GenerateImage(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return m.rawResult(m.Called(ctx, body))
}

func (m *mockProvider) GenerateVideo(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return m.rawResult(m.Called(ctx, body))
}

func (m *mockProvider) ChatCompletions(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return m.rawResult(m.Called(ctx, body))
}

func (m *mockProvider) GenerateSpeech(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return m.rawResult(m.Called(ctx, body))
}

func (m *mockProvider) Embeddings(ctx context.Context, body map[string]interface{}) (json.RawMessage, error) {
	return m.rawResult(m.Called(ctx, body))
}

func (m *mockProvider) Transcribe(ctx context.Context, model, filename string, file io.Reader) (json.RawMessage, error) {
	return m.rawResult(m.Called(ctx, model, filename, file))
}

func (m *mockProvider) EditImage(ctx context.Context, model, prompt, filename string, file io.Reader) (json.RawMessage, error) {
	return m.rawResult(m.Called(ctx, model, prompt, filename, file))
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishArchiveTask(ctx context.Context, task *queue.ArchiveTask) error {
	return m.Called(ctx, task).Error(0)
}

type mockBiller struct {
	mock.Mock
}

func (m *mockBiller) CreateSubscription(razorpayPlanID string, totalCount int, notes map[string]interface{}) (*billing.CreatedSubscription, error) {
	args := m.Called(razorpayPlanID, totalCount, notes)
	if sub := args.Get(0); sub != nil {
		return sub.(*billing.CreatedSubscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBiller) CancelSubscription(razorpaySubscriptionID string) error {
	return m.Called(razorpaySubscriptionID).Error(0)
}

func (m *mockBiller) VerifyWebhookSignature(body []byte, signature string) bool {
	return m.Called(body, signature).Bool(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendPasswordResetEmail(to, token string) error {
	return m.Called(to, token).Error(0)
}

type mockOAuth struct {
	mock.Mock
}

func (m *mockOAuth) AuthURL(state string) string {
	return m.Called(state).String(0)
}

func (m *mockOAuth) ExchangeCode(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *mockOAuth) GetUserInfo(ctx context.Context, accessToken string) (*auth.OAuthUserInfo, error) {
	args := m.Called(ctx, accessToken)
	if info := args.Get(0); info != nil {
		return info.(*auth.OAuthUserInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Open(filename string) (io.ReadCloser, string, error) {
	args := m.Called(filename)
	if file := args.Get(0); file != nil {
		return file.(io.ReadCloser), args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}
