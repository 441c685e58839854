package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/loveaihub/loveaihub/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Cache provides caching and short-lived token storage using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Blog post cache

// SetBlogPost caches a published post keyed by slug
func (c *Cache) SetBlogPost(ctx context.Context, post *models.BlogPost, ttl time.Duration) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal blog post: %w", err)
	}

	key := fmt.Sprintf("blog:slug:%s", post.Slug)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetBlogPost retrieves a cached post by slug. A cache miss returns (nil, nil).
func (c *Cache) GetBlogPost(ctx context.Context, slug string) (*models.BlogPost, error) {
	key := fmt.Sprintf("blog:slug:%s", slug)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get blog post from cache: %w", err)
	}

	var post models.BlogPost
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blog post: %w", err)
	}

	return &post, nil
}

// DeleteBlogPost invalidates a cached post after an admin write
func (c *Cache) DeleteBlogPost(ctx context.Context, slug string) error {
	key := fmt.Sprintf("blog:slug:%s", slug)
	return c.client.Del(ctx, key).Err()
}

// Admin stats cache

// SetAdminStats caches the admin dashboard aggregate
func (c *Cache) SetAdminStats(ctx context.Context, stats interface{}, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal admin stats: %w", err)
	}
	return c.client.Set(ctx, "admin:stats", data, ttl).Err()
}

// GetAdminStats retrieves cached admin stats into dest.
// Returns false on a cache miss.
func (c *Cache) GetAdminStats(ctx context.Context, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, "admin:stats").Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get admin stats from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal admin stats: %w", err)
	}
	return true, nil
}

// Auth token storage

// SetRefreshToken stores an opaque refresh token for a user
func (c *Cache) SetRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	key := fmt.Sprintf("auth:refresh:%s", token)
	return c.client.Set(ctx, key, userID, ttl).Err()
}

// GetRefreshToken resolves a refresh token to a user ID.
// An unknown token returns an empty string.
func (c *Cache) GetRefreshToken(ctx context.Context, token string) (string, error) {
	key := fmt.Sprintf("auth:refresh:%s", token)
	userID, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get refresh token: %w", err)
	}
	return userID, nil
}

// DeleteRefreshToken revokes a refresh token on sign-out
func (c *Cache) DeleteRefreshToken(ctx context.Context, token string) error {
	key := fmt.Sprintf("auth:refresh:%s", token)
	return c.client.Del(ctx, key).Err()
}

// SetResetToken stores a password-reset token for a user
func (c *Cache) SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	key := fmt.Sprintf("auth:reset:%s", token)
	return c.client.Set(ctx, key, userID, ttl).Err()
}

// ConsumeResetToken resolves a password-reset token and deletes it so it
// cannot be replayed. An unknown token returns an empty string.
func (c *Cache) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	key := fmt.Sprintf("auth:reset:%s", token)
	userID, err := c.client.GetDel(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}

// OAuth state

// SetOAuthState stores an OAuth state nonce
func (c *Cache) SetOAuthState(ctx context.Context, state string, ttl time.Duration) error {
	key := fmt.Sprintf("auth:oauth:state:%s", state)
	return c.client.Set(ctx, key, "1", ttl).Err()
}

// ConsumeOAuthState verifies and deletes an OAuth state nonce
func (c *Cache) ConsumeOAuthState(ctx context.Context, state string) (bool, error) {
	key := fmt.Sprintf("auth:oauth:state:%s", state)
	_, err := c.client.GetDel(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return true, nil
}
