package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/pkg/models"
)

// statsCacheTTL keeps the dashboard aggregate cheap under refresh
const statsCacheTTL = 60 * time.Second

// platformStats is the dashboard aggregate
type platformStats struct {
	Users       int64                     `json:"users"`
	BlogPosts   int64                     `json:"blog_posts"`
	Generations *database.GenerationStats `json:"generations"`
}

// adminStats returns platform-wide counters, cached for a minute
func (api *API) adminStats(c *gin.Context) {
	ctx := c.Request.Context()

	var cached platformStats
	hit, err := api.cache.GetAdminStats(ctx, &cached)
	if err != nil {
		api.log.ErrorWithErr("failed to read stats cache", err)
	}
	if hit {
		c.JSON(http.StatusOK, gin.H{"stats": cached, "cached": true})
		return
	}

	users, err := api.repo.CountUsers(ctx)
	if err != nil {
		api.log.ErrorWithErr("failed to count users", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	posts, err := api.repo.CountBlogPosts(ctx)
	if err != nil {
		api.log.ErrorWithErr("failed to count blog posts", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	gens, err := api.repo.GetGenerationStats(ctx)
	if err != nil {
		api.log.ErrorWithErr("failed to load generation stats", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	stats := platformStats{
		Users:       users,
		BlogPosts:   posts,
		Generations: gens,
	}

	if err := api.cache.SetAdminStats(ctx, stats, statsCacheTTL); err != nil {
		api.log.ErrorWithErr("failed to cache stats", err)
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats, "cached": false})
}

// adminListUsers returns registered users with pagination
func (api *API) adminListUsers(c *gin.Context) {
	limit, offset := paginationParams(c, 20, 100)
	ctx := c.Request.Context()

	users, err := api.repo.ListUsers(ctx, limit, offset)
	if err != nil {
		api.log.ErrorWithErr("failed to list users", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	total, err := api.repo.CountUsers(ctx)
	if err != nil {
		api.log.ErrorWithErr("failed to count users", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	if users == nil {
		users = []*models.User{}
	}
	c.JSON(http.StatusOK, gin.H{
		"users":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

type updateUserRequest struct {
	IsActive         *bool `json:"is_active"`
	IsAdmin          *bool `json:"is_admin"`
	GenerationsLimit *int  `json:"generations_limit"`
}

// adminUpdateUser applies account flag changes. Absent fields keep their
// current value.
func (api *API) adminUpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	user, err := api.repo.GetUser(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		api.log.ErrorWithErr("failed to get user", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}
	if req.GenerationsLimit != nil {
		if *req.GenerationsLimit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "generations_limit must not be negative"})
			return
		}
		user.GenerationsLimit = *req.GenerationsLimit
	}

	if err := api.repo.UpdateUserFlags(ctx, user.ID, user.IsActive, user.IsAdmin, user.GenerationsLimit); err != nil {
		api.log.WithUserID(user.ID).ErrorWithErr("failed to update user flags", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
