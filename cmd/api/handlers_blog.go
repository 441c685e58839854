package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/internal/middleware"
	"github.com/loveaihub/loveaihub/pkg/models"
)

// blogCacheTTL bounds how stale a cached post can get
const blogCacheTTL = 5 * time.Minute

// slugRetries bounds slug collision retries before giving up
const slugRetries = 3

// listBlogPosts returns published posts, newest first
func (api *API) listBlogPosts(c *gin.Context) {
	limit, offset := paginationParams(c, 10, 50)

	posts, err := api.repo.ListBlogPosts(c.Request.Context(), true, limit, offset)
	if err != nil {
		api.log.ErrorWithErr("failed to list blog posts", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	if posts == nil {
		posts = []*models.BlogPost{}
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"limit":  limit,
		"offset": offset,
	})
}

// getBlogPostBySlug returns one published post. Every successful fetch
// counts one view, whether it is served from the cache or the database.
func (api *API) getBlogPostBySlug(c *gin.Context) {
	ctx := c.Request.Context()
	slugParam := c.Param("slug")

	cached, err := api.cache.GetBlogPost(ctx, slugParam)
	if err != nil {
		api.log.ErrorWithErr("failed to read blog cache", err)
	}
	if cached != nil {
		if err := api.repo.IncrementBlogViewCount(ctx, cached.ID); err != nil {
			api.log.ErrorWithErr("failed to increment view count", err)
		} else {
			cached.ViewCount++
		}
		c.JSON(http.StatusOK, gin.H{"post": cached})
		return
	}

	post, err := api.repo.GetBlogPostBySlug(ctx, slugParam)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		api.log.ErrorWithErr("failed to get blog post", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get post"})
		return
	}

	if err := api.cache.SetBlogPost(ctx, post, blogCacheTTL); err != nil {
		api.log.ErrorWithErr("failed to cache blog post", err)
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

type blogPostRequest struct {
	Title     string `json:"title" binding:"required"`
	Excerpt   string `json:"excerpt"`
	Content   string `json:"content" binding:"required"`
	Published bool   `json:"published"`
}

// adminListBlogPosts returns all posts including drafts
func (api *API) adminListBlogPosts(c *gin.Context) {
	limit, offset := paginationParams(c, 20, 100)

	posts, err := api.repo.ListBlogPosts(c.Request.Context(), false, limit, offset)
	if err != nil {
		api.log.ErrorWithErr("failed to list blog posts", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	total, err := api.repo.CountBlogPosts(c.Request.Context())
	if err != nil {
		api.log.ErrorWithErr("failed to count blog posts", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	if posts == nil {
		posts = []*models.BlogPost{}
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// adminCreateBlogPost creates a post, deriving a unique slug from the title
func (api *API) adminCreateBlogPost(c *gin.Context) {
	var req blogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and content are required"})
		return
	}

	authorID, _ := middleware.GetUserID(c)

	html, err := api.renderer.Render(req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to render content"})
		return
	}

	post := &models.BlogPost{
		Title:     req.Title,
		Slug:      slug.Make(req.Title),
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		HTML:      html,
		AuthorID:  authorID,
		Published: req.Published,
	}

	ctx := c.Request.Context()
	base := post.Slug
	for attempt := 0; ; attempt++ {
		err = api.repo.CreateBlogPost(ctx, post)
		if !errors.Is(err, database.ErrDuplicate) || attempt >= slugRetries {
			break
		}
		// Slug taken, try a suffixed one
		post.Slug = fmt.Sprintf("%s-%s", base, uuid.New().String()[:8])
	}
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "A post with this slug already exists"})
			return
		}
		api.log.ErrorWithErr("failed to create blog post", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// adminUpdateBlogPost updates a post and invalidates its cache entry
func (api *API) adminUpdateBlogPost(c *gin.Context) {
	var req blogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and content are required"})
		return
	}

	ctx := c.Request.Context()
	post, err := api.repo.GetBlogPost(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		api.log.ErrorWithErr("failed to get blog post", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	html, err := api.renderer.Render(req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to render content"})
		return
	}

	oldSlug := post.Slug
	post.Title = req.Title
	post.Excerpt = req.Excerpt
	post.Content = req.Content
	post.HTML = html
	post.Published = req.Published

	if err := api.repo.UpdateBlogPost(ctx, post); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "A post with this slug already exists"})
			return
		}
		api.log.ErrorWithErr("failed to update blog post", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	if err := api.cache.DeleteBlogPost(ctx, oldSlug); err != nil {
		api.log.ErrorWithErr("failed to invalidate blog cache", err)
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// adminDeleteBlogPost removes a post and invalidates its cache entry
func (api *API) adminDeleteBlogPost(c *gin.Context) {
	ctx := c.Request.Context()

	post, err := api.repo.GetBlogPost(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		api.log.ErrorWithErr("failed to get blog post", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	if err := api.repo.DeleteBlogPost(ctx, post.ID); err != nil {
		api.log.ErrorWithErr("failed to delete blog post", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	if err := api.cache.DeleteBlogPost(ctx, post.Slug); err != nil {
		api.log.ErrorWithErr("failed to invalidate blog cache", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}
