package main

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func adminAuth(t *testing.T, m *testMocks) string {
	t.Helper()

	admin := &models.User{ID: "admin-1", Email: "admin@example.com", IsAdmin: true, IsActive: true}
	m.store.On("GetUser", mock.Anything, "admin-1").Return(admin, nil)
	return bearerToken(t, "admin-1")
}

func TestGetBlogPost_CacheMiss(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()

	post := &models.BlogPost{ID: "post-1", Title: "Hello", Slug: "hello", Published: true, ViewCount: 4}
	m.cache.On("GetBlogPost", mock.Anything, "hello").Return(nil, nil)
	m.store.On("GetBlogPostBySlug", mock.Anything, "hello").Return(post, nil)
	m.cache.On("SetBlogPost", mock.Anything, post, blogCacheTTL).Return(nil)

	w := doJSON(router, http.MethodGet, "/api/blog/hello", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Hello", body["post"].(map[string]interface{})["title"])
	m.cache.AssertExpectations(t)
}

func TestGetBlogPost_CacheHitStillCountsView(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()

	post := &models.BlogPost{ID: "post-1", Title: "Hello", Slug: "hello", Published: true, ViewCount: 4}
	m.cache.On("GetBlogPost", mock.Anything, "hello").Return(post, nil)
	m.store.On("IncrementBlogViewCount", mock.Anything, "post-1").Return(nil)

	w := doJSON(router, http.MethodGet, "/api/blog/hello", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(5), body["post"].(map[string]interface{})["view_count"])
	m.store.AssertNotCalled(t, "GetBlogPostBySlug", mock.Anything, mock.Anything)
	m.store.AssertExpectations(t)
}

func TestGetBlogPost_NotFound(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()

	m.cache.On("GetBlogPost", mock.Anything, "missing").Return(nil, nil)
	m.store.On("GetBlogPostBySlug", mock.Anything, "missing").Return(nil, database.ErrNotFound)

	w := doJSON(router, http.MethodGet, "/api/blog/missing", "", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBlogPosts_PublishedOnly(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()

	posts := []*models.BlogPost{{ID: "post-1", Title: "Hello", Slug: "hello", Published: true}}
	m.store.On("ListBlogPosts", mock.Anything, true, 10, 0).Return(posts, nil)

	w := doJSON(router, http.MethodGet, "/api/blog", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	m.store.AssertExpectations(t)
}

func TestAdminCreateBlogPost(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()
	token := adminAuth(t, m)

	m.store.On("CreateBlogPost", mock.Anything, mock.AnythingOfType("*models.BlogPost")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.BlogPost).ID = "post-1"
		}).Return(nil)

	w := doJSON(router, http.MethodPost, "/api/admin/blog", token, gin.H{
		"title":     "Ship Faster With AI",
		"content":   "# Heading\n\nSome **markdown** here.",
		"published": true,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	post := body["post"].(map[string]interface{})
	assert.Equal(t, "ship-faster-with-ai", post["slug"])
	assert.Contains(t, post["html"], "<strong>markdown</strong>")
}

func TestAdminCreateBlogPost_SlugCollisionRetries(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()
	token := adminAuth(t, m)

	m.store.On("CreateBlogPost", mock.Anything, mock.MatchedBy(func(post *models.BlogPost) bool {
		return post.Slug == "hello"
	})).Return(database.ErrDuplicate).Once()
	m.store.On("CreateBlogPost", mock.Anything, mock.MatchedBy(func(post *models.BlogPost) bool {
		return post.Slug != "hello"
	})).Return(nil).Once()

	w := doJSON(router, http.MethodPost, "/api/admin/blog", token, gin.H{
		"title":   "Hello",
		"content": "body",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	slug := body["post"].(map[string]interface{})["slug"].(string)
	assert.NotEqual(t, "hello", slug)
	assert.Contains(t, slug, "hello-")
	m.store.AssertExpectations(t)
}

func TestAdminCreateBlogPost_SanitizesHTML(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()
	token := adminAuth(t, m)

	m.store.On("CreateBlogPost", mock.Anything, mock.Anything).Return(nil)

	w := doJSON(router, http.MethodPost, "/api/admin/blog", token, gin.H{
		"title":   "Sneaky",
		"content": "hi <script>alert(1)</script>",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	html := body["post"].(map[string]interface{})["html"].(string)
	assert.NotContains(t, html, "<script>")
}

func TestAdminUpdateBlogPost_InvalidatesCache(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()
	token := adminAuth(t, m)

	post := &models.BlogPost{ID: "post-1", Title: "Old", Slug: "old", Content: "old", Published: true}
	m.store.On("GetBlogPost", mock.Anything, "post-1").Return(post, nil)
	m.store.On("UpdateBlogPost", mock.Anything, mock.AnythingOfType("*models.BlogPost")).Return(nil)
	m.cache.On("DeleteBlogPost", mock.Anything, "old").Return(nil)

	w := doJSON(router, http.MethodPut, "/api/admin/blog/post-1", token, gin.H{
		"title":     "New Title",
		"content":   "updated body",
		"published": true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	m.cache.AssertExpectations(t)
}

func TestAdminDeleteBlogPost(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()
	token := adminAuth(t, m)

	post := &models.BlogPost{ID: "post-1", Slug: "hello"}
	m.store.On("GetBlogPost", mock.Anything, "post-1").Return(post, nil)
	m.store.On("DeleteBlogPost", mock.Anything, "post-1").Return(nil)
	m.cache.On("DeleteBlogPost", mock.Anything, "hello").Return(nil)

	w := doJSON(router, http.MethodDelete, "/api/admin/blog/post-1", token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	m.store.AssertExpectations(t)
}

func TestAdminBlog_ForbiddenForNonAdmins(t *testing.T) {
	api, m := newTestAPI(t)
	router := api.setupRouter()

	user := &models.User{ID: "user-1", IsAdmin: false, IsActive: true}
	m.store.On("GetUser", mock.Anything, "user-1").Return(user, nil)

	w := doJSON(router, http.MethodPost, "/api/admin/blog", bearerToken(t, "user-1"), gin.H{
		"title":   "Nope",
		"content": "nope",
	})

	require.Equal(t, http.StatusForbidden, w.Code)
	m.store.AssertNotCalled(t, "CreateBlogPost", mock.Anything, mock.Anything)
}
