package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loveaihub/loveaihub/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	SetJWTSecret("test-secret")
}

func protectedRouter() *gin.Engine {
	router := gin.New()
	router.GET("/protected", Auth(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestAuth_ValidToken(t *testing.T) {
	router := protectedRouter()

	token, err := GenerateToken("user-1", "user@example.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestAuth_MissingHeader(t *testing.T) {
	router := protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	router := protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	router := protectedRouter()

	token, err := GenerateToken("user-1", "user@example.com", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type staticLoader struct {
	user *models.User
	err  error
}

func (l *staticLoader) GetUser(ctx context.Context, id string) (*models.User, error) {
	return l.user, l.err
}

func adminRouter(loader UserLoader) *gin.Engine {
	router := gin.New()
	router.GET("/admin", Auth(), RequireAdmin(loader), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	loader := &staticLoader{user: &models.User{ID: "admin-1", IsAdmin: true, IsActive: true}}
	router := adminRouter(loader)

	token, err := GenerateToken("admin-1", "admin@example.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_RejectsNonAdmin(t *testing.T) {
	loader := &staticLoader{user: &models.User{ID: "user-1", IsAdmin: false, IsActive: true}}
	router := adminRouter(loader)

	token, err := GenerateToken("user-1", "user@example.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_RejectsDeactivatedAdmin(t *testing.T) {
	loader := &staticLoader{user: &models.User{ID: "admin-1", IsAdmin: true, IsActive: false}}
	router := adminRouter(loader)

	token, err := GenerateToken("admin-1", "admin@example.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_UnknownUser(t *testing.T) {
	loader := &staticLoader{err: errors.New("not found")}
	router := adminRouter(loader)

	token, err := GenerateToken("ghost", "ghost@example.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
