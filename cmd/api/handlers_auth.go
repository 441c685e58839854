package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/internal/middleware"
	"github.com/loveaihub/loveaihub/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type signUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// signUp registers a new account with email and password
func (api *API) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email and password are required"})
		return
	}
	if len(req.Password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Password must be at least %d characters", minPasswordLength)})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.log.ErrorWithErr("failed to hash password", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	}

	ctx := c.Request.Context()
	if err := api.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
			return
		}
		api.log.ErrorWithErr("failed to create user", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	session, err := api.issueSession(ctx, user)
	if err != nil {
		api.log.WithUserID(user.ID).ErrorWithErr("failed to issue session", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "session": session})
}

// signIn authenticates with email and password
func (api *API) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email and password are required"})
		return
	}

	ctx := c.Request.Context()
	user, err := api.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		api.log.ErrorWithErr("failed to get user by email", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	}

	session, err := api.issueSession(ctx, user)
	if err != nil {
		api.log.WithUserID(user.ID).ErrorWithErr("failed to issue session", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "session": session})
}

// signOut revokes a refresh token
func (api *API) signOut(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	if err := api.cache.DeleteRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		api.log.ErrorWithErr("failed to delete refresh token", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// refreshSession rotates a refresh token and issues a new access token
func (api *API) refreshSession(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	ctx := c.Request.Context()
	userID, err := api.cache.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		api.log.ErrorWithErr("failed to get refresh token", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh session"})
		return
	}
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	user, err := api.repo.GetUser(ctx, userID)
	if err != nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found or deactivated"})
		return
	}

	// Rotate: the old token is single-use
	if err := api.cache.DeleteRefreshToken(ctx, req.RefreshToken); err != nil {
		api.log.WithUserID(userID).ErrorWithErr("failed to rotate refresh token", err)
	}

	session, err := api.issueSession(ctx, user)
	if err != nil {
		api.log.WithUserID(userID).ErrorWithErr("failed to issue session", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// currentUser returns the authenticated user's profile
func (api *API) currentUser(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	user, err := api.repo.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			return
		}
		api.log.WithUserID(userID).ErrorWithErr("failed to get user", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// requestPasswordReset mails a single-use reset token. The response does not
// reveal whether the email is registered.
func (api *API) requestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
		return
	}

	ctx := c.Request.Context()
	response := gin.H{"message": "If the email is registered, a reset link has been sent"}

	user, err := api.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			api.log.ErrorWithErr("failed to get user for password reset", err)
		}
		c.JSON(http.StatusOK, response)
		return
	}

	token := uuid.New().String()
	if err := api.cache.SetResetToken(ctx, token, user.ID, api.cfg.Auth.ResetTokenTTL); err != nil {
		api.log.WithUserID(user.ID).ErrorWithErr("failed to store reset token", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reset token"})
		return
	}

	if err := api.mailer.SendPasswordResetEmail(user.Email, token); err != nil {
		api.log.WithUserID(user.ID).ErrorWithErr("failed to send reset email", err)
	}

	c.JSON(http.StatusOK, response)
}

// updatePassword sets a new password, either with a reset token or with the
// current password over an authenticated session.
func (api *API) updatePassword(c *gin.Context) {
	var req struct {
		Token           string `json:"token"`
		CurrentPassword string `json:"current_password"`
		Password        string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}
	if len(req.Password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Password must be at least %d characters", minPasswordLength)})
		return
	}

	ctx := c.Request.Context()
	var userID string

	switch {
	case req.Token != "":
		resolved, err := api.cache.ConsumeResetToken(ctx, req.Token)
		if err != nil {
			api.log.ErrorWithErr("failed to consume reset token", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
			return
		}
		if resolved == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired reset token"})
			return
		}
		userID = resolved

	case req.CurrentPassword != "":
		claims, ok := middleware.ParseRequestToken(c)
		if !ok {
			return
		}
		user, err := api.repo.GetUser(ctx, claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
			return
		}
		userID = user.ID

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "token or current_password is required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.log.ErrorWithErr("failed to hash password", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	if err := api.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		api.log.WithUserID(userID).ErrorWithErr("failed to update password", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// googleSignIn starts the Google authorization-code flow
func (api *API) googleSignIn(c *gin.Context) {
	if api.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	state := uuid.New().String()
	if err := api.cache.SetOAuthState(c.Request.Context(), state, 10*time.Minute); err != nil {
		api.log.ErrorWithErr("failed to store oauth state", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start sign-in"})
		return
	}

	c.Redirect(http.StatusFound, api.google.AuthURL(state))
}

// googleCallback completes the Google flow and signs the user in
func (api *API) googleCallback(c *gin.Context) {
	if api.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	ctx := c.Request.Context()
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state and code are required"})
		return
	}

	valid, err := api.cache.ConsumeOAuthState(ctx, state)
	if err != nil {
		api.log.ErrorWithErr("failed to consume oauth state", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete sign-in"})
		return
	}
	if !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired state"})
		return
	}

	accessToken, err := api.google.ExchangeCode(ctx, code)
	if err != nil {
		api.log.ErrorWithErr("failed to exchange oauth code", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to complete sign-in"})
		return
	}

	info, err := api.google.GetUserInfo(ctx, accessToken)
	if err != nil {
		api.log.ErrorWithErr("failed to fetch oauth userinfo", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to complete sign-in"})
		return
	}
	if !info.EmailVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Google account email is not verified"})
		return
	}

	user := &models.User{
		Email:       strings.ToLower(info.Email),
		DisplayName: info.Name,
		AvatarURL:   info.Picture,
	}
	if err := api.repo.UpsertUserByEmail(ctx, user); err != nil {
		api.log.ErrorWithErr("failed to upsert oauth user", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete sign-in"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	}

	session, err := api.issueSession(ctx, user)
	if err != nil {
		api.log.WithUserID(user.ID).ErrorWithErr("failed to issue session", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	// Tokens ride in the fragment so they never hit server logs
	redirect := fmt.Sprintf("%s/auth/complete#access_token=%s&refresh_token=%s",
		api.cfg.Server.BaseURL, session.AccessToken, session.RefreshToken)
	c.Redirect(http.StatusFound, redirect)
}

// Session is the token pair issued on sign-in
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// issueSession mints an access token and stores a fresh refresh token
func (api *API) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	accessToken, err := middleware.GenerateToken(user.ID, user.Email, api.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken := uuid.New().String()
	if err := api.cache.SetRefreshToken(ctx, refreshToken, user.ID, api.cfg.Auth.RefreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(api.cfg.Auth.AccessTokenTTL.Seconds()),
	}, nil
}
