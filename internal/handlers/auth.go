package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/events"
	"github.com/emilythestrangee/forum/backend/internal/identity"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/presence"
)

const (
	msgTaken          = "Username or Email already taken."
	msgBadCredentials = "Invalid username/email or password."
	msgNoSuchEmail    = "No user found with that email address."
	msgBadResetToken  = "Invalid or expired reset token."
)

type AuthHandler struct {
	accounts  AccountStore
	presence  PresenceStore
	issuer    *identity.Issuer
	directory identity.Directory
	mailer    identity.Mailer
	notifier
	now func() time.Time
}

// Register creates an account. Without an email the account signs in
// under a synthetic address derived from the username.
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		email = h.directory.SyntheticEmail(input.Username)
	}

	hash, err := identity.HashPassword(input.Password)
	if err != nil {
		serverError(c, err)
		return
	}

	account := &models.Account{
		Email:        email,
		DisplayName:  input.Username,
		PasswordHash: hash,
	}
	err = h.accounts.Create(c.Request.Context(), account)
	switch {
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": msgTaken})
		return
	case err != nil:
		serverError(c, err)
		return
	}

	h.signIn(c, http.StatusCreated, account)
}

// Login accepts a username or an email as the identifier
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(h.directory.LoginEmail(input.Identifier))
	account, err := h.accounts.GetByEmail(c.Request.Context(), email)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgBadCredentials})
		return
	case err != nil:
		serverError(c, err)
		return
	}

	if err := identity.CheckPassword(account.PasswordHash, input.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgBadCredentials})
		return
	}

	h.signIn(c, http.StatusOK, account)
}

func (h *AuthHandler) signIn(c *gin.Context, status int, account *models.Account) {
	token, err := h.issuer.Issue(account)
	if err != nil {
		serverError(c, err)
		return
	}

	h.touch(c.Request.Context(), &identity.Session{
		UserID:  account.ID,
		Name:    account.DisplayName,
		Email:   account.Email,
		Picture: account.PhotoURL,
	})

	c.JSON(status, models.AuthResponse{Token: token, User: account})
}

// touch records an auth state change in presence. A failure here does
// not undo the sign in.
func (h *AuthHandler) touch(ctx context.Context, s *identity.Session) {
	record := presence.Record(s, h.now())
	if err := h.presence.Upsert(ctx, record); err != nil {
		h.logger.WarnContext(ctx, "update presence", "user_id", s.UserID, "error", err)
		return
	}
	h.publish(ctx, events.Updated, record.UserID, record, events.PresenceTopic)
}

// Logout marks the caller offline. Tokens are stateless and stay valid
// until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	if err := h.presence.SetOffline(c.Request.Context(), sess.UserID, h.now().UTC()); err != nil {
		serverError(c, err)
		return
	}
	h.publish(c.Request.Context(), events.Updated, sess.UserID, nil, events.PresenceTopic)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// RequestPasswordReset mails a reset token to an existing account
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var input models.PasswordResetRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNoSuchEmail})
		return
	case err != nil:
		serverError(c, err)
		return
	}

	token, err := h.issuer.IssueReset(account)
	if err != nil {
		serverError(c, err)
		return
	}
	if err := h.mailer.SendPasswordReset(c.Request.Context(), account.Email, token); err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Password reset email sent."})
}

// ConfirmPasswordReset sets a new password using a reset token
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var input models.PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.issuer.VerifyReset(input.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadResetToken})
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), claims.Subject)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadResetToken})
		return
	case err != nil:
		serverError(c, err)
		return
	}
	if !identity.MatchesReset(claims, account.PasswordHash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadResetToken})
		return
	}

	hash, err := identity.HashPassword(input.Password)
	if err != nil {
		serverError(c, err)
		return
	}
	if err := h.accounts.UpdatePassword(c.Request.Context(), account.ID, hash); err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated."})
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), sess.UserID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	case err != nil:
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
