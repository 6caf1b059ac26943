package client

import (
	"context"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// Register creates an account. Email may be empty.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	res, err := c.r(ctx, "").
		SetBody(models.RegisterRequest{Username: username, Email: email, Password: password}).
		SetResult(&out).
		Post("/api/auth/register")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login signs in with a username or an email.
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	var out AuthResponse
	res, err := c.r(ctx, "").
		SetBody(models.LoginRequest{Identifier: identifier, Password: password}).
		SetResult(&out).
		Post("/api/auth/login")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return check(c.r(ctx, token).Post("/api/auth/logout"))
}

func (c *Client) Me(ctx context.Context, token string) (*Account, error) {
	var out Account
	res, err := c.r(ctx, token).SetResult(&out).Get("/api/me")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return check(c.r(ctx, "").
		SetBody(models.PasswordResetRequest{Email: email}).
		Post("/api/auth/password-reset"))
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, resetToken, password string) error {
	return check(c.r(ctx, "").
		SetBody(models.PasswordResetConfirmRequest{Token: resetToken, Password: password}).
		Post("/api/auth/password-reset/confirm"))
}
