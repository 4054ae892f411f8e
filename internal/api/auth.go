package api

import (
	"context"

	"github.com/me/acadeval/pkg/model"
)

// AuthService wraps the /auth endpoints.
type AuthService struct{ c *Client }

// Auth returns the authentication endpoints.
func (c *Client) Auth() AuthService { return AuthService{c} }

// Login exchanges a username and password for a token envelope.
func (s AuthService) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	var out model.TokenResponse
	req := model.LoginRequest{Username: username, Password: password}
	if err := s.c.Post(ctx, "/auth/login", req, &out, Public()); err != nil {
		return nil, err
	}
	return &out, nil
}

// StudentLogin exchanges a student number and name for a token envelope.
func (s AuthService) StudentLogin(ctx context.Context, studentNumber, lastName, firstName string) (*model.TokenResponse, error) {
	var out model.TokenResponse
	req := model.StudentLoginRequest{StudentNumber: studentNumber, LastName: lastName, FirstName: firstName}
	if err := s.c.Post(ctx, "/auth/login/student", req, &out, Public()); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh trades a refresh token for a new envelope.
func (s AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	var out model.TokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := s.c.Post(ctx, "/auth/refresh", body, &out, Public()); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the identity the server associates with the current token.
func (s AuthService) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := s.c.Get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the server the token is no longer in use.
func (s AuthService) Logout(ctx context.Context) error {
	return s.c.Post(ctx, "/auth/logout", nil, nil)
}
