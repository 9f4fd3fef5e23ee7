package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/0x6d61/storefront/internal/domain"
)

// AuthService handles login, registration and the current session.
type AuthService struct {
	client *Client
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login authenticates and makes the returned session current. Bad
// credentials yield a *domain.AuthError.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if err := domain.ValidateLogin(email, password); err != nil {
		return nil, err
	}

	var resp authResponse
	err := s.client.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{
		Email:    strings.TrimSpace(email),
		Password: strings.TrimSpace(password),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return nil, &domain.AuthError{Message: "Login failed. Please try again."}
	}

	sess := &domain.Session{Token: resp.Token, User: normalizeUser(resp.User)}
	s.client.setSession(sess)
	s.client.logger.Info("logged in",
		zap.String("user", sess.User.Email),
		zap.String("role", string(sess.User.Role)))
	return sess, nil
}

// Register creates an account. When actingAsAdmin is true the new user is
// created under the admin's session and the admin stays logged in;
// otherwise the new account becomes the current session.
func (s *AuthService) Register(ctx context.Context, in domain.RegisterInput, actingAsAdmin bool) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}

	var resp authResponse
	err := s.client.do(ctx, http.MethodPost, "/api/auth/register", registerRequest{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Password: strings.TrimSpace(in.Password),
		Role:     in.Role,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user := normalizeUser(resp.User)
	if !actingAsAdmin && resp.Token != "" {
		s.client.setSession(&domain.Session{Token: resp.Token, User: user})
	}
	return &user, nil
}

// Logout forgets the current session. The API is stateless so no request
// is sent.
func (s *AuthService) Logout() {
	s.client.setSession(nil)
}

// Current returns the current session, or nil when anonymous.
func (s *AuthService) Current() *domain.Session {
	return s.client.currentSession()
}

// IsAuthenticated reports whether a session is present.
func (s *AuthService) IsAuthenticated() bool {
	return s.client.currentSession() != nil
}

// IsAdmin reports whether the current session has the Admin role.
func (s *AuthService) IsAdmin() bool {
	return s.client.currentSession().IsAdmin()
}

func normalizeUser(u domain.User) domain.User {
	u.Role = domain.ParseRole(string(u.Role))
	return u
}
