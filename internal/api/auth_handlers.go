package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursedeck/coursedeck-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/setup",
		Summary:     "Initial server setup",
		Description: "Creates the first admin user. Can only be called once.",
		Tags:        []string{"Authentication"},
	}, s.handleSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register new student",
		Description: "Creates a student account and signs it in",
		Tags:        []string{"Authentication"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens. The old refresh token stops working.",
		Tags:        []string{"Authentication"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the session behind a refresh token",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the authenticated user",
		Tags:        []string{"Authentication"},
		Security:    bearerAuth,
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// AccountRequest is the request body for setup and registration.
type AccountRequest struct {
	Email    string `json:"email" maxLength:"254" doc:"Email address"`
	Password string `json:"password" minLength:"8" maxLength:"1024" doc:"Password"`
	Name     string `json:"name" minLength:"1" maxLength:"100" doc:"Display name"`
}

// AccountInput wraps the account request for Huma.
type AccountInput struct {
	Body AccountRequest
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" maxLength:"254" doc:"User email"`
	Password string `json:"password" maxLength:"1024" doc:"User password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// RefreshRequest is the request body for token refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	Body RefreshRequest
}

// AuthResponse contains authentication tokens and user info.
type AuthResponse struct {
	AccessToken  string       `json:"access_token" doc:"PASETO access token"`
	RefreshToken string       `json:"refresh_token" doc:"Refresh token"`
	SessionID    string       `json:"session_id" doc:"Session identifier"`
	TokenType    string       `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn    int          `json:"expires_in" doc:"Access token expiry in seconds"`
	ExpiresAt    time.Time    `json:"expires_at" doc:"Access token expiry time"`
	User         UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// UserOutput wraps a user response for Huma.
type UserOutput struct {
	Body UserResponse
}

func newAuthOutput(resp *service.AuthResponse) *AuthOutput {
	return &AuthOutput{
		Body: AuthResponse{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			SessionID:    resp.SessionID,
			TokenType:    resp.TokenType,
			ExpiresIn:    resp.ExpiresIn,
			ExpiresAt:    resp.ExpiresAt,
			User:         newUserResponse(resp.User),
		},
	}
}

// === Handlers ===

func (s *Server) handleSetup(ctx context.Context, input *AccountInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Setup(ctx, service.AccountRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	}, clientFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return newAuthOutput(resp), nil
}

func (s *Server) handleRegister(ctx context.Context, input *AccountInput) (*AuthOutput, error) {
	if err := s.checkAuthRateLimit(ctx); err != nil {
		return nil, err
	}

	resp, err := s.services.Auth.Register(ctx, service.AccountRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	}, clientFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return newAuthOutput(resp), nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	if err := s.checkAuthRateLimit(ctx); err != nil {
		return nil, err
	}

	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	}, clientFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return newAuthOutput(resp), nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Refresh(ctx, input.Body.RefreshToken, clientFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return newAuthOutput(resp), nil
}

func (s *Server) handleLogout(ctx context.Context, input *RefreshInput) (*MessageOutput, error) {
	if err := s.services.Auth.Logout(ctx, input.Body.RefreshToken); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Logged out successfully"}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: newUserResponse(user)}, nil
}
