package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/auth"
	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
	"github.com/coursedeck/coursedeck-server/internal/id"
	"github.com/coursedeck/coursedeck-server/internal/store"
	"github.com/coursedeck/coursedeck-server/internal/validation"
)

// AuthService handles account creation, login and token verification.
// Session bookkeeping is delegated to SessionService.
type AuthService struct {
	store          *store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	validator      *validation.Validator
	audit          AuditRecorder
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store *store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	validator *validation.Validator,
	audit AuditRecorder,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		validator:      validator,
		audit:          audit,
		logger:         logger,
	}
}

// AccountRequest holds the fields for setup and registration.
type AccountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginRequest holds user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is a user together with a freshly issued session.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

var accountConflicts = []mapping{
	on(store.ErrAdminExists, domainerrors.AlreadyConfigured(msgAlreadyConfigured)),
	on(store.ErrAlreadyExists, domainerrors.Duplicate(msgEmailTaken)),
}

// IsSetupRequired reports whether no admin account exists yet.
func (s *AuthService) IsSetupRequired(ctx context.Context) (bool, error) {
	hasAdmin, err := s.store.HasAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return !hasAdmin, nil
}

// Setup creates the first admin account and signs it in.
// Fails with ALREADY_CONFIGURED once any admin exists.
func (s *AuthService) Setup(ctx context.Context, req AccountRequest, client ClientInfo) (*AuthResponse, error) {
	required, err := s.IsSetupRequired(ctx)
	if err != nil {
		return nil, err
	}
	if !required {
		return nil, domainerrors.AlreadyConfigured(msgAlreadyConfigured)
	}

	user, err := s.newUser(req, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateFirstAdmin(ctx, user); err != nil {
		return nil, translate(err, "create admin", accountConflicts...)
	}

	s.logger.Info("server setup complete", "user_id", user.ID, "email", user.Email)
	return s.signIn(ctx, user, client)
}

// Register creates a student account and signs it in.
func (s *AuthService) Register(ctx context.Context, req AccountRequest, client ClientInfo) (*AuthResponse, error) {
	user, err := s.newUser(req, domain.RoleStudent)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, translate(err, "create user", accountConflicts...)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return s.signIn(ctx, user, client)
}

// Login checks credentials and opens a new session.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.InvalidCredentials(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials(msgInvalidCredentials)
	}

	rehash := auth.NeedsRehash(user.PasswordHash)
	updated, err := s.store.UpdateUser(ctx, user.ID, func(u *domain.User) error {
		u.LastLoginAt = time.Now()
		if rehash {
			hash, err := auth.HashPassword(req.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		u.Touch()
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to update last login time", "user_id", user.ID, "error", err)
	} else {
		user = updated
	}

	session, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "ip", client.IPAddress)
	return &AuthResponse{User: user, SessionResponse: *session}, nil
}

// Refresh rotates a refresh token and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domainerrors.Validation("refresh_token is required")
	}

	session, user, err := s.sessionService.RefreshSession(ctx, refreshToken, client)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, SessionResponse: *session}, nil
}

// Logout revokes the session holding refreshToken.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return domainerrors.Validation("refresh_token is required")
	}
	return s.sessionService.RevokeRefreshToken(ctx, refreshToken)
}

// VerifyAccessToken validates a bearer token and loads its user.
// The role is taken from the stored user, never from the token.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, domainerrors.TokenExpired(msgExpiredAccessToken).WithCause(err)
		}
		return nil, domainerrors.Unauthorized(msgInvalidAccessToken).WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.Unauthorized(msgInvalidAccessToken).WithCause(err)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err, "get user", on(store.ErrUserNotFound, domainerrors.NotFound(msgUserNotFound)))
	}
	return user, nil
}

func (s *AuthService) newUser(req AccountRequest, role domain.Role) (*domain.User, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) || errors.Is(err, auth.ErrPasswordEmpty) {
			return nil, domainerrors.Validation(msgPasswordLengthInvalid)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := domain.NewUser(userID, req.Email, req.Name, role)
	user.PasswordHash = hash
	user.LastLoginAt = time.Now()
	return user, nil
}

// signIn journals a new account and opens its first session.
func (s *AuthService) signIn(ctx context.Context, user *domain.User, client ClientInfo) (*AuthResponse, error) {
	s.audit.Record(ctx, audit.Entry{
		ActorID:  user.ID,
		Action:   audit.ActionUserRegistered,
		TargetID: user.ID,
		Detail:   string(user.Role),
	})

	session, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &AuthResponse{User: user, SessionResponse: *session}, nil
}
