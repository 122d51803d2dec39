// Package service contains the sync server's business logic, sitting
// between the HTTP handlers and the store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lilizblack/bookeareads-server/internal/auth"
	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/id"
	"github.com/lilizblack/bookeareads-server/internal/store"
	"github.com/lilizblack/bookeareads-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// AuthService handles registration, login, token refresh and logout for
// the personal sync server. The first registered user becomes root.
type AuthService struct {
	store  *store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates the authentication service.
func NewAuthService(store *store.Store, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, logger: logger}
}

// RegisterRequest contains account creation data.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,max=1024"`
	DeviceName string `json:"device_name" validate:"omitempty,max=100"`
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse contains tokens and the authenticated user.
type AuthResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	SessionID    string       `json:"session_id"`
}

// Register creates a new account. This is a personal server, so
// registration is open; the first user becomes root.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("usr")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	isFirst, err := s.noUsersYet(ctx)
	if err != nil {
		return nil, fmt.Errorf("check existing users: %w", err)
	}

	user := &domain.User{
		Syncable:     domain.Syncable{ID: userID},
		Email:        req.Email,
		PasswordHash: passwordHash,
		IsRoot:       isFirst,
		DisplayName:  req.DisplayName,
		LastLoginAt:  time.Now(),
	}
	user.InitTimestamps()

	if err := s.store.Users.Create(ctx, userID, user); err != nil {
		if apperrors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", userID, "root", isFirst)

	return s.createSession(ctx, user, "")
}

// Login authenticates a user and creates a new device session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByIndex(ctx, "email", req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			// Do not leak whether the email exists.
			return nil, apperrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, apperrors.InvalidCredentials("invalid email or password")
	}

	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.Users.Update(ctx, user.ID, user); err != nil {
		s.logger.Warn("failed to update last login time", "user_id", user.ID, "error", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "device", req.DeviceName)

	return s.createSession(ctx, user, req.DeviceName)
}

// Refresh rotates tokens for an existing session. The presented refresh
// token is invalidated.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tokenHash := auth.HashRefreshToken(req.RefreshToken)
	session, err := s.store.AuthSessions.GetByIndex(ctx, "refresh", tokenHash)
	if err != nil {
		return nil, apperrors.TokenExpired("invalid or expired refresh token").WithCause(err)
	}
	if session.IsExpired() {
		_ = s.store.AuthSessions.Delete(ctx, session.ID)
		return nil, apperrors.TokenExpired("invalid or expired refresh token")
	}

	user, err := s.store.Users.Get(ctx, session.UserID)
	if err != nil {
		// User was deleted; the session is orphaned.
		_ = s.store.AuthSessions.Delete(ctx, session.ID)
		return nil, apperrors.NotFound("user not found").WithCause(err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now()
	session.RefreshTokenHash = auth.HashRefreshToken(refreshToken)
	session.ExpiresAt = now.Add(s.tokens.RefreshTokenDuration())
	session.LastSeenAt = now
	if err := s.store.AuthSessions.Update(ctx, session.ID, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTokenDuration().Seconds()),
		SessionID:    session.ID,
	}, nil
}

// Logout revokes one session. Idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.store.AuthSessions.Delete(ctx, sessionID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// VerifyAccessToken validates a token and loads its user.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	user, err := s.store.Users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("user not found").WithCause(err)
	}
	return user, claims, nil
}

func (s *AuthService) createSession(ctx context.Context, user *domain.User, deviceName string) (*AuthResponse, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionID, err := id.Generate("ases")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now()
	session := &domain.AuthSession{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokens.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
		DeviceName:       deviceName,
	}
	if err := s.store.AuthSessions.Create(ctx, sessionID, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}, nil
}

// noUsersYet reports whether the user collection is empty.
func (s *AuthService) noUsersYet(ctx context.Context) (bool, error) {
	for _, err := range s.store.Users.List(ctx) {
		if err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
