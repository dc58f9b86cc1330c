// Package service implements the business logic of the Jotter server on
// top of the store interface.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jotterapp/jotter-server/internal/auth"
	"github.com/jotterapp/jotter-server/internal/domain"
	domainerrors "github.com/jotterapp/jotter-server/internal/errors"
	"github.com/jotterapp/jotter-server/internal/id"
	"github.com/jotterapp/jotter-server/internal/normalize"
	"github.com/jotterapp/jotter-server/internal/store"
	"github.com/jotterapp/jotter-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()

// AuthService handles registration, login, and token lifecycle.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, tokenService *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// RegisterResponse contains the result of a registration request.
type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest contains the refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPairResponse contains a fresh access/refresh token pair.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access token lifetime in seconds
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	// Canonicalize before validation so padded or mixed-case variants of
	// a valid address pass the email check.
	req.Email = normalize.Email(req.Email)

	// Validate request
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	// Hash password
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	// Save user; the store canonicalizes the email before insert.
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User registered",
			"user_id", userID,
			"email", user.Email,
		)
	}

	return &RegisterResponse{
		ID:    user.ID,
		Email: user.Email,
	}, nil
}

// Login authenticates a user and issues a token pair.
// Unknown emails and wrong passwords produce the same error, so a caller
// cannot probe which accounts exist.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenPairResponse, error) {
	req.Email = normalize.Email(req.Email)

	// Validate request
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	// Find user by email
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	// Verify password
	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("User logged in", "user_id", user.ID)
	}

	return pair, nil
}

// Refresh exchanges a refresh token for a new token pair, revoking the
// old token (token rotation). A revoked, expired, or unknown token fails
// identically.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenPairResponse, error) {
	// Validate request
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	old, err := s.store.GetActiveRefreshToken(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid refresh token")
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	user, err := s.store.GetUser(ctx, old.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid refresh token")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	successor, secret, err := s.newRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	// Revoke-and-replace is atomic; a concurrent reuse of the same
	// token loses here and gets the same error as an unknown token.
	if err := s.store.RotateRefreshToken(ctx, old.ID, successor); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid refresh token")
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("Refresh token rotated", "user_id", user.ID)
	}

	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: secret,
		ExpiresIn:    int64(s.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}

// VerifyAccessToken validates an access token and returns its claims.
// Used by the authentication middleware. Expired tokens report a
// distinct code so clients know to refresh rather than re-authenticate.
func (s *AuthService) VerifyAccessToken(tokenString string) (*auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, domainerrors.TokenExpired("access token expired").WithCause(err)
		}
		return nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}
	return claims, nil
}

// issueTokenPair generates and persists a fresh access/refresh pair.
func (s *AuthService) issueTokenPair(ctx context.Context, user *domain.User) (*TokenPairResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	token, secret, err := s.newRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRefreshToken(ctx, token); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: secret,
		ExpiresIn:    int64(s.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}

// newRefreshToken builds a refresh token record and returns it with the
// plaintext secret. Only the digest is persisted.
func (s *AuthService) newRefreshToken(userID string) (*domain.RefreshToken, string, error) {
	secret, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate refresh token: %w", err)
	}

	tokenID, err := id.Generate("rt")
	if err != nil {
		return nil, "", fmt.Errorf("generate token ID: %w", err)
	}

	now := time.Now()
	return &domain.RefreshToken{
		ID:        tokenID,
		UserID:    userID,
		TokenHash: auth.HashRefreshToken(secret),
		ExpiresAt: now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt: now,
	}, secret, nil
}
