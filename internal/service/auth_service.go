package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/security/auth"
)

// AuthService handles registration, login and token issuance
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo domain.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// AuthResult carries the issued token for a registered or logged-in user
type AuthResult struct {
	UserID   int64
	Username string
	Token    string
}

// Register creates a new user and issues a token. A taken username comes
// back as domain.ErrUserExists.
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrBadCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("user_id", user.ID), slog.String("username", username))

	return &AuthResult{UserID: user.ID, Username: user.Username, Token: token}, nil
}

// Login authenticates a user and issues a token. Unknown usernames return
// domain.ErrUserNotFound, wrong passwords domain.ErrBadCredentials; the
// handler decides how much of that distinction to expose.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrBadCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Info("login attempt for unknown user", slog.String("username", username))
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("username", username))
		return nil, domain.ErrBadCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user logged in", slog.Int64("user_id", user.ID), slog.String("username", username))

	return &AuthResult{UserID: user.ID, Username: user.Username, Token: token}, nil
}

// VerifyToken validates a bearer token and returns its claims
func (s *AuthService) VerifyToken(tokenString string) (*auth.Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}
