package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"spacerover/backend/services/fleet-service/internal/models"
	"spacerover/backend/services/fleet-service/internal/password"
	"spacerover/backend/services/fleet-service/internal/repository"
)

var (
	// ErrEmailInUse is returned when attempting to register duplicate email.
	ErrEmailInUse = errors.New("auth: email already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// UserRepository defines storage contract used by the service.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService contains registration/login logic for fleet operators.
type AuthService struct {
	repo      UserRepository
	hasher    password.Hasher
	tokenizer *TokenService
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(repo UserRepository, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// Signup registers a new operator account.
func (s *AuthService) Signup(ctx context.Context, email, plaintext, role string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("auth: email required")
	}
	if plaintext == "" {
		return nil, errors.New("auth: password required")
	}
	if role == "" {
		role = "operator"
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("operator signed up", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// Login authenticates an operator and produces a JWT.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plaintext == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, plaintext); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}
