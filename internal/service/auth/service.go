// Package auth provides password hashing, bearer-token issuing and the
// login flow used by the API layer.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// Service authenticates accounts and issues tokens.
type Service struct {
	users    store.UserStore
	verifier PasswordVerifier
	tokens   JWTService
	logger   *slog.Logger
}

// NewService creates the authentication service.
func NewService(users store.UserStore, verifier PasswordVerifier, tokens JWTService, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger.With(slog.String("component", "auth_service")),
	}
}

// Login verifies a name/password pair and returns the account with a
// fresh bearer token. Unknown accounts and wrong passwords both return
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, name, password string) (*domain.User, string, error) {
	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("loading account: %w", err)
	}

	if err := s.verifier.Compare(user.PasswordHash, password); err != nil {
		s.logger.Debug("password mismatch", slog.String("name", name))
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}
	return user, token, nil
}

// ResolveToken maps a validated bearer token to its account.
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("loading token account: %w", err)
	}
	return user, nil
}
