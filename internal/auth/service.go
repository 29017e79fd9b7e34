package auth

import (
	"context"
	"errors"
	"fmt"

	"notification_service/internal/models"
	"notification_service/internal/services"
)

// Service is the authentication flow: registration, login and access-token
// refresh. No session state is persisted, identity lives in the tokens.
type Service interface {
	Register(ctx context.Context, username, password string, avatarURL *string) (*models.User, TokenPair, error)
	Login(ctx context.Context, username, password string) (*models.User, TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type service struct {
	users  services.UserService
	tokens *TokenService
}

func NewService(users services.UserService, tokens *TokenService) *service {
	return &service{
		users:  users,
		tokens: tokens,
	}
}

func (s *service) Register(ctx context.Context, username, password string, avatarURL *string) (*models.User, TokenPair, error) {
	const op = "auth.Register"

	exists, err := s.users.UserExists(ctx, username)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, TokenPair{}, models.ErrUserExists
	}

	if err := ValidatePassword(password); err != nil {
		return nil, TokenPair{}, err
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.CreateUser(ctx, username, passwordHash, avatarURL)
	if err != nil {
		if errors.Is(err, models.ErrUserExists) {
			return nil, TokenPair{}, err
		}
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*models.User, TokenPair, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, TokenPair{}, err
		}
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := CheckPasswordHash(password, user.PasswordHash); err != nil {
		return nil, TokenPair{}, models.ErrInvalidPassword
	}

	// Login always mints a fresh pair, tokens are never reused.
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated. The blocked flag is checked here,
// so blocking a user takes effect at their next refresh, not before.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	const op = "auth.Refresh"

	claims, err := s.tokens.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		return "", models.ErrUnauthenticated
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return "", models.ErrUnauthenticated
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if user.Blocked {
		return "", models.ErrUnauthenticated
	}

	access, err := s.tokens.Issue(user.ID, TokenKindAccess)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return access, nil
}
