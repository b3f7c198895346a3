package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dtp-id/talenta/pkg/models"
)

// Users is the account storage used by Service.
type Users interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	NIKExists(ctx context.Context, nik string) (bool, error)
	CreateWithProfile(ctx context.Context, reg *models.Registration, hashedPassword string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service registers and authenticates accounts.
type Service struct {
	users  Users
	tokens *Tokens
}

// NewService creates an auth service.
func NewService(users Users, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register validates reg, rejects duplicates and creates the account with an empty profile.
func (s *Service) Register(ctx context.Context, reg *models.Registration) (*models.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	checks := []struct {
		exists  func(context.Context, string) (bool, error)
		value   string
		field   string
		message string
	}{
		{s.users.EmailExists, reg.Email, "email", "Email sudah terdaftar. Gunakan email lain."},
		{s.users.UsernameExists, reg.Username, "username", "Username sudah dipakai. Silakan pilih username lain."},
		{s.users.NIKExists, reg.NIK, "nik", "NIK sudah terdaftar dalam sistem."},
	}
	for _, c := range checks {
		taken, err := c.exists(ctx, c.value)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", c.field, err)
		}
		if taken {
			return nil, models.NewValidationError(c.field, c.message)
		}
	}

	hashed, err := HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.CreateWithProfile(ctx, reg, hashed)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Token, error) {
	user, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, err
	}
	return &models.Token{AccessToken: token, TokenType: TokenType}, nil
}

// Authenticate resolves a bearer token to its account.
func (s *Service) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	email, err := s.tokens.Subject(raw)
	if err != nil {
		return nil, err
	}
	user, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
