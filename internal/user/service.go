package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shelf/internal/platform/crypto"
)

type Service struct {
	repo     Repository
	secret   string
	tokenTTL time.Duration
}

func NewService(repo Repository, secret string, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

// Register creates an account and signs the caller in.
func (s *Service) Register(ctx context.Context, email, password string) (AuthResult, error) {
	email = NormalizeEmail(email)
	if err := crypto.ValidatePasswordStrength(password); err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return AuthResult{}, ErrAlreadyExists
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}
	return s.issue(*u)
}

// Login checks the credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("get user: %w", err)
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) issue(u User) (AuthResult, error) {
	token, err := crypto.GenerateToken(s.secret, u.ID, u.Email, s.tokenTTL)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign token: %w", err)
	}
	return AuthResult{Token: token, User: u}, nil
}
