package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/collab-service/internal/domain"
	"github.com/cwrk-planet/collab-service/internal/errs"
	"github.com/cwrk-planet/collab-service/internal/postgres"
	"github.com/cwrk-planet/collab-service/internal/security"
)

type AuthResult struct {
	User        *domain.User
	AccessToken string
	ExpiresIn   time.Duration
}

type AuthService struct {
	users      *postgres.UserRepository
	jwt        *security.JWTSigner
	passPolicy security.BcryptConfig
	now        func() time.Time
}

func NewAuthService(users *postgres.UserRepository, jwt *security.JWTSigner, passPolicy security.BcryptConfig, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		users:      users,
		jwt:        jwt,
		passPolicy: passPolicy,
		now:        now,
	}
}

// Signup регистрирует пользователя и сразу выпускает access token.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errs.ErrInvalidEmail
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("users.ExistsByEmail: %w", err)
	}
	if exists {
		return nil, errs.ErrUserExists
	}

	hash, err := security.HashPassword(password, &s.passPolicy)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: hash,
	}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}
	u.ID = id

	token, err := s.jwt.SignAccessToken(id, u.Username, s.now())
	if err != nil {
		return nil, fmt.Errorf("jwt.SignAccessToken: %w", err)
	}

	return &AuthResult{User: u, AccessToken: token, ExpiresIn: s.jwt.TTL()}, nil
}

// Login проверяет пароль и выпускает access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}

	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	token, err := s.jwt.SignAccessToken(u.ID, u.Username, s.now())
	if err != nil {
		return nil, fmt.Errorf("jwt.SignAccessToken: %w", err)
	}

	return &AuthResult{User: u, AccessToken: token, ExpiresIn: s.jwt.TTL()}, nil
}
