package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openhrm/hrm/internal/requestctx"
)

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	store  UserStore
	secret string
	ttl    time.Duration
}

func NewService(store UserStore, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl}
}

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if user.Status != UserStatusActive {
		return LoginResult{}, ErrUserDisabled
	}

	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, RoleID: user.RoleID, RoleName: user.RoleName}, s.ttl)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("last login update failed", append(requestctx.LogAttrs(ctx), "userId", user.ID, "err", err)...)
	}
	return LoginResult{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.ttl),
		UserID:      user.ID,
		Role:        user.RoleName,
	}, nil
}
