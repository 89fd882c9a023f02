package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users     map[string]AuthUser
	lastLogin []string
}

func (f *fakeUserStore) FindUserByEmail(_ context.Context, email string) (AuthUser, error) {
	user, ok := f.users[email]
	if !ok {
		return AuthUser{}, ErrInvalidCredentials
	}
	return user, nil
}

func (f *fakeUserStore) UpdateLastLogin(_ context.Context, userID string) error {
	f.lastLogin = append(f.lastLogin, userID)
	return nil
}

func newFakeUserStore(t *testing.T, status string) *fakeUserStore {
	t.Helper()
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	return &fakeUserStore{users: map[string]AuthUser{
		"hr@example.com": {ID: "u1", RoleID: "r1", RoleName: RoleHR, Password: hash, Status: status},
	}}
}

func TestLoginIssuesToken(t *testing.T) {
	store := newFakeUserStore(t, UserStatusActive)
	svc := NewService(store, "secret", time.Hour)

	result, err := svc.Login(context.Background(), " hr@example.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, RoleHR, result.Role)
	assert.Equal(t, []string{"u1"}, store.lastLogin)

	claims, err := ParseToken("secret", result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "r1", claims.RoleID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc := NewService(newFakeUserStore(t, UserStatusActive), "secret", time.Hour)
	_, err := svc.Login(context.Background(), "hr@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	svc := NewService(newFakeUserStore(t, UserStatusActive), "secret", time.Hour)
	_, err := svc.Login(context.Background(), "ghost@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	svc := NewService(newFakeUserStore(t, "disabled"), "secret", time.Hour)
	_, err := svc.Login(context.Background(), "hr@example.com", "pw")
	assert.ErrorIs(t, err, ErrUserDisabled)
}
