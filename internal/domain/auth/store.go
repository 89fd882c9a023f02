package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/openhrm/hrm/internal/platform/db"
)

const UserStatusActive = "active"

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

type AuthUser struct {
	ID       string
	RoleID   string
	RoleName string
	Password string
	Status   string
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.role_id, r.name, u.password_hash, u.status
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1)
  `, email).Scan(&out.ID, &out.RoleID, &out.RoleName, &out.Password, &out.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrInvalidCredentials
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions
    WHERE role_id = $1 AND permission = $2
  `, roleID, permission).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureRoles creates the built-in roles and their permission grants, returning role ids by name.
func (s *Store) EnsureRoles(ctx context.Context) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName, perms := range RolePermissions {
		var id string
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO roles (name) VALUES ($1)
      ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id
    `, roleName).Scan(&id); err != nil {
			return nil, err
		}
		for _, perm := range perms {
			if _, err := s.DB.Exec(ctx, `
        INSERT INTO role_permissions (role_id, permission) VALUES ($1, $2)
        ON CONFLICT DO NOTHING
      `, id, perm); err != nil {
				return nil, err
			}
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

// EnsureUser creates the user when the email is unused and returns its id either way.
func (s *Store) EnsureUser(ctx context.Context, email, passwordHash, roleID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = lower($1)", email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, role_id)
    VALUES ($1, $2, $3)
    RETURNING id
  `, email, passwordHash, roleID).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
