package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"asset_lifecycle_scheduler/internal/domain/user"

	"github.com/lib/pq"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT id, name, email, timezone, telegram_chat_id, is_active FROM users WHERE id = $1`
	var u user.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Timezone, &u.TelegramChatID, &u.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) ListByAudience(ctx context.Context, a user.Audience) ([]*user.User, error) {
	if a.Empty() {
		return nil, nil
	}
	roles := a.Roles
	if roles == nil {
		roles = []string{}
	}
	perms := a.Permissions
	if perms == nil {
		perms = []string{}
	}
	query := `SELECT u.id, u.name, u.email, u.timezone, u.telegram_chat_id, u.is_active
		FROM users u
		WHERE u.is_active AND (
			EXISTS (
				SELECT 1 FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id
				WHERE ur.user_id = u.id AND ro.name = ANY($1)
			) OR EXISTS (
				SELECT 1 FROM user_roles ur
				JOIN role_permissions rp ON rp.role_id = ur.role_id
				JOIN permissions p ON p.id = rp.permission_id
				WHERE ur.user_id = u.id AND p.name = ANY($2)
			)
		)
		ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(roles), pq.Array(perms))
	if err != nil {
		return nil, fmt.Errorf("error listing users by audience: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Timezone, &u.TelegramChatID, &u.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
