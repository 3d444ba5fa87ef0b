// internal/domain/user/user.go
package user

import (
	"context"
	"database/sql"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// User is a staff account that can receive notifications.
type User struct {
	ID             int64
	Name           string
	Email          string
	Timezone       sql.NullString
	TelegramChatID sql.NullInt64
	IsActive       bool
}

// Audience selects recipients by role name or by permission name.
// A user matching either list is included once.
type Audience struct {
	Roles       []string
	Permissions []string
}

func (a Audience) Empty() bool {
	return len(a.Roles) == 0 && len(a.Permissions) == 0
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// ListByAudience returns active users holding any of the roles or permissions, ordered by id.
	ListByAudience(ctx context.Context, a Audience) ([]*User, error)
}
