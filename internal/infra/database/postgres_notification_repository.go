package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresNotificationStore writes in-app notifications read by the web UI.
type PostgresNotificationStore struct {
	db *sql.DB
}

func NewPostgresNotificationStore(db *sql.DB) *PostgresNotificationStore {
	return &PostgresNotificationStore{db: db}
}

// Insert stores one notification row and returns its id.
func (s *PostgresNotificationStore) Insert(ctx context.Context, userID int64, kind string, data map[string]any, at time.Time) (uuid.UUID, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error encoding notification payload: %w", err)
	}
	id := uuid.New()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, data, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, userID, kind, payload, at)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error inserting notification for user %d: %w", userID, err)
	}
	return id, nil
}
