package repository

import (
	"time"

	"devboard-backend/internal/connection/domain"
)

// ConnectionRepository defines data access for provider credential records.
type ConnectionRepository interface {
	// Get returns the record for (userID, provider), or (nil, nil) when absent.
	Get(userID, provider string) (*domain.Connection, error)

	// Upsert atomically creates or replaces the record for
	// (conn.UserID, conn.Provider) and returns the stored row. Concurrent
	// readers never observe a partially applied record.
	Upsert(conn *domain.Connection) (*domain.Connection, error)

	// UpdateTokens persists a refreshed token set in a single UPDATE.
	UpdateTokens(userID, provider, accessToken, refreshToken string, expiresAt time.Time) error

	// Delete removes the record (account disconnect).
	Delete(userID, provider string) error

	// ListByUser returns all connected providers for a user.
	ListByUser(userID string) ([]*domain.Connection, error)
}
