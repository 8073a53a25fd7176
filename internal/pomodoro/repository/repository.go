package repository

import (
	"time"

	"devboard-backend/internal/pomodoro/domain"
)

// SessionRepository defines data access for pomodoro sessions.
type SessionRepository interface {
	Create(session *domain.Session) error
	Update(session *domain.Session) error
	Delete(id string) error

	// FindActive returns the user's latest started or paused session, or
	// (nil, nil) when there is none.
	FindActive(userID string) (*domain.Session, error)

	// FindSince returns the user's sessions created at or after the given
	// time, newest first.
	FindSince(userID string, since time.Time) ([]*domain.Session, error)
}
