package domain

import "time"

// SessionStatus represents the current state of a pomodoro session
type SessionStatus string

const (
	SessionStarted SessionStatus = "started"
	SessionPaused  SessionStatus = "paused"
)

// Session is one pomodoro run. A user has at most one active (started or
// paused) session at a time.
type Session struct {
	ID        string        `json:"id" gorm:"primaryKey"`
	UserID    string        `json:"user_id" gorm:"index;not null"`
	Status    SessionStatus `json:"status" gorm:"not null"`
	Duration  int           `json:"duration"` // seconds
	StartTime time.Time     `json:"start_time"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
