package repository

import (
	"errors"
	"time"

	"devboard-backend/internal/pomodoro/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormSessionRepository implements SessionRepository using GORM
type gormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GORM-based SessionRepository
func NewGormSessionRepository(db *gorm.DB) SessionRepository {
	return &gormSessionRepository{db: db}
}

func (r *gormSessionRepository) Create(session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()
	return r.db.Create(session).Error
}

func (r *gormSessionRepository) Update(session *domain.Session) error {
	session.UpdatedAt = time.Now()
	return r.db.Save(session).Error
}

func (r *gormSessionRepository) Delete(id string) error {
	return r.db.Delete(&domain.Session{}, "id = ?", id).Error
}

func (r *gormSessionRepository) FindActive(userID string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.Where("user_id = ? AND status IN ?", userID, []domain.SessionStatus{domain.SessionStarted, domain.SessionPaused}).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *gormSessionRepository) FindSince(userID string, since time.Time) ([]*domain.Session, error) {
	var sessions []*domain.Session
	err := r.db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}
