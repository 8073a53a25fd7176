package repository

import (
	"errors"
	"time"

	"devboard-backend/internal/connection/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormConnectionRepository implements ConnectionRepository using GORM
type gormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GORM-based ConnectionRepository
func NewGormConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &gormConnectionRepository{db: db}
}

func (r *gormConnectionRepository) Get(userID, provider string) (*domain.Connection, error) {
	var conn domain.Connection
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *gormConnectionRepository) Upsert(conn *domain.Connection) (*domain.Connection, error) {
	if conn.ID == "" {
		conn.ID = uuid.New().String()
	}
	now := time.Now()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	// Single INSERT ... ON CONFLICT DO UPDATE so concurrent readers never see
	// a half-written record.
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "expires_at", "scope",
			"provider_user_id", "display_name", "email", "avatar_url", "updated_at",
		}),
	}).Create(conn).Error
	if err != nil {
		return nil, err
	}

	// Re-read so callers get the row ID of a pre-existing record.
	return r.Get(conn.UserID, conn.Provider)
}

func (r *gormConnectionRepository) UpdateTokens(userID, provider, accessToken, refreshToken string, expiresAt time.Time) error {
	return r.db.Model(&domain.Connection{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
			"updated_at":    time.Now(),
		}).Error
}

func (r *gormConnectionRepository) Delete(userID, provider string) error {
	return r.db.Where("user_id = ? AND provider = ?", userID, provider).Delete(&domain.Connection{}).Error
}

func (r *gormConnectionRepository) ListByUser(userID string) ([]*domain.Connection, error) {
	var conns []*domain.Connection
	err := r.db.Where("user_id = ?", userID).Order("provider ASC").Find(&conns).Error
	return conns, err
}
