package domain

import "time"

// Provider names as stored in the connections table.
const (
	ProviderGitHub  = "github"
	ProviderSpotify = "spotify"
)

// Connection is the credential record for one linked provider account.
// There is exactly one row per (user_id, provider); all writes go through
// the repository's atomic upsert.
type Connection struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"uniqueIndex:idx_user_provider;not null"`
	Provider     string    `json:"provider" gorm:"uniqueIndex:idx_user_provider;not null"`
	AccessToken  string    `json:"-" gorm:"not null"`
	RefreshToken string    `json:"-"`
	// ExpiresAt is zero for tokens the provider never expires (GitHub OAuth apps).
	ExpiresAt time.Time `json:"expires_at"`
	Scope     string    `json:"scope"`

	// Denormalized profile snapshot, refreshed on every handshake.
	ProviderUserID string `json:"provider_user_id"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the access token must not be used without a
// refresh attempt first. Non-expiring tokens are never stale.
func (c *Connection) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Profile is the provider-side identity fetched during a handshake.
type Profile struct {
	ProviderUserID string
	DisplayName    string
	Email          string
	AvatarURL      string
}
