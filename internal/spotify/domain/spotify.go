package domain

// Profile is the linked Spotify account as shown on the dashboard.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"` // premium, free, etc.
	Followers   int    `json:"followers"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Playlist is the trimmed playlist shape served to the dashboard.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner"`
	Public      bool   `json:"public"`
	TotalTracks int    `json:"total_tracks"`
	CoverImage  string `json:"cover_image,omitempty"`
}

// Track is a playable track, in a playlist or in listening history.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	DurationMS int      `json:"duration_ms"`
	URI        string   `json:"uri"`
	AddedAt    string   `json:"added_at,omitempty"`
	PlayedAt   string   `json:"played_at,omitempty"`
}

// PlaybackState is the player's currently-playing snapshot. Track is nil when
// nothing is playing.
type PlaybackState struct {
	IsPlaying  bool   `json:"is_playing"`
	ProgressMS int    `json:"progress_ms"`
	Track      *Track `json:"track,omitempty"`
}

// PlaybackToken hands the browser-side Web Playback SDK a currently valid
// access token.
type PlaybackToken struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}
