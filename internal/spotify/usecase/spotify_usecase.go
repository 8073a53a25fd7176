package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	conndomain "devboard-backend/internal/connection/domain"
	"devboard-backend/internal/spotify/domain"
	"devboard-backend/pkg/cache"
	"devboard-backend/pkg/provider"
)

const (
	profileCacheTTL  = 30 * time.Minute
	playlistCacheTTL = 30 * time.Minute
	tokenMirrorTTL   = 5 * time.Minute
)

// SpotifyUsecase serves the dashboard's player widgets. Reads are cached;
// playback commands always hit the API.
type SpotifyUsecase interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	GetPlaylists(ctx context.Context, userID string) ([]*domain.Playlist, error)
	GetPlaylistTracks(ctx context.Context, userID, playlistID string) ([]*domain.Track, error)

	Play(ctx context.Context, userID, trackURI string) error
	Pause(ctx context.Context, userID string) error
	Next(ctx context.Context, userID string) error
	Previous(ctx context.Context, userID string) error
	CurrentlyPlaying(ctx context.Context, userID string) (*domain.PlaybackState, error)

	TopTracks(ctx context.Context, userID string) ([]*domain.Track, error)
	RecentlyPlayed(ctx context.Context, userID string) ([]*domain.Track, error)

	// PlaybackToken returns a valid access token for the browser-side Web
	// Playback SDK, mirrored in the cache for a short window.
	PlaybackToken(ctx context.Context, userID string) (*domain.PlaybackToken, error)
}

type spotifyUsecase struct {
	caller *provider.Caller
	cache  *cache.Cache
}

func NewSpotifyUsecase(caller *provider.Caller, c *cache.Cache) SpotifyUsecase {
	return &spotifyUsecase{caller: caller, cache: c}
}

// Wire shapes, per https://developer.spotify.com/documentation/web-api/reference/

type spotifyProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
	Followers   struct {
		Total int `json:"total"`
	} `json:"followers"`
	Images []spotifyImage `json:"images"`
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyPlaylistPage struct {
	Items []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
		Owner       struct {
			DisplayName string `json:"display_name"`
		} `json:"owner"`
		Tracks struct {
			Total int `json:"total"`
		} `json:"tracks"`
		Images []spotifyImage `json:"images"`
	} `json:"items"`
}

type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	DurationMS int    `json:"duration_ms"`
	URI        string `json:"uri"`
}

type spotifyPlaylistTracksPage struct {
	Items []struct {
		AddedAt string       `json:"added_at"`
		Track   spotifyTrack `json:"track"`
	} `json:"items"`
}

type spotifyTopTracksPage struct {
	Items []spotifyTrack `json:"items"`
}

type spotifyRecentlyPlayedPage struct {
	Items []struct {
		PlayedAt string       `json:"played_at"`
		Track    spotifyTrack `json:"track"`
	} `json:"items"`
}

type spotifyCurrentlyPlaying struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Item       *spotifyTrack `json:"item"`
}

func (u *spotifyUsecase) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	key := cache.Key(conndomain.ProviderSpotify, "profile", userID)
	return cache.GetOrCompute(ctx, u.cache, key, profileCacheTTL, func(ctx context.Context) (*domain.Profile, error) {
		body, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
			Method: http.MethodGet,
			Path:   "/me",
		})
		if err != nil {
			return nil, err
		}

		var raw spotifyProfile
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decoding profile: %w", err)
		}

		profile := &domain.Profile{
			ID:          raw.ID,
			DisplayName: raw.DisplayName,
			Email:       raw.Email,
			Country:     raw.Country,
			Product:     raw.Product,
			Followers:   raw.Followers.Total,
		}
		if len(raw.Images) > 0 {
			profile.AvatarURL = raw.Images[0].URL
		}
		return profile, nil
	})
}

func (u *spotifyUsecase) GetPlaylists(ctx context.Context, userID string) ([]*domain.Playlist, error) {
	key := cache.Key(conndomain.ProviderSpotify, "playlists", userID)
	return cache.GetOrCompute(ctx, u.cache, key, playlistCacheTTL, func(ctx context.Context) ([]*domain.Playlist, error) {
		body, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
			Method: http.MethodGet,
			Path:   "/me/playlists",
			Query:  url.Values{"limit": {"50"}},
		})
		if err != nil {
			return nil, err
		}

		var raw spotifyPlaylistPage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decoding playlists: %w", err)
		}

		playlists := make([]*domain.Playlist, 0, len(raw.Items))
		for _, item := range raw.Items {
			p := &domain.Playlist{
				ID:          item.ID,
				Name:        item.Name,
				Description: item.Description,
				Owner:       item.Owner.DisplayName,
				Public:      item.Public,
				TotalTracks: item.Tracks.Total,
			}
			if len(item.Images) > 0 {
				p.CoverImage = item.Images[0].URL
			}
			playlists = append(playlists, p)
		}
		return playlists, nil
	})
}

func (u *spotifyUsecase) GetPlaylistTracks(ctx context.Context, userID, playlistID string) ([]*domain.Track, error) {
	key := cache.Key(conndomain.ProviderSpotify, "playlist-tracks", userID, playlistID)
	return cache.GetOrCompute(ctx, u.cache, key, playlistCacheTTL, func(ctx context.Context) ([]*domain.Track, error) {
		body, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
			Method: http.MethodGet,
			Path:   "/playlists/" + playlistID + "/tracks",
			Query:  url.Values{"limit": {"100"}},
		})
		if err != nil {
			return nil, err
		}

		var raw spotifyPlaylistTracksPage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decoding playlist tracks: %w", err)
		}

		tracks := make([]*domain.Track, 0, len(raw.Items))
		for _, item := range raw.Items {
			t := mapTrack(&item.Track)
			t.AddedAt = item.AddedAt
			tracks = append(tracks, t)
		}
		return tracks, nil
	})
}

func (u *spotifyUsecase) Play(ctx context.Context, userID, trackURI string) error {
	body := map[string]any{}
	if trackURI != "" {
		body["uris"] = []string{trackURI}
	}
	_, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
		Method: http.MethodPut,
		Path:   "/me/player/play",
		Body:   body,
	})
	return err
}

func (u *spotifyUsecase) Pause(ctx context.Context, userID string) error {
	_, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
		Method: http.MethodPut,
		Path:   "/me/player/pause",
		Body:   map[string]any{},
	})
	return err
}

func (u *spotifyUsecase) Next(ctx context.Context, userID string) error {
	_, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
		Method: http.MethodPost,
		Path:   "/me/player/next",
	})
	return err
}

func (u *spotifyUsecase) Previous(ctx context.Context, userID string) error {
	_, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
		Method: http.MethodPost,
		Path:   "/me/player/previous",
	})
	return err
}

func (u *spotifyUsecase) CurrentlyPlaying(ctx context.Context, userID string) (*domain.PlaybackState, error) {
	body, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
		Method: http.MethodGet,
		Path:   "/me/player/currently-playing",
	})
	if err != nil {
		return nil, err
	}

	// Spotify answers 204 with an empty body when nothing is playing.
	if len(body) == 0 {
		return &domain.PlaybackState{}, nil
	}

	var raw spotifyCurrentlyPlaying
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding playback state: %w", err)
	}

	state := &domain.PlaybackState{
		IsPlaying:  raw.IsPlaying,
		ProgressMS: raw.ProgressMS,
	}
	if raw.Item != nil {
		state.Track = mapTrack(raw.Item)
	}
	return state, nil
}

func (u *spotifyUsecase) TopTracks(ctx context.Context, userID string) ([]*domain.Track, error) {
	body, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
		Method: http.MethodGet,
		Path:   "/me/top/tracks",
		Query:  url.Values{"limit": {"20"}},
	})
	if err != nil {
		return nil, err
	}

	var raw spotifyTopTracksPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding top tracks: %w", err)
	}

	tracks := make([]*domain.Track, 0, len(raw.Items))
	for i := range raw.Items {
		tracks = append(tracks, mapTrack(&raw.Items[i]))
	}
	return tracks, nil
}

func (u *spotifyUsecase) RecentlyPlayed(ctx context.Context, userID string) ([]*domain.Track, error) {
	body, err := u.caller.Do(ctx, userID, conndomain.ProviderSpotify, provider.Request{
		Method: http.MethodGet,
		Path:   "/me/player/recently-played",
		Query:  url.Values{"limit": {"20"}},
	})
	if err != nil {
		return nil, err
	}

	var raw spotifyRecentlyPlayedPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding listening history: %w", err)
	}

	tracks := make([]*domain.Track, 0, len(raw.Items))
	for _, item := range raw.Items {
		t := mapTrack(&item.Track)
		t.PlayedAt = item.PlayedAt
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func (u *spotifyUsecase) PlaybackToken(ctx context.Context, userID string) (*domain.PlaybackToken, error) {
	key := cache.Key(conndomain.ProviderSpotify, "token", userID)

	var cached domain.PlaybackToken
	if u.cache.Get(ctx, key, &cached) && cached.AccessToken != "" {
		return &cached, nil
	}

	token, expiresAt, err := u.caller.AccessToken(ctx, userID, conndomain.ProviderSpotify)
	if err != nil {
		return nil, err
	}

	result := &domain.PlaybackToken{AccessToken: token}
	if !expiresAt.IsZero() {
		result.ExpiresAt = expiresAt.Format(time.RFC3339)
	}

	// Mirror briefly, never past the token's own expiry.
	ttl := tokenMirrorTTL
	if !expiresAt.IsZero() {
		if until := time.Until(expiresAt) - 30*time.Second; until < ttl {
			ttl = until
		}
	}
	if ttl > 0 {
		// Best effort: a failed mirror write just means a recompute next time.
		_ = u.cache.Set(ctx, key, result, ttl)
	}
	return result, nil
}

func mapTrack(t *spotifyTrack) *domain.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return &domain.Track{
		ID:         t.ID,
		Name:       t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
		URI:        t.URI,
	}
}
