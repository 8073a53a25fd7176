package provider

import (
	"context"
	"fmt"
	"net/http"

	"devboard-backend/internal/connection/domain"

	"golang.org/x/oauth2"
	spotifyoauth "golang.org/x/oauth2/spotify"
)

const spotifyAPIBaseURL = "https://api.spotify.com/v1"

// Spotify scopes requested during the handshake: identity, playback control,
// library, playlists and listening history.
var spotifyScopes = []string{
	"user-read-email",
	"user-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"streaming",
	"user-library-read",
	"user-library-modify",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-read-recently-played",
	"user-top-read",
}

// NewSpotify configures the Spotify provider. Access tokens expire after an
// hour; access_type=offline is requested so the handshake yields a refresh
// token.
func NewSpotify(clientID, clientSecret, redirectURL string) *Provider {
	p := &Provider{
		Name:            domain.ProviderSpotify,
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		RedirectURL:     redirectURL,
		Scopes:          spotifyScopes,
		Endpoint:        spotifyoauth.Endpoint,
		APIBaseURL:      spotifyAPIBaseURL,
		AuthCodeOptions: []oauth2.AuthCodeOption{oauth2.AccessTypeOffline},
	}
	p.FetchProfile = func(ctx context.Context, client *http.Client) (*domain.Profile, error) {
		return fetchSpotifyProfile(ctx, client, p.APIBaseURL)
	}
	return p
}

type spotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
}

func fetchSpotifyProfile(ctx context.Context, client *http.Client, baseURL string) (*domain.Profile, error) {
	var user spotifyUser
	if err := getJSON(ctx, client, baseURL+"/me", &user); err != nil {
		return nil, fmt.Errorf("fetching Spotify profile: %w", err)
	}

	avatar := ""
	if len(user.Images) > 0 {
		avatar = user.Images[0].URL
	}

	return &domain.Profile{
		ProviderUserID: user.ID,
		DisplayName:    user.DisplayName,
		Email:          user.Email,
		AvatarURL:      avatar,
	}, nil
}
