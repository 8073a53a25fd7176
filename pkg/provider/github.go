package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"devboard-backend/internal/connection/domain"

	githuboauth "golang.org/x/oauth2/github"
)

const githubAPIBaseURL = "https://api.github.com"

// NewGitHub configures the GitHub provider. OAuth app tokens do not expire
// and no refresh token is issued, so a 401 from the API means the user
// revoked access and has to redo the handshake.
func NewGitHub(clientID, clientSecret, redirectURL string) *Provider {
	p := &Provider{
		Name:         domain.ProviderGitHub,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"user:email", "repo"},
		Endpoint:     githuboauth.Endpoint,
		APIBaseURL:   githubAPIBaseURL,
		APIHeaders: map[string]string{
			"Accept":               "application/vnd.github.v3+json",
			"X-GitHub-Api-Version": "2022-11-28",
		},
	}
	p.FetchProfile = func(ctx context.Context, client *http.Client) (*domain.Profile, error) {
		return fetchGitHubProfile(ctx, client, p.APIBaseURL)
	}
	return p
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func fetchGitHubProfile(ctx context.Context, client *http.Client, baseURL string) (*domain.Profile, error) {
	var user githubUser
	if err := getJSON(ctx, client, baseURL+"/user", &user); err != nil {
		return nil, fmt.Errorf("fetching GitHub profile: %w", err)
	}

	email := user.Email
	if email == "" {
		// The profile email is only present when public; the emails endpoint
		// needs the user:email scope.
		var emails []githubEmail
		if err := getJSON(ctx, client, baseURL+"/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					email = e.Email
					break
				}
			}
			if email == "" && len(emails) > 0 {
				email = emails[0].Email
			}
		}
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Login
	}

	return &domain.Profile{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		DisplayName:    displayName,
		Email:          email,
		AvatarURL:      user.AvatarURL,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
