// Package provider implements the OAuth token lifecycle for third-party
// integrations: handshake configuration, token refresh, and an authenticated
// API caller that retries once on a rejected access token.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"devboard-backend/internal/connection/domain"

	"golang.org/x/oauth2"
)

// Provider describes one OAuth integration: its endpoints, scopes, client
// credentials and how to fetch the account profile after a handshake.
type Provider struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Endpoint     oauth2.Endpoint

	// APIBaseURL is prefixed to request paths by the Caller.
	APIBaseURL string

	// APIHeaders are set on every API request (e.g. GitHub's Accept header).
	APIHeaders map[string]string

	// AuthCodeOptions are appended when building the authorization URL
	// (e.g. access_type=offline for providers that gate refresh tokens on it).
	AuthCodeOptions []oauth2.AuthCodeOption

	// FetchProfile retrieves the provider-side identity using a client that
	// already carries the access token.
	FetchProfile func(ctx context.Context, client *http.Client) (*domain.Profile, error)
}

// OAuthConfig builds the oauth2 configuration for handshakes and refreshes.
func (p *Provider) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURL,
		Scopes:       p.Scopes,
		Endpoint:     p.Endpoint,
	}
}

// Registry holds the configured providers, keyed by name.
type Registry struct {
	providers map[string]*Provider
}

func NewRegistry(providers ...*Provider) *Registry {
	r := &Registry{providers: make(map[string]*Provider)}
	for _, p := range providers {
		r.providers[p.Name] = p
	}
	return r
}

func (r *Registry) Get(name string) (*Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
