package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"devboard-backend/internal/connection/domain"

	"golang.org/x/oauth2"
)

// Refresh exchanges a refresh token for a new access token at the provider's
// token endpoint. When the provider rotates the refresh token the returned
// token carries the new one; otherwise the oauth2 transport copies the old
// refresh token forward, so callers can always persist token.RefreshToken.
//
// A rejected refresh token (expired, revoked, already rotated) yields
// ErrReauthenticationRequired: the only way back is a full handshake.
func Refresh(ctx context.Context, p *Provider, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token on record for %s", domain.ErrReauthenticationRequired, p.Name)
	}

	src := p.OAuthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= http.StatusInternalServerError {
				return nil, fmt.Errorf("%w: %s token endpoint returned %d", domain.ErrInfrastructure, p.Name, retrieveErr.Response.StatusCode)
			}
			return nil, fmt.Errorf("%w: %s rejected the refresh token", domain.ErrReauthenticationRequired, p.Name)
		}
		return nil, fmt.Errorf("%w: reaching %s token endpoint: %v", domain.ErrInfrastructure, p.Name, err)
	}
	return token, nil
}
