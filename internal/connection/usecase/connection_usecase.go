package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"devboard-backend/internal/connection/domain"
	"devboard-backend/internal/connection/repository"
	"devboard-backend/pkg/cache"
	"devboard-backend/pkg/provider"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// connectionUsecase implements ConnectionUsecase
type connectionUsecase struct {
	registry *provider.Registry
	repo     repository.ConnectionRepository
	cache    *cache.Cache
	logger   *log.Logger
}

func NewConnectionUsecase(registry *provider.Registry, repo repository.ConnectionRepository, c *cache.Cache, logger *log.Logger) ConnectionUsecase {
	if logger == nil {
		logger = log.Default()
	}
	return &connectionUsecase{
		registry: registry,
		repo:     repo,
		cache:    c,
		logger:   logger,
	}
}

func (u *connectionUsecase) AuthorizationURL(userID, providerName string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	p, err := u.registry.Get(providerName)
	if err != nil {
		return "", err
	}
	return p.OAuthConfig().AuthCodeURL(userID, p.AuthCodeOptions...), nil
}

func (u *connectionUsecase) CompleteHandshake(ctx context.Context, providerName, code, state string) (*domain.Connection, error) {
	p, err := u.registry.Get(providerName)
	if err != nil {
		return nil, err
	}
	if code == "" || state == "" {
		return nil, errors.New("missing code or state")
	}
	userID := state

	token, profile, err := ExchangeCode(ctx, p, code)
	if err != nil {
		return nil, err
	}

	conn := &domain.Connection{
		UserID:         userID,
		Provider:       p.Name,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		ExpiresAt:      token.Expiry,
		Scope:          strings.Join(p.Scopes, " "),
		ProviderUserID: profile.ProviderUserID,
		DisplayName:    profile.DisplayName,
		Email:          profile.Email,
		AvatarURL:      profile.AvatarURL,
	}

	stored, err := u.repo.Upsert(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: storing credentials: %v", domain.ErrInfrastructure, err)
	}

	u.mirrorToken(ctx, stored)
	u.logger.Info("provider account connected", "provider", p.Name, "user", userID)
	return stored, nil
}

func (u *connectionUsecase) Disconnect(ctx context.Context, userID, providerName string) error {
	p, err := u.registry.Get(providerName)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(userID, p.Name); err != nil {
		return fmt.Errorf("%w: deleting credentials: %v", domain.ErrInfrastructure, err)
	}

	// Evict everything cached on the user's behalf for this provider.
	u.cache.Delete(ctx,
		cache.Key(p.Name, "token", userID),
		cache.Key(p.Name, "profile", userID),
		cache.Key(p.Name, "playlists", userID),
		cache.Key(p.Name, "repos", userID),
	)
	u.logger.Info("provider account disconnected", "provider", p.Name, "user", userID)
	return nil
}

func (u *connectionUsecase) ListConnections(userID string) ([]*domain.Connection, error) {
	conns, err := u.repo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing connections: %v", domain.ErrInfrastructure, err)
	}
	return conns, nil
}

// mirrorToken keeps a short-lived cache copy of the access token for the
// playback-SDK token endpoint. TTL never outlives the token itself; the entry
// shape matches what the token endpoint serves.
func (u *connectionUsecase) mirrorToken(ctx context.Context, conn *domain.Connection) {
	ttl := time.Hour
	if !conn.ExpiresAt.IsZero() {
		until := time.Until(conn.ExpiresAt) - time.Minute
		if until < ttl {
			ttl = until
		}
	}
	if ttl <= 0 {
		return
	}

	mirror := struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   string `json:"expires_at,omitempty"`
	}{AccessToken: conn.AccessToken}
	if !conn.ExpiresAt.IsZero() {
		mirror.ExpiresAt = conn.ExpiresAt.Format(time.RFC3339)
	}

	if err := u.cache.Set(ctx, cache.Key(conn.Provider, "token", conn.UserID), mirror, ttl); err != nil {
		u.logger.Warn("token mirror write failed", "provider", conn.Provider, "err", err)
	}
}

// ExchangeCode runs the authorization-code exchange and profile fetch for a
// provider. Shared with the GitHub sign-in flow, which creates the user
// before upserting the credential record.
func ExchangeCode(ctx context.Context, p *provider.Provider, code string) (*oauth2.Token, *domain.Profile, error) {
	token, err := p.OAuthConfig().Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= http.StatusInternalServerError {
				return nil, nil, fmt.Errorf("%w: %s token endpoint returned %d", domain.ErrInfrastructure, p.Name, retrieveErr.Response.StatusCode)
			}
			// Providers invalidate one-time codes; a second exchange of the
			// same code lands here.
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrHandshakeExpired, p.Name)
		}
		return nil, nil, fmt.Errorf("%w: reaching %s token endpoint: %v", domain.ErrInfrastructure, p.Name, err)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	profile, err := p.FetchProfile(ctx, client)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInfrastructure, err)
	}
	return token, profile, nil
}
