package usecase

import (
	"context"

	"devboard-backend/internal/connection/domain"
)

// ConnectionUsecase manages linking, unlinking and inspecting provider
// accounts. CompleteHandshake is the only operation that can (re)create a
// credential record; a record whose refresh token was rejected stays dead
// until the user goes through it again.
type ConnectionUsecase interface {
	// AuthorizationURL builds the provider consent URL. The state parameter
	// carries the user ID so the callback can be correlated without session
	// continuity (the callback may land in a popup).
	AuthorizationURL(userID, providerName string) (string, error)

	// CompleteHandshake exchanges the authorization code, fetches the
	// provider profile and upserts the credential record for the user named
	// by state.
	CompleteHandshake(ctx context.Context, providerName, code, state string) (*domain.Connection, error)

	// Disconnect deletes the credential record and evicts cached provider data.
	Disconnect(ctx context.Context, userID, providerName string) error

	// ListConnections returns the user's linked providers (profile snapshot
	// only, no tokens).
	ListConnections(userID string) ([]*domain.Connection, error)
}
