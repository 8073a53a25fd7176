package domain

import "fmt"

// Error taxonomy surfaced by the provider client. Handlers map these to HTTP
// responses; raw provider status codes never travel above this package's
// consumers.
var (
	// ErrNotConnected means no credential record exists for the user and
	// provider. The user has to start the OAuth handshake.
	ErrNotConnected = fmt.Errorf("provider account not connected")

	// ErrReauthenticationRequired means the provider rejected the refresh
	// token (or none exists). Terminal until a fresh handshake.
	ErrReauthenticationRequired = fmt.Errorf("reauthentication required")

	// ErrHandshakeExpired means the authorization code was already consumed
	// or has expired.
	ErrHandshakeExpired = fmt.Errorf("authorization code expired or already used")

	// ErrProviderRateLimited is transient; the caller should back off.
	ErrProviderRateLimited = fmt.Errorf("provider rate limit exceeded")

	// ErrInfrastructure covers unreachable store/cache/provider endpoints.
	// Distinct from auth failures: the user is not unauthenticated, we just
	// cannot tell right now.
	ErrInfrastructure = fmt.Errorf("infrastructure unavailable")
)

// APIError is a provider response that is neither an auth failure nor a rate
// limit: validation errors, missing resources, provider 5xx and the like.
type APIError struct {
	Provider string
	Status   int
	Body     []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: status %d", e.Provider, e.Status)
}
