package httpx

import (
	"errors"
	"net/http"

	"devboard-backend/internal/connection/domain"

	"github.com/gin-gonic/gin"
)

// RespondError maps the provider error taxonomy to HTTP responses. The
// frontend keys off "code" to decide between a (re)connect prompt and a
// generic retry-later message.
func RespondError(c *gin.Context, err error) {
	var apiErr *domain.APIError

	switch {
	case errors.Is(err, domain.ErrNotConnected):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "provider account not connected", "code": "not_connected"})
	case errors.Is(err, domain.ErrReauthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "provider authorization expired, please reconnect", "code": "reauthentication_required"})
	case errors.Is(err, domain.ErrHandshakeExpired):
		c.JSON(http.StatusGone, gin.H{"error": "authorization code expired, please retry", "code": "handshake_expired"})
	case errors.Is(err, domain.ErrProviderRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "provider rate limit exceeded, try again later", "code": "rate_limited"})
	case errors.Is(err, domain.ErrInfrastructure):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable", "code": "infrastructure"})
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status >= http.StatusInternalServerError || status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "provider request failed", "code": "provider_error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
