package delivery

import (
	"net/http"

	"devboard-backend/internal/connection/domain"
	"devboard-backend/internal/connection/usecase"
	"devboard-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
)

// ConnectionHandler handles provider account linking endpoints
type ConnectionHandler struct {
	connectionUsecase usecase.ConnectionUsecase
	frontendURL       string
}

func NewConnectionHandler(connectionUsecase usecase.ConnectionUsecase, frontendURL string) *ConnectionHandler {
	return &ConnectionHandler{
		connectionUsecase: connectionUsecase,
		frontendURL:       frontendURL,
	}
}

// ListConnections returns the user's linked provider accounts
// GET /api/connections
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	userID := c.GetString("userID")

	conns, err := h.connectionUsecase.ListConnections(userID)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

// InitiateLogin returns the provider authorization URL
// GET /api/connections/:provider/login
func (h *ConnectionHandler) InitiateLogin(c *gin.Context) {
	userID := c.GetString("userID")
	providerName := c.Param("provider")

	url, err := h.connectionUsecase.AuthorizationURL(userID, providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// HandleCallback completes the OAuth handshake. The provider redirects here;
// state carries the initiating user's ID, so no session is required.
// GET /api/connections/:provider/callback
func (h *ConnectionHandler) HandleCallback(c *gin.Context) {
	providerName := c.Param("provider")
	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code or state"})
		return
	}

	conn, err := h.connectionUsecase.CompleteHandshake(c.Request.Context(), providerName, code, state)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}

	// The Spotify flow runs in a full-page redirect from the dashboard; send
	// the browser back there. Other providers link from a popup that reads
	// the JSON response.
	if providerName == domain.ProviderSpotify {
		c.Redirect(http.StatusFound, h.frontendURL+"/dashboard/spotify?connected="+providerName)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"connection": conn,
	})
}

// Disconnect unlinks a provider account
// DELETE /api/connections/:provider
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	userID := c.GetString("userID")
	providerName := c.Param("provider")

	if err := h.connectionUsecase.Disconnect(c.Request.Context(), userID, providerName); err != nil {
		httpx.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
