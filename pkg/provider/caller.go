package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"devboard-backend/internal/connection/domain"
	"devboard-backend/pkg/cache"

	"github.com/charmbracelet/log"
)

// CredentialStore is the slice of the connection repository the caller needs:
// loading records and persisting refreshed tokens.
type CredentialStore interface {
	Get(userID, provider string) (*domain.Connection, error)
	UpdateTokens(userID, provider, accessToken, refreshToken string, expiresAt time.Time) error
}

// Request describes one outbound provider API call. Path is joined to the
// provider's API base URL; a non-nil Body is JSON-encoded.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Caller wraps every outbound provider API call with the token lifecycle:
// proactive refresh of expired tokens, at most one reactive refresh-and-retry
// on 401, and mapping of provider responses to the error taxonomy. Callers
// above never see raw provider status codes for auth decisions.
type Caller struct {
	registry   *Registry
	store      CredentialStore
	cache      *cache.Cache
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCaller(registry *Registry, store CredentialStore, c *cache.Cache, logger *log.Logger) *Caller {
	if logger == nil {
		logger = log.Default()
	}
	return &Caller{
		registry:   registry,
		store:      store,
		cache:      c,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Do executes an authenticated API request on behalf of the user and returns
// the raw response body.
func (c *Caller) Do(ctx context.Context, userID, providerName string, req Request) ([]byte, error) {
	p, err := c.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	conn, err := c.load(userID, providerName)
	if err != nil {
		return nil, err
	}

	// Proactive refresh: never send a token past its expiry.
	refreshed := false
	if conn.Expired(c.now()) {
		c.logger.Debug("access token expired, refreshing", "provider", providerName, "user", userID)
		conn, err = c.refresh(ctx, p, conn)
		if err != nil {
			return nil, err
		}
		refreshed = true
	}

	status, body, header, err := c.execute(ctx, p, req, conn.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: calling %s: %v", domain.ErrInfrastructure, providerName, err)
	}

	// Reactive path: one refresh-and-retry on an out-of-band 401, unless this
	// call already refreshed.
	if status == http.StatusUnauthorized && !refreshed {
		c.logger.Info("provider rejected access token, refreshing once", "provider", providerName, "user", userID)
		conn, err = c.refresh(ctx, p, conn)
		if err != nil {
			return nil, err
		}
		status, body, header, err = c.execute(ctx, p, req, conn.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: calling %s: %v", domain.ErrInfrastructure, providerName, err)
		}
	}

	return classify(p.Name, status, body, header)
}

// AccessToken returns a currently valid access token and its expiry,
// refreshing first when the stored one is stale. Used for handing a token to
// the browser-side Spotify playback SDK.
func (c *Caller) AccessToken(ctx context.Context, userID, providerName string) (string, time.Time, error) {
	p, err := c.registry.Get(providerName)
	if err != nil {
		return "", time.Time{}, err
	}

	conn, err := c.load(userID, providerName)
	if err != nil {
		return "", time.Time{}, err
	}

	if conn.Expired(c.now()) {
		conn, err = c.refresh(ctx, p, conn)
		if err != nil {
			return "", time.Time{}, err
		}
	}
	return conn.AccessToken, conn.ExpiresAt, nil
}

func (c *Caller) load(userID, providerName string) (*domain.Connection, error) {
	conn, err := c.store.Get(userID, providerName)
	if err != nil {
		return nil, fmt.Errorf("%w: loading credentials: %v", domain.ErrInfrastructure, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotConnected, providerName)
	}
	return conn, nil
}

// refresh rotates the token set under a per-(user, provider) lock so
// concurrent requests cannot burn a rotated refresh token. The record is
// re-read inside the critical section; a refresh another request already
// finished is reused as-is.
func (c *Caller) refresh(ctx context.Context, p *Provider, stale *domain.Connection) (*domain.Connection, error) {
	lock := c.lockFor(stale.UserID + ":" + p.Name)
	lock.Lock()
	defer lock.Unlock()

	current, err := c.load(stale.UserID, p.Name)
	if err != nil {
		return nil, err
	}
	if current.AccessToken != stale.AccessToken && !current.Expired(c.now()) {
		return current, nil
	}

	// Once the token endpoint rotates the tokens they must be persisted,
	// even if the inbound request has been canceled meanwhile.
	token, err := Refresh(context.WithoutCancel(ctx), p, current.RefreshToken)
	if err != nil {
		return nil, err
	}

	if err := c.store.UpdateTokens(current.UserID, p.Name, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
		return nil, fmt.Errorf("%w: persisting refreshed token: %v", domain.ErrInfrastructure, err)
	}
	c.cache.Delete(ctx, cache.Key(p.Name, "token", current.UserID))

	current.AccessToken = token.AccessToken
	current.RefreshToken = token.RefreshToken
	current.ExpiresAt = token.Expiry
	return current, nil
}

func (c *Caller) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	return lock
}

func (c *Caller) execute(ctx context.Context, p *Provider, req Request, accessToken string) (int, []byte, http.Header, error) {
	apiURL := p.APIBaseURL + req.Path
	if len(req.Query) > 0 {
		apiURL += "?" + req.Query.Encode()
	}

	var payload io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return 0, nil, nil, err
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, apiURL, payload)
	if err != nil {
		return 0, nil, nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range p.APIHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, body, resp.Header, nil
}

func classify(providerName string, status int, body []byte, header http.Header) ([]byte, error) {
	switch {
	case status >= 200 && status < 300:
		return body, nil
	case status == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", domain.ErrReauthenticationRequired, providerName)
	case status == http.StatusTooManyRequests,
		status == http.StatusForbidden && header.Get("x-ratelimit-remaining") == "0":
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderRateLimited, providerName)
	default:
		return nil, &domain.APIError{Provider: providerName, Status: status, Body: body}
	}
}
