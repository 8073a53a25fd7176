package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devboard-backend/internal/connection/domain"
	"devboard-backend/internal/connection/repository"
	"devboard-backend/pkg/cache"
	"devboard-backend/pkg/provider"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type handshakeFixture struct {
	usecase ConnectionUsecase
	repo    repository.ConnectionRepository
	cache   *cache.Cache
	mr      *miniredis.Miniredis
}

// newHandshakeFixture wires the usecase against an in-memory database, a
// miniredis cache and a fake token endpoint that accepts each code once.
func newHandshakeFixture(t *testing.T) *handshakeFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Connection{}))
	repo := repository.NewGormConnectionRepository(db)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	c := cache.New(rdb, nil)

	usedCodes := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		code := r.FormValue("code")
		if usedCodes[code] {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		usedCodes[code] = true
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"sp_access","token_type":"bearer","refresh_token":"sp_refresh","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)

	p := &provider.Provider{
		Name:         domain.ProviderSpotify,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/api/connections/spotify/callback",
		Scopes:       []string{"user-read-private", "user-read-email"},
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"},
		FetchProfile: func(ctx context.Context, client *http.Client) (*domain.Profile, error) {
			return &domain.Profile{
				ProviderUserID: "spotify-uid",
				DisplayName:    "Dev Listener",
				Email:          "dev@example.com",
			}, nil
		},
	}

	return &handshakeFixture{
		usecase: NewConnectionUsecase(provider.NewRegistry(p), repo, c, nil),
		repo:    repo,
		cache:   c,
		mr:      mr,
	}
}

func TestAuthorizationURLCarriesUserState(t *testing.T) {
	f := newHandshakeFixture(t)

	url, err := f.usecase.AuthorizationURL("u1", domain.ProviderSpotify)
	require.NoError(t, err)
	require.Contains(t, url, "state=u1")
	require.Contains(t, url, "client_id=client-id")
}

func TestAuthorizationURLRejectsUnknownProvider(t *testing.T) {
	f := newHandshakeFixture(t)

	_, err := f.usecase.AuthorizationURL("u1", "gitlab")
	require.Error(t, err)
}

func TestCompleteHandshakeCreatesConnection(t *testing.T) {
	f := newHandshakeFixture(t)
	ctx := context.Background()

	conn, err := f.usecase.CompleteHandshake(ctx, domain.ProviderSpotify, "code-1", "u1")
	require.NoError(t, err)
	require.Equal(t, "u1", conn.UserID)
	require.Equal(t, "sp_access", conn.AccessToken)
	require.Equal(t, "sp_refresh", conn.RefreshToken)
	require.Equal(t, "Dev Listener", conn.DisplayName)
	require.True(t, conn.ExpiresAt.After(time.Now()))

	stored, err := f.repo.Get("u1", domain.ProviderSpotify)
	require.NoError(t, err)
	require.NotNil(t, stored)

	// The handshake seeds the playback token mirror.
	var mirrored struct {
		AccessToken string `json:"access_token"`
	}
	require.True(t, f.cache.Get(ctx, cache.Key(domain.ProviderSpotify, "token", "u1"), &mirrored))
	require.Equal(t, "sp_access", mirrored.AccessToken)
}

func TestCompleteHandshakeReplacesExistingConnection(t *testing.T) {
	f := newHandshakeFixture(t)
	ctx := context.Background()

	first, err := f.usecase.CompleteHandshake(ctx, domain.ProviderSpotify, "code-1", "u1")
	require.NoError(t, err)

	second, err := f.usecase.CompleteHandshake(ctx, domain.ProviderSpotify, "code-2", "u1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	all, err := f.usecase.ListConnections("u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCompleteHandshakeReusedCodeExpires(t *testing.T) {
	f := newHandshakeFixture(t)
	ctx := context.Background()

	_, err := f.usecase.CompleteHandshake(ctx, domain.ProviderSpotify, "code-1", "u1")
	require.NoError(t, err)

	// Replaying the code (stale callback, double-click) must not disturb the
	// stored record.
	_, err = f.usecase.CompleteHandshake(ctx, domain.ProviderSpotify, "code-1", "u1")
	require.ErrorIs(t, err, domain.ErrHandshakeExpired)

	stored, err := f.repo.Get("u1", domain.ProviderSpotify)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "sp_access", stored.AccessToken)
}

func TestCompleteHandshakeMissingParams(t *testing.T) {
	f := newHandshakeFixture(t)

	_, err := f.usecase.CompleteHandshake(context.Background(), domain.ProviderSpotify, "", "u1")
	require.Error(t, err)

	_, err = f.usecase.CompleteHandshake(context.Background(), domain.ProviderSpotify, "code-1", "")
	require.Error(t, err)
}

func TestDisconnectRemovesRecordAndCache(t *testing.T) {
	f := newHandshakeFixture(t)
	ctx := context.Background()

	_, err := f.usecase.CompleteHandshake(ctx, domain.ProviderSpotify, "code-1", "u1")
	require.NoError(t, err)

	require.NoError(t, f.usecase.Disconnect(ctx, "u1", domain.ProviderSpotify))

	stored, err := f.repo.Get("u1", domain.ProviderSpotify)
	require.NoError(t, err)
	require.Nil(t, stored)

	var mirrored struct {
		AccessToken string `json:"access_token"`
	}
	require.False(t, f.cache.Get(ctx, cache.Key(domain.ProviderSpotify, "token", "u1"), &mirrored))
}
