package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	authdomain "devboard-backend/internal/auth/domain"
	authdto "devboard-backend/internal/auth/dto"
	"devboard-backend/internal/auth/repository"
	conndomain "devboard-backend/internal/connection/domain"
	connrepository "devboard-backend/internal/connection/repository"
	"devboard-backend/pkg/cache"
	"devboard-backend/pkg/config"
	"devboard-backend/pkg/provider"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type authFixture struct {
	usecase  AuthUsecase
	connRepo connrepository.ConnectionRepository
	mr       *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}, &conndomain.Connection{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	// Fake GitHub: token endpoint plus the two profile endpoints the sign-in
	// flow reads.
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gho_token","token_type":"bearer","scope":"user:email repo"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":12345,"login":"octocat","name":"The Octocat","avatar_url":"https://example.com/a.png","email":"octocat@example.com"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gh := provider.NewGitHub("client-id", "client-secret", "http://localhost:8080/api/connections/github/callback")
	gh.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/login/oauth/authorize",
		TokenURL: srv.URL + "/login/oauth/access_token",
	}
	gh.APIBaseURL = srv.URL

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 7 * 24 * time.Hour,
	}

	userRepo := repository.NewUserRepository(db)
	connRepo := connrepository.NewGormConnectionRepository(db)

	return &authFixture{
		usecase:  NewAuthUsecase(userRepo, connRepo, provider.NewRegistry(gh), cache.New(rdb, nil), cfg),
		connRepo: connRepo,
		mr:       mr,
	}
}

func registerReq() *authdto.RegisterRequest {
	return &authdto.RegisterRequest{
		Email:    "dev@example.com",
		Password: "secret123",
		Name:     "Dev",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.usecase.Register(registerReq())
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "dev@example.com", resp.User.Email)
	require.Equal(t, "local", resp.User.Provider)

	login, err := f.usecase.Login(&authdto.LoginRequest{Email: "dev@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.usecase.Register(registerReq())
	require.NoError(t, err)

	_, err = f.usecase.Register(registerReq())
	require.EqualError(t, err, "email already registered")
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.usecase.Register(registerReq())
	require.NoError(t, err)

	_, err = f.usecase.Login(&authdto.LoginRequest{Email: "dev@example.com", Password: "wrong-pass"})
	require.EqualError(t, err, "invalid email or password")
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.usecase.Login(&authdto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	require.EqualError(t, err, "invalid email or password")
}

func TestValidateToken(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.usecase.Register(registerReq())
	require.NoError(t, err)

	user, err := f.usecase.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, user.ID)

	_, err = f.usecase.ValidateToken("not-a-jwt")
	require.Error(t, err)
}

func TestRefreshTokenRotation(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.usecase.Register(registerReq())
	require.NoError(t, err)

	rotated, err := f.usecase.RefreshToken(resp.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.Equal(t, resp.User.ID, rotated.User.ID)
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.usecase.Register(registerReq())
	require.NoError(t, err)

	require.NoError(t, f.usecase.Logout(resp.RefreshToken))

	_, err = f.usecase.RefreshToken(resp.RefreshToken)
	require.EqualError(t, err, "refresh token expired")
}

func TestGitHubAuthURLStoresNonce(t *testing.T) {
	f := newAuthFixture(t)

	authURL, err := f.usecase.GitHubAuthURL(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.True(t, len(state) > len("login:"))
	require.Contains(t, state, "login:")
}

func TestGitHubSignInCreatesUserAndConnection(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	authURL, err := f.usecase.GitHubAuthURL(ctx)
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")

	resp, err := f.usecase.GitHubSignIn(ctx, "code-1", state)
	require.NoError(t, err)
	require.Equal(t, "octocat@example.com", resp.User.Email)
	require.Equal(t, "github", resp.User.Provider)
	require.NotEmpty(t, resp.AccessToken)

	// Sign-in also links GitHub for the repo endpoints.
	conn, err := f.connRepo.Get(resp.User.ID, conndomain.ProviderGitHub)
	require.NoError(t, err)
	require.NotNil(t, conn)
	require.Equal(t, "gho_token", conn.AccessToken)
	require.True(t, conn.ExpiresAt.IsZero() || conn.ExpiresAt.After(time.Now()))
}

func TestGitHubSignInReusedStateRejected(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	authURL, err := f.usecase.GitHubAuthURL(ctx)
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")

	_, err = f.usecase.GitHubSignIn(ctx, "code-1", state)
	require.NoError(t, err)

	// The nonce is consumed on first use.
	_, err = f.usecase.GitHubSignIn(ctx, "code-2", state)
	require.EqualError(t, err, "invalid or expired state")
}

func TestGitHubSignInForgedState(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.usecase.GitHubSignIn(context.Background(), "code-1", "login:forged")
	require.EqualError(t, err, "invalid or expired state")

	_, err = f.usecase.GitHubSignIn(context.Background(), "code-1", "some-user-id")
	require.EqualError(t, err, "invalid state")
}

func TestGitHubSignInExistingUserUpdatesProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.usecase.Register(&authdto.RegisterRequest{
		Email:    "octocat@example.com",
		Password: "secret123",
		Name:     "Old Name",
	})
	require.NoError(t, err)

	authURL, err := f.usecase.GitHubAuthURL(ctx)
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)

	resp, err := f.usecase.GitHubSignIn(ctx, "code-1", parsed.Query().Get("state"))
	require.NoError(t, err)
	require.Equal(t, "The Octocat", resp.User.Name)
	// The original account (and its provider) is kept, not duplicated.
	require.Equal(t, "local", resp.User.Provider)
}
