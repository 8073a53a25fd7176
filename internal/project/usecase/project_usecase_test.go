package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	conndomain "devboard-backend/internal/connection/domain"
	connrepository "devboard-backend/internal/connection/repository"
	"devboard-backend/internal/project/domain"
	"devboard-backend/pkg/cache"
	"devboard-backend/pkg/provider"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type projectFixture struct {
	usecase  ProjectUsecase
	apiCalls *atomic.Int64
}

// newProjectFixture wires the usecase against a fake GitHub API with a linked
// connection already on record for user "u1".
func newProjectFixture(t *testing.T, api http.HandlerFunc) *projectFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&conndomain.Connection{}))
	repo := connrepository.NewGormConnectionRepository(db)

	_, err = repo.Upsert(&conndomain.Connection{
		UserID:      "u1",
		Provider:    conndomain.ProviderGitHub,
		AccessToken: "gho_token",
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	c := cache.New(rdb, nil)

	apiCalls := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		api(w, r)
	}))
	t.Cleanup(srv.Close)

	gh := provider.NewGitHub("client-id", "client-secret", "http://localhost:8080/api/connections/github/callback")
	gh.APIBaseURL = srv.URL

	caller := provider.NewCaller(provider.NewRegistry(gh), repo, c, nil)
	return &projectFixture{
		usecase:  NewProjectUsecase(caller, c),
		apiCalls: apiCalls,
	}
}

func TestListReposMapsAndCaches(t *testing.T) {
	f := newProjectFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/repos", r.URL.Path)
		require.Equal(t, "updated", r.URL.Query().Get("sort"))
		w.Write([]byte(`[
			{"id":1,"name":"devboard","full_name":"octocat/devboard","private":false,"stargazers_count":7,"language":"Go"},
			{"id":2,"name":"dotfiles","full_name":"octocat/dotfiles","private":true,"visibility":"private"}
		]`))
	})
	ctx := context.Background()

	repos, err := f.usecase.ListRepos(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	require.Equal(t, "octocat/devboard", repos[0].FullName)
	require.Equal(t, 7, repos[0].Stars)
	require.True(t, repos[1].Private)

	// Second read comes from the cache.
	_, err = f.usecase.ListRepos(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 1, f.apiCalls.Load())
}

func TestListReposWithoutConnection(t *testing.T) {
	f := newProjectFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := f.usecase.ListRepos(context.Background(), "nobody")
	require.ErrorIs(t, err, conndomain.ErrNotConnected)
}

func TestCreateRepoInvalidatesList(t *testing.T) {
	f := newProjectFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/user/repos":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "new-repo", body["name"])
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":3,"name":"new-repo","full_name":"octocat/new-repo","private":true}`))
		default:
			w.Write([]byte(`[{"id":3,"name":"new-repo","full_name":"octocat/new-repo"}]`))
		}
	})
	ctx := context.Background()

	// Warm the list cache, then create.
	_, err := f.usecase.ListRepos(ctx, "u1")
	require.NoError(t, err)

	created, err := f.usecase.CreateRepo(ctx, "u1", &domain.CreateRepoRequest{
		Name:    "new-repo",
		Private: true,
	})
	require.NoError(t, err)
	require.Equal(t, "octocat/new-repo", created.FullName)

	// The next list read must go back to the API.
	_, err = f.usecase.ListRepos(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 3, f.apiCalls.Load())
}

func TestGetRepo(t *testing.T) {
	f := newProjectFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/octocat/devboard", r.URL.Path)
		w.Write([]byte(`{"id":1,"name":"devboard","full_name":"octocat/devboard","language":"Go"}`))
	})

	repo, err := f.usecase.GetRepo(context.Background(), "u1", "octocat", "devboard")
	require.NoError(t, err)
	require.Equal(t, "Go", repo.Language)
}

func TestListCommits(t *testing.T) {
	f := newProjectFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/octocat/devboard/commits", r.URL.Path)
		require.Equal(t, "20", r.URL.Query().Get("per_page"))
		w.Write([]byte(`[
			{"sha":"abc123","html_url":"https://example.com/c/abc123","commit":{"message":"Fix race","author":{"name":"Octocat","date":"2026-08-30T10:00:00Z"}}}
		]`))
	})

	commits, err := f.usecase.ListCommits(context.Background(), "u1", "octocat", "devboard")
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.Equal(t, "abc123", commits[0].SHA)
	require.Equal(t, "Fix race", commits[0].Message)
	require.Equal(t, "Octocat", commits[0].Author)
}

func TestListCommitsUpstreamError(t *testing.T) {
	f := newProjectFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := f.usecase.ListCommits(context.Background(), "u1", "octocat", "missing")
	var apiErr *conndomain.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
}
