package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	conndomain "devboard-backend/internal/connection/domain"
	"devboard-backend/internal/project/domain"
	"devboard-backend/pkg/cache"
	"devboard-backend/pkg/provider"
)

const repoCacheTTL = 30 * time.Minute

// ProjectUsecase serves the dashboard's GitHub repository views. Every call
// goes through the authenticated provider caller; list and detail responses
// are cached.
type ProjectUsecase interface {
	ListRepos(ctx context.Context, userID string) ([]*domain.Repo, error)
	CreateRepo(ctx context.Context, userID string, req *domain.CreateRepoRequest) (*domain.Repo, error)
	GetRepo(ctx context.Context, userID, owner, name string) (*domain.Repo, error)
	ListCommits(ctx context.Context, userID, owner, name string) ([]*domain.Commit, error)
}

type projectUsecase struct {
	caller *provider.Caller
	cache  *cache.Cache
}

func NewProjectUsecase(caller *provider.Caller, c *cache.Cache) ProjectUsecase {
	return &projectUsecase{caller: caller, cache: c}
}

// githubRepo is the wire shape of the GitHub repositories API.
type githubRepo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Private     bool   `json:"private"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	PushedAt    string `json:"pushed_at"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	Language    string `json:"language"`
	Archived    bool   `json:"archived"`
	Disabled    bool   `json:"disabled"`
	Visibility  string `json:"visibility"`
}

type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	HTMLURL string `json:"html_url"`
}

func (u *projectUsecase) ListRepos(ctx context.Context, userID string) ([]*domain.Repo, error) {
	key := cache.Key(conndomain.ProviderGitHub, "repos", userID)
	return cache.GetOrCompute(ctx, u.cache, key, repoCacheTTL, func(ctx context.Context) ([]*domain.Repo, error) {
		body, err := u.caller.Do(ctx, userID, conndomain.ProviderGitHub, provider.Request{
			Method: http.MethodGet,
			Path:   "/user/repos",
			Query: url.Values{
				"sort":      {"updated"},
				"direction": {"desc"},
				"per_page":  {"100"},
			},
		})
		if err != nil {
			return nil, err
		}

		var raw []githubRepo
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decoding repository list: %w", err)
		}

		repos := make([]*domain.Repo, 0, len(raw))
		for i := range raw {
			repos = append(repos, mapRepo(&raw[i]))
		}
		return repos, nil
	})
}

func (u *projectUsecase) CreateRepo(ctx context.Context, userID string, req *domain.CreateRepoRequest) (*domain.Repo, error) {
	body, err := u.caller.Do(ctx, userID, conndomain.ProviderGitHub, provider.Request{
		Method: http.MethodPost,
		Path:   "/user/repos",
		Body: map[string]any{
			"name":        req.Name,
			"description": req.Description,
			"private":     req.Private,
		},
	})
	if err != nil {
		return nil, err
	}

	var raw githubRepo
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding created repository: %w", err)
	}

	// The cached list no longer matches.
	u.cache.Delete(ctx, cache.Key(conndomain.ProviderGitHub, "repos", userID))
	return mapRepo(&raw), nil
}

func (u *projectUsecase) GetRepo(ctx context.Context, userID, owner, name string) (*domain.Repo, error) {
	key := cache.Key(conndomain.ProviderGitHub, "repo", userID, owner+"/"+name)
	return cache.GetOrCompute(ctx, u.cache, key, repoCacheTTL, func(ctx context.Context) (*domain.Repo, error) {
		body, err := u.caller.Do(ctx, userID, conndomain.ProviderGitHub, provider.Request{
			Method: http.MethodGet,
			Path:   fmt.Sprintf("/repos/%s/%s", owner, name),
		})
		if err != nil {
			return nil, err
		}

		var raw githubRepo
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decoding repository: %w", err)
		}
		return mapRepo(&raw), nil
	})
}

func (u *projectUsecase) ListCommits(ctx context.Context, userID, owner, name string) ([]*domain.Commit, error) {
	body, err := u.caller.Do(ctx, userID, conndomain.ProviderGitHub, provider.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/repos/%s/%s/commits", owner, name),
		Query:  url.Values{"per_page": {"20"}},
	})
	if err != nil {
		return nil, err
	}

	var raw []githubCommit
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding commit list: %w", err)
	}

	commits := make([]*domain.Commit, 0, len(raw))
	for _, c := range raw {
		commits = append(commits, &domain.Commit{
			SHA:     c.SHA,
			Message: c.Commit.Message,
			Author:  c.Commit.Author.Name,
			Date:    c.Commit.Author.Date,
			HTMLURL: c.HTMLURL,
		})
	}
	return commits, nil
}

func mapRepo(r *githubRepo) *domain.Repo {
	return &domain.Repo{
		ID:          r.ID,
		Name:        r.Name,
		FullName:    r.FullName,
		Private:     r.Private,
		HTMLURL:     r.HTMLURL,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		PushedAt:    r.PushedAt,
		Stars:       r.Stars,
		Forks:       r.Forks,
		Language:    r.Language,
		Archived:    r.Archived,
		Disabled:    r.Disabled,
		Visibility:  r.Visibility,
	}
}
