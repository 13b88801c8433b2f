// Package githubapi is the GitHub GraphQL data source for hirescope.
package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/hirescope/hirescope/internal/errors"
	"github.com/hirescope/hirescope/internal/metrics"
	"github.com/hirescope/hirescope/internal/models"
)

const defaultEndpoint = "https://api.github.com/graphql"

// Client issues named GraphQL queries against the GitHub API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// Option configures the client.
type Option func(*Client)

func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l.With().Str("component", "githubapi").Logger() }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a GraphQL client authenticated with a bearer token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		endpoint:   defaultEndpoint,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ---- wire types ----

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Query executes a named query template and returns the raw data payload.
// A reported GraphQL error list surfaces as a failure carrying the first
// error message.
func (c *Client) Query(ctx context.Context, name string, variables map[string]any) (json.RawMessage, error) {
	tmpl, ok := queries[name]
	if !ok {
		return nil, perrors.Wrap(perrors.ErrInvalidInput, "unknown query %q", name)
	}

	body, err := json.Marshal(graphqlRequest{Query: tmpl, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "hirescope/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(name, "error")
		return nil, fmt.Errorf("github graphql http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.record(name, "error")
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, perrors.NewAPIError("github", resp.StatusCode, string(snippet))
	}

	var gr graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		c.record(name, "error")
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}

	if len(gr.Errors) > 0 {
		c.record(name, "error")
		first := gr.Errors[0]
		c.logger.Warn().
			Str("query", name).
			Str("error_type", first.Type).
			Str("message", first.Message).
			Msg("github graphql reported errors")
		return nil, classifyGraphQLError(first)
	}

	c.record(name, "ok")
	return gr.Data, nil
}

func classifyGraphQLError(e graphqlError) error {
	switch strings.ToUpper(e.Type) {
	case "NOT_FOUND":
		return perrors.Wrap(perrors.ErrNotFound, "github: %s", e.Message)
	case "RATE_LIMITED":
		return perrors.Wrap(perrors.ErrRateLimited, "github: %s", e.Message)
	}
	return perrors.Wrap(perrors.ErrUpstream, "github: %s", e.Message)
}

func (c *Client) record(query, status string) {
	if c.metrics != nil {
		c.metrics.RecordGitHubRequest(query, status)
	}
}

// ---- typed fetchers ----

type countWrapper struct {
	TotalCount int `json:"totalCount"`
}

// GetUserProfile fetches a user's public profile and contribution totals.
func (c *Client) GetUserProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	data, err := c.Query(ctx, QueryUserProfile, map[string]any{"username": username})
	if err != nil {
		return nil, err
	}

	var payload struct {
		User *struct {
			ID           string       `json:"id"`
			Login        string       `json:"login"`
			Name         string       `json:"name"`
			AvatarURL    string       `json:"avatarUrl"`
			Bio          string       `json:"bio"`
			Company      string       `json:"company"`
			Location     string       `json:"location"`
			WebsiteURL   string       `json:"websiteUrl"`
			CreatedAt    time.Time    `json:"createdAt"`
			Followers    countWrapper `json:"followers"`
			Following    countWrapper `json:"following"`
			Repositories countWrapper `json:"repositories"`
			Contributions struct {
				Commits      int `json:"totalCommitContributions"`
				PullRequests int `json:"totalPullRequestContributions"`
				Issues       int `json:"totalIssueContributions"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	if payload.User == nil {
		return nil, perrors.Wrap(perrors.ErrNotFound, "user %q", username)
	}

	u := payload.User
	return &models.UserProfile{
		ID:           u.ID,
		Login:        u.Login,
		Name:         u.Name,
		AvatarURL:    u.AvatarURL,
		Bio:          u.Bio,
		Company:      u.Company,
		Location:     u.Location,
		WebsiteURL:   u.WebsiteURL,
		CreatedAt:    u.CreatedAt,
		Followers:    u.Followers.TotalCount,
		Following:    u.Following.TotalCount,
		Repositories: u.Repositories.TotalCount,
		Contributions: models.ContributionStats{
			TotalCommits:      u.Contributions.Commits,
			TotalPullRequests: u.Contributions.PullRequests,
			TotalIssues:       u.Contributions.Issues,
		},
	}, nil
}

// GetRepositoryDetails fetches repository metadata, derived language and
// topic lists, and the raw README text.
func (c *Client) GetRepositoryDetails(ctx context.Context, owner, repo string) (*models.RepositoryDetails, error) {
	data, err := c.Query(ctx, QueryRepositoryDetails, map[string]any{"owner": owner, "name": repo})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Repository *struct {
			Name             string    `json:"name"`
			NameWithOwner    string    `json:"nameWithOwner"`
			Description      string    `json:"description"`
			URL              string    `json:"url"`
			StargazerCount   int       `json:"stargazerCount"`
			ForkCount        int       `json:"forkCount"`
			IsFork           bool      `json:"isFork"`
			IsArchived       bool      `json:"isArchived"`
			PushedAt         time.Time `json:"pushedAt"`
			DefaultBranchRef *struct {
				Name string `json:"name"`
			} `json:"defaultBranchRef"`
			Languages struct {
				Edges []struct {
					Node struct {
						Name string `json:"name"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"languages"`
			RepositoryTopics struct {
				Nodes []struct {
					Topic struct {
						Name string `json:"name"`
					} `json:"topic"`
				} `json:"nodes"`
			} `json:"repositoryTopics"`
			Readme *struct {
				Text string `json:"text"`
			} `json:"readme"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode repository details: %w", err)
	}
	if payload.Repository == nil {
		return nil, perrors.Wrap(perrors.ErrNotFound, "repository %s/%s", owner, repo)
	}

	r := payload.Repository
	details := &models.RepositoryDetails{
		Name:          r.Name,
		NameWithOwner: r.NameWithOwner,
		Description:   r.Description,
		URL:           r.URL,
		Stars:         r.StargazerCount,
		Forks:         r.ForkCount,
		IsFork:        r.IsFork,
		IsArchived:    r.IsArchived,
		PushedAt:      r.PushedAt,
	}
	for _, e := range r.Languages.Edges {
		details.Languages = append(details.Languages, e.Node.Name)
	}
	for _, n := range r.RepositoryTopics.Nodes {
		details.Topics = append(details.Topics, n.Topic.Name)
	}
	if r.Readme != nil {
		details.Readme = r.Readme.Text
	}
	if r.DefaultBranchRef != nil {
		details.DefaultBranch = r.DefaultBranchRef.Name
	}
	return details, nil
}

// treeEntry mirrors the nested GraphQL tree shape.
type treeEntry struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Object *struct {
		Entries []treeEntry `json:"entries"`
	} `json:"object"`
}

func convertEntries(in []treeEntry) []models.DirectoryEntry {
	out := make([]models.DirectoryEntry, 0, len(in))
	for _, e := range in {
		entry := models.DirectoryEntry{Name: e.Name, Type: e.Type}
		if e.Object != nil {
			entry.Entries = convertEntries(e.Object.Entries)
		}
		out = append(out, entry)
	}
	return out
}

// GetDirectoryTree fetches the repository tree at HEAD. A repository with no
// tree (empty repo) yields an empty slice, not an error.
func (c *Client) GetDirectoryTree(ctx context.Context, owner, repo string) ([]models.DirectoryEntry, error) {
	data, err := c.Query(ctx, QueryDirectoryTree, map[string]any{"owner": owner, "name": repo})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Repository *struct {
			Object *struct {
				Entries []treeEntry `json:"entries"`
			} `json:"object"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode directory tree: %w", err)
	}
	if payload.Repository == nil {
		return nil, perrors.Wrap(perrors.ErrNotFound, "repository %s/%s", owner, repo)
	}
	if payload.Repository.Object == nil {
		return nil, nil
	}
	return convertEntries(payload.Repository.Object.Entries), nil
}

// GetFileContent fetches the text of a blob by git expression, e.g.
// "HEAD:package.json". A missing blob maps to ErrNotFound.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, expression string) (string, error) {
	data, err := c.Query(ctx, QueryFileContent, map[string]any{
		"owner":      owner,
		"name":       repo,
		"expression": expression,
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		Repository *struct {
			Object *struct {
				Text string `json:"text"`
			} `json:"object"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode file content: %w", err)
	}
	if payload.Repository == nil || payload.Repository.Object == nil {
		return "", perrors.Wrap(perrors.ErrNotFound, "blob %q in %s/%s", expression, owner, repo)
	}
	return payload.Repository.Object.Text, nil
}

// GetUserContributions fetches commits, pull requests, and issues the user
// authored in the repository. Commit history is filtered server-side by the
// user's node ID; PRs and issues are filtered here by login since the
// GraphQL connections carry no author filter.
func (c *Client) GetUserContributions(ctx context.Context, owner, repo, login, authorID string) (*models.UserContributions, error) {
	data, err := c.Query(ctx, QueryUserContributions, map[string]any{
		"owner":    owner,
		"name":     repo,
		"authorID": authorID,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Repository *struct {
			NameWithOwner    string `json:"nameWithOwner"`
			DefaultBranchRef *struct {
				Target struct {
					History struct {
						TotalCount int `json:"totalCount"`
						Nodes      []struct {
							Message       string    `json:"message"`
							CommittedDate time.Time `json:"committedDate"`
							Additions     int       `json:"additions"`
							Deletions     int       `json:"deletions"`
						} `json:"nodes"`
					} `json:"history"`
				} `json:"target"`
			} `json:"defaultBranchRef"`
			PullRequests struct {
				Nodes []struct {
					Title     string `json:"title"`
					State     string `json:"state"`
					Additions int    `json:"additions"`
					Deletions int    `json:"deletions"`
					Author    *struct {
						Login string `json:"login"`
					} `json:"author"`
					Files struct {
						Nodes []struct {
							Path string `json:"path"`
						} `json:"nodes"`
					} `json:"files"`
				} `json:"nodes"`
			} `json:"pullRequests"`
			Issues struct {
				Nodes []struct {
					Title  string `json:"title"`
					State  string `json:"state"`
					Author *struct {
						Login string `json:"login"`
					} `json:"author"`
				} `json:"nodes"`
			} `json:"issues"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode user contributions: %w", err)
	}
	if payload.Repository == nil {
		return nil, perrors.Wrap(perrors.ErrNotFound, "repository %s/%s", owner, repo)
	}

	r := payload.Repository
	out := &models.UserContributions{
		Repository: r.NameWithOwner,
		Login:      login,
	}

	if r.DefaultBranchRef != nil {
		out.TotalCommits = r.DefaultBranchRef.Target.History.TotalCount
		for _, n := range r.DefaultBranchRef.Target.History.Nodes {
			out.Commits = append(out.Commits, models.Commit{
				Message:       n.Message,
				CommittedDate: n.CommittedDate,
				Additions:     n.Additions,
				Deletions:     n.Deletions,
			})
		}
	}

	for _, pr := range r.PullRequests.Nodes {
		if pr.Author == nil || pr.Author.Login != login {
			continue
		}
		p := models.PullRequest{
			Title:     pr.Title,
			State:     pr.State,
			Additions: pr.Additions,
			Deletions: pr.Deletions,
		}
		for _, f := range pr.Files.Nodes {
			p.ChangedFiles = append(p.ChangedFiles, f.Path)
		}
		out.PullRequests = append(out.PullRequests, p)
	}

	for _, is := range r.Issues.Nodes {
		if is.Author == nil || is.Author.Login != login {
			continue
		}
		out.Issues = append(out.Issues, models.Issue{Title: is.Title, State: is.State})
	}

	return out, nil
}
