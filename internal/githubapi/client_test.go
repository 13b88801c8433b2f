package githubapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/hirescope/hirescope/internal/errors"
)

// fakeGraphQL returns a server that answers every query with the given
// response body and records the last request payload.
func fakeGraphQL(t *testing.T, status int, body string) (*httptest.Server, *graphqlRequest) {
	t.Helper()
	var last graphqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestQuery_UnknownName(t *testing.T) {
	c := NewClient("test-token")
	_, err := c.Query(context.Background(), "NoSuchQuery", nil)
	require.Error(t, err)
	assert.Equal(t, perrors.KindInvalid, perrors.Classify(err))
}

func TestQuery_SurfacesFirstGraphQLError(t *testing.T) {
	srv, _ := fakeGraphQL(t, 200, `{"data":null,"errors":[
		{"type":"SOME_ERROR","message":"first failure"},
		{"type":"OTHER","message":"second failure"}]}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	_, err := c.Query(context.Background(), QueryUserProfile, map[string]any{"username": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failure")
	assert.NotContains(t, err.Error(), "second failure")
	assert.Equal(t, perrors.KindUpstream, perrors.Classify(err))
}

func TestQuery_NotFoundType(t *testing.T) {
	srv, _ := fakeGraphQL(t, 200, `{"data":null,"errors":[{"type":"NOT_FOUND","message":"could not resolve"}]}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	_, err := c.Query(context.Background(), QueryRepositoryDetails, nil)
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrNotFound))
}

func TestQuery_RateLimitedType(t *testing.T) {
	srv, _ := fakeGraphQL(t, 200, `{"data":null,"errors":[{"type":"RATE_LIMITED","message":"slow down"}]}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	_, err := c.Query(context.Background(), QueryUserProfile, nil)
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrRateLimited))
}

func TestQuery_HTTPError(t *testing.T) {
	srv, _ := fakeGraphQL(t, 502, `bad gateway`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	_, err := c.Query(context.Background(), QueryUserProfile, nil)
	require.Error(t, err)
	var apiErr *perrors.APIError
	require.True(t, perrors.As(err, &apiErr))
	assert.Equal(t, 502, apiErr.StatusCode)
}

func TestGetUserProfile(t *testing.T) {
	srv, last := fakeGraphQL(t, 200, `{"data":{"user":{
		"id":"MDQ6VXNlcjE=","login":"octocat","name":"The Octocat",
		"avatarUrl":"https://example.test/a.png","bio":"","createdAt":"2011-01-25T18:44:36Z",
		"followers":{"totalCount":10},"following":{"totalCount":3},
		"repositories":{"totalCount":8},
		"contributionsCollection":{"totalCommitContributions":100,"totalPullRequestContributions":20,"totalIssueContributions":5}
	}}}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	profile, err := c.GetUserProfile(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", profile.Login)
	assert.Equal(t, "MDQ6VXNlcjE=", profile.ID)
	assert.Equal(t, 10, profile.Followers)
	assert.Equal(t, 100, profile.Contributions.TotalCommits)
	assert.Equal(t, "octocat", last.Variables["username"])
}

func TestGetUserProfile_NullUser(t *testing.T) {
	srv, _ := fakeGraphQL(t, 200, `{"data":{"user":null}}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	_, err := c.GetUserProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrNotFound))
}

func TestGetRepositoryDetails(t *testing.T) {
	srv, _ := fakeGraphQL(t, 200, `{"data":{"repository":{
		"name":"hello","nameWithOwner":"octocat/hello","description":"demo","url":"https://github.com/octocat/hello",
		"stargazerCount":42,"forkCount":7,"isFork":false,"isArchived":false,"pushedAt":"2024-05-01T00:00:00Z",
		"defaultBranchRef":{"name":"main"},
		"languages":{"edges":[{"size":100,"node":{"name":"Go"}},{"size":50,"node":{"name":"Shell"}}]},
		"repositoryTopics":{"nodes":[{"topic":{"name":"cli"}}]},
		"readme":{"text":"# hello\nworld"}
	}}}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	details, err := c.GetRepositoryDetails(context.Background(), "octocat", "hello")
	require.NoError(t, err)
	assert.Equal(t, "octocat/hello", details.NameWithOwner)
	assert.Equal(t, []string{"Go", "Shell"}, details.Languages)
	assert.Equal(t, []string{"cli"}, details.Topics)
	assert.Equal(t, "# hello\nworld", details.Readme)
	assert.Equal(t, "main", details.DefaultBranch)
}

func TestGetDirectoryTree_Nested(t *testing.T) {
	srv, _ := fakeGraphQL(t, 200, `{"data":{"repository":{"object":{"entries":[
		{"name":"src","type":"tree","object":{"entries":[{"name":"main.go","type":"blob"}]}},
		{"name":"go.mod","type":"blob"}
	]}}}}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	entries, err := c.GetDirectoryTree(context.Background(), "octocat", "hello")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "src", entries[0].Name)
	assert.True(t, entries[0].IsDir())
	require.Len(t, entries[0].Entries, 1)
	assert.Equal(t, "main.go", entries[0].Entries[0].Name)
	assert.False(t, entries[1].IsDir())
}

func TestGetDirectoryTree_EmptyRepository(t *testing.T) {
	srv, _ := fakeGraphQL(t, 200, `{"data":{"repository":{"object":null}}}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	entries, err := c.GetDirectoryTree(context.Background(), "octocat", "empty")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetFileContent(t *testing.T) {
	srv, last := fakeGraphQL(t, 200, `{"data":{"repository":{"object":{"text":"{\"name\":\"demo\"}"}}}}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	text, err := c.GetFileContent(context.Background(), "octocat", "hello", "HEAD:package.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"demo"}`, text)
	assert.Equal(t, "HEAD:package.json", last.Variables["expression"])
}

func TestGetFileContent_MissingBlob(t *testing.T) {
	srv, _ := fakeGraphQL(t, 200, `{"data":{"repository":{"object":null}}}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	_, err := c.GetFileContent(context.Background(), "octocat", "hello", "HEAD:missing.txt")
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrNotFound))
}

func TestGetUserContributions_FiltersByLogin(t *testing.T) {
	srv, last := fakeGraphQL(t, 200, `{"data":{"repository":{
		"nameWithOwner":"octocat/hello",
		"defaultBranchRef":{"target":{"history":{"totalCount":2,"nodes":[
			{"message":"fix: bug\n\nlong body","committedDate":"2024-01-01T00:00:00Z","additions":5,"deletions":1},
			{"message":"feat: thing","committedDate":"2024-01-02T00:00:00Z","additions":30,"deletions":2}
		]}}},
		"pullRequests":{"nodes":[
			{"title":"mine","state":"MERGED","additions":10,"deletions":2,"author":{"login":"octocat"},
			 "files":{"nodes":[{"path":"src/a.go"},{"path":"src/b.go"}]}},
			{"title":"theirs","state":"OPEN","additions":1,"deletions":1,"author":{"login":"someone"},
			 "files":{"nodes":[]}}
		]},
		"issues":{"nodes":[
			{"title":"my issue","state":"CLOSED","author":{"login":"octocat"}},
			{"title":"other issue","state":"OPEN","author":null}
		]}
	}}}`)
	c := NewClient("test-token", WithEndpoint(srv.URL))

	contrib, err := c.GetUserContributions(context.Background(), "octocat", "hello", "octocat", "MDQ6VXNlcjE=")
	require.NoError(t, err)
	assert.Equal(t, 2, contrib.TotalCommits)
	require.Len(t, contrib.Commits, 2)
	assert.Equal(t, "fix: bug", contrib.Commits[0].FirstLine())
	require.Len(t, contrib.PullRequests, 1)
	assert.Equal(t, "mine", contrib.PullRequests[0].Title)
	assert.Equal(t, []string{"src/a.go", "src/b.go"}, contrib.PullRequests[0].ChangedFiles)
	require.Len(t, contrib.Issues, 1)
	assert.Equal(t, "my issue", contrib.Issues[0].Title)
	assert.Equal(t, "MDQ6VXNlcjE=", last.Variables["authorID"])
}
