package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hirescope/hirescope/internal/errors"
	"github.com/hirescope/hirescope/internal/health"
	"github.com/hirescope/hirescope/internal/metrics"
	"github.com/hirescope/hirescope/internal/models"
)

type fakeProfileSource struct {
	profile *models.UserProfile
	err     error
}

func (f *fakeProfileSource) GetUserProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakeAnalyzer struct {
	repoAnalysis *models.RepositoryAnalysis
	contribution *models.ContributionAnalysis
	err          error
}

func (f *fakeAnalyzer) AnalyzeRepository(ctx context.Context, owner, repo string) (*models.RepositoryAnalysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.repoAnalysis, nil
}

func (f *fakeAnalyzer) AnalyzeContributions(ctx context.Context, owner, repo, login string) (*models.ContributionAnalysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.contribution, nil
}

type serverOverrides struct {
	source   ProfileSource
	analyzer Analyzer
	checker  *health.Checker
	config   Config
}

func newTestServer(t *testing.T, o serverOverrides) *Server {
	t.Helper()

	if o.source == nil {
		o.source = &fakeProfileSource{profile: &models.UserProfile{Login: "octocat"}}
	}
	if o.analyzer == nil {
		o.analyzer = &fakeAnalyzer{
			repoAnalysis: &models.RepositoryAnalysis{Repository: "octocat/hello"},
			contribution: &models.ContributionAnalysis{Repository: "octocat/hello", Login: "octocat"},
		}
	}
	if o.checker == nil {
		o.checker = health.NewChecker(zerolog.Nop())
	}

	h := NewHandlers(o.source, o.analyzer, o.checker, metrics.New(), zerolog.Nop())
	return New(o.config, h, metrics.New(), zerolog.Nop())
}

func doGet(t *testing.T, s *Server, path string, header ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeProblem(t *testing.T, resp *http.Response) ProblemDetail {
	t.Helper()
	defer resp.Body.Close()
	var pd ProblemDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}

func TestGetUser_OK(t *testing.T) {
	s := newTestServer(t, serverOverrides{})
	resp := doGet(t, s, "/api/v1/users/octocat")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var profile models.UserProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "octocat", profile.Login)
}

func TestRequestID_InboundHeaderEchoed(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	resp := doGet(t, s, "/api/v1/users/octocat", "X-Request-ID", "proxy-supplied-7")
	defer resp.Body.Close()
	assert.Equal(t, "proxy-supplied-7", resp.Header.Get("X-Request-ID"))

	resp2 := doGet(t, s, "/api/v1/users/octocat")
	defer resp2.Body.Close()
	assert.NotEmpty(t, resp2.Header.Get("X-Request-ID"))
	assert.NotEqual(t, "proxy-supplied-7", resp2.Header.Get("X-Request-ID"))
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestServer(t, serverOverrides{
		source: &fakeProfileSource{err: apperrors.Wrap(apperrors.ErrNotFound, "user ghost")},
	})
	resp := doGet(t, s, "/api/v1/users/ghost")

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	pd := decodeProblem(t, resp)
	assert.Equal(t, "not_found", pd.Type)
	assert.Equal(t, "/api/v1/users/ghost", pd.Instance)
}

func TestGetUser_InvalidUsername(t *testing.T) {
	s := newTestServer(t, serverOverrides{})
	resp := doGet(t, s, "/api/v1/users/-bad-")

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", decodeProblem(t, resp).Type)
}

func TestAnalyzeRepository_OK(t *testing.T) {
	s := newTestServer(t, serverOverrides{})
	resp := doGet(t, s, "/api/v1/repos/octocat/hello/analysis")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var analysis models.RepositoryAnalysis
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&analysis))
	assert.Equal(t, "octocat/hello", analysis.Repository)
}

func TestAnalyzeRepository_UpstreamErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{"rate limited", apperrors.Wrap(apperrors.ErrRateLimited, "github"), http.StatusTooManyRequests},
		{"upstream", apperrors.Wrap(apperrors.ErrUpstream, "llm"), http.StatusBadGateway},
		{"unavailable", apperrors.Wrap(apperrors.ErrUnavailable, "github"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, serverOverrides{analyzer: &fakeAnalyzer{err: tc.err}})
			resp := doGet(t, s, "/api/v1/repos/octocat/hello/analysis")
			assert.Equal(t, tc.expected, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestAnalyzeRepository_InternalErrorHidesDetail(t *testing.T) {
	s := newTestServer(t, serverOverrides{
		analyzer: &fakeAnalyzer{err: apperrors.Wrap(apperrors.ErrInternal, "secret db path /var/lib/x")},
	})
	resp := doGet(t, s, "/api/v1/repos/octocat/hello/analysis")

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	pd := decodeProblem(t, resp)
	assert.NotContains(t, pd.Detail, "/var/lib/x")
}

func TestAnalyzeContributions_OK(t *testing.T) {
	s := newTestServer(t, serverOverrides{})
	resp := doGet(t, s, "/api/v1/repos/octocat/hello/contributions/octocat")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var analysis models.ContributionAnalysis
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&analysis))
	assert.Equal(t, "octocat", analysis.Login)
}

func TestProbes(t *testing.T) {
	checker := health.NewChecker(zerolog.Nop())
	checker.Register("github", func(ctx context.Context) health.Status { return health.StatusOK })
	s := newTestServer(t, serverOverrides{checker: checker})

	resp := doGet(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doGet(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestReadiness_DownDependency(t *testing.T) {
	checker := health.NewChecker(zerolog.Nop())
	checker.Register("cache", func(ctx context.Context) health.Status { return health.StatusDown })
	s := newTestServer(t, serverOverrides{checker: checker})

	resp := doGet(t, s, "/readyz")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthDetail_ReportsDegraded(t *testing.T) {
	checker := health.NewChecker(zerolog.Nop())
	checker.Register("github", func(ctx context.Context) health.Status { return health.StatusDegraded })
	s := newTestServer(t, serverOverrides{checker: checker})

	resp := doGet(t, s, "/api/v1/health")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string                   `json:"status"`
		Checks map[string]health.Status `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, health.StatusDegraded, body.Checks["github"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, serverOverrides{})

	// Generate at least one observation so the request counter is exported.
	resp := doGet(t, s, "/api/v1/users/octocat")
	resp.Body.Close()

	resp = doGet(t, s, "/metrics")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "hirescope_requests_total")
}

func TestAuth_APIKey(t *testing.T) {
	cfg := Config{Auth: AuthConfig{Mode: "api-key", APIKey: "sekrit"}}
	s := newTestServer(t, serverOverrides{config: cfg})

	resp := doGet(t, s, "/api/v1/users/octocat")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doGet(t, s, "/api/v1/users/octocat", "Authorization", "Basic sekrit")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doGet(t, s, "/api/v1/users/octocat", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doGet(t, s, "/api/v1/users/octocat", "Authorization", "Bearer sekrit")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Probes stay open.
	resp = doGet(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestAuth_JWT(t *testing.T) {
	secret := "jwt-secret"
	cfg := Config{Auth: AuthConfig{Mode: "jwt", JWTSecret: secret}}
	s := newTestServer(t, serverOverrides{config: cfg})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "recruiter-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	resp := doGet(t, s, "/api/v1/users/octocat", "Authorization", "Bearer "+signed)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doGet(t, s, "/api/v1/users/octocat", "Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Token signed with the wrong key is rejected.
	badToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"})
	badSigned, err := badToken.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	resp = doGet(t, s, "/api/v1/users/octocat", "Authorization", "Bearer "+badSigned)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRateLimit_Exceeded(t *testing.T) {
	cfg := Config{RateLimit: RateLimitConfig{RPS: 1, Burst: 2}}
	s := newTestServer(t, serverOverrides{config: cfg})

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		resp := doGet(t, s, "/api/v1/users/octocat")
		statuses = append(statuses, resp.StatusCode)
		resp.Body.Close()
	}

	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusOK, statuses[1])
	assert.Contains(t, statuses, http.StatusTooManyRequests)

	// Probes bypass the limiter even when the bucket is drained.
	resp := doGet(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
