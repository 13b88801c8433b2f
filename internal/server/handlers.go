package server

import (
	"context"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	apperrors "github.com/hirescope/hirescope/internal/errors"
	"github.com/hirescope/hirescope/internal/health"
	"github.com/hirescope/hirescope/internal/metrics"
	"github.com/hirescope/hirescope/internal/models"
)

// ProfileSource fetches GitHub user profiles.
type ProfileSource interface {
	GetUserProfile(ctx context.Context, username string) (*models.UserProfile, error)
}

// Analyzer produces LLM-backed summaries of repositories and contributions.
type Analyzer interface {
	AnalyzeRepository(ctx context.Context, owner, repo string) (*models.RepositoryAnalysis, error)
	AnalyzeContributions(ctx context.Context, owner, repo, login string) (*models.ContributionAnalysis, error)
}

// ProblemDetail is an RFC 7807 problem response body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// GitHub logins: alphanumeric with interior hyphens, max 39 chars.
// Repo names additionally allow dots and underscores.
var (
	loginPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38}$`)
	repoPattern  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	source    ProfileSource
	analyzer  Analyzer
	checker   *health.Checker
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(source ProfileSource, analyzer Analyzer, checker *health.Checker, m *metrics.Metrics, logger zerolog.Logger) *Handlers {
	return &Handlers{
		source:    source,
		analyzer:  analyzer,
		checker:   checker,
		metrics:   m,
		logger:    logger.With().Str("component", "handlers").Logger(),
		startTime: time.Now(),
	}
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readiness handles GET /readyz. Re-runs all dependency checks.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	if !h.checker.IsReady(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"checks": h.checker.Last(),
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// HealthDetail handles GET /api/v1/health with per-dependency status.
func (h *Handlers) HealthDetail(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())

	overall := health.StatusOK
	for _, s := range results {
		if s == health.StatusDown {
			overall = health.StatusDown
			break
		}
		if s == health.StatusDegraded {
			overall = health.StatusDegraded
		}
	}

	return c.JSON(fiber.Map{
		"status": overall,
		"checks": results,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// GetUser handles GET /api/v1/users/:username.
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	username := c.Params("username")
	if !loginPattern.MatchString(username) {
		return h.fail(c, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid username %q", username))
	}

	profile, err := h.source.GetUserProfile(c.Context(), username)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(profile)
}

// AnalyzeRepository handles GET /api/v1/repos/:owner/:repo/analysis.
func (h *Handlers) AnalyzeRepository(c *fiber.Ctx) error {
	owner, repo := c.Params("owner"), c.Params("repo")
	if !loginPattern.MatchString(owner) || !repoPattern.MatchString(repo) {
		return h.fail(c, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid repository %q/%q", owner, repo))
	}

	analysis, err := h.analyzer.AnalyzeRepository(c.Context(), owner, repo)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(analysis)
}

// AnalyzeContributions handles GET /api/v1/repos/:owner/:repo/contributions/:username.
func (h *Handlers) AnalyzeContributions(c *fiber.Ctx) error {
	owner, repo, username := c.Params("owner"), c.Params("repo"), c.Params("username")
	if !loginPattern.MatchString(owner) || !repoPattern.MatchString(repo) || !loginPattern.MatchString(username) {
		return h.fail(c, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid contribution query"))
	}

	analysis, err := h.analyzer.AnalyzeContributions(c.Context(), owner, repo, username)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(analysis)
}

// fail maps a taxonomy error to a problem response and records it.
func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	kind := apperrors.Classify(err)
	status := statusForKind(kind)

	if h.metrics != nil {
		h.metrics.RecordError("server", string(kind))
	}

	evt := h.logger.Warn()
	if status >= 500 {
		evt = h.logger.Error()
	}
	evt.Err(err).
		Str("kind", string(kind)).
		Int("status", status).
		Str("path", c.Path()).
		Msg("request failed")

	detail := err.Error()
	if kind == apperrors.KindInternal {
		detail = "An internal error occurred"
	}

	return problemResponse(c, status, string(kind), titleForStatus(status), detail)
}

func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindInvalid:
		return fiber.StatusBadRequest
	case apperrors.KindRateLimited:
		return fiber.StatusTooManyRequests
	case apperrors.KindUnavailable:
		return fiber.StatusServiceUnavailable
	case apperrors.KindUpstream:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func titleForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "Not Found"
	case fiber.StatusBadRequest:
		return "Bad Request"
	case fiber.StatusTooManyRequests:
		return "Too Many Requests"
	case fiber.StatusServiceUnavailable:
		return "Service Unavailable"
	case fiber.StatusBadGateway:
		return "Bad Gateway"
	}
	return "Internal Server Error"
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}
