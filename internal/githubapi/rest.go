package githubapi

import (
	"context"

	gogithub "github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"

	"github.com/hirescope/hirescope/internal/health"
)

// RESTProbe checks GitHub API reachability and remaining quota over REST.
// The GraphQL client stays on the hot path; this probe only backs the
// readiness checker.
type RESTProbe struct {
	client *gogithub.Client
	logger zerolog.Logger
}

// NewRESTProbe creates a probe authenticated with the same token the
// GraphQL client uses.
func NewRESTProbe(token string, logger zerolog.Logger) *RESTProbe {
	return &RESTProbe{
		client: gogithub.NewClient(nil).WithAuthToken(token),
		logger: logger.With().Str("component", "github-probe").Logger(),
	}
}

// Check implements health.CheckFunc.
func (p *RESTProbe) Check(ctx context.Context) health.Status {
	limits, _, err := p.client.RateLimit.Get(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("github rate limit probe failed")
		return health.StatusDown
	}
	if core := limits.GetCore(); core != nil && core.Remaining == 0 {
		p.logger.Warn().Time("reset", core.Reset.Time).Msg("github core quota exhausted")
		return health.StatusDegraded
	}
	return health.StatusOK
}
