// Package notify posts analysis completion notices to Slack. Entirely
// optional: the service runs without it when no token is configured.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/hirescope/hirescope/internal/models"
)

// Poster is the subset of the Slack client the notifier needs, injected so
// tests can substitute a fake.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts a one-line summary per completed repository analysis.
type SlackNotifier struct {
	poster  Poster
	channel string
	logger  zerolog.Logger
}

// NewSlackNotifier creates a notifier posting to the given channel.
func NewSlackNotifier(token, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		poster:  slack.New(token),
		channel: channel,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// NewSlackNotifierWithPoster creates a notifier with a custom poster.
func NewSlackNotifierWithPoster(poster Poster, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		poster:  poster,
		channel: channel,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// AnalysisCompleted implements analyzer.Notifier. Failures are logged, never
// surfaced — notifications are best-effort.
func (n *SlackNotifier) AnalysisCompleted(ctx context.Context, analysis *models.RepositoryAnalysis) {
	text := fmt.Sprintf("*%s* analyzed: %s", analysis.Repository, analysis.Description)
	if len(analysis.Technologies) > 0 {
		text += fmt.Sprintf(" _(%s)_", strings.Join(analysis.Technologies, ", "))
	}

	_, _, err := n.poster.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		n.logger.Warn().Err(err).
			Str("repository", analysis.Repository).
			Msg("failed to post analysis notification")
		return
	}
	n.logger.Debug().Str("repository", analysis.Repository).Msg("analysis notification posted")
}
