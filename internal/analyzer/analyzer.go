// Package analyzer orchestrates repository and contribution analysis: it
// fetches data from GitHub, assembles a bounded prompt context, and delegates
// to the summarization client.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	perrors "github.com/hirescope/hirescope/internal/errors"
	"github.com/hirescope/hirescope/internal/llm"
	"github.com/hirescope/hirescope/internal/models"
)

// RepoSource is the GitHub data dependency, injected so tests can substitute
// a fake.
type RepoSource interface {
	GetUserProfile(ctx context.Context, username string) (*models.UserProfile, error)
	GetRepositoryDetails(ctx context.Context, owner, repo string) (*models.RepositoryDetails, error)
	GetDirectoryTree(ctx context.Context, owner, repo string) ([]models.DirectoryEntry, error)
	GetFileContent(ctx context.Context, owner, repo, expression string) (string, error)
	GetUserContributions(ctx context.Context, owner, repo, login, authorID string) (*models.UserContributions, error)
}

// Notifier is called after a successful repository analysis. Optional.
type Notifier interface {
	AnalysisCompleted(ctx context.Context, analysis *models.RepositoryAnalysis)
}

// Config holds analyzer tuning knobs.
type Config struct {
	ReadmeBudget int      // README prefix bytes kept in the prompt
	ConfigBudget int      // config file prefix bytes kept in the prompt
	Manifests    []string // priority-ordered manifest candidates
}

// Analyzer composes repository data into analysis contexts and delegates to
// the summarizer.
type Analyzer struct {
	source     RepoSource
	summarizer llm.Completer
	notifier   Notifier
	cfg        Config
	logger     zerolog.Logger
}

// New creates an Analyzer. The summarizer is typically the prompt cache
// wrapping the LLM client.
func New(source RepoSource, summarizer llm.Completer, cfg Config, logger zerolog.Logger) *Analyzer {
	if cfg.ReadmeBudget <= 0 {
		cfg.ReadmeBudget = 500
	}
	if cfg.ConfigBudget <= 0 {
		cfg.ConfigBudget = 2000
	}
	if len(cfg.Manifests) == 0 {
		cfg.Manifests = DefaultManifests
	}
	return &Analyzer{
		source:     source,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger.With().Str("component", "analyzer").Logger(),
	}
}

// SetNotifier wires an optional completion notifier.
func (a *Analyzer) SetNotifier(n Notifier) { a.notifier = n }

// truncate caps s at budget bytes, keeping the prefix.
func truncate(s string, budget int) string {
	if len(s) > budget {
		return s[:budget]
	}
	return s
}

// AnalyzeRepository fetches repository metadata and tree, assembles an
// AnalysisContext, and returns the LLM-generated summary.
func (a *Analyzer) AnalyzeRepository(ctx context.Context, owner, repo string) (*models.RepositoryAnalysis, error) {
	details, err := a.source.GetRepositoryDetails(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching repository details: %w", err)
	}

	tree, err := a.source.GetDirectoryTree(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching directory tree: %w", err)
	}
	files := Flatten(tree)

	// Detect the most relevant manifest and pull its content. A failed
	// content fetch degrades to empty content, never a failed analysis.
	configFile, configContent := "", ""
	if detected, ok := DetectConfigFile(files, a.cfg.Manifests); ok {
		configFile = detected
		content, err := a.source.GetFileContent(ctx, owner, repo, "HEAD:"+detected)
		if err != nil {
			a.logger.Warn().Err(err).
				Str("repo", owner+"/"+repo).
				Str("config_file", detected).
				Msg("config content fetch failed, proceeding without it")
		} else {
			configContent = truncate(content, a.cfg.ConfigBudget)
		}
	}

	analysisCtx := models.AnalysisContext{
		Name:          details.Name,
		Description:   details.Description,
		Topics:        details.Topics,
		Languages:     details.Languages,
		Files:         files,
		Readme:        truncate(details.Readme, a.cfg.ReadmeBudget),
		ConfigFile:    configFile,
		ConfigContent: configContent,
	}

	raw, err := a.summarizer.CompleteJSON(ctx, repoSystemPrompt, buildRepoPrompt(analysisCtx))
	if err != nil {
		return nil, fmt.Errorf("summarizing repository: %w", err)
	}

	analysis := &models.RepositoryAnalysis{Repository: details.NameWithOwner}
	if err := json.Unmarshal(raw, analysis); err != nil {
		return nil, perrors.Wrap(perrors.ErrUpstream, "decoding repository summary: %v", err)
	}

	if a.notifier != nil {
		a.notifier.AnalysisCompleted(ctx, analysis)
	}
	return analysis, nil
}

// AnalyzeContributions fetches a user's activity in the repository and
// returns the LLM-generated contribution summary.
func (a *Analyzer) AnalyzeContributions(ctx context.Context, owner, repo, username string) (*models.ContributionAnalysis, error) {
	// Commit history filters by node ID, so resolve the profile first.
	profile, err := a.source.GetUserProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolving user %s: %w", username, err)
	}

	contrib, err := a.source.GetUserContributions(ctx, owner, repo, profile.Login, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching contributions: %w", err)
	}

	raw, err := a.summarizer.CompleteJSON(ctx, contributionSystemPrompt, buildContributionPrompt(contrib))
	if err != nil {
		return nil, fmt.Errorf("summarizing contributions: %w", err)
	}

	analysis := &models.ContributionAnalysis{
		Repository: contrib.Repository,
		Login:      profile.Login,
	}
	if err := json.Unmarshal(raw, analysis); err != nil {
		return nil, perrors.Wrap(perrors.ErrUpstream, "decoding contribution summary: %v", err)
	}
	return analysis, nil
}
