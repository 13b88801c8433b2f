// Package models defines the domain types shared across hirescope: GitHub
// data as fetched, the assembled analysis context, and the LLM-produced
// summaries as served.
package models

import (
	"strings"
	"time"
)

// DirectoryEntry is one node of a repository tree as returned by the data
// source. Entries is populated for directories, up to the fetch depth.
type DirectoryEntry struct {
	Name    string           `json:"name"`
	Type    string           `json:"type"`
	Entries []DirectoryEntry `json:"entries,omitempty"`
}

// IsDir reports whether the entry is a directory ("tree" in git object
// terms; files are "blob").
func (e DirectoryEntry) IsDir() bool {
	return e.Type == "tree"
}

// ContributionStats aggregates a user's activity totals.
type ContributionStats struct {
	TotalCommits      int `json:"total_commits"`
	TotalPullRequests int `json:"total_pull_requests"`
	TotalIssues       int `json:"total_issues"`
}

// UserProfile is a GitHub user's public profile. ID is the GraphQL node ID,
// needed to filter commit history by author.
type UserProfile struct {
	ID            string            `json:"id"`
	Login         string            `json:"login"`
	Name          string            `json:"name,omitempty"`
	AvatarURL     string            `json:"avatar_url,omitempty"`
	Bio           string            `json:"bio,omitempty"`
	Company       string            `json:"company,omitempty"`
	Location      string            `json:"location,omitempty"`
	WebsiteURL    string            `json:"website_url,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Followers     int               `json:"followers"`
	Following     int               `json:"following"`
	Repositories  int               `json:"repositories"`
	Contributions ContributionStats `json:"contributions"`
}

// RepositoryDetails is repository metadata plus the raw README text. The
// README feeds the analysis prompt only and is never served.
type RepositoryDetails struct {
	Name          string    `json:"name"`
	NameWithOwner string    `json:"name_with_owner"`
	Description   string    `json:"description,omitempty"`
	URL           string    `json:"url"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	IsFork        bool      `json:"is_fork"`
	IsArchived    bool      `json:"is_archived"`
	PushedAt      time.Time `json:"pushed_at"`
	DefaultBranch string    `json:"default_branch,omitempty"`
	Languages     []string  `json:"languages,omitempty"`
	Topics        []string  `json:"topics,omitempty"`
	Readme        string    `json:"-"`
}

// Commit is one commit authored by the user on the default branch.
type Commit struct {
	Message       string    `json:"message"`
	CommittedDate time.Time `json:"committed_date"`
	Additions     int       `json:"additions"`
	Deletions     int       `json:"deletions"`
}

// FirstLine returns the commit message subject: everything before the first
// newline, with any trailing carriage return stripped.
func (c Commit) FirstLine() string {
	line, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimRight(line, "\r")
}

// PullRequest is one pull request the user authored in the repository.
type PullRequest struct {
	Title        string   `json:"title"`
	State        string   `json:"state"`
	Additions    int      `json:"additions"`
	Deletions    int      `json:"deletions"`
	ChangedFiles []string `json:"changed_files,omitempty"`
}

// Issue is one issue the user opened in the repository.
type Issue struct {
	Title string `json:"title"`
	State string `json:"state"`
}

// UserContributions is a user's activity within one repository.
type UserContributions struct {
	Repository   string        `json:"repository"`
	Login        string        `json:"login"`
	TotalCommits int           `json:"total_commits"`
	Commits      []Commit      `json:"commits,omitempty"`
	PullRequests []PullRequest `json:"pull_requests,omitempty"`
	Issues       []Issue       `json:"issues,omitempty"`
}

// AnalysisContext is the bounded input handed to the repository summarizer:
// metadata, the flattened file list, and truncated README/config content.
type AnalysisContext struct {
	Name          string
	Description   string
	Topics        []string
	Languages     []string
	Files         []string
	Readme        string
	ConfigFile    string
	ConfigContent string
}

// RepositoryAnalysis is the LLM-produced repository summary. Repository is
// set by the orchestrator; the remaining fields come from the model's JSON.
type RepositoryAnalysis struct {
	Repository   string   `json:"repository"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

// ContributionAnalysis is the LLM-produced summary of one user's work in one
// repository. Repository and Login are set by the orchestrator.
type ContributionAnalysis struct {
	Repository           string   `json:"repository"`
	Login                string   `json:"login"`
	Relationship         string   `json:"relationship"`
	SummaryText          string   `json:"summary_text"`
	PrimaryAreas         []string `json:"primary_areas"`
	NotableContributions []string `json:"notable_contributions"`
}
