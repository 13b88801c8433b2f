package analyzer

import (
	"fmt"
	"strings"

	"github.com/hirescope/hirescope/internal/models"
)

const repoSystemPrompt = `You help hiring managers understand GitHub projects quickly.
Analyze the repo and return JSON with:
{"description":"2-3 sentence summary explaining what this project does, its purpose, and key features","technologies":["list ALL frameworks, libraries, languages, databases, and tools used"]}

Be thorough detecting technologies from:
- File names: package.json/node_modules=Node.js, requirements.txt/venv=Python, pom.xml/gradle=Java, Gemfile=Ruby, go.mod=Go, Cargo.toml=Rust
- Config files: next.config=Next.js, vite.config=Vite, angular.json=Angular, vue.config=Vue, tailwind.config=Tailwind, tsconfig=TypeScript, .eslintrc=ESLint
- Folders: prisma/=Prisma, .github/workflows=GitHub Actions, docker-compose=Docker, terraform/=Terraform, k8s/=Kubernetes
- Dependencies in README or package files
List specific versions/names when possible (e.g., "React 18", "PostgreSQL", "Redis").`

const contributionSystemPrompt = `You help hiring managers understand what a developer actually contributed to a GitHub project.
Analyze the contribution history and return JSON with:
{"relationship":"Owner | Core Contributor | Contributor","summary_text":"3-4 sentence summary of what this person worked on and the impact of that work","primary_areas":["e.g. Backend", "API", "Documentation"],"notable_contributions":["short bullet for each standout commit or PR"]}

Base the relationship on commit share and PR activity. Be concrete: name the
features and subsystems the commits and pull requests touch.`

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// buildRepoPrompt renders an AnalysisContext into the repository
// summarization prompt. List fields are formatted compactly to bound token
// usage.
func buildRepoPrompt(ctx models.AnalysisContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repo: %s\n", ctx.Name)
	fmt.Fprintf(&b, "Desc: %s\n", orNone(ctx.Description))
	fmt.Fprintf(&b, "Topics: %s\n", joinOr(ctx.Topics, "None"))
	fmt.Fprintf(&b, "Langs: %s\n", joinOr(ctx.Languages, "Unknown"))
	fmt.Fprintf(&b, "Files:\n%s\n", strings.Join(ctx.Files, "\n"))
	fmt.Fprintf(&b, "README:\n%s", orNone(ctx.Readme))
	if ctx.ConfigFile != "" {
		fmt.Fprintf(&b, "\n%s:\n%s", ctx.ConfigFile, ctx.ConfigContent)
	}
	return b.String()
}

// buildContributionPrompt renders a user's contribution history into the
// contribution summarization prompt: first-line commit messages and a
// bounded file list per pull request.
func buildContributionPrompt(contrib *models.UserContributions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repo: %s\n", contrib.Repository)
	fmt.Fprintf(&b, "User: %s\n", contrib.Login)
	fmt.Fprintf(&b, "Total commits on default branch: %d\n", contrib.TotalCommits)

	b.WriteString("Commits:\n")
	for _, c := range contrib.Commits {
		fmt.Fprintf(&b, "- %s (+%d/-%d)\n", c.FirstLine(), c.Additions, c.Deletions)
	}

	b.WriteString("Pull requests:\n")
	for _, pr := range contrib.PullRequests {
		fmt.Fprintf(&b, "- [%s] %s (+%d/-%d)", pr.State, pr.Title, pr.Additions, pr.Deletions)
		if len(pr.ChangedFiles) > 0 {
			fmt.Fprintf(&b, " files: %s", strings.Join(pr.ChangedFiles, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("Issues:\n")
	for _, is := range contrib.Issues {
		fmt.Fprintf(&b, "- [%s] %s\n", is.State, is.Title)
	}

	return b.String()
}
