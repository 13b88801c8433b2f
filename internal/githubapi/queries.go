package githubapi

// Named GraphQL query templates. Callers reference queries by name so the
// wire layer can log and meter per-query.
const (
	QueryUserProfile       = "UserProfile"
	QueryRepositoryDetails = "RepositoryDetails"
	QueryDirectoryTree     = "DirectoryTree"
	QueryFileContent       = "FileContent"
	QueryUserContributions = "UserContributions"
)

var queries = map[string]string{
	QueryUserProfile: `
query UserProfile($username: String!) {
  user(login: $username) {
    id
    login
    name
    avatarUrl
    bio
    company
    location
    websiteUrl
    createdAt
    followers { totalCount }
    following { totalCount }
    repositories(privacy: PUBLIC) { totalCount }
    contributionsCollection {
      totalCommitContributions
      totalPullRequestContributions
      totalIssueContributions
    }
  }
}`,

	QueryRepositoryDetails: `
query RepositoryDetails($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    name
    nameWithOwner
    description
    url
    stargazerCount
    forkCount
    isFork
    isArchived
    pushedAt
    defaultBranchRef { name }
    languages(first: 10, orderBy: {field: SIZE, direction: DESC}) {
      edges { size node { name } }
    }
    repositoryTopics(first: 10) {
      nodes { topic { name } }
    }
    readme: object(expression: "HEAD:README.md") {
      ... on Blob { text }
    }
  }
}`,

	// Three levels deep. Enough to catch root-level manifests and give the
	// summarizer a feel for the layout without fetching the whole tree.
	QueryDirectoryTree: `
query DirectoryTree($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    object(expression: "HEAD:") {
      ... on Tree {
        entries {
          name
          type
          object {
            ... on Tree {
              entries {
                name
                type
                object {
                  ... on Tree {
                    entries { name type }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`,

	QueryFileContent: `
query FileContent($owner: String!, $name: String!, $expression: String!) {
  repository(owner: $owner, name: $name) {
    object(expression: $expression) {
      ... on Blob { text }
    }
  }
}`,

	QueryUserContributions: `
query UserContributions($owner: String!, $name: String!, $authorID: ID!) {
  repository(owner: $owner, name: $name) {
    nameWithOwner
    defaultBranchRef {
      target {
        ... on Commit {
          history(first: 50, author: {id: $authorID}) {
            totalCount
            nodes { message committedDate additions deletions }
          }
        }
      }
    }
    pullRequests(first: 20, orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes {
        title
        state
        additions
        deletions
        author { login }
        files(first: 10) { nodes { path } }
      }
    }
    issues(first: 20, orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes { title state author { login } }
    }
  }
}`,
}
