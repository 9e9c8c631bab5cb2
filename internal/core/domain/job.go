package domain

type ActionType string

const (
	ActionAnalyzeCode    ActionType = "ANALYZE_CODE"
	ActionGenerateReadme ActionType = "GENERATE_README"
)

// ProcessingJob is the transient queue message that requests one workflow run
// for one repository. It carries no state of its own; the repository record is
// the source of truth and the job is consumed exactly once.
type ProcessingJob struct {
	RepositoryID string     `json:"repositoryId"`
	RepoURL      string     `json:"repoUrl"`
	LocalPath    string     `json:"localPath"`
	RepoName     string     `json:"repoName"`
	ActionType   ActionType `json:"actionType"`
}
