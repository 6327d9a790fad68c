package v1

// Provider identifies the version control system behind a result.
type Provider string

const (
	ProviderGit        Provider = "git"
	ProviderPerforce   Provider = "perforce"
	ProviderSubversion Provider = "subversion"
	ProviderNone       Provider = "none"
)

// Entry is one historical revision of a file.
type Entry struct {
	Provider   Provider `json:"provider"`
	RevisionID string   `json:"revision_id"`
	Timestamp  int64    `json:"timestamp"`
	Author     string   `json:"author,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Path       string   `json:"path"`
	Deleted    bool     `json:"deleted,omitempty"`
}

// History is the resolved change history of one file. Entries are ordered
// newest first. Provider is ProviderNone when no system tracks the file.
type History struct {
	Provider     Provider `json:"provider"`
	RepoRoot     string   `json:"repo_root,omitempty"`
	RelativePath string   `json:"relative_path"`
	Entries      []Entry  `json:"entries"`
}
