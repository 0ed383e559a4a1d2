package models

// Suggested download names. Downstream tooling depends on them.
const (
	JSONFileName    = "stackblitz-project.json"
	ArchiveBaseName = "stackblitz-project"
)

// Artifacts are the two outputs derived from one ContentMapping snapshot
type Artifacts struct {
	JSON        []byte
	Archive     []byte
	JSONName    string
	ArchiveName string
	FileCount   int
}
