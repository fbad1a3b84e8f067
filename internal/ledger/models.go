package ledger

import "time"

// Status is the outcome of one build.
type Status string

const (
	StatusBuilt  Status = "built"
	StatusFailed Status = "failed"
)

// Build is one ledger row.
type Build struct {
	ID               int64
	RunID            string
	Creature         string
	ArchivePath      string
	PortraitChecksum string
	PortraitFallback bool
	Macros           int
	Library          bool
	Status           Status
	ErrorClass       string
	ErrorMessage     string
	BuiltAt          time.Time
}

// Succeeded reports whether the build produced an archive.
func (b Build) Succeeded() bool {
	return b.Status == StatusBuilt && b.ArchivePath != ""
}
