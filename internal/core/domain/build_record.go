package domain

import "time"

// BuildRecord is a journal entry describing how a target fared in a build run.
type BuildRecord struct {
	RunID      string        `json:"run_id,omitzero"`
	Target     string        `json:"target,omitzero"`
	Root       string        `json:"root,omitzero"`
	Status     UnitStatus    `json:"status,omitzero"`
	Duration   time.Duration `json:"duration,omitzero"`
	ExitCode   int           `json:"exit_code,omitzero"`
	FinishedAt time.Time     `json:"finished_at,omitzero"`
	SourceHash string        `json:"source_hash,omitzero"`
}

// DefaultJournalPath is where the build journal is kept unless configured otherwise.
const DefaultJournalPath = ".smake/journal.json"
