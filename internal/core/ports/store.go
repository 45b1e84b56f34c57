package ports

import "go.trai.ch/smake/internal/core/domain"

// BuildRecordStore defines the interface for the build journal.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildRecordStore interface {
	// Get retrieves the latest record for a given target.
	// Returns nil, nil if not found.
	Get(target string) (*domain.BuildRecord, error)

	// List returns the latest record of every target, sorted by target name.
	List() ([]domain.BuildRecord, error)

	// Put stores the records of one build run, replacing earlier records of the same targets.
	Put(records ...domain.BuildRecord) error
}

// JournalOpener opens the build journal kept at a path.
type JournalOpener interface {
	// Open loads the journal at path. A missing file yields an empty journal.
	Open(path string) (BuildRecordStore, error)
}
