// Package cas implements the build journal storage.
package cas

import (
	"cmp"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/smake/internal/core/domain"
	"go.trai.ch/smake/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.BuildRecordStore using a flat JSON file keyed by target.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string]domain.BuildRecord
}

// NewStore creates a new Store backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.BuildRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(domain.ErrJournalRead, err.Error()), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrJournalRead, err.Error()), "path", s.path)
	}
	for target, rec := range s.cache {
		rec.Status = domain.NormalizeUnitStatus(string(rec.Status))
		s.cache[target] = rec
	}

	return nil
}

// save writes the journal. The caller must hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return zerr.Wrap(domain.ErrJournalWrite, err.Error())
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrJournalWrite, err.Error()), "path", dir)
	}

	// Replace atomically.
	tmp := s.path + ".tmp"
	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrJournalWrite, err.Error()), "path", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrJournalWrite, err.Error()), "path", s.path)
	}

	return nil
}

// Get retrieves the latest record for a given target.
func (s *Store) Get(target string) (*domain.BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.cache[target]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// List returns the latest record of every target, sorted by target name.
func (s *Store) List() ([]domain.BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.BuildRecord, 0, len(s.cache))
	for _, rec := range s.cache {
		records = append(records, rec)
	}
	slices.SortFunc(records, func(a, b domain.BuildRecord) int {
		return cmp.Compare(a.Target, b.Target)
	})
	return records, nil
}

// Put stores the records of one build run and persists the journal.
func (s *Store) Put(records ...domain.BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		s.cache[rec.Target] = rec
	}
	return s.save()
}

// Opener implements ports.JournalOpener.
type Opener struct{}

// Open loads the journal at path.
func (Opener) Open(path string) (ports.BuildRecordStore, error) {
	store, err := NewStore(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}
