// Package history keeps a bounded log of completed translations.
package history

import (
	"sync"

	conlang "github.com/supastishn/conlang-translator"
)

// MaxEntries is the history capacity. Adding beyond it evicts the oldest
// entries.
const MaxEntries = 10

// Persister stores the full history list. Save(nil) means the history was
// cleared and any backing record should be removed.
type Persister interface {
	Load() ([]conlang.HistoryEntry, error)
	Save(entries []conlang.HistoryEntry) error
}

// Store is a newest-first, capacity-bounded history. Every mutation writes
// the whole list through the persister before returning, so a crash never
// loses an acknowledged entry. A nil persister keeps the history in memory
// only.
type Store struct {
	mu        sync.Mutex
	entries   []conlang.HistoryEntry
	persister Persister
}

// NewStore creates a Store, loading any previously persisted entries. A list
// longer than the capacity (written by an older build) is truncated on load.
func NewStore(p Persister) (*Store, error) {
	s := &Store{persister: p}
	if p == nil {
		return s, nil
	}
	entries, err := p.Load()
	if err != nil {
		return nil, &conlang.HistoryError{Message: "loading history failed", Cause: err}
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	s.entries = entries
	return s, nil
}

// Add prepends an entry and evicts beyond capacity.
func (s *Store) Add(entry conlang.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]conlang.HistoryEntry, 0, len(s.entries)+1)
	entries = append(entries, entry)
	entries = append(entries, s.entries...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	if err := s.persist(entries); err != nil {
		return err
	}
	s.entries = entries
	return nil
}

// Remove deletes the entry with the given id. Removing an unknown id is not
// an error.
func (s *Store) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]conlang.HistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.ID != id {
			entries = append(entries, e)
		}
	}
	if len(entries) == len(s.entries) {
		return nil
	}

	if err := s.persist(entries); err != nil {
		return err
	}
	s.entries = entries
	return nil
}

// Clear removes all entries and the persisted record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(nil); err != nil {
		return err
	}
	s.entries = nil
	return nil
}

// List returns the entries newest first. The returned slice is a copy.
func (s *Store) List() []conlang.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]conlang.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) persist(entries []conlang.HistoryEntry) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(entries); err != nil {
		return &conlang.HistoryError{Message: "persisting history failed", Cause: err}
	}
	return nil
}

// Verify Store implements HistoryStore
var _ conlang.HistoryStore = (*Store)(nil)
