package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/invjournal/invjournal/internal/id"
	"github.com/invjournal/invjournal/internal/model"
)

// Action names a store mutation.
type Action string

const (
	ActionAdd    Action = "add"
	ActionDelete Action = "delete"
)

// Change describes a mutation that has been saved to disk.
type Change struct {
	Action Action
	Entry  model.Entry
}

// Observer is notified after each successful mutation. Observer errors are
// logged and never undo the change.
type Observer interface {
	Changed(c Change) error
}

// BatchObserver is an Observer that handles the changes of one save
// together, e.g. one git commit per import.
type BatchObserver interface {
	Observer
	ChangedAll(changes []Change) error
}

// Load reads all entries from the backing file at path. A missing file is an
// empty journal; a file that cannot be parsed is a *CorruptStoreError.
func Load(path string) ([]model.Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}

	entries, err := UnmarshalEntries(data)
	if err != nil {
		return nil, &CorruptStoreError{Path: path, Err: err}
	}
	return entries, nil
}

// Save atomically replaces the backing file at path with entries. The data
// goes to a temp file in the same directory which is renamed over path only
// after a successful write and sync. Failures are returned as *WriteError.
func Save(path string, entries []model.Entry) error {
	data, err := MarshalEntries(entries)
	if err != nil {
		return &WriteError{Path: path, Op: "marshal", Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: path, Op: "create dir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Op: "create temp", Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &WriteError{Path: path, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Op: "close", Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return &WriteError{Path: path, Op: "chmod", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &WriteError{Path: path, Op: "rename", Err: err}
	}
	committed = true
	return nil
}

// Store owns the canonical, ordered list of entries and keeps it in sync
// with the backing file.
type Store struct {
	path      string
	logger    *zap.Logger
	mu        sync.Mutex
	entries   []model.Entry
	observers []Observer
	now       func() time.Time
}

// Open loads the backing file at path and returns a Store over it.
func Open(path string, logger *zap.Logger) (*Store, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("journal loaded", zap.String("path", path), zap.Int("entries", len(entries)))
	return &Store{path: path, logger: logger, entries: entries, now: time.Now}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Observe registers o to be notified after each saved mutation.
func (s *Store) Observe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Entries returns a copy of all entries in insertion order.
func (s *Store) Entries() []model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Get returns the entry with the given ID.
func (s *Store) Get(entryID string) (model.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(entryID); i >= 0 {
		return s.entries[i].Clone(), true
	}
	return model.Entry{}, false
}

// Add appends e and saves. An entry without ID or date gets a new ID and
// today's date. On a save failure the in-memory list is left unchanged.
// Returns the stored entry.
func (s *Store) Add(e model.Entry) (model.Entry, error) {
	added, err := s.AddAll([]model.Entry{e})
	if err != nil {
		return model.Entry{}, err
	}
	return added[0], nil
}

// AddAll appends entries with a single save. Every entry is checked before
// anything is written, so either all of them are stored or none is.
func (s *Store) AddAll(entries []model.Entry) ([]model.Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	prepared := make([]model.Entry, len(entries))
	for i, e := range entries {
		p, err := s.prepare(e)
		if err != nil {
			return nil, entryError(i, len(entries), err)
		}
		prepared[i] = p
	}

	s.mu.Lock()
	seen := make(map[string]bool, len(prepared))
	for i, e := range prepared {
		if seen[e.ID] || s.indexOf(e.ID) >= 0 {
			s.mu.Unlock()
			return nil, entryError(i, len(prepared), fmt.Errorf("%w: %s", ErrDuplicateID, e.ID))
		}
		seen[e.ID] = true
	}

	next := make([]model.Entry, len(s.entries), len(s.entries)+len(prepared))
	copy(next, s.entries)
	next = append(next, prepared...)
	if err := Save(s.path, next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.entries = next
	observers := s.observers
	s.mu.Unlock()

	changes := make([]Change, len(prepared))
	out := make([]model.Entry, len(prepared))
	for i, e := range prepared {
		s.logger.Info("entry added", zap.String("id", e.ID), zap.String("category", string(e.Category)))
		changes[i] = Change{Action: ActionAdd, Entry: e}
		out[i] = e.Clone()
	}
	s.notify(observers, changes)
	return out, nil
}

// prepare brings e into the form it has after a round trip through the
// backing file: assigned ID, calendar date, normalized tags.
func (s *Store) prepare(e model.Entry) (model.Entry, error) {
	e = e.Clone()
	if e.ID == "" {
		e.ID = id.New()
	}
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	e.Date = Today(e.Date)
	e.Tags = model.NormalizeTags(e.Tags)
	if err := id.Check(e.ID); err != nil {
		return model.Entry{}, err
	}
	if !e.Category.Valid() {
		return model.Entry{}, fmt.Errorf("invalid category %q", e.Category)
	}
	return e, nil
}

func entryError(i, n int, err error) error {
	if n == 1 {
		return err
	}
	return fmt.Errorf("entry %d of %d: %w", i+1, n, err)
}

// Delete removes the entry with the given ID and saves. An unknown ID is a
// no-op: it reports false and does not touch the file. On a save failure the
// in-memory list is left unchanged.
func (s *Store) Delete(entryID string) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(entryID)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}

	removed := s.entries[i]
	next := make([]model.Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:i]...)
	next = append(next, s.entries[i+1:]...)
	if err := Save(s.path, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.entries = next
	observers := s.observers
	s.mu.Unlock()

	s.logger.Info("entry deleted", zap.String("id", entryID))
	s.notify(observers, []Change{{Action: ActionDelete, Entry: removed}})
	return true, nil
}

// Today returns the calendar date of t as a UTC midnight.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Store) indexOf(entryID string) int {
	for i, e := range s.entries {
		if e.ID == entryID {
			return i
		}
	}
	return -1
}

func (s *Store) notify(observers []Observer, changes []Change) {
	for _, o := range observers {
		if b, ok := o.(BatchObserver); ok && len(changes) > 1 {
			if err := b.ChangedAll(changes); err != nil {
				s.logger.Warn("journal observer failed",
					zap.String("action", string(changes[0].Action)),
					zap.Int("entries", len(changes)),
					zap.Error(err))
			}
			continue
		}
		for _, c := range changes {
			if err := o.Changed(c); err != nil {
				s.logger.Warn("journal observer failed",
					zap.String("action", string(c.Action)),
					zap.String("id", c.Entry.ID),
					zap.Error(err))
			}
		}
	}
}
