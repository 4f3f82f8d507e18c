package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a ledger file.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}

	var l Ledger
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing ledger %s: %w", path, err)
	}

	if errs := Validate(&l); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &l, nil
}

// Save writes a ledger atomically using a temp file and rename.
func Save(path string, l *Ledger) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp ledger %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp ledger to %s: %w", path, err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Ledger for semantic correctness.
func Validate(l *Ledger) []string {
	var errs []string

	if l.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", l.Version))
	}

	keys := make(map[string]bool)
	for i, e := range l.Entries {
		prefix := fmt.Sprintf("entry[%d]", i)
		if e.Key != "" {
			prefix = fmt.Sprintf("entry '%s'", e.Key)
		}

		if e.Key == "" {
			errs = append(errs, fmt.Sprintf("%s: 'key' is required", prefix))
		} else if keys[e.Key] {
			errs = append(errs, fmt.Sprintf("%s: duplicate key", prefix))
		} else {
			keys[e.Key] = true
		}

		switch e.Kind {
		case KindArchive, KindUnpack, KindHeaders:
		case "":
			errs = append(errs, fmt.Sprintf("%s: 'kind' is required", prefix))
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown kind '%s'", prefix, e.Kind))
		}

		if e.LibraryVersion == "" {
			errs = append(errs, fmt.Sprintf("%s: 'library_version' is required", prefix))
		}
	}

	return errs
}

// Store is a concurrency-safe view over a ledger file. Every Record is
// persisted immediately so an interrupted run keeps what it finished.
type Store struct {
	path string

	mu      sync.Mutex
	entries map[string]Entry
}

// Open loads the ledger at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]Entry)}

	l, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range l.Entries {
		s.entries[e.Key] = e
	}
	return s, nil
}

// Path returns the ledger file path.
func (s *Store) Path() string { return s.path }

// Lookup returns the entry for key.
func (s *Store) Lookup(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

// Record stores e, replacing any entry with the same key, and saves the file.
func (s *Store) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.Key] = e
	return Save(s.path, s.snapshotLocked())
}

// Snapshot returns the current ledger with entries sorted by key.
func (s *Store) Snapshot() *Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *Ledger {
	l := &Ledger{Version: 1, Entries: make([]Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		l.Entries = append(l.Entries, e)
	}
	sort.Slice(l.Entries, func(i, j int) bool {
		return l.Entries[i].Key < l.Entries[j].Key
	})
	return l
}
