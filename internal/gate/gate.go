// Package gate decides whether a mutating pipeline step can be skipped.
//
// The primary signal is existence of the step's output on disk. When a
// completion ledger is attached, an existing output recorded for a
// different library version or a different input fingerprint is reported
// as stale instead of satisfied.
package gate

import (
	"os"

	"github.com/bianoble/yoga-sync/internal/ledger"
)

// Verdict is the outcome of a gate check.
type Verdict int

const (
	// Missing means the output does not exist.
	Missing Verdict = iota
	// Present means the output exists and nothing contradicts it.
	Present
	// Stale means the output exists but was produced for another version
	// or from another input.
	Stale
)

func (v Verdict) String() string {
	switch v {
	case Missing:
		return "missing"
	case Present:
		return "present"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Satisfied reports whether the step owning the output can be skipped.
func (v Verdict) Satisfied() bool { return v == Present }

// Exists reports whether path exists. Any stat error counts as absent.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Gate evaluates outputs against the filesystem and, optionally, a ledger.
// A Gate with a nil Ledger is a pure existence check.
type Gate struct {
	Ledger *ledger.Store
}

// Check evaluates the output at path recorded under key.
// version is the library version requested for this run. source, when
// non-empty, is the fingerprint of the input the output must derive from.
func (g *Gate) Check(key, path, version, source string) Verdict {
	if !Exists(path) {
		return Missing
	}
	if g == nil || g.Ledger == nil {
		return Present
	}

	e, ok := g.Ledger.Lookup(key)
	if !ok {
		return Present
	}
	if e.LibraryVersion != version {
		return Stale
	}
	if source != "" && e.Source != "" && e.Source != source {
		return Stale
	}
	return Present
}

// Fingerprint returns the recorded fingerprint for key, if any.
func (g *Gate) Fingerprint(key string) string {
	if g == nil || g.Ledger == nil {
		return ""
	}
	e, ok := g.Ledger.Lookup(key)
	if !ok {
		return ""
	}
	return e.Fingerprint
}

// Record stores a completion marker. It is a no-op without a ledger.
func (g *Gate) Record(e ledger.Entry) error {
	if g == nil || g.Ledger == nil {
		return nil
	}
	return g.Ledger.Record(e)
}
