package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bianoble/yoga-sync/internal/ledger"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.zip")

	if Exists(file) {
		t.Fatal("expected missing file")
	}
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(file) {
		t.Error("expected existing file")
	}
	if !Exists(dir) {
		t.Error("expected existing directory")
	}
}

func TestCheckWithoutLedger(t *testing.T) {
	dir := t.TempDir()
	var g *Gate

	if v := g.Check("k", filepath.Join(dir, "missing"), "3.1.0", ""); v != Missing {
		t.Errorf("verdict = %s, want missing", v)
	}
	if v := g.Check("k", dir, "3.1.0", ""); v != Present {
		t.Errorf("verdict = %s, want present", v)
	}
	if err := g.Record(ledger.Entry{Key: "k"}); err != nil {
		t.Errorf("Record on nil gate: %v", err)
	}
}

func newLedgerGate(t *testing.T) *Gate {
	t.Helper()
	s, err := ledger.Open(filepath.Join(t.TempDir(), "yoga-sync.lock"))
	if err != nil {
		t.Fatal(err)
	}
	return &Gate{Ledger: s}
}

func TestCheckUnrecordedIsPresent(t *testing.T) {
	g := newLedgerGate(t)
	if v := g.Check(ledger.HeadersKey, t.TempDir(), "3.1.0", ""); v != Present {
		t.Errorf("verdict = %s, want present", v)
	}
}

func TestCheckVersionMismatchIsStale(t *testing.T) {
	g := newLedgerGate(t)
	dir := t.TempDir()
	if err := g.Record(ledger.Entry{Key: ledger.HeadersKey, Kind: ledger.KindHeaders, LibraryVersion: "3.0.0", Path: dir}); err != nil {
		t.Fatal(err)
	}

	if v := g.Check(ledger.HeadersKey, dir, "3.1.0", ""); v != Stale {
		t.Errorf("verdict = %s, want stale", v)
	}
	if v := g.Check(ledger.HeadersKey, dir, "3.0.0", ""); v != Present {
		t.Errorf("verdict = %s, want present", v)
	}
}

func TestCheckSourceMismatchIsStale(t *testing.T) {
	g := newLedgerGate(t)
	dir := t.TempDir()
	key := ledger.UnpackKey("linux-x64")
	if err := g.Record(ledger.Entry{Key: key, Kind: ledger.KindUnpack, LibraryVersion: "3.1.0", Source: "aaaa"}); err != nil {
		t.Fatal(err)
	}

	if v := g.Check(key, dir, "3.1.0", "bbbb"); v != Stale {
		t.Errorf("verdict = %s, want stale", v)
	}
	if v := g.Check(key, dir, "3.1.0", "aaaa"); v != Present {
		t.Errorf("verdict = %s, want present", v)
	}
	if v := g.Check(key, dir, "3.1.0", ""); v != Present {
		t.Errorf("verdict = %s, want present when source unknown", v)
	}
}

func TestFingerprint(t *testing.T) {
	g := newLedgerGate(t)
	key := ledger.ArchiveKey("macos-arm64")
	if g.Fingerprint(key) != "" {
		t.Error("expected empty fingerprint")
	}
	_ = g.Record(ledger.Entry{Key: key, Kind: ledger.KindArchive, LibraryVersion: "3.1.0", Fingerprint: "ff00"})
	if got := g.Fingerprint(key); got != "ff00" {
		t.Errorf("fingerprint = %q", got)
	}
}

func TestVerdictSatisfied(t *testing.T) {
	if Missing.Satisfied() || Stale.Satisfied() || !Present.Satisfied() {
		t.Error("only Present should be satisfied")
	}
}
