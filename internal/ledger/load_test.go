package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const exampleLedger = `
version: 1

entries:

  - key: archive/linux-x64
    kind: archive
    library_version: 3.1.0
    fingerprint: 9f2c
    path: build/yoga/build-linux-x64-debug.zip

  - key: unpack/linux-x64
    kind: unpack
    library_version: 3.1.0
    source: 9f2c
    path: build/yoga/linux-x64

  - key: headers
    kind: headers
    library_version: 3.1.0
    fingerprint: 0a1b2c3d
    path: build/yoga/headers
`

func TestLoadValidLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yoga-sync.lock")
	if err := os.WriteFile(path, []byte(exampleLedger), 0644); err != nil {
		t.Fatal(err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Version != 1 {
		t.Errorf("version = %d, want 1", l.Version)
	}
	if len(l.Entries) != 3 {
		t.Errorf("entries = %d, want 3", len(l.Entries))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/yoga-sync.lock"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yoga-sync.lock")
	if err := os.WriteFile(path, []byte("version: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parsing ledger") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	l := &Ledger{
		Version: 2,
		Entries: []Entry{
			{Key: "a", Kind: KindArchive, LibraryVersion: "1"},
			{Key: "a", Kind: KindArchive, LibraryVersion: "1"},
			{Kind: "bogus"},
		},
	}
	errs := Validate(l)
	joined := strings.Join(errs, "\n")
	for _, want := range []string{"unsupported version 2", "duplicate key", "'key' is required", "unknown kind 'bogus'", "'library_version' is required"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}

func TestOpenMissingIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "none.lock"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.Lookup(HeadersKey); ok {
		t.Error("expected empty store")
	}
}

func TestRecordPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "yoga-sync.lock")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	e := Entry{Key: ArchiveKey("linux-x64"), Kind: KindArchive, LibraryVersion: "3.1.0", Fingerprint: "abc", Path: "x.zip"}
	if err := s.Record(e); err != nil {
		t.Fatalf("Record: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := reopened.Lookup(ArchiveKey("linux-x64"))
	if !ok {
		t.Fatal("entry not persisted")
	}
	if got != e {
		t.Errorf("got %+v, want %+v", got, e)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp ledger file left behind")
	}
}

func TestRecordReplaces(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "yoga-sync.lock"))
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Record(Entry{Key: HeadersKey, Kind: KindHeaders, LibraryVersion: "3.0.0"})
	_ = s.Record(Entry{Key: HeadersKey, Kind: KindHeaders, LibraryVersion: "3.1.0"})

	snap := s.Snapshot()
	if len(snap.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(snap.Entries))
	}
	if snap.Entries[0].LibraryVersion != "3.1.0" {
		t.Errorf("version = %s", snap.Entries[0].LibraryVersion)
	}
}

func TestRecordConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yoga-sync.lock")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	targets := []string{"windows-x64", "linux-x64", "linux-arm64", "macos-x64", "macos-arm64"}
	var wg sync.WaitGroup
	for _, tgt := range targets {
		wg.Add(1)
		go func(tgt string) {
			defer wg.Done()
			if err := s.Record(Entry{Key: UnpackKey(tgt), Kind: KindUnpack, LibraryVersion: "3.1.0"}); err != nil {
				t.Errorf("Record(%s): %v", tgt, err)
			}
		}(tgt)
	}
	wg.Wait()

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(l.Entries) != len(targets) {
		t.Errorf("entries = %d, want %d", len(l.Entries), len(targets))
	}
}
