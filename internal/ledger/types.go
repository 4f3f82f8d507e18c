package ledger

// Ledger represents the yoga-sync.lock file kept under the cache root.
// It maps each cache entry to the library version and fingerprint that
// produced it.
type Ledger struct {
	Entries []Entry `yaml:"entries"`
	Version int     `yaml:"version"`
}

// Kind identifies what produced a cache entry.
type Kind string

const (
	KindArchive Kind = "archive"
	KindUnpack  Kind = "unpack"
	KindHeaders Kind = "headers"
)

// Entry records one completed cache entry.
type Entry struct {
	Key            string `yaml:"key"`
	Kind           Kind   `yaml:"kind"`
	LibraryVersion string `yaml:"library_version"`

	// Fingerprint of the entry itself: archive digest, or header commit.
	// Unpack entries carry the fingerprint of the archive they came from.
	Fingerprint string `yaml:"fingerprint,omitempty"`

	// Source is the fingerprint of the input the entry was derived from.
	Source string `yaml:"source,omitempty"`

	Path string `yaml:"path"`
}

// ArchiveKey returns the ledger key for a target's downloaded archive.
func ArchiveKey(target string) string { return string(KindArchive) + "/" + target }

// UnpackKey returns the ledger key for a target's unpacked directory.
func UnpackKey(target string) string { return string(KindUnpack) + "/" + target }

// HeadersKey is the ledger key for the shared header checkout.
const HeadersKey = string(KindHeaders)
