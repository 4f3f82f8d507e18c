// Package locate maps a target and library version to remote addresses and
// local cache paths. Every function here is pure: no I/O, no hidden state.
package locate

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/bianoble/yoga-sync/internal/target"
)

// Fixed upstream coordinates.
const (
	DefaultRegistryBase = "https://git.karmakrafts.dev/api/v4"
	DefaultProjectID    = "339"
	DefaultHeaderRepo   = "https://github.com/facebook/yoga"

	// CacheDirName is the cache root under the build directory.
	CacheDirName = "yoga"
	// HeadersDirName is the shared header checkout under the cache root.
	HeadersDirName = "headers"
	// BindingsDirName holds the per-target interop manifests.
	BindingsDirName = "bindings"
	// LedgerFileName is the completion ledger under the cache root.
	LedgerFileName = "yoga-sync.lock"
)

// ArtifactRef is the resolved location of one target's binary bundle.
type ArtifactRef struct {
	Target        target.Target
	Version       string
	RemoteAddress string
	ArchivePath   string // downloaded zip
	UnpackDir     string // extracted binaries
}

// HeaderRef is the resolved location of the shared header checkout.
type HeaderRef struct {
	Version string
	Repo    string
	Ref     string
	Path    string
}

// Locator resolves artifact locations. The zero value is not usable;
// construct with New or fill every field.
type Locator struct {
	BuildDir     string
	RegistryBase string
	ProjectID    string
	HeaderRepo   string
}

// New returns a Locator rooted at buildDir using the fixed upstream coordinates.
func New(buildDir string) Locator {
	return Locator{
		BuildDir:     buildDir,
		RegistryBase: DefaultRegistryBase,
		ProjectID:    DefaultProjectID,
		HeaderRepo:   DefaultHeaderRepo,
	}
}

// CacheRoot returns <build>/yoga.
func (l Locator) CacheRoot() string {
	return filepath.Join(l.BuildDir, CacheDirName)
}

// LedgerPath returns the path of the completion ledger.
func (l Locator) LedgerPath() string {
	return filepath.Join(l.CacheRoot(), LedgerFileName)
}

// BindingPath returns the interop manifest path for t.
func (l Locator) BindingPath(t target.Target) string {
	return filepath.Join(l.CacheRoot(), BindingsDirName, t.String()+".yaml")
}

// ArchiveName returns build-<platform>-<arch>-debug.zip.
func ArchiveName(t target.Target) string {
	return fmt.Sprintf("build-%s-%s-debug.zip", t.Platform, t.Arch)
}

// Locate resolves the binary bundle for t at version.
func (l Locator) Locate(t target.Target, version string) (ArtifactRef, error) {
	if !t.Valid() {
		return ArtifactRef{}, fmt.Errorf("locating artifact: unsupported target '%s'", t)
	}
	if err := checkVersion(version); err != nil {
		return ArtifactRef{}, err
	}

	base := strings.TrimRight(l.RegistryBase, "/")
	remote := fmt.Sprintf("%s/projects/%s/packages/generic/build/%s/%s",
		base, url.PathEscape(l.ProjectID), url.PathEscape(version), ArchiveName(t))

	root := l.CacheRoot()
	return ArtifactRef{
		Target:        t,
		Version:       version,
		RemoteAddress: remote,
		ArchivePath:   filepath.Join(root, ArchiveName(t)),
		UnpackDir:     filepath.Join(root, t.String()),
	}, nil
}

// Headers resolves the shared header checkout for version.
func (l Locator) Headers(version string) (HeaderRef, error) {
	if err := checkVersion(version); err != nil {
		return HeaderRef{}, err
	}
	return HeaderRef{
		Version: version,
		Repo:    l.HeaderRepo,
		Ref:     version,
		Path:    filepath.Join(l.CacheRoot(), HeadersDirName),
	}, nil
}

func checkVersion(version string) error {
	if strings.TrimSpace(version) == "" {
		return fmt.Errorf("library version is required — set 'library.version' in the config or pass --library-version")
	}
	if strings.ContainsAny(version, "/\\") || strings.Contains(version, "..") {
		return fmt.Errorf("invalid library version '%s'", version)
	}
	return nil
}
