// Package sandbox keeps file writes inside a root directory: archive
// entries during extraction and interop manifests under the cache root.
package sandbox

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Join joins an archive entry name onto root and rejects names that would
// land outside it (absolute paths, "..", drive letters). It is purely
// lexical and is meant for freshly created directories with no symlinks.
func Join(root, name string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	if name == "" || clean == "/" {
		return "", fmt.Errorf("empty entry name")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("entry '%s' has an absolute path", name)
	}
	for _, part := range strings.Split(strings.ReplaceAll(name, "\\", "/"), "/") {
		if part == ".." {
			return "", fmt.Errorf("entry '%s' escapes the destination directory", name)
		}
	}
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// maxLinkHops bounds symlink expansion in Resolve.
const maxLinkHops = 40

// Resolve walks rel under root one component at a time, expanding any
// symlink already on disk, and fails as soon as a step would leave root.
// Components that do not exist are taken literally. The result is root
// joined with the resolved components.
//
// Unlike Join and ValidatePath, ".." is applied after the symlinks before
// it have been expanded, so chains such as d -> "." and e -> "d/.." are
// seen for what the OS makes of them.
func Resolve(root, rel string) (string, error) {
	var parts []string
	pending := splitPath(rel)
	hops := 0
	for len(pending) > 0 {
		part := pending[0]
		pending = pending[1:]

		switch part {
		case ".":
			continue
		case "..":
			if len(parts) == 0 {
				return "", fmt.Errorf("path '%s' escapes the root '%s'", rel, root)
			}
			parts = parts[:len(parts)-1]
			continue
		}

		cur := filepath.Join(root, filepath.Join(parts...), part)
		info, err := os.Lstat(cur)
		if err != nil || info.Mode()&fs.ModeSymlink == 0 {
			parts = append(parts, part)
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", fmt.Errorf("path '%s': too many levels of symbolic links", rel)
		}
		link, err := os.Readlink(cur)
		if err != nil {
			return "", fmt.Errorf("reading link %s: %w", cur, err)
		}
		if filepath.IsAbs(link) || strings.HasPrefix(link, "/") || filepath.VolumeName(link) != "" {
			return "", fmt.Errorf("path '%s' crosses link '%s' to absolute path '%s'", rel, part, link)
		}
		pending = append(splitPath(link), pending...)
	}
	return filepath.Join(root, filepath.Join(parts...)), nil
}

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
}

// ValidatePath checks if targetPath is safely within root.
// It resolves symlinks, normalizes paths, and verifies containment.
// Returns the resolved absolute path or an error.
func ValidatePath(root, targetPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, targetPath))

	// The path may not exist yet, so resolve as much as we can.
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving target path: %w", err)
	}

	// Trailing separator avoids prefix matching "root2" for "root".
	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside the root '%s'", targetPath, resolved, realRoot)
	}

	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of
// the path, then appends the non-existing suffix.
func resolveExistingPath(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(p)
	base := filepath.Base(p)
	if dir == p {
		return p, nil
	}

	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// SafeWrite atomically writes content to relPath within root, creating
// parent directories as needed.
func SafeWrite(root, relPath string, content []byte, perm os.FileMode) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("creating root %s: %w", root, err)
	}

	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Same directory keeps the rename on one filesystem.
	tmp, err := os.CreateTemp(dir, ".yoga-sync-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}

	success = true
	return nil
}

// SwapDir renames the finished directory tmp to dest. With replace, a
// previous dest is moved aside first and removed once the new one is in
// place; without it an existing dest is an error.
func SwapDir(tmp, dest string, replace bool) error {
	if _, err := os.Lstat(dest); err == nil {
		if !replace {
			return fmt.Errorf("destination %s already exists", dest)
		}
		old := tmp + ".old"
		if err := os.Rename(dest, old); err != nil {
			return fmt.Errorf("moving previous %s aside: %w", dest, err)
		}
		if err := os.Rename(tmp, dest); err != nil {
			_ = os.Rename(old, dest)
			return fmt.Errorf("renaming into %s: %w", dest, err)
		}
		_ = os.RemoveAll(old)
		return nil
	}

	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("renaming into %s: %w", dest, err)
	}
	return nil
}
