// Package unpack expands downloaded binary archives into per-target
// directories.
//
// Extraction writes into a temporary sibling directory which is renamed
// into place only after every entry has been written. The destination
// directory therefore either does not exist or holds a complete unpack,
// which is what lets its mere existence gate re-execution.
package unpack

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bianoble/yoga-sync/internal/sandbox"
	"github.com/klauspost/compress/zip"
)

// Error reports a failed extraction.
type Error struct {
	Archive string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extracting %s: %s", e.Archive, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result summarizes a completed extraction.
type Result struct {
	Dir   string
	Files int
	Bytes int64
}

// Options controls extraction.
type Options struct {
	// Replace allows an existing destination to be swapped out. Without
	// it, an existing destination is an error.
	Replace bool

	// MaxBytes caps the total uncompressed size (0 = no limit).
	MaxBytes int64
}

// Extract expands the zip archive at archive into dest.
func Extract(archive, dest string, opts Options) (*Result, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, &Error{Archive: archive, Err: fmt.Errorf("opening archive: %w", err)}
	}
	defer r.Close()

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, &Error{Archive: archive, Err: fmt.Errorf("creating %s: %w", parent, err)}
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+"-*.tmp")
	if err != nil {
		return nil, &Error{Archive: archive, Err: fmt.Errorf("creating temp directory: %w", err)}
	}
	success := false
	defer func() {
		if !success {
			_ = os.RemoveAll(tmp)
		}
	}()

	res := &Result{Dir: dest}
	var links []string
	for _, f := range r.File {
		rel, n, err := extractEntry(f, tmp)
		if err != nil {
			return nil, &Error{Archive: archive, Err: err}
		}
		if f.Mode()&fs.ModeSymlink != 0 {
			links = append(links, rel)
		}
		if !f.FileInfo().IsDir() {
			res.Files++
		}
		res.Bytes += n
		if opts.MaxBytes > 0 && res.Bytes > opts.MaxBytes {
			return nil, &Error{Archive: archive, Err: fmt.Errorf("uncompressed size exceeds %d bytes", opts.MaxBytes)}
		}
	}

	// Links checked early may resolve differently once later links exist.
	for _, rel := range links {
		if _, err := sandbox.Resolve(tmp, rel); err != nil {
			return nil, &Error{Archive: archive, Err: fmt.Errorf("link '%s': %w", rel, err)}
		}
	}

	if err := sandbox.SwapDir(tmp, dest, opts.Replace); err != nil {
		return nil, &Error{Archive: archive, Err: err}
	}

	success = true
	return res, nil
}

// extractEntry writes one entry under root and returns its root-relative
// path. Every path is resolved through the links extracted so far.
func extractEntry(f *zip.File, root string) (string, int64, error) {
	joined, err := sandbox.Join(root, f.Name)
	if err != nil {
		return "", 0, err
	}
	rel, err := filepath.Rel(root, joined)
	if err != nil {
		return "", 0, err
	}

	mode := f.Mode()
	switch {
	case mode.IsDir():
		target, err := sandbox.Resolve(root, rel)
		if err != nil {
			return "", 0, err
		}
		return rel, 0, os.MkdirAll(target, 0755)

	case mode&fs.ModeSymlink != 0:
		return rel, 0, extractSymlink(f, root, rel)

	case !mode.IsRegular():
		return "", 0, fmt.Errorf("entry '%s' has unsupported type %s", f.Name, mode.Type())
	}

	target, err := sandbox.Resolve(root, rel)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", 0, fmt.Errorf("creating directory for '%s': %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return "", 0, fmt.Errorf("opening entry '%s': %w", f.Name, err)
	}
	defer rc.Close()

	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return "", 0, fmt.Errorf("creating '%s': %w", f.Name, err)
	}

	n, copyErr := io.Copy(out, rc)
	closeErr := out.Close()
	if copyErr != nil {
		return "", n, fmt.Errorf("writing '%s': %w", f.Name, copyErr)
	}
	if closeErr != nil {
		return "", n, fmt.Errorf("closing '%s': %w", f.Name, closeErr)
	}
	return rel, n, nil
}

// extractSymlink recreates a symlink entry. Both the link's own location
// and what it points at must resolve inside root.
func extractSymlink(f *zip.File, root, rel string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry '%s': %w", f.Name, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return fmt.Errorf("reading link '%s': %w", f.Name, err)
	}
	link := strings.TrimSpace(string(raw))
	if link == "" {
		return fmt.Errorf("link '%s' is empty", f.Name)
	}
	if filepath.IsAbs(link) || strings.HasPrefix(link, "/") || filepath.VolumeName(link) != "" {
		return fmt.Errorf("link '%s' points to absolute path '%s'", f.Name, link)
	}

	parent, err := sandbox.Resolve(root, filepath.Dir(rel))
	if err != nil {
		return err
	}
	parentRel, err := filepath.Rel(root, parent)
	if err != nil {
		return err
	}
	// Joined without cleaning so ".." applies after the links before it.
	if _, err := sandbox.Resolve(root, parentRel+"/"+link); err != nil {
		return fmt.Errorf("link '%s' points outside the destination directory: %w", f.Name, err)
	}

	if err := os.MkdirAll(parent, 0755); err != nil {
		return err
	}
	return os.Symlink(link, filepath.Join(parent, filepath.Base(rel)))
}
