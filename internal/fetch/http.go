package fetch

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Download describes a completed archive download.
type Download struct {
	Path   string
	Size   int64
	Digest string // hex BLAKE3 of the body
}

// HTTPFetcher downloads binary archives.
type HTTPFetcher struct {
	Client  HTTPClient
	MaxSize int64         // max body size in bytes (0 = no limit)
	Timeout time.Duration // per-download timeout (0 = no extra timeout beyond context)
}

// Download performs a GET of url and writes the body to dest, replacing
// whatever is there. The body goes to a temp file in dest's directory
// first, so a failed download never leaves a truncated file at dest.
// name labels errors (usually the target).
func (f *HTTPFetcher) Download(ctx context.Context, name, url, dest string) (*Download, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	client := f.Client
	if client == nil {
		client = DefaultHTTPClient{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Name: name, Operation: "download", Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Name: name, Operation: "download", Err: fmt.Errorf("fetching %s: %w", url, err), Hint: "check network connectivity and the registry URL"}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Name:      name,
			Operation: "download",
			Err:       fmt.Errorf("HTTP %d from %s", resp.StatusCode, url),
			Hint:      "check that the library version is published for this target",
		}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &Error{Name: name, Operation: "download", Err: fmt.Errorf("creating cache directory: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return nil, &Error{Name: name, Operation: "download", Err: fmt.Errorf("creating temp file: %w", err)}
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	var body io.Reader = resp.Body
	if f.MaxSize > 0 {
		body = io.LimitReader(resp.Body, f.MaxSize+1)
	}

	hasher := blake3.New()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), body)
	if err != nil {
		return nil, &Error{Name: name, Operation: "download", Err: fmt.Errorf("reading response: %w", err)}
	}
	if f.MaxSize > 0 && n > f.MaxSize {
		return nil, &Error{
			Name:      name,
			Operation: "download",
			Err:       fmt.Errorf("archive exceeds max size %d bytes", f.MaxSize),
			Hint:      "increase http.max_size in the config",
		}
	}

	if err := tmp.Sync(); err != nil {
		return nil, &Error{Name: name, Operation: "download", Err: fmt.Errorf("syncing temp file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return nil, &Error{Name: name, Operation: "download", Err: fmt.Errorf("closing temp file: %w", err)}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return nil, &Error{Name: name, Operation: "download", Err: fmt.Errorf("renaming temp file to %s: %w", dest, err)}
	}

	success = true
	return &Download{
		Path:   dest,
		Size:   n,
		Digest: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
