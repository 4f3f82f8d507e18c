// Package fetch retrieves remote artifacts into the local cache: binary
// archives over HTTP and header sources from a git repository.
package fetch

import (
	"fmt"
	"net/http"
)

// Error represents a failure of one fetch operation.
type Error struct {
	Name      string // target or "headers"
	Operation string // "download", "clone", "pull", "rev-parse"
	Err       error
	Hint      string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s failed: %s", e.Name, e.Operation, e.Err)
	if e.Hint != "" {
		msg += " — " + e.Hint
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPClient abstracts HTTP operations for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient returns an HTTPClient using http.DefaultClient.
type DefaultHTTPClient struct{}

func (DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}
