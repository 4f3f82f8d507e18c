// Package interop hands acquired binaries and headers to the native
// interop compilation step. The compiler itself is external; binders
// either describe its inputs or invoke it.
package interop

import (
	"context"
	"fmt"

	"github.com/bianoble/yoga-sync/internal/target"
)

// Binding is the input of one interop compilation.
type Binding struct {
	Target         target.Target
	LibraryVersion string
	BinaryDir      string
	HeaderDir      string
}

// Binder performs the interop step for one target.
type Binder interface {
	Bind(ctx context.Context, b Binding) error
}

// Error attributes a binding failure to its target.
type Error struct {
	Target target.Target
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("interop %s: %v", e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// templateData is what command arguments are rendered against.
type templateData struct {
	Target    string
	Platform  string
	Arch      string
	Version   string
	BinaryDir string
	HeaderDir string
}

func newTemplateData(b Binding) templateData {
	return templateData{
		Target:    b.Target.String(),
		Platform:  string(b.Target.Platform),
		Arch:      string(b.Target.Arch),
		Version:   b.LibraryVersion,
		BinaryDir: b.BinaryDir,
		HeaderDir: b.HeaderDir,
	}
}
