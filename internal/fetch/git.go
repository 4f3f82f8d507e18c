package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Git is the version-control collaborator used for the header checkout.
type Git interface {
	// Clone performs a shallow, single-branch checkout of repo at ref into dest.
	Clone(ctx context.Context, repo, ref, dest string) error

	// Pull force-synchronizes dir with the remote state of ref, discarding
	// any local divergence.
	Pull(ctx context.Context, dir, ref string) error

	// Head returns the commit currently checked out in dir.
	Head(ctx context.Context, dir string) (string, error)
}

// GitCLI implements Git by running the git binary.
type GitCLI struct {
	// Binary is the git executable. Empty means "git" from PATH.
	Binary string
}

func (g *GitCLI) Clone(ctx context.Context, repo, ref, dest string) error {
	out, err := g.run(ctx, "clone", "--depth", "1", "--branch", ref, "--single-branch", repo, dest)
	if err != nil {
		return &Error{
			Name:      "headers",
			Operation: "clone",
			Err:       fmt.Errorf("git clone %s@%s: %s: %w", repo, ref, out, err),
			Hint:      "check the repository URL and that the library version exists as a tag or branch",
		}
	}
	return nil
}

// Pull fetches ref and hard-resets the work tree onto it. A plain
// "git pull" cannot be used because a clone of a tag leaves HEAD detached.
func (g *GitCLI) Pull(ctx context.Context, dir, ref string) error {
	steps := [][]string{
		{"-C", dir, "fetch", "--depth", "1", "--force", "origin", ref},
		{"-C", dir, "reset", "--hard", "FETCH_HEAD"},
		{"-C", dir, "clean", "-fd"},
	}
	for _, args := range steps {
		if out, err := g.run(ctx, args...); err != nil {
			return &Error{
				Name:      "headers",
				Operation: "pull",
				Err:       fmt.Errorf("git %s in %s: %s: %w", args[2], dir, out, err),
				Hint:      "remove the header directory to force a fresh checkout",
			}
		}
	}
	return nil
}

func (g *GitCLI) Head(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, "-C", dir, "rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Name: "headers", Operation: "rev-parse", Err: fmt.Errorf("%s: %w", out, err)}
	}
	return out, nil
}

func (g *GitCLI) run(ctx context.Context, args ...string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}
