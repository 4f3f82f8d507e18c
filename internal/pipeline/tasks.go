package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bianoble/yoga-sync/internal/ctxlog"
	"github.com/bianoble/yoga-sync/internal/gate"
	"github.com/bianoble/yoga-sync/internal/interop"
	"github.com/bianoble/yoga-sync/internal/ledger"
	"github.com/bianoble/yoga-sync/internal/locate"
	"github.com/bianoble/yoga-sync/internal/sandbox"
	"github.com/bianoble/yoga-sync/internal/unpack"
)

// relPath returns path relative to the cache root for ledger entries.
func (r *run) relPath(path string) string {
	rel, err := filepath.Rel(r.p.Locator.CacheRoot(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (r *run) archiveVerdict(ref locate.ArtifactRef) gate.Verdict {
	return r.p.Gate.Check(ledger.ArchiveKey(ref.Target.String()), ref.ArchivePath, r.p.Version, "")
}

func (r *run) unpackVerdict(ref locate.ArtifactRef) gate.Verdict {
	src := r.p.Gate.Fingerprint(ledger.ArchiveKey(ref.Target.String()))
	return r.p.Gate.Check(ledger.UnpackKey(ref.Target.String()), ref.UnpackDir, r.p.Version, src)
}

func (r *run) headersVerdict(hdr locate.HeaderRef) gate.Verdict {
	return r.p.Gate.Check(ledger.HeadersKey, hdr.Path, r.p.Version, "")
}

func (r *run) downloadGuard(ref locate.ArtifactRef) func(context.Context) bool {
	return func(ctx context.Context) bool {
		v := r.archiveVerdict(ref)
		if v == gate.Stale {
			ctxlog.FromContext(ctx).Info("Cached archive is stale.", "target", ref.Target.String(), "path", ref.ArchivePath)
		}
		return v.Satisfied()
	}
}

// download fetches the archive, always overwriting once invoked.
func (r *run) download(ref locate.ArtifactRef) func(context.Context) error {
	return func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)
		logger.Info("Downloading archive.", "target", ref.Target.String(), "url", ref.RemoteAddress)

		dl, err := r.p.Fetcher.Download(ctx, ref.Target.String(), ref.RemoteAddress, ref.ArchivePath)
		if err != nil {
			return err
		}
		r.stats.downloads.Add(1)
		r.stats.downloadedBytes.Add(dl.Size)
		logger.Debug("Archive downloaded.", "target", ref.Target.String(), "bytes", dl.Size, "blake3", dl.Digest)

		return r.p.Gate.Record(ledger.Entry{
			Key:            ledger.ArchiveKey(ref.Target.String()),
			Kind:           ledger.KindArchive,
			LibraryVersion: r.p.Version,
			Fingerprint:    dl.Digest,
			Path:           r.relPath(ref.ArchivePath),
		})
	}
}

func (r *run) unpackGuard(ref locate.ArtifactRef) func(context.Context) bool {
	return func(ctx context.Context) bool {
		v := r.unpackVerdict(ref)
		if v == gate.Stale {
			ctxlog.FromContext(ctx).Info("Unpacked binaries are stale.", "target", ref.Target.String(), "path", ref.UnpackDir)
		}
		return v.Satisfied()
	}
}

// unpack extracts the archive. A directory left by an earlier run reaches
// this point only when stale, and is replaced.
func (r *run) unpack(ref locate.ArtifactRef) func(context.Context) error {
	return func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)
		logger.Info("Unpacking archive.", "target", ref.Target.String(), "dest", ref.UnpackDir)

		res, err := r.p.extractor()(ref.ArchivePath, ref.UnpackDir, unpack.Options{
			Replace:  gate.Exists(ref.UnpackDir),
			MaxBytes: r.p.MaxUnpackBytes,
		})
		if err != nil {
			return err
		}
		r.stats.extractions.Add(1)
		logger.Debug("Archive unpacked.", "target", ref.Target.String(), "files", res.Files, "bytes", res.Bytes)

		src := r.p.Gate.Fingerprint(ledger.ArchiveKey(ref.Target.String()))
		return r.p.Gate.Record(ledger.Entry{
			Key:            ledger.UnpackKey(ref.Target.String()),
			Kind:           ledger.KindUnpack,
			LibraryVersion: r.p.Version,
			Fingerprint:    src,
			Source:         src,
			Path:           r.relPath(ref.UnpackDir),
		})
	}
}

func (r *run) cloneGuard(hdr locate.HeaderRef) func(context.Context) bool {
	return func(ctx context.Context) bool {
		v := r.headersVerdict(hdr)
		if v == gate.Stale {
			ctxlog.FromContext(ctx).Info("Header checkout is stale.", "path", hdr.Path)
		}
		return v.Satisfied()
	}
}

// clone checks out the headers. A stale checkout is cloned fresh next to
// the old one and swapped in.
func (r *run) clone(hdr locate.HeaderRef) func(context.Context) error {
	return func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)
		logger.Info("Cloning headers.", "repo", hdr.Repo, "ref", hdr.Ref)

		if err := r.cloneInto(ctx, hdr); err != nil {
			return err
		}
		r.cloned.Store(true)
		r.stats.clones.Add(1)

		return r.recordHeaders(ctx, hdr)
	}
}

func (r *run) cloneInto(ctx context.Context, hdr locate.HeaderRef) error {
	parent := filepath.Dir(hdr.Path)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}

	if !gate.Exists(hdr.Path) {
		return r.p.Git.Clone(ctx, hdr.Repo, hdr.Ref, hdr.Path)
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(hdr.Path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	success := false
	defer func() {
		if !success {
			_ = os.RemoveAll(tmp)
		}
	}()

	if err := r.p.Git.Clone(ctx, hdr.Repo, hdr.Ref, tmp); err != nil {
		return err
	}
	if err := sandbox.SwapDir(tmp, hdr.Path, true); err != nil {
		return err
	}
	success = true
	return nil
}

// refreshGuard skips the refresh when this run already cloned.
func (r *run) refreshGuard(hdr locate.HeaderRef) func(context.Context) bool {
	return func(context.Context) bool {
		return r.cloned.Load() || !gate.Exists(hdr.Path)
	}
}

func (r *run) refresh(hdr locate.HeaderRef) func(context.Context) error {
	return func(ctx context.Context) error {
		ctxlog.FromContext(ctx).Info("Refreshing headers.", "path", hdr.Path, "ref", hdr.Ref)

		if err := r.p.Git.Pull(ctx, hdr.Path, hdr.Ref); err != nil {
			return err
		}
		r.stats.pulls.Add(1)
		return r.recordHeaders(ctx, hdr)
	}
}

func (r *run) recordHeaders(ctx context.Context, hdr locate.HeaderRef) error {
	commit, err := r.p.Git.Head(ctx, hdr.Path)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Could not read header commit.", "error", err)
		commit = ""
	}
	return r.p.Gate.Record(ledger.Entry{
		Key:            ledger.HeadersKey,
		Kind:           ledger.KindHeaders,
		LibraryVersion: r.p.Version,
		Fingerprint:    commit,
		Path:           r.relPath(hdr.Path),
	})
}

func (r *run) bind(ref locate.ArtifactRef, hdr locate.HeaderRef) func(context.Context) error {
	return func(ctx context.Context) error {
		ctxlog.FromContext(ctx).Info("Binding interop.", "target", ref.Target.String())
		return r.p.Binder.Bind(ctx, interop.Binding{
			Target:         ref.Target,
			LibraryVersion: r.p.Version,
			BinaryDir:      ref.UnpackDir,
			HeaderDir:      hdr.Path,
		})
	}
}
