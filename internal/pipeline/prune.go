package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bianoble/yoga-sync/internal/locate"
	"github.com/bianoble/yoga-sync/internal/target"
)

// PruneOptions configures a prune.
type PruneOptions struct {
	DryRun bool
}

// PruneResult lists what a prune removed, or would remove.
type PruneResult struct {
	Removed []string // relative to the cache root
	Bytes   int64
}

// Prune removes entries under the cache root that no task owns, such as
// temp files and directories left by an interrupted run.
func (p *Pipeline) Prune(opts PruneOptions) (*PruneResult, error) {
	root := p.Locator.CacheRoot()
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return &PruneResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache root %s: %w", root, err)
	}

	known := map[string]bool{
		locate.HeadersDirName:  true,
		locate.BindingsDirName: true,
		locate.LedgerFileName:  true,
	}
	for _, t := range target.All() {
		known[locate.ArchiveName(t)] = true
		known[t.String()] = true
	}

	res := &PruneResult{}
	for _, e := range entries {
		if known[e.Name()] {
			continue
		}
		path := filepath.Join(root, e.Name())
		size, err := diskUsage(path)
		if err != nil {
			return nil, err
		}
		if !opts.DryRun {
			if err := os.RemoveAll(path); err != nil {
				return nil, fmt.Errorf("removing %s: %w", path, err)
			}
		}
		res.Removed = append(res.Removed, e.Name())
		res.Bytes += size
	}
	sort.Strings(res.Removed)
	return res, nil
}

func diskUsage(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measuring %s: %w", path, err)
	}
	return total, nil
}
