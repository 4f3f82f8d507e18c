package pipeline

import (
	"os"

	"github.com/bianoble/yoga-sync/internal/gate"
	"github.com/bianoble/yoga-sync/internal/interop"
	"github.com/bianoble/yoga-sync/internal/ledger"
	"github.com/bianoble/yoga-sync/internal/locate"
	"github.com/bianoble/yoga-sync/internal/target"
)

// TargetStatus is the cache state of one target.
type TargetStatus struct {
	Ref     locate.ArtifactRef
	Archive gate.Verdict
	Unpack  gate.Verdict

	// Fingerprint is the recorded archive digest, if any.
	Fingerprint string

	// Binding is the interop manifest written for the target, if any.
	Binding *interop.Manifest
}

// Status is the cache state for the pipeline's version. It does no
// network access and changes nothing.
type Status struct {
	Version   string
	Targets   []TargetStatus
	HeaderRef locate.HeaderRef
	Headers   gate.Verdict
	Commit    string
}

// Complete reports whether a run would skip every download, unpack and
// clone.
func (s *Status) Complete() bool {
	if !s.Headers.Satisfied() {
		return false
	}
	for _, t := range s.Targets {
		if !t.Archive.Satisfied() || !t.Unpack.Satisfied() {
			return false
		}
	}
	return true
}

// Status inspects the cache.
func (p *Pipeline) Status() (*Status, error) {
	hdr, err := p.Locator.Headers(p.Version)
	if err != nil {
		return nil, err
	}
	r := p.newRun()

	st := &Status{
		Version:   p.Version,
		HeaderRef: hdr,
		Headers:   r.headersVerdict(hdr),
		Commit:    p.Gate.Fingerprint(ledger.HeadersKey),
	}
	for _, t := range target.All() {
		ref, err := p.Locator.Locate(t, p.Version)
		if err != nil {
			return nil, err
		}
		st.Targets = append(st.Targets, TargetStatus{
			Ref:         ref,
			Archive:     r.archiveVerdict(ref),
			Unpack:      r.unpackVerdict(ref),
			Fingerprint: p.Gate.Fingerprint(ledger.ArchiveKey(t.String())),
			Binding:     readBinding(p.Locator.BindingPath(t)),
		})
	}
	return st, nil
}

// readBinding loads a manifest left by the manifest binder. A command
// binder writes none, so absence is not an error.
func readBinding(path string) *interop.Manifest {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	man, err := interop.ReadManifest(data)
	if err != nil {
		return nil
	}
	return man
}

// PlannedTask describes a task for a dry run.
type PlannedTask struct {
	Name      string
	Group     string
	DependsOn []string

	// Dependents are the tasks waiting on this one.
	Dependents []string

	// Detail is the task's input or output location.
	Detail string

	// Verdict is the current gate verdict of the task's output. Nil for
	// tasks without an output gate.
	Verdict *gate.Verdict
}

// WouldRun reports whether the task would act given the current cache.
// Verdicts can change while a run executes; refresh-headers, for one,
// is skipped whenever clone-headers runs.
func (t PlannedTask) WouldRun() bool {
	return t.Verdict == nil || !t.Verdict.Satisfied()
}

// Plan lists the tasks in execution order with their current verdicts.
func (p *Pipeline) Plan() ([]PlannedTask, error) {
	g, err := p.Graph()
	if err != nil {
		return nil, err
	}
	r := p.newRun()
	hdr, err := p.Locator.Headers(p.Version)
	if err != nil {
		return nil, err
	}

	details := map[string]string{
		TaskAggregate: "all five targets unpacked",
		TaskClone:     hdr.Repo + "@" + hdr.Ref + " -> " + hdr.Path,
		TaskRefresh:   hdr.Path,
	}
	verdicts := map[string]gate.Verdict{
		TaskClone: r.headersVerdict(hdr),
	}
	for _, t := range target.All() {
		ref, err := p.Locator.Locate(t, p.Version)
		if err != nil {
			return nil, err
		}
		details[DownloadTask(t)] = ref.RemoteAddress + " -> " + ref.ArchivePath
		details[UnpackTask(t)] = ref.UnpackDir
		details[BindTask(t)] = ref.UnpackDir + " + " + hdr.Path
		verdicts[DownloadTask(t)] = r.archiveVerdict(ref)
		verdicts[UnpackTask(t)] = r.unpackVerdict(ref)
	}

	out := make([]PlannedTask, 0, g.Len())
	for _, t := range g.Tasks() {
		pt := PlannedTask{
			Name:       t.Name,
			Group:      t.Group,
			DependsOn:  append([]string(nil), t.DependsOn...),
			Dependents: g.Dependents(t.Name),
			Detail:     details[t.Name],
		}
		if v, ok := verdicts[t.Name]; ok {
			pt.Verdict = &v
		}
		out = append(out, pt)
	}
	return out, nil
}
