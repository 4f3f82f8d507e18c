package yogasync

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/bianoble/yoga-sync/internal/config"
	"github.com/bianoble/yoga-sync/internal/interop"
)

// writeConfig writes a config into dir and returns its path.
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "yoga-sync.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func zipBody(t *testing.T, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("lib/libyogacore.a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(name)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(zipBody(t, filepath.Base(r.URL.Path)))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

type stubGit struct{ clones, pulls atomic.Int32 }

func (g *stubGit) Clone(_ context.Context, _, ref, dest string) error {
	g.clones.Add(1)
	if err := os.MkdirAll(filepath.Join(dest, "yoga"), 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "yoga", "Yoga.h"), []byte(ref), 0644)
}

func (g *stubGit) Pull(context.Context, string, string) error {
	g.pulls.Add(1)
	return nil
}

func (g *stubGit) Head(context.Context, string) (string, error) { return "abc123", nil }

// newTestClient creates a client with isolated paths.
func newTestClient(t *testing.T, dir, cfgPath string, srv *httptest.Server, git Git) *Client {
	t.Helper()
	client, err := New(Options{
		ConfigPath:   cfgPath,
		NoInherit:    true,
		RegistryBase: srv.URL,
		HTTPClient:   srv.Client(),
		Git:          git,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

const minimalConfig = "version: 1\nlibrary:\n  version: \"3.1.0\"\n"

func TestNewDefaults(t *testing.T) {
	dir := t.TempDir()
	client, err := New(Options{ConfigPath: filepath.Join(dir, "yoga-sync.yaml"), NoInherit: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg := client.Config()
	if cfg.Library.Version != config.DefaultLibraryVersion || cfg.Concurrency != config.DefaultConcurrency {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if client.BuildDir() != filepath.Join(dir, "build") {
		t.Errorf("build dir = %s", client.BuildDir())
	}
	if client.Locator().RegistryBase == "" || client.Locator().HeaderRepo == "" {
		t.Error("upstream coordinates missing")
	}
	if len(client.ConfigLayers()) != 1 || client.ConfigLayers()[0].Loaded {
		t.Errorf("layers = %+v", client.ConfigLayers())
	}
}

func TestNewOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, minimalConfig+"build_dir: out\n")
	client, err := New(Options{
		ConfigPath:     cfgPath,
		NoInherit:      true,
		LibraryVersion: "3.2.0",
		BuildDir:       filepath.Join(dir, "elsewhere"),
		Concurrency:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg := client.Config()
	if cfg.Library.Version != "3.2.0" || cfg.Concurrency != 1 {
		t.Errorf("overrides ignored: %+v", cfg)
	}
	if client.BuildDir() != filepath.Join(dir, "elsewhere") {
		t.Errorf("build dir = %s", client.BuildDir())
	}
}

func TestNewInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	_, err := New(Options{
		ConfigPath:     writeConfig(t, dir, minimalConfig),
		NoInherit:      true,
		LibraryVersion: "../../etc",
	})
	var ve *config.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *config.ValidationError, got %v", err)
	}
}

func TestRunWritesManifests(t *testing.T) {
	dir := t.TempDir()
	srv, hits := newServer(t)
	git := &stubGit{}
	client := newTestClient(t, dir, writeConfig(t, dir, minimalConfig), srv, git)

	var logs bytes.Buffer
	client.opts.Logger = slog.New(slog.NewJSONHandler(&logs, nil))

	rep, err := client.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.RunID == "" {
		t.Error("run id not set")
	}
	if !strings.Contains(logs.String(), rep.RunID) {
		t.Error("logs should carry the run id")
	}
	if hits.Load() != 5 || git.clones.Load() != 1 {
		t.Errorf("hits = %d, clones = %d", hits.Load(), git.clones.Load())
	}

	for _, tg := range Targets() {
		data, err := os.ReadFile(client.Locator().BindingPath(tg))
		if err != nil {
			t.Errorf("%s: manifest missing: %v", tg, err)
			continue
		}
		man, err := interop.ReadManifest(data)
		if err != nil {
			t.Fatal(err)
		}
		if man.Target != tg.String() || len(man.Libraries) != 1 {
			t.Errorf("%s manifest = %+v", tg, man)
		}
	}

	rep, err = client.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if rep.Downloads != 0 || rep.Extractions != 0 || rep.Clones != 0 || rep.Pulls != 1 {
		t.Errorf("second run did work: %+v", rep)
	}
	if hits.Load() != 5 {
		t.Errorf("second run hit the registry")
	}

	st, err := client.Status()
	if err != nil {
		t.Fatal(err)
	}
	if !st.Complete() {
		t.Error("status should be complete")
	}
	for _, ts := range st.Targets {
		if ts.Binding == nil || ts.Binding.LibraryVersion != "3.1.0" || len(ts.Binding.Libraries) != 1 {
			t.Errorf("%s binding = %+v", ts.Ref.Target, ts.Binding)
		}
	}
}

func TestRunWithoutFingerprints(t *testing.T) {
	dir := t.TempDir()
	srv, _ := newServer(t)
	cfgPath := writeConfig(t, dir, minimalConfig+"cache:\n  fingerprints: false\n")
	client := newTestClient(t, dir, cfgPath, srv, &stubGit{})

	if _, err := client.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(client.Locator().LedgerPath()); !os.IsNotExist(err) {
		t.Error("ledger written with fingerprints disabled")
	}
}

func TestRunNotify(t *testing.T) {
	dir := t.TempDir()
	srv, _ := newServer(t)
	client := newTestClient(t, dir, writeConfig(t, dir, minimalConfig), srv, &stubGit{})

	var completed atomic.Int32
	_, err := client.Run(context.Background(), RunOptions{Notify: func(e Event) {
		if e.State == StateCompleted {
			completed.Add(1)
		}
	}})
	if err != nil {
		t.Fatal(err)
	}
	// 5 downloads, 5 unpacks, aggregate, clone, 5 binds.
	if completed.Load() != 17 {
		t.Errorf("completed events = %d, want 17", completed.Load())
	}
}

func TestPlanAndPrune(t *testing.T) {
	dir := t.TempDir()
	srv, hits := newServer(t)
	client := newTestClient(t, dir, writeConfig(t, dir, minimalConfig), srv, &stubGit{})

	plan, err := client.Plan()
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 18 || hits.Load() != 0 {
		t.Errorf("plan = %d tasks, hits = %d", len(plan), hits.Load())
	}
	if _, err := os.Stat(client.BuildDir()); !os.IsNotExist(err) {
		t.Error("plan must not create the build dir")
	}

	if _, err := client.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatal(err)
	}
	leftover := filepath.Join(client.Locator().CacheRoot(), ".build-linux-x64-debug.zip-1.tmp")
	if err := os.WriteFile(leftover, []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := client.Prune(PruneOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Removed) != 1 || res.Bytes != int64(len("partial")) {
		t.Errorf("prune = %+v", res)
	}
}

func TestRunUnpackCap(t *testing.T) {
	dir := t.TempDir()
	srv, _ := newServer(t)
	cfgPath := writeConfig(t, dir, minimalConfig+"unpack:\n  max_bytes: 4\n")
	client := newTestClient(t, dir, cfgPath, srv, &stubGit{})

	rep, err := client.Run(context.Background(), RunOptions{})
	if err == nil {
		t.Fatal("expected the unpack cap to reject the archives")
	}
	if !strings.Contains(err.Error(), "uncompressed size exceeds 4 bytes") {
		t.Errorf("unexpected error: %v", err)
	}
	if rep.Extractions != 0 || len(rep.Completed) != 0 {
		t.Errorf("report = %+v", rep)
	}
	for _, tg := range Targets() {
		ref, err := client.Locator().Locate(tg, client.Config().Library.Version)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(ref.UnpackDir); !os.IsNotExist(err) {
			t.Errorf("%s: unpack dir exists after rejection", tg)
		}
	}
}

func TestRunCommandBinder(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
	dir := t.TempDir()
	srv, _ := newServer(t)
	cfgPath := writeConfig(t, dir, minimalConfig+
		"interop:\n  command: [\"/bin/sh\", \"-c\", \"echo {{.Target}} >> bound.txt\"]\n")
	client := newTestClient(t, dir, cfgPath, srv, &stubGit{})

	if _, err := client.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "bound.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Fields(string(data))); n != 5 {
		t.Errorf("command ran %d times, want 5: %q", n, data)
	}
}
