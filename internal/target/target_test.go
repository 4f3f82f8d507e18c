package target

import (
	"strings"
	"testing"
)

func TestAllOrder(t *testing.T) {
	want := []string{"windows-x64", "linux-x64", "linux-arm64", "macos-x64", "macos-arm64"}
	got := All()
	if len(got) != len(want) {
		t.Fatalf("All() returned %d targets, want %d", len(got), len(want))
	}
	for i, tgt := range got {
		if tgt.String() != want[i] {
			t.Errorf("All()[%d] = %s, want %s", i, tgt, want[i])
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0] = Target{Platform: "plan9", Arch: "mips"}
	if All()[0].String() != "windows-x64" {
		t.Error("mutating All() result changed the registry")
	}
}

func TestNewValid(t *testing.T) {
	for _, want := range All() {
		got, err := New(want.Platform, want.Arch)
		if err != nil {
			t.Errorf("New(%s): %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("New(%s) = %s", want, got)
		}
	}
}

func TestNewRejectsUnsupported(t *testing.T) {
	tests := []struct {
		platform Platform
		arch     Arch
	}{
		{Windows, ARM64},
		{"freebsd", X64},
		{Linux, "riscv64"},
		{"", ""},
	}

	for _, tt := range tests {
		_, err := New(tt.platform, tt.arch)
		if err == nil {
			t.Errorf("New(%q, %q): expected error", tt.platform, tt.arch)
			continue
		}
		if !strings.Contains(err.Error(), "unsupported target") {
			t.Errorf("unexpected error: %v", err)
		}
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("linux-arm64")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Platform != Linux || got.Arch != ARM64 {
		t.Errorf("Parse = %+v", got)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "linux", "-x64", "linux-", "windows-arm64"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}
