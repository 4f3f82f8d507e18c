package cmd

import (
	"errors"
	"testing"

	"github.com/bianoble/yoga-sync/pkg/yogasync"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{-1, "0 B"},
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{2684354560, "2.5 GiB"},
	}

	for _, tt := range tests {
		got := humanSize(tt.bytes)
		if got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestLabelsWithoutColor(t *testing.T) {
	old := noColor
	noColor = true
	t.Cleanup(func() { noColor = old })

	if got := stateLabel(yogasync.StateUpToDate); got != "up-to-date" {
		t.Errorf("stateLabel = %q", got)
	}
	if got := stateLabel(yogasync.StateFailed); got != "failed    " {
		t.Errorf("stateLabel = %q", got)
	}
	if got := verdictLabel(yogasync.Stale); got != "stale   " {
		t.Errorf("verdictLabel = %q", got)
	}
}

func TestShortDigest(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "-"},
		{"abc", "abc"},
		{"0123456789abcdef0123", "0123456789abcdef"},
	}
	for _, tt := range tests {
		if got := shortDigest(tt.in); got != tt.want {
			t.Errorf("shortDigest(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnwrapJoined(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	if n := len(unwrapJoined(a)); n != 1 {
		t.Errorf("plain error split into %d", n)
	}
	if n := len(unwrapJoined(errors.Join(a, b))); n != 2 {
		t.Errorf("joined error split into %d", n)
	}
}
