package target

import (
	"fmt"
	"strings"
)

// Platform is an operating system the native library is provisioned for.
type Platform string

// Arch is a CPU architecture the native library is provisioned for.
type Arch string

const (
	Windows Platform = "windows"
	Linux   Platform = "linux"
	MacOS   Platform = "macos"
)

const (
	X64   Arch = "x64"
	ARM64 Arch = "arm64"
)

// Target is a (platform, architecture) pair.
type Target struct {
	Platform Platform
	Arch     Arch
}

// builtinTargets is the fixed set of supported pairs, in scheduling order.
var builtinTargets = []Target{
	{Platform: Windows, Arch: X64},
	{Platform: Linux, Arch: X64},
	{Platform: Linux, Arch: ARM64},
	{Platform: MacOS, Arch: X64},
	{Platform: MacOS, Arch: ARM64},
}

// All returns the supported targets in a fixed, deterministic order.
func All() []Target {
	out := make([]Target, len(builtinTargets))
	copy(out, builtinTargets)
	return out
}

// New returns the Target for platform and arch, or an error if the pair
// is not one of the supported targets.
func New(platform Platform, arch Arch) (Target, error) {
	t := Target{Platform: platform, Arch: arch}
	if !t.Valid() {
		return Target{}, fmt.Errorf("unsupported target '%s' — supported targets: %s", t, supportedList())
	}
	return t, nil
}

// Parse parses a "<platform>-<arch>" string such as "linux-arm64".
func Parse(s string) (Target, error) {
	platform, arch, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || platform == "" || arch == "" {
		return Target{}, fmt.Errorf("invalid target '%s' — expected '<platform>-<arch>' (e.g., 'linux-x64')", s)
	}
	return New(Platform(platform), Arch(arch))
}

// Valid reports whether t is one of the supported targets.
func (t Target) Valid() bool {
	for _, b := range builtinTargets {
		if b == t {
			return true
		}
	}
	return false
}

func (t Target) String() string {
	return string(t.Platform) + "-" + string(t.Arch)
}

func supportedList() string {
	names := make([]string, len(builtinTargets))
	for i, t := range builtinTargets {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
