package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// OS is a normalized operating system identifier.
type OS string

// Arch is a normalized CPU architecture identifier.
type Arch string

const (
	Darwin  OS = "darwin"
	Linux   OS = "linux"
	Windows OS = "windows"

	X64   Arch = "x64"
	ARM64 Arch = "arm64"
)

// Tag identifies a supported (os, arch) combination. It is derived once
// per run and drives archive naming and extraction format.
type Tag struct {
	OS   OS
	Arch Arch
}

func (t Tag) String() string {
	return fmt.Sprintf("%s-%s", t.OS, t.Arch)
}

// BinaryName returns the platform-specific name of the shape executable.
func (t Tag) BinaryName() string {
	if t.OS == Windows {
		return "shape.exe"
	}
	return "shape"
}

// ArchiveExt returns the release archive extension for the platform.
func (t Tag) ArchiveExt() string {
	if t.OS == Windows {
		return "zip"
	}
	return "tar.gz"
}

// UnsupportedPlatformError reports a host identifier outside the
// supported set. Kind is "operating system" or "architecture".
type UnsupportedPlatformError struct {
	Kind  string
	Value string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported %s: %s", e.Kind, e.Value)
}

// Resolve maps raw OS/architecture identifiers to a Tag. Unknown values
// never fall back to a default.
func Resolve(rawOS, rawArch string) (Tag, error) {
	var tag Tag

	switch strings.ToLower(rawOS) {
	case "darwin":
		tag.OS = Darwin
	case "linux":
		tag.OS = Linux
	case "windows":
		tag.OS = Windows
	default:
		return Tag{}, &UnsupportedPlatformError{Kind: "operating system", Value: rawOS}
	}

	switch strings.ToLower(rawArch) {
	case "x86_64", "amd64":
		tag.Arch = X64
	case "arm64", "aarch64":
		tag.Arch = ARM64
	default:
		return Tag{}, &UnsupportedPlatformError{Kind: "architecture", Value: rawArch}
	}

	return tag, nil
}

// Current resolves the platform tag of the running host.
func Current() (Tag, error) {
	return Resolve(runtime.GOOS, runtime.GOARCH)
}
