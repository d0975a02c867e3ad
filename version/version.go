// Package version exposes build metadata stamped into the canonmap
// binary at link time.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release version, set via ldflags.
	Version string
	// Branch is the git branch the binary was built from, set via ldflags.
	Branch string
	// BuildUser identifies who built the binary, set via ldflags.
	BuildUser string
	// BuildDate is the build timestamp, set via ldflags.
	BuildDate string

	// Revision is the VCS commit embedded in the binary.
	Revision = vcsRevision()
	// GoVersion is the Go toolchain used for the build.
	GoVersion = runtime.Version()
	// GoOS is the operating system target.
	GoOS = runtime.GOOS
	// GoArch is the architecture target.
	GoArch = runtime.GOARCH
)

// String renders a single-line version for --version output. Builds
// without a stamped release version report as devel.
func String() string {
	release := Version
	if release == "" {
		release = "devel"
	}

	return fmt.Sprintf("%s (revision %s, %s %s/%s)", release, Revision, GoVersion, GoOS, GoArch)
}

// vcsRevision reads the commit hash from the embedded build info,
// marking locally modified builds as dirty.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	rev := "unknown"
	dirty := false

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if dirty {
		rev += "-dirty"
	}

	return rev
}
