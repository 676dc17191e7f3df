package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata injected through -ldflags by the release pipeline.
// Left empty for go-install and local builds, which fall back to the
// module information the toolchain embeds in the binary.
var (
	version = ""
	commit  = ""
	date    = ""
)

// getVersion resolves the release version: ldflags first, then the
// module version from build info, then the toolchain's "(devel)" marker.
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// getCommit resolves the VCS revision, abbreviated to seven characters
// to match git's short form.
func getCommit() string {
	if commit != "" {
		return commit
	}
	if rev := buildSetting("vcs.revision"); rev != "" {
		if len(rev) > 7 {
			return rev[:7]
		}
		return rev
	}
	return "unknown"
}

// getDate resolves the build timestamp recorded by the VCS stamp.
func getDate() string {
	if date != "" {
		return date
	}
	if stamp := buildSetting("vcs.time"); stamp != "" {
		return stamp
	}
	return "unknown"
}

// buildSetting reads one key from the build settings embedded in the
// binary. Returns "" when the binary carries no build info at all, such
// as under go test.
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of websentry.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "websentry version %s\n", getVersion())
			fmt.Fprintf(out, "  commit: %s\n", getCommit())
			fmt.Fprintf(out, "  built:  %s\n", getDate())
		},
	}
}
