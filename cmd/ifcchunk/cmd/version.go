package cmd

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the ifcchunk version, the commit it was built from and the
Go toolchain and platform. --short prints the bare version for scripts.`,
	Run: runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	if versionShort {
		cmd.Println(Version)
		return
	}
	cmd.Printf("ifcchunk version %s\n", Version)
	cmd.Printf("  Commit: %s\n", buildCommit(Commit, debug.ReadBuildInfo))
	cmd.Printf("  Go version: %s\n", runtime.Version())
	cmd.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// buildCommit prefers the ldflags commit and falls back to the VCS
// revision stamped by the toolchain, marking dirty trees.
func buildCommit(commit string, info func() (*debug.BuildInfo, bool)) string {
	if commit != "" && commit != "unknown" {
		return commit
	}
	bi, ok := info()
	if !ok {
		return "unknown"
	}
	var rev, modified string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}
	if rev == "" {
		return "unknown"
	}
	if modified == "true" {
		rev += "-dirty"
	}
	return rev
}
