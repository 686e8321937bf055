package main

import (
	"fmt"
	"os"

	"github.com/iudanet/rowsync/internal/client/cli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	root := cli.NewRootCommand(versionString())
	root.SetVersionTemplate("Rowsync Client\n{{.Version}}\n")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionString() string {
	return fmt.Sprintf("Version:    %s\nBuild Date: %s\nGit Commit: %s", Version, BuildDate, GitCommit)
}
