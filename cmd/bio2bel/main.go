package main

import (
	"os"

	"github.com/bio2bel/bio2bel/pkg/cli"
	_ "github.com/bio2bel/bio2bel/pkg/sources/rhea"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
