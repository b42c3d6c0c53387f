package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:     "jdupego",
		Short:   "Find duplicate files and install links in their place",
		Version: version + " (" + commit + ")",
	}

	root.AddCommand(newDedupeCmd())

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
