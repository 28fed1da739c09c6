// Package main implements the go-complexity CLI (gcx).
// It provides commands for measuring cyclomatic complexity and
// inspecting the control flow graphs behind the numbers.
package main

import (
	"os"

	"github.com/l3aro/go-complexity/cmd/gcx/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	commands.RootCmd.Flags().BoolP("version", "v", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`gcx version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
