package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gcx",
	Short: "go-complexity - Control flow analysis for C-family source",
	Long: `go-complexity builds control flow graphs from C and C++ sources and
reports cyclomatic complexity, nesting depth, and structural anomalies.

Commands:
  analyze     Analyze a file or directory and report complexity
  cfg         Show the control flow graph of one function
  functions   List the functions found in a file
  tokens      Dump the token stream of a file
  init        Create a configuration file interactively
  doctor      Check configuration, cache, and the analysis pipeline

Use "gcx [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	// Add subcommands
	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(cfgCmd)
	RootCmd.AddCommand(functionsCmd)
	RootCmd.AddCommand(tokensCmd)
}
