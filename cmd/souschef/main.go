// Package main provides the entry point for the souschef CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/souschef-dev/souschef/cmd/souschef/commands"
	"github.com/souschef-dev/souschef/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "souschef",
		Short: "Souschef - Chef cookbook to Ansible migration toolkit",
		Long: `Souschef parses Chef cookbooks and converts them to Ansible playbooks.

Commands:
  convert   Convert a cookbook or recipe into an Ansible playbook
  parse     Parse Chef sources into structured JSON
  mcp       Start MCP server for AI agent integration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewConvertCommand())
	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "souschef %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
