// Command parsegen compiles a .desc grammar (spec.md §§3-4) into a
// target-language parser. It is the external collaborator the core
// pipeline (lexer, charclass, ast, ir, validator, generator) is invoked
// by — the pipeline itself has no CLI, no logging, and no I/O of its own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "parsegen",
		Short:         "Generate parsers from .desc grammars",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newDebugCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
