package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a .desc grammar for errors and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			p, err := loadSource(file)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			report, err := p.validate()
			if err != nil {
				printFatal(file, err)
				os.Exit(1)
			}

			printWarnings(report.Warnings)
			if report.HasErrors() {
				for _, e := range report.Errors {
					printFatal(file, e)
				}
				os.Exit(1)
			}
			return nil
		},
	}
}
