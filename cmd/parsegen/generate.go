package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/parsegen/pkgs/generator"
)

func newGenerateCmd() *cobra.Command {
	var (
		output  string
		target  string
		trace   bool
		tmplDir string
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Generate a target-language parser from a .desc grammar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			if err := runGenerate(file, output, target, tmplDir, trace); err != nil {
				os.Exit(1)
			}
			if !watch {
				return nil
			}
			return watchAndRegenerate(file, tmplDir, func() error {
				return runGenerate(file, output, target, tmplDir, trace)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&target, "target", "rust", "target template directory (built-in: rust)")
	cmd.Flags().BoolVar(&trace, "trace", false, "annotate emitted source with the IR node each statement came from")
	cmd.Flags().StringVar(&tmplDir, "template-dir", "", "external directory overriding the built-in target templates")
	cmd.Flags().BoolVar(&watch, "watch", false, "regenerate whenever the grammar file or template directory changes")

	return cmd
}

// runGenerate drives the full pipeline through code generation (spec §6:
// "generate <file> [-o OUT] [--target=rust|…] [--trace]"). It reports its
// own diagnostics and returns a non-nil error only to signal exit status;
// the message has already been printed.
func runGenerate(file, output, target, tmplDir string, trace bool) error {
	p, err := loadSource(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if err := p.buildIR(); err != nil {
		printFatal(file, err)
		return err
	}

	report := validatorReport(p)
	printWarnings(report.Warnings)
	if report.HasErrors() {
		for _, e := range report.Errors {
			printFatal(file, e)
		}
		return fmt.Errorf("validation failed")
	}

	src, err := generator.Generate(p.irMachine, p.baseName, target, tmplDir, trace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR (%s): %v\n", file, err)
		return err
	}

	if output == "" {
		fmt.Print(src)
		return nil
	}
	if err := os.WriteFile(output, []byte(src), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR writing %s: %v\n", output, err)
		return err
	}
	return nil
}
