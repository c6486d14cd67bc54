package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"
)

//go:embed schema/ir.json
var schemaFS embed.FS

func newDebugCmd() *cobra.Command {
	var (
		tokens bool
		astF   bool
		irF    bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Print an intermediate pipeline stage (spec §6)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			p, err := loadSource(file)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			switch {
			case tokens:
				if err := p.tokenize(); err != nil {
					printFatal(file, err)
					os.Exit(1)
				}
				dump("tokens", p.tokens, asJSON, false)
			case astF:
				if err := p.parse(); err != nil {
					printFatal(file, err)
					os.Exit(1)
				}
				dump("ast", p.astRoot, asJSON, false)
			case irF:
				if err := p.buildIR(); err != nil {
					printFatal(file, err)
					os.Exit(1)
				}
				// debug prints intermediate artefacts regardless of
				// warnings/errors the Validator would raise (spec §7).
				dump("ir", p.irMachine, asJSON, true)
			default:
				return fmt.Errorf("one of --tokens, --ast, --ir is required")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&tokens, "tokens", false, "print lexer tokens")
	cmd.Flags().BoolVar(&astF, "ast", false, "print the parsed AST")
	cmd.Flags().BoolVar(&irF, "ir", false, "print the lowered IR")
	cmd.Flags().BoolVar(&asJSON, "json", false, "render as JSON instead of an indented text tree")

	return cmd
}

// dump prints v as an indented text tree by default, or as JSON when
// asJSON is set. validateSchema is only honoured for the --ir --json
// combination (SPEC_FULL.md's debug-stack row): the emitted JSON is
// checked against schema/ir.json before being printed, giving the verb a
// self-checking contract.
func dump(stage string, v any, asJSON, validateSchema bool) {
	if !asJSON {
		spew.Dump(v)
		return
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: encoding %s as JSON: %v\n", stage, err)
		os.Exit(1)
	}

	if validateSchema {
		if err := validateIRJSON(out); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s JSON failed schema validation: %v\n", stage, err)
			os.Exit(1)
		}
	}

	fmt.Println(string(out))
}

func validateIRJSON(doc []byte) error {
	schemaText, err := schemaFS.ReadFile("schema/ir.json")
	if err != nil {
		return fmt.Errorf("internal: embedded schema missing: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const url = "https://github.com/aledsdavies/parsegen/ir.json"
	if err := compiler.AddResource(url, strings.NewReader(string(schemaText))); err != nil {
		return err
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return err
	}

	var generic any
	if err := json.Unmarshal(doc, &generic); err != nil {
		return err
	}
	return schema.Validate(generic)
}
