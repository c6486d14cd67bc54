package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aledsdavies/parsegen/pkgs/ast"
	perrors "github.com/aledsdavies/parsegen/pkgs/errors"
	"github.com/aledsdavies/parsegen/pkgs/ir"
	"github.com/aledsdavies/parsegen/pkgs/lexer"
	"github.com/aledsdavies/parsegen/pkgs/validator"
)

// pipeline is every stage through IR construction, stopping short of
// validation and generation so both the generate and debug verbs can
// share it (spec §6).
type pipeline struct {
	path      string
	baseName  string
	src       string
	tokens    []lexer.Token
	astRoot   *ast.Machine
	irMachine *ir.Machine
}

func loadSource(path string) (*pipeline, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return &pipeline{path: path, baseName: base, src: string(content)}, nil
}

func (p *pipeline) tokenize() error {
	toks, err := lexer.Tokenize(p.src)
	if err != nil {
		return err
	}
	p.tokens = toks
	return nil
}

func (p *pipeline) parse() error {
	if p.tokens == nil {
		if err := p.tokenize(); err != nil {
			return err
		}
	}
	m, err := ast.Parse(p.tokens)
	if err != nil {
		return err
	}
	p.astRoot = m
	return nil
}

func (p *pipeline) buildIR() error {
	if p.astRoot == nil {
		if err := p.parse(); err != nil {
			return err
		}
	}
	m, err := ir.Build(p.astRoot)
	if err != nil {
		return err
	}
	p.irMachine = m
	return nil
}

// validate runs the Validator over the IR (spec §4.5) and returns its
// report alongside any fatal error from the stages that precede it.
func (p *pipeline) validate() (*validator.Report, error) {
	if err := p.buildIR(); err != nil {
		return nil, err
	}
	return validatorReport(p), nil
}

// validatorReport runs the Validator assuming buildIR has already
// succeeded.
func validatorReport(p *pipeline) *validator.Report {
	return validator.Validate(p.irMachine)
}

// printFatal renders one of the three fatal taxonomies (spec §7) the way
// the CLI contract demands: "ERROR (<file>:<line>): <message>".
func printFatal(path string, err error) {
	line, msg := fatalLineMessage(err)
	if line > 0 {
		fmt.Fprintf(os.Stderr, "ERROR (%s:%d): %s\n", path, line, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR (%s): %v\n", path, err)
}

func fatalLineMessage(err error) (int, string) {
	switch e := err.(type) {
	case *perrors.LexicalError:
		return e.Line, e.Message
	case *perrors.ParseError:
		return e.Line, e.Message
	case *perrors.ValidationError:
		return e.Line, e.Message
	default:
		return 0, err.Error()
	}
}

func printWarnings(ws []perrors.Warning) {
	for _, w := range ws {
		fmt.Fprintln(os.Stderr, w.String())
	}
}
