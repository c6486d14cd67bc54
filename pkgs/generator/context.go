// Package generator builds a render context from the IR (spec §4.6) and
// instantiates a target-language template over it. All target-specific
// knowledge — type mappings, syntax, idioms — lives in the template file;
// this package's only job is to expose the context and the filter set
// every template may call.
package generator

import (
	"sort"

	"github.com/aledsdavies/parsegen/pkgs/ast"
	"github.com/aledsdavies/parsegen/pkgs/ir"
)

// Context is the render context a template executes against. Field names
// are chosen to read naturally from template text (`{{.EntryPoint}}`,
// `{{range .Functions}}`), not to mirror ir.Machine's internal shape.
type Context struct {
	Name             string
	EntryPoint       string
	Types            []TypeContext
	Functions        []FunctionContext
	Keywords         []KeywordContext
	CustomErrorCodes []string
	Trace            bool
	UsesUnicode      bool

	Helpers HelperUsage
}

// TypeContext is the normalised per-type view the spec names.
type TypeContext struct {
	Name       string
	Kind       string
	EmitsStart bool
	EmitsEnd   bool
}

// FunctionContext mirrors ir.Function, typed for template consumption.
type FunctionContext struct {
	Name                string
	ReturnType          string
	EmitsEvents         bool
	Params              []string
	ParamTypes          map[string]string
	Locals              []string
	LocalInitValues     map[string]string
	EntryActions        []ir.Command
	States              []ir.State
	EOFHandler          []ir.Command
	HasEOFHandler       bool
	ExpectsChar         byte
	HasExpectsChar      bool
	EmitsContentOnClose bool
	PrependValues       []ir.PrependParamValues
	Line                int
}

// KeywordContext mirrors ir.KeywordBlock with its stable constant name.
type KeywordContext struct {
	Name         string
	ConstName    string
	FallbackFunc string
	FallbackArgs string
	Mappings     []ir.KeywordMapping
}

// HelperUsage tallies which runtime helper methods the generated parser
// needs (spec §4.6's "helper-usage analysis"), so the template can emit
// only the helpers it actually calls and avoid dead-code warnings in the
// target language.
type HelperUsage struct {
	UsesCol      bool
	UsesPrev     bool
	UsesLine     bool
	UsesSetTerm  bool
	UsesSpanEmit bool
	UsesIsLetter bool
	UsesIsDigit  bool
	UsesKeywords bool

	// ScanArities is the exact, sorted set of scan_to<N> arities the
	// generated parser calls — gathered from both SCAN states (§4.4.3)
	// and advance_to command byte-counts (§4.4.2), since the rendered
	// advance_to call (`self.scan_to{{len $cmd.Bytes}}(...)`) reaches
	// scan_toN regardless of whether any state's own ScanChars set
	// happens to be that wide. ScanHelperNames emits one method per
	// entry, not a contiguous 1..max range, so an unused arity never
	// gets a helper nothing calls.
	ScanArities []int
}

// BuildContext lowers an *ir.Machine into the Context a template renders.
func BuildContext(m *ir.Machine, name string, trace bool) *Context {
	ctx := &Context{
		Name:             name,
		EntryPoint:       m.EntryPoint,
		CustomErrorCodes: m.CustomErrorCodes,
		Trace:            trace,
		UsesUnicode:      m.UsesUnicode,
	}

	for _, t := range m.Types {
		ctx.Types = append(ctx.Types, TypeContext{
			Name:       t.Name,
			Kind:       t.Kind.String(),
			EmitsStart: t.EmitsStart,
			EmitsEnd:   t.EmitsEnd,
		})
	}

	for _, fn := range m.Functions {
		ctx.Functions = append(ctx.Functions, buildFunctionContext(fn))
	}

	for _, kb := range m.Keywords {
		ctx.Keywords = append(ctx.Keywords, KeywordContext{
			Name:         kb.Name,
			ConstName:    kb.ConstName,
			FallbackFunc: kb.FallbackFunc,
			FallbackArgs: kb.FallbackArgs,
			Mappings:     kb.Mappings,
		})
		ctx.Helpers.UsesKeywords = true
	}

	ctx.Helpers = analyzeHelperUsage(m, ctx.Helpers)
	return ctx
}

func buildFunctionContext(fn ir.Function) FunctionContext {
	paramTypes := make(map[string]string, len(fn.ParamTypes))
	for name, t := range fn.ParamTypes {
		paramTypes[name] = t.String()
	}
	return FunctionContext{
		Name:                fn.Name,
		ReturnType:          fn.ReturnType,
		EmitsEvents:         fn.EmitsEvents,
		Params:              fn.Params,
		ParamTypes:          paramTypes,
		Locals:              fn.Locals,
		LocalInitValues:     fn.LocalInitValues,
		EntryActions:        fn.EntryActions,
		States:              fn.States,
		EOFHandler:          fn.EOFHandler,
		HasEOFHandler:       fn.HasEOFHandler,
		ExpectsChar:         fn.ExpectsChar,
		HasExpectsChar:      fn.HasExpectsChar,
		EmitsContentOnClose: fn.EmitsContentOnClose,
		PrependValues:       fn.PrependValues,
		Line:                fn.Line,
	}
}

// analyzeHelperUsage traverses every expression and character-class case in
// every function, tallying which runtime helpers the output needs (spec
// §4.6). It never mutates the IR; it only reads.
func analyzeHelperUsage(m *ir.Machine, h HelperUsage) HelperUsage {
	arities := map[int]bool{}
	for _, fn := range m.Functions {
		if fn.EmitsContentOnClose {
			h.UsesSetTerm = true
		}
		if fn.EmitsEvents || fn.HasExpectsChar {
			h.UsesSpanEmit = true
		}
		scanExprs(fn.EntryActions, &h)
		tallyScanArities(fn.EntryActions, arities)
		scanExprs(fn.EOFHandler, &h)
		tallyScanArities(fn.EOFHandler, arities)
		for _, st := range fn.States {
			if len(st.ScanChars) > 0 {
				arities[len(st.ScanChars)] = true
			}
			for _, c := range st.Cases {
				if c.Selector != nil {
					switch c.Selector.Special {
					case "LETTER", "XID_START", "XID_CONT", "XLBL_START", "XLBL_CONT":
						h.UsesIsLetter = true
					case "DIGIT", "HEX_DIGIT":
						h.UsesIsDigit = true
					}
				}
				tallyReservedVars(c.Condition, &h)
				scanExprs(c.Commands, &h)
				tallyScanArities(c.Commands, arities)
			}
			scanExprs(st.EOFHandler, &h)
			tallyScanArities(st.EOFHandler, arities)
		}
	}
	h.ScanArities = sortedArities(arities)
	return h
}

// tallyScanArities records the scan_to<N> arity of every advance_to
// command reachable from cmds (at any conditional-clause depth). A
// never-match advance_to (the empty-class sentinel) renders as
// `self.pos = self.input.len()`, not a scan_toN call, so it tallies
// nothing.
func tallyScanArities(cmds []ir.Command, arities map[int]bool) {
	for i := range cmds {
		cmd := &cmds[i]
		if cmd.Kind == ast.CmdAdvanceTo && !cmd.Never && len(cmd.Bytes) > 0 {
			arities[len(cmd.Bytes)] = true
		}
		for _, cl := range cmd.Clauses {
			tallyScanArities(cl.Commands, arities)
		}
	}
}

func sortedArities(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// scanExprs looks for the reserved variables COL/LINE/PREV inside every
// expression-bearing field of cmds, and for the commands whose rendering
// calls set_term or span_from_mark, recursing into conditional clauses.
func scanExprs(cmds []ir.Command, h *HelperUsage) {
	for i := range cmds {
		cmd := &cmds[i]
		for _, expr := range []string{cmd.Expr, cmd.Literal, cmd.ArgsExpr} {
			tallyReservedVars(expr, h)
		}
		switch cmd.Kind {
		case ast.CmdTerm:
			h.UsesSetTerm = true
		case ast.CmdError, ast.CmdInlineEmitMark:
			h.UsesSpanEmit = true
		}
		if cmd.Kind == ast.CmdConditional {
			for _, cl := range cmd.Clauses {
				tallyReservedVars(cl.Condition, h)
				scanExprs(cl.Commands, h)
			}
		}
	}
}

func tallyReservedVars(expr string, h *HelperUsage) {
	if containsWord(expr, "COL") {
		h.UsesCol = true
	}
	if containsWord(expr, "LINE") {
		h.UsesLine = true
	}
	if containsWord(expr, "PREV") {
		h.UsesPrev = true
	}
}

// containsWord reports whether word appears in s as a standalone
// identifier (not as a substring of a longer identifier).
func containsWord(s, word string) bool {
	idx := 0
	for {
		i := indexFrom(s, word, idx)
		if i < 0 {
			return false
		}
		before := i == 0 || !isIdentRune(s[i-1])
		after := i+len(word) >= len(s) || !isIdentRune(s[i+len(word)])
		if before && after {
			return true
		}
		idx = i + 1
	}
}

func indexFrom(s, sub string, from int) int {
	if from >= len(s) {
		return -1
	}
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func isIdentRune(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// ScanHelperNames returns the sorted names of scan_to<N> helpers the
// template should emit: exactly the arities ScanArities records, not a
// contiguous range, so an arity nothing calls never gets a helper.
func (h HelperUsage) ScanHelperNames() []string {
	if len(h.ScanArities) == 0 {
		return nil
	}
	out := make([]string, 0, len(h.ScanArities))
	for _, n := range h.ScanArities {
		out = append(out, scanHelperName(n))
	}
	sort.Strings(out)
	return out
}

func scanHelperName(arity int) string {
	digits := "0123456789"
	return "scan_to" + string(digits[arity])
}
