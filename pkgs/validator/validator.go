// Package validator performs the cross-reference check the spec places
// after IR construction (spec §4.5): it never rewrites the IR, only reports
// on it. Two kinds of finding come out of a single walk:
//
//   - Errors, which make generation impossible (duplicate type, unknown type
//     kind, an entry point that names no function).
//   - Warnings, which the CLI prints but which do not stop generation
//     (duplicate function, a call to an undefined function, and so on).
package validator

import (
	"sort"

	"github.com/aledsdavies/parsegen/pkgs/ast"
	"github.com/aledsdavies/parsegen/pkgs/errors"
	"github.com/aledsdavies/parsegen/pkgs/ir"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// builtinEmitNames are handled specially by the validator: they are never
// "undefined types" even though no TypeDecl declares them (spec §4.5).
var builtinEmitNames = map[string]bool{"Error": true, "Warning": true}

// emitSuffixes are stripped from an inline-emit/return type name before
// looking it up against the declared type table: `FloatStart`, `FloatEnd`,
// `FloatAnon` all refer to the `Float` type's Start/End/content events.
var emitSuffixes = []string{"Start", "End", "Anon"}

// Report is the accumulated result of Validate: zero Errors means
// generation may proceed (after printing any Warnings).
type Report struct {
	Errors   []*errors.ValidationError
	Warnings []errors.Warning
}

// HasErrors reports whether generation must be refused.
func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

func (r *Report) addError(line int, format string, args ...any) {
	r.Errors = append(r.Errors, errors.NewValidationError(line, format, args...))
}

func (r *Report) addWarning(line int, format string, args ...any) {
	r.Warnings = append(r.Warnings, errors.NewWarning(line, format, args...))
}

// Validate walks m and returns every error and warning spec §4.5 names.
func Validate(m *ir.Machine) *Report {
	r := &Report{}

	typeNames := checkDuplicateTypes(m, r)
	checkUnknownKinds(m, r)
	checkEntryPoint(m, r)

	fnNames := functionNames(m)
	checkDuplicateFunctions(m, r)
	checkKeywordDuplicates(m, r)

	for i := range m.Functions {
		fn := &m.Functions[i]
		checkFunctionShape(fn, r)
		checkReturnType(fn, typeNames, r)
		walkFunctionBody(fn, fnNames, typeNames, r)
	}

	return r
}

func checkDuplicateTypes(m *ir.Machine, r *Report) map[string]bool {
	seen := map[string]bool{}
	names := map[string]bool{}
	for _, t := range m.Types {
		if seen[t.Name] {
			r.addError(t.Line, "duplicate type declaration %q", t.Name)
			continue
		}
		seen[t.Name] = true
		names[t.Name] = true
	}
	return names
}

func checkUnknownKinds(m *ir.Machine, r *Report) {
	for _, t := range m.Types {
		if t.Kind.String() == "UNKNOWN" {
			r.addError(t.Line, "type %q has unknown kind", t.Name)
		}
	}
}

func checkEntryPoint(m *ir.Machine, r *Report) {
	for _, fn := range m.Functions {
		if fn.Name == m.EntryPoint {
			return
		}
	}
	r.addError(0, "entry point %q references an undefined function", m.EntryPoint)
}

func functionNames(m *ir.Machine) []string {
	seen := map[string]bool{}
	names := make([]string, 0, len(m.Functions))
	for _, fn := range m.Functions {
		if !seen[fn.Name] {
			seen[fn.Name] = true
			names = append(names, fn.Name)
		}
	}
	return names
}

func checkDuplicateFunctions(m *ir.Machine, r *Report) {
	seen := map[string]bool{}
	for _, fn := range m.Functions {
		if seen[fn.Name] {
			r.addWarning(fn.Line, "duplicate function %q", fn.Name)
			continue
		}
		seen[fn.Name] = true
	}
}

// checkKeywordDuplicates implements the spec's §9 open-question resolution:
// two |keywords[name] blocks sharing a name warn rather than error, first
// definition wins (see DESIGN.md).
func checkKeywordDuplicates(m *ir.Machine, r *Report) {
	seen := map[string]bool{}
	for _, kb := range m.Keywords {
		if seen[kb.Name] {
			r.addWarning(kb.Line, "duplicate keyword block %q, first definition wins", kb.Name)
			continue
		}
		seen[kb.Name] = true
	}
}

func checkFunctionShape(fn *ir.Function, r *Report) {
	if len(fn.States) == 0 {
		r.addWarning(fn.Line, "function %q has no states", fn.Name)
	}
	for _, st := range fn.States {
		if len(st.Cases) == 0 {
			r.addWarning(st.Line, "state %q in function %q is empty", st.Name, fn.Name)
		}
	}
}

func checkReturnType(fn *ir.Function, typeNames map[string]bool, r *Report) {
	if fn.ReturnType == "" {
		return
	}
	if !typeNames[fn.ReturnType] {
		r.addWarning(fn.Line, "function %q returns undeclared type %q", fn.Name, fn.ReturnType)
	}
}

// walkFunctionBody applies the call/transition/emit checks to every command
// reachable from fn, including nested conditional clauses.
func walkFunctionBody(fn *ir.Function, fnNames []string, typeNames map[string]bool, r *Report) {
	checkCommands(fn.EntryActions, fn, fnNames, typeNames, r)
	checkCommands(fn.EOFHandler, fn, fnNames, typeNames, r)
	for _, st := range fn.States {
		for _, c := range st.Cases {
			if c.Substate != "" && !stateDeclared(fn, c.Substate) {
				r.addWarning(c.Line, "case in state %q of function %q has undeclared substate %q", st.Name, fn.Name, c.Substate)
			}
			checkCommands(c.Commands, fn, fnNames, typeNames, r)
		}
		checkCommands(st.EOFHandler, fn, fnNames, typeNames, r)
	}
}

func stateDeclared(fn *ir.Function, name string) bool {
	for _, st := range fn.States {
		if st.Name == name {
			return true
		}
	}
	return false
}

func checkCommands(cmds []ir.Command, fn *ir.Function, fnNames []string, typeNames map[string]bool, r *Report) {
	for _, cmd := range cmds {
		checkCommand(cmd, fn, fnNames, typeNames, r)
		for _, cl := range cmd.Clauses {
			checkCommands(cl.Commands, fn, fnNames, typeNames, r)
		}
	}
}

func checkCommand(cmd ir.Command, fn *ir.Function, fnNames []string, typeNames map[string]bool, r *Report) {
	switch cmd.Kind {
	case ast.CmdCall:
		checkCall(cmd, fnNames, r)
	case ast.CmdTransition:
		checkTransition(cmd, fn, r)
	case ast.CmdInlineEmitBare, ast.CmdInlineEmitMark, ast.CmdInlineEmitLiteral:
		checkEmit(cmd.Name, cmd.Line, typeNames, r)
	}
}

func checkCall(cmd ir.Command, fnNames []string, r *Report) {
	for _, n := range fnNames {
		if n == cmd.Name {
			return
		}
	}
	msg := "call to undefined function %q"
	if suggestion := suggest(cmd.Name, fnNames); suggestion != "" {
		r.addWarning(cmd.Line, msg+" (did you mean %q?)", cmd.Name, suggestion)
		return
	}
	r.addWarning(cmd.Line, msg, cmd.Name)
}

// checkTransition validates a `>>[target]` command: an empty Name denotes a
// self-loop, always legal; otherwise the named state must exist in the
// owning function.
func checkTransition(cmd ir.Command, fn *ir.Function, r *Report) {
	if cmd.Name == "" {
		return
	}
	if stateDeclared(fn, cmd.Name) {
		return
	}
	names := make([]string, 0, len(fn.States))
	for _, st := range fn.States {
		names = append(names, st.Name)
	}
	if suggestion := suggest(cmd.Name, names); suggestion != "" {
		r.addWarning(cmd.Line, "transition target %q not declared in function %q (did you mean %q?)", cmd.Name, fn.Name, suggestion)
		return
	}
	r.addWarning(cmd.Line, "transition target %q not declared in function %q", cmd.Name, fn.Name)
}

func checkEmit(typeName string, line int, typeNames map[string]bool, r *Report) {
	if typeName == "" || builtinEmitNames[typeName] {
		return
	}
	base := stripEmitSuffix(typeName)
	if typeNames[base] || typeNames[typeName] {
		return
	}
	r.addWarning(line, "emit of undefined type %q", typeName)
}

func stripEmitSuffix(name string) string {
	for _, suf := range emitSuffixes {
		if len(name) > len(suf) && name[len(name)-len(suf):] == suf {
			return name[:len(name)-len(suf)]
		}
	}
	return name
}

// suggest returns the closest fuzzy match for name among candidates, or ""
// if candidates is empty or none matches (RankFindFold keeps only the
// candidates that contain name's characters in order, ignoring case).
func suggest(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
