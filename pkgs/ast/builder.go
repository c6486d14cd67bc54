package ast

import "github.com/aledsdavies/parsegen/pkgs/charclass"

// The constructors below build AST nodes directly, in the style of the
// teacher's pkgs/ast/builder.go: they exist so tests (and the parser
// itself) can assemble a tree without repeating struct-literal
// boilerplate at every call site.

// NewMachine assembles a Machine from its top-level declarations.
func NewMachine(name, entryPoint string, types []TypeDecl, functions []Function, keywords []KeywordBlock) *Machine {
	return &Machine{Name: name, EntryPoint: entryPoint, Types: types, Functions: functions, Keywords: keywords}
}

// Advance is the bare `->` command.
func Advance(line int) Command { return Command{Kind: CmdAdvance, Line: line} }

// AdvanceTo is the `->[chars]` command.
func AdvanceTo(charsExpr string, line int) Command {
	return Command{Kind: CmdAdvanceTo, CharsExpr: charsExpr, Line: line}
}

// Mark is the `mark` command.
func Mark(line int) Command { return Command{Kind: CmdMark, Line: line} }

// Term is the `term` / `term[offset]` command; offsetExpr is the raw
// offset text ("" for zero).
func Term(offsetExpr string, line int) Command {
	return Command{Kind: CmdTerm, Expr: offsetExpr, Line: line}
}

// Transition is `>>` (target == "" selects a self-loop).
func Transition(target string, line int) Command {
	return Command{Kind: CmdTransition, Name: target, Line: line}
}

// Return is `return` with an optional emit-spec/value text.
func Return(emitSpec string, line int) Command {
	return Command{Kind: CmdReturn, Literal: emitSpec, Line: line}
}

// Call is `/name(args)`.
func Call(name, argsExpr string, line int) Command {
	return Command{Kind: CmdCall, Name: name, ArgsExpr: argsExpr, Line: line}
}

// ErrorCmd is `/error(code)` or a bare `err`.
func ErrorCmd(code string, line int) Command {
	return Command{Kind: CmdError, Name: code, Line: line}
}

// Assign is `var = expr`.
func Assign(v, expr string, line int) Command {
	return Command{Kind: CmdAssign, Var: v, Expr: expr, Line: line}
}

// AddAssign is `var += expr`.
func AddAssign(v, expr string, line int) Command {
	return Command{Kind: CmdAddAssign, Var: v, Expr: expr, Line: line}
}

// SubAssign is `var -= expr`.
func SubAssign(v, expr string, line int) Command {
	return Command{Kind: CmdSubAssign, Var: v, Expr: expr, Line: line}
}

// Prepend is `PREPEND(bytes)` with a literal character-class expression.
func Prepend(charsExpr string, line int) Command {
	return Command{Kind: CmdPrepend, CharsExpr: charsExpr, Line: line}
}

// PrependParam is `PREPEND(:name)`.
func PrependParam(name string, line int) Command {
	return Command{Kind: CmdPrependParam, Name: name, Line: line}
}

// InlineEmitBare is a bare `TypeName` inline emit.
func InlineEmitBare(typeName string, line int) Command {
	return Command{Kind: CmdInlineEmitBare, Name: typeName, Line: line}
}

// InlineEmitMark is `TypeName(USE_MARK)`.
func InlineEmitMark(typeName string, line int) Command {
	return Command{Kind: CmdInlineEmitMark, Name: typeName, Line: line}
}

// InlineEmitLiteral is `TypeName(literal)`.
func InlineEmitLiteral(typeName, literal string, line int) Command {
	return Command{Kind: CmdInlineEmitLiteral, Name: typeName, Literal: literal, Line: line}
}

// KeywordsLookup is the `KEYWORDS(name)` action.
func KeywordsLookup(name string, line int) Command {
	return Command{Kind: CmdKeywordsLookup, Name: name, Line: line}
}

// Conditional is an `if[cond] ... ` chain.
func Conditional(line int, clauses ...ConditionalClause) Command {
	return Command{Kind: CmdConditional, Clauses: clauses, Line: line}
}

// Noop is a selector-only case body (no commands at all).
func Noop(line int) Command { return Command{Kind: CmdNoop, Line: line} }

// CaseChars builds a case selecting on a parsed character-class result.
func CaseChars(sel charclass.Result, substate string, commands []Command, line int) Case {
	return Case{Selector: &sel, Substate: substate, Commands: commands, Line: line}
}

// CaseDefault builds the `default` case.
func CaseDefault(commands []Command, line int) Case {
	return Case{IsDefault: true, Commands: commands, Line: line}
}

// CaseBareAction builds an unconditional bare-action case: legal only as
// the first case of a state.
func CaseBareAction(commands []Command, line int) Case {
	return Case{IsBareAction: true, Commands: commands, Line: line}
}

// CaseIf builds an `if[cond]` case.
func CaseIf(condition, substate string, commands []Command, line int) Case {
	return Case{Condition: condition, Substate: substate, Commands: commands, Line: line}
}

// CaseEOF builds an inline `eof` case inside a state's case list.
func CaseEOF(commands []Command, line int) Case {
	return Case{IsEOF: true, Commands: commands, Line: line}
}
