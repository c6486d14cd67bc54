// Package ast defines the structural tree the Lexer's tokens are parsed
// into: machine, types, functions, states, cases, commands (spec §3, §4.3).
package ast

import "github.com/aledsdavies/parsegen/pkgs/charclass"

// TypeKind is the category a user TypeDecl belongs to.
type TypeKind int

const (
	// Bracket types emit Start on entry and End on return.
	Bracket TypeKind = iota
	// Content types mark an offset on entry and emit the accumulated
	// slice on return.
	Content
	// Internal types emit nothing.
	Internal
	// UnknownKind marks a type declaration whose kind text didn't match
	// bracket/content/internal; RawKind preserves the text for the
	// Validator's "unknown type kind" error (spec §4.5).
	UnknownKind
)

func (k TypeKind) String() string {
	switch k {
	case Bracket:
		return "BRACKET"
	case Content:
		return "CONTENT"
	case Internal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// TypeDecl declares one user-visible event type.
type TypeDecl struct {
	Name string
	Kind TypeKind
	// RawKind holds the original kind text when Kind == UnknownKind.
	RawKind string
	Line    int
}

// Machine is the AST root.
type Machine struct {
	Name       string
	EntryPoint string
	Types      []TypeDecl
	Functions  []Function
	Keywords   []KeywordBlock
	Line       int
}

// Function is a named parsing routine: a set of states, entry actions run
// once on entry, and an optional EOF handler.
type Function struct {
	Name          string
	ReturnType    string // empty if the function emits no type
	Params        []string
	States        []State
	EntryActions  []Command
	EOFHandler    []Command
	HasEOFHandler bool
	Line          int
}

// State is an ordered list of cases; the first matching case wins.
type State struct {
	Name          string
	Cases         []Case
	EOFHandler    []Command
	HasEOFHandler bool
	Line          int
}

// Case selects on exactly one of: an explicit character-class selector
// (literal chars, a special class name, or a parameter reference, all
// unified by charclass.Result), a conditional guard, or neither (a
// default case, allowed anywhere in a state, or a bare-action case, whose
// placement IsBareAction below describes).
type Case struct {
	// Selector is non-nil for an explicit c[...] / predefined-class /
	// :param selector.
	Selector *charclass.Result

	// Condition holds the raw guard expression text for an `if[...]`
	// case selector ("" if this case has no guard).
	Condition string

	// IsDefault marks the literal `default` case-starter.
	IsDefault bool
	// IsBareAction marks a case with no selector token at all — legal
	// only as the first case of an unconditional state.
	IsBareAction bool
	// IsEOF marks an inline `eof` case-starter nested inside a state's
	// case list (as opposed to a state- or function-level EOF handler).
	IsEOF bool

	// Substate is the optional ".substate" label following the selector.
	Substate string

	Commands []Command
	Line     int
}

// CommandKind tags the variant a Command carries (spec §3).
type CommandKind int

const (
	CmdAdvance CommandKind = iota
	CmdAdvanceTo
	CmdMark
	CmdTerm
	CmdTransition
	CmdReturn
	CmdCall
	CmdError
	CmdAssign
	CmdAddAssign
	CmdSubAssign
	CmdPrepend
	CmdPrependParam
	CmdInlineEmitBare
	CmdInlineEmitMark
	CmdInlineEmitLiteral
	CmdKeywordsLookup
	CmdConditional
	CmdNoop
)

func (k CommandKind) String() string {
	names := [...]string{
		"advance", "advance_to", "mark", "term", "transition", "return",
		"call", "error", "assign", "add_assign", "sub_assign", "prepend",
		"prepend_param", "inline_emit_bare", "inline_emit_mark",
		"inline_emit_literal", "keywords_lookup", "conditional", "noop",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Command is a tagged variant over every action a case (or entry-actions
// list, or EOF handler, or conditional clause) can perform. Not every
// field is populated for every Kind — see the per-kind comments below.
type Command struct {
	Kind CommandKind
	Line int

	// CmdAdvanceTo / CmdPrepend: raw character-class sublanguage text,
	// resolved to bytes during IR construction.
	CharsExpr string

	// CmdTransition (target state name, "" = self-loop),
	// CmdCall (callee function name), CmdError (error code, "" =
	// default), CmdPrependParam / CmdKeywordsLookup (referenced name),
	// CmdInlineEmit* (emitted type name).
	Name string

	// CmdCall: raw, comma-separated argument list text.
	ArgsExpr string

	// CmdAssign / CmdAddAssign / CmdSubAssign: destination variable and
	// raw right-hand-side expression text.
	Var  string
	Expr string

	// CmdReturn: raw emit-spec text following `return` ("" for a bare
	// return). CmdInlineEmitLiteral: the literal text (character-class
	// sublanguage, or the literal token USE_MARK).
	Literal string

	// CmdConditional: ordered clauses, first-match-wins, optionally
	// ending in an unconditional else (Condition == "").
	Clauses []ConditionalClause

	// suppressAutoEmit is set by the IR builder's inline-emit/return
	// fix-up pass (spec §4.4.8); it has no AST-level surface syntax.
	SuppressAutoEmit bool
}

// ConditionalClause is one `if[cond] ... ` branch of a CmdConditional.
type ConditionalClause struct {
	Condition string // "" denotes the trailing unconditional else
	Commands  []Command
	Line      int
}

// KeywordBlock is a top-level `keywords[name]` construct: a fallback call
// plus keyword -> event-type mappings, consumed by exactly one
// KEYWORDS(name) action (spec §9, open question on duplicate names).
type KeywordBlock struct {
	Name         string
	FallbackFunc string
	FallbackArgs string
	Mappings     []KeywordMapping
	Line         int
}

// KeywordMapping maps one literal keyword spelling to the event type
// emitted when it is recognised.
type KeywordMapping struct {
	Keyword   string
	EventType string
	Line      int
}
