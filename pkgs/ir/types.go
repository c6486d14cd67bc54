// Package ir defines the lowered representation the IR Builder produces
// from an *ast.Machine (spec §4.4): character-class text resolved to bytes,
// parameter types inferred, locals collected, SCAN states flagged. The
// Generator (pkgs/generator) consumes this tree; it never looks at ast.
package ir

import "github.com/aledsdavies/parsegen/pkgs/ast"

// ParamType is the inferred Rust-ish type of a function parameter or local
// (spec §4.4.6): every parameter starts as I32 and is only ever raised,
// never lowered, to Byte or Bytes during fix-point propagation.
type ParamType int

const (
	TypeI32 ParamType = iota
	TypeByte
	TypeBytes
)

func (t ParamType) String() string {
	switch t {
	case TypeByte:
		return "byte"
	case TypeBytes:
		return "bytes"
	default:
		return "i32"
	}
}

// TypeInfo is the resolved form of an ast.TypeDecl (spec §4.4.1).
type TypeInfo struct {
	Name       string
	Kind       ast.TypeKind
	EmitsStart bool
	EmitsEnd   bool
	Line       int
}

// Machine is the IR root produced by Build.
type Machine struct {
	Name              string
	EntryPoint        string
	Types             []TypeInfo
	Functions         []Function
	Keywords          []KeywordBlock
	CustomErrorCodes  []string
	UsesUnicode       bool
}

// Function is a lowered ast.Function: params carry inferred types and
// state commands carry resolved bytes. The EOF-closing inference (§4.4.5)
// outputs are fields of Function; the SCAN/newline-injection (§4.4.3-4)
// results are attached to each State.
type Function struct {
	Name       string
	ReturnType string
	// EmitsEvents is true when ReturnType names a BRACKET or CONTENT type
	// (spec §4.4.1); an unknown ReturnType leaves this false and is
	// reported as a Validator warning, not here.
	EmitsEvents bool

	Params     []string
	ParamTypes map[string]ParamType

	// Locals are variables assigned somewhere in the function body,
	// inferred type i32 (spec §4.4.7: the only local type the language
	// produces — byte/bytes locals do not exist, only params do).
	Locals []string
	// LocalInitValues holds, for each local whose FIRST assignment in
	// EntryActions has a literal-integer right-hand side, that literal
	// text — so the generator can emit `let mut x: i32 = <lit>;`. The
	// assignment itself stays in EntryActions, so the generated function
	// assigns the same literal again after the declaration.
	LocalInitValues map[string]string

	EntryActions  []Command
	States        []State
	EOFHandler    []Command
	HasEOFHandler bool

	// ExpectsChar / HasExpectsChar / EmitsContentOnClose are the §4.4.5
	// EOF-inference outputs.
	ExpectsChar         byte
	HasExpectsChar      bool
	EmitsContentOnClose bool

	// PrependValues is §3's `prepend_values: param → set<byte>`: for each
	// of this function's parameters that is ever PREPENDed inside the
	// body, the distinct literal byte values observed, in first-seen
	// order, at call sites that pass a literal into that parameter
	// position. The generator documents these as the known prepend
	// payloads in the emitted function's doc comment.
	PrependValues []PrependParamValues

	Line int
}

// PrependParamValues names one PREPEND parameter together with the
// literal byte values every call site is observed passing into it.
type PrependParamValues struct {
	Param string
	Bytes [][]byte
}

// State is a lowered ast.State, with SCAN/newline-injection results
// attached (spec §4.4.3-4).
type State struct {
	Name          string
	Cases         []Case
	EOFHandler    []Command
	HasEOFHandler bool

	// ScanChars is the set of literal bytes a SIMD multi-byte search may
	// skip over; non-nil only when the state qualifies (spec §4.4.3).
	ScanChars []byte
	// NewlineInjected is true when '\n' was added to ScanChars by the
	// injection pass (spec §4.4.4) because it wasn't already present.
	NewlineInjected bool

	Line int
}

// Case is a lowered ast.Case. Selector is nil for default/bare-action/EOF
// cases, matching ast.Case.
type Case struct {
	Selector *CharSelector

	Condition    string
	IsDefault    bool
	IsBareAction bool
	IsEOF        bool
	Substate     string

	Commands []Command
	Line     int
}

// CharSelector is the resolved form of an ast.Case's charclass.Result: the
// literal byte set (or range) a case matches, or a special/unicode class
// name, or a parameter reference — never re-parsed downstream.
type CharSelector struct {
	// Bytes holds the concrete byte set for an ordinary literal/range/
	// named-class selector. Empty + Special == "" + ParamRef == "" means
	// the never-match empty class.
	Bytes []byte
	// Special names a Unicode special class (XID_START, ...) that cannot
	// be reduced to a finite byte set.
	Special string
	// ParamRef names a `:param` selector.
	ParamRef string
}

// CommandKind mirrors ast.CommandKind — the IR never introduces a new
// command shape, only resolves the text each already-classified command
// carries.
type CommandKind = ast.CommandKind

// Command is the lowered form of an ast.Command: character-bearing text
// has been run through charclass and reduced to bytes; call arguments
// have been rewritten per the callee's known parameter types (spec
// §4.4.10, applied in a post-pass once every function's ParamTypes are
// final).
type Command struct {
	Kind CommandKind
	Line int

	// CmdAdvanceTo / CmdPrepend: resolved literal bytes. Never is true
	// for the empty-class sentinel (advance_to[<>] jumps to the end of
	// the input; prepend[<>] prepends nothing).
	Bytes []byte
	Never bool

	// CmdTransition / CmdCall / CmdError / CmdPrependParam /
	// CmdKeywordsLookup / CmdInlineEmit*: same role as ast.Command.Name.
	Name string

	// CmdCall: raw comma-separated argument list, carried through from
	// the AST until every function's ParamTypes are final; Args below is
	// populated only after the call-argument rewriting pass (§4.4.10).
	ArgsExpr string
	// CmdCall: resolved arguments, one per comma-separated element of
	// ArgsExpr, in the representation the callee's parameter type
	// demands. Nil for a call to an undefined function (the Validator
	// reports this separately).
	Args []Arg

	// CmdAssign / CmdAddAssign / CmdSubAssign: destination variable and raw
	// right-hand-side expression text. CmdTerm: raw offset text ("" means
	// zero), carried in Expr too rather than a dedicated field.
	Var  string
	Expr string

	// CmdReturn: raw emit-spec text, unchanged from the AST — the
	// Generator's rust_expr filter expands it. CmdInlineEmitLiteral: the
	// resolved literal bytes.
	Literal   string
	EmitBytes []byte
	EmitNever bool

	Clauses []ConditionalClause

	// SuppressAutoEmit is set by the inline-emit/return fix-up pass
	// (spec §4.4.8).
	SuppressAutoEmit bool
}

// Arg is one resolved call argument (spec §4.4.10).
type Arg struct {
	// Raw is the original argument text; the generator renders IsInt
	// arguments from it through the rust_expr filter.
	Raw string

	ParamType ParamType

	// IsParamRef is true for a `:name` argument; Name then holds the
	// referenced parameter.
	IsParamRef bool
	Name       string

	// Bytes holds the resolved literal bytes when the argument is a
	// character-class literal (quoted char/string, class, or the numeric
	// literal 0 coerced per the callee's parameter type).
	Bytes []byte
	Never bool

	// IsInt is true when Raw is emitted as an integer expression: a
	// builtin (COL, LINE, PREV), an integer literal other than the 0
	// sentinel passed to a byte/bytes parameter, or any argument to an
	// i32 parameter.
	IsInt bool
}

// ConditionalClause is the lowered form of ast.ConditionalClause.
type ConditionalClause struct {
	Condition string
	Commands  []Command
	Line      int
}

// KeywordBlock is carried through from the AST with a generator-facing
// constant name derived from its identifier.
type KeywordBlock struct {
	Name         string
	ConstName    string
	FallbackFunc string
	FallbackArgs string
	Mappings     []KeywordMapping
	Line         int
}

// KeywordMapping is carried through unchanged from the AST.
type KeywordMapping struct {
	Keyword   string
	EventType string
	Line      int
}
