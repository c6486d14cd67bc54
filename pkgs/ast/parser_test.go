package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/parsegen/pkgs/lexer"
)

func parseSrc(t *testing.T, src string) *Machine {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	require.NoError(t, err)
	m, err := Parse(toks)
	require.NoError(t, err)
	return m
}

func TestParseTopLevelDeclarations(t *testing.T) {
	m := parseSrc(t, `
parser[JSON]
| entry-point[parseValue]
| type[Number] bracket
| type[Error] internal
`)
	assert.Equal(t, "JSON", m.Name)
	assert.Equal(t, "parseValue", m.EntryPoint)
	require.Len(t, m.Types, 2)
	assert.Equal(t, "Number", m.Types[0].Name)
	assert.Equal(t, Bracket, m.Types[0].Kind)
	assert.Equal(t, Internal, m.Types[1].Kind)
}

func TestParseUnknownTypeKindRecorded(t *testing.T) {
	m := parseSrc(t, `type[Weird] mystery`)
	require.Len(t, m.Types, 1)
	assert.Equal(t, UnknownKind, m.Types[0].Kind)
	assert.Equal(t, "mystery", m.Types[0].RawKind)
}

func TestParseFunctionWithParamsAndReturnType(t *testing.T) {
	m := parseSrc(t, `function[parseNumber(start, radix)] Number`)
	require.Len(t, m.Functions, 1)
	fn := m.Functions[0]
	assert.Equal(t, "parseNumber", fn.Name)
	assert.Equal(t, []string{"start", "radix"}, fn.Params)
	assert.Equal(t, "Number", fn.ReturnType)
}

func TestParseStateWithCharsCase(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] -> mark
`)
	fn := m.Functions[0]
	require.Len(t, fn.States, 1)
	st := fn.States[0]
	require.Len(t, st.Cases, 1)
	c := st.Cases[0]
	require.NotNil(t, c.Selector)
	require.Len(t, c.Commands, 2)
	assert.Equal(t, CmdAdvance, c.Commands[0].Kind)
	assert.Equal(t, CmdMark, c.Commands[1].Kind)
}

func TestParseDefaultCase(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| default -> return
`)
	st := m.Functions[0].States[0]
	require.Len(t, st.Cases, 1)
	assert.True(t, st.Cases[0].IsDefault)
}

func TestParseIfCaseCondition(t *testing.T) {
	m := parseSrc(t, `
function[parseString] Str
| state[body]
| if[depth > 0] -> mark
`)
	st := m.Functions[0].States[0]
	require.Len(t, st.Cases, 1)
	assert.Equal(t, "depth > 0", st.Cases[0].Condition)
}

func TestParseBareActionFirstCaseOnly(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| mark -> return
`)
	st := m.Functions[0].States[0]
	require.Len(t, st.Cases, 1)
	assert.True(t, st.Cases[0].IsBareAction)
	require.Len(t, st.Cases[0].Commands, 3)
}

func TestParseCommandAfterCaseJoinsThatCase(t *testing.T) {
	toks, err := lexer.Tokenize(`
function[parseNumber] Number
| state[body]
| c[0-9] -> mark
| mark -> return
`)
	require.NoError(t, err)
	m, err := Parse(toks)
	require.NoError(t, err)
	st := m.Functions[0].States[0]
	require.Len(t, st.Cases, 1)
	assert.False(t, st.Cases[0].IsBareAction)
	require.Len(t, st.Cases[0].Commands, 5)
	assert.Equal(t, CmdMark, st.Cases[0].Commands[2].Kind)
}

func TestParseEOFCaseInsideState(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] -> mark
| eof -> return
`)
	st := m.Functions[0].States[0]
	require.Len(t, st.Cases, 2)
	assert.True(t, st.Cases[1].IsEOF)
	assert.True(t, st.HasEOFHandler)
	assert.Equal(t, st.Cases[1].Commands, st.EOFHandler)
}

func TestParseFunctionLevelEOFHandler(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| eof -> err
| state[body]
| c[0-9] -> mark
`)
	fn := m.Functions[0]
	assert.True(t, fn.HasEOFHandler)
	require.Len(t, fn.EOFHandler, 2)
	assert.Equal(t, CmdError, fn.EOFHandler[1].Kind)
}

func TestParseEntryActions(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| mark
| state[body]
| c[0-9] -> mark
`)
	fn := m.Functions[0]
	require.Len(t, fn.EntryActions, 1)
	assert.Equal(t, CmdMark, fn.EntryActions[0].Kind)
}

func TestParseAssignmentCommand(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] depth = depth + 1
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdAssign, cmds[0].Kind)
	assert.Equal(t, "depth", cmds[0].Var)
	assert.Equal(t, "depth + 1", cmds[0].Expr)
}

func TestParseAddAssignCommand(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] depth += 1
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdAddAssign, cmds[0].Kind)
}

func TestParseCallCommand(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] /parseDigits(COL, :radix)
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdCall, cmds[0].Kind)
	assert.Equal(t, "parseDigits", cmds[0].Name)
	assert.Equal(t, "COL, :radix", cmds[0].ArgsExpr)
}

func TestParseErrorCallCommand(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] /error(bad_digit)
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdError, cmds[0].Kind)
	assert.Equal(t, "bad_digit", cmds[0].Name)
}

func TestParseInlineEmitForms(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] Float(USE_MARK)
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdInlineEmitMark, cmds[0].Kind)
	assert.Equal(t, "Float", cmds[0].Name)
}

func TestParseInlineEmitLiteral(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] emit(Float, '0')
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdInlineEmitLiteral, cmds[0].Kind)
	assert.Equal(t, "Float", cmds[0].Name)
	assert.Equal(t, "'0'", cmds[0].Literal)
}

func TestParsePrependForms(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] PREPEND('0')
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdPrepend, cmds[0].Kind)
}

func TestParsePrependParam(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] PREPEND(:prefix)
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdPrependParam, cmds[0].Kind)
	assert.Equal(t, "prefix", cmds[0].Name)
}

func TestParseKeywordsLookup(t *testing.T) {
	m := parseSrc(t, `
function[parseIdent] Ident
| state[body]
| c[letter] KEYWORDS(reserved)
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdKeywordsLookup, cmds[0].Kind)
	assert.Equal(t, "reserved", cmds[0].Name)
}

func TestParseConditionalChainWithElse(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| if[radix == 16] /parseHex
| else /parseDec
| state[body]
| c[0-9] -> mark
`)
	fn := m.Functions[0]
	require.Len(t, fn.EntryActions, 1)
	cmd := fn.EntryActions[0]
	require.Equal(t, CmdConditional, cmd.Kind)
	require.Len(t, cmd.Clauses, 2)
	assert.Equal(t, "radix == 16", cmd.Clauses[0].Condition)
	assert.Equal(t, "", cmd.Clauses[1].Condition)
}

func TestParseReturnThenCommandLikeStartsNewCaseInIfCase(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| if[done] return
| /cleanup
`)
	st := m.Functions[0].States[0]
	require.Len(t, st.Cases, 2)
	assert.Equal(t, "done", st.Cases[0].Condition)
	require.Len(t, st.Cases[0].Commands, 1)
	assert.Equal(t, CmdReturn, st.Cases[0].Commands[0].Kind)
	assert.True(t, st.Cases[1].IsBareAction)
}

func TestParseKeywordsBlock(t *testing.T) {
	m := parseSrc(t, `
keywords[reserved]
| /parseIdentEvent
| map['if'] KeywordIf
| map['else'] KeywordElse
`)
	require.Len(t, m.Keywords, 1)
	kb := m.Keywords[0]
	assert.Equal(t, "reserved", kb.Name)
	assert.Equal(t, "parseIdentEvent", kb.FallbackFunc)
	require.Len(t, kb.Mappings, 2)
	assert.Equal(t, "if", kb.Mappings[0].Keyword)
	assert.Equal(t, "KeywordIf", kb.Mappings[0].EventType)
}

func TestParseTransitionCommand(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c['.'] >>[frac]
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdTransition, cmds[0].Kind)
	assert.Equal(t, "frac", cmds[0].Name)
}

func TestParseSelfLoopTransition(t *testing.T) {
	m := parseSrc(t, `
function[parseNumber] Number
| state[body]
| c[0-9] >>
`)
	cmds := m.Functions[0].States[0].Cases[0].Commands
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdTransition, cmds[0].Kind)
	assert.Equal(t, "", cmds[0].Name)
}

func TestParseUnknownTopLevelDirectiveErrors(t *testing.T) {
	toks, err := lexer.Tokenize(`bogus[Thing]`)
	require.NoError(t, err)
	_, err = Parse(toks)
	require.Error(t, err)
}
