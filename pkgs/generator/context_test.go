package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/parsegen/pkgs/ast"
	"github.com/aledsdavies/parsegen/pkgs/ir"
	"github.com/aledsdavies/parsegen/pkgs/lexer"
)

func buildIR(t *testing.T, src string) *ir.Machine {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	require.NoError(t, err)
	m, err := ast.Parse(toks)
	require.NoError(t, err)
	built, err := ir.Build(m)
	require.NoError(t, err)
	return built
}

func TestBuildContextCopiesTopLevelFields(t *testing.T) {
	m := buildIR(t, `
parser[Min]
| entry-point[parseValue]
| type[Number] bracket
| function[parseValue] Number
| state[body]
| default -> return
`)
	ctx := BuildContext(m, "Min", true)
	assert.Equal(t, "Min", ctx.Name)
	assert.Equal(t, "parseValue", ctx.EntryPoint)
	assert.True(t, ctx.Trace)
	require.Len(t, ctx.Types, 1)
	assert.Equal(t, "Number", ctx.Types[0].Name)
	assert.Equal(t, "BRACKET", ctx.Types[0].Kind)
}

func TestBuildContextTalliesColUsage(t *testing.T) {
	m := buildIR(t, `
function[parseValue] Number
| state[body]
| c['x'] -> TERM(COL) return
`)
	ctx := BuildContext(m, "x", false)
	assert.True(t, ctx.Helpers.UsesCol)
	assert.True(t, ctx.Helpers.UsesSetTerm)
}

func TestBuildContextTalliesPrevUsage(t *testing.T) {
	m := buildIR(t, `
function[parseValue]
| state[body]
| if[PREV == 'x'] return
`)
	ctx := BuildContext(m, "x", false)
	assert.True(t, ctx.Helpers.UsesPrev)
}

func TestBuildContextDoesNotFalsePositiveOnSubstring(t *testing.T) {
	m := buildIR(t, `
function[parseValue]
| state[body]
| default depth = COLOR
`)
	ctx := BuildContext(m, "x", false)
	assert.False(t, ctx.Helpers.UsesCol)
}

func TestBuildContextKeywordsSetsUsesKeywords(t *testing.T) {
	m := buildIR(t, `
function[parseIdent]
| state[body]
| c[letter] KEYWORDS(reserved)
| keywords[reserved]
| map['if'] KeywordIf
`)
	ctx := BuildContext(m, "x", false)
	assert.True(t, ctx.Helpers.UsesKeywords)
	require.Len(t, ctx.Keywords, 1)
	assert.Equal(t, "reserved", ctx.Keywords[0].Name)
}

func TestScanHelperNamesEmitsExactArities(t *testing.T) {
	// Arity 2 is absent on purpose: ScanHelperNames must emit only the
	// recorded arities, not a contiguous 1..max range, so a lone arity-3
	// scan site never drags in an unused scan_to1/scan_to2.
	h := HelperUsage{ScanArities: []int{1, 3}}
	assert.Equal(t, []string{"scan_to1", "scan_to3"}, h.ScanHelperNames())
}

func TestScanHelperNamesEmptyWhenUnused(t *testing.T) {
	h := HelperUsage{}
	assert.Nil(t, h.ScanHelperNames())
}
