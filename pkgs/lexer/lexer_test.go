package lexer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func assertTokens(t *testing.T, src string, want []Token) {
	t.Helper()
	got, err := Tokenize(src)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeSimpleCommand(t *testing.T) {
	assertTokens(t, `c['x'] -> mark`, []Token{
		{Tag: "c", ID: "'x'", Rest: "", Line: 1},
		{Tag: "->", ID: "", Rest: "", Line: 1},
		{Tag: "mark", ID: "", Rest: "", Line: 1},
	})
}

func TestTokenizeStripsComments(t *testing.T) {
	src := "c['x'] ; this is a comment\n| mark"
	got, err := Tokenize(src)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].Line)
	require.Equal(t, 2, got[1].Line)
}

func TestCommentInsideBracketNotStripped(t *testing.T) {
	got, err := Tokenize(`c[';']`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "';'", got[0].ID)
}

func TestPipeInsideBracketNotSplit(t *testing.T) {
	got, err := Tokenize(`c[<a b> | c]`)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestPipeInsideQuoteNotSplit(t *testing.T) {
	got, err := Tokenize(`->['a|b']`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "'a|b'", got[0].ID)
}

func TestBracketWithQuotedCloseBracket(t *testing.T) {
	got, err := Tokenize(`c[']']`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "']'", got[0].ID)
}

func TestUnterminatedQuoteFails(t *testing.T) {
	_, err := Tokenize(`c['x]`)
	require.Error(t, err)
}

func TestUnterminatedBracketFails(t *testing.T) {
	_, err := Tokenize(`c['x'`)
	require.Error(t, err)
}

func TestScreamingSnakeCaseLowered(t *testing.T) {
	got, err := Tokenize(`LETTER -> mark`)
	require.NoError(t, err)
	require.Equal(t, "letter", got[0].Tag)
}

func TestReservedUppercaseCommandPreserved(t *testing.T) {
	got, err := Tokenize(`TERM(-1)`)
	require.NoError(t, err)
	require.Equal(t, "TERM(-1)", got[0].Tag)
}

func TestPascalCaseInlineEmitPreserved(t *testing.T) {
	got, err := Tokenize(`Float(USE_MARK)`)
	require.NoError(t, err)
	require.Equal(t, "Float(USE_MARK)", got[0].Tag)
}

func TestFunctionCallTagCapturesArgsCasePreserved(t *testing.T) {
	got, err := Tokenize(`/parseFoo(COL, :x)`)
	require.NoError(t, err)
	require.Equal(t, "/parseFoo(COL, :x)", got[0].Tag)
	require.True(t, got[0].IsCall())
}

func TestBareFunctionCallNoParens(t *testing.T) {
	got, err := Tokenize(`/bump`)
	require.NoError(t, err)
	require.Equal(t, "/bump", got[0].Tag)
}

func TestEmptyPartsDropped(t *testing.T) {
	got, err := Tokenize(`c['x'] | | -> `)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestLineNumbersSpanMultilineSegment(t *testing.T) {
	src := "c['x']\n  ->\n  mark"
	got, err := Tokenize(src)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, 1, got[0].Line)
	require.Equal(t, 2, got[1].Line)
	require.Equal(t, 3, got[2].Line)
}

func TestLinePreservationInvariant(t *testing.T) {
	src := "a ; comment one\nb ; comment two\nc"
	stripped, err := stripComments(src)
	require.NoError(t, err)
	require.Equal(t, strings.Count(src, "\n"), strings.Count(stripped, "\n"))
}

func TestCommentStrippingIdempotent(t *testing.T) {
	src := "a ; comment\nb"
	once, err := stripComments(src)
	require.NoError(t, err)
	twice, err := stripComments(once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestRestCapturesTrailingText(t *testing.T) {
	got, err := Tokenize(`depth = depth + 1`)
	require.NoError(t, err)
	require.Equal(t, "depth", got[0].Tag)
	require.Equal(t, "= depth + 1", got[0].Rest)
}
