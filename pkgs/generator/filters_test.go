package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeRustChar(t *testing.T) {
	assert.Equal(t, `b'\n'`, escapeRustChar('\n'))
	assert.Equal(t, `b'|'`, escapeRustChar('|'))
	assert.Equal(t, `b'\''`, escapeRustChar('\''))
	assert.Equal(t, "0x00u8", escapeRustChar(0))
}

func TestPascalcase(t *testing.T) {
	assert.Equal(t, "HexDigit", pascalcase("hex_digit"))
	assert.Equal(t, "HexDigit", pascalcase("hexDigit"))
	assert.Equal(t, "HexDigit", pascalcase("HexDigit"))
	assert.Equal(t, "HexDigit", pascalcase("hex-digit"))
}

func TestPascalcaseIsIdempotent(t *testing.T) {
	for _, s := range []string{"parseValue", "KEYWORDS", "frac", "state_one"} {
		once := pascalcase(s)
		twice := pascalcase(once)
		assert.Equal(t, once, twice)
	}
}

func TestRustExprExpandsReservedVars(t *testing.T) {
	assert.Equal(t, "self.col() > 0", rustExpr("COL > 0"))
	assert.Equal(t, "self.prev()", rustExpr("PREV"))
	assert.Equal(t, "self.line as i32", rustExpr("LINE"))
}

func TestRustExprDoesNotTouchEmbeddedSubstrings(t *testing.T) {
	// COLOR must not become "self.col()OR".
	assert.Equal(t, "COLOR", rustExpr("COLOR"))
}

func TestRustExprExpandsCall(t *testing.T) {
	assert.Equal(t, "self.parse_digits(self.col(), on_event)", rustExpr("/digits(COL)"))
}

func TestRustExprExpandsCallWithNoArgs(t *testing.T) {
	assert.Equal(t, "self.parse_digits(on_event)", rustExpr("/digits()"))
}

func TestRustExprExpandsParamRef(t *testing.T) {
	assert.Equal(t, "radix", rustExpr(":radix"))
}

func TestRustExprExpandsEscapeTokens(t *testing.T) {
	assert.Equal(t, "b'|'", rustExpr("<P>"))
	assert.Equal(t, "b'\\n'", rustExpr("<NL>"))
}

func TestTransformCallArgsJoinsRewrittenArgs(t *testing.T) {
	assert.Equal(t, "self.col(), radix", transformCallArgs("COL, :radix"))
}

func TestTransformCallArgsSkipsBlankArgs(t *testing.T) {
	assert.Equal(t, "self.col()", transformCallArgs("COL, "))
}

func TestBytesLiteralPrintableUsesByteString(t *testing.T) {
	assert.Equal(t, `b"if"`, bytesLiteral([]byte("if")))
}

func TestBytesLiteralNonPrintableUsesSlice(t *testing.T) {
	assert.Equal(t, `&[0x00u8]`, bytesLiteral([]byte{0}))
}

func TestBytesLiteralEmpty(t *testing.T) {
	assert.Equal(t, `b""`, bytesLiteral(nil))
}

func TestParamTypeRust(t *testing.T) {
	assert.Equal(t, "u8", paramTypeRust("byte"))
	assert.Equal(t, "&[u8]", paramTypeRust("bytes"))
	assert.Equal(t, "i32", paramTypeRust("i32"))
}

func TestDictBuildsMap(t *testing.T) {
	m, err := dict("Cmd", 1, "Fn", "x")
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(1, m["Cmd"])
	assert.Equal("x", m["Fn"])
}

func TestDictRejectsOddArgs(t *testing.T) {
	_, err := dict("Cmd", 1, "Fn")
	assert.Error(t, err)
}
