package charclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuotedChar(t *testing.T) {
	r, err := Parse(`'|'`)
	require.NoError(t, err)
	assert.Equal(t, KindChars, r.Kind)
	assert.True(t, r.Ordered)
	assert.Equal(t, []byte{'|'}, r.Literal)
}

func TestParseQuotedStringEscapes(t *testing.T) {
	r, err := Parse(`"a\nb\x41\0"`)
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', '\n', 'b', 'A', 0}, r.Literal)
}

func TestParseClassWrapperUnion(t *testing.T) {
	r, err := Parse(`<a b c>`)
	require.NoError(t, err)
	assert.False(t, r.Ordered)
	assert.ElementsMatch(t, []byte{'a', 'b', 'c'}, r.SortedChars())
}

func TestParseEmptyClass(t *testing.T) {
	r, err := Parse(`<>`)
	require.NoError(t, err)
	assert.Equal(t, KindEmpty, r.Kind)
}

func TestParseParamRef(t *testing.T) {
	r, err := Parse(`:x`)
	require.NoError(t, err)
	assert.Equal(t, KindParam, r.Kind)
	assert.Equal(t, "x", r.ParamRef)
}

func TestParseNamedRange(t *testing.T) {
	r, err := Parse(`0-9`)
	require.NoError(t, err)
	assert.Len(t, r.Chars, 10)
	assert.True(t, r.Chars['5'])
}

func TestParseNamedClassDigit(t *testing.T) {
	r, err := Parse(`digit`)
	require.NoError(t, err)
	assert.True(t, r.Chars['0'])
	assert.True(t, r.Chars['9'])
	assert.False(t, r.Chars['a'])
}

func TestParseNamedClassCaseInsensitive(t *testing.T) {
	upper, err := Parse(`LETTER`)
	require.NoError(t, err)
	lower, err := Parse(`letter`)
	require.NoError(t, err)
	assert.Equal(t, upper.Chars, lower.Chars)
}

func TestParseUnicodeClassIsSpecial(t *testing.T) {
	r, err := Parse(`XID_START`)
	require.NoError(t, err)
	assert.Equal(t, KindSpecial, r.Kind)
	assert.True(t, r.IsUnicode())
}

func TestParseReservedSingleChar(t *testing.T) {
	r, err := Parse(`P`)
	require.NoError(t, err)
	assert.True(t, r.Chars['|'])
}

func TestParseBareCharsStandForThemselves(t *testing.T) {
	r, err := Parse(`xz`)
	require.NoError(t, err)
	assert.False(t, r.Ordered)
	assert.ElementsMatch(t, []byte{'x', 'z'}, r.SortedChars())
}

func TestParseUnquotedSpecialCharErrors(t *testing.T) {
	_, err := Parse(`@`)
	require.Error(t, err)
}

func TestUnterminatedQuoteErrors(t *testing.T) {
	_, err := Parse(`'abc`)
	require.Error(t, err)
}

func TestToByteNeverMatchSentinel(t *testing.T) {
	r, err := Parse(`<>`)
	require.NoError(t, err)
	b, never, err := r.ToByte()
	require.NoError(t, err)
	assert.True(t, never)
	assert.Equal(t, byte(0), b)
}

func TestToBytesFromClassIsError(t *testing.T) {
	r, err := Parse(`<a b>`)
	require.NoError(t, err)
	_, err = r.ToBytes()
	require.Error(t, err)
}

func TestToBytesFromStringPreservesOrder(t *testing.T) {
	r, err := Parse(`"ba"`)
	require.NoError(t, err)
	bs, err := r.ToBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{'b', 'a'}, bs)
}

func TestClassWrapperRejectsParamRef(t *testing.T) {
	_, err := Parse(`<a :x>`)
	require.Error(t, err)
}
