package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/parsegen/pkgs/ast"
	"github.com/aledsdavies/parsegen/pkgs/ir"
	"github.com/aledsdavies/parsegen/pkgs/lexer"
)

func buildSrc(t *testing.T, src string) *ir.Machine {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	require.NoError(t, err)
	m, err := ast.Parse(toks)
	require.NoError(t, err)
	built, err := ir.Build(m)
	require.NoError(t, err)
	return built
}

func TestValidateCleanMachineHasNoDiagnostics(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseValue]
| type[Number] bracket
| function[parseValue] Number
| state[body]
| default -> return
`)
	r := Validate(m)
	assert.False(t, r.HasErrors())
	assert.Empty(t, r.Warnings)
}

func TestValidateDuplicateTypeIsError(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseValue]
| type[Number] bracket
| type[Number] content
| function[parseValue]
| state[body]
| default -> return
`)
	r := Validate(m)
	require.True(t, r.HasErrors())
	assert.Contains(t, r.Errors[0].Message, `duplicate type declaration "Number"`)
}

func TestValidateUnknownEntryPointIsError(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseMissing]
| function[parseValue]
| state[body]
| default -> return
`)
	r := Validate(m)
	require.True(t, r.HasErrors())
	assert.Contains(t, r.Errors[0].Message, `entry point "parseMissing" references an undefined function`)
}

func TestValidateDuplicateFunctionIsWarning(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseValue]
| function[parseValue]
| state[body]
| default -> return
| function[parseValue]
| state[body]
| default -> return
`)
	r := Validate(m)
	require.False(t, r.HasErrors())
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0].Message, `duplicate function "parseValue"`)
}

func TestValidateUndefinedCallSuggestsNearestName(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseValue]
| function[parseValue]
| state[body]
| default /parseVal
| function[parseVale]
| state[body]
| default -> return
`)
	r := Validate(m)
	require.False(t, r.HasErrors())
	require.NotEmpty(t, r.Warnings)
	assert.Contains(t, r.Warnings[0].Message, `call to undefined function`)
	assert.Contains(t, r.Warnings[0].Message, `did you mean "parseVale"`)
}

func TestValidateUndefinedTransitionTargetWarns(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseValue]
| function[parseValue]
| state[body]
| default >>[missing]
`)
	r := Validate(m)
	require.False(t, r.HasErrors())
	require.NotEmpty(t, r.Warnings)
	assert.Contains(t, r.Warnings[0].Message, `transition target "missing" not declared in function "parseValue"`)
}

func TestValidateSelfLoopTransitionIsLegal(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseValue]
| function[parseValue]
| state[body]
| c['a'] >>
| default -> return
`)
	r := Validate(m)
	for _, w := range r.Warnings {
		assert.NotContains(t, w.Message, "transition target")
	}
}

func TestValidateEmitOfUndeclaredTypeWarns(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseValue]
| function[parseValue]
| state[body]
| default emit(Mystery, '0')
`)
	r := Validate(m)
	require.False(t, r.HasErrors())
	require.NotEmpty(t, r.Warnings)
	assert.Contains(t, r.Warnings[0].Message, `emit of undefined type "Mystery"`)
}

func TestValidateEmptyStateWarns(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseValue]
| function[parseValue]
| state[body]
| default -> return
| state[unused]
`)
	r := Validate(m)
	found := false
	for _, w := range r.Warnings {
		if w.Message == `state "unused" in function "parseValue" is empty` {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateKeywordDuplicateBlockWarns(t *testing.T) {
	m := buildSrc(t, `
parser[Min]
| entry-point[parseValue]
| function[parseValue]
| state[body]
| default -> return
| keywords[kw]
| map['if'] KeywordIf
| keywords[kw]
| map['else'] KeywordElse
`)
	r := Validate(m)
	require.False(t, r.HasErrors())
	found := false
	for _, w := range r.Warnings {
		if w.Message == `duplicate keyword block "kw", first definition wins` {
			found = true
		}
	}
	assert.True(t, found)
}
