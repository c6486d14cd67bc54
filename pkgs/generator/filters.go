package generator

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/aledsdavies/parsegen/pkgs/charclass"
)

// filterFuncs is the small, stable extension point shared between the
// template and the core (spec §4.6, §9 "template-as-interface"): every
// target template may call these, and the core introduces no
// target-specific logic outside of them.
func filterFuncs() template.FuncMap {
	return template.FuncMap{
		"escape_rust_char":    escapeRustChar,
		"pascalcase":          pascalcase,
		"rust_expr":           rustExpr,
		"transform_call_args": transformCallArgs,
	}
}

// escapeRustChar maps a single byte to the byte-literal token the rust
// template embeds directly in generated match arms (`b'|'`, `b'\n'`,
// `0x1Bu8` for non-printable bytes outside the common escape set).
func escapeRustChar(b byte) string {
	switch b {
	case '\n':
		return `b'\n'`
	case '\r':
		return `b'\r'`
	case '\t':
		return `b'\t'`
	case '\\':
		return `b'\\'`
	case '\'':
		return `b'\''`
	}
	if b >= 0x20 && b < 0x7f {
		return fmt.Sprintf("b'%c'", b)
	}
	return fmt.Sprintf("0x%02Xu8", b)
}

// pascalcase converts snake_case/camelCase/PascalCase identifiers to
// PascalCase, preserving an input that is already PascalCase (spec §4.6):
// split on `_`, ` `, `-`, and lowercase-to-uppercase boundaries, then
// title-case each piece. Idempotent: pascalcase(pascalcase(s)) == pascalcase(s).
func pascalcase(s string) string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ' || r == '-':
			flush()
		case i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	var out strings.Builder
	for _, w := range words {
		wr := []rune(strings.ToLower(w))
		if len(wr) == 0 {
			continue
		}
		wr[0] = unicode.ToUpper(wr[0])
		out.WriteString(string(wr))
	}
	return out.String()
}

// rustExpr expands the DSL expression sublanguage into target-language Rust
// source text (spec §4.6). Function calls are rewritten FIRST, before
// special-variable expansion, so that `/f(COL)` does not have its call
// parens confused with the parens `self.col()` introduces.
func rustExpr(expr string) string {
	expr = expandCalls(expr)
	expr = expandSpecialVars(expr)
	expr = expandEscapeTokens(expr)
	expr = expandParamRefs(expr)
	return expr
}

// expandCalls rewrites every `/name(args)` call expression to
// `self.parse_name(args, on_event)`, passing args through
// transform_call_args first.
func expandCalls(expr string) string {
	var out strings.Builder
	i := 0
	for i < len(expr) {
		if expr[i] == '/' {
			j := i + 1
			for j < len(expr) && isIdentByte(expr[j]) {
				j++
			}
			name := expr[i+1 : j]
			if name != "" && j < len(expr) && expr[j] == '(' {
				depth := 1
				k := j + 1
				for k < len(expr) && depth > 0 {
					switch expr[k] {
					case '(':
						depth++
					case ')':
						depth--
					}
					k++
				}
				args := expr[j+1 : k-1]
				out.WriteString("self.parse_")
				out.WriteString(name)
				out.WriteByte('(')
				out.WriteString(transformCallArgs(args))
				if strings.TrimSpace(args) != "" {
					out.WriteString(", ")
				}
				out.WriteString("on_event)")
				i = k
				continue
			}
		}
		out.WriteByte(expr[i])
		i++
	}
	return out.String()
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// expandSpecialVars rewrites the reserved accessor names to their runtime
// equivalents. Must run after expandCalls (spec §4.6).
func expandSpecialVars(expr string) string {
	expr = replaceWord(expr, "COL", "self.col()")
	expr = replaceWord(expr, "LINE", "self.line as i32")
	expr = replaceWord(expr, "PREV", "self.prev()")
	return expr
}

// expandEscapeTokens rewrites embedded angle-bracket escape tokens like
// `<P>` (pipe), `<NL>` (newline) to their byte-literal form.
func expandEscapeTokens(expr string) string {
	tokens := map[string]byte{
		"<P>": '|', "<LB>": '[', "<RB>": ']', "<LP>": '(', "<RP>": ')',
		"<SQ>": '\'', "<DQ>": '"', "<BS>": '\\', "<NL>": '\n',
	}
	for tok, b := range tokens {
		expr = strings.ReplaceAll(expr, tok, escapeRustChar(b))
	}
	return expr
}

// expandParamRefs rewrites `:x` to the bare identifier `x`.
func expandParamRefs(expr string) string {
	var out strings.Builder
	i := 0
	for i < len(expr) {
		if expr[i] == ':' && i+1 < len(expr) && isIdentStart(expr[i+1]) {
			j := i + 1
			for j < len(expr) && isIdentByte(expr[j]) {
				j++
			}
			out.WriteString(expr[i+1 : j])
			i = j
			continue
		}
		out.WriteByte(expr[i])
		i++
	}
	return out.String()
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// replaceWord replaces every standalone occurrence of word in s with
// replacement, leaving occurrences embedded in a longer identifier alone.
func replaceWord(s, word, replacement string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if i+len(word) <= len(s) && s[i:i+len(word)] == word {
			before := i == 0 || !isIdentByte(s[i-1])
			afterIdx := i + len(word)
			after := afterIdx >= len(s) || !isIdentByte(s[afterIdx])
			if before && after {
				out.WriteString(replacement)
				i += len(word)
				continue
			}
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// transformCallArgs splits a comma-separated argument list respecting
// quotes and angle brackets (spec §4.6; reuses charclass.SplitArgs, the
// same splitter the IR builder's call-argument rewriting pass uses),
// rewriting each argument through rustExpr. An unparsable argument list is
// passed through unchanged — the IR builder already rejected this case
// with a ValidationError before the Generator ever runs.
func transformCallArgs(argsExpr string) string {
	args, err := charclass.SplitArgs(argsExpr)
	if err != nil {
		return argsExpr
	}
	out := make([]string, 0, len(args))
	for _, a := range args {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		out = append(out, rustExpr(a))
	}
	return strings.Join(out, ", ")
}
