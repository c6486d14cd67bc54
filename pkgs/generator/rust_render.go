package generator

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/aledsdavies/parsegen/pkgs/ir"
)

// rustRenderFuncs are template helpers specific to rendering IR fragments
// as Rust source. Unlike filterFuncs (spec §4.6's named filter set —
// escape_rust_char, pascalcase, rust_expr, transform_call_args), these
// exist purely so parser.tmpl doesn't need Go-level control flow spelled
// out in template text for every command/argument shape; they carry no
// target-neutral contract of their own.
func rustRenderFuncs() template.FuncMap {
	return template.FuncMap{
		"bytes_literal":  bytesLiteral,
		"render_arg":     renderArg,
		"param_type":     paramTypeRust,
		"scanHelperName": scanHelperName,
		"lower":          strings.ToLower,
		"dict":           dict,
	}
}

// dict builds a map[string]any from alternating key/value arguments, so a
// parent template can pass several values into a single named subtemplate
// invocation (text/template subtemplates take exactly one argument).
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	d := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		d[key] = pairs[i+1]
	}
	return d, nil
}

// bytesLiteral renders a byte slice as a Rust byte-string literal when
// every byte is printable ASCII other than `"` and `\`, or a `&[..]`
// slice literal otherwise.
func bytesLiteral(bs []byte) string {
	if len(bs) == 0 {
		return `b""`
	}
	printable := true
	for _, b := range bs {
		if b < 0x20 || b >= 0x7f || b == '"' || b == '\\' {
			printable = false
			break
		}
	}
	if printable {
		return fmt.Sprintf("b\"%s\"", string(bs))
	}
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = escapeRustChar(b)
	}
	return "&[" + strings.Join(parts, ", ") + "]"
}

// renderArg renders one resolved call argument (ir.Arg) as a Rust
// expression fragment, per the representation its ParamType demands
// (spec §4.4.10).
func renderArg(a ir.Arg) string {
	switch {
	case a.IsParamRef:
		return a.Name
	case a.IsInt:
		return rustExpr(a.Raw)
	case a.ParamType == ir.TypeByte:
		if len(a.Bytes) == 0 {
			return "0u8"
		}
		return escapeRustChar(a.Bytes[0])
	case a.ParamType == ir.TypeBytes:
		return bytesLiteral(a.Bytes)
	default:
		return rustExpr(a.Raw)
	}
}

// paramTypeRust maps an inferred ParamType to its Rust spelling.
func paramTypeRust(t string) string {
	switch t {
	case "byte":
		return "u8"
	case "bytes":
		return "&[u8]"
	default:
		return "i32"
	}
}
