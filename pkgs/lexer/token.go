package lexer

import "strings"

// Token is the flat lexical unit produced by the Lexer: one or more per
// top-level |-delimited segment, possibly spanning lines (spec §3).
type Token struct {
	// Tag identifies the directive or command: function, state, c, ->,
	// >>, return, an uppercase command name (TERM, PREPEND, KEYWORDS), a
	// function call (/name or /name(args)), or a bare PascalCase/
	// lowercase word.
	Tag string
	// ID is the bracketed body [...] (possibly empty).
	ID string
	// Rest is free text after the bracket (or after the tag, if there
	// was no bracket).
	Rest string
	// Line is the 1-based line on which this token's own text starts.
	Line int
}

// reservedUppercaseCommands are explicit uppercase command tags that must
// survive the lexer's SCREAMING_SNAKE_CASE lowering untouched, so the AST
// parser's "starts with an uppercase letter" command classifier (§4.3)
// keeps recognising them. Predefined character-class names used as case
// selectors (LETTER, DIGIT, HEX_DIGIT, ...) are not in this set: those are
// exactly what the lowering rule normalises, per spec §4.1's own example
// ("LETTER and letter alike").
var reservedUppercaseCommands = map[string]bool{
	"TERM":     true,
	"PREPEND":  true,
	"KEYWORDS": true,
}

// IsCall reports whether this token's tag is a function-call form
// (/name or /name(args)).
func (t Token) IsCall() bool { return strings.HasPrefix(t.Tag, "/") }

// IsUppercaseWord reports whether the tag is an all-uppercase word (after
// lexer normalisation, this is the reserved command set: TERM, PREPEND,
// KEYWORDS, plus any other ALL_CAPS identifier a grammar author spells
// that the lexer chose not to fold — see shouldLowercase).
func (t Token) IsUppercaseWord() bool {
	if t.Tag == "" {
		return false
	}
	for _, r := range t.Tag {
		if r >= 'a' && r <= 'z' {
			return false
		}
	}
	hasLetter := false
	for _, r := range t.Tag {
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// IsPascalCase reports whether the tag looks like TypeName — an inline
// emit: starts with an uppercase letter and contains at least one
// lowercase letter.
func (t Token) IsPascalCase() bool {
	if t.Tag == "" {
		return false
	}
	r := t.Tag[0]
	if r < 'A' || r > 'Z' {
		return false
	}
	for i := 1; i < len(t.Tag); i++ {
		c := t.Tag[i]
		if c >= 'a' && c <= 'z' {
			return true
		}
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			break
		}
	}
	return false
}
