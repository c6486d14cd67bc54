package lexer

import (
	"strings"

	"github.com/aledsdavies/parsegen/pkgs/charclass"
	parsegenerrors "github.com/aledsdavies/parsegen/pkgs/errors"
)

// ASCII classification tables, in the style of the teacher's lexer: a
// handful of hot predicates are cheaper as array lookups than branches.
var (
	isSpaceByte [256]bool
	isUpperByte [256]bool
)

func init() {
	isSpaceByte[' '] = true
	isSpaceByte['\t'] = true
	isSpaceByte['\n'] = true
	isSpaceByte['\r'] = true
	for c := byte('A'); c <= 'Z'; c++ {
		isUpperByte[c] = true
	}
}

// Tokenize runs the full lexical pass: strip comments (preserving line
// structure), split on top-level pipes, then parse each segment into one or
// more Tokens. Returns a *parsegenerrors.LexicalError on an unterminated
// quote or bracket.
func Tokenize(src string) ([]Token, error) {
	stripped, err := stripComments(src)
	if err != nil {
		return nil, err
	}
	segments, err := splitPipes(stripped)
	if err != nil {
		return nil, err
	}
	var tokens []Token
	for _, seg := range segments {
		if strings.TrimSpace(seg.text) == "" {
			continue // empty parts are silently dropped
		}
		segTokens, err := tokenizeSegment(seg.text, seg.line)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, segTokens...)
	}
	return tokens, nil
}

// stripComments removes a `;` comment running to end-of-line, unless the
// `;` lies inside single quotes, double quotes, brackets [], or parens ().
// Line structure is preserved: every newline in the input survives in the
// output, so token line numbers computed downstream stay correct.
func stripComments(src string) (string, error) {
	var out strings.Builder
	out.Grow(len(src))

	var quote byte
	escaped := false
	bracketDepth := 0
	parenDepth := 0
	inComment := false
	line := 1
	quoteStartLine := 0

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '\n' {
			inComment = false
			line++
			out.WriteByte(c)
			continue
		}

		if inComment {
			continue
		}

		if quote != 0 {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			quote = c
			quoteStartLine = line
			out.WriteByte(c)
		case c == '[':
			bracketDepth++
			out.WriteByte(c)
		case c == ']':
			if bracketDepth > 0 {
				bracketDepth--
			}
			out.WriteByte(c)
		case c == '(':
			parenDepth++
			out.WriteByte(c)
		case c == ')':
			if parenDepth > 0 {
				parenDepth--
			}
			out.WriteByte(c)
		case c == ';' && bracketDepth == 0 && parenDepth == 0:
			inComment = true
		default:
			out.WriteByte(c)
		}
	}

	if quote != 0 {
		return "", parsegenerrors.NewLexicalError(quoteStartLine, "unterminated quote")
	}
	return out.String(), nil
}

type segment struct {
	text string
	line int
}

// splitPipes splits the comment-stripped input on `|`, never splitting on
// a `|` that lies inside [...] or inside a quoted literal (escape `\`
// tracked for the next character within quotes).
func splitPipes(src string) ([]segment, error) {
	var segs []segment
	var cur strings.Builder
	startLine := 1
	line := 1
	bracketDepth := 0
	var quote byte
	escaped := false
	quoteStartLine := 0

	flush := func() {
		segs = append(segs, segment{text: cur.String(), line: startLine})
		cur.Reset()
		startLine = line
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '\n' {
			line++
			cur.WriteByte(c)
			continue
		}
		if quote != 0 {
			cur.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"':
			quote = c
			quoteStartLine = line
			cur.WriteByte(c)
		case c == '[':
			bracketDepth++
			cur.WriteByte(c)
		case c == ']':
			if bracketDepth > 0 {
				bracketDepth--
			}
			cur.WriteByte(c)
		case c == '|' && bracketDepth == 0:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, parsegenerrors.NewLexicalError(quoteStartLine, "unterminated quote")
	}
	flush()
	return segs, nil
}

// tokenizeSegment parses one pipe-delimited segment into one or more
// tokens. A token whose tag is a case-starter or command form (c, ->,
// return, mark, a /call, an inline emit, a bare predefined-class name, ...)
// consumes only its own tag and optional bracket; tokenizing then continues
// on whatever follows, so a single unpiped segment like `c['x'] -> mark`
// still yields three tokens. A token with any other tag — a top-level
// declaration keyword (function, type, parser, entry-point, keywords,
// state, map) or an ordinary identifier — consumes the rest of the segment
// as free Rest text: the `var = expr` / `function[name] ReturnType` /
// `map['kw'] EventType` shape, where the payload trails the tag directly
// rather than arriving as a later sibling token.
func tokenizeSegment(text string, line int) ([]Token, error) {
	var out []Token
	for {
		skip := 0
		for skip < len(text) {
			c := text[skip]
			switch c {
			case '\n':
				line++
				skip++
				continue
			case ' ', '\t', '\r':
				skip++
				continue
			}
			break
		}
		text = text[skip:]
		if text == "" {
			break
		}

		tag, afterTag, err := scanTag(text, line)
		if err != nil {
			return nil, err
		}

		rest := text[afterTag:]
		id := ""
		afterID := afterTag
		trimmedRest := strings.TrimLeft(rest, " \t")
		if strings.HasPrefix(trimmedRest, "[") {
			content, next, err := scanBracket(trimmedRest, line)
			if err != nil {
				return nil, err
			}
			id = content
			afterID = len(text) - len(trimmedRest) + next
		}

		if continuesTokenStream(tag) {
			out = append(out, Token{Tag: tag, ID: id, Rest: "", Line: line})
			text = text[afterID:]
			continue
		}

		tail := strings.TrimRight(strings.TrimLeft(text[afterID:], " \t"), " \t\r")
		out = append(out, Token{Tag: tag, ID: id, Rest: tail, Line: line})
		break
	}
	return out, nil
}

// continuesTokenStream reports whether tag is a case-starter or command
// form whose payload, if any, arrives only via a bracketed id — meaning
// whatever follows it in the same unpiped segment is itself the start of
// the next token, not this one's trailing free text.
func continuesTokenStream(tag string) bool {
	if tag == "" {
		return false
	}
	switch tag {
	case "c", "default", "eof", "if", "else", "elif", "->", ">>", "return", "mark", "term", "err":
		return true
	}
	if strings.HasPrefix(tag, "/") {
		return true
	}
	if strings.HasPrefix(tag, "TERM(") || strings.HasPrefix(tag, "PREPEND(") ||
		strings.HasPrefix(tag, "KEYWORDS(") || strings.HasPrefix(tag, "emit(") {
		return true
	}
	if (Token{Tag: tag}).IsPascalCase() {
		return true
	}
	return charclass.IsKnownBareSelector(tag)
}

// scanTag implements the tag-scanning rules: the `/name(args)` and
// `emit(...)` forms capture their whole parenthesised tail (case
// preserved); everything else stops at the first space, newline, or `[`,
// then is folded to lowercase if it is a SCREAMING_SNAKE_CASE word outside
// the reserved uppercase command set.
func scanTag(text string, line int) (tag string, restStart int, err error) {
	if strings.HasPrefix(text, "/") || strings.HasPrefix(text, "emit(") {
		nameEnd := 1
		if strings.HasPrefix(text, "emit(") {
			nameEnd = 4 // "emit" without the '('
		} else {
			for nameEnd < len(text) && isIdentChar(text[nameEnd]) {
				nameEnd++
			}
		}
		if nameEnd < len(text) && text[nameEnd] == '(' {
			close, err := scanParens(text, nameEnd, line)
			if err != nil {
				return "", 0, err
			}
			return text[:close+1], close + 1, nil
		}
		return text[:nameEnd], nameEnd, nil
	}

	i := 0
	for i < len(text) && !isSpaceByte[text[i]] && text[i] != '[' {
		i++
	}
	tag = text[:i]
	if shouldLowercase(tag) {
		tag = strings.ToLower(tag)
	}
	return tag, i, nil
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
}

// shouldLowercase reports whether tag is a SCREAMING_SNAKE_CASE (or plain
// ALL-CAPS) word that the lexer normalises to lowercase, so a case
// selector written as `LETTER` and one written as `letter` are treated
// identically downstream. The reserved uppercase command tags (TERM,
// PREPEND, KEYWORDS) are exempt — matched against the command name alone,
// not the whole tag: TERM(-1) carries an argument list after the name, and
// checking the full string against the exemption set would miss it
// whenever the arguments themselves contain no lowercase letter to trip
// the scan below (e.g. TERM(-1), but not PREPEND(:prefix)).
func shouldLowercase(tag string) bool {
	if tag == "" {
		return false
	}
	name := tag
	if idx := strings.IndexByte(tag, '('); idx >= 0 {
		name = tag[:idx]
	}
	if reservedUppercaseCommands[name] {
		return false
	}
	hasUpper := false
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if c >= 'a' && c <= 'z' {
			return false
		}
		if isUpperByte[c] {
			hasUpper = true
		}
	}
	return hasUpper
}

// scanParens returns the index of the matching ')' for the '(' at index
// open, skipping over nested parens and quoted literals.
func scanParens(text string, open int, line int) (int, error) {
	depth := 0
	var quote byte
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, parsegenerrors.NewLexicalError(line, "unterminated parenthesis in %q", text)
}

// scanBracket returns the content of the first [...] starting at s[0],
// respecting single-quote balancing so c[']']  extracts the single quoted
// `]`, and the index just past the closing bracket.
func scanBracket(s string, line int) (content string, next int, err error) {
	if len(s) == 0 || s[0] != '[' {
		return "", 0, parsegenerrors.NewLexicalError(line, "expected '[' at %q", s)
	}
	inQuote := false
	var quoteChar byte
	escaped := false
	for i := 1; i < len(s); i++ {
		c := s[i]
		if inQuote {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == quoteChar {
				inQuote = false
			}
			continue
		}
		switch c {
		case '\'', '"':
			inQuote = true
			quoteChar = c
		case ']':
			return s[1:i], i + 1, nil
		}
	}
	return "", 0, parsegenerrors.NewLexicalError(line, "unterminated bracket in %q", s)
}
