// Parser is the recursive-descent front end: it consumes the Lexer's flat
// token stream and builds the Machine tree (spec §4.3). Top-level
// productions are parser, entry-point, type, function, keywords; inside a
// function, tokens belong to a state, an EOF handler, a function-level
// guard, or an entry action.
package ast

import (
	"strings"

	"github.com/aledsdavies/parsegen/pkgs/charclass"
	parsegenerrors "github.com/aledsdavies/parsegen/pkgs/errors"
	"github.com/aledsdavies/parsegen/pkgs/lexer"
)

// Parser holds the token cursor.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse builds a Machine from a token stream produced by lexer.Tokenize.
func Parse(tokens []lexer.Token) (*Machine, error) {
	p := &Parser{tokens: tokens}
	return p.parseMachine()
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) atEnd() bool { return p.pos >= len(p.tokens) }

var topLevelTags = map[string]bool{
	"parser": true, "entry-point": true, "entry_point": true,
	"type": true, "function": true, "keywords": true,
}

func isTopLevelTag(tag string) bool { return topLevelTags[tag] }

func (p *Parser) parseMachine() (*Machine, error) {
	m := &Machine{}
	for !p.atEnd() {
		tok := p.peek()
		switch tok.Tag {
		case "parser":
			m.Name = tok.ID
			m.Line = tok.Line
			p.advance()
		case "entry-point", "entry_point":
			m.EntryPoint = tok.ID
			p.advance()
		case "type":
			td, err := p.parseTypeDecl(tok)
			if err != nil {
				return nil, err
			}
			m.Types = append(m.Types, td)
			p.advance()
		case "keywords":
			kb, err := p.parseKeywords()
			if err != nil {
				return nil, err
			}
			m.Keywords = append(m.Keywords, kb)
		case "function":
			fn, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			m.Functions = append(m.Functions, fn)
		default:
			return nil, parsegenerrors.NewParseError(tok.Line, "unknown top-level directive %q", tok.Tag)
		}
	}
	return m, nil
}

func (p *Parser) parseTypeDecl(tok lexer.Token) (TypeDecl, error) {
	kindStr := strings.ToLower(strings.TrimSpace(tok.Rest))
	td := TypeDecl{Name: tok.ID, Line: tok.Line}
	switch kindStr {
	case "bracket":
		td.Kind = Bracket
	case "content":
		td.Kind = Content
	case "internal":
		td.Kind = Internal
	default:
		td.Kind = UnknownKind
		td.RawKind = kindStr
	}
	return td, nil
}

func splitNameParams(id string) (string, []string) {
	id = strings.TrimSpace(id)
	open := strings.Index(id, "(")
	if open < 0 {
		return id, nil
	}
	name := strings.TrimSpace(id[:open])
	inner := strings.TrimSuffix(id[open+1:], ")")
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return name, nil
	}
	parts := strings.Split(inner, ",")
	params := make([]string, 0, len(parts))
	for _, pt := range parts {
		params = append(params, strings.TrimSpace(pt))
	}
	return name, params
}

func (p *Parser) parseFunction() (Function, error) {
	tok := p.advance() // "function"
	name, params := splitNameParams(tok.ID)
	fn := Function{Name: name, Params: params, ReturnType: strings.TrimSpace(tok.Rest), Line: tok.Line}

	for !p.atEnd() && !isTopLevelTag(p.peek().Tag) {
		t := p.peek()
		switch {
		case t.Tag == "state":
			st, err := p.parseState()
			if err != nil {
				return fn, err
			}
			fn.States = append(fn.States, st)
		case t.Tag == "eof":
			p.advance()
			cmds, err := p.parseCommandsUntil(isStructuralStop)
			if err != nil {
				return fn, err
			}
			fn.EOFHandler = cmds
			fn.HasEOFHandler = true
		case t.Tag == "if":
			p.advance()
			cmd, err := p.parseConditionalChain(t)
			if err != nil {
				return fn, err
			}
			fn.EntryActions = append(fn.EntryActions, cmd)
		default:
			cmd, err := p.classifyAndBuildCommand(t)
			if err != nil {
				return fn, err
			}
			p.advance()
			fn.EntryActions = append(fn.EntryActions, cmd)
		}
	}
	return fn, nil
}

// isStructuralStop reports whether tag ends an entry-action / EOF-handler
// / conditional-clause command run: any case-starter, "state", a top-level
// tag, or "else" (the trailing clause of a conditional chain).
func isStructuralStop(tag string) bool {
	if isTopLevelTag(tag) || tag == "state" || tag == "else" {
		return true
	}
	return isCaseStarterTag(tag)
}

func isCaseStarterTag(tag string) bool {
	if tag == "c" || tag == "default" || tag == "eof" || tag == "if" {
		return true
	}
	// A predefined character-class / range name used bare as a
	// case-starter (letter, digit, 0-9, ...).
	return charclass.IsKnownBareSelector(tag)
}

func isCommandLikeTag(tag string) bool {
	if tag == "" {
		return false
	}
	if strings.HasPrefix(tag, "/") || strings.HasPrefix(tag, "->") || strings.HasPrefix(tag, ">>") {
		return true
	}
	if tag[0] >= 'A' && tag[0] <= 'Z' {
		return true
	}
	switch tag {
	case "return", "err", "mark", "term":
		return true
	}
	return false
}

// parseCommandsUntil consumes commands (single-token or `if` chains) until
// stop(tag) is true for the next token or the stream ends.
func (p *Parser) parseCommandsUntil(stop func(string) bool) ([]Command, error) {
	var cmds []Command
	for !p.atEnd() {
		t := p.peek()
		if stop(t.Tag) {
			break
		}
		if t.Tag == "if" {
			p.advance()
			cmd, err := p.parseConditionalChain(t)
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, cmd)
			continue
		}
		cmd, err := p.classifyAndBuildCommand(t)
		if err != nil {
			return nil, err
		}
		p.advance()
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// parseConditionalChain parses an `if[cond] ... [else ...]` construct into
// a single CmdConditional command (spec keeps this scoped to an optional
// single else, matching the IR's ConditionalClause shape: first-match-wins
// clauses with an optional trailing unconditional clause).
func (p *Parser) parseConditionalChain(ifTok lexer.Token) (Command, error) {
	cond := strings.TrimSpace(ifTok.ID)
	if cond == "" {
		cond = strings.TrimSpace(ifTok.Rest)
	}
	cmds, err := p.parseCommandsUntil(isStructuralStop)
	if err != nil {
		return Command{}, err
	}
	clauses := []ConditionalClause{{Condition: cond, Commands: cmds, Line: ifTok.Line}}

	if !p.atEnd() && p.peek().Tag == "else" {
		elseTok := p.advance()
		elseCmds, err := p.parseCommandsUntil(isStructuralStop)
		if err != nil {
			return Command{}, err
		}
		clauses = append(clauses, ConditionalClause{Condition: "", Commands: elseCmds, Line: elseTok.Line})
	}
	return Conditional(ifTok.Line, clauses...), nil
}

func (p *Parser) parseState() (State, error) {
	tok := p.advance() // "state"
	st := State{Name: tok.ID, Line: tok.Line}
	// bareActionAllowed holds at the state's first case, and again
	// immediately after an if-case whose body was cut short by a `return`
	// (spec §4.3): the return ends that case, and the command-like token
	// that follows opens a new bare-action case rather than trailing as
	// unreachable code.
	bareActionAllowed := true

	for !p.atEnd() {
		t := p.peek()
		if isTopLevelTag(t.Tag) || t.Tag == "state" {
			break
		}

		switch {
		case t.Tag == "eof":
			p.advance()
			cmds, _, err := p.parseCaseCommands(false)
			if err != nil {
				return st, err
			}
			st.Cases = append(st.Cases, Case{IsEOF: true, Commands: cmds, Line: t.Line})
			st.EOFHandler = cmds
			st.HasEOFHandler = true
			bareActionAllowed = false

		case t.Tag == "default":
			p.advance()
			substate := p.consumeSubstate()
			cmds, _, err := p.parseCaseCommands(false)
			if err != nil {
				return st, err
			}
			st.Cases = append(st.Cases, Case{IsDefault: true, Substate: substate, Commands: cmds, Line: t.Line})
			bareActionAllowed = false

		case t.Tag == "if":
			p.advance()
			cond := strings.TrimSpace(t.ID)
			if cond == "" {
				cond = strings.TrimSpace(t.Rest)
			}
			substate := p.consumeSubstate()
			cmds, endedEarly, err := p.parseCaseCommands(true)
			if err != nil {
				return st, err
			}
			st.Cases = append(st.Cases, Case{Condition: cond, Substate: substate, Commands: cmds, Line: t.Line})
			bareActionAllowed = endedEarly

		case t.Tag == "c" || isBareClassTag(t.Tag):
			selText := t.ID
			if selText == "" {
				selText = t.Tag
			}
			sel, err := charclass.Parse(selText)
			if err != nil {
				return st, parsegenerrors.NewValidationError(t.Line, "%s", err.Error())
			}
			p.advance()
			substate := p.consumeSubstate()
			cmds, _, err := p.parseCaseCommands(false)
			if err != nil {
				return st, err
			}
			st.Cases = append(st.Cases, Case{Selector: &sel, Substate: substate, Commands: cmds, Line: t.Line})
			bareActionAllowed = false

		case isCommandLikeTag(t.Tag):
			if !bareActionAllowed {
				return st, parsegenerrors.NewParseError(t.Line, "bare-action case is only legal as the state's first case, or immediately after an if-case ended by return")
			}
			cmd, err := p.classifyAndBuildCommand(t)
			if err != nil {
				return st, err
			}
			p.advance()
			rest, _, err := p.parseCaseCommands(false)
			if err != nil {
				return st, err
			}
			st.Cases = append(st.Cases, Case{IsBareAction: true, Commands: append([]Command{cmd}, rest...), Line: t.Line})
			bareActionAllowed = false

		default:
			return st, parsegenerrors.NewParseError(t.Line, "unexpected token %q starting a case", t.Tag)
		}
	}
	return st, nil
}

// isBareClassTag reports whether tag (with no bracketed id) names a
// predefined range/class/reserved-char on its own, e.g. `letter` used
// directly as a case-starter rather than via `c[letter]`.
func isBareClassTag(tag string) bool {
	switch tag {
	case "c", "default", "eof", "if", "state", "else", "":
		return false
	}
	if isCommandLikeTag(tag) {
		return false
	}
	return charclass.IsKnownBareSelector(tag)
}

// consumeSubstate reads the optional ".substate" label that may trail a
// selector token's Rest text.
func (p *Parser) consumeSubstate() string {
	if p.pos == 0 {
		return ""
	}
	prev := p.tokens[p.pos-1]
	if strings.HasPrefix(prev.Rest, ".") {
		return strings.TrimPrefix(prev.Rest, ".")
	}
	return ""
}

// parseCaseCommands consumes commands for one case body until the next
// case-starter/state/top-level token. When isIfCase is true, a command-like
// token immediately following a `return` ends the case early (spec §4.3):
// endedEarly reports this, so the caller knows a bare-action case is
// legal immediately after this one even though it isn't the state's first.
func (p *Parser) parseCaseCommands(isIfCase bool) (cmds []Command, endedEarly bool, err error) {
	justReturned := false
	for !p.atEnd() {
		t := p.peek()
		if isTopLevelTag(t.Tag) || t.Tag == "state" || t.Tag == "eof" || t.Tag == "default" || t.Tag == "if" || t.Tag == "c" || isBareClassTag(t.Tag) {
			break
		}
		if isIfCase && justReturned && isCommandLikeTag(t.Tag) {
			endedEarly = true
			break
		}
		if t.Tag == "" {
			break
		}
		cmd, err := p.classifyAndBuildCommand(t)
		if err != nil {
			return nil, false, err
		}
		p.advance()
		cmds = append(cmds, cmd)
		justReturned = cmd.Kind == CmdReturn
	}
	return cmds, endedEarly, nil
}

func (p *Parser) parseKeywords() (KeywordBlock, error) {
	tok := p.advance() // "keywords"
	kb := KeywordBlock{Name: tok.ID, Line: tok.Line}
	for !p.atEnd() && !isTopLevelTag(p.peek().Tag) {
		t := p.advance()
		switch {
		case t.IsCall():
			name, args := splitCallTag(t.Tag)
			kb.FallbackFunc = name
			kb.FallbackArgs = args
		case t.Tag == "map":
			res, err := charclass.Parse(t.ID)
			if err != nil {
				return kb, parsegenerrors.NewValidationError(t.Line, "%s", err.Error())
			}
			lit, err := res.ToBytes()
			if err != nil {
				return kb, parsegenerrors.NewValidationError(t.Line, "%s", err.Error())
			}
			kb.Mappings = append(kb.Mappings, KeywordMapping{
				Keyword:   string(lit),
				EventType: strings.TrimSpace(t.Rest),
				Line:      t.Line,
			})
		default:
			return kb, parsegenerrors.NewParseError(t.Line, "unexpected token %q in keywords block", t.Tag)
		}
	}
	return kb, nil
}

func splitCallTag(tag string) (name, args string) {
	body := strings.TrimPrefix(tag, "/")
	open := strings.Index(body, "(")
	if open < 0 {
		return body, ""
	}
	return body[:open], strings.TrimSuffix(body[open+1:], ")")
}

func splitEmitTag(tag string) (name, lit string) {
	open := strings.Index(tag, "(")
	if open < 0 {
		return tag, ""
	}
	return tag[:open], strings.TrimSpace(strings.TrimSuffix(tag[open+1:], ")"))
}

// classifyAndBuildCommand classifies a single token per spec §4.3 and
// builds the corresponding Command. It does not advance the cursor.
func (p *Parser) classifyAndBuildCommand(t lexer.Token) (Command, error) {
	switch {
	case t.Tag == "->":
		if t.ID != "" {
			return AdvanceTo(t.ID, t.Line), nil
		}
		return Advance(t.Line), nil

	case t.Tag == ">>":
		target := strings.TrimSpace(t.ID)
		if target == "" {
			target = strings.TrimSpace(t.Rest)
		}
		return Transition(target, t.Line), nil

	case t.Tag == "return":
		spec := strings.TrimSpace(t.ID)
		if spec == "" {
			spec = strings.TrimSpace(t.Rest)
		}
		return Return(spec, t.Line), nil

	case t.Tag == "mark":
		return Mark(t.Line), nil

	case t.Tag == "term":
		return Term(strings.TrimSpace(t.ID), t.Line), nil

	case strings.HasPrefix(t.Tag, "TERM("):
		_, offset := splitEmitTag(t.Tag)
		return Term(offset, t.Line), nil

	case t.Tag == "err":
		return ErrorCmd(strings.TrimSpace(t.ID), t.Line), nil

	case strings.HasPrefix(t.Tag, "PREPEND("):
		_, inner := splitEmitTag(t.Tag)
		if strings.HasPrefix(inner, ":") {
			return PrependParam(inner[1:], t.Line), nil
		}
		return Prepend(inner, t.Line), nil

	case strings.HasPrefix(t.Tag, "KEYWORDS("):
		_, name := splitEmitTag(t.Tag)
		return KeywordsLookup(name, t.Line), nil

	case strings.HasPrefix(t.Tag, "emit("):
		inner := strings.TrimSuffix(strings.TrimPrefix(t.Tag, "emit("), ")")
		parts, err := charclass.SplitArgs(inner)
		if err != nil {
			return Command{}, parsegenerrors.NewParseError(t.Line, "%s", err.Error())
		}
		if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
			return Command{}, parsegenerrors.NewParseError(t.Line, "emit(...) requires a type name")
		}
		typeName := strings.TrimSpace(parts[0])
		if len(parts) == 1 {
			return InlineEmitBare(typeName, t.Line), nil
		}
		lit := strings.TrimSpace(parts[1])
		if lit == "USE_MARK" {
			return InlineEmitMark(typeName, t.Line), nil
		}
		return InlineEmitLiteral(typeName, lit, t.Line), nil

	case t.IsCall():
		name, args := splitCallTag(t.Tag)
		if name == "error" {
			return ErrorCmd(strings.TrimSpace(args), t.Line), nil
		}
		return Call(name, args, t.Line), nil

	case t.IsPascalCase():
		name, lit := splitEmitTag(t.Tag)
		if lit == "" {
			return InlineEmitBare(name, t.Line), nil
		}
		if lit == "USE_MARK" {
			return InlineEmitMark(name, t.Line), nil
		}
		return InlineEmitLiteral(name, lit, t.Line), nil

	default:
		combined := strings.TrimSpace(t.Tag + " " + t.Rest)
		return parseAssignmentLike(combined, t.Line)
	}
}

func parseAssignmentLike(text string, line int) (Command, error) {
	if idx := strings.Index(text, "+="); idx >= 0 {
		return AddAssign(strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+2:]), line), nil
	}
	if idx := strings.Index(text, "-="); idx >= 0 {
		return SubAssign(strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+2:]), line), nil
	}
	if idx := strings.Index(text, "="); idx >= 0 {
		return Assign(strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:]), line), nil
	}
	return Command{}, parsegenerrors.NewParseError(line, "unrecognised command form %q", text)
}
