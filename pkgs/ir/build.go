package ir

import (
	"sort"
	"strings"

	"github.com/aledsdavies/parsegen/pkgs/ast"
	"github.com/aledsdavies/parsegen/pkgs/charclass"
	parsegenerrors "github.com/aledsdavies/parsegen/pkgs/errors"
)

// Build lowers a parsed *ast.Machine into the IR the Generator consumes
// (spec §4.4): one structural pass followed by the fixed sequence of
// post-passes the spec enumerates. Each post-pass only ever adds
// information to a Command/State/Function; none of them revisit or undo
// an earlier pass's decision.
func Build(m *ast.Machine) (*Machine, error) {
	types := resolveTypes(m.Types)
	typeIdx := typeIndex(types)

	fns := make([]Function, 0, len(m.Functions))
	for _, af := range m.Functions {
		fn, err := lowerFunction(af)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}

	// §4.4.1 type resolution (already folded into TypeInfo above) plus
	// per-function emits_events.
	for i := range fns {
		setEmitsEvents(&fns[i], typeIdx)
	}

	// §4.4.3-4 SCAN inference, then newline injection.
	for i := range fns {
		for j := range fns[i].States {
			inferScan(&fns[i].States[j])
			injectNewline(&fns[i].States[j])
		}
	}

	// §4.4.5 expects_char / unclosed-EOF inference.
	for i := range fns {
		inferExpectsChar(&fns[i])
	}

	// §4.4.6 parameter-type fix-point inference.
	idx := make(map[string]int, len(fns))
	for i, fn := range fns {
		idx[fn.Name] = i
	}
	applyParamTypeInference(fns, idx)

	// §4.4.7 local-variable inference, §4.4.8 inline-emit/return fix-up.
	// Order doesn't matter between these two; each reads a different
	// command field.
	for i := range fns {
		inferLocals(&fns[i])
		fixupInlineEmitReturn(&fns[i])
	}

	// prepend-value collection reads every caller's call sites, so it
	// needs the full fns/idx the same way the call-argument passes do.
	collectPrependValues(fns, idx)

	// §4.4.10 call-argument rewriting — needs every function's
	// ParamTypes final, so it runs last.
	if err := rewriteCallArgs(fns, idx); err != nil {
		return nil, err
	}

	return &Machine{
		Name:             m.Name,
		EntryPoint:       m.EntryPoint,
		Types:            types,
		Functions:        fns,
		Keywords:         lowerKeywords(m.Keywords),
		CustomErrorCodes: collectErrorCodes(fns), // §4.4.9
		UsesUnicode:      usesUnicode(fns),
	}, nil
}

// --- structural lowering -----------------------------------------------

func resolveTypes(decls []ast.TypeDecl) []TypeInfo {
	out := make([]TypeInfo, 0, len(decls))
	for _, td := range decls {
		out = append(out, TypeInfo{
			Name:       td.Name,
			Kind:       td.Kind,
			EmitsStart: td.Kind == ast.Bracket,
			EmitsEnd:   td.Kind == ast.Bracket,
			Line:       td.Line,
		})
	}
	return out
}

func typeIndex(types []TypeInfo) map[string]TypeInfo {
	idx := make(map[string]TypeInfo, len(types))
	for _, t := range types {
		idx[t.Name] = t
	}
	return idx
}

func setEmitsEvents(fn *Function, types map[string]TypeInfo) {
	t, ok := types[fn.ReturnType]
	if !ok {
		return // undeclared return type: the Validator warns, IR leaves this false
	}
	fn.EmitsEvents = t.Kind == ast.Bracket || t.Kind == ast.Content
}

func lowerFunction(af ast.Function) (Function, error) {
	paramTypes := make(map[string]ParamType, len(af.Params))
	for _, p := range af.Params {
		paramTypes[p] = TypeI32
	}

	entryActions, err := lowerCommands(af.EntryActions)
	if err != nil {
		return Function{}, err
	}
	eofHandler, err := lowerCommands(af.EOFHandler)
	if err != nil {
		return Function{}, err
	}
	states := make([]State, 0, len(af.States))
	for _, as := range af.States {
		st, err := lowerState(as)
		if err != nil {
			return Function{}, err
		}
		states = append(states, st)
	}

	params := af.Params
	if params == nil {
		params = []string{}
	}

	return Function{
		Name:          af.Name,
		ReturnType:    af.ReturnType,
		Params:        params,
		ParamTypes:    paramTypes,
		EntryActions:  entryActions,
		States:        states,
		EOFHandler:    eofHandler,
		HasEOFHandler: af.HasEOFHandler,
		Line:          af.Line,
	}, nil
}

func lowerState(as ast.State) (State, error) {
	cases := make([]Case, 0, len(as.Cases))
	for _, ac := range as.Cases {
		c, err := lowerCase(ac)
		if err != nil {
			return State{}, err
		}
		cases = append(cases, c)
	}
	eofHandler, err := lowerCommands(as.EOFHandler)
	if err != nil {
		return State{}, err
	}
	return State{
		Name:          as.Name,
		Cases:         cases,
		EOFHandler:    eofHandler,
		HasEOFHandler: as.HasEOFHandler,
		Line:          as.Line,
	}, nil
}

func lowerCase(ac ast.Case) (Case, error) {
	sel, err := lowerSelector(ac.Selector)
	if err != nil {
		return Case{}, err
	}
	cmds, err := lowerCommands(ac.Commands)
	if err != nil {
		return Case{}, err
	}
	return Case{
		Selector:     sel,
		Condition:    ac.Condition,
		IsDefault:    ac.IsDefault,
		IsBareAction: ac.IsBareAction,
		IsEOF:        ac.IsEOF,
		Substate:     ac.Substate,
		Commands:     cmds,
		Line:         ac.Line,
	}, nil
}

func lowerSelector(r *charclass.Result) (*CharSelector, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case charclass.KindSpecial:
		return &CharSelector{Special: r.SpecialClass}, nil
	case charclass.KindParam:
		return &CharSelector{ParamRef: r.ParamRef}, nil
	case charclass.KindEmpty:
		return &CharSelector{}, nil
	default:
		return &CharSelector{Bytes: r.SortedChars()}, nil
	}
}

func lowerCommands(acs []ast.Command) ([]Command, error) {
	out := make([]Command, 0, len(acs))
	for _, ac := range acs {
		c, err := lowerCommand(ac)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// lowerCommand is §4.4.2's command transformation: character-bearing
// command text is run through charclass now; everything else is a
// straight field copy. Call-argument resolution is deferred to
// rewriteCallArgs, which runs once every function's parameter types are
// final.
func lowerCommand(ac ast.Command) (Command, error) {
	c := Command{
		Kind:             ac.Kind,
		Line:             ac.Line,
		Name:             ac.Name,
		ArgsExpr:         ac.ArgsExpr,
		Var:              ac.Var,
		Expr:             ac.Expr,
		Literal:          ac.Literal,
		SuppressAutoEmit: ac.SuppressAutoEmit,
	}

	switch ac.Kind {
	case ast.CmdAdvanceTo:
		bytes, never, err := resolveBytes(ac.CharsExpr)
		if err != nil {
			return Command{}, parsegenerrors.NewValidationError(ac.Line, "advance_to[%s]: %s", ac.CharsExpr, err)
		}
		if len(bytes) > 6 {
			return Command{}, parsegenerrors.NewValidationError(ac.Line, "advance_to[%s]: %d bytes exceeds the 6-byte search limit", ac.CharsExpr, len(bytes))
		}
		c.Bytes = bytes
		c.Never = never

	case ast.CmdPrepend:
		bytes, never, err := resolveBytes(ac.CharsExpr)
		if err != nil {
			return Command{}, parsegenerrors.NewValidationError(ac.Line, "PREPEND(%s): %s", ac.CharsExpr, err)
		}
		c.Bytes = bytes
		c.Never = never

	case ast.CmdInlineEmitLiteral:
		bytes, never, err := resolveBytes(ac.Literal)
		if err != nil {
			return Command{}, parsegenerrors.NewValidationError(ac.Line, "emit(%s, %s): %s", ac.Name, ac.Literal, err)
		}
		c.EmitBytes = bytes
		c.EmitNever = never

	case ast.CmdConditional:
		clauses := make([]ConditionalClause, 0, len(ac.Clauses))
		for _, cl := range ac.Clauses {
			cmds, err := lowerCommands(cl.Commands)
			if err != nil {
				return Command{}, err
			}
			clauses = append(clauses, ConditionalClause{Condition: cl.Condition, Commands: cmds, Line: cl.Line})
		}
		c.Clauses = clauses
	}

	return c, nil
}

// resolveBytes parses a character-class expression and coerces it to an
// ordered byte sequence (advance_to / PREPEND / an inline-emit literal all
// need bytes, never a bare set). An unordered class (of any size), a
// special Unicode class, or a parameter reference are all rejected by
// Result.ToBytes itself.
func resolveBytes(expr string) ([]byte, bool, error) {
	r, err := charclass.Parse(expr)
	if err != nil {
		return nil, false, err
	}
	bytes, err := r.ToBytes()
	if err != nil {
		return nil, false, err
	}
	return bytes, r.Kind == charclass.KindEmpty, nil
}

func lowerKeywords(kbs []ast.KeywordBlock) []KeywordBlock {
	out := make([]KeywordBlock, 0, len(kbs))
	for _, kb := range kbs {
		mappings := make([]KeywordMapping, 0, len(kb.Mappings))
		for _, km := range kb.Mappings {
			mappings = append(mappings, KeywordMapping{Keyword: km.Keyword, EventType: km.EventType, Line: km.Line})
		}
		out = append(out, KeywordBlock{
			Name:         kb.Name,
			ConstName:    constNameFor(kb.Name),
			FallbackFunc: kb.FallbackFunc,
			FallbackArgs: kb.FallbackArgs,
			Mappings:     mappings,
			Line:         kb.Line,
		})
	}
	return out
}

// constNameFor derives a stable SCREAMING_SNAKE_CASE constant name from a
// keyword-block identifier, for the generator to use as a lookup-table name.
func constNameFor(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '-' || r == ' ' {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// --- generic command-list traversal -------------------------------------

// walkCommands visits every command in cmds, recursing into the Commands
// of every ConditionalClause a CmdConditional carries, at any depth.
func walkCommands(cmds []Command, visit func(*Command)) {
	for i := range cmds {
		cmd := &cmds[i]
		visit(cmd)
		for j := range cmd.Clauses {
			walkCommands(cmd.Clauses[j].Commands, visit)
		}
	}
}

// walkCommandsErr is walkCommands for a visitor that can fail.
func walkCommandsErr(cmds []Command, visit func(*Command) error) error {
	for i := range cmds {
		cmd := &cmds[i]
		if err := visit(cmd); err != nil {
			return err
		}
		for j := range cmd.Clauses {
			if err := walkCommandsErr(cmd.Clauses[j].Commands, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkConditions visits the Condition text of every ConditionalClause
// reachable from cmds, at any depth.
func walkConditions(cmds []Command, visit func(cond string)) {
	walkCommands(cmds, func(cmd *Command) {
		for _, cl := range cmd.Clauses {
			if cl.Condition != "" {
				visit(cl.Condition)
			}
		}
	})
}

func forEachFunctionCommandList(fn *Function, f func([]Command)) {
	f(fn.EntryActions)
	f(fn.EOFHandler)
	for i := range fn.States {
		for j := range fn.States[i].Cases {
			f(fn.States[i].Cases[j].Commands)
		}
	}
}

// --- §4.4.3-4 SCAN inference and newline injection ----------------------

// inferScan implements the spec's SCAN-state recognizer: a default case
// whose body is nothing but advance/self-transition commands, paired with
// a small (<=6), non-empty set of literal bytes drawn from the state's
// other unconditional cases, marks the state as scannable.
func inferScan(st *State) {
	var def *Case
	for i := range st.Cases {
		if st.Cases[i].IsDefault {
			def = &st.Cases[i]
			break
		}
	}
	if def == nil || len(def.Commands) == 0 {
		return
	}
	for _, cmd := range def.Commands {
		if cmd.Kind == ast.CmdAdvance {
			continue
		}
		if cmd.Kind == ast.CmdTransition && cmd.Name == "" {
			continue
		}
		return
	}

	byteSet := map[byte]bool{}
	for _, c := range st.Cases {
		if c.IsDefault || c.Condition != "" || c.IsBareAction || c.IsEOF {
			continue
		}
		if c.Selector == nil || c.Selector.Special != "" || c.Selector.ParamRef != "" {
			continue
		}
		for _, b := range c.Selector.Bytes {
			byteSet[b] = true
		}
	}
	if len(byteSet) == 0 || len(byteSet) > 6 {
		return
	}

	out := make([]byte, 0, len(byteSet))
	for b := range byteSet {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	st.ScanChars = out
}

// injectNewline adds '\n' to a scan state's byte set when it's absent and
// there's still room under the 6-entry cap (spec §4.4.4): a scanner that
// skips past a line boundary without noticing it would desynchronize line
// tracking for every token after it.
func injectNewline(st *State) {
	if len(st.ScanChars) == 0 || len(st.ScanChars) >= 6 {
		return
	}
	for _, b := range st.ScanChars {
		if b == '\n' {
			return
		}
	}
	st.ScanChars = append([]byte{'\n'}, st.ScanChars...)
	st.NewlineInjected = true
}

// --- §4.4.5 expects_char / unclosed-EOF inference -----------------------

// inferExpectsChar finds the function's expects_char byte: if every case
// across every state that executes return also selects exactly one,
// identical, literal byte, that byte is what the function was waiting to
// see before returning. If any such case TERMs before returning, the
// function also emits content when the input closes before that byte
// arrives.
func inferExpectsChar(fn *Function) {
	var bytes []byte
	anyReturn := false
	allQualify := true
	sawTermBeforeReturn := false

	for _, st := range fn.States {
		for _, c := range st.Cases {
			hasReturn := false
			termBeforeReturn := false
			sawTerm := false
			for _, cmd := range c.Commands {
				if cmd.Kind == ast.CmdTerm {
					sawTerm = true
				}
				if cmd.Kind == ast.CmdReturn {
					hasReturn = true
					termBeforeReturn = sawTerm
					break
				}
			}
			if !hasReturn {
				continue
			}
			anyReturn = true
			if c.Selector == nil || c.Selector.Special != "" || c.Selector.ParamRef != "" || len(c.Selector.Bytes) != 1 {
				allQualify = false
				continue
			}
			bytes = append(bytes, c.Selector.Bytes[0])
			if termBeforeReturn {
				sawTermBeforeReturn = true
			}
		}
	}

	if !anyReturn || !allQualify || len(bytes) == 0 {
		return
	}
	first := bytes[0]
	for _, b := range bytes[1:] {
		if b != first {
			return
		}
	}
	fn.ExpectsChar = first
	fn.HasExpectsChar = true
	fn.EmitsContentOnClose = sawTermBeforeReturn
}

// --- §4.4.6 parameter-type fix-point inference --------------------------

func applyParamTypeInference(fns []Function, idx map[string]int) {
	for i := range fns {
		applyDirectParamSignals(&fns[i])
	}
	for i := range fns {
		applyEmptyClassCallSignals(&fns[i], fns, idx)
	}
	for changed := true; changed; {
		changed = false
		for i := range fns {
			if propagateFromCallees(&fns[i], fns, idx) {
				changed = true
			}
		}
	}
}

// promoteParam raises name's type toward t, never lowering it; it's a
// no-op for a name that isn't a declared parameter of fn (an undeclared
// reference is the Validator's concern, not the builder's).
func promoteParam(fn *Function, name string, t ParamType) {
	if name == "" {
		return
	}
	if cur, ok := fn.ParamTypes[name]; ok && cur == TypeI32 {
		fn.ParamTypes[name] = t
	}
}

// applyDirectParamSignals raises a function's own parameter types from
// evidence local to that function: a case selector of `:param` form makes
// it a byte; a condition comparing a param against a quoted char literal
// makes it a byte; PREPEND(:param) makes it bytes.
func applyDirectParamSignals(fn *Function) {
	for _, st := range fn.States {
		for _, c := range st.Cases {
			if c.Selector != nil && c.Selector.ParamRef != "" {
				promoteParam(fn, c.Selector.ParamRef, TypeByte)
			}
			if c.Condition != "" {
				applyConditionSignal(fn, c.Condition)
			}
		}
	}
	walkConditions(fn.EntryActions, func(cond string) { applyConditionSignal(fn, cond) })
	walkConditions(fn.EOFHandler, func(cond string) { applyConditionSignal(fn, cond) })

	promote := func(cmd *Command) {
		if cmd.Kind == ast.CmdPrependParam {
			promoteParam(fn, cmd.Name, TypeBytes)
		}
	}
	forEachFunctionCommandList(fn, func(cmds []Command) { walkCommands(cmds, promote) })
}

func applyConditionSignal(fn *Function, cond string) {
	for _, p := range fn.Params {
		if conditionComparesToCharLiteral(cond, p) {
			promoteParam(fn, p, TypeByte)
		}
	}
}

// conditionComparesToCharLiteral reports whether cond is (modulo
// whitespace) `<param> == '<c>'` or `'<c>' == <param>` — the one
// condition shape the spec ties to byte-typing a parameter. It
// deliberately does not match `<param> == 0`: that's the numeric flag
// test the spec calls out as a separate, non-char-typing idiom.
func conditionComparesToCharLiteral(cond, param string) bool {
	parts := strings.SplitN(cond, "==", 2)
	if len(parts) != 2 {
		return false
	}
	lhs := strings.TrimSpace(parts[0])
	rhs := strings.TrimSpace(parts[1])
	if lhs == param && isQuotedCharLiteral(rhs) {
		return true
	}
	if rhs == param && isQuotedCharLiteral(lhs) {
		return true
	}
	return false
}

func isQuotedCharLiteral(s string) bool {
	return len(s) == 3 && s[0] == '\'' && s[2] == '\''
}

// applyEmptyClassCallSignals finds every call this function makes that
// passes the empty class <> as an argument, and types the callee's
// corresponding parameter bytes (an empty-class argument only makes sense
// against a bytes-typed parameter's never-match sentinel).
func applyEmptyClassCallSignals(fn *Function, fns []Function, idx map[string]int) {
	visit := func(cmd *Command) {
		if cmd.Kind != ast.CmdCall {
			return
		}
		calleeIdx, ok := idx[cmd.Name]
		if !ok {
			return
		}
		callee := &fns[calleeIdx]
		args, err := charclass.SplitArgs(cmd.ArgsExpr)
		if err != nil {
			return
		}
		for i, a := range args {
			if i >= len(callee.Params) {
				break
			}
			if strings.TrimSpace(a) == "<>" {
				promoteParam(callee, callee.Params[i], TypeBytes)
			}
		}
	}
	forEachFunctionCommandList(fn, func(cmds []Command) { walkCommands(cmds, visit) })
}

// propagateFromCallees raises fn's own parameter types when fn passes one
// of its parameters straight through (`:x`) to a callee whose matching
// parameter is already known to be byte or bytes. Reports whether it
// changed anything, so the fix-point loop knows to run another round.
func propagateFromCallees(fn *Function, fns []Function, idx map[string]int) bool {
	changed := false
	visit := func(cmd *Command) {
		if cmd.Kind != ast.CmdCall {
			return
		}
		calleeIdx, ok := idx[cmd.Name]
		if !ok {
			return
		}
		callee := fns[calleeIdx]
		args, err := charclass.SplitArgs(cmd.ArgsExpr)
		if err != nil {
			return
		}
		for i, a := range args {
			a = strings.TrimSpace(a)
			if !strings.HasPrefix(a, ":") || i >= len(callee.Params) {
				continue
			}
			calleeType := callee.ParamTypes[callee.Params[i]]
			if calleeType == TypeI32 {
				continue
			}
			callerParam := a[1:]
			if cur, ok := fn.ParamTypes[callerParam]; ok && cur == TypeI32 {
				fn.ParamTypes[callerParam] = calleeType
				changed = true
			}
		}
	}
	forEachFunctionCommandList(fn, func(cmds []Command) { walkCommands(cmds, visit) })
	return changed
}

// --- §4.4.7 local-variable inference ------------------------------------

// inferLocals collects every distinct variable a function ever assigns
// to, in first-appearance order, and hoists a literal-integer initializer
// off the first entry-action assignment to each one.
func inferLocals(fn *Function) {
	seen := map[string]bool{}
	collect := func(cmd *Command) {
		switch cmd.Kind {
		case ast.CmdAssign, ast.CmdAddAssign, ast.CmdSubAssign:
			if cmd.Var != "" && !seen[cmd.Var] {
				seen[cmd.Var] = true
				fn.Locals = append(fn.Locals, cmd.Var)
			}
		}
	}
	forEachFunctionCommandList(fn, func(cmds []Command) { walkCommands(cmds, collect) })

	fn.LocalInitValues = map[string]string{}
	initSeen := map[string]bool{}
	walkCommands(fn.EntryActions, func(cmd *Command) {
		if cmd.Kind == ast.CmdAssign && cmd.Var != "" && !initSeen[cmd.Var] {
			initSeen[cmd.Var] = true
			if isLiteralInt(cmd.Expr) {
				fn.LocalInitValues[cmd.Var] = cmd.Expr
			}
		}
	})
}

func isLiteralInt(s string) bool {
	s = strings.TrimSpace(s)
	start := 0
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		start = 1
	}
	if start >= len(s) {
		return false
	}
	for i := start; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// --- prepend-value collection -------------------------------------------

// collectPrependValues implements §3's prepend_values: param → set<byte>.
// A function's own PREPEND(param) sites only name *which* parameters are
// PREPENDed; the literal values are observed at the call sites of every
// caller that passes a literal argument into that parameter position.
// This must run once every function is lowered, since it reads across
// function boundaries.
func collectPrependValues(fns []Function, idx map[string]int) {
	prependParams := make([]map[string]bool, len(fns))
	for i := range fns {
		prependParams[i] = findPrependParams(&fns[i])
	}

	seen := make([]map[string]map[string]bool, len(fns))
	for i := range seen {
		seen[i] = map[string]map[string]bool{}
	}

	visit := func(cmd *Command) {
		if cmd.Kind != ast.CmdCall {
			return
		}
		calleeIdx, ok := idx[cmd.Name]
		if !ok {
			return
		}
		if len(prependParams[calleeIdx]) == 0 {
			return
		}
		callee := &fns[calleeIdx]
		args, err := charclass.SplitArgs(cmd.ArgsExpr)
		if err != nil {
			return
		}
		for i, raw := range args {
			if i >= len(callee.Params) {
				break
			}
			param := callee.Params[i]
			if !prependParams[calleeIdx][param] {
				continue
			}
			bytes, never, err := resolveBytes(strings.TrimSpace(raw))
			if err != nil || never || len(bytes) == 0 {
				continue
			}
			key := string(bytes)
			if seen[calleeIdx][param] == nil {
				seen[calleeIdx][param] = map[string]bool{}
			}
			if seen[calleeIdx][param][key] {
				continue
			}
			seen[calleeIdx][param][key] = true
			appendPrependValue(callee, param, bytes)
		}
	}

	for i := range fns {
		forEachFunctionCommandList(&fns[i], func(cmds []Command) { walkCommands(cmds, visit) })
	}
}

// findPrependParams returns the set of fn's own parameter names that a
// PREPEND(param) command inside fn's body ever references.
func findPrependParams(fn *Function) map[string]bool {
	out := map[string]bool{}
	forEachFunctionCommandList(fn, func(cmds []Command) {
		walkCommands(cmds, func(cmd *Command) {
			if cmd.Kind == ast.CmdPrependParam && cmd.Name != "" {
				out[cmd.Name] = true
			}
		})
	})
	return out
}

func appendPrependValue(fn *Function, param string, bytes []byte) {
	for i := range fn.PrependValues {
		if fn.PrependValues[i].Param == param {
			fn.PrependValues[i].Bytes = append(fn.PrependValues[i].Bytes, bytes)
			return
		}
	}
	fn.PrependValues = append(fn.PrependValues, PrependParamValues{Param: param, Bytes: [][]byte{bytes}})
}

// --- §4.4.8 inline-emit/return fix-up ------------------------------------

// fixupInlineEmitReturn marks the return that follows an inline emit
// within the same command list as suppress_auto_emit: the event has
// already gone out, so the generator's default auto-emit-on-return must
// not fire a second time.
func fixupInlineEmitReturn(fn *Function) {
	applyInlineEmitFixup(fn.EntryActions)
	applyInlineEmitFixup(fn.EOFHandler)
	for i := range fn.States {
		for j := range fn.States[i].Cases {
			applyInlineEmitFixup(fn.States[i].Cases[j].Commands)
		}
	}
}

func applyInlineEmitFixup(cmds []Command) {
	sawEmit := false
	for i := range cmds {
		cmd := &cmds[i]
		switch cmd.Kind {
		case ast.CmdInlineEmitBare, ast.CmdInlineEmitMark, ast.CmdInlineEmitLiteral:
			sawEmit = true
		case ast.CmdReturn:
			if sawEmit {
				cmd.SuppressAutoEmit = true
				sawEmit = false
			}
		case ast.CmdConditional:
			for j := range cmd.Clauses {
				applyInlineEmitFixup(cmd.Clauses[j].Commands)
			}
		}
	}
}

// --- §4.4.9 custom error codes -------------------------------------------

func collectErrorCodes(fns []Function) []string {
	set := map[string]bool{}
	collect := func(cmd *Command) {
		if cmd.Kind == ast.CmdError && cmd.Name != "" {
			set[cmd.Name] = true
		}
	}
	for i := range fns {
		forEachFunctionCommandList(&fns[i], func(cmds []Command) { walkCommands(cmds, collect) })
		// §4.4.5: a function with HasExpectsChar set renders an implicit
		// "unclosed" error on EOF even though no /error(code) command
		// names one, so the enum needs a variant for it too.
		if fns[i].HasExpectsChar && fns[i].ReturnType != "" {
			set["Unclosed"+fns[i].ReturnType] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// --- §4.4.10 call-argument rewriting -------------------------------------

// rewriteCallArgs re-parses every call's raw argument text now that every
// function's parameter types are final, producing the typed Args the
// generator renders directly.
func rewriteCallArgs(fns []Function, idx map[string]int) error {
	rewrite := func(cmd *Command) error {
		if cmd.Kind != ast.CmdCall {
			return nil
		}
		calleeIdx, ok := idx[cmd.Name]
		if !ok {
			return nil // undeclared callee: the Validator reports this
		}
		callee := fns[calleeIdx]
		rawArgs, err := charclass.SplitArgs(cmd.ArgsExpr)
		if err != nil {
			return parsegenerrors.NewValidationError(cmd.Line, "/%s(%s): %s", cmd.Name, cmd.ArgsExpr, err)
		}
		args := make([]Arg, 0, len(rawArgs))
		for i, raw := range rawArgs {
			raw = strings.TrimSpace(raw)
			pt := TypeI32
			if i < len(callee.Params) {
				pt = callee.ParamTypes[callee.Params[i]]
			}
			a, err := resolveCallArg(raw, pt)
			if err != nil {
				return parsegenerrors.NewValidationError(cmd.Line, "/%s(%s): %s", cmd.Name, cmd.ArgsExpr, err)
			}
			args = append(args, a)
		}
		cmd.Args = args
		return nil
	}
	for i := range fns {
		if err := forEachFunctionCommandListErr(&fns[i], func(cmds []Command) error { return walkCommandsErr(cmds, rewrite) }); err != nil {
			return err
		}
	}
	return nil
}

func forEachFunctionCommandListErr(fn *Function, f func([]Command) error) error {
	if err := f(fn.EntryActions); err != nil {
		return err
	}
	if err := f(fn.EOFHandler); err != nil {
		return err
	}
	for i := range fn.States {
		for j := range fn.States[i].Cases {
			if err := f(fn.States[i].Cases[j].Commands); err != nil {
				return err
			}
		}
	}
	return nil
}

// builtinArgNames are the call-site pseudo-variables the language exposes
// that never pass through charclass — they aren't character-class text at
// all, just i32-valued intrinsics the generator expands directly.
var builtinArgNames = map[string]bool{"COL": true, "LINE": true, "PREV": true}

func resolveCallArg(raw string, pt ParamType) (Arg, error) {
	if strings.HasPrefix(raw, ":") {
		return Arg{Raw: raw, ParamType: pt, IsParamRef: true, Name: raw[1:]}, nil
	}
	if builtinArgNames[raw] {
		return Arg{Raw: raw, ParamType: pt, IsInt: true}, nil
	}
	if isLiteralInt(raw) {
		switch pt {
		case TypeBytes:
			if raw == "0" {
				return Arg{Raw: raw, ParamType: pt, Bytes: []byte{}, Never: true}, nil
			}
		case TypeByte:
			if raw == "0" {
				return Arg{Raw: raw, ParamType: pt, Bytes: []byte{0}, Never: true}, nil
			}
		}
		return Arg{Raw: raw, ParamType: pt, IsInt: true}, nil
	}
	if pt == TypeI32 {
		// An i32 parameter never receives character-class text; treat
		// anything else (an expression, a builtin we don't know about yet)
		// as opaque and let the generator's rust_expr filter expand it.
		return Arg{Raw: raw, ParamType: pt, IsInt: true}, nil
	}

	r, err := charclass.Parse(raw)
	if err != nil {
		return Arg{}, err
	}
	if r.Kind == charclass.KindParam {
		return Arg{Raw: raw, ParamType: pt, IsParamRef: true, Name: r.ParamRef}, nil
	}
	var bytes []byte
	var never bool
	if pt == TypeByte {
		b, nv, err := r.ToByte()
		if err != nil {
			return Arg{}, err
		}
		bytes, never = []byte{b}, nv
	} else {
		bs, err := r.ToBytes()
		if err != nil {
			return Arg{}, err
		}
		bytes, never = bs, r.Kind == charclass.KindEmpty
	}
	return Arg{Raw: raw, ParamType: pt, Bytes: bytes, Never: never}, nil
}

// --- unicode-usage flag --------------------------------------------------

func usesUnicode(fns []Function) bool {
	for _, fn := range fns {
		for _, st := range fn.States {
			for _, c := range st.Cases {
				if c.Selector != nil && c.Selector.Special != "" {
					return true
				}
			}
		}
	}
	return false
}
