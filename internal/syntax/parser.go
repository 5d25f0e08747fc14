package syntax

// Parse runs the recursive-descent parser over src and always returns a
// usable Tree: malformed input produces ERROR nodes in place of whatever
// production failed to match, plus a Diagnostic, rather than failing the
// parse outright (spec §4.5).
//
// Layout (the columns that delimit let-bindings and case-branches) is
// resolved inline by comparing token columns as the parser goes, rather
// than as a separate token-stream pass — a simplified offside rule: a
// top-level declaration always starts at column 0, and a let/case block's
// members must all start at the column of the block's first member.
func Parse(src []byte) *Tree {
	p := &parser{src: src, lex: newLexer(src)}
	p.advance()
	p.advance()
	t := &Tree{Source: src}

	var children []*Node
	for p.cur.kind != tokEOF {
		children = append(children, p.parseTopLevelDecl())
	}
	root := &Node{Kind: KindFile, Start: 0, End: len(src)}
	root.StartPos = Position{0, 0}
	root.EndPos = p.cur.startPos
	root.Text = string(src)
	wireChildren(root, children)
	t.Root = root
	t.Diagnostics = p.diags
	return t
}

type parser struct {
	src   []byte
	lex   *lexer
	cur   token
	nxt   token
	diags []Diagnostic
	floor int // column a continuation token must exceed; set by enclosing let/case blocks
}

func (p *parser) advance() {
	p.cur = p.nxt
	p.nxt = p.lex.next()
}

func (p *parser) errorf(msg string) {
	p.diags = append(p.diags, Diagnostic{Message: msg, Pos: p.cur.startPos})
}

func wireChildren(n *Node, children []*Node) {
	n.Children = children
	for i, c := range children {
		c.Parent = n
		if i > 0 {
			c.PrevSibling = children[i-1]
			children[i-1].NextSibling = c
		}
	}
}

func leaf(k Kind, t token) *Node {
	return &Node{Kind: k, Start: t.start, End: t.end, StartPos: t.startPos, EndPos: t.endPos, Text: t.text}
}

// build assembles an interior node spanning from startTok to the given
// endPos/endOffset, with children wired as its structural contents.
// startTok may precede the first child (a leading keyword); the end is
// usually the last child's end but may lie past it (e.g. a closing paren
// that is not itself a child).
func (p *parser) build(kind Kind, startTok token, endPos Position, endOffset int, children []*Node) *Node {
	n := &Node{Kind: kind, Start: startTok.start, End: endOffset, StartPos: startTok.startPos, EndPos: endPos}
	n.Text = string(p.src[n.Start:n.End])
	wireChildren(n, children)
	return n
}

func (p *parser) errorNode() *Node {
	t := p.cur
	p.errorf("unexpected token " + t.text)
	n := leaf(KindError, t)
	if t.kind != tokEOF {
		p.advance()
	}
	return n
}

// ---- top level ----

func (p *parser) parseTopLevelDecl() *Node {
	switch {
	case p.cur.kind == tokKeyword && p.cur.text == "module":
		return p.parseModuleDecl()
	case p.cur.kind == tokKeyword && p.cur.text == "import":
		return p.parseImportClause()
	case p.cur.kind == tokKeyword && p.cur.text == "type":
		if p.nxt.kind == tokKeyword && p.nxt.text == "alias" {
			return p.parseTypeAlias()
		}
		return p.parseUnionType()
	case p.cur.kind == tokKeyword && p.cur.text == "port":
		return p.parsePort()
	case p.cur.kind == tokKeyword && p.cur.text == "infix":
		return p.parseInfixDecl()
	case p.cur.kind == tokLowerIdent:
		return p.parseAnnotationOrValueDecl()
	case p.cur.kind == tokLParen && p.nxt.kind == tokOperator:
		return p.parseOperatorValueDecl()
	default:
		return p.errorNode()
	}
}

func (p *parser) parseModuleNamePath() *Node {
	var parts []*Node
	start := p.cur
	for p.cur.kind == tokUpperIdent {
		parts = append(parts, leaf(KindUpperIdent, p.cur))
		p.advance()
		if p.cur.kind == tokDot {
			p.advance()
			continue
		}
		break
	}
	if len(parts) == 0 {
		return p.errorNode()
	}
	last := parts[len(parts)-1]
	return p.build(KindModuleName, start, last.EndPos, last.End, parts)
}

func (p *parser) parseModuleDecl() *Node {
	start := p.cur
	p.advance() // "module"
	name := p.parseModuleNamePath()
	children := []*Node{name}
	if p.cur.kind == tokKeyword && p.cur.text == "exposing" {
		p.advance()
		if p.cur.kind == tokLParen {
			p.advance()
			list := p.parseExposingList()
			children = append(children, list)
			if p.cur.kind == tokRParen {
				p.advance()
			}
		}
	}
	last := children[len(children)-1]
	return p.build(KindModuleDecl, start, last.EndPos, last.End, children)
}

func (p *parser) parseExposingList() *Node {
	start := p.cur
	var items []*Node
	if p.cur.kind == tokDotDot {
		items = append(items, leaf(KindExposingAll, p.cur))
		p.advance()
	} else {
		for p.cur.kind != tokRParen && p.cur.kind != tokEOF {
			items = append(items, p.parseExposedItem())
			if p.cur.kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	endPos, endOff := start.startPos, start.start
	if len(items) > 0 {
		last := items[len(items)-1]
		endPos, endOff = last.EndPos, last.End
	}
	return p.build(KindExposingList, start, endPos, endOff, items)
}

func (p *parser) parseExposedItem() *Node {
	switch {
	case p.cur.kind == tokLowerIdent:
		n := leaf(KindExposedValue, p.cur)
		p.advance()
		return n
	case p.cur.kind == tokLParen && p.nxt.kind == tokOperator:
		start := p.cur
		p.advance()
		opLeaf := leaf(KindOperatorRef, p.cur)
		p.advance()
		endTok := p.cur
		if p.cur.kind == tokRParen {
			p.advance()
		}
		return p.build(KindExposedOperator, start, endTok.endPos, endTok.end, []*Node{opLeaf})
	case p.cur.kind == tokUpperIdent:
		nameTok := p.cur
		p.advance()
		if p.cur.kind != tokLParen {
			return leaf(KindExposedType, nameTok)
		}
		start := nameTok
		p.advance() // "("
		nameLeaf := leaf(KindUpperIdent, nameTok)
		if p.cur.kind == tokDotDot {
			p.advance()
			endTok := p.cur
			if p.cur.kind == tokRParen {
				p.advance()
			}
			return p.build(KindExposedTypeAll, start, endTok.endPos, endTok.end, []*Node{nameLeaf})
		}
		children := []*Node{nameLeaf}
		for p.cur.kind == tokUpperIdent {
			children = append(children, leaf(KindUpperIdent, p.cur))
			p.advance()
			if p.cur.kind == tokComma {
				p.advance()
				continue
			}
			break
		}
		endTok := p.cur
		if p.cur.kind == tokRParen {
			p.advance()
		}
		return p.build(KindExposedTypeSome, start, endTok.endPos, endTok.end, children)
	default:
		return p.errorNode()
	}
}

func (p *parser) parseImportClause() *Node {
	start := p.cur
	p.advance() // "import"
	name := p.parseModuleNamePath()
	children := []*Node{name}
	if p.cur.kind == tokKeyword && p.cur.text == "as" {
		p.advance()
		if p.cur.kind == tokUpperIdent {
			children = append(children, leaf(KindImportAlias, p.cur))
			p.advance()
		}
	}
	if p.cur.kind == tokKeyword && p.cur.text == "exposing" {
		p.advance()
		if p.cur.kind == tokLParen {
			p.advance()
			list := p.parseExposingList()
			children = append(children, list)
			if p.cur.kind == tokRParen {
				p.advance()
			}
		}
	}
	last := children[len(children)-1]
	return p.build(KindImportClause, start, last.EndPos, last.End, children)
}

func (p *parser) parseTypeAlias() *Node {
	start := p.cur
	p.advance() // "type"
	p.advance() // "alias"
	if p.cur.kind != tokUpperIdent {
		return p.errorNode()
	}
	nameLeaf := leaf(KindUpperIdent, p.cur)
	p.advance()
	children := []*Node{nameLeaf}
	for p.cur.kind == tokLowerIdent {
		children = append(children, leaf(KindTypeVar, p.cur))
		p.advance()
	}
	if p.cur.kind == tokEquals {
		p.advance()
	}
	typeExpr := p.parseTypeExpr()
	children = append(children, typeExpr)
	last := children[len(children)-1]
	return p.build(KindTypeAlias, start, last.EndPos, last.End, children)
}

func (p *parser) parseUnionType() *Node {
	start := p.cur
	p.advance() // "type"
	if p.cur.kind != tokUpperIdent {
		return p.errorNode()
	}
	nameLeaf := leaf(KindUpperIdent, p.cur)
	p.advance()
	children := []*Node{nameLeaf}
	for p.cur.kind == tokLowerIdent {
		children = append(children, leaf(KindTypeVar, p.cur))
		p.advance()
	}
	if p.cur.kind == tokEquals {
		p.advance()
	}
	children = append(children, p.parseUnionVariant())
	for p.cur.kind == tokPipe {
		p.advance()
		children = append(children, p.parseUnionVariant())
	}
	last := children[len(children)-1]
	return p.build(KindUnionType, start, last.EndPos, last.End, children)
}

func (p *parser) parseUnionVariant() *Node {
	if p.cur.kind != tokUpperIdent {
		return p.errorNode()
	}
	start := p.cur
	nameLeaf := leaf(KindUpperIdent, p.cur)
	p.advance()
	children := []*Node{nameLeaf}
	for canStartTypeAtom(p.cur) && p.continues(start, p.cur) {
		children = append(children, p.parseTypeAtom())
	}
	last := children[len(children)-1]
	return p.build(KindUnionVariant, start, last.EndPos, last.End, children)
}

func (p *parser) parsePort() *Node {
	start := p.cur
	p.advance() // "port"
	if p.cur.kind != tokLowerIdent {
		return p.errorNode()
	}
	nameLeaf := leaf(KindLowerIdent, p.cur)
	p.advance()
	children := []*Node{nameLeaf}
	if p.cur.kind == tokColon {
		p.advance()
		children = append(children, p.parseTypeExpr())
	}
	last := children[len(children)-1]
	return p.build(KindPort, start, last.EndPos, last.End, children)
}

func (p *parser) parseInfixDecl() *Node {
	start := p.cur
	p.advance() // "infix"
	if p.cur.kind == tokKeyword && (p.cur.text == "left" || p.cur.text == "right" || p.cur.text == "non") {
		p.advance()
	}
	if p.cur.kind == tokInt {
		p.advance()
	}
	var children []*Node
	if p.cur.kind == tokLParen {
		p.advance()
		if p.cur.kind == tokOperator {
			children = append(children, leaf(KindOperatorRef, p.cur))
			p.advance()
		}
		if p.cur.kind == tokRParen {
			p.advance()
		}
	}
	if p.cur.kind == tokEquals {
		p.advance()
	}
	if p.cur.kind == tokLowerIdent {
		children = append(children, leaf(KindLowerIdent, p.cur))
		p.advance()
	}
	if len(children) == 0 {
		return p.errorNode()
	}
	last := children[len(children)-1]
	return p.build(KindInfixDecl, start, last.EndPos, last.End, children)
}

// parseAnnotationOrValueDecl distinguishes `name : Type` from
// `name param* = expr` by whether a colon follows the leading identifier.
func (p *parser) parseAnnotationOrValueDecl() *Node {
	start := p.cur
	if p.nxt.kind == tokColon {
		nameLeaf := leaf(KindLowerIdent, p.cur)
		p.advance()
		p.advance() // ":"
		typeExpr := p.parseTypeExpr()
		children := []*Node{nameLeaf, typeExpr}
		return p.build(KindTypeAnnotation, start, typeExpr.EndPos, typeExpr.End, children)
	}
	nameLeaf := leaf(KindLowerIdent, p.cur)
	p.advance()
	return p.parseValueDeclBody(start, nameLeaf)
}

func (p *parser) parseOperatorValueDecl() *Node {
	start := p.cur
	p.advance() // "("
	opLeaf := leaf(KindOperatorRef, p.cur)
	p.advance()
	if p.cur.kind == tokRParen {
		p.advance()
	}
	return p.parseValueDeclBody(start, opLeaf)
}

func (p *parser) parseValueDeclBody(start token, nameLeaf *Node) *Node {
	children := []*Node{nameLeaf}
	for canStartParam(p.cur) && p.continues(start, p.cur) {
		children = append(children, p.parseFunctionParameter())
	}
	if p.cur.kind == tokEquals {
		p.advance()
	}
	body := p.parseExpr()
	children = append(children, body)
	last := children[len(children)-1]
	return p.build(KindValueDecl, start, last.EndPos, last.End, children)
}

func (p *parser) parseFunctionParameter() *Node {
	switch p.cur.kind {
	case tokLowerIdent:
		n := leaf(KindFunctionParameter, p.cur)
		p.advance()
		return n
	case tokUnderscore:
		n := leaf(KindWildcardParameter, p.cur)
		p.advance()
		return n
	case tokLParen:
		start := p.cur
		p.advance()
		depth := 1
		for depth > 0 && p.cur.kind != tokEOF {
			if p.cur.kind == tokLParen {
				depth++
			} else if p.cur.kind == tokRParen {
				depth--
				if depth == 0 {
					endTok := p.cur
					p.advance()
					return p.build(KindFunctionParameter, start, endTok.endPos, endTok.end, nil)
				}
			}
			p.advance()
		}
		return p.build(KindFunctionParameter, start, start.endPos, start.end, nil)
	default:
		return p.errorNode()
	}
}

func canStartParam(t token) bool {
	return t.kind == tokLowerIdent || t.kind == tokUnderscore || t.kind == tokLParen
}

// continues is the offside-rule check: a continuation token belongs to the
// statement started at `start` if it sits on the same source line, or is
// indented past the current layout floor. The floor is 0 at the top level
// and is raised to a let-block's binding column or a case-block's branch
// column while parsing inside one, so a sibling binding or branch (at
// exactly that column) ends the statement instead of being swallowed as a
// continuation.
func (p *parser) continues(start, t token) bool {
	return t.startPos.Row == start.startPos.Row || t.startPos.Column > p.floor
}

// ---- type expressions ----

func canStartTypeAtom(t token) bool {
	return t.kind == tokUpperIdent || t.kind == tokLowerIdent || t.kind == tokLParen || t.kind == tokLBrace
}

func (p *parser) parseTypeExpr() *Node {
	start := p.cur
	atom := p.parseTypeAtom()
	children := []*Node{atom}
	for p.cur.kind == tokArrow && p.continues(start, p.cur) {
		p.advance()
		children = append(children, p.parseTypeAtom())
	}
	if len(children) == 1 {
		return atom
	}
	last := children[len(children)-1]
	return p.build(KindTypeExpr, start, last.EndPos, last.End, children)
}

func (p *parser) parseTypeAtom() *Node {
	switch p.cur.kind {
	case tokUpperIdent:
		start := p.cur
		nameLeaf := leaf(KindUpperIdent, p.cur)
		p.advance()
		children := []*Node{nameLeaf}
		for p.cur.kind == tokDot && p.nxt.kind == tokUpperIdent {
			p.advance()
			children = append(children, leaf(KindUpperIdent, p.cur))
			p.advance()
		}
		for canStartTypeAtom(p.cur) && p.continues(start, p.cur) && p.cur.kind != tokLBrace {
			children = append(children, p.parseTypeAtomArg())
		}
		if len(children) == 1 {
			return nameLeaf
		}
		last := children[len(children)-1]
		return p.build(KindTypeExpr, start, last.EndPos, last.End, children)
	case tokLowerIdent:
		n := leaf(KindTypeVar, p.cur)
		p.advance()
		return n
	case tokLParen:
		start := p.cur
		p.advance()
		if p.cur.kind == tokRParen {
			endTok := p.cur
			p.advance()
			return p.build(KindTypeExpr, start, endTok.endPos, endTok.end, nil)
		}
		first := p.parseTypeExpr()
		children := []*Node{first}
		for p.cur.kind == tokComma {
			p.advance()
			children = append(children, p.parseTypeExpr())
		}
		endTok := p.cur
		if p.cur.kind == tokRParen {
			p.advance()
		}
		if len(children) == 1 {
			return first
		}
		return p.build(KindTypeExpr, start, endTok.endPos, endTok.end, children)
	case tokLBrace:
		start := p.cur
		p.advance()
		var fields []*Node
		for p.cur.kind == tokLowerIdent {
			fieldStart := p.cur
			nameLeaf := leaf(KindLowerIdent, p.cur)
			p.advance()
			if p.cur.kind == tokColon {
				p.advance()
			}
			fieldType := p.parseTypeExpr()
			field := p.build(KindRecordField, fieldStart, fieldType.EndPos, fieldType.End, []*Node{nameLeaf, fieldType})
			fields = append(fields, field)
			if p.cur.kind == tokComma {
				p.advance()
				continue
			}
			break
		}
		endTok := p.cur
		if p.cur.kind == tokRBrace {
			p.advance()
		}
		return p.build(KindRecordTypeExpr, start, endTok.endPos, endTok.end, fields)
	default:
		return p.errorNode()
	}
}

// parseTypeAtomArg parses one argument of a type application, disallowing
// a further nested application of an unparenthesized constructor (so
// `Maybe Int` is one application, not ambiguous with its argument's own
// arguments).
func (p *parser) parseTypeAtomArg() *Node {
	switch p.cur.kind {
	case tokUpperIdent:
		n := leaf(KindUpperIdent, p.cur)
		p.advance()
		return n
	default:
		return p.parseTypeAtom()
	}
}

// ---- expressions ----

func canStartExprAtom(t token) bool {
	switch t.kind {
	case tokLowerIdent, tokUpperIdent, tokInt, tokFloat, tokString, tokLParen, tokLBracket, tokLBrace, tokBackslash:
		return true
	}
	if t.kind == tokKeyword && (t.text == "if" || t.text == "let" || t.text == "case") {
		return true
	}
	return false
}

func (p *parser) parseExpr() *Node {
	return p.parseBinOpExpr()
}

func (p *parser) parseBinOpExpr() *Node {
	start := p.cur
	left := p.parseApplication()
	children := []*Node{left}
	for p.cur.kind == tokOperator && p.continues(start, p.cur) {
		children = append(children, leaf(KindOperatorRef, p.cur))
		p.advance()
		children = append(children, p.parseApplication())
	}
	if len(children) == 1 {
		return left
	}
	last := children[len(children)-1]
	return p.build(KindBinOpExpr, start, last.EndPos, last.End, children)
}

func (p *parser) parseApplication() *Node {
	start := p.cur
	head := p.parsePrimary()
	children := []*Node{head}
	for canStartExprAtom(p.cur) && p.continues(start, p.cur) && !isExprTerminatorKeyword(p.cur) {
		children = append(children, p.parsePrimary())
	}
	if len(children) == 1 {
		return head
	}
	last := children[len(children)-1]
	return p.build(KindApplication, start, last.EndPos, last.End, children)
}

func isExprTerminatorKeyword(t token) bool {
	if t.kind != tokKeyword {
		return false
	}
	switch t.text {
	case "then", "else", "in", "of":
		return true
	}
	return false
}

func (p *parser) parsePrimary() *Node {
	switch {
	case p.cur.kind == tokInt:
		n := leaf(KindIntLiteral, p.cur)
		p.advance()
		return n
	case p.cur.kind == tokFloat:
		n := leaf(KindFloatLiteral, p.cur)
		p.advance()
		return n
	case p.cur.kind == tokString:
		n := leaf(KindStringLiteral, p.cur)
		p.advance()
		return n
	case p.cur.kind == tokLowerIdent:
		n := leaf(KindLowerIdent, p.cur)
		p.advance()
		return n
	case p.cur.kind == tokUpperIdent:
		return p.parseQualifiedOrConstructorRef()
	case p.cur.kind == tokBackslash:
		return p.parseLambdaExpr()
	case p.cur.kind == tokLParen:
		return p.parseParenOrTupleExpr()
	case p.cur.kind == tokLBracket:
		return p.parseListExpr()
	case p.cur.kind == tokLBrace:
		return p.parseRecordExpr()
	case p.cur.kind == tokKeyword && p.cur.text == "let":
		return p.parseLetExpr()
	case p.cur.kind == tokKeyword && p.cur.text == "case":
		return p.parseCaseExpr()
	case p.cur.kind == tokKeyword && p.cur.text == "if":
		return p.parseIfExpr()
	default:
		return p.errorNode()
	}
}

// parseQualifiedOrConstructorRef handles `Mod.Sub.value`, `Mod.Type`, and
// a bare constructor/type reference.
func (p *parser) parseQualifiedOrConstructorRef() *Node {
	start := p.cur
	var parts []*Node
	parts = append(parts, leaf(KindUpperIdent, p.cur))
	p.advance()
	for p.cur.kind == tokDot && (p.nxt.kind == tokUpperIdent || p.nxt.kind == tokLowerIdent) {
		p.advance() // consume "."
		if p.cur.kind == tokLowerIdent {
			parts = append(parts, leaf(KindLowerIdent, p.cur))
			p.advance()
			break
		}
		parts = append(parts, leaf(KindUpperIdent, p.cur))
		p.advance()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	last := parts[len(parts)-1]
	return p.build(KindQualifiedValueReference, start, last.EndPos, last.End, parts)
}

func (p *parser) parseLambdaExpr() *Node {
	start := p.cur
	p.advance() // backslash
	var params []*Node
	for canStartParam(p.cur) {
		params = append(params, p.parseFunctionParameter())
	}
	if p.cur.kind == tokArrow {
		p.advance()
	}
	body := p.parseExpr()
	children := append(params, body)
	return p.build(KindLambdaExpr, start, body.EndPos, body.End, children)
}

func (p *parser) parseParenOrTupleExpr() *Node {
	start := p.cur
	p.advance() // "("
	if p.cur.kind == tokRParen {
		endTok := p.cur
		p.advance()
		return p.build(KindTupleExpr, start, endTok.endPos, endTok.end, nil)
	}
	if p.cur.kind == tokOperator && p.nxt.kind == tokRParen {
		opLeaf := leaf(KindOperatorRef, p.cur)
		p.advance()
		endTok := p.cur
		p.advance()
		return p.build(KindParenExpr, start, endTok.endPos, endTok.end, []*Node{opLeaf})
	}
	first := p.parseExpr()
	children := []*Node{first}
	isTuple := false
	for p.cur.kind == tokComma {
		isTuple = true
		p.advance()
		children = append(children, p.parseExpr())
	}
	endTok := p.cur
	if p.cur.kind == tokRParen {
		p.advance()
	}
	kind := KindParenExpr
	if isTuple {
		kind = KindTupleExpr
	}
	return p.build(kind, start, endTok.endPos, endTok.end, children)
}

func (p *parser) parseListExpr() *Node {
	start := p.cur
	p.advance() // "["
	var children []*Node
	for p.cur.kind != tokRBracket && p.cur.kind != tokEOF {
		children = append(children, p.parseExpr())
		if p.cur.kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	endTok := p.cur
	if p.cur.kind == tokRBracket {
		p.advance()
	}
	return p.build(KindListExpr, start, endTok.endPos, endTok.end, children)
}

func (p *parser) parseRecordExpr() *Node {
	start := p.cur
	p.advance() // "{"
	var fields []*Node
	for p.cur.kind == tokLowerIdent {
		fieldStart := p.cur
		nameLeaf := leaf(KindLowerIdent, p.cur)
		p.advance()
		var value *Node
		if p.cur.kind == tokEquals {
			p.advance()
			value = p.parseExpr()
		}
		fieldChildren := []*Node{nameLeaf}
		endPos, endOff := nameLeaf.EndPos, nameLeaf.End
		if value != nil {
			fieldChildren = append(fieldChildren, value)
			endPos, endOff = value.EndPos, value.End
		}
		fields = append(fields, p.build(KindRecordField, fieldStart, endPos, endOff, fieldChildren))
		if p.cur.kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	endTok := p.cur
	if p.cur.kind == tokRBrace {
		p.advance()
	}
	return p.build(KindRecordExpr, start, endTok.endPos, endTok.end, fields)
}

func (p *parser) parseIfExpr() *Node {
	start := p.cur
	p.advance() // "if"
	cond := p.parseExpr()
	if p.cur.kind == tokKeyword && p.cur.text == "then" {
		p.advance()
	}
	thenExpr := p.parseExpr()
	var children []*Node
	children = append(children, cond, thenExpr)
	if p.cur.kind == tokKeyword && p.cur.text == "else" {
		p.advance()
		elseExpr := p.parseExpr()
		children = append(children, elseExpr)
	}
	last := children[len(children)-1]
	return p.build(KindIfExpr, start, last.EndPos, last.End, children)
}

func (p *parser) parseLetExpr() *Node {
	start := p.cur
	p.advance() // "let"
	bindingColumn := p.cur.startPos.Column
	outerFloor := p.floor
	p.floor = bindingColumn
	var bindings []*Node
	for {
		bindings = append(bindings, p.parseLetBinding())
		if p.cur.kind == tokKeyword && p.cur.text == "in" {
			break
		}
		if p.cur.startPos.Column != bindingColumn {
			break
		}
	}
	p.floor = outerFloor
	if p.cur.kind == tokKeyword && p.cur.text == "in" {
		p.advance()
	}
	body := p.parseExpr()
	children := append(bindings, body)
	return p.build(KindLetExpr, start, body.EndPos, body.End, children)
}

func (p *parser) parseLetBinding() *Node {
	start := p.cur
	if p.cur.kind != tokLowerIdent {
		return p.errorNode()
	}
	if p.nxt.kind == tokColon {
		nameLeaf := leaf(KindLowerIdent, p.cur)
		p.advance()
		p.advance()
		typeExpr := p.parseTypeExpr()
		return p.build(KindTypeAnnotation, start, typeExpr.EndPos, typeExpr.End, []*Node{nameLeaf, typeExpr})
	}
	nameLeaf := leaf(KindLowerIdent, p.cur)
	p.advance()
	children := []*Node{nameLeaf}
	for canStartParam(p.cur) && p.continues(start, p.cur) {
		children = append(children, p.parseFunctionParameter())
	}
	if p.cur.kind == tokEquals {
		p.advance()
	}
	body := p.parseExpr()
	children = append(children, body)
	last := children[len(children)-1]
	return p.build(KindLetBinding, start, last.EndPos, last.End, children)
}

func (p *parser) parseCaseExpr() *Node {
	start := p.cur
	p.advance() // "case"
	subject := p.parseExpr()
	if p.cur.kind == tokKeyword && p.cur.text == "of" {
		p.advance()
	}
	branchColumn := p.cur.startPos.Column
	outerFloor := p.floor
	p.floor = branchColumn
	children := []*Node{subject}
	for {
		children = append(children, p.parseCaseBranch())
		if p.cur.startPos.Column != branchColumn {
			break
		}
	}
	p.floor = outerFloor
	last := children[len(children)-1]
	return p.build(KindCaseExpr, start, last.EndPos, last.End, children)
}

func (p *parser) parseCaseBranch() *Node {
	start := p.cur
	pattern := p.parseCasePattern()
	children := []*Node{pattern}
	if p.cur.kind == tokArrow {
		p.advance()
	}
	body := p.parseExpr()
	children = append(children, body)
	last := children[len(children)-1]
	return p.build(KindCaseBranch, start, last.EndPos, last.End, children)
}

func (p *parser) parseCasePattern() *Node {
	start := p.cur
	switch p.cur.kind {
	case tokLowerIdent:
		n := leaf(KindCasePattern, p.cur)
		p.advance()
		return n
	case tokUnderscore:
		n := leaf(KindCasePattern, p.cur)
		p.advance()
		return n
	case tokInt:
		n := leaf(KindCasePattern, p.cur)
		p.advance()
		return n
	case tokString:
		n := leaf(KindCasePattern, p.cur)
		p.advance()
		return n
	case tokUpperIdent:
		ctorLeaf := leaf(KindUpperIdent, p.cur)
		p.advance()
		children := []*Node{ctorLeaf}
		for (p.cur.kind == tokLowerIdent || p.cur.kind == tokUnderscore) && p.continues(start, p.cur) {
			children = append(children, leaf(KindCasePattern, p.cur))
			p.advance()
		}
		last := children[len(children)-1]
		return p.build(KindCasePattern, start, last.EndPos, last.End, children)
	case tokLParen:
		p.advance()
		depth := 1
		for depth > 0 && p.cur.kind != tokEOF {
			if p.cur.kind == tokLParen {
				depth++
			} else if p.cur.kind == tokRParen {
				depth--
				if depth == 0 {
					endTok := p.cur
					p.advance()
					return p.build(KindCasePattern, start, endTok.endPos, endTok.end, nil)
				}
			}
			p.advance()
		}
		return p.build(KindCasePattern, start, start.endPos, start.end, nil)
	default:
		return p.errorNode()
	}
}
