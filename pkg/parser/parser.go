// Package parser implements the Cookbook language parser.
package parser

import (
	"fmt"
	"sort"

	"github.com/thomasrohde/cookbook/pkg/ast"
	"github.com/thomasrohde/cookbook/pkg/diagnostics"
	"github.com/thomasrohde/cookbook/pkg/lexer"
)

// maxArgs bounds both parameter lists and call arguments.
const maxArgs = 255

type parser struct {
	tokens []lexer.Token
	pos    int
	depth  int // open blocks, used by synchronize
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST. The returned program is
// never nil: statements that failed to parse are replaced by NoOpStmt nodes
// and reported in the diagnostics, which include lexer diagnostics.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, lexDiags := lexer.Tokenize(source, filename)
	prog, parseDiags := ParseTokens(tokens)
	return prog, mergeDiags(lexDiags, parseDiags)
}

// ParseTokens parses an already tokenized program.
func ParseTokens(tokens []lexer.Token) (*ast.Program, []diagnostics.Diagnostic) {
	p := newParser(tokens)
	return p.parseProgram(), p.diags
}

// ParseExpression parses source as a single expression followed by end of
// input. It returns a nil expression when any diagnostic was reported.
func ParseExpression(source, filename string) (ast.Expr, []diagnostics.Diagnostic) {
	tokens, lexDiags := lexer.Tokenize(source, filename)
	p := newParser(tokens)
	expr := p.parseExpr()
	if expr != nil && p.peek() != lexer.TokEOF {
		p.errorAt(p.current(), "Expect end of expression.")
	}
	diags := mergeDiags(lexDiags, p.diags)
	if len(diags) > 0 {
		return nil, diags
	}
	return expr, nil
}

func newParser(tokens []lexer.Token) *parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokEOF {
		eof := lexer.Token{Type: lexer.TokEOF}
		if len(tokens) > 0 {
			eof.Span = tokens[len(tokens)-1].Span
		}
		tokens = append(tokens[:len(tokens):len(tokens)], eof)
	}
	return &parser{tokens: tokens}
}

// mergeDiags orders diagnostics by line; lexer and parser diagnostics are
// produced in separate passes.
func mergeDiags(a, b []diagnostics.Diagnostic) []diagnostics.Diagnostic {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]diagnostics.Diagnostic, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line() < out[j].Line() })
	return out
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) check(typ lexer.TokenType) bool {
	return p.peek() == typ
}

func (p *parser) match(types ...lexer.TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) expect(typ lexer.TokenType, msg string) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.errorAt(tok, msg)
		return tok, false
	}
	return p.advance(), true
}

// errorAt records an E_PARSE diagnostic located at tok.
func (p *parser) errorAt(tok lexer.Token, msg string) {
	span := tok.Span
	d := diagnostics.MakeDiag(diagnostics.EParse, msg, &span, "")
	if tok.Type == lexer.TokEOF {
		d.Where = " at end"
	} else {
		d.Where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	p.diags = append(p.diags, d)
}

func (p *parser) spanFrom(start ast.Span) ast.Span {
	end := p.previous().Span
	if p.pos == 0 {
		end = start
	}
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func startsStatement(t lexer.TokenType) bool {
	switch t {
	case lexer.TokFun, lexer.TokRemember, lexer.TokSet, lexer.TokPrint,
		lexer.TokIf, lexer.TokWhile, lexer.TokFor, lexer.TokReturn:
		return true
	}
	return false
}

// synchronize discards tokens until a statement boundary: just after a ';',
// before a statement keyword, or before a '}' that closes an open block.
// start is the token index where the failed declaration began; at least one
// token is always consumed so recovery makes progress.
func (p *parser) synchronize(start int) {
	for p.peek() != lexer.TokEOF {
		if p.pos > start {
			if p.previous().Type == lexer.TokSemicolon {
				return
			}
			if startsStatement(p.peek()) {
				return
			}
			if p.peek() == lexer.TokRBrace && p.depth > 0 {
				return
			}
		}
		p.advance()
	}
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span

	var stmts []ast.Stmt
	for p.peek() != lexer.TokEOF {
		stmts = append(stmts, p.parseDeclaration())
	}

	return &ast.Program{
		Span:       p.spanFromTo(startSpan, p.current().Span),
		Statements: stmts,
	}
}

// --- Declarations ---

func (p *parser) parseDeclaration() ast.Stmt {
	start := p.pos
	startSpan := p.current().Span

	var stmt ast.Stmt
	switch p.peek() {
	case lexer.TokFun:
		if s := p.parseFunDecl(); s != nil {
			stmt = s
		}
	case lexer.TokRemember:
		if s := p.parseVarDecl(); s != nil {
			stmt = s
		}
	default:
		stmt = p.parseStatement()
	}

	if stmt == nil {
		p.synchronize(start)
		return &ast.NoOpStmt{Span: p.spanFrom(startSpan)}
	}
	return stmt
}

func (p *parser) parseFunDecl() *ast.FunDecl {
	start := p.advance() // consume 'recipe'
	nameTok, ok := p.expect(lexer.TokIdent, "Expect recipe name.")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLParen, "Expect '(' after recipe name."); !ok {
		return nil
	}

	var params []string
	if !p.check(lexer.TokRParen) {
		for {
			if len(params) >= maxArgs {
				p.errorAt(p.current(), fmt.Sprintf("Can't have more than %d parameters.", maxArgs))
			}
			paramTok, ok := p.expect(lexer.TokIdent, "Expect parameter name.")
			if !ok {
				return nil
			}
			params = append(params, paramTok.Lexeme)
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "Expect ')' after parameters."); !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLBrace, "Expect '{' before recipe body."); !ok {
		return nil
	}

	body, ok := p.parseBlockBody()
	if !ok {
		return nil
	}

	return &ast.FunDecl{
		Span:   p.spanFrom(start.Span),
		Name:   nameTok.Lexeme,
		Params: params,
		Body:   body,
	}
}

func (p *parser) parseVarDecl() *ast.VarDecl {
	start := p.advance() // consume 'remember'
	nameTok, ok := p.expect(lexer.TokIdent, "Expect variable name.")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokAs, "Expect 'as' after variable name."); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after variable declaration."); !ok {
		return nil
	}
	return &ast.VarDecl{
		Span: p.spanFrom(start.Span),
		Name: nameTok.Lexeme,
		Init: value,
	}
}

// --- Statements ---

func (p *parser) parseStatement() ast.Stmt {
	switch p.peek() {
	case lexer.TokSet:
		s := p.parseAssign(true)
		if s == nil {
			return nil
		}
		return s
	case lexer.TokPrint:
		s := p.parsePrint()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokIf:
		s := p.parseIf()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokWhile:
		s := p.parseWhile()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokFor:
		return p.parseFor()
	case lexer.TokReturn:
		s := p.parseReturn()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokLBrace:
		s := p.parseBlock()
		if s == nil {
			return nil
		}
		return s
	default:
		s := p.parseExprStmt()
		if s == nil {
			return nil
		}
		return s
	}
}

// parseAssign parses "set NAME to EXPR", followed by ';' when terminated is
// true. The for-loop increment clause uses the unterminated form.
func (p *parser) parseAssign(terminated bool) *ast.AssignStmt {
	start := p.advance() // consume 'set'
	nameTok, ok := p.expect(lexer.TokIdent, "Expect variable name.")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokTo, "Expect 'to' after variable name."); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if terminated {
		if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after assignment."); !ok {
			return nil
		}
	}
	return &ast.AssignStmt{
		Span:  p.spanFrom(start.Span),
		Name:  nameTok.Lexeme,
		Value: value,
	}
}

func (p *parser) parsePrint() *ast.PrintStmt {
	start := p.advance() // consume 'print'
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after value."); !ok {
		return nil
	}
	return &ast.PrintStmt{
		Span: p.spanFrom(start.Span),
		Expr: value,
	}
}

func (p *parser) parseCondition(keyword string) ast.Expr {
	if _, ok := p.expect(lexer.TokLParen, fmt.Sprintf("Expect '(' after '%s'.", keyword)); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen, fmt.Sprintf("Expect ')' after %s condition.", keyword)); !ok {
		return nil
	}
	return cond
}

func (p *parser) parseIf() *ast.IfStmt {
	start := p.advance() // consume 'if'
	cond := p.parseCondition("if")
	if cond == nil {
		return nil
	}
	then := p.parseStatement()
	if then == nil {
		return nil
	}
	var els ast.Stmt
	if p.match(lexer.TokElse) {
		els = p.parseStatement()
		if els == nil {
			return nil
		}
	}
	return &ast.IfStmt{
		Span: p.spanFrom(start.Span),
		Cond: cond,
		Then: then,
		Else: els,
	}
}

func (p *parser) parseWhile() *ast.WhileStmt {
	start := p.advance() // consume 'while'
	cond := p.parseCondition("while")
	if cond == nil {
		return nil
	}
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	return &ast.WhileStmt{
		Span: p.spanFrom(start.Span),
		Cond: cond,
		Body: body,
	}
}

// parseFor desugars
//
//	for (init; cond; incr) body
//
// into
//
//	{ init; while (cond) { body; incr; } }
func (p *parser) parseFor() ast.Stmt {
	start := p.advance() // consume 'for'
	if _, ok := p.expect(lexer.TokLParen, "Expect '(' after 'for'."); !ok {
		return nil
	}

	var initializer ast.Stmt
	switch p.peek() {
	case lexer.TokSemicolon:
		p.advance()
	case lexer.TokRemember:
		s := p.parseVarDecl()
		if s == nil {
			return nil
		}
		initializer = s
	case lexer.TokSet:
		s := p.parseAssign(true)
		if s == nil {
			return nil
		}
		initializer = s
	default:
		s := p.parseExprStmt()
		if s == nil {
			return nil
		}
		initializer = s
	}

	var cond ast.Expr
	if !p.check(lexer.TokSemicolon) {
		cond = p.parseExpr()
		if cond == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after loop condition."); !ok {
		return nil
	}

	var incr ast.Stmt
	if !p.check(lexer.TokRParen) {
		if p.check(lexer.TokSet) {
			s := p.parseAssign(false)
			if s == nil {
				return nil
			}
			incr = s
		} else {
			e := p.parseExpr()
			if e == nil {
				return nil
			}
			incr = &ast.ExprStmt{Span: e.NodeSpan(), Expr: e}
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "Expect ')' after for clauses."); !ok {
		return nil
	}

	body := p.parseStatement()
	if body == nil {
		return nil
	}
	span := p.spanFrom(start.Span)

	if incr != nil {
		body = &ast.BlockStmt{Span: body.NodeSpan(), Stmts: []ast.Stmt{body, incr}}
	}
	if cond == nil {
		cond = &ast.BoolLiteral{Span: start.Span, Value: true}
	}
	loop := ast.Stmt(&ast.WhileStmt{Span: span, Cond: cond, Body: body})
	if initializer != nil {
		loop = &ast.BlockStmt{Span: span, Stmts: []ast.Stmt{initializer, loop}}
	}
	return loop
}

func (p *parser) parseReturn() *ast.ReturnStmt {
	start := p.advance() // consume 'serve'
	var value ast.Expr
	if !p.check(lexer.TokSemicolon) {
		value = p.parseExpr()
		if value == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after serve value."); !ok {
		return nil
	}
	return &ast.ReturnStmt{
		Span:  p.spanFrom(start.Span),
		Value: value,
	}
}

func (p *parser) parseExprStmt() *ast.ExprStmt {
	startSpan := p.current().Span
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after expression."); !ok {
		return nil
	}
	return &ast.ExprStmt{
		Span: p.spanFrom(startSpan),
		Expr: expr,
	}
}

// --- Block ---

func (p *parser) parseBlock() *ast.BlockStmt {
	start := p.advance() // consume '{'
	stmts, ok := p.parseBlockBody()
	if !ok {
		return nil
	}
	return &ast.BlockStmt{
		Span:  p.spanFrom(start.Span),
		Stmts: stmts,
	}
}

// parseBlockBody parses declarations up to and including the closing '}'.
// The opening brace has already been consumed.
func (p *parser) parseBlockBody() ([]ast.Stmt, bool) {
	p.depth++
	defer func() { p.depth-- }()

	stmts := []ast.Stmt{}
	for !p.check(lexer.TokRBrace) && !p.check(lexer.TokEOF) {
		stmts = append(stmts, p.parseDeclaration())
	}
	if _, ok := p.expect(lexer.TokRBrace, "Expect '}' after block."); !ok {
		return nil, false
	}
	return stmts, true
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.check(lexer.TokOr) {
		op := p.advance()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpr{
			Span:  p.spanFromTo(op.Span, right.NodeSpan()),
			Op:    ast.OpOr,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseComparison()
	if left == nil {
		return nil
	}
	for p.check(lexer.TokAnd) {
		op := p.advance()
		right := p.parseComparison()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpr{
			Span:  p.spanFromTo(op.Span, right.NodeSpan()),
			Op:    ast.OpAnd,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parsePhrase()
	if left == nil {
		return nil
	}

	var op ast.BinaryOp
	switch p.peek() {
	case lexer.TokGreater:
		op = ast.OpGt
	case lexer.TokLess:
		op = ast.OpLt
	case lexer.TokEqEq:
		op = ast.OpEqEq
	default:
		return left
	}
	opTok := p.advance()
	right := p.parsePhrase()
	if right == nil {
		return nil
	}
	return &ast.BinaryExpr{
		Span:  p.spanFromTo(opTok.Span, right.NodeSpan()),
		Op:    op,
		Left:  left,
		Right: right,
	}
}

// parsePhrase parses the prefix verb forms. Each verb consumes exactly one
// pair of operands; operands are themselves phrases, so "mix mix 1 and 2
// and 3" nests to the left through prefixing.
func (p *parser) parsePhrase() ast.Expr {
	switch p.peek() {
	case lexer.TokMix:
		return p.parseVerb(ast.OpMix, lexer.TokAnd, "Expect 'and' after first ingredient.", false)
	case lexer.TokTakeAway:
		return p.parseVerb(ast.OpTakeAway, lexer.TokFrom, "Expect 'from' after amount to take away.", true)
	case lexer.TokMultiply:
		return p.parseVerb(ast.OpCombine, lexer.TokWith, "Expect 'with' after first factor.", false)
	case lexer.TokDivide:
		return p.parseVerb(ast.OpShare, lexer.TokWith, "Expect 'with' after amount to share.", false)
	case lexer.TokFlip:
		start := p.advance()
		operand := p.parsePhrase()
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{
			Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
			Op:      ast.OpFlip,
			Operand: operand,
		}
	case lexer.TokCheckIf:
		p.advance()
		return p.parseComparison()
	default:
		return p.parseCall()
	}
}

// parseVerb parses "VERB a CONNECTOR b". When swap is set the operands are
// stored as (b, a), so the evaluator always computes Left op Right.
func (p *parser) parseVerb(op ast.BinaryOp, connector lexer.TokenType, msg string, swap bool) ast.Expr {
	start := p.advance() // consume the verb
	first := p.parsePhrase()
	if first == nil {
		return nil
	}
	if _, ok := p.expect(connector, msg); !ok {
		return nil
	}
	second := p.parsePhrase()
	if second == nil {
		return nil
	}
	left, right := first, second
	if swap {
		left, right = second, first
	}
	return &ast.BinaryExpr{
		Span:  p.spanFromTo(start.Span, second.NodeSpan()),
		Op:    op,
		Left:  left,
		Right: right,
	}
}

func (p *parser) parseCall() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	for p.match(lexer.TokLParen) {
		expr = p.finishCall(expr)
		if expr == nil {
			return nil
		}
	}
	return expr
}

func (p *parser) finishCall(callee ast.Expr) ast.Expr {
	args := []ast.Expr{}
	if !p.check(lexer.TokRParen) {
		for {
			if len(args) >= maxArgs {
				p.errorAt(p.current(), fmt.Sprintf("Can't have more than %d arguments.", maxArgs))
			}
			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	paren, ok := p.expect(lexer.TokRParen, "Expect ')' after arguments.")
	if !ok {
		return nil
	}
	return &ast.CallExpr{
		Span:   paren.Span,
		Callee: callee,
		Args:   args,
	}
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.current()
	switch tok.Type {
	case lexer.TokNumber:
		p.advance()
		value, _ := tok.Literal.(float64)
		return &ast.NumberLiteral{Span: tok.Span, Value: value}
	case lexer.TokString:
		p.advance()
		value, _ := tok.Literal.(string)
		return &ast.StringLiteral{Span: tok.Span, Value: value}
	case lexer.TokTrue:
		p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: true}
	case lexer.TokFalse:
		p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: false}
	case lexer.TokNil:
		p.advance()
		return &ast.NilLiteral{Span: tok.Span}
	case lexer.TokIdent:
		p.advance()
		return &ast.Variable{Span: tok.Span, Name: tok.Lexeme}
	case lexer.TokLParen:
		p.advance()
		inner := p.parseExpr()
		if inner == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen, "Expect ')' after expression."); !ok {
			return nil
		}
		return &ast.Grouping{Span: p.spanFrom(tok.Span), Expr: inner}
	default:
		p.errorAt(tok, "Expect expression.")
		return nil
	}
}
