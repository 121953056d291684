// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

// Parser is a hand-written recursive-descent parser over the token stream
// produced by Lexer. It recognizes
// val/var bindings, with/if/while block statements, the let(...) and
// type()/print()/input()/add1()/sub1() call forms, short-circuit and/or
// lowered to IfExpr, the body-if-test-else-orelse conditional, and the
// fixed-arity runtime calls from runtime.go.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse tokenizes and parses a complete Compy source file into its
// top-level Scope. Lexical and syntactic errors abort immediately
// rather than accumulating.
func Parse(src string) (*Scope, *CompileError) {
	lex := NewLexer(src)
	tokens, err := lex.Scan()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	var stmts []Statement
	for !p.check(TokEOF) {
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return &Scope{Statements: stmts}, nil
}

//
// ---- token stream helpers ----
//

func (p *Parser) cur() Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekType(offset int) TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return TokEOF
	}
	return p.tokens[idx].Type
}

func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(tt TokenType) bool {
	return p.cur().Type == tt
}

func (p *Parser) match(tt TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(tt TokenType, msg string) (Token, *CompileError) {
	if !p.check(tt) {
		return Token{}, p.errHere(msg)
	}
	return p.advance(), nil
}

func (p *Parser) errHere(msg string) *CompileError {
	return newCompileError(msg, p.cur().Span())
}

func reservedIdentifierError(tok Token) *CompileError {
	return newCompileError("'"+tok.Lexeme+"' is a reserved keyword and cannot be used as an identifier", tok.Span())
}

func (p *Parser) expectNewline() *CompileError {
	_, err := p.expect(TokNewline, "expected end of statement")
	return err
}

//
// ---- statements ----
//

func (p *Parser) parseStatement() (Statement, *CompileError) {
	tok := p.cur()
	switch tok.Type {
	case TokPass:
		p.advance()
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
		return &NoOp{Sp: tok.Span()}, nil
	case TokWith:
		return p.parseWith()
	case TokIf:
		return p.parseIf()
	case TokWhile:
		return p.parseWhile()
	case TokIdent:
		if (tok.Lexeme == kwVal || tok.Lexeme == kwVar) && p.peekType(1) == TokLParen {
			return p.parseBindingStmt()
		}
		if p.peekType(1) == TokAssign {
			return p.parseAssignment()
		}
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}
	return &EvalExpr{Sp: expr.Span(), Expr: expr}, nil
}

func (p *Parser) parseAssignment() (Statement, *CompileError) {
	nameTok := p.advance()
	if isKeyword(nameTok.Lexeme) {
		return nil, reservedIdentifierError(nameTok)
	}
	targetSpan := nameTok.Span()
	if _, err := p.expect(TokAssign, "expected '=' in assignment"); err != nil {
		return nil, err
	}
	src, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}
	return &Assignment{Sp: nameTok.Span(), Name: nameTok.Lexeme, Src: src, TargetSpan: targetSpan}, nil
}

func (p *Parser) parseBindingStmt() (Statement, *CompileError) {
	kwTok := p.advance()
	mutable := kwTok.Lexeme == kwVar
	if _, err := p.expect(TokLParen, "expected '(' after '"+kwTok.Lexeme+"'"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokIdent, "expected a binding name")
	if err != nil {
		return nil, err
	}
	if isKeyword(nameTok.Lexeme) {
		return nil, reservedIdentifierError(nameTok)
	}
	switch {
	case p.match(TokAssign):
	case p.match(TokWalrus):
	default:
		return nil, p.errHere("expected '=' or ':=' in binding")
	}
	initExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, "expected ')' to close "+kwTok.Lexeme+"(...)"); err != nil {
		return nil, err
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}
	return &Binding{Sp: kwTok.Span(), Mutable: mutable, Name: nameTok.Lexeme, InitVal: initExpr}, nil
}

func (p *Parser) parseWith() (Statement, *CompileError) {
	withTok := p.advance()
	under, err := p.expect(TokIdent, "expected '_' after 'with'")
	if err != nil {
		return nil, err
	}
	if under.Lexeme != kwUnder {
		return nil, newCompileError("expected '_' after 'with'", under.Span())
	}
	scope, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &NewScopeStmt{Sp: withTok.Span(), Body: scope}, nil
}

func (p *Parser) parseIf() (Statement, *CompileError) {
	ifTok := p.advance()
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var orelse *Scope
	if p.check(TokElse) {
		p.advance()
		orelse, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{Sp: ifTok.Span(), Test: test, Body: body, OrElse: orelse}, nil
}

func (p *Parser) parseWhile() (Statement, *CompileError) {
	whileTok := p.advance()
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &While{Sp: whileTok.Span(), Test: test, Body: body}, nil
}

func (p *Parser) parseBlock() (*Scope, *CompileError) {
	if _, err := p.expect(TokColon, "expected ':'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokNewline, "expected a newline after ':'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokIndent, "expected an indented block"); err != nil {
		return nil, err
	}
	var stmts []Statement
	for !p.check(TokDedent) && !p.check(TokEOF) {
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	if _, err := p.expect(TokDedent, "expected a dedent to close the block"); err != nil {
		return nil, err
	}
	return &Scope{Statements: stmts}, nil
}

//
// ---- expressions ----
//

func (p *Parser) parseExpr() (Expression, *CompileError) {
	return p.parseCondExpr()
}

// body if test else orelse
func (p *Parser) parseCondExpr() (Expression, *CompileError) {
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.check(TokIf) {
		p.advance()
		test, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokElse, "expected 'else' in conditional expression"); err != nil {
			return nil, err
		}
		orelse, err := p.parseCondExpr()
		if err != nil {
			return nil, err
		}
		return &IfExpr{Sp: body.Span(), Test: test, Body: body, OrElse: orelse}, nil
	}
	return body, nil
}

// a or b -> if a then True else b
func (p *Parser) parseOr() (Expression, *CompileError) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.check(TokOr) {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &IfExpr{Sp: tok.Span(), Test: left, Body: &Boolean{Sp: tok.Span(), Value: true}, OrElse: right}
	}
	return left, nil
}

// a and b -> if a then b else False
func (p *Parser) parseAnd() (Expression, *CompileError) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.check(TokAnd) {
		tok := p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &IfExpr{Sp: tok.Span(), Test: left, Body: right, OrElse: &Boolean{Sp: tok.Span(), Value: false}}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expression, *CompileError) {
	if p.check(TokNot) {
		tok := p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Prim1{Sp: tok.Span(), Op: OpNot, Ex1: operand}, nil
	}
	return p.parseComparison()
}

func isComparisonToken(tt TokenType) bool {
	switch tt {
	case TokEqEq, TokNotEq, TokLt, TokLe, TokGt, TokGe, TokIs:
		return true
	default:
		return false
	}
}

// consumeComparisonOp consumes one comparison operator (including the
// two-keyword "is not" form) and reports whether the result must be
// negated (for != and is-not, which have no direct runtime symbol).
func (p *Parser) consumeComparisonOp() (BinaryOp, bool) {
	switch p.cur().Type {
	case TokEqEq:
		p.advance()
		return OpIsEq, false
	case TokNotEq:
		p.advance()
		return OpIsEq, true
	case TokLt:
		p.advance()
		return OpIsLt, false
	case TokLe:
		p.advance()
		return OpIsLe, false
	case TokGt:
		p.advance()
		return OpIsGt, false
	case TokGe:
		p.advance()
		return OpIsGe, false
	case TokIs:
		p.advance()
		if p.check(TokNot) {
			p.advance()
			return OpIsIdentical, true
		}
		return OpIsIdentical, false
	default:
		panic("consumeComparisonOp called without a comparison token")
	}
}

func (p *Parser) parseComparison() (Expression, *CompileError) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !isComparisonToken(p.cur().Type) {
		return left, nil
	}
	sp := p.cur().Span()
	op, negate := p.consumeComparisonOp()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if isComparisonToken(p.cur().Type) {
		return nil, p.errHere("chained comparisons are not supported")
	}
	cmp := Expression(&Prim2{Sp: sp, Op: op, Left: left, Right: right})
	if negate {
		cmp = &Prim1{Sp: sp, Op: OpNot, Ex1: cmp}
	}
	return cmp, nil
}

func (p *Parser) parseAdditive() (Expression, *CompileError) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(TokPlus) || p.check(TokMinus) {
		tok := p.advance()
		op := OpAdd
		if tok.Type == TokMinus {
			op = OpSub
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Prim2{Sp: tok.Span(), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expression, *CompileError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(TokStar) || p.check(TokSlash) || p.check(TokPercent) {
		tok := p.advance()
		var op BinaryOp
		switch tok.Type {
		case TokStar:
			op = OpMul
		case TokSlash:
			op = OpDiv
		default:
			op = OpMod
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Prim2{Sp: tok.Span(), Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseUnary collapses a unary minus on an integer literal into a
// negative Integer, so that the most-negative 64-bit literal parses
// without overflowing at Prim1(negate).
func (p *Parser) parseUnary() (Expression, *CompileError) {
	if p.check(TokMinus) {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := operand.(*Integer); ok {
			lit.Value.Neg(lit.Value)
			return lit, nil
		}
		return &Prim1{Sp: tok.Span(), Op: OpNegate, Ex1: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parseExprList() ([]Expression, *CompileError) {
	var args []Expression
	if p.check(TokRParen) {
		return args, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if !p.match(TokComma) {
			break
		}
	}
	return args, nil
}

func (p *Parser) parsePrimary() (Expression, *CompileError) {
	tok := p.cur()
	switch tok.Type {
	case TokInt:
		p.advance()
		return &Integer{Sp: tok.Span(), Value: parseIntLiteral(tok.Lexeme)}, nil
	case TokTrue:
		p.advance()
		return &Boolean{Sp: tok.Span(), Value: true}, nil
	case TokFalse:
		p.advance()
		return &Boolean{Sp: tok.Span(), Value: false}, nil
	case TokNone:
		p.advance()
		return &Unit{Sp: tok.Span()}, nil
	case TokString:
		p.advance()
		return &StringLiteral{Sp: tok.Span(), Content: tok.Lexeme}, nil
	case TokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "expected ')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case TokIdent:
		return p.parseIdentPrimary()
	default:
		return nil, p.errHere("unknown expression")
	}
}

func (p *Parser) parseIdentPrimary() (Expression, *CompileError) {
	tok := p.advance()
	name := tok.Lexeme
	calls := p.check(TokLParen)

	switch {
	case name == kwType && calls:
		p.advance()
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "expected ')' to close type(...)"); err != nil {
			return nil, err
		}
		return &GetType{Sp: tok.Span(), Ex: arg}, nil
	case name == kwPrint && calls:
		p.advance()
		args, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "expected ')' to close print(...)"); err != nil {
			return nil, err
		}
		return &Print{Sp: tok.Span(), Args: args}, nil
	case name == kwInput && calls:
		p.advance()
		args, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "expected ')' to close input(...)"); err != nil {
			return nil, err
		}
		return &Input{Sp: tok.Span(), Args: args}, nil
	case (name == kwAdd1 || name == kwSub1) && calls:
		p.advance()
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "expected ')'"); err != nil {
			return nil, err
		}
		op := OpAdd1
		if name == kwSub1 {
			op = OpSub1
		}
		return &Prim1{Sp: tok.Span(), Op: op, Ex1: arg}, nil
	case name == kwLet && calls:
		return p.parseLet(tok)
	case isTypeName(name):
		return &TypeLiteral{Sp: tok.Span(), Ty: primTypeNames[name]}, nil
	case isKeyword(name):
		return nil, reservedIdentifierError(tok)
	case isRuntimeCallName(name) && calls:
		p.advance()
		args, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "expected ')'"); err != nil {
			return nil, err
		}
		return &RuntimeCall{Sp: tok.Span(), Name: name, Symbol: fixedArityFuncs[name].Symbol, Args: args}, nil
	default:
		return &Name{Sp: tok.Span(), Name: name}, nil
	}
}

// let(x := e1, y := e2, ..., body) -> ExprScope, bindings prepended to body.
func (p *Parser) parseLet(letTok Token) (Expression, *CompileError) {
	if _, err := p.expect(TokLParen, "expected '(' after 'let'"); err != nil {
		return nil, err
	}
	var bindings []Statement
	for {
		if p.check(TokIdent) && p.peekType(1) == TokWalrus {
			nameTok := p.advance()
			if isKeyword(nameTok.Lexeme) {
				return nil, reservedIdentifierError(nameTok)
			}
			p.advance() // ':='
			initExpr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			bindings = append(bindings, &Binding{Sp: nameTok.Span(), Mutable: false, Name: nameTok.Lexeme, InitVal: initExpr})
			if _, err := p.expect(TokComma, "expected ',' after let(...) binding"); err != nil {
				return nil, err
			}
			continue
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "expected ')' to close let(...)"); err != nil {
			return nil, err
		}
		return mkExprScope(letTok.Span(), bindings, body), nil
	}
}
