// internal/parser/stmt.go
package parser

import "emerald/internal/lexer"

func (p *Parser) declaration() Stmt {
	if p.match(lexer.TokenDef) {
		return p.defStatement()
	}
	if p.match(lexer.TokenObject) {
		return p.objectStatement()
	}
	return p.statement()
}

func (p *Parser) statement() Stmt {
	switch {
	case p.match(lexer.TokenImport):
		name := p.consume(lexer.TokenIdent, "expect module name after import")
		return &ImportStmt{Name: name.Lexeme}

	case p.match(lexer.TokenIf):
		return p.ifStatement()

	case p.match(lexer.TokenWhile):
		return p.whileStatement()

	case p.match(lexer.TokenPrint):
		return &PrintStmt{X: p.expression()}

	case p.match(lexer.TokenLet):
		name := p.consume(lexer.TokenIdent, "expect variable name")
		p.consume(lexer.TokenEqual, "expect '=' after variable name")
		return &LetStmt{Name: name.Lexeme, Value: p.expression()}

	case p.match(lexer.TokenReturn):
		if p.blockEnds() {
			return &ReturnStmt{}
		}
		return &ReturnStmt{Value: p.expression()}

	default:
		return &ExprStmt{X: p.expression()}
	}
}

// blockEnds reports whether the current token closes the enclosing block
// (end/else) or the file, used to recognize a bare `return`.
func (p *Parser) blockEnds() bool {
	return p.check(lexer.TokenEnd) || p.check(lexer.TokenElse) || p.isAtEnd()
}

func (p *Parser) block(terminators ...lexer.TokenType) []Stmt {
	var stmts []Stmt
	for !p.isAtEnd() && !p.checkAny(terminators...) {
		stmts = append(stmts, p.declaration())
	}
	return stmts
}

func (p *Parser) ifStatement() Stmt {
	cond := p.expression()
	p.consume(lexer.TokenThen, "expect 'then' after if condition")
	then := p.block(lexer.TokenElse, lexer.TokenEnd)
	var els []Stmt
	if p.match(lexer.TokenElse) {
		els = p.block(lexer.TokenEnd)
	}
	p.consume(lexer.TokenEnd, "expect 'end' to close if")
	return &IfStmt{Cond: cond, Then: then, Else: els}
}

func (p *Parser) whileStatement() Stmt {
	cond := p.expression()
	p.consume(lexer.TokenDo, "expect 'do' after while condition")
	body := p.block(lexer.TokenEnd)
	p.consume(lexer.TokenEnd, "expect 'end' to close while")
	return &WhileStmt{Cond: cond, Body: body}
}

func (p *Parser) params() []string {
	p.consume(lexer.TokenLParen, "expect '(' before parameter list")
	var names []string
	if !p.check(lexer.TokenRParen) {
		for {
			names = append(names, p.consume(lexer.TokenIdent, "expect parameter name").Lexeme)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expect ')' after parameter list")
	return names
}

func (p *Parser) defStatement() Stmt {
	name := p.consume(lexer.TokenIdent, "expect function name after def")
	params := p.params()
	body := p.block(lexer.TokenEnd)
	p.consume(lexer.TokenEnd, "expect 'end' to close def")
	return &DefStmt{Name: name.Lexeme, Params: params, Body: body}
}

func (p *Parser) objectStatement() Stmt {
	name := p.consume(lexer.TokenIdent, "expect object name")
	var parent Expr
	if p.match(lexer.TokenClones) {
		parent = p.expression()
	}
	var props []ObjectProp
	for p.match(lexer.TokenLet) {
		propName := p.consume(lexer.TokenIdent, "expect property name")
		p.consume(lexer.TokenEqual, "expect '=' after property name")
		props = append(props, ObjectProp{Name: propName.Lexeme, Value: p.expression()})
	}
	p.consume(lexer.TokenEnd, "expect 'end' to close object")
	return &ObjectStmt{Name: name.Lexeme, Parent: parent, Props: props}
}
