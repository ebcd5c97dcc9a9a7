package parser

import (
	"fmt"
	"testing"

	"emerald/internal/lexer"
)

func parseString(input string) (stmts []Stmt, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("parser panic: %v", r)
			}
			stmts = nil
		}
	}()

	scanner := lexer.NewScanner(input)
	tokens := scanner.ScanTokens()
	p := NewParser(tokens)
	stmts = p.Parse()
	return
}

func assertParseSuccess(t *testing.T, input, description string) []Stmt {
	t.Helper()
	stmts, err := parseString(input)
	if err != nil {
		t.Fatalf("%s: parsing failed: %v", description, err)
	}
	return stmts
}

func TestParseDef(t *testing.T) {
	stmts := assertParseSuccess(t, `
def fib(n)
  if n < 2 then return n else return fib(n-1) + fib(n-2) end
end
`, "fib definition")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(stmts))
	}
	def, ok := stmts[0].(*DefStmt)
	if !ok {
		t.Fatalf("expected *DefStmt, got %T", stmts[0])
	}
	if def.Name != "fib" || len(def.Params) != 1 || def.Params[0] != "n" {
		t.Fatalf("unexpected def shape: %+v", def)
	}
	if len(def.Body) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(def.Body))
	}
	ifStmt, ok := def.Body[0].(*IfStmt)
	if !ok {
		t.Fatalf("expected *IfStmt, got %T", def.Body[0])
	}
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("expected one statement in each branch: %+v", ifStmt)
	}
}

func TestParseObjectClones(t *testing.T) {
	stmts := assertParseSuccess(t, `
object A
  let x = 1
end
object B clones A end
print B.x
`, "object clones")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 top-level statements, got %d", len(stmts))
	}
	a, ok := stmts[0].(*ObjectStmt)
	if !ok || a.Name != "A" || a.Parent != nil || len(a.Props) != 1 {
		t.Fatalf("unexpected object A shape: %+v", stmts[0])
	}
	b, ok := stmts[1].(*ObjectStmt)
	if !ok || b.Name != "B" || b.Parent == nil {
		t.Fatalf("unexpected object B shape: %+v", stmts[1])
	}
	print, ok := stmts[2].(*PrintStmt)
	if !ok {
		t.Fatalf("expected *PrintStmt, got %T", stmts[2])
	}
	if _, ok := print.X.(*GetProp); !ok {
		t.Fatalf("expected GetProp inside print, got %T", print.X)
	}
}

func TestParseArrayAndClone(t *testing.T) {
	stmts := assertParseSuccess(t, `
let a = [1, 2, 3]
let b = clone a
b.push(4)
`, "array clone push")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	letA, ok := stmts[0].(*LetStmt)
	if !ok {
		t.Fatalf("expected *LetStmt, got %T", stmts[0])
	}
	arr, ok := letA.Value.(*ArrayLit)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("unexpected array literal: %+v", letA.Value)
	}
	letB, ok := stmts[1].(*LetStmt)
	if !ok {
		t.Fatalf("expected *LetStmt, got %T", stmts[1])
	}
	if _, ok := letB.Value.(*CloneExpr); !ok {
		t.Fatalf("expected CloneExpr, got %T", letB.Value)
	}
	callStmt, ok := stmts[2].(*ExprStmt)
	if !ok {
		t.Fatalf("expected *ExprStmt, got %T", stmts[2])
	}
	call, ok := callStmt.X.(*Call)
	if !ok {
		t.Fatalf("expected *Call, got %T", callStmt.X)
	}
	if _, ok := call.Callee.(*GetProp); !ok {
		t.Fatalf("expected method call callee to be GetProp, got %T", call.Callee)
	}
}

func TestParseProcessExample(t *testing.T) {
	stmts := assertParseSuccess(t, `
let pid = process.create(echo)
process.send(pid, "hi")
print process.receive()
`, "process example")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
}

func TestParseWhileAndLogic(t *testing.T) {
	stmts := assertParseSuccess(t, `
let i = 0
while i < 10 and not done do
  i = i + 1
end
`, "while with logic")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	w, ok := stmts[1].(*WhileStmt)
	if !ok {
		t.Fatalf("expected *WhileStmt, got %T", stmts[1])
	}
	bin, ok := w.Cond.(*Binary)
	if !ok || bin.Op != "and" {
		t.Fatalf("expected top-level 'and' binary, got %+v", w.Cond)
	}
	if _, ok := bin.Right.(*Unary); !ok {
		t.Fatalf("expected 'not done' as unary, got %T", bin.Right)
	}
	if len(w.Body) != 1 {
		t.Fatalf("expected 1 statement in while body, got %d", len(w.Body))
	}
	assign, ok := w.Body[0].(*ExprStmt)
	if !ok {
		t.Fatalf("expected *ExprStmt, got %T", w.Body[0])
	}
	if _, ok := assign.X.(*Assign); !ok {
		t.Fatalf("expected Assign, got %T", assign.X)
	}
}

func TestParseUnterminatedBlockPanics(t *testing.T) {
	_, err := parseString("def f(n)\n  return n\n")
	if err == nil {
		t.Fatalf("expected a syntax error for an unterminated def")
	}
}
