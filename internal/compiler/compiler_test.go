package compiler

import (
	"testing"

	"emerald/internal/code"
	"emerald/internal/lexer"
	"emerald/internal/parser"
)

func compileSource(t *testing.T, src string) *code.Code {
	t.Helper()
	tokens := lexer.NewScanner(src).ScanTokens()
	stmts := parser.NewParser(tokens).Parse()
	return Compile(stmts)
}

func opSeq(c *code.Code) []code.Op {
	ops := make([]code.Op, c.NumInstructions())
	for i := range ops {
		ops[i] = c.Instruction(i).Op
	}
	return ops
}

func TestCompileFibRecursion(t *testing.T) {
	root := compileSource(t, `
def fib(n)
  if n < 2 then return n else return fib(n-1) + fib(n-2) end
end
print fib(5)
`)
	if root.NumGlobals() != 1 || root.GlobalName(0) != "fib" {
		t.Fatalf("expected single global 'fib', got %v", root.GlobalNames())
	}
	fn, ok := root.FuncByLabel("fib")
	if !ok {
		t.Fatalf("expected a function registered under label 'fib'")
	}
	if fn.NumLocals() != 1 || fn.LocalName(0) != "n" {
		t.Fatalf("expected fib's sole local to be its parameter 'n' at slot 0, got %v", fn)
	}
	ops := opSeq(fn)
	if len(ops) < 3 || ops[0] != code.Ldloc || ops[2] != code.Lt {
		t.Fatalf("expected fib body to open with n < 2 (ldloc, new_num, lt): %v", ops)
	}
}

func TestCompileObjectClones(t *testing.T) {
	root := compileSource(t, `
object A
  let x = 1
end
object B clones A end
print B.x
`)
	ops := opSeq(root)
	var sawExplicit, sawImplicit bool
	for i, op := range ops {
		if op == code.NewObj {
			if root.Instruction(i).Args[0] == 1 {
				sawExplicit = true
			} else {
				sawImplicit = true
			}
		}
	}
	if !sawImplicit {
		t.Fatalf("expected object A (no clones clause) to compile a plain NewObj: %v", ops)
	}
	if !sawExplicit {
		t.Fatalf("expected object B (clones A) to compile an explicit-parent NewObj: %v", ops)
	}
}

func TestCompileMethodCallPushesSelf(t *testing.T) {
	root := compileSource(t, `
let a = [1, 2, 3]
let b = clone a
b.push(4)
`)
	ops := opSeq(root)
	foundGetPropSelf := false
	foundCallWithTwo := false
	for i, op := range ops {
		if op == code.GetProp && root.Instruction(i).Args[0] == 1 {
			foundGetPropSelf = true
		}
		if op == code.Call && root.Instruction(i).Args[0] == 2 {
			foundCallWithTwo = true
		}
	}
	if !foundGetPropSelf {
		t.Fatalf("expected b.push method lookup to push self back: %v", ops)
	}
	if !foundCallWithTwo {
		t.Fatalf("expected b.push(4) to call with 2 args (self, 4): %v", ops)
	}
}

func TestCompileLogicalShortCircuit(t *testing.T) {
	root := compileSource(t, `
let i = 0
while i < 10 and not false do
  i = i + 1
end
`)
	ops := opSeq(root)
	count := func(op code.Op) int {
		n := 0
		for _, o := range ops {
			if o == op {
				n++
			}
		}
		return n
	}
	if count(code.JmpFalse) < 2 {
		t.Fatalf("expected at least 2 JmpFalse (while guard + and short-circuit): %v", ops)
	}
	if count(code.JmpTrue) < 1 {
		t.Fatalf("expected at least 1 JmpTrue (not's negation dance): %v", ops)
	}
}

func TestCompileProcessExample(t *testing.T) {
	root := compileSource(t, `
import process
let pid = process.create(echo)
process.send(pid, "hi")
print process.receive()
`)
	ops := opSeq(root)
	if ops[0] != code.Import {
		t.Fatalf("expected import to compile first: %v", ops)
	}
	if root.NumGlobals() == 0 {
		t.Fatalf("expected process/pid/echo to register as globals")
	}
	for i, op := range ops {
		if op == code.GetProp && root.Instruction(i).Args[0] == 1 {
			t.Fatalf("process.* calls must not push self back, a native module is not an object instance: %v", ops)
		}
	}
	// process.send(pid, "hi") takes exactly its two written arguments, no
	// implicit leading self.
	foundTwoArgSend := false
	for i, op := range ops {
		if op == code.Call && root.Instruction(i).Args[0] == 2 {
			foundTwoArgSend = true
		}
	}
	if !foundTwoArgSend {
		t.Fatalf("expected process.send(pid, \"hi\") to call with exactly 2 args: %v", ops)
	}
}

func TestCompileAssignmentLeavesValueForChaining(t *testing.T) {
	root := compileSource(t, `
let a = 1
let b = (a = 2)
`)
	ops := opSeq(root)
	// a = 2 compiles to Stgbl then Ldgbl so the outer `let b = ...` has a
	// value to store.
	for i, op := range ops {
		if op == code.Stgbl && i+1 < len(ops) && ops[i+1] == code.Ldgbl {
			return
		}
	}
	t.Fatalf("expected a store immediately followed by a reload for chained assignment: %v", ops)
}
