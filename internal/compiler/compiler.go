// internal/compiler/compiler.go
package compiler

import (
	"emerald/internal/code"
	"emerald/internal/parser"
)

// scope tracks one function's (or the top-level module's) local names.
// Locals are flat within a function, matching code.Code's Ldloc/Stloc name
// table; names not declared local in the current scope resolve as module
// globals (Ldgbl/Stgbl) — there are no closures over an enclosing function's
// locals, only over the shared module globals, mirroring how object.Function
// carries FuncGlobals but no captured-locals environment.
type scope struct {
	code   *code.Code
	locals map[string]bool
	isTop  bool
}

// Compiler walks a parsed program and emits a code.Code tree via the
// instruction-builder API. One Compiler compiles one source unit (one script
// or one imported module); nested def/function bodies become child Codes
// reached through scope push/pop during the walk.
type Compiler struct {
	scopes  []*scope
	imports map[string]bool // names bound by `import name`, see call()
}

// Compile compiles a full program into its module-level Code.
func Compile(program []parser.Stmt) *code.Code {
	c := &Compiler{imports: map[string]bool{}}
	root := code.New("main")
	c.scopes = append(c.scopes, &scope{code: root, locals: map[string]bool{}, isTop: true})
	c.hoistDefs(program)
	for _, s := range program {
		if _, ok := s.(*parser.DefStmt); ok {
			continue // already compiled by hoistDefs
		}
		c.stmt(s)
	}
	return root
}

func (c *Compiler) top() *scope     { return c.scopes[len(c.scopes)-1] }
func (c *Compiler) cur() *code.Code { return c.top().code }

func (c *Compiler) pushFunc(child *code.Code) {
	c.scopes = append(c.scopes, &scope{code: child, locals: map[string]bool{}})
}

func (c *Compiler) popFunc() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// declareLocal marks name as a local of the current function scope; at the
// top level there is no function, so `let` there declares a module global
// instead (handled by the caller, which simply never calls declareLocal).
func (c *Compiler) declareLocal(name string) {
	c.top().locals[name] = true
}

func (c *Compiler) isLocal(name string) bool {
	return !c.top().isTop && c.top().locals[name]
}

func (c *Compiler) load(name string) {
	if c.isLocal(name) {
		c.cur().WriteLdloc(name)
	} else {
		c.cur().WriteLdgbl(name)
	}
}

func (c *Compiler) store(name string) {
	if c.isLocal(name) {
		c.cur().WriteStloc(name)
	} else {
		c.cur().WriteStgbl(name)
	}
}

// expr compiles an expression node, leaving exactly one value on the
// operand stack.
func (c *Compiler) expr(e parser.Expr) {
	switch v := e.(type) {
	case *parser.NumberLit:
		c.cur().WriteNewNum(v.Value)

	case *parser.StringLit:
		c.cur().WriteNewStr(v.Value)

	case *parser.BoolLit:
		c.cur().WriteNewBoolean(v.Value)

	case *parser.NullLit:
		c.cur().WriteNull()

	case *parser.Ident:
		c.load(v.Name)

	case *parser.Unary:
		c.unary(v)

	case *parser.Binary:
		c.binary(v)

	case *parser.Assign:
		c.assign(v)

	case *parser.GetProp:
		c.expr(v.Obj)
		c.cur().WriteNewStr(v.Name)
		c.cur().WriteGetProp(false)

	case *parser.Call:
		c.call(v)

	case *parser.ArrayLit:
		for _, el := range v.Elements {
			c.expr(el)
		}
		c.cur().WriteNewArr(len(v.Elements))

	case *parser.CloneExpr:
		c.expr(v.Operand)
		c.cur().WriteNewObj(true, 0)

	case *parser.FuncLit:
		c.funcLit(v)

	default:
		panic(&compileError{msg: "unsupported expression node"})
	}
}

type compileError struct{ msg string }

func (e *compileError) Error() string { return "compile error: " + e.msg }

func (c *Compiler) unary(u *parser.Unary) {
	switch u.Op {
	case "-":
		c.expr(u.Right)
		c.cur().WriteNeg()

	case "not":
		c.expr(u.Right)
		isTrue := c.cur().CreateLabel()
		end := c.cur().CreateLabel()
		c.cur().WriteJmpTrue(isTrue)
		c.cur().WriteNewBoolean(true)
		c.cur().WriteJmp(end)
		c.cur().BindLabel(isTrue)
		c.cur().WriteNewBoolean(false)
		c.cur().BindLabel(end)

	default:
		panic(&compileError{msg: "unknown unary operator " + u.Op})
	}
}

func (c *Compiler) binary(b *parser.Binary) {
	switch b.Op {
	case "and":
		c.expr(b.Left)
		isFalse := c.cur().CreateLabel()
		end := c.cur().CreateLabel()
		c.cur().WriteJmpFalse(isFalse)
		c.expr(b.Right)
		c.cur().WriteBoolean()
		c.cur().WriteJmp(end)
		c.cur().BindLabel(isFalse)
		c.cur().WriteNewBoolean(false)
		c.cur().BindLabel(end)
		return

	case "or":
		c.expr(b.Left)
		isTrue := c.cur().CreateLabel()
		end := c.cur().CreateLabel()
		c.cur().WriteJmpTrue(isTrue)
		c.expr(b.Right)
		c.cur().WriteBoolean()
		c.cur().WriteJmp(end)
		c.cur().BindLabel(isTrue)
		c.cur().WriteNewBoolean(true)
		c.cur().BindLabel(end)
		return
	}

	c.expr(b.Left)
	c.expr(b.Right)
	switch b.Op {
	case "+":
		c.cur().WriteAdd()
	case "-":
		c.cur().WriteSub()
	case "*":
		c.cur().WriteMul()
	case "/":
		c.cur().WriteDiv()
	case "%":
		c.cur().WriteMod()
	case "==":
		c.cur().WriteEq()
	case "!=":
		c.cur().WriteNeq()
	case "<":
		c.cur().WriteLt()
	case ">":
		c.cur().WriteGt()
	case "<=":
		c.cur().WriteLte()
	case ">=":
		c.cur().WriteGte()
	default:
		panic(&compileError{msg: "unknown binary operator " + b.Op})
	}
}

// assign compiles `target = value`, leaving the assigned value on the
// stack (there is no dup/pop opcode, so the stored slot is simply reloaded).
func (c *Compiler) assign(a *parser.Assign) {
	switch t := a.Target.(type) {
	case *parser.Ident:
		c.expr(a.Value)
		c.store(t.Name)
		c.load(t.Name)

	case *parser.GetProp:
		c.expr(a.Value) // val
		c.cur().WriteNewStr(t.Name) // key
		c.expr(t.Obj) // obj
		c.cur().WriteSetProp(true)

	default:
		panic(&compileError{msg: "invalid assignment target"})
	}
}

// call compiles callee(args...). A *GetProp callee on anything other than
// an imported module name is a method call: the receiver is pushed back by
// GetProp(pushSelfBack=true) and folded into the call's argument count as
// an implicit leading self parameter, matching how every object/array/
// collection method in this tree takes self explicitly (dispatch.go's
// Call/GetProp convention). A GetProp rooted at an imported module
// (process.send, crypto.sha256, ...) is a plain namespaced function call:
// native modules are not object instances and their functions read args
// from index 0, not index 1.
func (c *Compiler) call(call *parser.Call) {
	if getProp, ok := call.Callee.(*parser.GetProp); ok && !c.isModuleRef(getProp.Obj) {
		c.expr(getProp.Obj)
		c.cur().WriteNewStr(getProp.Name)
		c.cur().WriteGetProp(true) // -> [method, self]
		for _, a := range call.Args {
			c.expr(a)
		}
		c.cur().WriteCall(len(call.Args) + 1)
		return
	}
	c.expr(call.Callee)
	for _, a := range call.Args {
		c.expr(a)
	}
	c.cur().WriteCall(len(call.Args))
}

// isModuleRef reports whether e is a bare reference to a name bound by
// `import name`.
func (c *Compiler) isModuleRef(e parser.Expr) bool {
	ident, ok := e.(*parser.Ident)
	return ok && c.imports[ident.Name]
}

func (c *Compiler) funcLit(lit *parser.FuncLit) {
	child := c.cur().WriteNewFunc("")
	c.compileFuncBody(child, lit.Params, lit.Body)
}

// compileFuncBody compiles a function's parameter bindings and body into
// child. Parameters are pre-registered via Code.DeclareLocal in order so
// their slots (0..n-1) line up with the positional args a call binds via
// frame.SetLocal, regardless of what order the body happens to reference
// them in.
func (c *Compiler) compileFuncBody(child *code.Code, params []string, body []parser.Stmt) {
	c.pushFunc(child)
	for _, p := range params {
		c.declareLocal(p)
		child.DeclareLocal(p)
	}
	c.block(body)
	c.cur().WriteNull()
	c.cur().WriteRet()
	c.popFunc()
}
