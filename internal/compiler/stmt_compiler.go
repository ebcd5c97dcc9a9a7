// internal/compiler/stmt_compiler.go
package compiler

import (
	"emerald/internal/parser"
)

func (c *Compiler) block(stmts []parser.Stmt) {
	for _, s := range stmts {
		c.stmt(s)
	}
}

func (c *Compiler) stmt(s parser.Stmt) {
	switch v := s.(type) {
	case *parser.ExprStmt:
		c.expr(v.X)

	case *parser.PrintStmt:
		c.expr(v.X)
		c.cur().WritePrint()

	case *parser.LetStmt:
		c.letStmt(v)

	case *parser.IfStmt:
		c.ifStmt(v)

	case *parser.WhileStmt:
		c.whileStmt(v)

	case *parser.ReturnStmt:
		if v.Value != nil {
			c.expr(v.Value)
		} else {
			c.cur().WriteNull()
		}
		c.cur().WriteRet()

	case *parser.DefStmt:
		c.compileDef(v)

	case *parser.ObjectStmt:
		c.objectStmt(v)

	case *parser.ImportStmt:
		c.cur().WriteImport(v.Name)
		c.cur().WriteStgbl(v.Name)
		c.imports[v.Name] = true

	default:
		panic(&compileError{msg: "unsupported statement node"})
	}
}

// letStmt declares a new binding: a local inside a function body, a module
// global at the top level.
func (c *Compiler) letStmt(l *parser.LetStmt) {
	c.expr(l.Value)
	if !c.top().isTop {
		c.declareLocal(l.Name)
	}
	c.store(l.Name)
}

func (c *Compiler) ifStmt(i *parser.IfStmt) {
	c.expr(i.Cond)
	elseLabel := c.cur().CreateLabel()
	end := c.cur().CreateLabel()
	c.cur().WriteJmpFalse(elseLabel)
	c.block(i.Then)
	c.cur().WriteJmp(end)
	c.cur().BindLabel(elseLabel)
	c.block(i.Else)
	c.cur().BindLabel(end)
}

func (c *Compiler) whileStmt(w *parser.WhileStmt) {
	start := c.cur().CreateLabel()
	end := c.cur().CreateLabel()
	c.cur().BindLabel(start)
	c.expr(w.Cond)
	c.cur().WriteJmpFalse(end)
	c.block(w.Body)
	c.cur().WriteJmp(start)
	c.cur().BindLabel(end)
}

// compileDef emits `def name(params) ... end` as a function literal bound
// to a global of the same name, so calls to it resolve via Ldgbl like any
// other top-level function reference, hoisted or not.
func (c *Compiler) compileDef(d *parser.DefStmt) {
	child := c.cur().WriteNewFunc(d.Name)
	c.compileFuncBody(child, d.Params, d.Body)
	c.cur().WriteStgbl(d.Name)
}

// objectStmt emits `object name [clones parent] let a = 1 ... end` as a
// NewObj with an explicit parent (when `clones` is present) or the bare
// Object prototype otherwise, storing the result as a global of the
// object's name. Push order follows internal/interp/dispatch.go's newObj:
// [parentExpr?] then, per property, [value, key], popped key-then-value
// per pair and parent last.
func (c *Compiler) objectStmt(o *parser.ObjectStmt) {
	if o.Parent != nil {
		c.expr(o.Parent)
	}
	for _, prop := range o.Props {
		c.expr(prop.Value)
		c.cur().WriteNewStr(prop.Name)
	}
	c.cur().WriteNewObj(o.Parent != nil, len(o.Props))
	c.cur().WriteStgbl(o.Name)
}
