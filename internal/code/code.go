package code

import (
	"fmt"
	"strings"
)

// labelEntry tracks a label's resolved position and any jump instructions
// written before the label was bound (spec.md §4.1 backpatching).
type labelEntry struct {
	pos             int
	bound           bool
	unboundRewrites []int
}

// Code is an immutable-after-compilation compiled unit: instructions,
// constant pools, nested function codes, and name tables (spec.md §3, §4.1).
type Code struct {
	Label string
	ID    int

	instructions []Instruction

	functions      []*Code
	functionLabels map[string]int

	numConstants []float64
	strConstants []string

	importNames []string

	labels []labelEntry

	locals  []string
	globals *[]string // shared across a module's functions, as in the original Code::_globals

	nextFuncID *int
}

// New creates a root Code unit (a module's top-level code). Nested
// function Codes created via WriteNewFunc share this unit's global name
// table and function-id counter, mirroring the Code constructor chain in
// the original source's code.cpp.
func New(label string) *Code {
	globals := make([]string, 0)
	counter := 0
	return &Code{
		Label:          label,
		ID:             0,
		functionLabels: make(map[string]int),
		globals:        &globals,
		nextFuncID:     &counter,
	}
}

func newChild(label string, globals *[]string, nextFuncID *int) *Code {
	*nextFuncID++
	return &Code{
		Label:          label,
		ID:             *nextFuncID,
		functionLabels: make(map[string]int),
		globals:        globals,
		nextFuncID:     nextFuncID,
	}
}

func (c *Code) write(instr Instruction) int {
	c.instructions = append(c.instructions, instr)
	return len(c.instructions) - 1
}

// NumInstructions reports the instruction count.
func (c *Code) NumInstructions() int { return len(c.instructions) }

// Instruction returns the instruction at position i.
func (c *Code) Instruction(i int) Instruction { return c.instructions[i] }

// CreateLabel allocates a new unbound label, returning its id.
func (c *Code) CreateLabel() int {
	c.labels = append(c.labels, labelEntry{})
	return len(c.labels) - 1
}

// BindLabel fixes a previously created label to the current end of the
// instruction stream and backpatches every jump that referenced it.
func (c *Code) BindLabel(label int) {
	pos := len(c.instructions)
	entry := &c.labels[label]
	entry.pos = pos
	entry.bound = true
	for _, ip := range entry.unboundRewrites {
		c.instructions[ip].Args[0] = uint32(pos)
	}
	entry.unboundRewrites = nil
}

func (c *Code) labelOffset(label int) (int, bool) {
	entry := &c.labels[label]
	if entry.bound {
		return entry.pos, true
	}
	return 0, false
}

func (c *Code) writeJump(op Op, label int) int {
	pos, bound := c.labelOffset(label)
	ip := c.write(Instruction{Op: op, Args: [3]uint32{uint32(pos)}})
	if !bound {
		entry := &c.labels[label]
		entry.unboundRewrites = append(entry.unboundRewrites, ip)
	}
	return ip
}

func (c *Code) WriteJmp(label int) int       { return c.writeJump(Jmp, label) }
func (c *Code) WriteJmpTrue(label int) int   { return c.writeJump(JmpTrue, label) }
func (c *Code) WriteJmpFalse(label int) int  { return c.writeJump(JmpFalse, label) }

func (c *Code) WriteNop()    { c.write(Instruction{Op: Nop}) }
func (c *Code) WriteNeg()    { c.write(Instruction{Op: Neg}) }
func (c *Code) WriteAdd()    { c.write(Instruction{Op: Add}) }
func (c *Code) WriteSub()    { c.write(Instruction{Op: Sub}) }
func (c *Code) WriteMul()    { c.write(Instruction{Op: Mul}) }
func (c *Code) WriteDiv()    { c.write(Instruction{Op: Div}) }
func (c *Code) WriteMod()    { c.write(Instruction{Op: Mod}) }
func (c *Code) WriteIAdd()   { c.write(Instruction{Op: IAdd}) }
func (c *Code) WriteISub()   { c.write(Instruction{Op: ISub}) }
func (c *Code) WriteIMul()   { c.write(Instruction{Op: IMul}) }
func (c *Code) WriteIDiv()   { c.write(Instruction{Op: IDiv}) }
func (c *Code) WriteIMod()   { c.write(Instruction{Op: IMod}) }
func (c *Code) WriteEq()     { c.write(Instruction{Op: Eq}) }
func (c *Code) WriteNeq()    { c.write(Instruction{Op: Neq}) }
func (c *Code) WriteLt()     { c.write(Instruction{Op: Lt}) }
func (c *Code) WriteGt()     { c.write(Instruction{Op: Gt}) }
func (c *Code) WriteLte()    { c.write(Instruction{Op: Lte}) }
func (c *Code) WriteGte()    { c.write(Instruction{Op: Gte}) }
func (c *Code) WriteBitNot() { c.write(Instruction{Op: BitNot}) }
func (c *Code) WriteBitOr()  { c.write(Instruction{Op: BitOr}) }
func (c *Code) WriteBitXor() { c.write(Instruction{Op: BitXor}) }
func (c *Code) WriteBitAnd() { c.write(Instruction{Op: BitAnd}) }
func (c *Code) WriteBitShl() { c.write(Instruction{Op: BitShl}) }
func (c *Code) WriteBitShr() { c.write(Instruction{Op: BitShr}) }
func (c *Code) WriteStr()    { c.write(Instruction{Op: Str}) }
func (c *Code) WriteBoolean(){ c.write(Instruction{Op: Boolean}) }
func (c *Code) WritePrint()  { c.write(Instruction{Op: Print}) }
func (c *Code) WriteGetParent() { c.write(Instruction{Op: GetParent}) }
func (c *Code) WriteNull()   { c.write(Instruction{Op: Null}) }

func (c *Code) WriteCall(numArgs int) {
	c.write(Instruction{Op: Call, Args: [3]uint32{uint32(numArgs)}})
}

func (c *Code) WriteRet() { c.write(Instruction{Op: Ret}) }

func (c *Code) WriteNewObj(explicitParent bool, numProps int) {
	ep := uint32(0)
	if explicitParent {
		ep = 1
	}
	c.write(Instruction{Op: NewObj, Args: [3]uint32{ep, uint32(numProps)}})
}

func (c *Code) WriteInit(numArgs int) {
	c.write(Instruction{Op: Init, Args: [3]uint32{uint32(numArgs)}})
}

// WriteNewFunc allocates a nested Code for a function literal and emits
// the instruction that pushes a Function referencing it.
func (c *Code) WriteNewFunc(label string) *Code {
	child := newChild(label, c.globals, c.nextFuncID)
	idx := len(c.functions)
	c.functions = append(c.functions, child)
	c.functionLabels[label] = idx
	c.write(Instruction{Op: NewFunc, Args: [3]uint32{uint32(idx)}})
	return child
}

// WriteNewNum interns a numeric constant and emits the loading instruction.
func (c *Code) WriteNewNum(val float64) int {
	for i, v := range c.numConstants {
		if v == val {
			c.write(Instruction{Op: NewNum, Args: [3]uint32{uint32(i)}})
			return i
		}
	}
	idx := len(c.numConstants)
	c.numConstants = append(c.numConstants, val)
	c.write(Instruction{Op: NewNum, Args: [3]uint32{uint32(idx)}})
	return idx
}

// WriteNewStr interns a string constant and emits the loading instruction.
func (c *Code) WriteNewStr(val string) int {
	for i, v := range c.strConstants {
		if v == val {
			c.write(Instruction{Op: NewStr, Args: [3]uint32{uint32(i)}})
			return i
		}
	}
	idx := len(c.strConstants)
	c.strConstants = append(c.strConstants, val)
	c.write(Instruction{Op: NewStr, Args: [3]uint32{uint32(idx)}})
	return idx
}

func (c *Code) WriteNewBoolean(val bool) {
	v := uint32(0)
	if val {
		v = 1
	}
	c.write(Instruction{Op: NewBoolean, Args: [3]uint32{v}})
}

func (c *Code) WriteNewArr(numElems int) {
	c.write(Instruction{Op: NewArr, Args: [3]uint32{uint32(numElems)}})
}

func boolArg(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func (c *Code) WriteGetProp(pushSelfBack bool) {
	c.write(Instruction{Op: GetProp, Args: [3]uint32{boolArg(pushSelfBack)}})
}

func (c *Code) WriteHasProp(pushSelfBack bool) {
	c.write(Instruction{Op: HasProp, Args: [3]uint32{boolArg(pushSelfBack)}})
}

func (c *Code) WriteSetProp(pushSelfBack bool) {
	c.write(Instruction{Op: SetProp, Args: [3]uint32{boolArg(pushSelfBack)}})
}

func (c *Code) localID(name string) int {
	for i, n := range c.locals {
		if n == name {
			return i
		}
	}
	c.locals = append(c.locals, name)
	return len(c.locals) - 1
}

// DeclareLocal pre-registers name's slot without emitting an instruction,
// so a function's parameters can be assigned slots 0..n-1 in declaration
// order before the body (which may reference them in any order) runs its
// own first Ldloc/Stloc. Parameter binding itself happens positionally at
// call time (frame.SetLocal), so the compiler must make sure that position
// lines up with the name this slot will be looked up by.
func (c *Code) DeclareLocal(name string) int {
	return c.localID(name)
}

func (c *Code) globalID(name string) int {
	for i, n := range *c.globals {
		if n == name {
			return i
		}
	}
	*c.globals = append(*c.globals, name)
	return len(*c.globals) - 1
}

func (c *Code) WriteLdloc(name string) { c.write(Instruction{Op: Ldloc, Args: [3]uint32{uint32(c.localID(name))}}) }
func (c *Code) WriteStloc(name string) { c.write(Instruction{Op: Stloc, Args: [3]uint32{uint32(c.localID(name))}}) }
func (c *Code) WriteLdgbl(name string) { c.write(Instruction{Op: Ldgbl, Args: [3]uint32{uint32(c.globalID(name))}}) }
func (c *Code) WriteStgbl(name string) { c.write(Instruction{Op: Stgbl, Args: [3]uint32{uint32(c.globalID(name))}}) }

func (c *Code) WriteImport(name string) int {
	for i, n := range c.importNames {
		if n == name {
			c.write(Instruction{Op: Import, Args: [3]uint32{uint32(i)}})
			return i
		}
	}
	idx := len(c.importNames)
	c.importNames = append(c.importNames, name)
	c.write(Instruction{Op: Import, Args: [3]uint32{uint32(idx)}})
	return idx
}

// Accessors used by the interpreter.

func (c *Code) NumConstant(id int) float64  { return c.numConstants[id] }
func (c *Code) StrConstant(id int) string   { return c.strConstants[id] }
func (c *Code) ImportName(id int) string    { return c.importNames[id] }
func (c *Code) ImportNames() []string       { return c.importNames }
func (c *Code) LocalName(id int) string     { return c.locals[id] }
func (c *Code) NumLocals() int              { return len(c.locals) }
func (c *Code) GlobalName(id int) string    { return (*c.globals)[id] }
func (c *Code) NumGlobals() int             { return len(*c.globals) }
func (c *Code) GlobalNames() []string       { return *c.globals }

func (c *Code) Func(id int) *Code { return c.functions[id] }
func (c *Code) FuncByLabel(label string) (*Code, bool) {
	id, ok := c.functionLabels[label]
	if !ok {
		return nil, false
	}
	return c.functions[id], true
}
func (c *Code) Functions() []*Code { return c.functions }

// String renders a disassembly tree, used by the `ast`/debug CLI surface.
func (c *Code) String() string { return c.stringDepth(0) }

func (c *Code) stringDepth(depth int) string {
	indent := strings.Repeat("  ", depth)
	var b strings.Builder
	fmt.Fprintf(&b, "%sfunc %s (id=%d, locals=%d)\n", indent, c.Label, c.ID, len(c.locals))
	for i, instr := range c.instructions {
		fmt.Fprintf(&b, "%s  %4d: %s\n", indent, i, instr.String())
	}
	for _, f := range c.functions {
		b.WriteString(f.stringDepth(depth + 1))
	}
	return b.String()
}
