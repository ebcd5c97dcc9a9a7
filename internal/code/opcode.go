// Package code defines the compiled bytecode unit the interpreter executes.
package code

// Op is a single bytecode opcode.
type Op uint8

const (
	Nop Op = iota
	Jmp
	JmpTrue
	JmpFalse

	Neg
	Add
	Sub
	Mul
	Div
	Mod
	IAdd
	ISub
	IMul
	IDiv
	IMod

	Eq
	Neq
	Lt
	Gt
	Lte
	Gte

	BitNot
	BitOr
	BitXor
	BitAnd
	BitShl
	BitShr

	Str
	Boolean

	Call
	Ret

	NewObj
	Init
	NewFunc
	NewNum
	NewStr
	NewBoolean
	NewArr
	Null

	GetProp
	HasProp
	SetProp
	GetParent

	Ldloc
	Stloc
	Ldgbl
	Stgbl

	Print
	Import

	numOps
)

var names = [numOps]string{
	Nop: "nop", Jmp: "jmp", JmpTrue: "jmp_true", JmpFalse: "jmp_false",
	Neg: "neg", Add: "add", Sub: "sub", Mul: "mul", Div: "div", Mod: "mod",
	IAdd: "iadd", ISub: "isub", IMul: "imul", IDiv: "idiv", IMod: "imod",
	Eq: "eq", Neq: "neq", Lt: "lt", Gt: "gt", Lte: "lte", Gte: "gte",
	BitNot: "bit_not", BitOr: "bit_or", BitXor: "bit_xor", BitAnd: "bit_and",
	BitShl: "bit_shl", BitShr: "bit_shr",
	Str: "str", Boolean: "boolean",
	Call: "call", Ret: "ret",
	NewObj: "new_obj", Init: "init", NewFunc: "new_func", NewNum: "new_num",
	NewStr: "new_str", NewBoolean: "new_boolean", NewArr: "new_arr", Null: "null",
	GetProp: "get_prop", HasProp: "has_prop", SetProp: "set_prop", GetParent: "get_parent",
	Ldloc: "ldloc", Stloc: "stloc", Ldgbl: "ldgbl", Stgbl: "stgbl",
	Print: "print", Import: "import",
}

// argCounts gives the number of encoded arguments for each opcode. This
// mirrors the x-macro opcode table in the original source's opcode.h.
var argCounts = [numOps]uint8{
	Nop: 0, Jmp: 1, JmpTrue: 1, JmpFalse: 1,
	Neg: 0, Add: 0, Sub: 0, Mul: 0, Div: 0, Mod: 0,
	IAdd: 0, ISub: 0, IMul: 0, IDiv: 0, IMod: 0,
	Eq: 0, Neq: 0, Lt: 0, Gt: 0, Lte: 0, Gte: 0,
	BitNot: 0, BitOr: 0, BitXor: 0, BitAnd: 0, BitShl: 0, BitShr: 0,
	Str: 0, Boolean: 0,
	Call: 1, Ret: 0,
	NewObj: 2, Init: 1, NewFunc: 1, NewNum: 1, NewStr: 1, NewBoolean: 1, NewArr: 1, Null: 0,
	GetProp: 1, HasProp: 1, SetProp: 1, GetParent: 0,
	Ldloc: 1, Stloc: 1, Ldgbl: 1, Stgbl: 1,
	Print: 0, Import: 1,
}

// String renders the opcode mnemonic, used by Code.String for disassembly.
func (op Op) String() string {
	if int(op) < len(names) {
		return names[op]
	}
	return "unknown"
}

// ArgCount reports how many uint32 arguments an instruction of this opcode carries.
func (op Op) ArgCount() int {
	if int(op) < len(argCounts) {
		return int(argCounts[op])
	}
	return 0
}

// Instruction is one opcode plus 0-3 unsigned arguments, matching
// spec.md §6's instruction format.
type Instruction struct {
	Op   Op
	Args [3]uint32
}

func (i Instruction) String() string {
	s := i.Op.String()
	for n := 0; n < i.Op.ArgCount(); n++ {
		s += " "
		s += itoa(i.Args[n])
	}
	return s
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	n := len(buf)
	for v > 0 {
		n--
		buf[n] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[n:])
}
