package parser

// Stmt is a top-level or block-level statement node.
type Stmt interface{ stmtNode() }

// Expr is an expression node.
type Expr interface{ exprNode() }

type (
	// NumberLit: 42, 3.14
	NumberLit struct{ Value float64 }

	// StringLit: "hi"
	StringLit struct{ Value string }

	// BoolLit: true, false
	BoolLit struct{ Value bool }

	// NullLit: null
	NullLit struct{}

	// Ident: a bare name, resolved as local or global at compile time.
	Ident struct{ Name string }

	// Unary: -x, not x
	Unary struct {
		Op    string
		Right Expr
	}

	// Binary: a + b, a and b, a == b, ...
	Binary struct {
		Left  Expr
		Op    string
		Right Expr
	}

	// Assign: target = value. Target is an Ident or a GetProp.
	Assign struct {
		Target Expr
		Value  Expr
	}

	// Call: callee(args...). When Callee is a *GetProp this compiles as a
	// method call (receiver pushed back for self), unless its Obj names a
	// module bound by `import`, whose functions get no receiver.
	Call struct {
		Callee Expr
		Args   []Expr
	}

	// GetProp: obj.name
	GetProp struct {
		Obj  Expr
		Name string
	}

	// ArrayLit: [e1, e2, ...]
	ArrayLit struct{ Elements []Expr }

	// CloneExpr: clone obj
	CloneExpr struct{ Operand Expr }

	// FuncLit: function(params) ... end, an anonymous callable value.
	FuncLit struct {
		Params []string
		Body   []Stmt
	}
)

func (*NumberLit) exprNode() {}
func (*StringLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*NullLit) exprNode()   {}
func (*Ident) exprNode()     {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Assign) exprNode()    {}
func (*Call) exprNode()      {}
func (*GetProp) exprNode()   {}
func (*ArrayLit) exprNode()  {}
func (*CloneExpr) exprNode() {}
func (*FuncLit) exprNode()   {}

type (
	// ExprStmt: an expression evaluated for its side effect; its result is
	// left on the operand stack (there is no pop instruction).
	ExprStmt struct{ X Expr }

	// PrintStmt: print Expr
	PrintStmt struct{ X Expr }

	// LetStmt: let name = value, declares a new local/global binding.
	LetStmt struct {
		Name  string
		Value Expr
	}

	// IfStmt: if cond then ... [else ...] end
	IfStmt struct {
		Cond Expr
		Then []Stmt
		Else []Stmt
	}

	// WhileStmt: while cond do ... end
	WhileStmt struct {
		Cond Expr
		Body []Stmt
	}

	// ReturnStmt: return [value]. Value is nil for a bare return.
	ReturnStmt struct{ Value Expr }

	// DefStmt: def name(params) ... end, a named function declaration.
	DefStmt struct {
		Name   string
		Params []string
		Body   []Stmt
	}

	// ObjectProp is one `let name = value` line inside an object body.
	ObjectProp struct {
		Name  string
		Value Expr
	}

	// ObjectStmt: object name [clones parent] let a = 1 ... end
	ObjectStmt struct {
		Name   string
		Parent Expr // nil when no `clones` clause
		Props  []ObjectProp
	}

	// ImportStmt: import name
	ImportStmt struct{ Name string }
)

func (*ExprStmt) stmtNode()   {}
func (*PrintStmt) stmtNode()  {}
func (*LetStmt) stmtNode()    {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*ReturnStmt) stmtNode() {}
func (*DefStmt) stmtNode()    {}
func (*ObjectStmt) stmtNode() {}
func (*ImportStmt) stmtNode() {}
