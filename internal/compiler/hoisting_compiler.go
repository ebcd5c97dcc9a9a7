// internal/compiler/hoisting_compiler.go
package compiler

import "emerald/internal/parser"

// hoistDefs compiles every top-level `def` before any other top-level
// statement runs, so forward and mutual references between top-level
// functions work regardless of textual order (the same goal as the
// original two-pass hoisting, collapsed here into a single pre-pass since
// a def's compiled function value only needs to exist in its global slot
// before first use, not before its own declaration point).
func (c *Compiler) hoistDefs(program []parser.Stmt) {
	for _, s := range program {
		if d, ok := s.(*parser.DefStmt); ok {
			c.compileDef(d)
		}
	}
}
