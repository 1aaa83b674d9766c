package env

import (
	"github.com/kolkov/gawk-core/internal/ast"
)

// BindCall pushes a new call frame for fn and binds args positionally
// to its parameters. Each entry in args is the Cell to bind for that
// position: the interpreter passes a fresh NewScalarCell(v) for a plain
// value expression or a bare name already committed to scalar (pass by
// value), or the caller variable's own Cell for a bare-name argument
// that is an array or still untyped (pass by reference -- required for
// arrays, and for still-untyped variables so a callee that commits one
// to an array is visible to the caller afterward). Extra declared
// parameters beyond len(args) (AWK's "extra parameters are locals"
// convention) get fresh, unset cells. Returns the new frame so the
// caller can pop it when the call returns.
func (e *Environment) BindCall(fn *ast.FuncDecl, args []*Cell) (*Frame, error) {
	frame, err := e.calls.Push(fn.Name, fn.Params)
	if err != nil {
		return nil, err
	}
	for i, param := range fn.Params {
		if i < len(args) && args[i] != nil {
			frame.cells[param] = args[i]
		} else {
			frame.cells[param] = NewCell()
		}
	}
	return frame, nil
}

// EndCall pops the innermost call frame. Safe to call unconditionally
// via defer even if BindCall failed (Pop is a no-op on empty stack).
func (e *Environment) EndCall() {
	e.calls.Pop()
}
