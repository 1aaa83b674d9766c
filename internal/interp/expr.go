package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/kolkov/gawk-core/internal/ast"
	"github.com/kolkov/gawk-core/internal/env"
	"github.com/kolkov/gawk-core/internal/token"
	"github.com/kolkov/gawk-core/internal/types"
)

// eval evaluates an expression node to a Value. Errors returned here
// are either genuine runtime errors or a *ctrlSignal produced by a
// function call whose body hit return/exit; callers up through
// execStmt and Run are responsible for unwrapping the signals they
// understand.
func (it *Interp) eval(e ast.Expr) (types.Value, error) {
	switch n := e.(type) {
	case *ast.NumLit:
		return types.Num(n.Value), nil
	case *ast.StrLit:
		return types.Str(n.Value), nil
	case *ast.RegexLit:
		// A bare /re/ used where a value is expected means "does $0
		// match re", gawk's own shorthand.
		re, err := it.regexes.Get(n.Pattern, it.ignoreCase())
		if err != nil {
			return types.Null(), fmt.Errorf("invalid regex /%s/: %w", n.Pattern, err)
		}
		return types.Bool(re.MatchString(it.rec.line)), nil
	case *ast.Ident:
		return it.evalIdent(n)
	case *ast.FieldExpr:
		idx, err := it.fieldIndex(n.Index)
		if err != nil {
			return types.Null(), err
		}
		return it.getField(idx), nil
	case *ast.IndexExpr:
		arr, err := it.resolveArray(n.Array)
		if err != nil {
			return types.Null(), err
		}
		key, err := it.subscript(n.Index)
		if err != nil {
			return types.Null(), err
		}
		return arr[key], nil
	case *ast.GroupExpr:
		return it.eval(n.Expr)
	case *ast.ConcatExpr:
		var sb strings.Builder
		for _, part := range n.Exprs {
			v, err := it.eval(part)
			if err != nil {
				return types.Null(), err
			}
			sb.WriteString(v.AsStr(it.convfmt()))
		}
		return types.Str(sb.String()), nil
	case *ast.BinaryExpr:
		return it.evalBinary(n)
	case *ast.UnaryExpr:
		return it.evalUnary(n)
	case *ast.TernaryExpr:
		cond, err := it.eval(n.Cond)
		if err != nil {
			return types.Null(), err
		}
		if cond.AsBool() {
			return it.eval(n.Then)
		}
		return it.eval(n.Else)
	case *ast.AssignExpr:
		return it.evalAssign(n)
	case *ast.MatchExpr:
		return it.evalMatch(n)
	case *ast.InExpr:
		arr, err := it.resolveArray(n.Array)
		if err != nil {
			return types.Null(), err
		}
		key, err := it.subscript(n.Index)
		if err != nil {
			return types.Null(), err
		}
		_, ok := arr[key]
		return types.Bool(ok), nil
	case *ast.CallExpr:
		return it.evalCall(n.Name, n.Args)
	case *ast.IndirectCallExpr:
		nameV, err := it.eval(n.Name)
		if err != nil {
			return types.Null(), err
		}
		return it.evalCall(nameV.AsStr(it.convfmt()), n.Args)
	case *ast.BuiltinExpr:
		return it.callBuiltin(n.Func, n.Args)
	case *ast.GetlineExpr:
		return it.evalGetline(n)
	case *ast.CommaExpr:
		// Only meaningful as a range-pattern shape, handled directly by
		// matchPattern; evaluating one standalone has no AWK meaning
		// beyond "right side's truthiness".
		return it.eval(n.Right)
	default:
		return types.Null(), fmt.Errorf("interp: unhandled expression type %T", e)
	}
}

func (it *Interp) evalIdent(n *ast.Ident) (types.Value, error) {
	if n.Name == "NF" {
		it.countNF()
	}
	c := it.env.Lookup(n.Name)
	if c.IsArray() {
		return types.Null(), &env.TypeConflictError{Name: n.Name, AsWhat: "scalar"}
	}
	return c.Scalar(), nil
}

// fieldIndex evaluates the $-expression's index, where a nil index
// means $0.
func (it *Interp) fieldIndex(idx ast.Expr) (int, error) {
	if idx == nil {
		return 0, nil
	}
	v, err := it.eval(idx)
	if err != nil {
		return 0, err
	}
	return int(v.AsNum()), nil
}

// resolveArray evaluates the array-name sub-expression of an
// IndexExpr/InExpr/DeleteStmt down to its backing Array, implicitly
// declaring a fresh global/local array on first array use.
func (it *Interp) resolveArray(e ast.Expr) (env.Array, error) {
	id, ok := e.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("interp: array expression must be a name, got %T", e)
	}
	c := it.env.Lookup(id.Name)
	if c.IsScalar() {
		return nil, &env.TypeConflictError{Name: id.Name, AsWhat: "array"}
	}
	return c.AsArray(), nil
}

// subscript joins one or more index expressions with SUBSEP, AWK's
// sugar for multi-dimensional array access (§3 Array).
func (it *Interp) subscript(indices []ast.Expr) (string, error) {
	if len(indices) == 1 {
		v, err := it.eval(indices[0])
		if err != nil {
			return "", err
		}
		return v.AsStr(it.convfmt()), nil
	}
	parts := make([]string, len(indices))
	for i, idxExpr := range indices {
		v, err := it.eval(idxExpr)
		if err != nil {
			return "", err
		}
		parts[i] = v.AsStr(it.convfmt())
	}
	return strings.Join(parts, it.subsep()), nil
}

func (it *Interp) evalBinary(n *ast.BinaryExpr) (types.Value, error) {
	// && and || short-circuit, so their right operand must not be
	// evaluated eagerly.
	switch n.Op {
	case token.AND:
		l, err := it.eval(n.Left)
		if err != nil {
			return types.Null(), err
		}
		if !l.AsBool() {
			return types.Bool(false), nil
		}
		r, err := it.eval(n.Right)
		if err != nil {
			return types.Null(), err
		}
		return types.Bool(r.AsBool()), nil
	case token.OR:
		l, err := it.eval(n.Left)
		if err != nil {
			return types.Null(), err
		}
		if l.AsBool() {
			return types.Bool(true), nil
		}
		r, err := it.eval(n.Right)
		if err != nil {
			return types.Null(), err
		}
		return types.Bool(r.AsBool()), nil
	}

	l, err := it.eval(n.Left)
	if err != nil {
		return types.Null(), err
	}
	r, err := it.eval(n.Right)
	if err != nil {
		return types.Null(), err
	}

	switch n.Op {
	case token.ADD:
		return types.Num(l.AsNum() + r.AsNum()), nil
	case token.SUB:
		return types.Num(l.AsNum() - r.AsNum()), nil
	case token.MUL:
		return types.Num(l.AsNum() * r.AsNum()), nil
	case token.DIV:
		rv := r.AsNum()
		if rv == 0 {
			return types.Null(), fmt.Errorf("division by zero")
		}
		return types.Num(l.AsNum() / rv), nil
	case token.MOD:
		rv := r.AsNum()
		if rv == 0 {
			return types.Null(), fmt.Errorf("division by zero in %%")
		}
		return types.Num(math.Mod(l.AsNum(), rv)), nil
	case token.POW:
		return types.Num(math.Pow(l.AsNum(), r.AsNum())), nil
	case token.EQUALS:
		return types.Bool(it.compare(l, r) == 0), nil
	case token.NOT_EQUALS:
		return types.Bool(it.compare(l, r) != 0), nil
	case token.LESS:
		return types.Bool(it.compare(l, r) < 0), nil
	case token.LTE:
		return types.Bool(it.compare(l, r) <= 0), nil
	case token.GREATER:
		return types.Bool(it.compare(l, r) > 0), nil
	case token.GTE:
		return types.Bool(it.compare(l, r) >= 0), nil
	default:
		return types.Null(), fmt.Errorf("interp: unhandled binary operator %v", n.Op)
	}
}

// compare implements §4.4's comparison rule, including the
// IGNORECASE-aware string fallback: numeric if both sides are numeric
// (or STRNUM-numeric), otherwise lexicographic on the string form.
func (it *Interp) compare(l, r types.Value) int {
	if it.ignoreCase() {
		_, lStr := l.IsTrueStr()
		_, rStr := r.IsTrueStr()
		if lStr || rStr {
			return strings.Compare(strings.ToLower(l.AsStr(it.convfmt())), strings.ToLower(r.AsStr(it.convfmt())))
		}
	}
	return types.Compare(l, r)
}

func (it *Interp) evalUnary(n *ast.UnaryExpr) (types.Value, error) {
	switch n.Op {
	case token.NOT:
		v, err := it.eval(n.Expr)
		if err != nil {
			return types.Null(), err
		}
		return types.Bool(!v.AsBool()), nil
	case token.SUB:
		v, err := it.eval(n.Expr)
		if err != nil {
			return types.Null(), err
		}
		return types.Num(-v.AsNum()), nil
	case token.ADD:
		v, err := it.eval(n.Expr)
		if err != nil {
			return types.Null(), err
		}
		return types.Num(v.AsNum()), nil
	case token.INCR, token.DECR:
		return it.evalIncrDecr(n)
	default:
		return types.Null(), fmt.Errorf("interp: unhandled unary operator %v", n.Op)
	}
}

func (it *Interp) evalIncrDecr(n *ast.UnaryExpr) (types.Value, error) {
	old, err := it.eval(n.Expr)
	if err != nil {
		return types.Null(), err
	}
	delta := 1.0
	if n.Op == token.DECR {
		delta = -1.0
	}
	newV := types.Num(old.AsNum() + delta)
	if err := it.assignTo(n.Expr, newV); err != nil {
		return types.Null(), err
	}
	if n.Post {
		return types.Num(old.AsNum()), nil
	}
	return newV, nil
}

func (it *Interp) evalMatch(n *ast.MatchExpr) (types.Value, error) {
	v, err := it.eval(n.Expr)
	if err != nil {
		return types.Null(), err
	}
	pattern, err := it.patternString(n.Pattern)
	if err != nil {
		return types.Null(), err
	}
	re, err := it.regexes.Get(pattern, it.ignoreCase())
	if err != nil {
		return types.Null(), fmt.Errorf("invalid regex /%s/: %w", pattern, err)
	}
	matched := re.MatchString(v.AsStr(it.convfmt()))
	if n.Op == token.NOT_MATCH {
		matched = !matched
	}
	return types.Bool(matched), nil
}

// patternString evaluates an expression used in pattern position (the
// right side of ~/!~, or a dynamic regex argument to a builtin),
// special-casing a RegexLit so its raw pattern text is used directly
// rather than being run through MatchString against $0 first.
func (it *Interp) patternString(e ast.Expr) (string, error) {
	if re, ok := e.(*ast.RegexLit); ok {
		return re.Pattern, nil
	}
	v, err := it.eval(e)
	if err != nil {
		return "", err
	}
	if v.Kind() == types.KindRegex {
		return v.Pattern(), nil
	}
	return v.AsStr(it.convfmt()), nil
}

func (it *Interp) evalAssign(n *ast.AssignExpr) (types.Value, error) {
	if n.Op == token.ASSIGN {
		v, err := it.eval(n.Right)
		if err != nil {
			return types.Null(), err
		}
		if err := it.assignTo(n.Left, v); err != nil {
			return types.Null(), err
		}
		return v, nil
	}

	old, err := it.eval(n.Left)
	if err != nil {
		return types.Null(), err
	}
	rhs, err := it.eval(n.Right)
	if err != nil {
		return types.Null(), err
	}
	l, r := old.AsNum(), rhs.AsNum()
	var result float64
	switch n.Op {
	case token.ADD_ASSIGN:
		result = l + r
	case token.SUB_ASSIGN:
		result = l - r
	case token.MUL_ASSIGN:
		result = l * r
	case token.DIV_ASSIGN:
		if r == 0 {
			return types.Null(), fmt.Errorf("division by zero")
		}
		result = l / r
	case token.MOD_ASSIGN:
		if r == 0 {
			return types.Null(), fmt.Errorf("division by zero in %%=")
		}
		result = math.Mod(l, r)
	case token.POW_ASSIGN:
		result = math.Pow(l, r)
	default:
		return types.Null(), fmt.Errorf("interp: unhandled assignment operator %v", n.Op)
	}
	v := types.Num(result)
	if err := it.assignTo(n.Left, v); err != nil {
		return types.Null(), err
	}
	return v, nil
}

// assignTo implements writing through an lvalue: a bare name, a field
// reference, or an array subscript.
func (it *Interp) assignTo(target ast.Expr, v types.Value) error {
	switch t := target.(type) {
	case *ast.Ident:
		if t.Name == "NF" {
			it.SetNF(int(v.AsNum()))
			return nil
		}
		c := it.env.Lookup(t.Name)
		if c.IsArray() {
			return &env.TypeConflictError{Name: t.Name, AsWhat: "scalar"}
		}
		c.SetScalar(v)
		return nil
	case *ast.FieldExpr:
		idx, err := it.fieldIndex(t.Index)
		if err != nil {
			return err
		}
		it.setField(idx, v)
		return nil
	case *ast.IndexExpr:
		arr, err := it.resolveArray(t.Array)
		if err != nil {
			return err
		}
		key, err := it.subscript(t.Index)
		if err != nil {
			return err
		}
		arr[key] = v
		return nil
	default:
		return fmt.Errorf("interp: invalid assignment target %T", target)
	}
}
