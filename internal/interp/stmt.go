package interp

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/kolkov/gawk-core/internal/ast"
	"github.com/kolkov/gawk-core/internal/env"
	"github.com/kolkov/gawk-core/internal/token"
	"github.com/kolkov/gawk-core/internal/types"
)

// execStmt executes a statement node. It returns a plain error for a
// genuine runtime failure, or a *ctrlSignal for any of the non-local
// transfers (break/continue/next/nextfile/return/exit); loops consume
// sigBreak/sigContinue themselves, a switch consumes sigBreak (so a
// continue in a case body reaches the enclosing loop), and everything
// else propagates.
func (it *Interp) execStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.BlockStmt:
		for _, stmt := range n.Stmts {
			if err := it.execStmt(stmt); err != nil {
				return err
			}
		}
		return nil
	case *ast.ExprStmt:
		_, err := it.eval(n.Expr)
		return err
	case *ast.PrintStmt:
		return it.execPrint(n)
	case *ast.IfStmt:
		cond, err := it.eval(n.Cond)
		if err != nil {
			return err
		}
		if cond.AsBool() {
			return it.execStmt(n.Then)
		}
		if n.Else != nil {
			return it.execStmt(n.Else)
		}
		return nil
	case *ast.WhileStmt:
		return it.execWhile(n)
	case *ast.DoWhileStmt:
		return it.execDoWhile(n)
	case *ast.ForStmt:
		return it.execFor(n)
	case *ast.ForInStmt:
		return it.execForIn(n)
	case *ast.BreakStmt:
		return errBreak()
	case *ast.ContinueStmt:
		return errContinue()
	case *ast.NextStmt:
		return errNext()
	case *ast.NextFileStmt:
		return errNextFile()
	case *ast.ReturnStmt:
		if n.Value == nil {
			return errReturn(types.Null())
		}
		v, err := it.eval(n.Value)
		if err != nil {
			return err
		}
		return errReturn(v)
	case *ast.ExitStmt:
		code := 0
		if n.Code != nil {
			v, err := it.eval(n.Code)
			if err != nil {
				return err
			}
			code = int(v.AsNum())
		}
		return errExit(code)
	case *ast.DeleteStmt:
		return it.execDelete(n)
	case *ast.SwitchStmt:
		return it.execSwitch(n)
	default:
		return fmt.Errorf("interp: unhandled statement type %T", s)
	}
}

func (it *Interp) execWhile(n *ast.WhileStmt) error {
	for {
		cond, err := it.eval(n.Cond)
		if err != nil {
			return err
		}
		if !cond.AsBool() {
			return nil
		}
		if err := it.execStmt(n.Body); err != nil {
			if _, ok := asSignal(err, sigBreak); ok {
				return nil
			}
			if _, ok := asSignal(err, sigContinue); ok {
				continue
			}
			return err
		}
	}
}

func (it *Interp) execDoWhile(n *ast.DoWhileStmt) error {
	for {
		if err := it.execStmt(n.Body); err != nil {
			if _, ok := asSignal(err, sigBreak); ok {
				return nil
			}
			if _, ok := asSignal(err, sigContinue); !ok {
				return err
			}
		}
		cond, err := it.eval(n.Cond)
		if err != nil {
			return err
		}
		if !cond.AsBool() {
			return nil
		}
	}
}

func (it *Interp) execFor(n *ast.ForStmt) error {
	if n.Init != nil {
		if err := it.execStmt(n.Init); err != nil {
			return err
		}
	}
	for {
		if n.Cond != nil {
			cond, err := it.eval(n.Cond)
			if err != nil {
				return err
			}
			if !cond.AsBool() {
				return nil
			}
		}
		if err := it.execStmt(n.Body); err != nil {
			if _, ok := asSignal(err, sigBreak); ok {
				return nil
			}
			if _, ok := asSignal(err, sigContinue); !ok {
				return err
			}
		}
		if n.Post != nil {
			if err := it.execStmt(n.Post); err != nil {
				return err
			}
		}
	}
}

// execForIn iterates a snapshot of the array's current keys, per
// spec's resolution that `for (k in arr)` order is unspecified and
// need not reflect concurrent mutation mid-loop.
func (it *Interp) execForIn(n *ast.ForInStmt) error {
	arr, err := it.resolveArray(n.Array)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(arr))
	for k := range arr {
		keys = append(keys, k)
	}
	loopVar := it.env.Lookup(n.Var.Name)
	for _, k := range keys {
		loopVar.SetScalar(types.NumStr(k))
		if err := it.execStmt(n.Body); err != nil {
			if _, ok := asSignal(err, sigBreak); ok {
				return nil
			}
			if _, ok := asSignal(err, sigContinue); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func (it *Interp) execDelete(n *ast.DeleteStmt) error {
	arr, err := it.resolveArray(n.Array)
	if err != nil {
		return err
	}
	if len(n.Index) == 0 {
		for k := range arr {
			delete(arr, k)
		}
		return nil
	}
	key, err := it.subscript(n.Index)
	if err != nil {
		return err
	}
	delete(arr, key)
	return nil
}

// execSwitch implements gawk's switch: clauses tried in source order,
// the first case whose value equals (numerically/string-wise, or by
// regex match for a /re/ case label) the tag wins, falling back to a
// default clause wherever it appears; no automatic fallthrough between
// clause bodies.
func (it *Interp) execSwitch(n *ast.SwitchStmt) error {
	tag, err := it.eval(n.Tag)
	if err != nil {
		return err
	}
	var defaultClause *ast.CaseClause
	for _, c := range n.Clauses {
		if c.Expr == nil {
			defaultClause = c
			continue
		}
		matched, err := it.caseMatches(c.Expr, tag)
		if err != nil {
			return err
		}
		if matched {
			return it.execCaseBody(c.Body)
		}
	}
	if defaultClause != nil {
		return it.execCaseBody(defaultClause.Body)
	}
	return nil
}

func (it *Interp) caseMatches(label ast.Expr, tag types.Value) (bool, error) {
	if re, ok := label.(*ast.RegexLit); ok {
		compiled, err := it.regexes.Get(re.Pattern, it.ignoreCase())
		if err != nil {
			return false, fmt.Errorf("invalid regex /%s/: %w", re.Pattern, err)
		}
		return compiled.MatchString(tag.AsStr(it.convfmt())), nil
	}
	v, err := it.eval(label)
	if err != nil {
		return false, err
	}
	return it.compare(tag, v) == 0, nil
}

func (it *Interp) execCaseBody(body []ast.Stmt) error {
	for _, stmt := range body {
		if err := it.execStmt(stmt); err != nil {
			if _, ok := asSignal(err, sigBreak); ok {
				return nil
			}
			return err
		}
	}
	return nil
}

// execPrint implements both print and printf, including the four
// redirection forms (>, >>, |, |&), resolving the destination through
// the shared IOManager registries so close()/fflush() can reach the
// same stream by name.
func (it *Interp) execPrint(n *ast.PrintStmt) error {
	w, err := it.printWriter(n.Redirect, n.Dest)
	if err != nil {
		return err
	}

	if n.Printf {
		args := make([]types.Value, len(n.Args))
		for i, a := range n.Args {
			v, err := it.eval(a)
			if err != nil {
				return err
			}
			args[i] = v
		}
		if len(args) == 0 {
			return fmt.Errorf("printf: missing format argument")
		}
		out, err := it.sprintf(args[0].AsStr(it.convfmt()), args[1:])
		if err != nil {
			return err
		}
		_, err = w.WriteString(out)
		return err
	}

	ofs := it.env.Global("OFS").Scalar().AsStr(it.convfmt())
	ors := it.env.Global("ORS").Scalar().AsStr(it.convfmt())
	var sb strings.Builder
	if len(n.Args) == 0 {
		sb.WriteString(it.rec.line)
	} else {
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(ofs)
			}
			v, err := it.eval(a)
			if err != nil {
				return err
			}
			sb.WriteString(it.formatPrint(v))
		}
	}
	sb.WriteString(ors)
	_, err = w.WriteString(sb.String())
	return err
}

// printWriter resolves a PrintStmt's destination to a writer: stdout
// when there is no redirection, or the IOManager-backed file/pipe/
// coprocess writer named by evaluating dest.
func (it *Interp) printWriter(redirect token.Token, dest ast.Expr) (*bufio.Writer, error) {
	if dest == nil {
		return it.io.Stdout, nil
	}
	v, err := it.eval(dest)
	if err != nil {
		return nil, err
	}
	name := v.AsStr(it.convfmt())
	switch redirect {
	case token.GREATER:
		return it.io.GetOutputFile(name, false)
	case token.APPEND:
		return it.io.GetOutputFile(name, true)
	case token.PIPE:
		return it.io.GetOutputPipe(name)
	case token.PIPEAMP:
		return it.io.GetCoprocessWriter(name)
	default:
		return it.io.Stdout, nil
	}
}

// evalCall resolves name against user functions first, then the
// builtin table, implementing AWK's pass-scalars-by-value/pass-
// arrays-by-reference calling convention when binding a user call.
func (it *Interp) evalCall(name string, argExprs []ast.Expr) (types.Value, error) {
	if fn, ok := it.env.Functions[name]; ok {
		return it.callUserFunc(fn, argExprs)
	}
	if tok := token.LookupBuiltin(name); tok != token.ILLEGAL {
		return it.callBuiltin(tok, argExprs)
	}
	return types.Null(), fmt.Errorf("calling undefined function %q", name)
}

func (it *Interp) callUserFunc(fn *ast.FuncDecl, argExprs []ast.Expr) (types.Value, error) {
	if len(argExprs) > fn.NumParams {
		return types.Null(), fmt.Errorf("function %q called with too many arguments", fn.Name)
	}
	// BindCall fills any declared parameter beyond len(cells) -- whether
	// an omitted actual argument or one of AWK's "extra parameters are
	// locals" slots -- with a fresh unset Cell, so cells only needs one
	// entry per argument actually supplied at this call site.
	cells := make([]*env.Cell, len(argExprs))
	for i, arg := range argExprs {
		if id, ok := arg.(*ast.Ident); ok {
			cell := it.env.Lookup(id.Name)
			if cell.IsScalar() {
				// Scalars are pass-by-value (§4.5): share the Cell only
				// while its type is still undecided or already an array,
				// so a callee assigning to its parameter never mutates
				// the caller's already-scalar variable.
				cells[i] = env.NewScalarCell(cell.Scalar())
			} else {
				cells[i] = cell
			}
			continue
		}
		v, err := it.eval(arg)
		if err != nil {
			return types.Null(), err
		}
		cells[i] = env.NewScalarCell(v)
	}

	if _, bindErr := it.env.BindCall(fn, cells); bindErr != nil {
		return types.Null(), bindErr
	}
	defer it.env.EndCall()

	err := it.execStmt(fn.Body)
	if err == nil {
		return types.Null(), nil
	}
	if sig, ok := asSignal(err, sigReturn); ok {
		return sig.retval, nil
	}
	return types.Null(), err
}
