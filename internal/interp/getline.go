package interp

import (
	"github.com/kolkov/gawk-core/internal/ast"
	"github.com/kolkov/gawk-core/internal/runtime"
	"github.com/kolkov/gawk-core/internal/types"
)

// evalGetline implements all eight forms of getline, returning 1 on a
// successful read, 0 on end of input, and -1 on an I/O error, per
// POSIX. Which special variables update depends on the form: plain and
// "cmd |"/"cmd |&" forms advance NR; every main-stream form (plain,
// "getline var" with no redirection) also advances FNR; only the
// forms writing to $0 (not "getline var") re-split fields and update
// NF. RT updates for every form (§4.7/§2): every source is read through
// a scanner honoring the current RS, not just the main input stream.
func (it *Interp) evalGetline(n *ast.GetlineExpr) (types.Value, error) {
	var scanner *runtime.RecordScanner
	var advanceNR, advanceFNR bool

	switch {
	case n.Command != nil:
		cmdV, err := it.eval(n.Command)
		if err != nil {
			return types.Null(), err
		}
		cmd := cmdV.AsStr(it.convfmt())
		split, rt := it.rsSplitFunc()
		var getErr error
		if n.Coprocess {
			scanner, getErr = it.io.GetCoprocessReader(cmd, split, rt)
		} else {
			scanner, getErr = it.io.GetInputPipe(cmd, split, rt)
		}
		if getErr != nil {
			return types.Num(-1), nil
		}
		advanceNR = true
	case n.File != nil:
		fileV, err := it.eval(n.File)
		if err != nil {
			return types.Null(), err
		}
		split, rt := it.rsSplitFunc()
		s, getErr := it.io.GetInputFile(fileV.AsStr(it.convfmt()), split, rt)
		if getErr != nil {
			return types.Num(-1), nil
		}
		scanner = s
	default:
		if it.curInput == nil {
			return types.Num(0), nil
		}
		scanner = it.curInput
		advanceNR = true
		advanceFNR = true
	}

	if scanner == nil || !scanner.Scan() {
		if scanner != nil {
			if err := scanner.Err(); err != nil {
				return types.Num(-1), nil
			}
		}
		return types.Num(0), nil
	}
	line := scanner.Text()
	it.env.Global("RT").SetScalar(types.Str(scanner.RT()))

	if advanceNR {
		nr := it.env.Global("NR").Scalar().AsNum()
		it.env.Global("NR").SetScalar(types.Num(nr + 1))
	}
	if advanceFNR && it.curFNR != nil {
		*it.curFNR++
		it.env.Global("FNR").SetScalar(types.Num(float64(*it.curFNR)))
	}

	if n.Target != nil {
		if err := it.assignTo(n.Target, types.NumStr(line)); err != nil {
			return types.Null(), err
		}
	} else {
		it.rec.setLine(line, scanner.RT())
	}
	return types.Num(1), nil
}
