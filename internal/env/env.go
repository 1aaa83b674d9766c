package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/kolkov/gawk-core/internal/ast"
	"github.com/kolkov/gawk-core/internal/types"
)

// specialNames lists every POSIX and gawk special variable. Keeping the
// list here (rather than importing the parser's copy) avoids a
// parser<->env dependency; both lists must stay in sync with what
// parser.isSpecialVar recognizes for @namespace qualification.
var specialNames = map[string]bool{
	"NR": true, "NF": true, "FS": true, "OFS": true, "ORS": true, "RS": true,
	"FILENAME": true, "FNR": true, "SUBSEP": true, "RSTART": true, "RLENGTH": true,
	"ENVIRON": true, "ARGC": true, "ARGV": true, "CONVFMT": true, "OFMT": true,
	"IGNORECASE": true, "ERRNO": true, "PROCINFO": true, "FPAT": true,
	"FIELDWIDTHS": true, "TEXTDOMAIN": true, "RT": true,
}

// IsSpecialVar reports whether name is a predefined AWK special
// variable.
func IsSpecialVar(name string) bool {
	return specialNames[name]
}

// Environment holds everything a running AWK program shares across its
// BEGIN/pattern-action/END blocks and function calls: global variables
// (scalars and arrays, via Cell), the user-function table, and the call
// stack used to resolve local names during a function call.
//
// Field storage ($0, $1, ...) is not part of Environment; it belongs to
// the record engine, which is re-split per input line and has its own
// lifetime.
type Environment struct {
	globals map[string]*Cell
	calls   *CallStack

	// Functions maps a user-defined function name to its declaration,
	// populated once from the parsed Program before execution begins.
	Functions map[string]*ast.FuncDecl
}

// New creates an Environment with all special variables preset to their
// POSIX/gawk default values and ENVIRON populated from the process
// environment.
func New() *Environment {
	e := &Environment{
		globals:   make(map[string]*Cell),
		calls:     NewCallStack(),
		Functions: make(map[string]*ast.FuncDecl),
	}
	e.initSpecials()
	return e
}

func (e *Environment) initSpecials() {
	set := func(name string, v types.Value) {
		e.globals[name] = NewScalarCell(v)
	}
	set("FS", types.Str(" "))
	set("OFS", types.Str(" "))
	set("ORS", types.Str("\n"))
	set("RS", types.Str("\n"))
	set("NR", types.Num(0))
	set("NF", types.Num(0))
	set("FNR", types.Num(0))
	set("FILENAME", types.Str(""))
	set("SUBSEP", types.Str("\x1c"))
	set("RSTART", types.Num(0))
	set("RLENGTH", types.Num(-1))
	set("CONVFMT", types.Str("%.6g"))
	set("OFMT", types.Str("%.6g"))
	set("IGNORECASE", types.Num(0))
	set("ERRNO", types.Str(""))
	set("FPAT", types.Str(""))
	set("FIELDWIDTHS", types.Str(""))
	set("TEXTDOMAIN", types.Str("messages"))
	set("RT", types.Str(""))

	environ := e.globals["ENVIRON"]
	if environ == nil {
		environ = NewCell()
		e.globals["ENVIRON"] = environ
	}
	arr := environ.AsArray()
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			arr[kv[:i]] = types.Str(kv[i+1:])
		}
	}

	e.globals["PROCINFO"] = NewCell()
	e.globals["PROCINFO"].AsArray()["pid"] = types.Num(float64(os.Getpid()))
	e.globals["PROCINFO"].AsArray()["ppid"] = types.Num(float64(os.Getppid()))

	e.globals["ARGV"] = NewCell()
	e.globals["ARGV"].AsArray()
	set("ARGC", types.Num(1))
}

// SetArgs populates ARGV[0..n] and ARGC from a command-line-style
// argument list (ARGV[0] is the program name, matching gawk).
func (e *Environment) SetArgs(argv0 string, args []string) {
	arr := e.globals["ARGV"].AsArray()
	for k := range arr {
		delete(arr, k)
	}
	arr["0"] = types.Str(argv0)
	for i, a := range args {
		arr[strconv.Itoa(i+1)] = types.Str(a)
	}
	e.globals["ARGC"].SetScalar(types.Num(float64(len(args) + 1)))
}

// CallStack exposes the active call stack so the interpreter can
// push/pop frames around a user function call.
func (e *Environment) CallStack() *CallStack {
	return e.calls
}

// Lookup resolves name to its Cell: the current call frame's
// parameter/local if name is one, otherwise the global (created on
// first use, matching AWK's implicit-global-declaration rule).
func (e *Environment) Lookup(name string) *Cell {
	if f := e.calls.Current(); f != nil {
		if c := f.Lookup(name); c != nil {
			return c
		}
	}
	return e.Global(name)
}

// Global returns the Cell for a global variable, creating it if this is
// the first reference.
func (e *Environment) Global(name string) *Cell {
	c, ok := e.globals[name]
	if !ok {
		c = NewCell()
		e.globals[name] = c
	}
	return c
}

// IsLocal reports whether name resolves to the current call frame
// rather than to a global, used by the interpreter when it must decide
// whether an assignment is visible outside the active function call.
func (e *Environment) IsLocal(name string) bool {
	f := e.calls.Current()
	return f != nil && f.Lookup(name) != nil
}

// Globals exposes the raw global table for iteration (for-in over a
// global array, or the "asort"-style builtins operating on named
// globals). Callers must not mutate the returned map's keys.
func (e *Environment) Globals() map[string]*Cell {
	return e.globals
}
