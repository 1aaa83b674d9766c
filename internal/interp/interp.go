package interp

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/kolkov/gawk-core/internal/ast"
	"github.com/kolkov/gawk-core/internal/env"
	"github.com/kolkov/gawk-core/internal/i18n"
	"github.com/kolkov/gawk-core/internal/runtime"
	"github.com/kolkov/gawk-core/internal/types"
)

// Config holds the pieces of configuration the driver needs that do not
// belong in the Environment (special variables already cover FS/RS/OFS/
// ORS/ARGV/ARGC): where print/printf/system write, and where
// diagnostics go.
type Config struct {
	Output io.Writer
	Stderr io.Writer

	// TextDomainDir, if set, is bound as the initial gettext catalog
	// directory for TEXTDOMAIN (as if the program's first statement
	// were bindtextdomain(TEXTDOMAIN, TextDomainDir)).
	TextDomainDir string
}

// Interp is a tree-walking evaluator for one parsed *ast.Program. It
// holds everything the teacher's VM keeps in its vm.VM struct, minus
// the bytecode/register machinery a tree-walker does not need: the
// environment, the current record, the I/O registries, the regex
// cache, and the gettext facade for the i18n builtins.
type Interp struct {
	program *ast.Program
	env     *env.Environment
	regexes *runtime.RegexCache
	io      *runtime.IOManager
	gettext *i18n.Gettext

	rec record

	output io.Writer
	stderr io.Writer

	rng      *rand.Rand
	lastSeed int64

	// curInput is the scanner for the file currently being read;
	// advanced by the file-iteration loop in Run, and also consulted
	// directly by a bare `getline` expression (§4.6/§4.9) to pull the
	// next record from the same main input stream mid-rule.
	curInput *runtime.RecordScanner
	curFNR   *int
}

// New constructs an Interp ready to run program against env, writing
// print/printf output to cfg.Output (defaulting to stdout when nil).
func New(program *ast.Program, environment *env.Environment, cfg Config) *Interp {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	errOut := cfg.Stderr
	if errOut == nil {
		errOut = os.Stderr
	}
	it := &Interp{
		program: program,
		env:     environment,
		regexes: runtime.NewRegexCache(512),
		io:      runtime.NewIOManager(),
		gettext: i18n.NewGettext(),
		output:  out,
		stderr:  errOut,
		rng:     rand.New(rand.NewSource(0)),
	}
	it.io.Stdout = bufio.NewWriter(out)
	for _, fn := range program.Functions {
		environment.Functions[fn.Name] = fn
	}
	if cfg.TextDomainDir != "" {
		domain := environment.Global("TEXTDOMAIN").Scalar().AsStr("%.6g")
		it.gettext.Bindtextdomain(domain, cfg.TextDomainDir)
	}
	return it
}

func (it *Interp) convfmt() string {
	return it.env.Global("CONVFMT").Scalar().AsStr("%.6g")
}

func (it *Interp) ofmt() string {
	return it.env.Global("OFMT").Scalar().AsStr("%.6g")
}

func (it *Interp) subsep() string {
	return it.env.Global("SUBSEP").Scalar().AsStr(it.convfmt())
}

func (it *Interp) ignoreCase() bool {
	return it.env.Global("IGNORECASE").Scalar().AsBool()
}

func (it *Interp) rsIsParagraph() bool {
	return it.env.Global("RS").Scalar().AsStr(it.convfmt()) == ""
}

// formatPrint renders a value for print/printf's %s-like contexts, using
// OFMT for a pure number and CONVFMT otherwise (§4.4: print uses OFMT,
// everything else converts via CONVFMT).
func (it *Interp) formatPrint(v types.Value) string {
	if v.IsNum() {
		return v.AsStr(it.ofmt())
	}
	return v.AsStr(it.convfmt())
}

// ArgItem is one element of the driver's argument list: either an
// already-opened input source, or a deferred "var=value" command-line
// assignment (gawk's ARGV extension, §6) to apply at exactly the point
// in argument order where it appears, between the files around it.
type ArgItem struct {
	Reader io.Reader
	Name   string
	Assign string // non-empty means "name=value"; Reader/Name are ignored
}

// Run executes the complete program: BEGIN, then (unless BEGIN exited)
// each input source's BEGINFILE/records/rules/ENDFILE, then END always,
// mirroring the teacher's Run()/processInput()/executeEnd() ordering
// and its override rule (exit from END always wins over an earlier
// exit).
func (it *Interp) Run(inputs []io.Reader, names []string) (int, error) {
	items := make([]ArgItem, len(inputs))
	for i, r := range inputs {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		items[i] = ArgItem{Reader: r, Name: name}
	}
	return it.RunItems(items)
}

// RunItems is like Run but additionally accepts deferred var=value
// assignments interspersed among the input sources, the way gawk
// applies a bare name=value ARGV element when the main loop reaches it
// rather than at BEGIN time.
func (it *Interp) RunItems(items []ArgItem) (int, error) {
	exitCode := 0
	exited := false

	if err := it.runBlocks(it.program.Begin); err != nil {
		if sig, ok := asSignal(err, sigExit); ok {
			exited = true
			exitCode = sig.exitCode
		} else {
			return 1, err
		}
	}

	if !exited {
		if err := it.runInputs(items); err != nil {
			if sig, ok := asSignal(err, sigExit); ok {
				exited = true
				exitCode = sig.exitCode
			} else {
				return 1, err
			}
		}
	}

	if err := it.runBlocks(it.program.EndBlocks); err != nil {
		if sig, ok := asSignal(err, sigExit); ok {
			exitCode = sig.exitCode
		} else {
			return 1, err
		}
	}

	it.io.CloseAll()
	it.io.Stdout.Flush()
	return exitCode, nil
}

func (it *Interp) runBlocks(blocks []*ast.BlockStmt) error {
	for _, b := range blocks {
		if err := it.execStmt(b); err != nil {
			return err
		}
	}
	return nil
}

// runInputs drives the per-file, per-record loop across every input
// source, handling next/nextfile by unwinding only as far as the
// current record or file per §4.8. A bare "var=value" item is applied
// as an immediate assignment rather than opened as a file, matching
// gawk's ARGV command-line-assignment extension (§6): the assignment
// takes effect exactly where it falls in argument order, after every
// file before it has been fully read and before any file after it is
// opened.
func (it *Interp) runInputs(items []ArgItem) error {
	if len(items) == 0 {
		return nil
	}
	fnr := 0
	for _, item := range items {
		if item.Assign != "" {
			it.applyArgAssign(item.Assign)
			continue
		}
		name := item.Name
		r := item.Reader
		it.env.Global("FILENAME").SetScalar(types.Str(name))
		fnr = 0
		it.env.Global("FNR").SetScalar(types.Num(0))

		if err := it.runBlocks(it.program.BeginFile); err != nil {
			if _, ok := asSignal(err, sigNextFile); ok {
				continue
			}
			return err
		}

		it.curInput = it.newRecordScanner(r)
		it.curFNR = &fnr
		for it.curInput.Scan() {
			line, rt := it.curInput.Text(), it.curInput.RT()
			nr := it.env.Global("NR").Scalar().AsNum()
			it.env.Global("NR").SetScalar(types.Num(nr + 1))
			fnr++
			it.env.Global("FNR").SetScalar(types.Num(float64(fnr)))
			it.env.Global("RT").SetScalar(types.Str(rt))

			it.rec.setLine(line, rt)

			if err := it.runRules(); err != nil {
				if _, ok := asSignal(err, sigNextFile); ok {
					break
				}
				return err
			}
		}
		if err := it.curInput.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if err := it.runBlocks(it.program.EndFile); err != nil {
			if _, ok := asSignal(err, sigNextFile); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// applyArgAssign parses and applies one "var=value" ARGV-style
// assignment, storing it as a strnum exactly like a field read from
// input would be (§4.9's command-line assignment rule).
func (it *Interp) applyArgAssign(assign string) {
	i := strings.IndexByte(assign, '=')
	if i < 0 {
		return
	}
	name, value := assign[:i], assign[i+1:]
	it.env.Global(name).SetScalar(types.NumStr(value))
}

// runRules evaluates every pattern-action rule against the current
// record, in source order, consuming a `next` signal locally (it only
// cancels the rest of the rules for this one record) and letting
// nextfile/exit propagate to the caller.
func (it *Interp) runRules() error {
	for _, rule := range it.program.Rules {
		matched, err := it.matchPattern(rule)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}
		if rule.Action == nil {
			fmt.Fprintf(it.io.Stdout, "%s%s", it.rec.line, it.env.Global("ORS").Scalar().AsStr(it.convfmt()))
			continue
		}
		if err := it.execStmt(rule.Action); err != nil {
			if _, ok := asSignal(err, sigNext); ok {
				return nil
			}
			return err
		}
	}
	return nil
}

// matchPattern evaluates rule's pattern against $0/current record
// state, handling the three forms: always (nil pattern), a plain
// boolean expression, and a two-sided range pattern whose "active"
// state lives on the rule itself (§4.8, §9 design note).
func (it *Interp) matchPattern(rule *ast.Rule) (bool, error) {
	switch p := rule.Pattern.(type) {
	case nil:
		return true, nil
	case *ast.CommaExpr:
		if !rule.Active {
			v, err := it.eval(p.Left)
			if err != nil {
				return false, err
			}
			if !v.AsBool() {
				return false, nil
			}
			rule.Active = true
		}
		endV, err := it.eval(p.Right)
		if err != nil {
			return false, err
		}
		if endV.AsBool() {
			rule.Active = false
		}
		return true, nil
	default:
		v, err := it.eval(p)
		if err != nil {
			return false, err
		}
		return v.AsBool(), nil
	}
}

// rsSplitFunc builds a bufio.SplitFunc matching the current value of RS,
// plus the *string it writes the matched terminator text (RT) into:
// default newline, paragraph mode (RS==""), single literal character, or
// (extending the teacher, whose VM leaves this case unimplemented) a
// multi-character ERE, per §4.7. Shared by the main per-record loop and
// every getline source (file/pipe/coprocess), so RS and RT behave
// identically no matter which one is reading.
func (it *Interp) rsSplitFunc() (bufio.SplitFunc, *string) {
	rs := it.env.Global("RS").Scalar().AsStr(it.convfmt())
	rt := new(string)

	var split bufio.SplitFunc
	switch {
	case rs == "\n":
		// default split already does this; RT is always "\n" except
		// possibly absent on a final unterminated line, which the
		// default scanner already handles transparently.
		split = func(data []byte, atEOF bool) (int, []byte, error) {
			advance, token, err := bufio.ScanLines(data, atEOF)
			if token != nil {
				if advance > len(token) {
					*rt = "\n"
				} else {
					*rt = ""
				}
			}
			return advance, token, err
		}
	case rs == "":
		split = func(data []byte, atEOF bool) (int, []byte, error) {
			advance, token, err := paragraphSplit(data, atEOF)
			if token != nil {
				*rt = "\n\n"
			}
			return advance, token, err
		}
	case len(rs) == 1:
		sep := rs[0]
		split = func(data []byte, atEOF bool) (int, []byte, error) {
			if atEOF && len(data) == 0 {
				return 0, nil, nil
			}
			if i := strings.IndexByte(string(data), sep); i >= 0 {
				*rt = string(sep)
				return i + 1, data[:i], nil
			}
			if atEOF {
				*rt = ""
				return len(data), data, nil
			}
			return 0, nil, nil
		}
	default:
		re, reErr := it.regexes.Get(rs, it.ignoreCase())
		split = func(data []byte, atEOF bool) (int, []byte, error) {
			if atEOF && len(data) == 0 {
				return 0, nil, nil
			}
			if reErr == nil {
				if loc := re.FindStringIndex(string(data)); loc != nil && (loc[1] < len(data) || atEOF) {
					*rt = string(data[loc[0]:loc[1]])
					return loc[1], data[:loc[0]], nil
				}
			}
			if atEOF {
				*rt = ""
				return len(data), data, nil
			}
			return 0, nil, nil
		}
	}
	return split, rt
}

// newRecordScanner builds a scanner over r honoring the current RS, for
// the main per-file, per-record loop.
func (it *Interp) newRecordScanner(r io.Reader) *runtime.RecordScanner {
	split, rt := it.rsSplitFunc()
	return runtime.NewRecordScanner(r, split, rt)
}

// paragraphSplit implements RS="" paragraph mode: records are separated
// by one or more blank lines, leading blank lines are skipped, and
// trailing newlines are trimmed from the final paragraph. Grounded on
// the teacher's vm.paragraphSplit.
func paragraphSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := 0
	for start < len(data) && data[start] == '\n' {
		start++
	}
	if start >= len(data) {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	for i := start; i < len(data); i++ {
		if i > 0 && data[i] == '\n' && data[i-1] == '\n' {
			return i + 1, data[start : i-1], nil
		}
	}
	if atEOF {
		end := len(data)
		for end > start && data[end-1] == '\n' {
			end--
		}
		return len(data), data[start:end], nil
	}
	return 0, nil, nil
}

// Seed reseeds the random source used by rand()/srand(), returning the
// previous seed the way gawk's srand() does.
func (it *Interp) Seed(seed int64) int64 {
	prev := it.lastSeed
	it.lastSeed = seed
	it.rng = rand.New(rand.NewSource(seed))
	return prev
}

// SeedFromTime reseeds from the current time, gawk's no-argument
// srand() behavior, and returns the new seed.
func (it *Interp) SeedFromTime() int64 {
	seed := time.Now().UnixNano()
	it.Seed(seed)
	return seed
}
