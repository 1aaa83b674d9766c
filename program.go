package gawkcore

import (
	"bytes"
	"io"
	"os"
	"regexp"

	"github.com/kolkov/gawk-core/internal/ast"
	"github.com/kolkov/gawk-core/internal/env"
	"github.com/kolkov/gawk-core/internal/interp"
	"github.com/kolkov/gawk-core/internal/types"
)

// Program represents a parsed AWK program ready for execution. Unlike
// the teacher's bytecode Program, there is nothing to compile: the
// tree-walking interpreter (internal/interp) walks the AST directly, so
// Program just keeps the parsed tree and the source it came from.
type Program struct {
	ast    *ast.Program
	source string
}

// Run executes the program against input, applying config (nil means
// defaults). It returns the program's output as a string when
// config.Output is nil, or an empty string when the caller supplied its
// own writer.
func (p *Program) Run(input io.Reader, config *Config) (string, error) {
	var items []interp.ArgItem
	if input != nil {
		items = []interp.ArgItem{{Reader: input}}
	}
	return p.run(items, config)
}

// RunFiles executes the program over one or more named input readers,
// setting FILENAME/FNR per file the way interp's driver loop expects.
func (p *Program) RunFiles(inputs []io.Reader, names []string, config *Config) (string, error) {
	items := make([]interp.ArgItem, len(inputs))
	for i, r := range inputs {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		items[i] = interp.ArgItem{Reader: r, Name: name}
	}
	return p.run(items, config)
}

// argAssignRE matches gawk's ARGV "var=value" command-line assignment
// shape: a POSIX identifier followed by "=".
var argAssignRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// RunArgv runs the program the way the CLI front-end does: args is the
// ARGV-style tail (file names, "-" for stdin, or "var=value"
// assignments), processed left to right. A var=value entry applies
// immediately at its position rather than being opened as a file,
// matching gawk's delayed command-line assignment (§6). If args
// contains no file/stdin entries at all, stdin is read once, the same
// as when no files are given to a normal awk invocation.
func (p *Program) RunArgv(args []string, config *Config) (string, error) {
	if config == nil {
		config = &Config{}
	}
	config.Args = args

	var items []interp.ArgItem
	var openFiles []*os.File
	defer func() {
		for _, f := range openFiles {
			f.Close()
		}
	}()

	sawFile := false
	for _, a := range args {
		if argAssignRE.MatchString(a) {
			items = append(items, interp.ArgItem{Assign: a})
			continue
		}
		sawFile = true
		if a == "-" {
			items = append(items, interp.ArgItem{Reader: os.Stdin, Name: a})
			continue
		}
		f, err := os.Open(a)
		if err != nil {
			return "", &RuntimeError{Message: err.Error()}
		}
		openFiles = append(openFiles, f)
		items = append(items, interp.ArgItem{Reader: f, Name: a})
	}
	if !sawFile {
		items = append(items, interp.ArgItem{Reader: os.Stdin, Name: ""})
	}

	return p.run(items, config)
}

// Source returns the original AWK source code.
func (p *Program) Source() string {
	return p.source
}

// run is the shared driver behind Run/RunFiles/RunArgv: build an
// Environment from config, construct an interpreter, and execute items.
func (p *Program) run(items []interp.ArgItem, config *Config) (string, error) {
	if config == nil {
		config = &Config{}
	}
	config.applyDefaults()

	e := env.New()
	applyConfig(e, config)

	var outputBuf *bytes.Buffer
	out := config.Output
	if out == nil {
		outputBuf = &bytes.Buffer{}
		out = outputBuf
	}
	stderr := config.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	it := interp.New(p.ast, e, interp.Config{
		Output:        out,
		Stderr:        stderr,
		TextDomainDir: config.TextDomainDir,
	})

	code, err := it.RunItems(items)
	if err != nil {
		return "", &RuntimeError{Message: err.Error()}
	}
	if code != 0 {
		if outputBuf != nil {
			return outputBuf.String(), &ExitError{Code: code}
		}
		return "", &ExitError{Code: code}
	}

	if outputBuf != nil {
		return outputBuf.String(), nil
	}
	return "", nil
}

// applyConfig seeds an Environment's special variables and ENVIRON/ARGV
// from a Config, applied before BEGIN runs.
func applyConfig(e *env.Environment, config *Config) {
	e.Global("FS").SetScalar(types.Str(config.FS))
	e.Global("RS").SetScalar(types.Str(config.RS))
	e.Global("OFS").SetScalar(types.Str(config.OFS))
	e.Global("ORS").SetScalar(types.Str(config.ORS))
	e.Global("TEXTDOMAIN").SetScalar(types.Str(config.TextDomain))

	if config.Env != nil {
		arr := e.Global("ENVIRON").AsArray()
		for k := range arr {
			delete(arr, k)
		}
		for k, v := range config.Env {
			arr[k] = types.Str(v)
		}
	}

	e.SetArgs("awk", config.Args)

	for name, value := range config.Variables {
		e.Global(name).SetScalar(types.NumStr(value))
	}
}
