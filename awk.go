package gawkcore

import (
	"io"

	"github.com/kolkov/gawk-core/internal/parser"
)

// Version is the gawk-core version string.
const Version = "0.1.0"

// Run parses and executes an AWK program against input in one step.
// For repeated execution of the same program, use Parse followed by
// Program.Run instead, to avoid re-parsing for every call.
//
// Example:
//
//	output, err := gawkcore.Run(`{ print $1 }`, strings.NewReader("hello world"), nil)
//	// output: "hello\n"
func Run(program string, input io.Reader, config *Config) (string, error) {
	prog, err := Parse(program)
	if err != nil {
		return "", err
	}
	return prog.Run(input, config)
}

// Parse parses an AWK program for execution. The returned Program can
// be run multiple times with different inputs.
//
// Example:
//
//	prog, err := gawkcore.Parse(`{ sum += $1 } END { print sum }`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out1, _ := prog.Run(file1, nil)
//	out2, _ := prog.Run(file2, nil)
func Parse(program string) (*Program, error) {
	astProg, err := parser.Parse(program)
	if err != nil {
		if el, ok := err.(parser.ErrorList); ok && len(el) > 0 {
			return nil, &ParseError{Line: el[0].Pos.Line, Column: el[0].Pos.Column, Message: el[0].Message}
		}
		if pe, ok := err.(*parser.ParseError); ok {
			return nil, &ParseError{Line: pe.Pos.Line, Column: pe.Pos.Column, Message: pe.Message}
		}
		return nil, &ParseError{Message: err.Error()}
	}
	return &Program{ast: astProg, source: program}, nil
}

// Exec is a simplified interface for running an AWK program: it reads
// from input, writes to output, and returns any error. Useful for
// wiring into an io pipeline where the caller already owns the writer.
//
// Example:
//
//	err := gawkcore.Exec(`{ print toupper($0) }`, os.Stdin, os.Stdout, nil)
func Exec(program string, input io.Reader, output io.Writer, config *Config) error {
	prog, err := Parse(program)
	if err != nil {
		return err
	}
	if config == nil {
		config = &Config{}
	}
	config.Output = output
	_, err = prog.Run(input, config)
	return err
}

// MustParse is like Parse but panics if the program cannot be parsed.
// Simplifies initialization of global program variables.
//
// Example:
//
//	var sumProgram = gawkcore.MustParse(`{ sum += $1 } END { print sum }`)
func MustParse(program string) *Program {
	prog, err := Parse(program)
	if err != nil {
		panic(err)
	}
	return prog
}
