// Package gawkcore provides an embeddable gawk-compatible AWK interpreter.
//
// gawk-core is a tree-walking AWK implementation written in Go, featuring:
//   - POSIX AWK plus the common gawk extensions (switch/case, BEGINFILE/
//     ENDFILE, FPAT, IGNORECASE, gensub, asort/asorti, bitwise builtins,
//     coprocesses, @include/@namespace, gettext-style i18n)
//   - A compiled-regex cache (coregex) shared across field splitting and
//     every regex-taking builtin
//   - Embeddable as a library, with the same CLI front-end shipped in
//     cmd/gawk-core for standalone use
//
// # Quick Start
//
// For simple one-off execution:
//
//	output, err := gawkcore.Run(`{ print $1 }`, strings.NewReader("hello world"), nil)
//
// With configuration:
//
//	output, err := gawkcore.Run(program, input, &gawkcore.Config{
//	    FS: ":",
//	    Variables: map[string]string{"threshold": "100"},
//	})
//
// # Parsed Programs
//
// For repeated execution of the same program:
//
//	prog, err := gawkcore.Parse(`$1 > threshold { print $2 }`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, file := range files {
//	    output, err := prog.Run(file, &gawkcore.Config{
//	        Variables: map[string]string{"threshold": "100"},
//	    })
//	    // ...
//	}
//
// # Configuration
//
// The [Config] type allows customization of AWK execution:
//   - Field and record separators (FS, RS, OFS, ORS)
//   - Pre-defined variables and ARGV
//   - ENVIRON seeding and the gettext TEXTDOMAIN/TEXTDOMAINDIR defaults
//   - Custom I/O writers
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [ParseError]: syntax errors in AWK source
//   - [CompileError]: errors building a program before execution
//   - [RuntimeError]: errors during execution
//   - [ExitError]: not a failure; the program called exit(n)
//
// # Concurrency
//
// A [Program] may be parsed once and run many times, but a single Run
// is not reentrant: each call builds its own Environment and
// interpreter instance, so concurrent calls to [Program.Run] on the
// same *Program are safe, while sharing one call's Environment across
// goroutines is not supported.
package gawkcore
