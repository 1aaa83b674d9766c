// gawk-core - a gawk-compatible AWK interpreter
//
// Uses manual argument parsing for POSIX compatibility (supports -F:
// style flags with no space between flag and value).
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	gawkcore "github.com/kolkov/gawk-core"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	shortUsage = "usage: gawk-core [-F fs] [-v var=value] [-f progfile | 'prog'] [file | var=value ...]"
	longUsage  = `  -F separator      field separator (default " ")
  -f progfile       load AWK source from progfile (multiple allowed)
  -v var=value      variable assignment, applied before BEGIN (multiple allowed)

  -h, --help        show this help message
  --version         show gawk-core version and exit

Non-flag arguments are input files ("-" means stdin); an argument of the
form var=value among them is a delayed assignment, applied when the main
loop reaches that position rather than before BEGIN.
`
)

func main() {
	var progFiles []string
	var vars []string
	fieldSep := " "

	var i int
	for i = 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		if arg == "--" {
			i++
			break
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "-F":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -F")
			}
			i++
			fieldSep = os.Args[i]
		case "-f":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -f")
			}
			i++
			progFiles = append(progFiles, os.Args[i])
		case "-v":
			if i+1 >= len(os.Args) {
				errorExitf("flag needs an argument: -v")
			}
			i++
			vars = append(vars, os.Args[i])
		case "-h", "--help":
			fmt.Printf("%s\n\n%s", shortUsage, longUsage)
			os.Exit(0)
		case "--version":
			fmt.Printf("gawk-core version %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
			os.Exit(0)
		default:
			switch {
			case strings.HasPrefix(arg, "-F"):
				fieldSep = arg[2:]
			case strings.HasPrefix(arg, "-f"):
				progFiles = append(progFiles, arg[2:])
			case strings.HasPrefix(arg, "-v"):
				vars = append(vars, arg[2:])
			default:
				errorExitf("flag provided but not defined: %s", arg)
			}
		}
	}

	args := os.Args[i:]

	var program string
	var inputArgs []string
	if len(progFiles) > 0 {
		var sb strings.Builder
		for _, f := range progFiles {
			content, err := os.ReadFile(f)
			if err != nil {
				errorExitf("cannot read program file %s: %v", f, err)
			}
			sb.Write(content)
			sb.WriteByte('\n')
		}
		program = sb.String()
		inputArgs = args
	} else if len(args) > 0 {
		program = args[0]
		inputArgs = args[1:]
	} else {
		errorExitf(shortUsage)
	}

	prog, err := gawkcore.Parse(program)
	if err != nil {
		errorExit(err)
	}

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()

	config := &gawkcore.Config{
		FS:     fieldSep,
		Output: stdout,
		Stderr: os.Stderr,
	}
	if len(vars) > 0 {
		config.Variables = make(map[string]string)
		for _, v := range vars {
			parts := strings.SplitN(v, "=", 2)
			if len(parts) != 2 {
				errorExitf("invalid variable assignment: %s (expected var=value)", v)
			}
			config.Variables[parts[0]] = parts[1]
		}
	}

	_, err = prog.RunArgv(inputArgs, config)
	if err != nil {
		if code, ok := gawkcore.IsExitError(err); ok {
			os.Exit(code)
		}
		errorExit(err)
	}
}

func errorExitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "gawk-core: "+format+"\n", args...)
	os.Exit(1)
}

func errorExit(err error) {
	fmt.Fprintf(os.Stderr, "gawk-core: %v\n", err)
	os.Exit(1)
}
