package gawkcore

import "io"

// Config holds configuration options for AWK execution.
type Config struct {
	// FS is the input field separator (default: " ").
	// When set to a single space, runs of whitespace are treated as separators.
	// Otherwise, each occurrence of the string is a separator.
	// Can also be a regular expression pattern.
	FS string

	// RS is the input record separator (default: "\n").
	// An empty value is treated as unset and replaced by "\n", so
	// blank-line (paragraph) records cannot be selected through Config;
	// they apply only when the program itself assigns RS = "".
	RS string

	// OFS is the output field separator (default: " ").
	// Used when printing multiple values with print statement.
	OFS string

	// ORS is the output record separator (default: "\n").
	// Appended after each print statement.
	ORS string

	// Variables contains pre-defined variables, applied before BEGIN
	// block execution (the embedding equivalent of the CLI's -v name=value).
	Variables map[string]string

	// Output is the writer for print/printf statements. When nil, the
	// output is collected and returned as the string result of Run,
	// RunFiles or RunArgv.
	Output io.Writer

	// Stderr is the writer for diagnostics (errors that don't abort
	// execution, such as a failed close()). Defaults to os.Stderr.
	Stderr io.Writer

	// Args contains command-line arguments (ARGV[1:]); ARGV[0] is
	// always the program's own name, supplied separately by the driver.
	Args []string

	// Env seeds ENVIRON. A nil map means ENVIRON is populated from the
	// process environment, matching gawk's own default.
	Env map[string]string

	// TextDomainDir is the initial bindtextdomain() base directory for
	// the gettext-style dcgettext/dcngettext builtins.
	TextDomainDir string

	// TextDomain is the initial TEXTDOMAIN value (default: "messages").
	TextDomain string
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.FS == "" {
		c.FS = " "
	}
	if c.RS == "" {
		c.RS = "\n"
	}
	if c.OFS == "" {
		c.OFS = " "
	}
	if c.ORS == "" {
		c.ORS = "\n"
	}
	if c.TextDomain == "" {
		c.TextDomain = "messages"
	}
}
