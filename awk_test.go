package gawkcore_test

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	gawkcore "github.com/kolkov/gawk-core"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		program string
		input   string
		config  *gawkcore.Config
		want    string
		wantErr bool
	}{
		{
			name:    "print first field",
			program: `{ print $1 }`,
			input:   "hello world\n",
			want:    "hello\n",
		},
		{
			name:    "print all fields",
			program: `{ print $0 }`,
			input:   "hello world\n",
			want:    "hello world\n",
		},
		{
			name:    "sum numbers",
			program: `{ sum += $1 } END { print sum }`,
			input:   "1\n2\n3\n",
			want:    "6\n",
		},
		{
			name:    "BEGIN only",
			program: `BEGIN { print "hello" }`,
			input:   "",
			want:    "hello\n",
		},
		{
			name:    "END only",
			program: `END { print "done" }`,
			input:   "ignored\n",
			want:    "done\n",
		},
		{
			name:    "custom field separator",
			program: `{ print $1 }`,
			input:   "a:b:c\n",
			config:  &gawkcore.Config{FS: ":"},
			want:    "a\n",
		},
		{
			name:    "NR and NF",
			program: `{ print NR, NF }`,
			input:   "a b\nc d e\n",
			want:    "1 2\n2 3\n",
		},
		{
			name:    "pattern match",
			program: `/hello/ { print "found" }`,
			input:   "hello world\ngoodbye\n",
			want:    "found\n",
		},
		{
			name:    "arithmetic",
			program: `BEGIN { print 2 + 3 * 4 }`,
			input:   "",
			want:    "14\n",
		},
		{
			name:    "string concatenation",
			program: `BEGIN { print "hello" " " "world" }`,
			input:   "",
			want:    "hello world\n",
		},
		{
			name:    "user-defined function",
			program: `function double(x) { return x * 2 } BEGIN { print double(21) }`,
			input:   "",
			want:    "42\n",
		},
		{
			name:    "printf",
			program: `BEGIN { printf "%d %.2f %s\n", 42, 3.14159, "test" }`,
			input:   "",
			want:    "42 3.14 test\n",
		},
		{
			name:    "gsub",
			program: `{ gsub(/o/, "0"); print }`,
			input:   "hello world\n",
			want:    "hell0 w0rld\n",
		},
		{
			name:    "sub",
			program: `{ sub(/o/, "0"); print }`,
			input:   "hello world\n",
			want:    "hell0 world\n",
		},
		{
			name:    "gensub with backreference",
			program: `BEGIN { print gensub(/(a)(b)/, "\\2\\1", "g", "abab") }`,
			input:   "",
			want:    "baba\n",
		},
		{
			name:    "length",
			program: `{ print length($0) }`,
			input:   "hello\n",
			want:    "5\n",
		},
		{
			name:    "substr",
			program: `{ print substr($0, 2, 3) }`,
			input:   "hello\n",
			want:    "ell\n",
		},
		{
			name:    "split",
			program: `{ n = split($0, a, ":"); print n, a[1], a[2] }`,
			input:   "a:b:c\n",
			want:    "3 a b\n",
		},
		{
			name:    "index",
			program: `{ print index($0, "ll") }`,
			input:   "hello\n",
			want:    "3\n",
		},
		{
			name:    "tolower toupper",
			program: `{ print tolower($1), toupper($2) }`,
			input:   "Hello World\n",
			want:    "hello WORLD\n",
		},
		{
			name:    "ternary operator",
			program: `{ print ($1 > 5 ? "big" : "small") }`,
			input:   "3\n10\n",
			want:    "small\nbig\n",
		},
		{
			name:    "increment decrement",
			program: `BEGIN { x = 5; print ++x, x++, x }`,
			input:   "",
			want:    "6 6 7\n",
		},
		{
			name:    "empty input",
			program: `BEGIN { print "start" } { print $0 } END { print "end" }`,
			input:   "",
			want:    "start\nend\n",
		},
		{
			name:    "switch statement",
			program: `{ switch ($1) { case "a": print "first"; break; case "b": print "second"; break; default: print "other" } }`,
			input:   "a\nb\nc\n",
			want:    "first\nsecond\nother\n",
		},
		// Error cases
		{
			name:    "syntax error",
			program: `{ print $1`,
			input:   "",
			wantErr: true,
		},
		{
			name:    "undefined function",
			program: `BEGIN { undefined() }`,
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gawkcore.Run(tt.program, strings.NewReader(tt.input), tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Run() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	prog, err := gawkcore.Parse(`{ sum += $1 } END { print sum }`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	inputs := []string{"1\n2\n3\n", "10\n20\n30\n"}
	wants := []string{"6\n", "60\n"}

	for i, input := range inputs {
		got, err := prog.Run(strings.NewReader(input), nil)
		if err != nil {
			t.Errorf("Run(%d) error = %v", i, err)
			continue
		}
		if got != wants[i] {
			t.Errorf("Run(%d) = %q, want %q", i, got, wants[i])
		}
	}
}

func TestMustParse(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParse() should panic on invalid program")
		}
	}()

	_ = gawkcore.MustParse(`{ print $1`) // Missing closing brace
}

func TestMustParseValid(t *testing.T) {
	prog := gawkcore.MustParse(`{ print $1 }`)
	if prog == nil {
		t.Error("MustParse() returned nil for valid program")
	}
}

func TestParseError(t *testing.T) {
	_, err := gawkcore.Parse(`{ print $1`)
	if err == nil {
		t.Fatal("expected error for invalid program")
	}

	_, ok := err.(*gawkcore.ParseError)
	if !ok {
		t.Errorf("expected *ParseError, got %T", err)
	}
}

func TestConfigFieldSeparator(t *testing.T) {
	got, err := gawkcore.Run(`{ print $2 }`, strings.NewReader("a:b:c\n"), &gawkcore.Config{FS: ":"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "b\n" {
		t.Errorf("Run() = %q, want %q", got, "b\n")
	}
}

func TestConfigVariables(t *testing.T) {
	prog := `BEGIN { print prefix, threshold }`
	config := &gawkcore.Config{
		Variables: map[string]string{
			"prefix":    "LOG:",
			"threshold": "100",
		},
	}
	got, err := gawkcore.Run(prog, nil, config)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "LOG: 100\n" {
		t.Errorf("Run() = %q, want %q", got, "LOG: 100\n")
	}
}

func TestConfigEnviron(t *testing.T) {
	prog := `BEGIN { print ENVIRON["GREETING"] }`
	config := &gawkcore.Config{
		Env: map[string]string{"GREETING": "hi"},
	}
	got, err := gawkcore.Run(prog, nil, config)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "hi\n" {
		t.Errorf("Run() = %q, want %q", got, "hi\n")
	}
}

func TestExitError(t *testing.T) {
	_, err := gawkcore.Run(`BEGIN { exit 42 }`, nil, nil)
	if err == nil {
		t.Fatal("expected error for exit 42")
	}

	code, ok := gawkcore.IsExitError(err)
	if !ok {
		t.Errorf("expected ExitError, got %T", err)
	}
	if code != 42 {
		t.Errorf("exit code = %d, want 42", code)
	}
}

func TestExitZero(t *testing.T) {
	_, err := gawkcore.Run(`BEGIN { exit 0 }`, nil, nil)
	if err != nil {
		t.Errorf("exit 0 should not return error, got %v", err)
	}
}

func TestProgramSource(t *testing.T) {
	source := `{ print $1 }`
	prog, err := gawkcore.Parse(source)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if prog.Source() != source {
		t.Errorf("Source() = %q, want %q", prog.Source(), source)
	}
}

func TestRunFiles(t *testing.T) {
	prog, err := gawkcore.Parse(`{ print FILENAME, FNR, NR, $0 }`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := prog.RunFiles(
		[]io.Reader{strings.NewReader("a\nb\n"), strings.NewReader("c\n")},
		[]string{"one.txt", "two.txt"},
		nil,
	)
	if err != nil {
		t.Fatalf("RunFiles() error = %v", err)
	}
	want := "one.txt 1 1 a\none.txt 2 2 b\ntwo.txt 1 3 c\n"
	if got != want {
		t.Errorf("RunFiles() = %q, want %q", got, want)
	}
}

func TestRunArgvDelayedAssignment(t *testing.T) {
	prog, err := gawkcore.Parse(`{ print label, $0 }`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	dir := t.TempDir()
	f1 := dir + "/a.txt"
	f2 := dir + "/b.txt"
	if err := writeFile(f1, "x\n"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(f2, "y\n"); err != nil {
		t.Fatal(err)
	}

	got, err := prog.RunArgv([]string{f1, "label=changed", f2}, nil)
	if err != nil {
		t.Fatalf("RunArgv() error = %v", err)
	}
	want := " x\nchanged y\n"
	if got != want {
		t.Errorf("RunArgv() = %q, want %q", got, want)
	}
}

func ExampleRun() {
	output, _ := gawkcore.Run(`{ print $1 }`, strings.NewReader("hello world\n"), nil)
	fmt.Print(output)
	// Output: hello
}

func ExampleParse() {
	prog, _ := gawkcore.Parse(`{ sum += $1 } END { print sum }`)
	output, _ := prog.Run(strings.NewReader("1\n2\n3\n"), nil)
	fmt.Print(output)
	// Output: 6
}

// Benchmark tests
func BenchmarkRun(b *testing.B) {
	input := strings.NewReader("hello world\n")
	for i := 0; i < b.N; i++ {
		input.Reset("hello world\n")
		_, _ = gawkcore.Run(`{ print $1 }`, input, nil)
	}
}

func BenchmarkParsedRun(b *testing.B) {
	prog, _ := gawkcore.Parse(`{ sum += $1 } END { print sum }`)
	input := strings.NewReader("1\n2\n3\n")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		input.Reset("1\n2\n3\n")
		_, _ = prog.Run(input, nil)
	}
}
