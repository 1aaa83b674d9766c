package env

import (
	"os"
	"testing"

	"github.com/kolkov/gawk-core/internal/ast"
	"github.com/kolkov/gawk-core/internal/types"
)

func TestNewPresetsSpecialVars(t *testing.T) {
	e := New()
	cases := map[string]string{
		"FS":  " ",
		"OFS": " ",
		"ORS": "\n",
		"RS":  "\n",
	}
	for name, want := range cases {
		got := e.Global(name).Scalar().AsStr("%.6g")
		if got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if got := e.Global("RLENGTH").Scalar().AsNum(); got != -1 {
		t.Errorf("RLENGTH = %v, want -1", got)
	}
}

func TestEnvironPopulatedFromProcess(t *testing.T) {
	os.Setenv("GAWK_CORE_TEST_VAR", "present")
	defer os.Unsetenv("GAWK_CORE_TEST_VAR")

	e := New()
	arr := e.Global("ENVIRON").AsArray()
	if v, ok := arr["GAWK_CORE_TEST_VAR"]; !ok || v.AsStr("%.6g") != "present" {
		t.Errorf("ENVIRON[GAWK_CORE_TEST_VAR] = %v, ok=%v, want \"present\"", v, ok)
	}
}

func TestSetArgs(t *testing.T) {
	e := New()
	e.SetArgs("awk", []string{"prog.awk", "file1", "file2"})

	argv := e.Global("ARGV").AsArray()
	if argv["0"].AsStr("%.6g") != "awk" {
		t.Errorf("ARGV[0] = %q, want awk", argv["0"].AsStr("%.6g"))
	}
	if argv["2"].AsStr("%.6g") != "file1" {
		t.Errorf("ARGV[2] = %q, want file1", argv["2"].AsStr("%.6g"))
	}
	if got := e.Global("ARGC").Scalar().AsNum(); got != 4 {
		t.Errorf("ARGC = %v, want 4", got)
	}
}

func TestGlobalCreatedOnFirstUse(t *testing.T) {
	e := New()
	c := e.Global("counter")
	if !c.IsUnset() {
		t.Fatalf("expected fresh global to be unset")
	}
	c.SetScalar(types.Num(5))

	if got := e.Global("counter").Scalar().AsNum(); got != 5 {
		t.Errorf("counter = %v, want 5", got)
	}
}

func TestLookupPrefersLocalFrame(t *testing.T) {
	e := New()
	e.Global("x").SetScalar(types.Num(1))

	fn := &ast.FuncDecl{Name: "f", Params: []string{"x"}, NumParams: 1}
	frame, err := e.BindCall(fn, []*Cell{NewScalarCell(types.Num(99))})
	if err != nil {
		t.Fatalf("BindCall: %v", err)
	}
	defer e.EndCall()

	if got := e.Lookup("x").Scalar().AsNum(); got != 99 {
		t.Errorf("Lookup(x) inside call = %v, want 99 (local should shadow global)", got)
	}
	if !e.IsLocal("x") {
		t.Errorf("IsLocal(x) = false, want true while inside the call")
	}
	_ = frame

	e.EndCall() // pop early to exercise nested defer-safe Pop below
	if e.IsLocal("x") {
		t.Errorf("IsLocal(x) = true after call returned")
	}
	if got := e.Lookup("x").Scalar().AsNum(); got != 1 {
		t.Errorf("Lookup(x) after call returned = %v, want 1 (global)", got)
	}
}

func TestBindCallSharesCellForArrayArgument(t *testing.T) {
	e := New()
	callerCell := NewCell()
	callerCell.AsArray()["k"] = types.Str("v")

	fn := &ast.FuncDecl{Name: "f", Params: []string{"arr"}, NumParams: 1}
	_, err := e.BindCall(fn, []*Cell{callerCell})
	if err != nil {
		t.Fatalf("BindCall: %v", err)
	}
	defer e.EndCall()

	local := e.Lookup("arr")
	local.AsArray()["k2"] = types.Str("v2")

	if _, ok := callerCell.AsArray()["k2"]; !ok {
		t.Errorf("mutation inside call did not reach caller's array (expected pass-by-reference)")
	}
}

func TestBindCallFillsExtraParamsAsLocals(t *testing.T) {
	e := New()
	fn := &ast.FuncDecl{Name: "f", Params: []string{"a", "local1"}, NumParams: 1}
	_, err := e.BindCall(fn, []*Cell{NewScalarCell(types.Num(1))})
	if err != nil {
		t.Fatalf("BindCall: %v", err)
	}
	defer e.EndCall()

	local := e.Lookup("local1")
	if !local.IsUnset() {
		t.Errorf("extra parameter (local var) should start unset")
	}
}

func TestCallStackRecursionLimit(t *testing.T) {
	e := New()
	fn := &ast.FuncDecl{Name: "recurse", Params: nil, NumParams: 0}

	depth := 0
	for {
		_, err := e.BindCall(fn, nil)
		if err != nil {
			if _, ok := err.(*RecursionLimitError); !ok {
				t.Fatalf("expected RecursionLimitError, got %T: %v", err, err)
			}
			break
		}
		depth++
		if depth > DefaultRecursionLimit+10 {
			t.Fatal("recursion limit was never enforced")
		}
	}
	if depth != DefaultRecursionLimit {
		t.Errorf("recursion stopped at depth %d, want %d", depth, DefaultRecursionLimit)
	}
}

func TestCellTypeTransitions(t *testing.T) {
	c := NewCell()
	if !c.IsUnset() {
		t.Fatal("new cell should be unset")
	}
	c.SetScalar(types.Str("x"))
	if !c.IsScalar() || c.IsArray() {
		t.Errorf("cell should be scalar after SetScalar")
	}

	c2 := NewCell()
	c2.AsArray()["k"] = types.Num(1)
	if !c2.IsArray() || c2.IsScalar() {
		t.Errorf("cell should be array after AsArray")
	}
}

func TestIsSpecialVar(t *testing.T) {
	for _, name := range []string{"NR", "NF", "FPAT", "RT", "PROCINFO"} {
		if !IsSpecialVar(name) {
			t.Errorf("IsSpecialVar(%s) = false, want true", name)
		}
	}
	if IsSpecialVar("my_custom_var") {
		t.Errorf("IsSpecialVar(my_custom_var) = true, want false")
	}
}
