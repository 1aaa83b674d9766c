package i18n

import "testing"

func TestParsePluralExprEnglish(t *testing.T) {
	expr, err := parsePluralExpr("n != 1")
	if err != nil {
		t.Fatalf("parsePluralExpr: %v", err)
	}
	cases := map[int]int{0: 1, 1: 0, 2: 1, 100: 1}
	for n, want := range cases {
		if got := expr.eval(n); got != want {
			t.Errorf("eval(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestParsePluralExprPolish(t *testing.T) {
	// Polish's real Plural-Forms expression: three forms depending on
	// the last digit and whether n is a "teen" number.
	const polish = "n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2"
	expr, err := parsePluralExpr(polish)
	if err != nil {
		t.Fatalf("parsePluralExpr: %v", err)
	}
	cases := map[int]int{1: 0, 2: 1, 5: 2, 12: 2, 22: 1, 102: 1, 111: 2}
	for n, want := range cases {
		if got := expr.eval(n); got != want {
			t.Errorf("eval(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestParsePluralHeaderFallback(t *testing.T) {
	rule := parsePluralHeader("Content-Type: text/plain\n")
	if rule.index(1) != 0 || rule.index(2) != 1 {
		t.Errorf("expected English fallback rule when header has no Plural-Forms")
	}
}

func TestParsePluralExprInvalid(t *testing.T) {
	if _, err := parsePluralExpr("n ++"); err == nil {
		t.Error("expected error for malformed expression")
	}
}
