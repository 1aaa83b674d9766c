package i18n

import (
	"strconv"
	"strings"
)

// defaultPluralForms is the fallback used when a catalog's header has no
// Plural-Forms line, or the catalog itself is missing: English's rule
// (nplurals=2; plural=n!=1), which also happens to be correct for most
// of the languages gawk ships translations for.
var defaultPluralForms = pluralRule{nplurals: 2, expr: mustParsePluralExpr("n != 1")}

// pluralRule is a parsed "Plural-Forms: nplurals=N; plural=EXPR;" header
// value: the plural count and a tiny compiled C-expression that maps a
// count n to a plural form index in [0, nplurals).
type pluralRule struct {
	nplurals int
	expr     pluralExpr
}

// index evaluates the rule for count n, clamping out-of-range results
// into [0, nplurals) the way glibc's plural.c does for malformed
// catalogs.
func (r pluralRule) index(n int) int {
	if r.expr == nil {
		return defaultPluralForms.index(n)
	}
	idx := r.expr.eval(n)
	if idx < 0 {
		idx = 0
	}
	if r.nplurals > 0 && idx >= r.nplurals {
		idx = r.nplurals - 1
	}
	return idx
}

// parsePluralHeader extracts the Plural-Forms rule from a .mo header
// block (the msgstr for msgid ""). Returns defaultPluralForms if the
// header is absent or unparseable.
func parsePluralHeader(header string) pluralRule {
	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSpace(line)
		const prefix = "Plural-Forms:"
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		rest := strings.TrimSpace(line[len(prefix):])
		var nplurals int
		var exprStr string
		for _, field := range strings.Split(rest, ";") {
			field = strings.TrimSpace(field)
			switch {
			case strings.HasPrefix(field, "nplurals="):
				n, err := strconv.Atoi(strings.TrimPrefix(field, "nplurals="))
				if err == nil {
					nplurals = n
				}
			case strings.HasPrefix(field, "plural="):
				exprStr = strings.TrimPrefix(field, "plural=")
			}
		}
		if nplurals == 0 || exprStr == "" {
			break
		}
		expr, err := parsePluralExpr(exprStr)
		if err != nil {
			break
		}
		return pluralRule{nplurals: nplurals, expr: expr}
	}
	return defaultPluralForms
}

// pluralExpr evaluates a gettext plural-form C expression for a given n.
type pluralExpr interface {
	eval(n int) int
}

func mustParsePluralExpr(s string) pluralExpr {
	e, err := parsePluralExpr(s)
	if err != nil {
		panic("i18n: invalid built-in plural expression: " + err.Error())
	}
	return e
}
