package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kolkov/gawk-core/internal/ast"
	"github.com/kolkov/gawk-core/internal/types"
)

// sprintf implements AWK's printf/sprintf formatting, grounded on the
// teacher's hand-written builtinSprintf: a small state machine over
// flags/width/precision/specifier, since Go's fmt verbs are close but
// not identical to AWK's (notably %c's number-vs-string dispatch and
// %i as a synonym for %d).
func (it *Interp) sprintf(format string, args []types.Value) (string, error) {
	var result strings.Builder
	idx := 0
	next := func() types.Value {
		if idx < len(args) {
			v := args[idx]
			idx++
			return v
		}
		return types.Null()
	}

	i := 0
	for i < len(format) {
		if format[i] != '%' {
			result.WriteByte(format[i])
			i++
			continue
		}
		i++
		if i >= len(format) {
			result.WriteByte('%')
			break
		}
		if format[i] == '%' {
			result.WriteByte('%')
			i++
			continue
		}

		var flags strings.Builder
		for i < len(format) && strings.ContainsAny(string(format[i]), "-+ #0") {
			flags.WriteByte(format[i])
			i++
		}

		var width string
		if i < len(format) && format[i] == '*' {
			w := int(next().AsNum())
			if w < 0 {
				flags.WriteByte('-')
				w = -w
			}
			width = strconv.Itoa(w)
			i++
		} else {
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				width += string(format[i])
				i++
			}
		}

		var precision string
		if i < len(format) && format[i] == '.' {
			precision = "."
			i++
			if i < len(format) && format[i] == '*' {
				p := int(next().AsNum())
				if p >= 0 {
					precision += strconv.Itoa(p)
				} else {
					precision = ""
				}
				i++
			} else {
				for i < len(format) && format[i] >= '0' && format[i] <= '9' {
					precision += string(format[i])
					i++
				}
			}
		}

		if i >= len(format) {
			result.WriteString("%" + flags.String() + width + precision)
			break
		}
		specifier := format[i]
		i++
		value := next()

		switch specifier {
		case 'd', 'i':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"d", int64(value.AsNum()))
		case 'o':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"o", uint64(value.AsNum()))
		case 'x':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"x", uint64(value.AsNum()))
		case 'X':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"X", uint64(value.AsNum()))
		case 'u':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"d", uint64(value.AsNum()))
		case 'c':
			if value.IsNum() || value.IsNull() {
				n := int(value.AsNum())
				if n >= 0 && n <= 0x10FFFF {
					result.WriteRune(rune(n))
				}
			} else {
				s := value.AsStr(it.convfmt())
				if len(s) > 0 {
					result.WriteRune([]rune(s)[0])
				}
			}
		case 's':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"s", value.AsStr(it.convfmt()))
		case 'e':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"e", value.AsNum())
		case 'E':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"E", value.AsNum())
		case 'f', 'F':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"f", value.AsNum())
		case 'g':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"g", value.AsNum())
		case 'G':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"G", value.AsNum())
		default:
			result.WriteByte('%')
			result.WriteByte(specifier)
		}
	}
	return result.String(), nil
}

// handleAwkReplacement applies sub/gsub's replacement-text rules: '&'
// stands for the matched text, '\&' is a literal ampersand, '\\' a
// literal backslash. Grounded on the teacher's handleAwkReplacement.
func handleAwkReplacement(replacement, matched string) string {
	var result strings.Builder
	i := 0
	for i < len(replacement) {
		if replacement[i] == '\\' && i+1 < len(replacement) {
			switch replacement[i+1] {
			case '&':
				result.WriteByte('&')
				i += 2
				continue
			case '\\':
				result.WriteByte('\\')
				i += 2
				continue
			}
		}
		if replacement[i] == '&' {
			result.WriteString(matched)
		} else {
			result.WriteByte(replacement[i])
		}
		i++
	}
	return result.String()
}

// builtinSub implements sub(ere, repl[, target]) and gsub(ere, repl[,
// target]): target is an lvalue defaulting to $0, modified in place,
// and the return value is the substitution count.
func (it *Interp) builtinSub(args []ast.Expr, global bool) (types.Value, error) {
	if len(args) < 2 {
		return types.Null(), fmt.Errorf("sub/gsub: requires (ere, repl[, target])")
	}
	pattern, err := it.patternString(args[0])
	if err != nil {
		return types.Null(), err
	}
	repl, err := it.evalStr(args, 1)
	if err != nil {
		return types.Null(), err
	}
	var target ast.Expr = &ast.FieldExpr{}
	if len(args) > 2 {
		target = args[2]
	}
	cur, err := it.eval(target)
	if err != nil {
		return types.Null(), err
	}
	s := cur.AsStr(it.convfmt())

	re, err := it.regexes.Get(pattern, it.ignoreCase())
	if err != nil {
		return types.Null(), fmt.Errorf("invalid regex /%s/: %w", pattern, err)
	}

	count := 0
	var result string
	if global {
		result = re.ReplaceAllStringFunc(s, func(matched string) string {
			count++
			return handleAwkReplacement(repl, matched)
		})
	} else {
		loc := re.FindStringIndex(s)
		if loc == nil {
			result = s
		} else {
			count = 1
			matched := s[loc[0]:loc[1]]
			result = s[:loc[0]] + handleAwkReplacement(repl, matched) + s[loc[1]:]
		}
	}

	if count > 0 {
		if err := it.assignTo(target, types.Str(result)); err != nil {
			return types.Null(), err
		}
	}
	return types.Num(float64(count)), nil
}

// builtinGensub implements gensub(ere, repl, how[, target]): unlike
// sub/gsub it never writes back through target and supports \1-\9
// backreferences to capturing groups in repl, in addition to &/\&.
func (it *Interp) builtinGensub(args []ast.Expr) (types.Value, error) {
	if len(args) < 3 {
		return types.Null(), fmt.Errorf("gensub: requires (ere, repl, how[, target])")
	}
	pattern, err := it.patternString(args[0])
	if err != nil {
		return types.Null(), err
	}
	repl, err := it.evalStr(args, 1)
	if err != nil {
		return types.Null(), err
	}
	how, err := it.evalStr(args, 2)
	if err != nil {
		return types.Null(), err
	}
	var s string
	if len(args) > 3 {
		v, err := it.eval(args[3])
		if err != nil {
			return types.Null(), err
		}
		s = v.AsStr(it.convfmt())
	} else {
		s = it.rec.line
	}

	re, err := it.regexes.Get(pattern, it.ignoreCase())
	if err != nil {
		return types.Null(), fmt.Errorf("invalid regex /%s/: %w", pattern, err)
	}

	global := how == "g" || how == "G"
	which := 0
	if !global {
		which, _ = strconv.Atoi(how)
		if which < 1 {
			which = 1
		}
	}

	var out strings.Builder
	pos := 0
	matchNum := 0
	for pos <= len(s) {
		locs := re.FindStringSubmatchIndex(s[pos:])
		if locs == nil {
			break
		}
		for i := range locs {
			if locs[i] >= 0 {
				locs[i] += pos
			}
		}
		matchNum++
		if global || matchNum == which {
			out.WriteString(s[pos:locs[0]])
			out.WriteString(expandGensubRepl(repl, s, locs))
		} else {
			out.WriteString(s[pos:locs[1]])
		}
		if locs[1] == locs[0] {
			if locs[1] < len(s) {
				out.WriteByte(s[locs[1]])
			}
			pos = locs[1] + 1
		} else {
			pos = locs[1]
		}
		if !global && matchNum == which {
			break
		}
	}
	if pos < len(s) {
		out.WriteString(s[pos:])
	}
	return types.Str(out.String()), nil
}

// expandGensubRepl expands &, \&, \\, and \1-\9 group backreferences
// against locs (a FindStringSubmatchIndex-shaped slice into s).
func expandGensubRepl(repl, s string, locs []int) string {
	var out strings.Builder
	i := 0
	for i < len(repl) {
		c := repl[i]
		if c == '\\' && i+1 < len(repl) {
			next := repl[i+1]
			switch {
			case next == '&':
				out.WriteByte('&')
				i += 2
				continue
			case next == '\\':
				out.WriteByte('\\')
				i += 2
				continue
			case next >= '0' && next <= '9':
				g := int(next - '0')
				if 2*g+1 < len(locs) && locs[2*g] >= 0 {
					out.WriteString(s[locs[2*g]:locs[2*g+1]])
				}
				i += 2
				continue
			}
		}
		if c == '&' {
			out.WriteString(s[locs[0]:locs[1]])
			i++
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

// builtinMatch implements match(s, ere[, arr]): sets RSTART/RLENGTH
// and, when an array argument is given (gawk extension), fills it with
// the whole match and every capturing group's start/length/text, under
// keys n, n SUBSEP "start", n SUBSEP "length" for n = 0, 1, 2, ...
// (§3's Array model: multi-part subscripts are SUBSEP-joined, so a
// caller reading these back via arr[n,"start"] sees the same key).
func (it *Interp) builtinMatch(args []ast.Expr) (types.Value, error) {
	if len(args) < 2 {
		return types.Null(), fmt.Errorf("match: requires (s, ere)")
	}
	s, err := it.evalStr(args, 0)
	if err != nil {
		return types.Null(), err
	}
	pattern, err := it.patternString(args[1])
	if err != nil {
		return types.Null(), err
	}
	re, err := it.regexes.Get(pattern, it.ignoreCase())
	if err != nil {
		return types.Null(), fmt.Errorf("invalid regex /%s/: %w", pattern, err)
	}
	locs := re.FindStringSubmatchIndex(s)
	rstart, rlength := 0, -1
	if locs != nil {
		rstart = locs[0] + 1
		rlength = locs[1] - locs[0]
	}
	it.env.Global("RSTART").SetScalar(types.Num(float64(rstart)))
	it.env.Global("RLENGTH").SetScalar(types.Num(float64(rlength)))

	if len(args) > 2 && locs != nil {
		arr, err := it.resolveArray(args[2])
		if err == nil {
			for k := range arr {
				delete(arr, k)
			}
			subsep := it.subsep()
			for g := 0; 2*g+1 < len(locs); g++ {
				gStart, gEnd := locs[2*g], locs[2*g+1]
				n := strconv.Itoa(g)
				if gStart < 0 {
					arr[n] = types.Str("")
					arr[n+subsep+"start"] = types.Num(0)
					arr[n+subsep+"length"] = types.Num(-1)
					continue
				}
				arr[n] = types.Str(s[gStart:gEnd])
				arr[n+subsep+"start"] = types.Num(float64(gStart + 1))
				arr[n+subsep+"length"] = types.Num(float64(gEnd - gStart))
			}
		}
	}
	return types.Num(float64(rstart)), nil
}
