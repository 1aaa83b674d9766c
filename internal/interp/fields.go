package interp

import (
	"strings"

	"github.com/kolkov/gawk-core/internal/types"
)

// asciiSpace mirrors the teacher's lookup table for AWK's default-FS
// whitespace test (space, tab, newline, plus \r, \v and \f) without a strings.ContainsRune
// call per byte.
var asciiSpace = [256]bool{' ': true, '\t': true, '\n': true, '\r': true, '\v': true, '\f': true}

// record holds the current $0/fields state for one interpreter. Field
// splitting is lazy: a freshly read record only stores the raw line
// until something asks for $1..$NF or NF itself, matching the teacher's
// setLine/ensureFields split (done here without the teacher's
// generation-counter micro-optimization, since a tree-walking
// evaluator's per-statement dispatch overhead already dominates the
// cost a memset would add).
type record struct {
	line      string
	lineIsStr bool // true if $0 was assigned a pure string, not read from input
	rt        string

	fields     []string
	fieldIsStr []bool // true where the field was explicitly assigned as a string
	numFields  int
	haveFields bool
	haveNF     bool
}

// setLine installs a freshly read record, discarding any cached split.
func (r *record) setLine(line, rt string) {
	r.line = line
	r.rt = rt
	r.lineIsStr = false
	r.haveFields = false
	r.haveNF = false
	r.numFields = 0
}

// ensureFields performs (or reuses) a full split of the current line
// into fields, choosing a splitting mode from FS/FPAT the way §4.7
// specifies: default whitespace, single literal character, multi-char
// ERE, or FPAT positive-match mode.
func (it *Interp) ensureFields() {
	r := &it.rec
	if r.haveFields {
		return
	}
	r.haveFields = true
	r.haveNF = true
	r.fields = r.fields[:0]

	if r.line == "" {
		r.numFields = 0
		it.setNF(0)
		return
	}

	fpat := it.env.Global("FPAT").Scalar().AsStr(it.convfmt())
	if fpat != "" {
		it.splitFPAT(fpat)
	} else {
		fs := it.env.Global("FS").Scalar().AsStr(it.convfmt())
		switch {
		case it.rsIsParagraph() && fs == " ":
			// Paragraph mode additionally treats newline as a field
			// separator alongside runs of whitespace (§8 boundary case).
			r.fields = append(r.fields, splitWhitespaceAndNewline(r.line)...)
		case fs == " ":
			r.fields = append(r.fields, splitWhitespace(r.line)...)
		case len(fs) == 1 && fs != "\\":
			r.fields = append(r.fields, splitSingleChar(r.line, fs[0])...)
		case fs == "":
			r.fields = splitChars(r.line)
		default:
			re, err := it.regexes.Get(fs, it.ignoreCase())
			if err != nil {
				r.fields = append(r.fields, r.line)
			} else {
				r.fields = re.Split(r.line, -1)
			}
		}
	}

	for len(r.fieldIsStr) < len(r.fields) {
		r.fieldIsStr = append(r.fieldIsStr, false)
	}
	r.fieldIsStr = r.fieldIsStr[:len(r.fields)]
	for i := range r.fieldIsStr {
		r.fieldIsStr[i] = false
	}

	r.numFields = len(r.fields)
	it.setNF(r.numFields)
}

// splitFPAT fills r.fields with the matches of the FPAT pattern itself,
// rather than the text between matches (gawk's field-pattern mode).
func (it *Interp) splitFPAT(fpat string) {
	r := &it.rec
	re, err := it.regexes.Get(fpat, it.ignoreCase())
	if err != nil {
		r.fields = append(r.fields, r.line)
		return
	}
	for _, loc := range re.FindAllStringIndex(r.line, -1) {
		r.fields = append(r.fields, r.line[loc[0]:loc[1]])
	}
}

func splitWhitespace(line string) []string {
	var fields []string
	n := len(line)
	i := 0
	for i < n && asciiSpace[line[i]] {
		i++
	}
	for i < n {
		start := i
		for i < n && !asciiSpace[line[i]] {
			i++
		}
		fields = append(fields, line[start:i])
		for i < n && asciiSpace[line[i]] {
			i++
		}
	}
	return fields
}

// splitWhitespaceAndNewline splits paragraph-mode records (§8: "FS
// additionally includes \n" when RS is empty and FS is the default).
// Newline is already in asciiSpace, so this is splitWhitespace itself.
func splitWhitespaceAndNewline(line string) []string {
	return splitWhitespace(line)
}

func splitSingleChar(line string, sep byte) []string {
	var fields []string
	for {
		idx := strings.IndexByte(line, sep)
		if idx < 0 {
			break
		}
		fields = append(fields, line[:idx])
		line = line[idx+1:]
	}
	fields = append(fields, line)
	return fields
}

func splitChars(line string) []string {
	fields := make([]string, 0, len(line))
	for _, r := range line {
		fields = append(fields, string(r))
	}
	return fields
}

// countNF establishes NF without materializing field substrings, for
// the common case of a rule that only tests NF and never reads a field.
func (it *Interp) countNF() {
	r := &it.rec
	if r.haveNF {
		return
	}
	fs := it.env.Global("FS").Scalar().AsStr(it.convfmt())
	fpat := it.env.Global("FPAT").Scalar().AsStr(it.convfmt())
	if fpat != "" || (len(fs) != 1 && fs != " ") {
		it.ensureFields()
		return
	}
	r.haveNF = true
	if r.line == "" {
		r.numFields = 0
		it.setNF(0)
		return
	}
	if fs == " " {
		r.numFields = countFieldsWhitespace(r.line)
	} else {
		r.numFields = strings.Count(r.line, fs) + 1
	}
	it.setNF(r.numFields)
}

func countFieldsWhitespace(line string) int {
	n := len(line)
	i := 0
	count := 0
	for i < n && asciiSpace[line[i]] {
		i++
	}
	for i < n {
		count++
		for i < n && !asciiSpace[line[i]] {
			i++
		}
		for i < n && asciiSpace[line[i]] {
			i++
		}
	}
	return count
}

// getField implements $index read access, including the NumStr-vs-Str
// distinction §4.4 requires: text read straight from input is a numeric
// string, text produced by an explicit assignment is a pure string.
func (it *Interp) getField(index int) types.Value {
	r := &it.rec
	if index < 0 {
		return types.Str("")
	}
	if index == 0 {
		if r.lineIsStr {
			return types.Str(r.line)
		}
		return types.NumStr(r.line)
	}
	it.ensureFields()
	idx := index - 1
	if idx < r.numFields {
		if r.fieldIsStr[idx] {
			return types.Str(r.fields[idx])
		}
		return types.NumStr(r.fields[idx])
	}
	return types.Str("")
}

// setField implements $index = value, including NF growth/truncation
// and the $0 rebuild §4.7 mandates on every field write.
func (it *Interp) setField(index int, value types.Value) {
	r := &it.rec
	if index < 0 {
		return
	}
	if index == 0 {
		r.line = value.AsStr(it.convfmt())
		r.lineIsStr = value.IsStr()
		r.haveFields = false
		it.ensureFields()
		return
	}

	it.ensureFields()
	idx := index - 1
	for idx >= r.numFields {
		r.fields = append(r.fields, "")
		r.fieldIsStr = append(r.fieldIsStr, false)
		r.numFields++
	}
	r.fields[idx] = value.AsStr(it.convfmt())
	r.fieldIsStr[idx] = value.IsStr()
	it.setNF(r.numFields)
	it.rebuildLine()
	r.lineIsStr = false
}

// setNF writes NF's cached numeric value without touching the field
// vector; callers that already resized it (ensureFields, countNF,
// setField) use this to keep the special variable in sync.
func (it *Interp) setNF(n int) {
	it.env.Global("NF").SetScalar(types.Num(float64(n)))
}

// SetNF implements a user assignment to NF: truncates or extends the
// field vector to the requested length and rebuilds $0, per §4.7.
func (it *Interp) SetNF(n int) {
	r := &it.rec
	it.ensureFields()
	if n < 0 {
		n = 0
	}
	if n < len(r.fields) {
		r.fields = r.fields[:n]
		r.fieldIsStr = r.fieldIsStr[:n]
	} else {
		for len(r.fields) < n {
			r.fields = append(r.fields, "")
			r.fieldIsStr = append(r.fieldIsStr, false)
		}
	}
	r.numFields = n
	it.setNF(n)
	it.rebuildLine()
}

// rebuildLine rejoins the current fields with OFS into $0, called after
// every $i assignment and after an explicit NF assignment.
func (it *Interp) rebuildLine() {
	r := &it.rec
	ofs := it.env.Global("OFS").Scalar().AsStr(it.convfmt())
	var buf strings.Builder
	for i := 0; i < r.numFields; i++ {
		if i > 0 {
			buf.WriteString(ofs)
		}
		buf.WriteString(r.fields[i])
	}
	r.line = buf.String()
}
