package i18n

import (
	"encoding/binary"
	"fmt"
)

// moMagicLE and moMagicBE are the two byte orders GNU gettext's compiled
// .mo format can be written in; the first four bytes of the file say
// which one applies to everything that follows.
const (
	moMagicLE = 0x950412de
	moMagicBE = 0xde120495
)

// moCatalog is the parsed contents of one compiled .mo file: msgid to
// msgstr, where a msgid containing plural forms is split on its NUL
// separator into Singular/Plural and msgstr into one string per plural
// form.
type moCatalog struct {
	// messages maps a plain msgid to its translation.
	messages map[string]string
	// plurals maps a plural msgid (the singular English form, gettext's
	// own lookup key for plural entries) to its ordered plural-form
	// translations.
	plurals map[string][]string
	// header holds msgid "" 's msgstr, the catalog metadata block
	// (Content-Type, Plural-Forms, ...).
	header string
}

// parseMO parses a compiled GNU gettext .mo file. Only the core lookup
// table is used (no charset re-encoding: this module works in UTF-8
// throughout, the only encoding spec.md's builtins need).
func parseMO(data []byte) (*moCatalog, error) {
	if len(data) < 28 {
		return nil, fmt.Errorf("i18n: .mo file too short (%d bytes)", len(data))
	}

	var order binary.ByteOrder
	switch binary.LittleEndian.Uint32(data[0:4]) {
	case moMagicLE:
		order = binary.LittleEndian
	case moMagicBE:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("i18n: not a .mo file (bad magic)")
	}

	u32 := func(off int) uint32 { return order.Uint32(data[off : off+4]) }

	numStrings := u32(8)
	origTableOff := u32(12)
	transTableOff := u32(16)

	readStr := func(tableOff int, index uint32) (string, error) {
		entryOff := tableOff + int(index)*8
		if entryOff+8 > len(data) {
			return "", fmt.Errorf("i18n: .mo string table entry out of range")
		}
		length := order.Uint32(data[entryOff : entryOff+4])
		off := order.Uint32(data[entryOff+4 : entryOff+8])
		if int(off)+int(length) > len(data) {
			return "", fmt.Errorf("i18n: .mo string data out of range")
		}
		return string(data[off : off+length]), nil
	}

	cat := &moCatalog{
		messages: make(map[string]string),
		plurals:  make(map[string][]string),
	}

	for i := uint32(0); i < numStrings; i++ {
		orig, err := readStr(int(origTableOff), i)
		if err != nil {
			return nil, err
		}
		trans, err := readStr(int(transTableOff), i)
		if err != nil {
			return nil, err
		}

		if orig == "" {
			cat.header = trans
			continue
		}

		// Plural entries store "singular\x00plural" as the msgid and
		// "form0\x00form1\x00..." as the msgstr; gettext looks plural
		// translations up by the singular form.
		if nul := indexByte(orig, 0); nul >= 0 {
			singular := orig[:nul]
			cat.plurals[singular] = splitNUL(trans)
			continue
		}

		cat.messages[orig] = trans
	}

	return cat, nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func splitNUL(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
