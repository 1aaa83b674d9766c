package i18n

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildMO assembles a minimal little-endian .mo file from a list of
// (msgid, msgstr) pairs, for use as test fixtures. Real .mo files are
// produced by msgfmt; this hand-rolls the same layout gettext's own
// format documentation describes.
func buildMO(t *testing.T, entries [][2]string) []byte {
	t.Helper()

	n := uint32(len(entries))
	headerSize := uint32(28)
	origTableOff := headerSize
	transTableOff := origTableOff + n*8

	var strs bytes.Buffer
	origEntries := make([][2]uint32, n) // length, offset
	transEntries := make([][2]uint32, n)

	dataStart := transTableOff + n*8
	for i, e := range entries {
		origEntries[i] = [2]uint32{uint32(len(e[0])), dataStart + uint32(strs.Len())}
		strs.WriteString(e[0])
		strs.WriteByte(0)
	}
	for i, e := range entries {
		transEntries[i] = [2]uint32{uint32(len(e[1])), dataStart + uint32(strs.Len())}
		strs.WriteString(e[1])
		strs.WriteByte(0)
	}

	var buf bytes.Buffer
	w := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }

	w(moMagicLE)
	w(0) // revision
	w(n)
	w(origTableOff)
	w(transTableOff)
	w(0) // hash table size
	w(0) // hash table offset

	for _, e := range origEntries {
		w(e[0])
		w(e[1])
	}
	for _, e := range transEntries {
		w(e[0])
		w(e[1])
	}
	buf.Write(strs.Bytes())

	return buf.Bytes()
}

func TestParseMOSimple(t *testing.T) {
	data := buildMO(t, [][2]string{
		{"", "Content-Type: text/plain; charset=UTF-8\nPlural-Forms: nplurals=2; plural=n != 1;\n"},
		{"hello", "bonjour"},
		{"goodbye", "au revoir"},
	})

	cat, err := parseMO(data)
	if err != nil {
		t.Fatalf("parseMO: %v", err)
	}
	if got := cat.messages["hello"]; got != "bonjour" {
		t.Errorf("messages[hello] = %q, want bonjour", got)
	}
	if got := cat.messages["goodbye"]; got != "au revoir" {
		t.Errorf("messages[goodbye] = %q, want \"au revoir\"", got)
	}
}

func TestParseMOPlural(t *testing.T) {
	data := buildMO(t, [][2]string{
		{"", "Plural-Forms: nplurals=2; plural=n != 1;\n"},
		{"%d file\x00%d files", "%d fichier\x00%d fichiers"},
	})

	cat, err := parseMO(data)
	if err != nil {
		t.Fatalf("parseMO: %v", err)
	}
	forms, ok := cat.plurals["%d file"]
	if !ok {
		t.Fatalf("expected plural entry for %%d file")
	}
	if len(forms) != 2 || forms[0] != "%d fichier" || forms[1] != "%d fichiers" {
		t.Errorf("plural forms = %v, want [%%d fichier %%d fichiers]", forms)
	}
}

func TestParseMOBadMagic(t *testing.T) {
	_, err := parseMO([]byte("not a mo file at all, but long enough"))
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
}
