package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestCatalog(t *testing.T, root, locale, domain string, entries [][2]string) {
	t.Helper()
	dir := filepath.Join(root, locale, "LC_MESSAGES")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	data := buildMO(t, entries)
	if err := os.WriteFile(filepath.Join(dir, domain+".mo"), data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func withLocale(t *testing.T, locale string) {
	t.Helper()
	old := os.Getenv("LANGUAGE")
	os.Setenv("LANGUAGE", locale)
	t.Cleanup(func() { os.Setenv("LANGUAGE", old) })
}

func TestDcgettextTranslatesWhenCatalogPresent(t *testing.T) {
	root := t.TempDir()
	writeTestCatalog(t, root, "fr", "myapp", [][2]string{
		{"", "Plural-Forms: nplurals=2; plural=n != 1;\n"},
		{"hello", "bonjour"},
	})
	withLocale(t, "fr")

	g := NewGettext()
	g.Bindtextdomain("myapp", root)

	if got := g.Dcgettext("hello", "myapp"); got != "bonjour" {
		t.Errorf("Dcgettext(hello) = %q, want bonjour", got)
	}
	if got := g.Dcgettext("unknown key", "myapp"); got != "unknown key" {
		t.Errorf("Dcgettext(unknown key) = %q, want itself unchanged", got)
	}
}

func TestDcgettextFallsBackWithoutCatalog(t *testing.T) {
	withLocale(t, "xx")
	g := NewGettext()
	if got := g.Dcgettext("hello", "nosuchdomain"); got != "hello" {
		t.Errorf("Dcgettext = %q, want input unchanged", got)
	}
}

func TestDcgettextCLocaleNeverTranslates(t *testing.T) {
	root := t.TempDir()
	writeTestCatalog(t, root, "fr", "myapp", [][2]string{
		{"hello", "bonjour"},
	})
	withLocale(t, "C")

	g := NewGettext()
	g.Bindtextdomain("myapp", root)
	if got := g.Dcgettext("hello", "myapp"); got != "hello" {
		t.Errorf("Dcgettext under C locale = %q, want untranslated", got)
	}
}

func TestDcngettextPluralSelection(t *testing.T) {
	root := t.TempDir()
	writeTestCatalog(t, root, "fr", "myapp", [][2]string{
		{"", "Plural-Forms: nplurals=2; plural=n != 1;\n"},
		{"%d file\x00%d files", "%d fichier\x00%d fichiers"},
	})
	withLocale(t, "fr")

	g := NewGettext()
	g.Bindtextdomain("myapp", root)

	if got := g.Dcngettext("%d file", "%d files", 1, "myapp"); got != "%d fichier" {
		t.Errorf("Dcngettext(n=1) = %q, want %%d fichier", got)
	}
	if got := g.Dcngettext("%d file", "%d files", 5, "myapp"); got != "%d fichiers" {
		t.Errorf("Dcngettext(n=5) = %q, want %%d fichiers", got)
	}
}

func TestDcngettextEnglishFallback(t *testing.T) {
	withLocale(t, "xx")
	g := NewGettext()
	if got := g.Dcngettext("one file", "many files", 1, "nosuchdomain"); got != "one file" {
		t.Errorf("Dcngettext(n=1) fallback = %q, want \"one file\"", got)
	}
	if got := g.Dcngettext("one file", "many files", 3, "nosuchdomain"); got != "many files" {
		t.Errorf("Dcngettext(n=3) fallback = %q, want \"many files\"", got)
	}
}

func TestBindtextdomainRoundTrip(t *testing.T) {
	g := NewGettext()
	if got := g.Bindtextdomain("myapp", "/opt/locale"); got != "/opt/locale" {
		t.Errorf("Bindtextdomain set = %q, want /opt/locale", got)
	}
	if got := g.Bindtextdomain("myapp", ""); got != "/opt/locale" {
		t.Errorf("Bindtextdomain query = %q, want previously bound /opt/locale", got)
	}
}

func TestLocaleDirMatchingFallsBackToGenericLocale(t *testing.T) {
	root := t.TempDir()
	// Only a generic "fr" catalog is installed, but the process
	// requests the more specific "fr_CA".
	writeTestCatalog(t, root, "fr", "myapp", [][2]string{
		{"hello", "bonjour"},
	})
	withLocale(t, "fr_CA.UTF-8")

	g := NewGettext()
	g.Bindtextdomain("myapp", root)
	if got := g.Dcgettext("hello", "myapp"); got != "bonjour" {
		t.Errorf("Dcgettext with fr_CA request = %q, want bonjour (fallback to fr)", got)
	}
}
