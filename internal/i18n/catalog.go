package i18n

import (
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/text/language"
)

// Catalog is a gettext-style message catalog backing the AWK builtins
// dcgettext/dcngettext/bindtextdomain (spec.md §1, §4.9). It loads
// compiled .mo files lazily from the standard gettext directory layout:
//
//	<textdomaindir>/<locale>/LC_MESSAGES/<domain>.mo
//
// and caches the parsed result per (directory, domain, locale) triple,
// since a long-running AWK program may call dcgettext for the same
// domain thousands of times per run.
type Catalog struct {
	mu        sync.Mutex
	domainDir map[string]string // domain -> textdomaindir (bindtextdomain)
	loaded    map[string]*moCatalog
	available map[string][]language.Tag // textdomaindir -> locales found on disk
}

// NewCatalog returns an empty catalog. The default text domain
// directory (used when a domain has never been bound) is the current
// process's locale search path convention, /usr/share/locale, matching
// glibc's compiled-in default.
func NewCatalog() *Catalog {
	return &Catalog{
		domainDir: make(map[string]string),
		loaded:    make(map[string]*moCatalog),
		available: make(map[string][]language.Tag),
	}
}

const defaultTextDomainDir = "/usr/share/locale"

// Bindtextdomain records the directory under which domain's .mo files
// live, mirroring the C library call of the same name. Passing an empty
// directory leaves any existing binding unchanged and only returns the
// current one (defaultTextDomainDir for an unbound domain), the way
// glibc's bindtextdomain does when called with a NULL dirname.
func (c *Catalog) Bindtextdomain(domain, directory string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if directory != "" {
		c.domainDir[domain] = directory
	}
	if dir, ok := c.domainDir[domain]; ok {
		return dir
	}
	return defaultTextDomainDir
}

// currentLocale resolves the effective LC_MESSAGES locale following
// gettext's own environment precedence: LANGUAGE, then LC_ALL, then
// LC_MESSAGES, then LANG, falling back to "C" (which gettext treats as
// "no translation, return the original string").
func currentLocale() string {
	for _, key := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "C"
}

// lookup finds the loaded .mo catalog for domain under the process's
// current locale, returning nil if none is available (including locale
// "C", or a domain/locale combination with no catalog on disk).
func (c *Catalog) lookup(domain string) *moCatalog {
	locale := currentLocale()
	if locale == "C" || locale == "POSIX" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir, ok := c.domainDir[domain]
	if !ok {
		dir = defaultTextDomainDir
	}

	resolved := c.resolveLocaleDirLocked(dir, locale)
	cacheKey := dir + "\x00" + domain + "\x00" + resolved
	if cat, ok := c.loaded[cacheKey]; ok {
		return cat // may be nil, meaning "known missing"
	}

	moPath := filepath.Join(dir, resolved, "LC_MESSAGES", domain+".mo")
	data, err := os.ReadFile(moPath)
	if err != nil {
		c.loaded[cacheKey] = nil
		return nil
	}
	cat, err := parseMO(data)
	if err != nil {
		c.loaded[cacheKey] = nil
		return nil
	}
	c.loaded[cacheKey] = cat
	return cat
}

// resolveLocaleDirLocked picks the best available locale subdirectory
// of dir for the requested locale string, using BCP-47 tag matching so
// a request for "en_US.UTF-8" or "en-US" finds an installed "en"
// catalog when no exact "en_US" directory exists. Caller must hold
// c.mu.
func (c *Catalog) resolveLocaleDirLocked(dir, locale string) string {
	wanted, err := language.Parse(normalizeLocale(locale))
	if err != nil {
		return locale
	}

	tags, ok := c.available[dir]
	if !ok {
		tags = scanLocaleDirs(dir)
		c.available[dir] = tags
	}
	if len(tags) == 0 {
		return locale
	}

	matcher := language.NewMatcher(tags)
	_, index, confidence := matcher.Match(wanted)
	if confidence == language.No {
		return locale
	}
	return tags[index].String()
}

// normalizeLocale strips glibc-style locale suffixes (encoding,
// modifier) that language.Parse does not accept, e.g. "en_US.UTF-8" ->
// "en_US", "pt_BR@euro" -> "pt_BR".
func normalizeLocale(locale string) string {
	if i := indexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	return locale
}

func indexAny(s, chars string) int {
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(chars); j++ {
			if s[i] == chars[j] {
				return i
			}
		}
	}
	return -1
}

// scanLocaleDirs lists the immediate subdirectories of dir that look
// like locale names, for use as the candidate set in BCP-47 matching.
// Directories that don't parse as a language tag are skipped rather
// than erroring, since a locale tree can contain non-locale entries.
func scanLocaleDirs(dir string) []language.Tag {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var tags []language.Tag
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		tag, err := language.Parse(normalizeLocale(e.Name()))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
