package i18n

// Gettext provides the gettext-family builtins spec.md assigns to the
// interpreter: dcgettext, dcngettext and bindtextdomain, backed by a
// Catalog. The zero value is not usable; construct with NewGettext.
type Gettext struct {
	catalog *Catalog
}

// NewGettext returns a ready-to-use gettext facade with an empty
// catalog (no domains bound yet; an unbound domain is looked up under
// defaultTextDomainDir, and dcgettext returns its input unchanged when
// no catalog is found there).
func NewGettext() *Gettext {
	return &Gettext{catalog: NewCatalog()}
}

// Bindtextdomain implements the bindtextdomain(domain [, directory])
// builtin: sets (or, with an empty directory, queries) the directory
// gettext searches for domain's compiled catalogs.
func (g *Gettext) Bindtextdomain(domain, directory string) string {
	if domain == "" {
		return defaultTextDomainDir
	}
	return g.catalog.Bindtextdomain(domain, directory)
}

// Dcgettext implements dcgettext(string [, domain]): translates string
// as a msgid looked up in domain, returning string itself unchanged if
// no translation is found, matching gettext's own fallback rule so a
// missing catalog never turns into output corruption.
func (g *Gettext) Dcgettext(msgid, domain string) string {
	cat := g.catalog.lookup(domain)
	if cat == nil {
		return msgid
	}
	if trans, ok := cat.messages[msgid]; ok {
		return trans
	}
	return msgid
}

// Dcngettext implements dcngettext(string1, string2, number [, domain]):
// the plural-aware counterpart of Dcgettext. string1 is the singular
// English msgid (also the plural lookup key, per gettext convention),
// string2 the English plural fallback, and number selects both which
// catalog plural form to use and which English fallback to return when
// no catalog applies.
func (g *Gettext) Dcngettext(msgid1, msgid2 string, number int, domain string) string {
	cat := g.catalog.lookup(domain)
	if cat == nil {
		return englishPlural(msgid1, msgid2, number)
	}
	forms, ok := cat.plurals[msgid1]
	if !ok || len(forms) == 0 {
		return englishPlural(msgid1, msgid2, number)
	}
	rule := parsePluralHeader(cat.header)
	idx := rule.index(number)
	if idx < 0 || idx >= len(forms) {
		idx = 0
	}
	return forms[idx]
}

func englishPlural(singular, plural string, n int) string {
	if n == 1 {
		return singular
	}
	return plural
}
