package services

import (
	"strings"
	"unicode/utf8"
)

const DefaultTLD = ".de"

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

// Normalizer turns organization names into candidate base domains.
type Normalizer struct {
	TLD       string
	MinLength int
}

func NewNormalizer(tld string, minLength int) Normalizer {
	if tld == "" {
		tld = DefaultTLD
	}
	if !strings.HasPrefix(tld, ".") {
		tld = "." + tld
	}
	if minLength < 1 {
		minLength = 4
	}
	return Normalizer{TLD: strings.ToLower(tld), MinLength: minLength}
}

// Normalize lowercases and trims label. Text containing a dot is taken as a
// finished domain; anything else is reduced to [a-z0-9-], with umlauts
// transliterated, and given the default TLD. A label with nothing usable left
// normalizes to "".
func (n Normalizer) Normalize(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" || strings.Contains(s, ".") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if keepRune(r) {
			b.WriteRune(r)
		}
	}
	name := umlauts.Replace(b.String())
	if name == "" {
		return ""
	}
	tld := n.TLD
	if tld == "" {
		tld = DefaultTLD
	}
	return name + tld
}

// Importable reports whether a normalized domain is long enough to import.
func (n Normalizer) Importable(domain string) bool {
	min := n.MinLength
	if min < 1 {
		min = 4
	}
	return utf8.RuneCountInString(domain) >= min
}

func keepRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		return true
	case r == 'ä', r == 'ö', r == 'ü', r == 'ß':
		return true
	}
	return false
}

// Normalize applies the default normalizer.
func Normalize(label string) string {
	return NewNormalizer(DefaultTLD, 4).Normalize(label)
}
