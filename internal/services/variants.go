package services

import "strings"

var variantPrefixes = []string{"das-", "der-", "die-", "mein-"}

// GenerateVariants returns the alternate spellings of base in probe order:
// a hyphen at every interior position of the name, then the article
// prefixes. The TLD is everything after the first dot. A base without a dot
// or with an empty name has no variants.
func GenerateVariants(base string) []string {
	name, tld, ok := strings.Cut(base, ".")
	if !ok || name == "" {
		return nil
	}
	runes := []rune(name)
	out := make([]string, 0, len(runes)-1+len(variantPrefixes))
	seen := make(map[string]struct{}, cap(out))
	add := func(v string) {
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for i := 1; i < len(runes); i++ {
		add(string(runes[:i]) + "-" + string(runes[i:]) + "." + tld)
	}
	for _, p := range variantPrefixes {
		add(p + name + "." + tld)
	}
	return out
}
