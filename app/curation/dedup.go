package curation

import (
	"net/url"
	"strings"
)

const (
	keyPrefixID    = "id:"
	keyPrefixURL   = "url:"
	keyPrefixTitle = "title:"
	keyPrefixDesc  = "desc:"
)

// KeysFor returns the identity keys of an article. Two articles are
// duplicates when any of their keys match. Synthetic titles and descriptions
// yield no key.
func KeysFor(a Article) []string {
	keys := make([]string, 0, 4)
	keys = append(keys, keyPrefixID+identity(a))

	if a.Navigable() {
		if canonical := CanonicalURL(a.URL); canonical != "" {
			keys = append(keys, keyPrefixURL+canonical)
		}
	}

	if !a.SyntheticTitle {
		if title := NormalizeText(a.Title); title != "" {
			keys = append(keys, keyPrefixTitle+title)
		}
	}

	if !a.SyntheticDescription {
		if desc := truncateRunes(NormalizeText(a.Description), MaxDescriptionKey); desc != "" {
			keys = append(keys, keyPrefixDesc+desc)
		}
	}

	return keys
}

func identity(a Article) string {
	if a.Navigable() {
		return a.URL
	}
	return strings.ToLower(strings.Join(strings.Fields(a.SourceName+"_"+a.Title), "_"))
}

// CanonicalURL returns host and path of a URL with "www." and trailing
// slashes removed. Query strings and fragments are dropped, so tracking
// parameters do not defeat duplicate detection.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.TrimRight(u.EscapedPath(), "/")
	return host + path
}

// Seen is the set of keys already shown during one curation pass.
type Seen map[string]struct{}

func NewSeen() Seen {
	return make(Seen)
}

// Has reports whether any of keys is present.
func (s Seen) Has(keys []string) bool {
	for _, k := range keys {
		if _, ok := s[k]; ok {
			return true
		}
	}
	return false
}

func (s Seen) Add(keys []string) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}
