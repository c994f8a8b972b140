package curation

import (
	"net/url"
	"regexp"
	"strings"
)

// Classifier tags articles as traditional media, social media or unknown
// using the host and name lists.
type Classifier struct {
	hosts         map[string]struct{}
	platformNames []string
	outlets       []string
	hostPattern   *regexp.Regexp
}

func NewClassifier(lists *Lists) *Classifier {
	c := &Classifier{
		hosts: make(map[string]struct{}),
	}

	var quoted []string
	for _, p := range lists.Platforms {
		for _, h := range p.Hosts {
			h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "www.")
			c.hosts[h] = struct{}{}
			quoted = append(quoted, regexp.QuoteMeta(h))
		}
		for _, name := range append([]string{p.Name}, p.Aliases...) {
			if f := matchForm(name); f != "" {
				c.platformNames = append(c.platformNames, f)
			}
		}
	}

	for _, o := range lists.Outlets {
		if f := matchForm(o); f != "" {
			c.outlets = append(c.outlets, f)
		}
	}

	if len(quoted) > 0 {
		c.hostPattern = regexp.MustCompile(`(?i)(?:^|[/.@])(?:` + strings.Join(quoted, "|") + `)(?:[/:?#]|$)`)
	}

	return c
}

// Classify returns the single best label for an article. Social signals win
// over outlet names; panels that need the asymmetric rules use
// IsSocial and IsTraditional directly.
func (c *Classifier) Classify(a Article) SourceKind {
	if c.IsSocial(a) {
		return SourceSocial
	}
	if c.IsTraditional(a) {
		return SourceTraditional
	}
	return SourceUnknown
}

// IsSocial checks, in order: content type, exact platform host, platform
// name in the source, host pattern anywhere in the URL, and post-shaped
// content with post-shaped metrics.
func (c *Classifier) IsSocial(a Article) bool {
	if IsSocialContentType(a.ContentType) {
		return true
	}

	if a.Navigable() {
		if host := hostOf(a.URL); host != "" {
			if _, ok := c.hosts[host]; ok {
				return true
			}
		}
	}

	if a.SourceName != "" {
		name := matchForm(a.SourceName)
		for _, p := range c.platformNames {
			if containsFragment(name, p) {
				return true
			}
		}
	}

	if a.Navigable() && c.hostPattern != nil && c.hostPattern.MatchString(a.URL) {
		return true
	}

	return a.SocialShaped
}

// IsTraditional reports whether the source name matches a known outlet.
func (c *Classifier) IsTraditional(a Article) bool {
	if a.SourceName == "" {
		return false
	}
	name := matchForm(a.SourceName)
	for _, o := range c.outlets {
		if containsFragment(name, o) {
			return true
		}
	}
	return false
}

// EditorialRule admits traditional outlets and anything not detected as social.
func (c *Classifier) EditorialRule(a Article) bool {
	return c.IsTraditional(a) || !c.IsSocial(a)
}

// SocialRule admits only explicit social matches.
func (c *Classifier) SocialRule(a Article) bool {
	return c.IsSocial(a)
}

// AnyRule admits every article.
func AnyRule(Article) bool {
	return true
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// containsFragment matches fragment inside name on word boundaries. Dots
// count as boundaries too, so "reuters.com" matches "reuters".
func containsFragment(name, fragment string) bool {
	if strings.Contains(" "+name+" ", " "+fragment+" ") {
		return true
	}
	return strings.Contains(" "+strings.ReplaceAll(name, ".", " ")+" ", " "+fragment+" ")
}
