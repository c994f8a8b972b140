package curation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern         = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)
	hashtagPattern     = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionPattern     = regexp.MustCompile(`@[\p{L}\p{N}_.]+`)
	parentheticPattern = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]`)
	markupPattern      = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
)

// foldDiacritics decomposes the string and drops combining marks, so
// "Información" and "Informacion" fold to the same text.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeText produces the comparison form used by duplicate keys:
// diacritics folded, lowercased, URLs, hashtags, mentions, parenthetical
// asides, emoji and punctuation removed, whitespace collapsed.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}

	s = foldDiacritics(s)
	s = strings.ToLower(s)
	s = urlPattern.ReplaceAllString(s, " ")
	s = hashtagPattern.ReplaceAllString(s, " ")
	s = mentionPattern.ReplaceAllString(s, " ")
	s = parentheticPattern.ReplaceAllString(s, " ")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)

	return collapseSpaces(s)
}

// matchForm is the form used for name list lookups: folded, lowercased,
// punctuation other than dots turned into spaces.
func matchForm(s string) string {
	s = strings.ToLower(foldDiacritics(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' {
			return r
		}
		return ' '
	}, s)
	return collapseSpaces(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most limit runes, ending with an ellipsis when cut.
// Strings already within the limit are returned unchanged.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := strings.TrimRightFunc(string(r[:limit-1]), unicode.IsSpace)
	return cut + "…"
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit]))
}

// plainText reduces embedded markup to its text content.
func plainText(s string) string {
	if !markupPattern.MatchString(s) {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return markupPattern.ReplaceAllString(s, " ")
	}
	return doc.Text()
}

// FoldCase lowercases s and strips its diacritics.
func FoldCase(s string) string {
	return strings.ToLower(foldDiacritics(s))
}
