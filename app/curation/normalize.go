package curation

import (
	"fmt"
	"math"
	"strings"
)

const (
	contentTypeSocialPost = "social post"
	contentTypeRepost     = "repost"

	maxKeyphrasesInTitle       = 2
	maxKeyphrasesInDescription = 5
)

// IsSocialContentType reports whether the upstream content type denotes a post.
func IsSocialContentType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case contentTypeSocialPost, contentTypeRepost:
		return true
	}
	return false
}

// Normalize converts a raw document into an Article. It never fails: missing
// or malformed fields fall back to documented defaults.
func Normalize(raw RawDocument) Article {
	social := IsSocialContentType(raw.ContentType.String())
	source := collapseSpaces(raw.Source.Name.String())
	keyphrases := cleanKeyphrases(raw.Enrichments.Keyphrases)

	title, syntheticTitle := resolveTitle(raw, social, source, keyphrases)
	description, syntheticDescription := resolveDescription(raw, social, source, keyphrases)

	article := Article{
		Title:           title,
		Description:     description,
		URL:             resolveURL(raw, social, source),
		ImageURL:        resolveImage(raw),
		PublishedAt:     ParsePublished(raw.PublishedDate.String()),
		SourceName:      source,
		EngagementScore: nonNegative(raw.Metrics.Engagement.Sum()),
		SocialEchoScore: nonNegative(raw.Metrics.SocialEcho.Sum()),
		Reach:           nonNegative(float64(raw.Source.Metrics.Reach)),
		AVE:             nonNegative(float64(raw.Source.Metrics.AVE)),
		Views:           nonNegative(float64(raw.Metrics.Views)),
		Sentiment:       strings.ToLower(strings.TrimSpace(raw.Enrichments.Sentiment.String())),
		Keyphrases:      keyphrases,
		CountryCode:     strings.ToUpper(strings.TrimSpace(raw.Location.CountryCode.String())),
		ContentType:     strings.ToLower(strings.TrimSpace(raw.ContentType.String())),
		SocialShaped:    socialShaped(raw),

		SyntheticTitle:       syntheticTitle,
		SyntheticDescription: syntheticDescription,
	}

	return article
}

// NormalizeAll normalizes a batch, preserving order.
func NormalizeAll(docs []RawDocument) []Article {
	articles := make([]Article, 0, len(docs))
	for _, doc := range docs {
		articles = append(articles, Normalize(doc))
	}
	return articles
}

// resolveTitle reports whether the title was made up rather than taken from
// the document.
func resolveTitle(raw RawDocument, social bool, source string, keyphrases []string) (string, bool) {
	candidates := []string{raw.Content.Title.String()}
	if social {
		candidates = append(candidates,
			raw.Content.Text.String(),
			raw.Content.Message.String(),
			raw.Content.Caption.String(),
			raw.Content.Headline.String())
	}

	if title := firstText(candidates...); title != "" {
		return truncate(title, MaxTitleLength), false
	}

	if len(keyphrases) > 0 {
		n := min(len(keyphrases), maxKeyphrasesInTitle)
		return truncate(fmt.Sprintf("Post sobre: %s", strings.Join(keyphrases[:n], ", ")), MaxTitleLength), true
	}

	if source != "" {
		return truncate(fmt.Sprintf("Post de %s", source), MaxTitleLength), true
	}

	return UntitledTitle, true
}

func resolveDescription(raw RawDocument, social bool, source string, keyphrases []string) (string, bool) {
	candidates := []string{
		raw.Content.OpeningText.String(),
		raw.Content.Description.String(),
		raw.Content.Summary.String(),
	}
	if social {
		candidates = append(candidates,
			raw.Content.Text.String(),
			raw.Content.Message.String(),
			raw.Content.Caption.String())
	}

	if description := firstText(candidates...); description != "" {
		return truncate(description, MaxDescriptionLength), false
	}

	if len(keyphrases) > 0 {
		n := min(len(keyphrases), maxKeyphrasesInDescription)
		return truncate(strings.Join(keyphrases[:n], ", "), MaxDescriptionLength), true
	}

	if source != "" {
		return truncate(fmt.Sprintf("Publicación de %s", source), MaxDescriptionLength), true
	}

	return "", false
}

func resolveURL(raw RawDocument, social bool, source string) string {
	if u := strings.TrimSpace(raw.URL.String()); u != "" {
		return u
	}

	if social {
		id := firstText(raw.ExternalID.String(), raw.PostID.String(), raw.ID.String())
		if id != "" && !strings.ContainsAny(id, " /?#") {
			return permalink(source, id)
		}
	}

	return NoLink
}

// permalink builds a best-effort post URL for the platform named by source.
func permalink(source, id string) string {
	s := strings.ToLower(source)
	switch {
	case strings.Contains(s, "instagram"):
		return "https://www.instagram.com/p/" + id
	case strings.Contains(s, "facebook"):
		return "https://www.facebook.com/" + id
	case strings.Contains(s, "youtube"):
		return "https://www.youtube.com/watch?v=" + id
	case strings.Contains(s, "tiktok"):
		return "https://www.tiktok.com/embed/v2/" + id
	case strings.Contains(s, "reddit"):
		return "https://www.reddit.com/comments/" + id
	case strings.Contains(s, "linkedin"):
		return "https://www.linkedin.com/feed/update/" + id
	case strings.Contains(s, "threads"):
		return "https://www.threads.net/post/" + id
	default:
		return "https://twitter.com/i/web/status/" + id
	}
}

func resolveImage(raw RawDocument) string {
	if img := strings.TrimSpace(raw.Content.Image.String()); img != "" {
		return img
	}
	return PlaceholderImage
}

func socialShaped(raw RawDocument) bool {
	hasPostText := raw.Content.Text != "" || raw.Content.Message != "" || raw.Content.Caption != ""
	if !hasPostText {
		return false
	}
	return raw.Metrics.Engagement.postLike() || raw.Metrics.SocialEcho.postLike()
}

// firstText returns the first candidate that is non-empty once markup is
// stripped and whitespace collapsed.
func firstText(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if text := collapseSpaces(plainText(c)); text != "" {
			return text
		}
	}
	return ""
}

func cleanKeyphrases(list TextList) []string {
	out := make([]string, 0, len(list))
	for _, k := range list {
		if k := collapseSpaces(k.String()); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
