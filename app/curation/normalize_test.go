package curation

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func decodeOne(t *testing.T, doc string) RawDocument {
	t.Helper()
	docs := DecodeDocuments([]json.RawMessage{json.RawMessage(doc)})
	if len(docs) != 1 {
		t.Fatalf("Expected 1 decoded document, got %d", len(docs))
	}
	return docs[0]
}

// rawFromArticle rebuilds a raw document carrying the article's fields in
// their primary positions.
func rawFromArticle(a Article) RawDocument {
	var raw RawDocument
	raw.URL = Text(a.URL)
	if !a.PublishedAt.IsZero() {
		raw.PublishedDate = Text(a.PublishedAt.Format(time.RFC3339Nano))
	}
	raw.ContentType = Text(a.ContentType)
	raw.Content.Title = Text(a.Title)
	raw.Content.Description = Text(a.Description)
	raw.Content.Image = Text(a.ImageURL)
	raw.Source.Name = Text(a.SourceName)
	raw.Source.Metrics.Reach = Metric(a.Reach)
	raw.Source.Metrics.AVE = Metric(a.AVE)
	engagement := Metric(a.EngagementScore)
	echo := Metric(a.SocialEchoScore)
	raw.Metrics.Engagement.Total = &engagement
	raw.Metrics.SocialEcho.Total = &echo
	raw.Metrics.Views = Metric(a.Views)
	raw.Enrichments.Sentiment = Text(a.Sentiment)
	for _, k := range a.Keyphrases {
		raw.Enrichments.Keyphrases = append(raw.Enrichments.Keyphrases, Text(k))
	}
	raw.Location.CountryCode = Text(a.CountryCode)
	return raw
}

func TestNormalizeNewsDocument(t *testing.T) {
	raw := decodeOne(t, `{
		"id": "doc-1",
		"url": "https://www.elpais.com/economia/2024/05/01/nota.html",
		"published_date": "2024-05-01T10:00:00Z",
		"content_type": "News",
		"content": {
			"title": "  Sube la inflación  ",
			"opening_text": "<p>La inflación <b>subió</b> en abril.</p>",
			"image": {"url": "https://img.example.com/a.jpg"}
		},
		"source": {"name": "El País", "metrics": {"reach": "120000", "ave": 3500.5}},
		"metrics": {"engagement": {"likes": 10, "shares": 5}, "views": 900},
		"enrichments": {"sentiment": "Positive", "keyphrases": ["inflación", " ", "precios"]},
		"location": {"country_code": "es"}
	}`)

	a := Normalize(raw)

	if a.Title != "Sube la inflación" {
		t.Errorf("Expected trimmed title, got %q", a.Title)
	}
	if a.Description != "La inflación subió en abril." {
		t.Errorf("Expected markup stripped from description, got %q", a.Description)
	}
	if a.ImageURL != "https://img.example.com/a.jpg" {
		t.Errorf("Expected image from object form, got %q", a.ImageURL)
	}
	if !a.PublishedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected publishedAt: %v", a.PublishedAt)
	}
	if a.Reach != 120000 || a.AVE != 3500.5 || a.Views != 900 {
		t.Errorf("Unexpected metrics: reach=%v ave=%v views=%v", a.Reach, a.AVE, a.Views)
	}
	if a.EngagementScore != 15 {
		t.Errorf("Expected engagement 15, got %v", a.EngagementScore)
	}
	if a.Sentiment != "positive" || a.CountryCode != "ES" {
		t.Errorf("Unexpected sentiment/country: %q %q", a.Sentiment, a.CountryCode)
	}
	if len(a.Keyphrases) != 2 {
		t.Errorf("Expected blank keyphrases dropped, got %v", a.Keyphrases)
	}
	if a.SocialShaped {
		t.Error("News document without post text should not be social shaped")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	a := Normalize(decodeOne(t, `{}`))

	if a.Title != UntitledTitle {
		t.Errorf("Expected %q, got %q", UntitledTitle, a.Title)
	}
	if a.Description != "" {
		t.Errorf("Expected empty description, got %q", a.Description)
	}
	if a.URL != NoLink {
		t.Errorf("Expected %q, got %q", NoLink, a.URL)
	}
	if a.ImageURL != PlaceholderImage {
		t.Errorf("Expected placeholder image, got %q", a.ImageURL)
	}
	if !a.PublishedAt.IsZero() {
		t.Errorf("Expected zero publishedAt, got %v", a.PublishedAt)
	}
	if a.Keyphrases == nil {
		t.Error("Keyphrases should be an empty list, not nil")
	}
}

func TestNormalizeSocialFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		title       string
		description string
		url         string
		synthetic   bool
	}{
		{
			name:        "post text becomes title and description",
			doc:         `{"content_type": "Social Post", "external_id": "123", "content": {"text": "Gran noticia hoy"}, "source": "Twitter"}`,
			title:       "Gran noticia hoy",
			description: "Gran noticia hoy",
			url:         "https://twitter.com/i/web/status/123",
		},
		{
			name:        "keyphrases when there is no text",
			doc:         `{"content_type": "social post", "enrichments": {"keyphrases": "uno, dos, tres"}, "source": {"name": "Instagram"}, "post_id": "abc"}`,
			title:       "Post sobre: uno, dos",
			description: "uno, dos, tres",
			url:         "https://www.instagram.com/p/abc",
			synthetic:   true,
		},
		{
			name:        "source name when there is nothing else",
			doc:         `{"content_type": "repost", "source": {"name": "Facebook"}}`,
			title:       "Post de Facebook",
			description: "Publicación de Facebook",
			url:         NoLink,
			synthetic:   true,
		},
		{
			name:        "news documents ignore post text",
			doc:         `{"content_type": "news", "content": {"text": "cuerpo"}, "id": "42"}`,
			title:       UntitledTitle,
			description: "",
			url:         NoLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Normalize(decodeOne(t, tt.doc))
			if a.Title != tt.title {
				t.Errorf("Expected title %q, got %q", tt.title, a.Title)
			}
			if a.Description != tt.description {
				t.Errorf("Expected description %q, got %q", tt.description, a.Description)
			}
			if a.URL != tt.url {
				t.Errorf("Expected url %q, got %q", tt.url, a.URL)
			}
			if a.SyntheticTitle != tt.synthetic || a.SyntheticDescription != tt.synthetic {
				t.Errorf("Expected synthetic=%v, got title=%v description=%v", tt.synthetic, a.SyntheticTitle, a.SyntheticDescription)
			}
		})
	}
}

func TestNormalizeTruncation(t *testing.T) {
	long := strings.Repeat("palabra ", 60)
	raw := decodeOne(t, `{"content": {"title": "`+long+`", "summary": "`+long+`"}}`)

	a := Normalize(raw)

	if n := len([]rune(a.Title)); n > MaxTitleLength {
		t.Errorf("Title has %d runes, limit is %d", n, MaxTitleLength)
	}
	if !strings.HasSuffix(a.Title, "…") {
		t.Errorf("Truncated title should end with an ellipsis, got %q", a.Title)
	}
	if n := len([]rune(a.Description)); n > MaxDescriptionLength {
		t.Errorf("Description has %d runes, limit is %d", n, MaxDescriptionLength)
	}
}

func TestNormalizeNegativeMetrics(t *testing.T) {
	a := Normalize(decodeOne(t, `{"source": {"metrics": {"reach": -5}}, "metrics": {"engagement": -3, "views": "n/a"}}`))

	if a.Reach != 0 || a.EngagementScore != 0 || a.Views != 0 {
		t.Errorf("Expected negative and malformed metrics to become 0, got reach=%v engagement=%v views=%v",
			a.Reach, a.EngagementScore, a.Views)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	docs := []string{
		`{"url": "https://example.com/a", "published_date": "2024-01-02T03:04:05Z", "content": {"title": "Hola (mundo)", "summary": "Resumen"}, "source": {"name": "Reuters", "metrics": {"reach": 10}}, "metrics": {"engagement": 4}, "enrichments": {"sentiment": "NEUTRAL", "keyphrases": ["a", "b"]}, "location": {"country_code": "mx"}}`,
		`{"content_type": "social post", "external_id": "99", "content": {"text": "` + strings.Repeat("x ", 120) + `"}, "metrics": {"engagement": {"likes": 3}}}`,
		`{"content_type": "social post", "enrichments": {"keyphrases": ["solo"]}}`,
		`{}`,
	}

	for i, doc := range docs {
		first := Normalize(decodeOne(t, doc))
		second := Normalize(rawFromArticle(first))

		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		if string(a) != string(b) {
			t.Errorf("Document %d: normalization not idempotent:\n first: %s\nsecond: %s", i, a, b)
		}
	}
}

func TestDecodeDocumentsSkipsGarbage(t *testing.T) {
	docs := DecodeDocuments([]json.RawMessage{
		json.RawMessage(`{"content": {"title": "ok"}}`),
		json.RawMessage(`{not json`),
		json.RawMessage(`{"content": {"title": "partial"}, "metrics": []}`),
	})

	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[1].Content.Title != "partial" {
		t.Errorf("Expected partially decoded document to keep its title, got %q", docs[1].Content.Title)
	}
}

func TestParsePublished(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-01T12:00:00Z", want},
		{"2024-03-01T12:00:00", want},
		{"2024-03-01 12:00:00", want},
		{"1709294400", want},
		{"1709294400000", want},
		{"yesterday", time.Time{}},
		{"", time.Time{}},
	}

	for _, tt := range tests {
		got := ParsePublished(tt.input)
		if !got.Equal(tt.want) {
			t.Errorf("ParsePublished(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
