package sources

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/press-digest/app/database"
)

// FeedSource turns an RSS or Atom feed into news documents shaped like the
// media API's, so both kinds of search share the curation pipeline.
type FeedSource struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string
}

var _ Source = (*FeedSource)(nil)

func NewFeedSource(httpClient *http.Client, userAgent string) *FeedSource {
	return &FeedSource{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		userAgent:  userAgent,
	}
}

type feedDocument struct {
	ID            string          `json:"id"`
	URL           string          `json:"url,omitempty"`
	PublishedDate string          `json:"published_date,omitempty"`
	ContentType   string          `json:"content_type"`
	Content       feedContent     `json:"content"`
	Source        feedSourceName  `json:"source"`
	Enrichments   feedEnrichments `json:"enrichments"`
	Location      feedLocation    `json:"location"`
}

type feedContent struct {
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
	Image   string `json:"image,omitempty"`
}

type feedSourceName struct {
	Name string `json:"name"`
}

type feedEnrichments struct {
	Keyphrases []string `json:"keyphrases,omitempty"`
}

type feedLocation struct {
	CountryCode string `json:"country_code,omitempty"`
}

func (s *FeedSource) Search(ctx context.Context, search database.Search) ([]json.RawMessage, error) {
	if search.URL == "" {
		return nil, fmt.Errorf("search %s has no feed URL", search.Name)
	}

	data, err := s.fetch(ctx, search.URL)
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	sourceName := cmp.Or(strings.TrimSpace(feed.Title), hostName(search.URL))

	documents := make([]json.RawMessage, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if search.MaxItems > 0 && len(documents) >= search.MaxItems {
			break
		}

		doc := s.toDocument(item, sourceName, search.CountryCode)
		raw, err := json.Marshal(doc)
		if err != nil {
			slog.Warn("Skipping feed item", "search", search.Name, "guid", item.GUID, "error", err)
			continue
		}
		documents = append(documents, raw)
	}

	slog.Debug("Feed search completed", "search", search.Name, "items", len(feed.Items), "documents", len(documents))

	return documents, nil
}

func (s *FeedSource) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	return readResponse(resp)
}

func (s *FeedSource) toDocument(item *gofeed.Item, sourceName, countryCode string) feedDocument {
	doc := feedDocument{
		ID:          cmp.Or(item.GUID, item.Link),
		URL:         item.Link,
		ContentType: "news",
		Content: feedContent{
			Title:   item.Title,
			Summary: item.Description,
			Image:   itemImage(item),
		},
		Source:      feedSourceName{Name: sourceName},
		Enrichments: feedEnrichments{Keyphrases: item.Categories},
		Location:    feedLocation{CountryCode: countryCode},
	}

	if published := cmp.Or(item.PublishedParsed, item.UpdatedParsed); published != nil {
		doc.PublishedDate = published.UTC().Format(time.RFC3339)
	}

	if item.Content != "" && (doc.Content.Summary == "" || doc.Content.Image == "") {
		excerpt, image := extract(item.Content, item.Link)
		doc.Content.Summary = cmp.Or(doc.Content.Summary, excerpt)
		doc.Content.Image = cmp.Or(doc.Content.Image, image)
	}

	return doc
}

// extract derives an excerpt and a lead image from embedded HTML content.
func extract(content, link string) (string, string) {
	pageURL, _ := url.Parse(link)

	article, err := readability.FromReader(strings.NewReader(content), pageURL)
	if err != nil {
		slog.Debug("Content extraction failed", "link", link, "error", err)
		return "", ""
	}

	excerpt := strings.TrimSpace(article.Excerpt)
	if excerpt == "" {
		excerpt = strings.TrimSpace(article.TextContent)
	}
	return excerpt, article.Image
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

func hostName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
