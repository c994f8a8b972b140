package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/press-digest/app/curation"
	"github.com/lysyi3m/press-digest/app/database"
)

func TestMediaClientSearch(t *testing.T) {
	var gotAuth, gotAgent string
	var gotBody mediaRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"documents": [{"id": "1"}, {"id": "2"}, {"id": "3"}]}`))
	}))
	defer server.Close()

	client := NewMediaClient(server.URL, "secret", "Test Agent", 5*time.Second, server.Client())
	docs, err := client.Search(context.Background(), database.Search{
		Name: "mx", Query: "economía", CountryCode: "MX", MaxItems: 2,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(docs) != 2 {
		t.Errorf("Expected documents capped at 2, got %d", len(docs))
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
	if gotAgent != "Test Agent" {
		t.Errorf("Expected user agent header, got %q", gotAgent)
	}
	if gotBody.Query != "economía" || gotBody.CountryCode != "MX" || gotBody.Limit != 2 {
		t.Errorf("Unexpected request body: %+v", gotBody)
	}
}

func TestMediaClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		case "/garbage":
			w.Write([]byte("<html>"))
		default:
			w.Write([]byte(`{"data": [{"id": "x"}]}`))
		}
	}))
	defer server.Close()

	search := database.Search{Name: "s", Query: "q"}

	_, err := NewMediaClient(server.URL+"/down", "", "UA", time.Second, server.Client()).Search(context.Background(), search)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected StatusError 503, got: %v", err)
	}

	if _, err := NewMediaClient(server.URL+"/garbage", "", "UA", time.Second, server.Client()).Search(context.Background(), search); err == nil {
		t.Error("Expected decode error for non-JSON response")
	}

	docs, err := NewMediaClient(server.URL+"/alt", "", "UA", time.Second, server.Client()).Search(context.Background(), search)
	if err != nil || len(docs) != 1 {
		t.Errorf("Expected the data field to be accepted, got %d docs, err=%v", len(docs), err)
	}

	if _, err := NewMediaClient("", "", "UA", time.Second, server.Client()).Search(context.Background(), search); err == nil {
		t.Error("Expected error without endpoint")
	}
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Diario Ejemplo</title>
    <link>https://diario.example.com</link>
    <item>
      <guid>https://diario.example.com/a</guid>
      <title>Primera nota</title>
      <link>https://diario.example.com/a</link>
      <description>Resumen de la primera nota</description>
      <category>economía</category>
      <pubDate>Mon, 06 May 2024 10:00:00 +0000</pubDate>
      <enclosure url="https://diario.example.com/a.jpg" length="100" type="image/jpeg" />
    </item>
    <item>
      <title>Segunda nota</title>
      <link>https://diario.example.com/b</link>
      <content:encoded><![CDATA[<article><h1>Segunda nota</h1><p>Un párrafo suficientemente largo para que el extractor lo considere contenido principal de la página y devuelva un extracto útil.</p><p>Otro párrafo con más texto relevante sobre la noticia del día, para dar cuerpo al artículo.</p></article>]]></content:encoded>
    </item>
    <item>
      <title>Tercera nota</title>
      <link>https://diario.example.com/c</link>
    </item>
  </channel>
</rss>`

func TestFeedSourceSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "Test Agent" {
			t.Errorf("Expected user agent header, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	src := NewFeedSource(server.Client(), "Test Agent")
	docs, err := src.Search(context.Background(), database.Search{Name: "diario", URL: server.URL, CountryCode: "MX", MaxItems: 2})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}

	articles := curation.NormalizeAll(curation.DecodeDocuments(docs))

	first := articles[0]
	if first.Title != "Primera nota" || first.Description != "Resumen de la primera nota" {
		t.Errorf("Unexpected first article: %+v", first)
	}
	if first.SourceName != "Diario Ejemplo" {
		t.Errorf("Expected feed title as source, got %q", first.SourceName)
	}
	if first.ImageURL != "https://diario.example.com/a.jpg" {
		t.Errorf("Expected enclosure image, got %q", first.ImageURL)
	}
	if first.CountryCode != "MX" {
		t.Errorf("Expected country code MX, got %q", first.CountryCode)
	}
	if !first.PublishedAt.Equal(time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected publishedAt: %v", first.PublishedAt)
	}
	if len(first.Keyphrases) != 1 || first.Keyphrases[0] != "economía" {
		t.Errorf("Expected categories as keyphrases, got %v", first.Keyphrases)
	}

	if articles[1].Description == "" {
		t.Error("Expected an excerpt extracted from the item content")
	}
	if strings.Contains(articles[1].Description, "<p>") {
		t.Errorf("Excerpt should be plain text, got %q", articles[1].Description)
	}
}

func TestFeedSourceErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("not a feed"))
	}))
	defer server.Close()

	src := NewFeedSource(server.Client(), "UA")

	if _, err := src.Search(context.Background(), database.Search{Name: "x"}); err == nil {
		t.Error("Expected error without URL")
	}
	if _, err := src.Search(context.Background(), database.Search{Name: "x", URL: server.URL + "/missing"}); err == nil {
		t.Error("Expected error for 404")
	}
	if _, err := src.Search(context.Background(), database.Search{Name: "x", URL: server.URL}); err == nil {
		t.Error("Expected parse error")
	}
}

func TestRegistryFor(t *testing.T) {
	media := &MediaClient{}
	feed := &FeedSource{}
	r := &Registry{Media: media, Feed: feed}

	if src, err := r.For(database.Search{Source: database.SearchSourceMedia}); err != nil || src != Source(media) {
		t.Errorf("Expected media source, got %v (%v)", src, err)
	}
	if src, err := r.For(database.Search{Source: database.SearchSourceRSS}); err != nil || src != Source(feed) {
		t.Errorf("Expected feed source, got %v (%v)", src, err)
	}
	if _, err := r.For(database.Search{Source: "ftp"}); err == nil {
		t.Error("Expected error for unknown source")
	}
	if _, err := (&Registry{}).For(database.Search{Source: database.SearchSourceRSS}); err == nil {
		t.Error("Expected error for unconfigured source")
	}
}
