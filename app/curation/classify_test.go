package curation

import (
	"os"
	"path/filepath"
	"testing"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	lists, err := DefaultLists()
	if err != nil {
		t.Fatalf("Failed to load embedded lists: %v", err)
	}
	return NewClassifier(lists)
}

func TestClassify(t *testing.T) {
	c := testClassifier(t)

	tests := []struct {
		name    string
		article Article
		want    SourceKind
	}{
		{"content type", Article{ContentType: "social post", URL: NoLink}, SourceSocial},
		{"exact host", Article{URL: "https://www.instagram.com/p/xyz", SourceName: "Unknown"}, SourceSocial},
		{"subdomain host", Article{URL: "https://mobile.twitter.com/user/status/1"}, SourceSocial},
		{"platform in source name", Article{URL: NoLink, SourceName: "YouTube Channel"}, SourceSocial},
		{"host embedded in url", Article{URL: "https://news.google.com/redirect?to=https://x.com/a/status/9"}, SourceSocial},
		{"post shaped", Article{URL: "https://blog.example.org/1", SocialShaped: true}, SourceSocial},
		{"outlet name", Article{URL: "https://elpais.com/a", SourceName: "El País"}, SourceTraditional},
		{"outlet without accents", Article{URL: "https://elpais.com/a", SourceName: "EL PAIS"}, SourceTraditional},
		{"outlet domain as name", Article{SourceName: "reuters.com"}, SourceTraditional},
		{"unknown blog", Article{URL: "https://myblog.example.com/post", SourceName: "Mi Blog"}, SourceUnknown},
		{"no false word match", Article{SourceName: "Bbcode Forum"}, SourceUnknown},
		{"lookalike host", Article{URL: "https://nottwitter.com/a"}, SourceUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.article); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPanelRules(t *testing.T) {
	c := testClassifier(t)

	traditional := Article{SourceName: "Infobae", URL: "https://www.infobae.com/a"}
	unknown := Article{SourceName: "Portal Local", URL: "https://portal.example.com/a"}
	social := Article{SourceName: "Twitter", URL: "https://twitter.com/i/web/status/1", ContentType: "social post"}
	// An outlet's own post stays eligible for the editorial panel.
	outletPost := Article{SourceName: "CNN", URL: "https://twitter.com/cnn/status/2"}

	tests := []struct {
		name      string
		article   Article
		editorial bool
		social    bool
	}{
		{"traditional", traditional, true, false},
		{"unknown", unknown, true, false},
		{"social", social, false, true},
		{"outlet post", outletPost, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.EditorialRule(tt.article); got != tt.editorial {
				t.Errorf("EditorialRule: expected %v, got %v", tt.editorial, got)
			}
			if got := c.SocialRule(tt.article); got != tt.social {
				t.Errorf("SocialRule: expected %v, got %v", tt.social, got)
			}
		})
	}
}

func TestDefaultListsCoverage(t *testing.T) {
	c := testClassifier(t)

	outlets := []string{
		"Reuters", "BBC Mundo", "CNN en Español", "El Universal", "Clarín",
		"El Tiempo", "Infobae", "El Mundo", "Telemundo", "Bloomberg Línea",
	}
	for _, name := range outlets {
		if !c.IsTraditional(Article{SourceName: name}) {
			t.Errorf("Expected %q to be a known outlet", name)
		}
	}

	platforms := []string{"Twitter", "Instagram", "Facebook", "Reddit", "YouTube", "TikTok", "Threads", "LinkedIn"}
	for _, name := range platforms {
		if !c.IsSocial(Article{SourceName: name, URL: NoLink}) {
			t.Errorf("Expected %q to be a known platform", name)
		}
	}
}

func TestLoadLists(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "lists.yml")
	content := "platforms:\n  - name: mastodon\n    hosts: [mastodon.social]\noutlets:\n  - la nacion\n"
	if err := os.WriteFile(valid, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write lists: %v", err)
	}

	lists, err := LoadLists(valid)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	c := NewClassifier(lists)
	if !c.IsSocial(Article{URL: "https://mastodon.social/@user/1"}) {
		t.Error("Expected custom platform host to be social")
	}
	if !c.IsTraditional(Article{SourceName: "La Nación"}) {
		t.Error("Expected custom outlet to be traditional")
	}

	invalid := filepath.Join(dir, "invalid.yml")
	if err := os.WriteFile(invalid, []byte("platforms:\n  - name: x\n    hosts: [\"x.com/path\"]\noutlets: [a]\n"), 0644); err != nil {
		t.Fatalf("Failed to write lists: %v", err)
	}
	if _, err := LoadLists(invalid); err == nil {
		t.Error("Expected error for host containing a path")
	}

	if _, err := LoadLists(filepath.Join(dir, "missing.yml")); err == nil {
		t.Error("Expected error for missing file")
	}

	embedded, err := LoadLists("")
	if err != nil || len(embedded.Outlets) == 0 {
		t.Errorf("Expected embedded lists for empty path, got err=%v", err)
	}
}
