package curation

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func testCurator(t *testing.T) *Curator {
	t.Helper()
	c := NewCurator(testClassifier(t))
	c.partitioner.scorer.now = func() time.Time { return fixedNow }
	return c
}

func rawMessages(docs ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		out[i] = json.RawMessage(d)
	}
	return out
}

func newsArticle(n int, source string) Article {
	return Article{
		Title:       fmt.Sprintf("Nota número %d", n),
		Description: fmt.Sprintf("Resumen de la nota %d", n),
		URL:         fmt.Sprintf("https://noticias.example.com/nota-%d", n),
		SourceName:  source,
		Reach:       float64(n * 100),
	}
}

func tweet(n int, engagement float64) Article {
	return Article{
		Title:           fmt.Sprintf("Post %d", n),
		Description:     fmt.Sprintf("Texto del post %d", n),
		URL:             fmt.Sprintf("https://twitter.com/i/web/status/%d", n),
		SourceName:      "Twitter",
		ContentType:     "social post",
		EngagementScore: engagement,
	}
}

func TestPartitionCollapsesTrackingVariants(t *testing.T) {
	p := NewPartitioner(testScorer(t))

	articles := []Article{
		{Title: "Uno", URL: "https://example.com/nota?utm_source=a", Reach: 3},
		{Title: "Dos", URL: "https://example.com/nota?utm_source=b", Reach: 2},
		{Title: "Tres", URL: "https://www.example.com/nota/", Reach: 1},
	}

	sel := p.Partition(articles, NewSeen(), 10, PanelSpec{Panel: PanelSector, Rule: AnyRule, Strategy: GeneralStrategy})

	if len(sel.Articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(sel.Articles))
	}
	if sel.Articles[0].Title != "Uno" {
		t.Errorf("Expected highest reach variant, got %q", sel.Articles[0].Title)
	}
	if !sel.Short() {
		t.Error("Selection should report it is short of target")
	}
}

func TestPartitionEmptyInputs(t *testing.T) {
	p := NewPartitioner(testScorer(t))
	spec := PanelSpec{Panel: PanelSector, Rule: AnyRule, Strategy: GeneralStrategy}

	if sel := p.Partition(nil, NewSeen(), 5, spec); len(sel.Articles) != 0 {
		t.Errorf("Expected empty panel for empty batch, got %d", len(sel.Articles))
	}
	if sel := p.Partition([]Article{newsArticle(1, "A")}, NewSeen(), 0, spec); len(sel.Articles) != 0 {
		t.Errorf("Expected empty panel for zero target, got %d", len(sel.Articles))
	}
	if sel := p.Partition([]Article{newsArticle(1, "A")}, NewSeen(), -3, spec); len(sel.Articles) != 0 {
		t.Errorf("Expected empty panel for negative target, got %d", len(sel.Articles))
	}
}

func TestCurateCrossPanelExclusion(t *testing.T) {
	c := testCurator(t)

	shared := newsArticle(1, "Reuters")
	sector := []Article{shared}
	country := []Article{
		{Title: "Otro título", URL: "https://www.noticias.example.com/nota-1/?ref=home", SourceName: "Infobae"},
		newsArticle(2, "Infobae"),
		newsArticle(3, "Clarín"),
		tweet(10, 5),
		tweet(11, 7),
	}

	panels := c.Curate(sector, country, Sizes{Sector: 1, Editorial: 2, Social: 2})

	if len(panels.Editorial.Articles) != 2 {
		t.Fatalf("Expected 2 editorial articles, got %d", len(panels.Editorial.Articles))
	}
	for _, a := range panels.Editorial.Articles {
		if CanonicalURL(a.URL) == CanonicalURL(shared.URL) {
			t.Errorf("Editorial panel repeated an article shown in the sector panel: %q", a.Title)
		}
	}

	seen := make(map[string]Panel)
	for _, panel := range PanelOrder {
		for _, a := range panels.Get(panel).Articles {
			if a.Tier != TierRanked {
				t.Errorf("Expected every article to be ranked, %q came from %s", a.Title, a.Tier)
			}
			for _, k := range KeysFor(a) {
				if prev, ok := seen[k]; ok {
					t.Errorf("Key %q appears in both %s and %s", k, prev, panel)
				}
				seen[k] = panel
			}
		}
	}
}

func TestCurateBackfill(t *testing.T) {
	c := testCurator(t)

	country := make([]Article, 0, 5)
	for i := 1; i <= 5; i++ {
		country = append(country, newsArticle(i, "El Tiempo"))
	}

	panels := c.Curate(nil, country, Sizes{Editorial: 4, Social: 3})

	if len(panels.Editorial.Articles) != 4 {
		t.Errorf("Expected 4 editorial articles, got %d", len(panels.Editorial.Articles))
	}

	social := panels.Social
	if len(social.Articles) != 3 {
		t.Fatalf("Expected social panel to be backfilled to 3, got %d", len(social.Articles))
	}
	if social.Tiers[TierRanked] != 0 {
		t.Errorf("No article is social, expected no ranked picks, got %d", social.Tiers[TierRanked])
	}
	if social.Tiers[TierUnfiltered] != 1 {
		t.Errorf("Expected the one unseen article from the unfiltered tier, got %d", social.Tiers[TierUnfiltered])
	}
	if social.Tiers[TierAny] != 2 {
		t.Errorf("Expected 2 articles from the last tier, got %d", social.Tiers[TierAny])
	}
	if !social.Degraded() {
		t.Error("Social panel should report degradation")
	}

	titles := make(map[string]bool)
	for _, a := range social.Articles {
		if titles[a.Title] {
			t.Errorf("Article %q picked twice in one panel", a.Title)
		}
		titles[a.Title] = true
	}
}

func TestCurateBackfillGuarantee(t *testing.T) {
	c := testCurator(t)

	var sector, country []Article
	for i := 1; i <= 10; i++ {
		sector = append(sector, newsArticle(100+i, "BBC"))
		if i%3 == 0 {
			country = append(country, tweet(i, float64(i)))
		} else {
			country = append(country, newsArticle(i, "Infobae"))
		}
	}

	for target := 1; target <= 10; target++ {
		panels := c.Curate(sector, country, UniformSizes(target))
		for _, panel := range PanelOrder {
			if got := len(panels.Get(panel).Articles); got != target {
				t.Errorf("Target %d: %s panel has %d articles", target, panel, got)
			}
		}
	}
}

func TestCurateDuplicatesTier(t *testing.T) {
	c := testCurator(t)

	// Both sit in the social population but the editorial panel took one first.
	shared := tweet(1, 100)
	shared.SourceName = "CNN"
	country := []Article{shared, tweet(2, 1)}

	panels := c.Curate(nil, country, Sizes{Editorial: 1, Social: 2})

	if len(panels.Social.Articles) != 2 {
		t.Fatalf("Expected 2 social articles, got %d", len(panels.Social.Articles))
	}
	if panels.Social.Articles[1].Tier != TierDuplicates {
		t.Errorf("Expected the cross-panel article to come from the duplicates tier, got %s", panels.Social.Articles[1].Tier)
	}
}

func TestSocialPanelZeroEngagementRanksLast(t *testing.T) {
	c := testCurator(t)

	silent := Article{
		Title:       "Post sin interacción",
		URL:         "https://twitter.com/i/web/status/123",
		ContentType: "social post",
	}
	if kind := c.Classifier().Classify(silent); kind != SourceSocial {
		t.Fatalf("Expected social classification, got %s", kind)
	}

	country := []Article{silent, tweet(2, 30), tweet(3, 10)}
	panels := c.Curate(nil, country, Sizes{Social: 3})

	social := panels.Social.Articles
	if len(social) != 3 {
		t.Fatalf("Expected 3 social articles, got %d", len(social))
	}
	if social[len(social)-1].URL != silent.URL {
		t.Errorf("Expected zero-engagement post last, got %q", social[len(social)-1].Title)
	}
	if social[len(social)-1].EngagementScore != 0 {
		t.Errorf("Expected engagement 0, got %v", social[len(social)-1].EngagementScore)
	}
}

func TestCurateRaw(t *testing.T) {
	c := testCurator(t)

	country := DecodeDocuments(rawMessages(
		`{"url": "https://elpais.com/a", "content": {"title": "Nota"}, "source": {"name": "El País"}}`,
		`{"content_type": "social post", "external_id": "5", "content": {"text": "Hola"}, "source": "Twitter"}`,
	))

	panels := c.CurateRaw(nil, country, UniformSizes(1))

	if len(panels.Editorial.Articles) != 1 || panels.Editorial.Articles[0].SourceName != "El País" {
		t.Errorf("Unexpected editorial panel: %+v", panels.Editorial.Articles)
	}
	if len(panels.Social.Articles) != 1 || panels.Social.Articles[0].URL != "https://twitter.com/i/web/status/5" {
		t.Errorf("Unexpected social panel: %+v", panels.Social.Articles)
	}
}
