package curation

import (
	"math"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testScorer(t *testing.T) *Scorer {
	t.Helper()
	s := NewScorer(testClassifier(t))
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestScoreBounds(t *testing.T) {
	s := testScorer(t)

	population := []Article{
		{Reach: 1000, EngagementScore: 50, AVE: 10, Views: 5, SourceName: "Reuters", PublishedAt: fixedNow},
		{Reach: 10, EngagementScore: 0, AVE: 0, Views: 0, SourceName: "Blog"},
		{Reach: 500, EngagementScore: 5000, SocialEchoScore: 20, AVE: 99999, Views: 1e9, PublishedAt: fixedNow.Add(48 * time.Hour)},
		{},
	}

	for _, strategy := range []Strategy{GeneralStrategy, SocialImpactStrategy, EngagementStrategy} {
		limit := strategy.Weights.Max()
		for i, a := range population {
			score := s.Score(a, population, strategy)
			if score < 0 || score > limit+1e-9 {
				t.Errorf("%s: article %d scored %v, outside [0, %v]", strategy.Name, i, score, limit)
			}
		}
	}
}

func TestScoreTopArticle(t *testing.T) {
	s := testScorer(t)

	best := Article{Reach: 100, EngagementScore: 100, AVE: 100, Views: 100, SourceName: "Reuters", PublishedAt: fixedNow}
	worst := Article{}
	population := []Article{best, worst}

	if got, want := s.Score(best, population, GeneralStrategy), GeneralStrategy.Weights.Max(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected best article to reach %v, got %v", want, got)
	}

	// Only the non-traditional bonus remains for the empty article.
	want := GeneralStrategy.Weights.Traditional * otherSourceBonus
	if got := s.Score(worst, population, GeneralStrategy); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected worst article to score %v, got %v", want, got)
	}
}

func TestScorePopulationRelative(t *testing.T) {
	s := testScorer(t)
	a := Article{Reach: 100}

	reachOnly := Strategy{Name: "reach", Weights: Weights{Reach: 1}}

	small := s.Score(a, []Article{a, {Reach: 1000}}, reachOnly)
	large := s.Score(a, []Article{a, {Reach: 50}}, reachOnly)

	if small >= large {
		t.Errorf("Same article should score higher against a weaker population: %v vs %v", small, large)
	}
}

func TestScoreDegeneratePopulation(t *testing.T) {
	s := testScorer(t)

	// Identical values must not divide by zero.
	population := []Article{{Reach: 5}, {Reach: 5}}
	for _, a := range population {
		score := s.Score(a, population, GeneralStrategy)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			t.Errorf("Expected a finite score, got %v", score)
		}
	}

	if got := s.Score(Article{}, nil, EngagementStrategy); got != 0 {
		t.Errorf("Expected 0 for an empty population, got %v", got)
	}
}

func TestRankStableOrder(t *testing.T) {
	s := testScorer(t)

	population := []Article{
		{Title: "a", EngagementScore: 1},
		{Title: "b", EngagementScore: 10},
		{Title: "c", EngagementScore: 1},
		{Title: "d", EngagementScore: 5},
	}

	ranked := s.Rank(population, EngagementStrategy)
	want := []string{"b", "d", "a", "c"}
	for i, title := range want {
		if ranked[i].Title != title {
			t.Errorf("Position %d: expected %s, got %s", i, title, ranked[i].Title)
		}
	}
	if population[0].ContentScore != 0 {
		t.Error("Rank should not modify its input")
	}
}

func TestFreshness(t *testing.T) {
	tests := []struct {
		name      string
		published time.Time
		want      float64
	}{
		{"now", fixedNow, 1},
		{"half window", fixedNow.Add(-84 * time.Hour), 0.5},
		{"expired", fixedNow.Add(-200 * time.Hour), 0},
		{"future", fixedNow.Add(time.Hour), 1},
		{"unknown", time.Time{}, 0},
	}

	for _, tt := range tests {
		if got := Freshness(tt.published, fixedNow); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
