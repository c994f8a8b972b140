package curation

import (
	"sort"
	"time"
)

const (
	freshnessWindow = 168 * time.Hour

	traditionalBonus = 1.0
	otherSourceBonus = 0.3
)

// Weights are the per-component multipliers of a composite score. Every
// component is scaled to [0,1] first, so a score never exceeds Max().
type Weights struct {
	Reach       float64
	Engagement  float64
	SocialEcho  float64
	AVE         float64
	Views       float64
	Traditional float64
	Freshness   float64
}

func (w Weights) Max() float64 {
	return w.Reach + w.Engagement + w.SocialEcho + w.AVE + w.Views + w.Traditional + w.Freshness
}

type Strategy struct {
	Name    string
	Weights Weights
}

var (
	// GeneralStrategy folds media value and views into the score.
	GeneralStrategy = Strategy{
		Name: "general",
		Weights: Weights{
			Reach:       0.30,
			Engagement:  0.25,
			AVE:         0.15,
			Views:       0.10,
			Traditional: 0.10,
			Freshness:   0.10,
		},
	}

	// SocialImpactStrategy emphasizes reach and engagement for country panels.
	SocialImpactStrategy = Strategy{
		Name: "social_impact",
		Weights: Weights{
			Reach:       0.35,
			Engagement:  0.30,
			AVE:         0.10,
			Views:       0.05,
			Traditional: 0.10,
			Freshness:   0.10,
		},
	}

	// EngagementStrategy ranks by interactions only.
	EngagementStrategy = Strategy{
		Name: "engagement",
		Weights: Weights{
			Engagement: 0.70,
			SocialEcho: 0.30,
		},
	}
)

type span struct {
	min, max float64
}

func (s span) scale(v float64) float64 {
	if s.max <= s.min {
		return 0
	}
	n := (v - s.min) / (s.max - s.min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// ranges holds the min-max spans of a population.
type ranges struct {
	reach, engagement, socialEcho, ave, views span
}

func newSpan(values []float64) span {
	if len(values) == 0 {
		return span{0, 1}
	}
	s := span{values[0], values[0]}
	for _, v := range values[1:] {
		s.min = min(s.min, v)
		s.max = max(s.max, v)
	}
	if s.max == s.min {
		return span{0, 1}
	}
	return s
}

func newRanges(population []Article) ranges {
	n := len(population)
	reach := make([]float64, 0, n)
	engagement := make([]float64, 0, n)
	socialEcho := make([]float64, 0, n)
	ave := make([]float64, 0, n)
	views := make([]float64, 0, n)
	for _, a := range population {
		reach = append(reach, a.Reach)
		engagement = append(engagement, a.EngagementScore)
		socialEcho = append(socialEcho, a.SocialEchoScore)
		ave = append(ave, a.AVE)
		views = append(views, a.Views)
	}
	return ranges{
		reach:      newSpan(reach),
		engagement: newSpan(engagement),
		socialEcho: newSpan(socialEcho),
		ave:        newSpan(ave),
		views:      newSpan(views),
	}
}

// Scorer computes population-relative scores: the same article can score
// differently in a different batch.
type Scorer struct {
	classifier *Classifier
	now        func() time.Time
}

func NewScorer(classifier *Classifier) *Scorer {
	return &Scorer{
		classifier: classifier,
		now:        time.Now,
	}
}

// Score returns the composite score of a within population.
func (s *Scorer) Score(a Article, population []Article, strategy Strategy) float64 {
	return s.score(a, newRanges(population), strategy, s.now())
}

// Rank scores every article of population and returns copies sorted by
// descending score. Ties keep their input order.
func (s *Scorer) Rank(population []Article, strategy Strategy) []Article {
	values := s.scoreAll(population, strategy)

	ranked := make([]Article, len(population))
	for i, a := range population {
		a.ContentScore = values[i]
		ranked[i] = a
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ContentScore > ranked[j].ContentScore
	})
	return ranked
}

func (s *Scorer) scoreAll(population []Article, strategy Strategy) []float64 {
	r := newRanges(population)
	now := s.now()

	values := make([]float64, len(population))
	for i, a := range population {
		values[i] = s.score(a, r, strategy, now)
	}
	return values
}

func (s *Scorer) score(a Article, r ranges, strategy Strategy, now time.Time) float64 {
	w := strategy.Weights

	score := w.Reach*r.reach.scale(a.Reach) +
		w.Engagement*r.engagement.scale(a.EngagementScore) +
		w.SocialEcho*r.socialEcho.scale(a.SocialEchoScore) +
		w.AVE*r.ave.scale(a.AVE) +
		w.Views*r.views.scale(a.Views)

	if w.Traditional > 0 {
		bonus := otherSourceBonus
		if s.classifier != nil && s.classifier.IsTraditional(a) {
			bonus = traditionalBonus
		}
		score += w.Traditional * bonus
	}

	if w.Freshness > 0 {
		score += w.Freshness * Freshness(a.PublishedAt, now)
	}

	return score
}

// Freshness decays linearly from 1 at publication to 0 after seven days.
// Future timestamps count as just published; unknown dates get nothing.
func Freshness(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := now.Sub(published)
	if age < 0 {
		return 1
	}
	if age >= freshnessWindow {
		return 0
	}
	return 1 - float64(age)/float64(freshnessWindow)
}
