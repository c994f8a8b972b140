package curation

import (
	"log/slog"
	"sort"
)

// Rule decides whether an article belongs in a panel.
type Rule func(Article) bool

type PanelSpec struct {
	Panel    Panel
	Rule     Rule
	Strategy Strategy
}

// Selection is the ranked content of one panel.
type Selection struct {
	Panel    Panel        `json:"panel"`
	Target   int          `json:"target"`
	Articles []Article    `json:"articles"`
	Tiers    map[Tier]int `json:"tiers"`
}

// Short reports whether the panel ended below its target size.
func (s Selection) Short() bool {
	return len(s.Articles) < s.Target
}

// Degraded reports whether any article came from below the ranked tier.
func (s Selection) Degraded() bool {
	for tier, n := range s.Tiers {
		if tier != TierRanked && n > 0 {
			return true
		}
	}
	return false
}

type Partitioner struct {
	scorer *Scorer
}

func NewPartitioner(scorer *Scorer) *Partitioner {
	return &Partitioner{scorer: scorer}
}

// panelPass tracks the state of one panel while the ladder runs.
type panelPass struct {
	articles  []Article
	keys      [][]string
	seen      Seen
	own       Seen
	picked    map[int]bool
	selection Selection
}

func (pp *panelPass) full() bool {
	return len(pp.selection.Articles) >= pp.selection.Target
}

func (pp *panelPass) take(idx int, score float64, tier Tier) {
	a := pp.articles[idx]
	a.ContentScore = score
	a.Tier = tier
	pp.selection.Articles = append(pp.selection.Articles, a)
	pp.selection.Tiers[tier]++
	pp.picked[idx] = true
	pp.seen.Add(pp.keys[idx])
	pp.own.Add(pp.keys[idx])
}

// Partition selects up to target articles for one panel. Every key of every
// selected article is added to seen, so panels partitioned later in the same
// pass skip them. When the ranked pass falls short, the ladder relaxes:
//
//  1. engagement-only ranking of the panel's own population
//  2. the whole batch under the general strategy
//  3. panel population articles already shown by earlier panels
//  4. any remaining article, in input order
//
// Articles duplicating one already picked for this panel are never admitted.
func (p *Partitioner) Partition(articles []Article, seen Seen, target int, spec PanelSpec) Selection {
	pp := &panelPass{
		articles: articles,
		keys:     make([][]string, len(articles)),
		seen:     seen,
		own:      NewSeen(),
		picked:   make(map[int]bool),
		selection: Selection{
			Panel:    spec.Panel,
			Target:   max(target, 0),
			Articles: make([]Article, 0, max(target, 0)),
			Tiers:    make(map[Tier]int),
		},
	}
	if pp.selection.Target == 0 || len(articles) == 0 {
		return pp.selection
	}

	rule := spec.Rule
	if rule == nil {
		rule = AnyRule
	}

	all := make([]int, len(articles))
	var filtered []int
	for i, a := range articles {
		pp.keys[i] = KeysFor(a)
		all[i] = i
		if rule(a) {
			filtered = append(filtered, i)
		}
	}

	panelOrder, panelScores := p.rank(articles, filtered, spec.Strategy)
	p.fill(pp, panelOrder, panelScores, TierRanked, pp.seen)

	if !pp.full() {
		order, scores := p.rank(articles, filtered, EngagementStrategy)
		p.fill(pp, order, scores, TierEngagement, pp.seen)
	}

	var generalOrder []int
	var generalScores map[int]float64
	if !pp.full() {
		generalOrder, generalScores = p.rank(articles, all, GeneralStrategy)
		p.fill(pp, generalOrder, generalScores, TierUnfiltered, pp.seen)
	}

	if !pp.full() {
		p.fill(pp, panelOrder, panelScores, TierDuplicates, pp.own)
	}

	if !pp.full() {
		p.fill(pp, all, generalScores, TierAny, pp.own)
	}

	if pp.selection.Degraded() || pp.selection.Short() {
		slog.Info("Panel degraded",
			"panel", spec.Panel,
			"target", pp.selection.Target,
			"selected", len(pp.selection.Articles),
			"population", len(articles),
			"filtered", len(filtered),
			"tiers", pp.selection.Tiers)
	}

	return pp.selection
}

// fill appends articles in order until the panel is full, skipping picked
// articles and those whose keys are in blocked.
func (p *Partitioner) fill(pp *panelPass, order []int, scores map[int]float64, tier Tier, blocked Seen) {
	for _, idx := range order {
		if pp.full() {
			return
		}
		if pp.picked[idx] || blocked.Has(pp.keys[idx]) {
			continue
		}
		pp.take(idx, scores[idx], tier)
	}
}

// rank orders the articles at idxs by descending score, scoring relative to
// that subset only.
func (p *Partitioner) rank(articles []Article, idxs []int, strategy Strategy) ([]int, map[int]float64) {
	population := make([]Article, len(idxs))
	for i, idx := range idxs {
		population[i] = articles[idx]
	}

	values := p.scorer.scoreAll(population, strategy)

	order := make([]int, len(idxs))
	copy(order, idxs)
	scores := make(map[int]float64, len(idxs))
	for i, idx := range idxs {
		scores[idx] = values[i]
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	return order, scores
}
