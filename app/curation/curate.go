package curation

import (
	"log/slog"
)

const DefaultPanelSize = 100

// Panels is the result of one curation pass.
type Panels struct {
	Sector    Selection `json:"sector"`
	Editorial Selection `json:"editorial"`
	Social    Selection `json:"social"`
}

func (p Panels) Get(panel Panel) Selection {
	switch panel {
	case PanelEditorial:
		return p.Editorial
	case PanelSocial:
		return p.Social
	default:
		return p.Sector
	}
}

// Sizes holds the target size of every panel.
type Sizes struct {
	Sector    int `json:"sector"`
	Editorial int `json:"editorial"`
	Social    int `json:"social"`
}

func UniformSizes(n int) Sizes {
	return Sizes{Sector: n, Editorial: n, Social: n}
}

// Curator runs the whole pipeline over a fetched batch.
type Curator struct {
	classifier  *Classifier
	partitioner *Partitioner
}

func NewCurator(classifier *Classifier) *Curator {
	return &Curator{
		classifier:  classifier,
		partitioner: NewPartitioner(NewScorer(classifier)),
	}
}

func (c *Curator) Classifier() *Classifier {
	return c.classifier
}

// Specs returns the panel definitions in evaluation order.
func (c *Curator) Specs() []PanelSpec {
	return []PanelSpec{
		{Panel: PanelSector, Rule: AnyRule, Strategy: GeneralStrategy},
		{Panel: PanelEditorial, Rule: c.classifier.EditorialRule, Strategy: SocialImpactStrategy},
		{Panel: PanelSocial, Rule: c.classifier.SocialRule, Strategy: SocialImpactStrategy},
	}
}

// CurateRaw normalizes both batches and curates them.
func (c *Curator) CurateRaw(sector, country []RawDocument, sizes Sizes) Panels {
	return c.Curate(NormalizeAll(sector), NormalizeAll(country), sizes)
}

// Curate partitions the sector batch into the sector panel and the country
// batch into the editorial and social panels, sharing one Seen set so that
// nothing shown in an earlier panel reappears in a later one.
func (c *Curator) Curate(sector, country []Article, sizes Sizes) Panels {
	seen := NewSeen()
	var panels Panels

	for _, spec := range c.Specs() {
		switch spec.Panel {
		case PanelSector:
			panels.Sector = c.partitioner.Partition(sector, seen, sizes.Sector, spec)
		case PanelEditorial:
			panels.Editorial = c.partitioner.Partition(country, seen, sizes.Editorial, spec)
		case PanelSocial:
			panels.Social = c.partitioner.Partition(country, seen, sizes.Social, spec)
		}
	}

	slog.Debug("Curation pass completed",
		"sector_in", len(sector),
		"country_in", len(country),
		"sector", len(panels.Sector.Articles),
		"editorial", len(panels.Editorial.Articles),
		"social", len(panels.Social.Articles))

	return panels
}
