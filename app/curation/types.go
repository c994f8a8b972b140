package curation

import (
	"time"
)

type SourceKind string

const (
	SourceTraditional SourceKind = "traditional"
	SourceSocial      SourceKind = "social"
	SourceUnknown     SourceKind = "unknown"
)

type Panel string

const (
	PanelSector    Panel = "sector"
	PanelEditorial Panel = "editorial"
	PanelSocial    Panel = "social"
)

// PanelOrder is the evaluation order of a curation pass. Earlier panels win
// cross-panel deduplication, so the order is part of the output contract.
var PanelOrder = []Panel{PanelSector, PanelEditorial, PanelSocial}

func ParsePanel(s string) (Panel, bool) {
	for _, p := range PanelOrder {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Tier records which rung of the backfill ladder admitted an article.
type Tier string

const (
	TierRanked     Tier = "ranked"
	TierEngagement Tier = "engagement"
	TierUnfiltered Tier = "unfiltered"
	TierDuplicates Tier = "duplicates"
	TierAny        Tier = "any"
)

var TierOrder = []Tier{TierRanked, TierEngagement, TierUnfiltered, TierDuplicates, TierAny}

const (
	NoLink           = "#"
	PlaceholderImage = "/static/img/placeholder.png"
	UntitledTitle    = "Sin título"

	MaxTitleLength       = 140
	MaxDescriptionLength = 200
	MaxDescriptionKey    = 140
)

type Article struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	ImageURL        string    `json:"imageUrl"`
	PublishedAt     time.Time `json:"publishedAt"`
	SourceName      string    `json:"sourceName"`
	EngagementScore float64   `json:"engagementScore"`
	SocialEchoScore float64   `json:"socialEchoScore"`
	Reach           float64   `json:"reach"`
	AVE             float64   `json:"ave"`
	Views           float64   `json:"views"`
	Sentiment       string    `json:"sentiment,omitempty"`
	Keyphrases      []string  `json:"keyphrases"`
	CountryCode     string    `json:"countryCode,omitempty"`
	ContentType     string    `json:"contentType,omitempty"`

	// SocialShaped is set when the source document carried post-like text
	// fields together with post-like metrics.
	SocialShaped bool `json:"-"`

	// SyntheticTitle and SyntheticDescription mark placeholder text made up
	// by the normalizer. Placeholders do not identify an article.
	SyntheticTitle       bool `json:"-"`
	SyntheticDescription bool `json:"-"`

	ContentScore float64 `json:"contentScore"`
	Tier         Tier    `json:"tier,omitempty"`
}

// Navigable reports whether the article links somewhere.
func (a Article) Navigable() bool {
	return a.URL != "" && a.URL != NoLink
}
