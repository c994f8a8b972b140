package search

import (
	"github.com/lysyi3m/press-digest/app/database"
)

// Definition is one search as declared in a YAML file under the searches
// directory.
type Definition struct {
	Name        string                // Derived from filename (without .yml extension)
	Kind        database.SearchKind   `yaml:"kind"`
	Source      database.SearchSource `yaml:"source"`
	Query       string                `yaml:"query"`
	URL         string                `yaml:"url"`
	CountryCode string                `yaml:"country_code"`
	Settings    Settings              `yaml:"settings"`
	Filters     []Filter              `yaml:"filters"`
}

type Settings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxItems        int  `yaml:"max_items"`
}

type Filter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ToSearch maps the definition onto the stored search row.
func (d *Definition) ToSearch() database.Search {
	return database.Search{
		Name:            d.Name,
		Kind:            d.Kind,
		Source:          d.Source,
		Query:           d.Query,
		URL:             d.URL,
		CountryCode:     d.CountryCode,
		RefreshInterval: d.Settings.RefreshInterval,
		MaxItems:        d.Settings.MaxItems,
		Enabled:         d.Settings.Enabled,
	}
}
