package search

import (
	"strings"

	"github.com/lysyi3m/press-digest/app/curation"
)

var validFields = map[string]bool{
	"title":       true,
	"description": true,
	"source":      true,
	"url":         true,
	"keyphrases":  true,
}

// Filterer drops articles rejected by a search's include/exclude rules before
// they reach curation.
type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

func (f *Filterer) Run(articles []curation.Article, filters []Filter) []curation.Article {
	if len(filters) == 0 {
		return articles
	}

	kept := make([]curation.Article, 0, len(articles))
	for _, article := range articles {
		if f.Rejects(article, filters) {
			continue
		}
		kept = append(kept, article)
	}
	return kept
}

// Rejects reports whether any filter excludes the article. Every filter with
// includes must match at least one of them.
func (f *Filterer) Rejects(article curation.Article, filters []Filter) bool {
	for _, filter := range filters {
		value := fieldValue(article, filter.Field)

		for _, exclude := range filter.Excludes {
			if matches(value, exclude) {
				return true
			}
		}

		if len(filter.Includes) == 0 {
			continue
		}

		matched := false
		for _, include := range filter.Includes {
			if matches(value, include) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}
	}

	return false
}

// matches compares case- and accent-insensitively.
func matches(value, pattern string) bool {
	return strings.Contains(curation.FoldCase(value), curation.FoldCase(pattern))
}

func fieldValue(article curation.Article, field string) string {
	switch field {
	case "title":
		return article.Title
	case "description":
		return article.Description
	case "source":
		return article.SourceName
	case "url":
		return article.URL
	case "keyphrases":
		return strings.Join(article.Keyphrases, " ")
	default:
		return ""
	}
}
