package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/press-digest/app/database"
)

const (
	DefaultRefreshInterval = 3600
	DefaultMaxItems        = 500
)

type ConfigCache struct {
	searchesDir string
	cache       map[string]*Definition
	mu          sync.RWMutex
}

func NewConfigCache(searchesDir string) *ConfigCache {
	return &ConfigCache{
		searchesDir: searchesDir,
		cache:       make(map[string]*Definition),
	}
}

// Run loads every definition in the searches directory. A missing directory
// leaves the cache empty.
func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.searchesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.searchesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		def, err := cc.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Search definition loaded", "search", name, "kind", def.Kind, "source", def.Source, "enabled", def.Settings.Enabled)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(name string) (*Definition, error) {
	configFile := filepath.Join(cc.searchesDir, name+".yml")
	def, err := parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	def.Name = name

	if err := validateConfig(def); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[def.Name] = def

	return def, nil
}

func (cc *ConfigCache) GetConfig(name string) (*Definition, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	def, ok := cc.cache[name]
	if !ok {
		return nil, fmt.Errorf("search definition '%s' not found", name)
	}
	return def, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Definition {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Definition, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Definition {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabled := make(map[string]*Definition)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabled[k] = v
		}
	}
	return enabled
}

// Filters returns the filters declared for a search, or nil when the search
// is not defined in a file.
func (cc *ConfigCache) Filters(name string) []Filter {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	if def, ok := cc.cache[name]; ok {
		return def.Filters
	}
	return nil
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func parseConfig(configFile string) (*Definition, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if def.Source == "" {
		def.Source = database.SearchSourceMedia
	}
	if def.Settings.RefreshInterval == 0 {
		def.Settings.RefreshInterval = DefaultRefreshInterval
	}
	if def.Settings.MaxItems == 0 {
		def.Settings.MaxItems = DefaultMaxItems
	}
	def.CountryCode = strings.ToUpper(strings.TrimSpace(def.CountryCode))

	return &def, nil
}

func validateConfig(def *Definition) error {
	if def == nil {
		return fmt.Errorf("definition is nil")
	}

	if def.Name == "" {
		return fmt.Errorf("search name is required")
	}

	switch def.Kind {
	case database.SearchKindCountry, database.SearchKindSector:
	default:
		return fmt.Errorf("invalid kind %q", def.Kind)
	}

	switch def.Source {
	case database.SearchSourceMedia:
		if def.Query == "" {
			return fmt.Errorf("query is required for media searches")
		}
	case database.SearchSourceRSS:
		if def.URL == "" {
			return fmt.Errorf("url is required for rss searches")
		}
	default:
		return fmt.Errorf("invalid source %q", def.Source)
	}

	nonNegativeFields := map[string]int{
		"refresh interval": def.Settings.RefreshInterval,
		"max items":        def.Settings.MaxItems,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	for i, filter := range def.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
