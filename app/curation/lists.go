package curation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lists.yml
var defaultListsYAML []byte

// Lists holds the name and host lists the classifier matches against.
type Lists struct {
	Platforms []Platform `yaml:"platforms"`
	Outlets   []string   `yaml:"outlets"`
}

type Platform struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Hosts   []string `yaml:"hosts"`
}

// DefaultLists returns the lists embedded in the binary.
func DefaultLists() (*Lists, error) {
	return parseLists(defaultListsYAML)
}

// LoadLists reads lists from path, or returns the embedded lists when path is empty.
func LoadLists(path string) (*Lists, error) {
	if path == "" {
		return DefaultLists()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lists file: %w", err)
	}

	lists, err := parseLists(data)
	if err != nil {
		return nil, fmt.Errorf("invalid lists file %s: %w", path, err)
	}
	return lists, nil
}

func parseLists(data []byte) (*Lists, error) {
	var lists Lists
	if err := yaml.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := lists.validate(); err != nil {
		return nil, err
	}

	return &lists, nil
}

func (l *Lists) validate() error {
	if len(l.Platforms) == 0 {
		return fmt.Errorf("at least one platform is required")
	}

	for i, p := range l.Platforms {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("platform at index %d has no name", i)
		}
		if len(p.Hosts) == 0 {
			return fmt.Errorf("platform %s has no hosts", p.Name)
		}
		for _, h := range p.Hosts {
			if strings.TrimSpace(h) == "" || strings.Contains(h, "/") {
				return fmt.Errorf("platform %s has invalid host %q", p.Name, h)
			}
		}
	}

	if len(l.Outlets) == 0 {
		return fmt.Errorf("at least one outlet is required")
	}
	for i, o := range l.Outlets {
		if matchForm(o) == "" {
			return fmt.Errorf("outlet at index %d is empty", i)
		}
	}

	return nil
}
