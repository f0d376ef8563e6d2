package feed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is one configured syndication feed.
type Source struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// SourcesConfig is YAML config structure
// feeds:
//   - label: TechCrunch
//     url: https://...
type SourcesConfig struct {
	Feeds []Source `yaml:"feeds"`
}

// LoadSources reads the feed list from a YAML file. Entries without a URL are
// rejected; a missing label defaults to the URL.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode feeds: %w", err)
	}

	sources := make([]Source, 0, len(cfg.Feeds))
	for i, s := range cfg.Feeds {
		s.URL = strings.TrimSpace(s.URL)
		s.Label = strings.TrimSpace(s.Label)
		if s.URL == "" {
			return nil, fmt.Errorf("feed #%d has no url", i+1)
		}
		if s.Label == "" {
			s.Label = s.URL
		}
		sources = append(sources, s)
	}
	return sources, nil
}
