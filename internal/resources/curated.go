package resources

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/curated.yaml
var curatedYAML []byte

// GeneralTopic is the curated entry used when no topic matches.
const GeneralTopic = "General"

// CuratedEntry maps one topic to its hand-checked resources.
type CuratedEntry struct {
	Topic     string     `yaml:"topic"`
	Resources []Resource `yaml:"resources"`
}

// Curated is the static last-resort table. Entries keep file order so that
// close matches are deterministic.
type Curated struct {
	entries []CuratedEntry
}

// DefaultCurated returns the embedded table.
func DefaultCurated() *Curated {
	c, err := ParseCurated(curatedYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded curated table: %v", err))
	}
	return c
}

// LoadCurated reads a curated table from a YAML file.
func LoadCurated(path string) (*Curated, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curated table: %w", err)
	}
	return ParseCurated(data)
}

// ParseCurated decodes a curated table.
func ParseCurated(data []byte) (*Curated, error) {
	var entries []CuratedEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse curated table: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Topic) == "" {
			return nil, fmt.Errorf("curated entry %d: missing topic", i)
		}
		for j, r := range e.Resources {
			entries[i].Resources[j] = normalize(r)
		}
	}
	return &Curated{entries: entries}, nil
}

// Topics lists the table's topics in file order.
func (c *Curated) Topics() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Topic)
	}
	return out
}

// Lookup returns the resources for topic: an exact match, else the first
// entry whose topic is contained in it, else the General entry.
func (c *Curated) Lookup(topic string) []Resource {
	if c == nil {
		return nil
	}
	t := strings.ToLower(strings.TrimSpace(topic))
	var general []Resource
	for _, e := range c.entries {
		if strings.ToLower(e.Topic) == t {
			return clone(e.Resources)
		}
	}
	for _, e := range c.entries {
		key := strings.ToLower(e.Topic)
		if e.Topic == GeneralTopic {
			general = e.Resources
			continue
		}
		if t != "" && strings.Contains(t, key) {
			return clone(e.Resources)
		}
	}
	return clone(general)
}

func clone(in []Resource) []Resource {
	if len(in) == 0 {
		return nil
	}
	return append([]Resource(nil), in...)
}
