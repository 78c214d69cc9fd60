package topics

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/kiliankoe/botornot/internal/game"
	"gopkg.in/yaml.v3"
)

//go:embed topics.yaml
var defaultTopics []byte

type Topic struct {
	ID          string   `yaml:"id"`
	Emoji       string   `yaml:"emoji"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Questions   []string `yaml:"questions"`
}

// Catalog is the read-only prompt pool, keyed by topic id.
type Catalog struct {
	order []string
	byID  map[string]Topic
}

// Default parses the topic list compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultTopics)
}

// Load reads a topic list from a YAML file, or the built-in one if path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Catalog, error) {
	var list []Topic
	if err := yaml.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	c := &Catalog{byID: make(map[string]Topic, len(list))}
	for _, t := range list {
		if t.ID == "" {
			return nil, errors.New("parse topics: topic without id")
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("parse topics: duplicate topic %q", t.ID)
		}
		c.order = append(c.order, t.ID)
		c.byID[t.ID] = t
	}
	return c, nil
}

// Prompts returns the questions of the given topics, or of every topic if
// none are given. Unknown ids are ignored.
func (c *Catalog) Prompts(topicIDs ...string) []game.Prompt {
	if len(topicIDs) == 0 {
		topicIDs = c.order
	}
	var out []game.Prompt
	for _, id := range topicIDs {
		t, ok := c.byID[id]
		if !ok {
			continue
		}
		for _, q := range t.Questions {
			out = append(out, game.Prompt{Text: q, TopicEmoji: t.Emoji, TopicName: t.Name})
		}
	}
	return out
}

func (c *Catalog) Topics() []game.TopicInfo {
	out := make([]game.TopicInfo, 0, len(c.order))
	for _, id := range c.order {
		t := c.byID[id]
		out = append(out, game.TopicInfo{ID: t.ID, Emoji: t.Emoji, Name: t.Name, Description: t.Description})
	}
	return out
}
