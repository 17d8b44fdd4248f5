package game

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/survival-run/internal/models"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ItemBonus is a curated attack/defence bonus keyed by exact item name.
type ItemBonus struct {
	Name     string `yaml:"name"`
	ATKBonus *int   `yaml:"atkBonus,omitempty"`
	DEFBonus *int   `yaml:"defBonus,omitempty"`
}

// Catalog is the static game data: genres, music moods, starting inventory
// and the item bonus table.
type Catalog struct {
	Genres        []models.Genre `yaml:"genres"`
	BGMMoods      []string       `yaml:"bgmMoods"`
	StartingItems []models.Item  `yaml:"startingItems"`
	ItemBonuses   []ItemBonus    `yaml:"itemBonuses"`
}

// DefaultBGM is the mood used when a run starts without a usable one.
const DefaultBGM = "default"

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file, or returns the embedded one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Genres) == 0 {
		return nil, fmt.Errorf("catalog has no genres")
	}
	seen := make(map[string]bool, len(c.Genres))
	for _, g := range c.Genres {
		if g.ID == "" {
			return nil, fmt.Errorf("catalog genre %q has no id", g.Label)
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("duplicate genre id %q", g.ID)
		}
		seen[g.ID] = true
	}
	for i, it := range c.StartingItems {
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("starting item %d has no name", i)
		}
		if it.Quantity < 1 {
			c.StartingItems[i].Quantity = 1
		}
		if it.Type == "" {
			c.StartingItems[i].Type = ClassifyItem(it.Name)
		}
	}
	return &c, nil
}

// Genre looks up a genre by id.
func (c *Catalog) Genre(id string) (models.Genre, bool) {
	i := genreIndex(c.Genres, id)
	if i < 0 {
		return models.Genre{}, false
	}
	return c.Genres[i], true
}

// KnownMood reports whether mood is one of the catalog's music moods.
func (c *Catalog) KnownMood(mood string) bool {
	if mood == DefaultBGM {
		return true
	}
	for _, m := range c.BGMMoods {
		if m == mood {
			return true
		}
	}
	return false
}

// StartingInventory returns a fresh copy of the fixed starting items.
func (c *Catalog) StartingInventory() []models.Item {
	out := make([]models.Item, 0, len(c.StartingItems))
	for _, it := range c.StartingItems {
		out = append(out, it.Clone())
	}
	return out
}

// BonusFor returns the curated bonuses for an exact item name.
func (c *Catalog) BonusFor(name string) (atk, def *int) {
	if c == nil {
		return nil, nil
	}
	for _, b := range c.ItemBonuses {
		if b.Name == name {
			return copyInt(b.ATKBonus), copyInt(b.DEFBonus)
		}
	}
	return nil, nil
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
