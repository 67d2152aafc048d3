// Package seed loads sentence/word banks from TOML files.
package seed

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"speechcheck/internal/models"
)

// Bank is a TOML sentence/word bank. Items inherit the defaults of the set
// they belong to.
//
//	[[set]]
//	level = "A"
//	number = 1
//	type = "sentence"
//
//	  [[set.item]]
//	  content = "Good morning"
//	  variations = ["good morning!"]
type Bank struct {
	Sets []Set `toml:"set"`
}

// Set groups items that share a level, set number and type
type Set struct {
	Level  string `toml:"level"`
	Number int    `toml:"number"`
	Type   string `toml:"type"`
	Items  []Item `toml:"item"`
}

// Item is one sentence or word. Empty fields take the set's values.
type Item struct {
	Content    string   `toml:"content"`
	Type       string   `toml:"type"`
	Variations []string `toml:"variations"`
}

// LoadFile reads a bank from a TOML file
func LoadFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a bank, rejecting unknown keys
func Load(r io.Reader) (*Bank, error) {
	var bank Bank
	md, err := toml.NewDecoder(r).Decode(&bank)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed bank: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in seed bank: %s", strings.Join(keys, ", "))
	}
	return &bank, nil
}

// TargetItems flattens the bank into catalog items with defaults applied
func (b *Bank) TargetItems() []models.TargetItem {
	var items []models.TargetItem
	for _, set := range b.Sets {
		level := set.Level
		if level == "" {
			level = models.DefaultItemLevel
		}
		number := set.Number
		if number == 0 {
			number = models.DefaultItemSetNumber
		}
		for _, it := range set.Items {
			itemType := it.Type
			if itemType == "" {
				itemType = set.Type
			}
			if itemType == "" {
				itemType = models.ItemTypeSentence
			}
			variations := it.Variations
			if variations == nil {
				variations = []string{}
			}
			items = append(items, models.TargetItem{
				Content:            strings.TrimSpace(it.Content),
				Type:               itemType,
				Level:              level,
				SetNumber:          number,
				ExpectedVariations: variations,
			})
		}
	}
	return items
}
