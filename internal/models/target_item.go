package models

import "time"

// Target item types
const (
	ItemTypeSentence = "sentence"
	ItemTypeWord     = "word"
)

// Defaults applied when a target item is created without them
const (
	DefaultItemLevel     = "B"
	DefaultItemSetNumber = 1
)

// TargetItem is a curated sentence or word a subject is asked to speak
type TargetItem struct {
	ID                 int64     `json:"id"`
	Content            string    `json:"content"`
	Type               string    `json:"type"`
	Level              string    `json:"level"`
	SetNumber          int       `json:"set_number"`
	ExpectedVariations []string  `json:"expected_variations"`
	CreatedAt          time.Time `json:"created_at"`
}

// TargetItemFilter narrows a catalog listing; zero values mean no filter
type TargetItemFilter struct {
	Type      string
	Level     string
	SetNumber int
}

// ValidItemType reports whether t is a known target item type
func ValidItemType(t string) bool {
	return t == ItemTypeSentence || t == ItemTypeWord
}
