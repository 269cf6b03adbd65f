// Package models defines core data structures for item documents, scored results, and predictions.
package models

import "strings"

// ItemDocument is the tag document for one item: the item ID plus the
// item's normalized tokens joined by single spaces. Tokens are lowercased
// with non-alphanumeric runs mapped to underscores, so each tag is one term.
type ItemDocument struct {
	ItemID int64  `json:"item_id" db:"item_id"`
	Tags   string `json:"tags" db:"tags"`
}

// Tokens returns the document's terms in order.
func (d *ItemDocument) Tokens() []string {
	return strings.Fields(d.Tags)
}

// TermFrequencies returns the occurrence count of each distinct term.
func (d *ItemDocument) TermFrequencies() map[string]int {
	tf := make(map[string]int)
	for _, tok := range d.Tokens() {
		tf[tok]++
	}
	return tf
}

// ScoredItem is a single ranked hit: an item and its relevance score.
type ScoredItem struct {
	ItemID int64   `json:"item_id"`
	Score  float64 `json:"score"`
}
