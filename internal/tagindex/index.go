// Package tagindex provides the persistent inverted term index over item tag documents.
package tagindex

import "context"

// TermIndex defines the inverted-index operations the similarity engine needs.
// After the batch build commits, implementations are read-only.
type TermIndex interface {
	// Index adds (or replaces) the tag document for an item. tags is the
	// normalized space-joined token string.
	Index(ctx context.Context, itemID int64, tags string) error
	// DocCount returns the total number of indexed item documents.
	DocCount() (uint64, error)
	// TermDocFrequency returns the number of documents containing the exact term.
	TermDocFrequency(term string) (int, error)
	// Candidates returns up to limit item IDs whose documents share at least
	// one of the given terms.
	Candidates(ctx context.Context, terms []string, limit int) ([]int64, error)
	Close() error
}
