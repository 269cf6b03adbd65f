package tagindex

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// BleveIndex implements TermIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// itemEntry is the shape Bleve indexes per item.
type itemEntry struct {
	Tags string `json:"tags"`
}

// tagAnalyzer is unicode tokenize + lowercase only. The standard analyzer
// would also strip English stop words, but every term of a tag document must
// participate in scoring. The unicode tokenizer does not split on underscore,
// which keeps underscore-joined multi-word tags single terms.
const tagAnalyzer = "tag"

// NewBleveIndex creates or opens a Bleve index at path.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(tagAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register tag analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = tagAnalyzer
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)
	im.AddDocumentMapping("item", docMapping)
	im.DefaultType = "item"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces the tag document for itemID.
func (b *BleveIndex) Index(ctx context.Context, itemID int64, tags string) error {
	return b.index.Index(docID(itemID), &itemEntry{Tags: tags})
}

// DocCount returns the total number of indexed item documents.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// TermDocFrequency returns the number of documents containing the exact term.
// A TermQuery bypasses query-side analysis, so the stored token is matched
// byte for byte.
func (b *BleveIndex) TermDocFrequency(term string) (int, error) {
	q := bleve.NewTermQuery(term)
	q.SetField("tags")
	req := bleve.NewSearchRequest(q)
	req.Size = 0
	results, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}

// Candidates returns up to limit item IDs sharing at least one of terms,
// via a disjunction of exact term queries.
func (b *BleveIndex) Candidates(ctx context.Context, terms []string, limit int) ([]int64, error) {
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		tq := bleve.NewTermQuery(term)
		tq.SetField("tags")
		queries = append(queries, tq)
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve candidate search failed: %w", err)
	}
	ids := make([]int64, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unexpected document ID %q: %w", hit.ID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func docID(itemID int64) string {
	return strconv.FormatInt(itemID, 10)
}
