// Package similarity provides the deterministic more-like-this query engine
// over the built tag index.
package similarity

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/internal/tagindex"
)

// Engine scores item documents against a weighted-term query. It holds
// read-only handles to the catalog and the term index and is safe for
// concurrent queries.
type Engine struct {
	catalog storage.Storage
	terms   tagindex.TermIndex
}

// NewEngine creates an engine over a built index.
func NewEngine(catalog storage.Storage, terms tagindex.TermIndex) *Engine {
	return &Engine{catalog: catalog, terms: terms}
}

// TermWeights computes w(t) = tf(t, doc) * idf(t) for every term of doc.
// Every term participates; there is no minimum-frequency filtering.
func (e *Engine) TermWeights(doc *models.ItemDocument) (map[string]float64, error) {
	total, err := e.terms.DocCount()
	if err != nil {
		return nil, err
	}
	weights := make(map[string]float64)
	for term, tf := range doc.TermFrequencies() {
		df, err := e.terms.TermDocFrequency(term)
		if err != nil {
			return nil, err
		}
		weights[term] = float64(tf) * idf(int(total), df)
	}
	return weights, nil
}

// Query scores every document sharing at least one weighted term:
// score = sum over shared terms of w_query(t) * tf(t, candidate) * idf(t).
// Results are ordered by score descending, ties broken by item ID ascending
// so repeated queries are reproducible. An empty weight set or non-positive
// limit yields an empty result, never an error.
func (e *Engine) Query(ctx context.Context, weights map[string]float64, limit int) ([]models.ScoredItem, error) {
	if len(weights) == 0 || limit <= 0 {
		return nil, nil
	}
	total, err := e.terms.DocCount()
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	terms := make([]string, 0, len(weights))
	for term := range weights {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	idfs := make(map[string]float64, len(terms))
	for _, term := range terms {
		df, err := e.terms.TermDocFrequency(term)
		if err != nil {
			return nil, err
		}
		idfs[term] = idf(int(total), df)
	}

	candidates, err := e.terms.Candidates(ctx, terms, int(total))
	if err != nil {
		return nil, err
	}

	results := make([]models.ScoredItem, 0, len(candidates))
	for _, itemID := range candidates {
		doc, err := e.catalog.GetItemDocument(ctx, itemID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		tf := doc.TermFrequencies()
		var score float64
		for _, term := range terms {
			if count, ok := tf[term]; ok {
				score += weights[term] * float64(count) * idfs[term]
			}
		}
		results = append(results, models.ScoredItem{ItemID: itemID, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ItemID < results[j].ItemID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// idf is ln(1 + N/df). Terms absent from the corpus carry zero weight.
func idf(totalDocs, df int) float64 {
	if df == 0 {
		return 0
	}
	return math.Log(1 + float64(totalDocs)/float64(df))
}
