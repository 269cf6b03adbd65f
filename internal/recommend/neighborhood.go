// Package recommend implements item neighborhoods, rating prediction, and
// top-N recommendation over the similarity engine and the preference store.
package recommend

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/similarity"
	"github.com/hyperjump/osusume/internal/storage"
)

// Finder returns the items most similar to a seed item.
type Finder struct {
	catalog storage.Storage
	engine  *similarity.Engine
	logger  *zap.Logger // optional; when set, logs debug events
}

// NewFinder creates a neighborhood finder. logger may be nil.
func NewFinder(catalog storage.Storage, engine *similarity.Engine, logger *zap.Logger) *Finder {
	return &Finder{catalog: catalog, engine: engine, logger: logger}
}

// SimilarItems returns up to nnbrs items most similar to itemID, score
// descending. An item without a tag document yields an empty neighborhood:
// untagged items are expected, not an error.
func (f *Finder) SimilarItems(ctx context.Context, itemID int64, nnbrs int) ([]models.ScoredItem, error) {
	if nnbrs <= 0 {
		return nil, nil
	}
	doc, err := f.catalog.GetItemDocument(ctx, itemID)
	if errors.Is(err, storage.ErrNotFound) {
		if f.logger != nil {
			f.logger.Debug("no tag document for item", zap.Int64("item_id", itemID))
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	weights, err := f.engine.TermWeights(doc)
	if err != nil {
		return nil, err
	}
	// The seed matches its own query with the top score, so fetch one extra
	// candidate and drop the seed afterwards.
	hits, err := f.engine.Query(ctx, weights, nnbrs+1)
	if err != nil {
		return nil, err
	}
	out := make([]models.ScoredItem, 0, nnbrs)
	for _, hit := range hits {
		if hit.ItemID == itemID || hit.Score <= 0 {
			continue
		}
		out = append(out, hit)
		if len(out) == nnbrs {
			break
		}
	}
	return out, nil
}
