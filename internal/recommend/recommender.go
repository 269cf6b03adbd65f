package recommend

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/preference"
)

// Recommender ranks unrated catalog items for a user.
type Recommender struct {
	prefs     preference.Store
	predictor *Predictor
	logger    *zap.Logger // optional; when set, logs debug events
}

// NewRecommender creates a recommender. logger may be nil.
func NewRecommender(prefs preference.Store, predictor *Predictor, logger *zap.Logger) *Recommender {
	return &Recommender{prefs: prefs, predictor: predictor, logger: logger}
}

// Recommend predicts a rating for every catalog item the user has not rated
// and returns up to topN of them with positive predicted ratings, score
// descending with ties broken by item ID ascending. Fewer qualifying
// candidates than topN returns all of them.
func (r *Recommender) Recommend(ctx context.Context, userID int64, topN int) ([]models.ScoredItem, error) {
	if topN <= 0 {
		return nil, nil
	}
	itemIDs, err := r.prefs.ItemIDs(ctx)
	if err != nil {
		return nil, err
	}
	ratings, err := r.prefs.UserRatings(ctx, userID)
	if err != nil {
		return nil, err
	}

	var scored []models.ScoredItem
	for _, itemID := range itemIDs {
		if _, rated := ratings[itemID]; rated {
			continue
		}
		pred, err := r.predictor.predict(ctx, itemID, ratings)
		if err != nil {
			return nil, err
		}
		if pred.Kind == models.PredictionNone || pred.Rating <= 0 {
			continue
		}
		scored = append(scored, models.ScoredItem{ItemID: itemID, Score: pred.Rating})
	}
	if r.logger != nil {
		r.logger.Debug("recommendation candidates scored",
			zap.Int64("user_id", userID),
			zap.Int("candidates", len(itemIDs)-len(ratings)),
			zap.Int("qualifying", len(scored)),
		)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ItemID < scored[j].ItemID
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored, nil
}
