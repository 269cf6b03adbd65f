package recommend

import (
	"context"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/preference"
)

// defaultNeighborhoodSize is used when no size is configured.
const defaultNeighborhoodSize = 20

// Predictor estimates a user's rating for an item from the user's known
// ratings weighted by item similarity.
type Predictor struct {
	prefs  preference.Store
	finder *Finder
	nnbrs  int
}

// NewPredictor creates a predictor. nnbrs is the neighborhood size consulted
// per prediction; non-positive values fall back to the default of 20.
func NewPredictor(prefs preference.Store, finder *Finder, nnbrs int) *Predictor {
	if nnbrs <= 0 {
		nnbrs = defaultNeighborhoodSize
	}
	return &Predictor{prefs: prefs, finder: finder, nnbrs: nnbrs}
}

// Predict returns the user's rating for itemID: the stored rating when the
// user already rated it, an estimate from positively similar rated items
// otherwise, or the explicit no-prediction sentinel when no such item exists.
func (p *Predictor) Predict(ctx context.Context, userID, itemID int64) (models.Prediction, error) {
	ratings, err := p.prefs.UserRatings(ctx, userID)
	if err != nil {
		return models.NoPrediction(), err
	}
	return p.predict(ctx, itemID, ratings)
}

// predict is Predict with the user's ratings already loaded, so the
// recommender can score many candidates from one lookup.
func (p *Predictor) predict(ctx context.Context, itemID int64, ratings map[int64]float64) (models.Prediction, error) {
	if rating, ok := ratings[itemID]; ok {
		return models.Known(rating), nil
	}
	if len(ratings) == 0 {
		return models.NoPrediction(), nil
	}

	neighbors, err := p.finder.SimilarItems(ctx, itemID, p.nnbrs)
	if err != nil {
		return models.NoPrediction(), err
	}
	// sim is computed from itemID's neighborhood only, so sim(i, j) and
	// sim(j, i) may differ. Accepted property of the model.
	sim := make(map[int64]float64, len(neighbors))
	for _, n := range neighbors {
		sim[n.ItemID] = n.Score
	}

	var numerator, denominator float64
	for ratedItemID, rating := range ratings {
		s := sim[ratedItemID]
		if s <= 0 {
			continue
		}
		numerator += s * rating
		denominator += s
	}
	if denominator == 0 {
		return models.NoPrediction(), nil
	}
	return models.Estimated(numerator / denominator), nil
}
