package models

// PredictionKind says how a predicted rating was obtained.
type PredictionKind string

const (
	// PredictionKnown means the user has rated the item; Rating is the stored rating.
	PredictionKnown PredictionKind = "known"
	// PredictionEstimated means Rating was estimated from similar rated items.
	PredictionEstimated PredictionKind = "estimated"
	// PredictionNone means no positively similar rated item exists; Rating is zero
	// and carries no meaning.
	PredictionNone PredictionKind = "none"
)

// Prediction is the outcome of predicting a user's rating for an item.
// Rating always serializes; the kind alone signals absence.
type Prediction struct {
	Kind   PredictionKind `json:"kind"`
	Rating float64        `json:"rating"`
}

// Known returns a passthrough prediction for an item the user already rated.
func Known(rating float64) Prediction {
	return Prediction{Kind: PredictionKnown, Rating: rating}
}

// Estimated returns a prediction computed from neighborhood similarity.
func Estimated(rating float64) Prediction {
	return Prediction{Kind: PredictionEstimated, Rating: rating}
}

// NoPrediction returns the explicit no-result sentinel used when the user
// has no positively similar rated items.
func NoPrediction() Prediction {
	return Prediction{Kind: PredictionNone}
}
