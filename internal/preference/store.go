// Package preference provides read access to (user, item, rating) triples.
package preference

import "context"

// Store is the read-only view of the preference data. Implementations are
// immutable after their initial load and safe for concurrent reads.
type Store interface {
	// ItemIDs returns every item ID with at least one rating, ascending.
	ItemIDs(ctx context.Context) ([]int64, error)
	// UserRatings returns itemID -> rating for everything the user rated.
	// An unknown user yields an empty map.
	UserRatings(ctx context.Context, userID int64) (map[int64]float64, error)
	// Rating returns the rating for (userID, itemID) and whether one exists.
	Rating(ctx context.Context, userID, itemID int64) (float64, bool, error)
	// CountRatings returns the total number of stored ratings.
	CountRatings(ctx context.Context) (int, error)
	Close() error
}
