package recommend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/preference"
	"github.com/hyperjump/osusume/internal/similarity"
)

// sampleTags is the shared scenario: item 1 {action, thriller},
// item 2 {action, comedy}, item 3 {romance}.
const sampleTags = "1,action\n1,thriller\n2,action\n2,comedy\n3,romance\n"

// sampleRatings: user 5 rated item 2 with 5.0 and item 3 with 1.0.
const sampleRatings = "5,2,5.0\n5,3,1.0\n"

// buildPipeline builds the full stack (index, engine, finder, predictor,
// recommender) over the given tag and rating CSV contents.
func buildPipeline(t *testing.T, tags, ratings string) (*Finder, *Predictor, *Recommender) {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	tagsPath := filepath.Join(dir, "tags.csv")
	if err := os.WriteFile(tagsPath, []byte(tags), 0600); err != nil {
		t.Fatal(err)
	}
	indexPath := filepath.Join(dir, "index")
	if err := indexer.Build(ctx, tagsPath, indexPath, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	ix, err := indexer.Open(indexPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })

	prefs, err := preference.NewSQLiteStore(filepath.Join(dir, "ratings.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = prefs.Close() })
	if ratings != "" {
		ratingsPath := filepath.Join(dir, "ratings.csv")
		if err := os.WriteFile(ratingsPath, []byte(ratings), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := prefs.ImportCSV(ctx, ratingsPath); err != nil {
			t.Fatalf("ImportCSV: %v", err)
		}
	}

	engine := similarity.NewEngine(ix.Catalog, ix.Terms)
	finder := NewFinder(ix.Catalog, engine, nil)
	predictor := NewPredictor(prefs, finder, 20)
	recommender := NewRecommender(prefs, predictor, nil)
	return finder, predictor, recommender
}
