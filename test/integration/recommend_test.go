// Package integration provides full-pipeline tests (requires real storage and indices).
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/preference"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/similarity"
)

func TestIntegration_Recommend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	tags := "1,action\n1,thriller\n2,action\n2,comedy\n3,romance\n"
	ratings := "5,2,5.0\n5,3,1.0\n9,1,4.0\n"

	tagsPath := filepath.Join(dir, "tags.csv")
	if err := os.WriteFile(tagsPath, []byte(tags), 0600); err != nil {
		t.Fatal(err)
	}
	indexPath := filepath.Join(dir, "index")
	if err := indexer.Build(ctx, tagsPath, indexPath, nil); err != nil {
		t.Fatal(err)
	}
	// Building again over an existing index is a no-op.
	if err := indexer.Build(ctx, tagsPath, indexPath, nil); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	ix, err := indexer.Open(indexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	prefs, err := preference.NewSQLiteStore(filepath.Join(dir, "ratings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer prefs.Close()
	ratingsPath := filepath.Join(dir, "ratings.csv")
	if err := os.WriteFile(ratingsPath, []byte(ratings), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := prefs.ImportCSV(ctx, ratingsPath); err != nil {
		t.Fatal(err)
	}

	engine := similarity.NewEngine(ix.Catalog, ix.Terms)
	finder := recommend.NewFinder(ix.Catalog, engine, nil)
	predictor := recommend.NewPredictor(prefs, finder, 20)
	recommender := recommend.NewRecommender(prefs, predictor, nil)

	neighbors, err := finder.SimilarItems(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) != 1 || neighbors[0].ItemID != 2 {
		t.Errorf("neighbors of item 1: got %v, want [item 2]", neighbors)
	}

	pred, err := predictor.Predict(ctx, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if pred.Kind != models.PredictionEstimated {
		t.Errorf("prediction: got %+v, want estimated", pred)
	}

	recs, err := recommender.Recommend(ctx, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ItemID != 1 {
		t.Errorf("recommendations: got %v, want [item 1]", recs)
	}
}
