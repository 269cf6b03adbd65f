package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/preference"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/similarity"
)

const testTags = "1,action\n1,thriller\n2,action\n2,comedy\n3,romance\n"

const testRatings = "5,2,5.0\n5,3,1.0\n9,1,4.0\n"

// newTestServer builds a server over a small built index and imported ratings.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	tagsPath := filepath.Join(dir, "tags.csv")
	if err := os.WriteFile(tagsPath, []byte(testTags), 0600); err != nil {
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
	ratingsPath := filepath.Join(dir, "ratings.csv")
	if err := os.WriteFile(ratingsPath, []byte(testRatings), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := prefs.ImportCSV(ctx, ratingsPath); err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}

	engine := similarity.NewEngine(ix.Catalog, ix.Terms)
	finder := recommend.NewFinder(ix.Catalog, engine, nil)
	predictor := recommend.NewPredictor(prefs, finder, 20)
	recommender := recommend.NewRecommender(prefs, predictor, nil)

	cfg := &config.Config{
		Storage: config.StorageConfig{
			RatingsDBPath: filepath.Join(dir, "ratings.db"),
			IndexPath:     indexPath,
		},
		Recommend: config.RecommendConfig{
			NeighborhoodSize: 20,
			DefaultTopN:      10,
			MaxTopN:          100,
		},
	}
	return NewServer(finder, predictor, recommender, ix.Catalog, prefs, cfg, zap.NewNop())
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, r)
	return w
}

func TestHandleSimilarItems(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, http.MethodGet, "/api/v1/items/1/similar")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		ItemID  int64               `json:"item_id"`
		Similar []models.ScoredItem `json:"similar"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ItemID != 1 {
		t.Errorf("item_id: got %d", out.ItemID)
	}
	// Item 2 shares "action" with item 1; item 3 shares nothing.
	if len(out.Similar) != 1 || out.Similar[0].ItemID != 2 {
		t.Errorf("similar: got %v, want [item 2]", out.Similar)
	}
	if out.Similar[0].Score <= 0 {
		t.Errorf("score: got %f, want > 0", out.Similar[0].Score)
	}
}

func TestHandleSimilarItems_UnknownItem(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, http.MethodGet, "/api/v1/items/999/similar")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 for unknown item", w.Code)
	}
	var out struct {
		Similar []models.ScoredItem `json:"similar"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Similar) != 0 {
		t.Errorf("similar: got %v, want empty", out.Similar)
	}
}

func TestHandleSimilarItems_InvalidID(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, http.MethodGet, "/api/v1/items/abc/similar")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandlePredict_Known(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, http.MethodGet, "/api/v1/users/5/predictions/2")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Prediction models.Prediction `json:"prediction"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Prediction.Kind != models.PredictionKnown || out.Prediction.Rating != 5.0 {
		t.Errorf("prediction: got %+v, want known 5.0", out.Prediction)
	}
}

func TestHandlePredict_Estimated(t *testing.T) {
	srv := newTestServer(t)
	// User 5 has not rated item 1; item 2 (rated 5.0) is its only
	// positively similar neighbor.
	w := serve(srv, http.MethodGet, "/api/v1/users/5/predictions/1")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Prediction models.Prediction `json:"prediction"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Prediction.Kind != models.PredictionEstimated {
		t.Fatalf("prediction: got %+v, want estimated", out.Prediction)
	}
	if math.Abs(out.Prediction.Rating-5.0) > 1e-9 {
		t.Errorf("rating: got %f, want 5.0", out.Prediction.Rating)
	}
}

func TestHandlePredict_NoPrediction(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, http.MethodGet, "/api/v1/users/999/predictions/1")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Prediction models.Prediction `json:"prediction"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Prediction.Kind != models.PredictionNone {
		t.Errorf("prediction: got %+v, want none", out.Prediction)
	}
}

func TestHandleRecommend(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, http.MethodGet, "/api/v1/users/5/recommendations")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		UserID          int64               `json:"user_id"`
		Recommendations []models.ScoredItem `json:"recommendations"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.UserID != 5 {
		t.Errorf("user_id: got %d", out.UserID)
	}
	// Item 1 is the only unrated item with a positive estimate.
	if len(out.Recommendations) != 1 || out.Recommendations[0].ItemID != 1 {
		t.Errorf("recommendations: got %v, want [item 1]", out.Recommendations)
	}
	for _, rec := range out.Recommendations {
		if rec.ItemID == 2 || rec.ItemID == 3 {
			t.Errorf("recommended already-rated item %d", rec.ItemID)
		}
	}
}

func TestHandleRecommend_LimitParam(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, http.MethodGet, "/api/v1/users/5/recommendations?n=0")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	// n=0 is ignored and the default applies; the response stays well formed.
	var out struct {
		Recommendations []models.ScoredItem `json:"recommendations"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Recommendations) > 10 {
		t.Errorf("got %d recommendations, want <= default", len(out.Recommendations))
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, http.MethodGet, "/api/v1/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		ItemDocuments int64 `json:"item_documents"`
		Ratings       int64 `json:"ratings"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ItemDocuments != 3 {
		t.Errorf("item_documents: got %d, want 3", out.ItemDocuments)
	}
	if out.Ratings != 3 {
		t.Errorf("ratings: got %d, want 3", out.Ratings)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "ok" {
		t.Errorf("status body: got %v", out)
	}
}
