package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/models"
)

// handleSimilarItems serves the neighborhood of one item. An unknown item is
// a soft miss: 200 with an empty list, never a 404.
func (s *Server) handleSimilarItems(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.pathID(w, r, "itemID")
	if !ok {
		return
	}
	n := s.limitParam(r, s.config.Recommend.NeighborhoodSize)
	items, err := s.finder.SimilarItems(r.Context(), itemID, n)
	if err != nil {
		s.logger.Error("similar items failed", zap.Int64("item_id", itemID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.ScoredItem{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"item_id": itemID,
		"similar": items,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	itemID, ok := s.pathID(w, r, "itemID")
	if !ok {
		return
	}
	pred, err := s.predictor.Predict(r.Context(), userID, itemID)
	if err != nil {
		s.logger.Error("prediction failed",
			zap.Int64("user_id", userID),
			zap.Int64("item_id", itemID),
			zap.Error(err),
		)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    userID,
		"item_id":    itemID,
		"prediction": pred,
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	n := s.limitParam(r, s.config.Recommend.DefaultTopN)
	items, err := s.recommender.Recommend(r.Context(), userID, n)
	if err != nil {
		s.logger.Error("recommendation failed", zap.Int64("user_id", userID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.ScoredItem{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":         userID,
		"recommendations": items,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.catalog.CountItemDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ratingCount, err := s.prefs.CountRatings(ctx)
	if err != nil {
		s.logger.Error("status: count ratings failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"item_documents": docCount,
		"ratings":        ratingCount,
		"config": map[string]interface{}{
			"index_path":        s.config.Storage.IndexPath,
			"ratings_db_path":   s.config.Storage.RatingsDBPath,
			"neighborhood_size": s.config.Recommend.NeighborhoodSize,
			"default_top_n":     s.config.Recommend.DefaultTopN,
			"max_top_n":         s.config.Recommend.MaxTopN,
		},
	})
}

// pathID parses an int64 URL parameter, responding 400 on failure.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// limitParam reads the "n" query parameter, falling back to def and clamping
// to the configured maximum.
func (s *Server) limitParam(r *http.Request, def int) int {
	n := def
	if raw := r.URL.Query().Get("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			n = v
		}
	}
	if max := s.config.Recommend.MaxTopN; max > 0 && n > max {
		n = max
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
