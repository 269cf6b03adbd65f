// Package cli provides CLI output utilities for Osusume.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// maxTagPreview caps the tag string shown per item in text output.
const maxTagPreview = 60

// WriteScoredItems writes a ranked item list to w in the given format.
// tags maps item IDs to their tag strings for display and may be nil.
func WriteScoredItems(w io.Writer, items []models.ScoredItem, tags map[int64]string, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No results.")
		return nil
	}
	for i, item := range items {
		fmt.Fprintf(w, "%2d. item %d  score=%.4f", i+1, item.ItemID, item.Score)
		if t, ok := tags[item.ItemID]; ok && t != "" {
			fmt.Fprintf(w, "  [%s]", utils.Truncate(t, maxTagPreview))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WritePrediction writes a prediction to w in the given format.
func WritePrediction(w io.Writer, pred models.Prediction, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pred)
	}
	switch pred.Kind {
	case models.PredictionKnown:
		fmt.Fprintf(w, "known rating: %.2f\n", pred.Rating)
	case models.PredictionEstimated:
		fmt.Fprintf(w, "estimated rating: %.2f\n", pred.Rating)
	default:
		fmt.Fprintln(w, "no prediction (no similar rated items)")
	}
	return nil
}

// ParseFormat maps a --format flag value to an OutputFormat, defaulting to text.
func ParseFormat(s string) OutputFormat {
	if s == string(OutputJSON) {
		return OutputJSON
	}
	return OutputText
}
