package detection

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tphakala/camtrap-go/internal/errors"
)

// DefaultConfidenceThreshold is the top-score boundary below which a
// detection is routed to manual review. The threshold is exclusive on the
// low side: an item scored exactly at the threshold is auto-accepted.
const DefaultConfidenceThreshold = 0.7

// ParseBatch decodes and validates a raw inference payload.
//
// Validation is all-or-nothing: either the whole payload is well formed
// and a Batch is returned, or a data-shape error is returned and no
// partial result escapes. Callers keep their previous working set on
// failure.
func ParseBatch(data []byte) (*Batch, error) {
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, errors.DataShapeError(fmt.Errorf("malformed prediction payload: %w", err))
	}

	if batch.Predictions == nil {
		return nil, errors.DataShapeError(fmt.Errorf("malformed prediction payload: missing predictions sequence"))
	}

	for i := range batch.Predictions {
		if err := validatePrediction(&batch.Predictions[i]); err != nil {
			return nil, errors.New(fmt.Errorf("prediction %d: %w", i, err)).
				Category(errors.CategoryDataShape).
				Component("detection").
				Context("operation", "parse-batch").
				Context("record_index", i).
				Build()
		}
	}

	return &batch, nil
}

// validatePrediction checks one record against the upstream contract.
// Bounding boxes may be empty and classification may be absent; everything
// that is present must be structurally sound.
func validatePrediction(p *Prediction) error {
	if p.ImagePath == "" {
		return fmt.Errorf("missing image_path")
	}

	for j := range p.BoundingBoxes {
		box := &p.BoundingBoxes[j]
		if len(box.Box) != 4 {
			return fmt.Errorf("bounding box %d: expected 4 coordinates, got %d", j, len(box.Box))
		}
		for _, v := range box.Box {
			if v < 0 || v > 1 {
				return fmt.Errorf("bounding box %d: coordinate %f outside [0,1]", j, v)
			}
		}
		if box.Confidence < 0 || box.Confidence > 1 {
			return fmt.Errorf("bounding box %d: confidence %f outside [0,1]", j, box.Confidence)
		}
	}

	if c := p.Classification; c != nil {
		if len(c.Classes) != len(c.Scores) {
			return fmt.Errorf("classification: %d classes but %d scores", len(c.Classes), len(c.Scores))
		}
		for k, score := range c.Scores {
			if score < 0 || score > 1 {
				return fmt.Errorf("classification score %d: %f outside [0,1]", k, score)
			}
		}
	}

	return nil
}

// IngestBatch turns a validated batch into the review working set.
//
// Records containing humans are dropped for privacy, records without any
// animal are dropped for lack of training value. Each surviving record
// gets a fresh unique ID and its triage decision: NeedsReview is true iff
// the top classification score is below the threshold, where a missing
// classification counts as score 0. The input batch is not mutated.
//
// The returned dropped count covers both filter rules; it feeds ingest
// metrics and the operator-facing summary.
func IngestBatch(batch *Batch, threshold float64) (items []*ReviewItem, dropped int) {
	if batch == nil {
		return nil, 0
	}

	items = make([]*ReviewItem, 0, len(batch.Predictions))
	for i := range batch.Predictions {
		p := batch.Predictions[i]
		if p.HasHuman || !p.HasAnimal {
			dropped++
			continue
		}

		items = append(items, &ReviewItem{
			Prediction:  p,
			ID:          uuid.New().String(),
			NeedsReview: p.TopScore() < threshold,
		})
	}

	return items, dropped
}
