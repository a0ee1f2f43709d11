// Package detection provides domain models for camera-trap detection
// processing. These models mirror the payload produced by the remote
// inference service and are independent of any transport or rendering
// concern.
//
// A Prediction is read-only upstream input: one image's full detection
// result. A ReviewItem wraps a Prediction with the review state owned by
// this application (identity, triage decision, assessment). ReviewItems
// live for the duration of one review session and are discarded wholesale
// when a new batch is ingested.
package detection

// BoundingBox represents one detected subject region within an image.
// Coordinates are normalized: x and y are the top-left corner, w and h the
// width and height, all expressed as fractions of the image dimensions.
// A box is only meaningful if w > 0 and h > 0; boxes that clamp to zero
// area are dropped at render time, never mutated in the record.
type BoundingBox struct {
	Category   string    `json:"category"`   // detector class, e.g. "animal" or "person"
	Confidence float64   `json:"confidence"` // detector confidence in [0,1]
	Box        []float64 `json:"bbox"`       // [x, y, w, h], normalized to [0,1]
}

// X returns the normalized left edge of the box.
func (b *BoundingBox) X() float64 { return b.Box[0] }

// Y returns the normalized top edge of the box.
func (b *BoundingBox) Y() float64 { return b.Box[1] }

// Width returns the normalized width of the box.
func (b *BoundingBox) Width() float64 { return b.Box[2] }

// Height returns the normalized height of the box.
func (b *BoundingBox) Height() float64 { return b.Box[3] }

// Classification holds the model's species ranking for one image.
// Classes and Scores are parallel sequences ordered best first; index 0 is
// the model's top guess. A class label may encode a taxonomic path with
// segments joined by ";", in which case only the last segment is the
// display name (see SpeciesDisplayName).
type Classification struct {
	Classes []string  `json:"classes"`
	Scores  []float64 `json:"scores"`
}

// Top returns the model's best class label and score. ok is false when the
// classification carries no entries.
func (c *Classification) Top() (label string, score float64, ok bool) {
	if c == nil || len(c.Scores) == 0 || len(c.Classes) == 0 {
		return "", 0, false
	}
	return c.Classes[0], c.Scores[0], true
}

// Prediction is one image's full detection result as returned by the
// inference service. It is treated as read-only input; review state lives
// on ReviewItem.
type Prediction struct {
	ImagePath      string          `json:"image_path"`
	HasHuman       bool            `json:"has_human"`
	HasAnimal      bool            `json:"has_animal"`
	BoundingBoxes  []BoundingBox   `json:"bounding_boxes"`
	Classification *Classification `json:"classifications,omitempty"`
}

// TopScore returns the score of the model's best species guess, or 0 when
// the prediction carries no classification at all. An item with top score
// 0 always needs review.
func (p *Prediction) TopScore() float64 {
	_, score, ok := p.Classification.Top()
	if !ok {
		return 0
	}
	return score
}

// Batch is the upstream payload: the detection results for one analyzed
// image archive.
type Batch struct {
	Predictions []Prediction `json:"predictions"`
}

// ReviewItem is a Prediction extended with review state.
//
// Invariants:
//   - ID is assigned once at ingestion and never reused or mutated.
//   - NeedsReview is computed once at ingestion from the top classification
//     score against the configured threshold and is immutable thereafter.
//     Review-need does not change as items are assessed, and a threshold
//     change mid-session only affects subsequently ingested batches.
//   - Assessed starts false and transitions to true exactly once, either
//     via confirm (with UserSpecies/UserReasoning set) or via skip (fields
//     left empty). It never reverts.
//
// ReviewItem state transitions are mediated by the review.Session; other
// packages treat items as read-only.
type ReviewItem struct {
	Prediction

	ID            string `json:"id"`
	NeedsReview   bool   `json:"needsReview"`
	Assessed      bool   `json:"assessed"`
	UserSpecies   string `json:"userSpecies,omitempty"`
	UserReasoning string `json:"userReasoning,omitempty"`
}
