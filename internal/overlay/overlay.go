// Package overlay turns a detection's normalized bounding boxes into
// renderable screen-space rectangles with label metadata. The mapping is a
// pure function: no state, no side effects, identical output for identical
// input, so the same rectangles can back both the primary review view and
// the summary gallery.
package overlay

import (
	"github.com/tphakala/camtrap-go/internal/detection"
)

// Box colors as CSS color strings. Anything that is not an animal is
// rendered in the alert color; unknown detector categories fall back to it
// as well, the mapping is total over category strings.
const (
	ColorAnimal = "rgb(34, 197, 94)"
	ColorAlert  = "rgb(239, 68, 68)"
)

// CategoryAnimal is the detector class rendered in the positive color.
const CategoryAnimal = "animal"

// RenderRect is one renderable bounding box in fractional screen
// coordinates. Left, Top, Width and Height are in [0,1] and are scaled by
// the caller to the pixel dimensions of the rendered image; the mapper
// never assumes a concrete resolution.
type RenderRect struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Color      string  `json:"color"`
	Label      string  `json:"label"`      // detector category for the box badge
	Confidence float64 `json:"confidence"` // detector confidence in [0,1]
}

// BoxesFor maps an item's bounding boxes to renderable rectangles.
//
// Each box is clamped to the unit square: xMax = min(1, x+w) and
// yMax = min(1, y+h). Boxes whose clamped width or height is not positive
// degenerate to zero area and are omitted from the output rather than
// rendered; the record itself is never mutated.
func BoxesFor(item *detection.ReviewItem) []RenderRect {
	if item == nil {
		return nil
	}
	return mapBoxes(item.BoundingBoxes)
}

// BoxesForPrediction is BoxesFor over a raw prediction, used before a
// record enters the review working set.
func BoxesForPrediction(p *detection.Prediction) []RenderRect {
	if p == nil {
		return nil
	}
	return mapBoxes(p.BoundingBoxes)
}

func mapBoxes(boxes []detection.BoundingBox) []RenderRect {
	rects := make([]RenderRect, 0, len(boxes))
	for i := range boxes {
		box := &boxes[i]
		if rect, ok := mapBox(box); ok {
			rects = append(rects, rect)
		}
	}
	return rects
}

// mapBox clamps one box to the unit square. ok is false when the box has
// no renderable area left after clamping.
func mapBox(box *detection.BoundingBox) (RenderRect, bool) {
	if len(box.Box) != 4 {
		return RenderRect{}, false
	}
	x, y := box.X(), box.Y()

	xMax := min(1, x+box.Width())
	yMax := min(1, y+box.Height())
	width := max(0, xMax-x)
	height := max(0, yMax-y)

	if width <= 0 || height <= 0 {
		return RenderRect{}, false
	}

	return RenderRect{
		Left:       x,
		Top:        y,
		Width:      width,
		Height:     height,
		Color:      CategoryColor(box.Category),
		Label:      box.Category,
		Confidence: box.Confidence,
	}, true
}

// CategoryColor returns the render color for a detector category. Total
// over category strings: anything that is not "animal" gets the alert
// color, never an error.
func CategoryColor(category string) string {
	if category == CategoryAnimal {
		return ColorAnimal
	}
	return ColorAlert
}
