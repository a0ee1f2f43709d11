package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camtrap-go/internal/detection"
)

func boxed(category string, confidence float64, coords ...float64) detection.Prediction {
	return detection.Prediction{
		ImagePath: "test.jpg",
		HasAnimal: true,
		BoundingBoxes: []detection.BoundingBox{
			{Category: category, Confidence: confidence, Box: coords},
		},
	}
}

func TestBoxesForPrediction(t *testing.T) {
	t.Parallel()

	t.Run("box inside the unit square passes through", func(t *testing.T) {
		t.Parallel()

		p := boxed("animal", 0.9, 0.1, 0.2, 0.3, 0.4)

		rects := BoxesForPrediction(&p)
		require.Len(t, rects, 1)
		assert.InDelta(t, 0.1, rects[0].Left, 1e-9)
		assert.InDelta(t, 0.2, rects[0].Top, 1e-9)
		assert.InDelta(t, 0.3, rects[0].Width, 1e-9)
		assert.InDelta(t, 0.4, rects[0].Height, 1e-9)
		assert.Equal(t, ColorAnimal, rects[0].Color)
		assert.Equal(t, "animal", rects[0].Label)
		assert.InDelta(t, 0.9, rects[0].Confidence, 1e-9)
	})

	t.Run("overflowing box is clamped to the unit square", func(t *testing.T) {
		t.Parallel()

		// x+w = 0.9, y+h = 1.1: height clamps to 1 - 0.2 = 0.8
		p := boxed("animal", 0.8, 0.1, 0.2, 0.8, 0.9)

		rects := BoxesForPrediction(&p)
		require.Len(t, rects, 1)
		assert.InDelta(t, 0.8, rects[0].Width, 1e-9)
		assert.InDelta(t, 0.8, rects[0].Height, 1e-9)
	})

	t.Run("box overflowing both dimensions keeps its clamped sliver", func(t *testing.T) {
		t.Parallel()

		// x+w = 1.4, y+h = 1.4: the visible 0.1 x 0.1 corner is rendered,
		// not dropped
		p := boxed("animal", 0.7, 0.9, 0.9, 0.5, 0.5)

		rects := BoxesForPrediction(&p)
		require.Len(t, rects, 1)
		assert.InDelta(t, 0.9, rects[0].Left, 1e-9)
		assert.InDelta(t, 0.9, rects[0].Top, 1e-9)
		assert.InDelta(t, 0.1, rects[0].Width, 1e-9)
		assert.InDelta(t, 0.1, rects[0].Height, 1e-9)
	})

	t.Run("box starting at the far edge is omitted", func(t *testing.T) {
		t.Parallel()

		p := boxed("animal", 0.5, 1.0, 1.0, 0.5, 0.5)

		assert.Empty(t, BoxesForPrediction(&p))
	})

	t.Run("zero area box is omitted", func(t *testing.T) {
		t.Parallel()

		p := boxed("animal", 0.5, 0.3, 0.3, 0.0, 0.4)

		assert.Empty(t, BoxesForPrediction(&p))
	})

	t.Run("malformed coordinate count is omitted", func(t *testing.T) {
		t.Parallel()

		p := boxed("animal", 0.5, 0.1, 0.2, 0.3)

		assert.Empty(t, BoxesForPrediction(&p))
	})

	t.Run("non-animal categories get the alert color", func(t *testing.T) {
		t.Parallel()

		p := detection.Prediction{
			BoundingBoxes: []detection.BoundingBox{
				{Category: "animal", Confidence: 0.9, Box: []float64{0.0, 0.0, 0.2, 0.2}},
				{Category: "person", Confidence: 0.8, Box: []float64{0.3, 0.3, 0.2, 0.2}},
				{Category: "vehicle", Confidence: 0.7, Box: []float64{0.6, 0.6, 0.2, 0.2}},
			},
		}

		rects := BoxesForPrediction(&p)
		require.Len(t, rects, 3)
		assert.Equal(t, ColorAnimal, rects[0].Color)
		assert.Equal(t, ColorAlert, rects[1].Color)
		assert.Equal(t, ColorAlert, rects[2].Color)
	})

	t.Run("nil prediction", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, BoxesForPrediction(nil))
	})

	t.Run("mapping is deterministic and does not mutate the record", func(t *testing.T) {
		t.Parallel()

		p := boxed("animal", 0.8, 0.1, 0.2, 0.8, 0.9)

		first := BoxesForPrediction(&p)
		second := BoxesForPrediction(&p)
		assert.Equal(t, first, second)
		assert.Equal(t, []float64{0.1, 0.2, 0.8, 0.9}, p.BoundingBoxes[0].Box)
	})
}

func TestBoxesFor(t *testing.T) {
	t.Parallel()

	t.Run("nil item", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, BoxesFor(nil))
	})

	t.Run("item boxes are mapped", func(t *testing.T) {
		t.Parallel()

		item := &detection.ReviewItem{
			Prediction: boxed("animal", 0.9, 0.25, 0.25, 0.5, 0.5),
			ID:         "a",
		}

		rects := BoxesFor(item)
		require.Len(t, rects, 1)
		assert.InDelta(t, 0.5, rects[0].Width, 1e-9)
	})
}

func TestCategoryColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ColorAnimal, CategoryColor("animal"))
	assert.Equal(t, ColorAlert, CategoryColor("person"))
	assert.Equal(t, ColorAlert, CategoryColor(""))
	assert.Equal(t, ColorAlert, CategoryColor("ANIMAL"), "category match is case sensitive")
}
