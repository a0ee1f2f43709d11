// internal/api/v2/review.go
package api

import (
	"net/http"
	"sort"

	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/camtrap-go/internal/detection"
	"github.com/tphakala/camtrap-go/internal/observability/metrics"
	"github.com/tphakala/camtrap-go/internal/overlay"
	"github.com/tphakala/camtrap-go/internal/review"
)

// maxSuggestions limits how many alternative species are offered to the reviewer
const maxSuggestions = 3

// initReviewRoutes registers the sequential review endpoints
func (c *Controller) initReviewRoutes() {
	c.Group.GET("/review/current", c.CurrentReviewItem)
	c.Group.POST("/review/confirm", c.ConfirmReview)
	c.Group.POST("/review/skip", c.SkipReview)
	c.Group.GET("/review/stats", c.ReviewStats)
}

// SpeciesSuggestion is one candidate species offered to the reviewer
type SpeciesSuggestion struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ReviewItemResponse represents a review item in the API response
type ReviewItemResponse struct {
	ID            string               `json:"id"`
	ImagePath     string               `json:"image_path"`
	NeedsReview   bool                 `json:"needsReview"`
	Assessed      bool                 `json:"assessed"`
	Species       string               `json:"species"`
	Score         float64              `json:"score"`
	Suggestions   []SpeciesSuggestion  `json:"suggestions,omitempty"`
	Overlays      []overlay.RenderRect `json:"overlays"`
	UserSpecies   string               `json:"userSpecies,omitempty"`
	UserReasoning string               `json:"userReasoning,omitempty"`
	Remaining     int                  `json:"remaining"`
}

// ConfirmRequest carries the reviewer's species correction and reasoning
type ConfirmRequest struct {
	Species   string `json:"species"`
	Reasoning string `json:"reasoning"`
}

// StatsResponse represents the aggregate review statistics
type StatsResponse struct {
	BatchLoaded bool `json:"batchLoaded"`
	review.Stats
}

// CurrentReviewItem handles GET /api/v2/review/current
func (c *Controller) CurrentReviewItem(ctx echo.Context) error {
	item := c.Session.Current()
	if item == nil {
		return c.HandleError(ctx, review.ErrNoCurrentItem,
			"No prediction awaiting review", http.StatusNotFound)
	}

	return ctx.JSON(http.StatusOK, c.reviewItemResponse(item))
}

// ConfirmReview handles POST /api/v2/review/confirm
func (c *Controller) ConfirmReview(ctx echo.Context) error {
	req := &ConfirmRequest{}
	if err := ctx.Bind(req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}

	item, err := c.Session.Confirm(req.Species, req.Reasoning)
	if err != nil {
		if c.metrics != nil && c.metrics.Review != nil && !review.IsNoCurrentItem(err) {
			c.metrics.Review.RecordValidationError()
		}
		return c.HandleError(ctx, err, "Failed to confirm review", statusForError(err))
	}

	c.recordDecision(metrics.DecisionConfirmed)
	c.logAPIRequest(ctx, slog.LevelInfo, "Review confirmed",
		"item_id", item.ID,
		"species", item.UserSpecies,
	)

	return ctx.JSON(http.StatusOK, c.reviewItemResponse(item))
}

// SkipReview handles POST /api/v2/review/skip
func (c *Controller) SkipReview(ctx echo.Context) error {
	item, err := c.Session.Skip()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to skip review", statusForError(err))
	}

	c.recordDecision(metrics.DecisionSkipped)
	c.logAPIRequest(ctx, slog.LevelInfo, "Review skipped", "item_id", item.ID)

	return ctx.JSON(http.StatusOK, c.reviewItemResponse(item))
}

// ReviewStats handles GET /api/v2/review/stats
func (c *Controller) ReviewStats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, StatsResponse{
		BatchLoaded: c.Session.HasBatch(),
		Stats:       c.Session.Stats(),
	})
}

// reviewItemResponse builds the API representation of a review item
func (c *Controller) reviewItemResponse(item *detection.ReviewItem) *ReviewItemResponse {
	species, score := item.TopDisplayName()

	return &ReviewItemResponse{
		ID:            item.ID,
		ImagePath:     item.ImagePath,
		NeedsReview:   item.NeedsReview,
		Assessed:      item.Assessed,
		Species:       species,
		Score:         score,
		Suggestions:   topSuggestions(&item.Prediction, maxSuggestions),
		Overlays:      c.overlaysFor(item),
		UserSpecies:   item.UserSpecies,
		UserReasoning: item.UserReasoning,
		Remaining:     c.Session.RemainingCount(),
	}
}

// overlaysFor returns the rendered bounding box overlays for an item,
// cached per item ID since boxes never change after ingestion.
func (c *Controller) overlaysFor(item *detection.ReviewItem) []overlay.RenderRect {
	if cached, found := c.overlayCache.Get(item.ID); found {
		if rects, ok := cached.([]overlay.RenderRect); ok {
			return rects
		}
	}

	rects := overlay.BoxesFor(item)
	c.overlayCache.SetDefault(item.ID, rects)
	return rects
}

// recordDecision updates the review decision metrics
func (c *Controller) recordDecision(decision string) {
	if c.metrics != nil && c.metrics.Review != nil {
		c.metrics.Review.RecordDecision(decision, c.Session.RemainingCount())
	}
}

// topSuggestions returns up to n classification candidates ordered by
// descending score, labels mapped to their display names.
func topSuggestions(p *detection.Prediction, n int) []SpeciesSuggestion {
	if p.Classification == nil || len(p.Classification.Classes) == 0 {
		return nil
	}

	suggestions := make([]SpeciesSuggestion, 0, len(p.Classification.Classes))
	for i, class := range p.Classification.Classes {
		if i >= len(p.Classification.Scores) {
			break
		}
		suggestions = append(suggestions, SpeciesSuggestion{
			Label: detection.SpeciesDisplayName(class),
			Score: p.Classification.Scores[i],
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if len(suggestions) > n {
		suggestions = suggestions[:n]
	}
	return suggestions
}
