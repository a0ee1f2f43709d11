// internal/api/v2/results.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/camtrap-go/internal/detection"
	"github.com/tphakala/camtrap-go/internal/overlay"
)

// initResultsRoutes registers the results gallery endpoints
func (c *Controller) initResultsRoutes() {
	c.Group.GET("/results/accepted", c.AcceptedResults)
}

// GalleryItem represents one settled prediction in the results gallery
type GalleryItem struct {
	ID            string               `json:"id"`
	ImagePath     string               `json:"image_path"`
	Species       string               `json:"species"`
	Score         float64              `json:"score"`
	Overlays      []overlay.RenderRect `json:"overlays"`
	UserSpecies   string               `json:"userSpecies,omitempty"`
	UserReasoning string               `json:"userReasoning,omitempty"`
}

// AcceptedResultsResponse groups the gallery by how items were settled
type AcceptedResultsResponse struct {
	AutoAccepted []GalleryItem `json:"autoAccepted"`
	Reviewed     []GalleryItem `json:"reviewed"`
	Total        int           `json:"total"`
}

// AcceptedResults handles GET /api/v2/results/accepted. It returns the
// high-confidence predictions together with the human-assessed ones.
func (c *Controller) AcceptedResults(ctx echo.Context) error {
	accepted := c.Session.Accepted()
	assessed := c.Session.Assessed()

	response := AcceptedResultsResponse{
		AutoAccepted: c.galleryItems(accepted),
		Reviewed:     c.galleryItems(assessed),
		Total:        len(accepted) + len(assessed),
	}

	return ctx.JSON(http.StatusOK, response)
}

// galleryItems converts review items to their gallery representation
func (c *Controller) galleryItems(items []*detection.ReviewItem) []GalleryItem {
	gallery := make([]GalleryItem, 0, len(items))
	for _, item := range items {
		species, score := item.TopDisplayName()
		gallery = append(gallery, GalleryItem{
			ID:            item.ID,
			ImagePath:     item.ImagePath,
			Species:       species,
			Score:         score,
			Overlays:      c.overlaysFor(item),
			UserSpecies:   item.UserSpecies,
			UserReasoning: item.UserReasoning,
		})
	}
	return gallery
}
