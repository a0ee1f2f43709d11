// internal/api/v2/batches.go
package api

import (
	"io"
	"net/http"

	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/camtrap-go/internal/analyzer"
	"github.com/tphakala/camtrap-go/internal/detection"
	"github.com/tphakala/camtrap-go/internal/errors"
)

// initBatchRoutes registers the batch ingestion endpoints
func (c *Controller) initBatchRoutes() {
	c.Group.POST("/batches", c.CreateBatch)
	c.Group.POST("/batches/analyze", c.AnalyzeBatch)
}

// IngestSummary reports what happened to a batch during ingestion
type IngestSummary struct {
	TotalRecords int `json:"totalRecords"` // records in the submitted batch
	AutoAccepted int `json:"autoAccepted"` // admitted above the confidence threshold
	NeedsReview  int `json:"needsReview"`  // admitted below the confidence threshold
	Dropped      int `json:"dropped"`      // filtered out before partitioning
}

// CreateBatch handles POST /api/v2/batches. The submitted batch replaces any
// previously loaded one in full; a parse failure leaves the session untouched.
func (c *Controller) CreateBatch(ctx echo.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read request body", http.StatusBadRequest)
	}

	batch, err := detection.ParseBatch(body)
	if err != nil {
		if c.metrics != nil && c.metrics.Review != nil {
			c.metrics.Review.RecordBatchIngestError()
		}
		return c.HandleError(ctx, err, "Failed to parse prediction batch", statusForError(err))
	}

	summary := c.loadBatch(ctx, batch)
	return ctx.JSON(http.StatusCreated, summary)
}

// AnalyzeBatch handles POST /api/v2/batches/analyze. The uploaded image
// archive is forwarded to the remote analyzer and the returned predictions
// are ingested as a new batch.
func (c *Controller) AnalyzeBatch(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return c.HandleError(ctx,
			errors.ValidationError("multipart field 'file' is required"),
			"Missing archive upload", http.StatusBadRequest)
	}

	if !analyzer.IsArchive(fileHeader.Filename) {
		return c.HandleError(ctx,
			errors.ValidationError("uploaded file must be a zip archive"),
			"Unsupported archive format", http.StatusBadRequest)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to open uploaded archive", http.StatusBadRequest)
	}
	defer func() {
		if err := src.Close(); err != nil {
			c.Debug("Failed to close uploaded archive: %v", err)
		}
	}()

	batch, err := c.Analyzer.Analyze(ctx.Request().Context(), fileHeader.Filename, src)
	if err != nil {
		if c.metrics != nil && c.metrics.Review != nil {
			c.metrics.Review.RecordBatchIngestError()
		}
		return c.HandleError(ctx, err, "Archive analysis failed", statusForError(err))
	}

	summary := c.loadBatch(ctx, batch)
	return ctx.JSON(http.StatusCreated, summary)
}

// loadBatch partitions a parsed batch, atomically replaces the review
// session contents and invalidates the overlay cache.
func (c *Controller) loadBatch(ctx echo.Context, batch *detection.Batch) IngestSummary {
	items, dropped := detection.IngestBatch(batch, c.Settings.Review.ConfidenceThreshold)

	needsReview := 0
	for _, item := range items {
		if item.NeedsReview {
			needsReview++
		}
	}

	c.Session.Replace(items)
	c.overlayCache.Flush()

	summary := IngestSummary{
		TotalRecords: len(batch.Predictions),
		AutoAccepted: len(items) - needsReview,
		NeedsReview:  needsReview,
		Dropped:      dropped,
	}

	if c.metrics != nil && c.metrics.Review != nil {
		c.metrics.Review.RecordBatchIngested(summary.AutoAccepted, summary.NeedsReview, summary.Dropped)
	}

	c.logAPIRequest(ctx, slog.LevelInfo, "Prediction batch loaded",
		"total_records", summary.TotalRecords,
		"auto_accepted", summary.AutoAccepted,
		"needs_review", summary.NeedsReview,
		"dropped", summary.Dropped,
	)

	return summary
}
