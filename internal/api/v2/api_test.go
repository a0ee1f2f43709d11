// api_test.go: Package api provides tests for API v2 endpoints.

package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camtrap-go/internal/conf"
	"github.com/tphakala/camtrap-go/internal/observability"
	"github.com/tphakala/camtrap-go/internal/review"
)

// setupTestEnvironment builds an echo instance and a controller backed by
// an empty review session.
func setupTestEnvironment(t *testing.T) (*echo.Echo, *Controller) {
	t.Helper()

	settings := &conf.Settings{
		Version: "test",
		Review:  conf.ReviewSettings{ConfidenceThreshold: 0.7},
		WebServer: conf.WebServerSettings{
			Enabled: true,
			Port:    "8080",
			Log:     conf.LogConfig{Path: filepath.Join(t.TempDir(), "web.log")},
		},
	}

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	e := echo.New()
	session := review.NewSession(nil)
	controller, err := NewWithOptions(e, settings, session, nil,
		log.New(io.Discard, "", 0), metrics, false)
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)

	return e, controller
}

// testBatchPayload is a mixed batch: one human record to drop, one
// high-confidence record, two low-confidence records.
const testBatchPayload = `{
	"predictions": [
		{"image_path": "images/human.jpg", "has_human": true, "has_animal": true, "bounding_boxes": []},
		{"image_path": "images/fox.jpg", "has_human": false, "has_animal": true,
			"bounding_boxes": [{"category": "animal", "confidence": 0.95, "bbox": [0.1, 0.2, 0.3, 0.4]}],
			"classifications": {"classes": ["mammalia;vulpes vulpes"], "scores": [0.92]}},
		{"image_path": "images/maybe-badger.jpg", "has_human": false, "has_animal": true,
			"bounding_boxes": [{"category": "animal", "confidence": 0.6, "bbox": [0.2, 0.2, 0.9, 0.9]}],
			"classifications": {"classes": ["mammalia;meles meles", "mammalia;vulpes vulpes"], "scores": [0.41, 0.33]}},
		{"image_path": "images/blur.jpg", "has_human": false, "has_animal": true, "bounding_boxes": []}
	]
}`

// ingestTestBatch loads the shared test batch through the handler.
func ingestTestBatch(t *testing.T, e *echo.Echo, controller *Controller) IngestSummary {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v2/batches", strings.NewReader(testBatchPayload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.CreateBatch(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var summary IngestSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	return summary
}

func TestHealthCheck(t *testing.T) {
	e, controller := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/health", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "test", response["version"])
	assert.Equal(t, false, response["batch_loaded"])
}

func TestCreateBatch(t *testing.T) {
	e, controller := setupTestEnvironment(t)

	summary := ingestTestBatch(t, e, controller)
	assert.Equal(t, IngestSummary{
		TotalRecords: 4,
		AutoAccepted: 1,
		NeedsReview:  2,
		Dropped:      1,
	}, summary)

	assert.True(t, controller.Session.HasBatch())
}

func TestCreateBatchMalformed(t *testing.T) {
	e, controller := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/batches", strings.NewReader(`{"predictions": [{"image_path": ""}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.CreateBatch(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.NotEmpty(t, errResp.CorrelationID)

	// A rejected batch must not disturb the session.
	assert.False(t, controller.Session.HasBatch())
}

func TestCreateBatchReplacesPrevious(t *testing.T) {
	e, controller := setupTestEnvironment(t)

	ingestTestBatch(t, e, controller)
	first := controller.Session.Current()
	require.NotNil(t, first)

	// Re-ingesting swaps the whole working set, pending items included.
	ingestTestBatch(t, e, controller)
	second := controller.Session.Current()
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID, "items of the old batch do not survive")
}

func TestCurrentReviewItem(t *testing.T) {
	e, controller := setupTestEnvironment(t)
	ingestTestBatch(t, e, controller)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/review/current", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.CurrentReviewItem(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var item ReviewItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))

	// FIFO: first low-confidence record of the batch.
	assert.Equal(t, "images/maybe-badger.jpg", item.ImagePath)
	assert.Equal(t, "meles meles", item.Species)
	assert.InDelta(t, 0.41, item.Score, 1e-9)
	assert.True(t, item.NeedsReview)
	assert.Equal(t, 2, item.Remaining)

	require.Len(t, item.Suggestions, 2)
	assert.Equal(t, "meles meles", item.Suggestions[0].Label)
	assert.Equal(t, "vulpes vulpes", item.Suggestions[1].Label)

	// Overlay is clamped: 0.2 + 0.9 overflows the unit square.
	require.Len(t, item.Overlays, 1)
	assert.InDelta(t, 0.8, item.Overlays[0].Width, 1e-9)
	assert.InDelta(t, 0.8, item.Overlays[0].Height, 1e-9)
	assert.Equal(t, "rgb(34, 197, 94)", item.Overlays[0].Color)
}

func TestCurrentReviewItemEmptyQueue(t *testing.T) {
	e, controller := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/review/current", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.CurrentReviewItem(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmReview(t *testing.T) {
	e, controller := setupTestEnvironment(t)
	ingestTestBatch(t, e, controller)

	body := `{"species": "Dachs", "reasoning": "weisse Kopfstreifen deutlich sichtbar"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v2/review/confirm", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.ConfirmReview(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var item ReviewItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.True(t, item.Assessed)
	assert.Equal(t, "Dachs", item.UserSpecies)
	assert.Equal(t, "weisse Kopfstreifen deutlich sichtbar", item.UserReasoning)
	assert.Equal(t, 1, item.Remaining)
}

func TestConfirmReviewValidation(t *testing.T) {
	e, controller := setupTestEnvironment(t)
	ingestTestBatch(t, e, controller)

	body := `{"species": "", "reasoning": "missing species"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v2/review/confirm", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.ConfirmReview(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The item is still pending.
	current := controller.Session.Current()
	require.NotNil(t, current)
	assert.False(t, current.Assessed)
}

func TestConfirmReviewEmptyQueue(t *testing.T) {
	e, controller := setupTestEnvironment(t)

	body := `{"species": "Fuchs", "reasoning": "buschiger Schwanz"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v2/review/confirm", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.ConfirmReview(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSkipReview(t *testing.T) {
	e, controller := setupTestEnvironment(t)
	ingestTestBatch(t, e, controller)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/review/skip", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.SkipReview(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var item ReviewItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.True(t, item.Assessed)
	assert.Empty(t, item.UserSpecies)
	assert.Equal(t, 1, item.Remaining)
}

func TestReviewStats(t *testing.T) {
	e, controller := setupTestEnvironment(t)

	fetchStats := func() StatsResponse {
		req := httptest.NewRequest(http.MethodGet, "/api/v2/review/stats", http.NoBody)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, controller.ReviewStats(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var stats StatsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		return stats
	}

	// Before any batch.
	stats := fetchStats()
	assert.False(t, stats.BatchLoaded)
	assert.Zero(t, stats.Total)

	ingestTestBatch(t, e, controller)

	stats = fetchStats()
	assert.True(t, stats.BatchLoaded)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.AutoAccepted)
	assert.Equal(t, 2, stats.PendingReview)
	assert.Zero(t, stats.Resolved)

	// Stats follow every decision.
	_, err := controller.Session.Skip()
	require.NoError(t, err)

	stats = fetchStats()
	assert.Equal(t, 1, stats.PendingReview)
	assert.Equal(t, 1, stats.Resolved)
}

func TestAcceptedResults(t *testing.T) {
	e, controller := setupTestEnvironment(t)
	ingestTestBatch(t, e, controller)

	_, err := controller.Session.Confirm("Dachs", "weisse Kopfstreifen")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/results/accepted", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.AcceptedResults(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response AcceptedResultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	require.Len(t, response.AutoAccepted, 1)
	assert.Equal(t, "images/fox.jpg", response.AutoAccepted[0].ImagePath)
	assert.Equal(t, "vulpes vulpes", response.AutoAccepted[0].Species)

	require.Len(t, response.Reviewed, 1)
	assert.Equal(t, "Dachs", response.Reviewed[0].UserSpecies)

	assert.Equal(t, 2, response.Total)
}

func TestAnalyzeBatchMissingFile(t *testing.T) {
	e, controller := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/batches/analyze", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.AnalyzeBatch(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestConfiguredLogPath verifies the API log goes to the configured file
// instead of the default logs/ directory.
func TestConfiguredLogPath(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "api", "web.log")

	settings := &conf.Settings{
		Version: "test",
		Review:  conf.ReviewSettings{ConfidenceThreshold: 0.7},
		WebServer: conf.WebServerSettings{
			Enabled: true,
			Port:    "8080",
			Log:     conf.LogConfig{Path: logPath},
		},
	}

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	e := echo.New()
	controller, err := NewWithOptions(e, settings, review.NewSession(nil), nil,
		log.New(io.Discard, "", 0), metrics, false)
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)

	// Ingesting a batch writes a structured log record.
	ingestTestBatch(t, e, controller)

	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestStatusForError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusInternalServerError, statusForError(assert.AnError))
}

func TestRoutesRegistered(t *testing.T) {
	settings := &conf.Settings{
		Review: conf.ReviewSettings{ConfidenceThreshold: 0.7},
		WebServer: conf.WebServerSettings{
			Enabled: true,
			Port:    "8080",
			Log:     conf.LogConfig{Path: filepath.Join(t.TempDir(), "web.log")},
		},
	}

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	e := echo.New()
	controller, err := NewWithOptions(e, settings, review.NewSession(nil), nil,
		log.New(io.Discard, "", 0), metrics, true)
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)

	registered := make(map[string]bool)
	for _, route := range e.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /api/v2/health",
		"POST /api/v2/batches",
		"POST /api/v2/batches/analyze",
		"GET /api/v2/review/current",
		"POST /api/v2/review/confirm",
		"POST /api/v2/review/skip",
		"GET /api/v2/review/stats",
		"GET /api/v2/results/accepted",
	} {
		assert.True(t, registered[want], "route %s not registered", want)
	}
}

// TestIngestThroughServer exercises the full middleware chain once.
func TestIngestThroughServer(t *testing.T) {
	settings := &conf.Settings{
		Review: conf.ReviewSettings{ConfidenceThreshold: 0.7},
		WebServer: conf.WebServerSettings{
			Enabled: true,
			Port:    "8080",
			Log:     conf.LogConfig{Path: filepath.Join(t.TempDir(), "web.log")},
		},
	}

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	e := echo.New()
	controller, err := NewWithOptions(e, settings, review.NewSession(nil), nil,
		log.New(io.Discard, "", 0), metrics, true)
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/api/v2/batches", echo.MIMEApplicationJSON,
		strings.NewReader(testBatchPayload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotNil(t, controller.Session.Current())
}
