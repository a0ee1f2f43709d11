// Package analyzer is the client for the remote inference service. The
// service accepts a compressed camera-trap image archive and answers with
// the prediction batch defined in the detection package; its internals,
// training, and accuracy are opaque to this application.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/camtrap-go/internal/conf"
	"github.com/tphakala/camtrap-go/internal/detection"
	"github.com/tphakala/camtrap-go/internal/errors"
	"github.com/tphakala/camtrap-go/internal/httpclient"
	"github.com/tphakala/camtrap-go/internal/observability/metrics"
)

// uploadFieldName is the multipart form field the analyzer expects the
// archive under.
const uploadFieldName = "file"

// maxErrorBodyBytes caps how much of an error response body is read for
// diagnostics.
const maxErrorBodyBytes = 4096

// Client calls the remote analyze-zip endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *httpclient.Client
	logger   *slog.Logger
	metrics  *metrics.AnalyzerMetrics
}

// New creates an analyzer client from settings. A nil logger falls back to
// the default slog logger.
func New(settings *conf.AnalyzerSettings, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	hc := httpclient.New(&httpclient.Config{
		DefaultTimeout: settings.Timeout,
		// Archive analysis is slow; the analyzer may buffer the whole
		// archive before answering headers
		ResponseHeaderTimeout: settings.Timeout,
	})
	hc.SetBeforeRequestHook(func(req *http.Request) {
		logger.Debug("analyzer request", "method", req.Method, "host", req.URL.Host)
	})
	hc.SetAfterResponseHook(func(req *http.Request, resp *http.Response, err error) {
		if err != nil {
			logger.Debug("analyzer request failed", "host", req.URL.Host, "error", err)
			return
		}
		logger.Debug("analyzer response", "host", req.URL.Host, "status", resp.StatusCode)
	})

	return &Client{
		endpoint: settings.Endpoint,
		timeout:  settings.Timeout,
		http:     hc,
		logger:   logger,
	}
}

// SetMetrics attaches analyzer metrics. Call before first use.
func (c *Client) SetMetrics(m *metrics.AnalyzerMetrics) {
	c.metrics = m
}

// AnalyzeArchive uploads the archive at path and returns the parsed
// prediction batch. The file must be a .zip archive.
//
// Cancellation of the context aborts the upload; the caller's previous
// working set is untouched since no batch is returned.
func (c *Client) AnalyzeArchive(ctx context.Context, path string) (*detection.Batch, error) {
	if !IsArchive(path) {
		return nil, errors.Newf("unsupported archive %q: only .zip archives are accepted", filepath.Base(path)).
			Category(errors.CategoryValidation).
			Component("analyzer").
			Context("operation", "analyze-archive").
			Build()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(fmt.Errorf("failed to open archive: %w", err), path, 0)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			c.logger.Warn("failed to close archive", "error", closeErr)
		}
	}()

	return c.Analyze(ctx, filepath.Base(path), file)
}

// Analyze uploads archive content from a reader under the given file name
// and returns the parsed prediction batch.
func (c *Client) Analyze(ctx context.Context, name string, archive io.Reader) (*detection.Batch, error) {
	start := time.Now()

	batch, err := c.analyze(ctx, name, archive)

	if c.metrics != nil {
		c.metrics.RecordRequest(time.Since(start).Seconds(), err == nil)
	}

	if err != nil {
		return nil, err
	}

	c.logger.Info("archive analyzed",
		"archive", name,
		"predictions", len(batch.Predictions),
		"duration_ms", time.Since(start).Milliseconds())

	return batch, nil
}

func (c *Client) analyze(ctx context.Context, name string, archive io.Reader) (*detection.Batch, error) {
	// Stream the multipart body so large archives never have to fit in
	// memory. The writer goroutine's error surfaces through the pipe on
	// the request side.
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		part, err := form.CreateFormFile(uploadFieldName, name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, archive); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to create analyze request: %w", err)).
			Category(errors.CategoryAnalyzer).
			Component("analyzer").
			NetworkContext(c.endpoint, c.timeout).
			Build()
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		category := errors.CategoryNetwork
		if ctx.Err() != nil {
			category = errors.CategoryCancellation
		}
		return nil, errors.New(fmt.Errorf("analyze request failed: %w", err)).
			Category(category).
			Component("analyzer").
			NetworkContext(c.endpoint, c.timeout).
			Context("operation", "analyze-archive").
			Build()
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close analyzer response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, errors.Newf("analyzer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))).
			Category(errors.CategoryAnalyzer).
			Component("analyzer").
			NetworkContext(c.endpoint, c.timeout).
			Context("status_code", resp.StatusCode).
			Build()
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NetworkError(fmt.Errorf("failed to read analyzer response: %w", err), c.endpoint, c.timeout)
	}

	// Schema violations surface as data-shape errors, not a crash; the
	// caller keeps its previous working set.
	return detection.ParseBatch(payload)
}

// Close releases the underlying connection pool.
func (c *Client) Close() {
	c.http.Close()
}

// IsArchive reports whether the file name looks like a supported archive.
func IsArchive(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zip")
}
