// Package review implements the sequential review workflow over a batch of
// triaged detections: a FIFO queue of low-confidence items, annotation
// capture for reviewer feedback, and live aggregate statistics.
//
// The Session is the single owner of the working set. The pending queue is
// a derived view (NeedsReview && !Assessed, in ingestion order) recomputed
// from item flags rather than a maintained cursor, so removing an item can
// never desynchronize an index. All operations go through one mutex; the
// product model is a single reviewer, but the HTTP surface makes
// concurrent calls possible.
package review

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/tphakala/camtrap-go/internal/detection"
	"github.com/tphakala/camtrap-go/internal/errors"
)

// ErrNoCurrentItem signals that confirm or skip was called with an
// exhausted queue. It is a recoverable no-op condition, not a failure:
// the caller should stop presenting a review form.
var ErrNoCurrentItem = errors.NewStd("no item awaiting review")

// Stats are the live aggregate counts over the full working set, not just
// the pending queue. They always satisfy
// AutoAccepted + PendingReview + resolved-from-review == Total.
type Stats struct {
	Total         int `json:"total"`         // working set size
	AutoAccepted  int `json:"autoAccepted"`  // high-confidence, no review needed
	PendingReview int `json:"pendingReview"` // awaiting reviewer decision
	Resolved      int `json:"resolved"`      // assessed via confirm or skip
}

// Session holds one review session's working set.
//
// The working set is replaced atomically on ingestion: the old set stays
// fully valid until a new batch has been parsed and validated, then the
// whole set is swapped at once. A failed or cancelled ingestion therefore
// never leaves the session half-updated.
//
// The triage threshold is applied by ingestion before items reach the
// session; NeedsReview is immutable here. Changing the threshold in the
// configuration only affects subsequently ingested batches, a deliberate
// behavior so items cannot drift in or out of reach mid-review.
type Session struct {
	mu       sync.Mutex
	items    []*detection.ReviewItem
	hasBatch bool
	logger   *slog.Logger
}

// NewSession creates an empty review session. A nil logger falls back to
// the default slog logger.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{logger: logger}
}

// Replace installs a freshly ingested working set, discarding all items of
// the previous batch including unresolved ones. The swap is all-or-nothing;
// callers must only call Replace with a fully parsed and validated batch.
func (s *Session) Replace(items []*detection.ReviewItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.hasBatch = true

	s.logger.Info("review working set replaced",
		"total", len(items),
		"pending", countPending(items))
}

// Clear drops the working set and returns the session to its initial
// "no batch loaded" state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.hasBatch = false
}

// HasBatch reports whether a batch has been ingested. It lets callers
// distinguish "no batch loaded yet" from "queue exhausted": both have an
// empty pending queue, but only the latter has a working set.
func (s *Session) HasBatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasBatch
}

// Current returns a snapshot of the item awaiting review, or nil when the
// queue is exhausted or no batch is loaded. The earliest unassessed
// reviewable item in ingestion order is always the current one.
func (s *Session) Current() *detection.ReviewItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.currentLocked()
	if item == nil {
		return nil
	}
	snapshot := *item
	return &snapshot
}

// currentLocked returns the live pointer to pending[0]. Caller must hold mu.
func (s *Session) currentLocked() *detection.ReviewItem {
	for _, item := range s.items {
		if item.NeedsReview && !item.Assessed {
			return item
		}
	}
	return nil
}

// Confirm records the reviewer's species identification and reasoning
// against the current item and marks it assessed. The resolved item leaves
// the pending queue and the next one in ingestion order becomes current.
//
// Blank species or reasoning fails validation and leaves the current item
// unassessed so the reviewer can correct and retry. A snapshot of the
// resolved item is returned on success.
func (s *Session) Confirm(species, reasoning string) (*detection.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.currentLocked()
	if item == nil {
		return nil, noCurrentItemError()
	}

	if isBlank(species) || isBlank(reasoning) {
		return nil, errors.Newf("species and reasoning are required").
			Category(errors.CategoryValidation).
			Component("review").
			Context("operation", "confirm").
			Build()
	}

	item.UserSpecies = species
	item.UserReasoning = reasoning
	item.Assessed = true

	s.logger.Info("detection confirmed",
		"id", item.ID,
		"species", species,
		"remaining", countPending(s.items))

	snapshot := *item
	return &snapshot, nil
}

// Skip marks the current item assessed without capturing feedback. The
// item permanently leaves the pending queue but remains in the working set
// for aggregation.
func (s *Session) Skip() (*detection.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.currentLocked()
	if item == nil {
		return nil, noCurrentItemError()
	}

	item.Assessed = true

	s.logger.Info("detection skipped",
		"id", item.ID,
		"remaining", countPending(s.items))

	snapshot := *item
	return &snapshot, nil
}

// RemainingCount returns the number of items still awaiting review.
func (s *Session) RemainingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countPending(s.items)
}

// Stats recomputes the aggregate counts from current item state. They are
// derived on demand and never cached across an ingestion boundary.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Total: len(s.items)}
	for _, item := range s.items {
		switch {
		case !item.NeedsReview:
			stats.AutoAccepted++
		case item.Assessed:
			stats.Resolved++
		default:
			stats.PendingReview++
		}
	}
	return stats
}

// Accepted returns snapshots of the auto-accepted items in ingestion
// order, for the high-confidence results gallery.
func (s *Session) Accepted() []*detection.ReviewItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := make([]*detection.ReviewItem, 0)
	for _, item := range s.items {
		if !item.NeedsReview {
			snapshot := *item
			accepted = append(accepted, &snapshot)
		}
	}
	return accepted
}

// Assessed returns snapshots of all assessed items, confirmed and skipped
// alike. Confirmed items carry the reviewer's feedback for retraining.
func (s *Session) Assessed() []*detection.ReviewItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	assessed := make([]*detection.ReviewItem, 0)
	for _, item := range s.items {
		if item.Assessed {
			snapshot := *item
			assessed = append(assessed, &snapshot)
		}
	}
	return assessed
}

// IsNoCurrentItem reports whether err signals an exhausted review queue.
func IsNoCurrentItem(err error) bool {
	return errors.Is(err, ErrNoCurrentItem)
}

func noCurrentItemError() error {
	return errors.New(ErrNoCurrentItem).
		Category(errors.CategoryNotFound).
		Component("review").
		Build()
}

func countPending(items []*detection.ReviewItem) int {
	pending := 0
	for _, item := range items {
		if item.NeedsReview && !item.Assessed {
			pending++
		}
	}
	return pending
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
