package review

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camtrap-go/internal/detection"
	"github.com/tphakala/camtrap-go/internal/errors"
)

// newItem builds a review item with the given triage decision.
func newItem(id string, needsReview bool) *detection.ReviewItem {
	return &detection.ReviewItem{
		Prediction: detection.Prediction{
			ImagePath: id + ".jpg",
			HasAnimal: true,
		},
		ID:          id,
		NeedsReview: needsReview,
	}
}

// assertStatsInvariant checks the aggregate identity that must hold after
// every operation.
func assertStatsInvariant(t *testing.T, s *Session) {
	t.Helper()
	stats := s.Stats()
	assert.Equal(t, stats.Total, stats.AutoAccepted+stats.PendingReview+stats.Resolved,
		"stats must partition the working set")
}

func TestSessionEmpty(t *testing.T) {
	t.Parallel()

	s := NewSession(nil)

	assert.False(t, s.HasBatch())
	assert.Nil(t, s.Current())
	assert.Zero(t, s.RemainingCount())
	assert.Equal(t, Stats{}, s.Stats())

	_, err := s.Confirm("Fuchs", "buschiger Schwanz")
	require.Error(t, err)
	assert.True(t, IsNoCurrentItem(err))
	assert.True(t, errors.IsNotFound(err))

	_, err = s.Skip()
	require.Error(t, err)
	assert.True(t, IsNoCurrentItem(err))
}

func TestSessionFIFOOrder(t *testing.T) {
	t.Parallel()

	s := NewSession(nil)
	s.Replace([]*detection.ReviewItem{
		newItem("a", true),
		newItem("b", false),
		newItem("c", true),
		newItem("d", true),
	})

	// Auto-accepted items never surface; review proceeds in ingest order.
	require.NotNil(t, s.Current())
	assert.Equal(t, "a", s.Current().ID)

	resolved, err := s.Skip()
	require.NoError(t, err)
	assert.Equal(t, "a", resolved.ID)
	assert.Equal(t, "c", s.Current().ID)

	resolved, err = s.Confirm("Dachs", "weisse Kopfstreifen")
	require.NoError(t, err)
	assert.Equal(t, "c", resolved.ID)
	assert.Equal(t, "d", s.Current().ID)

	_, err = s.Skip()
	require.NoError(t, err)

	assert.Nil(t, s.Current())
	assert.True(t, s.HasBatch(), "exhausted queue still counts as loaded batch")
	assertStatsInvariant(t, s)
}

func TestSessionConfirm(t *testing.T) {
	t.Parallel()

	t.Run("records feedback and assesses once", func(t *testing.T) {
		t.Parallel()

		s := NewSession(nil)
		s.Replace([]*detection.ReviewItem{newItem("a", true)})

		item, err := s.Confirm("Fuchs", "buschiger Schwanz")
		require.NoError(t, err)
		assert.Equal(t, "Fuchs", item.UserSpecies)
		assert.Equal(t, "buschiger Schwanz", item.UserReasoning)
		assert.True(t, item.Assessed)
		assert.True(t, item.NeedsReview, "triage decision is immutable")
		assert.Zero(t, s.RemainingCount())
	})

	t.Run("blank species is rejected", func(t *testing.T) {
		t.Parallel()

		s := NewSession(nil)
		s.Replace([]*detection.ReviewItem{newItem("a", true)})

		_, err := s.Confirm("   ", "looks like a fox")
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))

		// The item stays current so the reviewer can retry.
		current := s.Current()
		require.NotNil(t, current)
		assert.Equal(t, "a", current.ID)
		assert.False(t, current.Assessed)
	})

	t.Run("blank reasoning is rejected", func(t *testing.T) {
		t.Parallel()

		s := NewSession(nil)
		s.Replace([]*detection.ReviewItem{newItem("a", true)})

		_, err := s.Confirm("Fuchs", "")
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Equal(t, 1, s.RemainingCount())
	})

	t.Run("returned snapshot is detached", func(t *testing.T) {
		t.Parallel()

		s := NewSession(nil)
		s.Replace([]*detection.ReviewItem{newItem("a", true), newItem("b", true)})

		item, err := s.Confirm("Fuchs", "buschiger Schwanz")
		require.NoError(t, err)

		item.UserSpecies = "mutated"
		for _, assessed := range s.Assessed() {
			assert.Equal(t, "Fuchs", assessed.UserSpecies)
		}
	})
}

func TestSessionSkip(t *testing.T) {
	t.Parallel()

	s := NewSession(nil)
	s.Replace([]*detection.ReviewItem{newItem("a", true)})

	item, err := s.Skip()
	require.NoError(t, err)
	assert.True(t, item.Assessed)
	assert.Empty(t, item.UserSpecies)
	assert.Empty(t, item.UserReasoning)

	// Skipped items never come back.
	assert.Nil(t, s.Current())
	_, err = s.Skip()
	assert.True(t, IsNoCurrentItem(err))
	assertStatsInvariant(t, s)
}

func TestSessionStats(t *testing.T) {
	t.Parallel()

	s := NewSession(nil)
	s.Replace([]*detection.ReviewItem{
		newItem("a", false),
		newItem("b", false),
		newItem("c", true),
		newItem("d", true),
		newItem("e", true),
	})

	assert.Equal(t, Stats{Total: 5, AutoAccepted: 2, PendingReview: 3}, s.Stats())

	_, err := s.Confirm("Reh", "schlanke Silhouette")
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 5, AutoAccepted: 2, PendingReview: 2, Resolved: 1}, s.Stats())

	_, err = s.Skip()
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 5, AutoAccepted: 2, PendingReview: 1, Resolved: 2}, s.Stats())

	assertStatsInvariant(t, s)
}

func TestSessionReplace(t *testing.T) {
	t.Parallel()

	t.Run("discards previous batch wholesale", func(t *testing.T) {
		t.Parallel()

		s := NewSession(nil)
		s.Replace([]*detection.ReviewItem{newItem("old-1", true), newItem("old-2", true)})

		_, err := s.Confirm("Fuchs", "buschiger Schwanz")
		require.NoError(t, err)

		s.Replace([]*detection.ReviewItem{newItem("new-1", true)})

		assert.Equal(t, Stats{Total: 1, PendingReview: 1}, s.Stats(),
			"resolved items of the old batch do not survive re-ingestion")
		assert.Equal(t, "new-1", s.Current().ID)
	})

	t.Run("empty batch counts as loaded", func(t *testing.T) {
		t.Parallel()

		s := NewSession(nil)
		s.Replace([]*detection.ReviewItem{})

		assert.True(t, s.HasBatch())
		assert.Nil(t, s.Current())
		assert.Equal(t, Stats{}, s.Stats())
	})

	t.Run("clear returns to initial state", func(t *testing.T) {
		t.Parallel()

		s := NewSession(nil)
		s.Replace([]*detection.ReviewItem{newItem("a", true)})
		s.Clear()

		assert.False(t, s.HasBatch())
		assert.Nil(t, s.Current())
	})
}

func TestSessionGalleries(t *testing.T) {
	t.Parallel()

	s := NewSession(nil)
	s.Replace([]*detection.ReviewItem{
		newItem("auto", false),
		newItem("confirmed", true),
		newItem("skipped", true),
		newItem("pending", true),
	})

	_, err := s.Confirm("Wildschwein", "borstiges Fell")
	require.NoError(t, err)
	_, err = s.Skip()
	require.NoError(t, err)

	accepted := s.Accepted()
	require.Len(t, accepted, 1)
	assert.Equal(t, "auto", accepted[0].ID)

	assessed := s.Assessed()
	require.Len(t, assessed, 2)
	assert.Equal(t, "confirmed", assessed[0].ID)
	assert.Equal(t, "Wildschwein", assessed[0].UserSpecies)
	assert.Equal(t, "skipped", assessed[1].ID)
	assert.Empty(t, assessed[1].UserSpecies)
}

func TestSessionConcurrentDecisions(t *testing.T) {
	t.Parallel()

	const n = 50

	items := make([]*detection.ReviewItem, 0, n)
	for i := range n {
		items = append(items, newItem(fmt.Sprintf("item-%03d", i), true))
	}

	s := NewSession(nil)
	s.Replace(items)

	done := make(chan struct{})
	for range 2 {
		go func() {
			defer func() { done <- struct{}{} }()
			for {
				if _, err := s.Skip(); err != nil {
					return
				}
			}
		}()
	}
	<-done
	<-done

	// Every item was assessed exactly once.
	assert.Equal(t, Stats{Total: n, Resolved: n}, s.Stats())
}
