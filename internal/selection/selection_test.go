package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xlonenzo/contratos/internal/document"
)

func testDoc() *document.Document {
	return &document.Document{Blocks: []document.Block{
		{Kind: document.Paragraph, Runs: []document.Run{{Text: "contract body"}}},
	}}
}

func rangeOver(from, to int) document.Range {
	return document.Range{
		Anchor: document.Point{Path: document.Path{0}, Offset: from},
		Focus:  document.Point{Path: document.Path{0}, Offset: to},
	}
}

func TestCollapsedSelectionClearsRectAndText(t *testing.T) {
	tracker := NewTracker(WithResolver(ResolverFunc(
		func(*document.Document, document.Range) (Rect, bool) {
			return Rect{X: 1, Y: 1}, true
		})))

	snap, err := tracker.Update(testDoc(), rangeOver(4, 4))
	require.NoError(t, err)
	assert.True(t, snap.IsCollapsed)
	assert.Nil(t, snap.Rect)
	assert.Empty(t, snap.PlainText)
}

func TestNonCollapsedSelectionExposesTextAndRect(t *testing.T) {
	tracker := NewTracker(WithResolver(ResolverFunc(
		func(*document.Document, document.Range) (Rect, bool) {
			return Rect{X: 3, Y: 2, Width: 8, Height: 1}, true
		})))

	snap, err := tracker.Update(testDoc(), rangeOver(0, 8))
	require.NoError(t, err)
	assert.False(t, snap.IsCollapsed)
	assert.Equal(t, "contract", snap.PlainText)
	require.NotNil(t, snap.Rect)
	assert.Equal(t, 3, snap.Rect.X)
	assert.Equal(t, snap, tracker.Current())
}

func TestResolverFailureKeepsLogicalRange(t *testing.T) {
	tracker := NewTracker(WithResolver(ResolverFunc(
		func(*document.Document, document.Range) (Rect, bool) {
			return Rect{}, false
		})))

	snap, err := tracker.Update(testDoc(), rangeOver(0, 8))
	require.NoError(t, err)
	assert.Nil(t, snap.Rect, "positioning degrades")
	assert.Equal(t, "contract", snap.PlainText, "offset-based logic still works")
	assert.False(t, snap.Range.IsCollapsed())
}

func TestNoResolverIsHeadless(t *testing.T) {
	tracker := NewTracker()
	snap, err := tracker.Update(testDoc(), rangeOver(9, 13))
	require.NoError(t, err)
	assert.Nil(t, snap.Rect)
	assert.Equal(t, "body", snap.PlainText)
}

func TestInvalidRangeSurfacesError(t *testing.T) {
	tracker := NewTracker()
	_, err := tracker.Update(testDoc(), rangeOver(0, 99))
	assert.ErrorIs(t, err, document.ErrInvalidRange)
}

func TestSnapshotRangeIsIsolated(t *testing.T) {
	tracker := NewTracker()
	r := rangeOver(0, 8)
	snap, err := tracker.Update(testDoc(), r)
	require.NoError(t, err)

	r.Anchor.Path[0] = 9
	assert.Equal(t, 0, snap.Range.Anchor.Path[0], "snapshot must not alias caller storage")
}
