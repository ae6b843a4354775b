package history

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xlonenzo/contratos/internal/document"
)

func textDoc(text string) *document.Document {
	return &document.Document{Blocks: []document.Block{
		{Kind: document.Paragraph, Runs: []document.Run{{Text: text}}},
	}}
}

func plain(t *testing.T, d *document.Document) string {
	t.Helper()
	text, err := d.PlainText(nil)
	require.NoError(t, err)
	return text
}

func TestUndoRedoSingleStep(t *testing.T) {
	b := NewBuffer(10)
	b.Push(textDoc("v0"), textDoc("v1"))

	undone := b.Undo()
	require.NotNil(t, undone)
	assert.Equal(t, "v0", plain(t, undone))

	redone := b.Redo()
	require.NotNil(t, redone)
	assert.Equal(t, "v1", plain(t, redone))
}

func TestUndoRedoNStepsReproducesNthState(t *testing.T) {
	const n = 7
	b := NewBuffer(50)
	for i := 0; i < n; i++ {
		b.Push(textDoc(fmt.Sprintf("v%d", i)), textDoc(fmt.Sprintf("v%d", i+1)))
	}

	for i := 0; i < n; i++ {
		require.NotNil(t, b.Undo())
	}
	assert.Nil(t, b.Undo(), "undo past the oldest entry is a nil no-op")

	var last *document.Document
	for i := 0; i < n; i++ {
		last = b.Redo()
		require.NotNil(t, last)
	}
	assert.Equal(t, fmt.Sprintf("v%d", n), plain(t, last))
	assert.Nil(t, b.Redo())
}

func TestPushClearsRedoTail(t *testing.T) {
	b := NewBuffer(10)
	b.Push(textDoc("v0"), textDoc("v1"))
	b.Push(textDoc("v1"), textDoc("v2"))

	require.NotNil(t, b.Undo())
	assert.True(t, b.CanRedo())

	b.Push(textDoc("v1"), textDoc("v1b"))
	assert.False(t, b.CanRedo(), "new push discards the redo tail")
	assert.Equal(t, 2, b.Len())
}

func TestCapacityEvictsOldest(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		b.Push(textDoc(fmt.Sprintf("v%d", i)), textDoc(fmt.Sprintf("v%d", i+1)))
	}
	assert.Equal(t, 3, b.Len())

	// Only the three newest mutations can be undone.
	for i := 0; i < 3; i++ {
		require.NotNil(t, b.Undo())
	}
	assert.Nil(t, b.Undo())
}

func TestSnapshotsAreIsolated(t *testing.T) {
	original := textDoc("pristine")
	b := NewBuffer(10)
	b.Push(original, textDoc("next"))

	original.Blocks[0].Runs[0].Text = "mutated"

	undone := b.Undo()
	require.NotNil(t, undone)
	if diff := cmp.Diff("pristine", plain(t, undone)); diff != "" {
		t.Fatalf("buffer must snapshot, not alias (-want +got):\n%s", diff)
	}
}

func TestClear(t *testing.T) {
	b := NewBuffer(10)
	b.Push(textDoc("a"), textDoc("b"))
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Undo())
	assert.Nil(t, b.Redo())
}
