// Package history implements the editor's bounded linear undo/redo buffer.
// Entries hold before/after document snapshots; the buffer evicts its
// oldest entries past capacity, and stepping past either edge returns nil
// rather than failing - "nothing to undo" is not an error.
package history

import "github.com/Xlonenzo/contratos/internal/document"

// DefaultCapacity bounds the buffer when the caller passes zero.
const DefaultCapacity = 500

// Entry records one committed mutation as a pair of snapshots.
type Entry struct {
	Before *document.Document
	After  *document.Document
}

// Buffer is a linear undo/redo stack with an index-based cursor. It is not
// safe for concurrent use; the editor owns it on the single UI thread.
type Buffer struct {
	entries  []Entry
	cursor   int // number of entries currently "done"
	capacity int
}

// NewBuffer returns a buffer bounded to the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Push records a committed mutation. Any redo tail beyond the cursor is
// discarded, and the oldest entry is evicted once the buffer is full.
func (b *Buffer) Push(before, after *document.Document) {
	b.entries = append(b.entries[:b.cursor], Entry{
		Before: before.Clone(),
		After:  after.Clone(),
	})
	if len(b.entries) > b.capacity {
		over := len(b.entries) - b.capacity
		b.entries = append([]Entry(nil), b.entries[over:]...)
	}
	b.cursor = len(b.entries)
}

// Undo steps the cursor back and returns the document as it was before the
// undone mutation, or nil when nothing is left to undo.
func (b *Buffer) Undo() *document.Document {
	if b.cursor == 0 {
		return nil
	}
	b.cursor--
	return b.entries[b.cursor].Before.Clone()
}

// Redo re-applies the most recently undone mutation and returns the
// document after it, or nil when there is nothing to redo.
func (b *Buffer) Redo() *document.Document {
	if b.cursor >= len(b.entries) {
		return nil
	}
	entry := b.entries[b.cursor]
	b.cursor++
	return entry.After.Clone()
}

// CanUndo reports whether Undo would return a document.
func (b *Buffer) CanUndo() bool { return b.cursor > 0 }

// CanRedo reports whether Redo would return a document.
func (b *Buffer) CanRedo() bool { return b.cursor < len(b.entries) }

// Len returns the number of retained entries.
func (b *Buffer) Len() int { return len(b.entries) }

// Clear drops all entries. Called when an external value replaces the
// document wholesale.
func (b *Buffer) Clear() {
	b.entries = nil
	b.cursor = 0
}
