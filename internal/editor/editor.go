// Package editor ties the document model, history buffer, and change
// notification together behind one explicit state struct. Every mutation
// flows through the Editor: it snapshots for undo, applies the operation,
// and emits the new value to the host. Nothing else may mutate the
// document, and no live reference to it ever escapes - external reads go
// through Serialize, PlainText, or Snapshot (a deep clone).
package editor

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Xlonenzo/contratos/internal/document"
	"github.com/Xlonenzo/contratos/internal/history"
)

// ChangeFunc receives the full document value after every committed
// mutation. The argument is a clone; the host may keep it. Debouncing and
// contract-level persistence are the host's concern.
type ChangeFunc func(doc *document.Document)

// Editor owns one document for its lifetime.
type Editor struct {
	doc      *document.Document
	hist     *history.Buffer
	onChange ChangeFunc
	logger   *zap.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger installs a logger; default is nop.
func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithOnChange installs the host's change callback.
func WithOnChange(fn ChangeFunc) Option {
	return func(e *Editor) { e.onChange = fn }
}

// WithHistoryLimit bounds the undo buffer.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.hist = history.NewBuffer(n) }
}

// New builds an editor from the host-provided initial value. An absent,
// empty, or malformed value is replaced by the canonical single empty
// paragraph - the editor never starts with an undefined document.
func New(initial []byte, opts ...Option) *Editor {
	e := &Editor{
		hist:   history.NewBuffer(0),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.doc = e.parseOrDefault(initial)
	return e
}

func (e *Editor) parseOrDefault(data []byte) *document.Document {
	if len(data) == 0 {
		return document.New()
	}
	doc, err := document.Parse(data)
	if err != nil {
		e.logger.Warn("malformed initial value, substituting empty document", zap.Error(err))
		return document.New()
	}
	if len(doc.Blocks) == 0 {
		return document.New()
	}
	return doc
}

// mutate wraps one committed document mutation: snapshot, apply, record,
// emit. A failed operation records nothing and emits nothing, and neither
// does one that leaves the document structurally unchanged, so semantic
// no-ops never occupy a history slot or flip the dirty state.
func (e *Editor) mutate(op func(*document.Document) error) error {
	before := e.doc.Clone()
	if err := op(e.doc); err != nil {
		return err
	}
	if e.doc.Equal(before) {
		return nil
	}
	e.hist.Push(before, e.doc)
	e.emit()
	return nil
}

func (e *Editor) emit() {
	if e.onChange != nil {
		e.onChange(e.doc.Clone())
	}
}

// ApplyMark applies (or, for fully covered toggle marks, removes) a mark
// over the range.
func (e *Editor) ApplyMark(r document.Range, m document.Mark) error {
	return e.mutate(func(d *document.Document) error {
		return d.ApplyMark(r, m)
	})
}

// RemoveMark strips a mark kind from the range.
func (e *Editor) RemoveMark(r document.Range, kind document.MarkKind) error {
	return e.mutate(func(d *document.Document) error {
		return d.RemoveMark(r, kind)
	})
}

// ApplyAnnotation is the annotation workflow's write path; it satisfies
// the workflow's MarkApplier interface.
func (e *Editor) ApplyAnnotation(r document.Range, m document.Mark) error {
	return e.ApplyMark(r, m)
}

// SetBlockKind changes a block's structural kind.
func (e *Editor) SetBlockKind(p document.Path, kind document.BlockKind) error {
	return e.mutate(func(d *document.Document) error {
		return d.SetBlockKind(p, kind)
	})
}

// PasteText inserts clipboard text as paragraph blocks at the top-level
// index.
func (e *Editor) PasteText(index int, text string) error {
	if text == "" {
		return nil
	}
	return e.mutate(func(d *document.Document) error {
		return d.InsertBlocks(index, document.ParagraphsFromText(text))
	})
}

// Undo steps back one mutation. Returns false when there is nothing to
// undo; that is not an error.
func (e *Editor) Undo() bool {
	doc := e.hist.Undo()
	if doc == nil {
		return false
	}
	e.doc = doc
	e.emit()
	return true
}

// Redo re-applies the most recently undone mutation.
func (e *Editor) Redo() bool {
	doc := e.hist.Redo()
	if doc == nil {
		return false
	}
	e.doc = doc
	e.emit()
	return true
}

// SetValue replaces the document wholesale with a new external value and
// clears history. The same absent/malformed/empty fallback as New applies.
func (e *Editor) SetValue(data []byte) {
	e.doc = e.parseOrDefault(data)
	e.hist.Clear()
	e.emit()
}

// Serialize returns the document in the wire format. This is the only
// sanctioned external read of the full value.
func (e *Editor) Serialize() ([]byte, error) {
	return json.Marshal(e.doc)
}

// PlainText returns the text inside the range, or the whole document for
// nil.
func (e *Editor) PlainText(r *document.Range) (string, error) {
	return e.doc.PlainText(r)
}

// Snapshot returns a deep clone for host-side reads. Mutating the clone
// has no effect on the editor.
func (e *Editor) Snapshot() *document.Document {
	return e.doc.Clone()
}

// WholeRange returns a range covering the entire document.
func (e *Editor) WholeRange() document.Range {
	return document.Range{Anchor: e.doc.Start(), Focus: e.doc.End()}
}

// LeafPaths exposes the document-order leaf addresses for cursor movement.
func (e *Editor) LeafPaths() []document.Path {
	return e.doc.LeafPaths()
}

// CanUndo reports whether an undo step is available.
func (e *Editor) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether a redo step is available.
func (e *Editor) CanRedo() bool { return e.hist.CanRedo() }
