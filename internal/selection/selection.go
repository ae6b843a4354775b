// Package selection tracks the live cursor and exposes the information the
// annotation workflow needs: the logical range, the selected plain text,
// and, when the host can provide it, the on-screen rectangle of the
// selection. Screen geometry is a capability the host environment injects;
// the tracker keeps working (minus positioning) when it is unavailable,
// which is what headless tests run with.
package selection

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Xlonenzo/contratos/internal/document"
)

// Rect is a screen rectangle in host units (terminal cells here, pixels in
// a graphical host).
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectResolver resolves a logical range to its on-screen rectangle. It may
// fail when the range is not currently mounted or visible.
type RectResolver interface {
	ResolveRect(doc *document.Document, r document.Range) (Rect, bool)
}

// ResolverFunc adapts a function to the RectResolver interface.
type ResolverFunc func(doc *document.Document, r document.Range) (Rect, bool)

func (f ResolverFunc) ResolveRect(doc *document.Document, r document.Range) (Rect, bool) {
	return f(doc, r)
}

// Snapshot is the tracker's output for one selection state. For a collapsed
// selection Rect and PlainText are cleared - dependents must treat a caret
// as "nothing selected".
type Snapshot struct {
	Range       document.Range
	IsCollapsed bool
	Rect        *Rect
	PlainText   string
}

// Tracker recomputes a Snapshot on every selection change. Not safe for
// concurrent use; it lives on the editor's single UI thread.
type Tracker struct {
	resolver RectResolver
	logger   *zap.Logger
	current  Snapshot
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithResolver installs the host's rect resolution capability.
func WithResolver(r RectResolver) Option {
	return func(t *Tracker) { t.resolver = r }
}

// WithLogger installs a logger; the default is a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker builds a tracker. Without a resolver every snapshot has a nil
// Rect, which only disables tooltip placement.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Update recomputes the snapshot for the given selection. Collapsed
// selections clear text and rect; a resolver failure keeps the logical
// range so offset-based logic still functions.
func (t *Tracker) Update(doc *document.Document, r document.Range) (Snapshot, error) {
	snap := Snapshot{Range: r.Clone(), IsCollapsed: r.IsCollapsed()}
	if snap.IsCollapsed {
		t.current = snap
		return snap, nil
	}

	text, err := doc.PlainText(&r)
	if err != nil {
		if errors.Is(err, document.ErrInvalidRange) {
			t.logger.Warn("selection range no longer resolvable",
				zap.Any("range", r), zap.Error(err))
		}
		return Snapshot{}, err
	}
	snap.PlainText = text

	if t.resolver != nil {
		if rect, ok := t.resolver.ResolveRect(doc, r); ok {
			snap.Rect = &rect
		} else {
			t.logger.Debug("selection rect unavailable", zap.Any("range", r))
		}
	}

	t.current = snap
	return snap, nil
}

// Current returns the last computed snapshot.
func (t *Tracker) Current() Snapshot {
	return t.current
}

// Clear resets the tracker to a collapsed, empty state.
func (t *Tracker) Clear() {
	t.current = Snapshot{IsCollapsed: true}
}
