// Package annotation implements the selection-to-annotation workflow: the
// state machine that turns a text selection plus a toolbar action into a
// floating draft form, and on submit persists the annotation remotely and
// writes the confirmed mark onto the document.
//
// The machine is sans-IO: Submit returns the request for the host to
// execute on its own async boundary, and Resolve feeds the outcome back.
// A draft identity (uuid) guards against stale responses - a late result
// for a draft that was canceled or replaced is dropped silently.
//
// No formatting is applied speculatively: the document is only mutated
// after the persistence call succeeds, so cancellation and failure never
// need a rollback.
package annotation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xlonenzo/contratos/internal/document"
	"github.com/Xlonenzo/contratos/internal/selection"
)

// State enumerates the workflow states.
type State int

const (
	StateIdle State = iota
	StateDraftOpen
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraftOpen:
		return "draft-open"
	case StateSubmitting:
		return "submitting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Mode distinguishes a fresh draft from one opened over an existing,
// already-persisted mark.
type Mode int

const (
	ModeCreate Mode = iota
	ModeView
)

// Workflow errors. ErrMissingTitle and ErrPersistence surface on the open
// draft (inline, recoverable); the others indicate caller misuse.
var (
	ErrMissingTitle   = errors.New("annotation: title is required")
	ErrPersistence    = errors.New("annotation: persistence failure")
	ErrNoDraft        = errors.New("annotation: no draft open")
	ErrReadOnlyDraft  = errors.New("annotation: draft is read-only")
	ErrSubmitInFlight = errors.New("annotation: submit already in flight")
)

// Draft is the ephemeral form state. It never escapes the workflow except
// as a value copy; the controller owns the original.
type Draft struct {
	ID            uuid.UUID
	Kind          Kind
	Mode          Mode
	Title         string
	Description   string
	Priority      document.IssuePriority
	IssueType     document.IssueType
	SelectionText string
	Range         document.Range
	Rect          *selection.Rect
	ExistingID    int64
	Err           error
}

// MarkApplier is the single write path the workflow uses to put a
// confirmed annotation mark onto the document.
type MarkApplier interface {
	ApplyAnnotation(r document.Range, m document.Mark) error
}

// Workflow is the tooltip controller. Single-threaded: it lives on the UI
// event loop, and the only async boundary - the persistence call - re-enters
// through Resolve.
type Workflow struct {
	contractID int64
	applier    MarkApplier
	logger     *zap.Logger

	state State
	draft *Draft
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger installs a logger; default is nop.
func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) { w.logger = l }
}

// NewWorkflow builds an idle workflow for one contract.
func NewWorkflow(contractID int64, applier MarkApplier, opts ...Option) *Workflow {
	w := &Workflow{contractID: contractID, applier: applier, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current machine state.
func (w *Workflow) State() State { return w.state }

// Draft returns a copy of the open draft, if any.
func (w *Workflow) Draft() (Draft, bool) {
	if w.draft == nil {
		return Draft{}, false
	}
	return *w.draft, true
}

// Open starts a create draft from the current selection snapshot. The
// snapshot is captured immutably: later selection changes do not retarget
// the draft. A collapsed or empty selection fails with ErrNoSelection.
// Opening over an existing draft discards it (click-elsewhere-then-retry
// ergonomics); a late response for the discarded draft is dropped by the
// identity guard.
func (w *Workflow) Open(kind Kind, snap selection.Snapshot) error {
	if snap.IsCollapsed || snap.PlainText == "" {
		return fmt.Errorf("open %s draft: %w", kind, document.ErrNoSelection)
	}
	draft := &Draft{
		ID:            uuid.New(),
		Kind:          kind,
		Mode:          ModeCreate,
		Priority:      document.PriorityMedium,
		IssueType:     document.IssueTask,
		SelectionText: snap.PlainText,
		Range:         snap.Range.Clone(),
	}
	if snap.Rect != nil {
		rect := *snap.Rect
		draft.Rect = &rect
	}
	w.state = StateDraftOpen
	w.draft = draft
	w.logger.Debug("annotation draft opened",
		zap.String("kind", string(kind)),
		zap.String("draft", draft.ID.String()),
		zap.String("text", snap.PlainText))
	return nil
}

// OpenExisting opens a read/view draft for a clicked, already-persisted
// mark. No fresh selection is required. Clicking a mark still pending
// server confirmation is ignored to avoid racing a double submit.
func (w *Workflow) OpenExisting(mark document.Mark, rect *selection.Rect) error {
	if !document.Spec(mark.Kind).IsAnnotation {
		return fmt.Errorf("open existing: %s is not an annotation mark", mark.Kind)
	}
	if !mark.Confirmed() {
		w.logger.Debug("ignoring click on unconfirmed annotation", zap.String("kind", string(mark.Kind)))
		return nil
	}
	draft := &Draft{ID: uuid.New(), Mode: ModeView, Rect: rect}
	switch mark.Kind {
	case document.MarkBookmark:
		draft.Kind = KindBookmark
		draft.Title = mark.Bookmark.Title
		draft.Description = mark.Bookmark.Description
		draft.ExistingID = mark.Bookmark.ID
	default:
		draft.Kind = KindIssue
		draft.Title = mark.Issue.Title
		draft.Description = mark.Issue.Description
		draft.Priority = mark.Issue.Priority
		draft.IssueType = mark.Issue.Type
		draft.ExistingID = mark.Issue.ID
	}
	w.state = StateDraftOpen
	w.draft = draft
	return nil
}

// SetTitle edits the draft form. Form edits are local state only; the
// document is untouched until the submit succeeds.
func (w *Workflow) SetTitle(title string) error {
	return w.edit(func(d *Draft) { d.Title = title })
}

// SetDescription edits the draft form.
func (w *Workflow) SetDescription(desc string) error {
	return w.edit(func(d *Draft) { d.Description = desc })
}

// SetPriority edits the draft form.
func (w *Workflow) SetPriority(p document.IssuePriority) error {
	return w.edit(func(d *Draft) { d.Priority = p })
}

// SetIssueType edits the draft form.
func (w *Workflow) SetIssueType(t document.IssueType) error {
	return w.edit(func(d *Draft) { d.IssueType = t })
}

func (w *Workflow) edit(apply func(*Draft)) error {
	if w.state != StateDraftOpen || w.draft == nil {
		return ErrNoDraft
	}
	apply(w.draft)
	w.draft.Err = nil
	return nil
}

// Submit validates the draft and, when valid, transitions to Submitting
// and returns the request for the host to execute asynchronously. A
// missing title keeps the draft open with ErrMissingTitle set inline; the
// document is not touched on validation failure.
func (w *Workflow) Submit() (*CreateRequest, error) {
	switch w.state {
	case StateSubmitting:
		return nil, ErrSubmitInFlight
	case StateIdle:
		return nil, ErrNoDraft
	}
	if w.draft.Mode == ModeView {
		return nil, ErrReadOnlyDraft
	}
	if strings.TrimSpace(w.draft.Title) == "" {
		w.draft.Err = ErrMissingTitle
		return nil, ErrMissingTitle
	}
	w.state = StateSubmitting
	w.draft.Err = nil
	req := &CreateRequest{
		DraftID:       w.draft.ID,
		ContractID:    w.contractID,
		Kind:          w.draft.Kind,
		Title:         strings.TrimSpace(w.draft.Title),
		Description:   w.draft.Description,
		SelectionText: w.draft.SelectionText,
		Range:         w.draft.Range.Clone(),
	}
	if w.draft.Kind == KindIssue {
		req.Priority = w.draft.Priority
		req.IssueType = w.draft.IssueType
	}
	return req, nil
}

// Resolve feeds the outcome of a persistence call back into the machine.
// Responses whose draft id does not match the current submitting draft are
// stale (the draft was canceled or replaced) and are dropped silently.
// On success the confirmed mark is applied to the captured range and the
// machine returns to Idle; on failure the draft reopens with the error
// inline so the user can retry without re-typing.
func (w *Workflow) Resolve(draftID uuid.UUID, rec *Record, submitErr error) (bool, error) {
	if w.state != StateSubmitting || w.draft == nil || w.draft.ID != draftID {
		w.logger.Debug("dropping stale annotation response", zap.String("draft", draftID.String()))
		return false, nil
	}
	if submitErr != nil {
		w.state = StateDraftOpen
		w.draft.Err = fmt.Errorf("%w: %v", ErrPersistence, submitErr)
		w.logger.Warn("annotation create failed",
			zap.String("draft", draftID.String()), zap.Error(submitErr))
		return false, nil
	}

	mark := rec.Mark()
	if err := w.applier.ApplyAnnotation(w.draft.Range, mark); err != nil {
		// The range no longer resolves (the document changed underneath).
		// The record exists remotely but the mark cannot land; surface it
		// on the draft rather than leaving a partial mutation.
		w.state = StateDraftOpen
		w.draft.Err = err
		w.logger.Error("confirmed annotation could not be applied",
			zap.Int64("id", rec.ID), zap.Error(err))
		return false, err
	}

	w.logger.Info("annotation persisted",
		zap.Int64("id", rec.ID), zap.String("kind", string(rec.Kind)))
	w.state = StateIdle
	w.draft = nil
	return true, nil
}

// Cancel discards the draft and returns to Idle from any state. Canceling
// a Submitting draft abandons its eventual response: the identity guard in
// Resolve drops it.
func (w *Workflow) Cancel() {
	if w.draft != nil {
		w.logger.Debug("annotation draft canceled", zap.String("draft", w.draft.ID.String()))
	}
	w.state = StateIdle
	w.draft = nil
}
