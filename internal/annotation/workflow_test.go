package annotation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xlonenzo/contratos/internal/document"
	"github.com/Xlonenzo/contratos/internal/selection"
)

// docApplier applies annotation marks to a real document, which lets the
// tests assert on the final tree.
type docApplier struct {
	doc  *document.Document
	errs []error
}

func (a *docApplier) ApplyAnnotation(r document.Range, m document.Mark) error {
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		return err
	}
	return a.doc.ApplyMark(r, m)
}

func clauseDoc() *document.Document {
	return &document.Document{Blocks: []document.Block{
		{Kind: document.Paragraph, Runs: []document.Run{{Text: "Cláusula 3.1 do contrato"}}},
	}}
}

func clauseSnapshot(t *testing.T, doc *document.Document) selection.Snapshot {
	t.Helper()
	r := document.Range{
		Anchor: document.Point{Path: document.Path{0}, Offset: 0},
		Focus:  document.Point{Path: document.Path{0}, Offset: 12},
	}
	tracker := selection.NewTracker()
	snap, err := tracker.Update(doc, r)
	require.NoError(t, err)
	return snap
}

func TestOpenRequiresSelection(t *testing.T) {
	w := NewWorkflow(1, &docApplier{doc: clauseDoc()})

	err := w.Open(KindIssue, selection.Snapshot{IsCollapsed: true})
	assert.ErrorIs(t, err, document.ErrNoSelection)
	assert.Equal(t, StateIdle, w.State())
}

func TestOpenCapturesImmutableSnapshot(t *testing.T) {
	doc := clauseDoc()
	w := NewWorkflow(1, &docApplier{doc: doc})
	snap := clauseSnapshot(t, doc)

	require.NoError(t, w.Open(KindIssue, snap))

	// Later selection changes must not retarget the open draft.
	snap.Range.Focus.Offset = 1
	snap.PlainText = "C"

	draft, ok := w.Draft()
	require.True(t, ok)
	assert.Equal(t, "Cláusula 3.1", draft.SelectionText)
	assert.Equal(t, 12, draft.Range.Focus.Offset)
	assert.Equal(t, document.PriorityMedium, draft.Priority)
}

func TestSubmitMissingTitleKeepsDraftOpenAndDocumentUntouched(t *testing.T) {
	doc := clauseDoc()
	before := doc.Clone()
	w := NewWorkflow(1, &docApplier{doc: doc})
	require.NoError(t, w.Open(KindIssue, clauseSnapshot(t, doc)))

	req, err := w.Submit()
	assert.Nil(t, req)
	assert.ErrorIs(t, err, ErrMissingTitle)
	assert.Equal(t, StateDraftOpen, w.State())

	draft, _ := w.Draft()
	assert.ErrorIs(t, draft.Err, ErrMissingTitle)
	if diff := cmp.Diff(before, doc); diff != "" {
		t.Fatalf("validation failure must not mutate (-want +got):\n%s", diff)
	}
}

func TestSubmitAndResolveAppliesConfirmedMark(t *testing.T) {
	doc := clauseDoc()
	w := NewWorkflow(7, &docApplier{doc: doc})
	require.NoError(t, w.Open(KindIssue, clauseSnapshot(t, doc)))
	require.NoError(t, w.SetTitle("Risco Legal"))
	require.NoError(t, w.SetPriority(document.PriorityHigh))

	req, err := w.Submit()
	require.NoError(t, err)
	assert.Equal(t, StateSubmitting, w.State())
	assert.Equal(t, int64(7), req.ContractID)
	assert.Equal(t, "Risco Legal", req.Title)
	assert.Equal(t, "Cláusula 3.1", req.SelectionText)

	rec := &Record{
		ID:        101,
		Kind:      KindIssue,
		Title:     req.Title,
		Priority:  req.Priority,
		IssueType: req.IssueType,
		CreatedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	applied, err := w.Resolve(req.DraftID, rec, nil)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, StateIdle, w.State())
	_, open := w.Draft()
	assert.False(t, open)

	// Exactly one run covers the selection and carries the server id.
	runs := doc.Blocks[0].Runs
	require.Len(t, runs, 2)
	issue, ok := runs[0].Mark(document.MarkIssue)
	require.True(t, ok)
	assert.Equal(t, "Cláusula 3.1", runs[0].Text)
	assert.Equal(t, int64(101), issue.Issue.ID)
	assert.Equal(t, document.PriorityHigh, issue.Issue.Priority)
	assert.False(t, runs[1].HasMark(document.MarkIssue))
}

func TestResolveFailureReopensDraftForRetry(t *testing.T) {
	doc := clauseDoc()
	before := doc.Clone()
	w := NewWorkflow(1, &docApplier{doc: doc})
	require.NoError(t, w.Open(KindBookmark, clauseSnapshot(t, doc)))
	require.NoError(t, w.SetTitle("Revisar depois"))

	req, err := w.Submit()
	require.NoError(t, err)

	_, err = w.Resolve(req.DraftID, nil, errors.New("connection refused"))
	require.NoError(t, err, "transport failure is surfaced on the draft, not returned")
	assert.Equal(t, StateDraftOpen, w.State())

	draft, _ := w.Draft()
	assert.ErrorIs(t, draft.Err, ErrPersistence)
	assert.Equal(t, "Revisar depois", draft.Title, "form content survives for retry")
	if diff := cmp.Diff(before, doc); diff != "" {
		t.Fatalf("persistence failure must not mutate (-want +got):\n%s", diff)
	}
}

func TestCancelDropsLateResponse(t *testing.T) {
	doc := clauseDoc()
	before := doc.Clone()
	w := NewWorkflow(1, &docApplier{doc: doc})
	require.NoError(t, w.Open(KindIssue, clauseSnapshot(t, doc)))
	require.NoError(t, w.SetTitle("abandonada"))

	req, err := w.Submit()
	require.NoError(t, err)
	w.Cancel()
	assert.Equal(t, StateIdle, w.State())

	// The late success must not resurrect the canceled draft's mark.
	applied, err := w.Resolve(req.DraftID, &Record{ID: 55, Kind: KindIssue, Title: "abandonada"}, nil)
	require.NoError(t, err)
	assert.False(t, applied)
	if diff := cmp.Diff(before, doc); diff != "" {
		t.Fatalf("stale response must be dropped (-want +got):\n%s", diff)
	}
}

func TestStaleResponseForReplacedDraftIsDropped(t *testing.T) {
	doc := clauseDoc()
	w := NewWorkflow(1, &docApplier{doc: doc})
	snap := clauseSnapshot(t, doc)

	require.NoError(t, w.Open(KindIssue, snap))
	require.NoError(t, w.SetTitle("primeira"))
	firstReq, err := w.Submit()
	require.NoError(t, err)

	// User opens a new draft while the first submit is in flight.
	require.NoError(t, w.Open(KindBookmark, snap))

	applied, err := w.Resolve(firstReq.DraftID, &Record{ID: 9, Kind: KindIssue, Title: "primeira"}, nil)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, StateDraftOpen, w.State(), "the new draft is unaffected")

	draft, _ := w.Draft()
	assert.Equal(t, KindBookmark, draft.Kind)
}

func TestResolveWithUnknownDraftIDIsNoOp(t *testing.T) {
	w := NewWorkflow(1, &docApplier{doc: clauseDoc()})
	applied, err := w.Resolve(uuid.New(), &Record{ID: 1}, nil)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestDoubleSubmitIsRejectedWhileInFlight(t *testing.T) {
	doc := clauseDoc()
	w := NewWorkflow(1, &docApplier{doc: doc})
	require.NoError(t, w.Open(KindIssue, clauseSnapshot(t, doc)))
	require.NoError(t, w.SetTitle("uma vez"))

	_, err := w.Submit()
	require.NoError(t, err)

	_, err = w.Submit()
	assert.ErrorIs(t, err, ErrSubmitInFlight)
}

func TestCancelThenAnnotateOtherKind(t *testing.T) {
	// Open an issue draft on a range, cancel it, then bookmark the same
	// range: the final document has exactly one mark.
	doc := clauseDoc()
	w := NewWorkflow(1, &docApplier{doc: doc})
	snap := clauseSnapshot(t, doc)

	require.NoError(t, w.Open(KindIssue, snap))
	w.Cancel()

	require.NoError(t, w.Open(KindBookmark, snap))
	require.NoError(t, w.SetTitle("Cláusula importante"))
	req, err := w.Submit()
	require.NoError(t, err)
	applied, err := w.Resolve(req.DraftID, &Record{ID: 3, Kind: KindBookmark, Title: "Cláusula importante"}, nil)
	require.NoError(t, err)
	require.True(t, applied)

	marked := doc.Blocks[0].Runs[0]
	assert.True(t, marked.HasMark(document.MarkBookmark))
	assert.False(t, marked.HasMark(document.MarkIssue))
}

func TestOpenExistingConfirmedMark(t *testing.T) {
	w := NewWorkflow(1, &docApplier{doc: clauseDoc()})
	mark := document.IssueMark(document.IssueData{
		ID:       77,
		Title:    "Multa excessiva",
		Priority: document.PriorityCritical,
	})

	require.NoError(t, w.OpenExisting(mark, &selection.Rect{X: 4, Y: 2}))
	assert.Equal(t, StateDraftOpen, w.State())

	draft, _ := w.Draft()
	assert.Equal(t, ModeView, draft.Mode)
	assert.Equal(t, int64(77), draft.ExistingID)
	assert.Equal(t, "Multa excessiva", draft.Title)

	_, err := w.Submit()
	assert.ErrorIs(t, err, ErrReadOnlyDraft)
}

func TestOpenExistingPendingMarkIsIgnored(t *testing.T) {
	w := NewWorkflow(1, &docApplier{doc: clauseDoc()})
	pending := document.IssueMark(document.IssueData{Title: "ainda sem id"})

	require.NoError(t, w.OpenExisting(pending, nil))
	assert.Equal(t, StateIdle, w.State(), "unconfirmed marks are not clickable")
}

func TestResolveApplyFailureSurfacesOnDraft(t *testing.T) {
	doc := clauseDoc()
	applier := &docApplier{doc: doc, errs: []error{document.ErrInvalidRange}}
	w := NewWorkflow(1, applier)
	require.NoError(t, w.Open(KindIssue, clauseSnapshot(t, doc)))
	require.NoError(t, w.SetTitle("t"))

	req, err := w.Submit()
	require.NoError(t, err)

	applied, err := w.Resolve(req.DraftID, &Record{ID: 8, Kind: KindIssue, Title: "t"}, nil)
	assert.False(t, applied)
	assert.ErrorIs(t, err, document.ErrInvalidRange)
	assert.Equal(t, StateDraftOpen, w.State())
}

func TestEditsRequireOpenDraft(t *testing.T) {
	w := NewWorkflow(1, &docApplier{doc: clauseDoc()})
	assert.ErrorIs(t, w.SetTitle("x"), ErrNoDraft)
	_, err := w.Submit()
	assert.ErrorIs(t, err, ErrNoDraft)
}
