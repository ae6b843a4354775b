package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xlonenzo/contratos/internal/document"
)

func TestRenderIsPureAndIdempotent(t *testing.T) {
	d := &document.Document{Blocks: []document.Block{
		{Kind: document.Paragraph, Runs: []document.Run{
			{Text: "plain "},
			{Text: "styled", Marks: []document.Mark{document.Bold()}},
		}},
	}}
	before := d.Clone()

	first := Render(d)
	second := Render(d)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("render must be deterministic (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, d); diff != "" {
		t.Fatalf("render must not mutate the document (-want +got):\n%s", diff)
	}
}

func TestDecorationNestingFollowsPriorityNotApplicationOrder(t *testing.T) {
	// Apply in "wrong" order: issue first, then underline, then bold.
	run := document.Run{Text: "clause", Marks: []document.Mark{
		document.IssueMark(document.IssueData{ID: 5, Title: "risk"}),
		document.Underline(),
		document.Bold(),
	}}
	d := &document.Document{Blocks: []document.Block{
		{Kind: document.Paragraph, Runs: []document.Run{run}},
	}}

	el := Render(d)[0].(Element)
	leaf := el.Children[0].(Leaf)

	var kinds []document.MarkKind
	for _, dec := range leaf.Decorations {
		kinds = append(kinds, dec.Kind)
	}
	// Innermost first: underline, bold, issue outermost.
	assert.Equal(t, []document.MarkKind{
		document.MarkUnderline, document.MarkBold, document.MarkIssue,
	}, kinds)
}

func TestIssueDecorationCarriesPayload(t *testing.T) {
	d := &document.Document{Blocks: []document.Block{
		{Kind: document.Paragraph, Runs: []document.Run{
			{Text: "Cláusula 3.1", Marks: []document.Mark{
				document.IssueMark(document.IssueData{
					ID:       42,
					Title:    "Risco Legal",
					Priority: document.PriorityHigh,
				}),
			}},
		}},
	}}

	el := Render(d)[0].(Element)
	leaf := el.Children[0].(Leaf)
	require.Len(t, leaf.Decorations, 1)
	dec := leaf.Decorations[0]
	assert.Equal(t, document.MarkIssue, dec.Kind)
	require.NotNil(t, dec.Mark.Issue)
	assert.Equal(t, int64(42), dec.Mark.Issue.ID)
	assert.Equal(t, "Risco Legal", dec.Mark.Issue.Title)
}

func TestUnknownMarksRenderUndecorated(t *testing.T) {
	d := &document.Document{Blocks: []document.Block{
		{Kind: document.Paragraph, Runs: []document.Run{
			{Text: "future", Marks: []document.Mark{
				{Kind: "sentiment", Raw: []byte(`{"score":0.9}`)},
			}},
		}},
	}}

	el := Render(d)[0].(Element)
	leaf := el.Children[0].(Leaf)
	assert.Equal(t, "future", leaf.Text)
	assert.Empty(t, leaf.Decorations)
}

func TestAlignmentLiftsToElement(t *testing.T) {
	d := &document.Document{Blocks: []document.Block{
		{Kind: document.Heading1, Runs: []document.Run{
			{Text: "centered", Marks: []document.Mark{document.AlignCenter()}},
		}},
	}}

	el := Render(d)[0].(Element)
	assert.Equal(t, document.MarkAlignCenter, el.Align)
	leaf := el.Children[0].(Leaf)
	assert.Empty(t, leaf.Decorations, "alignment is not a leaf decoration")
}

func TestListRendersNestedElements(t *testing.T) {
	d := &document.Document{Blocks: []document.Block{
		{Kind: document.BulletedList, Blocks: []document.Block{
			{Kind: document.ListItem, Runs: []document.Run{{Text: "one"}}},
			{Kind: document.ListItem, Runs: []document.Run{{Text: "two"}}},
		}},
	}}

	el := Render(d)[0].(Element)
	require.Len(t, el.Children, 2)
	item := el.Children[0].(Element)
	assert.Equal(t, document.ListItem, item.Kind)
	assert.Equal(t, "one", item.Children[0].(Leaf).Text)
}

func TestAnnotationAtPicksInnermost(t *testing.T) {
	run := document.Run{Text: "overlap", Marks: []document.Mark{
		document.BookmarkMark(document.BookmarkData{ID: 1, Title: "outer"}),
		document.IssueMark(document.IssueData{ID: 2, Title: "inner"}),
	}}

	mark, ok := AnnotationAt(run)
	require.True(t, ok)
	assert.Equal(t, document.MarkIssue, mark.Kind)
	assert.Equal(t, int64(2), mark.Issue.ID)
}

func TestAnnotationAtNoAnnotation(t *testing.T) {
	run := document.Run{Text: "plain", Marks: []document.Mark{document.Bold()}}
	_, ok := AnnotationAt(run)
	assert.False(t, ok)
}
