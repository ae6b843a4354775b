// Package render maps the document tree to a tree of visual nodes. Render
// is a pure function: no side effects, no retained state, safe to call on
// every document change. Diffing the output against the previous frame is
// the host's responsibility.
package render

import (
	"sort"

	"github.com/Xlonenzo/contratos/internal/document"
)

// Node is the closed set of visual nodes: Element for blocks, Leaf for
// text runs.
type Node interface {
	isNode()
}

// Element is the visual form of a block.
type Element struct {
	Kind     document.BlockKind
	Align    document.MarkKind // zero when the block has no alignment mark
	Children []Node
}

func (Element) isNode() {}

// Leaf is the visual form of one text run. Decorations are ordered
// innermost first; a consumer wraps the text in each decoration in slice
// order to get deterministic nesting regardless of the order marks were
// applied logically.
type Leaf struct {
	Text        string
	Decorations []Decoration
}

func (Leaf) isNode() {}

// Decoration is one visual wrapper derived from a mark. Annotation
// decorations keep the full mark so click handling can reach the payload.
type Decoration struct {
	Kind document.MarkKind
	Mark document.Mark
}

// Render produces the visual tree for the whole document.
func Render(d *document.Document) []Node {
	nodes := make([]Node, 0, len(d.Blocks))
	for i := range d.Blocks {
		nodes = append(nodes, renderBlock(&d.Blocks[i]))
	}
	return nodes
}

func renderBlock(b *document.Block) Node {
	el := Element{Kind: b.Kind}
	if b.Kind.IsContainer() {
		el.Children = make([]Node, 0, len(b.Blocks))
		for i := range b.Blocks {
			el.Children = append(el.Children, renderBlock(&b.Blocks[i]))
		}
		return el
	}
	el.Align = blockAlignment(b)
	el.Children = make([]Node, 0, len(b.Runs))
	for _, run := range b.Runs {
		el.Children = append(el.Children, renderRun(run))
	}
	return el
}

// blockAlignment lifts a run-level alignment mark to the block: the first
// aligned run decides, which keeps output deterministic for the simple
// representation where alignment rides on runs.
func blockAlignment(b *document.Block) document.MarkKind {
	for _, run := range b.Runs {
		for _, m := range run.Marks {
			if document.Spec(m.Kind).ExclusiveGroup != "" {
				return m.Kind
			}
		}
	}
	return ""
}

func renderRun(run document.Run) Leaf {
	leaf := Leaf{Text: run.Text}
	for _, m := range run.Marks {
		spec := document.Spec(m.Kind)
		if spec.ExclusiveGroup != "" {
			continue // alignment renders at block level
		}
		if !document.IsKnown(m.Kind) {
			continue // unknown marks render as plain text
		}
		leaf.Decorations = append(leaf.Decorations, Decoration{Kind: m.Kind, Mark: m.Clone()})
	}
	// Innermost first. Stable, so equal priorities keep application order.
	sort.SliceStable(leaf.Decorations, func(i, j int) bool {
		return document.Spec(leaf.Decorations[i].Kind).Priority <
			document.Spec(leaf.Decorations[j].Kind).Priority
	})
	return leaf
}

// AnnotationAt returns the mark whose annotation should be shown for a
// click on the given run: the innermost (most recently applied) annotation
// mark. The second return is false when the run carries none.
func AnnotationAt(run document.Run) (document.Mark, bool) {
	for i := len(run.Marks) - 1; i >= 0; i-- {
		if document.Spec(run.Marks[i].Kind).IsAnnotation {
			return run.Marks[i].Clone(), true
		}
	}
	return document.Mark{}, false
}
