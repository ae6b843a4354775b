package ui

import (
	"github.com/Xlonenzo/contratos/internal/document"
)

// cursor helpers: logical caret movement over the document's leaf blocks.
// A caret is a document.Point; rows on screen correspond to leaf blocks in
// document order, so vertical movement walks the leaf path list.

func leafLen(doc *document.Document, p document.Path) int {
	text, err := doc.LeafText(p)
	if err != nil {
		return 0
	}
	return len([]rune(text))
}

func leafIndex(paths []document.Path, p document.Path) int {
	for i, lp := range paths {
		if lp.Equal(p) {
			return i
		}
	}
	return -1
}

// moveLeft steps the caret one rune back, crossing to the end of the
// previous leaf block at offset zero.
func moveLeft(doc *document.Document, p document.Point) document.Point {
	if p.Offset > 0 {
		return document.Point{Path: p.Path.Clone(), Offset: p.Offset - 1}
	}
	paths := doc.LeafPaths()
	i := leafIndex(paths, p.Path)
	if i <= 0 {
		return p
	}
	prev := paths[i-1]
	return document.Point{Path: prev.Clone(), Offset: leafLen(doc, prev)}
}

// moveRight steps the caret one rune forward, crossing to the start of the
// next leaf block at the end of the current one.
func moveRight(doc *document.Document, p document.Point) document.Point {
	if p.Offset < leafLen(doc, p.Path) {
		return document.Point{Path: p.Path.Clone(), Offset: p.Offset + 1}
	}
	paths := doc.LeafPaths()
	i := leafIndex(paths, p.Path)
	if i < 0 || i >= len(paths)-1 {
		return p
	}
	return document.Point{Path: paths[i+1].Clone()}
}

// moveVertical moves the caret delta leaf blocks up or down, clamping the
// offset to the target block's length.
func moveVertical(doc *document.Document, p document.Point, delta int) document.Point {
	paths := doc.LeafPaths()
	i := leafIndex(paths, p.Path)
	if i < 0 {
		return p
	}
	j := i + delta
	if j < 0 {
		j = 0
	}
	if j >= len(paths) {
		j = len(paths) - 1
	}
	target := paths[j]
	offset := p.Offset
	if max := leafLen(doc, target); offset > max {
		offset = max
	}
	return document.Point{Path: target.Clone(), Offset: offset}
}

func lineStart(p document.Point) document.Point {
	return document.Point{Path: p.Path.Clone()}
}

func lineEnd(doc *document.Document, p document.Point) document.Point {
	return document.Point{Path: p.Path.Clone(), Offset: leafLen(doc, p.Path)}
}

// runAt returns the run containing the caret, preferring the run a caret
// at a run boundary just passed over. Used to look up annotation marks
// under the cursor.
func runAt(doc *document.Document, p document.Point) (document.Run, bool) {
	b := blockAt(doc, p.Path)
	if b == nil || len(b.Runs) == 0 {
		return document.Run{}, false
	}
	offset := 0
	for _, r := range b.Runs {
		n := len([]rune(r.Text))
		if p.Offset >= offset && p.Offset < offset+n {
			return r, true
		}
		offset += n
	}
	if p.Offset == offset {
		return b.Runs[len(b.Runs)-1], true
	}
	return document.Run{}, false
}

func blockAt(doc *document.Document, p document.Path) *document.Block {
	if len(p) == 0 || p[0] < 0 || p[0] >= len(doc.Blocks) {
		return nil
	}
	b := &doc.Blocks[p[0]]
	for _, idx := range p[1:] {
		if idx < 0 || idx >= len(b.Blocks) {
			return nil
		}
		b = &b.Blocks[idx]
	}
	return b
}
