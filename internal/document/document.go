// Package document implements the contract editor's document model: an
// ordered tree of blocks whose leaves are text runs carrying mark sets.
// The model is deliberately dumb about rendering and persistence - it only
// knows how to address text by logical ranges, split and merge runs, and
// apply or remove marks atomically.
//
// All mutating operations validate the full range before touching the tree,
// so a failed operation never leaves the document partially mutated.
package document

import (
	"fmt"
	"strings"
)

// BlockKind identifies the structural role of a block. The string values
// match the wire format used by the contract backend, so unknown kinds read
// from external documents survive a round trip unchanged.
type BlockKind string

const (
	Paragraph    BlockKind = "paragraph"
	Heading1     BlockKind = "heading-one"
	Heading2     BlockKind = "heading-two"
	BulletedList BlockKind = "bulleted-list"
	NumberedList BlockKind = "numbered-list"
	ListItem     BlockKind = "list-item"
)

// IsContainer reports whether blocks of this kind hold child blocks
// (list items) rather than text runs.
func (k BlockKind) IsContainer() bool {
	return k == BulletedList || k == NumberedList
}

// Run is a contiguous span of text sharing one mark set. Mark order is
// application order: the last mark in the slice is the most recently
// applied, which makes it the innermost for overlap tie-breaking.
type Run struct {
	Text  string
	Marks []Mark
}

// HasMark reports whether the run carries a mark of the given kind.
func (r Run) HasMark(kind MarkKind) bool {
	for _, m := range r.Marks {
		if m.Kind == kind {
			return true
		}
	}
	return false
}

// Mark returns the run's mark of the given kind, if present.
func (r Run) Mark(kind MarkKind) (Mark, bool) {
	for _, m := range r.Marks {
		if m.Kind == kind {
			return m, true
		}
	}
	return Mark{}, false
}

// Block is one structural node. Container kinds (lists) populate Blocks;
// every other kind populates Runs. Exactly one of the two is used.
type Block struct {
	Kind   BlockKind
	Blocks []Block
	Runs   []Run
}

// length returns the block's text length in runes.
func (b *Block) length() int {
	n := 0
	for _, r := range b.Runs {
		n += len([]rune(r.Text))
	}
	return n
}

// Document is the root of the block tree. It is exclusively owned by one
// editor instance; external consumers read it through serialization
// accessors, never through live references into the run slices.
type Document struct {
	Blocks []Block
}

// New returns the canonical empty document: one paragraph with one empty
// run. The editor never operates on a document with zero blocks.
func New() *Document {
	return &Document{Blocks: []Block{{Kind: Paragraph, Runs: []Run{{}}}}}
}

// Normalize repairs structural invariants in place: a document with no
// blocks becomes the canonical empty document, leaf blocks without runs get
// one empty run, and list containers without items get one empty item.
// Unknown block kinds are left alone apart from the empty-run rule.
func (d *Document) Normalize() {
	if len(d.Blocks) == 0 {
		d.Blocks = []Block{{Kind: Paragraph, Runs: []Run{{}}}}
		return
	}
	for i := range d.Blocks {
		normalizeBlock(&d.Blocks[i])
	}
}

func normalizeBlock(b *Block) {
	if b.Kind.IsContainer() {
		// A container that somehow carries runs wraps them into one item.
		if len(b.Blocks) == 0 {
			if len(b.Runs) > 0 {
				b.Blocks = []Block{{Kind: ListItem, Runs: b.Runs}}
			} else {
				b.Blocks = []Block{{Kind: ListItem, Runs: []Run{{}}}}
			}
		}
		b.Runs = nil
		for i := range b.Blocks {
			normalizeBlock(&b.Blocks[i])
		}
		return
	}
	b.Blocks = nil
	if len(b.Runs) == 0 {
		b.Runs = []Run{{}}
	}
}

// Clone returns a deep copy. History snapshots and external reads go
// through Clone so no caller can alias the live run slices.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Blocks: make([]Block, len(d.Blocks))}
	for i := range d.Blocks {
		out.Blocks[i] = cloneBlock(d.Blocks[i])
	}
	return out
}

func cloneBlock(b Block) Block {
	out := Block{Kind: b.Kind}
	if len(b.Blocks) > 0 {
		out.Blocks = make([]Block, len(b.Blocks))
		for i := range b.Blocks {
			out.Blocks[i] = cloneBlock(b.Blocks[i])
		}
	}
	if len(b.Runs) > 0 {
		out.Runs = make([]Run, len(b.Runs))
		for i, r := range b.Runs {
			out.Runs[i] = Run{Text: r.Text, Marks: cloneMarks(r.Marks)}
		}
	}
	return out
}

// Equal reports structural equality: same tree shape, same run texts, same
// marks in the same order.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	if len(d.Blocks) != len(other.Blocks) {
		return false
	}
	for i := range d.Blocks {
		if !blockEqual(&d.Blocks[i], &other.Blocks[i]) {
			return false
		}
	}
	return true
}

func blockEqual(a, b *Block) bool {
	if a.Kind != b.Kind || len(a.Blocks) != len(b.Blocks) || len(a.Runs) != len(b.Runs) {
		return false
	}
	for i := range a.Blocks {
		if !blockEqual(&a.Blocks[i], &b.Blocks[i]) {
			return false
		}
	}
	for i := range a.Runs {
		if a.Runs[i].Text != b.Runs[i].Text || !marksEqual(a.Runs[i].Marks, b.Runs[i].Marks) {
			return false
		}
	}
	return true
}

// block resolves a path to any block node, container or leaf.
func (d *Document) block(p Path) (*Block, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRange)
	}
	if p[0] < 0 || p[0] >= len(d.Blocks) {
		return nil, fmt.Errorf("%w: block %v not found", ErrInvalidRange, p)
	}
	b := &d.Blocks[p[0]]
	for _, idx := range p[1:] {
		if idx < 0 || idx >= len(b.Blocks) {
			return nil, fmt.Errorf("%w: block %v not found", ErrInvalidRange, p)
		}
		b = &b.Blocks[idx]
	}
	return b, nil
}

// leaf resolves a path to a leaf block (one holding runs).
func (d *Document) leaf(p Path) (*Block, error) {
	b, err := d.block(p)
	if err != nil {
		return nil, err
	}
	if b.Kind.IsContainer() {
		return nil, fmt.Errorf("%w: %v is not a leaf block", ErrInvalidRange, p)
	}
	return b, nil
}

// LeafPaths returns the paths of all leaf blocks in document order.
func (d *Document) LeafPaths() []Path {
	var paths []Path
	for i := range d.Blocks {
		if d.Blocks[i].Kind.IsContainer() {
			for j := range d.Blocks[i].Blocks {
				paths = append(paths, Path{i, j})
			}
			continue
		}
		paths = append(paths, Path{i})
	}
	return paths
}

// LeafText returns the concatenated run text of the leaf block at p.
func (d *Document) LeafText(p Path) (string, error) {
	b, err := d.leaf(p)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String(), nil
}

// Start returns a point at the very beginning of the document.
func (d *Document) Start() Point {
	paths := d.LeafPaths()
	if len(paths) == 0 {
		return Point{Path: Path{0}}
	}
	return Point{Path: paths[0]}
}

// End returns a point just past the last rune of the document.
func (d *Document) End() Point {
	paths := d.LeafPaths()
	if len(paths) == 0 {
		return Point{Path: Path{0}}
	}
	last := paths[len(paths)-1]
	b, err := d.leaf(last)
	if err != nil {
		return Point{Path: last}
	}
	return Point{Path: last, Offset: b.length()}
}

// validatePoint checks that the point addresses a rune boundary inside an
// existing leaf block.
func (d *Document) validatePoint(p Point) error {
	b, err := d.leaf(p.Path)
	if err != nil {
		return err
	}
	if p.Offset < 0 || p.Offset > b.length() {
		return fmt.Errorf("%w: offset %d outside block %v (length %d)",
			ErrInvalidRange, p.Offset, p.Path, b.length())
	}
	return nil
}

// validateRange checks both endpoints. Mutating operations call this before
// touching anything so they fail atomically.
func (d *Document) validateRange(r Range) error {
	if err := d.validatePoint(r.Anchor); err != nil {
		return err
	}
	return d.validatePoint(r.Focus)
}

// PlainText concatenates the text inside the range, with "\n" between leaf
// blocks. A nil range means the whole document. Collapsed ranges yield ""
// without error: reading is informational, only mutation demands a
// selection.
func (d *Document) PlainText(r *Range) (string, error) {
	if r == nil {
		whole := Range{Anchor: d.Start(), Focus: d.End()}
		return d.PlainText(&whole)
	}
	if err := d.validateRange(*r); err != nil {
		return "", err
	}
	start, end := r.Ordered()
	var sb strings.Builder
	first := true
	for _, p := range d.LeafPaths() {
		if p.Compare(start.Path) < 0 || p.Compare(end.Path) > 0 {
			continue
		}
		b, err := d.leaf(p)
		if err != nil {
			return "", err
		}
		text := []rune(blockText(b))
		from, to := 0, len(text)
		if p.Equal(start.Path) {
			from = start.Offset
		}
		if p.Equal(end.Path) {
			to = end.Offset
		}
		if !first {
			sb.WriteString("\n")
		}
		first = false
		sb.WriteString(string(text[from:to]))
	}
	return sb.String(), nil
}

func blockText(b *Block) string {
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}
