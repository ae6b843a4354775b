package document

// Path addresses a block by index from the document root: one element for a
// top-level block, two for a list item. Paths are logical addresses - they
// are never persisted and are recomputed from the live tree on every
// selection change.
type Path []int

// Equal reports element-wise equality.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Compare orders paths lexicographically in document order. A prefix sorts
// before its descendants.
func (p Path) Compare(other Path) int {
	for i := 0; i < len(p) && i < len(other); i++ {
		if p[i] != other[i] {
			if p[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	}
	return 0
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Point is one logical position: a leaf block plus a rune offset into that
// block's concatenated text.
type Point struct {
	Path   Path
	Offset int
}

// Equal reports whether both points address the same position.
func (p Point) Equal(other Point) bool {
	return p.Path.Equal(other.Path) && p.Offset == other.Offset
}

// Before reports whether p precedes other in document order.
func (p Point) Before(other Point) bool {
	if c := p.Path.Compare(other.Path); c != 0 {
		return c < 0
	}
	return p.Offset < other.Offset
}

// Range is a logical selection between two points. Anchor is where the
// selection started, Focus where it ends; Focus may precede Anchor when the
// user selected backwards.
type Range struct {
	Anchor Point
	Focus  Point
}

// IsCollapsed reports whether the range is a caret (anchor equals focus).
func (r Range) IsCollapsed() bool {
	return r.Anchor.Equal(r.Focus)
}

// Ordered returns the range endpoints in document order.
func (r Range) Ordered() (start, end Point) {
	if r.Focus.Before(r.Anchor) {
		return r.Focus, r.Anchor
	}
	return r.Anchor, r.Focus
}

// Clone returns a copy with no shared path storage.
func (r Range) Clone() Range {
	return Range{
		Anchor: Point{Path: r.Anchor.Path.Clone(), Offset: r.Anchor.Offset},
		Focus:  Point{Path: r.Focus.Path.Clone(), Offset: r.Focus.Offset},
	}
}
