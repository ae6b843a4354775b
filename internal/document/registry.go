package document

// MarkSpec declares how a mark kind behaves: whether it toggles on repeat
// application, which exclusive group it belongs to, and where it nests when
// rendered. Higher priority wraps further out, so an issue highlight always
// encloses the bold/italic decorations inside it regardless of the order
// the marks were applied.
type MarkSpec struct {
	// ExclusiveGroup: applying a mark removes every other kind sharing the
	// group from the same run, in the same atomic operation.
	ExclusiveGroup string

	// IsToggle: applying the mark over a range it already fully covers
	// removes it instead (standard rich-text ergonomics).
	IsToggle bool

	// IsAnnotation: the mark carries a persisted payload and is clickable.
	IsAnnotation bool

	// Priority orders decoration nesting in the render pipeline: higher
	// wraps further out (issue 60, bookmark 50, bold 40, italic 30,
	// underline 20).
	Priority int
}

const alignmentGroup = "alignment"

// Spec returns the registry entry for a mark kind. The switch is the closed
// set: adding a kind without a case here leaves it behaving like an unknown
// external mark (preserved, undecorated), which the registry tests pin
// down.
func Spec(kind MarkKind) MarkSpec {
	switch kind {
	case MarkBold:
		return MarkSpec{IsToggle: true, Priority: 40}
	case MarkItalic:
		return MarkSpec{IsToggle: true, Priority: 30}
	case MarkUnderline:
		return MarkSpec{IsToggle: true, Priority: 20}
	case MarkAlignLeft, MarkAlignCenter, MarkAlignRight:
		return MarkSpec{IsToggle: true, ExclusiveGroup: alignmentGroup}
	case MarkBookmark:
		return MarkSpec{IsAnnotation: true, Priority: 50}
	case MarkIssue:
		return MarkSpec{IsAnnotation: true, Priority: 60}
	}
	// Unknown kind from a newer document version: no behavior, no
	// decoration, payload preserved.
	return MarkSpec{}
}

// KnownKinds lists the closed set in registry order.
func KnownKinds() []MarkKind {
	return []MarkKind{
		MarkBold, MarkItalic, MarkUnderline,
		MarkAlignLeft, MarkAlignCenter, MarkAlignRight,
		MarkBookmark, MarkIssue,
	}
}

// IsKnown reports whether the kind is part of the closed set.
func IsKnown(kind MarkKind) bool {
	for _, k := range KnownKinds() {
		if k == kind {
			return true
		}
	}
	return false
}
