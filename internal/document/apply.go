package document

import "fmt"

// ApplyMark adds a mark to every run inside the range, splitting runs whose
// bounds straddle the range endpoints. Splitting preserves all other marks
// on the resulting fragments.
//
// Toggle kinds (bold, italic, underline, alignment) that already cover the
// entire range toggle off instead - the operation becomes RemoveMark.
// Applying a member of an exclusive group removes the other members from
// the touched runs in the same operation.
//
// The range is validated in full before any mutation, so the call either
// fully succeeds or leaves the document untouched. A collapsed range fails
// with ErrNoSelection: marking requires selected text.
func (d *Document) ApplyMark(r Range, m Mark) error {
	if r.IsCollapsed() {
		return fmt.Errorf("apply %s: %w", m.Kind, ErrNoSelection)
	}
	if err := d.validateRange(r); err != nil {
		return fmt.Errorf("apply %s: %w", m.Kind, err)
	}
	spec := Spec(m.Kind)
	if spec.IsToggle && d.rangeFullyMarked(r, m.Kind) {
		return d.RemoveMark(r, m.Kind)
	}

	start, end := r.Ordered()
	for _, p := range d.LeafPaths() {
		if p.Compare(start.Path) < 0 || p.Compare(end.Path) > 0 {
			continue
		}
		b, err := d.leaf(p)
		if err != nil {
			return fmt.Errorf("apply %s: %w", m.Kind, err)
		}
		from, to := localSpan(p, start, end, b.length())
		if from == to {
			continue
		}
		i, j := splitRuns(b, from, to)
		for k := i; k < j; k++ {
			run := &b.Runs[k]
			if spec.ExclusiveGroup != "" {
				dropGroup(run, spec.ExclusiveGroup)
			}
			dropKind(run, m.Kind)
			// Appending last makes this the most recently applied, and
			// therefore the innermost at an overlap.
			run.Marks = append(run.Marks, m.Clone())
		}
		mergeRuns(b)
	}
	return nil
}

// RemoveMark strips the mark kind from every run inside the range, with the
// same splitting and atomicity rules as ApplyMark. The portion of a run
// outside the range keeps the mark (standard subrange semantics).
func (d *Document) RemoveMark(r Range, kind MarkKind) error {
	if r.IsCollapsed() {
		return fmt.Errorf("remove %s: %w", kind, ErrNoSelection)
	}
	if err := d.validateRange(r); err != nil {
		return fmt.Errorf("remove %s: %w", kind, err)
	}
	start, end := r.Ordered()
	for _, p := range d.LeafPaths() {
		if p.Compare(start.Path) < 0 || p.Compare(end.Path) > 0 {
			continue
		}
		b, err := d.leaf(p)
		if err != nil {
			return fmt.Errorf("remove %s: %w", kind, err)
		}
		from, to := localSpan(p, start, end, b.length())
		if from == to {
			continue
		}
		i, j := splitRuns(b, from, to)
		for k := i; k < j; k++ {
			dropKind(&b.Runs[k], kind)
		}
		mergeRuns(b)
	}
	return nil
}

// SetBlockKind changes the structural kind of the block at path. Converting
// a leaf into a list wraps its runs in a single item; converting a list
// into a leaf flattens its items' runs in order.
func (d *Document) SetBlockKind(p Path, kind BlockKind) error {
	b, err := d.block(p)
	if err != nil {
		return fmt.Errorf("set block kind %s: %w", kind, err)
	}
	if b.Kind == kind {
		return nil
	}
	wasContainer, isContainer := b.Kind.IsContainer(), kind.IsContainer()
	b.Kind = kind
	switch {
	case !wasContainer && isContainer:
		b.Blocks = []Block{{Kind: ListItem, Runs: b.Runs}}
		b.Runs = nil
	case wasContainer && !isContainer:
		var runs []Run
		for _, item := range b.Blocks {
			runs = append(runs, item.Runs...)
		}
		b.Blocks = nil
		b.Runs = runs
		if len(b.Runs) == 0 {
			b.Runs = []Run{{}}
		}
		mergeRuns(b)
	}
	return nil
}

// InsertBlocks inserts blocks at the given top-level index. Used by the
// paste path, which splits clipboard text into paragraph blocks.
func (d *Document) InsertBlocks(index int, blocks []Block) error {
	if index < 0 || index > len(d.Blocks) {
		return fmt.Errorf("insert blocks at %d: %w", index, ErrInvalidRange)
	}
	if len(blocks) == 0 {
		return nil
	}
	out := make([]Block, 0, len(d.Blocks)+len(blocks))
	out = append(out, d.Blocks[:index]...)
	for _, b := range blocks {
		out = append(out, cloneBlock(b))
	}
	out = append(out, d.Blocks[index:]...)
	d.Blocks = out
	d.Normalize()
	return nil
}

// ParagraphsFromText splits plain text on newlines into paragraph blocks,
// one per line, mirroring how pasted clipboard text enters the document.
func ParagraphsFromText(text string) []Block {
	var blocks []Block
	line := []rune(nil)
	flush := func() {
		blocks = append(blocks, Block{Kind: Paragraph, Runs: []Run{{Text: string(line)}}})
		line = nil
	}
	for _, r := range text {
		if r == '\n' {
			flush()
			continue
		}
		line = append(line, r)
	}
	flush()
	return blocks
}

// rangeFullyMarked reports whether every rune in the (validated) range
// already carries the mark kind.
func (d *Document) rangeFullyMarked(r Range, kind MarkKind) bool {
	start, end := r.Ordered()
	for _, p := range d.LeafPaths() {
		if p.Compare(start.Path) < 0 || p.Compare(end.Path) > 0 {
			continue
		}
		b, err := d.leaf(p)
		if err != nil {
			return false
		}
		from, to := localSpan(p, start, end, b.length())
		if from == to {
			continue
		}
		pos := 0
		for _, run := range b.Runs {
			runLen := len([]rune(run.Text))
			runStart, runEnd := pos, pos+runLen
			pos = runEnd
			if runEnd <= from || runStart >= to {
				continue
			}
			if !run.HasMark(kind) {
				return false
			}
		}
	}
	return true
}

// localSpan clips the ordered range endpoints to one leaf block, returning
// rune offsets local to that block.
func localSpan(p Path, start, end Point, blockLen int) (from, to int) {
	from, to = 0, blockLen
	if p.Equal(start.Path) {
		from = start.Offset
	}
	if p.Equal(end.Path) {
		to = end.Offset
	}
	return from, to
}

// splitRuns splits the block's runs at the from/to offsets and returns the
// half-open index interval of runs fully inside [from, to). Fragments
// created by a split inherit a copy of the source run's mark set.
func splitRuns(b *Block, from, to int) (int, int) {
	splitAt(b, from)
	splitAt(b, to)
	first, last := len(b.Runs), len(b.Runs)
	pos := 0
	for idx, run := range b.Runs {
		runLen := len([]rune(run.Text))
		if pos >= from && pos+runLen <= to && pos < to {
			if idx < first {
				first = idx
			}
			last = idx + 1
		}
		pos += runLen
	}
	if first > last {
		return 0, 0
	}
	return first, last
}

// splitAt splits the run that straddles the offset, if any.
func splitAt(b *Block, offset int) {
	pos := 0
	for idx := range b.Runs {
		text := []rune(b.Runs[idx].Text)
		runStart, runEnd := pos, pos+len(text)
		pos = runEnd
		if offset <= runStart || offset >= runEnd {
			continue
		}
		cut := offset - runStart
		left := Run{Text: string(text[:cut]), Marks: cloneMarks(b.Runs[idx].Marks)}
		right := Run{Text: string(text[cut:]), Marks: cloneMarks(b.Runs[idx].Marks)}
		runs := make([]Run, 0, len(b.Runs)+1)
		runs = append(runs, b.Runs[:idx]...)
		runs = append(runs, left, right)
		runs = append(runs, b.Runs[idx+1:]...)
		b.Runs = runs
		return
	}
}

// mergeRuns coalesces adjacent runs with identical mark sets and drops
// empty runs, keeping one empty run when the block would otherwise have
// none. Merging keeps run fragmentation bounded across repeated mark
// operations.
func mergeRuns(b *Block) {
	var out []Run
	for _, run := range b.Runs {
		if run.Text == "" {
			continue
		}
		if n := len(out); n > 0 && marksEqual(out[n-1].Marks, run.Marks) {
			out[n-1].Text += run.Text
			continue
		}
		out = append(out, run)
	}
	if len(out) == 0 {
		out = []Run{{}}
	}
	b.Runs = out
}

// dropKind removes any mark of the given kind from the run.
func dropKind(run *Run, kind MarkKind) {
	out := run.Marks[:0]
	for _, m := range run.Marks {
		if m.Kind != kind {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		run.Marks = nil
		return
	}
	run.Marks = out
}

// dropGroup removes every mark whose kind belongs to the exclusive group.
func dropGroup(run *Run, group string) {
	out := run.Marks[:0]
	for _, m := range run.Marks {
		if Spec(m.Kind).ExclusiveGroup != group {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		run.Marks = nil
		return
	}
	run.Marks = out
}
