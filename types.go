package cif

// cellKind distinguishes a literal text value from the CIF "inapplicable"
// sentinel ('.'). Unknown ('?') is represented by the absence of a cell
// altogether (spec.md §3: "absence of a cell means the field is unknown").
// Keeping inapplicable as its own kind (rather than folding it into Text)
// is what lets a quoted literal "." round-trip distinctly from an unquoted
// inapplicable marker.
type cellKind uint8

const (
	cellText cellKind = iota
	cellInapplicable
)

// Cell holds one (column, value) pair within a Row. Cells form a singly
// linked list per spec.md §3/§4.B; only columns with a present value get a
// cell, so a narrow row (the common case in mmCIF, rarely more than ~30
// cells) costs little to scan linearly.
//
// The source this is ported from packs a cell into 24 bytes with an inline
// small-string buffer for short payloads and a heap pointer for the rest.
// Go's string header already gives us a comparable small/large split for
// free (a string value is a 16-byte descriptor regardless of length, with
// the backing array allocated separately), so this type does not attempt
// to bit-match the 24-byte budget.
type Cell struct {
	next   *Cell
	column uint16
	kind   cellKind
	text   string
}

// IsInapplicable reports whether this cell holds the CIF "inapplicable"
// sentinel value ('.') rather than literal text.
func (c *Cell) IsInapplicable() bool { return c != nil && c.kind == cellInapplicable }

// Text returns the cell's literal text. For an inapplicable cell this is
// always ".".
func (c *Cell) Text() string {
	if c == nil {
		return ""
	}
	if c.kind == cellInapplicable {
		return "."
	}
	return c.text
}

// Row is a singly linked list of Cells. A Row's address is its stable
// handle: predicate results and cascade bookkeeping refer to rows by
// pointer identity (spec.md §9, "Arena vs handles").
type Row struct {
	head *Cell
	next *Row // intra-category row order; see Category
}

// cellAt walks the row's cell list for the given column index.
func (r *Row) cellAt(col uint16) *Cell {
	for c := r.head; c != nil; c = c.next {
		if c.column == col {
			return c
		}
	}
	return nil
}

// setCellAt installs (or updates in place) the cell at col with the given
// text/kind, preserving list order (new cells are appended at the tail of
// the row's own list; an existing cell is updated where it stands).
func (r *Row) setCellAt(col uint16, kind cellKind, text string) {
	if c := r.cellAt(col); c != nil {
		c.kind, c.text = kind, text
		return
	}
	nc := &Cell{column: col, kind: kind, text: text}
	if r.head == nil {
		r.head = nc
		return
	}
	last := r.head
	for last.next != nil {
		last = last.next
	}
	last.next = nc
}

// deleteCellAt removes the cell at col, if any (a rewrite to Unknown is a
// deletion, not a text cell holding "?").
func (r *Row) deleteCellAt(col uint16) {
	var prev *Cell
	for c := r.head; c != nil; c = c.next {
		if c.column == col {
			if prev == nil {
				r.head = c.next
			} else {
				prev.next = c.next
			}
			return
		}
		prev = c
	}
}

// clone deep-copies a row's cell list. Used by the update propagator's
// split-on-cascade (spec.md §4.I).
func (r *Row) clone() *Row {
	nr := &Row{}
	var tail *Cell
	for c := r.head; c != nil; c = c.next {
		nc := &Cell{column: c.column, kind: c.kind, text: c.text}
		if tail == nil {
			nr.head = nc
		} else {
			tail.next = nc
		}
		tail = nc
	}
	return nr
}

// Column is one named slot in a Category's row layout.
type Column struct {
	Name      string
	validator *ItemValidator
}
