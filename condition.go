package cif

import "regexp"

// compareOp is one of the ordering comparisons a KeyCompare condition can
// apply (spec.md §4.G).
type compareOp int

const (
	opLess compareOp = iota
	opLessOrEqual
	opGreater
	opGreaterOrEqual
)

// conditionKind tags which predicate a Condition node applies. Conditions
// are a small closed set (spec.md §4.G), so a tagged variant is a better
// fit here than an interface hierarchy: evaluation is one switch, and
// Prepare can resolve every column reference in a single pass.
type conditionKind int

const (
	condKeyEquals conditionKind = iota
	condKeyNotEquals
	condKeyIsEmpty
	condKeyCompare
	condKeyMatchesRegex
	condAnyEquals
	condAnyMatchesRegex
	condAnd
	condOr
	condAll
)

// Condition is a predicate over a Category's rows. Build one with the
// KeyEquals/KeyCompare/... constructors below, combine with And/Or, then
// call Prepare once per category before evaluating it against rows —
// Prepare resolves every tag to a column index so Matches itself never
// touches the column-name map.
type Condition struct {
	kind     conditionKind
	tag      string
	value    string
	op       compareOp
	pattern  *regexp.Regexp
	children []*Condition

	col      int // resolved by Prepare; -1 until then or if the tag has no column
	prepared *Category
}

// KeyEquals matches rows whose tag field equals value under the column's
// type compare rule (or plain string equality if untyped).
func KeyEquals(tag, value string) *Condition {
	return &Condition{kind: condKeyEquals, tag: tag, value: value, col: -1}
}

// KeyNotEquals is the negation of KeyEquals.
func KeyNotEquals(tag, value string) *Condition {
	return &Condition{kind: condKeyNotEquals, tag: tag, value: value, col: -1}
}

// KeyIsEmpty matches rows where tag is unknown ('?'), absent, or
// inapplicable ('.').
func KeyIsEmpty(tag string) *Condition {
	return &Condition{kind: condKeyIsEmpty, tag: tag, col: -1}
}

// KeyCompare matches rows whose tag field stands in the given order
// relation to value.
func KeyCompare(tag string, op compareOp, value string) *Condition {
	return &Condition{kind: condKeyCompare, tag: tag, value: value, op: op, col: -1}
}

// KeyMatchesRegex matches rows whose tag field matches pattern (a POSIX
// ERE, compiled the same way a dictionary's type patterns are).
func KeyMatchesRegex(tag, pattern string) (*Condition, error) {
	re, err := regexp.CompilePOSIX(pattern)
	if err != nil {
		return nil, err
	}
	return &Condition{kind: condKeyMatchesRegex, tag: tag, pattern: re, col: -1}, nil
}

// AnyEquals matches a row if any of its present, non-inapplicable fields
// equals value — a linear scan of the row's cells, not a single column.
func AnyEquals(value string) *Condition {
	return &Condition{kind: condAnyEquals, value: value, col: -1}
}

// AnyMatchesRegex matches a row if any of its present, non-inapplicable
// fields matches pattern.
func AnyMatchesRegex(pattern string) (*Condition, error) {
	re, err := regexp.CompilePOSIX(pattern)
	if err != nil {
		return nil, err
	}
	return &Condition{kind: condAnyMatchesRegex, pattern: re, col: -1}, nil
}

// And/Or combine sub-conditions; Prepare recurses into every child.
func And(children ...*Condition) *Condition { return &Condition{kind: condAnd, children: children, col: -1} }
func Or(children ...*Condition) *Condition  { return &Condition{kind: condOr, children: children, col: -1} }

// All matches every row unconditionally.
func All() *Condition { return &Condition{kind: condAll, col: -1} }

// Prepare resolves every tag reference against cat's column layout. Call
// it once after building a Condition and before Matches/Find; it is
// inexpensive to call again if the category gained columns since.
func (cnd *Condition) Prepare(cat *Category) {
	cnd.prepared = cat
	switch cnd.kind {
	case condKeyEquals, condKeyNotEquals, condKeyIsEmpty, condKeyCompare, condKeyMatchesRegex:
		cnd.col = cat.GetColumnIx(cat.resolveAlias(cnd.tag))
	case condAnd, condOr:
		for _, c := range cnd.children {
			c.Prepare(cat)
		}
	}
}

// Matches evaluates the condition against row. cat must be the same
// category (or an equivalent layout) the condition was Prepared against;
// Matches re-prepares automatically if it was not, or was prepared
// against a different category.
func (cnd *Condition) Matches(cat *Category, row *Row) bool {
	if cnd.prepared != cat {
		cnd.Prepare(cat)
	}
	switch cnd.kind {
	case condAll:
		return true
	case condAnd:
		for _, c := range cnd.children {
			if !c.Matches(cat, row) {
				return false
			}
		}
		return true
	case condOr:
		for _, c := range cnd.children {
			if c.Matches(cat, row) {
				return true
			}
		}
		return false
	case condKeyIsEmpty:
		f := cnd.fieldAt(cat, row)
		return f.IsUnknown() || f.IsInapplicable()
	case condKeyEquals:
		return cnd.keyCompare(cat, row) == 0
	case condKeyNotEquals:
		return cnd.keyCompare(cat, row) != 0
	case condKeyCompare:
		c := cnd.keyCompare(cat, row)
		switch cnd.op {
		case opLess:
			return c < 0
		case opLessOrEqual:
			return c <= 0
		case opGreater:
			return c > 0
		default:
			return c >= 0
		}
	case condKeyMatchesRegex:
		f := cnd.fieldAt(cat, row)
		return !f.IsUnknown() && !f.IsInapplicable() && cnd.pattern.MatchString(f.String())
	case condAnyEquals:
		return cnd.anyMatch(row, func(s string) bool { return s == cnd.value })
	case condAnyMatchesRegex:
		return cnd.anyMatch(row, cnd.pattern.MatchString)
	}
	return false
}

func (cnd *Condition) fieldAt(cat *Category, row *Row) Field {
	if cnd.col < 0 || cnd.col >= len(cat.columns) {
		return Field{}
	}
	cell := row.cellAt(uint16(cnd.col))
	if cell == nil {
		return Field{}
	}
	return Field{present: true, inapplicable: cell.kind == cellInapplicable, text: cell.text}
}

func (cnd *Condition) keyCompare(cat *Category, row *Row) int {
	f := cnd.fieldAt(cat, row)
	if f.IsUnknown() || f.IsInapplicable() {
		return -1 // unknown/inapplicable sorts before any concrete value
	}
	if cnd.col < len(cat.columns) {
		if iv := cat.columns[cnd.col].validator; iv != nil && iv.typ != nil {
			return iv.typ.compare(f.text, cnd.value)
		}
	}
	if f.text == cnd.value {
		return 0
	}
	if f.text < cnd.value {
		return -1
	}
	return 1
}

func (cnd *Condition) anyMatch(row *Row, pred func(string) bool) bool {
	for c := row.head; c != nil; c = c.next {
		if c.kind == cellInapplicable {
			continue
		}
		if pred(c.text) {
			return true
		}
	}
	return false
}

// Find returns every row in cat matching cnd, in row order.
func Find(cat *Category, cnd *Condition) []*Row {
	cnd.Prepare(cat)
	var out []*Row
	for r := cat.head; r != nil; r = r.next {
		if cnd.Matches(cat, r) {
			out = append(out, r)
		}
	}
	return out
}

// FindOne returns the single row in cat matching cnd — spec.md §4.H's
// find1, which asserts exactly one hit rather than picking an arbitrary
// one. Zero hits or more than one hit is reported as an error instead of
// silently returning nil or the first match: the original
// (original_source/include/cif++/v2/category.hpp's find1) throws "No hits
// found" / "Hit not unique" for these two cases, and this keeps both
// reachable failures visible to the caller, just via a returned
// *ValidationError rather than a panic.
func FindOne(cat *Category, cnd *Condition) (*Row, error) {
	cnd.Prepare(cat)
	var hit *Row
	count := 0
	for r := cat.head; r != nil; r = r.next {
		if !cnd.Matches(cat, r) {
			continue
		}
		count++
		if count == 1 {
			hit = r
			continue
		}
		break // non-uniqueness is settled; no need to keep scanning
	}
	switch count {
	case 0:
		return nil, &ValidationError{Category: cat.name, Message: "no hits found"}
	case 1:
		return hit, nil
	default:
		return nil, &ValidationError{Category: cat.name, Message: "hit not unique"}
	}
}

// findFirst returns the first row in cat matching cnd, or nil. Unlike
// FindOne it makes no uniqueness assertion; it exists for Exists, which
// only cares whether at least one row matches.
func findFirst(cat *Category, cnd *Condition) *Row {
	cnd.Prepare(cat)
	for r := cat.head; r != nil; r = r.next {
		if cnd.Matches(cat, r) {
			return r
		}
	}
	return nil
}

// Exists reports whether any row in cat matches cnd.
func Exists(cat *Category, cnd *Condition) bool {
	return findFirst(cat, cnd) != nil
}
