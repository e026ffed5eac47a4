package cif

import "strings"

// This file implements spec.md §4.I's update propagator: the part of the
// store that keeps foreign-key columns in step with their parent's primary
// key as rows are edited or removed. It is built on top of the link
// groups a Validator attaches to categories (validator.go, datablock.go).
//
// Three things make this harder than an ordinary cascading update:
//
//   - A child row's foreign key is just literal column values, not a row
//     pointer, so "does this child still have a valid parent" is a key
//     lookup, not a pointer check.
//   - A child row can be bound to several parent rows at once, one per
//     link group. When only one of those parents is renamed, the child
//     must follow it without being taken away from the others: if the
//     child still resolves to a live parent row (other than the one being
//     renamed) through another link group, the child row is cloned and
//     only the clone is rewritten (see cascadeRename).
//   - A chain of link groups can cycle back on itself (A parents B parents
//     A via a different group). Recursion guards against that with a
//     visited-row set populated before descending, not after.

// linkKeyValues snapshots cat's key columns for row, in lg key order.
func linkKeyValues(cat *Category, row *Row, keys []string) []Field {
	out := make([]Field, len(keys))
	for i, k := range keys {
		out[i] = cat.Value(row, k)
	}
	return out
}

// linkKeyTuple joins a snapshot into a single comparable string. Unknown
// and inapplicable values get distinct sentinels so neither collides with
// a literal matching piece of text (mirrors Category.keyTuple).
func linkKeyTuple(values []Field) string {
	var b strings.Builder
	for i, f := range values {
		if i > 0 {
			b.WriteByte(0)
		}
		switch {
		case f.IsUnknown():
			b.WriteString("\x00unknown\x00")
		case f.IsInapplicable():
			b.WriteString("\x00inapplicable\x00")
		default:
			b.WriteString(collapseSpaceRuns(strings.ToLower(f.text)))
		}
	}
	return b.String()
}

func blankLinkValues(n int) []Field {
	out := make([]Field, n)
	for i := range out {
		out[i] = Field{}
	}
	return out
}

// applyLinkValues writes values into row's keys columns, creating columns
// as needed.
func applyLinkValues(cat *Category, row *Row, keys []string, values []Field) error {
	for i, k := range keys {
		ix, err := cat.AddColumn(k)
		if err != nil {
			return err
		}
		f := values[i]
		switch {
		case f.IsUnknown():
			row.deleteCellAt(uint16(ix))
		case f.IsInapplicable():
			row.setCellAt(uint16(ix), cellInapplicable, ".")
		default:
			row.setCellAt(uint16(ix), cellText, f.text)
		}
	}
	return nil
}

// resolvesLiveParent reports whether tuple (a child row's key values under
// some link group) currently matches an existing row of parent, under
// parent's keys columns.
func resolvesLiveParent(parent *Category, keys []string, tuple string) bool {
	for r := parent.head; r != nil; r = r.next {
		if linkKeyTuple(linkKeyValues(parent, r, keys)) == tuple {
			return true
		}
	}
	return false
}

// childHasOtherLiveParent reports whether crow, through some child link
// group other than skip, currently resolves to a live row of its parent
// category other than except (the parent row being renamed or erased,
// which does not count as another parent). This is the split-on-cascade
// predicate: if true, crow is shared with another parent and must not be
// silently reparented by a write that only touches skip's columns.
func childHasOtherLiveParent(child *Category, crow *Row, skip *LinkValidator, except *Row) bool {
	for _, lg := range child.childLinks {
		if lg == skip {
			continue
		}
		parent := child.parentCategory(lg)
		if parent == nil {
			continue
		}
		tuple := linkKeyTuple(linkKeyValues(child, crow, lg.ChildKeys))
		if tuple == "" {
			continue
		}
		for r := parent.head; r != nil; r = r.next {
			if r != except && linkKeyTuple(linkKeyValues(parent, r, lg.ParentKeys)) == tuple {
				return true
			}
		}
	}
	return false
}

// findRowsByFKTuple scans child for every row whose keys tuple equals
// tuple. A plain linear scan: the transient PK hash only ever indexes a
// category's own primary key, not an arbitrary foreign-key column set.
func findRowsByFKTuple(child *Category, keys []string, tuple string) []*Row {
	var out []*Row
	for r := child.head; r != nil; r = r.next {
		if linkKeyTuple(linkKeyValues(child, r, keys)) == tuple {
			out = append(out, r)
		}
	}
	return out
}

// SetCell rewrites row's tag field within cat, validating the new value
// and propagating any parent-key change across every link group where cat
// is the parent.
func (cat *Category) SetCell(row *Row, tag string, v FieldValue) error {
	if err := cat.validateWrite(tag, v); err != nil {
		return err
	}
	ix, err := cat.AddColumn(tag)
	if err != nil {
		return err
	}

	touched := touchesKeyColumn(cat, ix)
	var before map[*LinkValidator][]Field
	if touched && len(cat.parentLinks) > 0 {
		before = make(map[*LinkValidator][]Field, len(cat.parentLinks))
		for _, lg := range cat.parentLinks {
			before[lg] = linkKeyValues(cat, row, lg.ParentKeys)
		}
	}

	cat.invalidatePKIndex()
	if err := applyFieldValue(cat, row, ix, v); err != nil {
		return err
	}

	if before != nil {
		for _, lg := range cat.parentLinks {
			after := linkKeyValues(cat, row, lg.ParentKeys)
			oldTuple, newTuple := linkKeyTuple(before[lg]), linkKeyTuple(after)
			if oldTuple == newTuple {
				continue
			}
			if err := cat.cascadeRename(lg, row, oldTuple, after, make(map[*Row]bool)); err != nil {
				return err
			}
		}
	}
	if _, ok := cat.keyTuple(row); ok {
		cat.ensurePKIndex()
	}
	return nil
}

func applyFieldValue(cat *Category, row *Row, ix int, v FieldValue) error {
	switch {
	case v.unknown:
		row.deleteCellAt(uint16(ix))
	case v.kind == cellInapplicable:
		row.setCellAt(uint16(ix), cellInapplicable, ".")
	default:
		row.setCellAt(uint16(ix), cellText, v.text)
	}
	return nil
}

// touchesKeyColumn reports whether column ix participates in any of cat's
// link groups as a parent key, so a plain field write that doesn't touch a
// key never pays for a cascade scan.
func touchesKeyColumn(cat *Category, ix int) bool {
	if ix >= len(cat.columns) {
		return false
	}
	return len(cat.parentLinksForColumn(ix)) > 0
}

// cascadeRename propagates a parent row's key change (oldTuple -> the
// tuple implied by afterValues) to every child row that referenced
// oldTuple under lg.
//
// A matching child row that also resolves, through some other link group,
// to a live parent row other than parentRow is shared: cloning it lets the clone follow this row to
// its new key while the original keeps serving its other link group
// unchanged (spec.md §4.I, "split on cascade"). A child row with no other
// live link group is rewritten in place.
func (cat *Category) cascadeRename(lg *LinkValidator, parentRow *Row, oldTuple string, afterValues []Field, visited map[*Row]bool) error {
	child := cat.childCategory(lg)
	if child == nil || oldTuple == "" {
		return nil
	}
	matches := findRowsByFKTuple(child, lg.ChildKeys, oldTuple)
	for _, crow := range matches {
		if visited[crow] {
			continue
		}
		target := crow
		if childHasOtherLiveParent(child, crow, lg, parentRow) {
			clone := crow.clone()
			child.appendRow(clone)
			target = clone
		}
		visited[target] = true
		if err := child.checkFKRewriteDuplicate(target, lg.ChildKeys, afterValues); err != nil {
			return err
		}
		child.invalidatePKIndex()
		if err := applyLinkValues(child, target, lg.ChildKeys, afterValues); err != nil {
			return err
		}
		if err := child.cascadeDescendants(target, visited); err != nil {
			return err
		}
	}
	return nil
}

// checkFKRewriteDuplicate reports a *ValidationError wrapping
// ErrDuplicateKey if rewriting row's keys columns to values would collide
// with child's own primary key on some other row.
func (c *Category) checkFKRewriteDuplicate(row *Row, keys []string, values []Field) error {
	if c.catValidator == nil || len(c.catValidator.Keys) == 0 {
		return nil
	}
	sameAsOwnKey := false
	for _, k := range keys {
		for _, pk := range c.catValidator.Keys {
			if iequals(k, pk) {
				sameAsOwnKey = true
			}
		}
	}
	if !sameAsOwnKey {
		return nil
	}
	probe := row.clone()
	if err := applyLinkValues(c, probe, keys, values); err != nil {
		return err
	}
	if existing := c.findByKey(probe); existing != nil && existing != row {
		return &ValidationError{Category: c.name, Message: "cascade would duplicate primary key", Err: ErrDuplicateKey}
	}
	return nil
}

// cascadeDescendants re-propagates row's own parent-key tuples to its
// children, after row's fields were rewritten by an ancestor's cascade.
// This is what lets a rename ripple through a chain of link groups instead
// of stopping one level down.
func (cat *Category) cascadeDescendants(row *Row, visited map[*Row]bool) error {
	for _, lg := range cat.parentLinks {
		values := linkKeyValues(cat, row, lg.ParentKeys)
		tuple := linkKeyTuple(values)
		if tuple == "" {
			continue
		}
		if err := cat.cascadeRename(lg, row, tuple, values, visited); err != nil {
			return err
		}
	}
	return nil
}

// Erase removes row from cat. For every link group where cat is the
// parent, child rows whose join tuple matches row's key are erased
// entirely (recursively) if they have no other live parent link group;
// otherwise only the removed link's own columns are blanked to Unknown,
// leaving the row bound to its other parent (spec.md §4.I). Cycles in the
// parent graph are broken by a visited-row set shared across the whole
// cascade.
func (cat *Category) Erase(row *Row) error {
	if err := cat.eraseCascade(row, make(map[*Row]bool)); err != nil {
		return err
	}
	cat.invalidatePKIndex()
	cat.unlinkRow(row)
	return nil
}

func (cat *Category) eraseCascade(row *Row, visited map[*Row]bool) error {
	if visited[row] {
		return nil
	}
	visited[row] = true
	for _, lg := range cat.parentLinks {
		oldTuple := linkKeyTuple(linkKeyValues(cat, row, lg.ParentKeys))
		if oldTuple == "" {
			continue
		}
		child := cat.childCategory(lg)
		if child == nil {
			continue
		}
		for _, crow := range findRowsByFKTuple(child, lg.ChildKeys, oldTuple) {
			if visited[crow] {
				continue
			}
			if childHasOtherLiveParent(child, crow, lg, row) {
				visited[crow] = true
				child.invalidatePKIndex()
				blank := blankLinkValues(len(lg.ChildKeys))
				if err := applyLinkValues(child, crow, lg.ChildKeys, blank); err != nil {
					return err
				}
				continue
			}
			if err := child.eraseCascade(crow, visited); err != nil {
				return err
			}
			child.invalidatePKIndex()
			child.unlinkRow(crow)
		}
	}
	return nil
}
