package cif

import "strings"

// FieldValue is the input half of a cell write: what a caller passes to
// Emplace or SetCell. It distinguishes the three CIF value kinds spec.md
// §8 calls out as boundary behavior: literal text, the inapplicable
// sentinel ('.'), and unknown (absence of a cell, '?').
type FieldValue struct {
	unknown bool
	kind    cellKind
	text    string
}

// Text wraps a literal value, quoted or not depending on how the
// serializer later decides to render it.
func Text(s string) FieldValue { return FieldValue{kind: cellText, text: s} }

// Inapplicable is the CIF "not applicable" sentinel value, written as an
// unquoted '.'.
func Inapplicable() FieldValue { return FieldValue{kind: cellInapplicable} }

// Unknown is the CIF "not known" sentinel value, written as an unquoted
// '?' and represented internally by the absence of a cell.
func Unknown() FieldValue { return FieldValue{unknown: true} }

// Field is the read side of a cell lookup: a snapshot of what Category.Value
// found for a given row and tag.
type Field struct {
	present      bool
	inapplicable bool
	text         string
}

// IsUnknown reports whether the field is absent ('?').
func (f Field) IsUnknown() bool { return !f.present }

// IsInapplicable reports whether the field holds the '.' sentinel.
func (f Field) IsInapplicable() bool { return f.present && f.inapplicable }

// String returns the field's text: "" for unknown, "." for inapplicable,
// otherwise the literal value.
func (f Field) String() string {
	if !f.present {
		return ""
	}
	if f.inapplicable {
		return "."
	}
	return f.text
}

// Category is a single named table within a DataBlock: an ordered column
// layout and an ordered, singly linked list of rows (spec.md §3/§4.E).
type Category struct {
	name     string
	columns  []Column
	colIndex map[string]int // lowercased name -> index into columns

	head, tail *Row
	rowCount   int

	block *DataBlock // non-owning; rebuilt by updateLinks

	validator    *Validator
	catValidator *CategoryValidator

	pkIndex map[string]*Row // transient primary-key hash, spec.md §1 Non-goals

	parentLinks []*LinkValidator // link groups where this category is the parent
	childLinks  []*LinkValidator // link groups where this category is the child
}

func newCategory(name string) *Category {
	return &Category{name: name, colIndex: make(map[string]int)}
}

// Name returns the category's name (without the leading underscore).
func (c *Category) Name() string { return c.name }

// Len returns the number of rows.
func (c *Category) Len() int { return c.rowCount }

// Columns returns the ordered column names.
func (c *Category) Columns() []string {
	names := make([]string, len(c.columns))
	for i, col := range c.columns {
		names[i] = col.Name
	}
	return names
}

// GetColumnIx returns the index of the named column (case-insensitive), or
// len(columns) if the column does not exist (spec.md §8, "Column idempotence").
func (c *Category) GetColumnIx(name string) int {
	if ix, ok := c.colIndex[strings.ToLower(name)]; ok {
		return ix
	}
	return len(c.columns)
}

// AddColumn appends a new column if one by this name (case-insensitively)
// does not already exist, and returns its index either way — idempotent,
// per spec.md §4.E/§8. When a strict validator is attached and the tag is
// not declared by it, AddColumn reports a *ValidationError instead of
// silently creating an unknown column.
func (c *Category) AddColumn(name string) (int, error) {
	ix, iv, err := c.resolveColumn(name)
	if err != nil {
		return 0, err
	}
	return c.commitColumn(name, ix, iv), nil
}

// resolveColumn reports whether a column named name already exists (ix
// >= 0) and, if not, the ItemValidator it would be created with — without
// mutating c.columns/c.colIndex. Emplace uses this to check every tag in
// an insert before committing any of them, so a rejected row never leaves
// a partially-added column behind.
func (c *Category) resolveColumn(name string) (ix int, iv *ItemValidator, err error) {
	key := strings.ToLower(name)
	if ix, ok := c.colIndex[key]; ok {
		return ix, nil, nil
	}
	if c.catValidator != nil {
		iv = c.catValidator.itemValidator(name)
		if iv == nil && c.validator != nil && c.validator.Strict {
			return 0, nil, &ValidationError{Category: c.name, Item: name,
				Message: "unknown tag under strict validator"}
		}
	}
	return -1, iv, nil
}

// commitColumn appends the column resolveColumn described (or returns its
// existing index unchanged) and returns the final column index.
func (c *Category) commitColumn(name string, ix int, iv *ItemValidator) int {
	if ix >= 0 {
		return ix
	}
	newIx := len(c.columns)
	c.columns = append(c.columns, Column{Name: name, validator: iv})
	c.colIndex[strings.ToLower(name)] = newIx
	return newIx
}

// Value looks up tag (resolving an alias if the category validator knows
// one) in row and returns its Field.
func (c *Category) Value(row *Row, tag string) Field {
	tag = c.resolveAlias(tag)
	ix := c.GetColumnIx(tag)
	if ix >= len(c.columns) {
		return Field{}
	}
	cell := row.cellAt(uint16(ix))
	if cell == nil {
		return Field{}
	}
	return Field{present: true, inapplicable: cell.kind == cellInapplicable, text: cell.text}
}

func (c *Category) resolveAlias(tag string) string {
	if c.catValidator == nil {
		return tag
	}
	if canon, ok := c.catValidator.aliases[strings.ToLower(tag)]; ok {
		return canon
	}
	return tag
}

// Rows returns, in insertion (or promoted) order, every row handle.
func (c *Category) Rows() []*Row {
	rows := make([]*Row, 0, c.rowCount)
	for r := c.head; r != nil; r = r.next {
		rows = append(rows, r)
	}
	return rows
}

// appendRow links r at the tail of the row list.
func (c *Category) appendRow(r *Row) {
	if c.head == nil {
		c.head, c.tail = r, r
	} else {
		c.tail.next = r
		c.tail = r
	}
	c.rowCount++
}

// unlinkRow removes r from the singly linked row list. O(n): rows are
// narrow but this walk is still linear, matching spec.md's "no persistent
// secondary indices" stance for anything beyond the PK hash.
func (c *Category) unlinkRow(target *Row) bool {
	var prev *Row
	for r := c.head; r != nil; r = r.next {
		if r == target {
			if prev == nil {
				c.head = r.next
			} else {
				prev.next = r.next
			}
			if c.tail == r {
				c.tail = prev
			}
			c.rowCount--
			return true
		}
		prev = r
	}
	return false
}

// keyTuple computes the normalized primary-key string for row, per
// spec.md §3's invariant ("case-aware normalization of UChar-typed keys").
// Returns ok=false if the category has no configured primary key.
func (c *Category) keyTuple(row *Row) (string, bool) {
	if c.catValidator == nil || len(c.catValidator.Keys) == 0 {
		return "", false
	}
	var b strings.Builder
	for i, key := range c.catValidator.Keys {
		if i > 0 {
			b.WriteByte(0)
		}
		f := c.Value(row, key)
		b.WriteString(c.normalizeKeyComponent(key, f))
	}
	return b.String(), true
}

func (c *Category) normalizeKeyComponent(tag string, f Field) string {
	if f.IsUnknown() {
		return "\x00unknown\x00"
	}
	s := f.String()
	iv := c.catValidator.itemValidator(tag)
	if iv != nil && iv.typ != nil && iv.typ.Primitive == PrimitiveUChar {
		return collapseSpaceRuns(strings.ToLower(s))
	}
	return collapseSpaceRuns(s)
}

// keyTupleFromItems computes the same normalized primary-key tuple as
// keyTuple, but reads straight out of an items map instead of a built Row.
// Emplace uses this to probe for a duplicate key before touching the
// category's column set at all.
func (c *Category) keyTupleFromItems(items map[string]FieldValue) (string, bool) {
	if c.catValidator == nil || len(c.catValidator.Keys) == 0 {
		return "", false
	}
	byLower := make(map[string]FieldValue, len(items))
	for tag, v := range items {
		byLower[strings.ToLower(c.resolveAlias(tag))] = v
	}
	var b strings.Builder
	for i, key := range c.catValidator.Keys {
		if i > 0 {
			b.WriteByte(0)
		}
		var f Field
		if v, ok := byLower[strings.ToLower(key)]; ok && !v.unknown {
			f = Field{present: true, inapplicable: v.kind == cellInapplicable, text: v.text}
		}
		b.WriteString(c.normalizeKeyComponent(key, f))
	}
	return b.String(), true
}

// findByKey looks up a row by its primary-key tuple using the transient
// hash index, building the index lazily on first use.
func (c *Category) findByKey(row *Row) *Row {
	key, ok := c.keyTuple(row)
	if !ok {
		return nil
	}
	c.ensurePKIndex()
	return c.pkIndex[key]
}

func (c *Category) ensurePKIndex() {
	if c.pkIndex != nil || c.catValidator == nil || len(c.catValidator.Keys) == 0 {
		return
	}
	c.pkIndex = make(map[string]*Row, c.rowCount)
	for r := c.head; r != nil; r = r.next {
		if key, ok := c.keyTuple(r); ok {
			c.pkIndex[key] = r
		}
	}
}

func (c *Category) invalidatePKIndex() { c.pkIndex = nil }

// Emplace inserts a new row at the tail built from items (tag -> value).
// If a primary key is configured and another row already carries the same
// key tuple (under the category's compare rules), Emplace fails with a
// *ValidationError wrapping ErrDuplicateKey and the store is left
// unchanged (spec.md §4.I, §8 scenario 3) — unchanged meaning its column
// set too: every tag is validated and resolved against the existing
// columns first, the duplicate-key probe runs next, and only once both
// have passed does the commit loop touch c.columns/c.colIndex, so a
// rejected row never leaves a column behind that only it would have used.
func (c *Category) Emplace(items map[string]FieldValue) (*Row, error) {
	type colPlan struct {
		ix int
		iv *ItemValidator
	}
	plan := make(map[string]colPlan, len(items))
	for tag, v := range items {
		if err := c.validateWrite(tag, v); err != nil {
			return nil, err
		}
		ix, iv, err := c.resolveColumn(tag)
		if err != nil {
			return nil, err
		}
		plan[tag] = colPlan{ix, iv}
	}
	if key, ok := c.keyTupleFromItems(items); ok {
		c.ensurePKIndex()
		if _, exists := c.pkIndex[key]; exists {
			return nil, &ValidationError{Category: c.name, Message: "duplicate primary key on insert", Err: ErrDuplicateKey}
		}
	}

	row := &Row{}
	for tag, v := range items {
		p := plan[tag]
		ix := c.commitColumn(tag, p.ix, p.iv)
		if v.unknown {
			continue // absence of a cell *is* unknown; nothing to set
		}
		row.setCellAt(uint16(ix), v.kind, v.text)
	}
	c.appendRow(row)
	if c.pkIndex != nil {
		if key, ok := c.keyTuple(row); ok {
			c.pkIndex[key] = row
		}
	}
	return row, nil
}

func (c *Category) validateWrite(tag string, v FieldValue) error {
	if c.catValidator == nil || v.unknown || v.kind == cellInapplicable {
		return nil
	}
	iv := c.catValidator.itemValidator(tag)
	if iv == nil {
		return nil
	}
	return iv.Validate(c.name, v.text)
}

// parentLinksForColumn returns every outgoing link group whose parent key
// columns include col (by index).
func (c *Category) parentLinksForColumn(col int) []*LinkValidator {
	var out []*LinkValidator
	name := c.columns[col].Name
	for _, lg := range c.parentLinks {
		for _, pk := range lg.ParentKeys {
			if iequals(pk, name) {
				out = append(out, lg)
				break
			}
		}
	}
	return out
}

func (c *Category) childCategory(lg *LinkValidator) *Category {
	if c.block == nil {
		return nil
	}
	return c.block.Category(lg.ChildCategory)
}

func (c *Category) parentCategory(lg *LinkValidator) *Category {
	if c.block == nil {
		return nil
	}
	return c.block.Category(lg.ParentCategory)
}
