package cif

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	matchNumeric1 = regexp.MustCompile(`^(\+|-)?[0-9]+(\.[0-9]*([eE](\+|-)?[0-9]+)?)?$`)
	matchNumeric2 = regexp.MustCompile(`^(\+|-)?\.[0-9]+([eE](\+|-)?[0-9]+)?$`)
)

// singletonWidthBudget is the "some bounded width" spec.md §4.J leaves
// unspecified for when a one-row category is worth writing as singleton
// tag/value pairs instead of a loop_: beyond this many characters of
// combined value text, a one-row category is written as a loop_.
const singletonWidthBudget = 160

type writer struct {
	w   io.Writer
	err error
}

func (w *writer) pf(format string, v ...interface{}) {
	if w.err != nil {
		return
	}
	_, err := fmt.Fprintf(w.w, format, v...)
	if err != nil {
		w.err = &IoError{Op: "Save", Err: err}
	}
}

// writeFile implements spec.md §4.J/§4.K's save(). A nil tagOrder hoists
// "entry" and "audit_conform" to the top of each block, synthesizing
// audit_conform from the file's validator if the block doesn't have one.
func writeFile(out io.Writer, f *File, tagOrder []string) error {
	w := &writer{w: out}
	for _, b := range f.Blocks() {
		w.writeDataBlock(b, f, tagOrder)
		if w.err != nil {
			return w.err
		}
	}
	return w.err
}

func (w *writer) writeDataBlock(b *DataBlock, f *File, tagOrder []string) {
	w.pf("data_%s\n# \n", b.Name())
	for _, cat := range orderedCategories(b, f, tagOrder) {
		w.writeCategory(cat)
		if w.err != nil {
			return
		}
	}
}

// orderedCategories decides emission order (spec.md §4.J): tagOrder, when
// given, wins by the category of its first tag; otherwise "entry" and
// "audit_conform" are hoisted to the front, synthesizing audit_conform
// from the validator if the block lacks one of its own.
func orderedCategories(b *DataBlock, f *File, tagOrder []string) []*Category {
	if len(tagOrder) > 0 {
		seen := make(map[string]bool)
		var out []*Category
		for _, tag := range tagOrder {
			catName, item := splitTagName(tag)
			if catName == "" {
				catName = item
			}
			if catName == "" || seen[strings.ToLower(catName)] {
				continue
			}
			if cat := b.Category(catName); cat != nil {
				out = append(out, cat)
				seen[strings.ToLower(catName)] = true
			}
		}
		for _, cat := range b.Categories() {
			if !seen[strings.ToLower(cat.Name())] {
				out = append(out, cat)
				seen[strings.ToLower(cat.Name())] = true
			}
		}
		return out
	}

	cats := b.Categories()
	var entry, auditConform *Category
	var rest []*Category
	for _, cat := range cats {
		switch {
		case iequals(cat.Name(), "entry"):
			entry = cat
		case iequals(cat.Name(), "audit_conform"):
			auditConform = cat
		default:
			rest = append(rest, cat)
		}
	}
	if auditConform == nil {
		if synth := synthesizeAuditConform(b, f); synth != nil {
			auditConform = synth
		}
	}
	out := make([]*Category, 0, len(cats)+1)
	if entry != nil {
		out = append(out, entry)
	}
	if auditConform != nil {
		out = append(out, auditConform)
	}
	return append(out, rest...)
}

func synthesizeAuditConform(b *DataBlock, f *File) *Category {
	if f == nil || f.validator == nil {
		return nil
	}
	cat := newCategory("audit_conform")
	row := &Row{}
	ix, _ := cat.AddColumn("dict_name")
	row.setCellAt(uint16(ix), cellText, f.validator.Name)
	ix, _ = cat.AddColumn("dict_version")
	row.setCellAt(uint16(ix), cellText, f.validator.Version)
	cat.appendRow(row)
	return cat
}

func (w *writer) writeCategory(cat *Category) {
	rows := cat.Rows()
	if len(rows) == 0 {
		return
	}
	if len(rows) == 1 && singletonWidth(cat, rows[0]) <= singletonWidthBudget {
		w.writeSingleton(cat, rows[0])
		return
	}
	w.writeLoop(cat, rows)
}

func singletonWidth(cat *Category, row *Row) int {
	total := 0
	for _, col := range cat.Columns() {
		total += len(cat.Value(row, col).String())
	}
	return total
}

func (w *writer) writeSingleton(cat *Category, row *Row) {
	for _, col := range cat.Columns() {
		f := cat.Value(row, col)
		w.pf("%s %s\n", joinTagName(cat.Name(), col), formatField(f))
	}
}

func (w *writer) writeLoop(cat *Category, rows []*Row) {
	w.pf("loop_\n")
	cols := cat.Columns()
	for _, col := range cols {
		w.pf("%s\n", joinTagName(cat.Name(), col))
	}
	for _, row := range rows {
		before := ""
		for _, col := range cols {
			w.pf("%s%s", before, formatField(cat.Value(row, col)))
			before = " "
		}
		w.pf("\n")
	}
}

// formatField renders a single cell: "?" for unknown (no cell), "." for
// the inapplicable sentinel, otherwise the quoted/unquoted text per
// formatValueText.
func formatField(f Field) string {
	if f.IsUnknown() {
		return "?"
	}
	if f.IsInapplicable() {
		return "."
	}
	return formatValueText(f.text)
}

// formatValueText picks the CIF quoting rule for s (spec.md §4.J): a
// numeric-looking string is always quoted, since an unquoted one would be
// read back in as an Int/Float value rather than a string. Otherwise
// unquoted if it is a legal bare token and does not collide with a
// reserved production; single-quoted if it has no embedded single quote
// and no newline; double-quoted if it has a single quote but no double
// quote; a semicolon text field otherwise.
func formatValueText(s string) string {
	if s == "" {
		return "''"
	}
	if looksNumeric(s) {
		return "\"" + s + "\""
	}
	if canUnquote(s) {
		return s
	}

	hasSingle := strings.ContainsRune(s, '\'')
	hasDouble := strings.ContainsRune(s, '"')
	hasNL := strings.ContainsAny(s, "\n\r")

	switch {
	case hasNL:
		return textField(s)
	case !hasSingle:
		return "'" + s + "'"
	case !hasDouble:
		return "\"" + s + "\""
	default:
		return textField(s)
	}
}

func textField(s string) string {
	var b strings.Builder
	b.WriteString("\n;")
	b.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte(';')
	return b.String()
}

func looksNumeric(s string) bool {
	return matchNumeric1.MatchString(s) || matchNumeric2.MatchString(s)
}

var reservedSubstrings = []string{"loop_", "stop_", "global_"}

// canUnquote reports whether s can be written bare: it starts with a
// character an unquoted token may start with (so a leading ';' a row
// begins on is never mistaken for a text-field marker on read-back), every
// subsequent rune is a legal unquoted-token character, it does not begin
// with a reserved "data_" or "save_" prefix, and it does not contain
// "loop_", "stop_" or "global_" as a substring (spec.md §4.J).
func canUnquote(s string) bool {
	if s == "." || s == "?" {
		return false // would be read back as a sentinel, not literal text
	}
	runes := []rune(s)
	if !isOrdinaryChar(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !isNonBlankChar(r) {
			return false
		}
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "data_") || strings.HasPrefix(lower, "save_") {
		return false
	}
	for _, r := range reservedSubstrings {
		if strings.Contains(lower, r) {
			return false
		}
	}
	return true
}
