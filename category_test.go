package cif

import "testing"

func TestAddColumnIsIdempotent(t *testing.T) {
	cat := newCategory("entry")
	ix1, err := cat.AddColumn("id")
	if err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	ix2, err := cat.AddColumn("ID") // case-insensitive
	if err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if ix1 != ix2 {
		t.Fatalf("AddColumn(\"id\") and AddColumn(\"ID\") returned different indices: %d vs %d", ix1, ix2)
	}
	if len(cat.Columns()) != 1 {
		t.Fatalf("expected exactly 1 column after idempotent AddColumn, got %d", len(cat.Columns()))
	}
}

func TestGetColumnIxMissingReturnsLength(t *testing.T) {
	cat := newCategory("entry")
	cat.AddColumn("id")
	if ix := cat.GetColumnIx("missing"); ix != len(cat.columns) {
		t.Fatalf("GetColumnIx(missing) = %d, want %d", ix, len(cat.columns))
	}
}

func TestEmplaceAndValue(t *testing.T) {
	cat := newCategory("entry")
	row, err := cat.Emplace(map[string]FieldValue{
		"id":    Text("1ABC"),
		"title": Text("a title"),
		"note":  Inapplicable(),
	})
	if err != nil {
		t.Fatalf("Emplace: %v", err)
	}
	if got := cat.Value(row, "id").String(); got != "1ABC" {
		t.Fatalf("id = %q, want %q", got, "1ABC")
	}
	if f := cat.Value(row, "note"); !f.IsInapplicable() {
		t.Fatalf("note should be inapplicable")
	}
	if f := cat.Value(row, "missing"); !f.IsUnknown() {
		t.Fatalf("a tag with no matching column should read as unknown")
	}
}

func TestEmplacePrimaryKeyUniqueness(t *testing.T) {
	cat := newCategory("entry")
	cv := newCategoryValidator("entry")
	cv.Keys = []string{"id"}
	cat.catValidator = cv

	if _, err := cat.Emplace(map[string]FieldValue{"id": Text("1ABC")}); err != nil {
		t.Fatalf("first Emplace: %v", err)
	}
	_, err := cat.Emplace(map[string]FieldValue{"id": Text("1ABC")})
	if err == nil {
		t.Fatalf("expected a duplicate-key error on second Emplace")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected a *ValidationError, got %T: %v", err, err)
	}
}

func TestEmplaceDuplicateKeyLeavesNoColumnTrace(t *testing.T) {
	cat := newCategory("entry")
	cv := newCategoryValidator("entry")
	cv.Keys = []string{"id"}
	cat.catValidator = cv

	if _, err := cat.Emplace(map[string]FieldValue{"id": Text("1ABC")}); err != nil {
		t.Fatalf("first Emplace: %v", err)
	}
	before := len(cat.Columns())

	_, err := cat.Emplace(map[string]FieldValue{"id": Text("1ABC"), "brand_new_tag": Text("x")})
	if err == nil {
		t.Fatalf("expected a duplicate-key error on second Emplace")
	}
	if got := len(cat.Columns()); got != before {
		t.Fatalf("rejected Emplace left %d columns behind, want %d (no trace of brand_new_tag)", got, before)
	}
	if cat.GetColumnIx("brand_new_tag") != len(cat.columns) {
		t.Fatalf("brand_new_tag should not exist as a column after a rejected Emplace")
	}
}

func TestEmplacePrimaryKeyUCharCaseFolds(t *testing.T) {
	cat := newCategory("entry")
	cv := newCategoryValidator("entry")
	cv.Keys = []string{"id"}
	uchar, err := newTypeValidator("uchar", PrimitiveUChar, "")
	if err != nil {
		t.Fatalf("newTypeValidator: %v", err)
	}
	cv.Items["id"] = &ItemValidator{Tag: "id", typ: uchar}
	cat.catValidator = cv

	if _, err := cat.Emplace(map[string]FieldValue{"id": Text("1ABC")}); err != nil {
		t.Fatalf("first Emplace: %v", err)
	}
	_, err = cat.Emplace(map[string]FieldValue{"id": Text("1abc")})
	if err == nil {
		t.Fatalf("expected a duplicate-key error: UChar keys case-fold before comparing")
	}
}

func TestRowsPreserveInsertionOrder(t *testing.T) {
	cat := newCategory("entry")
	for _, id := range []string{"a", "b", "c"} {
		if _, err := cat.Emplace(map[string]FieldValue{"id": Text(id)}); err != nil {
			t.Fatalf("Emplace(%q): %v", id, err)
		}
	}
	rows := cat.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got := cat.Value(rows[i], "id").String(); got != want {
			t.Fatalf("row %d id = %q, want %q", i, got, want)
		}
	}
}
