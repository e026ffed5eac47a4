package cif

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

// TestScenarioParse covers spec.md §8 scenario 1.
func TestScenarioParse(t *testing.T) {
	const input = "data_TEST\nloop_ _t.id _t.n\n1 aap  2 noot  3 mies\n"
	f := NewFile()
	if err := f.Load(strings.NewReader(input)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	b := f.Block("TEST")
	if b == nil {
		t.Fatalf("expected data block TEST")
	}
	cat := b.Category("t")
	if cat == nil || cat.Len() != 3 {
		t.Fatalf("expected category t with 3 rows, got %v", cat)
	}
	row, err := FindOne(cat, KeyEquals("id", "1"))
	if err != nil {
		t.Fatalf("FindOne(id==1): %v", err)
	}
	if got := cat.Value(row, "n").String(); got != "aap" {
		t.Fatalf("row.n = %q, want %q", got, "aap")
	}
}

// TestScenarioConditionWithNulls covers spec.md §8 scenario 2.
func TestScenarioConditionWithNulls(t *testing.T) {
	const input = "data_TEST\nloop_ _t.id _t.n\n1 aap  2 noot  3 mies  4 .  5 ?\n"
	f := NewFile()
	if err := f.Load(strings.NewReader(input)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cat := f.Block("TEST").Category("t")
	rows := Find(cat, KeyIsEmpty("n"))
	if len(rows) != 2 {
		t.Fatalf("expected key(n) == NULL to match 2 rows (inapplicable + unknown), got %d", len(rows))
	}
}

// TestScenarioUCharKeyCollision covers spec.md §8 scenario 3.
func TestScenarioUCharKeyCollision(t *testing.T) {
	cat := newCategory("cat")
	cv := newCategoryValidator("cat")
	cv.Keys = []string{"id"}
	ucode, err := newTypeValidator("ucode", PrimitiveUChar, "")
	if err != nil {
		t.Fatalf("newTypeValidator: %v", err)
	}
	cv.Items["id"] = &ItemValidator{Tag: "id", typ: ucode}
	cat.catValidator = cv

	if _, err := cat.Emplace(map[string]FieldValue{"id": Text("aap")}); err != nil {
		t.Fatalf("first Emplace: %v", err)
	}
	_, err = cat.Emplace(map[string]FieldValue{"id": Text("aap")})
	if err == nil {
		t.Fatalf("expected a duplicate-key error on the second emplace of the same UChar key")
	}
	ve, ok := err.(*ValidationError)
	if !ok || ve.Err != ErrDuplicateKey {
		t.Fatalf("expected a *ValidationError wrapping ErrDuplicateKey, got %v", err)
	}

	row, err := FindOne(cat, KeyEquals("id", "AAP")) // UChar compare folds case
	if err != nil {
		t.Fatalf("expected key(id) == \"AAP\" to find the row inserted as \"aap\": %v", err)
	}
	if err := cat.Erase(row); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if cat.Len() != 0 {
		t.Fatalf("expected the row to be removed, %d rows remain", cat.Len())
	}
}

// TestScenarioParentSplitThreeGroups covers spec.md §8 scenario 4's core
// claim: a parent-key rename across three independent link groups touching
// the same child/parent pair must move every column in lockstep.
func TestScenarioParentSplitThreeGroups(t *testing.T) {
	v := NewValidator("test")
	parentCV := newCategoryValidator("parent")
	parentCV.Keys = []string{"id"}
	v.Categories["parent"] = parentCV
	v.Categories["child"] = newCategoryValidator("child")
	for i, groupID := range []string{"1", "2", "3"} {
		childKey := "parent_id"
		if i > 0 {
			childKey = "parent_id" + string(rune('0'+i+1))
		}
		v.Links = append(v.Links, &LinkValidator{
			ParentCategory: "parent", ChildCategory: "child",
			ParentKeys: []string{"id"}, ChildKeys: []string{childKey},
			GroupID: groupID,
		})
	}

	f := NewFile()
	f.SetValidator(v)
	b := newDataBlock("TEST")
	if err := f.addBlock(b); err != nil {
		t.Fatalf("addBlock: %v", err)
	}
	parent := b.Emplace("parent", false)
	child := b.Emplace("child", false)

	var rows []*Row
	for _, id := range []string{"1", "2", "3"} {
		row, err := parent.Emplace(map[string]FieldValue{"id": Text(id)})
		if err != nil {
			t.Fatalf("Emplace parent %s: %v", id, err)
		}
		rows = append(rows, row)
	}
	_, err := child.Emplace(map[string]FieldValue{
		"parent_id": Text("1"), "parent_id2": Text("1"), "parent_id3": Text("1"),
	})
	if err != nil {
		t.Fatalf("Emplace child: %v", err)
	}

	row1 := rows[0]
	if err := parent.SetCell(row1, "id", Text("10")); err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	if child.Len() != 1 {
		t.Fatalf("expected exactly one child row to survive the rename, got %d", child.Len())
	}
	crow := child.Rows()[0]
	for _, tag := range []string{"parent_id", "parent_id2", "parent_id3"} {
		if got := child.Value(crow, tag).String(); got != "10" {
			t.Fatalf("child.%s = %q after rename, want %q", tag, got, "10")
		}
	}
}

// TestScenarioRoundTripQuoting covers spec.md §8 scenario 5.
func TestScenarioRoundTripQuoting(t *testing.T) {
	values := []string{
		"stop_the_crap",
		"and stop_ this too",
		"data_dinges",
		"boo.data_.whatever",
	}
	quoted := map[string]bool{
		"stop_the_crap":       true,
		"and stop_ this too":  true,
		"data_dinges":         true,
		"boo.data_.whatever":  false,
	}

	f := NewFile()
	b := newDataBlock("TEST")
	if err := f.addBlock(b); err != nil {
		t.Fatalf("addBlock: %v", err)
	}
	cat := b.Emplace("t", false)
	for i, v := range values {
		if _, err := cat.Emplace(map[string]FieldValue{
			"id":    Text(itoaTest(i)),
			"value": Text(v),
		}); err != nil {
			t.Fatalf("Emplace: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Save(&buf, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out := buf.String()

	for _, v := range values {
		rendered := formatValueText(v)
		if quoted[v] && rendered == v {
			t.Errorf("expected %q to be written with quoting, got it unquoted", v)
		}
		if !quoted[v] && rendered != v {
			t.Errorf("expected %q to be written unquoted, got %q", v, rendered)
		}
	}

	rt := NewFile()
	if err := rt.Load(strings.NewReader(out)); err != nil {
		t.Fatalf("round-trip Load: %v\n--- written ---\n%s", err, out)
	}
	rtCat := rt.Block("TEST").Category("t")
	rtRows := rtCat.Rows()
	if len(rtRows) != len(values) {
		t.Fatalf("expected %d rows after round trip, got %d", len(values), len(rtRows))
	}
	for i, want := range values {
		if got := rtCat.Value(rtRows[i], "value").String(); got != want {
			t.Errorf("round-tripped row %d value = %q, want %q", i, got, want)
		}
	}
}

func itoaTest(i int) string {
	digits := "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	return "x"
}

// TestScenarioNumericTokens covers spec.md §8 scenario 6.
func TestScenarioNumericTokens(t *testing.T) {
	const input = "data_TEST\nloop_ _t.id _t.v\n1 1.0  2 -.2e11  3 1.3e-10  4 3.000000\n"
	f := NewFile()
	if err := f.Load(strings.NewReader(input)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cat := f.Block("TEST").Category("t")

	numb, err := newTypeValidator("numb", PrimitiveNumb, "")
	if err != nil {
		t.Fatalf("newTypeValidator: %v", err)
	}
	want := map[string]float64{
		"1": 1.0, "2": -.2e11, "3": 1.3e-10, "4": 3.0,
	}
	for _, row := range cat.Rows() {
		id := cat.Value(row, "id").String()
		text := cat.Value(row, "v").String()
		got, err := fromCharsFloat(text)
		if err != nil {
			t.Fatalf("fromCharsFloat(%q): %v", text, err)
		}
		if got != want[id] {
			t.Errorf("row %s: parsed %v, want %v", id, got, want[id])
		}
		if numb.compare(text, floatText(want[id])) != 0 {
			t.Errorf("row %s: compare(%q, %v) != 0", id, text, want[id])
		}
	}
}

func floatText(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
