package cif

import (
	"errors"
	"strings"
	"testing"
)

const testDictionary = `data_test_dic

save_Char
_item_type_list.code             char
_item_type_list.primitive_code   char
_item_type_list.construct        .
save_

save_UChar
_item_type_list.code             uchar
_item_type_list.primitive_code   uchar
_item_type_list.construct        .
save_

save_entry
_category.id entry
_category_key.name '_entry.id'
save_

save_entry.id
_item.name '_entry.id'
_item.category_id entry
_item_type.name '_entry.id'
_item_type.code uchar
_item.mandatory_code yes
save_

save_struct
_category.id struct
_category_key.name '_struct.entry_id'
save_

save_struct.entry_id
_item.name '_struct.entry_id'
_item.category_id struct
_item_type.name '_struct.entry_id'
_item_type.code uchar
save_

save_struct.classification
_item.name '_struct.classification'
_item.category_id struct
_item_type.name '_struct.classification'
_item_type.code char
_item_enumeration.name '_struct.classification'
_item_enumeration.value HYDROLASE
_item_enumeration.value TRANSFERASE
save_

save_entry_struct_link
_item_linked.parent_name '_entry.id'
_item_linked.child_name '_struct.entry_id'
save_
`

func TestParseDictionaryTypesAndItems(t *testing.T) {
	v, err := ParseDictionary(strings.NewReader(testDictionary), "test_dic")
	if err != nil {
		t.Fatalf("ParseDictionary: %v", err)
	}
	if v.typeValidator("uchar") == nil {
		t.Fatalf("expected a compiled uchar type")
	}
	entryCV := v.categoryValidator("entry")
	if entryCV == nil {
		t.Fatalf("expected a category validator for entry")
	}
	if !entryCV.Mandatory["id"] {
		t.Fatalf("expected entry.id to be mandatory")
	}
	if len(entryCV.Keys) != 1 || entryCV.Keys[0] != "id" {
		t.Fatalf("expected entry's primary key to be [id], got %v", entryCV.Keys)
	}
}

func TestParseDictionaryEnumeration(t *testing.T) {
	v, err := ParseDictionary(strings.NewReader(testDictionary), "test_dic")
	if err != nil {
		t.Fatalf("ParseDictionary: %v", err)
	}
	structCV := v.categoryValidator("struct")
	iv := structCV.Items["classification"]
	if iv == nil {
		t.Fatalf("expected an item validator for struct.classification")
	}
	if err := iv.Validate("struct", "HYDROLASE"); err != nil {
		t.Fatalf("expected HYDROLASE to satisfy the enumeration: %v", err)
	}
	if err := iv.Validate("struct", "NOT_A_CLASS"); err == nil {
		t.Fatalf("expected a value outside the enumeration to fail validation")
	}
}

func TestParseDictionaryLinks(t *testing.T) {
	v, err := ParseDictionary(strings.NewReader(testDictionary), "test_dic")
	if err != nil {
		t.Fatalf("ParseDictionary: %v", err)
	}
	if len(v.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(v.Links))
	}
	lg := v.Links[0]
	if lg.ParentCategory != "entry" || lg.ChildCategory != "struct" {
		t.Fatalf("unexpected link: %+v", lg)
	}
	if len(lg.ParentKeys) != 1 || lg.ParentKeys[0] != "id" {
		t.Fatalf("unexpected parent keys: %v", lg.ParentKeys)
	}
}

func TestValidateReportsLinkToMissingParentCategory(t *testing.T) {
	v, err := ParseDictionary(strings.NewReader(testDictionary), "test_dic")
	if err != nil {
		t.Fatalf("ParseDictionary: %v", err)
	}
	f := NewFile()
	f.SetValidator(v)
	if err := f.Load(strings.NewReader("data_1ABC\n_struct.entry_id 1ABC\n")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	report, err := f.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.OK() {
		t.Fatalf("expected struct's dangling link to the missing entry category to surface as a violation")
	}
}

func TestEmplaceRejectsValueOutsideEnumeration(t *testing.T) {
	v, err := ParseDictionary(strings.NewReader(testDictionary), "test_dic")
	if err != nil {
		t.Fatalf("ParseDictionary: %v", err)
	}
	cat := newCategory("struct")
	cat.setValidator(v, nil)
	_, err = cat.Emplace(map[string]FieldValue{"classification": Text("NOT_A_CLASS")})
	if err == nil {
		t.Fatalf("expected an out-of-enumeration value to be rejected on Emplace")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected a *ValidationError, got %T", err)
	}
}
