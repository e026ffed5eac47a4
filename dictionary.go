package cif

import (
	"io"
	"strconv"
	"strings"
)

// ParseDictionary reads a CIF dictionary from r and compiles it into a
// Validator (spec.md §4.G). A dictionary is parsed with the ordinary file
// grammar first — it differs from a data file only in that its save_
// frames hold schema declarations instead of being rejected — then walked
// in five passes: types, items, categories, links, aliases. Passes 2-5
// must follow pass 1 so item/category validators can resolve the type
// codes they reference.
func ParseDictionary(r io.Reader, name string) (*Validator, error) {
	f := NewFile()
	if err := f.Load(r); err != nil {
		return nil, err
	}
	v := NewValidator(name)

	frames := dictionaryFrames(f)

	for _, frame := range frames {
		if cat := frame.Category("item_type_list"); cat != nil {
			if err := collectTypes(v, frame, cat); err != nil {
				return nil, err
			}
		}
	}
	for _, frame := range frames {
		if cat := frame.Category("item"); cat != nil {
			if err := collectItems(v, frame, cat); err != nil {
				return nil, err
			}
		}
	}
	for _, frame := range frames {
		if cat := frame.Category("category"); cat != nil {
			if err := collectCategories(v, frame, cat); err != nil {
				return nil, err
			}
		}
	}
	for _, frame := range frames {
		if err := collectLinks(v, frame); err != nil {
			return nil, err
		}
	}
	for _, frame := range frames {
		if cat := frame.Category("item_aliases"); cat != nil {
			if err := collectAliases(v, frame, cat); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

// dictionaryFrames returns every save frame across every data block, since
// a dictionary's schema declarations live one save_ frame per item or
// category rather than directly in the data block.
func dictionaryFrames(f *File) []*DataBlock {
	var out []*DataBlock
	for _, b := range f.Blocks() {
		out = append(out, b.saveFrames...)
	}
	return out
}

func collectTypes(v *Validator, frame *DataBlock, cat *Category) error {
	for _, row := range cat.Rows() {
		code := cat.Value(row, "code").String()
		if code == "" {
			continue
		}
		primitive, err := mapPrimitiveType(cat.Value(row, "primitive_code").String())
		if err != nil {
			return &DictionaryError{Frame: frame.Name(), Message: err.Error()}
		}
		pattern := ""
		if f := cat.Value(row, "construct"); !f.IsInapplicable() {
			pattern = f.String()
		}
		tv, err := newTypeValidator(code, primitive, pattern)
		if err != nil {
			return err
		}
		v.Types[strings.ToLower(code)] = tv
	}
	return nil
}

func mapPrimitiveType(s string) (PrimitiveType, error) {
	switch {
	case iequals(s, "char"):
		return PrimitiveChar, nil
	case iequals(s, "uchar"):
		return PrimitiveUChar, nil
	case iequals(s, "numb"):
		return PrimitiveNumb, nil
	default:
		return PrimitiveChar, &DictionaryError{Message: "unknown primitive code " + strconv.Quote(s)}
	}
}

// collectItems builds one ItemValidator per distinct _item.name declared in
// frame, resolving its type from a sibling _item_type.code row and its
// enumeration from _item_enumeration.value rows, and installs it on the
// owning CategoryValidator (created lazily if _category hasn't run yet).
func collectItems(v *Validator, frame *DataBlock, cat *Category) error {
	typeCat := frame.Category("item_type")
	enumCat := frame.Category("item_enumeration")

	for _, row := range cat.Rows() {
		full := cat.Value(row, "name").String()
		if full == "" {
			continue
		}
		catName, itemName := splitTagName(full)
		if catName == "" {
			catName = cat.Value(row, "category_id").String()
		}
		if catName == "" || itemName == "" {
			return &DictionaryError{Frame: frame.Name(), Message: "_item.name " + strconv.Quote(full) + " is not a qualified tag"}
		}
		cv := v.categoryValidator(catName)
		if cv == nil {
			cv = newCategoryValidator(catName)
			v.Categories[strings.ToLower(catName)] = cv
		}
		iv := &ItemValidator{Tag: itemName}
		if code := cat.Value(row, "mandatory_code").String(); iequals(code, "yes") || code == "y" {
			iv.Mandatory = true
			cv.Mandatory[strings.ToLower(itemName)] = true
		}
		if typeCat != nil {
			for _, tr := range typeCat.Rows() {
				if iequals(typeCat.Value(tr, "name").String(), full) {
					iv.typ = v.typeValidator(typeCat.Value(tr, "code").String())
					break
				}
			}
		}
		if enumCat != nil {
			for _, er := range enumCat.Rows() {
				if !iequals(enumCat.Value(er, "name").String(), full) {
					continue
				}
				if iv.enum == nil {
					iv.enum = make(map[string]bool)
				}
				val := enumCat.Value(er, "value").String()
				if iv.typ != nil && iv.typ.Primitive == PrimitiveUChar {
					val = strings.ToLower(val)
				}
				iv.enum[val] = true
			}
		}
		cv.Items[strings.ToLower(itemName)] = iv
	}
	return nil
}

func collectCategories(v *Validator, frame *DataBlock, cat *Category) error {
	keyCat := frame.Category("category_key")
	for _, row := range cat.Rows() {
		id := cat.Value(row, "id").String()
		if id == "" {
			continue
		}
		if v.categoryValidator(id) == nil {
			v.Categories[strings.ToLower(id)] = newCategoryValidator(id)
		}
	}
	if keyCat != nil {
		for _, row := range keyCat.Rows() {
			full := keyCat.Value(row, "name").String()
			catName, itemName := splitTagName(full)
			if catName == "" {
				continue
			}
			cv := v.categoryValidator(catName)
			if cv == nil {
				cv = newCategoryValidator(catName)
				v.Categories[strings.ToLower(catName)] = cv
			}
			cv.Keys = append(cv.Keys, itemName)
		}
	}
	return nil
}

// collectLinks builds LinkValidators from two conventions: plain pairwise
// _item_linked rows, and multi-column _pdbx_item_linked_group_list rows
// grouped by link_group_id (with _pdbx_item_linked_group supplying a
// human-readable label for each group). Parent types missing from a child
// item are filled in from the parent's type, per spec.md §4.G step 4.
func collectLinks(v *Validator, frame *DataBlock) error {
	if pairwise := frame.Category("item_linked"); pairwise != nil {
		for _, row := range pairwise.Rows() {
			parent := pairwise.Value(row, "parent_name").String()
			child := pairwise.Value(row, "child_name").String()
			if parent == "" || child == "" {
				continue
			}
			if err := v.addPairwiseLink(parent, child, ""); err != nil {
				return err
			}
		}
	}

	groupList := frame.Category("pdbx_item_linked_group_list")
	if groupList == nil {
		return nil
	}
	labels := make(map[string]string)
	if labelCat := frame.Category("pdbx_item_linked_group"); labelCat != nil {
		for _, row := range labelCat.Rows() {
			gid := labelCat.Value(row, "link_group_id").String()
			labels[gid] = labelCat.Value(row, "label").String()
		}
	}
	type pair struct{ parent, child string }
	groups := make(map[string][]pair)
	var order []string
	for _, row := range groupList.Rows() {
		gid := groupList.Value(row, "link_group_id").String()
		parent := groupList.Value(row, "parent_name").String()
		child := groupList.Value(row, "child_name").String()
		if gid == "" || parent == "" || child == "" {
			continue
		}
		if _, seen := groups[gid]; !seen {
			order = append(order, gid)
		}
		groups[gid] = append(groups[gid], pair{parent, child})
	}
	for _, gid := range order {
		pairs := groups[gid]
		lg := &LinkValidator{GroupID: gid, Label: labels[gid]}
		for _, p := range pairs {
			pCat, pItem := splitTagName(p.parent)
			cCat, cItem := splitTagName(p.child)
			if lg.ParentCategory == "" {
				lg.ParentCategory = pCat
				lg.ChildCategory = cCat
			}
			lg.ParentKeys = append(lg.ParentKeys, pItem)
			lg.ChildKeys = append(lg.ChildKeys, cItem)
		}
		v.Links = append(v.Links, lg)
		v.propagateLinkTypes(lg)
	}
	return nil
}

// addPairwiseLink installs a single-column LinkValidator for one
// _item_linked row, grouped under groupID (empty for an ungrouped pair).
func (v *Validator) addPairwiseLink(parentTag, childTag, groupID string) error {
	pCat, pItem := splitTagName(parentTag)
	cCat, cItem := splitTagName(childTag)
	if pCat == "" || cCat == "" {
		return &DictionaryError{Message: "_item_linked row references an unqualified tag"}
	}
	lg := &LinkValidator{
		ParentCategory: pCat, ChildCategory: cCat,
		ParentKeys: []string{pItem}, ChildKeys: []string{cItem},
		GroupID: groupID,
	}
	v.Links = append(v.Links, lg)
	v.propagateLinkTypes(lg)
	return nil
}

// propagateLinkTypes fills in a child item's type from its parent
// counterpart when the child item has no type of its own.
func (v *Validator) propagateLinkTypes(lg *LinkValidator) {
	pcv := v.categoryValidator(lg.ParentCategory)
	ccv := v.categoryValidator(lg.ChildCategory)
	if pcv == nil || ccv == nil {
		return
	}
	for i, pkey := range lg.ParentKeys {
		if i >= len(lg.ChildKeys) {
			break
		}
		piv := pcv.Items[strings.ToLower(pkey)]
		civ := ccv.Items[strings.ToLower(lg.ChildKeys[i])]
		if piv == nil {
			continue
		}
		if civ == nil {
			civ = &ItemValidator{Tag: lg.ChildKeys[i]}
			ccv.Items[strings.ToLower(lg.ChildKeys[i])] = civ
		}
		if civ.typ == nil {
			civ.typ = piv.typ
		}
	}
}

// collectAliases installs each _item_aliases row's alias_name as an
// additional synonym for its canonical item (spec.md §4.G step 5; the
// dictionary/version columns are accepted but not enforced, per spec.md
// §6).
func collectAliases(v *Validator, frame *DataBlock, cat *Category) error {
	for _, row := range cat.Rows() {
		canonical := cat.Value(row, "name").String()
		alias := cat.Value(row, "alias_name").String()
		if canonical == "" || alias == "" {
			continue
		}
		catName, item := splitTagName(canonical)
		_, aliasItem := splitTagName(alias)
		cv := v.categoryValidator(catName)
		if cv == nil {
			continue
		}
		cv.aliases[strings.ToLower(aliasItem)] = item
	}
	return nil
}
