package cif

import "strings"

// DataBlock is a named, ordered collection of Categories (spec.md §3). It
// owns its categories; a category dies with its data block.
type DataBlock struct {
	name string

	order []string          // category names, in emplace/promote order
	cats  map[string]*Category // lowercased name -> category

	saveFrames []*DataBlock // dictionary save frames reuse DataBlock's shape
	saveOrder  map[string]int

	file *File // non-owning back-pointer, set by File.addBlock
}

func newDataBlock(name string) *DataBlock {
	return &DataBlock{
		name:      name,
		cats:      make(map[string]*Category),
		saveOrder: make(map[string]int),
	}
}

// Name returns the data block's name.
func (b *DataBlock) Name() string { return b.name }

// Categories returns the block's categories in their current order.
func (b *DataBlock) Categories() []*Category {
	out := make([]*Category, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.cats[strings.ToLower(name)])
	}
	return out
}

// Category returns the named category, or nil if it does not exist.
func (b *DataBlock) Category(name string) *Category {
	return b.cats[strings.ToLower(name)]
}

// Emplace returns the named category, creating it if necessary. A second
// call with the same name (case-insensitive) returns the existing
// category unchanged — insertion is idempotent (spec.md §4.E). Pass
// promote=true to additionally hoist an already-existing category to the
// front of the block's order, which is what the serializer uses to put
// "entry"/"audit_conform" first.
func (b *DataBlock) Emplace(name string, promote bool) *Category {
	key := strings.ToLower(name)
	if cat, ok := b.cats[key]; ok {
		if promote {
			b.promote(key)
		}
		return cat
	}
	cat := newCategory(name)
	cat.block = b
	b.cats[key] = cat
	b.order = append(b.order, name)
	if b.file != nil && b.file.validator != nil {
		cat.setValidator(b.file.validator, b)
	}
	return cat
}

func (b *DataBlock) promote(key string) {
	for i, name := range b.order {
		if strings.ToLower(name) == key {
			if i == 0 {
				return
			}
			b.order = append(b.order[:i], b.order[i+1:]...)
			b.order = append([]string{name}, b.order...)
			return
		}
	}
}

// setValidator installs v on this block and every category within it,
// rebuilding link groups (spec.md §5: "rebuilt by update_links whenever a
// data block is cloned or a validator is set").
func (b *DataBlock) setValidator(v *Validator) {
	for _, cat := range b.cats {
		cat.setValidator(v, b)
	}
}

// setValidator installs v on a single category and resolves its link
// groups against sibling categories in the same block.
func (c *Category) setValidator(v *Validator, b *DataBlock) {
	c.validator = v
	c.catValidator = nil
	c.parentLinks = nil
	c.childLinks = nil
	c.invalidatePKIndex()
	if v == nil {
		return
	}
	c.catValidator = v.categoryValidator(c.name)
	for i := range c.columns {
		if c.catValidator != nil {
			c.columns[i].validator = c.catValidator.itemValidator(c.columns[i].Name)
		} else {
			c.columns[i].validator = nil
		}
	}
	for _, lg := range v.Links {
		if iequals(lg.ParentCategory, c.name) {
			c.parentLinks = append(c.parentLinks, lg)
		}
		if iequals(lg.ChildCategory, c.name) {
			c.childLinks = append(c.childLinks, lg)
		}
	}
}

// updateLinks rebuilds link-group references for every category in the
// block. Intra-block category pointers are non-owning and do not survive a
// clone, so callers that copy a DataBlock must call this afterward
// (spec.md §5).
func (b *DataBlock) updateLinks() {
	for _, cat := range b.cats {
		cat.block = b
		if b.file != nil {
			cat.setValidator(b.file.validator, b)
		}
	}
}
