package cif

// parseLoop implements spec.md §4.D's loop_ production: it collects tags
// that must all share one category, then consumes rows of len(tags)
// values each until the next non-value token.
func (p *parser) parseLoop(sc *scope) (item, error) {
	loopLine := p.line

	t, err := p.next()
	if err != nil {
		return item{}, err
	}
	if t.typ != itemTag {
		return item{}, perr(p.line, "loop_ must be followed by at least one data tag, but found a %s", t.typ)
	}

	var category string
	var items []string
	for t.typ == itemTag {
		cat, itemName := splitTagName(t.val)
		if len(items) == 0 {
			category = cat
		} else if !iequals(category, cat) && cat != "" {
			return item{}, perr(loopLine, "loop_ mixes categories '%s' and '%s'; every tag in a loop_ must share one category", category, cat)
		}
		items = append(items, itemName)
		t, err = p.next()
		if err != nil {
			return item{}, err
		}
	}

	if !isValueType(t.typ) {
		return item{}, perr(loopLine, "loop_ declared %d tag(s) but no values followed", len(items))
	}

	cat := sc.block.Emplace(category, false)
	colIx := make([]int, len(items))
	for i, name := range items {
		ix, err := cat.AddColumn(name)
		if err != nil {
			return item{}, err
		}
		colIx[i] = ix
	}

	var row *Row
	count := 0
	for isValueType(t.typ) {
		col := count % len(items)
		if col == 0 {
			row = &Row{}
			cat.appendRow(row)
		}
		switch t.typ {
		case itemValueInapplicable:
			row.setCellAt(uint16(colIx[col]), cellInapplicable, ".")
		case itemValueUnknown:
			// absence of a cell means unknown; nothing to set.
		default:
			row.setCellAt(uint16(colIx[col]), cellText, t.val)
		}
		count++
		t, err = p.next()
		if err != nil {
			return item{}, err
		}
	}
	if count%len(items) != 0 {
		return item{}, perr(loopLine, "loop_ starting on line %d has %d values, not a multiple of its %d tag(s)", loopLine, count, len(items))
	}
	return t, nil
}
