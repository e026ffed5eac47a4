package cif

import "strings"

// parser is the grammar driver (spec.md §4.D): it pulls tokens from a
// lexer and calls semantic hooks that build directly into a File's
// category/row store. Unlike the teacher, which drives itself with
// panic/recover, this driver threads errors explicitly — a better fit for
// the nested block/frame/loop scopes a dictionary file introduces.
type parser struct {
	file *File
	lx   *lexer
	line int
}

// scope tracks the "current singleton row" per category for one block or
// save frame, per spec.md §4.D: "additional singleton assignments for the
// same category append to the current singleton row."
type scope struct {
	block     *DataBlock
	singleton map[string]*Row // lowercased category name -> its open singleton row
}

func newScope(b *DataBlock) *scope {
	return &scope{block: b, singleton: make(map[string]*Row)}
}

func newParser(f *File, input string) *parser {
	return &parser{file: f, lx: lex(input, f.Strict)}
}

// next returns the next semantically relevant token, transparently
// recording version comments and skipping ordinary comments.
func (p *parser) next() (item, error) {
	for {
		t := p.lx.nextItem()
		switch t.typ {
		case itemComment:
			continue
		case itemVersion:
			p.file.Version = strings.TrimPrefix(t.val, "#\\#")
			continue
		case itemError:
			return t, &ParseError{Line: t.line, Message: t.val}
		}
		p.line = t.line
		return t, nil
	}
}

func perr(line int, format string, v ...interface{}) error {
	return &ParseError{Line: line, Message: sf(format, v...)}
}

// parseFile implements spec.md §4.D's "parse_file" entry point.
func (p *parser) parseFile() error {
	t, err := p.next()
	if err != nil {
		return err
	}
	for {
		switch t.typ {
		case itemEOF:
			return nil
		case itemGlobalStart:
			t, err = p.skipGlobal()
		case itemDataBlockStart:
			t, err = p.parseDataBlock(t.val)
		default:
			err = perr(p.line, "expected a data block heading but got a %s", t.typ)
		}
		if err != nil {
			return err
		}
	}
}

// skipGlobal discards the tag/value pairs of a "global_" section (spec.md
// §6: "global = 'global_' (tag value)*"), which the core treats as an
// external-collaborator concern it does not interpret.
func (p *parser) skipGlobal() (item, error) {
	t, err := p.next()
	for err == nil {
		switch t.typ {
		case itemTag:
			_, err = p.next() // discard the value
			if err != nil {
				return item{}, err
			}
			t, err = p.next()
		case itemDataBlockStart, itemEOF:
			return t, nil
		default:
			return item{}, perr(p.line, "expected a tag or data block heading inside global_, but got a %s", t.typ)
		}
	}
	return item{}, err
}

// parseDataBlock implements spec.md §4.D's "parse_datablock" loop.
func (p *parser) parseDataBlock(name string) (item, error) {
	block := newDataBlock(name)
	if err := p.file.addBlock(block); err != nil {
		return item{}, err
	}
	sc := newScope(block)

	t, err := p.next()
	if err != nil {
		return item{}, err
	}
	for {
		switch t.typ {
		case itemEOF, itemDataBlockStart:
			return t, nil
		case itemSaveFrameStart:
			t, err = p.parseSaveFrame(block, t.val)
		case itemLoop:
			t, err = p.parseLoop(sc)
		case itemTag:
			err = p.parseItemValue(sc, t.val)
			if err == nil {
				t, err = p.next()
			}
		default:
			err = perr(p.line, "expected a data tag, loop_, save_ or data_ heading but got a %s", t.typ)
		}
		if err != nil {
			return item{}, err
		}
	}
}

// parseSaveFrame parses one "save_<name> ... save_" frame. Frames are
// accepted in any file: neither Load nor ParseDictionary rejects a save
// frame that appears in an ordinary data file.
func (p *parser) parseSaveFrame(block *DataBlock, name string) (item, error) {
	key := strings.ToLower(name)
	if _, exists := block.saveOrder[key]; exists {
		return item{}, perr(p.line, "save frame '%s' already exists in data block '%s'", name, block.name)
	}
	frame := newDataBlock(name)
	block.saveOrder[key] = len(block.saveFrames)
	block.saveFrames = append(block.saveFrames, frame)
	sc := newScope(frame)

	t, err := p.next()
	if err != nil {
		return item{}, err
	}
	for {
		switch t.typ {
		case itemSaveFrameEnd:
			return p.next()
		case itemLoop:
			t, err = p.parseLoop(sc)
		case itemTag:
			err = p.parseItemValue(sc, t.val)
			if err == nil {
				t, err = p.next()
			}
		default:
			err = perr(p.line, "expected a data tag, loop_ or end of save frame but got a %s", t.typ)
		}
		if err != nil {
			return item{}, err
		}
	}
}

// saveFrame looks up a save frame by name (case-insensitive).
func (b *DataBlock) saveFrame(name string) *DataBlock {
	if ix, ok := b.saveOrder[strings.ToLower(name)]; ok {
		return b.saveFrames[ix]
	}
	return nil
}

// parseItemValue handles a single "Tag Value" production, appending to the
// category's open singleton row (creating one on first use).
func (p *parser) parseItemValue(sc *scope, tagFull string) error {
	category, itemName := splitTagName(tagFull)
	v, err := p.next()
	if err != nil {
		return err
	}
	if !isValueType(v.typ) {
		return perr(p.line, "expected a value for tag '%s' but got a %s", tagFull, v.typ)
	}
	cat := sc.block.Emplace(category, false)
	row := sc.singleton[strings.ToLower(category)]
	if row == nil {
		row = &Row{}
		cat.appendRow(row)
		sc.singleton[strings.ToLower(category)] = row
	}
	return setParsedCell(cat, row, itemName, v)
}

func setParsedCell(cat *Category, row *Row, itemName string, v item) error {
	ix, err := cat.AddColumn(itemName)
	if err != nil {
		return err
	}
	switch v.typ {
	case itemValueInapplicable:
		row.setCellAt(uint16(ix), cellInapplicable, ".")
	case itemValueUnknown:
		row.deleteCellAt(uint16(ix))
	default:
		row.setCellAt(uint16(ix), cellText, v.val)
	}
	return nil
}
