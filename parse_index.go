package cif

import (
	"io"
	"strings"
)

// dataKeywordLen is the fixed width, in bytes, of the "data_" literal the
// tokenizer consumes (and discards from the token span) before a data
// block's name. itemDataBlockStart.offset points at the name itself, not
// the keyword, so a seek target has to back up this many bytes to land
// somewhere lex() can restart from (see LoadBlockAt).
const dataKeywordLen = int64(len("data_"))

// IndexDataBlocks walks r once, tokenizing only enough to recognize
// top-level "data_<name>" headings (respecting strings, comments and text
// fields along the way, since those can contain anything), and returns a
// map from lowercased block name to the byte offset where its heading
// starts. This is spec.md §4.D's "index_datablocks": it lets a bundled
// dictionary's many schemas be seeked into directly instead of re-scanned
// from the top every time.
//
// Offsets are in the coordinate space of the CR/LF-normalized input (see
// normalizeNewlines); pass the same normalized bytes to LoadBlockAt.
func IndexDataBlocks(r io.Reader) (map[string]int64, []byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, &IoError{Op: "IndexDataBlocks", Err: err}
	}
	norm := normalizeNewlines(string(data))
	lx := lex(norm, false)
	index := make(map[string]int64)
	for {
		t := lx.nextItem()
		switch t.typ {
		case itemError:
			return nil, nil, &ParseError{Line: t.line, Message: t.val}
		case itemEOF:
			return index, []byte(norm), nil
		case itemDataBlockStart:
			index[strings.ToLower(t.val)] = int64(t.offset) - dataKeywordLen
		}
	}
}

// LoadBlockAt parses a single data block starting at offset within data
// (normalized bytes, as returned by IndexDataBlocks) and adds it to f.
func (f *File) LoadBlockAt(data []byte, offset int64) error {
	if offset < 0 || int(offset) > len(data) {
		return &ParseError{Message: "offset out of range"}
	}
	p := &parser{file: f, lx: lex(string(data[offset:]), f.Strict)}
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.typ != itemDataBlockStart {
		return perr(p.line, "offset does not point at a data block heading")
	}
	_, err = p.parseDataBlock(t.val)
	return err
}

// LoadSingleBlock scans r for the named data block (case-insensitive) and
// parses only that block, ignoring its siblings — spec.md §4.D's
// "parse_single_datablock". Every block is still tokenized up to the
// match; callers that need true O(1) seeks across many repeated loads
// should build an index once with IndexDataBlocks and call LoadBlockAt.
func (f *File) LoadSingleBlock(r io.Reader, name string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &IoError{Op: "LoadSingleBlock", Err: err}
	}
	norm := normalizeNewlines(string(data))
	target := strings.ToLower(name)
	lx := lex(norm, false)
	for {
		t := lx.nextItem()
		switch t.typ {
		case itemError:
			return &ParseError{Line: t.line, Message: t.val}
		case itemEOF:
			return perr(t.line, "data block '%s' not found", name)
		case itemDataBlockStart:
			if strings.ToLower(t.val) == target {
				return f.LoadBlockAt([]byte(norm), int64(t.offset)-dataKeywordLen)
			}
		}
	}
}
