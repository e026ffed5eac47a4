package cif

import "testing"

func collectTokens(t *testing.T, input string) []item {
	t.Helper()
	return collectTokensStrict(t, input, false)
}

func collectTokensStrict(t *testing.T, input string, strict bool) []item {
	t.Helper()
	lx := lex(input, strict)
	var out []item
	for {
		it := lx.nextItem()
		if it.typ == itemError {
			t.Fatalf("line %d: %s", it.line, it.val)
		}
		out = append(out, it)
		if it.typ == itemEOF {
			return out
		}
	}
}

// lexUntilError runs the lexer to completion and returns the first
// itemError (or a zero item if none occurred), without failing the test.
func lexUntilError(input string, strict bool) item {
	lx := lex(input, strict)
	for {
		it := lx.nextItem()
		if it.typ == itemError || it.typ == itemEOF {
			return it
		}
	}
}

func TestLexerDataBlockAndTags(t *testing.T) {
	const input = `data_TEST
_entry.id 1
loop_ _t.a _t.b
1 aap
2 noot
`
	toks := collectTokens(t, input)
	var typs []itemType
	for _, tk := range toks {
		typs = append(typs, tk.typ)
	}
	want := []itemType{
		itemDataBlockStart, itemTag, itemValueInt,
		itemLoop, itemTag, itemTag,
		itemValueInt, itemValueString, itemValueInt, itemValueString,
		itemEOF,
	}
	if len(typs) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(typs), typs, len(want), want)
	}
	for i := range want {
		if typs[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, typs[i], want[i])
		}
	}
}

func TestLexerQuotedAndSentinelValues(t *testing.T) {
	const input = `data_TEST
_entry.id 'andrew''s pet'
_entry.note .
_entry.other ?
`
	toks := collectTokens(t, input)
	var vals []string
	var typs []itemType
	for _, tk := range toks {
		typs = append(typs, tk.typ)
		vals = append(vals, tk.val)
	}
	if typs[2] != itemValueString {
		t.Fatalf("expected quoted value to lex as String, got %s", typs[2])
	}
	if typs[4] != itemValueInapplicable {
		t.Fatalf("expected '.' to lex as Inapplicable, got %s", typs[4])
	}
	if typs[6] != itemValueUnknown {
		t.Fatalf("expected '?' to lex as Unknown, got %s", typs[6])
	}
}

func TestLexerTextField(t *testing.T) {
	const input = "data_TEST\nloop_ _t.a _t.b\n1\n;line one\nline two\n;\n"
	toks := collectTokens(t, input)
	found := false
	for _, tk := range toks {
		if tk.typ == itemValueString && tk.val == "line one\nline two" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a text-field value preserving internal newline, got %v", toks)
	}
}

func TestLexerOffsetsAreByteAccurate(t *testing.T) {
	// itemDataBlockStart.offset points at the bare block name, not the
	// "data_" keyword preceding it: the token's span is only ever the name
	// (see IndexDataBlocks, which backs up by dataKeywordLen to reach a
	// re-lexable "data_NAME" heading for LoadBlockAt).
	const input = "data_ONE\n_entry.id 1\ndata_TWO\n_entry.id 2\n"
	toks := collectTokens(t, input)
	var offsets []int
	for _, tk := range toks {
		if tk.typ == itemDataBlockStart {
			offsets = append(offsets, tk.offset)
		}
	}
	if len(offsets) != 2 {
		t.Fatalf("expected 2 data block headings, got %d", len(offsets))
	}
	if input[offsets[0]:offsets[0]+3] != "ONE" {
		t.Fatalf("offset %d does not point at ONE's name: %q", offsets[0], input[offsets[0]:offsets[0]+3])
	}
	if input[offsets[1]:offsets[1]+3] != "TWO" {
		t.Fatalf("offset %d does not point at TWO's name: %q", offsets[1], input[offsets[1]:offsets[1]+3])
	}
}

func TestLexerQuotedStringRejectsNonPrintableByte(t *testing.T) {
	input := "data_TEST\n_entry.id 'bad\x01byte'\n"
	it := lexUntilError(input, false)
	if it.typ != itemError {
		t.Fatalf("expected a non-printable byte inside a quoted string to raise an error regardless of strictness, got %s", it.typ)
	}
}

func TestLexerCommentToleratesNonPrintableByteByDefault(t *testing.T) {
	input := "data_TEST\n# a comment with a stray \x01 byte\n_entry.id 1\n"
	it := lexUntilError(input, false)
	if it.typ != itemEOF {
		t.Fatalf("expected a non-printable byte in a comment to be tolerated when not strict, got %s: %s", it.typ, it.val)
	}
}

func TestLexerStrictRejectsNonPrintableByteInComment(t *testing.T) {
	input := "data_TEST\n# a comment with a stray \x01 byte\n_entry.id 1\n"
	it := lexUntilError(input, true)
	if it.typ != itemError {
		t.Fatalf("expected Strict to raise on a non-printable byte in a comment, got %s", it.typ)
	}
}
