package cif

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatValueTextQuotingRules(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "''"},
		{"plain", "plain"},
		{"1.50", "\"1.50\""},
		{"-12", "\"-12\""},
		{".5e-3", "\".5e-3\""},
		{"andrew's", "andrew's"},
		{"he said \"hi\"", "'he said \"hi\"'"},
		{"loop_like", "'loop_like'"},
	}
	for _, c := range cases {
		if got := formatValueText(c.in); got != c.want {
			t.Errorf("formatValueText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatValueTextNeedsTextFieldWhenBothQuotesPresent(t *testing.T) {
	s := "has 'single' and \"double\""
	got := formatValueText(s)
	if !strings.HasPrefix(got, "\n;") || !strings.HasSuffix(got, ";") {
		t.Fatalf("expected a semicolon text field, got %q", got)
	}
	if !strings.Contains(got, s) {
		t.Fatalf("text field did not preserve original text: %q", got)
	}
}

func TestWriteRoundTripsSingletonCategory(t *testing.T) {
	f := NewFile()
	b := newDataBlock("TEST")
	if err := f.addBlock(b); err != nil {
		t.Fatalf("addBlock: %v", err)
	}
	entry := b.Emplace("entry", false)
	if _, err := entry.Emplace(map[string]FieldValue{"id": Text("1ABC"), "title": Text("a small test")}); err != nil {
		t.Fatalf("Emplace: %v", err)
	}

	var buf bytes.Buffer
	if err := f.Save(&buf, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out := NewFile()
	if err := out.Load(&buf); err != nil {
		t.Fatalf("round-trip Load: %v\n--- written ---\n%s", err, buf.String())
	}
	rt := out.Block("TEST").Category("entry")
	row := rt.Rows()[0]
	if got := rt.Value(row, "title").String(); got != "a small test" {
		t.Fatalf("round-tripped title = %q, want %q", got, "a small test")
	}
}

func TestWriteRoundTripsNumericLookingString(t *testing.T) {
	f := NewFile()
	b := newDataBlock("TEST")
	if err := f.addBlock(b); err != nil {
		t.Fatalf("addBlock: %v", err)
	}
	cat := b.Emplace("atom_site", false)
	for i := 0; i < 2; i++ {
		if _, err := cat.Emplace(map[string]FieldValue{
			"id":    Text([]string{"1", "2"}[i]),
			"label": Text([]string{"1.50", "CA"}[i]),
		}); err != nil {
			t.Fatalf("Emplace: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Save(&buf, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.Contains(buf.String(), `"1.50"`) {
		t.Fatalf("expected the numeric-looking label to be written quoted:\n%s", buf.String())
	}

	out := NewFile()
	if err := out.Load(&buf); err != nil {
		t.Fatalf("round-trip Load: %v", err)
	}
	rt := out.Block("TEST").Category("atom_site")
	if got := rt.Value(rt.Rows()[0], "label").String(); got != "1.50" {
		t.Fatalf("round-tripped numeric-looking label = %q, want %q (it must survive as a string, not become a bare number token)", got, "1.50")
	}
}

func TestWriteHoistsEntryAndAuditConformFirst(t *testing.T) {
	f := NewFile()
	b := newDataBlock("TEST")
	if err := f.addBlock(b); err != nil {
		t.Fatalf("addBlock: %v", err)
	}
	b.Emplace("zzz_last", false).Emplace(map[string]FieldValue{"a": Text("1")})
	b.Emplace("entry", false).Emplace(map[string]FieldValue{"id": Text("1ABC")})

	var buf bytes.Buffer
	if err := f.Save(&buf, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out := buf.String()
	entryIx := strings.Index(out, "_entry.")
	otherIx := strings.Index(out, "_zzz_last.")
	if entryIx < 0 || otherIx < 0 || entryIx > otherIx {
		t.Fatalf("expected _entry.* before _zzz_last.* in:\n%s", out)
	}
}
