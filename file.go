package cif

import (
	"io"
	"log/slog"
	"strings"
)

// File is an ordered set of DataBlocks with an optional attached Validator
// (spec.md §3/§4.K). It is the top-level handle most callers construct.
type File struct {
	order  []string
	blocks map[string]*DataBlock

	validator *Validator

	// Version is the "#\#CIF_x.y" leading comment, if the parsed file
	// carried one (spec.md §6 grammar is silent on it; real-world CIF
	// files include it and Load records it without requiring it).
	Version string

	// Logger is stored with the File (slog.Default() when nil); parsing,
	// validation and dictionary loading do not write to it. Non-strict
	// validation warnings go to Validator.Diagnostics instead.
	Logger *slog.Logger

	// Strict, when set, makes Load raise a ParseError on non-printable
	// bytes inside comments too — everywhere else in the grammar (quoted
	// strings, text fields) that check always applies regardless of this
	// flag.
	Strict bool
}

// NewFile returns an empty File ready to have data blocks added to it.
func NewFile() *File {
	return &File{blocks: make(map[string]*DataBlock)}
}

func (f *File) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// Blocks returns the file's data blocks in load/insertion order.
func (f *File) Blocks() []*DataBlock {
	out := make([]*DataBlock, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.blocks[strings.ToLower(name)])
	}
	return out
}

// Block returns the named data block (case-insensitive), or nil.
func (f *File) Block(name string) *DataBlock {
	return f.blocks[strings.ToLower(name)]
}

// addBlock registers a new, uniquely named data block.
func (f *File) addBlock(b *DataBlock) error {
	key := strings.ToLower(b.name)
	if _, ok := f.blocks[key]; ok {
		return &ParseError{Message: "data block with name '" + b.name + "' already exists"}
	}
	b.file = f
	f.blocks[key] = b
	f.order = append(f.order, b.name)
	return nil
}

// Validator returns the file's attached validator, if any.
func (f *File) Validator() *Validator { return f.validator }

// SetValidator attaches v to the file and cascades it to every data block,
// which cascades it to every category (spec.md §4.K).
func (f *File) SetValidator(v *Validator) {
	f.validator = v
	for _, b := range f.Blocks() {
		b.setValidator(v)
	}
}

// Load parses r as a full CIF file (spec.md §4.D "parse_file") and
// populates f. Load is fail-fast: the first syntax or semantic error
// aborts the parse.
func (f *File) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &IoError{Op: "Load", Err: err}
	}
	p := newParser(f, string(data))
	return p.parseFile()
}

// Save serializes f to w. A nil tagOrder falls back to hoisting "entry"
// and "audit_conform" to the top of each block, per spec.md §4.J; a
// non-nil tagOrder names categories to emit first, in order.
func (f *File) Save(w io.Writer, tagOrder []string) error {
	return writeFile(w, f, tagOrder)
}
