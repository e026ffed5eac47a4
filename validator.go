package cif

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// PrimitiveType is the DDL primitive underlying a TypeValidator (spec.md
// §3/§4.F).
type PrimitiveType int

const (
	PrimitiveChar PrimitiveType = iota
	PrimitiveUChar
	PrimitiveNumb
)

// TypeValidator is a named primitive plus a compiled regular expression a
// value must match. mmCIF dictionaries write POSIX extended regex (e.g.
// character classes like "[][ \n\t]"); Go's regexp.CompilePOSIX implements
// POSIX ERE leftmost-longest matching natively, so no third-party regex
// engine is required here (see DESIGN.md).
type TypeValidator struct {
	Name      string
	Primitive PrimitiveType
	pattern   string
	re        *regexp.Regexp
}

// newTypeValidator compiles pattern as a POSIX ERE. An empty pattern
// normalizes to ".+", per spec.md §4.F.
func newTypeValidator(name string, primitive PrimitiveType, pattern string) (*TypeValidator, error) {
	if pattern == "" {
		pattern = ".+"
	}
	re, err := regexp.CompilePOSIX("^(" + pattern + ")$")
	if err != nil {
		return nil, &DictionaryError{Message: "type " + name + ": invalid pattern: " + err.Error()}
	}
	return &TypeValidator{Name: name, Primitive: primitive, pattern: pattern, re: re}, nil
}

// matches reports whether value satisfies this type's pattern.
func (t *TypeValidator) matches(value string) bool { return t.re.MatchString(value) }

// compare orders a and b under this type's primitive compare rule (spec.md
// §4.F): Numb compares numerically (empty sorts first); UChar case-folds
// and collapses space runs; Char only collapses space runs.
func (t *TypeValidator) compare(a, b string) int {
	switch t.Primitive {
	case PrimitiveNumb:
		af, aerr := fromCharsFloat(a)
		bf, berr := fromCharsFloat(b)
		switch {
		case aerr != nil && berr != nil:
			return 0
		case aerr != nil:
			return -1
		case berr != nil:
			return 1
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case PrimitiveUChar:
		return strings.Compare(collapseSpaceRuns(strings.ToLower(a)), collapseSpaceRuns(strings.ToLower(b)))
	default:
		return strings.Compare(collapseSpaceRuns(a), collapseSpaceRuns(b))
	}
}

// ItemValidator applies to one column within a category.
type ItemValidator struct {
	Tag       string // item name, without category prefix
	Mandatory bool
	typ       *TypeValidator
	enum      map[string]bool // normalized (case-folded under UChar) enum members
}

// Validate applies the regex/enum checks spec.md §4.F describes to a
// non-null, non-inapplicable, non-unknown value.
func (iv *ItemValidator) Validate(category, value string) error {
	if iv.typ != nil && !iv.typ.matches(value) {
		return &ValidationError{Category: category, Item: iv.Tag,
			Message: "value " + strconv.Quote(value) + " does not match type " + iv.typ.Name}
	}
	if len(iv.enum) > 0 {
		key := value
		if iv.typ != nil && iv.typ.Primitive == PrimitiveUChar {
			key = strings.ToLower(value)
		}
		if !iv.enum[key] {
			return &ValidationError{Category: category, Item: iv.Tag,
				Message: "value " + strconv.Quote(value) + " is not in the declared enumeration"}
		}
	}
	return nil
}

// CategoryValidator describes the schema of one category: its declared
// items, which of them are mandatory, and its primary key.
type CategoryValidator struct {
	Name      string
	Keys      []string
	Items     map[string]*ItemValidator // lowercased item name -> validator
	Mandatory map[string]bool           // lowercased item name -> mandatory
	aliases   map[string]string         // lowercased alias item name -> canonical item name
}

func newCategoryValidator(name string) *CategoryValidator {
	return &CategoryValidator{
		Name:      name,
		Items:     make(map[string]*ItemValidator),
		Mandatory: make(map[string]bool),
		aliases:   make(map[string]string),
	}
}

func (cv *CategoryValidator) itemValidator(tag string) *ItemValidator {
	_, item := splitTagName(tag)
	key := strings.ToLower(item)
	if canon, ok := cv.aliases[key]; ok {
		key = strings.ToLower(canon)
	}
	return cv.Items[key]
}

// LinkValidator is an N-column foreign key relationship between a parent
// and a child category, identified by GroupID (spec.md §3/§6). Multiple
// link groups between the same pair of categories are independent join
// paths, and GroupID is what distinguishes them during cascade (spec.md
// §4.I).
type LinkValidator struct {
	ParentCategory string
	ChildCategory  string
	ParentKeys     []string
	ChildKeys      []string
	GroupID        string
	Label          string // from _pdbx_item_linked_group.label, diagnostics only
}

// Validator is a compiled dictionary: the schema layered onto the store
// (spec.md §3/§4.F).
type Validator struct {
	Name    string
	Version string
	Strict  bool

	Types      map[string]*TypeValidator     // lowercased type code -> validator
	Categories map[string]*CategoryValidator // lowercased category name -> validator
	Links      []*LinkValidator

	Diagnostics []string // non-strict-mode warnings accumulated during use
}

// NewValidator returns an empty, non-strict Validator. Dictionaries are
// usually built via ParseDictionary instead of by hand.
func NewValidator(name string) *Validator {
	return &Validator{
		Name:       name,
		Types:      make(map[string]*TypeValidator),
		Categories: make(map[string]*CategoryValidator),
	}
}

func (v *Validator) categoryValidator(name string) *CategoryValidator {
	return v.Categories[strings.ToLower(name)]
}

// typeValidator looks up a compiled type by its DDL code.
func (v *Validator) typeValidator(code string) *TypeValidator {
	return v.Types[strings.ToLower(code)]
}

// warn records a diagnostic. In strict mode the caller should instead
// return the error; warn is for the non-strict continuation path (spec.md
// §4.F).
func (v *Validator) warn(msg string) {
	v.Diagnostics = append(v.Diagnostics, msg)
}

// fail returns err in strict mode, or records it as a diagnostic and
// returns nil otherwise — the single chokepoint spec.md §4.F's "strict
// flag" describes.
func (v *Validator) fail(err error) error {
	if v.Strict {
		return err
	}
	v.warn(err.Error())
	return nil
}

// --------------------------------------------------------------------
// ValidatorFactory: the one process-wide shared structure (spec.md §5).

// ValidatorFactory caches compiled dictionaries by name, guarded by a
// mutex. Construction happens inside the critical section on a cache
// miss, so concurrent misses for the same name are serialized and the
// dictionary is built only once; a build also blocks lookups of other
// names until it finishes.
type ValidatorFactory struct {
	mu    sync.Mutex
	cache map[string]*Validator
}

// NewValidatorFactory returns an empty factory.
func NewValidatorFactory() *ValidatorFactory {
	return &ValidatorFactory{cache: make(map[string]*Validator)}
}

// Get returns the cached Validator for name, building it with build on a
// miss. build is called with the factory's mutex held.
func (vf *ValidatorFactory) Get(name string, build func() (*Validator, error)) (*Validator, error) {
	vf.mu.Lock()
	defer vf.mu.Unlock()
	if v, ok := vf.cache[name]; ok {
		return v, nil
	}
	v, err := build()
	if err != nil {
		return nil, err
	}
	vf.cache[name] = v
	return v, nil
}
