package cif

import "strconv"

// fromCharsFloat parses s as a locale-independent IEEE-754 float, matching
// the grammar spec.md §4.A requires: optional sign, digits, optional
// fractional part, optional e[+-]ddd exponent. Go's strconv is already
// locale-independent, so this is a thin, documented wrapper (see DESIGN.md
// for why no third-party numeric parser is wired in). TypeValidator.compare
// is the sole caller: it is how a Numb-typed item's values get compared
// numerically rather than lexically.
func fromCharsFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
