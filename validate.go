package cif

// ValidationReport accumulates every diagnostic produced by a full walk of
// a File against its attached Validator (File.Validate), mirroring
// validate.cpp's report_error: in non-strict mode a violation is recorded
// and the walk continues; in strict mode the first violation aborts it.
type ValidationReport struct {
	Errors []error
}

// OK reports whether the walk found nothing to complain about.
func (r *ValidationReport) OK() bool { return len(r.Errors) == 0 }

// Validate walks every category of every data block in f against f's
// attached Validator, checking mandatory items, type/enum constraints on
// every stored value, primary-key uniqueness, and link referential
// integrity (every non-empty child key tuple resolves to a live parent
// row). A nil validator yields an empty, OK report.
//
// In strict mode the first violation is returned as err and the walk
// stops; in non-strict mode every violation is collected into the
// returned report's Errors and nil is returned, so a caller can always
// distinguish "validator said no" (err != nil) from "validator has
// complaints but this is non-strict" (report.Errors non-empty, err nil).
func (f *File) Validate() (*ValidationReport, error) {
	report := &ValidationReport{}
	if f.validator == nil {
		return report, nil
	}
	for _, b := range f.Blocks() {
		for _, cat := range b.Categories() {
			if err := cat.validateRows(report); err != nil {
				return report, err
			}
		}
		for _, cat := range b.Categories() {
			if err := cat.validateLinks(report); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

// validateRows checks every row of c against its CategoryValidator: no two
// rows sharing a primary-key tuple, every
// mandatory item present and non-unknown, and every stored value still
// satisfying its item's type/enum (a value can have been written before a
// validator was attached, via SetValidator, so this re-checks what
// Category.validateWrite only ever checked at write time).
func (c *Category) validateRows(report *ValidationReport) error {
	if c.validator == nil || c.catValidator == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, row := range c.Rows() {
		if key, ok := c.keyTuple(row); ok {
			if seen[key] {
				err := &ValidationError{Category: c.name, Message: "duplicate primary key", Err: ErrDuplicateKey}
				if reportErr := c.recordViolation(report, err); reportErr != nil {
					return reportErr
				}
			}
			seen[key] = true
		}
		for item := range c.catValidator.Mandatory {
			if c.Value(row, item).IsUnknown() {
				err := &ValidationError{Category: c.name, Item: item, Message: "mandatory item has no value"}
				if reportErr := c.recordViolation(report, err); reportErr != nil {
					return reportErr
				}
			}
		}
		for _, col := range c.Columns() {
			f := c.Value(row, col)
			if f.IsUnknown() || f.IsInapplicable() {
				continue
			}
			iv := c.catValidator.itemValidator(col)
			if iv == nil {
				continue
			}
			if err := iv.Validate(c.name, f.text); err != nil {
				if reportErr := c.recordViolation(report, err); reportErr != nil {
					return reportErr
				}
			}
		}
	}
	return nil
}

// validateLinks checks, for every link group where c is the child, that
// every row whose child key columns are all non-empty (neither unknown nor
// inapplicable) resolves to a row of the parent
// category (spec.md §4.I's referential-integrity invariant, checked here
// as a whole-file scan rather than only at write time).
func (c *Category) validateLinks(report *ValidationReport) error {
	for _, lg := range c.childLinks {
		parent := c.parentCategory(lg)
		if parent == nil {
			err := &LinkError{ParentCategory: lg.ParentCategory, ChildCategory: lg.ChildCategory,
				Message: "parent category not present in this data block"}
			if reportErr := c.recordViolation(report, err); reportErr != nil {
				return reportErr
			}
			continue
		}
		for _, row := range c.Rows() {
			values := linkKeyValues(c, row, lg.ChildKeys)
			empty := false
			for _, f := range values {
				if f.IsUnknown() || f.IsInapplicable() {
					empty = true
				}
			}
			if empty {
				continue
			}
			tuple := linkKeyTuple(values)
			if !resolvesLiveParent(parent, lg.ParentKeys, tuple) {
				err := &LinkError{ParentCategory: lg.ParentCategory, ChildCategory: lg.ChildCategory,
					Message: "child row does not resolve to any row of its parent"}
				if reportErr := c.recordViolation(report, err); reportErr != nil {
					return reportErr
				}
			}
		}
	}
	return nil
}

// recordViolation is the strict/non-strict chokepoint Validate and its
// helpers share: it defers to Validator.fail for the strict/non-strict
// split (strict mode returns err to abort the walk immediately, non-strict
// mode logs it to the validator's diagnostics), then additionally appends
// the violation to report so a caller walking a whole file sees every
// complaint, not just the last one logged.
func (c *Category) recordViolation(report *ValidationReport, err error) error {
	if ferr := c.validator.fail(err); ferr != nil {
		return ferr
	}
	report.Errors = append(report.Errors, err)
	return nil
}
