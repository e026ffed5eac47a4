package cif

// lexValue implements the restart ladder of spec.md §4.C: it attempts to
// recognize a value as inapplicable/unknown/quoted/text-field first
// (single-character or single-byte lookahead is enough for those), then
// falls into the numeric ladder (integer -> float), retracting to a
// generic unquoted string the moment a byte violates the current
// hypothesis.
func lexValue(lx *lexer) stateFn {
	// Get the previous rune consumed, to test for BOL (beginning of line).
	lx.backup()
	previous := lx.next()

	reserved := []string{"data_", "save_"}
	for _, word := range reserved {
		if lx.aheadMatch(word) {
			return lx.errf("%s cannot begin an unquoted value", word)
		}
	}

	r := lx.next()
	switch {
	case r == dataOmitted && (isWhiteSpace(lx.peek()) || lx.peek() == eof):
		lx.emit(itemValueInapplicable)
		return lexSpaceOrEof(lx, lexValueEnd)
	case r == dataMissing && (isWhiteSpace(lx.peek()) || lx.peek() == eof):
		lx.emit(itemValueUnknown)
		return lexSpaceOrEof(lx, lexValueEnd)
	case r == '+' || r == '-':
		return lexValueIntegerStart
	case isDigit(r):
		return lexValueInteger
	case r == '.':
		return lexValueFloatAfterDecimal
	case r == '\'' || r == '"':
		lx.ignore()
		return lexValueQuoted(r)
	case (isNL(previous) || lx.pos == lx.width) && r == ';':
		lx.ignore()
		return lexValueTextFieldFirstLine
	case isOrdinaryChar(r) || r == ';':
		lx.push(lexValueUnquotedEnd)
		return lx.chars(false, isNonBlankChar)
	}
	return lx.errf("expected a value ('.', '?', numeric or string), but got %q", r)
}

// lexValueEnd ensures there is whitespace after a value and returns to the
// next state on the stack.
func lexValueEnd(lx *lexer) stateFn {
	return lexWhiteSpace(lx, lx.pop())
}

// lexValueIntegerStart handles the first digit after a leading sign.
func lexValueIntegerStart(lx *lexer) stateFn {
	r := lx.peek()
	switch {
	case isDigit(r):
		lx.accept(r)
		return lexValueInteger
	case r == '.':
		lx.accept(r)
		return lexValueFloatAfterDecimal
	}
	// Retract: this was never a number. Fall back to unquoted string.
	lx.push(lexValueUnquotedEnd)
	return lx.chars(false, isNonBlankChar)
}

// lexValueInteger consumes an integer while allowing the possibility that
// the token turns out to be a float or a generic string (the restart
// ladder's middle rung).
func lexValueInteger(lx *lexer) stateFn {
	r := lx.peek()
	switch {
	case isDigit(r):
		lx.accept(r)
		return lexValueInteger
	case r == '.':
		lx.accept(r)
		return lexValueFloatAfterDecimal
	case r == 'e' || r == 'E':
		lx.accept(r)
		return lexValueExponentFirst
	case isWhiteSpace(r) || r == eof:
		lx.emit(itemValueInt)
		return lexSpaceOrEof(lx, lexValueEnd)
	}
	// Retract to a generic unquoted string.
	lx.push(lexValueUnquotedEnd)
	return lx.chars(false, isNonBlankChar)
}

// lexValueExponentFirst checks for a '+' or '-' before exponent digits.
func lexValueExponentFirst(lx *lexer) stateFn {
	r := lx.peek()
	if r == '+' || r == '-' {
		lx.accept(r)
	}
	return lexValueExponent
}

// lexValueExponent consumes the digit portion of an exponent.
func lexValueExponent(lx *lexer) stateFn {
	r := lx.peek()
	switch {
	case isDigit(r):
		lx.accept(r)
		return lexValueExponent
	case isWhiteSpace(r) || r == eof:
		lx.emit(itemValueFloat)
		return lexSpaceOrEof(lx, lexValueEnd)
	}
	lx.push(lexValueUnquotedEnd)
	return lx.chars(false, isNonBlankChar)
}

// lexValueFloatAfterDecimal consumes digits after a decimal point.
func lexValueFloatAfterDecimal(lx *lexer) stateFn {
	r := lx.peek()
	switch {
	case isDigit(r):
		lx.accept(r)
		return lexValueFloatAfterDecimal
	case r == 'e' || r == 'E':
		lx.accept(r)
		return lexValueExponentFirst
	case isWhiteSpace(r) || r == eof:
		lx.emit(itemValueFloat)
		return lexSpaceOrEof(lx, lexValueEnd)
	}
	lx.push(lexValueUnquotedEnd)
	return lx.chars(false, isNonBlankChar)
}

// lexValueTextFieldFirstLine assumes '<BOL>;' has already been consumed and
// ignored, and lexes the rest of the first line of a text field.
func lexValueTextFieldFirstLine(lx *lexer) stateFn {
	lx.push(lexValueTextField)
	return lx.chars(false, isPrintChar)
}

// lexValueTextField assumes the first line of a semicolon text field has
// been consumed, and looks for the '<eol>;' terminator on subsequent lines.
func lexValueTextField(lx *lexer) stateFn {
	s := lx.peekAt(2)
	if len(s) == 2 && isNL(rune(s[0])) && s[1] == ';' {
		lx.emit(itemValueString)
		return lx.acceptStr(s, lexSpaceOrEof(lx, lexValueEnd))
	}
	if len(s) < 2 {
		return lx.errf("expected a semicolon terminator, but got EOF")
	}

	r := lx.next()
	if !isNL(r) {
		return lx.errf("expected a new line before the end of a semicolon text field, but got %q", r)
	}
	if isNL(lx.peek()) {
		return lexValueTextField
	}
	lx.push(lexValueTextField)
	return lx.chars(true, isPrintChar)
}

// lexValueUnquotedEnd emits the value as a generic string, after checking
// that no reserved word was used as an unquoted value.
func lexValueUnquotedEnd(lx *lexer) stateFn {
	reserved := []string{"loop_", "stop_", "global_"}
	for _, word := range reserved {
		if iequals(word, lx.current()) {
			return lx.errf("%s cannot be used as an unquoted string value", word)
		}
	}
	lx.emit(itemValueString)
	return lexSpaceOrEof(lx, lexValueEnd)
}

// lexValueQuoted consumes a single- or double-quoted string. The closing
// quote must be followed by whitespace or EOF, which is what lets
// "andrew's pet" work inside single quotes.
func lexValueQuoted(quote rune) stateFn {
	return func(lx *lexer) stateFn {
		for {
			r := lx.next()
			if isNL(r) {
				return lx.errf("quoted strings may not contain new lines")
			}
			if r == eof {
				return lx.errf("expected the end of a quoted string, but got EOF")
			}
			if !isPrintChar(r) {
				return lx.errf("quoted strings may not contain non-printable character %q", r)
			}

			peek := lx.peekAt(1)
			if r == quote && (len(peek) == 0 || isWhiteSpace(rune(peek[0]))) {
				lx.backup()
				lx.emit(itemValueString)
				lx.accept(r)
				lx.ignore()
				return lexSpaceOrEof(lx, lexValueEnd)
			}
		}
	}
}
