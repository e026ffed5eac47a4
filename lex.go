package cif

// lexCifInitial checks for the CIF 1.1 version annotation before anything
// else (spec.md §6 grammar is silent on it, but real-world CIF files carry
// it as a leading comment; we accept and record it without requiring it).
func lexCifInitial(lx *lexer) stateFn {
	r := lx.next()
	if r == commentStart {
		return lexVersion
	}
	lx.backup()
	return lexCif
}

// lexCif consumes everything before the first top-level production.
func lexCif(lx *lexer) stateFn {
	r := lx.peek()
	if r == eof {
		return lx.stop()
	}
	if r == commentStart || isWhiteSpace(r) {
		lx.push(lexCif)
		lx.ignore()
		return lexWhiteSpaceContinue
	}
	if lx.aheadMatch("global_") {
		return lx.acceptStr(lx.peekAt(7), lexGlobalHeading)
	}
	if s := lx.peekAt(5); iequals(s, "data_") {
		lx.push(lexDataBlockHeading)
		return lx.acceptStr(s, lx.chars(true, isNonBlankChar))
	}
	return lx.errf("expected a comment, whitespace, global_ or a data block heading, but got %q", r)
}

func lexGlobalHeading(lx *lexer) stateFn {
	lx.emit(itemGlobalStart)
	return lexGlobalItems
}

// lexGlobalItems discards tag/value pairs until the next reserved word,
// per spec.md §6: "global_" items are consumed and discarded.
func lexGlobalItems(lx *lexer) stateFn {
	if r := lx.peek(); isWhiteSpace(r) {
		return lexWhiteSpace(lx, lexGlobalItems)
	} else if r == eof {
		return lx.stop()
	}
	if s := lx.peekAt(5); iequals(s, "data_") {
		lx.push(lexDataBlockHeading)
		return lx.acceptStr(s, lx.chars(true, isNonBlankChar))
	}
	if lx.peek() == tagPrefix {
		lx.next()
		lx.ignore()
		lx.push(lexGlobalTagValue)
		lx.push(lexDataTag)
		return lx.chars(true, isNonBlankChar)
	}
	return lx.errf("expected a data tag or data_ heading inside global_, but got %q", lx.peek())
}

func lexGlobalTagValue(lx *lexer) stateFn {
	lx.push(lexGlobalItems)
	return lexValue
}

// lexDataBlockHeading emits the consumed input as a data block heading, and
// makes sure there is whitespace (or EOF) after the heading.
func lexDataBlockHeading(lx *lexer) stateFn {
	lx.emit(itemDataBlockStart)
	return lexSpaceOrEof(lx, lexDataBlocks)
}

// lexSaveFrameHeading emits the consumed input as a save-frame heading.
func lexSaveFrameHeading(lx *lexer) stateFn {
	lx.emit(itemSaveFrameStart)
	return lexWhiteSpace(lx, lexFirstSaveDataItem)
}

// lexSaveFrameEnd consumes the end delimiter of a save frame.
func lexSaveFrameEnd(lx *lexer) stateFn {
	if s := lx.peekAt(5); iequals(s, "save_") {
		lx.emit(itemSaveFrameEnd)
		return lx.acceptStr(s, lexSpaceOrEof(lx, lexDataBlocks))
	}
	return lx.errf("expected 'save_' at end of save frame, but got %q instead", lx.peekAt(5))
}

// lexDataBlocks assumes at least one whitespace character has been consumed
// and looks for the next data block, save frame, or data item.
func lexDataBlocks(lx *lexer) stateFn {
	if r := lx.peek(); isWhiteSpace(r) {
		return lexWhiteSpace(lx, lexDataBlocks)
	} else if r == eof {
		return lx.stop()
	}

	if lx.aheadMatch("stop_") {
		return lx.errf("stop_ is reserved and is not valid here")
	}
	if s := lx.peekAt(5); iequals(s, "data_") {
		lx.push(lexDataBlockHeading)
		return lx.acceptStr(s, lx.chars(true, isNonBlankChar))
	}
	if s := lx.peekAt(5); iequals(s, "save_") {
		lx.push(lexSaveFrameHeading)
		return lx.acceptStr(s, lx.chars(true, isNonBlankChar))
	}
	lx.push(lexDataBlocks)
	return lexDataItem
}

// lexFirstSaveDataItem consumes one data item or else the lexer fails.
func lexFirstSaveDataItem(lx *lexer) stateFn {
	lx.push(lexSaveDataItems)
	return lexDataItem
}

// lexSaveDataItems tries to consume the next data item after one has
// already been consumed, watching for the end 'save_' delimiter.
func lexSaveDataItems(lx *lexer) stateFn {
	if lx.aheadMatch("save_") {
		return lexSaveFrameEnd(lx)
	}
	if lx.peek() == tagPrefix || lx.aheadMatch("loop_") {
		lx.push(lexSaveDataItems)
		return lexDataItem
	}
	return lx.errf("expected a data item or the end of a save frame, but got %q instead", lx.peek())
}

// lexDataItem consumes a single data item, including its value(s).
func lexDataItem(lx *lexer) stateFn {
	if s := lx.peekAt(5); iequals(s, "loop_") {
		lx.ignore()
		lx.emit(itemLoop)
		return lx.acceptStr(s, lexLoopStartWhiteSpace)
	}
	if r := lx.next(); r != tagPrefix {
		return lx.errf("expected a data item name starting with '_' but got %q instead", r)
	}
	lx.ignore()
	lx.push(lexValue)
	lx.push(lexDataTag)
	return lx.chars(true, isNonBlankChar)
}

// lexLoopStartWhiteSpace enforces whitespace after the initial 'loop_'.
func lexLoopStartWhiteSpace(lx *lexer) stateFn {
	return lexWhiteSpace(lx, lexLoopStart)
}

// lexLoopStart consumes one data tag, or else the lexer fails.
func lexLoopStart(lx *lexer) stateFn {
	if r := lx.next(); r != tagPrefix {
		return lx.errf("every loop_ must declare at least one data tag, but found %q instead", r)
	}
	lx.ignore()
	lx.push(lexLoopTags)
	lx.push(lexDataTag)
	return lx.chars(true, isNonBlankChar)
}

// lexLoopTags attempts to consume a data tag, otherwise starts on values.
func lexLoopTags(lx *lexer) stateFn {
	if r := lx.peek(); r == tagPrefix {
		lx.next()
		lx.ignore()
		lx.push(lexLoopTags)
		lx.push(lexDataTag)
		return lx.chars(true, isNonBlankChar)
	}
	return lexLoopStartValue
}

// lexLoopStartValue consumes one value, or else the lexer fails.
func lexLoopStartValue(lx *lexer) stateFn {
	lx.push(lexLoopValues)
	return lexValue
}

// lexLoopValues attempts to consume a data value, watching for the end of
// the loop (a '_', or a 'data_'/'save_'/'loop_' heading).
func lexLoopValues(lx *lexer) stateFn {
	r := lx.peek()
	peek := lx.peekAt(5)
	if r == tagPrefix {
		return lx.pop()
	}
	if r == 'd' || r == 's' || r == 'l' || r == 'D' || r == 'S' || r == 'L' {
		if iequals(peek, "data_") || iequals(peek, "save_") || iequals(peek, "loop_") {
			return lx.pop()
		}
	}
	if r == eof {
		return lx.stop()
	}
	lx.push(lexLoopValues)
	return lexValue
}

// lexDataTag emits a data tag and ensures whitespace follows it.
func lexDataTag(lx *lexer) stateFn {
	lx.emit(itemTag)
	return lexWhiteSpace(lx, lx.pop())
}

// lexVersion attempts to lex "\#CIF_*" as a version annotation. If it
// fails partway, it drops into a regular comment instead.
func lexVersion(lx *lexer) stateFn {
	letters := []rune{'\\', '#', 'C', 'I', 'F', '_'}
	for _, letter := range letters {
		r := lx.next()
		if r != letter {
			lx.push(lexCif)
			return lexComment
		}
	}
	for {
		r := lx.peek()
		if isNL(r) || r == eof {
			break
		}
		lx.next()
	}
	lx.emit(itemVersion)
	return lexCif
}
