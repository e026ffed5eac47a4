package cif

// itemType classifies a single lexeme produced by the tokenizer (spec.md
// §4.C). It is the FSA's alphabet of outputs; the grammar driver (parse.go)
// consumes a stream of these.
type itemType int

const (
	itemError itemType = iota
	itemEOF
	itemVersion // leading "#\#CIF_x.y" comment, if present
	itemComment
	itemGlobalStart   // "global_"
	itemStop          // "stop_" (reserved, not otherwise productive)
	itemDataBlockStart
	itemSaveFrameStart
	itemSaveFrameEnd
	itemLoop
	itemTag
	itemValueInapplicable // unquoted "."
	itemValueUnknown      // unquoted "?"
	itemValueInt
	itemValueFloat
	itemValueString // quoted, text-field or unquoted-generic
)

const (
	eof          = 0
	tagPrefix    = '_'
	commentStart = '#'
	dataOmitted  = '.'
	dataMissing  = '?'
)

// item is one token: its type, the exact text consumed, the line the
// lexer was on when it emitted the token (1-indexed; the last line of a
// multi-line text field), and the byte offset (into the lexer's
// normalized input) where it started.
type item struct {
	typ    itemType
	val    string
	line   int
	offset int
}

func (t itemType) String() string {
	switch t {
	case itemError:
		return "Error"
	case itemEOF:
		return "EOF"
	case itemVersion:
		return "Version"
	case itemComment:
		return "Comment"
	case itemGlobalStart:
		return "GlobalStart"
	case itemStop:
		return "Stop"
	case itemDataBlockStart:
		return "DataBlockStart"
	case itemSaveFrameStart:
		return "SaveFrameStart"
	case itemSaveFrameEnd:
		return "SaveFrameEnd"
	case itemLoop:
		return "Loop"
	case itemTag:
		return "Tag"
	case itemValueInapplicable:
		return "Inapplicable"
	case itemValueUnknown:
		return "Unknown"
	case itemValueInt:
		return "Int"
	case itemValueFloat:
		return "Float"
	case itemValueString:
		return "String"
	default:
		return "Unknown itemType"
	}
}

func isValueType(t itemType) bool {
	switch t {
	case itemValueInapplicable, itemValueUnknown, itemValueInt, itemValueFloat, itemValueString:
		return true
	}
	return false
}

func isOrdinaryChar(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') || r == '!' || r == '%' || r == '&' ||
		r == '(' || r == ')' || r == '*' || r == '+' || r == ',' ||
		r == '-' || r == '.' || r == '/' || r == ':' || r == '<' ||
		r == '=' || r == '>' || r == '?' || r == '@' || r == '\\' ||
		r == '^' || r == '`' || r == '{' || r == '|' || r == '}' || r == '~'
}

func isNonBlankChar(r rune) bool {
	return isOrdinaryChar(r) || r == '"' || r == '#' || r == '$' ||
		r == '\'' || r == '_' || r == ';' || r == '[' || r == ']'
}

func isTextLeadChar(r rune) bool {
	return isOrdinaryChar(r) || r == '"' || r == '#' || r == '$' ||
		r == '\'' || r == '_' || r == ' ' || r == '\t' || r == '[' || r == ']'
}

func isPrintChar(r rune) bool {
	return isTextLeadChar(r) || r == ';'
}

func isWhiteSpace(r rune) bool {
	return r == ' ' || r == '\t' || isNL(r)
}

func isNL(r rune) bool {
	return r == '\n' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
