package json5

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// SyntaxError describes a parse failure. Line and Column are 1-based;
// Column counts runes, not bytes.
type SyntaxError struct {
	Line   int
	Column int
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("json5: line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// AsSyntaxError unwraps err into a *SyntaxError when possible.
func AsSyntaxError(err error) (*SyntaxError, bool) {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// newSyntaxError resolves offset into a line/column position within src.
func newSyntaxError(src string, offset int, format string, args ...any) *SyntaxError {
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for i := 0; i < offset; {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch r {
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				i += 2
				line++
				col = 1
				continue
			}
			line++
			col = 1
		case '\n', '\u2028', '\u2029':
			line++
			col = 1
		default:
			col++
		}
		i += size
	}
	return &SyntaxError{
		Line:   line,
		Column: col,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
	}
}
