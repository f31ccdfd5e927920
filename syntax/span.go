package syntax

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
)

// Span represents a location range in source code as byte offsets.
type Span struct {
	StartOffset uint32
	EndOffset   uint32
}

// MakeSpan builds a span from int offsets. Callers must have validated the
// source with CheckSize first.
func MakeSpan(start, end int) Span {
	return Span{StartOffset: uint32(start), EndOffset: uint32(end)}
}

// CheckSize reports an error when source is too large to be addressed by
// span offsets.
func CheckSize(source string) error {
	if _, err := safecast.Conv[uint32](len(source)); err != nil {
		return fmt.Errorf("template source too large (%d bytes): %w", len(source), err)
	}
	return nil
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	if s.EndOffset < s.StartOffset {
		return 0
	}
	return int(s.EndOffset - s.StartOffset)
}

// Text returns the part of source covered by the span.
func (s Span) Text(source string) string {
	start, end := int(s.StartOffset), int(s.EndOffset)
	if start > len(source) {
		start = len(source)
	}
	if end > len(source) || end < start {
		end = len(source)
	}
	return source[start:end]
}

// Position is a 1-based line and column pair. Columns count runes.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Start returns the position of the first byte of the span.
func (s Span) Start(source string) Position {
	return PositionAt(source, int(s.StartOffset))
}

// End returns the position just after the last byte of the span.
func (s Span) End(source string) Position {
	return PositionAt(source, int(s.EndOffset))
}

// PositionAt converts a byte offset into a line/column position.
func PositionAt(source string, offset int) Position {
	if offset > len(source) {
		offset = len(source)
	}
	if offset < 0 {
		offset = 0
	}
	before := source[:offset]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return Position{Line: line, Col: utf8.RuneCountInString(before[lineStart:]) + 1}
}
