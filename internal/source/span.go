package source

import "fmt"

// Span is a half-open byte range within one source file.
type Span struct {
	Start uint32 // inclusive
	End   uint32 // exclusive
}

func NewSpan(start, end uint32) Span {
	return Span{Start: start, End: end}
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// LineCol is a human-readable position, 1-based in both fields.
type LineCol struct {
	Line uint32
	Col  uint32
}

// Range is a resolved span, expressed in line/column positions.
type Range struct {
	Start LineCol
	End   LineCol
}
