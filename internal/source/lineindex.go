package source

import (
	"fmt"

	"fortio.org/safecast"
)

// LineIndex stores the byte offsets of every newline in one source text,
// allowing byte spans to be resolved to line/column positions.
type LineIndex struct {
	newlines []uint32
	length   uint32
}

// NewLineIndex scans content and records newline offsets.
func NewLineIndex(content []byte) *LineIndex {
	newlines := make([]uint32, 0, 16)
	for i, b := range content {
		if b == '\n' {
			off, err := safecast.Conv[uint32](i)
			if err != nil {
				panic(fmt.Errorf("newline offset overflow: %w", err))
			}
			newlines = append(newlines, off)
		}
	}
	length, err := safecast.Conv[uint32](len(content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return &LineIndex{newlines: newlines, length: length}
}

// Resolve converts a byte span into line/column positions, both 1-based.
// Offsets past the end of the content clamp to the final position.
func (idx *LineIndex) Resolve(span Span) Range {
	return Range{
		Start: idx.toLineCol(span.Start),
		End:   idx.toLineCol(span.End),
	}
}

func (idx *LineIndex) toLineCol(off uint32) LineCol {
	if off > idx.length {
		off = idx.length
	}
	if len(idx.newlines) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	// Binary search for the greatest newlines[i] < off.
	lo, hi := 0, len(idx.newlines)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if idx.newlines[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if hi < 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	lineStart := idx.newlines[hi] + 1
	lineNum, err := safecast.Conv[uint32](hi + 2)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	return LineCol{Line: lineNum, Col: off - lineStart + 1}
}
