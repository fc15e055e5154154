package source

import "testing"

func TestLineIndexResolve(t *testing.T) {
	content := []byte("let x = 1\nlet y = 2\n\nlet z = 3")
	idx := NewLineIndex(content)

	cases := []struct {
		name string
		span Span
		want Range
	}{
		{
			name: "first line start",
			span: NewSpan(0, 3),
			want: Range{Start: LineCol{Line: 1, Col: 1}, End: LineCol{Line: 1, Col: 4}},
		},
		{
			name: "second line",
			span: NewSpan(10, 13),
			want: Range{Start: LineCol{Line: 2, Col: 1}, End: LineCol{Line: 2, Col: 4}},
		},
		{
			name: "after blank line",
			span: NewSpan(21, 24),
			want: Range{Start: LineCol{Line: 4, Col: 1}, End: LineCol{Line: 4, Col: 4}},
		},
		{
			name: "span crossing lines",
			span: NewSpan(8, 14),
			want: Range{Start: LineCol{Line: 1, Col: 9}, End: LineCol{Line: 2, Col: 5}},
		},
		{
			name: "past end clamps",
			span: NewSpan(100, 200),
			want: Range{Start: LineCol{Line: 4, Col: 10}, End: LineCol{Line: 4, Col: 10}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := idx.Resolve(tc.span)
			if got != tc.want {
				t.Errorf("Resolve(%v) = %+v, want %+v", tc.span, got, tc.want)
			}
		})
	}
}

func TestLineIndexSingleLine(t *testing.T) {
	idx := NewLineIndex([]byte("pub fn main() {}"))
	got := idx.Resolve(NewSpan(4, 6))
	want := Range{Start: LineCol{Line: 1, Col: 5}, End: LineCol{Line: 1, Col: 7}}
	if got != want {
		t.Errorf("Resolve = %+v, want %+v", got, want)
	}
}

func TestLineIndexEmpty(t *testing.T) {
	idx := NewLineIndex(nil)
	got := idx.Resolve(NewSpan(0, 0))
	want := Range{Start: LineCol{Line: 1, Col: 1}, End: LineCol{Line: 1, Col: 1}}
	if got != want {
		t.Errorf("Resolve = %+v, want %+v", got, want)
	}
}
