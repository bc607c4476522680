package sitteradapter

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	lsp "github.com/tliron/glsp/protocol_3_16"
)

func pos(line, char uint32) lsp.Position {
	return lsp.Position{Line: line, Character: char}
}

func TestOffset(t *testing.T) {
	// "é" is two bytes, one UTF-16 unit; "😀" is four bytes, two units.
	doc := "const a = 1\nlet é = '😀x'\r\nend"
	lines := NewLines(doc)

	tests := []struct {
		name   string
		pos    lsp.Position
		offset int
		point  sitter.Point
	}{
		{"origin", pos(0, 0), 0, sitter.Point{Row: 0, Column: 0}},
		{"first line", pos(0, 6), 6, sitter.Point{Row: 0, Column: 6}},
		{"after two-byte rune", pos(1, 5), 12 + 6, sitter.Point{Row: 1, Column: 6}},
		{"after surrogate pair", pos(1, 11), 12 + 14, sitter.Point{Row: 1, Column: 14}},
		{"inside surrogate pair", pos(1, 10), 12 + 10, sitter.Point{Row: 1, Column: 10}},
		{"past line end stops before CR", pos(1, 99), 12 + 16, sitter.Point{Row: 1, Column: 16}},
		{"last line", pos(2, 2), len(doc) - 1, sitter.Point{Row: 2, Column: 2}},
		{"past document end", pos(9, 0), len(doc), sitter.Point{Row: 2, Column: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, point := lines.Offset(tt.pos)
			if offset != tt.offset {
				t.Errorf("offset = %d, want %d", offset, tt.offset)
			}
			if point != tt.point {
				t.Errorf("point = %+v, want %+v", point, tt.point)
			}
		})
	}
}

func TestOffsetInvalidUTF8(t *testing.T) {
	// Each stray byte is one unit and one byte.
	lines := NewLines("a\xffb\xfe\xfdc\nz")

	for _, tt := range []struct {
		char   uint32
		offset int
	}{{1, 1}, {2, 2}, {3, 3}, {5, 5}, {6, 6}, {9, 6}} {
		offset, point := lines.Offset(pos(0, tt.char))
		if offset != tt.offset || point.Column != uint32(tt.offset) {
			t.Errorf("Offset(0:%d) = %d %+v, want %d", tt.char, offset, point, tt.offset)
		}
		if got := lines.Position(point); tt.char <= 6 && got != pos(0, tt.char) {
			t.Errorf("Position(%+v) = %+v, want 0:%d", point, got, tt.char)
		}
	}
	if w := lines.Width(0); w != 6 {
		t.Errorf("Width(0) = %d, want 6", w)
	}
	if offset, _ := lines.Offset(pos(1, 1)); offset != 8 {
		t.Errorf("Offset(1:1) = %d, want 8", offset)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	doc := "a\nlet é = '😀x'\n"
	lines := NewLines(doc)

	for _, p := range []lsp.Position{pos(0, 0), pos(0, 1), pos(1, 5), pos(1, 11), pos(1, 13), pos(2, 0)} {
		_, point := lines.Offset(p)
		if got := lines.Position(point); got != p {
			t.Errorf("Position(Offset(%+v)) = %+v", p, got)
		}
	}

	if got := lines.PositionAt(len("a\nlet é")); got != pos(1, 5) {
		t.Errorf("PositionAt = %+v, want 1:5", got)
	}
	if got := lines.PositionAt(1000); got != pos(2, 0) {
		t.Errorf("PositionAt past end = %+v, want 2:0", got)
	}
	if lines.Count() != 3 {
		t.Errorf("Count = %d, want 3", lines.Count())
	}
	if w := lines.Width(1); w != 13 {
		t.Errorf("Width(1) = %d, want 13", w)
	}
	if w := lines.Width(7); w != 0 {
		t.Errorf("Width(7) = %d, want 0", w)
	}
}

func TestApplyChange(t *testing.T) {
	doc := "import x from './a'\nx()\n"
	rng := lsp.Range{Start: pos(0, 15), End: pos(0, 18)}

	tests := []struct {
		name   string
		change any
		want   string
		ok     bool
	}{
		{
			name:   "incremental",
			change: lsp.TextDocumentContentChangeEvent{Range: &rng, Text: "./b"},
			want:   "import x from './b'\nx()\n",
			ok:     true,
		},
		{
			name:   "incremental without range",
			change: lsp.TextDocumentContentChangeEvent{Text: "new"},
			want:   "new",
			ok:     true,
		},
		{
			name:   "whole",
			change: lsp.TextDocumentContentChangeEventWhole{Text: "whole"},
			want:   "whole",
			ok:     true,
		},
		{
			name:   "unknown",
			change: "garbage",
			want:   doc,
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ApplyChange(tt.change, doc)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ApplyChange = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEditInput(t *testing.T) {
	doc := "ab\ncd"
	rng := lsp.Range{Start: pos(0, 1), End: pos(1, 1)}
	edit := EditInput(lsp.TextDocumentContentChangeEvent{Range: &rng, Text: "x\nyz"}, doc)

	want := sitter.EditInput{
		StartIndex:  1,
		OldEndIndex: 4,
		NewEndIndex: 5,
		StartPoint:  sitter.Point{Row: 0, Column: 1},
		OldEndPoint: sitter.Point{Row: 1, Column: 1},
		NewEndPoint: sitter.Point{Row: 1, Column: 2},
	}
	if edit != want {
		t.Errorf("EditInput = %+v, want %+v", edit, want)
	}
}
