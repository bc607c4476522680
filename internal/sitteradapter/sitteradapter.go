// Package sitteradapter converts between protocol positions (UTF-16 code
// units) and tree-sitter byte offsets and points.
package sitteradapter

import (
	"sort"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	lsp "github.com/tliron/glsp/protocol_3_16"
)

// Lines indexes the line starts of a document.
type Lines struct {
	text   string
	starts []int
}

func NewLines(text string) *Lines {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Lines{text: text, starts: starts}
}

func (l *Lines) Count() int {
	return len(l.starts)
}

// line returns the content of row without its line break.
func (l *Lines) line(row int) string {
	start := l.starts[row]
	end := len(l.text)
	if row+1 < len(l.starts) {
		end = l.starts[row+1] - 1
	}
	return strings.TrimSuffix(l.text[start:end], "\r")
}

// Offset returns the byte offset and point of pos. Positions past the end
// of a line or of the document are clamped.
func (l *Lines) Offset(pos lsp.Position) (int, sitter.Point) {
	row := int(pos.Line)
	if row >= len(l.starts) {
		row = len(l.starts) - 1
		pos.Character = ^uint32(0)
	}

	var units uint32
	column := 0
	line := l.line(row)
	for column < len(line) {
		r, size := utf8.DecodeRuneInString(line[column:])
		width := uint32(1)
		if r > 0xFFFF {
			width = 2
		}
		if units+width > pos.Character {
			break
		}
		units += width
		column += size
	}
	return l.starts[row] + column, sitter.Point{Row: uint32(row), Column: uint32(column)}
}

// Position converts a tree-sitter point back to a protocol position.
func (l *Lines) Position(pt sitter.Point) lsp.Position {
	row := int(pt.Row)
	if row >= len(l.starts) {
		row = len(l.starts) - 1
		pt.Column = ^uint32(0)
	}
	line := l.line(row)
	column := int(pt.Column)
	if column > len(line) {
		column = len(line)
	}

	var units uint32
	for _, r := range line[:column] {
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return lsp.Position{Line: uint32(row), Character: units}
}

// Width is the length of row in UTF-16 code units.
func (l *Lines) Width(row int) uint32 {
	if row < 0 || row >= len(l.starts) {
		return 0
	}
	var units uint32
	for _, r := range l.line(row) {
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return units
}

// PositionAt converts a byte offset to a protocol position.
func (l *Lines) PositionAt(offset int) lsp.Position {
	if offset > len(l.text) {
		offset = len(l.text)
	}
	row := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
	return l.Position(sitter.Point{Row: uint32(row), Column: uint32(offset - l.starts[row])})
}

// Range returns the protocol range covered by node.
func (l *Lines) Range(node *sitter.Node) lsp.Range {
	return lsp.Range{
		Start: l.Position(node.StartPoint()),
		End:   l.Position(node.EndPoint()),
	}
}

// EditInput describes change as a tree-sitter edit against document.
func EditInput(change lsp.TextDocumentContentChangeEvent, document string) sitter.EditInput {
	lines := NewLines(document)
	start, startPoint := lines.Offset(change.Range.Start)
	end, endPoint := lines.Offset(change.Range.End)

	return sitter.EditInput{
		StartIndex:  uint32(start),
		OldEndIndex: uint32(end),
		NewEndIndex: uint32(start + len(change.Text)),
		StartPoint:  startPoint,
		OldEndPoint: endPoint,
		NewEndPoint: endPointAfter(startPoint, change.Text),
	}
}

func endPointAfter(start sitter.Point, text string) sitter.Point {
	rows := strings.Count(text, "\n")
	if rows == 0 {
		return sitter.Point{Row: start.Row, Column: start.Column + uint32(len(text))}
	}
	last := text[strings.LastIndexByte(text, '\n')+1:]
	return sitter.Point{Row: start.Row + uint32(rows), Column: uint32(len(last))}
}

// ApplyChange applies one content change to document. Whole-document
// changes replace it.
func ApplyChange(change any, document string) (string, bool) {
	switch c := change.(type) {
	case lsp.TextDocumentContentChangeEvent:
		if c.Range == nil {
			return c.Text, true
		}
		lines := NewLines(document)
		start, _ := lines.Offset(c.Range.Start)
		end, _ := lines.Offset(c.Range.End)
		if end < start {
			start, end = end, start
		}
		return document[:start] + c.Text + document[end:], true
	case lsp.TextDocumentContentChangeEventWhole:
		return c.Text, true
	default:
		return document, false
	}
}
