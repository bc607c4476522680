// Package tokens turns semantic token tuples into the relative encoding
// used by textDocument/semanticTokens responses.
package tokens

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Tuple is one semantic token in absolute coordinates.
type Tuple struct {
	Line      uint32
	Column    uint32
	Length    uint32
	Type      uint32
	Modifiers uint32
}

// less orders by position first. Length, type and modifiers only break ties
// so that overlapping input still encodes the same way every time.
func less(a, b Tuple) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Column != b.Column {
		return a.Column < b.Column
	}
	if a.Length != b.Length {
		return a.Length < b.Length
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Modifiers < b.Modifiers
}

// Sorted returns an ordered copy of tuples. The input is left untouched.
func Sorted(tuples []Tuple) []Tuple {
	sorted := make([]Tuple, len(tuples))
	copy(sorted, tuples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// Encode sorts tuples and emits five integers per token: line delta,
// column delta (absolute when the line changed), length, type, modifiers.
func Encode(tuples []Tuple) []protocol.UInteger {
	sorted := Sorted(tuples)
	data := make([]protocol.UInteger, 0, len(sorted)*5)

	var prevLine, prevColumn uint32
	for _, t := range sorted {
		deltaLine := t.Line - prevLine
		deltaColumn := t.Column
		if deltaLine == 0 {
			deltaColumn = t.Column - prevColumn
		}
		data = append(data, deltaLine, deltaColumn, t.Length, t.Type, t.Modifiers)
		prevLine = t.Line
		prevColumn = t.Column
	}
	return data
}

// Decode reverses Encode. It is mostly useful for tests and logging.
func Decode(data []protocol.UInteger) []Tuple {
	tuples := make([]Tuple, 0, len(data)/5)

	var line, column uint32
	for i := 0; i+4 < len(data); i += 5 {
		if data[i] > 0 {
			line += data[i]
			column = data[i+1]
		} else {
			column += data[i+1]
		}
		tuples = append(tuples, Tuple{
			Line:      line,
			Column:    column,
			Length:    data[i+2],
			Type:      data[i+3],
			Modifiers: data[i+4],
		})
	}
	return tuples
}

// Overlaps returns every tuple that starts before an earlier tuple on the
// same line has ended. Well-behaved engines never produce any.
func Overlaps(tuples []Tuple) []Tuple {
	var overlapping []Tuple
	sorted := Sorted(tuples)
	var line, end uint32
	for i, t := range sorted {
		if i == 0 || t.Line != line {
			line, end = t.Line, t.Column+t.Length
			continue
		}
		if t.Column < end {
			overlapping = append(overlapping, t)
		}
		end = max(end, t.Column+t.Length)
	}
	return overlapping
}
