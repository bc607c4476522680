package sitterengine

import (
	"context"
	"fmt"

	"github.com/rottenpen/volar/internal/correlate"
	"github.com/rottenpen/volar/internal/sitteradapter"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// References lists the same-document occurrences of the identifier at pos.
func (e *Engine) References(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error) {
	var locations []protocol.Location
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		_, point := lines.Offset(pos)
		target := identifierAt(root, point)
		if target == nil {
			return nil
		}
		for _, n := range occurrences(root, source, target.Content(source)) {
			if !includeDeclaration && isWrite(n) {
				continue
			}
			locations = append(locations, protocol.Location{URI: uri, Range: lines.Range(n)})
		}
		return nil
	})
	return locations, err
}

// Definition points at the declaration of the identifier at pos within the
// same document.
func (e *Engine) Definition(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]protocol.Location, error) {
	var locations []protocol.Location
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		_, point := lines.Offset(pos)
		target := identifierAt(root, point)
		if target == nil {
			return nil
		}
		for _, n := range occurrences(root, source, target.Content(source)) {
			if isWrite(n) && n.Parent() != nil && n.Parent().Type() != "assignment_expression" {
				locations = append(locations, protocol.Location{URI: uri, Range: lines.Range(n)})
				break
			}
		}
		return nil
	})
	return locations, err
}

// CodeLenses puts an unresolved reference-count lens on every named
// function, method and class.
func (e *Engine) CodeLenses(ctx context.Context, uri protocol.DocumentUri) ([]protocol.CodeLens, error) {
	var lenses []protocol.CodeLens
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		for _, symbol := range declarations(root, source, uri) {
			switch symbol.Kind {
			case protocol.SymbolKindFunction, protocol.SymbolKindMethod, protocol.SymbolKindClass, protocol.SymbolKindInterface:
			default:
				continue
			}
			start := symbol.Location.Range.Start
			_, point := lines.Offset(start)
			lenses = append(lenses, protocol.CodeLens{
				Range: protocol.Range{Start: start, End: start},
				Data: map[string]any{
					nameKey: symbol.Name,
					"line":  point.Row,
				},
			})
		}
		return nil
	})
	return lenses, err
}

// ResolveCodeLens counts the references to the lens's declaration.
func (e *Engine) ResolveCodeLens(ctx context.Context, lens *protocol.CodeLens) (*protocol.CodeLens, error) {
	uri, ok := correlate.Recover(lens.Data)
	if !ok {
		return lens, nil
	}
	fields, _ := lens.Data.(map[string]any)
	name, _ := fields[nameKey].(string)
	if name == "" {
		return lens, nil
	}

	count := 0
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		for _, n := range occurrences(root, source, name) {
			if !isWrite(n) {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%d references", count)
	if count == 1 {
		title = "1 reference"
	}
	resolved := *lens
	resolved.Command = &protocol.Command{
		Title:     title,
		Command:   "volar.action.showReferences",
		Arguments: []any{uri, lens.Range.Start},
	}
	return &resolved, nil
}

// PrepareRename accepts any identifier.
func (e *Engine) PrepareRename(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) (*protocol.Range, error) {
	var rng *protocol.Range
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		_, point := lines.Offset(pos)
		if target := identifierAt(root, point); target != nil {
			r := lines.Range(target)
			rng = &r
		}
		return nil
	})
	return rng, err
}

// Rename replaces every same-document occurrence of the identifier at pos.
func (e *Engine) Rename(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position, newName string) (*protocol.WorkspaceEdit, error) {
	var edits []protocol.TextEdit
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		_, point := lines.Offset(pos)
		target := identifierAt(root, point)
		if target == nil {
			return nil
		}
		for _, n := range occurrences(root, source, target.Content(source)) {
			edits = append(edits, protocol.TextEdit{Range: lines.Range(n), NewText: newName})
		}
		return nil
	})
	if err != nil || len(edits) == 0 {
		return nil, err
	}
	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: edits},
	}, nil
}
