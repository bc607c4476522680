package sitterengine

import (
	"context"

	"github.com/rottenpen/volar/internal/sitteradapter"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DocumentHighlights marks every identifier in the document spelled like the
// one at pos. Declarations and assignment targets are writes.
func (e *Engine) DocumentHighlights(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]protocol.DocumentHighlight, error) {
	var highlights []protocol.DocumentHighlight
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		_, point := lines.Offset(pos)
		target := identifierAt(root, point)
		if target == nil {
			return nil
		}
		name := target.Content(source)

		for _, n := range occurrences(root, source, name) {
			kind := protocol.DocumentHighlightKindRead
			if isWrite(n) {
				kind = protocol.DocumentHighlightKindWrite
			}
			highlights = append(highlights, protocol.DocumentHighlight{
				Range: lines.Range(n),
				Kind:  &kind,
			})
		}
		return nil
	})
	return highlights, err
}

// occurrences returns the identifiers under root spelled name.
func occurrences(root *sitter.Node, source []byte, name string) []*sitter.Node {
	var found []*sitter.Node
	walk(root, func(n *sitter.Node) bool {
		if isIdentifier(n) {
			if n.Content(source) == name {
				found = append(found, n)
			}
			return false
		}
		return true
	})
	return found
}

func isWrite(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "assignment_expression", "augmented_assignment_expression":
		return sameNode(parent.ChildByFieldName("left"), n)
	case "update_expression":
		return true
	}
	if _, ok := declarationKinds[parent.Type()]; ok {
		return sameNode(parent.ChildByFieldName("name"), n)
	}
	switch parent.Type() {
	case "variable_declarator", "class", "enum_declaration", "function", "public_field_definition":
		return sameNode(parent.ChildByFieldName("name"), n)
	case "required_parameter", "optional_parameter":
		return sameNode(parent.ChildByFieldName("pattern"), n)
	case "formal_parameters":
		return true
	}
	return false
}
