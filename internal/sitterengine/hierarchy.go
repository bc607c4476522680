package sitterengine

import (
	"context"

	"github.com/rottenpen/volar/internal/sitteradapter"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// callable is a named function-like declaration.
type callable struct {
	node *sitter.Node
	name *sitter.Node
	kind protocol.SymbolKind
}

// callableOf returns the callable n declares, if any.
func callableOf(n *sitter.Node) (callable, bool) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			return callable{n, name, protocol.SymbolKindFunction}, true
		}
	case "method_definition":
		if name := n.ChildByFieldName("name"); name != nil {
			return callable{n, name, protocol.SymbolKindMethod}, true
		}
	case "variable_declarator":
		name := n.ChildByFieldName("name")
		value := n.ChildByFieldName("value")
		if name != nil && name.Type() == "identifier" && value != nil &&
			(value.Type() == "arrow_function" || value.Type() == "function") {
			return callable{n, name, protocol.SymbolKindFunction}, true
		}
	}
	return callable{}, false
}

func callables(root *sitter.Node) []callable {
	var found []callable
	walk(root, func(n *sitter.Node) bool {
		if c, ok := callableOf(n); ok {
			found = append(found, c)
		}
		return true
	})
	return found
}

// enclosingCallable returns the innermost callable containing n.
func enclosingCallable(n *sitter.Node) (callable, bool) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if c, ok := callableOf(p); ok {
			return c, true
		}
	}
	return callable{}, false
}

// callee returns the name node a call expression invokes.
func callee(call *sitter.Node) *sitter.Node {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return nil
	}
	switch fn.Type() {
	case "identifier":
		return fn
	case "member_expression":
		return fn.ChildByFieldName("property")
	}
	return nil
}

func (c callable) item(uri protocol.DocumentUri, lines *sitteradapter.Lines, source []byte) protocol.CallHierarchyItem {
	return protocol.CallHierarchyItem{
		Name:           c.name.Content(source),
		Kind:           c.kind,
		URI:            uri,
		Range:          lines.Range(c.node),
		SelectionRange: lines.Range(c.name),
	}
}

// PrepareCallHierarchy returns the function declared or called at pos, or
// the function enclosing it.
func (e *Engine) PrepareCallHierarchy(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]protocol.CallHierarchyItem, error) {
	var items []protocol.CallHierarchyItem
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		_, point := lines.Offset(pos)

		if id := identifierAt(root, point); id != nil {
			name := id.Content(source)
			for _, c := range callables(root) {
				if sameNode(c.name, id) || c.name.Content(source) == name {
					items = append(items, c.item(uri, lines, source))
					return nil
				}
			}
		}
		if n := nodeAt(root, point); n != nil {
			if c, ok := callableOf(n); ok {
				items = append(items, c.item(uri, lines, source))
				return nil
			}
			if c, ok := enclosingCallable(n); ok {
				items = append(items, c.item(uri, lines, source))
			}
		}
		return nil
	})
	return items, err
}

// IncomingCalls finds the callers of item within its own document.
func (e *Engine) IncomingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error) {
	var calls []protocol.CallHierarchyIncomingCall
	_, err := e.inspect(ctx, item.URI, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		index := map[uint32]int{}

		walk(root, func(n *sitter.Node) bool {
			if n.Type() != "call_expression" {
				return true
			}
			name := callee(n)
			if name == nil || name.Content(source) != item.Name {
				return true
			}
			caller, ok := enclosingCallable(n)
			if !ok {
				return true
			}
			at, seen := index[caller.node.StartByte()]
			if !seen {
				at = len(calls)
				index[caller.node.StartByte()] = at
				calls = append(calls, protocol.CallHierarchyIncomingCall{From: caller.item(item.URI, lines, source)})
			}
			calls[at].FromRanges = append(calls[at].FromRanges, lines.Range(name))
			return true
		})
		return nil
	})
	return calls, err
}

// OutgoingCalls lists the calls made from the body of item. Callees declared
// in the same document point at their declaration.
func (e *Engine) OutgoingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyOutgoingCall, error) {
	var calls []protocol.CallHierarchyOutgoingCall
	_, err := e.inspect(ctx, item.URI, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))

		all := callables(root)
		var self *callable
		declared := map[string]callable{}
		for i, c := range all {
			if lines.Range(c.name) == item.SelectionRange {
				self = &all[i]
			}
			if _, ok := declared[c.name.Content(source)]; !ok {
				declared[c.name.Content(source)] = c
			}
		}
		if self == nil {
			return nil
		}

		index := map[string]int{}
		walk(self.node, func(n *sitter.Node) bool {
			if n.Type() != "call_expression" {
				return true
			}
			name := callee(n)
			if name == nil {
				return true
			}
			text := name.Content(source)
			at, seen := index[text]
			if !seen {
				var to protocol.CallHierarchyItem
				if c, ok := declared[text]; ok {
					to = c.item(item.URI, lines, source)
				} else {
					to = protocol.CallHierarchyItem{
						Name:           text,
						Kind:           protocol.SymbolKindFunction,
						URI:            item.URI,
						Range:          lines.Range(n),
						SelectionRange: lines.Range(name),
					}
				}
				at = len(calls)
				index[text] = at
				calls = append(calls, protocol.CallHierarchyOutgoingCall{To: to})
			}
			calls[at].FromRanges = append(calls[at].FromRanges, lines.Range(name))
			return true
		})
		return nil
	})
	return calls, err
}
