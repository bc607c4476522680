package sitterengine

import (
	"context"
	"strings"

	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/sitteradapter"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// InlayHints labels the arguments of calls to functions declared in the
// same document with their parameter names.
func (e *Engine) InlayHints(ctx context.Context, uri protocol.DocumentUri, rng protocol.Range) ([]engine.InlayHint, error) {
	var hints []engine.InlayHint
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))

		params := map[string][]string{}
		for _, c := range callables(root) {
			name := c.name.Content(source)
			if _, ok := params[name]; !ok {
				params[name] = parameterNames(c, source)
			}
		}

		kind := engine.InlayHintKindParameter
		walk(root, func(n *sitter.Node) bool {
			if n.Type() != "call_expression" {
				return true
			}
			name := callee(n)
			args := n.ChildByFieldName("arguments")
			if name == nil || args == nil {
				return true
			}
			names := params[name.Content(source)]
			count := int(args.NamedChildCount())
			for i := 0; i < count && i < len(names); i++ {
				arg := args.NamedChild(i)
				if arg.Type() == "comment" || arg.Type() == "spread_element" {
					continue
				}
				pos := lines.Position(arg.StartPoint())
				if !inRange(pos, rng) || arg.Content(source) == names[i] {
					continue
				}
				hints = append(hints, engine.InlayHint{
					Position:     pos,
					Label:        names[i] + ":",
					Kind:         &kind,
					PaddingRight: true,
				})
			}
			return true
		})
		return nil
	})
	return hints, err
}

func parameterNames(c callable, source []byte) []string {
	fn := c.node
	if c.node.Type() == "variable_declarator" {
		fn = c.node.ChildByFieldName("value")
	}
	if fn == nil {
		return nil
	}
	if single := fn.ChildByFieldName("parameter"); single != nil {
		return []string{single.Content(source)}
	}
	list := fn.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}

	var names []string
	count := int(list.NamedChildCount())
	for i := 0; i < count; i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "identifier":
			names = append(names, p.Content(source))
		case "required_parameter", "optional_parameter":
			pattern := p.ChildByFieldName("pattern")
			if pattern == nil || pattern.Type() != "identifier" {
				return names
			}
			names = append(names, pattern.Content(source))
		case "assignment_pattern":
			left := p.ChildByFieldName("left")
			if left == nil || left.Type() != "identifier" {
				return names
			}
			names = append(names, left.Content(source))
		case "comment":
		default:
			// Destructuring and rest parameters end the positional list.
			return names
		}
	}
	return names
}

func inRange(pos protocol.Position, rng protocol.Range) bool {
	after := pos.Line > rng.Start.Line || (pos.Line == rng.Start.Line && pos.Character >= rng.Start.Character)
	before := pos.Line < rng.End.Line || (pos.Line == rng.End.Line && pos.Character <= rng.End.Character)
	return after && before
}

// AutoInsert completes a doc comment opener typed as "/**".
func (e *Engine) AutoInsert(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position, change engine.AutoInsertChange) (*string, error) {
	if !strings.HasSuffix(change.Text, "*") {
		return nil, nil
	}
	var insert *string
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		offset, _ := lines.Offset(pos)
		if offset < 3 || string(source[offset-3:offset]) != "/**" {
			return nil
		}
		if strings.HasPrefix(strings.TrimLeft(string(source[offset:]), " \t"), "*/") {
			return nil
		}
		snippet := " $0 */"
		insert = &snippet
		return nil
	})
	return insert, err
}
