package sitterengine

import (
	"context"
	"sort"
	"strings"

	"github.com/rottenpen/volar/internal/correlate"
	"github.com/rottenpen/volar/internal/sitteradapter"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// nameKey is the completion data entry naming the suggested identifier.
const nameKey = "name"

var completionKinds = map[protocol.SymbolKind]protocol.CompletionItemKind{
	protocol.SymbolKindFunction:      protocol.CompletionItemKindFunction,
	protocol.SymbolKindMethod:        protocol.CompletionItemKindMethod,
	protocol.SymbolKindClass:         protocol.CompletionItemKindClass,
	protocol.SymbolKindInterface:     protocol.CompletionItemKindInterface,
	protocol.SymbolKindEnum:          protocol.CompletionItemKindEnum,
	protocol.SymbolKindTypeParameter: protocol.CompletionItemKindTypeParameter,
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// wordAround returns the byte bounds of the identifier touching offset.
func wordAround(source []byte, offset int) (int, int) {
	start, end := offset, offset
	for start > 0 && isWordByte(source[start-1]) {
		start--
	}
	for end < len(source) && isWordByte(source[end]) {
		end++
	}
	return start, end
}

// Completion suggests the identifiers of the document that match the word
// being typed. Every item carries an insert/replace edit.
func (e *Engine) Completion(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position, _ *protocol.CompletionContext) (*protocol.CompletionList, error) {
	var list *protocol.CompletionList
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		offset, _ := lines.Offset(pos)
		start, end := wordAround(source, offset)
		prefix := string(source[start:offset])

		kinds := map[string]protocol.CompletionItemKind{}
		for _, symbol := range declarations(root, source, uri) {
			if kind, ok := completionKinds[symbol.Kind]; ok {
				kinds[symbol.Name] = kind
			}
		}

		seen := map[string]bool{}
		var names []string
		walk(root, func(n *sitter.Node) bool {
			if !isIdentifier(n) {
				return true
			}
			if int(n.StartByte()) == start && int(n.EndByte()) == end {
				return false
			}
			name := n.Content(source)
			if !seen[name] && fuzzyMatch(name, prefix) {
				seen[name] = true
				names = append(names, name)
			}
			return false
		})
		sort.Strings(names)

		insert := protocol.Range{Start: lines.PositionAt(start), End: pos}
		replace := protocol.Range{Start: insert.Start, End: lines.PositionAt(end)}

		list = &protocol.CompletionList{Items: make([]protocol.CompletionItem, 0, len(names))}
		for _, name := range names {
			kind, ok := kinds[name]
			if !ok {
				kind = protocol.CompletionItemKindVariable
			}
			list.Items = append(list.Items, protocol.CompletionItem{
				Label: name,
				Kind:  &kind,
				TextEdit: protocol.InsertReplaceEdit{
					NewText: name,
					Insert:  insert,
					Replace: replace,
				},
				Data: map[string]any{nameKey: name},
			})
		}
		return nil
	})
	return list, err
}

// ResolveCompletion fills in the declaration line and doc comment of the
// suggested identifier. With a live cursor the closest declaration before
// it wins, so shadowed names resolve to the binding in scope.
func (e *Engine) ResolveCompletion(ctx context.Context, item *protocol.CompletionItem, live *protocol.Position) (*protocol.CompletionItem, error) {
	uri, ok := correlate.Recover(item.Data)
	if !ok {
		return item, nil
	}
	name := item.Label
	if fields, ok := item.Data.(map[string]any); ok {
		if v, ok := fields[nameKey].(string); ok {
			name = v
		}
	}

	resolved := *item
	_, err := e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		decl := declarationOf(root, source, name, lines, live)
		if decl == nil {
			return nil
		}
		detail := strings.TrimSpace(strings.SplitN(decl.Content(source), "\n", 2)[0])
		resolved.Detail = &detail
		if doc := docComment(decl, source); doc != "" {
			resolved.Documentation = doc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// declarationOf finds the statement declaring name. With before set, the
// last declaration starting before it is preferred.
func declarationOf(root *sitter.Node, source []byte, name string, lines *sitteradapter.Lines, before *protocol.Position) *sitter.Node {
	var limit uint32
	if before != nil {
		offset, _ := lines.Offset(*before)
		limit = uint32(offset)
	}

	var first, best *sitter.Node
	for _, n := range occurrences(root, source, name) {
		if !isWrite(n) {
			continue
		}
		decl := statementOf(n.Parent())
		if first == nil {
			first = decl
		}
		if before != nil && n.StartByte() <= limit {
			best = decl
		}
	}
	if best != nil {
		return best
	}
	return first
}

// statementOf climbs from a declarator to its enclosing statement.
func statementOf(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "variable_declarator":
		if p := n.Parent(); p != nil {
			return p
		}
	}
	return n
}

// docComment returns the comment directly above n with its markers removed.
func docComment(n *sitter.Node, source []byte) string {
	for candidate := n; candidate != nil; candidate = candidate.Parent() {
		prev := candidate.PrevSibling()
		if prev != nil && prev.Type() == "comment" {
			return cleanComment(prev.Content(source))
		}
		if p := candidate.Parent(); p == nil || p.Type() != "export_statement" {
			break
		}
	}
	return ""
}

func cleanComment(text string) string {
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
