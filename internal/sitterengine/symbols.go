package sitterengine

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rottenpen/volar/internal/parser"
	"github.com/rottenpen/volar/internal/resolver"
	"github.com/rottenpen/volar/internal/scanner"
	"github.com/rottenpen/volar/internal/sitteradapter"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var declarationKinds = map[string]protocol.SymbolKind{
	"function_declaration":           protocol.SymbolKindFunction,
	"generator_function_declaration": protocol.SymbolKindFunction,
	"class_declaration":              protocol.SymbolKindClass,
	"abstract_class_declaration":     protocol.SymbolKindClass,
	"interface_declaration":          protocol.SymbolKindInterface,
	"type_alias_declaration":         protocol.SymbolKindTypeParameter,
	"enum_declaration":               protocol.SymbolKindEnum,
	"method_definition":              protocol.SymbolKindMethod,
}

// WorkspaceSymbols lists the declarations under the project root whose name
// contains query as a case-insensitive subsequence.
func (e *Engine) WorkspaceSymbols(ctx context.Context, query string) ([]protocol.SymbolInformation, error) {
	if e.root == "" {
		return nil, nil
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var symbols []protocol.SymbolInformation
	err := scanner.Scan(scanCtx, e.root,
		func(path string, info fs.FileInfo) bool {
			return parser.LanguageFor(path) == nil || info.Size() > maxFileSize
		},
		func(path string, document []byte) {
			if len(symbols) >= e.maxSymbols {
				return
			}
			uri := resolver.URIFromPath(path)
			if e.text != nil {
				if text, ok := e.text.Text(uri); ok {
					document = []byte(text)
				}
			}
			err := e.inspectText(scanCtx, uri, document, func(root *sitter.Node, source []byte) error {
				for _, symbol := range declarations(root, source, uri) {
					if !fuzzyMatch(symbol.Name, query) {
						continue
					}
					symbols = append(symbols, symbol)
					if len(symbols) >= e.maxSymbols {
						cancel()
						break
					}
				}
				return nil
			})
			if err != nil && scanCtx.Err() == nil {
				log.Warningf("Cannot index %s: %v", path, err)
			}
		})

	if err != nil && !(errors.Is(err, context.Canceled) && ctx.Err() == nil) {
		return nil, err
	}
	return symbols, nil
}

// declarations returns the named declarations of one file in document order.
func declarations(root *sitter.Node, source []byte, uri protocol.DocumentUri) []protocol.SymbolInformation {
	lines := sitteradapter.NewLines(string(source))

	var symbols []protocol.SymbolInformation
	walk(root, func(n *sitter.Node) bool {
		kind, ok := declarationKinds[n.Type()]
		if !ok {
			return true
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			return true
		}
		symbol := protocol.SymbolInformation{
			Name: name.Content(source),
			Kind: kind,
			Location: protocol.Location{
				URI:   uri,
				Range: lines.Range(n),
			},
		}
		if container := containerName(n, source); container != "" {
			symbol.ContainerName = &container
		}
		symbols = append(symbols, symbol)
		return true
	})
	return symbols
}

// containerName names the closest enclosing class or interface.
func containerName(n *sitter.Node, source []byte) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_declaration", "abstract_class_declaration", "class", "interface_declaration":
			if name := p.ChildByFieldName("name"); name != nil {
				return name.Content(source)
			}
			return ""
		}
	}
	return ""
}

// fuzzyMatch reports whether query's runes appear in name in order,
// ignoring case. The empty query matches everything.
func fuzzyMatch(name, query string) bool {
	for _, q := range query {
		q = unicode.ToLower(q)
		i := strings.IndexFunc(name, func(r rune) bool { return unicode.ToLower(r) == q })
		if i < 0 {
			return false
		}
		_, size := utf8.DecodeRuneInString(name[i:])
		name = name[i+size:]
	}
	return true
}
