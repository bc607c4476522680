// Package sitterengine is a syntax-only Engine for TypeScript and
// JavaScript projects built on tree-sitter. It answers the capabilities that
// need no type information and reports nothing for the rest.
package sitterengine

import (
	"context"
	"os"

	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/parser"
	"github.com/rottenpen/volar/internal/resolver"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("volar.sitterengine")

const (
	defaultProgressBatch = 256
	defaultMaxSymbols    = 256
	// maxFileSize bounds files read from disk during project walks.
	maxFileSize = 1 << 20
)

// SyntaxSource provides live syntax trees for open documents.
type SyntaxSource interface {
	Inspect(ctx context.Context, uri protocol.DocumentUri, visit parser.Visitor) (bool, error)
}

type Options struct {
	Root string
	// Syntax is consulted first for per-document requests.
	Syntax SyntaxSource
	// Text supplies unsaved or pre-rename content; files it does not know
	// are read from disk.
	Text          engine.TextSource
	Pool          *parser.Pool
	ProgressBatch int
	MaxSymbols    int
}

type Engine struct {
	engine.Unimplemented

	root          string
	syntax        SyntaxSource
	text          engine.TextSource
	pool          *parser.Pool
	ownsPool      bool
	progressBatch int
	maxSymbols    int
}

var _ engine.Engine = (*Engine)(nil)

func New(opts Options) *Engine {
	e := &Engine{
		root:          opts.Root,
		syntax:        opts.Syntax,
		text:          opts.Text,
		pool:          opts.Pool,
		progressBatch: opts.ProgressBatch,
		maxSymbols:    opts.MaxSymbols,
	}
	if e.pool == nil {
		e.pool = parser.NewPool(4)
		e.ownsPool = true
	}
	if e.progressBatch <= 0 {
		e.progressBatch = defaultProgressBatch
	}
	if e.maxSymbols <= 0 {
		e.maxSymbols = defaultMaxSymbols
	}
	return e
}

func (e *Engine) Close() error {
	if e.ownsPool {
		return e.pool.Close()
	}
	return nil
}

// source returns the current text of uri.
func (e *Engine) source(uri protocol.DocumentUri) ([]byte, bool) {
	if e.text != nil {
		if text, ok := e.text.Text(uri); ok {
			return []byte(text), true
		}
	}
	path, err := resolver.PathFromURI(uri)
	if err != nil {
		return nil, false
	}
	return readFile(path)
}

func readFile(path string) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > maxFileSize {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// inspect hands visit the syntax tree of uri, preferring the live tree of
// an open document.
func (e *Engine) inspect(ctx context.Context, uri protocol.DocumentUri, visit parser.Visitor) (bool, error) {
	lang := parser.LanguageFor(uri)
	if lang == nil {
		return false, nil
	}
	if e.syntax != nil {
		if ok, err := e.syntax.Inspect(ctx, uri, visit); ok || err != nil {
			return ok, err
		}
	}
	text, ok := e.source(uri)
	if !ok {
		return false, nil
	}
	return true, e.pool.Inspect(ctx, lang, text, visit)
}

// inspectText parses text as uri, ignoring live trees.
func (e *Engine) inspectText(ctx context.Context, uri protocol.DocumentUri, text []byte, visit parser.Visitor) error {
	return e.pool.Inspect(ctx, parser.LanguageFor(uri), text, visit)
}

// walk visits every node below n in document order until fn returns false.
func walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		walk(n.Child(i), fn)
	}
}

// nodeAt returns the smallest named node covering pos.
func nodeAt(root *sitter.Node, point sitter.Point) *sitter.Node {
	return root.NamedDescendantForPointRange(point, point)
}

func isIdentifier(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier", "property_identifier", "type_identifier",
		"shorthand_property_identifier", "shorthand_property_identifier_pattern",
		"private_property_identifier":
		return true
	}
	return false
}

// identifierAt returns the identifier at point, also accepting a cursor
// placed right after one.
func identifierAt(root *sitter.Node, point sitter.Point) *sitter.Node {
	if n := nodeAt(root, point); n != nil && isIdentifier(n) {
		return n
	}
	if point.Column > 0 {
		before := sitter.Point{Row: point.Row, Column: point.Column - 1}
		if n := nodeAt(root, before); n != nil && isIdentifier(n) {
			return n
		}
	}
	return nil
}
