package parser

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var (
	typescriptLang = typescript.GetLanguage()
	tsxLang        = tsx.GetLanguage()
	javascriptLang = javascript.GetLanguage()
)

// ErrUnsupported is returned for files no grammar is registered for.
var ErrUnsupported = errors.New("parser: unsupported language")

// LanguageFor picks the grammar for a file name or uri. It returns nil when
// there is none.
func LanguageFor(name string) *sitter.Language {
	switch strings.ToLower(path.Ext(name)) {
	case ".ts", ".mts", ".cts":
		return typescriptLang
	case ".tsx":
		return tsxLang
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascriptLang
	default:
		return nil
	}
}

// Capture is one named node of a query match.
type Capture struct {
	Name    string
	Node    *sitter.Node
	Content string
}

// Visitor inspects a parsed tree. Nodes are only valid during the call.
type Visitor func(root *sitter.Node, source []byte) error

// Query runs query against root and returns every capture, predicates
// applied, in match order.
func Query(root *sitter.Node, lang *sitter.Language, query []byte, source []byte) ([]Capture, error) {
	q, err := sitter.NewQuery(query, lang)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var captures []Capture
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)

		for _, c := range m.Captures {
			captures = append(captures, Capture{
				Name:    q.CaptureNameForId(c.Index),
				Node:    c.Node,
				Content: c.Node.Content(source),
			})
		}
	}
	return captures, nil
}

// Document keeps the syntax tree of one open file in step with its edits.
// Edits are recorded eagerly and the tree is re-parsed incrementally on the
// next inspection.
type Document struct {
	mu     sync.Mutex
	lang   *sitter.Language
	parser *sitter.Parser
	tree   *sitter.Tree
	source []byte
	dirty  bool
}

func NewDocument(lang *sitter.Language, source []byte) *Document {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &Document{
		lang:   lang,
		parser: p,
		source: source,
		dirty:  true,
	}
}

func (d *Document) Language() *sitter.Language {
	return d.lang
}

// Edit records an incremental change. source is the text after the change.
func (d *Document) Edit(edit sitter.EditInput, source []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree != nil {
		d.tree.Edit(edit)
	}
	d.source = source
	d.dirty = true
}

// Replace drops the current tree; the next inspection parses from scratch.
func (d *Document) Replace(source []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
	d.source = source
	d.dirty = true
}

// Inspect brings the tree up to date and hands it to visit.
func (d *Document) Inspect(ctx context.Context, visit Visitor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.parser == nil {
		return errors.New("document closed")
	}
	if d.dirty || d.tree == nil {
		tree, err := d.parser.ParseCtx(ctx, d.tree, d.source)
		if err != nil {
			return fmt.Errorf("failed to parse document: %w", err)
		}
		if d.tree != nil {
			d.tree.Close()
		}
		d.tree = tree
		d.dirty = false
	}
	return visit(d.tree.RootNode(), d.source)
}

func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
	if d.parser != nil {
		d.parser.Close()
		d.parser = nil
	}
	return nil
}

// Pool reuses parsers for one-off parses of files that are not open.
type Pool struct {
	mu    sync.Mutex
	size  int
	idle  map[*sitter.Language][]*sitter.Parser
	slots chan struct{}
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:  size,
		idle:  make(map[*sitter.Language][]*sitter.Parser),
		slots: make(chan struct{}, size),
	}
}

// Inspect parses source with lang and hands the tree to visit. At most size
// parses run at once; callers block for a free slot or until ctx is done.
func (p *Pool) Inspect(ctx context.Context, lang *sitter.Language, source []byte, visit Visitor) error {
	if lang == nil {
		return ErrUnsupported
	}
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()

	sp := p.acquire(lang)
	defer p.release(lang, sp)

	tree, err := sp.ParseCtx(ctx, nil, source)
	if err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}
	defer tree.Close()
	return visit(tree.RootNode(), source)
}

func (p *Pool) acquire(lang *sitter.Language) *sitter.Parser {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idle := p.idle[lang]; len(idle) > 0 {
		sp := idle[len(idle)-1]
		p.idle[lang] = idle[:len(idle)-1]
		return sp
	}
	sp := sitter.NewParser()
	sp.SetLanguage(lang)
	return sp
}

func (p *Pool) release(lang *sitter.Language, sp *sitter.Parser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle[lang]) >= p.size {
		sp.Close()
		return
	}
	p.idle[lang] = append(p.idle[lang], sp)
}

// Close releases every idle parser.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for lang, idle := range p.idle {
		for _, sp := range idle {
			sp.Close()
		}
		delete(p.idle, lang)
	}
	return nil
}
