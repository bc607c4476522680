package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/parser"
	"github.com/rottenpen/volar/internal/sitteradapter"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("volar.manager")

type document struct {
	text    string
	version protocol.Integer
	// syntax is nil for files without a grammar.
	syntax *parser.Document
}

// DocumentManager holds the text, version and syntax tree of every open
// document.
type DocumentManager struct {
	mu   sync.Mutex
	docs map[protocol.DocumentUri]*document
}

var (
	_ engine.TextSource    = (*DocumentManager)(nil)
	_ engine.VersionSource = (*DocumentManager)(nil)
)

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		docs: make(map[protocol.DocumentUri]*document),
	}
}

// Open starts tracking uri. Reopening replaces the previous state.
func (dm *DocumentManager) Open(uri protocol.DocumentUri, version protocol.Integer, text string) {
	doc := &document{text: text, version: version}
	if lang := parser.LanguageFor(uri); lang != nil {
		doc.syntax = parser.NewDocument(lang, []byte(text))
	}

	dm.mu.Lock()
	old := dm.docs[uri]
	dm.docs[uri] = doc
	dm.mu.Unlock()

	if old != nil && old.syntax != nil {
		old.syntax.Close()
	}
}

// Change applies content changes in order and records the new version.
func (dm *DocumentManager) Change(uri protocol.DocumentUri, version protocol.Integer, changes []any) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return fmt.Errorf("no document for %s", uri)
	}

	for _, change := range changes {
		before := doc.text
		after, ok := sitteradapter.ApplyChange(change, before)
		if !ok {
			return fmt.Errorf("unexpected change event type %T", change)
		}
		doc.text = after

		if doc.syntax == nil {
			continue
		}
		if incremental, ok := change.(protocol.TextDocumentContentChangeEvent); ok && incremental.Range != nil {
			doc.syntax.Edit(sitteradapter.EditInput(incremental, before), []byte(after))
		} else {
			doc.syntax.Replace([]byte(after))
		}
	}
	doc.version = version
	return nil
}

// Close stops tracking uri.
func (dm *DocumentManager) Close(uri protocol.DocumentUri) {
	dm.mu.Lock()
	doc, ok := dm.docs[uri]
	delete(dm.docs, uri)
	dm.mu.Unlock()

	if ok && doc.syntax != nil {
		doc.syntax.Close()
	}
}

func (dm *DocumentManager) Text(uri protocol.DocumentUri) (string, bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	doc, ok := dm.docs[uri]
	if !ok {
		return "", false
	}
	return doc.text, true
}

func (dm *DocumentManager) Version(uri protocol.DocumentUri) (protocol.Integer, bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	doc, ok := dm.docs[uri]
	if !ok {
		return 0, false
	}
	return doc.version, true
}

// Inspect hands the up-to-date syntax tree of an open document to visit.
// It reports false when uri is not open or has no grammar.
func (dm *DocumentManager) Inspect(ctx context.Context, uri protocol.DocumentUri, visit parser.Visitor) (bool, error) {
	dm.mu.Lock()
	doc, ok := dm.docs[uri]
	dm.mu.Unlock()
	if !ok || doc.syntax == nil {
		return false, nil
	}
	return true, doc.syntax.Inspect(ctx, visit)
}

// CloseAll releases every document.
func (dm *DocumentManager) CloseAll() error {
	dm.mu.Lock()
	docs := dm.docs
	dm.docs = make(map[protocol.DocumentUri]*document)
	dm.mu.Unlock()

	for uri, doc := range docs {
		if doc.syntax == nil {
			continue
		}
		if err := doc.syntax.Close(); err != nil {
			return fmt.Errorf("error closing syntax tree for %s: %w", uri, err)
		}
	}
	log.Debugf("Released %d documents", len(docs))
	return nil
}
