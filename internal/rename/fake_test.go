package rename_test

import (
	"context"
	"errors"
	"sync"

	"github.com/rottenpen/volar/internal/engine"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type fakeClient struct {
	mu       sync.Mutex
	settings map[string]string
	asked    []string
	applied  []protocol.WorkspaceEdit
	// applyHook runs inside ApplyEdit, while the batch is still pending.
	applyHook func()
}

func (c *fakeClient) Configuration(_ context.Context, section string, _ protocol.DocumentUri) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked = append(c.asked, section)
	v, ok := c.settings[section]
	return v, ok
}

func (c *fakeClient) ApplyEdit(_ context.Context, _ string, edit protocol.WorkspaceEdit) (bool, error) {
	if c.applyHook != nil {
		c.applyHook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = append(c.applied, edit)
	return true, nil
}

func (c *fakeClient) Notify(string, any) {}

func (c *fakeClient) ActiveSelection(context.Context) (engine.Selection, bool) {
	return engine.Selection{}, false
}

func (c *fakeClient) Applied() []protocol.WorkspaceEdit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.WorkspaceEdit(nil), c.applied...)
}

// moveEngine answers FileRenameEdits from a table keyed by old uri.
type moveEngine struct {
	engine.Unimplemented
	edits map[protocol.DocumentUri]*protocol.WorkspaceEdit
	fail  bool
	panic bool
	// seen records the text visible through source while computing.
	source engine.TextSource
	seen   map[protocol.DocumentUri]string
	mu     sync.Mutex
}

func (e *moveEngine) FileRenameEdits(_ context.Context, oldURI, _ protocol.DocumentUri) (*protocol.WorkspaceEdit, error) {
	if e.panic {
		panic("engine bug")
	}
	if e.fail {
		return nil, errors.New("engine failed")
	}
	if e.source != nil {
		text, _ := e.source.Text(oldURI)
		e.mu.Lock()
		if e.seen == nil {
			e.seen = map[protocol.DocumentUri]string{}
		}
		e.seen[oldURI] = text
		e.mu.Unlock()
	}
	return e.edits[oldURI], nil
}

type resolverTable map[protocol.DocumentUri]engine.Engine

func (r resolverTable) Resolve(_ context.Context, uri protocol.DocumentUri) (engine.Engine, bool) {
	e, ok := r[uri]
	return e, ok
}

type textMap struct {
	mu   sync.Mutex
	docs map[protocol.DocumentUri]string
}

func (m *textMap) Text(uri protocol.DocumentUri) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.docs[uri]
	return t, ok
}

func (m *textMap) Close(uri protocol.DocumentUri) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, uri)
}

type versionMap map[protocol.DocumentUri]protocol.Integer

func (v versionMap) Version(uri protocol.DocumentUri) (protocol.Integer, bool) {
	n, ok := v[uri]
	return n, ok
}

func textEdit(line uint32, text string) protocol.TextEdit {
	return protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: line},
			End:   protocol.Position{Line: line, Character: 4},
		},
		NewText: text,
	}
}
