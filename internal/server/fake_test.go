package server

import (
	contextpkg "context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rottenpen/volar/internal/config"
	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/resolver"
	"github.com/rottenpen/volar/internal/tokens"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// fakeEngine answers from canned values and remembers who asked.
type fakeEngine struct {
	engine.Unimplemented
	root string

	list       *protocol.CompletionList
	symbols    []protocol.SymbolInformation
	batches    [][]tokens.Tuple
	renameEdit *protocol.WorkspaceEdit
	items      []protocol.CallHierarchyItem
	incoming   []protocol.CallHierarchyIncomingCall

	mu       sync.Mutex
	resolved []string
}

func (e *fakeEngine) Completion(contextpkg.Context, protocol.DocumentUri, protocol.Position, *protocol.CompletionContext) (*protocol.CompletionList, error) {
	if e.list == nil {
		return nil, nil
	}
	list := *e.list
	list.Items = append([]protocol.CompletionItem(nil), e.list.Items...)
	return &list, nil
}

func (e *fakeEngine) ResolveCompletion(_ contextpkg.Context, item *protocol.CompletionItem, _ *protocol.Position) (*protocol.CompletionItem, error) {
	e.mu.Lock()
	e.resolved = append(e.resolved, item.Label)
	e.mu.Unlock()
	resolved := *item
	detail := e.root
	resolved.Detail = &detail
	return &resolved, nil
}

func (e *fakeEngine) WorkspaceSymbols(contextpkg.Context, string) ([]protocol.SymbolInformation, error) {
	return e.symbols, nil
}

func (e *fakeEngine) SemanticTokens(_ contextpkg.Context, _ protocol.DocumentUri, _ *protocol.Range, report func([]tokens.Tuple)) ([]tokens.Tuple, error) {
	var all []tokens.Tuple
	for _, batch := range e.batches {
		if report != nil {
			report(batch)
		}
		all = append(all, batch...)
	}
	return all, nil
}

func (e *fakeEngine) FileRenameEdits(contextpkg.Context, protocol.DocumentUri, protocol.DocumentUri) (*protocol.WorkspaceEdit, error) {
	return e.renameEdit, nil
}

func (e *fakeEngine) PrepareCallHierarchy(contextpkg.Context, protocol.DocumentUri, protocol.Position) ([]protocol.CallHierarchyItem, error) {
	return append([]protocol.CallHierarchyItem(nil), e.items...), nil
}

func (e *fakeEngine) IncomingCalls(contextpkg.Context, protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error) {
	return append([]protocol.CallHierarchyIncomingCall(nil), e.incoming...), nil
}

func (e *fakeEngine) resolvedLabels() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.resolved...)
}

// fakePeer is a client answering server requests from canned JSON.
type fakePeer struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []peerCall
}

type peerCall struct {
	method string
	params any
}

func newFakePeer(responses map[string]string) *fakePeer {
	return &fakePeer{responses: responses}
}

func (p *fakePeer) Call(_ contextpkg.Context, method string, params, result any, _ ...jsonrpc2.CallOption) error {
	p.mu.Lock()
	p.calls = append(p.calls, peerCall{method: method, params: params})
	response, ok := p.responses[method]
	p.mu.Unlock()

	if !ok {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: method}
	}
	return json.Unmarshal([]byte(response), result)
}

func (p *fakePeer) Notify(_ contextpkg.Context, method string, params any, _ ...jsonrpc2.CallOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, peerCall{method: method, params: params})
	return nil
}

func (p *fakePeer) called(method string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var params []any
	for _, c := range p.calls {
		if c.method == method {
			params = append(params, c.params)
		}
	}
	return params
}

// harness drives a Server through its glsp entry point.
type harness struct {
	t       *testing.T
	s       *Server
	engines map[string]*fakeEngine

	mu    sync.Mutex
	notes []peerCall
}

func newHarness(t *testing.T, cfg config.Config, engines ...*fakeEngine) *harness {
	t.Helper()
	h := &harness{t: t, engines: map[string]*fakeEngine{}}
	for _, e := range engines {
		h.engines[e.root] = e
	}
	h.s = New(Options{
		Config: cfg,
		Factory: func(info resolver.ProjectInfo) (engine.Engine, error) {
			if e, ok := h.engines[info.Root]; ok {
				return e, nil
			}
			return &fakeEngine{root: info.Root}, nil
		},
	})
	t.Cleanup(func() { h.s.close(contextpkg.Background()) })
	return h
}

func (h *harness) call(method string, params any) (any, error) {
	return h.callContext(contextpkg.Background(), method, params)
}

func (h *harness) callContext(ctx contextpkg.Context, method string, params any) (any, error) {
	h.t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(h.t, err)

	glspContext := &glsp.Context{
		Method: method,
		Params: raw,
		Notify: func(method string, params any) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.notes = append(h.notes, peerCall{method: method, params: params})
		},
		Call: func(string, any, any) {},
	}
	h.s.bind(glspContext, ctx)
	defer h.s.unbind(glspContext)

	r, validMethod, validParams, err := h.s.Handle(glspContext)
	require.True(h.t, validMethod, method)
	require.True(h.t, validParams, method)
	return r, err
}

func (h *harness) notifications(method string) []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	var params []any
	for _, n := range h.notes {
		if n.method == method {
			params = append(params, n.params)
		}
	}
	return params
}

func (h *harness) initialize(insertReplace bool, roots ...string) initializeResult {
	h.t.Helper()
	folders := make([]map[string]any, len(roots))
	for i, root := range roots {
		folders[i] = map[string]any{"uri": resolver.URIFromPath(root), "name": filepath.Base(root)}
	}
	r, err := h.call(protocol.MethodInitialize, map[string]any{
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"completion": map[string]any{
					"completionItem": map[string]any{"insertReplaceSupport": insertReplace},
				},
			},
		},
		"workspaceFolders": folders,
	})
	require.NoError(h.t, err)
	result, ok := r.(initializeResult)
	require.True(h.t, ok)
	return result
}

func fileIn(root, name string) protocol.DocumentUri {
	return resolver.URIFromPath(filepath.Join(root, name))
}
