package dispatch_test

import (
	"context"
	"errors"

	"github.com/rottenpen/volar/internal/engine"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type stubEngine struct {
	engine.Unimplemented
	list     *protocol.CompletionList
	resolved func(item *protocol.CompletionItem, live *protocol.Position) *protocol.CompletionItem
	lenses   []protocol.CodeLens
	hover    *protocol.Hover
	fail     bool
	panic    bool

	calls    int
	lastLive *protocol.Position
}

func (e *stubEngine) check() error {
	e.calls++
	if e.panic {
		panic("engine bug")
	}
	if e.fail {
		return errors.New("engine failed")
	}
	return nil
}

func (e *stubEngine) Completion(context.Context, protocol.DocumentUri, protocol.Position, *protocol.CompletionContext) (*protocol.CompletionList, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.list, nil
}

func (e *stubEngine) ResolveCompletion(_ context.Context, item *protocol.CompletionItem, live *protocol.Position) (*protocol.CompletionItem, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	e.lastLive = live
	if e.resolved == nil {
		return nil, nil
	}
	return e.resolved(item, live), nil
}

func (e *stubEngine) Hover(context.Context, protocol.DocumentUri, protocol.Position) (*protocol.Hover, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.hover, nil
}

func (e *stubEngine) CodeLenses(context.Context, protocol.DocumentUri) ([]protocol.CodeLens, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.lenses, nil
}

type resolverTable map[protocol.DocumentUri]engine.Engine

func (r resolverTable) Resolve(_ context.Context, uri protocol.DocumentUri) (engine.Engine, bool) {
	e, ok := r[uri]
	return e, ok
}

type selectionClient struct {
	selection *engine.Selection
	asked     int
}

func (c *selectionClient) Configuration(context.Context, string, protocol.DocumentUri) (string, bool) {
	return "", false
}

func (c *selectionClient) ApplyEdit(context.Context, string, protocol.WorkspaceEdit) (bool, error) {
	return false, nil
}

func (c *selectionClient) Notify(string, any) {}

func (c *selectionClient) ActiveSelection(context.Context) (engine.Selection, bool) {
	c.asked++
	if c.selection == nil {
		return engine.Selection{}, false
	}
	return *c.selection, true
}
