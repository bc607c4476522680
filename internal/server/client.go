package server

import (
	contextpkg "context"

	"github.com/rottenpen/volar/internal/engine"

	"github.com/sourcegraph/jsonrpc2"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// methodActiveSelection asks the client for the cursor of the focused editor.
const methodActiveSelection = "volar/client/activeSelection"

// peer is the client end of the connection. *jsonrpc2.Conn implements it.
type peer interface {
	Call(ctx contextpkg.Context, method string, params, result any, opts ...jsonrpc2.CallOption) error
	Notify(ctx contextpkg.Context, method string, params any, opts ...jsonrpc2.CallOption) error
}

// client implements engine.Client over the connection.
type client struct {
	peer peer
}

var _ engine.Client = (*client)(nil)

func (c *client) Configuration(ctx contextpkg.Context, section string, scope protocol.DocumentUri) (string, bool) {
	if c.peer == nil {
		return "", false
	}

	item := protocol.ConfigurationItem{Section: &section}
	if scope != "" {
		item.ScopeURI = &scope
	}
	params := protocol.ConfigurationParams{Items: []protocol.ConfigurationItem{item}}

	var result []any
	if err := c.peer.Call(ctx, protocol.ServerWorkspaceConfiguration, params, &result); err != nil {
		log.Debugf("%s: %v", section, err)
		return "", false
	}
	if len(result) == 0 {
		return "", false
	}
	value, ok := result[0].(string)
	return value, ok
}

func (c *client) ApplyEdit(ctx contextpkg.Context, label string, edit protocol.WorkspaceEdit) (bool, error) {
	if c.peer == nil {
		return false, nil
	}

	params := protocol.ApplyWorkspaceEditParams{Label: &label, Edit: edit}
	var response protocol.ApplyWorkspaceEditResponse
	if err := c.peer.Call(ctx, protocol.ServerWorkspaceApplyEdit, params, &response); err != nil {
		return false, err
	}
	if !response.Applied && response.FailureReason != nil {
		log.Infof("Client did not apply %q: %s", label, *response.FailureReason)
	}
	return response.Applied, nil
}

func (c *client) Notify(method string, params any) {
	if c.peer == nil {
		return
	}
	if err := c.peer.Notify(contextpkg.Background(), method, params); err != nil {
		log.Errorf("%s: %v", method, err)
	}
}

func (c *client) ActiveSelection(ctx contextpkg.Context) (engine.Selection, bool) {
	if c.peer == nil {
		return engine.Selection{}, false
	}

	var selection *engine.Selection
	if err := c.peer.Call(ctx, methodActiveSelection, nil, &selection); err != nil {
		log.Debugf("%s: %v", methodActiveSelection, err)
		return engine.Selection{}, false
	}
	if selection == nil || selection.TextDocument.URI == "" {
		return engine.Selection{}, false
	}
	return *selection, true
}
