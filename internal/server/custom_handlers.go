package server

import (
	contextpkg "context"
	"encoding/json"
	"errors"

	"github.com/rottenpen/volar/internal/engine"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Requests the 3.16 handler does not know about.
const (
	methodInlayHint  = "textDocument/inlayHint"
	methodAutoInsert = "volar/client/autoInsert"
	methodRenameDone = "volar/renameDone"
)

// semanticTokensParams covers both semantic token requests. The partial
// result token is kept raw so it can be echoed back unchanged.
type semanticTokensParams struct {
	TextDocument       protocol.TextDocumentIdentifier `json:"textDocument"`
	Range              *protocol.Range                 `json:"range,omitempty"`
	PartialResultToken json.RawMessage                 `json:"partialResultToken,omitempty"`
}

// glsp.Handler interface
func (s *Server) Handle(context *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	switch context.Method {
	case methodInlayHint, methodAutoInsert, methodRenameDone,
		protocol.MethodTextDocumentSemanticTokensFull, protocol.MethodTextDocumentSemanticTokensRange:
		if !s.handler.IsInitialized() {
			return nil, true, true, errors.New("server not initialized")
		}
	}

	switch context.Method {
	case methodInlayHint:
		validMethod = true
		var params engine.InlayHintParams
		if err = json.Unmarshal(context.Params, &params); err == nil {
			validParams = true
			r, err = s.textDocumentInlayHint(context, &params)
		}

	case methodAutoInsert:
		validMethod = true
		var params engine.AutoInsertParams
		if err = json.Unmarshal(context.Params, &params); err == nil {
			validParams = true
			r, err = s.autoInsert(context, &params)
		}

	case methodRenameDone:
		validMethod = true
		validParams = true
		err = s.renameDone(context)

	case protocol.MethodTextDocumentSemanticTokensFull, protocol.MethodTextDocumentSemanticTokensRange:
		validMethod = true
		var params semanticTokensParams
		if err = json.Unmarshal(context.Params, &params); err == nil {
			validParams = true
			if context.Method == protocol.MethodTextDocumentSemanticTokensFull {
				params.Range = nil
			}
			r, err = s.textDocumentSemanticTokens(context, &params)
		}

	default:
		return s.handler.Handle(context)
	}

	return
}

func (s *Server) textDocumentInlayHint(
	context *glsp.Context,
	params *engine.InlayHintParams,
) ([]engine.InlayHint, error) {
	return dispatchTo(s, context, methodInlayHint, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) ([]engine.InlayHint, error) {
		return e.InlayHints(ctx, params.TextDocument.URI, params.Range)
	}), nil
}

func (s *Server) autoInsert(
	context *glsp.Context,
	params *engine.AutoInsertParams,
) (*string, error) {
	return dispatchTo(s, context, methodAutoInsert, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) (*string, error) {
		return e.AutoInsert(ctx, params.TextDocument.URI, params.Position, params.LastChange)
	}), nil
}

// renameDone answers once every file rename accepted so far has been
// applied or dropped.
func (s *Server) renameDone(context *glsp.Context) error {
	return s.renames.Wait(s.requestContext(context))
}
