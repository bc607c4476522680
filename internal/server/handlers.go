package server

import (
	contextpkg "context"

	"github.com/rottenpen/volar/internal/aggregate"
	"github.com/rottenpen/volar/internal/correlate"
	"github.com/rottenpen/volar/internal/dispatch"
	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/tokens"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// dispatchTo runs capability on the engine owning uri. Anything short of a
// result comes back as the zero value.
func dispatchTo[T any](s *Server, context *glsp.Context, method string, uri protocol.DocumentUri, capability dispatch.Capability[T]) T {
	result, _ := dispatch.Dispatch(s.requestContext(context), s.registry, method, uri, capability)
	return result
}

func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	list := dispatch.Completion(
		s.requestContext(context), s.registry,
		params.TextDocument.URI, params.Position, params.Context,
		s.supportsInsertReplace(),
	)
	if list == nil {
		return nil, nil
	}
	return list, nil
}

func (s *Server) completionItemResolve(
	context *glsp.Context,
	params *protocol.CompletionItem,
) (*protocol.CompletionItem, error) {
	correlateSelection := s.settings().Completion.CorrelateSelection
	item := dispatch.ResolveCompletion(s.requestContext(context), s.registry, s.client(), correlateSelection, params)
	if item != nil && item != params && !s.supportsInsertReplace() {
		items := []protocol.CompletionItem{*item}
		dispatch.DowngradeCompletion(items)
		item = &items[0]
	}
	return item, nil
}

func (s *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	return dispatchTo(s, context, protocol.MethodTextDocumentHover, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) (*protocol.Hover, error) {
		return e.Hover(ctx, params.TextDocument.URI, params.Position)
	}), nil
}

func (s *Server) textDocumentSignatureHelp(
	context *glsp.Context,
	params *protocol.SignatureHelpParams,
) (*protocol.SignatureHelp, error) {
	return dispatchTo(s, context, protocol.MethodTextDocumentSignatureHelp, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) (*protocol.SignatureHelp, error) {
		return e.SignatureHelp(ctx, params.TextDocument.URI, params.Position, params.Context)
	}), nil
}

func (s *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	return locations(dispatchTo(s, context, protocol.MethodTextDocumentDefinition, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.Location, error) {
		return e.Definition(ctx, params.TextDocument.URI, params.Position)
	})), nil
}

func (s *Server) textDocumentTypeDefinition(
	context *glsp.Context,
	params *protocol.TypeDefinitionParams,
) (any, error) {
	return locations(dispatchTo(s, context, protocol.MethodTextDocumentTypeDefinition, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.Location, error) {
		return e.TypeDefinition(ctx, params.TextDocument.URI, params.Position)
	})), nil
}

func (s *Server) textDocumentImplementation(
	context *glsp.Context,
	params *protocol.ImplementationParams,
) (any, error) {
	return locations(dispatchTo(s, context, protocol.MethodTextDocumentImplementation, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.Location, error) {
		return e.Implementations(ctx, params.TextDocument.URI, params.Position)
	})), nil
}

// locations keeps an empty answer from being sent as an empty array.
func locations(found []protocol.Location) any {
	if len(found) == 0 {
		return nil
	}
	return found
}

func (s *Server) textDocumentReferences(
	context *glsp.Context,
	params *protocol.ReferenceParams,
) ([]protocol.Location, error) {
	return dispatchTo(s, context, protocol.MethodTextDocumentReferences, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.Location, error) {
		return e.References(ctx, params.TextDocument.URI, params.Position, params.Context.IncludeDeclaration)
	}), nil
}

func (s *Server) textDocumentDocumentHighlight(
	context *glsp.Context,
	params *protocol.DocumentHighlightParams,
) ([]protocol.DocumentHighlight, error) {
	return dispatchTo(s, context, protocol.MethodTextDocumentDocumentHighlight, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.DocumentHighlight, error) {
		return e.DocumentHighlights(ctx, params.TextDocument.URI, params.Position)
	}), nil
}

func (s *Server) textDocumentDocumentLink(
	context *glsp.Context,
	params *protocol.DocumentLinkParams,
) ([]protocol.DocumentLink, error) {
	return dispatchTo(s, context, protocol.MethodTextDocumentDocumentLink, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.DocumentLink, error) {
		return e.DocumentLinks(ctx, params.TextDocument.URI)
	}), nil
}

func (s *Server) textDocumentCodeLens(
	context *glsp.Context,
	params *protocol.CodeLensParams,
) ([]protocol.CodeLens, error) {
	uri := params.TextDocument.URI
	lenses := dispatchTo(s, context, protocol.MethodTextDocumentCodeLens, uri, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.CodeLens, error) {
		return e.CodeLenses(ctx, uri)
	})
	correlate.CodeLenses(lenses, uri)
	return lenses, nil
}

func (s *Server) codeLensResolve(
	context *glsp.Context,
	params *protocol.CodeLens,
) (*protocol.CodeLens, error) {
	return dispatch.Resolve(s.requestContext(context), s.registry, protocol.MethodCodeLensResolve, params, params.Data, func(ctx contextpkg.Context, e engine.Engine) (*protocol.CodeLens, error) {
		return e.ResolveCodeLens(ctx, params)
	}), nil
}

func (s *Server) textDocumentCodeAction(
	context *glsp.Context,
	params *protocol.CodeActionParams,
) (any, error) {
	uri := params.TextDocument.URI
	actions := dispatchTo(s, context, protocol.MethodTextDocumentCodeAction, uri, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.CodeAction, error) {
		return e.CodeActions(ctx, uri, params.Range, params.Context)
	})
	if len(actions) == 0 {
		return nil, nil
	}
	correlate.CodeActions(actions, uri)
	return actions, nil
}

func (s *Server) codeActionResolve(
	context *glsp.Context,
	params *protocol.CodeAction,
) (*protocol.CodeAction, error) {
	return dispatch.Resolve(s.requestContext(context), s.registry, protocol.MethodCodeActionResolve, params, params.Data, func(ctx contextpkg.Context, e engine.Engine) (*protocol.CodeAction, error) {
		return e.ResolveCodeAction(ctx, params)
	}), nil
}

func (s *Server) textDocumentPrepareRename(
	context *glsp.Context,
	params *protocol.PrepareRenameParams,
) (any, error) {
	rng := dispatchTo(s, context, protocol.MethodTextDocumentPrepareRename, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) (*protocol.Range, error) {
		return e.PrepareRename(ctx, params.TextDocument.URI, params.Position)
	})
	if rng == nil {
		return nil, nil
	}
	return rng, nil
}

func (s *Server) textDocumentRename(
	context *glsp.Context,
	params *protocol.RenameParams,
) (*protocol.WorkspaceEdit, error) {
	return dispatchTo(s, context, protocol.MethodTextDocumentRename, params.TextDocument.URI, func(ctx contextpkg.Context, e engine.Engine) (*protocol.WorkspaceEdit, error) {
		return e.Rename(ctx, params.TextDocument.URI, params.Position, params.NewName)
	}), nil
}

func (s *Server) textDocumentPrepareCallHierarchy(
	context *glsp.Context,
	params *protocol.CallHierarchyPrepareParams,
) ([]protocol.CallHierarchyItem, error) {
	uri := params.TextDocument.URI
	items := dispatchTo(s, context, protocol.MethodTextDocumentPrepareCallHierarchy, uri, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.CallHierarchyItem, error) {
		return e.PrepareCallHierarchy(ctx, uri, params.Position)
	})
	correlate.CallHierarchyItems(items, uri)
	return items, nil
}

// callHierarchyIncomingCalls asks the engine that prepared the item. The
// callers it reports stay bound to that engine.
func (s *Server) callHierarchyIncomingCalls(
	context *glsp.Context,
	params *protocol.CallHierarchyIncomingCallsParams,
) ([]protocol.CallHierarchyIncomingCall, error) {
	uri, ok := correlate.CallHierarchyOrigin(params.Item)
	if !ok {
		log.Debugf("%s: %v", protocol.MethodCallHierarchyIncomingCalls, engine.ErrStaleCorrelation)
		return nil, nil
	}
	calls := dispatchTo(s, context, protocol.MethodCallHierarchyIncomingCalls, uri, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.CallHierarchyIncomingCall, error) {
		return e.IncomingCalls(ctx, params.Item)
	})
	for i := range calls {
		calls[i].From.Data = correlate.Attach(calls[i].From.Data, uri)
	}
	return calls, nil
}

func (s *Server) callHierarchyOutgoingCalls(
	context *glsp.Context,
	params *protocol.CallHierarchyOutgoingCallsParams,
) ([]protocol.CallHierarchyOutgoingCall, error) {
	uri, ok := correlate.CallHierarchyOrigin(params.Item)
	if !ok {
		log.Debugf("%s: %v", protocol.MethodCallHierarchyOutgoingCalls, engine.ErrStaleCorrelation)
		return nil, nil
	}
	calls := dispatchTo(s, context, protocol.MethodCallHierarchyOutgoingCalls, uri, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.CallHierarchyOutgoingCall, error) {
		return e.OutgoingCalls(ctx, params.Item)
	})
	for i := range calls {
		calls[i].To.Data = correlate.Attach(calls[i].To.Data, uri)
	}
	return calls, nil
}

// textDocumentSemanticTokens answers both semantic token requests. With a
// partial result token the tokens found so far are streamed through
// $/progress, each notification carrying the complete encoding up to that
// point.
func (s *Server) textDocumentSemanticTokens(
	context *glsp.Context,
	params *semanticTokensParams,
) (*protocol.SemanticTokens, error) {
	uri := params.TextDocument.URI
	method := protocol.MethodTextDocumentSemanticTokensFull
	if params.Range != nil {
		method = protocol.MethodTextDocumentSemanticTokensRange
	}

	builder := tokens.NewBuilder()
	if len(params.PartialResultToken) > 0 {
		token := protocol.ProgressToken{Value: params.PartialResultToken}
		builder.OnProgress(s.settings().SemanticTokens.ProgressBatch, func(partial protocol.SemanticTokens) {
			context.Notify(protocol.MethodProgress, protocol.ProgressParams{Token: token, Value: partial})
		})
	}

	found, ok := dispatch.Dispatch(s.requestContext(context), s.registry, method, uri, func(ctx contextpkg.Context, e engine.Engine) ([]tokens.Tuple, error) {
		return e.SemanticTokens(ctx, uri, params.Range, func(batch []tokens.Tuple) {
			builder.Push(batch...)
		})
	})
	if !ok {
		return nil, nil
	}

	if overlaps := tokens.Overlaps(found); len(overlaps) > 0 {
		log.Warningf("%s %s: %d overlapping tokens", method, uri, len(overlaps))
	}
	return &protocol.SemanticTokens{Data: tokens.Encode(found)}, nil
}

func (s *Server) workspaceSymbol(
	context *glsp.Context,
	params *protocol.WorkspaceSymbolParams,
) ([]protocol.SymbolInformation, error) {
	symbols, ok := aggregate.Search(s.requestContext(context), s.registry, protocol.MethodWorkspaceSymbol, func(ctx contextpkg.Context, e engine.Engine) ([]protocol.SymbolInformation, error) {
		return e.WorkspaceSymbols(ctx, params.Query)
	})
	if !ok {
		return nil, nil
	}
	return symbols, nil
}

func (s *Server) workspaceWillRenameFiles(
	context *glsp.Context,
	params *protocol.RenameFilesParams,
) (*protocol.WorkspaceEdit, error) {
	return s.renames.WillRenameFiles(s.requestContext(context), s.client(), params.Files)
}
