package engine

import (
	"context"

	"github.com/rottenpen/volar/internal/tokens"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Unimplemented answers every capability with "no result". Embed it to
// implement only part of Engine.
type Unimplemented struct{}

var _ Engine = Unimplemented{}

func (Unimplemented) Completion(context.Context, protocol.DocumentUri, protocol.Position, *protocol.CompletionContext) (*protocol.CompletionList, error) {
	return nil, nil
}

func (Unimplemented) ResolveCompletion(_ context.Context, item *protocol.CompletionItem, _ *protocol.Position) (*protocol.CompletionItem, error) {
	return item, nil
}

func (Unimplemented) Hover(context.Context, protocol.DocumentUri, protocol.Position) (*protocol.Hover, error) {
	return nil, nil
}

func (Unimplemented) SignatureHelp(context.Context, protocol.DocumentUri, protocol.Position, *protocol.SignatureHelpContext) (*protocol.SignatureHelp, error) {
	return nil, nil
}

func (Unimplemented) PrepareRename(context.Context, protocol.DocumentUri, protocol.Position) (*protocol.Range, error) {
	return nil, nil
}

func (Unimplemented) Rename(context.Context, protocol.DocumentUri, protocol.Position, string) (*protocol.WorkspaceEdit, error) {
	return nil, nil
}

func (Unimplemented) FileRenameEdits(context.Context, protocol.DocumentUri, protocol.DocumentUri) (*protocol.WorkspaceEdit, error) {
	return nil, nil
}

func (Unimplemented) CodeLenses(context.Context, protocol.DocumentUri) ([]protocol.CodeLens, error) {
	return nil, nil
}

func (Unimplemented) ResolveCodeLens(_ context.Context, lens *protocol.CodeLens) (*protocol.CodeLens, error) {
	return lens, nil
}

func (Unimplemented) CodeActions(context.Context, protocol.DocumentUri, protocol.Range, protocol.CodeActionContext) ([]protocol.CodeAction, error) {
	return nil, nil
}

func (Unimplemented) ResolveCodeAction(_ context.Context, action *protocol.CodeAction) (*protocol.CodeAction, error) {
	return action, nil
}

func (Unimplemented) References(context.Context, protocol.DocumentUri, protocol.Position, bool) ([]protocol.Location, error) {
	return nil, nil
}

func (Unimplemented) Implementations(context.Context, protocol.DocumentUri, protocol.Position) ([]protocol.Location, error) {
	return nil, nil
}

func (Unimplemented) Definition(context.Context, protocol.DocumentUri, protocol.Position) ([]protocol.Location, error) {
	return nil, nil
}

func (Unimplemented) TypeDefinition(context.Context, protocol.DocumentUri, protocol.Position) ([]protocol.Location, error) {
	return nil, nil
}

func (Unimplemented) DocumentHighlights(context.Context, protocol.DocumentUri, protocol.Position) ([]protocol.DocumentHighlight, error) {
	return nil, nil
}

func (Unimplemented) DocumentLinks(context.Context, protocol.DocumentUri) ([]protocol.DocumentLink, error) {
	return nil, nil
}

func (Unimplemented) WorkspaceSymbols(context.Context, string) ([]protocol.SymbolInformation, error) {
	return nil, nil
}

func (Unimplemented) PrepareCallHierarchy(context.Context, protocol.DocumentUri, protocol.Position) ([]protocol.CallHierarchyItem, error) {
	return nil, nil
}

func (Unimplemented) IncomingCalls(context.Context, protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error) {
	return nil, nil
}

func (Unimplemented) OutgoingCalls(context.Context, protocol.CallHierarchyItem) ([]protocol.CallHierarchyOutgoingCall, error) {
	return nil, nil
}

func (Unimplemented) SemanticTokens(context.Context, protocol.DocumentUri, *protocol.Range, func([]tokens.Tuple)) ([]tokens.Tuple, error) {
	return nil, nil
}

func (Unimplemented) InlayHints(context.Context, protocol.DocumentUri, protocol.Range) ([]InlayHint, error) {
	return nil, nil
}

func (Unimplemented) AutoInsert(context.Context, protocol.DocumentUri, protocol.Position, AutoInsertChange) (*string, error) {
	return nil, nil
}
