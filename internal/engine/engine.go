// Package engine declares the collaborators the dispatch layer consumes:
// per-project analysis engines, the resolver that finds them, the workspace
// registry and the client connection.
package engine

import (
	"context"

	"github.com/rottenpen/volar/internal/tokens"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Engine is a capability provider bound to one project. Every method may
// return a nil result for "nothing to report"; errors are reserved for
// genuine failures.
type Engine interface {
	Completion(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position, cc *protocol.CompletionContext) (*protocol.CompletionList, error)
	// ResolveCompletion receives the live cursor position when the client
	// reported one for the same document, nil otherwise.
	ResolveCompletion(ctx context.Context, item *protocol.CompletionItem, live *protocol.Position) (*protocol.CompletionItem, error)
	Hover(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) (*protocol.Hover, error)
	SignatureHelp(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position, sc *protocol.SignatureHelpContext) (*protocol.SignatureHelp, error)

	PrepareRename(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) (*protocol.Range, error)
	Rename(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position, newName string) (*protocol.WorkspaceEdit, error)
	// FileRenameEdits returns the edits other documents need when oldURI is
	// moved to newURI.
	FileRenameEdits(ctx context.Context, oldURI, newURI protocol.DocumentUri) (*protocol.WorkspaceEdit, error)

	CodeLenses(ctx context.Context, uri protocol.DocumentUri) ([]protocol.CodeLens, error)
	ResolveCodeLens(ctx context.Context, lens *protocol.CodeLens) (*protocol.CodeLens, error)
	CodeActions(ctx context.Context, uri protocol.DocumentUri, rng protocol.Range, ac protocol.CodeActionContext) ([]protocol.CodeAction, error)
	ResolveCodeAction(ctx context.Context, action *protocol.CodeAction) (*protocol.CodeAction, error)

	References(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error)
	Implementations(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]protocol.Location, error)
	Definition(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]protocol.Location, error)
	TypeDefinition(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]protocol.Location, error)
	DocumentHighlights(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]protocol.DocumentHighlight, error)
	DocumentLinks(ctx context.Context, uri protocol.DocumentUri) ([]protocol.DocumentLink, error)
	WorkspaceSymbols(ctx context.Context, query string) ([]protocol.SymbolInformation, error)

	PrepareCallHierarchy(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position) ([]protocol.CallHierarchyItem, error)
	IncomingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error)
	OutgoingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyOutgoingCall, error)

	// SemanticTokens returns every token of the document, or of rng when it
	// is set. report, when non-nil, is handed batches of tokens as they are
	// produced; the final return value must still contain all of them.
	SemanticTokens(ctx context.Context, uri protocol.DocumentUri, rng *protocol.Range, report func([]tokens.Tuple)) ([]tokens.Tuple, error)
	InlayHints(ctx context.Context, uri protocol.DocumentUri, rng protocol.Range) ([]InlayHint, error)
	AutoInsert(ctx context.Context, uri protocol.DocumentUri, pos protocol.Position, change AutoInsertChange) (*string, error)
}

// Resolver maps a document to the engine of the project owning it.
type Resolver interface {
	Resolve(ctx context.Context, uri protocol.DocumentUri) (Engine, bool)
}

// Workspaces enumerates every workspace known to the server.
type Workspaces interface {
	Workspaces() []Workspace
}

// Workspace groups projects sharing one editor folder.
type Workspace interface {
	Projects() []Project
	// InferredProject stands in when no explicit project is registered.
	InferredProject() Project
}

// Project owns at most one engine.
type Project interface {
	Engine(ctx context.Context) (Engine, bool)
}

// TextSource returns the current text of a document if it is known.
type TextSource interface {
	Text(uri protocol.DocumentUri) (string, bool)
}

// VersionSource returns the current version of an open document.
type VersionSource interface {
	Version(uri protocol.DocumentUri) (protocol.Integer, bool)
}

// Overlay reads from each source in order and returns the first hit.
type Overlay []TextSource

func (o Overlay) Text(uri protocol.DocumentUri) (string, bool) {
	for _, source := range o {
		if source == nil {
			continue
		}
		if text, ok := source.Text(uri); ok {
			return text, true
		}
	}
	return "", false
}
