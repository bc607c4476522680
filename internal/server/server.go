// Package server exposes the dispatch layer over the language server
// protocol.
package server

import (
	contextpkg "context"
	"sync"

	"github.com/rottenpen/volar/internal/config"
	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/manager"
	"github.com/rottenpen/volar/internal/parser"
	"github.com/rottenpen/volar/internal/rename"
	"github.com/rottenpen/volar/internal/resolver"
	"github.com/rottenpen/volar/internal/scheduler"
	"github.com/rottenpen/volar/internal/sitterengine"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("volar.server")

const (
	name = "volar"
	// parserPoolSize bounds the parsers shared by all project engines.
	parserPoolSize = 8
	// queueSize bounds the deferred tasks waiting on the scheduler.
	queueSize = 64
)

type Options struct {
	// Config is the base configuration initializationOptions are laid over.
	Config config.Config
	// Factory builds project engines. Defaults to the tree-sitter engine.
	Factory resolver.EngineFactory
	// Legend is advertised for semantic tokens. Defaults to the tree-sitter
	// engine's legend.
	Legend *protocol.SemanticTokensLegend
	Debug  bool
}

type Server struct {
	handler  *protocol.Handler
	docs     *manager.DocumentManager
	registry *resolver.Registry
	renames  *rename.Orchestrator
	queue    *scheduler.Scheduler
	pool     *parser.Pool
	legend   protocol.SemanticTokensLegend
	debug    bool

	mu            sync.RWMutex
	base          config.Config
	config        config.Config
	insertReplace bool
	peer          peer

	requestsMu sync.Mutex
	contexts   map[*glsp.Context]contextpkg.Context
	cancels    map[jsonrpc2.ID]contextpkg.CancelFunc

	closeOnce sync.Once
}

var _ glsp.Handler = (*Server)(nil)

func New(opts Options) *Server {
	s := &Server{
		docs:     manager.NewDocumentManager(),
		queue:    scheduler.NewScheduler(queueSize),
		pool:     parser.NewPool(parserPoolSize),
		legend:   sitterengine.Legend(),
		debug:    opts.Debug,
		base:     opts.Config,
		config:   opts.Config,
		contexts: make(map[*glsp.Context]contextpkg.Context),
		cancels:  make(map[jsonrpc2.ID]contextpkg.CancelFunc),
	}
	if opts.Legend != nil {
		s.legend = *opts.Legend
	}
	s.queue.Run()

	factory := opts.Factory
	if factory == nil {
		factory = s.newEngine
	}
	s.registry = resolver.NewRegistry(factory)
	s.renames = rename.NewOrchestrator(rename.Config{
		Resolver:  s.registry,
		Documents: s.docs,
		Versions:  s.docs,
		Queue:     s.queue,
		Settings:  s.settings,
	})

	s.handler = &protocol.Handler{
		Initialize:                         s.initialize,
		Initialized:                        s.initialized,
		Shutdown:                           s.shutdown,
		SetTrace:                           s.setTrace,
		TextDocumentDidOpen:                s.textDocumentDidOpen,
		TextDocumentDidChange:              s.textDocumentDidChange,
		TextDocumentDidClose:               s.textDocumentDidClose,
		TextDocumentCompletion:             s.textDocumentCompletion,
		CompletionItemResolve:              s.completionItemResolve,
		TextDocumentHover:                  s.textDocumentHover,
		TextDocumentSignatureHelp:          s.textDocumentSignatureHelp,
		TextDocumentDefinition:             s.textDocumentDefinition,
		TextDocumentTypeDefinition:         s.textDocumentTypeDefinition,
		TextDocumentImplementation:         s.textDocumentImplementation,
		TextDocumentReferences:             s.textDocumentReferences,
		TextDocumentDocumentHighlight:      s.textDocumentDocumentHighlight,
		TextDocumentDocumentLink:           s.textDocumentDocumentLink,
		TextDocumentCodeLens:               s.textDocumentCodeLens,
		CodeLensResolve:                    s.codeLensResolve,
		TextDocumentCodeAction:             s.textDocumentCodeAction,
		CodeActionResolve:                  s.codeActionResolve,
		TextDocumentPrepareRename:          s.textDocumentPrepareRename,
		TextDocumentRename:                 s.textDocumentRename,
		TextDocumentPrepareCallHierarchy:   s.textDocumentPrepareCallHierarchy,
		CallHierarchyIncomingCalls:         s.callHierarchyIncomingCalls,
		CallHierarchyOutgoingCalls:         s.callHierarchyOutgoingCalls,
		WorkspaceSymbol:                    s.workspaceSymbol,
		WorkspaceWillRenameFiles:           s.workspaceWillRenameFiles,
		WorkspaceDidChangeWorkspaceFolders: s.workspaceDidChangeWorkspaceFolders,
		WorkspaceDidChangeConfiguration:    s.workspaceDidChangeConfiguration,
		WorkspaceExecuteCommand:            s.workspaceExecuteCommand,
	}
	return s
}

// newEngine builds the tree-sitter engine of one project. Engines read
// pre-rename snapshots before the live documents.
func (s *Server) newEngine(info resolver.ProjectInfo) (engine.Engine, error) {
	cfg := s.settings()
	return sitterengine.New(sitterengine.Options{
		Root:          info.Root,
		Syntax:        s.docs,
		Text:          engine.Overlay{s.renames.Snapshot(), s.docs},
		Pool:          s.pool,
		ProgressBatch: cfg.SemanticTokens.ProgressBatch,
		MaxSymbols:    cfg.WorkspaceSymbol.MaxResults,
	}), nil
}

func (s *Server) settings() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Server) supportsInsertReplace() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insertReplace
}

// client returns the editor connection. Without one every client request
// reports nothing.
func (s *Server) client() engine.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &client{peer: s.peer}
}

func (s *Server) setPeer(p peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peer = p
}

// close releases everything the server owns. In-flight renames get to
// finish first.
func (s *Server) close(ctx contextpkg.Context) {
	s.closeOnce.Do(func() {
		if err := s.renames.Wait(ctx); err != nil {
			log.Warningf("Abandoning %d pending renames: %v", s.renames.Pending(), err)
		}
		s.queue.Stop()
		s.registry.Close()
		if err := s.docs.CloseAll(); err != nil {
			log.Errorf("Failed to close documents: %v", err)
		}
		if err := s.pool.Close(); err != nil {
			log.Errorf("Failed to close parser pool: %v", err)
		}
	})
}
