package server

import (
	"encoding/json"
	"fmt"

	"github.com/rottenpen/volar/internal/config"
	"github.com/rottenpen/volar/internal/resolver"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Version is reported to the client as part of the server info.
var Version = "(dev) v0.0.0"

// capabilities adds the 3.17 inlay hint provider the 3.16 structure lacks.
type capabilities struct {
	protocol.ServerCapabilities
	InlayHintProvider bool `json:"inlayHintProvider,omitempty"`
}

type initializeResult struct {
	Capabilities capabilities                         `json:"capabilities"`
	ServerInfo   *protocol.InitializeResultServerInfo `json:"serverInfo,omitempty"`
}

// clientSupport is the part of the client capabilities the server reads.
type clientSupport struct {
	TextDocument struct {
		Completion struct {
			CompletionItem struct {
				InsertReplaceSupport bool `json:"insertReplaceSupport"`
			} `json:"completionItem"`
		} `json:"completion"`
	} `json:"textDocument"`
}

// renameGlobs select the files whose moves may break imports.
var renameGlobs = []string{
	"**/*.{ts,tsx,mts,cts,js,jsx,mjs,cjs,vue}",
	"**/",
}

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	// Config
	cfg, err := config.Load(s.base, params.InitializationOptions)
	if err != nil {
		return nil, fmt.Errorf("invalid initialization options: %w", err)
	}
	log.Debugf("Config: %+v", cfg)

	// Client capabilities
	var support clientSupport
	if raw, err := json.Marshal(params.Capabilities); err == nil {
		if err := json.Unmarshal(raw, &support); err != nil {
			log.Warningf("Cannot read client capabilities: %v", err)
		}
	}

	s.mu.Lock()
	s.config = cfg
	s.insertReplace = support.TextDocument.Completion.CompletionItem.InsertReplaceSupport
	s.mu.Unlock()

	if params.Trace != nil {
		protocol.SetTraceValue(*params.Trace)
	}

	// Workspaces
	s.registry.SetProjects(cfg.Projects)
	folders := params.WorkspaceFolders
	if len(folders) == 0 && params.RootURI != nil {
		folders = []protocol.WorkspaceFolder{{URI: *params.RootURI}}
	}
	for _, folder := range folders {
		if err := s.registry.AddWorkspace(folder.URI); err != nil {
			log.Warningf("Ignoring workspace %s: %v", folder.URI, err)
		}
	}

	version := Version
	return initializeResult{
		Capabilities: s.capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    name,
			Version: &version,
		},
	}, nil
}

func (s *Server) capabilities() capabilities {
	syncKind := protocol.TextDocumentSyncKindIncremental

	base := s.handler.CreateServerCapabilities()
	base.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	base.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", "\"", "'", "/", "@", "<"},
		ResolveProvider:   &protocol.True,
	}
	base.SignatureHelpProvider = &protocol.SignatureHelpOptions{
		TriggerCharacters:   []string{"(", ","},
		RetriggerCharacters: []string{")"},
	}
	base.CodeLensProvider = &protocol.CodeLensOptions{ResolveProvider: &protocol.True}
	base.CodeActionProvider = &protocol.CodeActionOptions{ResolveProvider: &protocol.True}
	base.RenameProvider = &protocol.RenameOptions{PrepareProvider: &protocol.True}
	base.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{commandReloadProjects},
	}
	base.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: s.legend,
		Range:  true,
		Full:   true,
	}

	filters := make([]protocol.FileOperationFilter, len(renameGlobs))
	for i, glob := range renameGlobs {
		scheme := "file"
		filters[i] = protocol.FileOperationFilter{
			Scheme:  &scheme,
			Pattern: protocol.FileOperationPattern{Glob: glob},
		}
	}
	base.Workspace = &protocol.ServerCapabilitiesWorkspace{
		WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
			Supported:           &protocol.True,
			ChangeNotifications: &protocol.BoolOrString{Value: true},
		},
		FileOperations: &protocol.ServerCapabilitiesWorkspaceFileOperations{
			WillRename: &protocol.FileOperationRegistrationOptions{Filters: filters},
		},
	}

	return capabilities{ServerCapabilities: base, InlayHintProvider: true}
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Infof("Client initialized with workspaces %v", s.registry.Roots())
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.close(s.requestContext(context))
	return nil
}

func (s *Server) setTrace(
	context *glsp.Context,
	params *protocol.SetTraceParams,
) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) workspaceDidChangeWorkspaceFolders(
	context *glsp.Context,
	params *protocol.DidChangeWorkspaceFoldersParams,
) error {
	for _, folder := range params.Event.Removed {
		if err := s.registry.RemoveWorkspace(folder.URI); err != nil {
			log.Warningf("Cannot remove workspace %s: %v", folder.URI, err)
		}
	}
	for _, folder := range params.Event.Added {
		if err := s.registry.AddWorkspace(folder.URI); err != nil {
			log.Warningf("Cannot add workspace %s: %v", folder.URI, err)
		}
	}
	return nil
}

// workspaceDidChangeConfiguration lays the "volar" section of the pushed
// settings over the current configuration.
func (s *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	settings := params.Settings
	if fields, ok := settings.(map[string]any); ok {
		section, ok := fields[name]
		if !ok {
			return nil
		}
		settings = section
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := config.Load(s.config, settings)
	if err != nil {
		return err
	}
	s.config = cfg
	return nil
}

// workspaceExecuteCommand runs the server side commands.
func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	switch params.Command {
	case commandReloadProjects:
		return nil, s.reloadProjects()
	}
	return nil, fmt.Errorf("unknown command %q", params.Command)
}

const commandReloadProjects = "volar.action.reloadProjects"

// reloadProjects drops every engine and rebuilds the workspaces from the
// current project configuration.
func (s *Server) reloadProjects() error {
	roots := s.registry.Roots()
	s.registry.SetProjects(s.settings().Projects)
	for _, root := range roots {
		uri := resolver.URIFromPath(root)
		if err := s.registry.RemoveWorkspace(uri); err != nil {
			return err
		}
		if err := s.registry.AddWorkspace(uri); err != nil {
			return err
		}
	}
	log.Infof("Reloaded %d workspaces", len(roots))
	return nil
}
