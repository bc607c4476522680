package resolver

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rottenpen/volar/internal/engine"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("volar.resolver")

// ProjectInfo describes the project an engine is built for.
type ProjectInfo struct {
	Root      string
	Workspace string
	// Inferred is set for the workspace-wide stand-in project.
	Inferred bool
}

// EngineFactory builds the engine of one project.
type EngineFactory func(info ProjectInfo) (engine.Engine, error)

// Project owns one lazily created engine.
type Project struct {
	info    ProjectInfo
	factory EngineFactory

	once   sync.Once
	engine engine.Engine
}

var _ engine.Project = (*Project)(nil)

func (p *Project) Info() ProjectInfo {
	return p.info
}

// Engine creates the engine on first use. A factory failure is logged and
// remembered; the project then never has an engine.
func (p *Project) Engine(context.Context) (engine.Engine, bool) {
	p.once.Do(func() {
		e, err := p.factory(p.info)
		if err != nil {
			log.Errorf("Failed to start engine for %s: %v", p.info.Root, err)
			return
		}
		p.engine = e
		log.Infof("Started engine for %s", p.info.Root)
	})
	return p.engine, p.engine != nil
}

func (p *Project) close() {
	// The engine is created at most once; running the once here keeps a
	// late Engine call from creating one after close.
	p.once.Do(func() {})
	if closer, ok := p.engine.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warningf("Failed to close engine for %s: %v", p.info.Root, err)
		}
	}
}

// Workspace is one editor folder and the projects below it.
type Workspace struct {
	root     string
	projects []*Project
	inferred *Project
}

var _ engine.Workspace = (*Workspace)(nil)

func (w *Workspace) Root() string {
	return w.root
}

func (w *Workspace) Projects() []engine.Project {
	projects := make([]engine.Project, len(w.projects))
	for i, p := range w.projects {
		projects[i] = p
	}
	return projects
}

// InferredProject serves documents outside every explicit project.
func (w *Workspace) InferredProject() engine.Project {
	return w.inferred
}

// project returns the deepest project whose root contains path, falling
// back to the inferred project.
func (w *Workspace) project(path string) *Project {
	var best *Project
	for _, p := range w.projects {
		if !contains(p.info.Root, path) {
			continue
		}
		if best == nil || len(p.info.Root) > len(best.info.Root) {
			best = p
		}
	}
	if best != nil {
		return best
	}
	return w.inferred
}

func (w *Workspace) close() {
	for _, p := range w.projects {
		p.close()
	}
	w.inferred.close()
}

// Registry maps documents to the engine of the project owning them.
type Registry struct {
	mu         sync.RWMutex
	factory    EngineFactory
	projects   []string
	workspaces []*Workspace
}

var (
	_ engine.Resolver   = (*Registry)(nil)
	_ engine.Workspaces = (*Registry)(nil)
)

func NewRegistry(factory EngineFactory) *Registry {
	return &Registry{factory: factory}
}

// SetProjects sets the project roots, relative to each workspace folder or
// absolute, used by workspaces added afterwards.
func (r *Registry) SetProjects(roots []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects = append([]string(nil), roots...)
}

// AddWorkspace registers a workspace folder. Adding a known folder again is
// a no-op.
func (r *Registry) AddWorkspace(uri protocol.URI) error {
	root, err := PathFromURI(uri)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ws := range r.workspaces {
		if ws.root == root {
			return nil
		}
	}

	ws := &Workspace{root: root}
	for _, rel := range r.projects {
		projectRoot := rel
		if !filepath.IsAbs(projectRoot) {
			projectRoot = filepath.Join(root, rel)
		}
		projectRoot = filepath.Clean(projectRoot)
		if !contains(root, projectRoot) {
			log.Warningf("Project %s is outside workspace %s, ignoring", projectRoot, root)
			continue
		}
		ws.projects = append(ws.projects, &Project{
			info:    ProjectInfo{Root: projectRoot, Workspace: root},
			factory: r.factory,
		})
	}
	ws.inferred = &Project{
		info:    ProjectInfo{Root: root, Workspace: root, Inferred: true},
		factory: r.factory,
	}

	r.workspaces = append(r.workspaces, ws)
	log.Infof("Added workspace %s with %d projects", root, len(ws.projects))
	return nil
}

// RemoveWorkspace forgets a workspace folder and closes its engines.
func (r *Registry) RemoveWorkspace(uri protocol.URI) error {
	root, err := PathFromURI(uri)
	if err != nil {
		return err
	}

	r.mu.Lock()
	var removed *Workspace
	for i, ws := range r.workspaces {
		if ws.root == root {
			removed = ws
			r.workspaces = append(r.workspaces[:i], r.workspaces[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if removed != nil {
		removed.close()
	}
	return nil
}

// Workspaces lists the registered workspaces in the order they were added.
func (r *Registry) Workspaces() []engine.Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]engine.Workspace, len(r.workspaces))
	for i, ws := range r.workspaces {
		out[i] = ws
	}
	return out
}

// Resolve finds the engine for uri: the deepest workspace containing it,
// then the deepest project in that workspace.
func (r *Registry) Resolve(ctx context.Context, uri protocol.DocumentUri) (engine.Engine, bool) {
	path, err := PathFromURI(uri)
	if err != nil {
		log.Debugf("Cannot resolve %s: %v", uri, err)
		return nil, false
	}

	r.mu.RLock()
	var owner *Workspace
	for _, ws := range r.workspaces {
		if !contains(ws.root, path) {
			continue
		}
		if owner == nil || len(ws.root) > len(owner.root) {
			owner = ws
		}
	}
	r.mu.RUnlock()

	if owner == nil {
		return nil, false
	}
	project := owner.project(path)
	if project == nil {
		return nil, false
	}
	return project.Engine(ctx)
}

// Close closes every engine.
func (r *Registry) Close() {
	r.mu.Lock()
	workspaces := r.workspaces
	r.workspaces = nil
	r.mu.Unlock()

	for _, ws := range workspaces {
		ws.close()
	}
}

// Roots lists the workspace roots in sorted order.
func (r *Registry) Roots() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roots := make([]string, len(r.workspaces))
	for i, ws := range r.workspaces {
		roots[i] = ws.root
	}
	sort.Strings(roots)
	return roots
}

// PathFromURI converts a file uri to a clean local path.
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	path := u.Path
	// file:///C:/dir arrives as /C:/dir.
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.Clean(filepath.FromSlash(path)), nil
}

// URIFromPath converts a local path to a file uri.
func URIFromPath(path string) protocol.DocumentUri {
	path = filepath.ToSlash(filepath.Clean(path))
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

func contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
