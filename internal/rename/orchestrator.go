// Package rename computes the workspace edits a batch of file moves
// implies, asking every affected engine and merging their answers.
package rename

import (
	"context"
	"fmt"

	"github.com/rottenpen/volar/internal/config"
	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/scheduler"
	"github.com/rottenpen/volar/internal/telemetry"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("volar.rename")

// maxConcurrentEngines bounds the engine calls of one batch.
const maxConcurrentEngines = 4

// Queue defers work behind everything already queued.
type Queue interface {
	Schedule(task scheduler.Task) error
}

type Config struct {
	Resolver engine.Resolver
	// Documents is the live text store renamed files are snapshotted from.
	Documents engine.TextSource
	Versions  engine.VersionSource
	Queue     Queue
	Settings  func() config.Config
}

type Orchestrator struct {
	resolver  engine.Resolver
	documents engine.TextSource
	versions  engine.VersionSource
	queue     Queue
	settings  func() config.Config
	registry  *Registry
	snapshot  *Snapshot
}

func NewOrchestrator(cfg Config) *Orchestrator {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default
	}
	return &Orchestrator{
		resolver:  cfg.Resolver,
		documents: cfg.Documents,
		versions:  cfg.Versions,
		queue:     cfg.Queue,
		settings:  settings,
		registry:  NewRegistry(),
		snapshot:  NewSnapshot(),
	}
}

// Snapshot exposes pre-rename content. Engines should read through it before
// the live document store.
func (o *Orchestrator) Snapshot() *Snapshot {
	return o.snapshot
}

// Pending is the number of batches still in flight.
func (o *Orchestrator) Pending() int {
	return o.registry.Len()
}

// Wait blocks until every tracked batch has finished.
func (o *Orchestrator) Wait(ctx context.Context) error {
	return o.registry.Wait(ctx)
}

// WillRenameFiles handles one workspace/willRenameFiles batch.
//
// With the "prompt" policy the merged edit is returned for the client to
// apply. With "always" the edit is computed in the background, retargeted
// at the new file names and applied through the client; the call itself
// returns nil. Anything else yields no edit.
func (o *Orchestrator) WillRenameFiles(ctx context.Context, client engine.Client, files []protocol.FileRename) (*protocol.WorkspaceEdit, error) {
	if len(files) == 0 {
		return nil, nil
	}

	policy := Decide(ctx, client, o.settings(), files)
	log.Debugf("Rename policy for %d files: %s", len(files), policy)

	switch policy {
	case Prompt:
		return o.Edits(ctx, files), nil
	case Always:
		o.track(ctx, client, files)
		return nil, nil
	default:
		return nil, nil
	}
}

// track snapshots the renamed files and registers the batch before
// deferring, so Wait callers and engines both see it from the start.
func (o *Orchestrator) track(ctx context.Context, client engine.Client, files []protocol.FileRename) {
	oldURIs := make([]protocol.DocumentUri, len(files))
	for i, f := range files {
		oldURIs[i] = f.OldURI
	}

	id, done := o.registry.Add()
	if o.documents != nil {
		n := o.snapshot.Capture(id, oldURIs, o.documents)
		log.Debugf("Rename %s: captured %d of %d documents", id, n, len(files))
	}
	telemetry.RenameStarted(ctx)

	finish := func() {
		done()
		o.snapshot.Release(id)
		telemetry.RenameFinished(context.Background())
	}

	task := scheduler.Task{
		Name: "rename " + id,
		Execute: func() error {
			defer finish()
			return o.apply(context.Background(), client, files)
		},
	}
	if err := o.queue.Schedule(task); err != nil {
		log.Warningf("Rename %s dropped: %v", id, err)
		finish()
	}
}

func (o *Orchestrator) apply(ctx context.Context, client engine.Client, files []protocol.FileRename) error {
	edit := o.Edits(ctx, files)
	if IsEmpty(edit) {
		return nil
	}
	Rewrite(edit, files, o.versions)

	applied, err := client.ApplyEdit(ctx, "Update imports", *edit)
	if err != nil {
		return fmt.Errorf("failed to apply rename edits: %w", err)
	}
	if !applied {
		log.Infof("Client declined rename edits for %d files", len(files))
	}
	return nil
}

// Edits asks the engine owning each old file for the edits its move implies
// and merges them in file order. Engines that fail or have nothing to say
// are skipped; nil means no engine contributed.
func (o *Orchestrator) Edits(ctx context.Context, files []protocol.FileRename) *protocol.WorkspaceEdit {
	results := make([]*protocol.WorkspaceEdit, len(files))

	var g errgroup.Group
	g.SetLimit(maxConcurrentEngines)
	for i, f := range files {
		g.Go(func() error {
			results[i] = o.fileEdits(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	var merged *protocol.WorkspaceEdit
	for _, edit := range results {
		if edit == nil {
			continue
		}
		if merged == nil {
			merged = edit
			continue
		}
		Merge(merged, edit)
	}
	return merged
}

func (o *Orchestrator) fileEdits(ctx context.Context, f protocol.FileRename) (edit *protocol.WorkspaceEdit) {
	e, ok := o.resolver.Resolve(ctx, f.OldURI)
	if !ok {
		log.Debugf("%s: %v", f.OldURI, engine.ErrNoEngine)
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Engine panicked computing rename edits for %s: %v", f.OldURI, r)
			edit = nil
		}
	}()

	edit, err := e.FileRenameEdits(ctx, f.OldURI, f.NewURI)
	if err != nil {
		log.Warningf("Engine failed computing rename edits for %s: %v", f.OldURI, err)
		return nil
	}
	return edit
}
