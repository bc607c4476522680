// Package aggregate fans a query out over every project engine and
// concatenates the answers.
package aggregate

import (
	"context"
	"fmt"

	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/telemetry"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("volar.aggregate")

// Query is run once per project engine.
type Query[T any] func(ctx context.Context, e engine.Engine) ([]T, error)

// Search runs query against the engine of every project, workspace by
// workspace. A workspace without explicit projects contributes its inferred
// project instead.
//
// Results are concatenated in iteration order without de-duplication.
// Cancellation is checked before each engine call; once ctx is done the
// whole search is abandoned and Search reports false. An engine that fails
// is left out and the search continues.
func Search[T any](ctx context.Context, workspaces engine.Workspaces, name string, query Query[T]) ([]T, bool) {
	var results []T
	queried := 0

	for _, ws := range workspaces.Workspaces() {
		for _, project := range projectsOf(ws) {
			if err := ctx.Err(); err != nil {
				log.Debugf("%s: %v after %d engines: %v", name, engine.ErrCancelled, queried, err)
				telemetry.RecordAggregate(ctx, name, queried, false)
				return nil, false
			}

			e, ok := project.Engine(ctx)
			if !ok || e == nil {
				continue
			}
			queried++

			found, err := run(ctx, e, query)
			if err != nil {
				log.Warningf("%s: engine failed, skipping: %v", name, err)
				continue
			}
			results = append(results, found...)
		}
	}

	telemetry.RecordAggregate(ctx, name, queried, true)
	return results, true
}

func projectsOf(ws engine.Workspace) []engine.Project {
	projects := ws.Projects()
	if len(projects) > 0 {
		return projects
	}
	if inferred := ws.InferredProject(); inferred != nil {
		return []engine.Project{inferred}
	}
	return nil
}

func run[T any](ctx context.Context, e engine.Engine, query Query[T]) (found []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return query(ctx, e)
}
