package aggregate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rottenpen/volar/internal/aggregate"
	"github.com/rottenpen/volar/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedEngine struct {
	engine.Unimplemented
	name string
}

type project struct {
	e engine.Engine
}

func (p project) Engine(context.Context) (engine.Engine, bool) {
	return p.e, p.e != nil
}

type workspace struct {
	projects []engine.Project
	inferred engine.Project
}

func (w workspace) Projects() []engine.Project        { return w.projects }
func (w workspace) InferredProject() engine.Project { return w.inferred }

type workspaces []engine.Workspace

func (w workspaces) Workspaces() []engine.Workspace { return w }

func fixture() workspaces {
	return workspaces{
		workspace{
			projects: []engine.Project{
				project{namedEngine{name: "a1"}},
				project{namedEngine{name: "a2"}},
			},
			inferred: project{namedEngine{name: "a-inferred"}},
		},
		workspace{
			inferred: project{namedEngine{name: "b-inferred"}},
		},
	}
}

func nameQuery(calls *[]string) aggregate.Query[string] {
	return func(_ context.Context, e engine.Engine) ([]string, error) {
		name := e.(namedEngine).name
		*calls = append(*calls, name)
		return []string{name + ":sym", "shared"}, nil
	}
}

func TestSearchOrderAndInferredFallback(t *testing.T) {
	var calls []string
	results, ok := aggregate.Search(context.Background(), fixture(), "test", nameQuery(&calls))

	require.True(t, ok)
	assert.Equal(t, []string{"a1", "a2", "b-inferred"}, calls)
	assert.Equal(t, []string{
		"a1:sym", "shared",
		"a2:sym", "shared",
		"b-inferred:sym", "shared",
	}, results)
}

func TestSearchCancelledBeforeSecondEngine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls []string
	query := func(ctx context.Context, e engine.Engine) ([]string, error) {
		calls = append(calls, e.(namedEngine).name)
		cancel()
		return []string{"partial"}, nil
	}

	results, ok := aggregate.Search(ctx, fixture(), "test", query)
	assert.False(t, ok)
	assert.Nil(t, results)
	assert.Equal(t, []string{"a1"}, calls)
}

func TestSearchSkipsFailingEngines(t *testing.T) {
	query := func(_ context.Context, e engine.Engine) ([]string, error) {
		switch e.(namedEngine).name {
		case "a1":
			return nil, errors.New("boom")
		case "a2":
			panic("engine bug")
		}
		return []string{"ok"}, nil
	}

	results, ok := aggregate.Search(context.Background(), fixture(), "test", query)
	require.True(t, ok)
	assert.Equal(t, []string{"ok"}, results)
}

func TestSearchSkipsProjectsWithoutEngine(t *testing.T) {
	ws := workspaces{workspace{projects: []engine.Project{project{}, project{namedEngine{name: "x"}}}}}

	var calls []string
	_, ok := aggregate.Search(context.Background(), ws, "test", nameQuery(&calls))
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, calls)
}

func TestSearchNoWorkspaces(t *testing.T) {
	results, ok := aggregate.Search(context.Background(), workspaces{}, "test", nameQuery(new([]string)))
	assert.True(t, ok)
	assert.Empty(t, results)
}
