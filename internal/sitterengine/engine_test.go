package sitterengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rottenpen/volar/internal/correlate"
	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const memURI = "file:///mem/main.ts"

type texts map[protocol.DocumentUri]string

func (t texts) Text(uri protocol.DocumentUri) (string, bool) {
	text, ok := t[uri]
	return text, ok
}

func memEngine(t *testing.T, source string) *Engine {
	t.Helper()
	e := New(Options{Text: texts{memURI: source}})
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func at(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

func span(line, from, to uint32) protocol.Range {
	return protocol.Range{Start: at(line, from), End: at(line, to)}
}

const tokenSource = `// greet says hello
export function greet(name: string): string {
  return "hi " + name;
}

const answer = 42;
let count = 0;
count = answer + 1;
greet("bob");
`

func TestSemanticTokens(t *testing.T) {
	e := memEngine(t, tokenSource)

	all, err := e.SemanticTokens(context.Background(), memURI, nil, nil)
	require.NoError(t, err)

	assert.Contains(t, all, tokens.Tuple{Line: 0, Column: 0, Length: 19, Type: tokenComment})
	assert.Contains(t, all, tokens.Tuple{Line: 1, Column: 0, Length: 6, Type: tokenKeyword})
	assert.Contains(t, all, tokens.Tuple{Line: 1, Column: 16, Length: 5, Type: tokenFunction, Modifiers: modDeclaration})
	assert.Contains(t, all, tokens.Tuple{Line: 1, Column: 22, Length: 4, Type: tokenParameter, Modifiers: modDeclaration})
	assert.Contains(t, all, tokens.Tuple{Line: 2, Column: 9, Length: 5, Type: tokenString})
	assert.Contains(t, all, tokens.Tuple{Line: 5, Column: 0, Length: 5, Type: tokenKeyword})
	assert.Contains(t, all, tokens.Tuple{Line: 5, Column: 6, Length: 6, Type: tokenVariable, Modifiers: modDeclaration | modReadonly})
	assert.Contains(t, all, tokens.Tuple{Line: 5, Column: 15, Length: 2, Type: tokenNumber})
	assert.Contains(t, all, tokens.Tuple{Line: 6, Column: 4, Length: 5, Type: tokenVariable, Modifiers: modDeclaration})
	assert.Contains(t, all, tokens.Tuple{Line: 8, Column: 0, Length: 5, Type: tokenFunction})

	// Type annotations are types, not string literals.
	assert.Contains(t, all, tokens.Tuple{Line: 1, Column: 28, Length: 6, Type: tokenType})
	for _, tuple := range all {
		if tuple.Line == 1 {
			assert.NotEqual(t, tokenString, tuple.Type)
		}
	}
}

func TestSemanticTokensRange(t *testing.T) {
	e := memEngine(t, tokenSource)

	rng := span(5, 0, 18)
	got, err := e.SemanticTokens(context.Background(), memURI, &rng, nil)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, tuple := range got {
		assert.Equal(t, uint32(5), tuple.Line)
	}
}

func TestSemanticTokensReportsBatches(t *testing.T) {
	e := New(Options{Text: texts{memURI: tokenSource}, ProgressBatch: 2})
	defer e.Close()

	var reported []tokens.Tuple
	batches := 0
	all, err := e.SemanticTokens(context.Background(), memURI, nil, func(batch []tokens.Tuple) {
		batches++
		reported = append(reported, batch...)
	})
	require.NoError(t, err)
	assert.Greater(t, batches, 1)
	assert.Equal(t, all, reported)
}

func TestSemanticTokensMultiline(t *testing.T) {
	e := memEngine(t, "/* one\n   two */\nlet x;\n")

	all, err := e.SemanticTokens(context.Background(), memURI, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, all, tokens.Tuple{Line: 0, Column: 0, Length: 6, Type: tokenComment})
	assert.Contains(t, all, tokens.Tuple{Line: 1, Column: 0, Length: 9, Type: tokenComment})
}

func TestUnsupportedDocument(t *testing.T) {
	e := New(Options{Text: texts{"file:///mem/App.vue": "<template/>"}})
	defer e.Close()

	got, err := e.SemanticTokens(context.Background(), "file:///mem/App.vue", nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestDocumentHighlights(t *testing.T) {
	e := memEngine(t, tokenSource)
	write, read := protocol.DocumentHighlightKindWrite, protocol.DocumentHighlightKindRead

	got, err := e.DocumentHighlights(context.Background(), memURI, at(7, 0))
	require.NoError(t, err)
	assert.Equal(t, []protocol.DocumentHighlight{
		{Range: span(6, 4, 9), Kind: &write},
		{Range: span(7, 0, 5), Kind: &write},
	}, got)

	// Cursor right after the identifier.
	got, err = e.DocumentHighlights(context.Background(), memURI, at(7, 14))
	require.NoError(t, err)
	assert.Equal(t, []protocol.DocumentHighlight{
		{Range: span(5, 6, 12), Kind: &write},
		{Range: span(7, 8, 14), Kind: &read},
	}, got)
}

func TestReferencesAndDefinition(t *testing.T) {
	e := memEngine(t, tokenSource)
	ctx := context.Background()

	refs, err := e.References(ctx, memURI, at(8, 1), false)
	require.NoError(t, err)
	assert.Equal(t, []protocol.Location{{URI: memURI, Range: span(8, 0, 5)}}, refs)

	refs, err = e.References(ctx, memURI, at(8, 1), true)
	require.NoError(t, err)
	assert.Len(t, refs, 2)

	defs, err := e.Definition(ctx, memURI, at(8, 1))
	require.NoError(t, err)
	assert.Equal(t, []protocol.Location{{URI: memURI, Range: span(1, 16, 21)}}, defs)
}

func TestRename(t *testing.T) {
	e := memEngine(t, tokenSource)
	ctx := context.Background()

	rng, err := e.PrepareRename(ctx, memURI, at(5, 7))
	require.NoError(t, err)
	require.NotNil(t, rng)
	assert.Equal(t, span(5, 6, 12), *rng)

	edit, err := e.Rename(ctx, memURI, at(5, 7), "result")
	require.NoError(t, err)
	require.NotNil(t, edit)
	assert.Equal(t, []protocol.TextEdit{
		{Range: span(5, 6, 12), NewText: "result"},
		{Range: span(7, 8, 14), NewText: "result"},
	}, edit.Changes[memURI])

	edit, err = e.Rename(ctx, memURI, at(4, 0), "nothing")
	assert.NoError(t, err)
	assert.Nil(t, edit)
}

func TestCompletion(t *testing.T) {
	e := memEngine(t, "const alpha = 1;\nfunction alphabet() {}\nal\n")

	list, err := e.Completion(context.Background(), memURI, at(2, 2), nil)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Len(t, list.Items, 2)

	first, second := list.Items[0], list.Items[1]
	assert.Equal(t, "alpha", first.Label)
	assert.Equal(t, protocol.CompletionItemKindVariable, *first.Kind)
	assert.Equal(t, "alphabet", second.Label)
	assert.Equal(t, protocol.CompletionItemKindFunction, *second.Kind)

	edit, ok := first.TextEdit.(protocol.InsertReplaceEdit)
	require.True(t, ok)
	assert.Equal(t, span(2, 0, 2), edit.Insert)
	assert.Equal(t, span(2, 0, 2), edit.Replace)
	assert.Equal(t, "alpha", edit.NewText)
}

func TestResolveCompletion(t *testing.T) {
	source := "/** The first one. */\nconst v = 1;\nfunction f() {\n  const v = 2;\n  v;\n}\n"
	e := memEngine(t, source)
	ctx := context.Background()
	item := &protocol.CompletionItem{Label: "v", Data: correlate.Attach(map[string]any{nameKey: "v"}, memURI)}

	resolved, err := e.ResolveCompletion(ctx, item, nil)
	require.NoError(t, err)
	require.NotNil(t, resolved.Detail)
	assert.Equal(t, "const v = 1;", *resolved.Detail)
	assert.Equal(t, "The first one.", resolved.Documentation)
	assert.Nil(t, item.Detail, "input item modified")

	live := at(4, 2)
	resolved, err = e.ResolveCompletion(ctx, item, &live)
	require.NoError(t, err)
	assert.Equal(t, "const v = 2;", *resolved.Detail)

	orphan := &protocol.CompletionItem{Label: "v"}
	resolved, err = e.ResolveCompletion(ctx, orphan, nil)
	require.NoError(t, err)
	assert.Same(t, orphan, resolved)
}

func TestCodeLenses(t *testing.T) {
	e := memEngine(t, "function greet() {}\ngreet();\ngreet();\nclass Lonely {}\n")
	ctx := context.Background()

	lenses, err := e.CodeLenses(ctx, memURI)
	require.NoError(t, err)
	require.Len(t, lenses, 2)
	assert.Nil(t, lenses[0].Command)

	correlate.CodeLenses(lenses, memURI)
	resolved, err := e.ResolveCodeLens(ctx, &lenses[0])
	require.NoError(t, err)
	require.NotNil(t, resolved.Command)
	assert.Equal(t, "2 references", resolved.Command.Title)

	resolved, err = e.ResolveCodeLens(ctx, &lenses[1])
	require.NoError(t, err)
	assert.Equal(t, "0 references", resolved.Command.Title)
}

const hierarchySource = `function helper() {}
function main() {
  helper();
  helper();
  log();
}
const run = () => main();
`

func TestCallHierarchy(t *testing.T) {
	e := memEngine(t, hierarchySource)
	ctx := context.Background()

	items, err := e.PrepareCallHierarchy(ctx, memURI, at(2, 3))
	require.NoError(t, err)
	require.Len(t, items, 1)
	helper := items[0]
	assert.Equal(t, "helper", helper.Name)
	assert.Equal(t, span(0, 9, 15), helper.SelectionRange)

	incoming, err := e.IncomingCalls(ctx, helper)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "main", incoming[0].From.Name)
	assert.Equal(t, []protocol.Range{span(2, 2, 8), span(3, 2, 8)}, incoming[0].FromRanges)

	items, err = e.PrepareCallHierarchy(ctx, memURI, at(1, 10))
	require.NoError(t, err)
	require.Len(t, items, 1)
	main := items[0]
	assert.Equal(t, "main", main.Name)

	outgoing, err := e.OutgoingCalls(ctx, main)
	require.NoError(t, err)
	require.Len(t, outgoing, 2)
	assert.Equal(t, "helper", outgoing[0].To.Name)
	assert.Equal(t, span(0, 9, 15), outgoing[0].To.SelectionRange)
	assert.Len(t, outgoing[0].FromRanges, 2)
	assert.Equal(t, "log", outgoing[1].To.Name)

	incoming, err = e.IncomingCalls(ctx, main)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "run", incoming[0].From.Name)
}

func TestInlayHints(t *testing.T) {
	e := memEngine(t, "function add(a: number, b: number) { return a + b; }\nconst b = 2;\nadd(1, b);\n")

	hints, err := e.InlayHints(context.Background(), memURI, protocol.Range{Start: at(0, 0), End: at(3, 0)})
	require.NoError(t, err)
	require.Len(t, hints, 1)
	assert.Equal(t, "a:", hints[0].Label)
	assert.Equal(t, at(2, 4), hints[0].Position)
	assert.Equal(t, engine.InlayHintKindParameter, *hints[0].Kind)

	hints, err = e.InlayHints(context.Background(), memURI, span(0, 0, 5))
	require.NoError(t, err)
	assert.Empty(t, hints)
}

func TestAutoInsert(t *testing.T) {
	e := memEngine(t, "/**\nconst a = 1;\n")
	ctx := context.Background()

	got, err := e.AutoInsert(ctx, memURI, at(0, 3), engine.AutoInsertChange{Text: "*"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, " $0 */", *got)

	got, err = e.AutoInsert(ctx, memURI, at(1, 5), engine.AutoInsertChange{Text: "t"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}
