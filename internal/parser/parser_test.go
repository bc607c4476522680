package parser_test

import (
	"context"
	"testing"

	"github.com/rottenpen/volar/internal/parser"
	"github.com/rottenpen/volar/internal/sitteradapter"

	sitter "github.com/smacker/go-tree-sitter"
	lsp "github.com/tliron/glsp/protocol_3_16"
)

const functions = `(function_declaration name: (identifier) @name)`

func names(t *testing.T, lang *sitter.Language) parser.Visitor {
	t.Helper()
	return func(root *sitter.Node, source []byte) error {
		captures, err := parser.Query(root, lang, []byte(functions), source)
		if err != nil {
			return err
		}
		var got []string
		for _, c := range captures {
			got = append(got, c.Content)
		}
		t.Logf("captures: %v", got)
		return nil
	}
}

func collect(lang *sitter.Language, out *[]string) parser.Visitor {
	return func(root *sitter.Node, source []byte) error {
		captures, err := parser.Query(root, lang, []byte(functions), source)
		if err != nil {
			return err
		}
		*out = (*out)[:0]
		for _, c := range captures {
			if c.Name == "name" {
				*out = append(*out, c.Content)
			}
		}
		return nil
	}
}

func TestLanguageFor(t *testing.T) {
	tests := map[string]bool{
		"file:///w/a.ts":   true,
		"file:///w/a.MTS":  true,
		"file:///w/a.tsx":  true,
		"file:///w/a.jsx":  true,
		"file:///w/a.cjs":  true,
		"file:///w/a.vue":  false,
		"file:///w/README": false,
	}
	for name, supported := range tests {
		if got := parser.LanguageFor(name) != nil; got != supported {
			t.Errorf("LanguageFor(%s) supported = %v, want %v", name, got, supported)
		}
	}
}

func TestPoolInspect(t *testing.T) {
	pool := parser.NewPool(2)
	defer pool.Close()

	lang := parser.LanguageFor("a.ts")
	source := []byte("function alpha() {}\nconst x = 1\nfunction beta(a: number) { return a }\n")

	var got []string
	if err := pool.Inspect(context.Background(), lang, source, collect(lang, &got)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("functions = %v, want [alpha beta]", got)
	}

	// Parsers are reused across calls.
	for i := 0; i < 4; i++ {
		if err := pool.Inspect(context.Background(), lang, source, names(t, lang)); err != nil {
			t.Fatal(err)
		}
	}

	if err := pool.Inspect(context.Background(), nil, source, collect(lang, &got)); err != parser.ErrUnsupported {
		t.Errorf("nil language: err = %v, want ErrUnsupported", err)
	}
}

func TestPoolInspectCancelled(t *testing.T) {
	pool := parser.NewPool(1)
	defer pool.Close()
	lang := parser.LanguageFor("a.js")

	ctx, cancel := context.WithCancel(context.Background())
	blocked := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- pool.Inspect(context.Background(), lang, []byte("function a() {}"), func(*sitter.Node, []byte) error {
			close(blocked)
			<-ctx.Done()
			return nil
		})
	}()
	<-blocked

	waiting := make(chan error, 1)
	waitCtx, stop := context.WithCancel(context.Background())
	go func() {
		waiting <- pool.Inspect(waitCtx, lang, []byte("function b() {}"), func(*sitter.Node, []byte) error { return nil })
	}()
	stop()
	if err := <-waiting; err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestDocumentIncrementalEdit(t *testing.T) {
	lang := parser.LanguageFor("a.ts")
	text := "function alpha() {}\n"
	doc := parser.NewDocument(lang, []byte(text))
	defer doc.Close()

	var got []string
	if err := doc.Inspect(context.Background(), collect(lang, &got)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "alpha" {
		t.Fatalf("functions = %v, want [alpha]", got)
	}

	rng := lsp.Range{Start: lsp.Position{Line: 0, Character: 9}, End: lsp.Position{Line: 0, Character: 14}}
	change := lsp.TextDocumentContentChangeEvent{Range: &rng, Text: "gamma"}
	edit := sitteradapter.EditInput(change, text)
	text, _ = sitteradapter.ApplyChange(change, text)
	doc.Edit(edit, []byte(text))

	if err := doc.Inspect(context.Background(), collect(lang, &got)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "gamma" {
		t.Errorf("functions after edit = %v, want [gamma]", got)
	}

	doc.Replace([]byte("function delta() {}\nfunction omega() {}\n"))
	if err := doc.Inspect(context.Background(), collect(lang, &got)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "delta" {
		t.Errorf("functions after replace = %v, want [delta omega]", got)
	}
}

func TestDocumentClosed(t *testing.T) {
	doc := parser.NewDocument(parser.LanguageFor("a.js"), []byte("x"))
	doc.Close()
	if err := doc.Inspect(context.Background(), func(*sitter.Node, []byte) error { return nil }); err == nil {
		t.Error("expected error inspecting a closed document")
	}
}
