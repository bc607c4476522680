package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/a.ts":                "a",
		"src/deep/b.js":           "b",
		"src/readme.md":           "skip me",
		".git/config":             "hidden",
		"node_modules/x/index.js": "dependency",
		"src/.cache/generated.ts": "hidden",
	})

	var mu sync.Mutex
	got := map[string]string{}
	err := Scan(context.Background(), root,
		func(path string, _ fs.FileInfo) bool { return filepath.Ext(path) == ".md" },
		func(path string, document []byte) {
			rel, _ := filepath.Rel(root, path)
			mu.Lock()
			got[filepath.ToSlash(rel)] = string(document)
			mu.Unlock()
		})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for name := range got {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "src/a.ts" || names[1] != "src/deep/b.js" {
		t.Errorf("scanned %v, want [src/a.ts src/deep/b.js]", names)
	}
	if got["src/a.ts"] != "a" {
		t.Errorf("content = %q, want %q", got["src/a.ts"], "a")
	}
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.ts": "a", "b.ts": "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Scan(ctx, root, nil, func(string, []byte) { calls++ })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("callback ran %d times after cancel", calls)
	}
}

func TestIgnoreDir(t *testing.T) {
	for name, want := range map[string]bool{
		".git":         true,
		".vscode":      true,
		"node_modules": true,
		"src":          false,
		"node":         false,
	} {
		if got := IgnoreDir(name); got != want {
			t.Errorf("IgnoreDir(%q) = %v, want %v", name, got, want)
		}
	}
}
