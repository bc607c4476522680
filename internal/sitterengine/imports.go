package sitterengine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rottenpen/volar/internal/parser"
	"github.com/rottenpen/volar/internal/resolver"
	"github.com/rottenpen/volar/internal/scanner"
	"github.com/rottenpen/volar/internal/sitteradapter"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// sourceExtensions are tried in order when an import omits the extension.
var sourceExtensions = []string{".ts", ".tsx", ".d.ts", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// specifier is the string literal of a relative module reference.
type specifier struct {
	node  *sitter.Node
	value string
}

// importSpecifiers collects the relative module references of a file:
// import and export sources, import-equals requires, require() and import().
func importSpecifiers(root *sitter.Node, source []byte) []specifier {
	var found []specifier
	add := func(n *sitter.Node) {
		if n == nil || n.Type() != "string" {
			return
		}
		content := n.Content(source)
		if len(content) < 2 {
			return
		}
		value := content[1 : len(content)-1]
		if strings.HasPrefix(value, "./") || strings.HasPrefix(value, "../") || value == "." || value == ".." {
			found = append(found, specifier{node: n, value: value})
		}
	}

	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement", "export_statement", "import_require_clause":
			add(n.ChildByFieldName("source"))
		case "call_expression":
			fn := n.ChildByFieldName("function")
			args := n.ChildByFieldName("arguments")
			if fn == nil || args == nil || args.NamedChildCount() == 0 {
				break
			}
			if fn.Type() == "import" || (fn.Type() == "identifier" && fn.Content(source) == "require") {
				add(args.NamedChild(0))
			}
		}
		return true
	})
	return found
}

// innerRange is the range of a string literal without its quotes.
func innerRange(lines *sitteradapter.Lines, n *sitter.Node) protocol.Range {
	return protocol.Range{
		Start: lines.PositionAt(int(n.StartByte()) + 1),
		End:   lines.PositionAt(int(n.EndByte()) - 1),
	}
}

func stripExt(path string) string {
	if strings.HasSuffix(path, ".d.ts") {
		return strings.TrimSuffix(path, ".d.ts")
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// move describes one renamed file or directory.
type move struct {
	oldPath, newPath string
	dir              bool
}

// moved returns where path ends up after the move.
func (m move) moved(path string) (string, bool) {
	if path == m.oldPath {
		return m.newPath, true
	}
	if m.dir && strings.HasPrefix(path, m.oldPath+string(filepath.Separator)) {
		rel, err := filepath.Rel(m.oldPath, path)
		if err != nil {
			return "", false
		}
		return filepath.Join(m.newPath, rel), true
	}
	return "", false
}

// retarget maps the resolved path of an import to its post-move target,
// keeping the import's style: extensionless, index and .js-for-.ts imports
// stay that way.
func (m move) retarget(resolved string) (string, bool) {
	if target, ok := m.moved(resolved); ok {
		return target, true
	}
	if m.dir {
		return "", false
	}
	oldStem, newStem := stripExt(m.oldPath), stripExt(m.newPath)
	switch {
	case resolved == oldStem:
		return newStem, true
	case stripExt(resolved) == oldStem && filepath.Ext(resolved) != "":
		return newStem + filepath.Ext(resolved), true
	case resolved == filepath.Dir(m.oldPath) && filepath.Base(oldStem) == "index":
		if filepath.Base(newStem) == "index" {
			return filepath.Dir(m.newPath), true
		}
		return newStem, true
	}
	return "", false
}

func relativeSpecifier(fromDir, target string) string {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "."
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return rel
	}
	return "./" + rel
}

// FileRenameEdits rewrites the relative imports a move breaks: references to
// the moved file from the rest of the project, and the moved file's own
// references when its directory changes. Edits to the moved file are
// addressed to oldURI.
func (e *Engine) FileRenameEdits(ctx context.Context, oldURI, newURI protocol.DocumentUri) (*protocol.WorkspaceEdit, error) {
	oldPath, err := resolver.PathFromURI(oldURI)
	if err != nil {
		return nil, nil
	}
	newPath, err := resolver.PathFromURI(newURI)
	if err != nil {
		return nil, nil
	}
	m := move{oldPath: oldPath, newPath: newPath, dir: parser.LanguageFor(oldPath) == nil && filepath.Ext(oldPath) == ""}

	changes := map[protocol.DocumentUri][]protocol.TextEdit{}
	rewrite := func(uri protocol.DocumentUri, importer string, source []byte) error {
		return e.inspectText(ctx, uri, source, func(root *sitter.Node, source []byte) error {
			edits := m.importEdits(importer, root, source)
			if len(edits) > 0 {
				changes[uri] = append(changes[uri], edits...)
			}
			return nil
		})
	}

	if !m.dir {
		if text, ok := e.source(oldURI); ok {
			if err := rewrite(oldURI, oldPath, text); err != nil {
				return nil, err
			}
		}
	}

	if e.root != "" {
		err := scanner.Scan(ctx, e.root,
			func(path string, info fs.FileInfo) bool {
				if parser.LanguageFor(path) == nil || info.Size() > maxFileSize {
					return true
				}
				_, inOld := m.moved(path)
				_, inNew := move{oldPath: newPath, dir: m.dir}.moved(path)
				return inOld || inNew
			},
			func(path string, document []byte) {
				uri := resolver.URIFromPath(path)
				if e.text != nil {
					if text, ok := e.text.Text(uri); ok {
						document = []byte(text)
					}
				}
				if err := rewrite(uri, path, document); err != nil {
					log.Warningf("Cannot update imports of %s: %v", path, err)
				}
			})
		if err != nil {
			return nil, err
		}
	}

	if len(changes) == 0 {
		return nil, nil
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

// importEdits returns the specifier rewrites importer needs.
func (m move) importEdits(importer string, root *sitter.Node, source []byte) []protocol.TextEdit {
	lines := sitteradapter.NewLines(string(source))
	oldDir := filepath.Dir(importer)
	newDir := oldDir
	if moved, ok := m.moved(importer); ok {
		newDir = filepath.Dir(moved)
	}

	var edits []protocol.TextEdit
	for _, spec := range importSpecifiers(root, source) {
		resolved := filepath.Join(oldDir, filepath.FromSlash(spec.value))
		target, ok := m.retarget(resolved)
		if !ok {
			if newDir == oldDir {
				continue
			}
			target = resolved
		}
		value := relativeSpecifier(newDir, target)
		if value == "" || value == spec.value {
			continue
		}
		edits = append(edits, protocol.TextEdit{
			Range:   innerRange(lines, spec.node),
			NewText: value,
		})
	}
	return edits
}

// DocumentLinks links relative imports to the files they resolve to.
func (e *Engine) DocumentLinks(ctx context.Context, uri protocol.DocumentUri) ([]protocol.DocumentLink, error) {
	path, err := resolver.PathFromURI(uri)
	if err != nil {
		return nil, nil
	}
	dir := filepath.Dir(path)

	var links []protocol.DocumentLink
	_, err = e.inspect(ctx, uri, func(root *sitter.Node, source []byte) error {
		lines := sitteradapter.NewLines(string(source))
		for _, spec := range importSpecifiers(root, source) {
			file, ok := resolveModule(filepath.Join(dir, filepath.FromSlash(spec.value)))
			if !ok {
				continue
			}
			target := resolver.URIFromPath(file)
			links = append(links, protocol.DocumentLink{
				Range:  innerRange(lines, spec.node),
				Target: &target,
			})
		}
		return nil
	})
	return links, err
}

// resolveModule finds the file a relative import refers to.
func resolveModule(path string) (string, bool) {
	if isFile(path) {
		return path, true
	}
	stem := stripExt(path)
	for _, ext := range sourceExtensions {
		if isFile(path + ext) {
			return path + ext, true
		}
		if stem != path && isFile(stem+ext) {
			return stem + ext, true
		}
	}
	for _, ext := range sourceExtensions {
		index := filepath.Join(path, "index"+ext)
		if isFile(index) {
			return index, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
