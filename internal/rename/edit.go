package rename

import (
	"maps"
	"slices"

	"github.com/rottenpen/volar/internal/engine"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Merge folds src into dst. Per-document edit lists are concatenated, file
// operations are appended, annotations are united. Overlapping edits are
// not detected.
//
// When the result carries both changes and documentChanges, the changes are
// moved into documentChanges, since clients read only one of the two.
func Merge(dst, src *protocol.WorkspaceEdit) {
	if dst == nil || src == nil {
		return
	}

	if len(src.Changes) > 0 {
		if dst.Changes == nil {
			dst.Changes = make(map[protocol.DocumentUri][]protocol.TextEdit, len(src.Changes))
		}
		for uri, edits := range src.Changes {
			dst.Changes[uri] = append(dst.Changes[uri], edits...)
		}
	}

	for _, change := range src.DocumentChanges {
		edit, ok := asTextDocumentEdit(change)
		if !ok {
			dst.DocumentChanges = append(dst.DocumentChanges, change)
			continue
		}
		if i := findTextDocumentEdit(dst.DocumentChanges, edit.TextDocument.URI); i >= 0 {
			existing, _ := asTextDocumentEdit(dst.DocumentChanges[i])
			existing.Edits = append(existing.Edits, edit.Edits...)
			dst.DocumentChanges[i] = existing
			continue
		}
		dst.DocumentChanges = append(dst.DocumentChanges, edit)
	}

	if len(src.ChangeAnnotations) > 0 {
		if dst.ChangeAnnotations == nil {
			dst.ChangeAnnotations = make(map[protocol.ChangeAnnotationIdentifier]protocol.ChangeAnnotation, len(src.ChangeAnnotations))
		}
		for id, annotation := range src.ChangeAnnotations {
			dst.ChangeAnnotations[id] = annotation
		}
	}

	if len(dst.Changes) > 0 && len(dst.DocumentChanges) > 0 {
		foldChanges(dst)
	}
}

// foldChanges moves edit.Changes into edit.DocumentChanges in uri order.
// Edits for a document already listed are appended to its entry.
func foldChanges(edit *protocol.WorkspaceEdit) {
	for _, uri := range slices.Sorted(maps.Keys(edit.Changes)) {
		edits := make([]any, len(edit.Changes[uri]))
		for i, e := range edit.Changes[uri] {
			edits[i] = e
		}
		if i := findTextDocumentEdit(edit.DocumentChanges, uri); i >= 0 {
			existing, _ := asTextDocumentEdit(edit.DocumentChanges[i])
			existing.Edits = append(existing.Edits, edits...)
			edit.DocumentChanges[i] = existing
			continue
		}
		edit.DocumentChanges = append(edit.DocumentChanges, protocol.TextDocumentEdit{
			TextDocument: protocol.OptionalVersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			},
			Edits: edits,
		})
	}
	edit.Changes = nil
}

// Rewrite retargets edits addressed to a renamed file at its new location.
// Versioned document edits take the new document's version when versions
// knows it and keep their stamp otherwise.
func Rewrite(edit *protocol.WorkspaceEdit, files []protocol.FileRename, versions engine.VersionSource) {
	if edit == nil {
		return
	}
	renamed := make(map[protocol.DocumentUri]protocol.DocumentUri, len(files))
	for _, f := range files {
		renamed[f.OldURI] = f.NewURI
	}

	if len(edit.Changes) > 0 {
		// Edits already addressed to a new name come first, then the moved
		// files' own edits in batch order.
		changes := make(map[protocol.DocumentUri][]protocol.TextEdit, len(edit.Changes))
		for uri, edits := range edit.Changes {
			if _, ok := renamed[uri]; !ok {
				changes[uri] = append(changes[uri], edits...)
			}
		}
		moved := make(map[protocol.DocumentUri]bool, len(files))
		for _, f := range files {
			edits, ok := edit.Changes[f.OldURI]
			if !ok || moved[f.OldURI] {
				continue
			}
			moved[f.OldURI] = true
			changes[f.NewURI] = append(changes[f.NewURI], edits...)
		}
		edit.Changes = changes
	}

	for i, change := range edit.DocumentChanges {
		docEdit, ok := asTextDocumentEdit(change)
		if !ok {
			continue
		}
		newURI, ok := renamed[docEdit.TextDocument.URI]
		if !ok {
			continue
		}
		docEdit.TextDocument.URI = newURI
		if versions != nil {
			if version, ok := versions.Version(newURI); ok {
				docEdit.TextDocument.Version = &version
			}
		}
		edit.DocumentChanges[i] = docEdit
	}
}

// IsEmpty reports whether edit changes nothing.
func IsEmpty(edit *protocol.WorkspaceEdit) bool {
	return edit == nil || (len(edit.Changes) == 0 && len(edit.DocumentChanges) == 0)
}

func asTextDocumentEdit(change any) (protocol.TextDocumentEdit, bool) {
	switch v := change.(type) {
	case protocol.TextDocumentEdit:
		return v, true
	case *protocol.TextDocumentEdit:
		if v != nil {
			return *v, true
		}
	}
	return protocol.TextDocumentEdit{}, false
}

func findTextDocumentEdit(changes []any, uri protocol.DocumentUri) int {
	for i, change := range changes {
		if edit, ok := asTextDocumentEdit(change); ok && edit.TextDocument.URI == uri {
			return i
		}
	}
	return -1
}
