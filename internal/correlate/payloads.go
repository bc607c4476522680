package correlate

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func CompletionList(list *protocol.CompletionList, uri protocol.DocumentUri) {
	if list == nil {
		return
	}
	for i := range list.Items {
		list.Items[i].Data = Attach(list.Items[i].Data, uri)
	}
}

func CodeLenses(lenses []protocol.CodeLens, uri protocol.DocumentUri) {
	for i := range lenses {
		lenses[i].Data = Attach(lenses[i].Data, uri)
	}
}

func CodeActions(actions []protocol.CodeAction, uri protocol.DocumentUri) {
	for i := range actions {
		actions[i].Data = Attach(actions[i].Data, uri)
	}
}

func CallHierarchyItems(items []protocol.CallHierarchyItem, uri protocol.DocumentUri) {
	for i := range items {
		items[i].Data = Attach(items[i].Data, uri)
	}
}

// CallHierarchyOrigin finds the document whose engine prepared item.
//
// item.URI names the declaration, which can live in another project than
// the one that produced the item, so the attached key wins. item.URI is
// only used for items that never passed through this package.
func CallHierarchyOrigin(item protocol.CallHierarchyItem) (protocol.DocumentUri, bool) {
	if uri, ok := Recover(item.Data); ok {
		return uri, true
	}
	if item.URI != "" {
		return item.URI, true
	}
	return "", false
}
