package dispatch

import (
	"context"
	"strings"

	"github.com/rottenpen/volar/internal/correlate"
	"github.com/rottenpen/volar/internal/engine"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Completion asks the engine owning uri for completions, downgrades
// insert/replace edits the client cannot handle and stamps every item with
// uri for the resolve phase.
func Completion(ctx context.Context, resolver engine.Resolver, uri protocol.DocumentUri, pos protocol.Position, cc *protocol.CompletionContext, insertReplace bool) *protocol.CompletionList {
	list, ok := Dispatch(ctx, resolver, "completion", uri, func(ctx context.Context, e engine.Engine) (*protocol.CompletionList, error) {
		return e.Completion(ctx, uri, pos, cc)
	})
	if !ok || list == nil {
		return nil
	}
	if !insertReplace {
		DowngradeCompletion(list.Items)
	}
	correlate.CompletionList(list, uri)
	return list
}

// DowngradeCompletion rewrites every insert/replace edit into a plain text
// edit over the insert range.
func DowngradeCompletion(items []protocol.CompletionItem) {
	for i := range items {
		switch edit := items[i].TextEdit.(type) {
		case protocol.InsertReplaceEdit:
			items[i].TextEdit = downgrade(edit)
		case *protocol.InsertReplaceEdit:
			if edit != nil {
				items[i].TextEdit = downgrade(*edit)
			}
		}
	}
}

func downgrade(edit protocol.InsertReplaceEdit) protocol.TextEdit {
	return protocol.TextEdit{Range: edit.Insert, NewText: edit.NewText}
}

// ResolveCompletion runs completionItem/resolve on the engine that produced
// item. With correlateSelection set the client is asked for its cursor, and
// the position is handed to the engine when it is in the same document.
func ResolveCompletion(ctx context.Context, resolver engine.Resolver, client engine.Client, correlateSelection bool, item *protocol.CompletionItem) *protocol.CompletionItem {
	if item == nil {
		return nil
	}
	uri, ok := correlate.Recover(item.Data)
	if !ok {
		log.Debugf("completionItem/resolve: %v", engine.ErrStaleCorrelation)
		return item
	}

	var live *protocol.Position
	if correlateSelection && client != nil {
		live = activePosition(ctx, client, uri)
	}

	return Resolve(ctx, resolver, "completionItem/resolve", item, item.Data, func(ctx context.Context, e engine.Engine) (*protocol.CompletionItem, error) {
		return e.ResolveCompletion(ctx, item, live)
	})
}

func activePosition(ctx context.Context, client engine.Client, uri protocol.DocumentUri) *protocol.Position {
	selection, ok := client.ActiveSelection(ctx)
	if !ok {
		return nil
	}
	if !strings.EqualFold(selection.TextDocument.URI, uri) {
		log.Debugf("Active editor %s is not %s", selection.TextDocument.URI, uri)
		return nil
	}
	pos := selection.Position
	return &pos
}
